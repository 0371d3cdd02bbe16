package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-drums/drum"
	"github.com/cwbudde/algo-drums/internal/wavio"
	"github.com/cwbudde/algo-drums/preset"
)

func main() {
	voiceName := flag.String("voice", "all", "Voice to render (kick, snare, hihat, openhat, crash, ride, rimshot, clap) or 'all'")
	presetPath := flag.String("preset", "", "Kit preset JSON file (optional)")
	sampleRate := flag.Int("sample-rate", 44100, "Render sample rate in Hz")
	output := flag.String("output", "", "Output WAV path for a single voice (default <voice>.wav)")
	outDir := flag.String("out-dir", "renders", "Output directory when rendering all voices")
	flag.Parse()

	kit := preset.DefaultKit()
	if *presetPath != "" {
		var err error
		kit, err = preset.LoadJSON(*presetPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading preset %q: %v\n", *presetPath, err)
			os.Exit(1)
		}
	}
	fmt.Printf("Rendering kit %q at %d Hz...\n", kit.Name, *sampleRate)

	if *voiceName == "all" {
		for _, v := range drum.Voices() {
			path := filepath.Join(*outDir, v.String()+".wav")
			if err := renderVoice(kit, v, *sampleRate, path); err != nil {
				fmt.Fprintf(os.Stderr, "Error rendering %s: %v\n", v, err)
				os.Exit(1)
			}
		}
		return
	}

	v, err := drum.ParseVoice(*voiceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	path := *output
	if path == "" {
		path = v.String() + ".wav"
	}
	if err := renderVoice(kit, v, *sampleRate, path); err != nil {
		fmt.Fprintf(os.Stderr, "Error rendering %s: %v\n", v, err)
		os.Exit(1)
	}
}

func renderVoice(kit *preset.Kit, v drum.Voice, sampleRate int, path string) error {
	buf, err := drum.Synthesize(v, kit.Params(v), sampleRate)
	if err != nil {
		return err
	}
	if err := wavio.WriteMono(path, buf.Data, sampleRate); err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%d frames, %.3fs)\n", path, buf.Frames(), buf.Duration())
	return nil
}
