package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/cwbudde/algo-drums/bank"
	"github.com/cwbudde/algo-drums/drum"
	"github.com/cwbudde/algo-drums/playback"
)

// defaultPattern is a 16-step rock beat. Each line is voice:steps where 'x'
// triggers a hit and '.' rests.
const defaultPattern = "kick:x...x...x...x...,snare:....x.......x...,hihat:x.x.x.x.x.x.x.x."

func main() {
	sampleRate := flag.Int("sample-rate", 44100, "Device sample rate in Hz")
	bpm := flag.Float64("bpm", 120, "Tempo in beats per minute (4 steps per beat)")
	loops := flag.Int("loops", 2, "How many times to repeat the pattern")
	pattern := flag.String("pattern", defaultPattern, "Comma-separated voice:steps lines ('x' hit, '.' rest)")
	velocity := flag.Float64("velocity", 0.9, "Hit velocity (0-1)")
	list := flag.Bool("list", false, "List available factory samples and exit")
	flag.Parse()

	logger := log.New(os.Stderr, "drum-play: ", log.LstdFlags)

	sources, err := bank.DefaultSources(*sampleRate)
	if err != nil {
		logger.Fatalf("build factory kit: %v", err)
	}
	b := bank.New(logger)
	if err := b.Initialize(sources); err != nil {
		logger.Fatalf("initialize bank: %v", err)
	}

	if *list {
		for _, item := range b.SamplesByCategory(bank.FactoryCategory) {
			fmt.Printf("%-12s %s\n", item.Name, item.Kind)
		}
		return
	}

	tracks, err := parsePattern(*pattern)
	if err != nil {
		logger.Fatalf("parse pattern: %v", err)
	}

	out, err := playback.NewDeviceOutput(*sampleRate)
	if err != nil {
		logger.Fatalf("open audio device: %v", err)
	}
	defer out.Close()

	engine := playback.NewEngine(out, logger)
	stepDur := 60.0 / *bpm / 4.0
	steps := 0
	for _, tr := range tracks {
		if len(tr.steps) > steps {
			steps = len(tr.steps)
		}
	}

	fmt.Printf("Playing %d loops at %.0f BPM (%d steps)...\n", *loops, *bpm, steps)
	start := out.CurrentTime() + 0.05
	for loop := 0; loop < *loops; loop++ {
		for _, tr := range tracks {
			buf := b.Sample(tr.sample, bank.FactoryCategory)
			if buf == nil {
				logger.Fatalf("no factory sample %q", tr.sample)
			}
			for i, hit := range tr.steps {
				if !hit {
					continue
				}
				when := start + float64(loop*steps+i)*stepDur
				if _, err := engine.Play(buf, playback.Request{
					Velocity:  *velocity,
					StartTime: when,
				}); err != nil {
					logger.Fatalf("schedule %s: %v", tr.sample, err)
				}
			}
		}
	}

	total := float64(*loops*steps)*stepDur + 1.5
	time.Sleep(time.Duration(total * float64(time.Second)))
}

type track struct {
	sample string
	steps  []bool
}

func parsePattern(s string) ([]track, error) {
	var tracks []track
	for _, line := range strings.Split(s, ",") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, steps, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("line %q: want voice:steps", line)
		}
		if _, err := drum.ParseVoice(strings.TrimSpace(name)); err != nil {
			return nil, err
		}
		tr := track{sample: strings.TrimSpace(name)}
		for _, c := range steps {
			switch c {
			case 'x', 'X':
				tr.steps = append(tr.steps, true)
			case '.', '-':
				tr.steps = append(tr.steps, false)
			default:
				return nil, fmt.Errorf("line %q: bad step %q", line, c)
			}
		}
		if len(tr.steps) == 0 {
			return nil, fmt.Errorf("line %q: empty steps", line)
		}
		tracks = append(tracks, tr)
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("empty pattern")
	}
	return tracks, nil
}
