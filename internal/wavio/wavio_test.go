package wavio

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-drums/drum"
)

func TestWriteReadRoundTrip(t *testing.T) {
	const sr = 44100
	buf, err := drum.Synthesize(drum.Snare, drum.DefaultSnareParams(), sr)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}

	path := filepath.Join(t.TempDir(), "snare.wav")
	if err := WriteMono(path, buf.Data, sr); err != nil {
		t.Fatalf("WriteMono: %v", err)
	}

	got, rate, err := ReadMono(path)
	if err != nil {
		t.Fatalf("ReadMono: %v", err)
	}
	if rate != sr {
		t.Fatalf("rate %d, want %d", rate, sr)
	}
	if len(got) != len(buf.Data) {
		t.Fatalf("got %d frames, want %d", len(got), len(buf.Data))
	}
	// 16-bit quantization bounds the round-trip error.
	const tol = 1.0 / 32768
	for i := range got {
		if math.Abs(got[i]-float64(buf.Data[i])) > tol {
			t.Fatalf("frame %d: got %f, want %f", i, got[i], buf.Data[i])
		}
	}
}

func TestResampleKeepsDuration(t *testing.T) {
	const fromRate, toRate = 44100, 48000
	in := make([]float64, fromRate/10) // 100 ms
	for i := range in {
		in[i] = math.Sin(2 * math.Pi * 440 * float64(i) / fromRate)
	}

	out, err := Resample(in, fromRate, toRate)
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}
	wantFrames := toRate / 10
	if d := wantFrames - len(out); d > wantFrames/100 || d < -wantFrames/100 {
		t.Fatalf("resampled to %d frames, want about %d", len(out), wantFrames)
	}
}

func TestResampleSameRatePassesThrough(t *testing.T) {
	in := []float64{0.1, 0.2, 0.3}
	out, err := Resample(in, 48000, 48000)
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}
	if &out[0] != &in[0] {
		t.Fatal("same-rate resample should return the input slice")
	}
}

func TestLoadBufferResamplesToTargetRate(t *testing.T) {
	const fileSR, targetSR = 44100, 48000
	src, err := drum.Synthesize(drum.Kick, drum.DefaultKickParams(), fileSR)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	path := filepath.Join(t.TempDir(), "kick.wav")
	if err := WriteMono(path, src.Data, fileSR); err != nil {
		t.Fatalf("WriteMono: %v", err)
	}

	buf, err := LoadBuffer(path, targetSR)
	if err != nil {
		t.Fatalf("LoadBuffer: %v", err)
	}
	if buf.SampleRate != targetSR || buf.Channels != 1 {
		t.Fatalf("buffer format %d/%d, want %d/1", buf.SampleRate, buf.Channels, targetSR)
	}
	if d := buf.Duration() - src.Duration(); math.Abs(d) > 0.01 {
		t.Fatalf("duration drifted by %f s after resample", d)
	}
}

func TestReadMonoRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noise.wav")
	if err := os.WriteFile(path, []byte("not a wav file"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := ReadMono(path); err == nil {
		t.Fatal("garbage file accepted")
	}
	if _, _, err := ReadMono(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Fatal("missing file accepted")
	}
}
