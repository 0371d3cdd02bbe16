package analysis

import (
	"math"
	"math/rand"
	"testing"

	"github.com/cwbudde/algo-drums/drum"
)

func synthSignal(t testing.TB, v drum.Voice, p drum.Params, sr int) []float64 {
	t.Helper()
	buf, err := drum.Synthesize(v, p, sr)
	if err != nil {
		t.Fatalf("synthesize %s: %v", v, err)
	}
	return Signal(buf)
}

func TestCompareIdenticalHitsHasLowDistance(t *testing.T) {
	const sr = 44100
	x := synthSignal(t, drum.Kick, drum.DefaultKickParams(), sr)
	m := Compare(x, x, sr)
	if m.Score > 0.05 {
		t.Fatalf("expected very low score for identical hits, got %f", m.Score)
	}
	if m.Similarity < 0.85 {
		t.Fatalf("expected high similarity for identical hits, got %f", m.Similarity)
	}
	if m.LagSamples != 0 {
		t.Fatalf("lag %d for identical hits, want 0", m.LagSamples)
	}
}

func TestCompareDifferentVoicesHasHigherDistance(t *testing.T) {
	const sr = 44100
	kick := synthSignal(t, drum.Kick, drum.DefaultKickParams(), sr)
	snare := synthSignal(t, drum.Snare, drum.DefaultSnareParams(), sr)

	same := Compare(kick, kick, sr)
	cross := Compare(kick, snare, sr)
	if cross.Score <= same.Score {
		t.Fatalf("cross-voice score %f not above same-voice score %f", cross.Score, same.Score)
	}
	if cross.Score < 0.15 {
		t.Fatalf("expected clearly nonzero score across voices, got %f", cross.Score)
	}
}

func TestCompareDetectsDecayChange(t *testing.T) {
	const sr = 44100
	short := drum.DefaultCrashParams()
	short.DecayS = 0.2
	long := drum.DefaultCrashParams()
	long.DecayS = 1.1

	a := synthSignal(t, drum.Crash, short, sr)
	b := synthSignal(t, drum.Crash, long, sr)
	m := Compare(a, b, sr)
	if m.DecayDiffDBPerS <= 0 {
		t.Fatalf("decay difference not detected: %+v", m)
	}
}

func TestSpectralCentroidOrdersVoicesByBrightness(t *testing.T) {
	const sr = 44100
	kick := synthSignal(t, drum.Kick, drum.DefaultKickParams(), sr)
	hat := synthSignal(t, drum.HiHat, drum.DefaultHatParams(), sr)

	m := Compare(kick, hat, sr)
	if m.RefCentroidHz <= 0 || m.CandCentroidHz <= 0 {
		t.Fatalf("centroids not computed: ref %f, cand %f", m.RefCentroidHz, m.CandCentroidHz)
	}
	if m.CandCentroidHz <= m.RefCentroidHz {
		t.Fatalf("hat centroid %f Hz not above kick centroid %f Hz", m.CandCentroidHz, m.RefCentroidHz)
	}
}

func TestEstimateLagFindsShift(t *testing.T) {
	const (
		n     = 8192
		shift = 137
	)
	rng := rand.New(rand.NewSource(7))
	ref := make([]float64, n)
	for i := range ref {
		ref[i] = rng.Float64()*2 - 1
	}
	cand := make([]float64, n)
	copy(cand, ref[shift:])

	if got := estimateLag(ref, cand, 400); got != shift {
		t.Fatalf("estimateLag() = %d, want %d", got, shift)
	}

	neg := make([]float64, n)
	copy(neg[shift:], ref)
	if got := estimateLag(ref, neg, 400); got != -shift {
		t.Fatalf("estimateLag() = %d, want %d", got, -shift)
	}
}

func TestCompareDegenerateInputs(t *testing.T) {
	if m := Compare(nil, nil, 44100); m.Score != 1 {
		t.Fatalf("nil inputs: score %f, want 1", m.Score)
	}
	silence := make([]float64, 4096)
	if m := Compare(silence, silence, 44100); m.Score != 1 {
		t.Fatalf("silent inputs: score %f, want 1", m.Score)
	}
	x := []float64{0.5, -0.5, 0.25}
	if m := Compare(x, x, 0); m.Score != 1 {
		t.Fatalf("zero sample rate: score %f, want 1", m.Score)
	}
}

func TestSignalFoldsStereoToMono(t *testing.T) {
	buf := &drum.Buffer{
		SampleRate: 44100,
		Channels:   2,
		Data:       []float32{1, 0, 0.5, 0.5, -1, 1},
	}
	got := Signal(buf)
	want := []float64{0.5, 0.5, 0}
	if len(got) != len(want) {
		t.Fatalf("got %d frames, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Fatalf("frame %d = %f, want %f", i, got[i], want[i])
		}
	}
	if Signal(nil) != nil {
		t.Fatal("nil buffer should fold to nil")
	}
}

func BenchmarkCompare(b *testing.B) {
	const sr = 44100
	ref := synthSignal(b, drum.Snare, drum.DefaultSnareParams(), sr)
	cand := drum.DefaultSnareParams()
	cand.NoiseMix = 0.5
	c := synthSignal(b, drum.Snare, cand, sr)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Compare(ref, c, sr)
	}
}
