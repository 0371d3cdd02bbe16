package playback

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-drums/drum"
)

func dcBuffer(sampleRate, frames int, value float32) *drum.Buffer {
	data := make([]float32, frames)
	for i := range data {
		data[i] = value
	}
	return &drum.Buffer{SampleRate: sampleRate, Channels: 1, Data: data}
}

func rampBuffer(sampleRate, frames int) *drum.Buffer {
	data := make([]float32, frames)
	for i := range data {
		data[i] = float32(i) / float32(frames)
	}
	return &drum.Buffer{SampleRate: sampleRate, Channels: 1, Data: data}
}

func renderBlocks(m *Mixer, channels, frames, blocks int) []float32 {
	out := make([]float32, 0, frames*channels*blocks)
	block := make([]float32, frames*channels)
	for b := 0; b < blocks; b++ {
		m.Render(block)
		out = append(out, block...)
	}
	return out
}

func TestMixerOnsetRampSuppressesClick(t *testing.T) {
	const sr = 48000
	m := NewMixer(sr, 1)
	buf := dcBuffer(sr, sr/2, 1)

	_, err := m.Play(buf, PlaySpec{Rate: 1, Gain: 1, RampS: 0.001})
	if err != nil {
		t.Fatalf("Play: %v", err)
	}

	out := make([]float32, 256)
	m.Render(out)

	if out[0] != 0 {
		t.Fatalf("first sample %f, want 0 at ramp start", out[0])
	}
	rampFrames := int(0.001 * sr)
	if out[rampFrames/2] >= out[rampFrames] {
		t.Fatalf("ramp not increasing: mid %f, end %f", out[rampFrames/2], out[rampFrames])
	}
	if got := out[rampFrames+10]; math.Abs(float64(got)-1) > 1e-3 {
		t.Fatalf("post-ramp sample %f, want full gain", got)
	}
}

func TestMixerStopFadesToSilenceAndReleases(t *testing.T) {
	const sr = 48000
	m := NewMixer(sr, 1)
	buf := dcBuffer(sr, sr, 1) // 1 s, longer than the test renders

	node, err := m.Play(buf, PlaySpec{Rate: 1, Gain: 1})
	if err != nil {
		t.Fatalf("Play: %v", err)
	}

	block := make([]float32, 512)
	m.Render(block)
	if block[100] == 0 {
		t.Fatal("voice silent before Stop")
	}

	if err := node.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := node.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}

	// The fade constant is 1 ms; well under 2048 frames to fall below the
	// release threshold.
	for b := 0; b < 4; b++ {
		m.Render(block)
	}
	select {
	case <-node.Done():
	default:
		t.Fatal("done not closed after fade completed")
	}

	m.Render(block)
	for i, v := range block {
		if v != 0 {
			t.Fatalf("sample %d = %f after release, want silence", i, v)
		}
	}
}

func TestMixerVoiceEndsAndClosesDone(t *testing.T) {
	const sr = 48000
	m := NewMixer(sr, 1)
	buf := dcBuffer(sr, 100, 0.5)

	node, err := m.Play(buf, PlaySpec{Rate: 1, Gain: 1})
	if err != nil {
		t.Fatalf("Play: %v", err)
	}

	block := make([]float32, 256)
	m.Render(block)

	select {
	case <-node.Done():
	default:
		t.Fatal("done not closed after buffer end")
	}
	for i := 100; i < len(block); i++ {
		if block[i] != 0 {
			t.Fatalf("sample %d = %f past buffer end, want 0", i, block[i])
		}
	}
}

func TestMixerLoopSustainsPastBufferEnd(t *testing.T) {
	const sr = 48000
	m := NewMixer(sr, 1)
	buf := dcBuffer(sr, 200, 0.5)

	node, err := m.Play(buf, PlaySpec{
		Rate: 1, Gain: 1,
		Loop: true, LoopStartS: 0, LoopEndS: 200.0 / sr,
	})
	if err != nil {
		t.Fatalf("Play: %v", err)
	}

	out := renderBlocks(m, 1, 256, 4) // 1024 frames, 5x the buffer
	for i, v := range out {
		if math.Abs(float64(v)-0.5) > 1e-3 {
			t.Fatalf("sample %d = %f while looping, want 0.5", i, v)
		}
	}
	select {
	case <-node.Done():
		t.Fatal("looping voice released itself")
	default:
	}
}

func TestMixerOffsetSkipsIntoBuffer(t *testing.T) {
	const sr = 48000
	m := NewMixer(sr, 1)
	buf := rampBuffer(sr, sr) // 1 s ramp 0..1

	_, err := m.Play(buf, PlaySpec{Rate: 1, Gain: 1, Offset: 0.5})
	if err != nil {
		t.Fatalf("Play: %v", err)
	}

	out := make([]float32, 64)
	m.Render(out)

	want := buf.Data[sr/2]
	if math.Abs(float64(out[0]-want)) > 1e-5 {
		t.Fatalf("first sample %f, want %f at 0.5 s offset", out[0], want)
	}
}

func TestMixerScheduledStartDelays(t *testing.T) {
	const sr = 48000
	m := NewMixer(sr, 1)
	buf := dcBuffer(sr, sr, 1)

	when := 128.0 / sr
	_, err := m.Play(buf, PlaySpec{Rate: 1, Gain: 1, When: when})
	if err != nil {
		t.Fatalf("Play: %v", err)
	}

	out := make([]float32, 256)
	m.Render(out)

	for i := 0; i < 128; i++ {
		if out[i] != 0 {
			t.Fatalf("sample %d = %f before scheduled start", i, out[i])
		}
	}
	if out[200] == 0 {
		t.Fatal("no signal after scheduled start")
	}
}

func TestMixerStereoDuplicatesMonoSource(t *testing.T) {
	const sr = 48000
	m := NewMixer(sr, 2)
	buf := dcBuffer(sr, sr/10, 0.25)

	if _, err := m.Play(buf, PlaySpec{Rate: 1, Gain: 1}); err != nil {
		t.Fatalf("Play: %v", err)
	}

	out := make([]float32, 128*2)
	m.Render(out)
	for i := 0; i < 128; i++ {
		if out[i*2] != out[i*2+1] {
			t.Fatalf("frame %d: L %f != R %f", i, out[i*2], out[i*2+1])
		}
	}
	if out[0] == 0 {
		t.Fatal("expected signal on both channels")
	}
}

func TestMixerClockAdvancesPerBlock(t *testing.T) {
	const sr = 48000
	m := NewMixer(sr, 2)
	if m.CurrentTime() != 0 {
		t.Fatalf("initial clock %f, want 0", m.CurrentTime())
	}
	block := make([]float32, 480*2)
	m.Render(block)
	m.Render(block)
	if got, want := m.CurrentTime(), 960.0/sr; math.Abs(got-want) > 1e-9 {
		t.Fatalf("clock %f after two blocks, want %f", got, want)
	}
}

func TestMixerRejectsBadSpecs(t *testing.T) {
	m := NewMixer(48000, 1)
	if _, err := m.Play(nil, PlaySpec{Rate: 1, Gain: 1}); err == nil {
		t.Fatal("nil buffer accepted")
	}
	if _, err := m.Play(&drum.Buffer{SampleRate: 48000, Channels: 1}, PlaySpec{Rate: 1}); err == nil {
		t.Fatal("empty buffer accepted")
	}
	buf := dcBuffer(48000, 100, 1)
	if _, err := m.Play(buf, PlaySpec{Rate: 0, Gain: 1}); err == nil {
		t.Fatal("zero rate accepted")
	}
}

func TestMixerResamplesAcrossDeviceRates(t *testing.T) {
	const deviceSR = 48000
	m := NewMixer(deviceSR, 1)
	buf := dcBuffer(44100, 4410, 0.5) // 100 ms at the source rate

	node, err := m.Play(buf, PlaySpec{Rate: 1, Gain: 1})
	if err != nil {
		t.Fatalf("Play: %v", err)
	}

	// 100 ms of source should last about 100 ms of device time regardless of
	// the rate mismatch.
	out := renderBlocks(m, 1, 480, 12) // 120 ms
	live := 0
	for _, v := range out {
		if v != 0 {
			live++
		}
	}
	lowMS := 95.0
	highMS := 105.0
	liveMS := float64(live) / deviceSR * 1000
	if liveMS < lowMS || liveMS > highMS {
		t.Fatalf("voice lived %.1f ms, want about 100 ms", liveMS)
	}
	select {
	case <-node.Done():
	default:
		t.Fatal("done not closed after playback drained")
	}
}
