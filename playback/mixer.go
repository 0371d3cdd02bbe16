package playback

import (
	"fmt"
	"sync"

	"github.com/cwbudde/algo-approx"

	"github.com/cwbudde/algo-drums/drum"
)

// stopFadeS is the fast exponential fade applied after Stop so a voice falls
// silent without a click before its resources are released.
const stopFadeS = 0.001

// Mixer renders scheduled sources into interleaved float32 frames against a
// sample-accurate clock. It backs the oto device output and runs standalone
// in offline tests.
type Mixer struct {
	mu          sync.Mutex
	sampleRate  int
	channels    int
	clockFrames int64
	voices      []*mixVoice
}

type mixVoice struct {
	buf  *drum.Buffer
	spec PlaySpec

	startFrame int64
	pos        float64 // fractional source frame
	step       float64 // source frames per output frame
	stopAge    int     // output frames since Stop; -1 while running
	finished   bool
	done       chan struct{}
}

// NewMixer creates a mixer rendering at the given device format.
func NewMixer(sampleRate, channels int) *Mixer {
	return &Mixer{sampleRate: sampleRate, channels: channels}
}

// CurrentTime returns the monotonic clock in seconds of audio rendered.
func (m *Mixer) CurrentTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return float64(m.clockFrames) / float64(m.sampleRate)
}

// Play schedules buf according to spec and returns its node.
func (m *Mixer) Play(buf *drum.Buffer, spec PlaySpec) (Node, error) {
	if buf == nil || len(buf.Data) == 0 {
		return nil, fmt.Errorf("empty buffer")
	}
	if spec.Rate <= 0 {
		return nil, fmt.Errorf("non-positive rate %f", spec.Rate)
	}

	v := &mixVoice{
		buf:        buf,
		spec:       spec,
		startFrame: int64(spec.When * float64(m.sampleRate)),
		pos:        spec.Offset * float64(buf.SampleRate),
		step:       spec.Rate * float64(buf.SampleRate) / float64(m.sampleRate),
		stopAge:    -1,
		done:       make(chan struct{}),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.voices = append(m.voices, v)
	return &mixNode{m: m, v: v}, nil
}

// Render fills dst with the next block of interleaved frames and advances
// the clock. Finished voices are released at the end of the block.
func (m *Mixer) Render(dst []float32) {
	for i := range dst {
		dst[i] = 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	frames := len(dst) / m.channels
	fadeFrames := float32(stopFadeS * float64(m.sampleRate))

	for _, v := range m.voices {
		if v.finished {
			continue
		}
		m.renderVoice(v, dst, frames, fadeFrames)
	}

	m.clockFrames += int64(frames)

	live := m.voices[:0]
	for _, v := range m.voices {
		if !v.finished {
			live = append(live, v)
			continue
		}
		select {
		case <-v.done:
		default:
			close(v.done)
		}
	}
	m.voices = live
}

func (m *Mixer) renderVoice(v *mixVoice, dst []float32, frames int, fadeFrames float32) {
	srcFrames := v.buf.Frames()
	bufSR := float64(v.buf.SampleRate)
	loopStart := v.spec.LoopStartS * bufSR
	loopEnd := v.spec.LoopEndS * bufSR
	looping := v.spec.Loop && loopEnd > loopStart

	for i := 0; i < frames; i++ {
		outFrame := m.clockFrames + int64(i)
		if outFrame < v.startFrame {
			continue
		}

		gain := v.spec.Gain
		if v.spec.RampS > 0 {
			elapsed := float64(outFrame-v.startFrame) / float64(m.sampleRate)
			if elapsed < v.spec.RampS {
				gain *= elapsed / v.spec.RampS
			}
		}
		if v.stopAge >= 0 {
			fade := approx.FastExp(-float32(v.stopAge) / fadeFrames)
			v.stopAge++
			if fade < 1e-4 {
				v.finished = true
				return
			}
			gain *= float64(fade)
		}

		if looping && v.pos >= loopEnd {
			v.pos -= loopEnd - loopStart
		}
		if v.pos >= float64(srcFrames-1) {
			if !looping {
				v.finished = true
				return
			}
			// Loop end beyond the last frame: wrap to the loop start.
			v.pos = loopStart
		}

		s := sampleAt(v.buf, v.pos)
		for c := 0; c < m.channels; c++ {
			dst[i*m.channels+c] += float32(gain) * s
		}
		v.pos += v.step
	}
}

// sampleAt linearly interpolates the buffer at a fractional frame position,
// folding multi-channel buffers down to mono.
func sampleAt(buf *drum.Buffer, pos float64) float32 {
	i := int(pos)
	frac := float32(pos - float64(i))
	return frameValue(buf, i)*(1-frac) + frameValue(buf, i+1)*frac
}

func frameValue(buf *drum.Buffer, frame int) float32 {
	if frame < 0 || frame >= buf.Frames() {
		return 0
	}
	if buf.Channels == 1 {
		return buf.Data[frame]
	}
	var sum float32
	for c := 0; c < buf.Channels; c++ {
		sum += buf.Data[frame*buf.Channels+c]
	}
	return sum / float32(buf.Channels)
}

type mixNode struct {
	m *Mixer
	v *mixVoice
}

// Stop triggers the fast fade. Idempotent; stopping a finished voice is a
// no-op.
func (n *mixNode) Stop() error {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()
	if !n.v.finished && n.v.stopAge < 0 {
		n.v.stopAge = 0
	}
	return nil
}

func (n *mixNode) Done() <-chan struct{} {
	return n.v.done
}
