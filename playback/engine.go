// Package playback schedules time-accurate sample playback with velocity
// sensitivity, semitone pitch shift and loop support on top of an audio
// output abstraction.
package playback

import (
	"fmt"
	"log"
	"math"

	"github.com/cwbudde/algo-drums/drum"
)

const (
	// -3 dB headroom so simultaneous voices sum without clipping.
	headroom = 0.707
	// Linear onset ramp; prevents discontinuity clicks at voice start.
	onsetRampS = 0.001

	baseRate = 1.0
)

// LoopRegion selects a loop in buffer frame indices. Out-of-range bounds are
// clamped to the buffer, not rejected.
type LoopRegion struct {
	StartFrame int
	EndFrame   int
}

// Request describes one playback of a buffer.
type Request struct {
	Velocity            float64 // 0..1
	PitchShiftSemitones float64 // typically -24..24
	StartTime           float64 // absolute output-clock time; zero means now
	Offset              float64 // seconds into the buffer, >= 0
	Loop                *LoopRegion
}

// Handle reports the resolved schedule of a live playback and allows
// stopping it. Stop is idempotent.
type Handle struct {
	Rate       float64
	GainTarget float64
	LoopStartS float64
	LoopEndS   float64

	node Node
}

// Stop silences the playback immediately and releases its output resources.
// Disconnection errors are swallowed; stopping twice is harmless.
func (h *Handle) Stop() {
	if h == nil || h.node == nil {
		return
	}
	_ = h.node.Stop()
}

// Done is closed once the playback has finished and its resources are
// released.
func (h *Handle) Done() <-chan struct{} {
	return h.node.Done()
}

// Engine maps playback requests onto an output device.
type Engine struct {
	out    Output
	logger *log.Logger
}

// NewEngine creates an engine for the output. The output may be nil when no
// audio device is available yet; Play then degrades to a logged no-op. A nil
// logger falls back to the default logger.
func NewEngine(out Output, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{out: out, logger: logger}
}

// Play schedules buf on the output. It validates velocity and offset before
// touching the output graph and returns a nil handle, without error, when no
// buffer or output is available: that is a routine transient condition, not
// a failure.
func (e *Engine) Play(buf *drum.Buffer, req Request) (*Handle, error) {
	if req.Velocity < 0 || req.Velocity > 1 {
		return nil, fmt.Errorf("%w: velocity %.3f outside [0,1]", drum.ErrInvalidParameter, req.Velocity)
	}
	if req.Offset < 0 {
		return nil, fmt.Errorf("%w: offset %.3f s negative", drum.ErrInvalidParameter, req.Offset)
	}

	if buf == nil || len(buf.Data) == 0 {
		e.logger.Printf("playback: no buffer to play")
		return nil, nil
	}
	if e.out == nil {
		e.logger.Printf("playback: output not ready, dropping request")
		return nil, nil
	}

	rate := baseRate * math.Pow(2, req.PitchShiftSemitones/12)
	gain := headroom * clamp(req.Velocity, 0, 1)

	when := req.StartTime
	if when <= 0 {
		when = e.out.CurrentTime()
	}

	spec := PlaySpec{
		When:   when,
		Offset: req.Offset,
		Rate:   rate,
		Gain:   gain,
		RampS:  onsetRampS,
	}
	if req.Loop != nil {
		spec.Loop = true
		spec.LoopStartS, spec.LoopEndS = loopSeconds(req.Loop, buf)
	}

	node, err := e.out.Play(buf, spec)
	if err != nil {
		e.logger.Printf("playback: output rejected request: %v", err)
		return nil, nil
	}
	return &Handle{
		Rate:       rate,
		GainTarget: gain,
		LoopStartS: spec.LoopStartS,
		LoopEndS:   spec.LoopEndS,
		node:       node,
	}, nil
}

// loopSeconds converts frame bounds to seconds, clamped into the buffer.
func loopSeconds(l *LoopRegion, buf *drum.Buffer) (float64, float64) {
	dur := buf.Duration()
	sr := float64(buf.SampleRate)
	start := clamp(float64(l.StartFrame)/sr, 0, dur)
	end := clamp(float64(l.EndFrame)/sr, 0, dur)
	if start > end {
		start = end
	}
	return start, end
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
