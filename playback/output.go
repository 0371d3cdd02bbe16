package playback

import (
	"errors"

	"github.com/cwbudde/algo-drums/drum"
)

// ErrOutputUnavailable marks a missing or failed audio output device.
var ErrOutputUnavailable = errors.New("audio output unavailable")

// PlaySpec is the fully resolved schedule for one source: the engine maps
// velocity, semitones and loop frames into these device-level terms before
// touching the output.
type PlaySpec struct {
	When   float64 // Absolute output-clock start time in seconds
	Offset float64 // Seconds into the buffer to start reading
	Rate   float64 // Playback-rate multiplier
	Gain   float64 // Ramp target
	RampS  float64 // Linear onset ramp length

	Loop       bool
	LoopStartS float64
	LoopEndS   float64
}

// Node is one live playback subgraph on the output. Stop silences it
// immediately and releases its resources; both Stop and release are
// idempotent.
type Node interface {
	Stop() error
	Done() <-chan struct{}
}

// Output is the audio device boundary. It owns the realtime rendering side;
// the engine only schedules buffer references against its monotonic clock.
type Output interface {
	CurrentTime() float64
	Play(buf *drum.Buffer, spec PlaySpec) (Node, error)
}
