package drum

import "fmt"

// Voice identifies a percussion timbre with its own synthesis algorithm.
type Voice int

const (
	Kick Voice = iota
	Snare
	HiHat
	OpenHat
	Crash
	Ride
	Rimshot
	Clap

	numVoices
)

var voiceNames = [numVoices]string{
	Kick:    "kick",
	Snare:   "snare",
	HiHat:   "hihat",
	OpenHat: "openhat",
	Crash:   "crash",
	Ride:    "ride",
	Rimshot: "rimshot",
	Clap:    "clap",
}

// Render lengths in seconds. These are part of the synthesis contract and
// are not parameters: a buffer for a voice always holds
// round(sampleRate * duration) frames.
var voiceDurations = [numVoices]float64{
	Kick:    0.5,
	Snare:   0.3,
	HiHat:   0.2,
	OpenHat: 0.7,
	Crash:   1.0,
	Ride:    1.2,
	Rimshot: 0.15,
	Clap:    0.3,
}

// Valid reports whether v is one of the defined voices.
func (v Voice) Valid() bool {
	return v >= 0 && v < numVoices
}

func (v Voice) String() string {
	if !v.Valid() {
		return fmt.Sprintf("voice(%d)", int(v))
	}
	return voiceNames[v]
}

// Duration returns the fixed render length in seconds for the voice.
func (v Voice) Duration() float64 {
	if !v.Valid() {
		return 0
	}
	return voiceDurations[v]
}

// Voices returns all defined voices in declaration order.
func Voices() []Voice {
	out := make([]Voice, numVoices)
	for i := range out {
		out[i] = Voice(i)
	}
	return out
}

// ParseVoice converts a lowercase voice name to its Voice value.
func ParseVoice(s string) (Voice, error) {
	for i, name := range voiceNames {
		if name == s {
			return Voice(i), nil
		}
	}
	return 0, fmt.Errorf("unknown voice %q", s)
}
