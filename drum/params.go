package drum

import "fmt"

// Params is implemented by one parameter struct per voice family. Validation
// rejects out-of-range values rather than clamping them.
type Params interface {
	Validate() error
	appliesTo(v Voice) bool
}

// KickParams controls the kick voice.
type KickParams struct {
	PitchHz float64 // Fundamental at the end of the downward sweep, 20-200 Hz
	DecayS  float64 // Amplitude decay segment length, 0.01-0.4 s
	Punch   float64 // Harmonic drive into the saturator, 0-2
}

// DefaultKickParams returns sensible defaults for the kick voice.
func DefaultKickParams() KickParams {
	return KickParams{PitchHz: 60, DecayS: 0.25, Punch: 1.0}
}

func (p KickParams) Validate() error {
	if p.PitchHz < 20 || p.PitchHz > 200 {
		return fmt.Errorf("%w: kick pitch %.2f Hz outside [20,200]", ErrInvalidParameter, p.PitchHz)
	}
	if p.DecayS < 0.01 || p.DecayS > 0.4 {
		return fmt.Errorf("%w: kick decay %.3f s outside [0.01,0.4]", ErrInvalidParameter, p.DecayS)
	}
	if p.Punch < 0 || p.Punch > 2 {
		return fmt.Errorf("%w: kick punch %.2f outside [0,2]", ErrInvalidParameter, p.Punch)
	}
	return nil
}

func (p KickParams) appliesTo(v Voice) bool { return v == Kick }

// SnareParams controls the snare voice.
type SnareParams struct {
	ToneHz   float64 // Drum shell tone, 80-400 Hz
	NoiseMix float64 // Wire noise share, 0-1
	DecayS   float64 // Decay segment length, 0.01-0.3 s
	Seed     int64   // Noise generator seed
}

// DefaultSnareParams returns sensible defaults for the snare voice.
func DefaultSnareParams() SnareParams {
	return SnareParams{ToneHz: 180, NoiseMix: 0.7, DecayS: 0.18, Seed: 1}
}

func (p SnareParams) Validate() error {
	if p.ToneHz < 80 || p.ToneHz > 400 {
		return fmt.Errorf("%w: snare tone %.2f Hz outside [80,400]", ErrInvalidParameter, p.ToneHz)
	}
	if p.NoiseMix < 0 || p.NoiseMix > 1 {
		return fmt.Errorf("%w: snare noise mix %.2f outside [0,1]", ErrInvalidParameter, p.NoiseMix)
	}
	if p.DecayS < 0.01 || p.DecayS > 0.3 {
		return fmt.Errorf("%w: snare decay %.3f s outside [0.01,0.3]", ErrInvalidParameter, p.DecayS)
	}
	return nil
}

func (p SnareParams) appliesTo(v Voice) bool { return v == Snare }

// HatParams controls the closed and open hi-hat voices.
type HatParams struct {
	PitchHz    float64 // Metallic center emphasis, 2000-12000 Hz
	DecayS     float64 // Decay time constant, 0.01-0.7 s
	Brightness float64 // High-frequency emphasis factor, 0.5-4
	Seed       int64
}

// DefaultHatParams returns sensible defaults for the closed hi-hat.
func DefaultHatParams() HatParams {
	return HatParams{PitchHz: 8000, DecayS: 0.05, Brightness: 1.5, Seed: 1}
}

// DefaultOpenHatParams returns sensible defaults for the open hi-hat.
func DefaultOpenHatParams() HatParams {
	return HatParams{PitchHz: 8000, DecayS: 0.3, Brightness: 1.2, Seed: 1}
}

func (p HatParams) Validate() error {
	if p.PitchHz < 2000 || p.PitchHz > 12000 {
		return fmt.Errorf("%w: hat pitch %.2f Hz outside [2000,12000]", ErrInvalidParameter, p.PitchHz)
	}
	if p.DecayS < 0.01 || p.DecayS > 0.7 {
		return fmt.Errorf("%w: hat decay %.3f s outside [0.01,0.7]", ErrInvalidParameter, p.DecayS)
	}
	if p.Brightness < 0.5 || p.Brightness > 4 {
		return fmt.Errorf("%w: hat brightness %.2f outside [0.5,4]", ErrInvalidParameter, p.Brightness)
	}
	return nil
}

func (p HatParams) appliesTo(v Voice) bool { return v == HiHat || v == OpenHat }

// CymbalParams controls the crash and ride voices.
type CymbalParams struct {
	PitchHz float64 // Band emphasis center, 500-8000 Hz
	DecayS  float64 // Decay time constant, 0.05-1.2 s
	Seed    int64
}

// DefaultCrashParams returns sensible defaults for the crash voice.
func DefaultCrashParams() CymbalParams {
	return CymbalParams{PitchHz: 4000, DecayS: 0.8, Seed: 1}
}

// DefaultRideParams returns sensible defaults for the ride voice.
func DefaultRideParams() CymbalParams {
	return CymbalParams{PitchHz: 5000, DecayS: 1.0, Seed: 1}
}

func (p CymbalParams) Validate() error {
	if p.PitchHz < 500 || p.PitchHz > 8000 {
		return fmt.Errorf("%w: cymbal pitch %.2f Hz outside [500,8000]", ErrInvalidParameter, p.PitchHz)
	}
	if p.DecayS < 0.05 || p.DecayS > 1.2 {
		return fmt.Errorf("%w: cymbal decay %.3f s outside [0.05,1.2]", ErrInvalidParameter, p.DecayS)
	}
	return nil
}

func (p CymbalParams) appliesTo(v Voice) bool { return v == Crash || v == Ride }

// RimshotParams controls the rimshot voice.
type RimshotParams struct {
	ToneHz float64 // Click tone, 200-2000 Hz
	DecayS float64 // Decay time constant, 0.01-0.15 s
	Seed   int64
}

// DefaultRimshotParams returns sensible defaults for the rimshot voice.
func DefaultRimshotParams() RimshotParams {
	return RimshotParams{ToneHz: 800, DecayS: 0.06, Seed: 1}
}

func (p RimshotParams) Validate() error {
	if p.ToneHz < 200 || p.ToneHz > 2000 {
		return fmt.Errorf("%w: rimshot tone %.2f Hz outside [200,2000]", ErrInvalidParameter, p.ToneHz)
	}
	if p.DecayS < 0.01 || p.DecayS > 0.15 {
		return fmt.Errorf("%w: rimshot decay %.3f s outside [0.01,0.15]", ErrInvalidParameter, p.DecayS)
	}
	return nil
}

func (p RimshotParams) appliesTo(v Voice) bool { return v == Rimshot }

// ClapParams controls the clap voice.
type ClapParams struct {
	TapDelayS float64 // Base delay between clap taps, 0.005-0.05 s
	DecayS    float64 // Decay time constant, 0.01-0.3 s
	Seed      int64
}

// DefaultClapParams returns sensible defaults for the clap voice.
func DefaultClapParams() ClapParams {
	return ClapParams{TapDelayS: 0.011, DecayS: 0.12, Seed: 1}
}

func (p ClapParams) Validate() error {
	if p.TapDelayS < 0.005 || p.TapDelayS > 0.05 {
		return fmt.Errorf("%w: clap tap delay %.4f s outside [0.005,0.05]", ErrInvalidParameter, p.TapDelayS)
	}
	if p.DecayS < 0.01 || p.DecayS > 0.3 {
		return fmt.Errorf("%w: clap decay %.3f s outside [0.01,0.3]", ErrInvalidParameter, p.DecayS)
	}
	return nil
}

func (p ClapParams) appliesTo(v Voice) bool { return v == Clap }

// DefaultParams returns the default parameter set for a voice.
func DefaultParams(v Voice) Params {
	switch v {
	case Kick:
		return DefaultKickParams()
	case Snare:
		return DefaultSnareParams()
	case HiHat:
		return DefaultHatParams()
	case OpenHat:
		return DefaultOpenHatParams()
	case Crash:
		return DefaultCrashParams()
	case Ride:
		return DefaultRideParams()
	case Rimshot:
		return DefaultRimshotParams()
	case Clap:
		return DefaultClapParams()
	}
	return nil
}
