package drum

import (
	"fmt"
	"math"
)

const (
	// Onset ramp shared by every voice envelope.
	attackS = 0.001

	minSampleRate = 8000
	maxSampleRate = 192000
)

// Synthesize renders one mono buffer for the voice from its parameters.
// The call is pure: all state, including the noise generator, is scoped to
// the request, so calls may run in parallel. The frame count is always
// round(sampleRate * v.Duration()) regardless of parameter values.
func Synthesize(v Voice, p Params, sampleRate int) (*Buffer, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("%w: unknown voice %d", ErrInvalidParameter, int(v))
	}
	if sampleRate < minSampleRate || sampleRate > maxSampleRate {
		return nil, fmt.Errorf("%w: sample rate %d outside [%d,%d]", ErrInvalidParameter, sampleRate, minSampleRate, maxSampleRate)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: nil params for voice %s", ErrInvalidParameter, v)
	}
	if !p.appliesTo(v) {
		return nil, fmt.Errorf("%w: %T does not parameterize voice %s", ErrInvalidParameter, p, v)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	n := int(math.Round(v.Duration() * float64(sampleRate)))
	out := make([]float64, n)

	switch q := p.(type) {
	case KickParams:
		genKick(out, q, sampleRate)
	case SnareParams:
		genSnare(out, q, sampleRate)
	case HatParams:
		genHat(out, q, sampleRate)
	case CymbalParams:
		genCymbal(out, q, v, sampleRate)
	case RimshotParams:
		genRimshot(out, q, sampleRate)
	case ClapParams:
		genClap(out, q, sampleRate)
	}

	data := make([]float32, n)
	for i, s := range out {
		data[i] = float32(s)
	}
	return &Buffer{SampleRate: sampleRate, Channels: 1, Data: data}, nil
}

// genKick renders a swept-sine kick. The instantaneous frequency follows the
// pitch envelope, so phase accumulates sample by sample instead of being
// recomputed as f*t (which would smear the sweep). Saturation is the only
// level limiter; no hard clip is applied.
func genKick(out []float64, p KickParams, sampleRate int) {
	dt := 1.0 / float64(sampleRate)
	phase := 0.0
	for i := range out {
		t := float64(i) * dt
		pitchEnv := math.Exp(-8.0 * t)
		freq := p.PitchHz * (1.0 + 2.0*pitchEnv)
		phase += 2.0 * math.Pi * freq * dt

		s := math.Sin(phase)*p.Punch +
			0.3*math.Sin(2.0*phase)*p.Punch +
			0.15*math.Sin(3.0*phase)*p.Punch
		s = math.Tanh(s * 1.2)
		out[i] = s * kickEnvelope(t, p.DecayS)
	}
}

// kickEnvelope: 1ms linear attack, linear decay to the sustain level over
// decayS, linear release to zero over 0.1s.
func kickEnvelope(t, decayS float64) float64 {
	const (
		sustainLevel = 0.1
		releaseS     = 0.1
	)
	switch {
	case t < attackS:
		return t / attackS
	case t < attackS+decayS:
		return 1.0 - (1.0-sustainLevel)*(t-attackS)/decayS
	case t < attackS+decayS+releaseS:
		return sustainLevel * (1.0 - (t-attackS-decayS)/releaseS)
	default:
		return 0
	}
}

// genSnare mixes a decaying shell tone with wire noise, both with their own
// fixed decay rates, under a shared attack/decay/release envelope.
func genSnare(out []float64, p SnareParams, sampleRate int) {
	rng := NewNoise(p.Seed)
	dt := 1.0 / float64(sampleRate)
	for i := range out {
		t := float64(i) * dt
		tone := math.Sin(2.0*math.Pi*p.ToneHz*t) * math.Exp(-15.0*t) * (1.0 - p.NoiseMix)
		noise := rng.Next() * p.NoiseMix * math.Exp(-8.0*t)
		out[i] = clampUnit((tone + noise) * snareEnvelope(t, p.DecayS))
	}
}

// snareEnvelope: 1ms attack, exponential decay through decayS, then the same
// exponential continues under a linear 0.05s release multiplier.
func snareEnvelope(t, decayS float64) float64 {
	const releaseS = 0.05
	if t < attackS {
		return t / attackS
	}
	env := math.Exp(-8.0 * (t - attackS))
	if t < attackS+decayS {
		return env
	}
	rel := 1.0 - (t-attackS-decayS)/releaseS
	if rel < 0 {
		rel = 0
	}
	return env * rel
}

// genHat renders closed/open hi-hat noise. The decaying multiplier stands in
// for a high-pass emphasis and is engaged only while the emphasized band
// stays below Nyquist.
func genHat(out []float64, p HatParams, sampleRate int) {
	rng := NewNoise(p.Seed)
	dt := 1.0 / float64(sampleRate)
	nyquist := float64(sampleRate) / 2.0
	emphasize := p.PitchHz*p.Brightness < nyquist
	for i := range out {
		t := float64(i) * dt
		s := rng.Next()
		if emphasize {
			s *= math.Exp(-5.0 * t)
		}
		out[i] = clampUnit(s * expEnvelope(t, p.DecayS, attackS) * 0.6)
	}
}

// genCymbal renders crash/ride noise with a slow decaying multiplier that
// approximates band-pass energy falloff.
func genCymbal(out []float64, p CymbalParams, v Voice, sampleRate int) {
	rng := NewNoise(p.Seed)
	dt := 1.0 / float64(sampleRate)
	bodyRate, attack, scale := 2.0, 0.01, 0.5
	if v == Ride {
		bodyRate, attack, scale = 1.5, 0.005, 0.4
	}
	for i := range out {
		t := float64(i) * dt
		s := rng.Next() * math.Exp(-bodyRate*t)
		out[i] = clampUnit(s * expEnvelope(t, p.DecayS, attack) * scale)
	}
}

// genRimshot renders a short click tone plus a small noise burst.
func genRimshot(out []float64, p RimshotParams, sampleRate int) {
	rng := NewNoise(p.Seed)
	dt := 1.0 / float64(sampleRate)
	for i := range out {
		t := float64(i) * dt
		tone := math.Sin(2.0*math.Pi*p.ToneHz*t) * math.Exp(-20.0*t)
		noise := rng.Next() * 0.3 * math.Exp(-15.0*t)
		out[i] = clampUnit((tone + noise) * expEnvelope(t, p.DecayS, attackS))
	}
}

// genClap renders noise with three feedback taps at d, 1.5d and 2d. Each tap
// reads the already written output, not the dry noise, so the taps recurse
// and smear into the burst cluster typical of a clap.
func genClap(out []float64, p ClapParams, sampleRate int) {
	rng := NewNoise(p.Seed)
	dt := 1.0 / float64(sampleRate)
	d1 := int(math.Round(p.TapDelayS * float64(sampleRate)))
	d2 := int(math.Round(1.5 * p.TapDelayS * float64(sampleRate)))
	d3 := int(math.Round(2.0 * p.TapDelayS * float64(sampleRate)))
	for i := range out {
		t := float64(i) * dt
		s := rng.Next()
		if i >= d1 {
			s += 0.3 * out[i-d1]
		}
		if i >= d2 {
			s += 0.2 * out[i-d2]
		}
		if i >= d3 {
			s += 0.1 * out[i-d3]
		}
		s *= math.Exp(-5.0 * t)
		out[i] = clampUnit(s * math.Exp(-t/p.DecayS) * 0.7)
	}
}

// expEnvelope: linear attack over attack seconds, then exponential decay
// with time constant decayS.
func expEnvelope(t, decayS, attack float64) float64 {
	if t < attack {
		return t / attack
	}
	return math.Exp(-(t - attack) / decayS)
}

func clampUnit(x float64) float64 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}
