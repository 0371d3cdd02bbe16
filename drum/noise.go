package drum

// Noise is a linear congruential white-noise generator. Each Synthesize call
// creates its own instance from the seed carried in the parameters, so
// synthesis stays deterministic and safe to run in parallel across voices.
type Noise struct {
	state uint32
}

// NewNoise creates a generator from a seed. Equal seeds produce equal
// sequences.
func NewNoise(seed int64) *Noise {
	return &Noise{state: uint32(seed)}
}

// Next returns the next sample, uniform in [-1, 1).
func (n *Noise) Next() float64 {
	// Numerical Recipes LCG constants.
	n.state = n.state*1664525 + 1013904223
	return float64(n.state)/2147483648.0 - 1.0
}
