package bank

import "github.com/cwbudde/algo-drums/drum"

// VelocityLayer tags a sample with the strike strength it was rendered for.
type VelocityLayer string

const (
	VelocitySoft   VelocityLayer = "soft"
	VelocityMedium VelocityLayer = "medium"
	VelocityHard   VelocityLayer = "hard"
)

// Metadata identifies one cached sample. Immutable once created; the pair
// (Category, Name) uniquely keys the cache entry.
type Metadata struct {
	Name        string
	Voice       drum.Voice
	Category    string
	Velocity    VelocityLayer // empty when the sample has no velocity layer
	Description string
}

// Key is the composite cache key. A struct key avoids the collision risk of
// concatenated strings when separators appear in names.
type Key struct {
	Category string
	Name     string
}

func (m Metadata) key() Key {
	return Key{Category: m.Category, Name: m.Name}
}

// CachedSample pairs metadata with its owned buffer. Entries are never
// mutated after creation; replacement installs a new entry.
type CachedSample struct {
	Metadata Metadata
	Buffer   *drum.Buffer
}

// SoundItem is the UI-facing projection of a cached sample.
type SoundItem struct {
	Name string
	Kind string
	Icon string
}

func kindForVoice(v drum.Voice) string {
	switch v {
	case drum.HiHat, drum.OpenHat, drum.Crash, drum.Ride:
		return "cymbal"
	default:
		return "drum"
	}
}
