package bank

import (
	"fmt"

	"github.com/cwbudde/algo-drums/drum"
)

// FactoryCategory is the category holding the built-in synthesized kit.
const FactoryCategory = "factory"

// DefaultSources synthesizes the standard kit at the given sample rate and
// returns it as a batch ready for Initialize. Kick and snare carry three
// velocity layers; the remaining voices ship one medium layer each.
func DefaultSources(sampleRate int) ([]Source, error) {
	type entry struct {
		name     string
		voice    drum.Voice
		velocity VelocityLayer
		params   drum.Params
		desc     string
	}

	kick := drum.DefaultKickParams()
	kickSoft := kick
	kickSoft.Punch = 0.6
	kickHard := kick
	kickHard.Punch = 1.6

	snare := drum.DefaultSnareParams()
	snareSoft := snare
	snareSoft.NoiseMix = 0.5
	snareHard := snare
	snareHard.NoiseMix = 0.9

	entries := []entry{
		{"kick-soft", drum.Kick, VelocitySoft, kickSoft, "round low kick"},
		{"kick", drum.Kick, VelocityMedium, kick, "standard kick"},
		{"kick-hard", drum.Kick, VelocityHard, kickHard, "driven kick"},
		{"snare-soft", drum.Snare, VelocitySoft, snareSoft, "tonal snare"},
		{"snare", drum.Snare, VelocityMedium, snare, "standard snare"},
		{"snare-hard", drum.Snare, VelocityHard, snareHard, "wired snare"},
		{"hihat", drum.HiHat, VelocityMedium, drum.DefaultHatParams(), "closed hi-hat"},
		{"openhat", drum.OpenHat, VelocityMedium, drum.DefaultOpenHatParams(), "open hi-hat"},
		{"crash", drum.Crash, VelocityMedium, drum.DefaultCrashParams(), "crash cymbal"},
		{"ride", drum.Ride, VelocityMedium, drum.DefaultRideParams(), "ride cymbal"},
		{"rimshot", drum.Rimshot, VelocityMedium, drum.DefaultRimshotParams(), "rimshot"},
		{"clap", drum.Clap, VelocityMedium, drum.DefaultClapParams(), "hand clap"},
	}

	sources := make([]Source, 0, len(entries))
	for _, e := range entries {
		buf, err := drum.Synthesize(e.voice, e.params, sampleRate)
		if err != nil {
			return nil, fmt.Errorf("factory kit %s: %w", e.name, err)
		}
		sources = append(sources, Source{
			Metadata: Metadata{
				Name:        e.name,
				Voice:       e.voice,
				Category:    FactoryCategory,
				Velocity:    e.velocity,
				Description: e.desc,
			},
			Buffer: buf,
		})
	}
	return sources, nil
}
