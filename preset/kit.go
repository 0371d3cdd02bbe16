// Package preset loads drum kit parameter presets from JSON files.
package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/cwbudde/algo-drums/drum"
)

// File is the JSON schema for drum kit presets. Every field is optional;
// omitted values keep their defaults.
type File struct {
	Name   string                  `json:"name"`
	Voices map[string]VoiceSetting `json:"voices"`
}

// VoiceSetting is a partial parameter override for one voice. Which fields
// apply depends on the voice; setting a field the voice does not have is an
// error so typos surface instead of silently doing nothing.
type VoiceSetting struct {
	PitchHz    *float64 `json:"pitch_hz"`
	ToneHz     *float64 `json:"tone_hz"`
	DecayS     *float64 `json:"decay_s"`
	Punch      *float64 `json:"punch"`
	NoiseMix   *float64 `json:"noise_mix"`
	Brightness *float64 `json:"brightness"`
	TapDelayS  *float64 `json:"tap_delay_s"`
	Seed       *int64   `json:"seed"`
}

// Kit holds one parameter set per voice.
type Kit struct {
	Name   string
	params map[drum.Voice]drum.Params
}

// DefaultKit returns a kit with the default parameters for every voice.
func DefaultKit() *Kit {
	k := &Kit{Name: "default", params: make(map[drum.Voice]drum.Params)}
	for _, v := range drum.Voices() {
		k.params[v] = drum.DefaultParams(v)
	}
	return k
}

// Params returns the parameter set for the voice, or nil for an unknown
// voice.
func (k *Kit) Params(v drum.Voice) drum.Params {
	return k.params[v]
}

// SetParams replaces the parameter set for one voice after validating it.
func (k *Kit) SetParams(v drum.Voice, p drum.Params) error {
	if !v.Valid() {
		return fmt.Errorf("%w: unknown voice %d", drum.ErrInvalidParameter, int(v))
	}
	if p == nil {
		return fmt.Errorf("%w: nil params for %s", drum.ErrInvalidParameter, v)
	}
	if err := p.Validate(); err != nil {
		return err
	}
	k.params[v] = p
	return nil
}

// LoadJSON loads a kit preset file and applies it on top of default params.
func LoadJSON(path string) (*Kit, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, err
	}

	k := DefaultKit()
	if err := ApplyFile(k, &f); err != nil {
		return nil, err
	}
	return k, nil
}

// ApplyFile applies a parsed preset file onto an existing kit.
func ApplyFile(k *Kit, f *File) error {
	if k == nil {
		return fmt.Errorf("nil destination kit")
	}
	if f == nil {
		return nil
	}
	if f.Name != "" {
		k.Name = f.Name
	}

	keys := make([]string, 0, len(f.Voices))
	for name := range f.Voices {
		keys = append(keys, name)
	}
	sort.Strings(keys)

	for _, name := range keys {
		v, err := drum.ParseVoice(name)
		if err != nil {
			return fmt.Errorf("voices[%q]: %w", name, err)
		}
		s := f.Voices[name]
		p, err := applySetting(k.params[v], &s)
		if err != nil {
			return fmt.Errorf("voices[%q]: %w", name, err)
		}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("voices[%q]: %w", name, err)
		}
		k.params[v] = p
	}
	return nil
}

func applySetting(base drum.Params, s *VoiceSetting) (drum.Params, error) {
	switch p := base.(type) {
	case drum.KickParams:
		if s.ToneHz != nil || s.NoiseMix != nil || s.Brightness != nil || s.TapDelayS != nil || s.Seed != nil {
			return nil, fmt.Errorf("kick accepts pitch_hz, decay_s and punch only")
		}
		if s.PitchHz != nil {
			p.PitchHz = *s.PitchHz
		}
		if s.DecayS != nil {
			p.DecayS = *s.DecayS
		}
		if s.Punch != nil {
			p.Punch = *s.Punch
		}
		return p, nil
	case drum.SnareParams:
		if s.PitchHz != nil || s.Punch != nil || s.Brightness != nil || s.TapDelayS != nil {
			return nil, fmt.Errorf("snare accepts tone_hz, noise_mix, decay_s and seed only")
		}
		if s.ToneHz != nil {
			p.ToneHz = *s.ToneHz
		}
		if s.NoiseMix != nil {
			p.NoiseMix = *s.NoiseMix
		}
		if s.DecayS != nil {
			p.DecayS = *s.DecayS
		}
		if s.Seed != nil {
			p.Seed = *s.Seed
		}
		return p, nil
	case drum.HatParams:
		if s.ToneHz != nil || s.Punch != nil || s.NoiseMix != nil || s.TapDelayS != nil {
			return nil, fmt.Errorf("hats accept pitch_hz, decay_s, brightness and seed only")
		}
		if s.PitchHz != nil {
			p.PitchHz = *s.PitchHz
		}
		if s.DecayS != nil {
			p.DecayS = *s.DecayS
		}
		if s.Brightness != nil {
			p.Brightness = *s.Brightness
		}
		if s.Seed != nil {
			p.Seed = *s.Seed
		}
		return p, nil
	case drum.CymbalParams:
		if s.ToneHz != nil || s.Punch != nil || s.NoiseMix != nil || s.Brightness != nil || s.TapDelayS != nil {
			return nil, fmt.Errorf("cymbals accept pitch_hz, decay_s and seed only")
		}
		if s.PitchHz != nil {
			p.PitchHz = *s.PitchHz
		}
		if s.DecayS != nil {
			p.DecayS = *s.DecayS
		}
		if s.Seed != nil {
			p.Seed = *s.Seed
		}
		return p, nil
	case drum.RimshotParams:
		if s.PitchHz != nil || s.Punch != nil || s.NoiseMix != nil || s.Brightness != nil || s.TapDelayS != nil {
			return nil, fmt.Errorf("rimshot accepts tone_hz, decay_s and seed only")
		}
		if s.ToneHz != nil {
			p.ToneHz = *s.ToneHz
		}
		if s.DecayS != nil {
			p.DecayS = *s.DecayS
		}
		if s.Seed != nil {
			p.Seed = *s.Seed
		}
		return p, nil
	case drum.ClapParams:
		if s.PitchHz != nil || s.ToneHz != nil || s.Punch != nil || s.NoiseMix != nil || s.Brightness != nil {
			return nil, fmt.Errorf("clap accepts tap_delay_s, decay_s and seed only")
		}
		if s.TapDelayS != nil {
			p.TapDelayS = *s.TapDelayS
		}
		if s.DecayS != nil {
			p.DecayS = *s.DecayS
		}
		if s.Seed != nil {
			p.Seed = *s.Seed
		}
		return p, nil
	default:
		return nil, fmt.Errorf("no base params for voice")
	}
}
