package preset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-drums/drum"
)

func writePreset(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kit.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write preset: %v", err)
	}
	return path
}

func TestLoadJSONAppliesOverrides(t *testing.T) {
	path := writePreset(t, `{
		"name": "punchy",
		"voices": {
			"kick":  {"pitch_hz": 45, "punch": 1.8},
			"snare": {"noise_mix": 0.9, "seed": 7},
			"hihat": {"decay_s": 0.08}
		}
	}`)

	k, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if k.Name != "punchy" {
		t.Fatalf("name %q, want punchy", k.Name)
	}

	kick, ok := k.Params(drum.Kick).(drum.KickParams)
	if !ok {
		t.Fatal("kick params have wrong type")
	}
	if kick.PitchHz != 45 || kick.Punch != 1.8 {
		t.Fatalf("kick overrides not applied: %+v", kick)
	}
	def := drum.DefaultKickParams()
	if kick.DecayS != def.DecayS {
		t.Fatalf("kick decay %f changed, want default %f", kick.DecayS, def.DecayS)
	}

	snare := k.Params(drum.Snare).(drum.SnareParams)
	if snare.NoiseMix != 0.9 || snare.Seed != 7 {
		t.Fatalf("snare overrides not applied: %+v", snare)
	}

	hat := k.Params(drum.HiHat).(drum.HatParams)
	if hat.DecayS != 0.08 {
		t.Fatalf("hihat decay %f, want 0.08", hat.DecayS)
	}

	// Untouched voices keep their defaults.
	if k.Params(drum.Crash) != drum.DefaultParams(drum.Crash) {
		t.Fatal("crash params changed without an override")
	}
}

func TestLoadJSONRejectsOutOfRangeValues(t *testing.T) {
	path := writePreset(t, `{"voices": {"kick": {"pitch_hz": 500}}}`)
	if _, err := LoadJSON(path); !errors.Is(err, drum.ErrInvalidParameter) {
		t.Fatalf("got %v, want ErrInvalidParameter", err)
	}
}

func TestLoadJSONRejectsUnknownVoice(t *testing.T) {
	path := writePreset(t, `{"voices": {"cowbell": {"decay_s": 0.1}}}`)
	if _, err := LoadJSON(path); err == nil {
		t.Fatal("unknown voice accepted")
	}
}

func TestLoadJSONRejectsInapplicableField(t *testing.T) {
	path := writePreset(t, `{"voices": {"kick": {"noise_mix": 0.5}}}`)
	if _, err := LoadJSON(path); err == nil {
		t.Fatal("noise_mix on kick accepted")
	}
}

func TestLoadJSONRejectsMalformedFile(t *testing.T) {
	path := writePreset(t, `{"voices": `)
	if _, err := LoadJSON(path); err == nil {
		t.Fatal("malformed JSON accepted")
	}
	if _, err := LoadJSON(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("missing file accepted")
	}
}

func TestSetParamsValidates(t *testing.T) {
	k := DefaultKit()

	good := drum.DefaultKickParams()
	good.Punch = 1.5
	if err := k.SetParams(drum.Kick, good); err != nil {
		t.Fatalf("SetParams: %v", err)
	}
	if got := k.Params(drum.Kick).(drum.KickParams); got.Punch != 1.5 {
		t.Fatalf("punch %f, want 1.5", got.Punch)
	}

	bad := drum.DefaultKickParams()
	bad.DecayS = 10
	if err := k.SetParams(drum.Kick, bad); !errors.Is(err, drum.ErrInvalidParameter) {
		t.Fatalf("got %v, want ErrInvalidParameter", err)
	}
	if err := k.SetParams(drum.Kick, nil); !errors.Is(err, drum.ErrInvalidParameter) {
		t.Fatalf("nil params: got %v, want ErrInvalidParameter", err)
	}
}

func TestDefaultKitCoversAllVoices(t *testing.T) {
	k := DefaultKit()
	for _, v := range drum.Voices() {
		p := k.Params(v)
		if p == nil {
			t.Fatalf("no params for %s", v)
		}
		if err := p.Validate(); err != nil {
			t.Fatalf("default params for %s invalid: %v", v, err)
		}
	}
}
