package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cwbudde/mayfly"

	"github.com/cwbudde/algo-drums/analysis"
	"github.com/cwbudde/algo-drums/drum"
	"github.com/cwbudde/algo-drums/internal/wavio"
	"github.com/cwbudde/algo-drums/preset"
)

type knobDef struct {
	Name  string
	Min   float64
	Max   float64
	IsInt bool
}

type candidate struct {
	Vals []float64
}

type topCandidate struct {
	Eval       int                `json:"eval"`
	Score      float64            `json:"score"`
	Similarity float64            `json:"similarity"`
	Knobs      map[string]float64 `json:"knobs"`
}

type runReport struct {
	ReferencePath   string             `json:"reference_path"`
	PresetPath      string             `json:"preset_path"`
	OutputPreset    string             `json:"output_preset"`
	OutputWAV       string             `json:"output_wav"`
	SampleRate      int                `json:"sample_rate"`
	Voice           string             `json:"voice"`
	DurationSec     float64            `json:"elapsed_seconds"`
	Evaluations     int                `json:"evaluations"`
	MayflyVariant   string             `json:"mayfly_variant"`
	BestScore       float64            `json:"best_score"`
	BestSimilarity  float64            `json:"best_similarity"`
	BestMetrics     analysis.Metrics   `json:"best_metrics"`
	BestKnobs       map[string]float64 `json:"best_knobs"`
	CheckpointCount int                `json:"checkpoint_count"`
	TopCandidates   []topCandidate     `json:"top_candidates,omitempty"`
}

func main() {
	referencePath := flag.String("reference", "reference/kick.wav", "Reference WAV path of the hit to match")
	voiceName := flag.String("voice", "kick", "Voice to fit (kick, snare, hihat, openhat, crash, ride, rimshot, clap)")
	presetPath := flag.String("preset", "", "Base kit preset JSON path (optional)")
	outputPreset := flag.String("output-preset", "out/fitted.json", "Path to write best fitted preset JSON")
	outputWAV := flag.String("output-wav", "out/fitted-best.wav", "Path to write best synthesized hit WAV")
	reportPath := flag.String("report", "", "Optional report JSON path (default: <output-preset>.report.json)")
	sampleRate := flag.Int("sample-rate", 44100, "Render/analysis sample rate")
	seed := flag.Int64("seed", 1, "Random seed")
	timeBudget := flag.Float64("time-budget", 60.0, "Optimization time budget in seconds")
	maxEvals := flag.Int("max-evals", 5000, "Maximum objective evaluations")
	reportEvery := flag.Int("report-every", 50, "Print progress every N evaluations")
	checkpointEvery := flag.Int("checkpoint-every", 1, "Write checkpoint every N best-score improvements")
	topK := flag.Int("top-k", 5, "How many top candidates to keep in report")
	resume := flag.Bool("resume", true, "Resume from previous best_knobs report when available")
	resumeReport := flag.String("resume-report", "", "Optional report JSON path to resume from (default: current report path)")

	mayflyVariant := flag.String("mayfly-variant", "desma", "Mayfly variant: ma|desma|olce|eobbma|gsasma|mpma|aoblmoa")
	mayflyPop := flag.Int("mayfly-pop", 10, "Male and female population size per Mayfly run")
	mayflyRoundEvals := flag.Int("mayfly-round-evals", 200, "Target eval budget per Mayfly round")
	flag.Parse()

	if *outputPreset == "" {
		die("output-preset must not be empty")
	}
	if *maxEvals < 1 {
		die("max-evals must be >= 1")
	}
	if *timeBudget <= 0 {
		die("time-budget must be > 0")
	}
	if *reportEvery < 1 {
		*reportEvery = 1
	}
	if *checkpointEvery < 1 {
		*checkpointEvery = 1
	}
	if *mayflyPop < 2 {
		*mayflyPop = 2
	}
	if *mayflyRoundEvals < *mayflyPop*2 {
		*mayflyRoundEvals = *mayflyPop * 2
	}
	if *topK < 1 {
		*topK = 1
	}

	voice, err := drum.ParseVoice(*voiceName)
	if err != nil {
		die("invalid voice: %v", err)
	}

	kit := preset.DefaultKit()
	if *presetPath != "" {
		kit, err = preset.LoadJSON(*presetPath)
		if err != nil {
			die("failed to load preset: %v", err)
		}
	}

	ref, refSR, err := wavio.ReadMono(*referencePath)
	if err != nil {
		die("failed to read reference: %v", err)
	}
	ref, err = wavio.Resample(ref, refSR, *sampleRate)
	if err != nil {
		die("failed to resample reference: %v", err)
	}

	defs, initCand := initCandidate(voice, kit.Params(voice))
	if *resume {
		resumePath := *resumeReport
		if resumePath == "" {
			if *reportPath != "" {
				resumePath = *reportPath
			} else {
				resumePath = *outputPreset + ".report.json"
			}
		}
		if resumed, ok, err := loadCandidateFromReport(resumePath, defs, initCand); err != nil {
			fmt.Fprintf(os.Stderr, "resume skipped (%s): %v\n", resumePath, err)
		} else if ok {
			initCand = resumed
			fmt.Printf("Resumed candidate from %s\n", resumePath)
		}
	}

	evaluate := func(c candidate) (analysis.Metrics, drum.Params, *drum.Buffer, error) {
		params, err := applyCandidate(voice, kit.Params(voice), defs, c)
		if err != nil {
			return analysis.Metrics{}, nil, nil, err
		}
		buf, err := drum.Synthesize(voice, params, *sampleRate)
		if err != nil {
			return analysis.Metrics{}, nil, nil, err
		}
		mono := analysis.Signal(buf)
		return analysis.Compare(ref, mono, *sampleRate), params, buf, nil
	}

	start := time.Now()
	deadline := start.Add(time.Duration(*timeBudget * float64(time.Second)))
	evals := 0
	bestImproves := 0
	checkpoints := 0
	top := make([]topCandidate, 0, *topK)

	best := initCand
	bestM, bestParams, bestBuf, err := evaluate(best)
	if err != nil {
		die("initial evaluation failed: %v", err)
	}
	evals++
	top = updateTopCandidates(top, *topK, evals, bestM, defs, best)
	fmt.Printf("Start voice=%s score=%.4f similarity=%.2f%%\n", voice, bestM.Score, bestM.Similarity*100.0)

	round := 0
	for evals < *maxEvals && time.Now().Before(deadline) {
		round++
		remaining := *maxEvals - evals
		budget := minInt(*mayflyRoundEvals, remaining)
		iters := maxInt(1, budget/(2*(*mayflyPop)))

		cfg, err := newMayflyConfig(strings.ToLower(*mayflyVariant), *mayflyPop, len(defs), iters)
		if err != nil {
			die("invalid mayfly variant: %v", err)
		}
		cfg.Rand = rand.New(rand.NewSource(*seed + int64(round)*7919))

		cfg.ObjectiveFunc = func(pos []float64) float64 {
			if evals >= *maxEvals || time.Now().After(deadline) {
				return bestM.Score + 1.0
			}
			cand := fromNormalized(pos, defs)
			m, params, buf, err := evaluate(cand)
			evals++
			if err != nil {
				return bestM.Score + 0.8
			}

			top = updateTopCandidates(top, *topK, evals, m, defs, cand)

			if m.Score < bestM.Score {
				best = cand
				bestM = m
				bestParams = params
				bestBuf = buf
				bestImproves++
				fmt.Printf("Improved #%d eval=%d score=%.4f sim=%.2f%%\n", bestImproves, evals, bestM.Score, bestM.Similarity*100.0)
				if bestImproves%*checkpointEvery == 0 {
					if err := writeOutputs(
						*outputWAV, *outputPreset, *reportPath, *referencePath, *presetPath,
						*sampleRate, voice, time.Since(start).Seconds(), evals,
						strings.ToLower(*mayflyVariant), defs, best, bestM, bestParams, bestBuf,
						checkpoints+1, top,
					); err != nil {
						fmt.Fprintf(os.Stderr, "checkpoint write failed: %v\n", err)
					} else {
						checkpoints++
					}
				}
			}

			if evals%*reportEvery == 0 {
				fmt.Printf("Progress round=%d eval=%d elapsed=%.1fs best=%.4f\n", round, evals, time.Since(start).Seconds(), bestM.Score)
			}
			return m.Score
		}

		if _, err := runMayfly(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "mayfly round %d failed: %v\n", round, err)
			continue
		}
	}

	elapsed := time.Since(start).Seconds()
	if err := writeOutputs(
		*outputWAV, *outputPreset, *reportPath, *referencePath, *presetPath,
		*sampleRate, voice, elapsed, evals,
		strings.ToLower(*mayflyVariant), defs, best, bestM, bestParams, bestBuf,
		checkpoints, top,
	); err != nil {
		die("failed to write outputs: %v", err)
	}

	fmt.Printf("Done evals=%d elapsed=%.1fs best_score=%.4f best_similarity=%.2f%% variant=%s\n",
		evals, elapsed, bestM.Score, bestM.Similarity*100.0, strings.ToLower(*mayflyVariant))
}

// initCandidate builds the knob space for the voice from its current params.
// Noise seeds stay fixed: they shape texture, not the fitted envelope, and a
// moving seed makes the objective needlessly noisy.
func initCandidate(v drum.Voice, base drum.Params) ([]knobDef, candidate) {
	var defs []knobDef
	var vals []float64
	add := func(def knobDef, val float64) {
		defs = append(defs, def)
		vals = append(vals, clamp(val, def.Min, def.Max))
	}

	switch p := base.(type) {
	case drum.KickParams:
		add(knobDef{Name: "pitch_hz", Min: 20, Max: 200}, p.PitchHz)
		add(knobDef{Name: "decay_s", Min: 0.01, Max: 0.4}, p.DecayS)
		add(knobDef{Name: "punch", Min: 0, Max: 2}, p.Punch)
	case drum.SnareParams:
		add(knobDef{Name: "tone_hz", Min: 80, Max: 400}, p.ToneHz)
		add(knobDef{Name: "noise_mix", Min: 0, Max: 1}, p.NoiseMix)
		add(knobDef{Name: "decay_s", Min: 0.01, Max: 0.3}, p.DecayS)
	case drum.HatParams:
		add(knobDef{Name: "pitch_hz", Min: 2000, Max: 12000}, p.PitchHz)
		add(knobDef{Name: "decay_s", Min: 0.01, Max: 0.7}, p.DecayS)
		add(knobDef{Name: "brightness", Min: 0.5, Max: 4}, p.Brightness)
	case drum.CymbalParams:
		add(knobDef{Name: "pitch_hz", Min: 500, Max: 8000}, p.PitchHz)
		add(knobDef{Name: "decay_s", Min: 0.05, Max: 1.2}, p.DecayS)
	case drum.RimshotParams:
		add(knobDef{Name: "tone_hz", Min: 200, Max: 2000}, p.ToneHz)
		add(knobDef{Name: "decay_s", Min: 0.01, Max: 0.15}, p.DecayS)
	case drum.ClapParams:
		add(knobDef{Name: "tap_delay_s", Min: 0.005, Max: 0.05}, p.TapDelayS)
		add(knobDef{Name: "decay_s", Min: 0.01, Max: 0.3}, p.DecayS)
	default:
		die("no knob space for voice %s", v)
	}
	return defs, candidate{Vals: vals}
}

func applyCandidate(v drum.Voice, base drum.Params, defs []knobDef, c candidate) (drum.Params, error) {
	knob := func(name string) (float64, bool) {
		for i, d := range defs {
			if d.Name == name && i < len(c.Vals) {
				return c.Vals[i], true
			}
		}
		return 0, false
	}

	switch p := base.(type) {
	case drum.KickParams:
		if val, ok := knob("pitch_hz"); ok {
			p.PitchHz = val
		}
		if val, ok := knob("decay_s"); ok {
			p.DecayS = val
		}
		if val, ok := knob("punch"); ok {
			p.Punch = val
		}
		return p, p.Validate()
	case drum.SnareParams:
		if val, ok := knob("tone_hz"); ok {
			p.ToneHz = val
		}
		if val, ok := knob("noise_mix"); ok {
			p.NoiseMix = val
		}
		if val, ok := knob("decay_s"); ok {
			p.DecayS = val
		}
		return p, p.Validate()
	case drum.HatParams:
		if val, ok := knob("pitch_hz"); ok {
			p.PitchHz = val
		}
		if val, ok := knob("decay_s"); ok {
			p.DecayS = val
		}
		if val, ok := knob("brightness"); ok {
			p.Brightness = val
		}
		return p, p.Validate()
	case drum.CymbalParams:
		if val, ok := knob("pitch_hz"); ok {
			p.PitchHz = val
		}
		if val, ok := knob("decay_s"); ok {
			p.DecayS = val
		}
		return p, p.Validate()
	case drum.RimshotParams:
		if val, ok := knob("tone_hz"); ok {
			p.ToneHz = val
		}
		if val, ok := knob("decay_s"); ok {
			p.DecayS = val
		}
		return p, p.Validate()
	case drum.ClapParams:
		if val, ok := knob("tap_delay_s"); ok {
			p.TapDelayS = val
		}
		if val, ok := knob("decay_s"); ok {
			p.DecayS = val
		}
		return p, p.Validate()
	}
	return nil, fmt.Errorf("no params for voice %s", v)
}

func updateTopCandidates(top []topCandidate, topK int, eval int, metrics analysis.Metrics, defs []knobDef, cand candidate) []topCandidate {
	entry := topCandidate{
		Eval:       eval,
		Score:      metrics.Score,
		Similarity: metrics.Similarity,
		Knobs:      make(map[string]float64, len(defs)),
	}
	for i, d := range defs {
		entry.Knobs[d.Name] = cand.Vals[i]
	}
	top = append(top, entry)
	sort.Slice(top, func(i, j int) bool {
		if top[i].Score == top[j].Score {
			return top[i].Eval < top[j].Eval
		}
		return top[i].Score < top[j].Score
	})
	if len(top) > topK {
		top = top[:topK]
	}
	return top
}

func writeOutputs(
	outputWAV string,
	outputPreset string,
	reportPath string,
	referencePath string,
	presetPath string,
	sampleRate int,
	voice drum.Voice,
	elapsed float64,
	evals int,
	variant string,
	defs []knobDef,
	best candidate,
	bestM analysis.Metrics,
	bestParams drum.Params,
	bestBuf *drum.Buffer,
	checkpoints int,
	top []topCandidate,
) error {
	if bestBuf != nil {
		if err := wavio.WriteMono(outputWAV, bestBuf.Data, sampleRate); err != nil {
			return err
		}
	}
	if err := writeFittedPreset(outputPreset, voice, bestParams); err != nil {
		return err
	}

	knobs := make(map[string]float64, len(defs))
	for i, d := range defs {
		knobs[d.Name] = best.Vals[i]
	}

	rep := runReport{
		ReferencePath:   referencePath,
		PresetPath:      presetPath,
		OutputPreset:    outputPreset,
		OutputWAV:       outputWAV,
		SampleRate:      sampleRate,
		Voice:           voice.String(),
		DurationSec:     elapsed,
		Evaluations:     evals,
		MayflyVariant:   variant,
		BestScore:       bestM.Score,
		BestSimilarity:  bestM.Similarity,
		BestMetrics:     bestM,
		BestKnobs:       knobs,
		CheckpointCount: checkpoints,
		TopCandidates:   top,
	}

	if reportPath == "" {
		reportPath = outputPreset + ".report.json"
	}
	return writeJSON(reportPath, rep)
}

// writeFittedPreset emits the fitted params as a kit preset file loadable by
// preset.LoadJSON.
func writeFittedPreset(path string, voice drum.Voice, params drum.Params) error {
	s := preset.VoiceSetting{}
	switch p := params.(type) {
	case drum.KickParams:
		s.PitchHz = fptr(p.PitchHz)
		s.DecayS = fptr(p.DecayS)
		s.Punch = fptr(p.Punch)
	case drum.SnareParams:
		s.ToneHz = fptr(p.ToneHz)
		s.NoiseMix = fptr(p.NoiseMix)
		s.DecayS = fptr(p.DecayS)
	case drum.HatParams:
		s.PitchHz = fptr(p.PitchHz)
		s.DecayS = fptr(p.DecayS)
		s.Brightness = fptr(p.Brightness)
	case drum.CymbalParams:
		s.PitchHz = fptr(p.PitchHz)
		s.DecayS = fptr(p.DecayS)
	case drum.RimshotParams:
		s.ToneHz = fptr(p.ToneHz)
		s.DecayS = fptr(p.DecayS)
	case drum.ClapParams:
		s.TapDelayS = fptr(p.TapDelayS)
		s.DecayS = fptr(p.DecayS)
	default:
		return fmt.Errorf("no preset mapping for voice %s", voice)
	}

	f := preset.File{
		Name:   "fitted-" + voice.String(),
		Voices: map[string]preset.VoiceSetting{voice.String(): s},
	}
	return writeJSON(path, f)
}

func fptr(v float64) *float64 {
	return &v
}

func loadCandidateFromReport(path string, defs []knobDef, fallback candidate) (candidate, bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fallback, false, nil
		}
		return fallback, false, err
	}
	var rep runReport
	if err := json.Unmarshal(b, &rep); err != nil {
		return fallback, false, err
	}
	if len(rep.BestKnobs) == 0 {
		return fallback, false, nil
	}

	vals := make([]float64, len(fallback.Vals))
	copy(vals, fallback.Vals)
	updated := false
	for i, d := range defs {
		if v, ok := rep.BestKnobs[d.Name]; ok {
			vals[i] = clamp(v, d.Min, d.Max)
			if d.IsInt {
				vals[i] = math.Round(vals[i])
			}
			updated = true
		}
	}
	if !updated {
		return fallback, false, nil
	}
	return candidate{Vals: vals}, true, nil
}

func fromNormalized(pos []float64, defs []knobDef) candidate {
	vals := make([]float64, len(defs))
	for i := range defs {
		x := 0.0
		if i < len(pos) {
			x = clamp(pos[i], 0, 1)
		}
		v := defs[i].Min + x*(defs[i].Max-defs[i].Min)
		if defs[i].IsInt {
			v = math.Round(v)
		}
		vals[i] = v
	}
	return candidate{Vals: vals}
}

func newMayflyConfig(variant string, pop int, dims int, iters int) (*mayfly.Config, error) {
	var cfg *mayfly.Config
	switch variant {
	case "ma":
		cfg = mayfly.NewDefaultConfig()
	case "desma":
		cfg = mayfly.NewDESMAConfig()
	case "olce":
		cfg = mayfly.NewOLCEConfig()
	case "eobbma":
		cfg = mayfly.NewEOBBMAConfig()
	case "gsasma":
		cfg = mayfly.NewGSASMAConfig()
	case "mpma":
		cfg = mayfly.NewMPMAConfig()
	case "aoblmoa":
		cfg = mayfly.NewAOBLMOAConfig()
	default:
		return nil, fmt.Errorf("unsupported variant %q", variant)
	}
	cfg.ProblemSize = dims
	cfg.LowerBound = 0.0
	cfg.UpperBound = 1.0
	cfg.MaxIterations = iters
	cfg.NPop = pop
	cfg.NPopF = pop
	cfg.NC = 2 * pop
	cfg.NM = maxInt(1, int(math.Round(0.05*float64(pop))))
	return cfg, nil
}

func runMayfly(cfg *mayfly.Config) (_ *mayfly.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mayfly panic: %v", r)
		}
	}()
	return mayfly.Optimize(cfg)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o644)
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

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
