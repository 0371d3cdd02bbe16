// Package analysis measures how close a synthesized drum hit is to a
// reference recording. The metrics drive the parameter fitting tool and are
// usable standalone for regression checks.
package analysis

import (
	"math"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"

	"github.com/cwbudde/algo-drums/drum"
)

// Analysis windows sized for percussive material: hits live in the first few
// hundred milliseconds, so the envelope follower and STFT frames are short.
const (
	envFrame = 128
	envHop   = 64
	fftSize  = 1024
	fftHop   = 512

	maxLagSeconds = 0.02
	minAligned    = 256
)

// Metrics contains distance and similarity measurements between two drum
// hits.
type Metrics struct {
	SampleRate int `json:"sample_rate"`

	ReferenceFrames int `json:"reference_frames"`
	CandidateFrames int `json:"candidate_frames"`
	AlignedFrames   int `json:"aligned_frames"`
	LagSamples      int `json:"lag_samples"`

	TimeRMSE       float64 `json:"time_rmse"`
	EnvelopeRMSEDB float64 `json:"envelope_rmse_db"`
	SpectralRMSEDB float64 `json:"spectral_rmse_db"`

	RefCentroidHz  float64 `json:"ref_centroid_hz"`
	CandCentroidHz float64 `json:"cand_centroid_hz"`

	RefDecayDBPerS  float64 `json:"ref_decay_db_per_s"`
	CandDecayDBPerS float64 `json:"cand_decay_db_per_s"`
	DecayDiffDBPerS float64 `json:"decay_diff_db_per_s"`

	Score      float64 `json:"score"`
	Similarity float64 `json:"similarity"`
}

// Signal folds a buffer down to a mono float64 signal for analysis.
func Signal(buf *drum.Buffer) []float64 {
	if buf == nil || len(buf.Data) == 0 {
		return nil
	}
	frames := buf.Frames()
	out := make([]float64, frames)
	if buf.Channels <= 1 {
		for i := 0; i < frames; i++ {
			out[i] = float64(buf.Data[i])
		}
		return out
	}
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < buf.Channels; c++ {
			sum += float64(buf.Data[i*buf.Channels+c])
		}
		out[i] = sum / float64(buf.Channels)
	}
	return out
}

// Compare returns objective distance metrics and a combined score in [0,1],
// 0 meaning indistinguishable. Degenerate inputs score 1.
func Compare(reference []float64, candidate []float64, sampleRate int) Metrics {
	m := Metrics{
		SampleRate:      sampleRate,
		ReferenceFrames: len(reference),
		CandidateFrames: len(candidate),
	}
	if sampleRate <= 0 || len(reference) == 0 || len(candidate) == 0 {
		m.Score = 1.0
		return m
	}

	ref := trimLeadingSilence(reference, 1e-6)
	cand := trimLeadingSilence(candidate, 1e-6)
	if len(ref) == 0 || len(cand) == 0 {
		m.Score = 1.0
		return m
	}

	ref = normalizeRMS(ref, 0.1)
	cand = normalizeRMS(cand, 0.1)

	maxLag := int(maxLagSeconds * float64(sampleRate))
	if maxLag > len(ref)-1 {
		maxLag = len(ref) - 1
	}
	if maxLag > len(cand)-1 {
		maxLag = len(cand) - 1
	}
	if maxLag < 1 {
		maxLag = 1
	}
	lag := estimateLag(ref, cand, maxLag)
	m.LagSamples = lag

	refA, candA := alignByLag(ref, cand, lag)
	n := len(refA)
	if len(candA) < n {
		n = len(candA)
	}
	if n < minAligned {
		m.Score = 1.0
		return m
	}
	refA = refA[:n]
	candA = candA[:n]
	m.AlignedFrames = n

	m.TimeRMSE = rmse(refA, candA)

	refEnv := rmsEnvelope(refA, envFrame, envHop)
	candEnv := rmsEnvelope(candA, envFrame, envHop)
	envN := len(refEnv)
	if len(candEnv) < envN {
		envN = len(candEnv)
	}
	if envN > 0 {
		var sum float64
		for i := 0; i < envN; i++ {
			d := linToDB(refEnv[i]) - linToDB(candEnv[i])
			sum += d * d
		}
		m.EnvelopeRMSEDB = math.Sqrt(sum / float64(envN))
	}

	refSpec := averageSpectrum(refA)
	candSpec := averageSpectrum(candA)
	m.SpectralRMSEDB = spectrumRMSEDB(refSpec, candSpec)
	m.RefCentroidHz = spectralCentroid(refSpec, sampleRate)
	m.CandCentroidHz = spectralCentroid(candSpec, sampleRate)

	hopSec := float64(envHop) / float64(sampleRate)
	m.RefDecayDBPerS = decaySlopeDBPerS(refEnv, hopSec)
	m.CandDecayDBPerS = decaySlopeDBPerS(candEnv, hopSec)
	if isFinite(m.RefDecayDBPerS) && isFinite(m.CandDecayDBPerS) {
		m.DecayDiffDBPerS = math.Abs(m.RefDecayDBPerS - m.CandDecayDBPerS)
	}

	// Normalize sub-metrics and combine. Decay slopes on percussion are
	// steep, so the decay term normalizes against a wide 120 dB/s span.
	timeNorm := clamp01(m.TimeRMSE / 0.25)
	envNorm := clamp01(m.EnvelopeRMSEDB / 30.0)
	specNorm := clamp01(m.SpectralRMSEDB / 30.0)
	centNorm := clamp01(math.Abs(m.RefCentroidHz-m.CandCentroidHz) / 2000.0)
	decNorm := clamp01(m.DecayDiffDBPerS / 120.0)
	m.Score = clamp01(0.25*timeNorm + 0.20*envNorm + 0.30*specNorm + 0.10*centNorm + 0.15*decNorm)
	m.Similarity = clamp01(math.Exp(-4.0 * m.Score))

	return m
}

// averageSpectrum returns the mean Hann-windowed magnitude spectrum of x,
// fftSize/2 bins. Signals shorter than one frame are zero-padded into a
// single frame.
func averageSpectrum(x []float64) []float64 {
	plan, err := algofft.NewPlanReal64(fftSize)
	if err != nil {
		return nil
	}

	hann := make([]float64, fftSize)
	for i := range hann {
		hann[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(fftSize-1))
	}

	spec := make([]complex128, fftSize/2+1)
	buf := make([]float64, fftSize)
	avg := make([]float64, fftSize/2)

	frames := 0
	for pos := 0; pos+fftSize <= len(x); pos += fftHop {
		for i := 0; i < fftSize; i++ {
			buf[i] = x[pos+i] * hann[i]
		}
		plan.Forward(spec, buf)
		for k := 1; k < len(avg); k++ {
			avg[k] += cmplx.Abs(spec[k])
		}
		frames++
	}
	if frames == 0 {
		for i := range buf {
			buf[i] = 0
		}
		for i := 0; i < len(x) && i < fftSize; i++ {
			buf[i] = x[i] * hann[i]
		}
		plan.Forward(spec, buf)
		for k := 1; k < len(avg); k++ {
			avg[k] = cmplx.Abs(spec[k])
		}
		return avg
	}
	for k := range avg {
		avg[k] /= float64(frames)
	}
	return avg
}

func spectrumRMSEDB(a []float64, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n < 2 {
		return 0
	}
	var sum float64
	for k := 1; k < n; k++ {
		d := linToDB(a[k]) - linToDB(b[k])
		sum += d * d
	}
	return math.Sqrt(sum / float64(n-1))
}

// spectralCentroid is the magnitude-weighted mean frequency, the usual
// brightness proxy for percussion.
func spectralCentroid(spec []float64, sampleRate int) float64 {
	if len(spec) == 0 {
		return 0
	}
	binHz := float64(sampleRate) / float64(fftSize)
	var num, den float64
	for k := 1; k < len(spec); k++ {
		num += float64(k) * binHz * spec[k]
		den += spec[k]
	}
	if den <= 1e-12 {
		return 0
	}
	return num / den
}

func trimLeadingSilence(x []float64, threshold float64) []float64 {
	for i := 0; i < len(x); i++ {
		if math.Abs(x[i]) > threshold {
			return x[i:]
		}
	}
	return nil
}

func normalizeRMS(x []float64, target float64) []float64 {
	if len(x) == 0 {
		return x
	}
	r := rms(x)
	if r <= 1e-12 {
		return append([]float64(nil), x...)
	}
	g := target / r
	out := make([]float64, len(x))
	for i := range x {
		out[i] = x[i] * g
	}
	return out
}

func estimateLag(ref []float64, cand []float64, maxLag int) int {
	if len(ref) == 0 || len(cand) == 0 {
		return 0
	}
	bestLag := 0
	best := math.Inf(-1)
	for lag := -maxLag; lag <= maxLag; lag++ {
		s := dotAtLag(ref, cand, lag)
		if s > best {
			best = s
			bestLag = lag
		}
	}
	return bestLag
}

func dotAtLag(a []float64, b []float64, lag int) float64 {
	var ai, bi int
	if lag >= 0 {
		ai = lag
	} else {
		bi = -lag
	}
	n := len(a) - ai
	if len(b)-bi < n {
		n = len(b) - bi
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += a[ai+i] * b[bi+i]
	}
	return sum
}

func alignByLag(ref []float64, cand []float64, lag int) ([]float64, []float64) {
	if lag >= 0 {
		if lag >= len(ref) {
			return nil, nil
		}
		return ref[lag:], cand
	}
	o := -lag
	if o >= len(cand) {
		return nil, nil
	}
	return ref, cand[o:]
}

func rmse(a []float64, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(n))
}

func rms(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

func rmsEnvelope(x []float64, frame int, hop int) []float64 {
	if frame <= 0 || hop <= 0 || len(x) < frame {
		return nil
	}
	n := 1 + (len(x)-frame)/hop
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		start := i * hop
		out[i] = rms(x[start : start+frame])
	}
	return out
}

func linToDB(x float64) float64 {
	if x < 1e-12 {
		x = 1e-12
	}
	return 20.0 * math.Log10(x)
}

// decaySlopeDBPerS fits a line through the post-peak envelope in dB. Returns
// NaN when the tail is too short to fit.
func decaySlopeDBPerS(env []float64, hopSec float64) float64 {
	if len(env) < 8 || hopSec <= 0 {
		return math.NaN()
	}
	peak := -math.MaxFloat64
	peakIdx := 0
	for i, v := range env {
		db := linToDB(v)
		if db > peak {
			peak = db
			peakIdx = i
		}
	}
	start := peakIdx + 1
	if start >= len(env)-4 {
		return math.NaN()
	}

	threshold := peak - 60.0
	end := len(env)
	for i := start; i < len(env); i++ {
		if linToDB(env[i]) < threshold {
			end = i
			break
		}
	}
	if end-start < 6 {
		return math.NaN()
	}

	var sx, sy, sxx, sxy float64
	n := float64(end - start)
	for i := start; i < end; i++ {
		x := float64(i-start) * hopSec
		y := linToDB(env[i])
		sx += x
		sy += y
		sxx += x * x
		sxy += x * y
	}
	den := n*sxx - sx*sx
	if math.Abs(den) < 1e-12 {
		return math.NaN()
	}
	return (n*sxy - sx*sy) / den
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
