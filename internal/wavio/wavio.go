// Package wavio reads and writes WAV files for the command-line tools and
// converts them into playback buffers.
package wavio

import (
	"fmt"
	"os"
	"path/filepath"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"

	"github.com/cwbudde/algo-drums/drum"
)

// ReadMono reads a WAV file, folds it to mono and normalizes to [-1,1].
// Returns the samples and the file's sample rate.
func ReadMono(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, err
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, 0, fmt.Errorf("invalid wav buffer: %s", path)
	}

	bits := buf.SourceBitDepth
	if bits <= 0 || bits > 32 {
		bits = 16
	}
	scale := float64(int64(1) << (bits - 1))

	ch := buf.Format.NumChannels
	frames := len(buf.Data) / ch
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < ch; c++ {
			sum += float64(buf.Data[i*ch+c])
		}
		out[i] = sum / float64(ch) / scale
	}
	return out, buf.Format.SampleRate, nil
}

// WriteMono writes mono float32 samples as a 16-bit PCM WAV file, creating
// parent directories as needed.
func WriteMono(path string, data []float32, sampleRate int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	defer enc.Close()

	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: 1,
		},
		Data:           data,
		SourceBitDepth: 16,
	}
	return enc.Write(buf)
}

// Resample converts in from fromRate to toRate. A matching rate returns the
// input unchanged.
func Resample(in []float64, fromRate int, toRate int) ([]float64, error) {
	if fromRate == toRate {
		return in, nil
	}
	r, err := dspresample.NewForRates(
		float64(fromRate),
		float64(toRate),
		dspresample.WithQuality(dspresample.QualityBest),
	)
	if err != nil {
		return nil, err
	}
	return r.Process(in), nil
}

// LoadBuffer reads a WAV file as a mono playback buffer at targetRate,
// resampling when the file rate differs.
func LoadBuffer(path string, targetRate int) (*drum.Buffer, error) {
	mono, rate, err := ReadMono(path)
	if err != nil {
		return nil, err
	}
	mono, err = Resample(mono, rate, targetRate)
	if err != nil {
		return nil, err
	}
	data := make([]float32, len(mono))
	for i, v := range mono {
		data[i] = float32(v)
	}
	return &drum.Buffer{SampleRate: targetRate, Channels: 1, Data: data}, nil
}
