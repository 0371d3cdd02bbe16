// Package bank caches synthesized or decoded drum buffers keyed by
// (category, name) and serves read-mostly lookups to the playback and UI
// layers.
package bank

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-drums/drum"
	"github.com/cwbudde/algo-drums/wavpcm"
)

// ErrNoSources is returned when the batch source list itself is missing.
// Individual decode failures never surface here; they are logged and the
// item is skipped.
var ErrNoSources = errors.New("no sample sources")

// Source describes one sample to load during initialization: either an
// already synthesized buffer or a base64-encoded 16-bit PCM WAVE payload.
type Source struct {
	Metadata  Metadata
	Buffer    *drum.Buffer
	WAVBase64 string
}

// Bank owns the sample cache. Reads are safe concurrently; writes happen
// during Initialize or explicit Replace under a single-writer lock.
type Bank struct {
	mu          sync.RWMutex
	samples     map[Key]CachedSample
	initialized bool
	logger      *log.Logger
}

// New creates an empty bank. A nil logger falls back to the default logger.
func New(logger *log.Logger) *Bank {
	if logger == nil {
		logger = log.Default()
	}
	return &Bank{
		samples: make(map[Key]CachedSample),
		logger:  logger,
	}
}

// Initialize decodes the batch concurrently and installs the results.
// Per-item failures are logged and skipped. The call fails only when the
// batch source itself is absent. Re-invoking after success is a no-op.
func (b *Bank) Initialize(sources []Source) error {
	b.mu.Lock()
	if b.initialized {
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()

	if len(sources) == 0 {
		return ErrNoSources
	}

	decoded := make([]*CachedSample, len(sources))
	var g errgroup.Group
	for i, src := range sources {
		g.Go(func() error {
			s, err := decodeSource(src)
			if err != nil {
				b.logger.Printf("bank: skipping %s/%s: %v", src.Metadata.Category, src.Metadata.Name, err)
				return nil
			}
			decoded[i] = s
			return nil
		})
	}
	// Workers never report errors; the join is purely a fan-in barrier.
	_ = g.Wait()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.initialized {
		return nil
	}
	// Install in source order so a key collision resolves last-write-wins.
	for _, s := range decoded {
		if s != nil {
			b.samples[s.Metadata.key()] = *s
		}
	}
	b.initialized = true
	return nil
}

// Replace installs or overwrites a single entry outside of initialization.
func (b *Bank) Replace(src Source) error {
	s, err := decodeSource(src)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples[s.Metadata.key()] = *s
	return nil
}

func decodeSource(src Source) (*CachedSample, error) {
	if src.Metadata.Name == "" {
		return nil, fmt.Errorf("missing sample name")
	}
	if src.Buffer != nil {
		return &CachedSample{Metadata: src.Metadata, Buffer: src.Buffer}, nil
	}
	if src.WAVBase64 == "" {
		return nil, fmt.Errorf("source has neither buffer nor payload")
	}
	raw, err := base64.StdEncoding.DecodeString(src.WAVBase64)
	if err != nil {
		return nil, fmt.Errorf("base64 decode: %w", err)
	}
	buf, err := wavpcm.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("pcm decode: %w", err)
	}
	return &CachedSample{Metadata: src.Metadata, Buffer: buf}, nil
}

// Sample returns the buffer cached under (category, name), or nil.
func (b *Bank) Sample(name, category string) *drum.Buffer {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.samples[Key{Category: category, Name: name}]
	if !ok {
		return nil
	}
	return s.Buffer
}

// SamplesByVoice returns all cached samples for a voice, sorted by
// category then name.
func (b *Bank) SamplesByVoice(v drum.Voice) []CachedSample {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]CachedSample, 0, 8)
	for _, s := range b.samples {
		if s.Metadata.Voice == v {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Metadata.Category != out[j].Metadata.Category {
			return out[i].Metadata.Category < out[j].Metadata.Category
		}
		return out[i].Metadata.Name < out[j].Metadata.Name
	})
	return out
}

// SamplesByCategory returns the UI projection of a category, sorted by name.
func (b *Bank) SamplesByCategory(category string) []SoundItem {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]SoundItem, 0, 8)
	for k, s := range b.samples {
		if k.Category != category {
			continue
		}
		out = append(out, SoundItem{
			Name: s.Metadata.Name,
			Kind: kindForVoice(s.Metadata.Voice),
			Icon: s.Metadata.Voice.String(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Categories returns the sorted set of categories present in the bank.
func (b *Bank) Categories() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	seen := make(map[string]struct{})
	for k := range b.samples {
		seen[k.Category] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of cached samples.
func (b *Bank) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.samples)
}
