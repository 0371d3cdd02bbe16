package drum

// Buffer holds PCM audio as float32 samples nominally in [-1, 1],
// interleaved when Channels > 1.
type Buffer struct {
	SampleRate int
	Channels   int
	Data       []float32
}

// Frames returns the per-channel frame count.
func (b *Buffer) Frames() int {
	if b == nil || b.Channels < 1 {
		return 0
	}
	return len(b.Data) / b.Channels
}

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	if b == nil {
		return nil
	}
	data := make([]float32, len(b.Data))
	copy(data, b.Data)
	return &Buffer{SampleRate: b.SampleRate, Channels: b.Channels, Data: data}
}
