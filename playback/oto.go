package playback

import (
	"fmt"
	"io"

	"github.com/hajimehoshi/oto"
)

const (
	deviceChannels        = 2
	deviceBitDepthInBytes = 2
	deviceBlockFrames     = 1024
)

// DeviceOutput renders the mixer on the system audio device via oto.
type DeviceOutput struct {
	*Mixer

	otoContext *oto.Context
	player     io.WriteCloser
	quit       chan struct{}
	finished   chan struct{}

	frames []float32
	pcm    []byte
}

var _ io.Reader = (*DeviceOutput)(nil)

// NewDeviceOutput opens the audio device at the given sample rate and starts
// the feed loop. A device that cannot be opened (headless host, device busy)
// surfaces as ErrOutputUnavailable.
func NewDeviceOutput(sampleRate int) (*DeviceOutput, error) {
	bufferSize := deviceBlockFrames * deviceChannels * deviceBitDepthInBytes
	ctx, err := oto.NewContext(sampleRate, deviceChannels, deviceBitDepthInBytes, bufferSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutputUnavailable, err)
	}
	d := &DeviceOutput{
		Mixer:      NewMixer(sampleRate, deviceChannels),
		otoContext: ctx,
		player:     ctx.NewPlayer(),
		quit:       make(chan struct{}),
		finished:   make(chan struct{}),
		frames:     make([]float32, deviceBlockFrames*deviceChannels),
		pcm:        make([]byte, deviceBlockFrames*deviceChannels*deviceBitDepthInBytes),
	}
	go d.feed()
	return d, nil
}

func (d *DeviceOutput) feed() {
	defer close(d.finished)
	if _, err := io.CopyBuffer(d.player, d, make([]byte, len(d.pcm))); err != nil && err != io.EOF {
		return
	}
}

// Read renders the next mixer block as 16-bit little-endian PCM.
func (d *DeviceOutput) Read(buf []byte) (int, error) {
	select {
	case <-d.quit:
		return 0, io.EOF
	default:
	}

	n := len(buf)
	if n > len(d.pcm) {
		n = len(d.pcm)
	}
	samples := n / deviceBitDepthInBytes
	d.Render(d.frames[:samples])
	for i := 0; i < samples; i++ {
		v := d.frames[i]
		if v > 1 {
			v = 1
		}
		if v < -1 {
			v = -1
		}
		s := int16(v * 32767)
		buf[i*2] = byte(s)
		buf[i*2+1] = byte(s >> 8)
	}
	return samples * deviceBitDepthInBytes, nil
}

// Close stops the feed loop and releases the device.
func (d *DeviceOutput) Close() error {
	select {
	case <-d.quit:
		return nil
	default:
		close(d.quit)
	}
	<-d.finished
	err := d.player.Close()
	if cerr := d.otoContext.Close(); err == nil {
		err = cerr
	}
	return err
}
