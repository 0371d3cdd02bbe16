// Package wavpcm serializes drum buffers to uncompressed 16-bit PCM WAVE
// byte streams and back. The conversion is byte-exact by contract: floats map
// to int16 as s*32768 for negative and s*32767 for non-negative samples, with
// no dithering, so Decode(Encode(b)) reproduces b up to one quantization step.
package wavpcm

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/cwbudde/algo-drums/drum"
)

const headerSize = 44

// Encode serializes buf as a RIFF/WAVE byte stream with a 44-byte header and
// interleaved little-endian int16 samples.
func Encode(buf *drum.Buffer) ([]byte, error) {
	if buf == nil || len(buf.Data) == 0 {
		return nil, fmt.Errorf("empty buffer")
	}
	if buf.SampleRate <= 0 || buf.Channels < 1 {
		return nil, fmt.Errorf("invalid buffer format: %d Hz, %d channels", buf.SampleRate, buf.Channels)
	}

	dataSize := len(buf.Data) * 2
	out := bytes.NewBuffer(make([]byte, 0, headerSize+dataSize))

	out.WriteString("RIFF")
	binary.Write(out, binary.LittleEndian, uint32(36+dataSize))
	out.WriteString("WAVE")

	out.WriteString("fmt ")
	binary.Write(out, binary.LittleEndian, uint32(16))
	binary.Write(out, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(out, binary.LittleEndian, uint16(buf.Channels))
	binary.Write(out, binary.LittleEndian, uint32(buf.SampleRate))
	binary.Write(out, binary.LittleEndian, uint32(buf.SampleRate*buf.Channels*2)) // byte rate
	binary.Write(out, binary.LittleEndian, uint16(buf.Channels*2))                // block align
	binary.Write(out, binary.LittleEndian, uint16(16))

	out.WriteString("data")
	binary.Write(out, binary.LittleEndian, uint32(dataSize))
	for _, s := range buf.Data {
		binary.Write(out, binary.LittleEndian, floatToInt16(s))
	}
	return out.Bytes(), nil
}

// Decode parses a 16-bit PCM WAVE byte stream produced by Encode or any
// compatible encoder. Chunks other than fmt/data are skipped.
func Decode(data []byte) (*drum.Buffer, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("short stream: %d bytes", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a RIFF/WAVE stream")
	}

	var (
		sampleRate int
		channels   int
		bits       int
		pcm        []byte
	)
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if size < 0 || body+size > len(data) {
			return nil, fmt.Errorf("truncated %q chunk", id)
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("short fmt chunk: %d bytes", size)
			}
			format := binary.LittleEndian.Uint16(data[body : body+2])
			if format != 1 {
				return nil, fmt.Errorf("unsupported audio format %d (want PCM)", format)
			}
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bits = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
		case "data":
			pcm = data[body : body+size]
		}
		// Chunks are word-aligned.
		pos = body + size + size%2
	}

	if sampleRate <= 0 || channels < 1 {
		return nil, fmt.Errorf("missing or invalid fmt chunk")
	}
	if bits != 16 {
		return nil, fmt.Errorf("unsupported bit depth %d (want 16)", bits)
	}
	if pcm == nil {
		return nil, fmt.Errorf("missing data chunk")
	}
	if len(pcm)%2 != 0 {
		return nil, fmt.Errorf("odd data chunk length %d", len(pcm))
	}

	samples := make([]float32, len(pcm)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
		samples[i] = int16ToFloat(v)
	}
	return &drum.Buffer{SampleRate: sampleRate, Channels: channels, Data: samples}, nil
}

func floatToInt16(s float32) int16 {
	if s < -1 {
		s = -1
	}
	if s > 1 {
		s = 1
	}
	if s < 0 {
		return int16(s * 32768)
	}
	return int16(s * 32767)
}

func int16ToFloat(v int16) float32 {
	if v < 0 {
		return float32(v) / 32768
	}
	return float32(v) / 32767
}
