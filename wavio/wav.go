// Package wavio is the WAV boundary utility from spec.md section 6: it is
// not part of the PaulStretch core, but serializes a core-produced
// audio.Block to 16-bit PCM WAV (and reads one back for CLI input).
package wavio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/cwsl/paulstretch/audio"
)

const (
	bitsPerSample = 16
	pcmFormat     = 1
)

// Encode writes blk as a 44-byte-header, 16-bit little-endian PCM WAV:
// RIFF/WAVE/fmt /data, samples interleaved across channels. Samples are
// clipped to [-1, 1], then scaled: negative by 32768, non-negative by
// 32767, exactly as spec.md section 6 specifies.
func Encode(w io.Writer, blk *audio.Block) error {
	if err := blk.Validate(); err != nil {
		return fmt.Errorf("wavio: %w", err)
	}

	channels := blk.ChannelCount()
	frames := blk.FrameCount()
	dataSize := frames * channels * (bitsPerSample / 8)
	byteRate := blk.SampleRate * channels * (bitsPerSample / 8)
	blockAlign := channels * (bitsPerSample / 8)

	header := make([]byte, 44)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+dataSize))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], pcmFormat)
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(blk.SampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataSize))

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("wavio: writing header: %w", err)
	}

	sampleBuf := make([]byte, 2)
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			s := float64(blk.Channels[c][i])
			if s > 1 {
				s = 1
			} else if s < -1 {
				s = -1
			}
			var v int16
			if s < 0 {
				v = int16(s * 32768)
			} else {
				v = int16(s * 32767)
			}
			binary.LittleEndian.PutUint16(sampleBuf, uint16(v))
			if _, err := w.Write(sampleBuf); err != nil {
				return fmt.Errorf("wavio: writing sample: %w", err)
			}
		}
	}
	return nil
}

// Decode reads a 16-bit PCM WAV stream into an audio.Block. It accepts the
// canonical 44-byte header produced by Encode; it does not attempt to
// handle compressed formats or extended fmt chunks (those are the
// external decoder boundary spec.md section 1 excludes from the core).
func Decode(r io.Reader) (*audio.Block, error) {
	header := make([]byte, 44)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("wavio: reading header: %w", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return nil, fmt.Errorf("wavio: not a RIFF/WAVE stream")
	}
	if string(header[12:16]) != "fmt " {
		return nil, fmt.Errorf("wavio: missing fmt chunk")
	}
	format := binary.LittleEndian.Uint16(header[20:22])
	if format != pcmFormat {
		return nil, fmt.Errorf("wavio: unsupported format tag %d, only PCM is supported", format)
	}
	channels := int(binary.LittleEndian.Uint16(header[22:24]))
	sampleRate := int(binary.LittleEndian.Uint32(header[24:28]))
	bits := binary.LittleEndian.Uint16(header[34:36])
	if bits != bitsPerSample {
		return nil, fmt.Errorf("wavio: unsupported bit depth %d, only 16-bit is supported", bits)
	}
	if string(header[36:40]) != "data" {
		return nil, fmt.Errorf("wavio: missing data chunk")
	}
	dataSize := int(binary.LittleEndian.Uint32(header[40:44]))

	bytesPerFrame := channels * 2
	if bytesPerFrame == 0 {
		return nil, fmt.Errorf("wavio: zero channel count")
	}
	frames := dataSize / bytesPerFrame

	blk := audio.NewBlock(sampleRate, channels, frames)
	raw := make([]byte, dataSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("wavio: reading samples: %w", err)
	}

	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			off := (i*channels + c) * 2
			v := int16(binary.LittleEndian.Uint16(raw[off : off+2]))
			if v < 0 {
				blk.Channels[c][i] = float32(v) / 32768
			} else {
				blk.Channels[c][i] = float32(v) / 32767
			}
		}
	}
	return blk, nil
}

// PeakDBFS converts a linear peak amplitude to dBFS, for CLI diagnostics.
// Silence is clamped to -160 dB instead of -Inf.
func PeakDBFS(peak float32) float64 {
	if peak <= 0 {
		return -160
	}
	return 20 * math.Log10(float64(peak))
}
