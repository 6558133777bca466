//go:build opus
// +build opus

// Package opusload decodes a raw Opus packet stream (each packet prefixed by
// a 2-byte big-endian length; Ogg containers are not parsed) into an
// audio.Block for the CLI, mirroring the build-tag-gated, gracefully-degrading wrapper
// ka9q_ubersdr's opus_support.go uses around gopkg.in/hraban/opus.v2 on the
// encode side. Opus input is a CLI convenience only: the core library never
// depends on this package (spec.md section 1 keeps codec handling outside
// the core's "external collaborators" boundary).
package opusload

import (
	"fmt"
	"io"
	"os"

	opus "gopkg.in/hraban/opus.v2"

	"github.com/cwsl/paulstretch/audio"
)

const (
	frameMillis = 20
	channels    = 1
	sampleRate  = 48000
)

// Load decodes the Opus stream at path into a mono audio.Block at 48kHz.
// Multi-stream Ogg containers and variable channel counts are out of scope;
// this exists so the CLI can accept a voice-memo-style clip without first
// shelling out to an external decoder.
func Load(path string) (*audio.Block, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opusload: opening %s: %w", path, err)
	}
	defer f.Close()

	decoder, err := opus.NewDecoder(sampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("opusload: creating decoder: %w", err)
	}

	frameSize := sampleRate * frameMillis / 1000
	pcm := make([]int16, frameSize)

	var samples []float32
	packet := make([]byte, 4000)
	for {
		n, err := readPacket(f, packet)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("opusload: reading packet: %w", err)
		}

		decoded, err := decoder.Decode(packet[:n], pcm)
		if err != nil {
			return nil, fmt.Errorf("opusload: decoding packet: %w", err)
		}
		for _, s := range pcm[:decoded] {
			samples = append(samples, float32(s)/32768)
		}
	}

	return &audio.Block{SampleRate: sampleRate, Channels: [][]float32{samples}}, nil
}

// readPacket reads one length-prefixed Opus packet from r. Real Ogg demuxing
// belongs to a container library; callers in practice feed this a raw Opus
// packet stream already demuxed upstream (e.g. by an external ogg tool).
func readPacket(r io.Reader, buf []byte) (int, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return 0, err
	}
	n := int(lenBuf[0])<<8 | int(lenBuf[1])
	if n > len(buf) {
		return 0, fmt.Errorf("opusload: packet of %d bytes exceeds buffer", n)
	}
	if _, err := io.ReadFull(r, buf[:n]); err != nil {
		return 0, err
	}
	return n, nil
}
