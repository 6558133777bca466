// Package audio defines the multi-channel PCM data type passed across the
// PaulStretch core boundary.
package audio

import "fmt"

// Block is a multi-channel, finite sample sequence. All channels share the
// same length; samples are nominally in [-1, 1] on input. The core clips to
// that range only at the WAV-encoding boundary, never internally.
type Block struct {
	SampleRate int
	Channels   [][]float32
}

// NewBlock allocates a Block with the given channel count and frame count,
// zero-filled.
func NewBlock(sampleRate, channelCount, frameCount int) *Block {
	chans := make([][]float32, channelCount)
	for i := range chans {
		chans[i] = make([]float32, frameCount)
	}
	return &Block{SampleRate: sampleRate, Channels: chans}
}

// ChannelCount reports the number of channels.
func (b *Block) ChannelCount() int {
	return len(b.Channels)
}

// FrameCount reports the number of samples per channel, or 0 for a channel-
// less block.
func (b *Block) FrameCount() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Validate checks the structural invariants of the data model: a positive
// sample rate, at least one channel, and equal-length channels.
func (b *Block) Validate() error {
	if b == nil {
		return fmt.Errorf("audio: block is nil")
	}
	if b.SampleRate <= 0 {
		return fmt.Errorf("audio: sample rate must be positive, got %d", b.SampleRate)
	}
	if len(b.Channels) == 0 {
		return fmt.Errorf("audio: block has no channels")
	}
	n := len(b.Channels[0])
	if n == 0 {
		return fmt.Errorf("audio: channel 0 has zero frames")
	}
	for i, ch := range b.Channels {
		if len(ch) != n {
			return fmt.Errorf("audio: channel %d has %d frames, channel 0 has %d", i, len(ch), n)
		}
	}
	return nil
}

// PeakAbs returns the maximum absolute sample value across all channels, or
// 0 for an empty block.
func (b *Block) PeakAbs() float32 {
	var max float32
	for _, ch := range b.Channels {
		for _, s := range ch {
			a := s
			if a < 0 {
				a = -a
			}
			if a > max {
				max = a
			}
		}
	}
	return max
}
