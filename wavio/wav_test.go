package wavio

import (
	"bytes"
	"math"
	"testing"

	"github.com/cwsl/paulstretch/audio"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	blk := audio.NewBlock(44100, 2, 1000)
	for i := 0; i < 1000; i++ {
		blk.Channels[0][i] = float32(0.5 * math.Sin(float64(i)*0.1))
		blk.Channels[1][i] = float32(-0.25)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, blk); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.SampleRate != blk.SampleRate || got.ChannelCount() != blk.ChannelCount() || got.FrameCount() != blk.FrameCount() {
		t.Fatalf("shape mismatch: got rate=%d ch=%d frames=%d", got.SampleRate, got.ChannelCount(), got.FrameCount())
	}

	for c := range blk.Channels {
		for i := range blk.Channels[c] {
			want := blk.Channels[c][i]
			got := got.Channels[c][i]
			if math.Abs(float64(want-got)) > 1.0/32767 {
				t.Fatalf("sample mismatch ch=%d i=%d want=%g got=%g", c, i, want, got)
			}
		}
	}
}

func TestEncodeHeader(t *testing.T) {
	blk := audio.NewBlock(8000, 1, 10)
	var buf bytes.Buffer
	if err := Encode(&buf, blk); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	b := buf.Bytes()
	if len(b) != 44+10*2 {
		t.Fatalf("unexpected length %d", len(b))
	}
	if string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		t.Fatalf("missing RIFF/WAVE markers")
	}
}

func TestEncodeClips(t *testing.T) {
	blk := audio.NewBlock(44100, 1, 2)
	blk.Channels[0][0] = 2.0
	blk.Channels[0][1] = -2.0

	var buf bytes.Buffer
	if err := Encode(&buf, blk); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Channels[0][0] < 0.99 {
		t.Errorf("expected clipped positive peak ~1.0, got %g", got.Channels[0][0])
	}
	if got.Channels[0][1] > -0.99 {
		t.Errorf("expected clipped negative peak ~-1.0, got %g", got.Channels[0][1])
	}
}
