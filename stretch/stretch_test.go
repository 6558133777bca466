package stretch

import (
	"errors"
	"math"
	"testing"

	"github.com/cwsl/paulstretch/audio"
)

func sineBlock(sampleRate, channels, frames int, freq float64) *audio.Block {
	blk := audio.NewBlock(sampleRate, channels, frames)
	for c := 0; c < channels; c++ {
		for i := 0; i < frames; i++ {
			blk.Channels[c][i] = float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
		}
	}
	return blk
}

func seedPtr(v int64) *int64 { return &v }

func TestSilenceInSilenceOut(t *testing.T) {
	blk := audio.NewBlock(44100, 2, 44100)
	core, err := New(Config{StretchFactor: 4, WindowSizeSeconds: 0.1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := core.Stretch(blk, nil)
	if err != nil {
		t.Fatalf("Stretch: %v", err)
	}
	wantLen := int(44100 * 4)
	if out.FrameCount() != wantLen {
		t.Fatalf("frame count = %d, want %d", out.FrameCount(), wantLen)
	}
	for c, ch := range out.Channels {
		for i, s := range ch {
			if s != 0 {
				t.Fatalf("channel %d sample %d = %g, want 0", c, i, s)
			}
		}
	}
}

func TestOutputFrameCount(t *testing.T) {
	blk := sineBlock(44100, 1, 44100, 440)
	factor := 3.5
	core, err := New(Config{StretchFactor: factor, WindowSizeSeconds: 0.25})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := core.Stretch(blk, nil)
	if err != nil {
		t.Fatalf("Stretch: %v", err)
	}
	want := int(float64(blk.FrameCount()) * factor)
	if out.FrameCount() != want {
		t.Fatalf("frame count = %d, want %d", out.FrameCount(), want)
	}
	if out.SampleRate != blk.SampleRate {
		t.Fatalf("sample rate changed: %d != %d", out.SampleRate, blk.SampleRate)
	}
	if out.ChannelCount() != blk.ChannelCount() {
		t.Fatalf("channel count changed")
	}
}

func TestPeakWithinUnity(t *testing.T) {
	blk := sineBlock(44100, 1, int(0.1*44100), 1000)
	core, _ := New(Config{StretchFactor: 50, WindowSizeSeconds: 0.25})
	out, err := core.Stretch(blk, nil)
	if err != nil {
		t.Fatalf("Stretch: %v", err)
	}
	if peak := out.PeakAbs(); peak > 1.0001 {
		t.Fatalf("peak %g exceeds 1.0", peak)
	}
}

func TestSmallInputProducesZeros(t *testing.T) {
	blk := sineBlock(44100, 1, 500, 440)
	core, _ := New(Config{StretchFactor: 4, WindowSizeSeconds: 0.25})
	out, err := core.Stretch(blk, nil)
	if err != nil {
		t.Fatalf("Stretch: %v", err)
	}
	want := int(500 * 4)
	if out.FrameCount() != want {
		t.Fatalf("frame count = %d, want %d", out.FrameCount(), want)
	}
	for _, s := range out.Channels[0] {
		if s != 0 {
			t.Fatalf("expected zeros for sub-window input, got %g", s)
		}
	}
}

func TestMonoStereoIndependence(t *testing.T) {
	blk := audio.NewBlock(44100, 2, 44100)
	for i := range blk.Channels[0] {
		blk.Channels[0][i] = float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/44100))
		blk.Channels[1][i] = float32(0.5 * math.Sin(2*math.Pi*880*float64(i)/44100))
	}
	seed := int64(42)
	core, _ := New(Config{StretchFactor: 4, WindowSizeSeconds: 0.1, Seed: &seed})
	out, err := core.Stretch(blk, nil)
	if err != nil {
		t.Fatalf("Stretch: %v", err)
	}
	var diff float64
	for i := range out.Channels[0] {
		d := float64(out.Channels[0][i] - out.Channels[1][i])
		diff += d * d
	}
	if diff == 0 {
		t.Fatalf("left and right channels are identical, expected independent processing")
	}
}

func TestStretchFactorOneChangesWaveform(t *testing.T) {
	blk := sineBlock(44100, 1, 44100, 440)
	core, _ := New(Config{StretchFactor: 1.0, WindowSizeSeconds: 0.1})
	out, err := core.Stretch(blk, nil)
	if err != nil {
		t.Fatalf("Stretch: %v", err)
	}
	if out.FrameCount() != blk.FrameCount() {
		t.Fatalf("frame count = %d, want %d", out.FrameCount(), blk.FrameCount())
	}
	var diff float64
	for i := range out.Channels[0] {
		d := float64(out.Channels[0][i] - blk.Channels[0][i])
		diff += d * d
	}
	if diff == 0 {
		t.Fatalf("output should not equal input byte-for-byte: phase randomization must alter the waveform")
	}
}

func TestInvalidConfigRejected(t *testing.T) {
	cases := []Config{
		{StretchFactor: 0},
		{StretchFactor: -1},
		{StretchFactor: math.NaN()},
		{StretchFactor: math.Inf(1)},
		{StretchFactor: 2, WorkerCount: -1},
	}
	for _, cfg := range cases {
		if _, err := New(cfg); err == nil {
			t.Errorf("expected error for config %+v", cfg)
		}
	}
}

func TestInvalidAudioRejected(t *testing.T) {
	core, _ := New(Config{StretchFactor: 2})
	blk := &audio.Block{SampleRate: 0, Channels: [][]float32{{0, 1}}}
	if _, err := core.Stretch(blk, nil); err == nil {
		t.Fatal("expected error for invalid sample rate")
	}
}

func TestZeroLengthChannelRejected(t *testing.T) {
	core, _ := New(Config{StretchFactor: 2})
	blk := &audio.Block{SampleRate: 44100, Channels: [][]float32{{}}}
	_, err := core.Stretch(blk, nil)
	if err == nil {
		t.Fatal("expected error for zero-length channel")
	}
	var se *Error
	if !errors.As(err, &se) || se.Kind != InvalidInput {
		t.Fatalf("expected InvalidInput error, got %v", err)
	}
}

func TestParallelAndSequentialShapeAgreeWithSeed(t *testing.T) {
	blk := sineBlock(44100, 2, 2*44100, 440)
	seed := int64(7)

	seqCfg := Config{StretchFactor: 4, WindowSizeSeconds: 0.1, WorkerCount: 1, Seed: seedPtr(seed)}
	parCfg := Config{StretchFactor: 4, WindowSizeSeconds: 0.1, WorkerCount: 4, Seed: seedPtr(seed)}

	seqCore, _ := New(seqCfg)
	parCore, _ := New(parCfg)

	seqOut, err := seqCore.Stretch(blk, nil)
	if err != nil {
		t.Fatalf("sequential Stretch: %v", err)
	}
	parOut, err := parCore.Stretch(blk, nil)
	if err != nil {
		t.Fatalf("parallel Stretch: %v", err)
	}

	if seqOut.FrameCount() != parOut.FrameCount() {
		t.Fatalf("frame count mismatch: %d vs %d", seqOut.FrameCount(), parOut.FrameCount())
	}
	// Sequential and parallel RNG streams are seeded independently per
	// spec.md section 5 ("not guaranteed to match... this is
	// intentional"), so this only checks structural agreement: same
	// frame count, both peaks within [-1, 1].
	if parOut.PeakAbs() > 1.0001 || seqOut.PeakAbs() > 1.0001 {
		t.Fatalf("peak exceeds unity: seq=%g par=%g", seqOut.PeakAbs(), parOut.PeakAbs())
	}
}

func TestProgressIsCalled(t *testing.T) {
	blk := sineBlock(44100, 2, 2*44100, 440)
	core, _ := New(Config{StretchFactor: 4, WindowSizeSeconds: 0.1, WorkerCount: 4})
	calls := 0
	last := -1.0
	_, err := core.Stretch(blk, func(frac float64) {
		calls++
		if frac < last {
			t.Errorf("progress went backwards: %g < %g", frac, last)
		}
		last = frac
	})
	if err != nil {
		t.Fatalf("Stretch: %v", err)
	}
	if calls == 0 {
		t.Fatal("expected at least one progress call")
	}
}
