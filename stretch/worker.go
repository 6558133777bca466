package stretch

import (
	"math/rand"

	"github.com/cwsl/paulstretch/fft"
)

// workUnit is the WorkUnit from spec.md section 4.4: a contiguous range of
// analysis frames on one channel, described by indices rather than a
// sliced copy of the input so it can be handed to any worker without
// copying the underlying channel data.
type workUnit struct {
	channel    int
	startFrame int
	frameCount int
}

// processedFrame is the ProcessedBlock tagged with its frame index (a
// stand-in for input_position that sorts identically, since
// input_position = frameIndex * displacePos and displacePos > 0).
type processedFrame struct {
	frameIndex int
	block      []float32
}

// sharedPlan bundles the read-only artifacts every worker needs: the
// input channel's samples, the window, the FFT plan, and the per-channel
// layout. None of it is mutated once the dispatcher builds it, so every
// worker goroutine can hold the same pointers without locking.
type sharedPlan struct {
	inputs []([]float32) // per channel
	win    []float32
	plan   *fft.Plan
	params derivedParams
}

// worker processes WorkUnits from its own queue until the queue is closed
// or cancel fires. It holds private RNG and Rephaser state: spec.md
// section 4.4 requires workers be stateless except for RNG, and a
// Rephaser's scratch buffers are private per the same requirement.
func worker(sp *sharedPlan, units <-chan workUnit, rng *rand.Rand, results chan<- workerResult, cancel <-chan struct{}) {
	reph := NewRephaser(sp.plan, sp.win)
	workBlock := make([]float32, sp.params.fftSize)

	for unit := range units {
		select {
		case <-cancel:
			return
		default:
		}

		frames := make([]processedFrame, 0, unit.frameCount)
		input := sp.inputs[unit.channel]

		for i := 0; i < unit.frameCount; i++ {
			frameIdx := unit.startFrame + i
			start := int(float64(frameIdx) * sp.params.displacePos)
			if start+sp.params.fftSize > len(input) {
				break
			}
			for j := 0; j < sp.params.fftSize; j++ {
				workBlock[j] = input[start+j] * sp.win[j]
			}
			block := reph.Process(workBlock, rng)
			frames = append(frames, processedFrame{frameIndex: frameIdx, block: block})
		}

		select {
		case results <- workerResult{channel: unit.channel, frames: frames}:
		case <-cancel:
			return
		}
	}
}

// workerResult is what a worker sends back per WorkUnit processed.
type workerResult struct {
	channel int
	frames  []processedFrame
	err     error
}
