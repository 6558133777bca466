package stretch

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/cwsl/paulstretch/fft"
)

// ProgressFunc receives a monotonically non-decreasing fraction in [0, 1]
// of frames completed. It is called at most once per chunk completion from
// the main goroutine only - no synchronization is required on the sink
// side. A nil ProgressFunc is valid and simply isn't called.
type ProgressFunc func(fraction float64)

// runParallel implements spec.md section 4.4: it partitions every
// channel's analysis frames into chunks, dispatches them round-robin to a
// fixed worker pool, and reassembles each channel's results in
// input-position order before running overlap-add.
//
// A worker error aborts the whole call: runParallel cancels outstanding
// work, drains in-flight results, and returns a single *Error of kind
// WorkerFailure. No partial output is returned on failure.
func runParallel(inputs [][]float32, params derivedParams, win []float32, plan *fft.Plan, workerCount int, seed int64, metrics Metrics, progress ProgressFunc) ([][]float32, error) {
	totalFrames := 0
	if params.displacePos > 0 {
		totalFrames = int(float64(len(inputs[0])-params.fftSize) / params.displacePos)
	}
	if totalFrames < 1 {
		zero := make([][]float32, len(inputs))
		for i := range zero {
			zero[i] = make([]float32, params.outputLength)
		}
		return zero, nil
	}

	chunk := totalFrames / (workerCount * 3)
	if chunk < 1 {
		chunk = 1
	}

	var units []workUnit
	for c := range inputs {
		for start := 0; start < totalFrames; start += chunk {
			end := start + chunk
			if end > totalFrames {
				end = totalFrames
			}
			units = append(units, workUnit{channel: c, startFrame: start, frameCount: end - start})
		}
	}
	if metrics != nil {
		metrics.AddChunksProcessed(len(units))
	}

	sp := &sharedPlan{inputs: inputs, win: win, plan: plan, params: params}

	queues := make([]chan workUnit, workerCount)
	for i := range queues {
		queues[i] = make(chan workUnit, len(units)/workerCount+1)
	}
	for i, u := range units {
		q := i % workerCount
		queues[q] <- u
	}
	for _, q := range queues {
		close(q)
	}

	results := make(chan workerResult, len(units))
	cancel := make(chan struct{})
	var wg sync.WaitGroup

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		workerSeed := seed + int64(i)*-0x61C8864680B583EB
		rng := rand.New(rand.NewSource(workerSeed))
		q := queues[i]
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					select {
					case results <- workerResult{err: fmt.Errorf("worker panic: %v", r)}:
					case <-cancel:
					}
				}
			}()
			worker(sp, q, rng, results, cancel)
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	byChannel := make(map[int][]processedFrame)
	completed := 0
	var firstErr error

	for res := range results {
		if res.err != nil && firstErr == nil {
			firstErr = res.err
			close(cancel)
		}
		byChannel[res.channel] = append(byChannel[res.channel], res.frames...)
		completed++
		if progress != nil && len(units) > 0 {
			progress(float64(completed) / float64(len(units)))
		}
	}

	if firstErr != nil {
		return nil, newError(WorkerFailure, firstErr, "parallel stretch aborted")
	}

	outputs := make([][]float32, len(inputs))
	for c := range inputs {
		frames := byChannel[c]
		sort.Slice(frames, func(i, j int) bool { return frames[i].frameIndex < frames[j].frameIndex })
		outputs[c] = reassembleChannel(frames, params)
	}
	return outputs, nil
}

// reassembleChannel runs overlap-add (spec.md section 4.3 steps d-e) over
// an already-sorted sequence of processed frames, then peak-normalizes.
func reassembleChannel(frames []processedFrame, params derivedParams) []float32 {
	output := make([]float32, params.outputLength)
	rollingPrev := make([]float32, params.fftSize)
	outputPos := 0

	for _, f := range frames {
		overlapAdd(output, f.block, rollingPrev, outputPos, params.halfSize)
		copy(rollingPrev, f.block)
		outputPos += params.outputHop
	}

	normalizePeak(output)
	return output
}

