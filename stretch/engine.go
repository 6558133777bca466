package stretch

import (
	"math/rand"
)

// normTarget is the peak-normalization target: 0.95/max, chosen over the
// strict 1.0/max variant for headroom (spec.md section 9, open question 4).
const normTarget = 0.95

// stretchChannel runs the single-threaded reference engine (spec.md
// section 4.3) over one channel. rng drives the rephaser's phase
// randomization and is called exactly params.halfSize+1 times per
// processed window.
func stretchChannel(input []float32, params derivedParams, win []float32, reph *Rephaser, rng *rand.Rand) []float32 {
	output := make([]float32, params.outputLength)
	if len(input) < params.fftSize {
		return output
	}

	rollingPrev := make([]float32, params.fftSize)
	workBlock := make([]float32, params.fftSize)

	inputPos := 0.0
	outputPos := 0

	for int(inputPos)+params.fftSize <= len(input) {
		start := int(inputPos)
		for i := 0; i < params.fftSize; i++ {
			workBlock[i] = input[start+i] * win[i]
		}

		block := reph.Process(workBlock, rng)

		overlapAdd(output, block, rollingPrev, outputPos, params.halfSize)

		copy(rollingPrev, block)

		inputPos += params.displacePos
		outputPos += params.outputHop
	}

	normalizePeak(output)
	return output
}

// overlapAdd implements spec.md section 4.3 step d: for i in
// [0, halfSize), output[outputPos+i] += block[i] + rollingPrev[halfSize+i],
// bounds-checked against len(output).
func overlapAdd(output, block, rollingPrev []float32, outputPos, halfSize int) {
	for i := 0; i < halfSize; i++ {
		idx := outputPos + i
		if idx < 0 || idx >= len(output) {
			continue
		}
		output[idx] += block[i] + rollingPrev[halfSize+i]
	}
}

// normalizePeak scales a channel so its maximum absolute sample is
// normTarget, leaving silence untouched.
func normalizePeak(samples []float32) {
	var max float32
	for _, s := range samples {
		a := s
		if a < 0 {
			a = -a
		}
		if a > max {
			max = a
		}
	}
	if max == 0 {
		return
	}
	scale := normTarget / max
	for i := range samples {
		samples[i] *= scale
	}
}
