package stretch

import "github.com/cwsl/paulstretch/fft"

// derivedParams is the DerivedWindowParams computed once per Stretch call.
type derivedParams struct {
	winSamples   int
	fftSize      int
	halfSize     int
	displacePos  float64
	outputHop    int
	outputLength int
}

// deriveParams computes DerivedWindowParams for a given sample rate, input
// frame count, and config, per spec.md section 3.
func deriveParams(cfg Config, sampleRate, inputFrameCount int) derivedParams {
	winSamples := int(cfg.windowSeconds() * float64(sampleRate))
	if winSamples < 2 {
		winSamples = 2
	}
	fftSize := fft.NextPow2(winSamples)
	halfSize := fftSize / 2

	return derivedParams{
		winSamples:   winSamples,
		fftSize:      fftSize,
		halfSize:     halfSize,
		displacePos:  float64(halfSize) / cfg.StretchFactor,
		outputHop:    halfSize,
		outputLength: int(float64(inputFrameCount) * cfg.StretchFactor),
	}
}
