package stretch

import (
	"math"
	"math/rand"

	"github.com/cwsl/paulstretch/fft"
)

// Rephaser implements spec.md section 4.2: the per-block spectral
// rephasing step that is the algorithmic heart of PaulStretch. A Rephaser
// owns private scratch buffers sized to its Plan, so a single instance
// must not be shared across goroutines - each worker gets its own.
type Rephaser struct {
	plan *fft.Plan
	win  []float32

	real []float32
	imag []float32
}

// NewRephaser builds a Rephaser for the given FFT plan and window. win
// must have length plan.Len().
func NewRephaser(plan *fft.Plan, win []float32) *Rephaser {
	n := plan.Len()
	return &Rephaser{
		plan: plan,
		win:  win,
		real: make([]float32, n),
		imag: make([]float32, n),
	}
}

// Process runs the rephaser over a block that has already been multiplied
// by the window once. It returns a freshly allocated length-N block: the
// forward FFT, magnitude/random-phase rebuild, Hermitian mirror, inverse
// FFT, and a second window multiply.
//
// rng is called exactly halfSize+1 times, once per bin in [0, halfSize].
func (r *Rephaser) Process(windowedBlock []float32, rng *rand.Rand) []float32 {
	n := len(r.real)
	half := n / 2

	copy(r.real, windowedBlock)
	for i := range r.imag {
		r.imag[i] = 0
	}

	r.plan.Forward(r.real, r.imag)

	for k := 0; k <= half; k++ {
		re := r.real[k]
		im := r.imag[k]
		mag := float32(math.Sqrt(float64(re)*float64(re) + float64(im)*float64(im)))
		phi := rng.Float64() * 2 * math.Pi
		r.real[k] = mag * float32(math.Cos(phi))
		r.imag[k] = mag * float32(math.Sin(phi))
	}

	// Hermitian mirror: bins 0 and half are self-conjugate and untouched.
	for k := 1; k < half; k++ {
		r.real[n-k] = r.real[k]
		r.imag[n-k] = -r.imag[k]
	}

	r.plan.Inverse(r.real, r.imag)

	out := make([]float32, n)
	for i, w := range r.win {
		out[i] = r.real[i] * w
	}
	return out
}
