package fft

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/dsp/fourier"
)

func rms(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(a)))
}

func TestRoundTrip(t *testing.T) {
	sizes := []int{2, 4, 16, 256, 4096, 65536}
	for _, n := range sizes {
		plan := NewPlan(n)
		src := make([]float32, n)
		rng := rand.New(rand.NewSource(int64(n)))
		for i := range src {
			src[i] = float32(rng.NormFloat64())
		}

		real := make([]float32, n)
		imag := make([]float32, n)
		copy(real, src)

		plan.Forward(real, imag)
		plan.Inverse(real, imag)

		if got := rms(real, src); got >= 1e-4 {
			t.Errorf("size %d: round-trip RMS error %g >= 1e-4", n, got)
		}
		for i, v := range imag {
			if math.Abs(float64(v)) > 1e-3 {
				t.Errorf("size %d: residual imaginary part at %d = %g", n, i, v)
			}
		}
	}
}

// TestAgainstGonum cross-checks the hand-rolled radix-2 FFT's magnitude
// spectrum against gonum's complex FFT on the same input.
func TestAgainstGonum(t *testing.T) {
	const n = 1024
	rng := rand.New(rand.NewSource(1))
	real := make([]float32, n)
	imag := make([]float32, n)
	src := make([]complex128, n)
	for i := range real {
		v := rng.NormFloat64()
		real[i] = float32(v)
		src[i] = complex(v, 0)
	}

	NewPlan(n).Forward(real, imag)

	gfft := fourier.NewCmplxFFT(n)
	want := gfft.Coefficients(nil, src)

	var sumSq, refSumSq float64
	for i := 0; i < n; i++ {
		dr := float64(real[i]) - gonumReal(want[i])
		di := float64(imag[i]) - gonumImag(want[i])
		sumSq += dr*dr + di*di
		refSumSq += gonumReal(want[i])*gonumReal(want[i]) + gonumImag(want[i])*gonumImag(want[i])
	}
	relErr := math.Sqrt(sumSq / math.Max(refSumSq, 1e-12))
	if relErr > 1e-3 {
		t.Fatalf("relative error against gonum FFT too large: %g", relErr)
	}
}

func gonumReal(c complex128) float64 { return real(c) }
func gonumImag(c complex128) float64 { return imag(c) }

func TestNextPow2(t *testing.T) {
	cases := map[int]int{1: 1, 2: 2, 3: 4, 5: 8, 1024: 1024, 1025: 2048}
	for in, want := range cases {
		if got := NextPow2(in); got != want {
			t.Errorf("NextPow2(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestNewPlanPanicsOnNonPow2(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for non power-of-two size")
		}
	}()
	NewPlan(100)
}
