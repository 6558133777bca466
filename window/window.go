// Package window generates and caches the analysis/synthesis windows used
// by the PaulStretch spectral pipeline.
package window

import (
	"math"
	"sync"

	gonumwindow "gonum.org/v1/gonum/dsp/window"
)

// Shape selects the window function used to taper analysis blocks.
type Shape int

const (
	// ShapeHann is the raised-cosine Hann window:
	// w[i] = 0.5 * (1 - cos(2*pi*i/(N-1))).
	ShapeHann Shape = iota
	// ShapeLegacy is the older PaulStretch taper:
	// w[i] = (1 - ((2*i/(N-1))-1)^2)^1.25.
	ShapeLegacy
)

// Cache lazily builds and stores window arrays keyed by (shape, size).
// A Cache is safe for concurrent use: arrays are immutable once built and
// stored behind a mutex-guarded map, so workers can share a single Cache
// across goroutines without racing.
type Cache struct {
	mu    sync.Mutex
	byKey map[key][]float32
}

type key struct {
	shape Shape
	size  int
}

// NewCache returns an empty window cache.
func NewCache() *Cache {
	return &Cache{byKey: make(map[key][]float32)}
}

// Get returns the window of the given shape and size, building and caching
// it on first use. The returned slice must not be mutated by callers - it
// may be shared across concurrently running workers.
func (c *Cache) Get(shape Shape, size int) []float32 {
	k := key{shape, size}

	c.mu.Lock()
	if w, ok := c.byKey[k]; ok {
		c.mu.Unlock()
		return w
	}
	c.mu.Unlock()

	w := Generate(shape, size)

	c.mu.Lock()
	c.byKey[k] = w
	c.mu.Unlock()
	return w
}

// Generate builds a fresh window array of the given shape and size. Most
// callers should use Cache.Get instead so the array is built once per size.
func Generate(shape Shape, size int) []float32 {
	switch shape {
	case ShapeLegacy:
		return generateLegacy(size)
	default:
		return generateHann(size)
	}
}

// generateHann defers to gonum's window package, which applies the Hann
// taper in place to a sequence. Handing it an all-ones sequence of the
// target length yields exactly the window coefficients w[i] =
// 0.5*(1-cos(2*pi*i/(N-1))) that the PaulStretch pipeline multiplies
// against each analysis block.
func generateHann(size int) []float32 {
	ones := make([]float64, size)
	for i := range ones {
		ones[i] = 1
	}
	coeffs := gonumwindow.Hann(ones)

	w := make([]float32, size)
	for i, v := range coeffs {
		w[i] = float32(v)
	}
	return w
}

// generateLegacy reproduces the older PaulStretch taper:
// w[i] = (1 - ((2*i/(N-1))-1)^2)^1.25.
func generateLegacy(size int) []float32 {
	w := make([]float32, size)
	if size == 1 {
		w[0] = 1
		return w
	}
	denom := float64(size - 1)
	for i := range w {
		t := 2*float64(i)/denom - 1
		v := 1 - t*t
		if v < 0 {
			v = 0
		}
		w[i] = float32(math.Pow(v, 1.25))
	}
	return w
}
