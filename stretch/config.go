package stretch

import (
	"math"

	"github.com/cwsl/paulstretch/window"
)

// Shape re-exports window.Shape so callers need not import the window
// package directly to build a Config.
type Shape = window.Shape

// Window shapes available on a Config, re-exported from the window package.
const (
	ShapeHann   = window.ShapeHann
	ShapeLegacy = window.ShapeLegacy
)

// Config is the StretchConfig from the core contract: the stretch factor,
// analysis window size, and optional worker count.
type Config struct {
	// StretchFactor lengthens the input by this multiple. Must be finite
	// and positive; values < 1 are allowed but uncommon.
	StretchFactor float64
	// WindowSizeSeconds is the analysis window length in seconds. Must be
	// positive; default 0.25.
	WindowSizeSeconds float64
	// WorkerCount, if > 0, fixes the parallel worker pool size. If 0, the
	// core picks a default (see Core.resolveWorkerCount).
	WorkerCount int
	// WindowShape selects Hann (default) or the legacy taper.
	WindowShape Shape
	// Seed, if non-nil, deterministically derives per-channel and
	// per-worker RNG seeds so repeated Stretch calls with the same input
	// produce identical output. Left nil, each call and each worker draws
	// from a distinct time-seeded source - phase randomization is
	// intentional (spec.md section 1's non-goals), determinism is opt-in.
	Seed *int64
}

// DefaultWindowSizeSeconds is used whenever a Config leaves
// WindowSizeSeconds at its zero value.
const DefaultWindowSizeSeconds = 0.25

func (c Config) validate() error {
	if math.IsNaN(c.StretchFactor) || math.IsInf(c.StretchFactor, 0) || c.StretchFactor <= 0 {
		return newError(InvalidInput, nil, "stretch factor must be a finite positive number, got %v", c.StretchFactor)
	}
	if c.WindowSizeSeconds < 0 || math.IsNaN(c.WindowSizeSeconds) || math.IsInf(c.WindowSizeSeconds, 0) {
		return newError(InvalidInput, nil, "window size must be a finite non-negative number, got %v", c.WindowSizeSeconds)
	}
	if c.WorkerCount < 0 {
		return newError(InvalidInput, nil, "worker count must be >= 0, got %d", c.WorkerCount)
	}
	return nil
}

func (c Config) windowSeconds() float64 {
	if c.WindowSizeSeconds == 0 {
		return DefaultWindowSizeSeconds
	}
	return c.WindowSizeSeconds
}
