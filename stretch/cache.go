package stretch

import (
	"sync"

	"github.com/cwsl/paulstretch/fft"
	"github.com/cwsl/paulstretch/window"
)

// caches holds the two size-keyed caches from spec.md section 4.5: the
// window cache and the FFT-plan (twiddle table) cache. Both are populated
// lazily on first use; entries are immutable once built, so they can be
// shared read-only across all workers of a Stretch call without copying.
type caches struct {
	windows *window.Cache

	mu    sync.Mutex
	plans map[int]*fft.Plan
}

func newCaches() *caches {
	return &caches{
		windows: window.NewCache(),
		plans:   make(map[int]*fft.Plan),
	}
}

func (c *caches) plan(size int) *fft.Plan {
	c.mu.Lock()
	if p, ok := c.plans[size]; ok {
		c.mu.Unlock()
		return p
	}
	c.mu.Unlock()

	p := fft.NewPlan(size)

	c.mu.Lock()
	c.plans[size] = p
	c.mu.Unlock()
	return p
}

func (c *caches) window(shape Shape, size int) []float32 {
	return c.windows.Get(shape, size)
}

// clear drops all cached entries. Safe to call once no Stretch call is in
// flight; it is the core's Dispose/Close hook.
func (c *caches) clear() {
	c.mu.Lock()
	c.plans = make(map[int]*fft.Plan)
	c.mu.Unlock()
	c.windows = window.NewCache()
}
