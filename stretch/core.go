// Package stretch implements the PaulStretch core: the per-channel
// analysis/resynthesis engine (spec.md section 4.3), the parallel
// work-distribution layer over it (section 4.4), and the Core type that
// ties configuration, caches, and the worker pool together behind the
// construct/stretch/dispose contract from section 6.
package stretch

import (
	"log"
	"math/rand"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/cwsl/paulstretch/audio"
	"github.com/cwsl/paulstretch/fft"
)

// Metrics is the instrumentation hook a Core reports through. It mirrors
// the counters internal/metrics.Recorder implements; a nil Metrics is
// valid and simply means no metrics are recorded.
type Metrics interface {
	ObserveStretchDuration(seconds float64)
	SetActiveWorkers(n int)
	AddChunksProcessed(n int)
}

// Core is a constructed PaulStretch instance: it owns the window and
// FFT-plan caches for its lifetime and exposes the single Stretch
// operation from the core contract.
type Core struct {
	cfg     Config
	caches  *caches
	metrics Metrics
}

// New validates cfg and constructs a Core. Caches are built lazily on
// first Stretch call.
func New(cfg Config) (*Core, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Core{cfg: cfg, caches: newCaches()}, nil
}

// SetMetrics attaches a Metrics recorder, such as
// internal/metrics.Recorder, to this Core. Passing nil disables
// instrumentation.
func (c *Core) SetMetrics(m Metrics) {
	c.metrics = m
}

// Close discards the Core's caches. It does not need to be called for
// correctness (caches are just memory), but releases them promptly.
func (c *Core) Close() {
	c.caches.clear()
}

// Stretch runs the PaulStretch pipeline over blk and returns a new Block
// of the stretched length. progress may be nil.
//
// Per spec.md section 4.4, worker_count == 1, a single input channel, or a
// worker-pool initialization failure all fall back to the single-threaded
// engine (section 4.3) transparently - UnsupportedEnvironment is never
// surfaced to the caller.
func (c *Core) Stretch(blk *audio.Block, progress ProgressFunc) (*audio.Block, error) {
	if err := blk.Validate(); err != nil {
		return nil, newError(InvalidInput, err, "invalid audio block")
	}

	jobID := uuid.New().String()
	start := time.Now()

	params := deriveParams(c.cfg, blk.SampleRate, blk.FrameCount())
	win := c.caches.window(c.cfg.WindowShape, params.fftSize)
	plan := c.caches.plan(params.fftSize)

	workerCount := c.resolveWorkerCount()
	useParallel := workerCount > 1 && blk.ChannelCount() > 1

	var outputs [][]float32
	var err error

	if useParallel {
		outputs, err = c.stretchParallelSafe(blk.Channels, params, win, plan, workerCount, jobID, progress)
	} else {
		outputs = c.stretchSequential(blk.Channels, params, win, plan, progress)
	}
	if err != nil {
		return nil, err
	}

	out := &audio.Block{SampleRate: blk.SampleRate, Channels: outputs}

	if c.metrics != nil {
		c.metrics.ObserveStretchDuration(time.Since(start).Seconds())
	}
	log.Printf("stretch: job %s done: %d channel(s), %d -> %d frames in %v",
		jobID, blk.ChannelCount(), blk.FrameCount(), params.outputLength, time.Since(start))

	return out, nil
}

// stretchSequential runs the single-threaded engine over every channel in
// turn, sharing one Rephaser across channels. Each channel gets its own RNG:
// time-seeded when no seed is set (true randomization), or derived from the
// seed and the channel index when one is.
func (c *Core) stretchSequential(inputs [][]float32, params derivedParams, win []float32, plan *fft.Plan, progress ProgressFunc) [][]float32 {
	outputs := make([][]float32, len(inputs))
	reph := NewRephaser(plan, win)

	for i, in := range inputs {
		rng := c.rngForChannel(i)
		outputs[i] = stretchChannel(in, params, win, reph, rng)
		if progress != nil {
			progress(float64(i+1) / float64(len(inputs)))
		}
	}
	return outputs
}

// stretchParallelSafe wraps runParallel with a recover so that any
// worker-pool setup panic degrades to the sequential path instead of
// surfacing UnsupportedEnvironment to the caller, per spec.md section 4.4.
func (c *Core) stretchParallelSafe(inputs [][]float32, params derivedParams, win []float32, plan *fft.Plan, workerCount int, jobID string, progress ProgressFunc) (outputs [][]float32, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("stretch: job %s: worker pool unavailable (%v), falling back to single-threaded engine", jobID, r)
			outputs = c.stretchSequential(inputs, params, win, plan, progress)
			err = nil
		}
	}()

	if c.metrics != nil {
		c.metrics.SetActiveWorkers(workerCount)
		defer c.metrics.SetActiveWorkers(0)
	}

	seed := c.seed()
	outputs, err = runParallel(inputs, params, win, plan, workerCount, seed, c.metrics, progress)
	if err != nil {
		return nil, err
	}
	return outputs, nil
}

func (c *Core) seed() int64 {
	if c.cfg.Seed != nil {
		return *c.cfg.Seed
	}
	return time.Now().UnixNano()
}

func (c *Core) rngForChannel(channel int) *rand.Rand {
	if c.cfg.Seed != nil {
		return rand.New(rand.NewSource(*c.cfg.Seed + int64(channel)*-0x61C8864680B583EB))
	}
	return rand.New(rand.NewSource(time.Now().UnixNano() + int64(channel)))
}

// resolveWorkerCount applies Config.WorkerCount if set, otherwise asks
// gopsutil for the physical core count the way admin.go's system-status
// handler does, falling back to runtime.NumCPU() if that fails.
func (c *Core) resolveWorkerCount() int {
	if c.cfg.WorkerCount > 0 {
		return c.cfg.WorkerCount
	}

	if info, err := cpu.Info(); err == nil && len(info) > 0 {
		cores := 0
		for _, ci := range info {
			cores += int(ci.Cores)
		}
		if cores > 0 {
			return cores
		}
	}
	return runtime.NumCPU()
}
