// Package core provides the cycle-accurate CPU core model.
// It wraps the out-of-order pipeline together with its memories and an
// optional data cache, and reports the final architectural state.
package core

import (
	"errors"
	"fmt"

	"github.com/sarchlab/tomasim/emu"
	"github.com/sarchlab/tomasim/timing/cache"
	"github.com/sarchlab/tomasim/timing/config"
	"github.com/sarchlab/tomasim/timing/pipeline"
)

// Stats holds performance statistics for the core.
type Stats struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of instructions retired.
	Instructions uint64
	// Stalls is the number of cycles dispatch could not proceed.
	Stalls uint64
	// Flushes is the number of misprediction squashes.
	Flushes uint64
}

// CPI returns the cycles per instruction.
func (s Stats) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// Option is a functional option for configuring the Core.
type Option func(*Core)

// WithTracer reports every retired instruction to t.
func WithTracer(t pipeline.Tracer) Option {
	return func(c *Core) {
		c.pipelineOpts = append(c.pipelineOpts, pipeline.WithTracer(t))
	}
}

// WithRegFile sets the initial register values.
func WithRegFile(regFile *emu.RegFile) Option {
	return func(c *Core) {
		c.pipelineOpts = append(c.pipelineOpts, pipeline.WithRegFile(regFile))
	}
}

// WithDataCache puts a write-back data cache between the core and data
// memory. The cache is flushed when the core halts.
func WithDataCache(config cache.Config) Option {
	return func(c *Core) {
		c.cacheConfig = &config
	}
}

// Core represents a cycle-accurate CPU core model.
type Core struct {
	// Pipeline is the underlying out-of-order pipeline.
	Pipeline *pipeline.Pipeline

	imem *emu.Memory
	dmem *emu.Memory

	dcache      *cache.Cache
	cacheConfig *cache.Config
	flushed     bool
	flushErr    error

	pipelineOpts []pipeline.PipelineOption
}

// NewCore creates a core that fetches from imem and accesses dmem.
// Execution starts at the base of imem.
func NewCore(cfg *config.CoreConfig, imem, dmem *emu.Memory, opts ...Option) (*Core, error) {
	c := &Core{
		imem: imem,
		dmem: dmem,
	}

	for _, opt := range opts {
		opt(c)
	}

	var data pipeline.DataMemory = dmem
	if c.cacheConfig != nil {
		dcache, err := cache.New(*c.cacheConfig, dmem)
		if err != nil {
			return nil, err
		}
		c.dcache = dcache
		data = dcache
	}

	p, err := pipeline.NewPipeline(cfg, imem, data, c.pipelineOpts...)
	if err != nil {
		return nil, err
	}
	p.SetPC(imem.Base())
	c.Pipeline = p

	return c, nil
}

// SetPC sets the program counter.
func (c *Core) SetPC(pc uint32) {
	c.Pipeline.SetPC(pc)
}

// Tick executes one pipeline cycle, honoring the configured cycle limit.
// It returns true while the core is running.
func (c *Core) Tick() bool {
	running := c.Pipeline.Step()
	if !running {
		c.finish()
	}
	return running
}

// finish writes cached data back so memory holds the final state.
func (c *Core) finish() {
	if c.flushed || c.dcache == nil {
		return
	}
	c.flushed = true
	if err := c.dcache.Flush(); err != nil {
		c.flushErr = fmt.Errorf("data cache flush: %w", err)
	}
}

// Halted returns true if the core has halted.
func (c *Core) Halted() bool {
	return c.Pipeline.Halted()
}

// Status returns why the core halted.
func (c *Core) Status() pipeline.HaltStatus {
	return c.Pipeline.Status()
}

// Err returns the error that halted the core, if any.
func (c *Core) Err() error {
	if err := c.Pipeline.Err(); err != nil {
		return err
	}
	return c.flushErr
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	pipeStats := c.Pipeline.Stats()
	return Stats{
		Cycles:       pipeStats.Cycles,
		Instructions: pipeStats.Instructions,
		Stalls:       pipeStats.ROBFullStalls + pipeStats.RSFullStalls + pipeStats.LSQFullStalls,
		Flushes:      pipeStats.Flushes,
	}
}

// CacheStats returns the data cache statistics and whether a cache is
// present.
func (c *Core) CacheStats() (cache.Statistics, bool) {
	if c.dcache == nil {
		return cache.Statistics{}, false
	}
	return c.dcache.Stats(), true
}

// Run executes the core until it halts. It returns nil on ebreak.
func (c *Core) Run() error {
	for c.Tick() {
	}
	return c.Err()
}

// RunCycles executes the core for the specified number of cycles.
// Returns true if still running, false if halted.
func (c *Core) RunCycles(cycles uint64) bool {
	for i := uint64(0); i < cycles; i++ {
		if !c.Tick() {
			return false
		}
	}
	return true
}

// Reset clears all core state. Memories keep their contents.
func (c *Core) Reset() {
	c.Pipeline.Reset()
	c.Pipeline.SetPC(c.imem.Base())
	if c.dcache != nil {
		c.dcache.Reset()
	}
	c.flushed = false
	c.flushErr = nil
}

// Result is the observable outcome of a run.
type Result struct {
	Status  pipeline.HaltStatus
	Err     error
	FaultPC uint32
	PC      uint32
	Regs    emu.RegFile
	Stats   Stats

	Pipeline pipeline.Statistics
	Branch   pipeline.BranchPredictorStats
}

// Result collects the final architectural state and statistics.
func (c *Core) Result() Result {
	r := Result{
		Status:   c.Status(),
		Err:      c.Err(),
		PC:       c.Pipeline.PC(),
		Regs:     c.Pipeline.RegFile(),
		Stats:    c.Stats(),
		Pipeline: c.Pipeline.Stats(),
		Branch:   c.Pipeline.BranchPredictorStats(),
	}

	var fatal *pipeline.FatalError
	if errors.As(r.Err, &fatal) {
		r.FaultPC = fatal.PC
	}

	return r
}

// DataMemory returns the data memory. After the core halts it holds the
// final contents even when a data cache is in use.
func (c *Core) DataMemory() *emu.Memory {
	return c.dmem
}
