// Package benchmarks provides workloads for the out-of-order core and a
// harness that runs them on the timing model and checks the final state
// against the functional emulator.
package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/tomasim/emu"
	"github.com/sarchlab/tomasim/loader"
	"github.com/sarchlab/tomasim/timing/cache"
	"github.com/sarchlab/tomasim/timing/config"
	"github.com/sarchlab/tomasim/timing/core"
)

// BenchmarkResult holds the timing results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// Status is how the timing core halted
	Status string `json:"status"`

	// SimulatedCycles is the total cycle count from the timing simulator
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// InstructionsRetired is the number of committed instructions
	InstructionsRetired uint64 `json:"instructions_retired"`

	// CPI is cycles per instruction
	CPI float64 `json:"cpi"`

	// DispatchStalls is the number of cycles dispatch found a structure full
	DispatchStalls uint64 `json:"dispatch_stalls"`

	// CommitStalls is the number of cycles the ROB head was not ready
	CommitStalls uint64 `json:"commit_stalls"`

	// PipelineFlushes is the number of misprediction squashes
	PipelineFlushes uint64 `json:"pipeline_flushes"`

	// SquashedEntries is the number of ROB entries discarded by squashes
	SquashedEntries uint64 `json:"squashed_entries"`

	// CDBConflicts is the number of cycles more than one unit wanted the CDB
	CDBConflicts uint64 `json:"cdb_conflicts"`

	// LoadsForwarded is the number of loads served by an older store
	LoadsForwarded uint64 `json:"loads_forwarded"`

	// DCacheHits/Misses (if cache enabled)
	DCacheHits   uint64 `json:"dcache_hits,omitempty"`
	DCacheMisses uint64 `json:"dcache_misses,omitempty"`

	// Branch predictor stats
	BranchResolutions     uint64  `json:"branch_resolutions,omitempty"`
	BranchCorrect         uint64  `json:"branch_correct,omitempty"`
	BranchMispredictions  uint64  `json:"branch_mispredictions,omitempty"`
	BranchAccuracyPercent float64 `json:"branch_accuracy_percent,omitempty"`

	// Result is the value of the benchmark's result register
	Result uint32 `json:"result"`

	// Passed is true when the result is the expected one and the final
	// registers and data memory match the functional emulator
	Passed bool `json:"passed"`

	// Mismatch describes the first difference found, if any
	Mismatch string `json:"mismatch,omitempty"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Program is the RV32IM machine code, placed at address 0
	Program []uint32

	// Data is the initial data memory, placed at address 0
	Data []uint32

	// ResultReg holds the benchmark's result at ebreak
	ResultReg uint8

	// Expected is the expected value of ResultReg (for validation)
	Expected uint32
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Core sizes the timing core. Nil means the default configuration.
	Core *config.CoreConfig

	// EnableDCache enables data cache simulation
	EnableDCache bool

	// DCache configures the data cache when it is enabled
	DCache cache.Config

	// Frequency is the clock the core is ticked at by the engine
	Frequency sim.Freq

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Core:         config.DefaultCoreConfig(),
		EnableDCache: true,
		DCache:       cache.DefaultL1DConfig(),
		Frequency:    1 * sim.GHz,
		Output:       os.Stdout,
		Verbose:      false,
	}
}

// Harness runs timing benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Core == nil {
		config.Core = DefaultConfig().Core
	}
	if config.Frequency == 0 {
		config.Frequency = 1 * sim.GHz
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		result := h.runBenchmark(bench)
		if h.config.Verbose {
			_, _ = fmt.Fprintf(h.config.Output, "%-20s %-8s cycles=%d insts=%d passed=%v\n",
				result.Name, result.Status, result.SimulatedCycles,
				result.InstructionsRetired, result.Passed)
		}
		results = append(results, result)
	}

	return results
}

// runBenchmark executes a single benchmark on the timing core and on the
// functional emulator, then compares the two.
func (h *Harness) runBenchmark(bench Benchmark) BenchmarkResult {
	result := BenchmarkResult{
		Name:        bench.Name,
		Description: bench.Description,
	}

	img := &loader.Image{Text: bench.Program, Data: bench.Data}

	imem, dmem, err := img.Memories(h.config.Core.DepthLog)
	if err != nil {
		result.Mismatch = err.Error()
		return result
	}

	var opts []core.Option
	if h.config.EnableDCache {
		opts = append(opts, core.WithDataCache(h.config.DCache))
	}

	c, err := core.NewCore(h.config.Core, imem, dmem, opts...)
	if err != nil {
		result.Mismatch = err.Error()
		return result
	}

	start := time.Now()
	simErr := core.Simulate(c, h.config.Frequency)
	result.WallTime = time.Since(start)

	r := c.Result()
	result.Status = r.Status.String()
	result.SimulatedCycles = r.Stats.Cycles
	result.InstructionsRetired = r.Stats.Instructions
	result.CPI = r.Stats.CPI()
	result.DispatchStalls = r.Stats.Stalls
	result.CommitStalls = r.Pipeline.CommitStalls
	result.PipelineFlushes = r.Stats.Flushes
	result.SquashedEntries = r.Pipeline.Squashed
	result.CDBConflicts = r.Pipeline.CDBConflicts
	result.LoadsForwarded = r.Pipeline.LoadsForwarded
	result.Result = r.Regs.ReadReg(bench.ResultReg)

	if cs, ok := c.CacheStats(); ok {
		result.DCacheHits = cs.Hits
		result.DCacheMisses = cs.Misses
	}

	result.BranchResolutions = r.Branch.Resolutions
	result.BranchCorrect = r.Branch.Correct
	result.BranchMispredictions = r.Branch.Mispredictions
	result.BranchAccuracyPercent = r.Branch.Accuracy()

	if simErr != nil {
		result.Mismatch = simErr.Error()
		return result
	}

	result.Mismatch = h.compareWithEmulator(img, r.Regs, c.DataMemory())
	if result.Mismatch == "" && result.Result != bench.Expected {
		result.Mismatch = fmt.Sprintf("x%d = 0x%08x, expected 0x%08x",
			bench.ResultReg, result.Result, bench.Expected)
	}
	result.Passed = result.Mismatch == ""

	return result
}

// compareWithEmulator runs img on the functional emulator and returns a
// description of the first difference from the timing core's final state,
// or "" if there is none.
func (h *Harness) compareWithEmulator(img *loader.Image, regs emu.RegFile, dmem *emu.Memory) string {
	imem, golden, err := img.Memories(h.config.Core.DepthLog)
	if err != nil {
		return err.Error()
	}

	e := emu.NewEmulator(imem, golden, img.Entry,
		emu.WithMaxInstructions(h.config.Core.MaxCycles))
	if err := e.Run(); err != nil {
		return fmt.Sprintf("emulator: %v", err)
	}

	want := e.RegFile()
	for i := uint8(1); i < emu.NumRegs; i++ {
		if got := regs.ReadReg(i); got != want.ReadReg(i) {
			return fmt.Sprintf("x%d = 0x%08x, emulator has 0x%08x", i, got, want.ReadReg(i))
		}
	}

	gotWords, wantWords := dmem.Words(), golden.Words()
	for i := range wantWords {
		if gotWords[i] != wantWords[i] {
			return fmt.Sprintf("mem[0x%08x] = 0x%08x, emulator has 0x%08x",
				golden.Base()+uint32(i)*4, gotWords[i], wantWords[i])
		}
	}

	return ""
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	w := h.config.Output

	_, _ = fmt.Fprintln(w, "=== Tomasim Timing Benchmark Results ===")
	_, _ = fmt.Fprintln(w, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(w, "Benchmark: %s\n", r.Name)
		_, _ = fmt.Fprintf(w, "  Description: %s\n", r.Description)
		_, _ = fmt.Fprintf(w, "  Status: %s\n", r.Status)
		_, _ = fmt.Fprintf(w, "  Result: %d (0x%08x)\n", r.Result, r.Result)
		if r.Passed {
			_, _ = fmt.Fprintln(w, "  Check: PASS")
		} else {
			_, _ = fmt.Fprintf(w, "  Check: FAIL (%s)\n", r.Mismatch)
		}
		_, _ = fmt.Fprintln(w, "  --- Timing ---")
		_, _ = fmt.Fprintf(w, "  Simulated Cycles:     %d\n", r.SimulatedCycles)
		_, _ = fmt.Fprintf(w, "  Instructions Retired: %d\n", r.InstructionsRetired)
		_, _ = fmt.Fprintf(w, "  CPI:                  %.3f\n", r.CPI)
		_, _ = fmt.Fprintf(w, "  Dispatch Stalls:      %d\n", r.DispatchStalls)
		_, _ = fmt.Fprintf(w, "  Commit Stalls:        %d\n", r.CommitStalls)
		_, _ = fmt.Fprintf(w, "  Pipeline Flushes:     %d\n", r.PipelineFlushes)
		_, _ = fmt.Fprintf(w, "  Squashed Entries:     %d\n", r.SquashedEntries)
		_, _ = fmt.Fprintf(w, "  CDB Conflicts:        %d\n", r.CDBConflicts)
		if r.LoadsForwarded > 0 {
			_, _ = fmt.Fprintf(w, "  Loads Forwarded:      %d\n", r.LoadsForwarded)
		}

		if r.DCacheHits > 0 || r.DCacheMisses > 0 {
			_, _ = fmt.Fprintln(w, "  --- D-Cache ---")
			_, _ = fmt.Fprintf(w, "  Hits:   %d\n", r.DCacheHits)
			_, _ = fmt.Fprintf(w, "  Misses: %d\n", r.DCacheMisses)
		}

		if r.BranchResolutions > 0 {
			_, _ = fmt.Fprintln(w, "  --- Branch Predictor ---")
			_, _ = fmt.Fprintf(w, "  Resolutions:     %d\n", r.BranchResolutions)
			_, _ = fmt.Fprintf(w, "  Correct:         %d\n", r.BranchCorrect)
			_, _ = fmt.Fprintf(w, "  Mispredictions:  %d\n", r.BranchMispredictions)
			_, _ = fmt.Fprintf(w, "  Accuracy:        %.1f%%\n", r.BranchAccuracyPercent)
		}

		_, _ = fmt.Fprintf(w, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(w, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	w := h.config.Output

	_, _ = fmt.Fprintln(w,
		"name,status,cycles,instructions,cpi,dispatch_stalls,commit_stalls,flushes,squashed,cdb_conflicts,dcache_hits,dcache_misses,result,passed")

	for _, r := range results {
		_, _ = fmt.Fprintf(w, "%s,%s,%d,%d,%.3f,%d,%d,%d,%d,%d,%d,%d,%d,%t\n",
			r.Name,
			r.Status,
			r.SimulatedCycles,
			r.InstructionsRetired,
			r.CPI,
			r.DispatchStalls,
			r.CommitStalls,
			r.PipelineFlushes,
			r.SquashedEntries,
			r.CDBConflicts,
			r.DCacheHits,
			r.DCacheMisses,
			r.Result,
			r.Passed,
		)
	}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	// Metadata about the benchmark run
	Metadata ReportMetadata `json:"metadata"`

	// Results is the list of individual benchmark results
	Results []BenchmarkResult `json:"results"`

	// Summary contains aggregate statistics
	Summary ReportSummary `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	// Timestamp when the benchmark was run
	Timestamp string `json:"timestamp"`

	// Config is the core configuration used
	Config *config.CoreConfig `json:"config"`

	// DCacheEnabled reports whether the data cache was simulated
	DCacheEnabled bool `json:"dcache_enabled"`
}

// ReportSummary contains aggregate statistics across all benchmarks.
type ReportSummary struct {
	// TotalBenchmarks is the number of benchmarks run
	TotalBenchmarks int `json:"total_benchmarks"`

	// Passed is the number of benchmarks whose final state matched
	Passed int `json:"passed"`

	// TotalCycles is the sum of all simulated cycles
	TotalCycles uint64 `json:"total_cycles"`

	// TotalInstructions is the sum of all instructions retired
	TotalInstructions uint64 `json:"total_instructions"`

	// AverageCPI is the aggregate cycles per instruction
	AverageCPI float64 `json:"average_cpi"`

	// TotalWallTime is the total wall clock time for all benchmarks
	TotalWallTime time.Duration `json:"total_wall_time_ns"`
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	summary := ReportSummary{TotalBenchmarks: len(results)}
	for _, r := range results {
		summary.TotalCycles += r.SimulatedCycles
		summary.TotalInstructions += r.InstructionsRetired
		summary.TotalWallTime += r.WallTime
		if r.Passed {
			summary.Passed++
		}
	}
	if summary.TotalInstructions > 0 {
		summary.AverageCPI = float64(summary.TotalCycles) / float64(summary.TotalInstructions)
	}

	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp:     time.Now().UTC().Format(time.RFC3339),
			Config:        h.config.Core,
			DCacheEnabled: h.config.EnableDCache,
		},
		Results: results,
		Summary: summary,
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
