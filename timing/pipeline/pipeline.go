// Package pipeline provides a cycle-accurate out-of-order RV32IM core built
// on Tomasulo's algorithm: register renaming through a register alias
// table, reservation stations, a load/store queue, a common data bus and a
// reorder buffer that retires in program order.
package pipeline

import (
	"fmt"

	"github.com/sarchlab/tomasim/emu"
	"github.com/sarchlab/tomasim/insts"
	"github.com/sarchlab/tomasim/timing/config"
)

// InstructionMemory supplies instruction words.
type InstructionMemory interface {
	Fetch(pc uint32) (uint32, error)
}

// DataMemory is read by issuing loads and written by committing stores.
type DataMemory interface {
	ReadWord(addr uint32) (uint32, error)
	WriteWord(addr, value uint32, strobe uint8) error
}

// Statistics holds pipeline performance statistics.
type Statistics struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of instructions retired.
	Instructions uint64
	// Dispatched is the number of instructions placed in the ROB.
	Dispatched uint64
	// Flushes is the number of squashes due to branch mispredictions.
	Flushes uint64
	// Squashed is the number of ROB entries discarded by flushes.
	Squashed uint64
	// ROBFullStalls counts cycles dispatch waited for a ROB entry.
	ROBFullStalls uint64
	// RSFullStalls counts cycles dispatch waited for a reservation station.
	RSFullStalls uint64
	// LSQFullStalls counts cycles dispatch waited for a load/store queue slot.
	LSQFullStalls uint64
	// CommitStalls counts cycles the ROB head was not ready.
	CommitStalls uint64
	// CDBConflicts counts cycles more than one unit wanted the CDB.
	CDBConflicts uint64
	// LoadsForwarded counts loads served from an older store.
	LoadsForwarded uint64
	// LoadAmbiguityStalls counts load-cycles spent behind an older store
	// with an unknown address.
	LoadAmbiguityStalls uint64
}

// CPI returns the cycles per instruction.
func (s Statistics) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// PipelineOption is a functional option for configuring the Pipeline.
type PipelineOption func(*Pipeline)

// WithTracer reports every retired instruction to t.
func WithTracer(t Tracer) PipelineOption {
	return func(p *Pipeline) {
		p.tracer = t
	}
}

// WithRegFile sets the initial architectural register values.
func WithRegFile(regFile *emu.RegFile) PipelineOption {
	return func(p *Pipeline) {
		p.state.regs = *regFile
		p.state.regs.X[0] = 0
	}
}

// Pipeline is the out-of-order core. All state advances in Tick.
type Pipeline struct {
	config    *config.CoreConfig
	imem      InstructionMemory
	dmem      DataMemory
	decoder   *insts.Decoder
	predictor *BranchPredictor
	priority  []Unit
	tracer    Tracer

	state *state
	stats Statistics
	cycle uint64

	halted bool
	status HaltStatus
	err    error
}

// NewPipeline creates a core with the sizes in cfg. Execution starts at
// the first instruction memory word unless SetPC is called.
func NewPipeline(
	cfg *config.CoreConfig,
	imem InstructionMemory,
	dmem DataMemory,
	opts ...PipelineOption,
) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid core config: %w", err)
	}

	priority := make([]Unit, 0, len(cfg.CDBPriority))
	for _, name := range cfg.CDBPriority {
		u, err := ParseUnit(name)
		if err != nil {
			return nil, err
		}
		priority = append(priority, u)
	}

	p := &Pipeline{
		config:    cfg.Clone(),
		imem:      imem,
		dmem:      dmem,
		decoder:   insts.NewDecoder(),
		predictor: NewBranchPredictor(BranchPredictorConfig{LogSize: cfg.BHTLogSize}),
		priority:  priority,
		state:     newState(cfg.ROBSize, cfg.RSSize, cfg.LSQSize),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// PC returns the current fetch address.
func (p *Pipeline) PC() uint32 {
	return p.state.pc
}

// SetPC sets the fetch address.
func (p *Pipeline) SetPC(pc uint32) {
	p.state.pc = pc
}

// RegFile returns a copy of the architectural register file.
func (p *Pipeline) RegFile() emu.RegFile {
	return p.state.regs
}

// Cycle returns the number of cycles simulated.
func (p *Pipeline) Cycle() uint64 {
	return p.cycle
}

// Stats returns the pipeline statistics.
func (p *Pipeline) Stats() Statistics {
	return p.stats
}

// BranchPredictorStats returns the branch predictor statistics.
func (p *Pipeline) BranchPredictorStats() BranchPredictorStats {
	return p.predictor.Stats()
}

// BranchPredictor returns the core's predictor.
func (p *Pipeline) BranchPredictor() *BranchPredictor {
	return p.predictor
}

// Halted returns true if the pipeline has halted.
func (p *Pipeline) Halted() bool {
	return p.halted
}

// Status returns why the pipeline halted, or Running.
func (p *Pipeline) Status() HaltStatus {
	return p.status
}

// Err returns the fatal error that halted the pipeline, if any.
func (p *Pipeline) Err() error {
	return p.err
}

// Step ticks once, or halts with HaltCycleLimit if the configured cycle
// limit has been reached. It returns true while the pipeline is running.
func (p *Pipeline) Step() bool {
	if p.halted {
		return false
	}

	if p.config.MaxCycles > 0 && p.cycle >= p.config.MaxCycles {
		p.halt(HaltCycleLimit, fmt.Errorf("%w after %d cycles at pc 0x%08x",
			ErrCycleLimit, p.cycle, p.state.pc))
		return false
	}

	p.Tick()
	return !p.halted
}

// Run steps until the pipeline halts. It returns nil on ebreak.
func (p *Pipeline) Run() error {
	for p.Step() {
	}
	return p.err
}

// RunCycles executes the pipeline for the specified number of cycles.
// Returns true if still running, false if halted.
func (p *Pipeline) RunCycles(cycles uint64) bool {
	for i := uint64(0); i < cycles && !p.halted; i++ {
		p.Tick()
	}
	return !p.halted
}

// Reset returns the core to its power-on state. Memories are untouched.
func (p *Pipeline) Reset() {
	p.state = newState(p.config.ROBSize, p.config.RSSize, p.config.LSQSize)
	p.predictor.Reset()
	p.stats = Statistics{}
	p.cycle = 0
	p.halted = false
	p.status = Running
	p.err = nil
}

func (p *Pipeline) halt(status HaltStatus, err error) {
	p.halted = true
	p.status = status
	p.err = err
}
