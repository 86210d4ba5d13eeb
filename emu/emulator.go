package emu

import (
	"fmt"

	"github.com/sarchlab/tomasim/insts"
)

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Halted is true if the instruction was EBREAK.
	Halted bool

	// Err is set if the instruction faulted. Faults are fatal.
	Err error
}

// Emulator executes RV32IM instructions functionally, one per step, in
// program order. It is the golden model the timing core is checked against.
type Emulator struct {
	regFile *RegFile
	imem    *Memory
	dmem    *Memory
	decoder *insts.Decoder
	pc      uint32

	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// WithRegFile makes the emulator operate on an existing register file.
func WithRegFile(regFile *RegFile) EmulatorOption {
	return func(e *Emulator) {
		e.regFile = regFile
	}
}

// NewEmulator creates an emulator over separate instruction and data
// memories, starting at pc.
func NewEmulator(imem, dmem *Memory, pc uint32, opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		regFile: &RegFile{},
		imem:    imem,
		dmem:    dmem,
		decoder: insts.NewDecoder(),
		pc:      pc,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// DataMemory returns the emulator's data memory.
func (e *Emulator) DataMemory() *Memory {
	return e.dmem
}

// PC returns the current program counter.
func (e *Emulator) PC() uint32 {
	return e.pc
}

// InstructionCount returns the number of instructions executed.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// Step executes one instruction.
func (e *Emulator) Step() StepResult {
	word, err := e.imem.Fetch(e.pc)
	if err != nil {
		return StepResult{Err: err}
	}

	inst, err := e.decoder.Decode(word)
	if err != nil {
		return StepResult{Err: fmt.Errorf("pc 0x%08x: %w", e.pc, err)}
	}

	e.instructionCount++

	rs1 := e.regFile.ReadReg(inst.Rs1)
	rs2 := e.regFile.ReadReg(inst.Rs2)
	nextPC := e.pc + 4

	switch inst.Class() {
	case insts.ClassSystem:
		return StepResult{Halted: true}
	case insts.ClassBranch, insts.ClassJump:
		nextPC = NextPC(inst, rs1, rs2, e.pc)
		if inst.WritesRd() {
			e.regFile.WriteReg(inst.Rd, ALUResult(inst, rs1, rs2, e.pc))
		}
	case insts.ClassMultiply:
		e.regFile.WriteReg(inst.Rd, Multiply(inst.Op, rs1, rs2))
	case insts.ClassDivide, insts.ClassRemainder:
		e.regFile.WriteReg(inst.Rd, Divide(inst.Op, rs1, rs2))
	case insts.ClassLoad:
		value, err := e.load(inst, rs1+uint32(inst.Imm))
		if err != nil {
			return StepResult{Err: err}
		}
		e.regFile.WriteReg(inst.Rd, value)
	case insts.ClassStore:
		if err := e.dmem.WriteWord(rs1+uint32(inst.Imm), rs2, StrobeWord); err != nil {
			return StepResult{Err: err}
		}
	default:
		e.regFile.WriteReg(inst.Rd, ALUResult(inst, rs1, rs2, e.pc))
	}

	e.pc = nextPC
	return StepResult{}
}

func (e *Emulator) load(inst *insts.Instruction, addr uint32) (uint32, error) {
	if inst.Op == insts.OpLBU {
		b, err := e.dmem.LoadByte(addr)
		return uint32(b), err
	}
	return e.dmem.ReadWord(addr)
}

// Run executes until EBREAK, a fault, or the instruction limit. It returns
// nil on EBREAK.
func (e *Emulator) Run() error {
	for {
		if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
			return fmt.Errorf("instruction limit %d reached at pc 0x%08x", e.maxInstructions, e.pc)
		}

		result := e.Step()
		if result.Err != nil {
			return result.Err
		}
		if result.Halted {
			return nil
		}
	}
}
