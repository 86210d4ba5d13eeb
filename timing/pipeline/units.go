package pipeline

import (
	"fmt"

	"github.com/sarchlab/tomasim/emu"
	"github.com/sarchlab/tomasim/insts"
	"github.com/sarchlab/tomasim/timing/config"
)

// Unit identifies a producer on the common data bus.
type Unit int

// CDB producers.
const (
	UnitALU Unit = iota
	UnitLSQ
	UnitMUL
	UnitDIV
	numUnits
)

var unitNames = [numUnits]string{
	UnitALU: config.UnitALU,
	UnitLSQ: config.UnitLSQ,
	UnitMUL: config.UnitMUL,
	UnitDIV: config.UnitDIV,
}

// String returns the configuration name of the unit.
func (u Unit) String() string {
	if u >= 0 && u < numUnits {
		return unitNames[u]
	}
	return fmt.Sprintf("unit(%d)", int(u))
}

// ParseUnit maps a configuration name to a Unit.
func ParseUnit(name string) (Unit, error) {
	for u, n := range unitNames {
		if n == name {
			return Unit(u), nil
		}
	}
	return 0, fmt.Errorf("unknown unit %q", name)
}

// unitFor returns the unit that executes inst.
func unitFor(inst *insts.Instruction) Unit {
	switch inst.Class() {
	case insts.ClassMultiply:
		return UnitMUL
	case insts.ClassDivide, insts.ClassRemainder:
		return UnitDIV
	case insts.ClassLoad, insts.ClassStore:
		return UnitLSQ
	}
	return UnitALU
}

// result is a value travelling to the CDB, tagged with its ROB entry.
type result struct {
	Valid bool
	Tag   int
	Value uint32

	Control bool
	NextPC  uint32
	Taken   bool

	Fault error
}

// executeALU computes an integer, compare, upper-immediate or control
// instruction in the cycle it issues.
func executeALU(e *rsEntry) result {
	inst := e.Inst
	a, b := e.J.Value, e.K.Value

	r := result{
		Valid: true,
		Tag:   e.Dest,
		Value: emu.ALUResult(inst, a, b, e.PC),
	}

	if inst.IsControl() {
		r.Control = true
		r.NextPC = emu.NextPC(inst, a, b, e.PC)
		r.Taken = inst.Class() == insts.ClassJump || emu.BranchTaken(inst.Op, a, b)
		if !inst.WritesRd() {
			r.Value = 0
		}
	}

	return r
}
