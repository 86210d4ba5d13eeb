// Package emu provides functional RV32IM emulation and the architectural
// state shared with the timing model.
package emu

// NumRegs is the number of RV32 integer registers.
const NumRegs = 32

// RegFile represents the RV32 integer register file.
type RegFile struct {
	// X holds general-purpose registers x0-x31.
	// X[0] is the zero register which always reads as 0.
	X [NumRegs]uint32
}

// ReadReg reads a register value. Register 0 and out-of-range indices
// return 0.
func (r *RegFile) ReadReg(reg uint8) uint32 {
	if reg == 0 || reg >= NumRegs {
		return 0
	}
	return r.X[reg]
}

// WriteReg writes a value to a register. Writes to x0 are ignored.
func (r *RegFile) WriteReg(reg uint8, value uint32) {
	if reg == 0 || reg >= NumRegs {
		return
	}
	r.X[reg] = value
}
