package pipeline

import "github.com/sarchlab/tomasim/emu"

// ratEntry maps an architectural register to the ROB tag of its youngest
// in-flight producer. A register that is not busy reads the register file.
type ratEntry struct {
	Busy bool
	Tag  int
}

// rat is the register alias table. It is a value type so cloning the
// per-cycle state copies it.
type rat [emu.NumRegs]ratEntry

// rename points reg at tag. x0 is never renamed.
func (r *rat) rename(reg uint8, tag int) {
	if reg == 0 {
		return
	}
	r[reg] = ratEntry{Busy: true, Tag: tag}
}

// release clears reg if it still points at tag.
func (r *rat) release(reg uint8, tag int) {
	if r[reg].Busy && r[reg].Tag == tag {
		r[reg] = ratEntry{}
	}
}

func (r *rat) reset() {
	*r = rat{}
}
