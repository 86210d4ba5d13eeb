package pipeline

import (
	"fmt"

	"github.com/sarchlab/tomasim/emu"
	"github.com/sarchlab/tomasim/insts"
)

// lsqEntry is a load/store queue slot. Program order among memory
// operations is the ROB order of their tags.
type lsqEntry struct {
	Busy bool
	Tag  int
	Inst *insts.Instruction

	Base   operand
	Data   operand
	Offset uint32

	AddrValid bool
	Addr      uint32

	// Executed marks a load that has read its value and is waiting for
	// the CDB.
	Executed bool
	// Completed marks a store whose address and data are both known.
	Completed bool

	Fault error
}

func (e *lsqEntry) isLoad() bool {
	return e.Inst.Class() == insts.ClassLoad
}

func (e *lsqEntry) isStore() bool {
	return e.Inst.Class() == insts.ClassStore
}

func freeLSQ(q []lsqEntry) int {
	for i := range q {
		if !q[i].Busy {
			return i
		}
	}
	return -1
}

func findLSQ(q []lsqEntry, tag int) int {
	for i := range q {
		if q[i].Busy && q[i].Tag == tag {
			return i
		}
	}
	return -1
}

func wakeLSQ(q []lsqEntry, tag int, value uint32) {
	for i := range q {
		if !q[i].Busy {
			continue
		}
		q[i].Base.capture(tag, value)
		q[i].Data.capture(tag, value)
	}
}

// loadCheck is the outcome of disambiguating a load against older stores.
type loadCheck int

const (
	loadFromMemory loadCheck = iota
	loadForward
	loadBlockedAddress
	loadBlockedData
)

// disambiguate compares the load at q[i] with every older store. A load
// waits while any older store address is unknown. Otherwise the youngest
// older store to the same word forwards its data, or blocks the load until
// that data is known.
func disambiguate(q []lsqEntry, i int, r *rob) (loadCheck, int) {
	load := &q[i]
	loadAge := r.age(load.Tag)
	word := emu.WordAddress(load.Addr)

	src := -1
	for j := range q {
		st := &q[j]
		if !st.Busy || !st.isStore() || r.age(st.Tag) > loadAge {
			continue
		}
		if !st.AddrValid {
			return loadBlockedAddress, -1
		}
		if emu.WordAddress(st.Addr) != word {
			continue
		}
		if src < 0 || r.age(st.Tag) > r.age(q[src].Tag) {
			src = j
		}
	}

	switch {
	case src < 0:
		return loadFromMemory, -1
	case q[src].Data.Pending:
		return loadBlockedData, src
	}
	return loadForward, src
}

// generateAddresses resolves effective addresses for entries whose base is
// known, and completes stores once their data is known too.
func generateAddresses(q []lsqEntry, r *rob) {
	for i := range q {
		e := &q[i]
		if !e.Busy {
			continue
		}

		if !e.AddrValid && !e.Base.Pending {
			e.Addr = e.Base.Value + e.Offset
			e.AddrValid = true
			if e.Inst.Op != insts.OpLBU && e.Addr&0x3 != 0 {
				e.Fault = fmt.Errorf("%s at 0x%08x: %w", e.Inst.Op, e.Addr, emu.ErrMisalignedAccess)
			}
		}

		if e.isStore() && !e.Completed && e.AddrValid && !e.Data.Pending {
			e.Completed = true
			robEntry := &r.entries[e.Tag]
			robEntry.Ready = true
			robEntry.Fault = e.Fault
		}
	}
}
