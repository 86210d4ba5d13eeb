package pipeline

import "github.com/sarchlab/tomasim/insts"

// operand is a source value that is either known or waiting on a ROB tag.
type operand struct {
	Pending bool
	Tag     int
	Value   uint32
}

// capture takes the broadcast value if the operand waits on tag.
func (o *operand) capture(tag int, value uint32) {
	if o.Pending && o.Tag == tag {
		o.Pending = false
		o.Value = value
	}
}

// rsEntry is a reservation station slot for an ALU, MUL or DIV instruction.
type rsEntry struct {
	Busy bool
	Unit Unit
	Inst *insts.Instruction
	PC   uint32
	J, K operand
	Dest int
}

func (e *rsEntry) ready() bool {
	return e.Busy && !e.J.Pending && !e.K.Pending
}

// freeRS returns the first free entry or -1.
func freeRS(rs []rsEntry) int {
	for i := range rs {
		if !rs[i].Busy {
			return i
		}
	}
	return -1
}

// selectReady returns the oldest ready entry for unit, or -1.
func selectReady(rs []rsEntry, unit Unit, r *rob) int {
	best := -1
	for i := range rs {
		e := &rs[i]
		if !e.ready() || e.Unit != unit {
			continue
		}
		if best < 0 || r.age(e.Dest) < r.age(rs[best].Dest) {
			best = i
		}
	}
	return best
}

func wakeRS(rs []rsEntry, tag int, value uint32) {
	for i := range rs {
		if !rs[i].Busy {
			continue
		}
		rs[i].J.capture(tag, value)
		rs[i].K.capture(tag, value)
	}
}
