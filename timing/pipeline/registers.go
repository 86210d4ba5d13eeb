package pipeline

import "github.com/sarchlab/tomasim/insts"

// FetchLatch holds the single instruction passed from fetch to dispatch.
type FetchLatch struct {
	Valid bool
	PC    uint32
	Word  uint32
	Inst  *insts.Instruction

	// PredictedNext is the PC fetch continued at after this instruction.
	PredictedNext  uint32
	PredictedTaken bool

	// Fault is set when the word could not be fetched or decoded. The
	// instruction still takes a ROB entry so the fault is only raised if
	// it commits.
	Fault error
}

// Clear resets the latch to its empty state.
func (l *FetchLatch) Clear() {
	*l = FetchLatch{}
}
