package pipeline

import "github.com/sarchlab/tomasim/emu"

// state is everything that is clocked. Each cycle reads the current state
// and builds the next one; nothing written during a cycle is visible to
// other stages until the swap.
type state struct {
	pc           uint32
	fetchBlocked bool
	latch        FetchLatch

	rob  rob
	rat  rat
	rs   []rsEntry
	lsq  []lsqEntry
	regs emu.RegFile

	aluOut result
	lsqOut result
	mul    mulPipe
	div    divPipe

	seq uint64
}

func newState(robSize, rsSize, lsqSize int) *state {
	return &state{
		rob: newROB(robSize),
		rs:  make([]rsEntry, rsSize),
		lsq: make([]lsqEntry, lsqSize),
	}
}

func (s *state) clone() *state {
	c := *s
	c.rob = s.rob.clone()
	c.rs = append([]rsEntry(nil), s.rs...)
	c.lsq = append([]lsqEntry(nil), s.lsq...)
	return &c
}

// flushSpeculative drops every in-flight instruction and restarts fetch at
// pc. The register file is kept. It returns the number of ROB entries
// dropped.
func (s *state) flushSpeculative(pc uint32) int {
	dropped := s.rob.flush()
	s.rat.reset()
	for i := range s.rs {
		s.rs[i] = rsEntry{}
	}
	for i := range s.lsq {
		s.lsq[i] = lsqEntry{}
	}
	s.aluOut = result{}
	s.lsqOut = result{}
	s.mul = mulPipe{}
	s.div = divPipe{}
	s.latch.Clear()
	s.fetchBlocked = false
	s.pc = pc
	return dropped
}
