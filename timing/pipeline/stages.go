package pipeline

import (
	"fmt"

	"github.com/sarchlab/tomasim/emu"
	"github.com/sarchlab/tomasim/insts"
)

// cycle carries what one Tick has decided so far. Stages read cur and
// write next.
type cycle struct {
	cur  *state
	next *state

	bcast      result
	dispatched bool

	squash   bool
	redirect uint32

	haltStatus HaltStatus
	haltErr    error

	train *branchOutcome
}

type branchOutcome struct {
	pc           uint32
	taken        bool
	target       uint32
	mispredicted bool
}

// Tick executes one clock cycle.
//
// The stages are evaluated against the state latched at the end of the
// previous cycle, so their order below only fixes which writes win when
// two stages touch the same field of the next state:
//   - commit retires the ROB head, writes the register file and memory,
//     and releases the RAT mapping if it still names the retiring tag
//   - execute issues the oldest ready instruction per unit, advances the
//     MUL and DIV pipelines and grants the CDB to one unit
//   - dispatch moves the fetch latch into the ROB and a station, reading
//     operands from the RAT, the ROB or the register file
//   - the CDB broadcast wakes up waiting operands, including those of the
//     instruction dispatched this cycle
//   - address generation resolves LSQ addresses and completes stores
//   - fetch refills the latch using the branch predictor
//
// A misprediction found at commit discards everything younger and
// redirects fetch. Predictor training is applied last so fetch in the same
// cycle still sees the old tables.
func (p *Pipeline) Tick() {
	if p.halted {
		return
	}

	c := &cycle{cur: p.state, next: p.state.clone()}

	p.commit(c)
	p.execute(c)
	p.dispatch(c)
	p.broadcast(c)
	generateAddresses(c.next.lsq, &c.next.rob)
	p.fetch(c)

	if c.squash {
		p.stats.Flushes++
		p.stats.Squashed += uint64(c.next.flushSpeculative(c.redirect))
	}

	if c.train != nil {
		t := c.train
		p.predictor.Update(t.pc, t.taken, t.target, t.mispredicted)
	}

	p.state = c.next
	p.cycle++
	p.stats.Cycles++

	if c.haltStatus != Running {
		p.halt(c.haltStatus, c.haltErr)
	}
}

func (p *Pipeline) commit(c *cycle) {
	cur, next := c.cur, c.next
	if cur.rob.empty() {
		return
	}

	tag := cur.rob.head
	e := &cur.rob.entries[tag]
	if !e.Ready {
		p.stats.CommitStalls++
		return
	}

	if e.Fault != nil {
		c.haltStatus = HaltFatal
		c.haltErr = &FatalError{PC: e.PC, Err: e.Fault}
		return
	}

	inst := e.Inst
	switch {
	case inst.Op == insts.OpEBREAK:
		c.haltStatus = HaltEbreak
	case inst.Class() == insts.ClassStore:
		if err := p.commitStore(c, tag); err != nil {
			c.haltStatus = HaltFatal
			c.haltErr = &FatalError{PC: e.PC, Err: err}
			return
		}
	}

	if e.HasDest {
		next.regs.WriteReg(e.Rd, e.Value)
		next.rat.release(e.Rd, tag)
	}

	if e.isControl() {
		c.train = &branchOutcome{
			pc:           e.PC,
			taken:        e.ActualTaken,
			target:       e.ActualNext,
			mispredicted: e.Mispredicted,
		}
		if e.Mispredicted {
			c.squash = true
			c.redirect = e.ActualNext
		}
	}

	next.rob.pop()
	p.stats.Instructions++

	if p.tracer != nil {
		p.tracer.Commit(CommitEvent{
			Cycle:   p.cycle,
			Seq:     e.Seq,
			Tag:     tag,
			PC:      e.PC,
			Op:      inst.Op,
			HasDest: e.HasDest,
			Rd:      e.Rd,
			Value:   e.Value,
		})
	}
}

// commitStore writes the store at the ROB head to memory and frees its
// queue slot. A load issuing in the same cycle cannot observe the write:
// any load to the same word is younger and forwards from this store.
func (p *Pipeline) commitStore(c *cycle, tag int) error {
	i := findLSQ(c.cur.lsq, tag)
	if i < 0 {
		return fmt.Errorf("store tag %d missing from load/store queue", tag)
	}

	st := &c.cur.lsq[i]
	if err := p.dmem.WriteWord(st.Addr, st.Data.Value, emu.StrobeWord); err != nil {
		return err
	}

	c.next.lsq[i] = lsqEntry{}
	return nil
}

func (p *Pipeline) execute(c *cycle) {
	cur, next := c.cur, c.next

	var cand [numUnits]result

	if cur.aluOut.Valid {
		cand[UnitALU] = cur.aluOut
	} else if i := selectReady(cur.rs, UnitALU, &cur.rob); i >= 0 {
		cand[UnitALU] = executeALU(&cur.rs[i])
		next.rs[i] = rsEntry{}
	}

	if cur.lsqOut.Valid {
		cand[UnitLSQ] = cur.lsqOut
	} else {
		cand[UnitLSQ] = p.executeLoad(c)
	}

	cand[UnitMUL] = cur.mul.Out
	cand[UnitDIV] = cur.div.Out

	if countValid(&cand) > 1 {
		p.stats.CDBConflicts++
	}

	winner := arbitrate(&cand, p.priority)
	if winner >= 0 {
		c.bcast = cand[winner]
	}

	next.aluOut = result{}
	if cand[UnitALU].Valid && winner != UnitALU {
		next.aluOut = cand[UnitALU]
	}

	next.lsqOut = result{}
	if cand[UnitLSQ].Valid {
		if winner == UnitLSQ {
			if i := findLSQ(next.lsq, cand[UnitLSQ].Tag); i >= 0 {
				next.lsq[i] = lsqEntry{}
			}
		} else {
			next.lsqOut = cand[UnitLSQ]
		}
	}

	mul, mulFree := cur.mul.advance(!cur.mul.Out.Valid || winner == UnitMUL)
	if mulFree {
		if i := selectReady(cur.rs, UnitMUL, &cur.rob); i >= 0 {
			mul.S1 = mulIssue(&cur.rs[i])
			next.rs[i] = rsEntry{}
		}
	}
	next.mul = mul

	div, divFree := cur.div.advance(!cur.div.Out.Valid || winner == UnitDIV)
	if divFree {
		if i := selectReady(cur.rs, UnitDIV, &cur.rob); i >= 0 {
			div.S1 = divIssue(&cur.rs[i])
			next.rs[i] = rsEntry{}
		}
	}
	next.div = div
}

// executeLoad issues the oldest load that can read its value this cycle.
func (p *Pipeline) executeLoad(c *cycle) result {
	cur, next := c.cur, c.next

	best := -1
	var bestCheck loadCheck
	var bestSrc int

	for i := range cur.lsq {
		e := &cur.lsq[i]
		if !e.Busy || !e.isLoad() || e.Executed || !e.AddrValid {
			continue
		}
		if best >= 0 && cur.rob.age(e.Tag) > cur.rob.age(cur.lsq[best].Tag) {
			continue
		}

		check, src := loadFromMemory, -1
		if e.Fault == nil {
			check, src = disambiguate(cur.lsq, i, &cur.rob)
		}

		switch check {
		case loadBlockedAddress:
			p.stats.LoadAmbiguityStalls++
			continue
		case loadBlockedData:
			continue
		}

		best, bestCheck, bestSrc = i, check, src
	}

	if best < 0 {
		return result{}
	}

	e := &cur.lsq[best]
	next.lsq[best].Executed = true

	r := result{Valid: true, Tag: e.Tag, Fault: e.Fault}
	if e.Fault != nil {
		return r
	}

	if bestCheck == loadForward {
		p.stats.LoadsForwarded++
		r.Value = emu.LoadValue(e.Inst.Op, cur.lsq[bestSrc].Data.Value, e.Addr)
		return r
	}

	word, err := p.dmem.ReadWord(emu.WordAddress(e.Addr))
	if err != nil {
		r.Fault = err
		return r
	}
	r.Value = emu.LoadValue(e.Inst.Op, word, e.Addr)
	return r
}

func (p *Pipeline) dispatch(c *cycle) {
	cur, next := c.cur, c.next
	l := &cur.latch
	if !l.Valid {
		return
	}

	if cur.rob.full() {
		p.stats.ROBFullStalls++
		return
	}

	entry := ROBEntry{
		Seq:            cur.seq,
		PC:             l.PC,
		Inst:           l.Inst,
		PredictedNext:  l.PredictedNext,
		PredictedTaken: l.PredictedTaken,
		Fault:          l.Fault,
	}

	if l.Fault != nil || l.Inst.Op == insts.OpEBREAK {
		entry.Ready = true
		p.pushROB(c, entry)
		return
	}

	inst := l.Inst
	unit := unitFor(inst)

	slot := -1
	if unit == UnitLSQ {
		if slot = freeLSQ(cur.lsq); slot < 0 {
			p.stats.LSQFullStalls++
			return
		}
	} else if slot = freeRS(cur.rs); slot < 0 {
		p.stats.RSFullStalls++
		return
	}

	j := readOperand(cur, inst.Rs1, inst.ReadsRs1())
	k := readOperand(cur, inst.Rs2, inst.ReadsRs2())

	if inst.WritesRd() {
		entry.HasDest = true
		entry.Rd = inst.Rd
	}
	tag := p.pushROB(c, entry)

	if unit == UnitLSQ {
		next.lsq[slot] = lsqEntry{
			Busy:   true,
			Tag:    tag,
			Inst:   inst,
			Base:   j,
			Data:   k,
			Offset: uint32(inst.Imm),
		}
	} else {
		next.rs[slot] = rsEntry{
			Busy: true,
			Unit: unit,
			Inst: inst,
			PC:   l.PC,
			J:    j,
			K:    k,
			Dest: tag,
		}
	}

	if inst.WritesRd() {
		next.rat.rename(inst.Rd, tag)
	}
}

func (p *Pipeline) pushROB(c *cycle, entry ROBEntry) int {
	tag := c.next.rob.push(entry)
	c.next.seq++
	c.next.latch.Clear()
	c.dispatched = true
	p.stats.Dispatched++
	return tag
}

// readOperand reads reg as seen by an instruction dispatching this cycle.
func readOperand(s *state, reg uint8, used bool) operand {
	if !used || reg == 0 {
		return operand{}
	}

	m := s.rat[reg]
	if !m.Busy {
		return operand{Value: s.regs.ReadReg(reg)}
	}

	producer := &s.rob.entries[m.Tag]
	if producer.Ready {
		return operand{Value: producer.Value}
	}
	return operand{Pending: true, Tag: m.Tag}
}

func (p *Pipeline) broadcast(c *cycle) {
	b := c.bcast
	if !b.Valid {
		return
	}

	next := c.next
	wakeRS(next.rs, b.Tag, b.Value)
	wakeLSQ(next.lsq, b.Tag, b.Value)

	e := &next.rob.entries[b.Tag]
	e.Ready = true
	e.Value = b.Value
	e.Fault = b.Fault
	if b.Control {
		e.ActualNext = b.NextPC
		e.ActualTaken = b.Taken
		e.Mispredicted = b.NextPC != e.PredictedNext
	}
}

func (p *Pipeline) fetch(c *cycle) {
	cur, next := c.cur, c.next

	if cur.fetchBlocked {
		return
	}
	if cur.latch.Valid && !c.dispatched {
		return
	}

	pc := cur.pc
	l := FetchLatch{Valid: true, PC: pc, PredictedNext: pc + 4}

	word, err := p.imem.Fetch(pc)
	if err != nil {
		l.Fault = err
		next.latch = l
		next.fetchBlocked = true
		return
	}
	l.Word = word

	inst, err := p.decoder.Decode(word)
	if err != nil {
		l.Fault = err
		next.latch = l
		next.fetchBlocked = true
		return
	}
	l.Inst = inst

	switch {
	case inst.Op == insts.OpEBREAK:
		next.fetchBlocked = true
	case inst.Op == insts.OpJAL:
		l.PredictedNext = pc + uint32(inst.Imm)
		l.PredictedTaken = true
	case inst.IsControl():
		if pred := p.predictor.Predict(pc); pred.Taken {
			l.PredictedNext = pred.Target
			l.PredictedTaken = true
		}
	}

	next.latch = l
	next.pc = l.PredictedNext
}
