package pipeline

import (
	"errors"
	"fmt"

	"github.com/sarchlab/tomasim/insts"
)

// RATMapping is the inspected alias of one architectural register.
type RATMapping struct {
	Pending bool
	Tag     int
}

// StationView is the inspected content of a reservation station slot.
type StationView struct {
	Busy     bool
	Unit     Unit
	Op       insts.Op
	Dest     int
	JPending bool
	JTag     int
	KPending bool
	KTag     int
}

// QueueView is the inspected content of a load/store queue slot.
type QueueView struct {
	Busy      bool
	Tag       int
	Op        insts.Op
	AddrValid bool
	Addr      uint32
	Executed  bool
	Completed bool
}

// Inspection is a snapshot of the microarchitectural state between cycles.
type Inspection struct {
	Cycle        uint64
	PC           uint32
	FetchBlocked bool
	Latch        FetchLatch

	ROBHead  int
	ROBTail  int
	ROBCount int
	ROB      []ROBEntry

	RAT []RATMapping
	RS  []StationView
	LSQ []QueueView

	// InFlight lists the tags held by unit output latches and the MUL and
	// DIV pipeline stages.
	InFlight map[Unit][]int
}

// Inspect returns a snapshot of the current state.
func (p *Pipeline) Inspect() Inspection {
	s := p.state

	in := Inspection{
		Cycle:        p.cycle,
		PC:           s.pc,
		FetchBlocked: s.fetchBlocked,
		Latch:        s.latch,
		ROBHead:      s.rob.head,
		ROBTail:      s.rob.tail,
		ROBCount:     s.rob.count,
		ROB:          append([]ROBEntry(nil), s.rob.entries...),
		RAT:          make([]RATMapping, len(s.rat)),
		RS:           make([]StationView, len(s.rs)),
		LSQ:          make([]QueueView, len(s.lsq)),
		InFlight:     make(map[Unit][]int),
	}

	for i, m := range s.rat {
		in.RAT[i] = RATMapping{Pending: m.Busy, Tag: m.Tag}
	}

	for i := range s.rs {
		e := &s.rs[i]
		if !e.Busy {
			continue
		}
		in.RS[i] = StationView{
			Busy:     true,
			Unit:     e.Unit,
			Op:       e.Inst.Op,
			Dest:     e.Dest,
			JPending: e.J.Pending,
			JTag:     e.J.Tag,
			KPending: e.K.Pending,
			KTag:     e.K.Tag,
		}
	}

	for i := range s.lsq {
		e := &s.lsq[i]
		if !e.Busy {
			continue
		}
		in.LSQ[i] = QueueView{
			Busy:      true,
			Tag:       e.Tag,
			Op:        e.Inst.Op,
			AddrValid: e.AddrValid,
			Addr:      e.Addr,
			Executed:  e.Executed,
			Completed: e.Completed,
		}
	}

	if s.aluOut.Valid {
		in.InFlight[UnitALU] = []int{s.aluOut.Tag}
	}
	if s.lsqOut.Valid {
		in.InFlight[UnitLSQ] = []int{s.lsqOut.Tag}
	}
	if tags := s.mul.tags(); len(tags) > 0 {
		in.InFlight[UnitMUL] = tags
	}
	if tags := s.div.tags(); len(tags) > 0 {
		in.InFlight[UnitDIV] = tags
	}

	return in
}

// VerifyInvariants checks the structural invariants of the current state:
// the ROB occupies one contiguous range, every RAT mapping and every
// producer names an occupied ROB entry, and each unfinished result has
// exactly one producer.
func (p *Pipeline) VerifyInvariants() error {
	s := p.state
	r := &s.rob
	var errs []error

	if r.count < 0 || r.count > r.size() {
		return fmt.Errorf("rob count %d out of range", r.count)
	}
	if (r.head+r.count)%r.size() != r.tail {
		errs = append(errs, fmt.Errorf("rob head %d + count %d != tail %d", r.head, r.count, r.tail))
	}
	for tag := range r.entries {
		if r.entries[tag].Valid != r.contains(tag) {
			errs = append(errs, fmt.Errorf("rob entry %d valid=%v outside occupied range",
				tag, r.entries[tag].Valid))
		}
	}

	for reg, m := range s.rat {
		if !m.Busy {
			continue
		}
		if reg == 0 {
			errs = append(errs, errors.New("x0 is renamed"))
			continue
		}
		if !r.contains(m.Tag) {
			errs = append(errs, fmt.Errorf("x%d maps to free rob entry %d", reg, m.Tag))
			continue
		}
		e := &r.entries[m.Tag]
		if !e.HasDest || int(e.Rd) != reg {
			errs = append(errs, fmt.Errorf("x%d maps to rob entry %d which does not write it", reg, m.Tag))
		}
	}

	producers := make(map[int]int)
	addProducer := func(where string, tag int) {
		if !r.contains(tag) {
			errs = append(errs, fmt.Errorf("%s holds free rob entry %d", where, tag))
			return
		}
		producers[tag]++
	}

	for i := range s.rs {
		if s.rs[i].Busy {
			addProducer(fmt.Sprintf("rs[%d]", i), s.rs[i].Dest)
		}
	}
	for i := range s.lsq {
		e := &s.lsq[i]
		if !e.Busy {
			continue
		}
		if !r.contains(e.Tag) {
			errs = append(errs, fmt.Errorf("lsq[%d] holds free rob entry %d", i, e.Tag))
			continue
		}
		if e.isLoad() && !e.Executed {
			producers[e.Tag]++
		}
	}
	if s.aluOut.Valid {
		addProducer("alu latch", s.aluOut.Tag)
	}
	if s.lsqOut.Valid {
		addProducer("lsq latch", s.lsqOut.Tag)
	}
	for _, tag := range s.mul.tags() {
		addProducer("mul pipeline", tag)
	}
	for _, tag := range s.div.tags() {
		addProducer("div pipeline", tag)
	}

	for i := 0; i < r.count; i++ {
		tag := (r.head + i) % r.size()
		e := &r.entries[tag]
		n := producers[tag]

		switch {
		case e.Ready && n != 0:
			errs = append(errs, fmt.Errorf("rob entry %d is ready but still has %d producers", tag, n))
		case !e.Ready && e.Inst != nil && e.Inst.Class() == insts.ClassStore:
			if n != 0 {
				errs = append(errs, fmt.Errorf("store rob entry %d has %d producers", tag, n))
			}
		case !e.Ready && n != 1:
			errs = append(errs, fmt.Errorf("rob entry %d has %d producers", tag, n))
		}
	}

	return errors.Join(errs...)
}

func hex32(v uint32) string {
	return fmt.Sprintf("0x%08x", v)
}
