package pipeline

import "github.com/sarchlab/tomasim/insts"

// ROBEntry is one reorder buffer slot. The slot index is the tag that
// renamed registers and in-flight results refer to.
type ROBEntry struct {
	Valid bool
	Seq   uint64
	PC    uint32
	Inst  *insts.Instruction

	HasDest bool
	Rd      uint8

	Ready bool
	Value uint32

	PredictedNext  uint32
	PredictedTaken bool
	ActualNext     uint32
	ActualTaken    bool
	Mispredicted   bool

	Fault error
}

// isControl reports whether the entry resolves a branch or jump.
func (e *ROBEntry) isControl() bool {
	return e.Fault == nil && e.Inst != nil && e.Inst.IsControl()
}

// rob is a circular buffer of ROBEntry. Valid entries occupy the range
// [head, head+count) modulo the size.
type rob struct {
	entries []ROBEntry
	head    int
	tail    int
	count   int
}

func newROB(size int) rob {
	return rob{entries: make([]ROBEntry, size)}
}

func (r *rob) clone() rob {
	c := *r
	c.entries = append([]ROBEntry(nil), r.entries...)
	return c
}

func (r *rob) size() int {
	return len(r.entries)
}

func (r *rob) full() bool {
	return r.count == len(r.entries)
}

func (r *rob) empty() bool {
	return r.count == 0
}

// push appends e at the tail and returns its tag.
func (r *rob) push(e ROBEntry) int {
	tag := r.tail
	e.Valid = true
	r.entries[tag] = e
	r.tail = (r.tail + 1) % len(r.entries)
	r.count++
	return tag
}

// pop frees the head entry.
func (r *rob) pop() {
	r.entries[r.head] = ROBEntry{}
	r.head = (r.head + 1) % len(r.entries)
	r.count--
}

// age returns the distance of tag from the head; smaller is older.
func (r *rob) age(tag int) int {
	return (tag - r.head + len(r.entries)) % len(r.entries)
}

// contains reports whether tag lies in the occupied range.
func (r *rob) contains(tag int) bool {
	return tag >= 0 && tag < len(r.entries) && r.age(tag) < r.count
}

// flush drops every entry and restarts allocation at the head.
func (r *rob) flush() int {
	dropped := r.count
	for i := range r.entries {
		r.entries[i] = ROBEntry{}
	}
	r.tail = r.head
	r.count = 0
	return dropped
}
