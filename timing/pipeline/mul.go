package pipeline

import "github.com/sarchlab/tomasim/insts"

// mulPartial is the first multiplier stage: operand magnitudes split into
// two 16-bit partial products.
type mulPartial struct {
	Valid  bool
	Tag    int
	Op     insts.Op
	Negate bool
	PP0    uint64
	PP1    uint64
}

// mulAccum is the second stage: the signed 64-bit product.
type mulAccum struct {
	Valid   bool
	Tag     int
	Op      insts.Op
	Product uint64
}

// mulPipe is the three-stage multiplier. Out is the output latch that
// competes for the CDB.
type mulPipe struct {
	S1  mulPartial
	S2  mulAccum
	Out result
}

func mulIssue(e *rsEntry) mulPartial {
	a, b := e.J.Value, e.K.Value
	op := e.Inst.Op

	signedA := op == insts.OpMULH || op == insts.OpMULHSU
	signedB := op == insts.OpMULH

	magA, negA := magnitude(a, signedA)
	magB, negB := magnitude(b, signedB)

	return mulPartial{
		Valid:  true,
		Tag:    e.Dest,
		Op:     op,
		Negate: negA != negB,
		PP0:    magA * (magB & 0xFFFF),
		PP1:    magA * (magB >> 16),
	}
}

func magnitude(v uint32, signed bool) (uint64, bool) {
	if signed && int32(v) < 0 {
		return uint64(-int64(int32(v))), true
	}
	return uint64(v), false
}

func mulAccumulate(s mulPartial) mulAccum {
	product := s.PP0 + s.PP1<<16
	if s.Negate {
		product = ^product + 1
	}
	return mulAccum{Valid: true, Tag: s.Tag, Op: s.Op, Product: product}
}

func mulSelect(s mulAccum) result {
	value := uint32(s.Product >> 32)
	if s.Op == insts.OpMUL {
		value = uint32(s.Product)
	}
	return result{Valid: true, Tag: s.Tag, Value: value}
}

// advance moves every stage forward whose successor is free or moving.
// outFree tells whether the output latch drains this cycle. It reports
// whether the first stage can accept a new instruction.
func (m mulPipe) advance(outFree bool) (mulPipe, bool) {
	n := m
	if outFree {
		n.Out = result{}
	}

	if !n.Out.Valid && n.S2.Valid {
		n.Out = mulSelect(n.S2)
		n.S2 = mulAccum{}
	}

	if !n.S2.Valid && n.S1.Valid {
		n.S2 = mulAccumulate(n.S1)
		n.S1 = mulPartial{}
	}

	return n, !n.S1.Valid
}

func (m *mulPipe) tags() []int {
	var tags []int
	if m.S1.Valid {
		tags = append(tags, m.S1.Tag)
	}
	if m.S2.Valid {
		tags = append(tags, m.S2.Tag)
	}
	if m.Out.Valid {
		tags = append(tags, m.Out.Tag)
	}
	return tags
}
