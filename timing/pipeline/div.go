package pipeline

import "github.com/sarchlab/tomasim/insts"

const divStepsPerStage = 16

// divState is the state carried between divider stages. Quotient starts as
// the dividend magnitude and is shifted out one bit per step while quotient
// bits shift in.
type divState struct {
	Valid bool
	Tag   int
	Op    insts.Op

	Dividend  uint32
	Quotient  uint32
	Remainder uint64
	Divisor   uint64

	DividendNeg bool
	DivisorNeg  bool
	DivByZero   bool
}

// divPipe is the four-stage restoring divider: sign handling, two stages
// of 16 iterations each, then sign correction into the output latch.
type divPipe struct {
	S1  divState
	S2  divState
	S3  divState
	Out result
}

func divIssue(e *rsEntry) divState {
	a, b := e.J.Value, e.K.Value
	op := e.Inst.Op
	signed := op == insts.OpDIV || op == insts.OpREM

	magA, negA := magnitude(a, signed)
	magB, negB := magnitude(b, signed)

	return divState{
		Valid:       true,
		Tag:         e.Dest,
		Op:          op,
		Dividend:    a,
		Quotient:    uint32(magA),
		Divisor:     magB,
		DividendNeg: negA,
		DivisorNeg:  negB,
		DivByZero:   b == 0,
	}
}

func divIterate(s divState) divState {
	for i := 0; i < divStepsPerStage; i++ {
		s.Remainder = s.Remainder<<1 | uint64(s.Quotient>>31)
		s.Quotient <<= 1
		if s.Remainder >= s.Divisor {
			s.Remainder -= s.Divisor
			s.Quotient |= 1
		}
	}
	return s
}

func divFinish(s divState) result {
	q, r := s.Quotient, uint32(s.Remainder)

	if s.DividendNeg != s.DivisorNeg {
		q = -q
	}
	if s.DividendNeg {
		r = -r
	}

	if s.DivByZero {
		q = 0xFFFFFFFF
		r = s.Dividend
	}

	value := q
	if s.Op == insts.OpREM || s.Op == insts.OpREMU {
		value = r
	}
	return result{Valid: true, Tag: s.Tag, Value: value}
}

// advance mirrors mulPipe.advance for the four divider stages.
func (d divPipe) advance(outFree bool) (divPipe, bool) {
	n := d
	if outFree {
		n.Out = result{}
	}

	if !n.Out.Valid && n.S3.Valid {
		n.Out = divFinish(n.S3)
		n.S3 = divState{}
	}

	if !n.S3.Valid && n.S2.Valid {
		n.S3 = divIterate(n.S2)
		n.S2 = divState{}
	}

	if !n.S2.Valid && n.S1.Valid {
		n.S2 = divIterate(n.S1)
		n.S1 = divState{}
	}

	return n, !n.S1.Valid
}

func (d *divPipe) tags() []int {
	var tags []int
	for _, s := range []*divState{&d.S1, &d.S2, &d.S3} {
		if s.Valid {
			tags = append(tags, s.Tag)
		}
	}
	if d.Out.Valid {
		tags = append(tags, d.Out.Tag)
	}
	return tags
}
