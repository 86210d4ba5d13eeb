package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomasim/emu"
	"github.com/sarchlab/tomasim/insts"
)

var _ = Describe("Reference semantics", func() {
	DescribeTable("Multiply",
		func(op insts.Op, a, b, want uint32) {
			Expect(emu.Multiply(op, a, b)).To(Equal(want))
		},
		Entry("mul low word", insts.OpMUL, uint32(7), uint32(6), uint32(42)),
		Entry("mul wraps", insts.OpMUL, uint32(0x80000000), uint32(2), uint32(0)),
		Entry("mulh -1*-1", insts.OpMULH, uint32(0xFFFFFFFF), uint32(0xFFFFFFFF), uint32(0)),
		Entry("mulh -2^31*2", insts.OpMULH, uint32(0x80000000), uint32(2), uint32(0xFFFFFFFF)),
		Entry("mulhu max*max", insts.OpMULHU, uint32(0xFFFFFFFF), uint32(0xFFFFFFFF), uint32(0xFFFFFFFE)),
		Entry("mulhsu -1*max", insts.OpMULHSU, uint32(0xFFFFFFFF), uint32(0xFFFFFFFF), uint32(0xFFFFFFFF)),
	)

	DescribeTable("Divide",
		func(op insts.Op, a, b, want uint32) {
			Expect(emu.Divide(op, a, b)).To(Equal(want))
		},
		Entry("divu", insts.OpDIVU, uint32(100), uint32(7), uint32(14)),
		Entry("remu", insts.OpREMU, uint32(100), uint32(7), uint32(2)),
		Entry("divu by zero", insts.OpDIVU, uint32(100), uint32(0), uint32(0xFFFFFFFF)),
		Entry("remu by zero", insts.OpREMU, uint32(100), uint32(0), uint32(100)),
		Entry("div by zero", insts.OpDIV, uint32(0xFFFFFF9C), uint32(0), uint32(0xFFFFFFFF)),
		Entry("div negative", insts.OpDIV, uint32(0xFFFFFF9C), uint32(7), uint32(0xFFFFFFF2)),
		Entry("rem negative", insts.OpREM, uint32(0xFFFFFF9C), uint32(7), uint32(0xFFFFFFFE)),
		Entry("div overflow", insts.OpDIV, uint32(0x80000000), uint32(0xFFFFFFFF), uint32(0x80000000)),
		Entry("rem overflow", insts.OpREM, uint32(0x80000000), uint32(0xFFFFFFFF), uint32(0)),
	)

	It("should compute link addresses and targets for jumps", func() {
		jalr := &insts.Instruction{Op: insts.OpJALR, Format: insts.FormatI, Rd: 1, Imm: 3}

		Expect(emu.ALUResult(jalr, 0x100, 0, 0x40)).To(Equal(uint32(0x44)))
		Expect(emu.NextPC(jalr, 0x100, 0, 0x40)).To(Equal(uint32(0x102)))
	})

	It("should follow taken and not-taken branches", func() {
		blt := &insts.Instruction{Op: insts.OpBLT, Format: insts.FormatB, Imm: -16}

		Expect(emu.NextPC(blt, 0xFFFFFFFF, 1, 0x40)).To(Equal(uint32(0x30)))
		Expect(emu.NextPC(blt, 1, 0xFFFFFFFF, 0x40)).To(Equal(uint32(0x44)))
	})

	It("should treat SRAI as arithmetic", func() {
		srai := &insts.Instruction{Op: insts.OpSRAI, Format: insts.FormatI, Imm: 4}
		Expect(emu.ALUResult(srai, 0x80000000, 0, 0)).To(Equal(uint32(0xF8000000)))
	})

	It("should extract unsigned bytes for LBU", func() {
		Expect(emu.LoadValue(insts.OpLBU, 0x11223344, 0x1002)).To(Equal(uint32(0x22)))
		Expect(emu.LoadValue(insts.OpLW, 0x11223344, 0x1000)).To(Equal(uint32(0x11223344)))
	})
})
