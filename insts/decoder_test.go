package insts_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomasim/insts"
)

var _ = Describe("Decoder", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	decode := func(word uint32) *insts.Instruction {
		inst, err := decoder.Decode(word)
		Expect(err).NotTo(HaveOccurred())
		return inst
	}

	Describe("Register-immediate", func() {
		// ADDI x1, x0, 42 -> 0x02A00093
		It("should decode ADDI x1, x0, 42", func() {
			inst := decode(0x02A00093)

			Expect(inst.Op).To(Equal(insts.OpADDI))
			Expect(inst.Format).To(Equal(insts.FormatI))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Rs1).To(Equal(uint8(0)))
			Expect(inst.Imm).To(Equal(int32(42)))
			Expect(inst.WritesRd()).To(BeTrue())
			Expect(inst.ReadsRs2()).To(BeFalse())
		})

		// ADDI x2, x2, -1 -> 0xFFF10113
		It("should sign-extend negative immediates", func() {
			inst := decode(0xFFF10113)

			Expect(inst.Op).To(Equal(insts.OpADDI))
			Expect(inst.Imm).To(Equal(int32(-1)))
		})

		// SRAI x1, x2, 3 -> 0x40315093
		It("should decode SRAI with the shift amount as immediate", func() {
			inst := decode(0x40315093)

			Expect(inst.Op).To(Equal(insts.OpSRAI))
			Expect(inst.Imm).To(Equal(int32(3)))
			Expect(inst.Rs2).To(Equal(uint8(0)))
		})

		It("should reject SLLI with a non-zero funct7", func() {
			_, err := decoder.Decode(0x40311093)
			Expect(err).To(HaveOccurred())
		})
	})

	DescribeTable("Register-register",
		func(word uint32, op insts.Op) {
			inst := decode(word)
			Expect(inst.Op).To(Equal(op))
			Expect(inst.Format).To(Equal(insts.FormatR))
			Expect(inst.Rd).To(Equal(uint8(3)))
			Expect(inst.Rs1).To(Equal(uint8(1)))
			Expect(inst.Rs2).To(Equal(uint8(2)))
		},
		Entry("ADD", uint32(0x002081B3), insts.OpADD),
		Entry("SUB", uint32(0x402081B3), insts.OpSUB),
		Entry("SRA", uint32(0x4020D1B3), insts.OpSRA),
		Entry("SLTU", uint32(0x0020B1B3), insts.OpSLTU),
		Entry("MUL", uint32(0x022081B3), insts.OpMUL),
		Entry("MULHSU", uint32(0x0220A1B3), insts.OpMULHSU),
		Entry("DIVU", uint32(0x0220D1B3), insts.OpDIVU),
		Entry("REMU", uint32(0x0220F1B3), insts.OpREMU),
	)

	Describe("Memory", func() {
		// LW x5, 8(x2) -> 0x00812283
		It("should decode LW", func() {
			inst := decode(0x00812283)

			Expect(inst.Op).To(Equal(insts.OpLW))
			Expect(inst.Rd).To(Equal(uint8(5)))
			Expect(inst.Rs1).To(Equal(uint8(2)))
			Expect(inst.Imm).To(Equal(int32(8)))
			Expect(inst.IsMemory()).To(BeTrue())
		})

		// SW x5, 12(x2) -> 0x00512623
		It("should decode SW with the split S immediate", func() {
			inst := decode(0x00512623)

			Expect(inst.Op).To(Equal(insts.OpSW))
			Expect(inst.Format).To(Equal(insts.FormatS))
			Expect(inst.Rs1).To(Equal(uint8(2)))
			Expect(inst.Rs2).To(Equal(uint8(5)))
			Expect(inst.Imm).To(Equal(int32(12)))
			Expect(inst.WritesRd()).To(BeFalse())
		})

		It("should reject halfword loads", func() {
			_, err := decoder.Decode(0x00811283) // LH x5, 8(x2)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Control flow", func() {
		// BEQ x1, x2, -8 -> 0xFE208CE3
		It("should decode BEQ with a negative offset", func() {
			inst := decode(0xFE208CE3)

			Expect(inst.Op).To(Equal(insts.OpBEQ))
			Expect(inst.Imm).To(Equal(int32(-8)))
			Expect(inst.IsControl()).To(BeTrue())
		})

		// JAL x1, 16 -> 0x010000EF
		It("should decode JAL", func() {
			inst := decode(0x010000EF)

			Expect(inst.Op).To(Equal(insts.OpJAL))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Imm).To(Equal(int32(16)))
		})

		// LUI x5, 0x12345 -> 0x123452B7
		It("should decode LUI with the shifted immediate", func() {
			inst := decode(0x123452B7)

			Expect(inst.Op).To(Equal(insts.OpLUI))
			Expect(uint32(inst.Imm)).To(Equal(uint32(0x12345000)))
		})
	})

	Describe("System", func() {
		It("should decode EBREAK", func() {
			inst := decode(0x00100073)
			Expect(inst.Op).To(Equal(insts.OpEBREAK))
			Expect(inst.WritesRd()).To(BeFalse())
		})

		It("should return a DecodeError for ECALL", func() {
			_, err := decoder.Decode(0x00000073)

			var decodeErr *insts.DecodeError
			Expect(errors.As(err, &decodeErr)).To(BeTrue())
			Expect(decodeErr.Word).To(Equal(uint32(0x00000073)))
		})

		It("should return a DecodeError for an all-zero word", func() {
			_, err := decoder.Decode(0)
			Expect(err).To(HaveOccurred())
		})
	})
})

var _ = Describe("Encoder", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	It("should produce the reference encodings", func() {
		Expect(insts.EncodeADDI(1, 0, 42)).To(Equal(uint32(0x02A00093)))
		Expect(insts.EncodeADD(3, 1, 2)).To(Equal(uint32(0x002081B3)))
		Expect(insts.EncodeSW(5, 2, 12)).To(Equal(uint32(0x00512623)))
		Expect(insts.EncodeBEQ(1, 2, -8)).To(Equal(uint32(0xFE208CE3)))
		Expect(insts.EncodeJAL(1, 16)).To(Equal(uint32(0x010000EF)))
		Expect(insts.EncodeLUI(5, 0x12345)).To(Equal(uint32(0x123452B7)))
	})

	It("should keep far branch and jump offsets intact", func() {
		inst, err := decoder.Decode(insts.EncodeBranch(insts.OpBGEU, 7, 9, -4094))
		Expect(err).NotTo(HaveOccurred())
		Expect(inst.Op).To(Equal(insts.OpBGEU))
		Expect(inst.Imm).To(Equal(int32(-4094)))

		inst, err = decoder.Decode(insts.EncodeJAL(0, 0x7FFFE))
		Expect(err).NotTo(HaveOccurred())
		Expect(inst.Imm).To(Equal(int32(0x7FFFE)))
	})

	It("should panic on opcodes from the wrong family", func() {
		Expect(func() { insts.EncodeOp(insts.OpADDI, 1, 2, 3) }).To(Panic())
		Expect(func() { insts.EncodeBranch(insts.OpJAL, 1, 2, 4) }).To(Panic())
	})
})
