package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomasim/insts"
)

var _ = Describe("Insts Package", func() {
	It("should have an Instruction type", func() {
		var i insts.Instruction
		Expect(i).To(BeZero())
	})

	It("should have a Decoder type", func() {
		decoder := insts.NewDecoder()
		Expect(decoder).ToNot(BeNil())
	})

	It("should classify opcodes", func() {
		Expect(insts.OpMULHSU.Class()).To(Equal(insts.ClassMultiply))
		Expect(insts.OpDIVU.Class()).To(Equal(insts.ClassDivide))
		Expect(insts.OpREM.Class()).To(Equal(insts.ClassRemainder))
		Expect(insts.OpSLTIU.Class()).To(Equal(insts.ClassCompare))
		Expect(insts.OpAUIPC.Class()).To(Equal(insts.ClassUpper))
		Expect(insts.OpEBREAK.Class()).To(Equal(insts.ClassSystem))
	})
})
