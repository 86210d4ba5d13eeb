package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomasim/timing/pipeline"
)

var _ = Describe("BranchPredictor", func() {
	var bp *pipeline.BranchPredictor

	BeforeEach(func() {
		bp = pipeline.NewBranchPredictor(pipeline.BranchPredictorConfig{LogSize: 4})
	})

	Describe("Prediction", func() {
		It("should start weakly taken", func() {
			Expect(bp.Counter(0x100)).To(Equal(pipeline.WeaklyTaken))
		})

		It("should not predict taken without a BTB hit", func() {
			pred := bp.Predict(0x100)
			Expect(pred.TargetKnown).To(BeFalse())
			Expect(pred.Taken).To(BeFalse())
		})

		It("should predict taken to the learned target", func() {
			bp.Update(0x100, true, 0x40, true)

			pred := bp.Predict(0x100)
			Expect(pred.Taken).To(BeTrue())
			Expect(pred.TargetKnown).To(BeTrue())
			Expect(pred.Target).To(Equal(uint32(0x40)))
		})

		It("should learn not-taken pattern", func() {
			bp.Update(0x100, true, 0x40, false)
			for i := 0; i < 4; i++ {
				bp.Update(0x100, false, 0x104, false)
			}

			pred := bp.Predict(0x100)
			Expect(pred.TargetKnown).To(BeTrue())
			Expect(pred.Taken).To(BeFalse())
		})

		It("should keep adjacent instruction words in separate entries", func() {
			bp.Update(0x100, false, 0x104, false)
			bp.Update(0x100, false, 0x104, false)

			Expect(bp.Counter(0x100)).To(Equal(pipeline.StronglyNotTaken))
			Expect(bp.Counter(0x104)).To(Equal(pipeline.WeaklyTaken))
		})

		It("should miss the BTB for an aliasing PC with another tag", func() {
			bp.Update(0x100, true, 0x40, true)

			// 16 entries: 0x100 and 0x140 share index 0 but differ in tag.
			pred := bp.Predict(0x140)
			Expect(pred.TargetKnown).To(BeFalse())
			Expect(pred.Taken).To(BeFalse())
		})
	})

	Describe("2-bit saturating counter", func() {
		It("should move one step per resolution", func() {
			pc := uint32(0x200)

			bp.Update(pc, true, 0x10, false)
			Expect(bp.Counter(pc)).To(Equal(pipeline.StronglyTaken))

			bp.Update(pc, false, 0, false)
			Expect(bp.Counter(pc)).To(Equal(pipeline.WeaklyTaken))

			bp.Update(pc, false, 0, false)
			Expect(bp.Counter(pc)).To(Equal(pipeline.WeaklyNotTaken))
		})

		It("should saturate at both ends", func() {
			pc := uint32(0x200)

			for i := 0; i < 5; i++ {
				bp.Update(pc, true, 0x10, false)
			}
			Expect(bp.Counter(pc)).To(Equal(pipeline.StronglyTaken))

			for i := 0; i < 5; i++ {
				bp.Update(pc, false, 0, false)
			}
			Expect(bp.Counter(pc)).To(Equal(pipeline.StronglyNotTaken))
		})

		It("should obey the counter law for any outcome sequence", func() {
			pc := uint32(0x300)
			outcomes := []bool{true, false, false, false, true, true, true, true, false, true}

			expected := pipeline.WeaklyTaken
			for _, taken := range outcomes {
				bp.Update(pc, taken, 0x10, false)
				if taken && expected < pipeline.StronglyTaken {
					expected++
				}
				if !taken && expected > pipeline.StronglyNotTaken {
					expected--
				}
				Expect(bp.Counter(pc)).To(Equal(expected))
			}
		})
	})

	Describe("Statistics", func() {
		It("should track predictions and resolutions", func() {
			bp.Predict(0x100)
			bp.Update(0x100, true, 0x40, true)
			bp.Predict(0x100)
			bp.Update(0x100, true, 0x40, false)

			stats := bp.Stats()
			Expect(stats.Predictions).To(Equal(uint64(2)))
			Expect(stats.Resolutions).To(Equal(uint64(2)))
			Expect(stats.Correct).To(Equal(uint64(1)))
			Expect(stats.Mispredictions).To(Equal(uint64(1)))
			Expect(stats.BTBHits).To(Equal(uint64(1)))
			Expect(stats.BTBMisses).To(Equal(uint64(1)))
			Expect(stats.Accuracy()).To(BeNumerically("~", 50.0, 0.01))
		})

		It("should reset state and statistics", func() {
			bp.Update(0x100, true, 0x40, true)
			bp.Reset()

			Expect(bp.Stats()).To(Equal(pipeline.BranchPredictorStats{}))
			Expect(bp.Predict(0x100).TargetKnown).To(BeFalse())
			Expect(bp.Counter(0x100)).To(Equal(pipeline.WeaklyTaken))
		})
	})
})
