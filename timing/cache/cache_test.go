package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomasim/emu"
	"github.com/sarchlab/tomasim/timing/cache"
)

var _ = Describe("Cache", func() {
	var (
		c      *cache.Cache
		memory *emu.Memory
	)

	BeforeEach(func() {
		// 8 KiB of memory at 0x0.
		memory = emu.NewMemory(0, 11)
		// Small cache for testing: 1KB, 4-way, 64B lines = 4 sets.
		config := cache.Config{
			Size:          1024,
			Associativity: 4,
			BlockSize:     64,
		}
		var err error
		c, err = cache.New(config, memory)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Read operations", func() {
		It("should miss on cold cache", func() {
			Expect(memory.WriteWord(0x100, 0xDEADBEEF, emu.StrobeWord)).To(Succeed())

			Expect(c.ReadWord(0x100)).To(Equal(uint32(0xDEADBEEF)))

			stats := c.Stats()
			Expect(stats.Reads).To(Equal(uint64(1)))
			Expect(stats.Misses).To(Equal(uint64(1)))
			Expect(stats.Hits).To(Equal(uint64(0)))
		})

		It("should hit on different words in the same line", func() {
			Expect(memory.Load(0x100, []uint32{0x11111111, 0x22222222})).To(Succeed())

			Expect(c.ReadWord(0x100)).To(Equal(uint32(0x11111111)))
			Expect(c.ReadWord(0x104)).To(Equal(uint32(0x22222222)))

			stats := c.Stats()
			Expect(stats.Hits).To(Equal(uint64(1)))
			Expect(stats.HitRate()).To(BeNumerically("~", 50.0, 0.01))
		})

		It("should report the backing store's faults", func() {
			_, err := c.ReadWord(0x102)
			Expect(err).To(MatchError(emu.ErrMisalignedAccess))

			_, err = c.ReadWord(0x4000)
			Expect(err).To(MatchError(emu.ErrOutOfBoundsMemoryAccess))

			Expect(c.Stats().Reads).To(BeZero())
		})
	})

	Describe("Write operations", func() {
		It("should write-allocate and keep data out of memory until flushed", func() {
			Expect(c.WriteWord(0x200, 0x12345678, emu.StrobeWord)).To(Succeed())

			Expect(c.ReadWord(0x200)).To(Equal(uint32(0x12345678)))
			Expect(memory.Words()[0x200/4]).To(BeZero())
			Expect(c.Stats().Misses).To(Equal(uint64(1)))
		})

		It("should merge byte strobes", func() {
			Expect(memory.WriteWord(0x200, 0xAABBCCDD, emu.StrobeWord)).To(Succeed())
			Expect(c.WriteWord(0x200, 0x00000011, 0x1)).To(Succeed())

			Expect(c.ReadWord(0x200)).To(Equal(uint32(0xAABBCC11)))
		})

		It("should reject a misaligned write", func() {
			err := c.WriteWord(0x201, 1, emu.StrobeWord)
			Expect(err).To(MatchError(emu.ErrMisalignedAccess))
		})
	})

	Describe("Eviction", func() {
		// Set stride is 4 sets * 64B = 256B.
		It("should write back the LRU dirty block", func() {
			Expect(c.WriteWord(0x000, 0x11111111, emu.StrobeWord)).To(Succeed())
			Expect(c.WriteWord(0x100, 0x22222222, emu.StrobeWord)).To(Succeed())
			Expect(c.WriteWord(0x200, 0x33333333, emu.StrobeWord)).To(Succeed())
			Expect(c.WriteWord(0x300, 0x44444444, emu.StrobeWord)).To(Succeed())

			// Touch the others so 0x000 is the LRU.
			_, _ = c.ReadWord(0x100)
			_, _ = c.ReadWord(0x200)
			_, _ = c.ReadWord(0x300)

			Expect(c.WriteWord(0x400, 0x55555555, emu.StrobeWord)).To(Succeed())

			Expect(memory.Words()[0]).To(Equal(uint32(0x11111111)))
			stats := c.Stats()
			Expect(stats.Evictions).To(Equal(uint64(1)))
			Expect(stats.Writebacks).To(Equal(uint64(1)))

			Expect(c.ReadWord(0x000)).To(Equal(uint32(0x11111111)))
		})
	})

	Describe("Flush", func() {
		It("should write back all dirty blocks", func() {
			Expect(c.WriteWord(0x000, 0x11111111, emu.StrobeWord)).To(Succeed())
			Expect(c.WriteWord(0x1000, 0x22222222, emu.StrobeWord)).To(Succeed())
			_, _ = c.ReadWord(0x800)

			Expect(c.Flush()).To(Succeed())

			Expect(memory.Words()[0]).To(Equal(uint32(0x11111111)))
			Expect(memory.Words()[0x1000/4]).To(Equal(uint32(0x22222222)))
			Expect(c.Stats().Writebacks).To(Equal(uint64(2)))
		})

		It("should drop lines on invalidate", func() {
			Expect(c.WriteWord(0x000, 0x11111111, emu.StrobeWord)).To(Succeed())
			c.Invalidate(0x000)

			Expect(c.Flush()).To(Succeed())
			Expect(memory.Words()[0]).To(BeZero())
		})
	})

	Describe("Lines larger than memory", func() {
		It("should fill only the mapped words", func() {
			small := emu.NewMemory(0x1000, 2)
			Expect(small.Load(0x1000, []uint32{1, 2, 3, 4})).To(Succeed())

			sc, err := cache.New(cache.DefaultL1DConfig(), small)
			Expect(err).NotTo(HaveOccurred())

			Expect(sc.ReadWord(0x100C)).To(Equal(uint32(4)))
			Expect(sc.WriteWord(0x1000, 9, emu.StrobeWord)).To(Succeed())
			Expect(sc.Flush()).To(Succeed())
			Expect(small.Words()).To(Equal([]uint32{9, 2, 3, 4}))
		})
	})

	Describe("Configuration", func() {
		It("should provide a valid default", func() {
			config := cache.DefaultL1DConfig()
			Expect(config.Validate()).To(Succeed())
			Expect(config.BlockSize).To(Equal(32))
		})

		It("should reject a bad geometry", func() {
			_, err := cache.New(cache.Config{Size: 1000, Associativity: 4, BlockSize: 64}, memory)
			Expect(err).To(HaveOccurred())

			_, err = cache.New(cache.Config{Size: 1024, Associativity: 4, BlockSize: 3}, memory)
			Expect(err).To(HaveOccurred())
		})
	})
})
