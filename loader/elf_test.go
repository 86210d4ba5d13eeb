package loader_test

import (
	"encoding/binary"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomasim/insts"
	"github.com/sarchlab/tomasim/loader"
)

const (
	emRISCV = 243
	emARM   = 40
	pfX     = 0x1
	pfW     = 0x2
	pfR     = 0x4
)

type testSegment struct {
	vaddr uint32
	flags uint32
	data  []byte
	memsz uint32
}

func wordsToBytes(words ...uint32) []byte {
	b := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(b[i*4:], w)
	}
	return b
}

// createELF32 writes a minimal little-endian ELF32 executable.
func createELF32(path string, machine uint16, entry uint32, segments ...testSegment) {
	const ehsize, phentsize = 52, 32

	header := make([]byte, ehsize)
	copy(header[0:4], []byte{0x7f, 'E', 'L', 'F'})
	header[4] = 1 // ELFCLASS32
	header[5] = 1 // little endian
	header[6] = 1 // version
	binary.LittleEndian.PutUint16(header[16:18], 2) // executable
	binary.LittleEndian.PutUint16(header[18:20], machine)
	binary.LittleEndian.PutUint32(header[20:24], 1)
	binary.LittleEndian.PutUint32(header[24:28], entry)
	binary.LittleEndian.PutUint32(header[28:32], ehsize) // phoff
	binary.LittleEndian.PutUint16(header[40:42], ehsize)
	binary.LittleEndian.PutUint16(header[42:44], phentsize)
	binary.LittleEndian.PutUint16(header[44:46], uint16(len(segments)))

	offset := uint32(ehsize + phentsize*len(segments))
	var progHeaders, contents []byte
	for _, seg := range segments {
		memsz := seg.memsz
		if memsz == 0 {
			memsz = uint32(len(seg.data))
		}

		ph := make([]byte, phentsize)
		binary.LittleEndian.PutUint32(ph[0:4], 1) // PT_LOAD
		binary.LittleEndian.PutUint32(ph[4:8], offset)
		binary.LittleEndian.PutUint32(ph[8:12], seg.vaddr)
		binary.LittleEndian.PutUint32(ph[12:16], seg.vaddr)
		binary.LittleEndian.PutUint32(ph[16:20], uint32(len(seg.data)))
		binary.LittleEndian.PutUint32(ph[20:24], memsz)
		binary.LittleEndian.PutUint32(ph[24:28], seg.flags)
		binary.LittleEndian.PutUint32(ph[28:32], 4)

		progHeaders = append(progHeaders, ph...)
		contents = append(contents, seg.data...)
		offset += uint32(len(seg.data))
	}

	file := append(append(header, progHeaders...), contents...)
	Expect(os.WriteFile(path, file, 0644)).To(Succeed())
}

// createELF64 writes a header-only ELF64 file.
func createELF64(path string) {
	header := make([]byte, 64)
	copy(header[0:4], []byte{0x7f, 'E', 'L', 'F'})
	header[4] = 2 // ELFCLASS64
	header[5] = 1
	header[6] = 1
	binary.LittleEndian.PutUint16(header[16:18], 2)
	binary.LittleEndian.PutUint16(header[18:20], emRISCV)
	binary.LittleEndian.PutUint32(header[20:24], 1)
	binary.LittleEndian.PutUint16(header[52:54], 64)
	binary.LittleEndian.PutUint16(header[54:56], 56)
	Expect(os.WriteFile(path, header, 0644)).To(Succeed())
}

var _ = Describe("ELF Loader", func() {
	var tempDir string

	code := []uint32{
		insts.EncodeADDI(1, 0, 42),
		insts.EncodeEBREAK(),
	}

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "elf-loader-test")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		_ = os.RemoveAll(tempDir)
	})

	Context("with a valid RV32 ELF binary", func() {
		var elfPath string

		BeforeEach(func() {
			elfPath = filepath.Join(tempDir, "test.elf")
			createELF32(elfPath, emRISCV, 0x104,
				testSegment{vaddr: 0x100, flags: pfR | pfX, data: wordsToBytes(0, code[0], code[1])},
				testSegment{vaddr: 0x2000, flags: pfR | pfW, data: wordsToBytes(7, 8), memsz: 16},
			)
		})

		It("should read the segments and entry point", func() {
			entry, segments, err := loader.ReadSegments(elfPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(entry).To(Equal(uint32(0x104)))
			Expect(segments).To(HaveLen(2))
			Expect(segments[0].Flags & loader.SegmentFlagExecute).NotTo(BeZero())
			Expect(segments[1].Flags & loader.SegmentFlagWrite).NotTo(BeZero())
			Expect(segments[1].MemSize).To(Equal(uint32(16)))
		})

		It("should split text and data images", func() {
			img, err := loader.LoadELF(elfPath)
			Expect(err).NotTo(HaveOccurred())

			Expect(img.Entry).To(Equal(uint32(0x104)))
			Expect(img.Offset).To(Equal(uint32(0x100)))
			Expect(img.Text).To(Equal([]uint32{0, code[0], code[1]}))
			Expect(img.DataOffset).To(Equal(uint32(0x2000)))
			Expect(img.Data).To(Equal([]uint32{7, 8, 0, 0}))
		})

		It("should build memories holding the image", func() {
			img, err := loader.LoadELF(elfPath)
			Expect(err).NotTo(HaveOccurred())

			imem, dmem, err := img.Memories(8)
			Expect(err).NotTo(HaveOccurred())
			Expect(imem.Fetch(0x104)).To(Equal(code[0]))
			Expect(dmem.ReadWord(0x2004)).To(Equal(uint32(8)))
		})
	})

	Context("with an invalid file", func() {
		It("should return error for non-existent file", func() {
			_, err := loader.LoadELF("/nonexistent/path/to/file.elf")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("failed to open"))
		})

		It("should return error for non-ELF file", func() {
			notElfPath := filepath.Join(tempDir, "not-elf.bin")
			Expect(os.WriteFile(notElfPath, []byte("not an elf file"), 0644)).To(Succeed())

			_, err := loader.LoadELF(notElfPath)
			Expect(err).To(HaveOccurred())
		})

		It("should reject a 64-bit ELF", func() {
			path := filepath.Join(tempDir, "elf64.elf")
			createELF64(path)

			_, err := loader.LoadELF(path)
			Expect(err).To(MatchError(ContainSubstring("not a 32-bit")))
		})

		It("should reject another machine", func() {
			path := filepath.Join(tempDir, "arm.elf")
			createELF32(path, emARM, 0, testSegment{vaddr: 0, flags: pfX, data: wordsToBytes(code...)})

			_, err := loader.LoadELF(path)
			Expect(err).To(MatchError(ContainSubstring("not a RISC-V")))
		})

		It("should require an executable segment", func() {
			path := filepath.Join(tempDir, "data.elf")
			createELF32(path, emRISCV, 0, testSegment{vaddr: 0, flags: pfR | pfW, data: wordsToBytes(1)})

			_, err := loader.LoadELF(path)
			Expect(err).To(MatchError(ContainSubstring("no executable segment")))
		})
	})
})
