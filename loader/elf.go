package loader

import (
	"debug/elf"
	"encoding/binary"
	"fmt"
	"io"
)

// SegmentFlags represents memory protection flags for a segment.
type SegmentFlags uint32

const (
	// SegmentFlagExecute indicates the segment is executable.
	SegmentFlagExecute SegmentFlags = 1 << iota
	// SegmentFlagWrite indicates the segment is writable.
	SegmentFlagWrite
	// SegmentFlagRead indicates the segment is readable.
	SegmentFlagRead
)

// Segment represents a loadable segment from an ELF binary.
type Segment struct {
	// VirtAddr is the address where this segment should be loaded.
	VirtAddr uint32
	// Data contains the segment contents from the file.
	Data []byte
	// MemSize is the size in memory (may be larger than len(Data) for BSS).
	MemSize uint32
	// Flags contains the segment protection flags.
	Flags SegmentFlags
}

// ReadSegments parses an RV32 ELF executable and returns its entry point
// and loadable segments.
func ReadSegments(path string) (uint32, []Segment, error) {
	f, err := elf.Open(path)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to open ELF file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if f.Class != elf.ELFCLASS32 {
		return 0, nil, fmt.Errorf("not a 32-bit ELF file")
	}

	if f.Machine != elf.EM_RISCV {
		return 0, nil, fmt.Errorf("not a RISC-V ELF file (machine type: %v)", f.Machine)
	}

	if f.Data != elf.ELFDATA2LSB {
		return 0, nil, fmt.Errorf("not a little-endian ELF file")
	}

	var segments []Segment
	for _, phdr := range f.Progs {
		if phdr.Type != elf.PT_LOAD {
			continue
		}

		data := make([]byte, phdr.Filesz)
		if phdr.Filesz > 0 {
			n, err := phdr.ReadAt(data, 0)
			if err != nil && err != io.EOF {
				return 0, nil, fmt.Errorf("failed to read segment at 0x%x: %w", phdr.Vaddr, err)
			}
			if uint64(n) != phdr.Filesz {
				return 0, nil, fmt.Errorf("short read for segment at 0x%x: got %d bytes, expected %d",
					phdr.Vaddr, n, phdr.Filesz)
			}
		}

		var flags SegmentFlags
		if phdr.Flags&elf.PF_X != 0 {
			flags |= SegmentFlagExecute
		}
		if phdr.Flags&elf.PF_W != 0 {
			flags |= SegmentFlagWrite
		}
		if phdr.Flags&elf.PF_R != 0 {
			flags |= SegmentFlagRead
		}

		segments = append(segments, Segment{
			VirtAddr: uint32(phdr.Vaddr),
			Data:     data,
			MemSize:  uint32(phdr.Memsz),
			Flags:    flags,
		})
	}

	return uint32(f.Entry), segments, nil
}

// LoadELF reads an RV32 ELF executable into an Image. Executable segments
// form the instruction image; all others form the data image. Each image
// is mapped at the lowest address among its segments, and gaps and BSS
// are zero-filled.
func LoadELF(path string) (*Image, error) {
	entry, segments, err := ReadSegments(path)
	if err != nil {
		return nil, err
	}

	var text, data []Segment
	for _, seg := range segments {
		if seg.Flags&SegmentFlagExecute != 0 {
			text = append(text, seg)
		} else {
			data = append(data, seg)
		}
	}

	if len(text) == 0 {
		return nil, fmt.Errorf("ELF file has no executable segment")
	}

	img := &Image{Entry: entry}
	img.Offset, img.Text, err = flatten(text)
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		img.DataOffset, img.Data, err = flatten(data)
		if err != nil {
			return nil, err
		}
	}

	return img, nil
}

// flatten lays segments out as consecutive little-endian words starting
// at the lowest segment address.
func flatten(segments []Segment) (uint32, []uint32, error) {
	base := segments[0].VirtAddr
	end := uint64(0)
	for _, seg := range segments {
		if seg.VirtAddr&0x3 != 0 {
			return 0, nil, fmt.Errorf("segment at 0x%x is not word aligned", seg.VirtAddr)
		}
		base = min(base, seg.VirtAddr)
		end = max(end, uint64(seg.VirtAddr)+uint64(max(seg.MemSize, uint32(len(seg.Data)))))
	}

	buf := make([]byte, (end-uint64(base)+3)&^3)
	for _, seg := range segments {
		copy(buf[seg.VirtAddr-base:], seg.Data)
	}

	words := make([]uint32, len(buf)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(buf[i*4:])
	}

	return base, words, nil
}
