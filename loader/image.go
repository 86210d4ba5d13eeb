// Package loader reads workload images for the core: hex word images with
// an offset descriptor, and RV32 ELF executables.
package loader

import (
	"fmt"

	"github.com/sarchlab/tomasim/emu"
)

// Image is a workload ready to be placed in instruction and data memory.
type Image struct {
	// Offset is the byte address the executable image is mapped at.
	Offset uint32
	// DataOffset is the byte address the data image is mapped at.
	DataOffset uint32
	// Entry is the address execution starts at.
	Entry uint32
	// Text holds the instruction words.
	Text []uint32
	// Data holds the initial data memory words.
	Data []uint32
}

// Memories creates instruction and data memories of 2^depthLog words at
// the image offsets and loads the image into them.
func (img *Image) Memories(depthLog uint) (imem, dmem *emu.Memory, err error) {
	imem = emu.NewMemory(img.Offset, depthLog)
	if err := imem.Load(img.Offset, img.Text); err != nil {
		return nil, nil, fmt.Errorf("executable image does not fit: %w", err)
	}

	dmem = emu.NewMemory(img.DataOffset, depthLog)
	if err := dmem.Load(img.DataOffset, img.Data); err != nil {
		return nil, nil, fmt.Errorf("data image does not fit: %w", err)
	}

	return imem, dmem, nil
}
