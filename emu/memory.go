package emu

import (
	"errors"
	"fmt"
)

// Memory access faults. They are fatal to a simulation.
var (
	ErrOutOfBoundsFetch        = errors.New("instruction fetch out of bounds")
	ErrOutOfBoundsMemoryAccess = errors.New("data memory access out of bounds")
	ErrMisalignedAccess        = errors.New("misaligned word access")
)

// StrobeWord enables all four byte lanes of a word write.
const StrobeWord uint8 = 0xF

// Memory is a word-addressed array of 2^depthLog 32-bit words mapped at a
// byte base address. Words are little-endian.
type Memory struct {
	base  uint32
	words []uint32
}

// NewMemory creates a zeroed memory of 2^depthLog words mapped at base.
func NewMemory(base uint32, depthLog uint) *Memory {
	return &Memory{
		base:  base,
		words: make([]uint32, 1<<depthLog),
	}
}

// Base returns the first mapped byte address.
func (m *Memory) Base() uint32 {
	return m.base
}

// Size returns the number of mapped bytes.
func (m *Memory) Size() uint32 {
	return uint32(len(m.words)) * 4
}

// Words returns the backing words. The slice aliases the memory.
func (m *Memory) Words() []uint32 {
	return m.words
}

// Contains reports whether addr falls inside the mapped range.
func (m *Memory) Contains(addr uint32) bool {
	return addr >= m.base && uint64(addr-m.base) < uint64(len(m.words))*4
}

func (m *Memory) index(addr uint32) int {
	return int((addr - m.base) >> 2)
}

// Fetch reads the instruction word at pc.
func (m *Memory) Fetch(pc uint32) (uint32, error) {
	if pc&0x3 != 0 {
		return 0, fmt.Errorf("fetch at 0x%08x: %w", pc, ErrMisalignedAccess)
	}
	if !m.Contains(pc) {
		return 0, fmt.Errorf("fetch at 0x%08x: %w", pc, ErrOutOfBoundsFetch)
	}
	return m.words[m.index(pc)], nil
}

// CheckWord validates a word access without performing it.
func (m *Memory) CheckWord(addr uint32) error {
	if addr&0x3 != 0 {
		return fmt.Errorf("word access at 0x%08x: %w", addr, ErrMisalignedAccess)
	}
	if !m.Contains(addr) {
		return fmt.Errorf("word access at 0x%08x: %w", addr, ErrOutOfBoundsMemoryAccess)
	}
	return nil
}

// ReadWord reads the aligned word at addr.
func (m *Memory) ReadWord(addr uint32) (uint32, error) {
	if err := m.CheckWord(addr); err != nil {
		return 0, err
	}
	return m.words[m.index(addr)], nil
}

// LoadByte reads the byte at addr.
func (m *Memory) LoadByte(addr uint32) (uint8, error) {
	if !m.Contains(addr) {
		return 0, fmt.Errorf("byte access at 0x%08x: %w", addr, ErrOutOfBoundsMemoryAccess)
	}
	return uint8(m.words[m.index(addr)] >> (8 * (addr & 0x3))), nil
}

// WriteWord writes the byte lanes of value selected by strobe into the
// aligned word at addr. Bit i of strobe enables byte i.
func (m *Memory) WriteWord(addr, value uint32, strobe uint8) error {
	if err := m.CheckWord(addr); err != nil {
		return err
	}
	idx := m.index(addr)
	m.words[idx] = MergeStrobe(m.words[idx], value, strobe)
	return nil
}

// Load copies words into memory starting at the byte address addr.
func (m *Memory) Load(addr uint32, words []uint32) error {
	for i, w := range words {
		if err := m.WriteWord(addr+uint32(i)*4, w, StrobeWord); err != nil {
			return err
		}
	}
	return nil
}

// MergeStrobe replaces the byte lanes of old selected by strobe with the
// corresponding lanes of value.
func MergeStrobe(old, value uint32, strobe uint8) uint32 {
	var mask uint32
	for lane := 0; lane < 4; lane++ {
		if strobe&(1<<lane) != 0 {
			mask |= 0xFF << (8 * lane)
		}
	}
	return old&^mask | value&mask
}
