// Package cache provides an optional write-back L1 data cache for the core,
// built on the Akita cache directory.
package cache

import (
	"fmt"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/sarchlab/tomasim/emu"
)

// Config holds cache configuration parameters.
type Config struct {
	// Size in bytes
	Size int
	// Associativity (number of ways)
	Associativity int
	// BlockSize in bytes (cache line size)
	BlockSize int
}

// DefaultL1DConfig returns the default data cache: 4KB, 4-way, 32B lines.
func DefaultL1DConfig() Config {
	return Config{
		Size:          4 * 1024,
		Associativity: 4,
		BlockSize:     32,
	}
}

// Validate checks that the geometry describes at least one whole set of
// word-sized blocks.
func (c Config) Validate() error {
	if c.BlockSize < 4 || c.BlockSize&(c.BlockSize-1) != 0 {
		return fmt.Errorf("block size must be a power of two >= 4, got %d", c.BlockSize)
	}
	if c.Associativity <= 0 {
		return fmt.Errorf("associativity must be > 0")
	}
	if c.Size <= 0 || c.Size%(c.Associativity*c.BlockSize) != 0 {
		return fmt.Errorf("size %d is not a multiple of associativity * block size", c.Size)
	}
	return nil
}

// Statistics holds cache performance statistics.
type Statistics struct {
	Reads      uint64
	Writes     uint64
	Hits       uint64
	Misses     uint64
	Evictions  uint64
	Writebacks uint64
}

// HitRate returns the hit rate as a percentage.
func (s Statistics) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// BackingStore is the next level in the memory hierarchy.
type BackingStore interface {
	CheckWord(addr uint32) error
	ReadWord(addr uint32) (uint32, error)
	WriteWord(addr, value uint32, strobe uint8) error
}

// Cache is a write-back, write-allocate data cache. It serves the same
// word interface as the memory behind it, so the core can use either.
type Cache struct {
	config Config

	// Akita cache directory for tag/state management
	directory *akitacache.DirectoryImpl

	// Data storage - indexed by (setID * associativity + wayID)
	dataStore [][]uint32

	stats Statistics

	backing BackingStore
}

// New creates a new cache with the given configuration.
func New(config Config, backing BackingStore) (*Cache, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cache config: %w", err)
	}

	numSets := config.Size / (config.Associativity * config.BlockSize)
	totalBlocks := numSets * config.Associativity

	dataStore := make([][]uint32, totalBlocks)
	for i := range dataStore {
		dataStore[i] = make([]uint32, config.BlockSize/4)
	}

	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
		dataStore: dataStore,
		backing:   backing,
	}, nil
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// ResetStats clears cache statistics.
func (c *Cache) ResetStats() {
	c.stats = Statistics{}
}

func (c *Cache) blockIndex(block *akitacache.Block) int {
	return block.SetID*c.config.Associativity + block.WayID
}

func (c *Cache) blockAddr(addr uint32) uint32 {
	return addr &^ uint32(c.config.BlockSize-1)
}

func (c *Cache) wordOffset(addr uint32) int {
	return int(addr&uint32(c.config.BlockSize-1)) >> 2
}

// ReadWord reads the aligned word at addr. Faults are reported exactly as
// the backing store would report them.
func (c *Cache) ReadWord(addr uint32) (uint32, error) {
	if err := c.backing.CheckWord(addr); err != nil {
		return 0, err
	}

	c.stats.Reads++

	block, err := c.access(addr)
	if err != nil {
		return 0, err
	}

	return c.dataStore[c.blockIndex(block)][c.wordOffset(addr)], nil
}

// WriteWord merges the strobed bytes of value into the word at addr.
func (c *Cache) WriteWord(addr, value uint32, strobe uint8) error {
	if err := c.backing.CheckWord(addr); err != nil {
		return err
	}

	c.stats.Writes++

	block, err := c.access(addr)
	if err != nil {
		return err
	}

	words := c.dataStore[c.blockIndex(block)]
	off := c.wordOffset(addr)
	words[off] = emu.MergeStrobe(words[off], value, strobe)
	block.IsDirty = true

	return nil
}

// access returns the block holding addr, filling it on a miss.
func (c *Cache) access(addr uint32) (*akitacache.Block, error) {
	blockAddr := c.blockAddr(addr)

	block := c.directory.Lookup(0, uint64(blockAddr))
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)
		return block, nil
	}

	c.stats.Misses++

	victim := c.directory.FindVictim(uint64(blockAddr))
	if victim == nil {
		return nil, fmt.Errorf("no victim block for 0x%08x", blockAddr)
	}

	if victim.IsValid {
		c.stats.Evictions++
		if err := c.writeBack(victim); err != nil {
			return nil, err
		}
	}

	// Words of the line that fall outside the backing store stay zero;
	// they can never be addressed.
	words := c.dataStore[c.blockIndex(victim)]
	for i := range words {
		wordAddr := blockAddr + uint32(i)*4
		words[i] = 0
		if c.backing.CheckWord(wordAddr) != nil {
			continue
		}
		w, err := c.backing.ReadWord(wordAddr)
		if err != nil {
			return nil, err
		}
		words[i] = w
	}

	victim.Tag = uint64(blockAddr)
	victim.IsValid = true
	victim.IsDirty = false
	c.directory.Visit(victim)

	return victim, nil
}

func (c *Cache) writeBack(block *akitacache.Block) error {
	if !block.IsDirty {
		return nil
	}

	c.stats.Writebacks++
	base := uint32(block.Tag)
	for i, w := range c.dataStore[c.blockIndex(block)] {
		wordAddr := base + uint32(i)*4
		if c.backing.CheckWord(wordAddr) != nil {
			continue
		}
		if err := c.backing.WriteWord(wordAddr, w, emu.StrobeWord); err != nil {
			return err
		}
	}
	block.IsDirty = false
	return nil
}

// Invalidate drops the line holding addr without writing it back.
func (c *Cache) Invalidate(addr uint32) {
	block := c.directory.Lookup(0, uint64(c.blockAddr(addr)))
	if block != nil && block.IsValid {
		block.IsValid = false
		block.IsDirty = false
	}
}

// Flush writes back all dirty blocks and invalidates them.
func (c *Cache) Flush() error {
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			if block.IsValid {
				if err := c.writeBack(block); err != nil {
					return err
				}
			}
			block.IsValid = false
			block.IsDirty = false
		}
	}
	return nil
}

// Reset invalidates all cache lines without writeback.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
}
