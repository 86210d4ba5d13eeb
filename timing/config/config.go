// Package config holds the sizing parameters of the out-of-order core.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Names of the units that compete for the common data bus.
const (
	UnitALU = "alu"
	UnitLSQ = "lsq"
	UnitMUL = "mul"
	UnitDIV = "div"
)

// MaxROBSize bounds the reorder buffer so tags stay small integers.
const MaxROBSize = 256

// CoreConfig holds the structural sizes of the core and its memories.
type CoreConfig struct {
	// DepthLog is log2 of the number of words in each memory.
	// Default: 16 (256 KiB).
	DepthLog uint `json:"depth_log"`

	// BHTLogSize is log2 of the number of branch predictor entries.
	// Default: 6 (64 entries).
	BHTLogSize uint `json:"bht_log_size"`

	// ROBSize is the number of reorder buffer entries. Default: 8.
	ROBSize int `json:"rob_size"`

	// RSSize is the number of reservation station entries. Default: 8.
	RSSize int `json:"rs_size"`

	// LSQSize is the number of load/store queue entries. Default: 8.
	LSQSize int `json:"lsq_size"`

	// CDBPriority lists the units from highest to lowest priority for the
	// common data bus. Default: alu, lsq, mul, div.
	CDBPriority []string `json:"cdb_priority"`

	// MaxCycles stops a run that has not halted. 0 means no limit.
	// Default: 1,000,000.
	MaxCycles uint64 `json:"max_cycles"`
}

// DefaultCoreConfig returns a CoreConfig with the default sizes.
func DefaultCoreConfig() *CoreConfig {
	return &CoreConfig{
		DepthLog:    16,
		BHTLogSize:  6,
		ROBSize:     8,
		RSSize:      8,
		LSQSize:     8,
		CDBPriority: []string{UnitALU, UnitLSQ, UnitMUL, UnitDIV},
		MaxCycles:   1_000_000,
	}
}

// LoadConfig loads a CoreConfig from a JSON file. Fields missing from the
// file keep their defaults.
func LoadConfig(path string) (*CoreConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read core config file: %w", err)
	}

	config := DefaultCoreConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse core config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a CoreConfig to a JSON file.
func (c *CoreConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize core config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write core config file: %w", err)
	}

	return nil
}

// Validate checks that all sizes are usable.
func (c *CoreConfig) Validate() error {
	if c.DepthLog == 0 || c.DepthLog > 28 {
		return fmt.Errorf("depth_log must be in [1, 28], got %d", c.DepthLog)
	}
	if c.BHTLogSize == 0 || c.BHTLogSize > 20 {
		return fmt.Errorf("bht_log_size must be in [1, 20], got %d", c.BHTLogSize)
	}
	if c.ROBSize < 2 || c.ROBSize > MaxROBSize {
		return fmt.Errorf("rob_size must be in [2, %d], got %d", MaxROBSize, c.ROBSize)
	}
	if c.RSSize <= 0 {
		return fmt.Errorf("rs_size must be > 0")
	}
	if c.LSQSize <= 0 {
		return fmt.Errorf("lsq_size must be > 0")
	}

	seen := make(map[string]bool, len(c.CDBPriority))
	for _, unit := range c.CDBPriority {
		switch unit {
		case UnitALU, UnitLSQ, UnitMUL, UnitDIV:
		default:
			return fmt.Errorf("cdb_priority: unknown unit %q", unit)
		}
		if seen[unit] {
			return fmt.Errorf("cdb_priority: duplicate unit %q", unit)
		}
		seen[unit] = true
	}
	if len(seen) != 4 {
		return fmt.Errorf("cdb_priority must name alu, lsq, mul and div")
	}

	return nil
}

// Clone returns a deep copy of the CoreConfig.
func (c *CoreConfig) Clone() *CoreConfig {
	clone := *c
	clone.CDBPriority = append([]string(nil), c.CDBPriority...)
	return &clone
}
