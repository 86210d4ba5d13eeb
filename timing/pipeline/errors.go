package pipeline

import (
	"errors"
	"fmt"
)

// ErrCycleLimit is returned by Run when the cycle limit is reached before
// the program halts.
var ErrCycleLimit = errors.New("cycle limit reached")

// HaltStatus describes why the pipeline stopped.
type HaltStatus int

// Halt statuses.
const (
	Running HaltStatus = iota
	HaltEbreak
	HaltFatal
	HaltCycleLimit
)

func (s HaltStatus) String() string {
	switch s {
	case Running:
		return "running"
	case HaltEbreak:
		return "ebreak"
	case HaltFatal:
		return "fatal"
	case HaltCycleLimit:
		return "cycle limit"
	}
	return fmt.Sprintf("HaltStatus(%d)", int(s))
}

// FatalError is raised when a faulting instruction reaches commit.
type FatalError struct {
	PC  uint32
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal at pc 0x%08x: %v", e.PC, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}
