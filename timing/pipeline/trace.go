package pipeline

import (
	"context"
	"log/slog"

	"github.com/sarchlab/tomasim/insts"
)

// CommitEvent describes one retired instruction.
type CommitEvent struct {
	Cycle   uint64
	Seq     uint64
	Tag     int
	PC      uint32
	Op      insts.Op
	HasDest bool
	Rd      uint8
	Value   uint32
}

// Tracer observes retirement.
type Tracer interface {
	Commit(event CommitEvent)
}

// TraceRecorder keeps every commit event in memory.
type TraceRecorder struct {
	Events []CommitEvent
}

// Commit records the event.
func (r *TraceRecorder) Commit(event CommitEvent) {
	r.Events = append(r.Events, event)
}

// PCs returns the program counters of the recorded events in commit order.
func (r *TraceRecorder) PCs() []uint32 {
	pcs := make([]uint32, len(r.Events))
	for i, e := range r.Events {
		pcs[i] = e.PC
	}
	return pcs
}

// SlogTracer writes one debug record per retired instruction.
type SlogTracer struct {
	logger *slog.Logger
}

// NewSlogTracer creates a tracer writing to logger.
func NewSlogTracer(logger *slog.Logger) *SlogTracer {
	return &SlogTracer{logger: logger}
}

// Commit logs the event.
func (t *SlogTracer) Commit(event CommitEvent) {
	attrs := []slog.Attr{
		slog.Uint64("cycle", event.Cycle),
		slog.Int("tag", event.Tag),
		slog.String("pc", hex32(event.PC)),
		slog.String("op", event.Op.String()),
	}
	if event.HasDest {
		attrs = append(attrs,
			slog.Int("rd", int(event.Rd)),
			slog.String("value", hex32(event.Value)))
	}
	t.logger.LogAttrs(context.Background(), slog.LevelDebug, "commit", attrs...)
}
