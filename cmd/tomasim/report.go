package main

import (
	"fmt"
	"io"

	"github.com/sarchlab/tomasim/emu"
	"github.com/sarchlab/tomasim/timing/cache"
	"github.com/sarchlab/tomasim/timing/core"
	"github.com/sarchlab/tomasim/timing/pipeline"
)

const (
	ansiBold  = "\x1b[1m"
	ansiDim   = "\x1b[2m"
	ansiRed   = "\x1b[31m"
	ansiReset = "\x1b[0m"
)

func percent(n, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return 100.0 * float64(n) / float64(total)
}

// printReport writes the halt status and statistics of a finished run.
func printReport(w io.Writer, programPath string, r core.Result, cs cache.Statistics, hasCache bool) {
	p := r.Pipeline

	_, _ = fmt.Fprintf(w, "\n")
	_, _ = fmt.Fprintf(w, "Program: %s\n", programPath)
	_, _ = fmt.Fprintf(w, "Status: %s\n", r.Status)
	if r.Err != nil {
		_, _ = fmt.Fprintf(w, "Error: %v\n", r.Err)
	}
	if r.Status == pipeline.HaltFatal {
		_, _ = fmt.Fprintf(w, "Fault PC: 0x%08x\n", r.FaultPC)
	}
	_, _ = fmt.Fprintf(w, "Total Instructions: %d\n", r.Stats.Instructions)
	_, _ = fmt.Fprintf(w, "Total Cycles: %d\n", r.Stats.Cycles)
	_, _ = fmt.Fprintf(w, "CPI: %.2f\n", r.Stats.CPI())
	_, _ = fmt.Fprintf(w, "\n")

	_, _ = fmt.Fprintf(w, "Stalls:\n")
	_, _ = fmt.Fprintf(w, "  ROB full:        %6d cycles (%5.1f%%)\n",
		p.ROBFullStalls, percent(p.ROBFullStalls, p.Cycles))
	_, _ = fmt.Fprintf(w, "  RS full:         %6d cycles (%5.1f%%)\n",
		p.RSFullStalls, percent(p.RSFullStalls, p.Cycles))
	_, _ = fmt.Fprintf(w, "  LSQ full:        %6d cycles (%5.1f%%)\n",
		p.LSQFullStalls, percent(p.LSQFullStalls, p.Cycles))
	_, _ = fmt.Fprintf(w, "  Commit waiting:  %6d cycles (%5.1f%%)\n",
		p.CommitStalls, percent(p.CommitStalls, p.Cycles))
	_, _ = fmt.Fprintf(w, "\n")

	_, _ = fmt.Fprintf(w, "Pipeline Events:\n")
	_, _ = fmt.Fprintf(w, "  Dispatched:       %d\n", p.Dispatched)
	_, _ = fmt.Fprintf(w, "  Flushes:          %d\n", p.Flushes)
	_, _ = fmt.Fprintf(w, "  Squashed:         %d\n", p.Squashed)
	_, _ = fmt.Fprintf(w, "  CDB conflicts:    %d\n", p.CDBConflicts)
	_, _ = fmt.Fprintf(w, "  Loads forwarded:  %d\n", p.LoadsForwarded)
	_, _ = fmt.Fprintf(w, "  Ambiguity stalls: %d\n", p.LoadAmbiguityStalls)
	_, _ = fmt.Fprintf(w, "\n")

	b := r.Branch
	_, _ = fmt.Fprintf(w, "Branch Predictor:\n")
	_, _ = fmt.Fprintf(w, "  Resolutions:    %d\n", b.Resolutions)
	_, _ = fmt.Fprintf(w, "  Mispredictions: %d\n", b.Mispredictions)
	_, _ = fmt.Fprintf(w, "  Accuracy:       %.1f%%\n", b.Accuracy())
	_, _ = fmt.Fprintf(w, "  BTB hit rate:   %.1f%%\n", b.BTBHitRate())

	if hasCache {
		_, _ = fmt.Fprintf(w, "\n")
		_, _ = fmt.Fprintf(w, "D-Cache:\n")
		_, _ = fmt.Fprintf(w, "  Hits:       %d\n", cs.Hits)
		_, _ = fmt.Fprintf(w, "  Misses:     %d\n", cs.Misses)
		_, _ = fmt.Fprintf(w, "  Writebacks: %d\n", cs.Writebacks)
		_, _ = fmt.Fprintf(w, "  Hit rate:   %.1f%%\n", cs.HitRate())
	}
}

// dumpState writes the register file, four registers per row, and the
// first words of data memory. With color, zero registers are dimmed and
// registers holding a value are bold.
func dumpState(w io.Writer, r core.Result, dmem *emu.Memory, words int, color bool) {
	_, _ = fmt.Fprintf(w, "\n")
	_, _ = fmt.Fprintf(w, "Registers:\n")

	for row := 0; row < emu.NumRegs; row += 4 {
		_, _ = fmt.Fprintf(w, " ")
		for reg := row; reg < row+4; reg++ {
			v := r.Regs.ReadReg(uint8(reg))
			cell := fmt.Sprintf("x%-2d 0x%08x", reg, v)
			if color {
				style := ansiBold
				if v == 0 {
					style = ansiDim
				}
				cell = style + cell + ansiReset
			}
			_, _ = fmt.Fprintf(w, " %s", cell)
		}
		_, _ = fmt.Fprintf(w, "\n")
	}

	if words <= 0 {
		return
	}

	memWords := dmem.Words()
	words = min(words, len(memWords))

	_, _ = fmt.Fprintf(w, "\n")
	_, _ = fmt.Fprintf(w, "Data Memory:\n")
	for i := 0; i < words; i += 4 {
		addr := dmem.Base() + uint32(i)*4
		if color {
			_, _ = fmt.Fprintf(w, "  %s0x%08x%s:", ansiRed, addr, ansiReset)
		} else {
			_, _ = fmt.Fprintf(w, "  0x%08x:", addr)
		}
		for j := i; j < min(i+4, words); j++ {
			_, _ = fmt.Fprintf(w, " %08x", memWords[j])
		}
		_, _ = fmt.Fprintf(w, "\n")
	}
}
