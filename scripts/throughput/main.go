// Command throughput measures decoder and core speed: decodes per second
// with allocation counts, and simulated cycles per second on a tight loop.
package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/sarchlab/tomasim/emu"
	"github.com/sarchlab/tomasim/insts"
	"github.com/sarchlab/tomasim/timing/config"
	"github.com/sarchlab/tomasim/timing/core"
)

func main() {
	decoder := insts.NewDecoder()

	words := []uint32{
		insts.EncodeADDI(1, 2, 42),
		insts.EncodeADD(3, 1, 2),
		insts.EncodeLW(4, 3, 8),
		insts.EncodeBNE(4, 0, -12),
	}

	// Warm up
	for i := 0; i < 1000; i++ {
		_, _ = decoder.Decode(words[0])
	}

	runtime.GC()
	var m1, m2 runtime.MemStats
	runtime.ReadMemStats(&m1)

	start := time.Now()
	iterations := 100000

	for i := 0; i < iterations; i++ {
		for _, w := range words {
			if _, err := decoder.Decode(w); err != nil {
				fmt.Fprintf(os.Stderr, "decode 0x%08x: %v\n", w, err)
				os.Exit(1)
			}
		}
	}

	elapsed := time.Since(start)
	runtime.ReadMemStats(&m2)

	totalDecodes := iterations * len(words)
	allocations := m2.Mallocs - m1.Mallocs
	allocatedBytes := m2.TotalAlloc - m1.TotalAlloc

	fmt.Printf("Decoder Throughput:\n")
	fmt.Printf("===================\n")
	fmt.Printf("Total decode operations: %d\n", totalDecodes)
	fmt.Printf("Time elapsed: %v\n", elapsed)
	fmt.Printf("Decodes per second: %.0f\n", float64(totalDecodes)/elapsed.Seconds())
	fmt.Printf("Allocations per decode: %.3f\n", float64(allocations)/float64(totalDecodes))
	fmt.Printf("Bytes per decode: %.1f\n", float64(allocatedBytes)/float64(totalDecodes))

	r, elapsed, err := runCore(sumProgram(10000))
	if err != nil {
		fmt.Fprintf(os.Stderr, "core: %v\n", err)
		os.Exit(1)
	}

	stats := r.Stats
	fmt.Printf("\nCore Throughput:\n")
	fmt.Printf("================\n")
	fmt.Printf("Simulated cycles: %d\n", stats.Cycles)
	fmt.Printf("Retired instructions: %d (CPI %.3f)\n", stats.Instructions, stats.CPI())
	fmt.Printf("Cycles per second: %.0f\n", float64(stats.Cycles)/elapsed.Seconds())
	fmt.Printf("Result: x1 = %d\n", r.Regs.ReadReg(1))
}

// sumProgram adds 0..limit-1 into x1.
func sumProgram(limit uint32) []uint32 {
	hi := (limit + 0x800) >> 12
	lo := int32(limit<<20) >> 20

	return []uint32{
		insts.EncodeADDI(1, 0, 0),
		insts.EncodeADDI(2, 0, 0),
		insts.EncodeLUI(3, hi),
		insts.EncodeADDI(3, 3, lo),
		insts.EncodeADD(1, 1, 2),
		insts.EncodeADDI(2, 2, 1),
		insts.EncodeBNE(2, 3, -8),
		insts.EncodeEBREAK(),
	}
}

// runCore runs program on a default core and reports the wall time.
func runCore(program []uint32) (core.Result, time.Duration, error) {
	imem := emu.NewMemory(0, 8)
	dmem := emu.NewMemory(0, 8)
	if err := imem.Load(0, program); err != nil {
		return core.Result{}, 0, err
	}

	c, err := core.NewCore(config.DefaultCoreConfig(), imem, dmem)
	if err != nil {
		return core.Result{}, 0, err
	}

	start := time.Now()
	err = c.Run()
	elapsed := time.Since(start)

	return c.Result(), elapsed, err
}
