// Command tomasim runs an RV32IM workload on the cycle-accurate
// out-of-order core and prints the halt status, statistics and the final
// architectural state.
//
// Usage:
//
//	tomasim [options] <program.hex> [data.hex] [offsets]
//	tomasim [options] -elf <program.elf>
//
// The offsets file has the form "offset: <hex> data_offset: <hex>".
//
// Exit status is 0 on ebreak, 1 if the workload could not be set up,
// 2 on a fatal fault and 3 when the cycle limit is reached.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"

	"golang.org/x/term"
)

var (
	configPath = flag.String("config", "", "Path to core configuration JSON file")
	elfPath    = flag.String("elf", "", "Load an RV32 ELF executable instead of hex images")
	dcache     = flag.Bool("dcache", false, "Simulate the L1 data cache")
	trace      = flag.Bool("trace", false, "Log every retired instruction to stderr")
	verbose    = flag.Bool("v", false, "Verbose output")
	maxCycles  = flag.Uint64("max-cycles", 0, "Override the configured cycle limit (0 keeps it)")
	dumpWords  = flag.Int("dump-mem", 16, "Number of data memory words to dump")
	cpuProfile = flag.String("cpuprofile", "", "Write a CPU profile to file")
)

func main() {
	flag.Parse()

	if *elfPath == "" && (flag.NArg() < 1 || flag.NArg() > 3) {
		fmt.Fprintf(os.Stderr, "Usage: tomasim [options] <program.hex> [data.hex] [offsets]\n")
		fmt.Fprintf(os.Stderr, "       tomasim [options] -elf <program.elf>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(exitSetup)
	}

	opts := options{
		ConfigPath: *configPath,
		ELFPath:    *elfPath,
		DCache:     *dcache,
		Trace:      *trace,
		Verbose:    *verbose,
		MaxCycles:  *maxCycles,
		DumpWords:  *dumpWords,
		Color:      term.IsTerminal(int(os.Stdout.Fd())),
	}
	if opts.ELFPath == "" {
		opts.ExePath = flag.Arg(0)
		opts.DataPath = flag.Arg(1)
		opts.OffsetPath = flag.Arg(2)
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating CPU profile: %v\n", err)
			os.Exit(exitSetup)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting CPU profile: %v\n", err)
			os.Exit(exitSetup)
		}

		code := run(opts, os.Stdout, os.Stderr)
		pprof.StopCPUProfile()
		_ = f.Close()
		os.Exit(code)
	}

	os.Exit(run(opts, os.Stdout, os.Stderr))
}
