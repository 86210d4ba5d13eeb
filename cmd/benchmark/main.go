// Command benchmark runs the Tomasim workload harness.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	-csv        Output results in CSV format (default: human-readable)
//	-json       Output results in JSON format
//	-config     Path to core configuration JSON file
//	-no-dcache  Disable data cache simulation
//	-v          Print one line per workload as it finishes
//
// Example:
//
//	# Run all workloads with human-readable output
//	go run ./cmd/benchmark
//
//	# Output CSV for spreadsheet comparison
//	go run ./cmd/benchmark -csv > results.csv
//
// Every workload is also run on the functional emulator; the final
// registers and data memory of both must agree.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/tomasim/benchmarks"
	"github.com/sarchlab/tomasim/timing/config"
)

func main() {
	csvOutput := flag.Bool("csv", false, "Output results in CSV format")
	jsonOutput := flag.Bool("json", false, "Output results in JSON format")
	configPath := flag.String("config", "", "Path to core configuration JSON file")
	noDCache := flag.Bool("no-dcache", false, "Disable data cache simulation")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	harnessConfig := benchmarks.DefaultConfig()
	harnessConfig.EnableDCache = !*noDCache
	harnessConfig.Output = os.Stdout
	harnessConfig.Verbose = *verbose

	if *configPath != "" {
		cfg, err := config.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading core config: %v\n", err)
			os.Exit(1)
		}
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid core config: %v\n", err)
			os.Exit(1)
		}
		harnessConfig.Core = cfg
	}

	harness := benchmarks.NewHarness(harnessConfig)
	harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())

	human := !*csvOutput && !*jsonOutput
	if human {
		fmt.Println("Tomasim Timing Benchmark Harness")
		fmt.Println("================================")
		fmt.Printf("ROB/RS/LSQ: %d/%d/%d\n",
			harnessConfig.Core.ROBSize, harnessConfig.Core.RSSize, harnessConfig.Core.LSQSize)
		fmt.Printf("CDB priority: %v\n", harnessConfig.Core.CDBPriority)
		fmt.Printf("D-Cache: %v\n", harnessConfig.EnableDCache)
		fmt.Println("")
	}

	results := harness.RunAll()

	switch {
	case *jsonOutput:
		if err := harness.PrintJSON(results); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing JSON: %v\n", err)
			os.Exit(1)
		}
	case *csvOutput:
		harness.PrintCSV(results)
	default:
		harness.PrintResults(results)
	}

	failed := 0
	for _, r := range results {
		if !r.Passed {
			failed++
		}
	}

	if human {
		fmt.Println("=== Summary ===")
		fmt.Printf("%d of %d workloads match the functional emulator\n",
			len(results)-failed, len(results))
	}
	if failed > 0 {
		os.Exit(1)
	}
}
