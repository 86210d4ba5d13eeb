// Package main provides the entry point for Tomasim.
// Tomasim is a cycle-accurate out-of-order RV32IM core simulator built on
// Akita, using Tomasulo's algorithm with a reorder buffer.
//
// For the full CLI, use: go run ./cmd/tomasim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("Tomasim - Tomasulo RV32IM Core Simulator")
	fmt.Println("Built on Akita simulation framework")
	fmt.Println("")
	fmt.Println("Usage: tomasim [options] <program.hex> [data.hex] [offsets]")
	fmt.Println("       tomasim [options] -elf <program.elf>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config    Path to core configuration JSON file")
	fmt.Println("  -dcache    Simulate the L1 data cache")
	fmt.Println("  -trace     Log every retired instruction")
	fmt.Println("  -v         Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/tomasim' for the full CLI and")
	fmt.Println("'go run ./cmd/benchmark' for the workload harness.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/tomasim' instead.")
	}
}
