package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/tomasim/loader"
	"github.com/sarchlab/tomasim/timing/cache"
	"github.com/sarchlab/tomasim/timing/config"
	"github.com/sarchlab/tomasim/timing/core"
	"github.com/sarchlab/tomasim/timing/pipeline"
)

// Exit codes.
const (
	exitOK         = 0
	exitSetup      = 1
	exitFatal      = 2
	exitCycleLimit = 3
)

type options struct {
	ConfigPath string

	ELFPath    string
	ExePath    string
	DataPath   string
	OffsetPath string

	DCache    bool
	Trace     bool
	Verbose   bool
	MaxCycles uint64
	DumpWords int
	Color     bool
}

func loadImage(opts options) (*loader.Image, string, error) {
	if opts.ELFPath != "" {
		img, err := loader.LoadELF(opts.ELFPath)
		return img, opts.ELFPath, err
	}
	img, err := loader.LoadHex(opts.ExePath, opts.DataPath, opts.OffsetPath)
	return img, opts.ExePath, err
}

// run simulates one workload and writes the report to stdout. Setup
// errors and trace records go to stderr.
func run(opts options, stdout, stderr io.Writer) int {
	cfg := config.DefaultCoreConfig()
	if opts.ConfigPath != "" {
		var err error
		cfg, err = config.LoadConfig(opts.ConfigPath)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Error loading core config: %v\n", err)
			return exitSetup
		}
	}
	if opts.MaxCycles > 0 {
		cfg.MaxCycles = opts.MaxCycles
	}

	img, programPath, err := loadImage(opts)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error loading program: %v\n", err)
		return exitSetup
	}

	imem, dmem, err := img.Memories(cfg.DepthLog)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error loading program: %v\n", err)
		return exitSetup
	}

	var coreOpts []core.Option
	if opts.Trace {
		logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		coreOpts = append(coreOpts, core.WithTracer(pipeline.NewSlogTracer(logger)))
	}
	if opts.DCache {
		coreOpts = append(coreOpts, core.WithDataCache(cache.DefaultL1DConfig()))
	}

	c, err := core.NewCore(cfg, imem, dmem, coreOpts...)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error creating core: %v\n", err)
		return exitSetup
	}
	c.SetPC(img.Entry)

	if opts.Verbose {
		_, _ = fmt.Fprintf(stdout, "Loaded: %s\n", programPath)
		_, _ = fmt.Fprintf(stdout, "Entry point: 0x%08X\n", img.Entry)
		_, _ = fmt.Fprintf(stdout, "Text: %d words at 0x%08X\n", len(img.Text), img.Offset)
		_, _ = fmt.Fprintf(stdout, "Data: %d words at 0x%08X\n", len(img.Data), img.DataOffset)
		_, _ = fmt.Fprintf(stdout, "ROB/RS/LSQ: %d/%d/%d, CDB priority: %v\n",
			cfg.ROBSize, cfg.RSSize, cfg.LSQSize, cfg.CDBPriority)
	}

	simErr := core.Simulate(c, 1*sim.GHz)

	r := c.Result()
	if r.Status == pipeline.Running && simErr != nil {
		_, _ = fmt.Fprintf(stderr, "Error running simulation: %v\n", simErr)
		return exitSetup
	}

	cacheStats, hasCache := c.CacheStats()
	printReport(stdout, programPath, r, cacheStats, hasCache)
	dumpState(stdout, r, c.DataMemory(), opts.DumpWords, opts.Color)

	switch r.Status {
	case pipeline.HaltEbreak:
		if r.Err != nil {
			return exitFatal
		}
		return exitOK
	case pipeline.HaltCycleLimit:
		return exitCycleLimit
	default:
		return exitFatal
	}
}
