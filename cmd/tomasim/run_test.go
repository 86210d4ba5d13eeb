package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomasim/insts"
)

func hexImage(words ...uint32) string {
	var sb strings.Builder
	for _, w := range words {
		sb.WriteString(fmt.Sprintf("%08x\n", w))
	}
	return sb.String()
}

var _ = Describe("run", func() {
	var (
		tempDir        string
		stdout, stderr *bytes.Buffer
	)

	write := func(name, content string) string {
		path := filepath.Join(tempDir, name)
		Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())
		return path
	}

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "tomasim-cli-test")
		Expect(err).NotTo(HaveOccurred())
		stdout = &bytes.Buffer{}
		stderr = &bytes.Buffer{}
	})

	AfterEach(func() {
		_ = os.RemoveAll(tempDir)
	})

	It("should run a hex workload to ebreak and dump the final state", func() {
		exe := write("prog.hex", hexImage(
			insts.EncodeADDI(1, 0, 7),
			insts.EncodeADDI(2, 0, 6),
			insts.EncodeMUL(3, 1, 2),
			insts.EncodeSW(3, 0, 4),
			insts.EncodeEBREAK(),
		))
		data := write("data.hex", hexImage(0x11111111))

		code := run(options{ExePath: exe, DataPath: data, DumpWords: 4}, stdout, stderr)

		Expect(code).To(Equal(exitOK))
		out := stdout.String()
		Expect(out).To(ContainSubstring("Status: ebreak"))
		Expect(out).To(ContainSubstring("Total Instructions: 5"))
		Expect(out).To(ContainSubstring("x3  0x0000002a"))
		Expect(out).To(ContainSubstring("0x00000000: 11111111 0000002a 00000000 00000000"))
		Expect(out).NotTo(ContainSubstring("\x1b["))
	})

	It("should honor the offset descriptor", func() {
		exe := write("prog.hex", hexImage(
			insts.EncodeAUIPC(5, 0),
			insts.EncodeEBREAK(),
		))
		offsets := write("offsets", "offset: 400 data_offset: 2000\n")

		code := run(options{ExePath: exe, OffsetPath: offsets, DumpWords: 4}, stdout, stderr)

		Expect(code).To(Equal(exitOK))
		Expect(stdout.String()).To(ContainSubstring("x5  0x00000400"))
		Expect(stdout.String()).To(ContainSubstring("0x00002000:"))
	})

	It("should report a fatal fault with its PC", func() {
		exe := write("prog.hex", hexImage(
			insts.EncodeADDI(1, 0, 2),
			insts.EncodeLW(2, 1, 0),
			insts.EncodeEBREAK(),
		))

		code := run(options{ExePath: exe}, stdout, stderr)

		Expect(code).To(Equal(exitFatal))
		Expect(stdout.String()).To(ContainSubstring("Status: fatal"))
		Expect(stdout.String()).To(ContainSubstring("misaligned"))
		Expect(stdout.String()).To(ContainSubstring("Fault PC: 0x00000004"))
	})

	It("should stop at the cycle limit", func() {
		exe := write("prog.hex", hexImage(insts.EncodeJAL(0, 0)))

		code := run(options{ExePath: exe, MaxCycles: 100}, stdout, stderr)

		Expect(code).To(Equal(exitCycleLimit))
		Expect(stdout.String()).To(ContainSubstring("Status: cycle limit"))
		Expect(stdout.String()).To(ContainSubstring("Total Cycles: 100"))
	})

	It("should trace commits to stderr", func() {
		exe := write("prog.hex", hexImage(
			insts.EncodeADDI(1, 0, 1),
			insts.EncodeEBREAK(),
		))

		code := run(options{ExePath: exe, Trace: true}, stdout, stderr)

		Expect(code).To(Equal(exitOK))
		Expect(strings.Count(stderr.String(), "msg=commit")).To(Equal(2))
		Expect(stderr.String()).To(ContainSubstring("pc=0x00000000"))
	})

	It("should print cache statistics with the data cache", func() {
		exe := write("prog.hex", hexImage(
			insts.EncodeADDI(1, 0, 9),
			insts.EncodeSW(1, 0, 0),
			insts.EncodeLW(2, 0, 0),
			insts.EncodeEBREAK(),
		))

		code := run(options{ExePath: exe, DCache: true, DumpWords: 1}, stdout, stderr)

		Expect(code).To(Equal(exitOK))
		Expect(stdout.String()).To(ContainSubstring("D-Cache:"))
		Expect(stdout.String()).To(ContainSubstring("x2  0x00000009"))
		Expect(stdout.String()).To(ContainSubstring("0x00000000: 00000009"))
	})

	It("should color the dump on a terminal", func() {
		exe := write("prog.hex", hexImage(insts.EncodeEBREAK()))

		Expect(run(options{ExePath: exe, Color: true}, stdout, stderr)).To(Equal(exitOK))
		Expect(stdout.String()).To(ContainSubstring(ansiDim + "x0  0x00000000" + ansiReset))
	})

	It("should load a core configuration", func() {
		exe := write("prog.hex", hexImage(insts.EncodeEBREAK()))
		cfg := write("core.json", `{"rob_size": 4, "cdb_priority": ["div", "mul", "lsq", "alu"]}`)

		code := run(options{ExePath: exe, ConfigPath: cfg, Verbose: true}, stdout, stderr)

		Expect(code).To(Equal(exitOK))
		Expect(stdout.String()).To(ContainSubstring("ROB/RS/LSQ: 4/8/8"))
	})

	It("should fail on an invalid configuration", func() {
		exe := write("prog.hex", hexImage(insts.EncodeEBREAK()))
		cfg := write("core.json", `{"rob_size": 0}`)

		Expect(run(options{ExePath: exe, ConfigPath: cfg}, stdout, stderr)).To(Equal(exitSetup))
		Expect(stderr.String()).To(ContainSubstring("Error creating core"))
	})

	It("should fail on a missing program", func() {
		code := run(options{ExePath: filepath.Join(tempDir, "missing.hex")}, stdout, stderr)

		Expect(code).To(Equal(exitSetup))
		Expect(stderr.String()).To(ContainSubstring("Error loading program"))
	})
})
