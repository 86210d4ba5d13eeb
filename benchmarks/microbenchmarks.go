package benchmarks

import "github.com/sarchlab/tomasim/insts"

// GetMicrobenchmarks returns the standard set of workloads. Each one
// targets a specific part of the core.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		sumToHundred(),
		backToBackMul(),
		divideByZero(),
		mispredictedBranch(),
		storeLoadForward(),
		arraySum(),
		fibonacci(),
		divRemMix(),
		functionCall(),
	}
}

// GetCoreBenchmarks returns a minimal set for quick validation: a loop,
// the multi-cycle units and a misprediction.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		sumToHundred(),
		divRemMix(),
		mispredictedBranch(),
	}
}

// 1. Sum 0..100 - a tight loop whose backward branch is learned after the
// first iteration.
func sumToHundred() Benchmark {
	return Benchmark{
		Name:        "sum_to_100",
		Description: "sum of 0..100 in a bne loop - measures steady-state loop throughput",
		Program: []uint32{
			insts.EncodeADDI(1, 0, 0),   // 0: sum = 0
			insts.EncodeADDI(2, 0, 0),   // 4: i = 0
			insts.EncodeADDI(3, 0, 101), // 8: n = 101
			insts.EncodeADD(1, 1, 2),    // 12: loop: sum += i
			insts.EncodeADDI(2, 2, 1),   // 16: i++
			insts.EncodeBNE(2, 3, -8),   // 20: if i != n goto loop
			insts.EncodeEBREAK(),        // 24
		},
		ResultReg: 1,
		Expected:  5050,
	}
}

// 2. Back-to-back multiplies - independent products enter the pipelined
// multiplier on consecutive cycles.
func backToBackMul() Benchmark {
	return Benchmark{
		Name:        "back_to_back_mul",
		Description: "three independent MULs then a dependent one - measures MUL pipelining",
		Program: []uint32{
			insts.EncodeADDI(1, 0, 3),
			insts.EncodeADDI(2, 0, 5),
			insts.EncodeMUL(3, 1, 2),
			insts.EncodeMUL(4, 2, 2),
			insts.EncodeMUL(5, 1, 1),
			insts.EncodeMUL(6, 3, 4),
			insts.EncodeADD(7, 6, 5),
			insts.EncodeEBREAK(),
		},
		ResultReg: 7,
		Expected:  384, // 15*25 + 9
	}
}

// 3. Divide by zero - the architectural all-ones quotient and dividend
// remainder.
func divideByZero() Benchmark {
	return Benchmark{
		Name:        "divu_by_zero",
		Description: "DIVU and REMU by zero - checks the defined division results",
		Program: []uint32{
			insts.EncodeADDI(1, 0, 1234),
			insts.EncodeDIVU(2, 1, 0), // 0xFFFFFFFF
			insts.EncodeREMU(3, 1, 0), // 1234
			insts.EncodeADD(4, 2, 3),
			insts.EncodeEBREAK(),
		},
		ResultReg: 4,
		Expected:  1233,
	}
}

// 4. Mispredicted BEQ - a cold taken branch is predicted not taken and the
// wrong path must leave no trace.
func mispredictedBranch() Benchmark {
	return Benchmark{
		Name:        "mispredicted_beq",
		Description: "cold taken BEQ over two writes of x3 - measures squash and redirect",
		Program: []uint32{
			insts.EncodeADDI(1, 0, 1),  // 0
			insts.EncodeADDI(2, 0, 1),  // 4
			insts.EncodeBEQ(1, 2, 12),  // 8: taken to 20
			insts.EncodeADDI(3, 0, 99), // 12: wrong path
			insts.EncodeADDI(3, 3, 1),  // 16: wrong path
			insts.EncodeADDI(4, 0, 7),  // 20
			insts.EncodeEBREAK(),       // 24
		},
		ResultReg: 4,
		Expected:  7,
	}
}

// 5. Store to load - a load of the word an older store just wrote.
func storeLoadForward() Benchmark {
	return Benchmark{
		Name:        "store_load_forward",
		Description: "SW then LW of the same word - exercises store-to-load forwarding",
		Program: []uint32{
			insts.EncodeADDI(1, 0, 0x100),
			insts.EncodeADDI(2, 0, 42),
			insts.EncodeSW(2, 1, 0),
			insts.EncodeLW(3, 1, 0),
			insts.EncodeADDI(4, 3, 1),
			insts.EncodeEBREAK(),
		},
		ResultReg: 4,
		Expected:  43,
	}
}

// 6. Array sum - a load-use chain over initialized data memory.
func arraySum() Benchmark {
	data := make([]uint32, 10)
	for i := range data {
		data[i] = uint32(i + 1)
	}

	return Benchmark{
		Name:        "array_sum",
		Description: "sum of a 10-word array - measures load latency in a loop",
		Program: []uint32{
			insts.EncodeADDI(1, 0, 0),  // 0: p = 0
			insts.EncodeADDI(2, 0, 40), // 4: end = 40
			insts.EncodeADDI(3, 0, 0),  // 8: sum = 0
			insts.EncodeLW(4, 1, 0),    // 12: loop: x4 = mem[p]
			insts.EncodeADD(3, 3, 4),   // 16: sum += x4
			insts.EncodeADDI(1, 1, 4),  // 20: p += 4
			insts.EncodeBNE(1, 2, -12), // 24: if p != end goto loop
			insts.EncodeEBREAK(),       // 28
		},
		Data:      data,
		ResultReg: 3,
		Expected:  55,
	}
}

// 7. Fibonacci - a serial dependency chain through the ALU.
func fibonacci() Benchmark {
	return Benchmark{
		Name:        "fibonacci",
		Description: "fib(20) iteratively - measures CDB-limited dependency chains",
		Program: []uint32{
			insts.EncodeADDI(1, 0, 0),  // 0: a = 0
			insts.EncodeADDI(2, 0, 1),  // 4: b = 1
			insts.EncodeADDI(3, 0, 20), // 8: n = 20
			insts.EncodeADD(4, 1, 2),   // 12: loop: t = a + b
			insts.EncodeADDI(1, 2, 0),  // 16: a = b
			insts.EncodeADDI(2, 4, 0),  // 20: b = t
			insts.EncodeADDI(3, 3, -1), // 24: n--
			insts.EncodeBNE(3, 0, -16), // 28: if n != 0 goto loop
			insts.EncodeEBREAK(),       // 32
		},
		ResultReg: 1,
		Expected:  6765,
	}
}

// 8. Division mix - signed and unsigned division and remainder of a
// negative dividend, recombined through the multiplier.
func divRemMix() Benchmark {
	return Benchmark{
		Name:        "div_rem_mix",
		Description: "DIV/REM/DIVU/REMU of -100 by 7 - measures DIV and MUL contention",
		Program: []uint32{
			insts.EncodeADDI(1, 0, -100),
			insts.EncodeADDI(2, 0, 7),
			insts.EncodeOp(insts.OpDIV, 3, 1, 2), // -14
			insts.EncodeOp(insts.OpREM, 4, 1, 2), // -2
			insts.EncodeDIVU(5, 1, 2),
			insts.EncodeREMU(6, 1, 2),
			insts.EncodeMUL(7, 3, 2), // -98
			insts.EncodeADD(8, 7, 4), // -100
			insts.EncodeSUB(9, 8, 1), // 0
			insts.EncodeEBREAK(),
		},
		ResultReg: 8,
		Expected:  0xFFFFFF9C,
	}
}

// 9. Function call - JAL to a leaf and JALR back through the BTB.
func functionCall() Benchmark {
	return Benchmark{
		Name:        "function_call",
		Description: "JAL to a doubling leaf and JALR return - measures indirect jump recovery",
		Program: []uint32{
			insts.EncodeADDI(10, 0, 5),  // 0
			insts.EncodeJAL(1, 12),      // 4: call 16
			insts.EncodeADDI(11, 10, 0), // 8
			insts.EncodeEBREAK(),        // 12
			insts.EncodeADD(10, 10, 10), // 16: leaf
			insts.EncodeJALR(0, 1, 0),   // 20: return
		},
		ResultReg: 11,
		Expected:  10,
	}
}
