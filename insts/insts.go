// Package insts provides RV32IM instruction definitions, decoding and encoding.
//
// This package implements decoding of RISC-V machine code into structured
// instruction representations. It supports:
//   - Register-register arithmetic, logic, shifts and compares (RV32I)
//   - Register-immediate forms of the above (ADDI, SLTI, SLLI, ...)
//   - Upper immediates: LUI, AUIPC
//   - Control flow: JAL, JALR, BEQ, BNE, BLT, BGE, BLTU, BGEU
//   - Memory: LW, LBU, SW
//   - RV32M multiply, divide and remainder
//   - EBREAK as the halt instruction
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst, err := decoder.Decode(0x02A00093) // ADDI x1, x0, 42
//	fmt.Printf("Op: %v, Rd: %d, Rs1: %d, Imm: %d\n", inst.Op, inst.Rd, inst.Rs1, inst.Imm)
package insts
