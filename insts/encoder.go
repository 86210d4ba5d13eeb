package insts

// Encoders for building RV32IM programs in tests, workloads and tools.
// Register arguments are taken modulo 32; immediates are truncated to the
// width of their field.

func encodeR(funct7, rs2, rs1, funct3, rd, opcode uint32) uint32 {
	return funct7<<25 | (rs2&0x1F)<<20 | (rs1&0x1F)<<15 | funct3<<12 | (rd&0x1F)<<7 | opcode
}

func encodeI(imm int32, rs1, funct3, rd, opcode uint32) uint32 {
	return (uint32(imm)&0xFFF)<<20 | (rs1&0x1F)<<15 | funct3<<12 | (rd&0x1F)<<7 | opcode
}

func encodeS(imm int32, rs2, rs1, funct3, opcode uint32) uint32 {
	u := uint32(imm)
	return ((u>>5)&0x7F)<<25 | (rs2&0x1F)<<20 | (rs1&0x1F)<<15 | funct3<<12 | (u&0x1F)<<7 | opcode
}

func encodeB(imm int32, rs2, rs1, funct3 uint32) uint32 {
	u := uint32(imm)
	return ((u>>12)&0x1)<<31 | ((u>>5)&0x3F)<<25 | (rs2&0x1F)<<20 | (rs1&0x1F)<<15 |
		funct3<<12 | ((u>>1)&0xF)<<8 | ((u>>11)&0x1)<<7 | opcodeBranch
}

func encodeJ(imm int32, rd uint32) uint32 {
	u := uint32(imm)
	return ((u>>20)&0x1)<<31 | ((u>>1)&0x3FF)<<21 | ((u>>11)&0x1)<<20 |
		((u>>12)&0xFF)<<12 | (rd&0x1F)<<7 | opcodeJAL
}

// EncodeLUI encodes LUI rd, imm20 (rd = imm20 << 12).
func EncodeLUI(rd uint8, imm20 uint32) uint32 {
	return (imm20&0xFFFFF)<<12 | uint32(rd&0x1F)<<7 | opcodeLUI
}

// EncodeAUIPC encodes AUIPC rd, imm20 (rd = pc + imm20 << 12).
func EncodeAUIPC(rd uint8, imm20 uint32) uint32 {
	return (imm20&0xFFFFF)<<12 | uint32(rd&0x1F)<<7 | opcodeAUIPC
}

// EncodeJAL encodes JAL rd, offset (byte offset relative to the JAL).
func EncodeJAL(rd uint8, offset int32) uint32 {
	return encodeJ(offset, uint32(rd))
}

// EncodeJALR encodes JALR rd, imm(rs1).
func EncodeJALR(rd, rs1 uint8, imm int32) uint32 {
	return encodeI(imm, uint32(rs1), 0b000, uint32(rd), opcodeJALR)
}

// EncodeBranch encodes a conditional branch with the given opcode.
// It panics if op is not a conditional branch.
func EncodeBranch(op Op, rs1, rs2 uint8, offset int32) uint32 {
	var funct3 uint32
	switch op {
	case OpBEQ:
		funct3 = 0b000
	case OpBNE:
		funct3 = 0b001
	case OpBLT:
		funct3 = 0b100
	case OpBGE:
		funct3 = 0b101
	case OpBLTU:
		funct3 = 0b110
	case OpBGEU:
		funct3 = 0b111
	default:
		panic("insts: not a branch: " + op.String())
	}
	return encodeB(offset, uint32(rs2), uint32(rs1), funct3)
}

// EncodeBEQ encodes BEQ rs1, rs2, offset.
func EncodeBEQ(rs1, rs2 uint8, offset int32) uint32 {
	return EncodeBranch(OpBEQ, rs1, rs2, offset)
}

// EncodeBNE encodes BNE rs1, rs2, offset.
func EncodeBNE(rs1, rs2 uint8, offset int32) uint32 {
	return EncodeBranch(OpBNE, rs1, rs2, offset)
}

// EncodeBLT encodes BLT rs1, rs2, offset.
func EncodeBLT(rs1, rs2 uint8, offset int32) uint32 {
	return EncodeBranch(OpBLT, rs1, rs2, offset)
}

// EncodeBGE encodes BGE rs1, rs2, offset.
func EncodeBGE(rs1, rs2 uint8, offset int32) uint32 {
	return EncodeBranch(OpBGE, rs1, rs2, offset)
}

// EncodeLW encodes LW rd, imm(rs1).
func EncodeLW(rd, rs1 uint8, imm int32) uint32 {
	return encodeI(imm, uint32(rs1), 0b010, uint32(rd), opcodeLoad)
}

// EncodeLBU encodes LBU rd, imm(rs1).
func EncodeLBU(rd, rs1 uint8, imm int32) uint32 {
	return encodeI(imm, uint32(rs1), 0b100, uint32(rd), opcodeLoad)
}

// EncodeSW encodes SW rs2, imm(rs1).
func EncodeSW(rs2, rs1 uint8, imm int32) uint32 {
	return encodeS(imm, uint32(rs2), uint32(rs1), 0b010, opcodeStore)
}

var opImmFunct3 = map[Op]uint32{
	OpADDI:  0b000,
	OpSLTI:  0b010,
	OpSLTIU: 0b011,
	OpXORI:  0b100,
	OpORI:   0b110,
	OpANDI:  0b111,
}

// EncodeOpImm encodes a register-immediate ALU instruction, including the
// shift-by-immediate forms. It panics on any other opcode.
func EncodeOpImm(op Op, rd, rs1 uint8, imm int32) uint32 {
	switch op {
	case OpSLLI:
		return encodeR(0, uint32(imm), uint32(rs1), 0b001, uint32(rd), opcodeOpImm)
	case OpSRLI:
		return encodeR(0, uint32(imm), uint32(rs1), 0b101, uint32(rd), opcodeOpImm)
	case OpSRAI:
		return encodeR(0b0100000, uint32(imm), uint32(rs1), 0b101, uint32(rd), opcodeOpImm)
	}
	funct3, ok := opImmFunct3[op]
	if !ok {
		panic("insts: not a register-immediate op: " + op.String())
	}
	return encodeI(imm, uint32(rs1), funct3, uint32(rd), opcodeOpImm)
}

// EncodeADDI encodes ADDI rd, rs1, imm.
func EncodeADDI(rd, rs1 uint8, imm int32) uint32 {
	return EncodeOpImm(OpADDI, rd, rs1, imm)
}

// EncodeOp encodes a register-register instruction (RV32I or RV32M).
// It panics on any other opcode.
func EncodeOp(op Op, rd, rs1, rs2 uint8) uint32 {
	for funct3, base := range baseOps {
		if base == op {
			return encodeR(0, uint32(rs2), uint32(rs1), uint32(funct3), uint32(rd), opcodeOp)
		}
	}
	for funct3, m := range mulOps {
		if m == op {
			return encodeR(0b0000001, uint32(rs2), uint32(rs1), uint32(funct3), uint32(rd), opcodeOp)
		}
	}
	switch op {
	case OpSUB:
		return encodeR(0b0100000, uint32(rs2), uint32(rs1), 0b000, uint32(rd), opcodeOp)
	case OpSRA:
		return encodeR(0b0100000, uint32(rs2), uint32(rs1), 0b101, uint32(rd), opcodeOp)
	}
	panic("insts: not a register-register op: " + op.String())
}

// EncodeADD encodes ADD rd, rs1, rs2.
func EncodeADD(rd, rs1, rs2 uint8) uint32 {
	return EncodeOp(OpADD, rd, rs1, rs2)
}

// EncodeSUB encodes SUB rd, rs1, rs2.
func EncodeSUB(rd, rs1, rs2 uint8) uint32 {
	return EncodeOp(OpSUB, rd, rs1, rs2)
}

// EncodeMUL encodes MUL rd, rs1, rs2.
func EncodeMUL(rd, rs1, rs2 uint8) uint32 {
	return EncodeOp(OpMUL, rd, rs1, rs2)
}

// EncodeDIVU encodes DIVU rd, rs1, rs2.
func EncodeDIVU(rd, rs1, rs2 uint8) uint32 {
	return EncodeOp(OpDIVU, rd, rs1, rs2)
}

// EncodeREMU encodes REMU rd, rs1, rs2.
func EncodeREMU(rd, rs1, rs2 uint8) uint32 {
	return EncodeOp(OpREMU, rd, rs1, rs2)
}

// EncodeEBREAK encodes EBREAK.
func EncodeEBREAK() uint32 {
	return WordEBREAK
}

// EncodeNOP encodes the canonical NOP (ADDI x0, x0, 0).
func EncodeNOP() uint32 {
	return EncodeADDI(0, 0, 0)
}
