package emu

import "github.com/sarchlab/tomasim/insts"

// ALUResult computes the single-cycle result of an arithmetic, logical,
// shift, compare, upper-immediate or jump instruction. For jumps the result
// is the link address. rs2 is ignored for register-immediate forms.
func ALUResult(inst *insts.Instruction, rs1, rs2, pc uint32) uint32 {
	imm := uint32(inst.Imm)

	switch inst.Op {
	case insts.OpADD:
		return rs1 + rs2
	case insts.OpADDI:
		return rs1 + imm
	case insts.OpSUB:
		return rs1 - rs2
	case insts.OpAND:
		return rs1 & rs2
	case insts.OpANDI:
		return rs1 & imm
	case insts.OpOR:
		return rs1 | rs2
	case insts.OpORI:
		return rs1 | imm
	case insts.OpXOR:
		return rs1 ^ rs2
	case insts.OpXORI:
		return rs1 ^ imm
	case insts.OpSLL:
		return rs1 << (rs2 & 0x1F)
	case insts.OpSLLI:
		return rs1 << (imm & 0x1F)
	case insts.OpSRL:
		return rs1 >> (rs2 & 0x1F)
	case insts.OpSRLI:
		return rs1 >> (imm & 0x1F)
	case insts.OpSRA:
		return uint32(int32(rs1) >> (rs2 & 0x1F))
	case insts.OpSRAI:
		return uint32(int32(rs1) >> (imm & 0x1F))
	case insts.OpSLT:
		return boolToWord(int32(rs1) < int32(rs2))
	case insts.OpSLTI:
		return boolToWord(int32(rs1) < inst.Imm)
	case insts.OpSLTU:
		return boolToWord(rs1 < rs2)
	case insts.OpSLTIU:
		return boolToWord(rs1 < imm)
	case insts.OpLUI:
		return imm
	case insts.OpAUIPC:
		return pc + imm
	case insts.OpJAL, insts.OpJALR:
		return pc + 4
	}
	return 0
}

// BranchTaken evaluates the condition of a conditional branch.
func BranchTaken(op insts.Op, rs1, rs2 uint32) bool {
	switch op {
	case insts.OpBEQ:
		return rs1 == rs2
	case insts.OpBNE:
		return rs1 != rs2
	case insts.OpBLT:
		return int32(rs1) < int32(rs2)
	case insts.OpBGE:
		return int32(rs1) >= int32(rs2)
	case insts.OpBLTU:
		return rs1 < rs2
	case insts.OpBGEU:
		return rs1 >= rs2
	}
	return false
}

// NextPC returns the address of the instruction that architecturally follows
// a control-flow instruction.
func NextPC(inst *insts.Instruction, rs1, rs2, pc uint32) uint32 {
	switch inst.Op {
	case insts.OpJAL:
		return pc + uint32(inst.Imm)
	case insts.OpJALR:
		return (rs1 + uint32(inst.Imm)) &^ 1
	}
	if inst.Class() == insts.ClassBranch && BranchTaken(inst.Op, rs1, rs2) {
		return pc + uint32(inst.Imm)
	}
	return pc + 4
}

// Multiply computes MUL, MULH, MULHSU and MULHU.
func Multiply(op insts.Op, rs1, rs2 uint32) uint32 {
	switch op {
	case insts.OpMUL:
		return rs1 * rs2
	case insts.OpMULH:
		return uint32(uint64(int64(int32(rs1))*int64(int32(rs2))) >> 32)
	case insts.OpMULHSU:
		return uint32(uint64(int64(int32(rs1))*int64(rs2)) >> 32)
	case insts.OpMULHU:
		return uint32((uint64(rs1) * uint64(rs2)) >> 32)
	}
	return 0
}

// Divide computes DIV, DIVU, REM and REMU including the architecturally
// defined division-by-zero and overflow results.
func Divide(op insts.Op, rs1, rs2 uint32) uint32 {
	switch op {
	case insts.OpDIVU:
		if rs2 == 0 {
			return 0xFFFFFFFF
		}
		return rs1 / rs2
	case insts.OpREMU:
		if rs2 == 0 {
			return rs1
		}
		return rs1 % rs2
	case insts.OpDIV:
		if rs2 == 0 {
			return 0xFFFFFFFF
		}
		if int32(rs1) == -1<<31 && int32(rs2) == -1 {
			return rs1
		}
		return uint32(int32(rs1) / int32(rs2))
	case insts.OpREM:
		if rs2 == 0 {
			return rs1
		}
		if int32(rs1) == -1<<31 && int32(rs2) == -1 {
			return 0
		}
		return uint32(int32(rs1) % int32(rs2))
	}
	return 0
}

// LoadValue extracts the loaded value from the aligned word containing addr.
func LoadValue(op insts.Op, word, addr uint32) uint32 {
	if op == insts.OpLBU {
		return (word >> (8 * (addr & 0x3))) & 0xFF
	}
	return word
}

// WordAddress returns the aligned word address containing addr.
func WordAddress(addr uint32) uint32 {
	return addr &^ 0x3
}

func boolToWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
