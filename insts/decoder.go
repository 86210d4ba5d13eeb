// Package insts provides RV32IM instruction definitions and decoding.
package insts

import "fmt"

// Op represents an RV32IM opcode.
type Op uint8

// RV32IM opcodes.
const (
	OpUnknown Op = iota
	OpLUI
	OpAUIPC
	OpJAL
	OpJALR
	OpBEQ
	OpBNE
	OpBLT
	OpBGE
	OpBLTU
	OpBGEU
	OpLW
	OpLBU
	OpSW
	OpADDI
	OpSLTI
	OpSLTIU
	OpXORI
	OpORI
	OpANDI
	OpSLLI
	OpSRLI
	OpSRAI
	OpADD
	OpSUB
	OpSLL
	OpSLT
	OpSLTU
	OpXOR
	OpSRL
	OpSRA
	OpOR
	OpAND
	OpMUL
	OpMULH
	OpMULHSU
	OpMULHU
	OpDIV
	OpDIVU
	OpREM
	OpREMU
	OpEBREAK
)

var opNames = [...]string{
	OpUnknown: "unknown",
	OpLUI:     "lui",
	OpAUIPC:   "auipc",
	OpJAL:     "jal",
	OpJALR:    "jalr",
	OpBEQ:     "beq",
	OpBNE:     "bne",
	OpBLT:     "blt",
	OpBGE:     "bge",
	OpBLTU:    "bltu",
	OpBGEU:    "bgeu",
	OpLW:      "lw",
	OpLBU:     "lbu",
	OpSW:      "sw",
	OpADDI:    "addi",
	OpSLTI:    "slti",
	OpSLTIU:   "sltiu",
	OpXORI:    "xori",
	OpORI:     "ori",
	OpANDI:    "andi",
	OpSLLI:    "slli",
	OpSRLI:    "srli",
	OpSRAI:    "srai",
	OpADD:     "add",
	OpSUB:     "sub",
	OpSLL:     "sll",
	OpSLT:     "slt",
	OpSLTU:    "sltu",
	OpXOR:     "xor",
	OpSRL:     "srl",
	OpSRA:     "sra",
	OpOR:      "or",
	OpAND:     "and",
	OpMUL:     "mul",
	OpMULH:    "mulh",
	OpMULHSU:  "mulhsu",
	OpMULHU:   "mulhu",
	OpDIV:     "div",
	OpDIVU:    "divu",
	OpREM:     "rem",
	OpREMU:    "remu",
	OpEBREAK:  "ebreak",
}

// String returns the assembler mnemonic of the opcode.
func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("op(%d)", uint8(op))
}

// Class groups opcodes by the kind of work they do.
type Class uint8

// Opcode classes.
const (
	ClassUnknown Class = iota
	ClassArith
	ClassLogical
	ClassShift
	ClassCompare
	ClassBranch
	ClassJump
	ClassLoad
	ClassStore
	ClassUpper
	ClassSystem
	ClassMultiply
	ClassDivide
	ClassRemainder
)

// Class returns the opcode class.
func (op Op) Class() Class {
	switch op {
	case OpADD, OpSUB, OpADDI:
		return ClassArith
	case OpAND, OpOR, OpXOR, OpANDI, OpORI, OpXORI:
		return ClassLogical
	case OpSLL, OpSRL, OpSRA, OpSLLI, OpSRLI, OpSRAI:
		return ClassShift
	case OpSLT, OpSLTU, OpSLTI, OpSLTIU:
		return ClassCompare
	case OpBEQ, OpBNE, OpBLT, OpBGE, OpBLTU, OpBGEU:
		return ClassBranch
	case OpJAL, OpJALR:
		return ClassJump
	case OpLW, OpLBU:
		return ClassLoad
	case OpSW:
		return ClassStore
	case OpLUI, OpAUIPC:
		return ClassUpper
	case OpEBREAK:
		return ClassSystem
	case OpMUL, OpMULH, OpMULHSU, OpMULHU:
		return ClassMultiply
	case OpDIV, OpDIVU:
		return ClassDivide
	case OpREM, OpREMU:
		return ClassRemainder
	}
	return ClassUnknown
}

// Format represents an instruction encoding format.
type Format uint8

// Instruction formats.
const (
	FormatUnknown Format = iota
	FormatR              // Register-register
	FormatI              // Register-immediate, loads, JALR
	FormatS              // Stores
	FormatB              // Conditional branches
	FormatU              // LUI, AUIPC
	FormatJ              // JAL
	FormatSystem         // EBREAK
)

// Major opcodes (bits [6:0]).
const (
	opcodeLoad   = 0b0000011
	opcodeOpImm  = 0b0010011
	opcodeAUIPC  = 0b0010111
	opcodeStore  = 0b0100011
	opcodeOp     = 0b0110011
	opcodeLUI    = 0b0110111
	opcodeBranch = 0b1100011
	opcodeJALR   = 0b1100111
	opcodeJAL    = 0b1101111
	opcodeSystem = 0b1110011
)

// WordEBREAK is the only SYSTEM encoding the core accepts.
const WordEBREAK uint32 = 0x00100073

// Instruction represents a decoded RV32IM instruction. It is immutable once
// decoded.
type Instruction struct {
	Op     Op     // Operation code
	Format Format // Encoding format

	Rd  uint8 // Destination register
	Rs1 uint8 // First source register
	Rs2 uint8 // Second source register

	// Imm is the sign-extended immediate. For shifts by immediate it holds
	// the shift amount; for LUI/AUIPC it holds the already shifted value.
	Imm int32
}

// Class returns the opcode class of the instruction.
func (i *Instruction) Class() Class {
	return i.Op.Class()
}

// WritesRd reports whether the instruction produces an architectural
// register value. Writes to x0 are discarded and do not count.
func (i *Instruction) WritesRd() bool {
	switch i.Format {
	case FormatR, FormatI, FormatU, FormatJ:
		return i.Rd != 0
	}
	return false
}

// ReadsRs1 reports whether rs1 is a source operand.
func (i *Instruction) ReadsRs1() bool {
	switch i.Format {
	case FormatR, FormatI, FormatS, FormatB:
		return true
	}
	return false
}

// ReadsRs2 reports whether rs2 is a source operand.
func (i *Instruction) ReadsRs2() bool {
	switch i.Format {
	case FormatR, FormatS, FormatB:
		return true
	}
	return false
}

// IsControl reports whether the instruction may redirect the PC.
func (i *Instruction) IsControl() bool {
	c := i.Class()
	return c == ClassBranch || c == ClassJump
}

// IsMemory reports whether the instruction goes through the load/store queue.
func (i *Instruction) IsMemory() bool {
	c := i.Class()
	return c == ClassLoad || c == ClassStore
}

// String renders the instruction in a compact assembler-like form.
func (i *Instruction) String() string {
	switch i.Format {
	case FormatR:
		return fmt.Sprintf("%s x%d, x%d, x%d", i.Op, i.Rd, i.Rs1, i.Rs2)
	case FormatI:
		if i.Class() == ClassLoad || i.Op == OpJALR {
			return fmt.Sprintf("%s x%d, %d(x%d)", i.Op, i.Rd, i.Imm, i.Rs1)
		}
		return fmt.Sprintf("%s x%d, x%d, %d", i.Op, i.Rd, i.Rs1, i.Imm)
	case FormatS:
		return fmt.Sprintf("%s x%d, %d(x%d)", i.Op, i.Rs2, i.Imm, i.Rs1)
	case FormatB:
		return fmt.Sprintf("%s x%d, x%d, %d", i.Op, i.Rs1, i.Rs2, i.Imm)
	case FormatU:
		return fmt.Sprintf("%s x%d, 0x%x", i.Op, i.Rd, uint32(i.Imm)>>12)
	case FormatJ:
		return fmt.Sprintf("%s x%d, %d", i.Op, i.Rd, i.Imm)
	}
	return i.Op.String()
}

// DecodeError reports an instruction word outside the supported subset.
type DecodeError struct {
	Word   uint32
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode 0x%08x: %s", e.Word, e.Reason)
}

// Decoder decodes RV32IM machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new RV32IM instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit RV32IM instruction word. Words outside the
// supported subset return a *DecodeError.
func (d *Decoder) Decode(word uint32) (*Instruction, error) {
	inst := &Instruction{
		Rd:  uint8((word >> 7) & 0x1F),
		Rs1: uint8((word >> 15) & 0x1F),
		Rs2: uint8((word >> 20) & 0x1F),
	}
	funct3 := (word >> 12) & 0x7
	funct7 := word >> 25

	var ok bool
	switch word & 0x7F {
	case opcodeLUI:
		inst.Op, inst.Format, inst.Imm = OpLUI, FormatU, immU(word)
		ok = true
	case opcodeAUIPC:
		inst.Op, inst.Format, inst.Imm = OpAUIPC, FormatU, immU(word)
		ok = true
	case opcodeJAL:
		inst.Op, inst.Format, inst.Imm = OpJAL, FormatJ, immJ(word)
		ok = true
	case opcodeJALR:
		inst.Op, inst.Format, inst.Imm = OpJALR, FormatI, immI(word)
		ok = funct3 == 0
	case opcodeBranch:
		inst.Format, inst.Imm = FormatB, immB(word)
		ok = d.decodeBranch(funct3, inst)
	case opcodeLoad:
		inst.Format, inst.Imm = FormatI, immI(word)
		ok = d.decodeLoad(funct3, inst)
	case opcodeStore:
		inst.Format, inst.Imm = FormatS, immS(word)
		inst.Op = OpSW
		ok = funct3 == 0b010
	case opcodeOpImm:
		inst.Format, inst.Imm = FormatI, immI(word)
		ok = d.decodeOpImm(funct3, funct7, inst)
	case opcodeOp:
		inst.Format = FormatR
		ok = d.decodeOp(funct3, funct7, inst)
	case opcodeSystem:
		if word == WordEBREAK {
			*inst = Instruction{Op: OpEBREAK, Format: FormatSystem}
			ok = true
		}
	}

	if !ok {
		return nil, &DecodeError{Word: word, Reason: "unsupported opcode or function code"}
	}
	return inst, nil
}

func (d *Decoder) decodeBranch(funct3 uint32, inst *Instruction) bool {
	switch funct3 {
	case 0b000:
		inst.Op = OpBEQ
	case 0b001:
		inst.Op = OpBNE
	case 0b100:
		inst.Op = OpBLT
	case 0b101:
		inst.Op = OpBGE
	case 0b110:
		inst.Op = OpBLTU
	case 0b111:
		inst.Op = OpBGEU
	default:
		return false
	}
	return true
}

func (d *Decoder) decodeLoad(funct3 uint32, inst *Instruction) bool {
	switch funct3 {
	case 0b010:
		inst.Op = OpLW
	case 0b100:
		inst.Op = OpLBU
	default:
		return false
	}
	return true
}

func (d *Decoder) decodeOpImm(funct3, funct7 uint32, inst *Instruction) bool {
	switch funct3 {
	case 0b000:
		inst.Op = OpADDI
	case 0b010:
		inst.Op = OpSLTI
	case 0b011:
		inst.Op = OpSLTIU
	case 0b100:
		inst.Op = OpXORI
	case 0b110:
		inst.Op = OpORI
	case 0b111:
		inst.Op = OpANDI
	case 0b001:
		if funct7 != 0 {
			return false
		}
		inst.Op = OpSLLI
		inst.Imm = int32(inst.Rs2)
	case 0b101:
		switch funct7 {
		case 0b0000000:
			inst.Op = OpSRLI
		case 0b0100000:
			inst.Op = OpSRAI
		default:
			return false
		}
		inst.Imm = int32(inst.Rs2)
	}
	inst.Rs2 = 0
	return true
}

var (
	baseOps = [8]Op{OpADD, OpSLL, OpSLT, OpSLTU, OpXOR, OpSRL, OpOR, OpAND}
	mulOps  = [8]Op{OpMUL, OpMULH, OpMULHSU, OpMULHU, OpDIV, OpDIVU, OpREM, OpREMU}
)

func (d *Decoder) decodeOp(funct3, funct7 uint32, inst *Instruction) bool {
	switch funct7 {
	case 0b0000000:
		inst.Op = baseOps[funct3]
	case 0b0000001:
		inst.Op = mulOps[funct3]
	case 0b0100000:
		switch funct3 {
		case 0b000:
			inst.Op = OpSUB
		case 0b101:
			inst.Op = OpSRA
		default:
			return false
		}
	default:
		return false
	}
	return true
}

func immI(word uint32) int32 {
	return int32(word) >> 20
}

func immS(word uint32) int32 {
	return (int32(word)>>25)<<5 | int32((word>>7)&0x1F)
}

func immB(word uint32) int32 {
	sign := uint32(int32(word) >> 31)
	imm := sign<<12 |
		((word>>7)&0x1)<<11 |
		((word>>25)&0x3F)<<5 |
		((word>>8)&0xF)<<1
	return int32(imm)
}

func immU(word uint32) int32 {
	return int32(word & 0xFFFFF000)
}

func immJ(word uint32) int32 {
	sign := uint32(int32(word) >> 31)
	imm := sign<<20 |
		(word & 0x000FF000) |
		((word>>20)&0x1)<<11 |
		((word>>21)&0x3FF)<<1
	return int32(imm)
}
