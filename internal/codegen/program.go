package codegen

// OpCode identifies one bytecode instruction.
type OpCode uint8

const (
	OpConstBool OpCode = iota
	OpConstInt
	OpConstFloat
	OpConstString
	OpParam
	OpParamNull

	OpCheckedAdd
	OpCheckedSub
	OpCheckedMul
	OpSub
	OpDiv
	OpRem

	OpFAdd
	OpFSub
	OpFMul
	OpFDiv
	OpSqrt
	OpFFloor
	OpFCeil

	OpCmpLT
	OpCmpLE
	OpCmpEQ
	OpCmpNE
	OpCmpGT
	OpCmpGE

	OpCollate
	OpConcat
	OpStrLen

	OpAnd
	OpOr
	OpNot
	OpSelect

	OpTrunc
	OpSExt
	OpIntToFloat
	OpFloatToInt
	OpIntToBool
	OpBoolToInt

	OpRaiseOverflow
	OpRaiseDivZero

	OpJump
	OpJumpIfFalse
)

var opNames = map[OpCode]string{
	OpConstBool:     "const.bool",
	OpConstInt:      "const",
	OpConstFloat:    "const.f64",
	OpConstString:   "const.str",
	OpParam:         "param",
	OpParamNull:     "param.null",
	OpCheckedAdd:    "add.ovf",
	OpCheckedSub:    "sub.ovf",
	OpCheckedMul:    "mul.ovf",
	OpSub:           "sub",
	OpDiv:           "div",
	OpRem:           "rem",
	OpFAdd:          "fadd",
	OpFSub:          "fsub",
	OpFMul:          "fmul",
	OpFDiv:          "fdiv",
	OpSqrt:          "sqrt",
	OpFFloor:        "ffloor",
	OpFCeil:         "fceil",
	OpCmpLT:         "cmp.lt",
	OpCmpLE:         "cmp.le",
	OpCmpEQ:         "cmp.eq",
	OpCmpNE:         "cmp.ne",
	OpCmpGT:         "cmp.gt",
	OpCmpGE:         "cmp.ge",
	OpCollate:       "collate",
	OpConcat:        "concat",
	OpStrLen:        "strlen",
	OpAnd:           "and",
	OpOr:            "or",
	OpNot:           "not",
	OpSelect:        "select",
	OpTrunc:         "trunc",
	OpSExt:          "sext",
	OpIntToFloat:    "sitofp",
	OpFloatToInt:    "fptosi",
	OpIntToBool:     "itob",
	OpBoolToInt:     "btoi",
	OpRaiseOverflow: "raise.overflow",
	OpRaiseDivZero:  "raise.divzero",
	OpJump:          "jump",
	OpJumpIfFalse:   "jumpf",
}

// String returns the disassembly mnemonic for the opcode.
func (op OpCode) String() string {
	if s, ok := opNames[op]; ok {
		return s
	}
	return "op?"
}

// Instr is one bytecode instruction. Register operand fields that an
// instruction does not use are left at zero and never read; the opcode
// decides which fields are meaningful.
type Instr struct {
	Op OpCode

	// Dst is the destination register. Flag is the secondary destination
	// (overflow bit) of checked arithmetic.
	Dst  int
	Flag int

	// A, B, C are source registers (C is the else operand of select).
	A int
	B int
	C int

	// W is the integer width for width-sensitive operations.
	W Width

	// Immediate payloads for constants and param indices.
	Imm int64
	F   float64
	S   string

	// Label is the jump target (an index into Program.Labels).
	Label int
}

// ResultSpec records which registers hold the finished value. Length and
// Null are -1 when the result carries no length or null indicator.
type ResultSpec struct {
	Primary int
	Length  int
	Null    int
}

// Program is a finished, immutable bytecode program. Programs are produced
// by Builder.Finish and executed by Run; they are safe for concurrent
// execution because all mutable state lives in the interpreter frame.
type Program struct {
	Instrs []Instr

	// Labels maps label ids to instruction indices.
	Labels []int

	// NumRegs and NumParams size the interpreter frame.
	NumRegs   int
	NumParams int

	Result ResultSpec
}
