package codegen

import (
	"fmt"
	"strconv"
	"strings"
)

// Disasm renders a stable textual listing of the program, suitable for
// golden-file comparison. Labels appear on their own line before the
// instruction they bind to.
func Disasm(p *Program) string {
	// Invert the label table so bindings can be printed in order.
	byIndex := make(map[int][]int)
	for id, idx := range p.Labels {
		byIndex[idx] = append(byIndex[idx], id)
	}

	var sb strings.Builder
	for i, in := range p.Instrs {
		for _, id := range byIndex[i] {
			fmt.Fprintf(&sb, "L%d:\n", id)
		}
		fmt.Fprintf(&sb, "%04d  %s\n", i, formatInstr(in))
	}
	for _, id := range byIndex[len(p.Instrs)] {
		fmt.Fprintf(&sb, "L%d:\n", id)
	}

	fmt.Fprintf(&sb, "result r%d", p.Result.Primary)
	if p.Result.Length >= 0 {
		fmt.Fprintf(&sb, " len r%d", p.Result.Length)
	}
	if p.Result.Null >= 0 {
		fmt.Fprintf(&sb, " null r%d", p.Result.Null)
	}
	sb.WriteByte('\n')
	return sb.String()
}

func formatInstr(in Instr) string {
	switch in.Op {
	case OpConstBool:
		return fmt.Sprintf("r%d = const.bool %v", in.Dst, in.Imm != 0)
	case OpConstInt:
		return fmt.Sprintf("r%d = const.%s %d", in.Dst, in.W, in.Imm)
	case OpConstFloat:
		return fmt.Sprintf("r%d = const.f64 %s", in.Dst, strconv.FormatFloat(in.F, 'g', -1, 64))
	case OpConstString:
		return fmt.Sprintf("r%d = const.str %q", in.Dst, in.S)
	case OpParam, OpParamNull:
		return fmt.Sprintf("r%d = %s %d", in.Dst, in.Op, in.Imm)

	case OpCheckedAdd, OpCheckedSub, OpCheckedMul:
		return fmt.Sprintf("r%d, r%d = %s.%s r%d, r%d", in.Dst, in.Flag, in.Op, in.W, in.A, in.B)
	case OpSub, OpDiv, OpRem:
		return fmt.Sprintf("r%d = %s.%s r%d, r%d", in.Dst, in.Op, in.W, in.A, in.B)

	case OpFAdd, OpFSub, OpFMul, OpFDiv,
		OpCmpLT, OpCmpLE, OpCmpEQ, OpCmpNE, OpCmpGT, OpCmpGE,
		OpCollate, OpConcat, OpAnd, OpOr:
		return fmt.Sprintf("r%d = %s r%d, r%d", in.Dst, in.Op, in.A, in.B)

	case OpSqrt, OpFFloor, OpFCeil, OpStrLen, OpNot, OpIntToFloat, OpIntToBool:
		return fmt.Sprintf("r%d = %s r%d", in.Dst, in.Op, in.A)

	case OpSelect:
		return fmt.Sprintf("r%d = select r%d, r%d, r%d", in.Dst, in.A, in.B, in.C)

	case OpTrunc, OpSExt, OpFloatToInt, OpBoolToInt:
		return fmt.Sprintf("r%d = %s.%s r%d", in.Dst, in.Op, in.W, in.A)

	case OpRaiseOverflow, OpRaiseDivZero:
		return fmt.Sprintf("%s r%d", in.Op, in.A)

	case OpJump:
		return fmt.Sprintf("jump L%d", in.Label)
	case OpJumpIfFalse:
		return fmt.Sprintf("jumpf r%d, L%d", in.A, in.Label)

	default:
		return fmt.Sprintf("op?%d", in.Op)
	}
}
