package codegen

import (
	"fmt"
	"math"
	"strconv"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Kind tags the runtime representation held in a register or Scalar.
type Kind uint8

const (
	// KindBool is a boolean register.
	KindBool Kind = iota
	// KindInt is a signed integer register (sign-extended to 64 bits).
	KindInt
	// KindFloat is a 64-bit floating-point register.
	KindFloat
	// KindString is a string register.
	KindString
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return "kind?"
	}
}

// Scalar is a materialized runtime value: a program input or output.
// Integer payloads are sign-extended to 64 bits regardless of SQL width.
type Scalar struct {
	Kind Kind
	Null bool

	Bool  bool
	Int   int64
	Float float64
	Str   string
}

// BoolScalar builds a non-null boolean Scalar.
func BoolScalar(v bool) Scalar { return Scalar{Kind: KindBool, Bool: v} }

// IntScalar builds a non-null integer Scalar.
func IntScalar(v int64) Scalar { return Scalar{Kind: KindInt, Int: v} }

// FloatScalar builds a non-null float Scalar.
func FloatScalar(v float64) Scalar { return Scalar{Kind: KindFloat, Float: v} }

// StringScalar builds a non-null string Scalar.
func StringScalar(v string) Scalar { return Scalar{Kind: KindString, Str: v} }

// NullScalar builds a null Scalar of the given kind.
func NullScalar(k Kind) Scalar { return Scalar{Kind: k, Null: true} }

// String renders the scalar for diagnostics: NULL for null values,
// otherwise the payload in its shortest stable spelling.
func (s Scalar) String() string {
	if s.Null {
		return "NULL"
	}
	switch s.Kind {
	case KindBool:
		return strconv.FormatBool(s.Bool)
	case KindInt:
		return strconv.FormatInt(s.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(s.Float, 'g', -1, 64)
	default:
		return strconv.Quote(s.Str)
	}
}

// collator is shared across executions; collate.Collator is not safe for
// concurrent use, so CompareString calls are serialized.
var (
	collMu   sync.Mutex
	collator = collate.New(language.Und)
)

func collateStrings(a, b string) int {
	collMu.Lock()
	defer collMu.Unlock()
	return collator.CompareString(a, b)
}

// signExtend interprets the low w.Bits() of v as a signed integer.
func signExtend(v int64, w Width) int64 {
	if w == W64 {
		return v
	}
	shift := 64 - uint(w.Bits())
	return v << shift >> shift
}

// checkedOp computes a width-w checked add/sub/mul, returning the wrapped
// result and whether the mathematical result overflowed the width.
func checkedOp(op OpCode, w Width, a, b int64) (int64, bool) {
	if w != W64 {
		// Operands fit in 32 bits, so the exact result fits in int64.
		var full int64
		switch op {
		case OpCheckedAdd:
			full = a + b
		case OpCheckedSub:
			full = a - b
		case OpCheckedMul:
			full = a * b
		}
		wrapped := signExtend(full, w)
		return wrapped, wrapped != full
	}

	switch op {
	case OpCheckedAdd:
		s := a + b
		return s, (a >= 0) == (b >= 0) && (s >= 0) != (a >= 0)
	case OpCheckedSub:
		s := a - b
		return s, (a >= 0) != (b >= 0) && (s >= 0) != (a >= 0)
	default: // OpCheckedMul
		if a == 0 || b == 0 {
			return 0, false
		}
		p := a * b
		if (a == math.MinInt64 && b == -1) || (b == math.MinInt64 && a == -1) {
			return p, true
		}
		return p, p/b != a
	}
}

// Run executes a compiled program against the given parameter bindings and
// returns the result value. Faults emitted by the program surface as
// *FaultError. A frame is allocated per call, so a single Program may be
// executed concurrently from many goroutines.
func Run(p *Program, params ...Scalar) (Scalar, error) {
	if len(params) < p.NumParams {
		return Scalar{}, fmt.Errorf("program needs %d params, got %d", p.NumParams, len(params))
	}

	regs := make([]Scalar, p.NumRegs)
	pc := 0
	for pc < len(p.Instrs) {
		in := p.Instrs[pc]
		switch in.Op {
		case OpConstBool:
			regs[in.Dst] = BoolScalar(in.Imm != 0)
		case OpConstInt:
			regs[in.Dst] = IntScalar(signExtend(in.Imm, in.W))
		case OpConstFloat:
			regs[in.Dst] = FloatScalar(in.F)
		case OpConstString:
			regs[in.Dst] = StringScalar(in.S)
		case OpParam:
			p := params[in.Imm]
			// The null indicator travels separately (OpParamNull); the
			// primary register carries only the payload.
			p.Null = false
			regs[in.Dst] = p
		case OpParamNull:
			regs[in.Dst] = BoolScalar(params[in.Imm].Null)

		case OpCheckedAdd, OpCheckedSub, OpCheckedMul:
			res, ovf := checkedOp(in.Op, in.W, regs[in.A].Int, regs[in.B].Int)
			regs[in.Dst] = IntScalar(res)
			regs[in.Flag] = BoolScalar(ovf)
		case OpSub:
			regs[in.Dst] = IntScalar(signExtend(regs[in.A].Int-regs[in.B].Int, in.W))
		case OpDiv:
			if regs[in.B].Int == 0 {
				return Scalar{}, &FaultError{Code: FaultDivideByZero, PC: pc}
			}
			regs[in.Dst] = IntScalar(signExtend(regs[in.A].Int/regs[in.B].Int, in.W))
		case OpRem:
			if regs[in.B].Int == 0 {
				return Scalar{}, &FaultError{Code: FaultDivideByZero, PC: pc}
			}
			regs[in.Dst] = IntScalar(signExtend(regs[in.A].Int%regs[in.B].Int, in.W))

		case OpFAdd:
			regs[in.Dst] = FloatScalar(regs[in.A].Float + regs[in.B].Float)
		case OpFSub:
			regs[in.Dst] = FloatScalar(regs[in.A].Float - regs[in.B].Float)
		case OpFMul:
			regs[in.Dst] = FloatScalar(regs[in.A].Float * regs[in.B].Float)
		case OpFDiv:
			regs[in.Dst] = FloatScalar(regs[in.A].Float / regs[in.B].Float)
		case OpSqrt:
			regs[in.Dst] = FloatScalar(math.Sqrt(regs[in.A].Float))
		case OpFFloor:
			regs[in.Dst] = FloatScalar(math.Floor(regs[in.A].Float))
		case OpFCeil:
			regs[in.Dst] = FloatScalar(math.Ceil(regs[in.A].Float))

		case OpCmpLT, OpCmpLE, OpCmpEQ, OpCmpNE, OpCmpGT, OpCmpGE:
			regs[in.Dst] = BoolScalar(compare(in.Op, regs[in.A], regs[in.B]))

		case OpCollate:
			regs[in.Dst] = IntScalar(int64(collateStrings(regs[in.A].Str, regs[in.B].Str)))
		case OpConcat:
			regs[in.Dst] = StringScalar(regs[in.A].Str + regs[in.B].Str)
		case OpStrLen:
			regs[in.Dst] = IntScalar(int64(len(regs[in.A].Str)))

		case OpAnd:
			regs[in.Dst] = BoolScalar(regs[in.A].Bool && regs[in.B].Bool)
		case OpOr:
			regs[in.Dst] = BoolScalar(regs[in.A].Bool || regs[in.B].Bool)
		case OpNot:
			regs[in.Dst] = BoolScalar(!regs[in.A].Bool)
		case OpSelect:
			// Only the chosen operand is read: the other register may
			// belong to a branch arm that never executed.
			if regs[in.A].Bool {
				regs[in.Dst] = regs[in.B]
			} else {
				regs[in.Dst] = regs[in.C]
			}

		case OpTrunc:
			regs[in.Dst] = IntScalar(signExtend(regs[in.A].Int, in.W))
		case OpSExt:
			regs[in.Dst] = IntScalar(regs[in.A].Int)
		case OpIntToFloat:
			regs[in.Dst] = FloatScalar(float64(regs[in.A].Int))
		case OpFloatToInt:
			regs[in.Dst] = IntScalar(signExtend(int64(regs[in.A].Float), in.W))
		case OpIntToBool:
			regs[in.Dst] = BoolScalar(regs[in.A].Int&1 != 0)
		case OpBoolToInt:
			v := int64(0)
			if regs[in.A].Bool {
				v = 1
			}
			regs[in.Dst] = IntScalar(v)

		case OpRaiseOverflow:
			if regs[in.A].Bool {
				return Scalar{}, &FaultError{Code: FaultOverflow, PC: pc}
			}
		case OpRaiseDivZero:
			if regs[in.A].Bool {
				return Scalar{}, &FaultError{Code: FaultDivideByZero, PC: pc}
			}

		case OpJump:
			pc = p.Labels[in.Label]
			continue
		case OpJumpIfFalse:
			if !regs[in.A].Bool {
				pc = p.Labels[in.Label]
				continue
			}

		default:
			panic(fmt.Sprintf("codegen: unknown opcode %d", in.Op))
		}
		pc++
	}

	out := regs[p.Result.Primary]
	if p.Result.Null >= 0 && regs[p.Result.Null].Bool {
		out.Null = true
	}
	return out, nil
}

// compare evaluates one of the six predicates on same-kind operands.
func compare(op OpCode, a, b Scalar) bool {
	var c int
	switch a.Kind {
	case KindBool:
		c = boolCmp(a.Bool) - boolCmp(b.Bool)
	case KindInt:
		switch {
		case a.Int < b.Int:
			c = -1
		case a.Int > b.Int:
			c = 1
		}
	case KindFloat:
		switch {
		case a.Float < b.Float:
			c = -1
		case a.Float > b.Float:
			c = 1
		}
	case KindString:
		switch {
		case a.Str < b.Str:
			c = -1
		case a.Str > b.Str:
			c = 1
		}
	}

	switch op {
	case OpCmpLT:
		return c < 0
	case OpCmpLE:
		return c <= 0
	case OpCmpEQ:
		return c == 0
	case OpCmpNE:
		return c != 0
	case OpCmpGT:
		return c > 0
	default: // OpCmpGE
		return c >= 0
	}
}

func boolCmp(v bool) int {
	if v {
		return 1
	}
	return 0
}
