package codegen

import "fmt"

// reg is the Builder's handle representation: an index into the
// interpreter's register frame.
type reg struct {
	b *Builder
	n int
}

func (reg) handle() {}

// Builder lowers Emitter calls into a bytecode Program. A Builder is used
// by exactly one compilation and is not safe for concurrent use. After
// Finish the builder must not be reused.
type Builder struct {
	instrs    []Instr
	labels    []int
	nregs     int
	nparams   int
	ifStack   []ifFrame
	lastCond  int
	hasPhiSrc bool
	finished  bool
}

// ifFrame tracks one open BeginIf block.
type ifFrame struct {
	cond     int
	elseLbl  int
	endLbl   int
	seenElse bool
}

// NewBuilder returns an empty Builder positioned at the program entry.
func NewBuilder() *Builder {
	return &Builder{}
}

// Len returns the number of instructions emitted so far. The type system
// uses this to assert that failed lookups emit nothing.
func (b *Builder) Len() int {
	return len(b.instrs)
}

func (b *Builder) newReg() reg {
	r := reg{b: b, n: b.nregs}
	b.nregs++
	return r
}

func (b *Builder) newLabel() int {
	b.labels = append(b.labels, -1)
	return len(b.labels) - 1
}

func (b *Builder) bind(label int) {
	b.labels[label] = len(b.instrs)
}

// r unwraps a Handle, panicking on nil or foreign handles. Handles never
// cross builders; a violation is a programming error, not a user fault.
func (b *Builder) r(h Handle) int {
	if h == nil {
		panic("codegen: nil handle")
	}
	rr, ok := h.(reg)
	if !ok || rr.b != b {
		panic(fmt.Sprintf("codegen: handle %v belongs to another builder", h))
	}
	return rr.n
}

func (b *Builder) emit(in Instr) {
	if b.finished {
		panic("codegen: emit after Finish")
	}
	b.instrs = append(b.instrs, in)
}

func (b *Builder) emitDst(in Instr) reg {
	d := b.newReg()
	in.Dst = d.n
	b.emit(in)
	return d
}

// ConstBool emits a boolean constant.
func (b *Builder) ConstBool(v bool) Handle {
	imm := int64(0)
	if v {
		imm = 1
	}
	return b.emitDst(Instr{Op: OpConstBool, Imm: imm})
}

// ConstInt emits an integer constant of the given width.
func (b *Builder) ConstInt(w Width, v int64) Handle {
	return b.emitDst(Instr{Op: OpConstInt, W: w, Imm: v})
}

// ConstFloat emits a 64-bit floating-point constant.
func (b *Builder) ConstFloat(v float64) Handle {
	return b.emitDst(Instr{Op: OpConstFloat, F: v})
}

// ConstString emits a string constant.
func (b *Builder) ConstString(v string) Handle {
	return b.emitDst(Instr{Op: OpConstString, S: v})
}

// Param binds the index-th program input to a register. Parameter indices
// may be bound in any order; the frame is sized by the highest index seen.
func (b *Builder) Param(index int) Handle {
	if index < 0 {
		panic("codegen: negative param index")
	}
	if index >= b.nparams {
		b.nparams = index + 1
	}
	return b.emitDst(Instr{Op: OpParam, Imm: int64(index)})
}

// ParamNull binds the null indicator of the index-th program input.
func (b *Builder) ParamNull(index int) Handle {
	if index < 0 {
		panic("codegen: negative param index")
	}
	if index >= b.nparams {
		b.nparams = index + 1
	}
	return b.emitDst(Instr{Op: OpParamNull, Imm: int64(index)})
}

func (b *Builder) checked(op OpCode, w Width, left, right Handle) (Handle, Handle) {
	res := b.newReg()
	flag := b.newReg()
	b.emit(Instr{Op: op, Dst: res.n, Flag: flag.n, A: b.r(left), B: b.r(right), W: w})
	return res, flag
}

// CheckedAdd emits overflow-checked addition.
func (b *Builder) CheckedAdd(w Width, left, right Handle) (Handle, Handle) {
	return b.checked(OpCheckedAdd, w, left, right)
}

// CheckedSub emits overflow-checked subtraction.
func (b *Builder) CheckedSub(w Width, left, right Handle) (Handle, Handle) {
	return b.checked(OpCheckedSub, w, left, right)
}

// CheckedMul emits overflow-checked multiplication.
func (b *Builder) CheckedMul(w Width, left, right Handle) (Handle, Handle) {
	return b.checked(OpCheckedMul, w, left, right)
}

func (b *Builder) binary(op OpCode, w Width, left, right Handle) Handle {
	return b.emitDst(Instr{Op: op, A: b.r(left), B: b.r(right), W: w})
}

// Sub emits wrapping subtraction (no overflow detection).
func (b *Builder) Sub(w Width, left, right Handle) Handle {
	return b.binary(OpSub, w, left, right)
}

// Div emits signed division. The program faults if the divisor is zero;
// operators guard the divisor before emitting this.
func (b *Builder) Div(w Width, left, right Handle) Handle {
	return b.binary(OpDiv, w, left, right)
}

// Rem emits signed remainder with the same zero-divisor contract as Div.
func (b *Builder) Rem(w Width, left, right Handle) Handle {
	return b.binary(OpRem, w, left, right)
}

// FAdd emits floating-point addition.
func (b *Builder) FAdd(left, right Handle) Handle { return b.binary(OpFAdd, 0, left, right) }

// FSub emits floating-point subtraction.
func (b *Builder) FSub(left, right Handle) Handle { return b.binary(OpFSub, 0, left, right) }

// FMul emits floating-point multiplication.
func (b *Builder) FMul(left, right Handle) Handle { return b.binary(OpFMul, 0, left, right) }

// FDiv emits floating-point division (IEEE semantics, no fault).
func (b *Builder) FDiv(left, right Handle) Handle { return b.binary(OpFDiv, 0, left, right) }

// Sqrt emits a floating-point square root. Negative input yields NaN.
func (b *Builder) Sqrt(v Handle) Handle {
	return b.emitDst(Instr{Op: OpSqrt, A: b.r(v)})
}

// FFloor emits a floating-point floor.
func (b *Builder) FFloor(v Handle) Handle {
	return b.emitDst(Instr{Op: OpFFloor, A: b.r(v)})
}

// FCeil emits a floating-point ceiling.
func (b *Builder) FCeil(v Handle) Handle {
	return b.emitDst(Instr{Op: OpFCeil, A: b.r(v)})
}

// CmpLT emits left < right.
func (b *Builder) CmpLT(left, right Handle) Handle { return b.binary(OpCmpLT, 0, left, right) }

// CmpLE emits left <= right.
func (b *Builder) CmpLE(left, right Handle) Handle { return b.binary(OpCmpLE, 0, left, right) }

// CmpEQ emits left == right.
func (b *Builder) CmpEQ(left, right Handle) Handle { return b.binary(OpCmpEQ, 0, left, right) }

// CmpNE emits left != right.
func (b *Builder) CmpNE(left, right Handle) Handle { return b.binary(OpCmpNE, 0, left, right) }

// CmpGT emits left > right.
func (b *Builder) CmpGT(left, right Handle) Handle { return b.binary(OpCmpGT, 0, left, right) }

// CmpGE emits left >= right.
func (b *Builder) CmpGE(left, right Handle) Handle { return b.binary(OpCmpGE, 0, left, right) }

// Collate emits a collation-aware three-way string comparison.
func (b *Builder) Collate(left, right Handle) Handle { return b.binary(OpCollate, 0, left, right) }

// Concat emits string concatenation.
func (b *Builder) Concat(left, right Handle) Handle { return b.binary(OpConcat, 0, left, right) }

// StrLen emits a string-length computation (32-bit integer result).
func (b *Builder) StrLen(v Handle) Handle {
	return b.emitDst(Instr{Op: OpStrLen, A: b.r(v)})
}

// And emits boolean conjunction.
func (b *Builder) And(left, right Handle) Handle { return b.binary(OpAnd, 0, left, right) }

// Or emits boolean disjunction.
func (b *Builder) Or(left, right Handle) Handle { return b.binary(OpOr, 0, left, right) }

// Not emits boolean negation.
func (b *Builder) Not(v Handle) Handle {
	return b.emitDst(Instr{Op: OpNot, A: b.r(v)})
}

// Select emits cond ? ifTrue : ifFalse. The interpreter reads only the
// chosen operand register, so the other may come from an untaken branch.
func (b *Builder) Select(cond, ifTrue, ifFalse Handle) Handle {
	return b.emitDst(Instr{Op: OpSelect, A: b.r(cond), B: b.r(ifTrue), C: b.r(ifFalse)})
}

// Trunc emits two's-complement truncation to the given width.
func (b *Builder) Trunc(w Width, v Handle) Handle {
	return b.emitDst(Instr{Op: OpTrunc, W: w, A: b.r(v)})
}

// SExt emits sign extension to the given width.
func (b *Builder) SExt(w Width, v Handle) Handle {
	return b.emitDst(Instr{Op: OpSExt, W: w, A: b.r(v)})
}

// IntToFloat emits an exact signed-integer-to-float conversion.
func (b *Builder) IntToFloat(v Handle) Handle {
	return b.emitDst(Instr{Op: OpIntToFloat, A: b.r(v)})
}

// FloatToInt emits a float-to-signed-integer truncation at width w.
func (b *Builder) FloatToInt(w Width, v Handle) Handle {
	return b.emitDst(Instr{Op: OpFloatToInt, W: w, A: b.r(v)})
}

// IntToBool emits a truncation of an integer to its low bit.
func (b *Builder) IntToBool(v Handle) Handle {
	return b.emitDst(Instr{Op: OpIntToBool, A: b.r(v)})
}

// BoolToInt emits a zero-extension of a boolean to 0 or 1 at width w.
func (b *Builder) BoolToInt(w Width, v Handle) Handle {
	return b.emitDst(Instr{Op: OpBoolToInt, W: w, A: b.r(v)})
}

// RaiseIfOverflow emits a conditional arithmetic-overflow fault.
func (b *Builder) RaiseIfOverflow(flag Handle) {
	b.emit(Instr{Op: OpRaiseOverflow, A: b.r(flag)})
}

// RaiseIfDivideByZero emits a conditional division-by-zero fault.
func (b *Builder) RaiseIfDivideByZero(flag Handle) {
	b.emit(Instr{Op: OpRaiseDivZero, A: b.r(flag)})
}

// BeginIf opens a conditional block on cond.
func (b *Builder) BeginIf(cond Handle) {
	f := ifFrame{
		cond:    b.r(cond),
		elseLbl: b.newLabel(),
		endLbl:  b.newLabel(),
	}
	b.emit(Instr{Op: OpJumpIfFalse, A: f.cond, Label: f.elseLbl})
	b.ifStack = append(b.ifStack, f)
}

// BeginElse switches emission to the else arm of the innermost open block.
func (b *Builder) BeginElse() {
	if len(b.ifStack) == 0 {
		panic("codegen: BeginElse without BeginIf")
	}
	f := &b.ifStack[len(b.ifStack)-1]
	if f.seenElse {
		panic("codegen: duplicate BeginElse")
	}
	f.seenElse = true
	b.emit(Instr{Op: OpJump, Label: f.endLbl})
	b.bind(f.elseLbl)
}

// EndIf closes the innermost open conditional block.
func (b *Builder) EndIf() {
	if len(b.ifStack) == 0 {
		panic("codegen: EndIf without BeginIf")
	}
	f := b.ifStack[len(b.ifStack)-1]
	b.ifStack = b.ifStack[:len(b.ifStack)-1]
	if !f.seenElse {
		b.bind(f.elseLbl)
	}
	b.bind(f.endLbl)
	b.lastCond = f.cond
	b.hasPhiSrc = true
}

// Phi merges the two arm results of the block just closed by EndIf. The
// merge lowers to a select on the saved branch condition; because select
// reads only the chosen operand, each operand may have been produced in
// only one arm.
func (b *Builder) Phi(ifTrue, ifFalse Handle) Handle {
	if !b.hasPhiSrc {
		panic("codegen: Phi without a closed conditional block")
	}
	return b.emitDst(Instr{Op: OpSelect, A: b.lastCond, B: b.r(ifTrue), C: b.r(ifFalse)})
}

// Finish seals the builder into an immutable Program. primary names the
// result register; length and null may be nil when the result carries no
// length or null indicator.
func (b *Builder) Finish(primary, length, null Handle) *Program {
	if b.finished {
		panic("codegen: Finish called twice")
	}
	if len(b.ifStack) != 0 {
		panic("codegen: Finish with unclosed conditional block")
	}
	b.finished = true

	res := ResultSpec{Primary: b.r(primary), Length: -1, Null: -1}
	if length != nil {
		res.Length = b.r(length)
	}
	if null != nil {
		res.Null = b.r(null)
	}
	return &Program{
		Instrs:    b.instrs,
		Labels:    b.labels,
		NumRegs:   b.nregs,
		NumParams: b.nparams,
		Result:    res,
	}
}
