package codegen

// Handle references a single value produced by an Emitter.
//
// Handles are opaque and meaningful only to the Emitter that produced them.
// Passing a handle from one builder into another is a programming error and
// panics in the reference backend.
type Handle interface {
	handle()
}

// Width selects the native integer width an arithmetic or conversion
// operation works at. Integer registers always hold a sign-extended 64-bit
// value; the width decides where wrapping and overflow detection happen.
type Width uint8

const (
	// W8 is an 8-bit signed integer (TINYINT).
	W8 Width = iota
	// W16 is a 16-bit signed integer (SMALLINT).
	W16
	// W32 is a 32-bit signed integer (INTEGER).
	W32
	// W64 is a 64-bit signed integer (BIGINT).
	W64
)

// Bits returns the number of value bits for the width.
func (w Width) Bits() int {
	switch w {
	case W8:
		return 8
	case W16:
		return 16
	case W32:
		return 32
	case W64:
		return 64
	default:
		panic("codegen: unknown width")
	}
}

// String returns the disassembly suffix for the width (i8, i16, i32, i64).
func (w Width) String() string {
	switch w {
	case W8:
		return "i8"
	case W16:
		return "i16"
	case W32:
		return "i32"
	case W64:
		return "i64"
	default:
		return "i?"
	}
}

// Emitter is the facade through which operators produce executable logic.
//
// All methods append to the current control-flow position. Conditional
// structure is expressed with BeginIf/BeginElse/EndIf; after EndIf, Phi
// merges one value from each arm into a single handle valid on the joined
// path. The If helper wraps those four calls in the shape operator code
// actually uses.
//
// Checked arithmetic returns the (possibly wrapped) result plus a boolean
// overflow flag. Whether the flag turns into a fault is the caller's
// decision, made through RaiseIfOverflow.
type Emitter interface {
	// Constants and parameters.
	ConstBool(v bool) Handle
	ConstInt(w Width, v int64) Handle
	ConstFloat(v float64) Handle
	ConstString(v string) Handle
	// Param binds the index-th program input; ParamNull binds a boolean
	// holding the input's null indicator.
	Param(index int) Handle
	ParamNull(index int) Handle

	// Overflow-checked integer arithmetic. The second handle is a boolean
	// flag that is true when the mathematical result did not fit in w.
	CheckedAdd(w Width, left, right Handle) (Handle, Handle)
	CheckedSub(w Width, left, right Handle) (Handle, Handle)
	CheckedMul(w Width, left, right Handle) (Handle, Handle)

	// Unchecked (wrapping) subtraction, signed division and remainder.
	Sub(w Width, left, right Handle) Handle
	Div(w Width, left, right Handle) Handle
	Rem(w Width, left, right Handle) Handle

	// Floating-point arithmetic.
	FAdd(left, right Handle) Handle
	FSub(left, right Handle) Handle
	FMul(left, right Handle) Handle
	FDiv(left, right Handle) Handle
	Sqrt(v Handle) Handle
	FFloor(v Handle) Handle
	FCeil(v Handle) Handle

	// Comparisons produce boolean handles. Operands must share a kind.
	CmpLT(left, right Handle) Handle
	CmpLE(left, right Handle) Handle
	CmpEQ(left, right Handle) Handle
	CmpNE(left, right Handle) Handle
	CmpGT(left, right Handle) Handle
	CmpGE(left, right Handle) Handle

	// Collate is a collation-aware three-way string comparison returning a
	// 32-bit integer sign (<0, 0, >0).
	Collate(left, right Handle) Handle
	// Concat appends right to left.
	Concat(left, right Handle) Handle
	// StrLen returns the length of a string as a 32-bit integer.
	StrLen(v Handle) Handle

	// Boolean combinators.
	And(left, right Handle) Handle
	Or(left, right Handle) Handle
	Not(v Handle) Handle

	// Select returns ifTrue when cond holds, ifFalse otherwise. Only the
	// chosen operand is observed, so either may come from a branch arm that
	// did not execute.
	Select(cond, ifTrue, ifFalse Handle) Handle

	// Width and representation conversions.
	Trunc(w Width, v Handle) Handle
	SExt(w Width, v Handle) Handle
	IntToFloat(v Handle) Handle
	FloatToInt(w Width, v Handle) Handle
	// IntToBool truncates to the low bit; BoolToInt zero-extends 0/1.
	IntToBool(v Handle) Handle
	BoolToInt(w Width, v Handle) Handle

	// Fault raising. The generated program aborts with the corresponding
	// fault when the flag is true at run time.
	RaiseIfOverflow(flag Handle)
	RaiseIfDivideByZero(flag Handle)

	// Structured conditional emission. Calls must nest properly; Phi is
	// only valid immediately after the EndIf that closed the block.
	BeginIf(cond Handle)
	BeginElse()
	EndIf()
	Phi(ifTrue, ifFalse Handle) Handle
}

// If wraps the Emitter's structured-branch calls in the form operator
// implementations use:
//
//	ifb := codegen.NewIf(e, cond)
//	... emit then-arm ...
//	ifb.ElseBlock()
//	... emit else-arm ...
//	ifb.EndIf()
//	merged := ifb.BuildPHI(thenHandle, elseHandle)
type If struct {
	e Emitter
}

// NewIf opens a conditional block on cond.
func NewIf(e Emitter, cond Handle) *If {
	e.BeginIf(cond)
	return &If{e: e}
}

// ElseBlock switches emission to the else arm.
func (i *If) ElseBlock() {
	i.e.BeginElse()
}

// EndIf closes the conditional block.
func (i *If) EndIf() {
	i.e.EndIf()
}

// BuildPHI merges the two arm results into one handle valid after the join.
func (i *If) BuildPHI(ifTrue, ifFalse Handle) Handle {
	return i.e.Phi(ifTrue, ifFalse)
}
