package sqltype

import (
	"encoding/binary"
	"fmt"

	"github.com/quarrydb/quarry/internal/codegen"
)

// The four integer types (TINYINT, SMALLINT, INTEGER, BIGINT) share one set
// of width-parameterized operator cores. Each type instantiates its own
// table wiring, so the registries stay per-type even though the emission
// logic is common.

// castInt casts an integer-family value to
// {BOOLEAN, TINYINT, SMALLINT, INTEGER, BIGINT, DECIMAL}.
//
// BOOLEAN truncates to the low bit; narrower integer targets are
// two's-complement truncations; wider targets sign-extend; DECIMAL is an
// exact integer-to-float conversion. Any other target is unsupported and
// rejected at lookup time.
type castInt struct {
	id TypeID
	w  codegen.Width
}

func (c castInt) SupportsTypes(from, to Type) bool {
	if from.ID != c.id {
		return false
	}
	switch to.ID {
	case BooleanID, TinyIntID, SmallIntID, IntegerID, BigIntID, DecimalID:
		return true
	default:
		return false
	}
}

func (c castInt) impl(e codegen.Emitter, v Value, to Type) Value {
	var result codegen.Handle
	switch to.ID {
	case BooleanID:
		result = e.IntToBool(v.Raw())
	case TinyIntID:
		result = c.conv(e, v.Raw(), codegen.W8)
	case SmallIntID:
		result = c.conv(e, v.Raw(), codegen.W16)
	case IntegerID:
		result = c.conv(e, v.Raw(), codegen.W32)
	case BigIntID:
		result = c.conv(e, v.Raw(), codegen.W64)
	case DecimalID:
		result = e.IntToFloat(v.Raw())
	default:
		panic(fmt.Sprintf("sqltype: cast %s -> %s invoked without predicate check", c.id, to.ID))
	}

	// We may be casting a non-nullable value to a nullable type.
	if to.Nullable {
		return NewValueWithNull(to, result, e.ConstBool(false))
	}
	return NewValue(to, result)
}

func (c castInt) conv(e codegen.Emitter, raw codegen.Handle, target codegen.Width) codegen.Handle {
	switch {
	case target == c.w:
		return raw
	case target < c.w:
		return e.Trunc(target, raw)
	default:
		return e.SExt(target, raw)
	}
}

// compareInt implements the six predicates and the sort comparator for one
// integer width. Operands must both be this exact type; cross-type
// comparison goes through an explicit compiler-inserted cast first.
type compareInt struct {
	id TypeID
	w  codegen.Width
}

func (c compareInt) SupportsTypes(left, right Type) bool {
	return left.ID == c.id && right.ID == c.id
}

func (c compareInt) ltImpl(e codegen.Emitter, left, right Value) Value {
	return NewValue(NonNullable(BooleanID), e.CmpLT(left.Raw(), right.Raw()))
}

func (c compareInt) leImpl(e codegen.Emitter, left, right Value) Value {
	return NewValue(NonNullable(BooleanID), e.CmpLE(left.Raw(), right.Raw()))
}

func (c compareInt) eqImpl(e codegen.Emitter, left, right Value) Value {
	return NewValue(NonNullable(BooleanID), e.CmpEQ(left.Raw(), right.Raw()))
}

func (c compareInt) neImpl(e codegen.Emitter, left, right Value) Value {
	return NewValue(NonNullable(BooleanID), e.CmpNE(left.Raw(), right.Raw()))
}

func (c compareInt) gtImpl(e codegen.Emitter, left, right Value) Value {
	return NewValue(NonNullable(BooleanID), e.CmpGT(left.Raw(), right.Raw()))
}

func (c compareInt) geImpl(e codegen.Emitter, left, right Value) Value {
	return NewValue(NonNullable(BooleanID), e.CmpGE(left.Raw(), right.Raw()))
}

// sortImpl returns a signed 32-bit ordering value. Widths below 64 bits
// subtract in 32-bit registers (left - right); exact for sub-32-bit
// operands, and wrap-bounded for full-range 32-bit operands. BIGINT has no
// wider register to subtract in, so it selects an explicit sign instead.
func (c compareInt) sortImpl(e codegen.Emitter, left, right Value) Value {
	if c.w == codegen.W64 {
		lt := e.CmpLT(left.Raw(), right.Raw())
		gt := e.CmpGT(left.Raw(), right.Raw())
		pos := e.Select(gt, e.ConstInt(codegen.W32, 1), e.ConstInt(codegen.W32, 0))
		sign := e.Select(lt, e.ConstInt(codegen.W32, -1), pos)
		return NewValue(NonNullable(IntegerID), sign)
	}
	diff := e.Sub(codegen.W32, left.Raw(), right.Raw())
	return NewValue(NonNullable(IntegerID), diff)
}

// negateInt computes 0 - x with overflow-checked subtraction. Negation
// raises on overflow unconditionally: it has no error-tolerant mode,
// unlike Add/Sub/Mul below (preserved behavior of the original system).
type negateInt struct {
	id TypeID
	w  codegen.Width
}

func (o negateInt) SupportsType(t Type) bool { return t.ID == o.id }

func (o negateInt) ResultType(Type) Type { return NonNullable(o.id) }

func (o negateInt) impl(e codegen.Emitter, v Value, _ InvocationContext) Value {
	zero := e.ConstInt(o.w, 0)
	result, overflow := e.CheckedSub(o.w, zero, v.Raw())
	e.RaiseIfOverflow(overflow)
	return NewValue(NonNullable(o.id), result)
}

// absInt computes x < 0 ? 0 - x : x branchlessly with unchecked
// subtraction, so the minimum representable value wraps to itself instead
// of faulting (preserved asymmetry with negation; pinned by tests).
type absInt struct {
	id TypeID
	w  codegen.Width
}

func (o absInt) SupportsType(t Type) bool { return t.ID == o.id }

func (o absInt) ResultType(Type) Type { return NonNullable(o.id) }

func (o absInt) impl(e codegen.Emitter, v Value, _ InvocationContext) Value {
	zero := e.ConstInt(o.w, 0)
	negated := e.Sub(o.w, zero, v.Raw())
	ltZero := e.CmpLT(v.Raw(), zero)
	return NewValue(NonNullable(o.id), e.Select(ltZero, negated, v.Raw()))
}

// floorCeilInt implements Floor and Ceil on integers: there is no
// fractional component, so both degenerate to a lossless cast to DECIMAL.
type floorCeilInt struct {
	id TypeID
	w  codegen.Width
}

func (o floorCeilInt) SupportsType(t Type) bool { return t.ID == o.id }

func (o floorCeilInt) ResultType(Type) Type { return NonNullable(DecimalID) }

func (o floorCeilInt) impl(e codegen.Emitter, v Value, _ InvocationContext) Value {
	return castInt{id: o.id, w: o.w}.impl(e, v, NonNullable(DecimalID))
}

// sqrtInt casts to DECIMAL and applies the floating-point square root.
// Negative input is not checked; IEEE sqrt yields NaN.
type sqrtInt struct {
	id TypeID
	w  codegen.Width
}

func (o sqrtInt) SupportsType(t Type) bool { return t.ID == o.id }

func (o sqrtInt) ResultType(Type) Type { return NonNullable(DecimalID) }

func (o sqrtInt) impl(e codegen.Emitter, v Value, _ InvocationContext) Value {
	casted := castInt{id: o.id, w: o.w}.impl(e, v, NonNullable(DecimalID))
	return NewValue(NonNullable(DecimalID), e.Sqrt(casted.Raw()))
}

// arithInt implements Add, Sub, and Mul with overflow-checked primitives.
// The overflow fault is only raised under the Raise policy; under
// ReturnNull the wrapped result is returned unconditionally, with no
// check (preserved behavior of the original system, pinned by tests).
type arithInt struct {
	id TypeID
	w  codegen.Width
	op OperatorID
}

func (o arithInt) SupportsTypes(left, right Type) bool {
	return left.ID == o.id && right.ID == o.id
}

func (o arithInt) ResultType(Type, Type) Type { return NonNullable(o.id) }

func (o arithInt) impl(e codegen.Emitter, left, right Value, ctx InvocationContext) Value {
	var result, overflow codegen.Handle
	switch o.op {
	case OpAdd:
		result, overflow = e.CheckedAdd(o.w, left.Raw(), right.Raw())
	case OpSub:
		result, overflow = e.CheckedSub(o.w, left.Raw(), right.Raw())
	case OpMul:
		result, overflow = e.CheckedMul(o.w, left.Raw(), right.Raw())
	default:
		panic(fmt.Sprintf("sqltype: arithInt misconfigured with operator %s", o.op))
	}

	if ctx.OnError == Raise {
		e.RaiseIfOverflow(overflow)
	}
	return NewValue(NonNullable(o.id), result)
}

// divModInt implements Div and Mod. The divisor is always tested for zero
// first. Under ReturnNull the zero path produces the type's null value and
// joins the nonzero path through a phi; under Raise the zero check raises
// before the division executes.
type divModInt struct {
	id TypeID
	w  codegen.Width
	op OperatorID
}

func (o divModInt) SupportsTypes(left, right Type) bool {
	return left.ID == o.id && right.ID == o.id
}

func (o divModInt) ResultType(Type, Type) Type { return NonNullable(o.id) }

func (o divModInt) emit(e codegen.Emitter, left, right Value) codegen.Handle {
	if o.op == OpMod {
		return e.Rem(o.w, left.Raw(), right.Raw())
	}
	return e.Div(o.w, left.Raw(), right.Raw())
}

func (o divModInt) impl(e codegen.Emitter, left, right Value, ctx InvocationContext) Value {
	zero := e.ConstInt(o.w, 0)
	isZero := e.CmpEQ(right.Raw(), zero)

	if ctx.OnError == ReturnNull {
		ifb := codegen.NewIf(e, isZero)
		nullVal := FromID(o.id).NullValue(e)
		ifb.ElseBlock()
		quotient := NewValue(NonNullable(o.id), o.emit(e, left, right))
		ifb.EndIf()
		return mergeBranchValues(e, ifb, nullVal, quotient)
	}

	e.RaiseIfDivideByZero(isZero)
	return NewValue(NonNullable(o.id), o.emit(e, left, right))
}

// intType is the shared SqlType implementation behind the four
// integer-family singletons.
type intType struct {
	id   TypeID
	w    codegen.Width
	ts   *TypeSystem
	min  int64
	max  int64
	null int64
}

// The null sentinel is the width's minimum two's-complement value; the
// usable domain starts one above it.
func newIntType(id TypeID, w codegen.Width) *intType {
	sentinel := int64(-1) << (w.Bits() - 1)
	t := &intType{
		id:   id,
		w:    w,
		min:  sentinel + 1,
		max:  -(sentinel + 1),
		null: sentinel,
	}

	cast := handleNullCast(castInt{id: id, w: w})
	castTargets := []TypeID{BooleanID, TinyIntID, SmallIntID, IntegerID, BigIntID, DecimalID}
	casts := make([]CastEntry, 0, len(castTargets))
	for _, to := range castTargets {
		casts = append(casts, CastEntry{From: id, To: to, Op: cast})
	}

	// Silent widening targets, in preference order.
	widening := []TypeID{TinyIntID, SmallIntID, IntegerID, BigIntID, DecimalID}
	var implicit []TypeID
	for i, wid := range widening {
		if wid == id {
			implicit = widening[i:]
			break
		}
	}

	t.ts = NewTypeSystem(
		implicit,
		casts,
		[]Comparison{handleNullComparison(compareInt{id: id, w: w})},
		[]UnaryEntry{
			{ID: OpNegation, Op: handleNullUnary(negateInt{id: id, w: w})},
			{ID: OpAbs, Op: handleNullUnary(absInt{id: id, w: w})},
			{ID: OpCeil, Op: handleNullUnary(floorCeilInt{id: id, w: w})},
			{ID: OpFloor, Op: handleNullUnary(floorCeilInt{id: id, w: w})},
			{ID: OpSqrt, Op: handleNullUnary(sqrtInt{id: id, w: w})},
		},
		[]BinaryEntry{
			{ID: OpAdd, Op: handleNullBinary(arithInt{id: id, w: w, op: OpAdd})},
			{ID: OpSub, Op: handleNullBinary(arithInt{id: id, w: w, op: OpSub})},
			{ID: OpMul, Op: handleNullBinary(arithInt{id: id, w: w, op: OpMul})},
			{ID: OpDiv, Op: handleNullBinary(divModInt{id: id, w: w, op: OpDiv})},
			{ID: OpMod, Op: handleNullBinary(divModInt{id: id, w: w, op: OpMod})},
		},
		nil,
		nil,
	)
	return t
}

func (t *intType) ID() TypeID { return t.id }

func (t *intType) Name() string { return t.id.String() }

func (t *intType) TypeSystem() *TypeSystem { return t.ts }

func (t *intType) MinValue(e codegen.Emitter) Value {
	return NewValue(NonNullable(t.id), e.ConstInt(t.w, t.min))
}

func (t *intType) MaxValue(e codegen.Emitter) Value {
	return NewValue(NonNullable(t.id), e.ConstInt(t.w, t.max))
}

func (t *intType) NullValue(e codegen.Emitter) Value {
	return NewValueWithNull(Nullable(t.id), e.ConstInt(t.w, t.null), e.ConstBool(true))
}

func (t *intType) Layout() Layout {
	return Layout{ValWidth: t.w.Bits() / 8}
}

func (t *intType) EncodeStored(s codegen.Scalar) ([]byte, error) {
	if !s.Null && s.Kind != codegen.KindInt {
		return nil, fmt.Errorf("%s: cannot store %s scalar", t.Name(), s.Kind)
	}
	v := s.Int
	if s.Null {
		v = t.null
	} else if v < t.min || v > t.max {
		return nil, fmt.Errorf("%s: value %d out of range", t.Name(), v)
	}

	buf := make([]byte, t.w.Bits()/8)
	switch t.w {
	case codegen.W8:
		buf[0] = byte(v)
	case codegen.W16:
		binary.LittleEndian.PutUint16(buf, uint16(v))
	case codegen.W32:
		binary.LittleEndian.PutUint32(buf, uint32(v))
	default:
		binary.LittleEndian.PutUint64(buf, uint64(v))
	}
	return buf, nil
}

func (t *intType) DecodeStored(buf []byte) (codegen.Scalar, error) {
	if len(buf) != t.w.Bits()/8 {
		return codegen.Scalar{}, fmt.Errorf("%s: stored form must be %d bytes, got %d",
			t.Name(), t.w.Bits()/8, len(buf))
	}

	var v int64
	switch t.w {
	case codegen.W8:
		v = int64(int8(buf[0]))
	case codegen.W16:
		v = int64(int16(binary.LittleEndian.Uint16(buf)))
	case codegen.W32:
		v = int64(int32(binary.LittleEndian.Uint32(buf)))
	default:
		v = int64(binary.LittleEndian.Uint64(buf))
	}

	if v == t.null {
		return codegen.NullScalar(codegen.KindInt), nil
	}
	return codegen.IntScalar(v), nil
}
