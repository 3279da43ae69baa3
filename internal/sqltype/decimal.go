package sqltype

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/quarrydb/quarry/internal/codegen"
)

// The DECIMAL null sentinel is the smallest positive normal double,
// mirroring the integer family's use of the width minimum.
var decimalNullSentinel = math.Float64frombits(0x0010000000000000)

// castDecimal casts DECIMAL to itself, the integer family (truncation
// toward zero), or BOOLEAN (nonzero test).
type castDecimal struct{}

func (castDecimal) SupportsTypes(from, to Type) bool {
	if from.ID != DecimalID {
		return false
	}
	switch to.ID {
	case BooleanID, TinyIntID, SmallIntID, IntegerID, BigIntID, DecimalID:
		return true
	default:
		return false
	}
}

func (castDecimal) impl(e codegen.Emitter, v Value, to Type) Value {
	var result codegen.Handle
	switch to.ID {
	case DecimalID:
		result = v.Raw()
	case BooleanID:
		result = e.CmpNE(v.Raw(), e.ConstFloat(0))
	case TinyIntID:
		result = e.FloatToInt(codegen.W8, v.Raw())
	case SmallIntID:
		result = e.FloatToInt(codegen.W16, v.Raw())
	case IntegerID:
		result = e.FloatToInt(codegen.W32, v.Raw())
	case BigIntID:
		result = e.FloatToInt(codegen.W64, v.Raw())
	default:
		panic(fmt.Sprintf("sqltype: cast DECIMAL -> %s invoked without predicate check", to.ID))
	}
	if to.Nullable {
		return NewValueWithNull(to, result, e.ConstBool(false))
	}
	return NewValue(to, result)
}

// compareDecimal implements the predicates on doubles. The sort comparator
// cannot subtract (the difference is not an integer), so it selects an
// explicit sign.
type compareDecimal struct{}

func (compareDecimal) SupportsTypes(left, right Type) bool {
	return left.ID == DecimalID && right.ID == DecimalID
}

func (compareDecimal) ltImpl(e codegen.Emitter, l, r Value) Value {
	return NewValue(NonNullable(BooleanID), e.CmpLT(l.Raw(), r.Raw()))
}

func (compareDecimal) leImpl(e codegen.Emitter, l, r Value) Value {
	return NewValue(NonNullable(BooleanID), e.CmpLE(l.Raw(), r.Raw()))
}

func (compareDecimal) eqImpl(e codegen.Emitter, l, r Value) Value {
	return NewValue(NonNullable(BooleanID), e.CmpEQ(l.Raw(), r.Raw()))
}

func (compareDecimal) neImpl(e codegen.Emitter, l, r Value) Value {
	return NewValue(NonNullable(BooleanID), e.CmpNE(l.Raw(), r.Raw()))
}

func (compareDecimal) gtImpl(e codegen.Emitter, l, r Value) Value {
	return NewValue(NonNullable(BooleanID), e.CmpGT(l.Raw(), r.Raw()))
}

func (compareDecimal) geImpl(e codegen.Emitter, l, r Value) Value {
	return NewValue(NonNullable(BooleanID), e.CmpGE(l.Raw(), r.Raw()))
}

func (compareDecimal) sortImpl(e codegen.Emitter, l, r Value) Value {
	lt := e.CmpLT(l.Raw(), r.Raw())
	gt := e.CmpGT(l.Raw(), r.Raw())
	pos := e.Select(gt, e.ConstInt(codegen.W32, 1), e.ConstInt(codegen.W32, 0))
	sign := e.Select(lt, e.ConstInt(codegen.W32, -1), pos)
	return NewValue(NonNullable(IntegerID), sign)
}

// negateDecimal computes 0.0 - x. Doubles have no overflow fault.
type negateDecimal struct{}

func (negateDecimal) SupportsType(t Type) bool { return t.ID == DecimalID }

func (negateDecimal) ResultType(Type) Type { return NonNullable(DecimalID) }

func (negateDecimal) impl(e codegen.Emitter, v Value, _ InvocationContext) Value {
	return NewValue(NonNullable(DecimalID), e.FSub(e.ConstFloat(0), v.Raw()))
}

// absDecimal computes x < 0 ? 0 - x : x branchlessly.
type absDecimal struct{}

func (absDecimal) SupportsType(t Type) bool { return t.ID == DecimalID }

func (absDecimal) ResultType(Type) Type { return NonNullable(DecimalID) }

func (absDecimal) impl(e codegen.Emitter, v Value, _ InvocationContext) Value {
	zero := e.ConstFloat(0)
	negated := e.FSub(zero, v.Raw())
	ltZero := e.CmpLT(v.Raw(), zero)
	return NewValue(NonNullable(DecimalID), e.Select(ltZero, negated, v.Raw()))
}

// floatUnary implements Sqrt, Floor, and Ceil through the corresponding
// floating-point primitive. Sqrt of a negative argument is whatever IEEE
// sqrt does (NaN).
type floatUnary struct {
	op OperatorID
}

func (floatUnary) SupportsType(t Type) bool { return t.ID == DecimalID }

func (floatUnary) ResultType(Type) Type { return NonNullable(DecimalID) }

func (o floatUnary) impl(e codegen.Emitter, v Value, _ InvocationContext) Value {
	var result codegen.Handle
	switch o.op {
	case OpSqrt:
		result = e.Sqrt(v.Raw())
	case OpFloor:
		result = e.FFloor(v.Raw())
	case OpCeil:
		result = e.FCeil(v.Raw())
	default:
		panic(fmt.Sprintf("sqltype: floatUnary misconfigured with operator %s", o.op))
	}
	return NewValue(NonNullable(DecimalID), result)
}

// arithDecimal implements Add, Sub, and Mul on doubles. No overflow
// checking: the domain saturates to ±Inf under IEEE semantics.
type arithDecimal struct {
	op OperatorID
}

func (arithDecimal) SupportsTypes(left, right Type) bool {
	return left.ID == DecimalID && right.ID == DecimalID
}

func (arithDecimal) ResultType(Type, Type) Type { return NonNullable(DecimalID) }

func (o arithDecimal) impl(e codegen.Emitter, left, right Value, _ InvocationContext) Value {
	var result codegen.Handle
	switch o.op {
	case OpAdd:
		result = e.FAdd(left.Raw(), right.Raw())
	case OpSub:
		result = e.FSub(left.Raw(), right.Raw())
	case OpMul:
		result = e.FMul(left.Raw(), right.Raw())
	default:
		panic(fmt.Sprintf("sqltype: arithDecimal misconfigured with operator %s", o.op))
	}
	return NewValue(NonNullable(DecimalID), result)
}

// divDecimal divides doubles with SQL zero-divisor semantics rather than
// IEEE ±Inf: null under ReturnNull, a fault under Raise.
type divDecimal struct{}

func (divDecimal) SupportsTypes(left, right Type) bool {
	return left.ID == DecimalID && right.ID == DecimalID
}

func (divDecimal) ResultType(Type, Type) Type { return NonNullable(DecimalID) }

func (divDecimal) impl(e codegen.Emitter, left, right Value, ctx InvocationContext) Value {
	isZero := e.CmpEQ(right.Raw(), e.ConstFloat(0))

	if ctx.OnError == ReturnNull {
		ifb := codegen.NewIf(e, isZero)
		nullVal := FromID(DecimalID).NullValue(e)
		ifb.ElseBlock()
		quotient := NewValue(NonNullable(DecimalID), e.FDiv(left.Raw(), right.Raw()))
		ifb.EndIf()
		return mergeBranchValues(e, ifb, nullVal, quotient)
	}

	e.RaiseIfDivideByZero(isZero)
	return NewValue(NonNullable(DecimalID), e.FDiv(left.Raw(), right.Raw()))
}

// pi is a no-argument operator producing the double constant π.
type pi struct{}

func (pi) ResultType() Type { return NonNullable(DecimalID) }

func (pi) Eval(e codegen.Emitter) Value {
	return NewValue(NonNullable(DecimalID), e.ConstFloat(math.Pi))
}

type decimalType struct {
	ts *TypeSystem
}

func newDecimalType() *decimalType {
	cast := handleNullCast(castDecimal{})
	t := &decimalType{}
	t.ts = NewTypeSystem(
		[]TypeID{DecimalID},
		[]CastEntry{
			{From: DecimalID, To: BooleanID, Op: cast},
			{From: DecimalID, To: TinyIntID, Op: cast},
			{From: DecimalID, To: SmallIntID, Op: cast},
			{From: DecimalID, To: IntegerID, Op: cast},
			{From: DecimalID, To: BigIntID, Op: cast},
			{From: DecimalID, To: DecimalID, Op: cast},
		},
		[]Comparison{handleNullComparison(compareDecimal{})},
		[]UnaryEntry{
			{ID: OpNegation, Op: handleNullUnary(negateDecimal{})},
			{ID: OpAbs, Op: handleNullUnary(absDecimal{})},
			{ID: OpCeil, Op: handleNullUnary(floatUnary{op: OpCeil})},
			{ID: OpFloor, Op: handleNullUnary(floatUnary{op: OpFloor})},
			{ID: OpSqrt, Op: handleNullUnary(floatUnary{op: OpSqrt})},
		},
		[]BinaryEntry{
			{ID: OpAdd, Op: handleNullBinary(arithDecimal{op: OpAdd})},
			{ID: OpSub, Op: handleNullBinary(arithDecimal{op: OpSub})},
			{ID: OpMul, Op: handleNullBinary(arithDecimal{op: OpMul})},
			{ID: OpDiv, Op: handleNullBinary(divDecimal{})},
		},
		nil,
		[]NoArgEntry{
			{ID: OpPi, Op: pi{}},
		},
	)
	return t
}

func (t *decimalType) ID() TypeID { return DecimalID }

func (t *decimalType) Name() string { return "DECIMAL" }

func (t *decimalType) TypeSystem() *TypeSystem { return t.ts }

func (t *decimalType) MinValue(e codegen.Emitter) Value {
	return NewValue(NonNullable(DecimalID), e.ConstFloat(-math.MaxFloat64))
}

func (t *decimalType) MaxValue(e codegen.Emitter) Value {
	return NewValue(NonNullable(DecimalID), e.ConstFloat(math.MaxFloat64))
}

func (t *decimalType) NullValue(e codegen.Emitter) Value {
	return NewValueWithNull(Nullable(DecimalID), e.ConstFloat(decimalNullSentinel), e.ConstBool(true))
}

func (t *decimalType) Layout() Layout { return Layout{ValWidth: 8} }

func (t *decimalType) EncodeStored(s codegen.Scalar) ([]byte, error) {
	if !s.Null && s.Kind != codegen.KindFloat {
		return nil, fmt.Errorf("DECIMAL: cannot store %s scalar", s.Kind)
	}
	v := s.Float
	if s.Null {
		v = decimalNullSentinel
	} else if v == decimalNullSentinel {
		return nil, fmt.Errorf("DECIMAL: value %g is reserved as the null sentinel", v)
	}
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
	return buf, nil
}

func (t *decimalType) DecodeStored(buf []byte) (codegen.Scalar, error) {
	if len(buf) != 8 {
		return codegen.Scalar{}, fmt.Errorf("DECIMAL: stored form must be 8 bytes, got %d", len(buf))
	}
	v := math.Float64frombits(binary.LittleEndian.Uint64(buf))
	if v == decimalNullSentinel {
		return codegen.NullScalar(codegen.KindFloat), nil
	}
	return codegen.FloatScalar(v), nil
}
