package sqltype

import (
	"fmt"

	"github.com/quarrydb/quarry/internal/codegen"
)

// castBoolean casts BOOLEAN to the integer family (zero-extended 0/1) or
// to itself.
type castBoolean struct{}

func (castBoolean) SupportsTypes(from, to Type) bool {
	if from.ID != BooleanID {
		return false
	}
	switch to.ID {
	case BooleanID, TinyIntID, SmallIntID, IntegerID, BigIntID:
		return true
	default:
		return false
	}
}

func (castBoolean) impl(e codegen.Emitter, v Value, to Type) Value {
	var result codegen.Handle
	switch to.ID {
	case BooleanID:
		result = v.Raw()
	case TinyIntID:
		result = e.BoolToInt(codegen.W8, v.Raw())
	case SmallIntID:
		result = e.BoolToInt(codegen.W16, v.Raw())
	case IntegerID:
		result = e.BoolToInt(codegen.W32, v.Raw())
	case BigIntID:
		result = e.BoolToInt(codegen.W64, v.Raw())
	default:
		panic(fmt.Sprintf("sqltype: cast BOOLEAN -> %s invoked without predicate check", to.ID))
	}
	if to.Nullable {
		return NewValueWithNull(to, result, e.ConstBool(false))
	}
	return NewValue(to, result)
}

// compareBoolean orders false before true.
type compareBoolean struct{}

func (compareBoolean) SupportsTypes(left, right Type) bool {
	return left.ID == BooleanID && right.ID == BooleanID
}

func (compareBoolean) ltImpl(e codegen.Emitter, l, r Value) Value {
	return NewValue(NonNullable(BooleanID), e.CmpLT(l.Raw(), r.Raw()))
}

func (compareBoolean) leImpl(e codegen.Emitter, l, r Value) Value {
	return NewValue(NonNullable(BooleanID), e.CmpLE(l.Raw(), r.Raw()))
}

func (compareBoolean) eqImpl(e codegen.Emitter, l, r Value) Value {
	return NewValue(NonNullable(BooleanID), e.CmpEQ(l.Raw(), r.Raw()))
}

func (compareBoolean) neImpl(e codegen.Emitter, l, r Value) Value {
	return NewValue(NonNullable(BooleanID), e.CmpNE(l.Raw(), r.Raw()))
}

func (compareBoolean) gtImpl(e codegen.Emitter, l, r Value) Value {
	return NewValue(NonNullable(BooleanID), e.CmpGT(l.Raw(), r.Raw()))
}

func (compareBoolean) geImpl(e codegen.Emitter, l, r Value) Value {
	return NewValue(NonNullable(BooleanID), e.CmpGE(l.Raw(), r.Raw()))
}

func (compareBoolean) sortImpl(e codegen.Emitter, l, r Value) Value {
	li := e.BoolToInt(codegen.W32, l.Raw())
	ri := e.BoolToInt(codegen.W32, r.Raw())
	return NewValue(NonNullable(IntegerID), e.Sub(codegen.W32, li, ri))
}

// logicalNot negates a boolean.
type logicalNot struct{}

func (logicalNot) SupportsType(t Type) bool { return t.ID == BooleanID }

func (logicalNot) ResultType(Type) Type { return NonNullable(BooleanID) }

func (logicalNot) impl(e codegen.Emitter, v Value, _ InvocationContext) Value {
	return NewValue(NonNullable(BooleanID), e.Not(v.Raw()))
}

// logicalConnective implements AND and OR.
//
// NULL handling here is the decorator's plain propagation: NULL AND FALSE
// is NULL, not FALSE. Three-valued-logic short-circuiting belongs to the
// compiler's boolean translation, not to this operator table.
type logicalConnective struct {
	op OperatorID
}

func (logicalConnective) SupportsTypes(left, right Type) bool {
	return left.ID == BooleanID && right.ID == BooleanID
}

func (logicalConnective) ResultType(Type, Type) Type { return NonNullable(BooleanID) }

func (o logicalConnective) impl(e codegen.Emitter, left, right Value, _ InvocationContext) Value {
	if o.op == OpLogicalAnd {
		return NewValue(NonNullable(BooleanID), e.And(left.Raw(), right.Raw()))
	}
	return NewValue(NonNullable(BooleanID), e.Or(left.Raw(), right.Raw()))
}

type booleanType struct {
	ts *TypeSystem
}

func newBooleanType() *booleanType {
	cast := handleNullCast(castBoolean{})
	t := &booleanType{}
	t.ts = NewTypeSystem(
		[]TypeID{BooleanID},
		[]CastEntry{
			{From: BooleanID, To: BooleanID, Op: cast},
			{From: BooleanID, To: TinyIntID, Op: cast},
			{From: BooleanID, To: SmallIntID, Op: cast},
			{From: BooleanID, To: IntegerID, Op: cast},
			{From: BooleanID, To: BigIntID, Op: cast},
		},
		[]Comparison{handleNullComparison(compareBoolean{})},
		[]UnaryEntry{
			{ID: OpLogicalNot, Op: handleNullUnary(logicalNot{})},
		},
		[]BinaryEntry{
			{ID: OpLogicalAnd, Op: handleNullBinary(logicalConnective{op: OpLogicalAnd})},
			{ID: OpLogicalOr, Op: handleNullBinary(logicalConnective{op: OpLogicalOr})},
		},
		nil,
		nil,
	)
	return t
}

func (t *booleanType) ID() TypeID { return BooleanID }

func (t *booleanType) Name() string { return "BOOLEAN" }

func (t *booleanType) TypeSystem() *TypeSystem { return t.ts }

func (t *booleanType) MinValue(e codegen.Emitter) Value {
	return NewValue(NonNullable(BooleanID), e.ConstBool(false))
}

func (t *booleanType) MaxValue(e codegen.Emitter) Value {
	return NewValue(NonNullable(BooleanID), e.ConstBool(true))
}

func (t *booleanType) NullValue(e codegen.Emitter) Value {
	return NewValueWithNull(Nullable(BooleanID), e.ConstBool(false), e.ConstBool(true))
}

func (t *booleanType) Layout() Layout { return Layout{ValWidth: 1} }

// Stored form: one byte, 0 or 1, with the sign bit marking NULL.
const booleanNullByte = 0x80

func (t *booleanType) EncodeStored(s codegen.Scalar) ([]byte, error) {
	if s.Null {
		return []byte{booleanNullByte}, nil
	}
	if s.Kind != codegen.KindBool {
		return nil, fmt.Errorf("BOOLEAN: cannot store %s scalar", s.Kind)
	}
	if s.Bool {
		return []byte{1}, nil
	}
	return []byte{0}, nil
}

func (t *booleanType) DecodeStored(buf []byte) (codegen.Scalar, error) {
	if len(buf) != 1 {
		return codegen.Scalar{}, fmt.Errorf("BOOLEAN: stored form must be 1 byte, got %d", len(buf))
	}
	switch buf[0] {
	case 0:
		return codegen.BoolScalar(false), nil
	case 1:
		return codegen.BoolScalar(true), nil
	case booleanNullByte:
		return codegen.NullScalar(codegen.KindBool), nil
	default:
		return codegen.Scalar{}, fmt.Errorf("BOOLEAN: invalid stored byte 0x%02x", buf[0])
	}
}
