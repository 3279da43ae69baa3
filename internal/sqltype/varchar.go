package sqltype

import (
	"fmt"

	"github.com/quarrydb/quarry/internal/codegen"
)

// castVarchar supports only the identity cast. Parsing text into other
// types is an input-function concern, not a cast.
type castVarchar struct{}

func (castVarchar) SupportsTypes(from, to Type) bool {
	return from.ID == VarcharID && to.ID == VarcharID
}

func (castVarchar) impl(e codegen.Emitter, v Value, to Type) Value {
	length := v.Length()
	if length == nil {
		length = e.StrLen(v.Raw())
	}
	if to.Nullable {
		return NewVarlenValue(to, v.Raw(), length, e.ConstBool(false))
	}
	return NewVarlenValue(to, v.Raw(), length, nil)
}

// compareVarchar orders strings with the collation-aware three-way
// primitive, so every predicate and the sort comparator agree on one
// collation.
type compareVarchar struct{}

func (compareVarchar) SupportsTypes(left, right Type) bool {
	return left.ID == VarcharID && right.ID == VarcharID
}

func (compareVarchar) cmp(e codegen.Emitter, l, r Value,
	pred func(codegen.Handle, codegen.Handle) codegen.Handle) Value {
	c := e.Collate(l.Raw(), r.Raw())
	zero := e.ConstInt(codegen.W32, 0)
	return NewValue(NonNullable(BooleanID), pred(c, zero))
}

func (v compareVarchar) ltImpl(e codegen.Emitter, l, r Value) Value {
	return v.cmp(e, l, r, e.CmpLT)
}

func (v compareVarchar) leImpl(e codegen.Emitter, l, r Value) Value {
	return v.cmp(e, l, r, e.CmpLE)
}

func (v compareVarchar) eqImpl(e codegen.Emitter, l, r Value) Value {
	return v.cmp(e, l, r, e.CmpEQ)
}

func (v compareVarchar) neImpl(e codegen.Emitter, l, r Value) Value {
	return v.cmp(e, l, r, e.CmpNE)
}

func (v compareVarchar) gtImpl(e codegen.Emitter, l, r Value) Value {
	return v.cmp(e, l, r, e.CmpGT)
}

func (v compareVarchar) geImpl(e codegen.Emitter, l, r Value) Value {
	return v.cmp(e, l, r, e.CmpGE)
}

func (compareVarchar) sortImpl(e codegen.Emitter, l, r Value) Value {
	return NewValue(NonNullable(IntegerID), e.Collate(l.Raw(), r.Raw()))
}

// lengthVarchar returns the byte length as an INTEGER, reusing the
// value's length handle when one is attached.
type lengthVarchar struct{}

func (lengthVarchar) SupportsType(t Type) bool { return t.ID == VarcharID }

func (lengthVarchar) ResultType(Type) Type { return NonNullable(IntegerID) }

func (lengthVarchar) impl(e codegen.Emitter, v Value, _ InvocationContext) Value {
	if l := v.Length(); l != nil {
		return NewValue(NonNullable(IntegerID), l)
	}
	return NewValue(NonNullable(IntegerID), e.StrLen(v.Raw()))
}

// concatVarchar is the n-ary concatenation over two or more strings,
// folded left to right.
type concatVarchar struct{}

func (concatVarchar) SupportsTypes(types []Type) bool {
	if len(types) < 2 {
		return false
	}
	for _, t := range types {
		if t.ID != VarcharID {
			return false
		}
	}
	return true
}

func (concatVarchar) ResultType([]Type) Type { return NonNullable(VarcharID) }

func (concatVarchar) impl(e codegen.Emitter, operands []Value, _ InvocationContext) Value {
	acc := operands[0].Raw()
	for _, v := range operands[1:] {
		acc = e.Concat(acc, v.Raw())
	}
	return NewVarlenValue(NonNullable(VarcharID), acc, e.StrLen(acc), nil)
}

type varcharType struct {
	ts *TypeSystem
}

func newVarcharType() *varcharType {
	t := &varcharType{}
	t.ts = NewTypeSystem(
		[]TypeID{VarcharID},
		[]CastEntry{
			{From: VarcharID, To: VarcharID, Op: handleNullCast(castVarchar{})},
		},
		[]Comparison{handleNullComparison(compareVarchar{})},
		[]UnaryEntry{
			{ID: OpLength, Op: handleNullUnary(lengthVarchar{})},
		},
		nil,
		[]NaryEntry{
			{ID: OpConcat, Op: handleNullNary(concatVarchar{})},
		},
		nil,
	)
	return t
}

func (t *varcharType) ID() TypeID { return VarcharID }

func (t *varcharType) Name() string { return "VARCHAR" }

func (t *varcharType) TypeSystem() *TypeSystem { return t.ts }

// MinValue and MaxValue have no meaningful domain for VARCHAR; the empty
// string stands in as the minimum and the maximum is unrepresentable.
func (t *varcharType) MinValue(e codegen.Emitter) Value {
	raw := e.ConstString("")
	return NewVarlenValue(NonNullable(VarcharID), raw, e.ConstInt(codegen.W32, 0), nil)
}

func (t *varcharType) MaxValue(codegen.Emitter) Value {
	panic("sqltype: VARCHAR has no maximum value")
}

func (t *varcharType) NullValue(e codegen.Emitter) Value {
	raw := e.ConstString("")
	return NewVarlenValue(Nullable(VarcharID), raw, e.ConstInt(codegen.W32, 0), e.ConstBool(true))
}

func (t *varcharType) Layout() Layout { return Layout{HasLength: true} }

// Stored form: the raw bytes; NULL is a nil slice, distinguished from the
// empty string by the storage layer's length column.
func (t *varcharType) EncodeStored(s codegen.Scalar) ([]byte, error) {
	if s.Null {
		return nil, nil
	}
	if s.Kind != codegen.KindString {
		return nil, fmt.Errorf("VARCHAR: cannot store %s scalar", s.Kind)
	}
	return []byte(s.Str), nil
}

func (t *varcharType) DecodeStored(buf []byte) (codegen.Scalar, error) {
	if buf == nil {
		return codegen.NullScalar(codegen.KindString), nil
	}
	return codegen.StringScalar(string(buf)), nil
}
