package sqltype

import "github.com/quarrydb/quarry/internal/codegen"

// Value is the runtime unit passed through every operator: a static Type, a
// primary handle, an optional length handle for variable-length types, and
// an optional null-indicator handle.
//
// Invariant: the null-indicator handle is present iff the Type is nullable.
// The constructors enforce this; violating it is a programming error.
//
// Handles are meaningful only for the emitter that produced them, so a
// Value is scoped to a single compilation and must not outlive it.
type Value struct {
	typ    Type
	val    codegen.Handle
	length codegen.Handle
	null   codegen.Handle
}

// NewValue builds a non-nullable fixed-width Value.
func NewValue(t Type, val codegen.Handle) Value {
	if t.Nullable {
		panic("sqltype: nullable Value requires a null indicator")
	}
	if val == nil {
		panic("sqltype: Value requires a primary handle")
	}
	return Value{typ: t, val: val}
}

// NewValueWithNull builds a nullable fixed-width Value.
func NewValueWithNull(t Type, val, null codegen.Handle) Value {
	if !t.Nullable {
		panic("sqltype: null indicator on a non-nullable Value")
	}
	if val == nil || null == nil {
		panic("sqltype: Value requires primary and null handles")
	}
	return Value{typ: t, val: val, null: null}
}

// NewVarlenValue builds a variable-length Value. null must be nil exactly
// when t is non-nullable.
func NewVarlenValue(t Type, val, length, null codegen.Handle) Value {
	if t.Nullable != (null != nil) {
		panic("sqltype: null indicator must match nullability")
	}
	if val == nil || length == nil {
		panic("sqltype: varlen Value requires primary and length handles")
	}
	return Value{typ: t, val: val, length: length, null: null}
}

// Type returns the value's static type.
func (v Value) Type() Type { return v.typ }

// Raw returns the primary handle.
func (v Value) Raw() codegen.Handle { return v.val }

// Length returns the length handle, nil for fixed-width types.
func (v Value) Length() codegen.Handle { return v.length }

// NullFlag returns the null-indicator handle, nil for non-nullable values.
func (v Value) NullFlag() codegen.Handle { return v.null }

// Nullable reports whether the value carries a null indicator.
func (v Value) Nullable() bool { return v.typ.Nullable }
