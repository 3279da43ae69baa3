package sqltype

import "github.com/quarrydb/quarry/internal/codegen"

// Core operator contracts. Cores are null-oblivious: they assume every
// operand is non-null and never touch null indicators (casts excepted,
// which attach a cleared indicator when the target type is nullable).
// The handleNull* wrappers layer NULL propagation on top and are what the
// per-type tables register.

type castCore interface {
	SupportsTypes(from, to Type) bool
	impl(e codegen.Emitter, v Value, to Type) Value
}

type comparisonCore interface {
	SupportsTypes(left, right Type) bool
	ltImpl(e codegen.Emitter, left, right Value) Value
	leImpl(e codegen.Emitter, left, right Value) Value
	eqImpl(e codegen.Emitter, left, right Value) Value
	neImpl(e codegen.Emitter, left, right Value) Value
	gtImpl(e codegen.Emitter, left, right Value) Value
	geImpl(e codegen.Emitter, left, right Value) Value
	sortImpl(e codegen.Emitter, left, right Value) Value
}

type unaryCore interface {
	SupportsType(t Type) bool
	ResultType(t Type) Type
	impl(e codegen.Emitter, v Value, ctx InvocationContext) Value
}

type binaryCore interface {
	SupportsTypes(left, right Type) bool
	ResultType(left, right Type) Type
	impl(e codegen.Emitter, left, right Value, ctx InvocationContext) Value
}

type naryCore interface {
	SupportsTypes(types []Type) bool
	ResultType(types []Type) Type
	impl(e codegen.Emitter, operands []Value, ctx InvocationContext) Value
}

// orNullFlags combines the null indicators of the operands into a single
// boolean handle, or returns nil when no operand is nullable.
func orNullFlags(e codegen.Emitter, operands ...Value) codegen.Handle {
	var combined codegen.Handle
	for _, v := range operands {
		flag := v.NullFlag()
		if flag == nil {
			continue
		}
		if combined == nil {
			combined = flag
		} else {
			combined = e.Or(combined, flag)
		}
	}
	return combined
}

// guardNull evaluates f under a null guard. When anyNull is nil the core
// runs unguarded and its result is returned as-is. Otherwise emission
// branches: the non-null arm runs the core, the null arm produces the
// result type's null value, and the two are merged into one nullable
// result whose primary handle is never inspected when null.
func guardNull(e codegen.Emitter, anyNull codegen.Handle, f func() Value) Value {
	if anyNull == nil {
		return f()
	}

	ifb := codegen.NewIf(e, e.Not(anyNull))
	res := f()
	ifb.ElseBlock()
	nullVal := FromID(res.Type().ID).NullValue(e)
	ifb.EndIf()

	return mergeBranchValues(e, ifb, res, nullVal)
}

// mergeBranchValues joins two Values produced on the arms of ifb into one
// Value on the joined path, phi-merging the primary handle, the length
// handle when present, and the null indicator. Missing null indicators are
// treated as "not null"; the merged type is always nullable.
func mergeBranchValues(e codegen.Emitter, ifb *codegen.If, thenV, elseV Value) Value {
	primary := ifb.BuildPHI(thenV.Raw(), elseV.Raw())

	thenNull := thenV.NullFlag()
	if thenNull == nil {
		thenNull = e.ConstBool(false)
	}
	elseNull := elseV.NullFlag()
	if elseNull == nil {
		elseNull = e.ConstBool(false)
	}
	null := ifb.BuildPHI(thenNull, elseNull)

	t := thenV.Type().AsNullable()
	if thenV.Length() != nil || elseV.Length() != nil {
		thenLen := thenV.Length()
		if thenLen == nil {
			thenLen = e.ConstInt(codegen.W32, 0)
		}
		elseLen := elseV.Length()
		if elseLen == nil {
			elseLen = e.ConstInt(codegen.W32, 0)
		}
		return NewVarlenValue(t, primary, ifb.BuildPHI(thenLen, elseLen), null)
	}
	return NewValueWithNull(t, primary, null)
}

// handleNullCast wraps a cast core with NULL propagation: a null input
// short-circuits to the target type's null value without running the core.
func handleNullCast(core castCore) Cast {
	return castHandleNull{core: core}
}

type castHandleNull struct {
	core castCore
}

func (c castHandleNull) SupportsTypes(from, to Type) bool {
	return c.core.SupportsTypes(from, to)
}

func (c castHandleNull) Eval(e codegen.Emitter, v Value, to Type) Value {
	return guardNull(e, orNullFlags(e, v), func() Value {
		return c.core.impl(e, v, to)
	})
}

// handleNullComparison wraps a comparison core: each predicate yields a
// null Boolean (the sort comparator a null Integer) when either operand is
// null.
func handleNullComparison(core comparisonCore) Comparison {
	return comparisonHandleNull{core: core}
}

type comparisonHandleNull struct {
	core comparisonCore
}

func (c comparisonHandleNull) SupportsTypes(left, right Type) bool {
	return c.core.SupportsTypes(left, right)
}

func (c comparisonHandleNull) wrap(e codegen.Emitter, left, right Value,
	f func(codegen.Emitter, Value, Value) Value) Value {
	return guardNull(e, orNullFlags(e, left, right), func() Value {
		return f(e, left, right)
	})
}

func (c comparisonHandleNull) EvalLT(e codegen.Emitter, left, right Value) Value {
	return c.wrap(e, left, right, c.core.ltImpl)
}

func (c comparisonHandleNull) EvalLE(e codegen.Emitter, left, right Value) Value {
	return c.wrap(e, left, right, c.core.leImpl)
}

func (c comparisonHandleNull) EvalEQ(e codegen.Emitter, left, right Value) Value {
	return c.wrap(e, left, right, c.core.eqImpl)
}

func (c comparisonHandleNull) EvalNE(e codegen.Emitter, left, right Value) Value {
	return c.wrap(e, left, right, c.core.neImpl)
}

func (c comparisonHandleNull) EvalGT(e codegen.Emitter, left, right Value) Value {
	return c.wrap(e, left, right, c.core.gtImpl)
}

func (c comparisonHandleNull) EvalGE(e codegen.Emitter, left, right Value) Value {
	return c.wrap(e, left, right, c.core.geImpl)
}

func (c comparisonHandleNull) EvalCompareForSort(e codegen.Emitter, left, right Value) Value {
	return c.wrap(e, left, right, c.core.sortImpl)
}

// handleNullUnary wraps a unary core with NULL propagation.
func handleNullUnary(core unaryCore) UnaryOperator {
	return unaryHandleNull{core: core}
}

type unaryHandleNull struct {
	core unaryCore
}

func (u unaryHandleNull) SupportsType(t Type) bool { return u.core.SupportsType(t) }

func (u unaryHandleNull) ResultType(t Type) Type {
	rt := u.core.ResultType(t)
	if t.Nullable {
		rt = rt.AsNullable()
	}
	return rt
}

func (u unaryHandleNull) Eval(e codegen.Emitter, v Value, ctx InvocationContext) Value {
	return guardNull(e, orNullFlags(e, v), func() Value {
		return u.core.impl(e, v, ctx)
	})
}

// handleNullBinary wraps a binary core with NULL propagation.
func handleNullBinary(core binaryCore) BinaryOperator {
	return binaryHandleNull{core: core}
}

type binaryHandleNull struct {
	core binaryCore
}

func (b binaryHandleNull) SupportsTypes(left, right Type) bool {
	return b.core.SupportsTypes(left, right)
}

func (b binaryHandleNull) ResultType(left, right Type) Type {
	rt := b.core.ResultType(left, right)
	if left.Nullable || right.Nullable {
		rt = rt.AsNullable()
	}
	return rt
}

func (b binaryHandleNull) Eval(e codegen.Emitter, left, right Value, ctx InvocationContext) Value {
	return guardNull(e, orNullFlags(e, left, right), func() Value {
		return b.core.impl(e, left, right, ctx)
	})
}

// handleNullNary wraps an n-ary core with NULL propagation.
func handleNullNary(core naryCore) NaryOperator {
	return naryHandleNull{core: core}
}

type naryHandleNull struct {
	core naryCore
}

func (n naryHandleNull) SupportsTypes(types []Type) bool {
	return n.core.SupportsTypes(types)
}

func (n naryHandleNull) ResultType(types []Type) Type {
	rt := n.core.ResultType(types)
	for _, t := range types {
		if t.Nullable {
			return rt.AsNullable()
		}
	}
	return rt
}

func (n naryHandleNull) Eval(e codegen.Emitter, operands []Value, ctx InvocationContext) Value {
	return guardNull(e, orNullFlags(e, operands...), func() Value {
		return n.core.impl(e, operands, ctx)
	})
}
