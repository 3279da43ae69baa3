package sqltype

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrydb/quarry/internal/codegen"
)

// intParam emits a non-nullable integer-family operand fed from param 0.
func intParam(e codegen.Emitter, id TypeID) Value {
	return NewValue(NonNullable(id), e.Param(0))
}

func TestIntegerCasts(t *testing.T) {
	castTo := func(t *testing.T, from, to TypeID, in codegen.Scalar) codegen.Scalar {
		t.Helper()
		return emitAndRun(t, func(e codegen.Emitter) Value {
			v := intParam(e, from)
			target := NonNullable(to)
			cast, err := FromID(from).TypeSystem().FindCast(v.Type(), target)
			require.NoError(t, err)
			return cast.Eval(e, v, target)
		}, in)
	}

	t.Run("widening preserves the value", func(t *testing.T) {
		out := castTo(t, IntegerID, BigIntID, codegen.IntScalar(-123456))
		assert.Equal(t, int64(-123456), out.Int)
	})

	t.Run("narrowing truncates", func(t *testing.T) {
		out := castTo(t, BigIntID, TinyIntID, codegen.IntScalar(300))
		assert.Equal(t, int64(44), out.Int)
	})

	t.Run("identity is a no-op", func(t *testing.T) {
		out := castTo(t, IntegerID, IntegerID, codegen.IntScalar(7))
		assert.Equal(t, int64(7), out.Int)
	})

	t.Run("to decimal is exact", func(t *testing.T) {
		out := castTo(t, IntegerID, DecimalID, codegen.IntScalar(42))
		assert.Equal(t, 42.0, out.Float)
	})

	t.Run("to boolean keeps the low bit", func(t *testing.T) {
		assert.True(t, castTo(t, IntegerID, BooleanID, codegen.IntScalar(3)).Bool)
		assert.False(t, castTo(t, IntegerID, BooleanID, codegen.IntScalar(2)).Bool)
	})

	t.Run("to varchar rejected", func(t *testing.T) {
		_, err := Integer.TypeSystem().FindCast(NonNullable(IntegerID), NonNullable(VarcharID))
		require.Error(t, err)
		assert.True(t, IsUnsupportedCast(err))
	})
}

func TestIntegerComparisonPredicates(t *testing.T) {
	cmp, err := Integer.TypeSystem().FindComparison(NonNullable(IntegerID), NonNullable(IntegerID))
	require.NoError(t, err)

	eval := func(t *testing.T, f func(codegen.Emitter, Value, Value) Value, l, r int64) codegen.Scalar {
		t.Helper()
		return emitAndRun(t, func(e codegen.Emitter) Value {
			lv := NewValue(NonNullable(IntegerID), e.Param(0))
			rv := NewValue(NonNullable(IntegerID), e.Param(1))
			return f(e, lv, rv)
		}, codegen.IntScalar(l), codegen.IntScalar(r))
	}

	assert.True(t, eval(t, cmp.EvalLT, 3, 5).Bool)
	assert.True(t, eval(t, cmp.EvalLE, 5, 5).Bool)
	assert.True(t, eval(t, cmp.EvalEQ, 5, 5).Bool)
	assert.True(t, eval(t, cmp.EvalNE, 3, 5).Bool)
	assert.False(t, eval(t, cmp.EvalGT, 3, 5).Bool)
	assert.True(t, eval(t, cmp.EvalGE, 5, 5).Bool)
}

func TestIntegerSortComparator(t *testing.T) {
	sortCmp := func(t *testing.T, id TypeID, l, r int64) int64 {
		t.Helper()
		cmp, err := FromID(id).TypeSystem().FindComparison(NonNullable(id), NonNullable(id))
		require.NoError(t, err)
		out := emitAndRun(t, func(e codegen.Emitter) Value {
			lv := NewValue(NonNullable(id), e.Param(0))
			rv := NewValue(NonNullable(id), e.Param(1))
			return cmp.EvalCompareForSort(e, lv, rv)
		}, codegen.IntScalar(l), codegen.IntScalar(r))
		assert.False(t, out.Null)
		return out.Int
	}

	t.Run("narrow widths subtract", func(t *testing.T) {
		assert.Negative(t, sortCmp(t, SmallIntID, -7, 7))
		assert.Zero(t, sortCmp(t, SmallIntID, 7, 7))
		assert.Positive(t, sortCmp(t, SmallIntID, 7, -7))
	})

	t.Run("bigint selects a sign", func(t *testing.T) {
		assert.Equal(t, int64(-1), sortCmp(t, BigIntID, math.MinInt64+1, math.MaxInt64))
		assert.Equal(t, int64(0), sortCmp(t, BigIntID, 42, 42))
		assert.Equal(t, int64(1), sortCmp(t, BigIntID, math.MaxInt64, math.MinInt64+1))
	})
}

func TestNegationRaisesOnOverflow(t *testing.T) {
	op, err := Integer.TypeSystem().FindUnaryOperator(OpNegation, NonNullable(IntegerID))
	require.NoError(t, err)

	run := func(policy OnError, in int64) (codegen.Scalar, error) {
		b := codegen.NewBuilder()
		v := op.Eval(b, intParam(b, IntegerID), InvocationContext{OnError: policy})
		return codegen.Run(b.Finish(v.Raw(), v.Length(), v.NullFlag()), codegen.IntScalar(in))
	}

	out, err := run(Raise, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(-5), out.Int)

	// Negating the width minimum overflows; the fault fires under both
	// policies.
	_, err = run(Raise, math.MinInt32)
	assert.True(t, codegen.IsOverflow(err))
	_, err = run(ReturnNull, math.MinInt32)
	assert.True(t, codegen.IsOverflow(err))
}

func TestAbsWrapsInsteadOfRaising(t *testing.T) {
	op, err := Integer.TypeSystem().FindUnaryOperator(OpAbs, NonNullable(IntegerID))
	require.NoError(t, err)

	abs := func(t *testing.T, in int64) int64 {
		t.Helper()
		out := emitAndRun(t, func(e codegen.Emitter) Value {
			return op.Eval(e, intParam(e, IntegerID), InvocationContext{OnError: Raise})
		}, codegen.IntScalar(in))
		return out.Int
	}

	assert.Equal(t, int64(5), abs(t, -5))
	assert.Equal(t, int64(5), abs(t, 5))
	assert.Equal(t, int64(math.MinInt32), abs(t, math.MinInt32),
		"the width minimum wraps to itself")
}

func TestArithmeticOverflowPolicy(t *testing.T) {
	op, err := Integer.TypeSystem().FindBinaryOperator(OpMul, NonNullable(IntegerID), NonNullable(IntegerID))
	require.NoError(t, err)

	run := func(policy OnError, l, r int64) (codegen.Scalar, error) {
		b := codegen.NewBuilder()
		lv := NewValue(NonNullable(IntegerID), b.Param(0))
		rv := NewValue(NonNullable(IntegerID), b.Param(1))
		v := op.Eval(b, lv, rv, InvocationContext{OnError: policy})
		return codegen.Run(b.Finish(v.Raw(), v.Length(), v.NullFlag()),
			codegen.IntScalar(l), codegen.IntScalar(r))
	}

	_, err = run(Raise, 1<<20, 1<<20)
	assert.True(t, codegen.IsOverflow(err))

	out, err := run(ReturnNull, 1<<20, 1<<20)
	require.NoError(t, err)
	assert.False(t, out.Null, "overflow is not checked under the null policy")
	assert.Equal(t, int64(0), out.Int, "the wrapped value is returned as-is")
}

func TestDivModByZeroPolicy(t *testing.T) {
	for _, opID := range []OperatorID{OpDiv, OpMod} {
		t.Run(opID.String(), func(t *testing.T) {
			op, err := Integer.TypeSystem().FindBinaryOperator(opID, NonNullable(IntegerID), NonNullable(IntegerID))
			require.NoError(t, err)

			run := func(policy OnError, l, r int64) (codegen.Scalar, error) {
				b := codegen.NewBuilder()
				lv := NewValue(NonNullable(IntegerID), b.Param(0))
				rv := NewValue(NonNullable(IntegerID), b.Param(1))
				v := op.Eval(b, lv, rv, InvocationContext{OnError: policy})
				return codegen.Run(b.Finish(v.Raw(), v.Length(), v.NullFlag()),
					codegen.IntScalar(l), codegen.IntScalar(r))
			}

			_, err = run(Raise, 7, 0)
			assert.True(t, codegen.IsDivideByZero(err))

			out, err := run(ReturnNull, 7, 0)
			require.NoError(t, err)
			assert.True(t, out.Null)

			out, err = run(ReturnNull, 7, 2)
			require.NoError(t, err)
			assert.False(t, out.Null)
			if opID == OpDiv {
				assert.Equal(t, int64(3), out.Int)
			} else {
				assert.Equal(t, int64(1), out.Int)
			}
		})
	}
}

func TestFloorCeilSqrtProduceDecimal(t *testing.T) {
	for _, opID := range []OperatorID{OpFloor, OpCeil} {
		op, err := Integer.TypeSystem().FindUnaryOperator(opID, NonNullable(IntegerID))
		require.NoError(t, err)
		assert.Equal(t, NonNullable(DecimalID), op.ResultType(NonNullable(IntegerID)))

		out := emitAndRun(t, func(e codegen.Emitter) Value {
			return op.Eval(e, intParam(e, IntegerID), InvocationContext{})
		}, codegen.IntScalar(9))
		assert.Equal(t, 9.0, out.Float, "integers have no fractional part to round")
	}

	sqrt, err := Integer.TypeSystem().FindUnaryOperator(OpSqrt, NonNullable(IntegerID))
	require.NoError(t, err)
	out := emitAndRun(t, func(e codegen.Emitter) Value {
		return sqrt.Eval(e, intParam(e, IntegerID), InvocationContext{})
	}, codegen.IntScalar(16))
	assert.Equal(t, 4.0, out.Float)
}

func TestIntegerStoredForm(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		buf, err := Integer.EncodeStored(codegen.IntScalar(-77))
		require.NoError(t, err)
		assert.Len(t, buf, 4)

		out, err := Integer.DecodeStored(buf)
		require.NoError(t, err)
		assert.Equal(t, int64(-77), out.Int)
	})

	t.Run("null folds to the sentinel", func(t *testing.T) {
		buf, err := SmallInt.EncodeStored(codegen.NullScalar(codegen.KindInt))
		require.NoError(t, err)

		out, err := SmallInt.DecodeStored(buf)
		require.NoError(t, err)
		assert.True(t, out.Null)
	})

	t.Run("out of range rejected", func(t *testing.T) {
		_, err := TinyInt.EncodeStored(codegen.IntScalar(200))
		require.Error(t, err)

		_, err = TinyInt.EncodeStored(codegen.IntScalar(-128))
		require.Error(t, err, "the sentinel is not a storable value")
	})

	t.Run("wrong width rejected", func(t *testing.T) {
		_, err := Integer.DecodeStored([]byte{1, 2})
		require.Error(t, err)
	})

	t.Run("wrong kind rejected", func(t *testing.T) {
		_, err := Integer.EncodeStored(codegen.FloatScalar(1.5))
		require.Error(t, err)
	})
}
