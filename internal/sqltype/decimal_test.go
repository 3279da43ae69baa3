package sqltype

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrydb/quarry/internal/codegen"
)

func floatParam(e codegen.Emitter, index int) Value {
	return NewValue(NonNullable(DecimalID), e.Param(index))
}

func TestDecimalCasts(t *testing.T) {
	castTo := func(t *testing.T, to TypeID, in float64) codegen.Scalar {
		t.Helper()
		return emitAndRun(t, func(e codegen.Emitter) Value {
			v := floatParam(e, 0)
			target := NonNullable(to)
			cast, err := Decimal.TypeSystem().FindCast(v.Type(), target)
			require.NoError(t, err)
			return cast.Eval(e, v, target)
		}, codegen.FloatScalar(in))
	}

	t.Run("to integer truncates toward zero", func(t *testing.T) {
		assert.Equal(t, int64(2), castTo(t, IntegerID, 2.9).Int)
		assert.Equal(t, int64(-2), castTo(t, IntegerID, -2.9).Int)
	})

	t.Run("to boolean tests nonzero", func(t *testing.T) {
		assert.True(t, castTo(t, BooleanID, 0.5).Bool)
		assert.False(t, castTo(t, BooleanID, 0).Bool)
	})

	t.Run("to varchar rejected", func(t *testing.T) {
		_, err := Decimal.TypeSystem().FindCast(NonNullable(DecimalID), NonNullable(VarcharID))
		require.Error(t, err)
		assert.True(t, IsUnsupportedCast(err))
	})
}

func TestDecimalUnaryOperators(t *testing.T) {
	eval := func(t *testing.T, opID OperatorID, in float64) float64 {
		t.Helper()
		op, err := Decimal.TypeSystem().FindUnaryOperator(opID, NonNullable(DecimalID))
		require.NoError(t, err)
		out := emitAndRun(t, func(e codegen.Emitter) Value {
			return op.Eval(e, floatParam(e, 0), InvocationContext{})
		}, codegen.FloatScalar(in))
		return out.Float
	}

	assert.Equal(t, -1.5, eval(t, OpNegation, 1.5))
	assert.Equal(t, 1.5, eval(t, OpAbs, -1.5))
	assert.Equal(t, 2.0, eval(t, OpFloor, 2.7))
	assert.Equal(t, 3.0, eval(t, OpCeil, 2.2))
	assert.Equal(t, 1.5, eval(t, OpSqrt, 2.25))
	assert.True(t, math.IsNaN(eval(t, OpSqrt, -1)), "IEEE sqrt of a negative is NaN")
}

func TestDecimalDivisionByZeroPolicy(t *testing.T) {
	op, err := Decimal.TypeSystem().FindBinaryOperator(OpDiv, NonNullable(DecimalID), NonNullable(DecimalID))
	require.NoError(t, err)

	run := func(policy OnError, l, r float64) (codegen.Scalar, error) {
		b := codegen.NewBuilder()
		v := op.Eval(b, floatParam(b, 0), floatParam(b, 1), InvocationContext{OnError: policy})
		return codegen.Run(b.Finish(v.Raw(), v.Length(), v.NullFlag()),
			codegen.FloatScalar(l), codegen.FloatScalar(r))
	}

	_, err = run(Raise, 1, 0)
	assert.True(t, codegen.IsDivideByZero(err), "SQL semantics, not IEEE infinity")

	out, err := run(ReturnNull, 1, 0)
	require.NoError(t, err)
	assert.True(t, out.Null)

	out, err = run(Raise, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, 0.25, out.Float)
}

func TestDecimalSortComparator(t *testing.T) {
	cmp, err := Decimal.TypeSystem().FindComparison(NonNullable(DecimalID), NonNullable(DecimalID))
	require.NoError(t, err)

	sortCmp := func(t *testing.T, l, r float64) int64 {
		t.Helper()
		out := emitAndRun(t, func(e codegen.Emitter) Value {
			return cmp.EvalCompareForSort(e, floatParam(e, 0), floatParam(e, 1))
		}, codegen.FloatScalar(l), codegen.FloatScalar(r))
		return out.Int
	}

	assert.Equal(t, int64(-1), sortCmp(t, 1.5, 2.5))
	assert.Equal(t, int64(0), sortCmp(t, 2.5, 2.5))
	assert.Equal(t, int64(1), sortCmp(t, 2.5, 1.5))
}

func TestDecimalPi(t *testing.T) {
	op, err := Decimal.TypeSystem().FindNoArgOperator(OpPi)
	require.NoError(t, err)

	out := emitAndRun(t, func(e codegen.Emitter) Value {
		return op.Eval(e)
	})
	assert.Equal(t, math.Pi, out.Float)
}

func TestDecimalStoredForm(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		buf, err := Decimal.EncodeStored(codegen.FloatScalar(-2.75))
		require.NoError(t, err)
		assert.Len(t, buf, 8)

		out, err := Decimal.DecodeStored(buf)
		require.NoError(t, err)
		assert.Equal(t, -2.75, out.Float)
	})

	t.Run("null folds to the sentinel", func(t *testing.T) {
		buf, err := Decimal.EncodeStored(codegen.NullScalar(codegen.KindFloat))
		require.NoError(t, err)

		out, err := Decimal.DecodeStored(buf)
		require.NoError(t, err)
		assert.True(t, out.Null)
	})

	t.Run("non-null sentinel value rejected", func(t *testing.T) {
		// The sentinel is a representable double; storing it as a value
		// would decode back as NULL.
		_, err := Decimal.EncodeStored(codegen.FloatScalar(decimalNullSentinel))
		require.Error(t, err)
	})

	t.Run("wrong width rejected", func(t *testing.T) {
		_, err := Decimal.DecodeStored([]byte{1, 2, 3})
		require.Error(t, err)
	})
}
