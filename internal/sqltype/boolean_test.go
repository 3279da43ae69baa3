package sqltype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrydb/quarry/internal/codegen"
)

func boolParam(e codegen.Emitter, index int) Value {
	return NewValue(NonNullable(BooleanID), e.Param(index))
}

func TestBooleanConnectives(t *testing.T) {
	eval := func(t *testing.T, opID OperatorID, l, r bool) bool {
		t.Helper()
		op, err := Boolean.TypeSystem().FindBinaryOperator(opID, NonNullable(BooleanID), NonNullable(BooleanID))
		require.NoError(t, err)
		out := emitAndRun(t, func(e codegen.Emitter) Value {
			return op.Eval(e, boolParam(e, 0), boolParam(e, 1), InvocationContext{})
		}, codegen.BoolScalar(l), codegen.BoolScalar(r))
		return out.Bool
	}

	assert.True(t, eval(t, OpLogicalAnd, true, true))
	assert.False(t, eval(t, OpLogicalAnd, true, false))
	assert.True(t, eval(t, OpLogicalOr, false, true))
	assert.False(t, eval(t, OpLogicalOr, false, false))
}

func TestBooleanNot(t *testing.T) {
	op, err := Boolean.TypeSystem().FindUnaryOperator(OpLogicalNot, NonNullable(BooleanID))
	require.NoError(t, err)

	out := emitAndRun(t, func(e codegen.Emitter) Value {
		return op.Eval(e, boolParam(e, 0), InvocationContext{})
	}, codegen.BoolScalar(false))
	assert.True(t, out.Bool)
}

func TestBooleanConnectiveNullIsNull(t *testing.T) {
	// Plain NULL propagation: NULL AND FALSE is NULL here, not FALSE.
	// Three-valued short-circuiting is a compiler concern.
	op, err := Boolean.TypeSystem().FindBinaryOperator(OpLogicalAnd, Nullable(BooleanID), NonNullable(BooleanID))
	require.NoError(t, err)

	b := codegen.NewBuilder()
	left := NewValueWithNull(Nullable(BooleanID), b.Param(0), b.ParamNull(0))
	right := NewValue(NonNullable(BooleanID), b.ConstBool(false))
	v := op.Eval(b, left, right, InvocationContext{})
	p := b.Finish(v.Raw(), v.Length(), v.NullFlag())

	out, err := codegen.Run(p, codegen.NullScalar(codegen.KindBool))
	require.NoError(t, err)
	assert.True(t, out.Null)
}

func TestBooleanOrdersFalseBeforeTrue(t *testing.T) {
	cmp, err := Boolean.TypeSystem().FindComparison(NonNullable(BooleanID), NonNullable(BooleanID))
	require.NoError(t, err)

	out := emitAndRun(t, func(e codegen.Emitter) Value {
		return cmp.EvalLT(e, boolParam(e, 0), boolParam(e, 1))
	}, codegen.BoolScalar(false), codegen.BoolScalar(true))
	assert.True(t, out.Bool)

	sign := emitAndRun(t, func(e codegen.Emitter) Value {
		return cmp.EvalCompareForSort(e, boolParam(e, 0), boolParam(e, 1))
	}, codegen.BoolScalar(true), codegen.BoolScalar(false))
	assert.Equal(t, int64(1), sign.Int)
}

func TestBooleanCastToInteger(t *testing.T) {
	cast, err := Boolean.TypeSystem().FindCast(NonNullable(BooleanID), NonNullable(IntegerID))
	require.NoError(t, err)

	out := emitAndRun(t, func(e codegen.Emitter) Value {
		return cast.Eval(e, boolParam(e, 0), NonNullable(IntegerID))
	}, codegen.BoolScalar(true))
	assert.Equal(t, int64(1), out.Int)

	_, err = Boolean.TypeSystem().FindCast(NonNullable(BooleanID), NonNullable(DecimalID))
	require.Error(t, err)
	assert.True(t, IsUnsupportedCast(err))
}

func TestBooleanStoredForm(t *testing.T) {
	cases := []struct {
		name string
		in   codegen.Scalar
		want byte
	}{
		{"false", codegen.BoolScalar(false), 0x00},
		{"true", codegen.BoolScalar(true), 0x01},
		{"null", codegen.NullScalar(codegen.KindBool), 0x80},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buf, err := Boolean.EncodeStored(tc.in)
			require.NoError(t, err)
			require.Len(t, buf, 1)
			assert.Equal(t, tc.want, buf[0])

			out, err := Boolean.DecodeStored(buf)
			require.NoError(t, err)
			assert.Equal(t, tc.in.Null, out.Null)
			assert.Equal(t, tc.in.Bool, out.Bool)
		})
	}

	_, err := Boolean.DecodeStored([]byte{0x7f})
	require.Error(t, err, "bytes outside {0, 1, 0x80} are corrupt")
}
