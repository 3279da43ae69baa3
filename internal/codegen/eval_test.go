package codegen

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignExtend(t *testing.T) {
	cases := []struct {
		name string
		v    int64
		w    Width
		want int64
	}{
		{"w8 positive", 0x7f, W8, 127},
		{"w8 wraps negative", 0x80, W8, -128},
		{"w16 wraps negative", 0x8000, W16, -32768},
		{"w32 wraps negative", 0x80000000, W32, math.MinInt32},
		{"w32 high bits dropped", 0x1_0000_0001, W32, 1},
		{"w64 identity", math.MinInt64, W64, math.MinInt64},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, signExtend(tc.v, tc.w))
		})
	}
}

func TestCheckedOp(t *testing.T) {
	cases := []struct {
		name     string
		op       OpCode
		w        Width
		a, b     int64
		want     int64
		overflow bool
	}{
		{"add in range", OpCheckedAdd, W32, 1, 2, 3, false},
		{"add overflows w32", OpCheckedAdd, W32, math.MaxInt32, 1, math.MinInt32, true},
		{"add overflows w8", OpCheckedAdd, W8, 127, 1, -128, true},
		{"sub in range", OpCheckedSub, W16, -5, 10, -15, false},
		{"sub overflows w16", OpCheckedSub, W16, -32768, 1, 32767, true},
		{"mul in range", OpCheckedMul, W32, 1000, 1000, 1000000, false},
		{"mul overflows w32", OpCheckedMul, W32, 1 << 20, 1 << 20, 0, true},
		{"mul by zero", OpCheckedMul, W64, 0, math.MaxInt64, 0, false},
		{"add overflows w64", OpCheckedAdd, W64, math.MaxInt64, 1, math.MinInt64, true},
		{"sub overflows w64", OpCheckedSub, W64, math.MinInt64, 1, math.MaxInt64, true},
		{"mul min by minus one w64", OpCheckedMul, W64, math.MinInt64, -1, math.MinInt64, true},
		{"add mixed signs never overflows w64", OpCheckedAdd, W64, math.MaxInt64, -1, math.MaxInt64 - 1, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ovf := checkedOp(tc.op, tc.w, tc.a, tc.b)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.overflow, ovf)
		})
	}
}

func TestRunRaiseOverflow(t *testing.T) {
	b := NewBuilder()
	l := b.ConstInt(W32, math.MaxInt32)
	r := b.ConstInt(W32, 1)
	sum, flag := b.CheckedAdd(W32, l, r)
	b.RaiseIfOverflow(flag)
	p := b.Finish(sum, nil, nil)

	_, err := Run(p)
	require.Error(t, err)
	assert.True(t, IsOverflow(err))
	assert.False(t, IsDivideByZero(err))

	var fe *FaultError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, FaultOverflow, fe.Code)
}

func TestRunUncheckedDivisionFaultsOnZero(t *testing.T) {
	b := NewBuilder()
	l := b.ConstInt(W32, 1)
	r := b.ConstInt(W32, 0)
	p := b.Finish(b.Div(W32, l, r), nil, nil)

	_, err := Run(p)
	require.Error(t, err)
	assert.True(t, IsDivideByZero(err))
}

func TestRunRemainder(t *testing.T) {
	b := NewBuilder()
	l := b.ConstInt(W32, 7)
	r := b.ConstInt(W32, 3)
	p := b.Finish(b.Rem(W32, l, r), nil, nil)

	out, err := Run(p)
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Int)
}

func TestRunParamSplitsNullIndicator(t *testing.T) {
	b := NewBuilder()
	payload := b.Param(0)
	null := b.ParamNull(0)
	p := b.Finish(payload, nil, null)

	out, err := Run(p, NullScalar(KindInt))
	require.NoError(t, err)
	assert.True(t, out.Null)

	out, err = Run(p, IntScalar(9))
	require.NoError(t, err)
	assert.False(t, out.Null)
	assert.Equal(t, int64(9), out.Int)
}

func TestRunConversions(t *testing.T) {
	t.Run("trunc reinterprets at narrow width", func(t *testing.T) {
		b := NewBuilder()
		v := b.ConstInt(W32, 300)
		p := b.Finish(b.Trunc(W8, v), nil, nil)
		out, err := Run(p)
		require.NoError(t, err)
		assert.Equal(t, int64(44), out.Int)
	})

	t.Run("float to int truncates toward zero", func(t *testing.T) {
		b := NewBuilder()
		v := b.ConstFloat(-2.9)
		p := b.Finish(b.FloatToInt(W32, v), nil, nil)
		out, err := Run(p)
		require.NoError(t, err)
		assert.Equal(t, int64(-2), out.Int)
	})

	t.Run("int to bool keeps the low bit", func(t *testing.T) {
		b := NewBuilder()
		v := b.ConstInt(W32, 4)
		p := b.Finish(b.IntToBool(v), nil, nil)
		out, err := Run(p)
		require.NoError(t, err)
		assert.False(t, out.Bool, "even values truncate to false")
	})

	t.Run("bool to int zero extends", func(t *testing.T) {
		b := NewBuilder()
		v := b.ConstBool(true)
		p := b.Finish(b.BoolToInt(W32, v), nil, nil)
		out, err := Run(p)
		require.NoError(t, err)
		assert.Equal(t, int64(1), out.Int)
	})
}

func TestRunStringPrimitives(t *testing.T) {
	b := NewBuilder()
	l := b.ConstString("ab")
	r := b.ConstString("cd")
	joined := b.Concat(l, r)
	p := b.Finish(joined, b.StrLen(joined), nil)

	out, err := Run(p)
	require.NoError(t, err)
	assert.Equal(t, "abcd", out.Str)
	assert.Equal(t, 3, p.Result.Length, "length register recorded in the result spec")
}

func TestRunCollate(t *testing.T) {
	run := func(a, bs string) int64 {
		b := NewBuilder()
		p := b.Finish(b.Collate(b.ConstString(a), b.ConstString(bs)), nil, nil)
		out, err := Run(p)
		require.NoError(t, err)
		return out.Int
	}

	assert.Negative(t, run("apple", "banana"))
	assert.Zero(t, run("pear", "pear"))
	assert.Positive(t, run("banana", "apple"))
}

func TestRunSelectReadsOnlyChosenOperand(t *testing.T) {
	// The else-arm register is written only when the branch is taken; a
	// strict phi would read garbage on the then path.
	b := NewBuilder()
	c := b.ConstBool(true)
	ifb := NewIf(b, c)
	thenV := b.ConstString("then")
	ifb.ElseBlock()
	elseV := b.ConstString("else")
	ifb.EndIf()
	p := b.Finish(ifb.BuildPHI(thenV, elseV), nil, nil)

	out, err := Run(p)
	require.NoError(t, err)
	assert.Equal(t, "then", out.Str)
}

func TestFaultErrorMessage(t *testing.T) {
	err := &FaultError{Code: FaultOverflow, PC: 3}
	assert.Contains(t, err.Error(), "ARITHMETIC_OVERFLOW")
}
