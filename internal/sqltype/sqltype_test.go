package sqltype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrydb/quarry/internal/codegen"
)

// emitAndRun compiles the Value produced by f into a one-off program and
// executes it.
func emitAndRun(t *testing.T, f func(e codegen.Emitter) Value, params ...codegen.Scalar) codegen.Scalar {
	t.Helper()
	b := codegen.NewBuilder()
	v := f(b)
	out, err := codegen.Run(b.Finish(v.Raw(), v.Length(), v.NullFlag()), params...)
	require.NoError(t, err)
	return out
}

func TestSingletonRegistry(t *testing.T) {
	assert.Same(t, Integer, FromID(IntegerID))
	assert.Same(t, Varchar, FromID(VarcharID))
	assert.Len(t, All(), 7)

	for _, st := range All() {
		assert.Equal(t, st.ID().String(), st.Name())
		assert.NotNil(t, st.TypeSystem())
	}

	assert.Panics(t, func() { FromID(InvalidID) })
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "INTEGER", NonNullable(IntegerID).String())
	assert.Equal(t, "INTEGER?", Nullable(IntegerID).String())
	assert.Equal(t, "INVALID", InvalidID.String())

	assert.Equal(t, SmallIntID, TypeIDFromName("SMALLINT"))
	assert.Equal(t, InvalidID, TypeIDFromName("smallint"))
}

func TestIntegerFamilyConstants(t *testing.T) {
	cases := []struct {
		st       SqlType
		min, max int64
	}{
		{TinyInt, -127, 127},
		{SmallInt, -32767, 32767},
		{Integer, -2147483647, 2147483647},
		{BigInt, -9223372036854775807, 9223372036854775807},
	}
	for _, tc := range cases {
		t.Run(tc.st.Name(), func(t *testing.T) {
			assert.Equal(t, tc.min, emitAndRun(t, tc.st.MinValue).Int)
			assert.Equal(t, tc.max, emitAndRun(t, tc.st.MaxValue).Int)

			null := emitAndRun(t, tc.st.NullValue)
			assert.True(t, null.Null)
			assert.Equal(t, tc.min-1, null.Int, "sentinel sits one below the usable minimum")
		})
	}
}

func TestLayouts(t *testing.T) {
	assert.Equal(t, Layout{ValWidth: 1}, Boolean.Layout())
	assert.Equal(t, Layout{ValWidth: 1}, TinyInt.Layout())
	assert.Equal(t, Layout{ValWidth: 2}, SmallInt.Layout())
	assert.Equal(t, Layout{ValWidth: 4}, Integer.Layout())
	assert.Equal(t, Layout{ValWidth: 8}, BigInt.Layout())
	assert.Equal(t, Layout{ValWidth: 8}, Decimal.Layout())
	assert.Equal(t, Layout{HasLength: true}, Varchar.Layout())
}

func TestVarcharHasNoMaximum(t *testing.T) {
	b := codegen.NewBuilder()
	assert.Panics(t, func() { Varchar.MaxValue(b) })

	min := emitAndRun(t, Varchar.MinValue)
	assert.Equal(t, "", min.Str)
}

func TestValueConstructorInvariants(t *testing.T) {
	b := codegen.NewBuilder()
	raw := b.ConstInt(codegen.W32, 1)
	flag := b.ConstBool(false)

	assert.Panics(t, func() { NewValue(Nullable(IntegerID), raw) },
		"nullable type requires a null indicator")
	assert.Panics(t, func() { NewValueWithNull(NonNullable(IntegerID), raw, flag) },
		"non-nullable type rejects a null indicator")
	assert.Panics(t, func() { NewValue(NonNullable(IntegerID), nil) })

	v := NewValueWithNull(Nullable(IntegerID), raw, flag)
	assert.True(t, v.Nullable())
	assert.NotNil(t, v.NullFlag())
	assert.Nil(t, v.Length())
}
