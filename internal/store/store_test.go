package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrydb/quarry/internal/codegen"
	"github.com/quarrydb/quarry/internal/compiler"
	"github.com/quarrydb/quarry/internal/sqltype"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "quarry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func compileUnit(t *testing.T, expr compiler.Expr, onErr sqltype.OnError) *compiler.Unit {
	t.Helper()
	u, err := compiler.Compile(expr, onErr)
	require.NoError(t, err)
	return u
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quarry.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

func TestProgramCacheRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	expr := compiler.BinaryExpr{
		Op:    sqltype.OpDiv,
		Left:  compiler.ConstInt{Val: 7, Type: sqltype.IntegerID},
		Right: compiler.ConstInt{Val: 0, Type: sqltype.IntegerID},
	}
	u := compileUnit(t, expr, sqltype.ReturnNull)
	require.NoError(t, s.PutProgram(ctx, u))

	rec, err := s.GetProgram(ctx, u.Hash)
	require.NoError(t, err)
	assert.Equal(t, u.Hash, rec.Hash)
	assert.Equal(t, u.Token.String(), rec.Token)
	assert.Equal(t, u.Canonical, rec.Canonical)
	assert.Equal(t, sqltype.ReturnNull, rec.OnError)
	assert.Equal(t, u.ResultType, rec.ResultType)
	assert.True(t, rec.ResultType.Nullable)
	assert.Equal(t, u.Disasm(), rec.Disasm)
}

func TestPutProgramIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	expr := compiler.ConstInt{Val: 1, Type: sqltype.IntegerID}
	u1 := compileUnit(t, expr, sqltype.Raise)
	u2 := compileUnit(t, expr, sqltype.Raise)
	require.Equal(t, u1.Hash, u2.Hash)

	require.NoError(t, s.PutProgram(ctx, u1))
	require.NoError(t, s.PutProgram(ctx, u2), "duplicate hash is a no-op")

	rec, err := s.GetProgram(ctx, u1.Hash)
	require.NoError(t, err)
	assert.Equal(t, u1.Token.String(), rec.Token, "the first compilation wins")
}

func TestGetProgramNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetProgram(context.Background(), "no-such-hash")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListPrograms(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	exprs := []compiler.Expr{
		compiler.ConstInt{Val: 1, Type: sqltype.IntegerID},
		compiler.ConstInt{Val: 2, Type: sqltype.IntegerID},
	}
	hashes := make(map[string]bool)
	for _, e := range exprs {
		u := compileUnit(t, e, sqltype.Raise)
		require.NoError(t, s.PutProgram(ctx, u))
		hashes[u.Hash] = true
	}

	recs, err := s.ListPrograms(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	for _, rec := range recs {
		assert.True(t, hashes[rec.Hash])
	}
}

func TestResultsMaterialization(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	expr := compiler.BinaryExpr{
		Op:    sqltype.OpAdd,
		Left:  compiler.ConstInt{Val: 1, Type: sqltype.IntegerID},
		Right: compiler.ConstInt{Val: 2, Type: sqltype.IntegerID},
	}
	u := compileUnit(t, expr, sqltype.Raise)
	require.NoError(t, s.PutProgram(ctx, u))

	out, err := u.Run()
	require.NoError(t, err)

	id, err := s.AppendResult(ctx, u.Hash, u.ResultType, out)
	require.NoError(t, err)
	assert.Positive(t, id)

	_, err = s.AppendResult(ctx, u.Hash, u.ResultType, codegen.NullScalar(codegen.KindInt))
	require.NoError(t, err)

	results, err := s.ReadResults(ctx, u.Hash, u.ResultType)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, int64(3), results[0].Int)
	assert.False(t, results[0].Null)
	assert.True(t, results[1].Null, "NULL survives the sentinel encoding")
}

func TestVarcharResultsKeepNullDistinctFromEmpty(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	expr := compiler.ConstString{Val: ""}
	u := compileUnit(t, expr, sqltype.Raise)
	require.NoError(t, s.PutProgram(ctx, u))

	_, err := s.AppendResult(ctx, u.Hash, u.ResultType, codegen.StringScalar(""))
	require.NoError(t, err)
	_, err = s.AppendResult(ctx, u.Hash, u.ResultType, codegen.NullScalar(codegen.KindString))
	require.NoError(t, err)

	results, err := s.ReadResults(ctx, u.Hash, u.ResultType)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.False(t, results[0].Null)
	assert.Equal(t, "", results[0].Str)
	assert.True(t, results[1].Null)
}

func TestAppendResultRejectsForeignProgram(t *testing.T) {
	s := openTestStore(t)

	_, err := s.AppendResult(context.Background(), "no-such-hash",
		sqltype.NonNullable(sqltype.IntegerID), codegen.IntScalar(1))
	require.Error(t, err, "foreign keys are enforced")
}
