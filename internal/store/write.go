package store

import (
	"context"
	"fmt"

	"github.com/quarrydb/quarry/internal/codegen"
	"github.com/quarrydb/quarry/internal/compiler"
	"github.com/quarrydb/quarry/internal/sqltype"
)

// encodeOnError maps the policy to its stored text form. The CHECK
// constraint on programs.on_error pins the two spellings.
func encodeOnError(p sqltype.OnError) string {
	if p == sqltype.ReturnNull {
		return "null"
	}
	return "raise"
}

func decodeOnError(s string) (sqltype.OnError, error) {
	switch s {
	case "raise":
		return sqltype.Raise, nil
	case "null":
		return sqltype.ReturnNull, nil
	default:
		return 0, fmt.Errorf("invalid on_error value %q", s)
	}
}

// PutProgram caches a compiled unit under its content hash.
// Uses ON CONFLICT(hash) DO NOTHING for idempotency - recompilations of the
// same tree under the same policy are silently ignored.
func (s *Store) PutProgram(ctx context.Context, u *compiler.Unit) error {
	nullable := 0
	if u.ResultType.Nullable {
		nullable = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO programs
		(hash, token, canonical, on_error, result_type, nullable, disasm)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`,
		u.Hash,
		u.Token.String(),
		u.Canonical,
		encodeOnError(u.OnError),
		u.ResultType.ID.String(),
		nullable,
		u.Disasm(),
	)
	if err != nil {
		return fmt.Errorf("put program: %w", err)
	}

	return nil
}

// AppendResult materializes one evaluated scalar under a cached program.
// The scalar is serialized through the result type's stored codec, which
// folds NULL into the type's sentinel encoding. Returns the result row id.
func (s *Store) AppendResult(ctx context.Context, programHash string, t sqltype.Type, out codegen.Scalar) (int64, error) {
	buf, err := sqltype.FromID(t.ID).EncodeStored(out)
	if err != nil {
		return 0, fmt.Errorf("append result: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO results (program_hash, val) VALUES (?, ?)
	`, programHash, buf)
	if err != nil {
		return 0, fmt.Errorf("append result: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("append result: %w", err)
	}
	return id, nil
}
