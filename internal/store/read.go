package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/quarrydb/quarry/internal/codegen"
	"github.com/quarrydb/quarry/internal/sqltype"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("store: not found")

// ProgramRecord is the stored view of a compiled program: identity, policy,
// and typing metadata plus the disassembly listing. The executable form is
// not persisted; callers recompile from the canonical tree when they need
// to run a cached program.
type ProgramRecord struct {
	Hash       string
	Token      string
	Canonical  string
	OnError    sqltype.OnError
	ResultType sqltype.Type
	Disasm     string
}

// GetProgram fetches one cached program by its content hash.
// Returns ErrNotFound if no program with that hash exists.
func (s *Store) GetProgram(ctx context.Context, hash string) (*ProgramRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT hash, token, canonical, on_error, result_type, nullable, disasm
		FROM programs
		WHERE hash = ?
	`, hash)

	rec, err := scanProgram(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get program %s: %w", hash, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get program: %w", err)
	}
	return rec, nil
}

// ListPrograms returns all cached programs ordered by unit token, which is
// time-ordered and therefore reflects creation order.
func (s *Store) ListPrograms(ctx context.Context) ([]ProgramRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT hash, token, canonical, on_error, result_type, nullable, disasm
		FROM programs
		ORDER BY token ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	defer rows.Close()

	var out []ProgramRecord
	for rows.Next() {
		rec, err := scanProgram(rows)
		if err != nil {
			return nil, fmt.Errorf("list programs: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	return out, nil
}

// ReadResults returns the materialized results for a program in insertion
// order, decoded through the result type's stored codec.
func (s *Store) ReadResults(ctx context.Context, programHash string, t sqltype.Type) ([]codegen.Scalar, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT val FROM results
		WHERE program_hash = ?
		ORDER BY id ASC
	`, programHash)
	if err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}
	defer rows.Close()

	st := sqltype.FromID(t.ID)
	var out []codegen.Scalar
	for rows.Next() {
		var buf []byte
		if err := rows.Scan(&buf); err != nil {
			return nil, fmt.Errorf("read results: %w", err)
		}
		scalar, err := st.DecodeStored(buf)
		if err != nil {
			return nil, fmt.Errorf("read results: %w", err)
		}
		out = append(out, scalar)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}
	return out, nil
}

// scanner covers sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanProgram(row scanner) (*ProgramRecord, error) {
	var (
		rec        ProgramRecord
		onErr      string
		resultType string
		nullable   int
	)
	if err := row.Scan(&rec.Hash, &rec.Token, &rec.Canonical, &onErr, &resultType, &nullable, &rec.Disasm); err != nil {
		return nil, err
	}

	policy, err := decodeOnError(onErr)
	if err != nil {
		return nil, err
	}
	rec.OnError = policy

	id := sqltype.TypeIDFromName(resultType)
	if id == sqltype.InvalidID {
		return nil, fmt.Errorf("invalid result_type value %q", resultType)
	}
	rec.ResultType = sqltype.Type{ID: id, Nullable: nullable != 0}
	return &rec, nil
}
