package compiler

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/quarrydb/quarry/internal/codegen"
	"github.com/quarrydb/quarry/internal/sqltype"
)

// Unit is one compiled expression: the immutable program plus the identity
// and typing facts callers key off. Two Units compiled from the same tree
// under the same policy share a Hash but carry distinct Tokens.
type Unit struct {
	// Token identifies this compilation instance. Time-ordered (UUIDv7) so
	// cache listings sort by creation.
	Token uuid.UUID

	// Hash is the content-addressed identity of (expression, policy).
	Hash string

	// Canonical is the stable s-expression rendering of the tree.
	Canonical string

	// Program is the executable form.
	Program *codegen.Program

	// ResultType is the static type of the program's result.
	ResultType sqltype.Type

	// OnError is the policy the tree was compiled under.
	OnError sqltype.OnError
}

// Compile translates expr into an executable Unit under the given error
// policy. Compilation failures leave no partial artifacts.
func Compile(expr Expr, onErr sqltype.OnError) (*Unit, error) {
	b := codegen.NewBuilder()
	v, err := CompileValue(b, expr, sqltype.InvocationContext{OnError: onErr})
	if err != nil {
		return nil, err
	}
	prog := b.Finish(v.Raw(), v.Length(), v.NullFlag())

	token, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("compile: mint unit token: %w", err)
	}

	return &Unit{
		Token:      token,
		Hash:       ExprHash(expr, onErr),
		Canonical:  Canonical(expr),
		Program:    prog,
		ResultType: v.Type(),
		OnError:    onErr,
	}, nil
}

// Run executes the unit against the given parameter bindings.
func (u *Unit) Run(params ...codegen.Scalar) (codegen.Scalar, error) {
	return codegen.Run(u.Program, params...)
}

// Disasm returns the stable disassembly listing of the unit's program.
func (u *Unit) Disasm() string {
	return codegen.Disasm(u.Program)
}
