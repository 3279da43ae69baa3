package compiler

import (
	"errors"
	"fmt"
)

// Compilation error codes.
const (
	// ErrCodeNoCommonType indicates the operands of a binary operator or
	// comparison cannot be implicitly widened to one type.
	ErrCodeNoCommonType = "NO_COMMON_TYPE"

	// ErrCodeBadLiteral indicates a literal node with an inconsistent
	// type annotation.
	ErrCodeBadLiteral = "BAD_LITERAL"

	// ErrCodeBadParam indicates a parameter node with a negative index or
	// invalid type.
	ErrCodeBadParam = "BAD_PARAM"

	// ErrCodeEmptyOperands indicates an n-ary node with fewer than two
	// operands.
	ErrCodeEmptyOperands = "EMPTY_OPERANDS"
)

// CompileError reports a failure while translating an expression tree.
// Registry lookup failures (unsupported casts and operators) are wrapped
// sqltype.LookupError values, not CompileErrors; both surface to the
// caller as compilation errors with no partial program emitted.
type CompileError struct {
	// Code identifies the error category.
	Code string

	// Message is a human-readable description.
	Message string

	// Path locates the offending node, e.g. "binary(add).left".
	Path string
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s at %s: %s", e.Code, e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsNoCommonType returns true if err reports operands with no common
// implicit type. Uses errors.As to handle wrapped errors.
func IsNoCommonType(err error) bool {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeNoCommonType
	}
	return false
}
