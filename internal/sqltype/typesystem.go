package sqltype

import (
	"errors"
	"fmt"

	"github.com/quarrydb/quarry/internal/codegen"
)

// OperatorID names a SQL operator independent of the types implementing it.
type OperatorID uint8

const (
	OpNegation OperatorID = iota
	OpAbs
	OpCeil
	OpFloor
	OpSqrt
	OpLogicalNot
	OpLength
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpLogicalAnd
	OpLogicalOr
	OpConcat
	OpPi
)

var operatorNames = map[OperatorID]string{
	OpNegation:   "negation",
	OpAbs:        "abs",
	OpCeil:       "ceil",
	OpFloor:      "floor",
	OpSqrt:       "sqrt",
	OpLogicalNot: "not",
	OpLength:     "length",
	OpAdd:        "add",
	OpSub:        "sub",
	OpMul:        "mul",
	OpDiv:        "div",
	OpMod:        "mod",
	OpLogicalAnd: "and",
	OpLogicalOr:  "or",
	OpConcat:     "concat",
	OpPi:         "pi",
}

// String returns the lowercase operator name.
func (id OperatorID) String() string {
	if s, ok := operatorNames[id]; ok {
		return s
	}
	return "operator?"
}

// OperatorIDFromName resolves an operator name (as printed by String). The
// second result is false for unknown names.
func OperatorIDFromName(name string) (OperatorID, bool) {
	for id, s := range operatorNames {
		if s == name {
			return id, true
		}
	}
	return 0, false
}

// OnError selects how a call site reacts to arithmetic faults in the
// generated program.
type OnError uint8

const (
	// Raise emits fault-raising paths: overflow and division by zero abort
	// execution with a FaultError.
	Raise OnError = iota

	// ReturnNull converts division by zero into a null result. Overflow
	// under this policy is not checked at all: the wrapped value is
	// returned (preserved behavior of the original system; see the abs
	// and negation notes in the per-operator docs).
	ReturnNull
)

// InvocationContext is per-call-site policy, chosen by the compiler rather
// than the operator.
type InvocationContext struct {
	OnError OnError
}

// Cast converts a value of one type into another.
type Cast interface {
	// SupportsTypes reports whether the cast handles (from, to). The
	// caller must check this before invoking Eval.
	SupportsTypes(from, to Type) bool

	// Eval emits the conversion and returns the result value.
	Eval(e codegen.Emitter, v Value, to Type) Value
}

// Comparison implements the six boolean predicates plus the sort
// comparator for one family of operand types. The sort comparator returns
// a signed 32-bit Integer value (conceptually left - right) so the same
// code path serves equality predicates and sort/merge ordering.
type Comparison interface {
	SupportsTypes(left, right Type) bool

	EvalLT(e codegen.Emitter, left, right Value) Value
	EvalLE(e codegen.Emitter, left, right Value) Value
	EvalEQ(e codegen.Emitter, left, right Value) Value
	EvalNE(e codegen.Emitter, left, right Value) Value
	EvalGT(e codegen.Emitter, left, right Value) Value
	EvalGE(e codegen.Emitter, left, right Value) Value
	EvalCompareForSort(e codegen.Emitter, left, right Value) Value
}

// UnaryOperator is a one-operand operator.
type UnaryOperator interface {
	SupportsType(t Type) bool
	ResultType(t Type) Type
	Eval(e codegen.Emitter, v Value, ctx InvocationContext) Value
}

// BinaryOperator is a two-operand operator.
type BinaryOperator interface {
	SupportsTypes(left, right Type) bool
	ResultType(left, right Type) Type
	Eval(e codegen.Emitter, left, right Value, ctx InvocationContext) Value
}

// NaryOperator is an operator over two or more operands.
type NaryOperator interface {
	SupportsTypes(types []Type) bool
	ResultType(types []Type) Type
	Eval(e codegen.Emitter, operands []Value, ctx InvocationContext) Value
}

// NoArgOperator produces a value from no operands.
type NoArgOperator interface {
	ResultType() Type
	Eval(e codegen.Emitter) Value
}

// CastEntry wires a cast into a type system. From and To are informational
// (table dumps); lookup consults the operator's own predicate.
type CastEntry struct {
	From TypeID
	To   TypeID
	Op   Cast
}

// UnaryEntry wires a unary operator under its operator id.
type UnaryEntry struct {
	ID OperatorID
	Op UnaryOperator
}

// BinaryEntry wires a binary operator under its operator id.
type BinaryEntry struct {
	ID OperatorID
	Op BinaryOperator
}

// NaryEntry wires an n-ary operator under its operator id.
type NaryEntry struct {
	ID OperatorID
	Op NaryOperator
}

// NoArgEntry wires a no-argument operator under its operator id.
type NoArgEntry struct {
	ID OperatorID
	Op NoArgOperator
}

// TypeSystem is the per-type operator registry. Tables are populated once
// at construction and read-only afterwards; lookups are pure functions, so
// concurrent readers need no locking.
//
// Lookup is a first-match linear scan keyed by each operator's declared
// predicate rather than a hashed signature, which lets one registered
// operator cover many type combinations.
type TypeSystem struct {
	implicitCasts []TypeID
	casts         []CastEntry
	comparisons   []Comparison
	unaryOps      []UnaryEntry
	binaryOps     []BinaryEntry
	naryOps       []NaryEntry
	noArgOps      []NoArgEntry
}

// NewTypeSystem builds a registry from its tables. The slices are owned by
// the TypeSystem after the call.
func NewTypeSystem(
	implicitCasts []TypeID,
	casts []CastEntry,
	comparisons []Comparison,
	unaryOps []UnaryEntry,
	binaryOps []BinaryEntry,
	naryOps []NaryEntry,
	noArgOps []NoArgEntry,
) *TypeSystem {
	return &TypeSystem{
		implicitCasts: implicitCasts,
		casts:         casts,
		comparisons:   comparisons,
		unaryOps:      unaryOps,
		binaryOps:     binaryOps,
		naryOps:       naryOps,
		noArgOps:      noArgOps,
	}
}

// ImplicitCasts returns the ordered list of types this type silently
// widens to. Consulted by the compiler during overload resolution, never
// by operator implementations.
func (ts *TypeSystem) ImplicitCasts() []TypeID { return ts.implicitCasts }

// Casts returns the explicit-cast table for inspection.
func (ts *TypeSystem) Casts() []CastEntry { return ts.casts }

// UnaryOperators returns the unary table for inspection.
func (ts *TypeSystem) UnaryOperators() []UnaryEntry { return ts.unaryOps }

// BinaryOperators returns the binary table for inspection.
func (ts *TypeSystem) BinaryOperators() []BinaryEntry { return ts.binaryOps }

// NaryOperators returns the n-ary table for inspection.
func (ts *TypeSystem) NaryOperators() []NaryEntry { return ts.naryOps }

// NoArgOperators returns the no-argument table for inspection.
func (ts *TypeSystem) NoArgOperators() []NoArgEntry { return ts.noArgOps }

// FindCast returns the first registered cast accepting (from, to).
func (ts *TypeSystem) FindCast(from, to Type) (Cast, error) {
	for _, entry := range ts.casts {
		if entry.Op.SupportsTypes(from, to) {
			return entry.Op, nil
		}
	}
	return nil, &LookupError{
		Code:    ErrCodeUnsupportedCast,
		Message: fmt.Sprintf("no cast from %s to %s", from, to),
	}
}

// FindComparison returns the first registered comparison accepting the
// operand types. Cross-type comparison requires an explicit cast step
// performed by the compiler before invocation.
func (ts *TypeSystem) FindComparison(left, right Type) (Comparison, error) {
	for _, cmp := range ts.comparisons {
		if cmp.SupportsTypes(left, right) {
			return cmp, nil
		}
	}
	return nil, &LookupError{
		Code:    ErrCodeUnsupportedComparison,
		Message: fmt.Sprintf("no comparison between %s and %s", left, right),
	}
}

// FindUnaryOperator returns the first operator registered under id that
// accepts the operand type.
func (ts *TypeSystem) FindUnaryOperator(id OperatorID, t Type) (UnaryOperator, error) {
	for _, entry := range ts.unaryOps {
		if entry.ID == id && entry.Op.SupportsType(t) {
			return entry.Op, nil
		}
	}
	return nil, &LookupError{
		Code:    ErrCodeUnsupportedOperator,
		Message: fmt.Sprintf("no unary operator %s for %s", id, t),
	}
}

// FindBinaryOperator returns the first operator registered under id that
// accepts the operand types.
func (ts *TypeSystem) FindBinaryOperator(id OperatorID, left, right Type) (BinaryOperator, error) {
	for _, entry := range ts.binaryOps {
		if entry.ID == id && entry.Op.SupportsTypes(left, right) {
			return entry.Op, nil
		}
	}
	return nil, &LookupError{
		Code:    ErrCodeUnsupportedOperator,
		Message: fmt.Sprintf("no binary operator %s for (%s, %s)", id, left, right),
	}
}

// FindNaryOperator returns the first operator registered under id that
// accepts the operand types.
func (ts *TypeSystem) FindNaryOperator(id OperatorID, types []Type) (NaryOperator, error) {
	for _, entry := range ts.naryOps {
		if entry.ID == id && entry.Op.SupportsTypes(types) {
			return entry.Op, nil
		}
	}
	return nil, &LookupError{
		Code:    ErrCodeUnsupportedOperator,
		Message: fmt.Sprintf("no n-ary operator %s for %v", id, types),
	}
}

// FindNoArgOperator returns the operator registered under id.
func (ts *TypeSystem) FindNoArgOperator(id OperatorID) (NoArgOperator, error) {
	for _, entry := range ts.noArgOps {
		if entry.ID == id {
			return entry.Op, nil
		}
	}
	return nil, &LookupError{
		Code:    ErrCodeUnsupportedOperator,
		Message: fmt.Sprintf("no no-arg operator %s", id),
	}
}

// LookupErrorCode categorizes registry lookup failures.
type LookupErrorCode string

const (
	// ErrCodeUnsupportedCast indicates no registered cast matched.
	ErrCodeUnsupportedCast LookupErrorCode = "UNSUPPORTED_CAST"

	// ErrCodeUnsupportedComparison indicates no registered comparison
	// matched.
	ErrCodeUnsupportedComparison LookupErrorCode = "UNSUPPORTED_COMPARISON"

	// ErrCodeUnsupportedOperator indicates no registered operator matched
	// the id and operand types.
	ErrCodeUnsupportedOperator LookupErrorCode = "UNSUPPORTED_OPERATOR"
)

// LookupError reports a failed registry lookup. Lookup failures are
// compile-time errors: they surface to the compiler before any code is
// emitted for the operation.
type LookupError struct {
	Code    LookupErrorCode
	Message string
}

// Error implements the error interface.
func (e *LookupError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsUnsupportedCast returns true if err is an UNSUPPORTED_CAST lookup
// failure. Uses errors.As to handle wrapped errors.
func IsUnsupportedCast(err error) bool {
	var le *LookupError
	if errors.As(err, &le) {
		return le.Code == ErrCodeUnsupportedCast
	}
	return false
}

// IsUnsupportedOperator returns true if err is an UNSUPPORTED_OPERATOR or
// UNSUPPORTED_COMPARISON lookup failure. Uses errors.As to handle wrapped
// errors.
func IsUnsupportedOperator(err error) bool {
	var le *LookupError
	if errors.As(err, &le) {
		return le.Code == ErrCodeUnsupportedOperator || le.Code == ErrCodeUnsupportedComparison
	}
	return false
}
