package compiler

import "github.com/quarrydb/quarry/internal/sqltype"

// Expr is a sealed interface over the expression node kinds the compiler
// accepts. Only the node types in this file implement it.
type Expr interface {
	expr()
}

// ConstInt is an integer-family literal. Type must be one of the four
// integer type ids.
type ConstInt struct {
	Val  int64
	Type sqltype.TypeID
}

func (ConstInt) expr() {}

// ConstBool is a BOOLEAN literal.
type ConstBool struct {
	Val bool
}

func (ConstBool) expr() {}

// ConstFloat is a DECIMAL literal.
type ConstFloat struct {
	Val float64
}

func (ConstFloat) expr() {}

// ConstString is a VARCHAR literal.
type ConstString struct {
	Val string
}

func (ConstString) expr() {}

// Null is a typed NULL literal.
type Null struct {
	Type sqltype.TypeID
}

func (Null) expr() {}

// Param binds a program input. Nullable params carry a runtime null
// indicator alongside the payload.
type Param struct {
	Index int
	Type  sqltype.Type
}

func (Param) expr() {}

// CastExpr is an explicit cast.
type CastExpr struct {
	To      sqltype.TypeID
	Operand Expr
}

func (CastExpr) expr() {}

// UnaryExpr applies a unary operator.
type UnaryExpr struct {
	Op      sqltype.OperatorID
	Operand Expr
}

func (UnaryExpr) expr() {}

// BinaryExpr applies a binary operator.
type BinaryExpr struct {
	Op    sqltype.OperatorID
	Left  Expr
	Right Expr
}

func (BinaryExpr) expr() {}

// Predicate selects one of the six comparison predicates or the sort
// comparator.
type Predicate uint8

const (
	PredLT Predicate = iota
	PredLE
	PredEQ
	PredNE
	PredGT
	PredGE
	// PredSort is the three-way sort comparator: a signed INTEGER result
	// instead of a BOOLEAN.
	PredSort
)

var predicateNames = map[Predicate]string{
	PredLT:   "lt",
	PredLE:   "le",
	PredEQ:   "eq",
	PredNE:   "ne",
	PredGT:   "gt",
	PredGE:   "ge",
	PredSort: "cmp",
}

// String returns the short predicate name.
func (p Predicate) String() string {
	if s, ok := predicateNames[p]; ok {
		return s
	}
	return "pred?"
}

// PredicateFromName resolves a short predicate name. The second result is
// false for unknown names.
func PredicateFromName(name string) (Predicate, bool) {
	for p, s := range predicateNames {
		if s == name {
			return p, true
		}
	}
	return 0, false
}

// CompareExpr applies a comparison predicate or the sort comparator.
type CompareExpr struct {
	Pred  Predicate
	Left  Expr
	Right Expr
}

func (CompareExpr) expr() {}

// NaryExpr applies an n-ary operator over two or more operands.
type NaryExpr struct {
	Op       sqltype.OperatorID
	Operands []Expr
}

func (NaryExpr) expr() {}

// NoArgExpr applies a no-argument operator from the named type's table.
type NoArgExpr struct {
	Op   sqltype.OperatorID
	Type sqltype.TypeID
}

func (NoArgExpr) expr() {}
