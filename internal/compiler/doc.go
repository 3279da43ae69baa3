// Package compiler translates typed expression trees into executable
// programs through the type system.
//
// The compiler owns everything the type system deliberately does not:
// resolving each node's operand types, inserting implicit widening casts so
// operands reach a common type before an operator is consulted, choosing
// the per-call-site error policy, and turning registry lookup failures into
// compilation errors. Operator implementations receive operands that
// already satisfy their predicates.
package compiler
