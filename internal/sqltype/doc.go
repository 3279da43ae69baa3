// Package sqltype is the extensible SQL type system used by the expression
// compiler.
//
// Each logical SQL type is represented by a process-lifetime SqlType
// singleton owning its constants, stored layout, and a TypeSystem: the
// read-only registry of every cast, comparison, and operator the type
// supports. The compiler resolves operand types, asks the owning type's
// TypeSystem for a matching operator, and invokes it with a codegen.Emitter
// to produce executable logic.
//
// Concrete operators are null-oblivious cores wrapped by generic
// null-handling decorators, so NULL propagation is implemented exactly once:
// if any operand is null at run time, the decorated operator short-circuits
// to a null result without evaluating the core.
//
// All tables are populated during package initialization and never mutated,
// so concurrent compilations may share them without locking.
package sqltype
