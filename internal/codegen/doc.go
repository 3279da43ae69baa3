// Package codegen is the code-emission layer of the expression compiler.
//
// Operators in the type system never talk to a concrete backend. They emit
// through the Emitter facade: overflow-checked arithmetic, comparisons,
// width conversions, fault raising, and structured conditional blocks whose
// divergent results are merged back into one value with Phi.
//
// The package ships one reference backend, Builder, which lowers emitted
// operations into a register bytecode Program, and Run, an interpreter that
// executes a Program against bound parameters. Any other backend (JIT,
// ahead-of-time native emission) can be substituted by implementing Emitter;
// nothing in the type system depends on the bytecode form.
package codegen
