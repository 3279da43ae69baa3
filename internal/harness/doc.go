// Package harness provides golden-file helpers for compiled expression
// programs.
//
// A snapshot captures everything deterministic about a compiled unit: the
// canonical expression, the error policy, the result type, the stable
// disassembly listing, and the outcome of evaluating the unit against
// named parameter sets. Compilation tokens and content hashes are
// excluded; the token is random per compilation and the hash is derivable
// from the canonical form.
//
// Golden files live in testdata/golden/ next to the test that asserts
// them. To regenerate after an intended change:
//
//	go test ./... -update
package harness
