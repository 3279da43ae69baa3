package compiler

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/quarrydb/quarry/internal/sqltype"
)

// Domain prefix for content-addressed program identity.
// Version suffix enables future algorithm migration.
const domainProgram = "quarry/program/v1"

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ExprHash computes the content-addressed identity of a compiled program:
// the canonical form of the expression plus the error policy it was
// compiled under. The same tree compiled under both policies yields two
// distinct hashes, matching the two distinct programs produced.
func ExprHash(expr Expr, onErr sqltype.OnError) string {
	var sb strings.Builder
	writeCanonical(&sb, expr)
	if onErr == sqltype.ReturnNull {
		sb.WriteString(" @null")
	} else {
		sb.WriteString(" @raise")
	}
	return hashWithDomain(domainProgram, []byte(sb.String()))
}

// Canonical renders the expression as a stable s-expression. Two trees
// render identically iff they are structurally equal, so the rendering
// doubles as the hash preimage and as the display form the tooling prints.
func Canonical(expr Expr) string {
	var sb strings.Builder
	writeCanonical(&sb, expr)
	return sb.String()
}

func writeCanonical(sb *strings.Builder, expr Expr) {
	switch n := expr.(type) {
	case ConstInt:
		fmt.Fprintf(sb, "(int %s %d)", n.Type, n.Val)
	case ConstBool:
		fmt.Fprintf(sb, "(bool %v)", n.Val)
	case ConstFloat:
		// 'g' with -1 precision is the shortest round-trippable rendering.
		fmt.Fprintf(sb, "(float %s)", strconv.FormatFloat(n.Val, 'g', -1, 64))
	case ConstString:
		fmt.Fprintf(sb, "(str %q)", n.Val)
	case Null:
		fmt.Fprintf(sb, "(null %s)", n.Type)
	case Param:
		fmt.Fprintf(sb, "(param %d %s)", n.Index, n.Type)
	case CastExpr:
		fmt.Fprintf(sb, "(cast %s ", n.To)
		writeCanonical(sb, n.Operand)
		sb.WriteByte(')')
	case UnaryExpr:
		fmt.Fprintf(sb, "(%s ", n.Op)
		writeCanonical(sb, n.Operand)
		sb.WriteByte(')')
	case BinaryExpr:
		fmt.Fprintf(sb, "(%s ", n.Op)
		writeCanonical(sb, n.Left)
		sb.WriteByte(' ')
		writeCanonical(sb, n.Right)
		sb.WriteByte(')')
	case CompareExpr:
		fmt.Fprintf(sb, "(%s ", n.Pred)
		writeCanonical(sb, n.Left)
		sb.WriteByte(' ')
		writeCanonical(sb, n.Right)
		sb.WriteByte(')')
	case NaryExpr:
		fmt.Fprintf(sb, "(%s", n.Op)
		for _, o := range n.Operands {
			sb.WriteByte(' ')
			writeCanonical(sb, o)
		}
		sb.WriteByte(')')
	case NoArgExpr:
		fmt.Fprintf(sb, "(%s %s)", n.Op, n.Type)
	default:
		fmt.Fprintf(sb, "(?%T)", expr)
	}
}
