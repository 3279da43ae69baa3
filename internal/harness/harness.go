package harness

import (
	"errors"
	"fmt"
	"strings"

	"github.com/quarrydb/quarry/internal/codegen"
	"github.com/quarrydb/quarry/internal/compiler"
	"github.com/quarrydb/quarry/internal/sqltype"
)

// Case is one evaluation of a compiled unit: a label and the parameter
// bindings it runs against.
type Case struct {
	Name   string
	Params []codegen.Scalar
}

// Snapshot renders a deterministic textual report of a compiled unit and
// the outcome of each case. Faults are part of the program's semantics,
// so they appear in the report rather than failing the snapshot.
func Snapshot(u *compiler.Unit, cases []Case) []byte {
	var sb strings.Builder

	fmt.Fprintf(&sb, "canonical %s\n", u.Canonical)
	fmt.Fprintf(&sb, "policy    %s\n", policyName(u.OnError))
	fmt.Fprintf(&sb, "type      %s\n", u.ResultType)
	sb.WriteByte('\n')
	sb.WriteString(u.Disasm())

	if len(cases) > 0 {
		sb.WriteString("\neval:\n")
		for _, c := range cases {
			fmt.Fprintf(&sb, "  %s: %s\n", c.Name, outcome(u, c.Params))
		}
	}

	return []byte(sb.String())
}

// outcome runs the unit once and renders the result or the fault code.
func outcome(u *compiler.Unit, params []codegen.Scalar) string {
	out, err := u.Run(params...)
	if err != nil {
		var fault *codegen.FaultError
		if errors.As(err, &fault) {
			return fmt.Sprintf("fault %s", fault.Code)
		}
		return fmt.Sprintf("error %v", err)
	}
	return out.String()
}

func policyName(p sqltype.OnError) string {
	if p == sqltype.ReturnNull {
		return "null"
	}
	return "raise"
}
