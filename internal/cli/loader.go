package cli

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/quarrydb/quarry/internal/codegen"
	"github.com/quarrydb/quarry/internal/compiler"
	"github.com/quarrydb/quarry/internal/sqltype"
)

//go:embed schema.cue
var schemaCUE []byte

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric    = "E001" // Generic/unknown error
	ErrCodeNotFound   = "E002" // Fixture file not found
	ErrCodeParse      = "E003" // YAML parse error
	ErrCodeSchema     = "E004" // Fixture rejected by the CUE schema
	ErrCodeBadExpr    = "E005" // Expression tree could not be built
	ErrCodeBadBinding = "E006" // Parameter binding could not be built
	ErrCodeWrite      = "E007" // File write error
	ErrCodeCompile    = "E101" // Expression failed to compile
	ErrCodeStore      = "E102" // Program cache error
)

// LoadError represents an error that occurred during fixture loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Fixture is one loaded expression fixture: the tree, the error policy it
// compiles under, and optional parameter bindings for evaluation.
type Fixture struct {
	Policy sqltype.OnError
	Expr   compiler.Expr
	Params []codegen.Scalar
}

// LoadFixture reads a YAML fixture file, validates it against the embedded
// CUE schema, and builds the typed expression tree and parameter bindings.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("fixture not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("reading fixture: %v", err)}
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("parsing %s: %v", path, err)}
	}

	if err := validateFixture(doc); err != nil {
		return nil, err
	}

	fixture := &Fixture{Policy: sqltype.Raise}
	if p, _ := doc["policy"].(string); p == "null" {
		fixture.Policy = sqltype.ReturnNull
	}

	expr, err := parseExpr(doc["expr"], "expr")
	if err != nil {
		return nil, err
	}
	fixture.Expr = expr

	if raw, ok := doc["params"].([]any); ok {
		fixture.Params = make([]codegen.Scalar, len(raw))
		for i, b := range raw {
			scalar, err := parseBinding(b, fmt.Sprintf("params[%d]", i))
			if err != nil {
				return nil, err
			}
			fixture.Params[i] = scalar
		}
	}

	return fixture, nil
}

// validateFixture unifies the decoded document with the schema's #Fixture
// definition. Validation failures carry the CUE position of the first
// offending field.
func validateFixture(doc map[string]any) error {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("compiling fixture schema: %v", err)}
	}

	def := schema.LookupPath(cue.ParsePath("#Fixture"))
	if !def.Exists() {
		return &LoadError{Code: ErrCodeGeneric, Message: "fixture schema has no #Fixture definition"}
	}

	unified := def.Unify(ctx.Encode(doc))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		le := &LoadError{Code: ErrCodeSchema, Message: cueerrors.Details(err, nil)}
		if positions := cueerrors.Positions(err); len(positions) > 0 {
			le.Pos = positions[0]
		}
		return le
	}
	return nil
}

// parseExpr builds a compiler.Expr from a schema-validated node. The kind
// discriminator has already been checked by CUE; unexpected shapes are
// still reported rather than trusted.
func parseExpr(raw any, path string) (compiler.Expr, error) {
	node, ok := raw.(map[string]any)
	if !ok {
		return nil, &LoadError{Code: ErrCodeBadExpr, Message: fmt.Sprintf("%s: expression node must be a mapping", path)}
	}

	kind, _ := node["kind"].(string)
	switch kind {
	case "int":
		id := sqltype.TypeIDFromName(stringField(node, "type"))
		val, err := intField(node, "val", path)
		if err != nil {
			return nil, err
		}
		return compiler.ConstInt{Val: val, Type: id}, nil

	case "bool":
		v, _ := node["val"].(bool)
		return compiler.ConstBool{Val: v}, nil

	case "float":
		return compiler.ConstFloat{Val: floatField(node, "val")}, nil

	case "str":
		return compiler.ConstString{Val: stringField(node, "val")}, nil

	case "null":
		return compiler.Null{Type: sqltype.TypeIDFromName(stringField(node, "type"))}, nil

	case "param":
		index, err := intField(node, "index", path)
		if err != nil {
			return nil, err
		}
		t, err := parseTypeName(stringField(node, "type"), path)
		if err != nil {
			return nil, err
		}
		return compiler.Param{Index: int(index), Type: t}, nil

	case "cast":
		operand, err := parseExpr(node["operand"], path+".operand")
		if err != nil {
			return nil, err
		}
		return compiler.CastExpr{To: sqltype.TypeIDFromName(stringField(node, "to")), Operand: operand}, nil

	case "unary":
		op, err := parseOperator(node, path)
		if err != nil {
			return nil, err
		}
		operand, err := parseExpr(node["operand"], path+".operand")
		if err != nil {
			return nil, err
		}
		return compiler.UnaryExpr{Op: op, Operand: operand}, nil

	case "binary":
		op, err := parseOperator(node, path)
		if err != nil {
			return nil, err
		}
		left, err := parseExpr(node["left"], path+".left")
		if err != nil {
			return nil, err
		}
		right, err := parseExpr(node["right"], path+".right")
		if err != nil {
			return nil, err
		}
		return compiler.BinaryExpr{Op: op, Left: left, Right: right}, nil

	case "compare":
		pred, ok := compiler.PredicateFromName(stringField(node, "pred"))
		if !ok {
			return nil, &LoadError{Code: ErrCodeBadExpr, Message: fmt.Sprintf("%s: unknown predicate %q", path, stringField(node, "pred"))}
		}
		left, err := parseExpr(node["left"], path+".left")
		if err != nil {
			return nil, err
		}
		right, err := parseExpr(node["right"], path+".right")
		if err != nil {
			return nil, err
		}
		return compiler.CompareExpr{Pred: pred, Left: left, Right: right}, nil

	case "nary":
		op, err := parseOperator(node, path)
		if err != nil {
			return nil, err
		}
		raw, _ := node["operands"].([]any)
		operands := make([]compiler.Expr, len(raw))
		for i, o := range raw {
			operand, err := parseExpr(o, fmt.Sprintf("%s.operands[%d]", path, i))
			if err != nil {
				return nil, err
			}
			operands[i] = operand
		}
		return compiler.NaryExpr{Op: op, Operands: operands}, nil

	case "noarg":
		op, err := parseOperator(node, path)
		if err != nil {
			return nil, err
		}
		return compiler.NoArgExpr{Op: op, Type: sqltype.TypeIDFromName(stringField(node, "type"))}, nil

	default:
		return nil, &LoadError{Code: ErrCodeBadExpr, Message: fmt.Sprintf("%s: unknown expression kind %q", path, kind)}
	}
}

// parseBinding builds the runtime Scalar for one parameter binding.
func parseBinding(raw any, path string) (codegen.Scalar, error) {
	node, ok := raw.(map[string]any)
	if !ok {
		return codegen.Scalar{}, &LoadError{Code: ErrCodeBadBinding, Message: fmt.Sprintf("%s: binding must be a mapping", path)}
	}

	t, err := parseTypeName(stringField(node, "type"), path)
	if err != nil {
		return codegen.Scalar{}, err
	}

	kind := scalarKind(t.ID)
	if isNull, _ := node["is_null"].(bool); isNull {
		return codegen.NullScalar(kind), nil
	}

	switch kind {
	case codegen.KindBool:
		v, ok := node["bool"].(bool)
		if !ok {
			return codegen.Scalar{}, &LoadError{Code: ErrCodeBadBinding, Message: fmt.Sprintf("%s: %s binding needs a bool field", path, t)}
		}
		return codegen.BoolScalar(v), nil
	case codegen.KindInt:
		v, err := intField(node, "int", path)
		if err != nil {
			return codegen.Scalar{}, &LoadError{Code: ErrCodeBadBinding, Message: fmt.Sprintf("%s: %s binding needs an int field", path, t)}
		}
		if min, max := bindingIntRange(t.ID); v < min || v > max {
			return codegen.Scalar{}, &LoadError{Code: ErrCodeBadBinding, Message: fmt.Sprintf("%s: value %d outside %s range [%d, %d]", path, v, t, min, max)}
		}
		return codegen.IntScalar(v), nil
	case codegen.KindFloat:
		if _, ok := node["float"]; !ok {
			return codegen.Scalar{}, &LoadError{Code: ErrCodeBadBinding, Message: fmt.Sprintf("%s: %s binding needs a float field", path, t)}
		}
		return codegen.FloatScalar(floatField(node, "float")), nil
	default:
		v, ok := node["str"].(string)
		if !ok {
			return codegen.Scalar{}, &LoadError{Code: ErrCodeBadBinding, Message: fmt.Sprintf("%s: %s binding needs a str field", path, t)}
		}
		return codegen.StringScalar(v), nil
	}
}

// parseTypeName resolves a type spelling like "INTEGER" or "INTEGER?".
func parseTypeName(name, path string) (sqltype.Type, error) {
	nullable := strings.HasSuffix(name, "?")
	id := sqltype.TypeIDFromName(strings.TrimSuffix(name, "?"))
	if id == sqltype.InvalidID {
		return sqltype.Type{}, &LoadError{Code: ErrCodeBadExpr, Message: fmt.Sprintf("%s: unknown type %q", path, name)}
	}
	return sqltype.Type{ID: id, Nullable: nullable}, nil
}

func parseOperator(node map[string]any, path string) (sqltype.OperatorID, error) {
	name := stringField(node, "op")
	op, ok := sqltype.OperatorIDFromName(name)
	if !ok {
		return 0, &LoadError{Code: ErrCodeBadExpr, Message: fmt.Sprintf("%s: unknown operator %q", path, name)}
	}
	return op, nil
}

// bindingIntRange is the usable domain of an integer binding. The width
// minimum is reserved as the null sentinel, so it is rejected too: a null
// binding spells is_null instead.
func bindingIntRange(id sqltype.TypeID) (int64, int64) {
	bits := sqltype.FromID(id).Layout().ValWidth * 8
	max := int64(1)<<(uint(bits)-1) - 1
	return -max, max
}

// scalarKind maps a logical type to its runtime representation.
func scalarKind(id sqltype.TypeID) codegen.Kind {
	switch id {
	case sqltype.BooleanID:
		return codegen.KindBool
	case sqltype.DecimalID:
		return codegen.KindFloat
	case sqltype.VarcharID:
		return codegen.KindString
	default:
		return codegen.KindInt
	}
}

func stringField(node map[string]any, key string) string {
	s, _ := node[key].(string)
	return s
}

// intField accepts the integer representations the YAML decoder produces.
func intField(node map[string]any, key, path string) (int64, error) {
	switch v := node[key].(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case uint64:
		return int64(v), nil
	default:
		return 0, &LoadError{Code: ErrCodeBadExpr, Message: fmt.Sprintf("%s: field %q must be an integer", path, key)}
	}
}

// floatField accepts integer and float YAML spellings.
func floatField(node map[string]any, key string) float64 {
	switch v := node[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}
