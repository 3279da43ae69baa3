package compiler

import (
	"fmt"

	"github.com/quarrydb/quarry/internal/codegen"
	"github.com/quarrydb/quarry/internal/sqltype"
)

// CompileValue emits code for expr into e and returns the resulting Value.
// ctx carries the error policy applied at every call site in the tree.
//
// Operator and cast lookups go through the operand type's registry; a failed
// lookup aborts compilation with the wrapped lookup error, before any code
// for that operation has been emitted. Operands of binary operators,
// comparisons, and n-ary operators are first coerced to a common type via
// the implicit-cast lists.
func CompileValue(e codegen.Emitter, expr Expr, ctx sqltype.InvocationContext) (sqltype.Value, error) {
	return emit(e, expr, ctx, "expr")
}

func emit(e codegen.Emitter, expr Expr, ctx sqltype.InvocationContext, path string) (sqltype.Value, error) {
	switch n := expr.(type) {
	case ConstInt:
		return emitConstInt(e, n, path)

	case ConstBool:
		return sqltype.NewValue(sqltype.NonNullable(sqltype.BooleanID), e.ConstBool(n.Val)), nil

	case ConstFloat:
		return sqltype.NewValue(sqltype.NonNullable(sqltype.DecimalID), e.ConstFloat(n.Val)), nil

	case ConstString:
		primary := e.ConstString(n.Val)
		length := e.ConstInt(codegen.W32, int64(len(n.Val)))
		return sqltype.NewVarlenValue(sqltype.NonNullable(sqltype.VarcharID), primary, length, nil), nil

	case Null:
		if !validTypeID(n.Type) {
			return sqltype.Value{}, &CompileError{
				Code:    ErrCodeBadLiteral,
				Message: fmt.Sprintf("null literal with invalid type id %d", n.Type),
				Path:    path,
			}
		}
		return sqltype.FromID(n.Type).NullValue(e), nil

	case Param:
		return emitParam(e, n, path)

	case CastExpr:
		v, err := emit(e, n.Operand, ctx, path+".operand")
		if err != nil {
			return sqltype.Value{}, err
		}
		to := sqltype.Type{ID: n.To, Nullable: v.Type().Nullable}
		cast, err := v.Type().SqlType().TypeSystem().FindCast(v.Type(), to)
		if err != nil {
			return sqltype.Value{}, fmt.Errorf("%s: %w", path, err)
		}
		return cast.Eval(e, v, to), nil

	case UnaryExpr:
		v, err := emit(e, n.Operand, ctx, fmt.Sprintf("%s.unary(%s)", path, n.Op))
		if err != nil {
			return sqltype.Value{}, err
		}
		op, err := v.Type().SqlType().TypeSystem().FindUnaryOperator(n.Op, v.Type())
		if err != nil {
			return sqltype.Value{}, fmt.Errorf("%s: %w", path, err)
		}
		return op.Eval(e, v, ctx), nil

	case BinaryExpr:
		nodePath := fmt.Sprintf("%s.binary(%s)", path, n.Op)
		left, right, err := emitPair(e, n.Left, n.Right, ctx, nodePath)
		if err != nil {
			return sqltype.Value{}, err
		}
		op, err := left.Type().SqlType().TypeSystem().FindBinaryOperator(n.Op, left.Type(), right.Type())
		if err != nil {
			return sqltype.Value{}, fmt.Errorf("%s: %w", nodePath, err)
		}
		return op.Eval(e, left, right, ctx), nil

	case CompareExpr:
		nodePath := fmt.Sprintf("%s.compare(%s)", path, n.Pred)
		left, right, err := emitPair(e, n.Left, n.Right, ctx, nodePath)
		if err != nil {
			return sqltype.Value{}, err
		}
		cmp, err := left.Type().SqlType().TypeSystem().FindComparison(left.Type(), right.Type())
		if err != nil {
			return sqltype.Value{}, fmt.Errorf("%s: %w", nodePath, err)
		}
		switch n.Pred {
		case PredLT:
			return cmp.EvalLT(e, left, right), nil
		case PredLE:
			return cmp.EvalLE(e, left, right), nil
		case PredEQ:
			return cmp.EvalEQ(e, left, right), nil
		case PredNE:
			return cmp.EvalNE(e, left, right), nil
		case PredGT:
			return cmp.EvalGT(e, left, right), nil
		case PredGE:
			return cmp.EvalGE(e, left, right), nil
		default:
			return cmp.EvalCompareForSort(e, left, right), nil
		}

	case NaryExpr:
		return emitNary(e, n, ctx, path)

	case NoArgExpr:
		if !validTypeID(n.Type) {
			return sqltype.Value{}, &CompileError{
				Code:    ErrCodeBadLiteral,
				Message: fmt.Sprintf("no-arg node with invalid type id %d", n.Type),
				Path:    path,
			}
		}
		op, err := sqltype.FromID(n.Type).TypeSystem().FindNoArgOperator(n.Op)
		if err != nil {
			return sqltype.Value{}, fmt.Errorf("%s: %w", path, err)
		}
		return op.Eval(e), nil

	default:
		return sqltype.Value{}, &CompileError{
			Code:    ErrCodeBadLiteral,
			Message: fmt.Sprintf("unknown expression node %T", expr),
			Path:    path,
		}
	}
}

func emitConstInt(e codegen.Emitter, n ConstInt, path string) (sqltype.Value, error) {
	w, ok := intWidth(n.Type)
	if !ok {
		return sqltype.Value{}, &CompileError{
			Code:    ErrCodeBadLiteral,
			Message: fmt.Sprintf("integer literal typed %s", n.Type),
			Path:    path,
		}
	}
	min, max := intRange(w)
	if n.Val < min || n.Val > max {
		return sqltype.Value{}, &CompileError{
			Code:    ErrCodeBadLiteral,
			Message: fmt.Sprintf("literal %d outside %s range [%d, %d]", n.Val, n.Type, min, max),
			Path:    path,
		}
	}
	return sqltype.NewValue(sqltype.NonNullable(n.Type), e.ConstInt(w, n.Val)), nil
}

func emitParam(e codegen.Emitter, n Param, path string) (sqltype.Value, error) {
	if n.Index < 0 {
		return sqltype.Value{}, &CompileError{
			Code:    ErrCodeBadParam,
			Message: fmt.Sprintf("negative parameter index %d", n.Index),
			Path:    path,
		}
	}
	if !validTypeID(n.Type.ID) {
		return sqltype.Value{}, &CompileError{
			Code:    ErrCodeBadParam,
			Message: fmt.Sprintf("parameter %d with invalid type id %d", n.Index, n.Type.ID),
			Path:    path,
		}
	}

	primary := e.Param(n.Index)
	var null codegen.Handle
	if n.Type.Nullable {
		null = e.ParamNull(n.Index)
	}
	if n.Type.ID == sqltype.VarcharID {
		return sqltype.NewVarlenValue(n.Type, primary, e.StrLen(primary), null), nil
	}
	if n.Type.Nullable {
		return sqltype.NewValueWithNull(n.Type, primary, null), nil
	}
	return sqltype.NewValue(n.Type, primary), nil
}

// emitPair compiles both operands of a two-operand node and coerces them to
// their common implicit type.
func emitPair(e codegen.Emitter, l, r Expr, ctx sqltype.InvocationContext, nodePath string) (sqltype.Value, sqltype.Value, error) {
	left, err := emit(e, l, ctx, nodePath+".left")
	if err != nil {
		return sqltype.Value{}, sqltype.Value{}, err
	}
	right, err := emit(e, r, ctx, nodePath+".right")
	if err != nil {
		return sqltype.Value{}, sqltype.Value{}, err
	}

	common, ok := commonTypeID(left.Type().ID, right.Type().ID)
	if !ok {
		return sqltype.Value{}, sqltype.Value{}, &CompileError{
			Code:    ErrCodeNoCommonType,
			Message: fmt.Sprintf("no common type for %s and %s", left.Type(), right.Type()),
			Path:    nodePath,
		}
	}

	left, err = coerceTo(e, left, common, nodePath+".left")
	if err != nil {
		return sqltype.Value{}, sqltype.Value{}, err
	}
	right, err = coerceTo(e, right, common, nodePath+".right")
	if err != nil {
		return sqltype.Value{}, sqltype.Value{}, err
	}
	return left, right, nil
}

func emitNary(e codegen.Emitter, n NaryExpr, ctx sqltype.InvocationContext, path string) (sqltype.Value, error) {
	nodePath := fmt.Sprintf("%s.nary(%s)", path, n.Op)
	if len(n.Operands) < 2 {
		return sqltype.Value{}, &CompileError{
			Code:    ErrCodeEmptyOperands,
			Message: fmt.Sprintf("n-ary operator needs at least 2 operands, got %d", len(n.Operands)),
			Path:    nodePath,
		}
	}

	operands := make([]sqltype.Value, len(n.Operands))
	for i, o := range n.Operands {
		v, err := emit(e, o, ctx, fmt.Sprintf("%s[%d]", nodePath, i))
		if err != nil {
			return sqltype.Value{}, err
		}
		operands[i] = v
	}

	common := operands[0].Type().ID
	for _, v := range operands[1:] {
		next, ok := commonTypeID(common, v.Type().ID)
		if !ok {
			return sqltype.Value{}, &CompileError{
				Code:    ErrCodeNoCommonType,
				Message: fmt.Sprintf("no common type for %s and %s", common, v.Type()),
				Path:    nodePath,
			}
		}
		common = next
	}

	types := make([]sqltype.Type, len(operands))
	for i := range operands {
		v, err := coerceTo(e, operands[i], common, fmt.Sprintf("%s[%d]", nodePath, i))
		if err != nil {
			return sqltype.Value{}, err
		}
		operands[i] = v
		types[i] = v.Type()
	}

	op, err := sqltype.FromID(common).TypeSystem().FindNaryOperator(n.Op, types)
	if err != nil {
		return sqltype.Value{}, fmt.Errorf("%s: %w", nodePath, err)
	}
	return op.Eval(e, operands, ctx), nil
}

// coerceTo inserts an implicit cast bringing v to the target logical type.
// Same-type operands pass through without emission.
func coerceTo(e codegen.Emitter, v sqltype.Value, target sqltype.TypeID, path string) (sqltype.Value, error) {
	if v.Type().ID == target {
		return v, nil
	}
	to := sqltype.Type{ID: target, Nullable: v.Type().Nullable}
	cast, err := v.Type().SqlType().TypeSystem().FindCast(v.Type(), to)
	if err != nil {
		return sqltype.Value{}, fmt.Errorf("%s: %w", path, err)
	}
	return cast.Eval(e, v, to), nil
}

// commonTypeID resolves the type both operands reach through at most one
// implicit widening. Identical types are their own common type; otherwise
// the operand whose implicit-cast list contains the other's type widens.
func commonTypeID(l, r sqltype.TypeID) (sqltype.TypeID, bool) {
	if l == r {
		return l, true
	}
	if implicitlyCastable(l, r) {
		return r, true
	}
	if implicitlyCastable(r, l) {
		return l, true
	}
	return sqltype.InvalidID, false
}

func implicitlyCastable(from, to sqltype.TypeID) bool {
	for _, id := range sqltype.FromID(from).TypeSystem().ImplicitCasts() {
		if id == to {
			return true
		}
	}
	return false
}

func intWidth(id sqltype.TypeID) (codegen.Width, bool) {
	switch id {
	case sqltype.TinyIntID:
		return codegen.W8, true
	case sqltype.SmallIntID:
		return codegen.W16, true
	case sqltype.IntegerID:
		return codegen.W32, true
	case sqltype.BigIntID:
		return codegen.W64, true
	default:
		return 0, false
	}
}

// intRange is the usable domain of a width: the width minimum is reserved
// as the null sentinel, so the smallest usable value sits one above it.
func intRange(w codegen.Width) (int64, int64) {
	max := int64(1)<<(uint(w.Bits())-1) - 1
	return -max, max
}

func validTypeID(id sqltype.TypeID) bool {
	switch id {
	case sqltype.BooleanID, sqltype.TinyIntID, sqltype.SmallIntID,
		sqltype.IntegerID, sqltype.BigIntID, sqltype.DecimalID, sqltype.VarcharID:
		return true
	default:
		return false
	}
}
