package expand

import (
	"strconv"

	"posh.sh/pkg/ast"
	"posh.sh/pkg/diag"
)

// evalArith walks an arith_expr tree (§4.F), resolving ArithVar against env
// exactly like a shell variable (unset or non-numeric reads as 0) and
// writing ArithAssign targets back through env.Set.
func (e *evaluator) evalArith(expr ast.ArithExpr) (int64, error) {
	switch n := expr.(type) {
	case *ast.ArithNum:
		return n.Value, nil
	case *ast.ArithVar:
		return e.arithVarValue(n.Name), nil
	case *ast.ArithUnary:
		return e.evalArithUnary(n)
	case *ast.ArithBinary:
		return e.evalArithBinary(n)
	case *ast.ArithAssign:
		return e.evalArithAssign(n)
	case *ast.ArithTernary:
		cond, err := e.evalArith(n.Cond)
		if err != nil {
			return 0, err
		}
		if cond != 0 {
			return e.evalArith(n.Then)
		}
		return e.evalArith(n.Else)
	case *ast.ArithFuncCall:
		return e.evalArithFuncCall(n)
	default:
		return 0, e.arithErrorf(expr, "unsupported arithmetic expression")
	}
}

func (e *evaluator) arithVarValue(name string) int64 {
	val, set := e.env.Get(name)
	if !set {
		if sv, ok := e.env.Special(name); ok {
			val = sv
		}
	}
	n, _ := strconv.ParseInt(val, 0, 64)
	return n
}

func (e *evaluator) evalArithUnary(n *ast.ArithUnary) (int64, error) {
	switch n.Op {
	case ast.ArithPreInc, ast.ArithPreDec, ast.ArithPostInc, ast.ArithPostDec:
		v, ok := n.Operand.(*ast.ArithVar)
		if !ok {
			return 0, e.arithErrorf(n, "increment/decrement requires a variable operand")
		}
		old := e.arithVarValue(v.Name)
		delta := int64(1)
		if n.Op == ast.ArithPreDec || n.Op == ast.ArithPostDec {
			delta = -1
		}
		e.env.Set(v.Name, strconv.FormatInt(old+delta, 10))
		if n.Op == ast.ArithPreInc || n.Op == ast.ArithPreDec {
			return old + delta, nil
		}
		return old, nil
	}
	v, err := e.evalArith(n.Operand)
	if err != nil {
		return 0, err
	}
	switch n.Op {
	case ast.ArithNeg:
		return -v, nil
	case ast.ArithPos:
		return v, nil
	case ast.ArithNot:
		return boolToInt(v == 0), nil
	case ast.ArithBitNot:
		return ^v, nil
	default:
		return 0, e.arithErrorf(n, "unsupported unary operator")
	}
}

func (e *evaluator) evalArithBinary(n *ast.ArithBinary) (int64, error) {
	if n.Op == ast.ArithLogAnd {
		l, err := e.evalArith(n.L)
		if err != nil {
			return 0, err
		}
		if l == 0 {
			return 0, nil
		}
		r, err := e.evalArith(n.R)
		if err != nil {
			return 0, err
		}
		return boolToInt(r != 0), nil
	}
	if n.Op == ast.ArithLogOr {
		l, err := e.evalArith(n.L)
		if err != nil {
			return 0, err
		}
		if l != 0 {
			return 1, nil
		}
		r, err := e.evalArith(n.R)
		if err != nil {
			return 0, err
		}
		return boolToInt(r != 0), nil
	}
	l, err := e.evalArith(n.L)
	if err != nil {
		return 0, err
	}
	r, err := e.evalArith(n.R)
	if err != nil {
		return 0, err
	}
	switch n.Op {
	case ast.ArithAdd:
		return l + r, nil
	case ast.ArithSubOp:
		return l - r, nil
	case ast.ArithMul:
		return l * r, nil
	case ast.ArithDiv:
		if r == 0 {
			return 0, e.arithErrorf(n, "division by zero")
		}
		return l / r, nil
	case ast.ArithMod:
		if r == 0 {
			return 0, e.arithErrorf(n, "division by zero")
		}
		return l % r, nil
	case ast.ArithPow:
		return intPow(l, r), nil
	case ast.ArithBitOr:
		return l | r, nil
	case ast.ArithBitXor:
		return l ^ r, nil
	case ast.ArithBitAnd:
		return l & r, nil
	case ast.ArithShl:
		return l << uint64(r), nil
	case ast.ArithShr:
		return l >> uint64(r), nil
	case ast.ArithLt:
		return boolToInt(l < r), nil
	case ast.ArithLe:
		return boolToInt(l <= r), nil
	case ast.ArithGt:
		return boolToInt(l > r), nil
	case ast.ArithGe:
		return boolToInt(l >= r), nil
	case ast.ArithEq:
		return boolToInt(l == r), nil
	case ast.ArithNe:
		return boolToInt(l != r), nil
	case ast.ArithComma:
		return r, nil
	default:
		return 0, e.arithErrorf(n, "unsupported binary operator")
	}
}

func (e *evaluator) evalArithAssign(n *ast.ArithAssign) (int64, error) {
	rhs, err := e.evalArith(n.RHS)
	if err != nil {
		return 0, err
	}
	var result int64
	switch n.Op {
	case ast.ArithAssignEq:
		result = rhs
	default:
		cur := e.arithVarValue(n.LValue.Name)
		switch n.Op {
		case ast.ArithAssignAdd:
			result = cur + rhs
		case ast.ArithAssignSub:
			result = cur - rhs
		case ast.ArithAssignMul:
			result = cur * rhs
		case ast.ArithAssignDiv:
			if rhs == 0 {
				return 0, e.arithErrorf(n, "division by zero")
			}
			result = cur / rhs
		case ast.ArithAssignMod:
			if rhs == 0 {
				return 0, e.arithErrorf(n, "division by zero")
			}
			result = cur % rhs
		case ast.ArithAssignAnd:
			result = cur & rhs
		case ast.ArithAssignOr:
			result = cur | rhs
		case ast.ArithAssignXor:
			result = cur ^ rhs
		case ast.ArithAssignShl:
			result = cur << uint64(rhs)
		case ast.ArithAssignShr:
			result = cur >> uint64(rhs)
		default:
			return 0, e.arithErrorf(n, "unsupported assignment operator")
		}
	}
	e.env.Set(n.LValue.Name, strconv.FormatInt(result, 10))
	return result, nil
}

// evalArithFuncCall supports the small builtin set abs/min/max; any other
// name is the "undefined function" ArithError §7 names.
func (e *evaluator) evalArithFuncCall(n *ast.ArithFuncCall) (int64, error) {
	args := make([]int64, len(n.Args))
	for i, a := range n.Args {
		v, err := e.evalArith(a)
		if err != nil {
			return 0, err
		}
		args[i] = v
	}
	switch n.Name {
	case "abs":
		if len(args) != 1 {
			return 0, e.arithErrorf(n, "abs() takes exactly one argument")
		}
		if args[0] < 0 {
			return -args[0], nil
		}
		return args[0], nil
	case "min":
		if len(args) == 0 {
			return 0, e.arithErrorf(n, "min() takes at least one argument")
		}
		m := args[0]
		for _, v := range args[1:] {
			if v < m {
				m = v
			}
		}
		return m, nil
	case "max":
		if len(args) == 0 {
			return 0, e.arithErrorf(n, "max() takes at least one argument")
		}
		m := args[0]
		for _, v := range args[1:] {
			if v > m {
				m = v
			}
		}
		return m, nil
	default:
		return 0, e.arithErrorf(n, "undefined function %q", n.Name)
	}
}

func intPow(base, exp int64) int64 {
	if exp < 0 {
		return 0
	}
	var result int64 = 1
	for ; exp > 0; exp-- {
		result *= base
	}
	return result
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func (e *evaluator) arithErrorf(n ast.Node, format string, args ...any) error {
	return diag.New(diag.ArithError, e.a, n.Start(), format, args...)
}
