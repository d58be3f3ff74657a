package expand

import (
	"strconv"
	"strings"

	"posh.sh/pkg/ast"
)

// evalParts glues the expansion of each part in order via the field-joining
// rule (field.go's glue), starting from one empty field.
//
// dq is true while descending into a genuine DoubleQuoted node: it forces
// every substitution's result to be treated as quoted (unsplittable,
// glob-protected). argCtx is true only while evaluating the immediate
// parts of a ${...} operator's argument word: it is the one place literal
// text can carry real blanks (captured by the VS_ARG lexer modes rather
// than broken into separate words the way OUTER mode would), so it is also
// the one place a plain Literal run needs to be split-eligible (§4.H.2's
// `${unset:-a b c}` splitting into three fields).
func (e *evaluator) evalParts(parts []ast.WordPart, dq, argCtx bool) (value, error) {
	acc := value{Fields: []field{{}}}
	for i, p := range parts {
		v, err := e.evalPart(p, dq, argCtx, i == 0)
		if err != nil {
			return value{}, err
		}
		acc = glue(acc, v)
	}
	return acc, nil
}

func (e *evaluator) evalPart(part ast.WordPart, dq, argCtx, atWordStart bool) (value, error) {
	switch p := part.(type) {
	case *ast.Literal:
		return oneRun(run{Text: p.Tok.SourceText(), Quoted: dq, Split: argCtx && !dq}), nil
	case *ast.EscapedLiteral:
		return literalValue(string(p.Char), true), nil
	case *ast.SingleQuoted:
		return literalValue(p.Value, true), nil
	case *ast.DoubleQuoted:
		return e.evalParts(p.Parts, true, false)
	case *ast.Seq:
		return e.evalParts(p.Parts, dq, argCtx)
	case *ast.SimpleVarSub:
		return e.evalSimpleVarSub(p, dq)
	case *ast.BracedVarSub:
		return e.evalBracedVarSub(p, dq)
	case *ast.TildeSub:
		if !atWordStart {
			return literalValue("~"+p.Prefix, dq), nil
		}
		return e.evalTilde(p)
	case *ast.CommandSub:
		out, err := e.env.RunCommand(p.Command.SourceText())
		if err != nil {
			return value{}, diagExpandErrf(e, p, "command substitution failed: %v", err)
		}
		return substValue(strings.TrimRight(out, "\n"), dq), nil
	case *ast.ArithSub:
		n, err := e.evalArith(p.Expr)
		if err != nil {
			return value{}, err
		}
		return substValue(strconv.FormatInt(n, 10), dq), nil
	case *ast.ArrayLiteral:
		return e.evalArrayLiteral(p)
	default:
		return value{}, diagExpandErrf(e, part, "unsupported word part")
	}
}

func (e *evaluator) evalArrayLiteral(a *ast.ArrayLiteral) (value, error) {
	var fields []field
	for _, w := range a.Words {
		strs, err := e.expandWordToStrings(w)
		if err != nil {
			return value{}, err
		}
		for _, s := range strs {
			fields = append(fields, field{{Text: s, Quoted: true, Split: false}})
		}
	}
	if fields == nil {
		fields = []field{{}}
	}
	return value{Fields: fields}, nil
}
