package parser

import (
	"posh.sh/pkg/ast"
	"posh.sh/pkg/diag"
	"posh.sh/pkg/lex"
	"posh.sh/pkg/token"
)

// parseBoolExpr parses the body of `[[ ... ]]`: a recursive-descent
// expression grammar over unary/binary file and string tests combined
// with !, &&, ||, and parentheses, matching the precedence bash gives
// `[[ ]]` (&& binds tighter than ||, ! binds tightest of the connectives).
func (p *Parser) parseBoolExpr() (ast.BoolExpr, error) {
	return p.parseBoolOr()
}

func (p *Parser) parseBoolOr() (ast.BoolExpr, error) {
	start := p.mark()
	left, err := p.parseBoolAnd()
	if err != nil {
		return nil, err
	}
	for {
		if err := p.skipBlanks(); err != nil {
			return nil, err
		}
		t, err := p.peek()
		if err != nil {
			return nil, p.wrapLexErr(err)
		}
		if t.Id != token.OrIf {
			break
		}
		p.next()
		right, err := p.parseBoolAnd()
		if err != nil {
			return nil, err
		}
		or := &ast.Or{L: left, R: right}
		or.Init(p.sourceTextSince(start), left.Start(), right.End())
		left = or
	}
	return left, nil
}

func (p *Parser) parseBoolAnd() (ast.BoolExpr, error) {
	start := p.mark()
	left, err := p.parseBoolNot()
	if err != nil {
		return nil, err
	}
	for {
		if err := p.skipBlanks(); err != nil {
			return nil, err
		}
		t, err := p.peek()
		if err != nil {
			return nil, p.wrapLexErr(err)
		}
		if t.Id != token.AndIf {
			break
		}
		p.next()
		right, err := p.parseBoolNot()
		if err != nil {
			return nil, err
		}
		and := &ast.And{L: left, R: right}
		and.Init(p.sourceTextSince(start), left.Start(), right.End())
		left = and
	}
	return left, nil
}

func (p *Parser) parseBoolNot() (ast.BoolExpr, error) {
	if err := p.skipBlanks(); err != nil {
		return nil, err
	}
	start := p.mark()
	t, err := p.peek()
	if err != nil {
		return nil, p.wrapLexErr(err)
	}
	if t.Id == token.Bang {
		p.next()
		operand, err := p.parseBoolNot()
		if err != nil {
			return nil, err
		}
		n := &ast.Not{Operand: operand}
		n.Init(p.sourceTextSince(start), t.Span(p.a), operand.End())
		return n, nil
	}
	return p.parseBoolPrimary()
}

// parseBoolPrimary handles a parenthesized sub-expression, a unary test
// (`-f word`), or falls through to parseBoolComparison for the
// word/binary-test forms, since both start with an ordinary word and can
// only be disambiguated once the word (or a binary operator) after it is
// seen.
func (p *Parser) parseBoolPrimary() (ast.BoolExpr, error) {
	if err := p.skipBlanks(); err != nil {
		return nil, err
	}
	start := p.mark()
	t, err := p.peek()
	if err != nil {
		return nil, p.wrapLexErr(err)
	}
	if t.Id == token.LParen {
		p.next()
		inner, err := p.parseBoolOr()
		if err != nil {
			return nil, err
		}
		if err := p.skipBlanks(); err != nil {
			return nil, err
		}
		closeTok, err := p.next()
		if err != nil {
			return nil, p.wrapLexErr(err)
		}
		if closeTok.Id != token.RParen {
			return nil, p.errorAt(diag.ParseError, closeTok, "expected ')' in [[ ]] expression")
		}
		paren := &ast.Paren{Inner: inner}
		paren.Init(p.sourceTextSince(start), t.Span(p.a), closeTok.Span(p.a))
		return paren, nil
	}
	if t.Id == token.UnaryTest {
		p.next()
		if err := p.skipBlanks(); err != nil {
			return nil, err
		}
		operand, err := p.parseWord()
		if err != nil {
			return nil, err
		}
		if operand == nil {
			return nil, p.errorAt(diag.ParseError, t, "%q requires an operand", t.Raw(p.d.Scanner.Src))
		}
		u := &ast.BoolUnary{Op: ast.UnaryTestOp(t.Value), Operand: operand}
		u.Init(p.sourceTextSince(start), t.Span(p.a), operand.End())
		return u, nil
	}
	return p.parseBoolComparison()
}

// parseBoolComparison parses `word [binop word]`, producing a BoolBinary
// when a binary test operator follows and a bare WordTest otherwise.
func (p *Parser) parseBoolComparison() (ast.BoolExpr, error) {
	start := p.mark()
	left, err := p.parseWord()
	if err != nil {
		return nil, err
	}
	if left == nil {
		t, _ := p.peek()
		return nil, p.errorAt(diag.ParseError, t, "expected a word in [[ ]] expression")
	}
	if err := p.skipBlanks(); err != nil {
		return nil, err
	}
	t, err := p.peek()
	if err != nil {
		return nil, p.wrapLexErr(err)
	}
	op, isMatch, ok := boolBinaryOpFor(t)
	if !ok {
		wt := &ast.WordTest{Operand: left}
		wt.Init(p.sourceTextSince(start), left.Start(), left.End())
		return wt, nil
	}
	p.next()
	if err := p.skipBlanks(); err != nil {
		return nil, err
	}
	if isMatch {
		p.d.PushMode(lex.ModeBashRegex)
	}
	right, err := p.parseWord()
	if isMatch {
		p.d.PopMode()
	}
	if err != nil {
		return nil, err
	}
	if right == nil {
		return nil, p.errorAt(diag.ParseError, t, "%q requires a right-hand operand", t.Raw(p.d.Scanner.Src))
	}
	bin := &ast.BoolBinary{Op: op, L: left, R: right}
	bin.Init(p.sourceTextSince(start), left.Start(), right.End())
	return bin, nil
}

func boolBinaryOpFor(t lex.Tok) (ast.BinaryTestOp, bool, bool) {
	switch t.Id {
	case token.BoolEq:
		return ast.TestStrEq, false, true
	case token.BoolEqEq:
		return ast.TestStrEqEq, false, true
	case token.BoolNe:
		return ast.TestStrNe, false, true
	case token.BoolLt:
		return ast.TestStrLt, false, true
	case token.BoolGt:
		return ast.TestStrGt, false, true
	case token.BoolMatch:
		return ast.TestMatch, true, true
	case token.BinaryTest:
		switch t.Value {
		case "-eq":
			return ast.TestNumEq, false, true
		case "-ne":
			return ast.TestNumNe, false, true
		case "-lt":
			return ast.TestNumLt, false, true
		case "-le":
			return ast.TestNumLe, false, true
		case "-gt":
			return ast.TestNumGt, false, true
		case "-ge":
			return ast.TestNumGe, false, true
		}
	}
	return "", false, false
}
