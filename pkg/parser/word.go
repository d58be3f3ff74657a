package parser

import (
	"strings"

	"posh.sh/pkg/ast"
	"posh.sh/pkg/diag"
	"posh.sh/pkg/lex"
	"posh.sh/pkg/token"
)

// isBlankTok reports whether tok is the blank-run sentinel the Scanner
// hands back for a run of spaces/tabs in OUTER/BASH_REGEX mode: its Id is
// Lit but its decoded Value is fixed at " " regardless of how many blank
// bytes were actually consumed, since a real literal run never contains
// one (literalStopOuter stops at the first blank byte).
func isBlankTok(t lex.Tok) bool { return t.Id == token.Lit && t.Value == " " }

// wordBoundary reports whether tok's Id can never start or continue a
// word_part, meaning the current word (if any) is finished.
func wordBoundary(t lex.Tok) bool {
	if isBlankTok(t) {
		return true
	}
	switch t.Id {
	case token.Newline, token.EOF, token.LineCont,
		token.Pipe, token.PipeAmp, token.AndIf, token.OrIf, token.Amp,
		token.Semi, token.DSemi, token.SemiAmp, token.DSemiAmp,
		token.LBrace, token.RBrace, token.Bang, token.LDBracket, token.RDBracket,
		token.Less, token.Great, token.DLess, token.DLessDash, token.DGreat,
		token.LessAnd, token.GreatAnd, token.LessGreat, token.Clobber,
		token.LParen, token.RParen, token.Comment,
		token.BoolEq, token.BoolEqEq, token.BoolNe, token.BoolLt, token.BoolGt,
		token.BoolMatch, token.UnaryTest, token.BinaryTest:
		return true
	}
	return false
}

// parseWord parses a single word: a non-empty run of word_parts with no
// intervening blank. Returns nil, nil if the next token is a word
// boundary (i.e. there is no word here at all) rather than an error;
// callers that require a word check for a nil result themselves.
func (p *Parser) parseWord() (ast.Word, error) {
	start := p.mark()
	var parts []ast.WordPart
	first := true
	for {
		t, err := p.peek()
		if err != nil {
			return nil, p.wrapLexErr(err)
		}
		if wordBoundary(t) {
			break
		}
		if t.Id == token.Tilde && !first {
			// A '~' that is not at word start is ordinary text; the Scanner
			// only emits Tilde when atTokenStart was true, so reaching here
			// with first==false cannot happen in practice, but the check is
			// kept for robustness against future Scanner changes.
			break
		}
		part, err := p.parseWordPart()
		if err != nil {
			return nil, err
		}
		if part == nil {
			break
		}
		parts = append(parts, part)
		first = false
	}
	if len(parts) == 0 {
		p.restore(start)
		return nil, nil
	}
	w := &ast.CompoundWord{Parts: parts}
	w.Init(p.sourceTextSince(start), parts[0].Start(), parts[len(parts)-1].End())
	return w, nil
}

// parseWordPart dispatches on the next token's Id. Returning a nil
// WordPart with a nil error means "not a word part"; the caller treats
// that as the end of the enclosing word.
func (p *Parser) parseWordPart() (ast.WordPart, error) {
	t, err := p.peek()
	if err != nil {
		return nil, p.wrapLexErr(err)
	}
	switch t.Id {
	case token.Lit:
		p.next()
		lit := &ast.Literal{Tok: ast.NewToken(token.Lit, t.Value, t.Span(p.a))}
		lit.Init(t.Raw(p.d.Scanner.Src), t.Span(p.a), t.Span(p.a))
		return lit, nil
	case token.EscapedLit:
		p.next()
		var r rune
		if t.Value != "" {
			r = []rune(t.Value)[0]
		}
		el := &ast.EscapedLiteral{Char: r}
		el.Init(t.Raw(p.d.Scanner.Src), t.Span(p.a), t.Span(p.a))
		return el, nil
	case token.SQuoteOpen:
		return p.parseSingleQuoted()
	case token.DQuoteOpen:
		return p.parseDoubleQuoted(false)
	case token.Dollar:
		return p.parseSimpleVarSub()
	case token.DollarLBrace:
		return p.parseBracedVarSub(false)
	case token.DollarLParen:
		return p.parseCommandSub()
	case token.DollarDLParen:
		return p.parseArithSub()
	case token.Backtick:
		return p.parseBacktickSub()
	case token.Tilde:
		return p.parseTildeSub()
	default:
		return nil, nil
	}
}

// parseSingleQuoted consumes '...'; per the open-question decision
// recorded in DESIGN.md an unterminated quote is tolerated and its text is
// taken literally to end of input rather than erroring.
func (p *Parser) parseSingleQuoted() (ast.WordPart, error) {
	start := p.mark()
	open, _ := p.next() // SQuoteOpen
	p.d.PushMode(lex.ModeSQ)
	body, err := p.next()
	if err != nil {
		return nil, p.wrapLexErr(err)
	}
	p.d.PopMode()
	closeTok, err := p.peek()
	if err != nil {
		return nil, p.wrapLexErr(err)
	}
	if closeTok.Id == token.SQuoteOpen {
		p.next()
	} else {
		// Ran out of input: tolerate it, per the open question.
	}
	sq := &ast.SingleQuoted{
		Tokens: []ast.Token{ast.NewToken(token.SQuoteBody, body.Value, body.Span(p.a))},
		Value:  body.Value,
	}
	final := body.Span(p.a)
	if closeTok.Id == token.SQuoteOpen {
		final = closeTok.Span(p.a)
	}
	sq.Init(p.sourceTextSince(start), open.Span(p.a), final)
	return sq, nil
}

// parseDoubleQuoted consumes "..." (or, when argInVS is true, the argument
// context of a ${...} operator that already sits inside double quotes; in
// that case the caller has already pushed VS_ARG_DQ and this just loops
// until RBrace rather than DQuoteClose).
func (p *Parser) parseDoubleQuoted(nested bool) (ast.WordPart, error) {
	start := p.mark()
	open, err := p.next() // DQuoteOpen
	if err != nil {
		return nil, p.wrapLexErr(err)
	}
	p.d.PushMode(lex.ModeDQ)
	var parts []ast.WordPart
	for {
		t, err := p.peek()
		if err != nil {
			p.d.PopMode()
			return nil, p.wrapLexErr(err)
		}
		if t.Id == token.DQuoteClose {
			p.next()
			break
		}
		if t.Id == token.EOF {
			p.d.PopMode()
			return nil, p.errorAt(diag.ParseError, t, "unterminated double-quoted string")
		}
		part, err := p.parseDQPart()
		if err != nil {
			p.d.PopMode()
			return nil, err
		}
		parts = append(parts, part)
	}
	p.d.PopMode()
	dq := &ast.DoubleQuoted{Parts: parts}
	final := open.Span(p.a)
	if len(parts) > 0 {
		final = parts[len(parts)-1].End()
	}
	_ = nested
	dq.Init(p.sourceTextSince(start), open.Span(p.a), final)
	return dq, nil
}

// parseDQPart parses one word_part while inside DQ mode: literal text,
// escapes, and the substitution forms, but never quote opens (those are
// not special inside "...").
func (p *Parser) parseDQPart() (ast.WordPart, error) {
	t, err := p.peek()
	if err != nil {
		return nil, p.wrapLexErr(err)
	}
	switch t.Id {
	case token.Lit:
		p.next()
		lit := &ast.Literal{Tok: ast.NewToken(token.Lit, t.Value, t.Span(p.a))}
		lit.Init(t.Raw(p.d.Scanner.Src), t.Span(p.a), t.Span(p.a))
		return lit, nil
	case token.LineCont:
		p.next()
		return p.parseDQPart()
	case token.EscapedLit:
		p.next()
		var r rune
		if t.Value != "" {
			r = []rune(t.Value)[0]
		}
		el := &ast.EscapedLiteral{Char: r}
		el.Init(t.Raw(p.d.Scanner.Src), t.Span(p.a), t.Span(p.a))
		return el, nil
	case token.Dollar:
		return p.parseSimpleVarSub()
	case token.DollarLBrace:
		return p.parseBracedVarSub(true)
	case token.DollarLParen:
		return p.parseCommandSub()
	case token.DollarDLParen:
		return p.parseArithSub()
	case token.Backtick:
		return p.parseBacktickSub()
	default:
		return nil, p.errorAt(diag.ParseError, t, "unexpected token %q inside double quotes", t.Raw(p.d.Scanner.Src))
	}
}

// parseSimpleVarSub handles the unbraced $name / $1 / $@ / ... form.
func (p *Parser) parseSimpleVarSub() (ast.WordPart, error) {
	start := p.mark()
	dollar, err := p.next() // Dollar
	if err != nil {
		return nil, p.wrapLexErr(err)
	}
	p.d.PushMode(lex.ModeVS1)
	nameTok, err := p.next()
	p.d.PopMode()
	if err != nil {
		return nil, p.wrapLexErr(err)
	}
	if nameTok.Id != token.Name {
		// A bare '$' with nothing recognizable after it is just a literal
		// dollar sign (POSIX: only expand when followed by a valid name).
		lit := &ast.Literal{Tok: ast.NewToken(token.Lit, "$", dollar.Span(p.a))}
		lit.Init("$", dollar.Span(p.a), dollar.Span(p.a))
		p.restore(start)
		p.next() // re-consume just the '$'
		return lit, nil
	}
	sv := &ast.SimpleVarSub{Name: nameTok.Value}
	sv.Init(p.sourceTextSince(start), dollar.Span(p.a), nameTok.Span(p.a))
	return sv, nil
}

// vsOpFor maps the suffix-operator token produced by ScanVS2 to the ast.VsOp
// enum; RBrace (no suffix) maps to VsNone.
func vsOpFor(id token.Id) ast.VsOp {
	switch id {
	case token.VsMinus:
		return ast.VsMinus
	case token.VsMinusEq:
		return ast.VsMinusEq
	case token.VsAssign:
		return ast.VsAssign
	case token.VsAssignEq:
		return ast.VsAssignEq
	case token.VsQuestion:
		return ast.VsQuestion
	case token.VsQuestionEq:
		return ast.VsQuestionEq
	case token.VsPlus:
		return ast.VsPlus
	case token.VsPlusEq:
		return ast.VsPlusEq
	case token.VsTrimMin:
		return ast.VsTrimMin
	case token.VsTrimMinMin:
		return ast.VsTrimMinMin
	case token.VsTrimMax:
		return ast.VsTrimMax
	case token.VsTrimMaxMax:
		return ast.VsTrimMaxMax
	case token.VsSlash:
		return ast.VsReplaceOne
	case token.VsSlashSlash:
		return ast.VsReplaceAll
	case token.VsColon:
		return ast.VsSlice
	default:
		return ast.VsNone
	}
}

// parseBracedVarSub handles ${...}. inDQ propagates the quote-context rule
// (§4.E/§4.H): when true, an embedded "'...'" in the operator argument is
// ordinary text rather than a real single-quote.
func (p *Parser) parseBracedVarSub(inDQ bool) (ast.WordPart, error) {
	start := p.mark()
	open, err := p.next() // DollarLBrace
	if err != nil {
		return nil, p.wrapLexErr(err)
	}
	p.d.PushMode(lex.ModeVS1)
	t, err := p.next()
	if err != nil {
		p.d.PopMode()
		return nil, p.wrapLexErr(err)
	}
	bv := &ast.BracedVarSub{ArgInDQ: inDQ}
	if t.Id == token.Bang {
		bv.Indirect = true
		t2, err := p.next()
		if err != nil {
			p.d.PopMode()
			return nil, p.wrapLexErr(err)
		}
		t = t2
	}
	if t.Id == token.VsLength {
		bv.PrefixOp = ast.VsLength
		nameTok, err := p.next()
		if err != nil {
			p.d.PopMode()
			return nil, p.wrapLexErr(err)
		}
		t = nameTok
	}
	if t.Id != token.Name {
		p.d.PopMode()
		return nil, p.errorAt(diag.ParseError, t, "expected parameter name in ${...}, found %q", t.Raw(p.d.Scanner.Src))
	}
	bv.Name = t.Value
	p.d.PopMode()

	p.d.PushMode(lex.ModeVS2)
	opTok, err := p.next()
	p.d.PopMode()
	if err != nil {
		return nil, p.wrapLexErr(err)
	}
	var final = opTok.Span(p.a)
	switch opTok.Id {
	case token.RBrace:
		// no suffix operator
	case token.VsColon:
		// ${name:off[:len]} slice form
		bv.SuffixOp = ast.VsSlice
		argMode := lex.ModeVSArgUnq
		if inDQ {
			argMode = lex.ModeVSArgDQ
		}
		p.d.PushMode(argMode)
		off, err := p.parseVSArgWord()
		if err != nil {
			p.d.PopMode()
			return nil, err
		}
		bv.SliceOff = off
		sep, err := p.peek()
		if err != nil {
			p.d.PopMode()
			return nil, p.wrapLexErr(err)
		}
		if sep.Id == token.VsColon {
			p.next()
			length, err := p.parseVSArgWord()
			if err != nil {
				p.d.PopMode()
				return nil, err
			}
			bv.SliceLen = length
		}
		closeTok, err := p.next()
		p.d.PopMode()
		if err != nil {
			return nil, p.wrapLexErr(err)
		}
		if closeTok.Id != token.RBrace {
			return nil, p.errorAt(diag.ParseError, closeTok, "expected '}' closing ${...}")
		}
		final = closeTok.Span(p.a)
	default:
		bv.SuffixOp = vsOpFor(opTok.Id)
		argMode := lex.ModeVSArgUnq
		if inDQ {
			argMode = lex.ModeVSArgDQ
		}
		p.d.PushMode(argMode)
		arg, err := p.parseVSArgWordPart()
		if err != nil {
			p.d.PopMode()
			return nil, err
		}
		bv.Arg = arg
		closeTok, err := p.next()
		p.d.PopMode()
		if err != nil {
			return nil, p.wrapLexErr(err)
		}
		if closeTok.Id != token.RBrace {
			return nil, p.errorAt(diag.ParseError, closeTok, "expected '}' closing ${...}")
		}
		final = closeTok.Span(p.a)
	}
	bv.Init(p.sourceTextSince(start), open.Span(p.a), final)
	return bv, nil
}

// parseVSArgWordPart parses a single word_part of a ${...} suffix
// operator's argument (used for the common, non-slice operators, whose
// argument is itself just a WordPart per the data model).
func (p *Parser) parseVSArgWordPart() (ast.WordPart, error) {
	var parts []ast.WordPart
	start := p.mark()
	for {
		t, err := p.peek()
		if err != nil {
			return nil, p.wrapLexErr(err)
		}
		if t.Id == token.RBrace || t.Id == token.VsColon || t.Id == token.EOF {
			break
		}
		part, err := p.parseVSArgPart()
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	if len(parts) == 0 {
		return nil, nil
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	cw := &ast.Seq{Parts: parts}
	cw.Init(p.sourceTextSince(start), parts[0].Start(), parts[len(parts)-1].End())
	return cw, nil
}

// parseVSArgWord is like parseVSArgWordPart but used for the slice-form
// offset/length sub-expressions, which the data model also types as
// WordPart (an arithmetic-looking expression embedded textually).
func (p *Parser) parseVSArgWord() (ast.WordPart, error) {
	return p.parseVSArgWordPart()
}

// parseVSArgPart parses one lexeme of a ${...} argument: literal text,
// escapes, a nested single/double quote, or a nested substitution.
func (p *Parser) parseVSArgPart() (ast.WordPart, error) {
	t, err := p.peek()
	if err != nil {
		return nil, p.wrapLexErr(err)
	}
	switch t.Id {
	case token.Lit:
		p.next()
		lit := &ast.Literal{Tok: ast.NewToken(token.Lit, t.Value, t.Span(p.a))}
		lit.Init(t.Raw(p.d.Scanner.Src), t.Span(p.a), t.Span(p.a))
		return lit, nil
	case token.EscapedLit:
		p.next()
		var r rune
		if t.Value != "" {
			r = []rune(t.Value)[0]
		}
		el := &ast.EscapedLiteral{Char: r}
		el.Init(t.Raw(p.d.Scanner.Src), t.Span(p.a), t.Span(p.a))
		return el, nil
	case token.SQuoteOpen:
		return p.parseSingleQuoted()
	case token.DQuoteOpen:
		return p.parseDoubleQuoted(true)
	case token.Dollar:
		return p.parseSimpleVarSub()
	case token.DollarLBrace:
		return p.parseBracedVarSub(false)
	case token.DollarLParen:
		return p.parseCommandSub()
	case token.DollarDLParen:
		return p.parseArithSub()
	case token.Backtick:
		return p.parseBacktickSub()
	default:
		return nil, p.errorAt(diag.ParseError, t, "unexpected token %q inside ${...}", t.Raw(p.d.Scanner.Src))
	}
}

// parseCommandSub handles $( command_list ).
func (p *Parser) parseCommandSub() (ast.WordPart, error) {
	open, err := p.next() // DollarLParen
	if err != nil {
		return nil, p.wrapLexErr(err)
	}
	p.d.PushMode(lex.ModeOuter)
	cmd, err := p.parseCommandList(stopSet([]token.Id{token.RParen}, nil))
	if err != nil {
		p.d.PopMode()
		return nil, err
	}
	closeTok, err := p.next()
	p.d.PopMode()
	if err != nil {
		return nil, p.wrapLexErr(err)
	}
	if closeTok.Id != token.RParen {
		return nil, p.errorAt(diag.ParseError, closeTok, "expected ')' closing command substitution")
	}
	// Slice both texts by token offsets: the closing ')' has already been
	// peeked when the inner list ends, so the scanner position runs past it.
	src := p.d.Scanner.Src
	cmd.Init(src[open.End:closeTok.Begin], cmd.Start(), cmd.End())
	cs := &ast.CommandSub{Command: cmd}
	cs.Init(src[open.Begin:closeTok.End], open.Span(p.a), closeTok.Span(p.a))
	return cs, nil
}

// parseBacktickSub handles `...`; legacy backtick command substitution has
// its own (simpler, backslash-only) escaping rules, but since those only
// affect how nested backticks/"$\`\\" are escaped and this implementation
// treats the body as an ordinary nested command list, the Driver just
// scans the body in OUTER mode up to the matching closing backtick.
func (p *Parser) parseBacktickSub() (ast.WordPart, error) {
	start := p.mark()
	open, err := p.next() // Backtick
	if err != nil {
		return nil, p.wrapLexErr(err)
	}
	p.d.PushMode(lex.ModeOuter)
	cmd, err := p.parseCommandList(stopSet([]token.Id{token.Backtick}, nil))
	if err != nil {
		p.d.PopMode()
		return nil, err
	}
	closeTok, err := p.next()
	p.d.PopMode()
	if err != nil {
		return nil, p.wrapLexErr(err)
	}
	if closeTok.Id != token.Backtick {
		return nil, p.errorAt(diag.ParseError, closeTok, "expected '`' closing command substitution")
	}
	cs := &ast.CommandSub{Command: cmd, Backtick: true}
	cs.Init(p.sourceTextSince(start), open.Span(p.a), closeTok.Span(p.a))
	return cs, nil
}

// parseArithSub handles $(( expr )).
func (p *Parser) parseArithSub() (ast.WordPart, error) {
	start := p.mark()
	open, err := p.next() // DollarDLParen
	if err != nil {
		return nil, p.wrapLexErr(err)
	}
	p.d.PushMode(lex.ModeArith)
	expr, err := p.parseArithExpr(0)
	if err != nil {
		p.d.PopMode()
		return nil, err
	}
	closeTok, err := p.closeDoubleParen("$(( ))")
	if err != nil {
		return nil, err
	}
	as := &ast.ArithSub{Expr: expr}
	as.Init(p.sourceTextSince(start), open.Span(p.a), closeTok.Span(p.a))
	return as, nil
}

// closeDoubleParen consumes the two ')' bytes that close a $(( )) or (( ))
// form. The caller must still have ModeArith on top of the mode stack (this
// function pops it): ScanArith hands back the first ')' as its own ArithOp
// token, so it must be read before popping back to whatever mode follows,
// which then supplies the second ')' as that mode's ordinary RParen.
func (p *Parser) closeDoubleParen(what string) (lex.Tok, error) {
	t1, err := p.next()
	if err != nil {
		p.d.PopMode()
		return lex.Tok{}, p.wrapLexErr(err)
	}
	if t1.Id != token.ArithOp || t1.Value != ")" {
		p.d.PopMode()
		return lex.Tok{}, p.errorAt(diag.ParseError, t1, "expected ')' closing %s", what)
	}
	p.d.PopMode()
	t2, err := p.next()
	if err != nil {
		return lex.Tok{}, p.wrapLexErr(err)
	}
	if t2.Id != token.RParen {
		return lex.Tok{}, p.errorAt(diag.ParseError, t2, "expected ')' closing %s", what)
	}
	return t2, nil
}

// parseTildeSub handles a leading '~' at word start, consuming the
// user-name prefix (text up to the next '/' or word boundary).
func (p *Parser) parseTildeSub() (ast.WordPart, error) {
	start := p.mark()
	tilde, err := p.next() // Tilde
	if err != nil {
		return nil, p.wrapLexErr(err)
	}
	var prefix strings.Builder
	final := tilde.Span(p.a)
	for {
		t, err := p.peek()
		if err != nil {
			return nil, p.wrapLexErr(err)
		}
		if t.Id != token.Lit || isBlankTok(t) {
			break
		}
		if idx := strings.IndexByte(t.Value, '/'); idx >= 0 {
			break
		}
		p.next()
		prefix.WriteString(t.Value)
		final = t.Span(p.a)
	}
	ts := &ast.TildeSub{Prefix: prefix.String()}
	ts.Init(p.sourceTextSince(start), tilde.Span(p.a), final)
	return ts, nil
}
