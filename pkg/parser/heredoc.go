package parser

import (
	"strings"

	"posh.sh/pkg/arena"
	"posh.sh/pkg/ast"
	"posh.sh/pkg/lex"
	"posh.sh/pkg/token"
)

// fillHeredocs backfills every here-doc node whose delimiter line has just
// been read off the source, per the lexer driver's scheduling contract in
// §4.D: this is called right after the command parser consumes the
// NEWLINE that ends the line the openers appeared on.
func (p *Parser) fillHeredocs(pending []*lex.PendingHeredoc) error {
	for _, ph := range pending {
		var body *ast.CompoundWord
		var err error
		if ph.Quoted {
			body = p.buildLiteralHeredocBody(ph)
		} else {
			body, err = p.buildExpandingHeredocBody(ph)
			if err != nil {
				return err
			}
		}
		ph.Node.Fill(body)
	}
	return nil
}

// splitHeredocLines splits a DrainHeredocs body (newline-joined, with a
// trailing newline if it held any lines at all) back into its lines,
// keeping the trailing newline as part of the reconstructed text rather
// than losing it, since Base.Text must reproduce the body byte-for-byte.
func splitHeredocLines(body string) []string {
	if body == "" {
		return nil
	}
	trimmed := strings.TrimSuffix(body, "\n")
	return strings.Split(trimmed, "\n")
}

// buildLiteralHeredocBody handles a quoted-delimiter here-doc: no
// expansion, so the body becomes one SingleQuoted word_part with one Token
// per source line, each recorded as a fresh line in the shared arena (the
// mechanism SingleQuoted.Tokens exists for, per its doc comment).
func (p *Parser) buildLiteralHeredocBody(ph *lex.PendingHeredoc) *ast.CompoundWord {
	lines := splitHeredocLines(ph.Body)
	var toks []ast.Token
	for i, line := range lines {
		text := line
		if i < len(lines)-1 || strings.HasSuffix(ph.Body, "\n") {
			text = line + "\n"
		}
		id := p.a.AddLine(line)
		sp := arena.Span{Line: id, Col: 0, Length: len(line)}
		toks = append(toks, ast.NewToken(token.SQuoteBody, text, sp))
	}
	var begin, final arena.Span
	if len(toks) > 0 {
		begin, final = toks[0].Start(), toks[len(toks)-1].End()
	}
	sq := &ast.SingleQuoted{Tokens: toks, Value: ph.Body}
	sq.Init(ph.Body, begin, final)
	cw := &ast.CompoundWord{Parts: []ast.WordPart{sq}}
	cw.Init(ph.Body, begin, final)
	return cw
}

// buildExpandingHeredocBody handles an unquoted-delimiter here-doc: the
// body is re-lexed in HEREDOC_BODY mode (which keeps $, `, and backslash
// special but treats quote characters as ordinary text) through a fresh
// Parser over just the body text. That sub-parser's arena is distinct from
// the enclosing parse's; only Base.Text, which is an exact slice of source
// text independent of any arena, is relied on for the round-trip invariant
// (see DESIGN.md).
func (p *Parser) buildExpandingHeredocBody(ph *lex.PendingHeredoc) (*ast.CompoundWord, error) {
	sub := New(p.a.Name+" (here-doc)", ph.Body)
	sub.d.PushMode(lex.ModeHeredocBody)
	var parts []ast.WordPart
	for {
		t, err := sub.peek()
		if err != nil {
			return nil, sub.wrapLexErr(err)
		}
		if t.Id == token.EOF {
			break
		}
		part, err := sub.parseHeredocPart()
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	var begin, final arena.Span
	if len(parts) > 0 {
		begin, final = parts[0].Start(), parts[len(parts)-1].End()
	}
	cw := &ast.CompoundWord{Parts: parts}
	cw.Init(ph.Body, begin, final)
	return cw, nil
}

// parseHeredocPart parses one word_part while in HEREDOC_BODY mode: like
// parseDQPart, but a Newline token becomes a literal "\n" instead of
// ending anything, since a here-doc body has no closing quote of its own.
func (p *Parser) parseHeredocPart() (ast.WordPart, error) {
	t, err := p.peek()
	if err != nil {
		return nil, p.wrapLexErr(err)
	}
	switch t.Id {
	case token.Newline:
		p.next()
		lit := &ast.Literal{Tok: ast.NewToken(token.Lit, "\n", t.Span(p.a))}
		lit.Init("\n", t.Span(p.a), t.Span(p.a))
		return lit, nil
	case token.LineCont:
		p.next()
		return p.parseHeredocPart()
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
		p.next()
		lit := &ast.Literal{Tok: ast.NewToken(token.Lit, t.Raw(p.d.Scanner.Src), t.Span(p.a))}
		lit.Init(t.Raw(p.d.Scanner.Src), t.Span(p.a), t.Span(p.a))
		return lit, nil
	}
}
