// Package parser implements the word parser, the arithmetic and boolean
// expression parsers, and the command parser (components E, F, and G):
// together they turn a token stream from pkg/lex into the typed AST
// defined in pkg/ast.
//
// Following the error-handling design in §7, a Parser produces at most one
// error per Parse call (fail-fast); every recursive parse method returns
// an error immediately once one has occurred so that the first diagnostic
// is never masked by a cascade of follow-on complaints. Recovery, if a
// caller wants it, is its own concern: resync to the next NEWLINE at mode
// depth 0 and call Parse again on the remainder.
package parser

import (
	"posh.sh/pkg/arena"
	"posh.sh/pkg/ast"
	"posh.sh/pkg/diag"
	"posh.sh/pkg/lex"
	"posh.sh/pkg/token"
)

// Parser holds the mutable state of one parse: the lexer driver beneath
// it, and the single error (if any) produced so far.
type Parser struct {
	d   *lex.Driver
	a   *arena.Arena
	err *diag.Error
}

// New creates a Parser over source text named name (used in diagnostics).
func New(name, src string) *Parser {
	d := lex.NewDriver(name, src)
	return &Parser{d: d, a: d.Arena()}
}

// Arena returns the arena backing the source this Parser was built from;
// every AST node it produces has spans into this same arena.
func (p *Parser) Arena() *arena.Arena { return p.a }

// Result is what a successful Parse call returns: the AST root plus the
// arena that owns its spans, matching §6's "a command AST rooted at a List
// of top-level commands plus the arena."
type Result struct {
	Root  *ast.List
	Arena *arena.Arena
}

// Parse parses the entire source as a top-level command_list and returns
// the AST root. On error it returns the single diag.Error produced.
func (p *Parser) Parse() (*Result, error) {
	root, err := p.parseCommandList(stopSet(nil, nil))
	if err != nil {
		return nil, err
	}
	tok, err := p.d.Peek()
	if err != nil {
		return nil, p.wrapLexErr(err)
	}
	if tok.Id != token.EOF {
		return nil, p.errorAt(diag.ParseError, tok, "unexpected token %q", tok.Raw(p.d.Scanner.Src))
	}
	return &Result{Root: root, Arena: p.a}, nil
}

func (p *Parser) wrapLexErr(err error) error {
	if de, ok := err.(*diag.Error); ok {
		return de
	}
	return diag.New(diag.LexError, p.a, p.a.SpanAt(p.d.Scanner.Pos, 0), "%v", err)
}

// errorAt builds a ParseError-kind diagnostic anchored at tok's span.
func (p *Parser) errorAt(kind diag.Kind, tok lex.Tok, msg string, args ...any) error {
	return diag.New(kind, p.a, tok.Span(p.a), msg, args...)
}

// checkpoint/restore thin wrappers keep callers in the parser package from
// reaching into lex.Driver directly, matching the layering in §4.D.
type checkpoint struct{ c lex.Checkpoint }

func (p *Parser) mark() checkpoint       { return checkpoint{p.d.Mark()} }
func (p *Parser) restore(c checkpoint)   { p.d.Reset(c.c) }

func (p *Parser) peek() (lex.Tok, error) { return p.d.Peek() }
func (p *Parser) next() (lex.Tok, error) { return p.d.Next() }

// sourceTextSince returns the exact source bytes from a checkpoint's
// position to the driver's current position, used to fill Base.Text for
// every node (the mechanism behind the byte-for-byte round trip).
func (p *Parser) sourceTextSince(c checkpoint) string {
	return p.d.Scanner.Src[c.c.Pos():p.d.Scanner.Pos]
}
