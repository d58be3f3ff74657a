package ast

import (
	"posh.sh/pkg/arena"
	"posh.sh/pkg/token"
)

// Token is the AST's view of a single lexeme: the Id registry value, its
// literal text, and the span it came from. Tokens are leaves; they own no
// children.
type Token struct {
	Base
	Id token.Id
}

// NewToken builds a leaf Token whose source text is exactly value and whose
// span is a single-point-to-single-point range over one lexeme.
func NewToken(id token.Id, value string, span arena.Span) Token {
	t := Token{Id: id}
	t.Init(value, span, span)
	return t
}

func (Token) isNode() {}
