package ast

import "posh.sh/pkg/token"

// Redir is the closed union of redirection nodes: an ordinary fd
// redirection, or a here-doc (whose body is filled in later by the lexer
// driver once the delimiter line has been read).
type Redir interface {
	Node
	isRedir()
}

// RedirectOp identifies an ordinary redirection operator.
type RedirectOp token.Id // one of token.Less, Great, DGreat, LessAnd, GreatAnd, LessGreat, Clobber

// Redirect is `[fd]op word`, e.g. `2>&1` or `3< file`.
type Redirect struct {
	Base
	Op  RedirectOp
	Arg Word
	Fd  int // -1 if no explicit fd was given; POSIX default depends on Op
}

func (Redirect) isNode()  {}
func (Redirect) isRedir() {}

// HereDoc is `[fd]<<[-] delim` together with its eventually-collected body.
// ArgWord is nil immediately after the opener is parsed and becomes
// non-nil once the lexer driver has consumed the delimiter line, at which
// point WasFilled flips to true (invariant 4 of the data model). This is
// the one place in the AST where a node's field is written after initial
// construction; ownership stays with the arena/driver, the HereDoc node
// itself is just the stable handle that parsing already committed to.
type HereDoc struct {
	Base
	Op          token.Id // token.DLess or token.DLessDash
	Fd          int
	DoExpansion bool // false if the delimiter was quoted
	HereEnd     string
	ArgWord     *CompoundWord
	WasFilled   bool
}

func (HereDoc) isNode()  {}
func (HereDoc) isRedir() {}

// Fill backfills a here-doc's body once the driver has collected it. It is
// the only mutation permitted on an otherwise-immutable AST node.
func (h *HereDoc) Fill(body *CompoundWord) {
	h.ArgWord = body
	h.WasFilled = true
}
