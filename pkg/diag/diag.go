// Package diag renders diagnostics for lex, parse, arithmetic, expansion
// and glob errors in the "path:line:col: message" form, with a caret
// underline derived from the offending arena.Span.
package diag

import (
	"fmt"
	"strings"

	"golang.org/x/xerrors"
	"posh.sh/pkg/arena"
)

// Kind classifies a diagnostic, matching the internal error taxonomy from
// the error-handling design: lex, parse, arithmetic, expansion and glob
// errors are reported distinctly even though they all render the same way.
type Kind string

const (
	LexError    Kind = "lex error"
	ParseError  Kind = "parse error"
	ArithError  Kind = "arith error"
	ExpandError Kind = "expand error"
	GlobError   Kind = "glob error"
)

// Error is a diagnostic anchored to a span of source text. It implements
// error and Shower, and always wraps an underlying cause obtained with
// xerrors so that %w-style unwrapping keeps working for callers that only
// care about the Go error chain.
type Error struct {
	Kind    Kind
	Message string
	Arena   *arena.Arena
	Span    arena.Span
	// Partial marks an error caused by running out of input (e.g. an
	// unterminated quote or here-doc): a caller doing incremental/REPL
	// parsing may want to prompt for more input instead of failing.
	Partial bool

	cause error
}

// New builds an Error, wrapping msg with xerrors so the resulting error
// carries a stack frame for %+v formatting.
func New(kind Kind, a *arena.Arena, span arena.Span, msg string, args ...any) *Error {
	text := msg
	if len(args) > 0 {
		text = fmt.Sprintf(msg, args...)
	}
	return &Error{
		Kind: kind, Message: text, Arena: a, Span: span,
		cause: xerrors.New(text),
	}
}

func (e *Error) Error() string {
	line, col := e.lineCol()
	return fmt.Sprintf("%s:%d:%d: %s: %s", e.Arena.Name, line, col, e.Kind, e.Message)
}

// Unwrap exposes the xerrors-wrapped cause for errors.Is/As callers.
func (e *Error) Unwrap() error { return e.cause }

func (e *Error) lineCol() (line, col int) {
	return int(e.Span.Line) + 1, e.Span.Col + 1
}

// Show renders a multi-line diagnostic with the offending source line and a
// caret underline, in the style of traditional Unix compilers.
func (e *Error) Show() string {
	line, col := e.lineCol()
	var buf strings.Builder
	fmt.Fprintf(&buf, "%s:%d:%d: %s: %s\n", e.Arena.Name, line, col, e.Kind, e.Message)
	if int(e.Span.Line) < len(e.Arena.Lines) {
		text := e.Arena.Line(e.Span.Line)
		buf.WriteString(text)
		buf.WriteByte('\n')
		underlineLen := e.Span.Length
		if underlineLen < 1 {
			underlineLen = 1
		}
		if e.Span.Col+underlineLen > len(text) {
			underlineLen = 1
		}
		buf.WriteString(strings.Repeat(" ", e.Span.Col))
		buf.WriteString(strings.Repeat("^", underlineLen))
	}
	return buf.String()
}

// Shower is implemented by Error; kept distinct so callers can accept any
// diagnostic type that knows how to render itself, including ones added
// later outside this package.
type Shower interface {
	Show() string
}

// ShowStyled renders like Show, but truncates the offending source line to
// width columns (0 means no limit) and, when color is true, highlights the
// "kind: message" header the way a terminal-aware compiler diagnostic
// does. Callers decide color and width from the output stream's terminal
// state; this package has no notion of a terminal itself.
func (e *Error) ShowStyled(width int, color bool) string {
	line, col := e.lineCol()
	var buf strings.Builder
	header := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if color {
		header = "\x1b[1;31m" + header + "\x1b[0m"
	}
	fmt.Fprintf(&buf, "%s:%d:%d: %s\n", e.Arena.Name, line, col, header)
	if int(e.Span.Line) < len(e.Arena.Lines) {
		text := e.Arena.Line(e.Span.Line)
		underlineLen := e.Span.Length
		if underlineLen < 1 {
			underlineLen = 1
		}
		if e.Span.Col+underlineLen > len(text) {
			underlineLen = 1
		}
		col := e.Span.Col
		if width >= 4 && len(text) > width {
			text = text[:width-3] + "..."
			if col >= len(text) {
				col = len(text) - 1
			}
		}
		buf.WriteString(text)
		buf.WriteByte('\n')
		buf.WriteString(strings.Repeat(" ", col))
		buf.WriteString(strings.Repeat("^", underlineLen))
	}
	return buf.String()
}
