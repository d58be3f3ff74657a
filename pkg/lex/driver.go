package lex

import (
	"fmt"

	"posh.sh/pkg/arena"
	"posh.sh/pkg/ast"
	"posh.sh/pkg/diag"
	"posh.sh/pkg/token"
)

// PendingHeredoc is one entry in the driver's here-doc queue: an opener
// that has been parsed (`<<` or `<<-` plus its delimiter) but whose body
// has not yet been read from the source.
type PendingHeredoc struct {
	Node   *ast.HereDoc
	Delim  string
	Dashed bool
	Quoted bool
	Body   string // filled in by DrainHeredocs
}

// Driver is the lexer driver (component D): it owns the mode stack, the
// here-doc queue, and one-token look-ahead with checkpoint/rewind, all
// built on top of a Scanner that does the actual character-level matching.
type Driver struct {
	Scanner *Scanner
	modes   []Mode
	pending []*PendingHeredoc
	buf     []Tok
	atStart bool
}

// NewDriver builds a Driver starting in OUTER mode.
func NewDriver(name, src string) *Driver {
	return &Driver{Scanner: NewScanner(name, src), modes: []Mode{ModeOuter}, atStart: true}
}

// Arena returns the arena backing this driver's source, for building
// diag.Error values from tokens it hands out.
func (d *Driver) Arena() *arena.Arena { return d.Scanner.Arena }

// Mode returns the mode on top of the stack.
func (d *Driver) Mode() Mode { return d.modes[len(d.modes)-1] }

// PushMode enters a new lexical mode, e.g. when the word parser sees an
// opening quote or `${`.
func (d *Driver) PushMode(m Mode) { d.modes = append(d.modes, m) }

// PopMode leaves the current lexical mode, returning to whatever was
// active before it. Popping the outermost OUTER mode is a driver bug, not
// a user error, so it panics.
func (d *Driver) PopMode() {
	if len(d.modes) == 1 {
		panic("lex: PopMode on empty mode stack")
	}
	d.modes = d.modes[:len(d.modes)-1]
}

// startsFresh reports whether a token of the given Id leaves the driver at
// a fresh word-start position. The result is passed to the OUTER and
// BOOL_TEST scans, which treat some characters (in OUTER, '#' opening a
// comment and '~' opening a tilde expansion) as special only as the first
// character of a fresh word.
func startsFresh(id token.Id) bool {
	switch id {
	case token.EOF, token.Newline, token.LineCont, token.Lit /* space runs reuse Lit */ :
		return true
	}
	switch id {
	case token.Pipe, token.PipeAmp, token.AndIf, token.OrIf, token.Amp, token.Semi,
		token.DSemi, token.SemiAmp, token.DSemiAmp, token.LBrace, token.RBrace,
		token.Bang, token.LDBracket, token.RDBracket, token.LParen, token.RParen,
		token.Less, token.Great, token.DLess, token.DLessDash, token.DGreat,
		token.LessAnd, token.GreatAnd, token.LessGreat, token.Clobber,
		token.BoolEq, token.BoolEqEq, token.BoolNe, token.BoolLt, token.BoolGt,
		token.BoolMatch, token.UnaryTest, token.BinaryTest:
		return true
	}
	return false
}

// next is the raw, unbuffered scan: advance the Scanner by exactly one
// token in the current mode.
func (d *Driver) next(atStart bool) (Tok, error) {
	switch d.Mode() {
	case ModeOuter:
		return d.Scanner.ScanOuter(atStart)
	case ModeDQ:
		return d.Scanner.ScanDQ()
	case ModeSQ:
		return d.Scanner.ScanSQ()
	case ModeArith:
		return d.Scanner.ScanArith()
	case ModeVS1:
		return d.Scanner.ScanVS1()
	case ModeVS2:
		return d.Scanner.ScanVS2()
	case ModeVSArgUnq:
		return d.Scanner.ScanVSArg(false)
	case ModeVSArgDQ:
		return d.Scanner.ScanVSArg(true)
	case ModeBashRegex:
		return d.Scanner.ScanBashRegex()
	case ModeComment:
		return d.Scanner.ScanComment()
	case ModeBoolTest:
		return d.Scanner.ScanBoolTest(atStart)
	case ModeHeredocBody:
		return d.Scanner.ScanHeredocBody()
	default:
		return Tok{}, fmt.Errorf("lex: mode %v has no direct token scan", d.Mode())
	}
}

// Peek returns the next token without consuming it. Calling Peek multiple
// times in a row without a Next returns the same token.
func (d *Driver) Peek() (Tok, error) {
	if len(d.buf) > 0 {
		return d.buf[0], nil
	}
	t, err := d.next(d.atStart)
	if err != nil {
		return Tok{}, err
	}
	d.buf = append(d.buf, t)
	return t, nil
}

// Next consumes and returns the next token, first serving anything
// buffered by Peek.
func (d *Driver) Next() (Tok, error) {
	var t Tok
	var err error
	if len(d.buf) > 0 {
		t, d.buf = d.buf[0], d.buf[1:]
	} else {
		t, err = d.next(d.atStart)
		if err != nil {
			return Tok{}, err
		}
	}
	d.atStart = startsFresh(t.Id)
	return t, nil
}

// Checkpoint is an opaque snapshot a parser can rewind to after a failed
// speculative production.
type Checkpoint struct {
	pos      int
	modes    []Mode
	buf      []Tok
	atStart  bool
	npending int
}

// Pos returns the scan position a Checkpoint was taken at, so a caller
// outside this package can slice the original source between two marks.
func (c Checkpoint) Pos() int { return c.pos }

// Mark takes a checkpoint of the driver's full state: scan position, mode
// stack, look-ahead buffer, and here-doc queue length (new here-docs
// scheduled during the speculative parse are rolled back along with
// everything else).
func (d *Driver) Mark() Checkpoint {
	modes := make([]Mode, len(d.modes))
	copy(modes, d.modes)
	buf := make([]Tok, len(d.buf))
	copy(buf, d.buf)
	return Checkpoint{
		pos: d.Scanner.Pos, modes: modes, buf: buf,
		atStart: d.atStart, npending: len(d.pending),
	}
}

// Reset rewinds the driver to a previously taken Checkpoint.
func (d *Driver) Reset(c Checkpoint) {
	d.Scanner.Pos = c.pos
	d.modes = c.modes
	d.buf = c.buf
	d.atStart = c.atStart
	d.pending = d.pending[:c.npending]
}

// ScheduleHeredoc enqueues a here-doc whose opener has just been parsed;
// its body will be read the next time DrainHeredocs is called.
func (d *Driver) ScheduleHeredoc(node *ast.HereDoc, delim string, dashed, quoted bool) {
	d.pending = append(d.pending, &PendingHeredoc{Node: node, Delim: delim, Dashed: dashed, Quoted: quoted})
}

// HasPendingHeredocs reports whether any scheduled here-doc still awaits
// its body.
func (d *Driver) HasPendingHeredocs() bool { return len(d.pending) > 0 }

// DrainHeredocs reads the body of every pending here-doc, in the order
// their openers appeared, switching the Scanner into HEREDOC_BODY mode for
// each one. The caller (the command parser) invokes this immediately
// after consuming the NEWLINE that ends the line the openers appeared on,
// which is the "next newline at top level" point described in §4.D.
// Each returned PendingHeredoc's Body holds the raw, unexpanded lines
// (newline-joined); the word parser re-lexes a body as a DQ-like sequence
// when DoExpansion is true and takes it as a literal otherwise, then calls
// Node.Fill to backfill the HereDoc AST node (invariant 4).
func (d *Driver) DrainHeredocs() ([]*PendingHeredoc, error) {
	pending := d.pending
	d.pending = nil
	for _, ph := range pending {
		var lines []string
		for {
			if d.Scanner.eof() {
				return pending, diag.New(diag.LexError, d.Scanner.Arena,
					d.Scanner.Arena.SpanAt(d.Scanner.Pos, 0),
					"unterminated here-doc (delimiter %q not found)", ph.Delim)
			}
			line, isEnd := d.Scanner.ScanHeredocLine(ph.Delim, ph.Dashed)
			if isEnd {
				break
			}
			if ph.Dashed {
				line = trimLeadingTabs(line)
			}
			lines = append(lines, line)
		}
		ph.Body = joinLines(lines)
	}
	return pending, nil
}

func trimLeadingTabs(s string) string {
	i := 0
	for i < len(s) && s[i] == '\t' {
		i++
	}
	return s[i:]
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	if len(lines) > 0 {
		out += "\n"
	}
	return out
}
