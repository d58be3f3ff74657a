package lex

import (
	"testing"

	"posh.sh/pkg/token"
)

func scanAllOuter(src string) []Tok {
	s := NewScanner("t", src)
	atStart := true
	var toks []Tok
	for {
		tok, err := s.ScanOuter(atStart)
		if err != nil {
			panic(err)
		}
		toks = append(toks, tok)
		if tok.Id == token.EOF {
			return toks
		}
		atStart = startsFresh(tok.Id)
	}
}

func ids(toks []Tok) []token.Id {
	out := make([]token.Id, len(toks))
	for i, t := range toks {
		out[i] = t.Id
	}
	return out
}

func wantIds(t *testing.T, got []Tok, want ...token.Id) {
	t.Helper()
	gotIds := ids(got)
	if len(gotIds) != len(want) {
		t.Fatalf("token count = %d, want %d\ngot:  %v\nwant: %v", len(gotIds), len(want), gotIds, want)
	}
	for i := range want {
		if gotIds[i] != want[i] {
			t.Fatalf("token[%d] = %v, want %v\ngot: %v", i, gotIds[i], want[i], gotIds)
		}
	}
}

func TestScanOuterLiteralAndOperators(t *testing.T) {
	toks := scanAllOuter("echo hi|cat\n")
	wantIds(t, toks, token.Lit, token.Lit, token.Lit, token.Pipe, token.Lit, token.Newline, token.EOF)
	if toks[0].Value != "echo" || toks[2].Value != "hi" {
		t.Errorf("unexpected literal values: %q, %q", toks[0].Value, toks[2].Value)
	}
}

func TestScanOuterLongestMatchOperators(t *testing.T) {
	toks := scanAllOuter(";;&")
	wantIds(t, toks, token.DSemiAmp, token.EOF)
}

func TestScanOuterCommentOnlyAtWordStart(t *testing.T) {
	toks := scanAllOuter("echo a#b\n")
	// '#' mid-word is ordinary text, not a comment opener.
	wantIds(t, toks, token.Lit, token.Lit, token.Lit, token.Newline, token.EOF)
	if toks[2].Value != "a#b" {
		t.Errorf("mid-word '#' value = %q, want %q", toks[2].Value, "a#b")
	}

	toks = scanAllOuter("echo a\n# a comment\n")
	wantIds(t, toks, token.Lit, token.Lit, token.Lit, token.Newline, token.Comment, token.Newline, token.EOF)
}

func TestScanOuterTildeOnlyAtWordStart(t *testing.T) {
	toks := scanAllOuter("~/x a~b")
	wantIds(t, toks, token.Tilde, token.Lit, token.Lit, token.Lit, token.EOF)
	if toks[3].Value != "a~b" {
		t.Errorf("mid-word '~' value = %q, want %q", toks[3].Value, "a~b")
	}
}

func TestScanOuterDollarForms(t *testing.T) {
	toks := scanAllOuter("$x ${x} $(x) $((x))")
	wantIds(t, toks,
		token.Dollar, token.Lit, token.Lit,
		token.DollarLBrace, token.Lit, token.RBrace, token.Lit,
		token.DollarLParen, token.Lit, token.RParen, token.Lit,
		token.DollarDLParen, token.Lit, token.RParen, token.RParen,
		token.EOF)
}

func TestScanOuterEscapedLiteral(t *testing.T) {
	toks := scanAllOuter(`a\ b`)
	wantIds(t, toks, token.Lit, token.EscapedLit, token.Lit, token.EOF)
	if toks[1].Value != " " {
		t.Errorf("escaped literal value = %q, want %q", toks[1].Value, " ")
	}
}

func TestScanSQUnterminatedIsTolerated(t *testing.T) {
	s := NewScanner("t", "abc")
	tok, err := s.ScanSQ()
	if err != nil {
		t.Fatalf("ScanSQ() error = %v", err)
	}
	if tok.Id != token.SQuoteBody || tok.Value != "abc" {
		t.Errorf("ScanSQ() = %v %q, want SQuoteBody %q", tok.Id, tok.Value, "abc")
	}
}

func TestScanDQEscapes(t *testing.T) {
	s := NewScanner("t", `\$\!"`)
	first, err := s.ScanDQ()
	if err != nil || first.Id != token.EscapedLit || first.Value != "$" {
		t.Fatalf("first = %v %q err %v, want EscapedLit %q", first.Id, first.Value, err, "$")
	}
	second, err := s.ScanDQ()
	if err != nil || second.Id != token.Lit || second.Value != `\` {
		t.Fatalf("second = %v %q err %v, want Lit %q (backslash kept before non-escapable char)", second.Id, second.Value, err, `\`)
	}
}

func TestScanArithTokens(t *testing.T) {
	s := NewScanner("t", "i+1 <= n")
	var got []Tok
	for {
		tok, err := s.ScanArith()
		if err != nil {
			t.Fatalf("ScanArith() error = %v", err)
		}
		got = append(got, tok)
		if tok.Id == token.EOF {
			break
		}
	}
	wantIds(t, got, token.ArithName, token.ArithOp, token.ArithNum, token.ArithOp, token.ArithName, token.EOF)
}

func TestScanVS2OperatorsLongestFirst(t *testing.T) {
	for _, c := range []struct {
		src  string
		want token.Id
	}{
		{":-", token.VsMinusEq},
		{"-", token.VsMinus},
		{"%%", token.VsTrimMinMin},
		{"%", token.VsTrimMin},
		{"}", token.RBrace},
	} {
		s := NewScanner("t", c.src)
		tok, err := s.ScanVS2()
		if err != nil {
			t.Fatalf("ScanVS2(%q) error = %v", c.src, err)
		}
		if tok.Id != c.want {
			t.Errorf("ScanVS2(%q) = %v, want %v", c.src, tok.Id, c.want)
		}
	}
}

func TestScanBoolTestFlagsAndBoundary(t *testing.T) {
	s := NewScanner("t", "-f ]]")
	flag, err := s.ScanBoolTest(true)
	if err != nil || flag.Id != token.UnaryTest || flag.Value != "-f" {
		t.Fatalf("flag = %v %q err %v, want UnaryTest -f", flag.Id, flag.Value, err)
	}

	s2 := NewScanner("t", "-foo")
	notFlag, err := s2.ScanBoolTest(true)
	if err != nil {
		t.Fatalf("ScanBoolTest(-foo) error = %v", err)
	}
	if notFlag.Id != token.Lit || notFlag.Value != "-foo" {
		t.Errorf("-foo (not a real flag) = %v %q, want Lit %q", notFlag.Id, notFlag.Value, "-foo")
	}
}

func TestScanHeredocLineDashedStripsTabs(t *testing.T) {
	s := NewScanner("t", "\t\tEOF\nrest")
	line, isEnd := s.ScanHeredocLine("EOF", true)
	if !isEnd {
		t.Fatalf("ScanHeredocLine dashed: isEnd = false, want true (line %q)", line)
	}
}

func TestScanHeredocLineNotDashedKeepsTabs(t *testing.T) {
	s := NewScanner("t", "\tEOF\nrest")
	_, isEnd := s.ScanHeredocLine("EOF", false)
	if isEnd {
		t.Fatalf("ScanHeredocLine non-dashed: isEnd = true, want false (leading tab must be kept)")
	}
}
