package parser

import (
	"testing"

	"posh.sh/pkg/ast"
)

func mustParse(t *testing.T, src string) *Result {
	t.Helper()
	res, err := New("t", src).Parse()
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", src, err)
	}
	return res
}

func oneSentence(t *testing.T, res *Result) *ast.Sentence {
	t.Helper()
	if len(res.Root.Children) != 1 {
		t.Fatalf("List has %d children, want 1", len(res.Root.Children))
	}
	s, ok := res.Root.Children[0].(*ast.Sentence)
	if !ok {
		t.Fatalf("top-level child is %T, want *ast.Sentence", res.Root.Children[0])
	}
	return s
}

func TestParseSimpleCommand(t *testing.T) {
	res := mustParse(t, "echo hi there\n")
	s := oneSentence(t, res)
	if s.Terminator != ast.TermNewline {
		t.Errorf("Terminator = %v, want TermNewline", s.Terminator)
	}
	simple, ok := s.Child.(*ast.Simple)
	if !ok {
		t.Fatalf("Child is %T, want *ast.Simple", s.Child)
	}
	if len(simple.Words) != 3 {
		t.Fatalf("Words has %d entries, want 3", len(simple.Words))
	}
}

func TestParseBareAssignmentHasNoCommandName(t *testing.T) {
	res := mustParse(t, "FOO=bar\n")
	s := oneSentence(t, res)
	asg, ok := s.Child.(*ast.Assignment)
	if !ok {
		t.Fatalf("Child is %T, want *ast.Assignment", s.Child)
	}
	if len(asg.Pairs) != 1 || asg.Pairs[0].Name != "FOO" {
		t.Fatalf("Pairs = %+v, want one pair named FOO", asg.Pairs)
	}
}

func TestParseArrayLiteralAssignment(t *testing.T) {
	res := mustParse(t, "FOO=(a b c)\n")
	s := oneSentence(t, res)
	asg, ok := s.Child.(*ast.Assignment)
	if !ok {
		t.Fatalf("Child is %T, want *ast.Assignment", s.Child)
	}
	if len(asg.Pairs) != 1 || asg.Pairs[0].Name != "FOO" {
		t.Fatalf("Pairs = %+v, want one pair named FOO", asg.Pairs)
	}
	cw, ok := asg.Pairs[0].Value.(*ast.CompoundWord)
	if !ok || len(cw.Parts) != 1 {
		t.Fatalf("Value = %T, want a CompoundWord wrapping one ArrayLiteral part", asg.Pairs[0].Value)
	}
	arr, ok := cw.Parts[0].(*ast.ArrayLiteral)
	if !ok {
		t.Fatalf("Parts[0] is %T, want *ast.ArrayLiteral", cw.Parts[0])
	}
	if len(arr.Words) != 3 {
		t.Fatalf("ArrayLiteral has %d words, want 3", len(arr.Words))
	}
}

func TestParsePipeline(t *testing.T) {
	res := mustParse(t, "echo hi | grep h | wc -l\n")
	s := oneSentence(t, res)
	p, ok := s.Child.(*ast.Pipeline)
	if !ok {
		t.Fatalf("Child is %T, want *ast.Pipeline", s.Child)
	}
	if len(p.Children) != 3 {
		t.Fatalf("Pipeline has %d children, want 3", len(p.Children))
	}
	if p.Negated {
		t.Error("Negated = true, want false")
	}
}

func TestParsePipelineNegated(t *testing.T) {
	res := mustParse(t, "! false\n")
	s := oneSentence(t, res)
	p, ok := s.Child.(*ast.Pipeline)
	if !ok {
		t.Fatalf("Child is %T, want *ast.Pipeline (negation of a single command)", s.Child)
	}
	if !p.Negated {
		t.Error("Negated = false, want true")
	}
	if len(p.Children) != 1 {
		t.Fatalf("Pipeline has %d children, want 1", len(p.Children))
	}
}

func TestParseAndOr(t *testing.T) {
	res := mustParse(t, "true && echo yes || echo no\n")
	s := oneSentence(t, res)
	ao, ok := s.Child.(*ast.AndOr)
	if !ok {
		t.Fatalf("Child is %T, want *ast.AndOr", s.Child)
	}
	if len(ao.Children) != 3 || len(ao.Ops) != 2 {
		t.Fatalf("AndOr = %d children / %d ops, want 3/2", len(ao.Children), len(ao.Ops))
	}
}

func TestParseSubshellAndBraceGroup(t *testing.T) {
	res := mustParse(t, "(echo hi)\n")
	s := oneSentence(t, res)
	if _, ok := s.Child.(*ast.Subshell); !ok {
		t.Fatalf("Child is %T, want *ast.Subshell", s.Child)
	}

	res = mustParse(t, "{ echo hi; }\n")
	s = oneSentence(t, res)
	if _, ok := s.Child.(*ast.BraceGroup); !ok {
		t.Fatalf("Child is %T, want *ast.BraceGroup", s.Child)
	}
}

func TestParseIfElif(t *testing.T) {
	res := mustParse(t, "if true; then echo a; elif false; then echo b; else echo c; fi\n")
	s := oneSentence(t, res)
	ifc, ok := s.Child.(*ast.If)
	if !ok {
		t.Fatalf("Child is %T, want *ast.If", s.Child)
	}
	if len(ifc.Arms) != 2 {
		t.Fatalf("If has %d arms, want 2 (if + elif)", len(ifc.Arms))
	}
	if ifc.Else == nil {
		t.Fatal("Else is nil, want non-nil")
	}
}

func TestParseForEachWithIn(t *testing.T) {
	res := mustParse(t, "for x in a b c; do echo $x; done\n")
	s := oneSentence(t, res)
	fe, ok := s.Child.(*ast.ForEach)
	if !ok {
		t.Fatalf("Child is %T, want *ast.ForEach", s.Child)
	}
	if fe.DoArgIter {
		t.Error("DoArgIter = true, want false (explicit `in` clause present)")
	}
	if len(fe.IterWords) != 3 {
		t.Fatalf("IterWords has %d entries, want 3", len(fe.IterWords))
	}
}

func TestParseForEachWithoutInIteratesArgs(t *testing.T) {
	res := mustParse(t, "for x; do echo $x; done\n")
	s := oneSentence(t, res)
	fe, ok := s.Child.(*ast.ForEach)
	if !ok {
		t.Fatalf("Child is %T, want *ast.ForEach", s.Child)
	}
	if !fe.DoArgIter {
		t.Error("DoArgIter = false, want true (no `in` clause)")
	}
}

func TestParseForExprCStyle(t *testing.T) {
	res := mustParse(t, "for ((i=0; i<3; i++)); do echo $i; done\n")
	s := oneSentence(t, res)
	if _, ok := s.Child.(*ast.ForExpr); !ok {
		t.Fatalf("Child is %T, want *ast.ForExpr", s.Child)
	}
}

func TestParseWhileUntil(t *testing.T) {
	res := mustParse(t, "while true; do break; done\n")
	s := oneSentence(t, res)
	if _, ok := s.Child.(*ast.While); !ok {
		t.Fatalf("Child is %T, want *ast.While", s.Child)
	}

	res = mustParse(t, "until false; do break; done\n")
	s = oneSentence(t, res)
	if _, ok := s.Child.(*ast.Until); !ok {
		t.Fatalf("Child is %T, want *ast.Until", s.Child)
	}
}

func TestParseCaseFallthroughVariants(t *testing.T) {
	res := mustParse(t, "case $x in a) echo a;; b) echo b;& c) echo c;;& *) echo d;; esac\n")
	s := oneSentence(t, res)
	c, ok := s.Child.(*ast.Case)
	if !ok {
		t.Fatalf("Child is %T, want *ast.Case", s.Child)
	}
	if len(c.Arms) != 4 {
		t.Fatalf("Case has %d arms, want 4", len(c.Arms))
	}
	want := []ast.CaseTerminator{ast.CaseBreak, ast.CaseFallthrough, ast.CaseContinue, ast.CaseBreak}
	for i, term := range want {
		if c.Arms[i].Terminator != term {
			t.Errorf("Arms[%d].Terminator = %v, want %v", i, c.Arms[i].Terminator, term)
		}
	}
}

func TestParseFuncDefBothSpellings(t *testing.T) {
	res := mustParse(t, "foo() { echo hi; }\n")
	s := oneSentence(t, res)
	fd, ok := s.Child.(*ast.FuncDef)
	if !ok {
		t.Fatalf("Child is %T, want *ast.FuncDef", s.Child)
	}
	if fd.Keyword {
		t.Error("Keyword = true, want false for POSIX form")
	}
	if fd.Name != "foo" {
		t.Errorf("Name = %q, want %q", fd.Name, "foo")
	}

	res = mustParse(t, "function bar { echo hi; }\n")
	s = oneSentence(t, res)
	fd, ok = s.Child.(*ast.FuncDef)
	if !ok {
		t.Fatalf("Child is %T, want *ast.FuncDef", s.Child)
	}
	if !fd.Keyword {
		t.Error("Keyword = false, want true for `function` form")
	}
}

func TestParseDParenAndDBracket(t *testing.T) {
	res := mustParse(t, "((x = 1 + 2))\n")
	s := oneSentence(t, res)
	if _, ok := s.Child.(*ast.DParen); !ok {
		t.Fatalf("Child is %T, want *ast.DParen", s.Child)
	}

	res = mustParse(t, "[[ -f file.txt ]]\n")
	s = oneSentence(t, res)
	if _, ok := s.Child.(*ast.DBracket); !ok {
		t.Fatalf("Child is %T, want *ast.DBracket", s.Child)
	}
}

func TestParseHeredocBackfillsBody(t *testing.T) {
	res := mustParse(t, "cat <<EOF\nhello\nworld\nEOF\n")
	s := oneSentence(t, res)
	simple, ok := s.Child.(*ast.Simple)
	if !ok {
		t.Fatalf("Child is %T, want *ast.Simple", s.Child)
	}
	if len(simple.Redirs) != 1 {
		t.Fatalf("Redirs has %d entries, want 1", len(simple.Redirs))
	}
}

func TestParseUnexpectedTokenIsParseError(t *testing.T) {
	_, err := New("t", "| echo hi\n").Parse()
	if err == nil {
		t.Fatal("Parse() error = nil, want a diagnostic for a pipeline with no left-hand command")
	}
}

func TestParseEmptyIfBodyIsPermitted(t *testing.T) {
	// The grammar does not require a non-empty condition/body list (an
	// execution-layer concern out of scope here), so this parses cleanly
	// with both Cond and Body empty rather than erroring.
	res := mustParse(t, "if then fi\n")
	s := oneSentence(t, res)
	ifc, ok := s.Child.(*ast.If)
	if !ok {
		t.Fatalf("Child is %T, want *ast.If", s.Child)
	}
	if len(ifc.Arms) != 1 {
		t.Fatalf("If has %d arms, want 1", len(ifc.Arms))
	}
	if len(ifc.Arms[0].Cond.Children) != 0 || len(ifc.Arms[0].Body.Children) != 0 {
		t.Error("expected both Cond and Body to be empty")
	}
}

func TestVerbatimSourceTextRoundTrips(t *testing.T) {
	const src = "for x in a b; do echo \"$x\" | grep x; done # trailing comment\n"
	res := mustParse(t, src)
	if res.Root.SourceText() != src {
		t.Errorf("Root.SourceText() = %q, want %q", res.Root.SourceText(), src)
	}
}
