package expand

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"posh.sh/pkg/ast"
	"posh.sh/pkg/parser"
)

// unwrap descends through the connective nodes a one-liner fixture parses
// into (List/Sentence/AndOr/Pipeline, each with a single child here) down
// to the actual Simple or Assignment command.
func unwrap(t *testing.T, n ast.Command) ast.Command {
	t.Helper()
	for {
		switch c := n.(type) {
		case *ast.List:
			if len(c.Children) != 1 {
				t.Fatalf("expected a single top-level command, got %d", len(c.Children))
			}
			n = c.Children[0]
		case *ast.Sentence:
			n = c.Child
		case *ast.AndOr:
			if len(c.Children) != 1 {
				t.Fatalf("unexpected and-or list in test fixture")
			}
			n = c.Children[0]
		case *ast.Pipeline:
			if len(c.Children) != 1 {
				t.Fatalf("unexpected pipeline in test fixture")
			}
			n = c.Children[0]
		default:
			return n
		}
	}
}

func firstSimple(t *testing.T, n ast.Command) *ast.Simple {
	t.Helper()
	c, ok := unwrap(t, n).(*ast.Simple)
	if !ok {
		t.Fatalf("expected a simple command, got %T", n)
	}
	return c
}

// assignsOf returns a bare or prefix assignment list regardless of whether
// the line parsed to *ast.Assignment (no command name) or *ast.Simple
// (assignments prefixing a command name).
func assignsOf(t *testing.T, n ast.Command) []ast.EnvPair {
	t.Helper()
	switch c := unwrap(t, n).(type) {
	case *ast.Assignment:
		return c.Pairs
	case *ast.Simple:
		return c.Assigns
	default:
		t.Fatalf("expected an assignment, got %T", n)
		return nil
	}
}

// argvOf expands a command line's argument words (everything after the
// command name) against env and returns the resulting argv.
func argvOf(t *testing.T, res *parser.Result, env Env, argWords []ast.Word) []string {
	t.Helper()
	out, err := Words(res.Arena, argWords, env)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	return out
}

func runExpandCase(t *testing.T, setup []string, line string, want []string) {
	t.Helper()
	env := NewMapEnv()
	for _, s := range setup {
		res, err := parser.New("setup", s).Parse()
		if err != nil {
			t.Fatalf("parse setup %q: %v", s, err)
		}
		for _, a := range assignsOf(t, res.Root) {
			v, err := AssignValue(res.Arena, a.Value, env)
			if err != nil {
				t.Fatalf("expand setup %q: %v", s, err)
			}
			env.Set(a.Name, v)
		}
	}

	res, err := parser.New("line", line).Parse()
	if err != nil {
		t.Fatalf("parse %q: %v", line, err)
	}
	cmd := firstSimple(t, res.Root)
	got := argvOf(t, res, env, cmd.Words[1:])
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("%q argv mismatch (-want +got):\n%s", line, diff)
	}
}

func TestScenarios(t *testing.T) {
	runExpandCase(t, []string{`empty=''`}, `argv ${empty:-a} ${Unset:-b}`, []string{"a", "b"})
	runExpandCase(t, []string{`empty=''`}, `argv ${empty-a} ${Unset-b}`, []string{"b"})
	runExpandCase(t, nil, `argv "${Unset:-'b'}"`, []string{"'b'"})
	runExpandCase(t, nil, `argv ${Unset:-a b c}`, []string{"a", "b", "c"})
	runExpandCase(t, nil, `argv "${Unset:-a b c}"`, []string{"a b c"})
	runExpandCase(t, []string{`var='a b c'`}, `argv ${Unset:-A$var " $var"D E F}`,
		[]string{"Aa", "b", "c", " a b cD", "E", "F"})
	runExpandCase(t, []string{`foo="'a b c d'"`}, `argv "${foo%d\'}"`, []string{"'a b c "})
}

func TestFieldSplittingIFS(t *testing.T) {
	env := NewMapEnv()
	env.Set("IFS", ",")
	cases := []struct {
		val  string
		want []string
	}{
		{"a,b,", []string{"a", "b", ""}},
		{",b,", []string{"", "b", ""}},
		{"a,,b", []string{"a", "", "b"}},
	}
	res, err := parser.New("t", `argv $x`).Parse()
	if err != nil {
		t.Fatal(err)
	}
	cmd := firstSimple(t, res.Root)
	for _, c := range cases {
		env.Set("x", c.val)
		got, err := Words(res.Arena, cmd.Words[1:], env)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(c.want, got); diff != "" {
			t.Errorf("IFS split %q mismatch (-want +got):\n%s", c.val, diff)
		}
	}
}

func TestTildeExpansion(t *testing.T) {
	env := NewMapEnv()
	res, err := parser.New("t", `argv ~/src`).Parse()
	if err != nil {
		t.Fatal(err)
	}
	cmd := firstSimple(t, res.Root)
	got, err := Words(res.Arena, cmd.Words[1:], env)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("~/ expansion produced %d fields, want 1: %#v", len(got), got)
	}
}

func TestArithmeticExpansion(t *testing.T) {
	env := NewMapEnv()
	env.Set("i", "3")
	res, err := parser.New("t", `argv $((i + 1)) $((i * 2 - 1))`).Parse()
	if err != nil {
		t.Fatal(err)
	}
	cmd := firstSimple(t, res.Root)
	got, err := Words(res.Arena, cmd.Words[1:], env)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"4", "5"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("arith mismatch (-want +got):\n%s", diff)
	}
}

func TestCommandSubstitution(t *testing.T) {
	env := NewMapEnv()
	env.Run = func(src string) (string, error) {
		if src == "echo hi" {
			return "hi\n", nil
		}
		return "", nil
	}
	res, err := parser.New("t", `argv $(echo hi)`).Parse()
	if err != nil {
		t.Fatal(err)
	}
	cmd := firstSimple(t, res.Root)
	got, err := Words(res.Arena, cmd.Words[1:], env)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"hi"}, got); diff != "" {
		t.Errorf("command sub mismatch (-want +got):\n%s", diff)
	}
}

func TestPathnameExpansionNoMatchIsLiteral(t *testing.T) {
	env := NewMapEnv()
	env.WorkDir = t.TempDir()
	res, err := parser.New("t", `argv *.nonexistent`).Parse()
	if err != nil {
		t.Fatal(err)
	}
	cmd := firstSimple(t, res.Root)
	got, err := Words(res.Arena, cmd.Words[1:], env)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"*.nonexistent"}, got); diff != "" {
		t.Errorf("no-match glob mismatch (-want +got):\n%s", diff)
	}
}

func TestPathnameExpansionNullGlobDropsField(t *testing.T) {
	env := NewMapEnv()
	env.WorkDir = t.TempDir()
	env.Nullglob = true
	res, err := parser.New("t", `argv *.nonexistent`).Parse()
	if err != nil {
		t.Fatal(err)
	}
	cmd := firstSimple(t, res.Root)
	got, err := Words(res.Arena, cmd.Words[1:], env)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("nullglob no-match => %#v, want no fields", got)
	}
}

func TestAssignValueNoSplitNoGlob(t *testing.T) {
	env := NewMapEnv()
	res, err := parser.New("t", `x=a\ b*c`).Parse()
	if err != nil {
		t.Fatal(err)
	}
	pairs := assignsOf(t, res.Root)
	got, err := AssignValue(res.Arena, pairs[0].Value, env)
	if err != nil {
		t.Fatal(err)
	}
	if got != "a b*c" {
		t.Errorf("AssignValue => %q, want %q", got, "a b*c")
	}
}
