package pprint

import (
	"strings"
	"testing"

	"posh.sh/pkg/parser"
)

func mustParse(t *testing.T, src string) *parser.Result {
	t.Helper()
	res, err := parser.New("test", src).Parse()
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return res
}

func TestVerbatimRoundTrips(t *testing.T) {
	srcs := []string{
		"echo hi > out.txt",
		"ls foo | grep bar && echo ok || echo fail",
		`for x in a b c; do echo "$x"; done`,
		"x=1 y=2 cmd",
	}
	for _, src := range srcs {
		res := mustParse(t, src)
		var b strings.Builder
		if err := Verbatim(&b, res.Root); err != nil {
			t.Fatalf("Verbatim(%q): %v", src, err)
		}
		if got := b.String(); got != src {
			t.Errorf("Verbatim round trip: got %q, want %q", got, src)
		}
	}
}

func TestTreeContainsNodeNames(t *testing.T) {
	res := mustParse(t, "echo hi > out.txt")
	var b strings.Builder
	Tree(&b, res.Root)
	out := b.String()
	for _, want := range []string{"List", "Simple"} {
		if !strings.Contains(out, want) {
			t.Errorf("Tree output missing %q:\n%s", want, out)
		}
	}
}
