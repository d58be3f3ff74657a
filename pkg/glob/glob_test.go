package glob

import (
	"os"
	"sort"
	"testing"
)

var (
	mkdirs  = []string{"a", "b", "c", "d1", "d1/e", "d2"}
	creates = []string{"a/X", "a/Y", "b/X", "c/Y", "dX", "lorem", "ipsum", "d1/e/X"}
)

var globCases = []struct {
	pattern string
	want    []string
}{
	{"*", []string{"a", "b", "c", "d1", "d2", "dX", "lorem", "ipsum"}},
	{"*/X", []string{"a/X", "b/X"}},
	{"*/*", []string{"a/X", "a/Y", "b/X", "c/Y", "d1/e"}},
	{"l*m", []string{"lorem"}},
	{"d?", []string{"d1", "d2", "dX"}},
	{"d[12]", []string{"d1", "d2"}},
	{"d[!12]", []string{"dX"}},
}

func TestExpand(t *testing.T) {
	tmpdir, err := os.MkdirTemp("", "glob-test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpdir)

	for _, dir := range mkdirs {
		if err := os.Mkdir(tmpdir+"/"+dir, 0755); err != nil {
			t.Fatal(err)
		}
	}
	for _, file := range creates {
		f, err := os.Create(tmpdir + "/" + file)
		if err != nil {
			t.Fatal(err)
		}
		f.Close()
	}

	for _, tc := range globCases {
		got := Expand(Parse(tc.pattern), tmpdir)
		var names []string
		for _, g := range got {
			names = append(names, g[len(tmpdir)+1:])
		}
		if len(got) == 0 {
			names = nil
		}
		want := append([]string{}, tc.want...)
		sort.Strings(names)
		sort.Strings(want)
		if !equalStrings(names, want) {
			t.Errorf("Expand(%q) = %v, want %v", tc.pattern, names, want)
		}
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestMatch(t *testing.T) {
	cases := []struct {
		pattern, name string
		want          bool
	}{
		{"*.go", "main.go", true},
		{"*.go", "main.c", false},
		{"a?c", "abc", true},
		{"a?c", "ac", false},
		{"[abc]*", "apple", true},
		{"[abc]*", "xyz", false},
		{"[!abc]*", "xyz", true},
		{"a/b", "a/b", true},
		{"a/*", "a/b", true},
		{"a/*", "a/b/c", false},
		{`\*`, "*", true},
		{`\*`, "x", false},
	}
	for _, c := range cases {
		if got := Parse(c.pattern).Match(c.name); got != c.want {
			t.Errorf("Parse(%q).Match(%q) = %v, want %v", c.pattern, c.name, got, c.want)
		}
	}
}

func TestTrimAndReplace(t *testing.T) {
	if got := TrimPrefix("aabbcc", Parse("a*b"), true); got != "bcc" {
		t.Errorf("TrimPrefix shortest = %q, want %q", got, "bcc")
	}
	if got := TrimPrefix("aabbcc", Parse("a*b"), false); got != "cc" {
		t.Errorf("TrimPrefix longest = %q, want %q", got, "cc")
	}
	if got := TrimSuffix("aabbcc", Parse("b*c"), true); got != "aab" {
		t.Errorf("TrimSuffix shortest = %q, want %q", got, "aab")
	}
	if got := TrimSuffix("aabbcc", Parse("b*c"), false); got != "aa" {
		t.Errorf("TrimSuffix longest = %q, want %q", got, "aa")
	}
	if got := ReplaceFirst("foo bar foo", Parse("foo"), "X"); got != "X bar foo" {
		t.Errorf("ReplaceFirst = %q", got)
	}
	if got := ReplaceAll("foo bar foo", Parse("foo"), "X"); got != "X bar X" {
		t.Errorf("ReplaceAll = %q", got)
	}
}
