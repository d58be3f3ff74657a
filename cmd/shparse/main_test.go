package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestVerbatimRoundTrip(t *testing.T) {
	const src = "echo hi | grep h && echo ok\n"
	var out, errOut bytes.Buffer
	code := run(nil, strings.NewReader(src), &out, &errOut)
	if code != 0 {
		t.Fatalf("run() = %d, stderr: %s", code, errOut.String())
	}
	if out.String() != src {
		t.Errorf("verbatim output = %q, want %q", out.String(), src)
	}
}

func TestExpandFlag(t *testing.T) {
	const src = "echo ${Unset:-a b c}\n"
	var out, errOut bytes.Buffer
	code := run([]string{"-expand"}, strings.NewReader(src), &out, &errOut)
	if code != 0 {
		t.Fatalf("run() = %d, stderr: %s", code, errOut.String())
	}
	if got := out.String(); got != "[echo a b c]\n" {
		t.Errorf("-expand output = %q, want %q", got, "[echo a b c]\n")
	}
}

func TestASTFlagMentionsTopLevelNode(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run([]string{"-ast"}, strings.NewReader("echo hi\n"), &out, &errOut)
	if code != 0 {
		t.Fatalf("run() = %d, stderr: %s", code, errOut.String())
	}
	if !strings.Contains(out.String(), "List") {
		t.Errorf("-ast output missing List node:\n%s", out.String())
	}
}

func TestParseErrorReported(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run(nil, strings.NewReader("| echo hi\n"), &out, &errOut)
	if code != 2 {
		t.Fatalf("run() = %d, want 2 on a syntax error", code)
	}
	if errOut.Len() == 0 {
		t.Errorf("expected a diagnostic on stderr")
	}
}

func TestInvalidForLoopNameExitsWithSyntaxErrorCode(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run(nil, strings.NewReader("for - in a b c; do echo $-; done\n"), &out, &errOut)
	if code != 2 {
		t.Fatalf("run() = %d, want 2 on an invalid for-loop name", code)
	}
	if errOut.Len() == 0 {
		t.Errorf("expected a diagnostic on stderr")
	}
}
