package lsp

import (
	"path/filepath"
	"testing"

	lsp "github.com/sourcegraph/go-lsp"

	"posh.sh/pkg/astcache"
)

func openTestCache(t *testing.T) (*astcache.Store, error) {
	t.Helper()
	store, err := astcache.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		return nil, err
	}
	t.Cleanup(func() { store.Close() })
	return store, nil
}

func TestDiagnosticsEmptyOnValidSource(t *testing.T) {
	s := newServer(nil)
	diags := s.diagnostics(lsp.DocumentURI("file:///a.sh"), "echo hi")
	if len(diags) != 0 {
		t.Errorf("diagnostics(valid) = %v, want none", diags)
	}
}

func TestDiagnosticsReportsParseError(t *testing.T) {
	s := newServer(nil)
	diags := s.diagnostics(lsp.DocumentURI("file:///b.sh"), "| echo hi")
	if len(diags) != 1 {
		t.Fatalf("diagnostics(invalid) = %v, want exactly one", diags)
	}
	if diags[0].Severity != lsp.Error {
		t.Errorf("diagnostic severity = %v, want Error", diags[0].Severity)
	}
}

func TestDiagnosticsCachedAcrossIdenticalContent(t *testing.T) {
	store, err := openTestCache(t)
	if err != nil {
		t.Fatal(err)
	}
	s := newServer(store)
	const uri, src = lsp.DocumentURI("file:///c.sh"), "echo hi"
	first := s.diagnostics(uri, src)
	second := s.diagnostics(uri, src)
	if len(first) != 0 || len(second) != 0 {
		t.Errorf("diagnostics = %v / %v, want both empty", first, second)
	}
}
