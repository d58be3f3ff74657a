package lsp

import (
	"context"
	"encoding/json"
	"sync"

	lsp "github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"

	"posh.sh/pkg/astcache"
	"posh.sh/pkg/diag"
	"posh.sh/pkg/parser"
)

var (
	errMethodNotFound = &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "method not found"}
	errInvalidParams  = &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "invalid params"}
)

type server struct {
	mu      sync.Mutex
	content map[lsp.DocumentURI]string
	cache   *astcache.Store // nil means no persistent cache
}

func newServer(cache *astcache.Store) *server {
	return &server{content: make(map[lsp.DocumentURI]string), cache: cache}
}

type method func(context.Context, jsonrpc2.JSONRPC2, json.RawMessage) (any, error)

func noop(context.Context, jsonrpc2.JSONRPC2, json.RawMessage) (any, error) { return nil, nil }

func handler(s *server) jsonrpc2.Handler {
	methods := map[string]method{
		"initialize":             s.initialize,
		"textDocument/didOpen":   s.didOpen,
		"textDocument/didChange": s.didChange,
		"textDocument/didClose":  s.didClose,

		"initialized":                     noop,
		"workspace/didChangeWatchedFiles": noop,
	}
	return jsonrpc2.HandlerWithError(func(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
		fn, ok := methods[req.Method]
		if !ok {
			return nil, errMethodNotFound
		}
		var params json.RawMessage
		if req.Params != nil {
			params = *req.Params
		}
		return fn(ctx, conn, params)
	})
}

func (s *server) initialize(context.Context, jsonrpc2.JSONRPC2, json.RawMessage) (any, error) {
	return &lsp.InitializeResult{
		Capabilities: lsp.ServerCapabilities{
			TextDocumentSync: &lsp.TextDocumentSyncOptionsOrKind{
				Options: &lsp.TextDocumentSyncOptions{OpenClose: true, Change: lsp.TDSKFull},
			},
		},
	}, nil
}

func (s *server) didOpen(ctx context.Context, conn jsonrpc2.JSONRPC2, raw json.RawMessage) (any, error) {
	var params lsp.DidOpenTextDocumentParams
	if json.Unmarshal(raw, &params) != nil {
		return nil, errInvalidParams
	}
	uri, content := params.TextDocument.URI, params.TextDocument.Text
	s.mu.Lock()
	s.content[uri] = content
	s.mu.Unlock()
	go s.publishDiagnostics(ctx, conn, uri, content)
	return nil, nil
}

func (s *server) didChange(ctx context.Context, conn jsonrpc2.JSONRPC2, raw json.RawMessage) (any, error) {
	var params lsp.DidChangeTextDocumentParams
	if json.Unmarshal(raw, &params) != nil {
		return nil, errInvalidParams
	}
	if len(params.ContentChanges) == 0 {
		return nil, nil
	}
	// The server only advertises TDSKFull sync, so each change carries the
	// whole new document text.
	uri, content := params.TextDocument.URI, params.ContentChanges[0].Text
	s.mu.Lock()
	s.content[uri] = content
	s.mu.Unlock()
	go s.publishDiagnostics(ctx, conn, uri, content)
	return nil, nil
}

func (s *server) didClose(_ context.Context, _ jsonrpc2.JSONRPC2, raw json.RawMessage) (any, error) {
	var params lsp.DidCloseTextDocumentParams
	if json.Unmarshal(raw, &params) != nil {
		return nil, errInvalidParams
	}
	uri := params.TextDocument.URI
	s.mu.Lock()
	delete(s.content, uri)
	s.mu.Unlock()
	if s.cache != nil {
		s.cache.Forget(string(uri))
	}
	return nil, nil
}

func (s *server) publishDiagnostics(ctx context.Context, conn jsonrpc2.JSONRPC2, uri lsp.DocumentURI, content string) {
	conn.Notify(ctx, "textDocument/publishDiagnostics",
		lsp.PublishDiagnosticsParams{URI: uri, Diagnostics: s.diagnostics(uri, content)})
}

// diagnostics parses content and translates the parser's single fail-fast
// diag.Error, if any, into the one-element (or empty) diagnostics list
// publishDiagnostics sends. It consults/populates the astcache.Store, if
// one is configured, so a document that hasn't changed since last time
// skips re-parsing.
func (s *server) diagnostics(uri lsp.DocumentURI, content string) []lsp.Diagnostic {
	if s.cache != nil {
		if rec, ok, _ := s.cache.Lookup(string(uri), content); ok {
			return diagsFromRecord(rec)
		}
	}

	_, err := parser.New(string(uri), content).Parse()
	if s.cache != nil {
		s.cache.Put(string(uri), content, err)
	}
	if err == nil {
		return []lsp.Diagnostic{}
	}
	de, ok := err.(*diag.Error)
	if !ok {
		return []lsp.Diagnostic{{Severity: lsp.Error, Source: "parse", Message: err.Error()}}
	}
	return []lsp.Diagnostic{diagFromError(de)}
}

func diagsFromRecord(rec astcache.Record) []lsp.Diagnostic {
	if rec.OK {
		return []lsp.Diagnostic{}
	}
	return []lsp.Diagnostic{{Severity: lsp.Error, Source: "parse", Message: rec.Message}}
}

func diagFromError(de *diag.Error) lsp.Diagnostic {
	pos := lsp.Position{Line: int(de.Span.Line), Character: de.Span.Col}
	end := pos
	end.Character += maxInt(de.Span.Length, 1)
	return lsp.Diagnostic{
		Range:    lsp.Range{Start: pos, End: end},
		Severity: lsp.Error,
		Source:   string(de.Kind),
		Message:  de.Message,
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
