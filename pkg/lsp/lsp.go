// Package lsp implements a minimal Language Server Protocol front end
// over pkg/parser: it turns textDocument/didOpen and didChange
// notifications into publishDiagnostics notifications carrying the
// parser's single fail-fast diagnostic (if any), the way an editor
// integration would use this module without ever invoking pkg/expand or
// running anything.
package lsp

import (
	"context"
	"io"

	"github.com/sourcegraph/jsonrpc2"

	"posh.sh/pkg/astcache"
)

// Serve runs the language server over rw (typically stdin/stdout) until
// the connection is closed or ctx is canceled. cachePath, if non-empty,
// backs the server with an on-disk astcache.Store so repeated edits to an
// unchanged document skip re-parsing; an empty path runs with no cache,
// so every notification re-parses its document.
func Serve(ctx context.Context, rw io.ReadWriteCloser, cachePath string) error {
	var cache *astcache.Store
	if cachePath != "" {
		c, err := astcache.Open(cachePath)
		if err != nil {
			return err
		}
		defer c.Close()
		cache = c
	}

	s := newServer(cache)
	conn := jsonrpc2.NewConn(ctx,
		jsonrpc2.NewBufferedStream(rw, jsonrpc2.VSCodeObjectCodec{}),
		handler(s))
	<-conn.DisconnectNotify()
	return nil
}
