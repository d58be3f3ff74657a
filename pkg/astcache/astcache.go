// Package astcache persists the result of the last parse (successful or
// not) of each known document (keyed by a digest of its source text) in a bbolt
// database on disk, the way pkg/store persists elvish's command and
// directory history. pkg/lsp uses it to skip re-running diagnostics on a
// didOpen/didChange notification whose text it has already seen and
// parsed, across restarts of the language server as well as within one
// run.
//
// The AST itself is never serialized here — it is arena-rooted and cheap
// to rebuild from source — only the verdict (did it parse, and if not
// what the diagnostic said) is cached.
package astcache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

const bucketParses = "parses"

// Record is the cached outcome of parsing one document's text.
type Record struct {
	Digest  string // sha256 of the source text this record was computed from
	OK      bool
	Message string // diagnostic text; empty when OK
}

// Store wraps a bbolt database of parse-result records, one per document
// URI.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the bbolt database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("astcache: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketParses))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("astcache: init %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Digest returns the content hash Put/Lookup key records against.
func Digest(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// Lookup returns the cached record for uri if its digest matches the
// current source's digest; a digest mismatch (the document changed since
// it was cached) or a missing entry is reported as ok == false.
func (s *Store) Lookup(uri, source string) (rec Record, ok bool, err error) {
	want := Digest(source)
	err = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketParses))
		v := b.Get([]byte(uri))
		if v == nil {
			return nil
		}
		r, decErr := decodeRecord(v)
		if decErr != nil {
			return nil
		}
		if r.Digest == want {
			rec, ok = r, true
		}
		return nil
	})
	return rec, ok, err
}

// Put records the outcome of parsing uri's current source text.
func (s *Store) Put(uri, source string, parseErr error) error {
	rec := Record{Digest: Digest(source), OK: parseErr == nil}
	if parseErr != nil {
		rec.Message = parseErr.Error()
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketParses))
		return b.Put([]byte(uri), encodeRecord(rec))
	})
}

// Forget removes any cached record for uri, used on didClose.
func (s *Store) Forget(uri string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketParses))
		return b.Delete([]byte(uri))
	})
}

// encodeRecord/decodeRecord use a small manual fixed-layout format
// (digest is a fixed 64 hex chars; ok is one byte; the rest is the
// message) rather than pulling in a general serialization library for
// three fields.
func encodeRecord(r Record) []byte {
	okByte := byte('0')
	if r.OK {
		okByte = '1'
	}
	buf := make([]byte, 0, len(r.Digest)+2+len(r.Message))
	buf = append(buf, []byte(r.Digest)...)
	buf = append(buf, okByte)
	buf = append(buf, []byte(r.Message)...)
	return buf
}

func decodeRecord(data []byte) (Record, error) {
	const digestLen = sha256.Size * 2
	if len(data) < digestLen+1 {
		return Record{}, fmt.Errorf("astcache: truncated record")
	}
	return Record{
		Digest:  string(data[:digestLen]),
		OK:      data[digestLen] == '1',
		Message: string(data[digestLen+1:]),
	}, nil
}
