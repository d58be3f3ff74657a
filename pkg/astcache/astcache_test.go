package astcache

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestPutLookupRoundTrip(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	const uri, src = "file:///a.sh", "echo hi"
	if _, ok, err := s.Lookup(uri, src); err != nil || ok {
		t.Fatalf("Lookup before Put: ok=%v err=%v, want a miss", ok, err)
	}

	if err := s.Put(uri, src, nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	rec, ok, err := s.Lookup(uri, src)
	if err != nil || !ok {
		t.Fatalf("Lookup after Put: ok=%v err=%v, want a hit", ok, err)
	}
	if !rec.OK || rec.Message != "" {
		t.Errorf("Lookup record = %+v, want OK with no message", rec)
	}

	if _, ok, err := s.Lookup(uri, src+" there"); err != nil || ok {
		t.Fatalf("Lookup with changed source: ok=%v err=%v, want a digest-mismatch miss", ok, err)
	}
}

func TestPutRecordsFailure(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	const uri, src = "file:///b.sh", "echo $("
	if err := s.Put(uri, src, errors.New("unexpected EOF")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	rec, ok, err := s.Lookup(uri, src)
	if err != nil || !ok {
		t.Fatalf("Lookup: ok=%v err=%v", ok, err)
	}
	if rec.OK || rec.Message != "unexpected EOF" {
		t.Errorf("Lookup record = %+v, want a failure with message", rec)
	}
}

func TestForget(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	const uri, src = "file:///c.sh", "echo hi"
	if err := s.Put(uri, src, nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Forget(uri); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	if _, ok, err := s.Lookup(uri, src); err != nil || ok {
		t.Fatalf("Lookup after Forget: ok=%v err=%v, want a miss", ok, err)
	}
}
