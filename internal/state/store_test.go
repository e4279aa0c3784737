package state

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()

	fs, err := NewFileStore(filepath.Join(t.TempDir(), "state"))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "db", "wikifeed.db"))
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fs,
		"sqlite": db,
	}
	// set WIKIFEED_VALKEY_ADDR to run the contract against a live server
	if addr := os.Getenv("WIKIFEED_VALKEY_ADDR"); addr != "" {
		vs, err := NewValkeyStore(addr, os.Getenv("WIKIFEED_VALKEY_PASSWORD"))
		if err != nil {
			t.Fatalf("NewValkeyStore failed: %v", err)
		}
		t.Cleanup(func() { vs.Close() })
		stores["valkey"] = vs
	}
	return stores
}

func TestValkeyUnreachable(t *testing.T) {
	if _, err := NewValkeyStore("127.0.0.1:1", ""); err == nil {
		t.Fatal("expected an error for an unreachable server")
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}

			if err := s.Set(ctx, BookmarksKey, []byte(`[1]`)); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			if err := s.Set(ctx, BookmarksKey, []byte(`[1,2]`)); err != nil {
				t.Fatalf("overwrite failed: %v", err)
			}

			got, err := s.Get(ctx, BookmarksKey)
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if string(got) != `[1,2]` {
				t.Errorf("expected latest value, got %s", got)
			}
		})
	}
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	v := []byte("abc")
	s.Set(ctx, "k", v)
	v[0] = 'x'

	got, _ := s.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("store aliased caller buffer: %s", got)
	}
}

func TestFileStoreSanitisesKeys(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	if err := s.Set(context.Background(), "../escape", []byte("x")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if p := s.path("../escape"); filepath.Dir(p) != dir {
		t.Errorf("key escaped the state directory: %s", p)
	}
}
