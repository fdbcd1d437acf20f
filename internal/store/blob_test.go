package store

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestBlobStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewBlobStore(dir, 2)
	if err != nil {
		t.Fatalf("NewBlobStore failed: %v", err)
	}

	if err := s.Put(ctx, "file-1", "notes.txt", "text/plain", strings.NewReader("hello")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// A fresh store reads from disk rather than the cache.
	cold, err := NewBlobStore(dir, 2)
	if err != nil {
		t.Fatalf("NewBlobStore failed: %v", err)
	}
	for _, store := range []*BlobStore{s, cold} {
		b, err := store.Get(ctx, "file-1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(b.Data) != "hello" || b.Name != "notes.txt" || b.Type != "text/plain" {
			t.Errorf("Unexpected blob %+v", b)
		}
	}

	if err := s.Delete(ctx, "file-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get(ctx, "file-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete(ctx, "file-1"); err != nil {
		t.Errorf("Deleting a missing blob should succeed, got %v", err)
	}
}

func TestBlobStoreRejectsBadIDs(t *testing.T) {
	s, err := NewBlobStore(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewBlobStore failed: %v", err)
	}
	if err := s.Put(context.Background(), "../x", "x", "", strings.NewReader("")); err == nil {
		t.Error("Expected error for path-like id")
	}
}
