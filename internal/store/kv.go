// Package store persists daydesk state on the local filesystem: JSON
// documents by key, attachment blobs by id, and a debounced writer that
// coalesces bursts of changes into a single save.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

// ErrNotFound is returned when a key or blob does not exist.
var ErrNotFound = errors.New("not found")

var validKey = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// KV stores JSON documents as one file per key under a directory.
type KV struct {
	dir string
	mu  sync.Mutex
}

// NewKV creates the directory if needed and returns a KV rooted at it.
func NewKV(dir string) (*KV, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &KV{dir: dir}, nil
}

func (kv *KV) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(kv.dir, key+".json"), nil
}

// Get decodes the document stored under key into v.
func (kv *KV) Get(key string, v any) error {
	p, err := kv.path(key)
	if err != nil {
		return err
	}
	kv.mu.Lock()
	defer kv.mu.Unlock()

	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("key %s: %w", key, ErrNotFound)
		}
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

// Put encodes v and replaces the document stored under key.
func (kv *KV) Put(key string, v any) error {
	p, err := kv.path(key)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	kv.mu.Lock()
	defer kv.mu.Unlock()

	tmp, err := os.CreateTemp(kv.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace %s: %w", key, err)
	}
	return nil
}
