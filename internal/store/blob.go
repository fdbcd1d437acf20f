package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultBlobCacheSize is the number of blobs kept in memory.
const DefaultBlobCacheSize = 32

// Blob is an attachment and its metadata.
type Blob struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
	Data []byte `json:"-"`
}

// BlobStore keeps attachments as files under a directory, with a small
// in-memory cache in front of reads.
type BlobStore struct {
	dir   string
	cache *lru.Cache[string, *Blob]
}

// NewBlobStore creates the directory if needed.
func NewBlobStore(dir string, cacheSize int) (*BlobStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	if cacheSize <= 0 {
		cacheSize = DefaultBlobCacheSize
	}
	cache, err := lru.New[string, *Blob](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob cache: %w", err)
	}
	return &BlobStore{dir: dir, cache: cache}, nil
}

func (s *BlobStore) paths(id string) (data, meta string, err error) {
	if !validKey.MatchString(id) {
		return "", "", fmt.Errorf("invalid blob id %q", id)
	}
	return filepath.Join(s.dir, id), filepath.Join(s.dir, id+".meta.json"), nil
}

// Put stores the blob read from r under id.
func (s *BlobStore) Put(ctx context.Context, id, name, typ string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dataPath, metaPath, err := s.paths(id)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read attachment: %w", err)
	}
	blob := &Blob{ID: id, Name: name, Type: typ, Data: data}
	meta, err := json.Marshal(blob)
	if err != nil {
		return fmt.Errorf("failed to marshal attachment metadata: %w", err)
	}
	if err := os.WriteFile(dataPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write attachment: %w", err)
	}
	if err := os.WriteFile(metaPath, meta, 0600); err != nil {
		os.Remove(dataPath)
		return fmt.Errorf("failed to write attachment metadata: %w", err)
	}
	s.cache.Add(id, blob)
	return nil
}

// Get returns the blob stored under id, or ErrNotFound.
func (s *BlobStore) Get(ctx context.Context, id string) (*Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if b, ok := s.cache.Get(id); ok {
		return b, nil
	}
	dataPath, metaPath, err := s.paths(id)
	if err != nil {
		return nil, err
	}

	meta, err := os.ReadFile(metaPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("blob %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read attachment metadata: %w", err)
	}
	blob := &Blob{}
	if err := json.Unmarshal(meta, blob); err != nil {
		return nil, fmt.Errorf("failed to decode attachment metadata: %w", err)
	}
	blob.Data, err = os.ReadFile(dataPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("blob %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}
	s.cache.Add(id, blob)
	return blob, nil
}

// Delete removes the blob stored under id. Deleting a missing blob is not
// an error.
func (s *BlobStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dataPath, metaPath, err := s.paths(id)
	if err != nil {
		return err
	}
	s.cache.Remove(id)
	for _, p := range []string{dataPath, metaPath} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to delete attachment: %w", err)
		}
	}
	return nil
}
