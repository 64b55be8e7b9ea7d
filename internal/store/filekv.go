package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileKV persists each document as one JSON file under a data directory.
// Writes go to a temp file first and are renamed into place, so a crash
// mid-write never corrupts the previous snapshot.
type FileKV struct {
	dir string
}

// NewFileKV creates the data directory if needed and returns a file-backed KV.
func NewFileKV(dir string) (*FileKV, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("filekv: data directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("filekv: create data directory: %w", err)
	}
	return &FileKV{dir: dir}, nil
}

func (f *FileKV) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

// Get reads the document stored under key, or ErrKeyNotFound.
func (f *FileKV) Get(ctx context.Context, key string) ([]byte, error) {
	doc, err := os.ReadFile(f.path(key))
	if os.IsNotExist(err) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("filekv: read %s: %w", key, err)
	}
	return doc, nil
}

// Put durably replaces the document under key via temp-file-and-rename.
func (f *FileKV) Put(ctx context.Context, key string, doc []byte) error {
	target := f.path(key)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, doc, 0o644); err != nil {
		return fmt.Errorf("filekv: write %s: %w", key, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("filekv: replace %s: %w", key, err)
	}
	return nil
}

// Delete removes the document under key. Deleting an absent key is not an error.
func (f *FileKV) Delete(ctx context.Context, key string) error {
	if err := os.Remove(f.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("filekv: delete %s: %w", key, err)
	}
	return nil
}
