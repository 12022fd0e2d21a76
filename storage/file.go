package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// File is a Store backed by a single JSON document on disk. Writes go
// through a temp file and rename so a crash never leaves a torn document.
type File struct {
	path string
	mu   sync.Mutex
}

// fileDocument is the on-disk layout. Data values are base64 in the
// document, handled by encoding/json's []byte convention.
type fileDocument struct {
	Bools map[string]bool   `json:"bools"`
	Data  map[string][]byte `json:"data"`
}

// NewFile returns a Store persisting to the given path. The parent directory
// is created if missing; the file itself is created on first write.
func NewFile(path string) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	return &File{path: path}, nil
}

// load reads the current document. A missing file yields an empty document.
func (f *File) load() (*fileDocument, error) {
	doc := &fileDocument{
		Bools: make(map[string]bool),
		Data:  make(map[string][]byte),
	}

	raw, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return doc, nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("parse state file: %w", err)
	}
	if doc.Bools == nil {
		doc.Bools = make(map[string]bool)
	}
	if doc.Data == nil {
		doc.Data = make(map[string][]byte)
	}
	return doc, nil
}

// save writes the document atomically.
func (f *File) save(doc *fileDocument) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode state file: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

func (f *File) GetBool(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return false, err
	}
	return doc.Bools[key], nil
}

func (f *File) SetBool(_ context.Context, key string, value bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return err
	}
	doc.Bools[key] = value
	return f.save(doc)
}

func (f *File) GetData(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return nil, err
	}
	value, ok := doc.Data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return value, nil
}

func (f *File) SetData(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return err
	}
	doc.Data[key] = value
	return f.save(doc)
}

func (f *File) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return err
	}
	delete(doc.Bools, key)
	delete(doc.Data, key)
	return f.save(doc)
}
