package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/spf13/afero"
)

const (
	schemaVersion = "1.0"
	lockTimeout   = 5 * time.Second
)

// Locker serializes writers of one backing file across processes.
type Locker interface {
	Lock(timeout time.Duration) error
	Unlock() error
}

type nopLock struct{}

func (nopLock) Lock(time.Duration) error { return nil }
func (nopLock) Unlock() error            { return nil }

// FileBackend implements Backend using a single JSON document.
//
// Every write takes the cross-process lock, re-reads the document, changes
// exactly one key and commits atomically. Two processes writing different
// keys therefore never lose each other's records; two processes writing the
// same key resolve last-writer-wins.
type FileBackend struct {
	fs   afero.Fs
	path string
	lock Locker
	mu   sync.Mutex
}

// document is the top-level JSON structure.
type document struct {
	Version   string            `json:"version"`
	UpdatedAt time.Time         `json:"updated_at"`
	Records   map[string]string `json:"records"`
}

// NewFileBackend opens the document at path on the OS filesystem.
// The file is created lazily on the first write.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{
		fs:   afero.NewOsFs(),
		path: path,
		lock: NewFileLock(path),
	}
}

// NewFileBackendFs opens the document at path on fs without OS-level locking.
// Intended for in-memory filesystems.
func NewFileBackendFs(fs afero.Fs, path string) *FileBackend {
	return &FileBackend{fs: fs, path: path, lock: nopLock{}}
}

// Path returns the location of the backing document.
func (b *FileBackend) Path() string { return b.path }

func (b *FileBackend) Get(ctx context.Context, key string) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	doc, err := b.load()
	if err != nil {
		return "", false, err
	}
	v, ok := doc.Records[key]
	return v, ok, nil
}

func (b *FileBackend) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return &StorageError{Op: "write", Entity: "record", Err: ErrInvalidInput}
	}
	return b.update(func(doc *document) {
		doc.Records[key] = value
	})
}

func (b *FileBackend) Remove(ctx context.Context, key string) error {
	return b.update(func(doc *document) {
		delete(doc.Records, key)
	})
}

func (b *FileBackend) Keys(ctx context.Context) ([]string, error) {
	records, err := b.Snapshot()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(records))
	for k := range records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Snapshot returns a copy of every record currently in the document.
func (b *FileBackend) Snapshot() (map[string]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	doc, err := b.load()
	if err != nil {
		return nil, err
	}
	return doc.Records, nil
}

func (b *FileBackend) update(fn func(doc *document)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.lock.Lock(lockTimeout); err != nil {
		return err
	}
	defer b.lock.Unlock()

	doc, err := b.load()
	if err != nil {
		return err
	}
	fn(doc)
	return b.save(doc)
}

// load reads the document. A missing file yields an empty document.
func (b *FileBackend) load() (*document, error) {
	data, err := afero.ReadFile(b.fs, b.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return newDocument(), nil
		}
		return nil, &StorageError{Op: "read", Entity: "store", ID: b.path, Err: err}
	}

	doc := &document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, &StorageError{Op: "read", Entity: "store", ID: b.path, Err: ErrStorageCorrupt}
	}
	if doc.Records == nil {
		doc.Records = make(map[string]string)
	}
	return doc, nil
}

// save persists the document atomically.
func (b *FileBackend) save(doc *document) error {
	doc.Version = schemaVersion
	doc.UpdatedAt = time.Now()

	writer, err := NewAtomicWriter(b.fs, b.path)
	if err != nil {
		return &StorageError{Op: "write", Entity: "store", ID: b.path, Err: err}
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		writer.Abort()
		return &StorageError{Op: "write", Entity: "store", ID: b.path, Err: err}
	}

	if err := writer.Commit(); err != nil {
		return &StorageError{Op: "write", Entity: "store", ID: b.path, Err: err}
	}
	return nil
}

func newDocument() *document {
	return &document{
		Version:   schemaVersion,
		UpdatedAt: time.Now(),
		Records:   make(map[string]string),
	}
}
