package state

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FileStore keeps one JSON file per Ref under a root directory. Writes go to a
// temporary file that is renamed over the target so readers never see a
// partial record.
type FileStore[T any] struct {
	root string
	mu   sync.Mutex
	now  func() time.Time
}

// NewFileStore creates root when missing.
func NewFileStore[T any](root string) (*FileStore[T], error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("state: file store root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("state: create %s: %w", root, err)
	}
	return &FileStore[T]{root: filepath.Clean(root), now: time.Now}, nil
}

// Path returns the file backing ref.
func (s *FileStore[T]) Path(ref Ref) (string, error) {
	key, err := ref.Identifier()
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(key)+".json"), nil
}

func (s *FileStore[T]) Load(_ context.Context, ref Ref) (T, Meta, bool, error) {
	var zero T
	path, err := s.Path(ref)
	if err != nil {
		return zero, Meta{}, false, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return zero, Meta{}, false, nil
	}
	if err != nil {
		return zero, Meta{}, false, fmt.Errorf("state: read %s: %w", path, err)
	}
	snapshot, meta, err := decodeEnvelope[T](data)
	if err != nil {
		return zero, Meta{}, false, fmt.Errorf("%s: %w", path, err)
	}
	return snapshot, meta, true, nil
}

func (s *FileStore[T]) Save(_ context.Context, ref Ref, snapshot T, meta Meta) (Meta, error) {
	path, err := s.Path(ref)
	if err != nil {
		return Meta{}, err
	}
	stamped := Stamp(meta, s.now())
	data, err := encodeEnvelope(snapshot, stamped)
	if err != nil {
		return Meta{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeFileAtomic(path, data); err != nil {
		return Meta{}, err
	}
	return stamped, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("state: create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("state: temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("state: write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("state: sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("state: close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("state: rename %s: %w", path, err)
	}
	return nil
}
