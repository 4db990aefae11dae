package localstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/model"
)

// FileStore keeps the collection in <dir>/gautier_evals.json.
type FileStore struct {
	mu   sync.Mutex
	path string
	opts options
}

// NewFile returns a store rooted at dir. The directory is created on first save.
func NewFile(dir string, opts ...Option) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty directory", ErrWrite)
	}
	return &FileStore{
		path: filepath.Join(dir, Key+".json"),
		opts: buildOptions(opts),
	}, nil
}

// Path returns the document location.
func (s *FileStore) Path() string { return s.path }

// LoadAll implements Store.
func (s *FileStore) LoadAll(ctx context.Context) ([]model.Evaluation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []model.Evaluation{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	return decode(ctx, s.opts.log, "file", raw), nil
}

// SaveAll writes to a temp file in the same directory and renames it over
// the document so readers never observe a partial write.
func (s *FileStore) SaveAll(_ context.Context, records []model.Evaluation) (err error) {
	defer func() { recordSave(err) }()

	b, err := encode(records)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	tmp, err := os.CreateTemp(dir, Key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

// Close implements Store.
func (s *FileStore) Close() error { return nil }
