package localstore

import (
	"context"
	"sync"

	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/model"
)

// MemoryStore keeps the encoded collection in process memory.
type MemoryStore struct {
	mu     sync.Mutex
	raw    []byte
	closed bool
	opts   options
}

// NewMemory returns an empty in-memory store.
func NewMemory(opts ...Option) *MemoryStore {
	return &MemoryStore{opts: buildOptions(opts)}
}

// SetRaw replaces the stored bytes verbatim.
func (s *MemoryStore) SetRaw(raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = append([]byte(nil), raw...)
}

// LoadAll implements Store.
func (s *MemoryStore) LoadAll(ctx context.Context) ([]model.Evaluation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	return decode(ctx, s.opts.log, "memory", s.raw), nil
}

// SaveAll implements Store.
func (s *MemoryStore) SaveAll(_ context.Context, records []model.Evaluation) (err error) {
	defer func() { recordSave(err) }()

	b, err := encode(records)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.raw = b
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
