// Package repository holds the in-memory evaluation collection the
// presentation layers read from.
package repository

import (
	"context"
	"sync"

	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/model"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/query"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/pkg/metrics"
)

// Reader is the read side used by handlers and the TUI.
type Reader interface {
	All(ctx context.Context) []model.Evaluation
	Get(ctx context.Context, id string) (model.Evaluation, error)
	Query(ctx context.Context, search string) []model.Evaluation
	Count(ctx context.Context) int
}

// Repository is an RWMutex guarded snapshot of the collection. Every read
// returns deep copies, so callers can never alias the stored ratings.
type Repository struct {
	mu        sync.RWMutex
	records   []model.Evaluation
	index     map[string]int
	populated bool
	onChange  func(n int)
}

// New returns an empty, unpopulated repository.
func New(opts ...Option) *Repository {
	r := &Repository{
		index:    map[string]int{},
		onChange: metrics.UpdateRecords,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Replace swaps in a whole new collection, preserving its order. The
// repository counts as populated afterwards even when records is empty.
func (r *Repository) Replace(_ context.Context, records []model.Evaluation) {
	next := model.CloneAll(records)
	index := make(map[string]int, len(next))
	for i, ev := range next {
		if _, dup := index[ev.ID]; !dup {
			index[ev.ID] = i
		}
	}

	r.mu.Lock()
	r.records = next
	r.index = index
	r.populated = true
	n := len(next)
	r.mu.Unlock()

	if r.onChange != nil {
		r.onChange(n)
	}
}

// All returns the collection in stored order.
func (r *Repository) All(_ context.Context) []model.Evaluation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return model.CloneAll(r.records)
}

// Get returns the first record with id.
func (r *Repository) Get(_ context.Context, id string) (model.Evaluation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[id]
	if !ok {
		return model.Evaluation{}, ErrNotFound
	}
	return r.records[i].Clone(), nil
}

// Count returns the number of stored records.
func (r *Repository) Count(_ context.Context) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Populated reports whether Replace has ever been called.
func (r *Repository) Populated() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.populated
}

// Query returns the records matching search, newest first.
func (r *Repository) Query(_ context.Context, search string) []model.Evaluation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return query.Filter(r.records, search)
}
