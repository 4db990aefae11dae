// Package service coordinates the in-memory collection, the local store and
// the shared remote document.
//
// Every pull, save and delete of one Service runs under a single lock, so at
// most one sync cycle is in flight. Scheduled pulls that find the lock taken
// are skipped; concurrent manual refreshes share one pull.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/adapters/localstore"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/adapters/remote"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/adapters/report"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/adapters/repository"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/adapters/scheduler"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/catalog"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/merge"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/model"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/stats"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/pkg/logger"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/pkg/metrics"
)

const defaultPollInterval = 60 * time.Second

// RemoteDocument is the shared collection endpoint.
type RemoteDocument interface {
	FetchDocument(ctx context.Context) (remote.Document, error)
	FetchForUpdate(ctx context.Context) (remote.Document, error)
	ReplaceDocument(ctx context.Context, records []model.Evaluation, baseVersion string) (remote.Document, error)
}

// Source says where the visible collection came from after a pull.
type Source string

// Pull outcomes.
const (
	SourceNone   Source = ""
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
	SourceMemory Source = "memory"
)

// PullResult describes one pull. Err is set when the remote could not be
// read, in which case the collection shown is stale.
type PullResult struct {
	Source  Source
	Records int
	Err     error
}

// Stale reports whether the pull fell back to previously known data.
func (r PullResult) Stale() bool { return r.Err != nil }

// Status is a snapshot of the sync state.
type Status struct {
	Syncing   bool      `json:"syncing"`
	LastSync  time.Time `json:"lastSync"`
	LastError string    `json:"lastError,omitempty"`
	Records   int       `json:"records"`
	Source    Source    `json:"source"`
}

// Service is the sync coordinator.
type Service struct {
	// cycle serialises pull, save and delete.
	cycle   sync.Mutex
	syncing atomic.Bool
	pulls   singleflight.Group

	remote       RemoteDocument
	local        localstore.Store
	repo         *repository.Repository
	catalog      *catalog.Catalog
	pollInterval time.Duration
	now          func() time.Time

	mu        sync.RWMutex
	started   bool
	stopped   bool
	task      *scheduler.Task
	lastSync  time.Time
	lastError string
	source    Source

	logger logger.Logger
}

// New constructs a Service. Nothing touches the network until Start or a
// sync operation is called.
func New(opts ...Option) *Service {
	s := &Service{
		pollInterval: defaultPollInterval,
		now:          time.Now,
		logger:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.local == nil {
		s.local = localstore.NewMemory(localstore.WithLogger(s.logger))
	}
	if s.repo == nil {
		s.repo = repository.New()
	}
	if s.catalog == nil {
		s.catalog = catalog.Default()
	}
	return s
}

// Start performs the startup pull and launches the background poller. A
// failed startup pull is not an error: the service falls back to local data.
func (s *Service) Start(ctx context.Context) error {
	if s.remote == nil {
		return ErrNoRemote
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.mu.Unlock()

	s.logger.Info(ctx, "starting sync service", logger.Duration("poll_interval", s.pollInterval))

	res := s.Refresh(ctx)
	if res.Err != nil {
		s.logger.Warn(ctx, "startup pull failed, showing stale data",
			logger.String("source", string(res.Source)),
			logger.Int("records", res.Records),
			logger.Error(res.Err))
	}

	if s.pollInterval <= 0 {
		return nil
	}
	task := scheduler.New("pull", s.pollInterval, s.tick, scheduler.WithLogger(s.logger))
	if err := task.Start(ctx); err != nil {
		return fmt.Errorf("start poller: %w", err)
	}

	s.mu.Lock()
	s.task = task
	s.mu.Unlock()
	return nil
}

// Stop halts the poller, waits for a sync cycle in progress and closes the
// local store. It is safe to call more than once, and also on a Service that
// was never started. A stopped Service cannot be started again.
func (s *Service) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.started = false
	task := s.task
	s.task = nil
	s.mu.Unlock()

	ctx := context.Background()
	s.logger.Info(ctx, "stopping sync service")
	if task != nil {
		task.Stop()
	}

	s.cycle.Lock()
	defer s.cycle.Unlock()
	if err := s.local.Close(); err != nil {
		s.logger.Warn(ctx, "closing local store", logger.Error(err))
	}
}

// Polling reports whether the background poller is running.
func (s *Service) Polling() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.task != nil && s.task.Running()
}

// tick is the scheduled pull.
func (s *Service) tick(ctx context.Context) error {
	if !s.cycle.TryLock() {
		metrics.RecordSyncSkipped()
		s.logger.Debug(ctx, "skipping scheduled pull, a sync cycle is in flight")
		return nil
	}
	defer s.cycle.Unlock()
	s.pullLocked(ctx)
	return nil
}

// Refresh pulls now. Concurrent calls share a single pull and its result.
func (s *Service) Refresh(ctx context.Context) PullResult {
	v, _, _ := s.pulls.Do("pull", func() (any, error) {
		s.cycle.Lock()
		defer s.cycle.Unlock()
		return s.pullLocked(ctx), nil
	})
	return v.(PullResult)
}

// TryRefresh pulls now unless a sync cycle is already running, in which case
// it returns ErrSyncInFlight without waiting.
func (s *Service) TryRefresh(ctx context.Context) (PullResult, error) {
	if !s.cycle.TryLock() {
		return PullResult{}, ErrSyncInFlight
	}
	defer s.cycle.Unlock()
	return s.pullLocked(ctx), nil
}

// pullLocked must be called with s.cycle held.
func (s *Service) pullLocked(ctx context.Context) PullResult {
	if s.remote == nil {
		return PullResult{Source: s.currentSource(), Records: s.repo.Count(ctx), Err: ErrNoRemote}
	}

	start := s.begin()
	defer s.end("pull", start)

	doc, err := s.remote.FetchDocument(ctx)
	if err == nil {
		s.repo.Replace(ctx, doc.Records)
		s.mirrorLocal(ctx, doc.Records)
		s.markSynced(SourceRemote)
		metrics.RecordPull(metrics.PullRemote)
		s.logger.Debug(ctx, "pulled remote document", logger.Int("records", len(doc.Records)))
		return PullResult{Source: SourceRemote, Records: len(doc.Records)}
	}

	s.logger.Warn(ctx, "remote pull failed", logger.Error(err))
	res := PullResult{Source: SourceMemory, Err: fmt.Errorf("%w: %w", ErrPullFailed, err)}
	if s.repo.Populated() {
		metrics.RecordPull(metrics.PullMemoryKept)
	} else {
		records, lerr := s.local.LoadAll(ctx)
		if lerr != nil {
			s.logger.Warn(ctx, "local store unreadable, starting empty", logger.Error(lerr))
			records = nil
		}
		s.repo.Replace(ctx, records)
		res.Source = SourceLocal
		metrics.RecordPull(metrics.PullLocalFallback)
	}
	res.Records = s.repo.Count(ctx)
	s.markFailed(err, res.Source)
	return res
}

// Save validates the draft and pushes it: the remote document is re-read,
// the record is replaced in place or prepended, and the whole collection is
// written back. Only after the write succeeds are the in-memory collection
// and the local store updated.
func (s *Service) Save(ctx context.Context, draft model.Draft) (model.Evaluation, error) {
	if err := draft.Validate(); err != nil {
		metrics.RecordWrite("save", metrics.ResultInvalid)
		return model.Evaluation{}, err
	}
	if s.remote == nil {
		return model.Evaluation{}, ErrNoRemote
	}

	s.cycle.Lock()
	defer s.cycle.Unlock()

	start := s.begin()
	defer s.end("save", start)

	var createdAt model.Timestamp
	if !draft.IsNew() {
		if prev, err := s.repo.Get(ctx, draft.ID); err == nil {
			createdAt = prev.Date
		}
	}

	doc, err := s.remote.FetchForUpdate(ctx)
	if err != nil {
		return model.Evaluation{}, s.pushFailed(ctx, "save", err)
	}
	if !draft.IsNew() && createdAt.IsZero() {
		if i := merge.Index(doc.Records, draft.ID); i >= 0 {
			createdAt = doc.Records[i].Date
		}
	}

	ev := draft.Record(s.now(), createdAt)
	if i := merge.Index(doc.Records, ev.ID); i >= 0 {
		ev = ev.KeepUnknown(doc.Records[i])
	}
	merged, replaced := merge.Upsert(doc.Records, ev)
	if _, err := s.remote.ReplaceDocument(ctx, merged, doc.Version); err != nil {
		return model.Evaluation{}, s.pushFailed(ctx, "save", err)
	}

	s.commit(ctx, merged)
	metrics.RecordWrite("save", metrics.ResultOK)
	s.logger.Info(ctx, "saved evaluation",
		logger.String("id", ev.ID),
		logger.Bool("replaced", replaced),
		logger.Int("records", len(merged)))
	return ev, nil
}

// Delete removes a record with the same read-modify-write as Save. An id
// missing from the fresh remote collection is ErrNotFound and nothing is
// written.
func (s *Service) Delete(ctx context.Context, id string) error {
	if s.remote == nil {
		return ErrNoRemote
	}

	s.cycle.Lock()
	defer s.cycle.Unlock()

	start := s.begin()
	defer s.end("delete", start)

	doc, err := s.remote.FetchForUpdate(ctx)
	if err != nil {
		return s.pushFailed(ctx, "delete", err)
	}
	remaining, removed := merge.Remove(doc.Records, id)
	if !removed {
		metrics.RecordWrite("delete", metrics.ResultInvalid)
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if _, err := s.remote.ReplaceDocument(ctx, remaining, doc.Version); err != nil {
		return s.pushFailed(ctx, "delete", err)
	}

	s.commit(ctx, remaining)
	metrics.RecordWrite("delete", metrics.ResultOK)
	s.logger.Info(ctx, "deleted evaluation", logger.String("id", id), logger.Int("records", len(remaining)))
	return nil
}

// commit mirrors a successful write. Must be called with s.cycle held.
func (s *Service) commit(ctx context.Context, records []model.Evaluation) {
	s.repo.Replace(ctx, records)
	s.mirrorLocal(ctx, records)
	s.markSynced(SourceRemote)
}

func (s *Service) pushFailed(ctx context.Context, op string, err error) error {
	s.setLastError(err)
	if errors.Is(err, remote.ErrConflict) {
		metrics.RecordWrite(op, metrics.ResultConflict)
		s.logger.Warn(ctx, "remote document changed underneath the write", logger.String("op", op), logger.Error(err))
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	metrics.RecordWrite(op, metrics.ResultError)
	s.logger.Error(ctx, "push failed", logger.String("op", op), logger.Error(err))
	return fmt.Errorf("%w: %w", ErrPushFailed, err)
}

// mirrorLocal writes the local copy. A failing local store never fails a
// sync cycle, the remote document is the shared truth.
func (s *Service) mirrorLocal(ctx context.Context, records []model.Evaluation) {
	if err := s.local.SaveAll(ctx, records); err != nil {
		s.logger.Warn(ctx, "mirroring to local store failed", logger.Error(err))
	}
}

func (s *Service) begin() time.Time {
	s.syncing.Store(true)
	metrics.SetSyncInFlight(true)
	return time.Now()
}

func (s *Service) end(op string, start time.Time) {
	metrics.ObserveSync(op, time.Since(start))
	metrics.SetSyncInFlight(false)
	s.syncing.Store(false)
}

func (s *Service) markSynced(src Source) {
	now := s.now()
	s.mu.Lock()
	s.lastSync = now
	s.lastError = ""
	s.source = src
	s.mu.Unlock()
	metrics.UpdateLastSync(now)
}

func (s *Service) markFailed(err error, src Source) {
	s.mu.Lock()
	s.lastError = err.Error()
	s.source = src
	s.mu.Unlock()
}

func (s *Service) setLastError(err error) {
	s.mu.Lock()
	s.lastError = err.Error()
	s.mu.Unlock()
}

func (s *Service) currentSource() Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// Status returns a snapshot of the sync state.
func (s *Service) Status(ctx context.Context) Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		Syncing:   s.syncing.Load(),
		LastSync:  s.lastSync,
		LastError: s.lastError,
		Records:   s.repo.Count(ctx),
		Source:    s.source,
	}
}

// List returns the records matching search, newest first.
func (s *Service) List(ctx context.Context, search string) []model.Evaluation {
	return s.repo.Query(ctx, search)
}

// Get returns one record from the in-memory collection.
func (s *Service) Get(ctx context.Context, id string) (model.Evaluation, error) {
	return s.repo.Get(ctx, id)
}

// Overview computes collection statistics.
func (s *Service) Overview(ctx context.Context) stats.Overview {
	return stats.Compute(s.repo.All(ctx))
}

// Catalog returns the evaluation structure.
func (s *Service) Catalog() *catalog.Catalog { return s.catalog }

// Report resolves one record against the catalog.
func (s *Service) Report(ctx context.Context, id string) (report.Detail, model.Evaluation, error) {
	ev, err := s.repo.Get(ctx, id)
	if err != nil {
		return report.Detail{}, model.Evaluation{}, err
	}
	return report.Resolve(ev, s.catalog), ev, nil
}
