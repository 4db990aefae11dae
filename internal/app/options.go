package service

import (
	"time"

	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/adapters/localstore"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/adapters/repository"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/catalog"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRemote sets the shared document the service synchronises with.
func WithRemote(r RemoteDocument) Option {
	return func(s *Service) {
		if r != nil {
			s.remote = r
		}
	}
}

// WithLocalStore sets the durable local copy. Defaults to an in-memory store.
func WithLocalStore(store localstore.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.local = store
		}
	}
}

// WithRepository sets the in-memory collection the service maintains.
func WithRepository(r *repository.Repository) Option {
	return func(s *Service) {
		if r != nil {
			s.repo = r
		}
	}
}

// WithPollInterval sets the period of the background pull. Zero disables it.
func WithPollInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.pollInterval = d
		}
	}
}

// WithClock sets the time source for record dates and sync timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCatalog sets the evaluation structure used for reports and statistics.
func WithCatalog(c *catalog.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}
