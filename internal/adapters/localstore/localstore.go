// Package localstore keeps the durable local copy of the evaluation collection.
//
// The whole collection is stored as one JSON array under a fixed key. Saves
// overwrite the document; there are no partial writes.
package localstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/config"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/model"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/pkg/logger"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/pkg/metrics"
)

// Key names the stored document in every backend.
const Key = "gautier_evals"

// Store is the local durable copy used when the remote document is unreachable.
type Store interface {
	// LoadAll returns the stored collection, empty when nothing is stored or
	// the stored data cannot be decoded.
	LoadAll(ctx context.Context) ([]model.Evaluation, error)
	// SaveAll replaces the stored collection.
	SaveAll(ctx context.Context, records []model.Evaluation) error
	Close() error
}

// Option configures a backend.
type Option func(*options)

type options struct {
	log logger.Logger
}

// WithLogger sets the logger used for decode warnings.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{log: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Open builds the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.LocalStore, opts ...Option) (Store, error) {
	switch cfg.Driver {
	case config.DriverFile, "":
		return NewFile(cfg.Path, opts...)
	case config.DriverSQLite:
		return NewSQLite(ctx, cfg.Path, opts...)
	case config.DriverMemory:
		return NewMemory(opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

func encode(records []model.Evaluation) ([]byte, error) {
	if records == nil {
		records = []model.Evaluation{}
	}
	b, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return b, nil
}

// decode treats unreadable data as "no local data".
func decode(ctx context.Context, log logger.Logger, backend string, raw []byte) []model.Evaluation {
	if len(raw) == 0 {
		return []model.Evaluation{}
	}
	var records []model.Evaluation
	if err := json.Unmarshal(raw, &records); err != nil {
		log.Warn(ctx, "discarding undecodable local data",
			logger.String("backend", backend),
			logger.Int("bytes", len(raw)),
			logger.Error(err))
		metrics.RecordLocalStore("load", metrics.ResultInvalid)
		return []model.Evaluation{}
	}
	if records == nil {
		records = []model.Evaluation{}
	}
	metrics.RecordLocalStore("load", metrics.ResultOK)
	return records
}

func recordSave(err error) {
	if err != nil {
		metrics.RecordLocalStore("save", metrics.ResultError)
		return
	}
	metrics.RecordLocalStore("save", metrics.ResultOK)
}
