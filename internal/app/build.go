package service

import (
	"context"
	"fmt"

	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/adapters/localstore"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/adapters/remote"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/config"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/catalog"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/pkg/logger"
)

// FromConfig assembles a Service from process configuration: the local
// store driver, the remote client and the catalog. extra options are
// applied last. The caller owns the returned Service and must Stop it,
// which also closes the local store.
func FromConfig(ctx context.Context, cfg *config.Config, log logger.Logger, extra ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	client, err := remote.New(cfg.Remote.URL,
		remote.WithTimeout(cfg.Remote.Timeout),
		remote.WithOptimisticConcurrency(cfg.Remote.OptimisticConcurrency),
		remote.WithLogger(log.Named("remote")),
	)
	if err != nil {
		return nil, err
	}

	local, err := localstore.Open(ctx, cfg.LocalStore, localstore.WithLogger(log.Named("localstore")))
	if err != nil {
		return nil, err
	}

	opts := []Option{
		WithLogger(log.Named("sync")),
		WithRemote(client),
		WithLocalStore(local),
		WithPollInterval(cfg.PollInterval),
		WithCatalog(cat),
	}
	return New(append(opts, extra...)...), nil
}
