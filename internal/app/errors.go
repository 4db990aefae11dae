package service

import (
	"errors"

	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/adapters/repository"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/model"
)

// Sentinel error kinds returned by the Service.
var (
	// ErrValidation means the draft was rejected before anything was sent.
	ErrValidation = model.ErrValidation
	// ErrNotFound means no record has the requested id.
	ErrNotFound = repository.ErrNotFound

	ErrPullFailed   = errors.New("pull from remote document failed")
	ErrPushFailed   = errors.New("push to remote document failed")
	ErrConflict     = errors.New("remote document was modified concurrently")
	ErrSyncInFlight = errors.New("a sync cycle is already in progress")
	ErrNoRemote     = errors.New("no remote document configured")
	ErrStopped      = errors.New("sync service stopped")
)
