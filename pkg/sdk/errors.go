package xover

import (
	"errors"

	"github.com/kailas-cloud/xover/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidJob     = domain.ErrInvalidJob
	ErrInvalidOptions = domain.ErrInvalidOptions
	ErrNoInputData    = domain.ErrNoInputData
	ErrNotFound       = domain.ErrNotFound
)

// ErrStagesDisabled is returned by Stages when the client has no database.
var ErrStagesDisabled = errors.New("xover: stage bookkeeping disabled (use WithRedis)")
