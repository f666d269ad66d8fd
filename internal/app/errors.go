package service

import (
	"errors"
	"fmt"

	"github.com/Octave-byte/cube-ranking/internal/adapters/repository"
)

// Sentinel kinds for service errors. ErrNoRun also matches repository.ErrEmpty.
var (
	ErrNoRun         = fmt.Errorf("no completed pipeline run: %w", repository.ErrEmpty)
	ErrRunInProgress = errors.New("pipeline run already in progress")
)
