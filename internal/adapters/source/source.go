// Package source loads the input tables of the pipeline from a JSON snapshot
// directory or a PostgreSQL database.
package source

import (
	"context"
	"errors"

	"github.com/Octave-byte/cube-ranking/internal/domain/model"
)

// Sentinel kinds for source errors.
var (
	ErrNoDatabaseURL = errors.New("database url is empty")
	ErrMalformed     = errors.New("malformed table")
)

// Tables is one consistent read of the three input tables.
type Tables struct {
	Results      []model.RawResult
	Competitions []model.Competition
	Persons      []model.Person
}

// Source supplies input tables.
type Source interface {
	// Load reads all three tables.
	Load(ctx context.Context) (Tables, error)
	// Close releases any held resources.
	Close() error
}
