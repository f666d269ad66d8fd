// Package repository holds the read-only snapshot index over the weekly
// participant table.
package repository

import (
	"context"
	"time"

	"github.com/Octave-byte/cube-ranking/internal/domain/model"
)

// Store provides read access to the published weekly participant table.
type Store interface {
	// NextOnOrAfter returns the first row of person dated on or after date.
	// The boolean is false when the person has no such row.
	NextOnOrAfter(ctx context.Context, personID string, date time.Time) (model.PlayerWeek, bool)

	// LatestWeek returns the most recent week present in the table.
	// Returns ErrEmpty if nothing was published.
	LatestWeek(ctx context.Context) (time.Time, error)

	// Week returns every row of week in publication order.
	// Returns ErrNotFound if the week has no rows.
	Week(ctx context.Context, week time.Time) ([]model.PlayerWeek, error)

	// Count returns the number of rows in the current snapshot.
	Count(ctx context.Context) int
}
