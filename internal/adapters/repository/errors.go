package repository

import "errors"

// Sentinel kinds for snapshot lookups.
var (
	ErrNotFound = errors.New("week not found")
	ErrEmpty    = errors.New("no snapshot published")
)
