package model

import (
	"errors"
	"fmt"
)

// Sentinel error kinds shared by the pipeline stages.
var (
	ErrDataIntegrity   = errors.New("data integrity violation")
	ErrEmptyPopulation = errors.New("empty population")
	ErrTaskFailed      = errors.New("competition task failed")
)

// DataIntegrityError rejects one input row that breaks the table contract.
type DataIntegrityError struct {
	Row    int
	Field  string
	Value  string
	Reason string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("row %d: field %s=%q: %s", e.Row, e.Field, e.Value, e.Reason)
}

func (e *DataIntegrityError) Unwrap() error { return ErrDataIntegrity }

// TaskFailure is the failure of a single competition evaluation.
type TaskFailure struct {
	CompetitionID string
	Err           error
}

func (e *TaskFailure) Error() string {
	return fmt.Sprintf("competition %s: %v", e.CompetitionID, e.Err)
}

// Unwrap exposes both ErrTaskFailed and the underlying cause to errors.Is.
func (e *TaskFailure) Unwrap() []error { return []error{ErrTaskFailed, e.Err} }
