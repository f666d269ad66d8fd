package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Octave-byte/cube-ranking/internal/domain/model"
)

// File names inside a snapshot directory.
const (
	CompetitionsFile = "competitions.json"
	PersonsFile      = "persons.json"
	ResultsFile      = "results.json"
)

// page is the paginated layout of the public WCA REST export.
type page[T any] struct {
	Items []T `json:"items"`
}

// competitionItem is a competition as published by the WCA export, where the
// start date is nested under "date". A flat "date_from" is accepted too.
type competitionItem struct {
	ID             string   `json:"id"`
	Name           string   `json:"name,omitempty"`
	City           string   `json:"city,omitempty"`
	Country        string   `json:"country,omitempty"`
	Events         []string `json:"events"`
	IsCanceled     bool     `json:"isCanceled"`
	IsChampionship bool     `json:"isChampionship"`
	Date           struct {
		From string `json:"from,omitempty"`
		Till string `json:"till,omitempty"`
	} `json:"date"`
	DateFrom string `json:"date_from,omitempty"`
}

func (it competitionItem) competition(row int) (model.Competition, error) {
	c := model.Competition{
		ID:             it.ID,
		Name:           it.Name,
		City:           it.City,
		Country:        it.Country,
		Events:         it.Events,
		IsCanceled:     it.IsCanceled,
		IsChampionship: it.IsChampionship,
	}
	raw := it.Date.From
	if raw == "" {
		raw = it.DateFrom
	}
	if raw == "" {
		// left zero: the competition fails its own evaluation later
		return c, nil
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		return c, &model.DataIntegrityError{Row: row, Field: "date_from", Value: raw, Reason: err.Error()}
	}
	c.DateFrom = d
	return c, nil
}

func itemOf(c model.Competition) competitionItem {
	it := competitionItem{
		ID:             c.ID,
		Name:           c.Name,
		City:           c.City,
		Country:        c.Country,
		Events:         c.Events,
		IsCanceled:     c.IsCanceled,
		IsChampionship: c.IsChampionship,
	}
	if !c.DateFrom.IsZero() {
		it.Date.From = c.DateFrom.Format(model.DateLayout)
		it.Date.Till = it.Date.From
	}
	return it
}

// Dir reads the tables from a directory of JSON files.
type Dir struct {
	path string
}

// NewDir creates a Dir source rooted at path.
func NewDir(path string) *Dir {
	return &Dir{path: path}
}

// Load implements Source.
func (d *Dir) Load(ctx context.Context) (Tables, error) {
	var t Tables

	items, err := readTable[competitionItem](filepath.Join(d.path, CompetitionsFile))
	if err != nil {
		return t, err
	}
	t.Competitions = make([]model.Competition, 0, len(items))
	for i, it := range items {
		c, err := it.competition(i)
		if err != nil {
			return t, fmt.Errorf("%s: %w", CompetitionsFile, err)
		}
		t.Competitions = append(t.Competitions, c)
	}
	if err := ctx.Err(); err != nil {
		return t, err
	}

	if t.Persons, err = readTable[model.Person](filepath.Join(d.path, PersonsFile)); err != nil {
		return t, err
	}
	if t.Results, err = readTable[model.RawResult](filepath.Join(d.path, ResultsFile)); err != nil {
		return t, err
	}
	return t, nil
}

// Close implements Source.
func (d *Dir) Close() error { return nil }

// readTable decodes a bare array or an {"items": [...]} page.
func readTable[T any](path string) ([]T, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, fmt.Errorf("%s: %w: empty file", path, ErrMalformed)
	}

	if b[0] == '[' {
		var rows []T
		if err := json.Unmarshal(b, &rows); err != nil {
			return nil, fmt.Errorf("%s: %w: %w", path, ErrMalformed, err)
		}
		return rows, nil
	}
	var p page[T]
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", path, ErrMalformed, err)
	}
	return p.Items, nil
}

// WriteDir writes t as a snapshot directory readable by Dir, one page per
// file.
func WriteDir(path string, t Tables) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	items := make([]competitionItem, 0, len(t.Competitions))
	for _, c := range t.Competitions {
		items = append(items, itemOf(c))
	}
	return errors.Join(
		writePage(filepath.Join(path, CompetitionsFile), items),
		writePage(filepath.Join(path, PersonsFile), t.Persons),
		writePage(filepath.Join(path, ResultsFile), t.Results),
	)
}

func writePage[T any](path string, rows []T) error {
	if rows == nil {
		rows = []T{}
	}
	b, err := json.Marshal(page[T]{Items: rows})
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
