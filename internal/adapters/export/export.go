// Package export writes the derived tables as JSON files.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Octave-byte/cube-ranking/internal/domain/latest"
	"github.com/Octave-byte/cube-ranking/internal/domain/model"
)

// File names inside the output directory.
const (
	PlayerWeeksFile        = "player_weeks.json"
	CompetitionRankingFile = "competition_ranking.json"
	LatestPlayersFile      = "latest_players.json"
	LatestCompetitionsFile = "latest_competitions.json"
)

// Writer writes tables under one directory. Each file is replaced atomically.
type Writer struct {
	dir string
}

// NewWriter creates a Writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// PlayerWeeks writes the weekly participant table.
func (w *Writer) PlayerWeeks(rows []model.PlayerWeek) error {
	return w.write(PlayerWeeksFile, rows)
}

// CompetitionRanking writes the competition ranking table.
func (w *Writer) CompetitionRanking(rows []model.CompetitionStat) error {
	return w.write(CompetitionRankingFile, rows)
}

// LatestPlayers writes the latest player view.
func (w *Writer) LatestPlayers(rows []model.PlayerWeek) error {
	return w.write(LatestPlayersFile, rows)
}

// LatestCompetitions writes the latest competition view.
func (w *Writer) LatestCompetitions(rows []latest.CompetitionRow) error {
	return w.write(LatestCompetitionsFile, rows)
}

func (w *Writer) write(name string, v any) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", w.dir, err)
	}
	tmp, err := os.CreateTemp(w.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", name, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after rename

	enc := json.NewEncoder(tmp)
	if err := enc.Encode(nonNil(v)); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(w.dir, name)); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

// nonNil turns nil tables into empty arrays so consumers always read a list.
func nonNil(v any) any {
	switch t := v.(type) {
	case []model.PlayerWeek:
		if t == nil {
			return []model.PlayerWeek{}
		}
	case []model.CompetitionStat:
		if t == nil {
			return []model.CompetitionStat{}
		}
	case []latest.CompetitionRow:
		if t == nil {
			return []latest.CompetitionRow{}
		}
	}
	return v
}
