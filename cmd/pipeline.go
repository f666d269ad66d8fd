package main

import (
	"context"
	"fmt"

	"github.com/Octave-byte/cube-ranking/internal/adapters/export"
	"github.com/Octave-byte/cube-ranking/internal/adapters/source"
	service "github.com/Octave-byte/cube-ranking/internal/app"
	"github.com/Octave-byte/cube-ranking/internal/config"
)

// openSource returns the configured table source.
func openSource(ctx context.Context, cfg *config.Config) (source.Source, error) {
	switch cfg.InputDriver {
	case config.DriverPostgres:
		pg, err := source.NewPostgres(ctx, cfg.DatabaseURL, int32(cfg.DatabaseMaxConns)) //nolint:gosec // bounded by validation
		if err != nil {
			return nil, err
		}
		return pg, nil
	default:
		return source.NewDir(cfg.InputDir), nil
	}
}

// runPipeline loads the inputs, runs the service and writes every table.
func runPipeline(ctx context.Context, cfg *config.Config, svc *service.Service) (*service.Output, error) {
	src, err := openSource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = src.Close() }()

	tables, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load input: %w", err)
	}
	out, err := svc.Run(ctx, tables)
	if err != nil {
		return nil, err
	}

	w := export.NewWriter(cfg.OutputDir)
	if err := w.PlayerWeeks(out.PlayerWeeks); err != nil {
		return nil, err
	}
	if err := w.CompetitionRanking(out.Competitions); err != nil {
		return nil, err
	}
	players, err := svc.LatestPlayers(ctx)
	if err != nil {
		return nil, err
	}
	if err := w.LatestPlayers(players); err != nil {
		return nil, err
	}
	comps, err := svc.LatestCompetitions(ctx)
	if err != nil {
		return nil, err
	}
	if err := w.LatestCompetitions(comps); err != nil {
		return nil, err
	}
	return out, nil
}
