package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/Octave-byte/cube-ranking/internal/adapters/source"
	"github.com/Octave-byte/cube-ranking/internal/synth"
	"github.com/Octave-byte/cube-ranking/pkg/logger"
)

const defaultTimeout = 10 * time.Minute

func main() {
	def := synth.DefaultConfig()
	var (
		out          = flag.String("out", "./data", "Directory receiving competitions.json, persons.json and results.json")
		persons      = flag.Int("persons", def.Persons, "Number of persons")
		competitions = flag.Int("competitions", def.Competitions, "Number of competitions")
		fieldSize    = flag.Int("field", def.FieldSize, "Upper bound of participants per competition")
		start        = flag.String("start", def.Start.Format("2006-01-02"), "Date of the earliest competition")
		days         = flag.Int("days", def.Days, "Days over which competitions are spread")
		seed         = flag.Uint64("seed", def.Seed, "Random seed; the same seed yields the same tables")
		workers      = flag.Int("workers", runtime.NumCPU(), "Concurrent generators")
		format       = flag.String("log-format", logger.FormatText, "Log format: text or json")
	)
	flag.Parse()

	if err := logger.Init(logger.WithFormat(*format)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	from, err := time.Parse("2006-01-02", *start)
	if err != nil {
		log.Fatal(ctx, "invalid start date", logger.String("start", *start), logger.Error(err))
	}

	tables, stats, err := synth.Generate(ctx, synth.Config{
		Persons:      *persons,
		Competitions: *competitions,
		FieldSize:    *fieldSize,
		Start:        from,
		Days:         *days,
		Seed:         *seed,
		Workers:      *workers,
	})
	if err != nil {
		log.Fatal(ctx, "generation failed", logger.Error(err))
	}
	if err := source.WriteDir(*out, tables); err != nil {
		log.Fatal(ctx, "write failed", logger.String("out", *out), logger.Error(err))
	}
	log.Info(ctx, "synthetic history written",
		logger.String("out", *out),
		logger.Int("results", stats.Results),
		logger.Int("competitions", stats.Competitions),
		logger.Int("persons", stats.Persons),
	)
}
