package source

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Octave-byte/cube-ranking/internal/domain/model"
)

const (
	competitionsQuery = `
		SELECT id, name, city, country, events, is_canceled, is_championship, date_from
		FROM competitions
		ORDER BY date_from, id
	`
	personsQuery = `
		SELECT id, name, country
		FROM persons
	`
	resultsQuery = `
		SELECT competition_id, person_id, round, best, average
		FROM results
	`
)

// Postgres reads the tables from PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres opens a connection pool and verifies connectivity.
func NewPostgres(ctx context.Context, url string, maxConns int32) (*Postgres, error) {
	if url == "" {
		return nil, ErrNoDatabaseURL
	}
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	if maxConns > 0 {
		poolConfig.MaxConns = maxConns
	}
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = 5 * time.Minute
	poolConfig.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Load implements Source.
func (p *Postgres) Load(ctx context.Context) (Tables, error) {
	var (
		t   Tables
		err error
	)
	if t.Competitions, err = p.competitions(ctx); err != nil {
		return t, err
	}
	if t.Persons, err = p.persons(ctx); err != nil {
		return t, err
	}
	if t.Results, err = p.results(ctx); err != nil {
		return t, err
	}
	return t, nil
}

func (p *Postgres) competitions(ctx context.Context) ([]model.Competition, error) {
	rows, err := p.pool.Query(ctx, competitionsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query competitions: %w", err)
	}
	defer rows.Close()

	var out []model.Competition
	for rows.Next() {
		var (
			c        model.Competition
			name     *string
			city     *string
			country  *string
			dateFrom *time.Time
		)
		if err := rows.Scan(&c.ID, &name, &city, &country, &c.Events, &c.IsCanceled, &c.IsChampionship, &dateFrom); err != nil {
			return nil, fmt.Errorf("failed to scan competition: %w", err)
		}
		c.Name, c.City, c.Country = deref(name), deref(city), deref(country)
		if dateFrom != nil {
			c.DateFrom = model.Day(*dateFrom)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (p *Postgres) persons(ctx context.Context) ([]model.Person, error) {
	rows, err := p.pool.Query(ctx, personsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query persons: %w", err)
	}
	defer rows.Close()

	var out []model.Person
	for rows.Next() {
		var (
			pr      model.Person
			name    *string
			country *string
		)
		if err := rows.Scan(&pr.ID, &name, &country); err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		pr.Name, pr.Country = deref(name), deref(country)
		out = append(out, pr)
	}
	return out, rows.Err()
}

func (p *Postgres) results(ctx context.Context) ([]model.RawResult, error) {
	rows, err := p.pool.Query(ctx, resultsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var out []model.RawResult
	for rows.Next() {
		var r model.RawResult
		if err := rows.Scan(&r.CompetitionID, &r.PersonID, &r.Round, &r.Best, &r.Average); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close implements Source.
func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
