// Command cuberank builds the weekly participant ranking and the competition
// strength ranking from a competition history.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	service "github.com/Octave-byte/cube-ranking/internal/app"
	"github.com/Octave-byte/cube-ranking/internal/config"
	"github.com/Octave-byte/cube-ranking/internal/scheduler"
	"github.com/Octave-byte/cube-ranking/pkg/logger"
	"github.com/Octave-byte/cube-ranking/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Stderr.WriteString("cuberank: " + err.Error() + "\n")
		os.Exit(1)
	}
}

// runtimeEnv is what every subcommand needs once configuration is loaded.
type runtimeEnv struct {
	cfg *config.Config
	svc *service.Service
	log logger.Logger
}

func newRootCmd() *cobra.Command {
	var configFile string
	env := &runtimeEnv{}

	root := &cobra.Command{
		Use:           "cuberank",
		Short:         "Rank 3x3 competitors weekly and score competition strength",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if configFile != "" {
				if err := os.Setenv(config.EnvFile, configFile); err != nil {
					return err
				}
			}
			return env.setup(cmd.Context())
		},
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to a YAML configuration file")

	root.AddCommand(newRunCmd(env), newScheduleCmd(env), newLatestCmd(env))
	return root
}

func (e *runtimeEnv) setup(ctx context.Context) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	e.cfg = cfg
	e.log = log
	e.svc = newService(cfg, log)
	return nil
}

func newService(cfg *config.Config, log logger.Logger) *service.Service {
	return service.New(
		service.WithLogger(log),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithPopulationCap(cfg.PopulationCap),
		service.WithWindows(cfg.ShortWindowDays, cfg.LongWindowDays),
		service.WithTopN(cfg.TopN),
		service.WithStrict(cfg.Strict),
		service.WithReferenceEvent(cfg.ReferenceEvent),
		service.WithHistoryStart(cfg.HistoryStartDate()),
		service.WithCompetitionCutoff(cfg.CompetitionCutoffDate()),
		service.WithWeeklyFrom(cfg.WeeklyFromDate()),
		service.WithLatestTTL(cfg.LatestTTL()),
	)
}

func newRunCmd(env *runtimeEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Load the input tables, run the pipeline once and write the outputs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			_, err := runPipeline(ctx, env.cfg, env.svc)
			return err
		},
	}
}

func newLatestCmd(env *runtimeEnv) *cobra.Command {
	var (
		view  string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "latest",
		Short: "Run the pipeline once and print a latest view as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if _, err := runPipeline(ctx, env.cfg, env.svc); err != nil {
				return err
			}

			var rows any
			switch view {
			case "players":
				players, err := env.svc.LatestPlayers(ctx)
				if err != nil {
					return err
				}
				if limit > 0 && limit < len(players) {
					players = players[:limit]
				}
				rows = players
			case "competitions":
				comps, err := env.svc.LatestCompetitions(ctx)
				if err != nil {
					return err
				}
				if limit > 0 && limit < len(comps) {
					comps = comps[:limit]
				}
				rows = comps
			default:
				return fmt.Errorf("unknown view %q: want players or competitions", view)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rows)
		},
	}
	cmd.Flags().StringVar(&view, "view", "players", "View to print: players or competitions")
	cmd.Flags().IntVar(&limit, "limit", 0, "Print at most this many rows; 0 prints all")
	return cmd
}

func newScheduleCmd(env *runtimeEnv) *cobra.Command {
	var immediate bool
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the pipeline on the configured cron schedule and serve /metrics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, env, immediate)
		},
	}
	cmd.Flags().BoolVar(&immediate, "immediate", true, "Run once at startup before waiting for the schedule")
	return cmd
}

func serve(ctx context.Context, env *runtimeEnv, immediate bool) error {
	job := func(ctx context.Context) error {
		_, err := runPipeline(ctx, env.cfg, env.svc)
		if errors.Is(err, service.ErrRunInProgress) {
			return nil
		}
		return err
	}

	sched := scheduler.New(job, scheduler.WithLogger(env.log))
	if err := sched.Schedule(env.cfg.Schedule); err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              env.cfg.MetricsAddr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	go func() {
		env.log.Info(ctx, "starting metrics server", logger.String("addr", env.cfg.MetricsAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			env.log.Error(ctx, "metrics server failed", logger.Error(err))
		}
	}()

	if immediate {
		go func() {
			if err := job(ctx); err != nil {
				env.log.Error(ctx, "startup run failed", logger.Error(err))
			}
		}()
	}
	if err := sched.Start(); err != nil {
		return err
	}
	env.log.Info(ctx, "scheduler started", logger.Time("next_run", sched.Next()))

	<-ctx.Done()
	env.log.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := sched.Stop(shutdownCtx); err != nil {
		env.log.Error(ctx, "scheduler stop failed", logger.Error(err))
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		env.log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	env.log.Info(ctx, "stopped")
	return nil
}
