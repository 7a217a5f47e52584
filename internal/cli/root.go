// Package cli wires the fashionetl subcommands: one file per command, with
// the shared config/logging/metrics bootstrap here.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"fashionetl/internal/config"
	"fashionetl/internal/logging"
	"fashionetl/internal/metrics"
	"fashionetl/internal/metrics/prompush"
	"fashionetl/internal/storage"
	_ "fashionetl/internal/storage/all"
)

// Exit codes returned by the binary.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

var (
	flagConfig  string
	flagLogMode string
)

var rootCmd = &cobra.Command{
	Use:   "fashionetl",
	Short: "Synthetic fashion-image metadata pipeline",
	Long: `fashionetl generates a small synthetic fashion-image corpus, tags it,
loads the metadata into Postgres or SQLite, and derives navigation paths,
simulated browsing sessions, and per-user recommendations from it.

Stages run as subcommands and share one JSON config file (-c). Database
credentials come from DB_HOST, DB_NAME, DB_USER, and DB_PASSWORD (a .env
file is honored when present).

Exit Codes:
  0 - Success
  1 - Runtime failure
  2 - Usage or configuration error`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Path to a JSON pipeline config file")
	rootCmd.PersistentFlags().StringVar(&flagLogMode, "log-mode", "dev", "Log output mode: dev or prod")
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})
}

// usageError marks failures that should exit with the usage code.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// ExitCode maps an Execute error to a process exit code. Cobra flag/argument
// errors and config validation errors count as usage errors.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ue usageError
	if errors.As(err, &ue) {
		return ExitUsage
	}
	return ExitError
}

// runContext is the shared state every subcommand starts from.
type runContext struct {
	spec  config.Pipeline
	log   *logging.Logger
	runID string
}

// setup loads .env and the config file, validates the result, and builds the
// run-scoped logger and metrics backend.
func setup() (*runContext, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	spec, err := config.Load(flagConfig)
	if err != nil {
		return nil, usageError{err}
	}

	log, err := logging.New(flagLogMode)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	issues := config.ValidatePipeline(spec)
	for _, is := range issues {
		if is.Severity == config.SeverityWarning {
			log.Warn("config warning", "path", is.Path, "message", is.Message)
		}
	}
	if config.HasErrors(issues) {
		var msgs []string
		for _, is := range issues {
			if is.Severity == config.SeverityError {
				msgs = append(msgs, is.Error())
			}
		}
		return nil, usageError{fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))}
	}

	runID := uuid.NewString()
	if spec.Metrics.PushgatewayURL != "" {
		backend, err := prompush.NewBackend(spec.Job, spec.Metrics.PushgatewayURL)
		if err != nil {
			return nil, fmt.Errorf("build metrics backend: %w", err)
		}
		metrics.SetBackend(backend)
	}

	return &runContext{
		spec:  spec,
		log:   log.With("job", spec.Job, "run_id", runID),
		runID: runID,
	}, nil
}

// stage pairs a stage name with its implementation for sequential runs.
type stage struct {
	name string
	fn   func(ctx context.Context, rc *runContext) error
}

// runStage is the common frame for single-stage subcommands.
func runStage(name string, fn func(ctx context.Context, rc *runContext) error) error {
	return runStages([]stage{{name: name, fn: fn}})
}

// runStages executes stages in order under one signal-aware context, timing
// each, recording stage metrics, and stopping on the first failure. Metrics
// are flushed once at the end either way.
func runStages(stages []stage) error {
	rc, err := setup()
	if err != nil {
		return err
	}
	defer rc.log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var failed error
	for _, s := range stages {
		start := time.Now()
		err := s.fn(ctx, rc)
		metrics.RecordStage(rc.spec.Job, s.name, err, time.Since(start))
		if err != nil {
			rc.log.Error("stage failed", "stage", s.name, "error", err)
			failed = err
			break
		}
		rc.log.Info("stage complete", "stage", s.name, "duration", time.Since(start).Round(time.Millisecond))
	}

	if ferr := metrics.Flush(); ferr != nil {
		rc.log.Warn("metrics flush failed", "error", ferr)
	}
	return failed
}

// openStore connects the configured backend and applies the schema.
func openStore(ctx context.Context, spec config.Pipeline) (storage.Store, error) {
	store, err := storage.New(ctx, storage.Config{
		Kind: spec.Storage.Kind,
		DSN:  spec.Storage.DB.DSN,
	})
	if err != nil {
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return store, nil
}
