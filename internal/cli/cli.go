// Package cli implements the octagon command line. Every command loads the
// same configuration as the server and runs the pipeline in process, except
// bench which drives a running server over HTTP.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/octagon/internal/adapters/model"
	"github.com/okian/octagon/internal/config"
	"github.com/okian/octagon/internal/domain/types"
	"github.com/okian/octagon/pkg/logger"
)

// Backend is the part of the service the commands drive.
type Backend interface {
	Predict(ctx context.Context, req types.PredictRequest) (types.PredictionResponse, error)
	Explain(ctx context.Context, req types.PredictRequest) (types.ExplainResponse, error)
	Fighter(ctx context.Context, name string) (types.FighterResponse, error)
	SearchFighters(ctx context.Context, query string, limit int) (types.SearchResponse, error)
	TopOfficials(ctx context.Context, limit int) (types.OfficialsResponse, error)
	ModelStatus(ctx context.Context) ([]model.Status, error)
}

// Opener builds a started Backend from cfg. The returned func releases it.
type Opener func(ctx context.Context, cfg *config.Config) (Backend, func(), error)

type root struct {
	open       Opener
	configPath string
	logLevel   string
	asJSON     bool
}

// NewRootCommand returns the octagon command tree. A nil open uses
// StartService.
func NewRootCommand(open Opener) *cobra.Command {
	if open == nil {
		open = StartService
	}
	r := &root{open: open}

	cmd := &cobra.Command{
		Use:           "octagon",
		Short:         "UFC fight prediction tool",
		Long:          "Predict bout outcomes and explain them from historical fight data.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&r.configPath, "config", "", "YAML config file (default $"+config.EnvFile+")")
	cmd.PersistentFlags().StringVar(&r.logLevel, "log-level", "", "override log_level from the config")
	cmd.PersistentFlags().BoolVar(&r.asJSON, "json", false, "print JSON instead of tables")

	cmd.AddCommand(
		r.predictCmd(),
		r.explainCmd(),
		r.fighterCmd(),
		r.searchCmd(),
		r.refereesCmd(),
		r.modelsCmd(),
		benchCmd(),
	)
	return cmd
}

// Execute runs the command tree with the given arguments.
func Execute(ctx context.Context, args []string) error {
	cmd := NewRootCommand(nil)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

// Main runs the command line and exits non-zero on failure.
func Main() {
	if err := Execute(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// session loads configuration, sets up logging on stderr and opens the
// backend.
func (r *root) session(cmd *cobra.Command) (Backend, func(), error) {
	path := r.configPath
	if path == "" {
		path = os.Getenv(config.EnvFile)
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, nil, err
	}
	level := cfg.LogLevel
	if r.logLevel != "" {
		level = r.logLevel
	}
	if err := logger.Init(
		logger.WithOutput(cmd.ErrOrStderr()),
		logger.WithFormat(cfg.LogFormat),
		logger.WithLevel(level),
	); err != nil {
		return nil, nil, err
	}
	return r.open(cmd.Context(), cfg)
}

// run opens a session, calls fn and renders its result.
func run[T any](r *root, cmd *cobra.Command, fn func(ctx context.Context, b Backend) (T, error), table func(io.Writer, T)) error {
	b, stop, err := r.session(cmd)
	if err != nil {
		return err
	}
	defer stop()

	out, err := fn(cmd.Context(), b)
	if err != nil {
		return err
	}
	if r.asJSON {
		return writeJSON(cmd.OutOrStdout(), out)
	}
	table(cmd.OutOrStdout(), out)
	return nil
}
