package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/octagon/internal/adapters/model"
	"github.com/okian/octagon/internal/domain/types"
)

// boutFlags are shared by predict, explain and bench.
type boutFlags struct {
	date    string
	referee string
	kind    string
}

func (f *boutFlags) register(cmd *cobra.Command, withType bool) {
	cmd.Flags().StringVar(&f.date, "date", time.Now().UTC().Format(types.DateLayout), "event date (YYYY-MM-DD); history on or after it is ignored")
	cmd.Flags().StringVar(&f.referee, "referee", "", "assigned referee")
	if withType {
		cmd.Flags().StringVar(&f.kind, "type", "winner", "prediction type: winner or method")
	}
}

func (f *boutFlags) request(args []string) types.PredictRequest {
	return types.PredictRequest{
		Fighter1:       args[0],
		Fighter2:       args[1],
		EventDate:      f.date,
		Referee:        f.referee,
		PredictionType: f.kind,
	}
}

func (r *root) predictCmd() *cobra.Command {
	var f boutFlags
	cmd := &cobra.Command{
		Use:   "predict <fighter_1> <fighter_2>",
		Short: "Predict the winner, and optionally the method, of a bout",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(r, cmd, func(ctx context.Context, b Backend) (types.PredictionResponse, error) {
				return b.Predict(ctx, f.request(args))
			}, printPrediction)
		},
	}
	f.register(cmd, true)
	return cmd
}

func (r *root) explainCmd() *cobra.Command {
	var f boutFlags
	cmd := &cobra.Command{
		Use:   "explain <fighter_1> <fighter_2>",
		Short: "Rank the factors behind a winner prediction",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(r, cmd, func(ctx context.Context, b Backend) (types.ExplainResponse, error) {
				return b.Explain(ctx, f.request(args))
			}, printExplanation)
		},
	}
	f.register(cmd, false)
	return cmd
}

func (r *root) fighterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fighter <name>",
		Short: "Show the reference record of a fighter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(r, cmd, func(ctx context.Context, b Backend) (types.FighterResponse, error) {
				return b.Fighter(ctx, args[0])
			}, printFighter)
		},
	}
}

func (r *root) searchCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "List fighters whose name contains query",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var query string
			if len(args) == 1 {
				query = args[0]
			}
			return run(r, cmd, func(ctx context.Context, b Backend) (types.SearchResponse, error) {
				return b.SearchFighters(ctx, query, limit)
			}, printSearch)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of names (0 uses the default)")
	return cmd
}

func (r *root) refereesCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "referees",
		Short: "List the most frequent referees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(r, cmd, func(ctx context.Context, b Backend) (types.OfficialsResponse, error) {
				return b.TopOfficials(ctx, limit)
			}, printOfficials)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of referees (0 uses the default)")
	return cmd
}

func (r *root) modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "Describe the loaded classifiers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(r, cmd, func(ctx context.Context, b Backend) ([]model.Status, error) {
				return b.ModelStatus(ctx)
			}, printModels)
		},
	}
}
