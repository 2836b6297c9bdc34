package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/lazypower/counsel/internal/client"
	"github.com/lazypower/counsel/internal/config"
	"github.com/lazypower/counsel/internal/engine"
	"github.com/lazypower/counsel/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const commandTimeout = 30 * time.Second

// openDB opens the database for CLI commands. COUNSEL_DB overrides the
// configured path.
func openDB(cfg *config.Config) (*store.DB, error) {
	dbPath := os.Getenv("COUNSEL_DB")
	if dbPath == "" {
		dbPath = cfg.Database.Path
	}
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, err
		}
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	db.QueryTimeout = cfg.Database.QueryTimeout
	return db, nil
}

// withEngine loads config, opens the database and hands a quiet engine to fn.
func withEngine(fn func(ctx context.Context, db *store.DB, eng *engine.Engine) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	return fn(ctx, db, engine.New(db, zap.NewNop()))
}

// --- decisions command ---

var (
	decisionsObjective string
	decisionsLimit     int
	decisionsOffset    int
)

var decisionsCmd = &cobra.Command{
	Use:   "decisions",
	Short: "List decisions ranked by learned weight",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serverURL != "" {
			return remoteDecisions(cmd)
		}
		return withEngine(func(ctx context.Context, _ *store.DB, eng *engine.Engine) error {
			page, err := eng.ListDecisions(ctx, store.DecisionFilter{ObjectiveSubstring: decisionsObjective}, decisionsLimit, decisionsOffset)
			if err != nil {
				return fmt.Errorf("list decisions: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(page.Items) == 0 {
				fmt.Fprintln(out, "No decisions found.")
				return nil
			}
			for i, d := range page.Items {
				fmt.Fprintf(out, "%d. [%+.3f] %s %s (%s)\n", page.Offset+i+1, d.Weight, d.ID, d.RecommendationType, d.Confidence)
				fmt.Fprintf(out, "   %s\n", d.Objective)
			}
			fmt.Fprintf(out, "\n%d of %d\n", len(page.Items), page.Total)
			return nil
		})
	},
}

// --- approve command ---

var (
	approveReject bool
	approveAdjust float64
)

var approveCmd = &cobra.Command{
	Use:   "approve <decision-id>",
	Short: "Record an approval or rejection of a decision",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := engine.ApprovalInput{DecisionID: args[0], Approved: !approveReject}
		if cmd.Flags().Changed("adjust") {
			adj := approveAdjust
			in.ConfidenceAdjustment = &adj
		}
		if serverURL != "" {
			return remoteApprove(cmd, in)
		}

		return withEngine(func(ctx context.Context, _ *store.DB, eng *engine.Engine) error {
			res, err := eng.RecordApproval(ctx, in)
			if err != nil {
				return fmt.Errorf("record approval: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "approval %s recorded (reward %+.2f)\n", res.Approval.ID, res.Approval.Reward)
			fmt.Fprintf(out, "weights updated: %d/%d\n", res.WeightsUpdated, res.WeightsIntended)
			for _, e := range res.Edges {
				if e.Err != nil {
					fmt.Fprintf(out, "  failed %s %s: %v\n", e.Key.SourceType, e.Key.SourceID, e.Err)
				}
			}
			return nil
		})
	},
}

func remoteDecisions(cmd *cobra.Command) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	page, err := client.New(serverURL).ListDecisions(ctx, decisionsObjective, decisionsLimit, decisionsOffset)
	if err != nil {
		return fmt.Errorf("list decisions: %w", err)
	}
	out := cmd.OutOrStdout()
	if len(page.Data) == 0 {
		fmt.Fprintln(out, "No decisions found.")
		return nil
	}
	for i, d := range page.Data {
		fmt.Fprintf(out, "%d. [%+.3f] %s %s (%s)\n", page.Offset+i+1, d.Weight, d.ID, d.RecommendationType, d.Confidence)
		fmt.Fprintf(out, "   %s\n", d.Objective)
	}
	fmt.Fprintf(out, "\n%d of %d\n", len(page.Data), page.Total)
	return nil
}

func remoteApprove(cmd *cobra.Command, in engine.ApprovalInput) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	res, err := client.New(serverURL).RecordApproval(ctx, in.DecisionID, in.Approved, in.ConfidenceAdjustment)
	if err != nil {
		return fmt.Errorf("record approval: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "approval %s recorded (reward %+.2f)\n", res.ID, res.Reward)
	fmt.Fprintf(out, "weights updated: %d/%d\n", res.WeightsUpdated, res.WeightsIntended)
	return nil
}

// --- weights command ---

var (
	weightsSourceType string
	weightsSourceID   string
	weightsLimit      int
)

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Inspect the learned weight ledger",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serverURL != "" {
			return remoteWeights(cmd)
		}
		return withEngine(func(ctx context.Context, db *store.DB, _ *engine.Engine) error {
			filter := store.WeightFilter{SourceType: weightsSourceType, SourceID: weightsSourceID}
			weights, err := db.ListWeights(ctx, filter, engine.ClampLimit(weightsLimit))
			if err != nil {
				return fmt.Errorf("list weights: %w", err)
			}
			total, err := db.CountWeights(ctx, filter)
			if err != nil {
				return fmt.Errorf("count weights: %w", err)
			}

			rows := make([]weightRow, len(weights))
			for i, w := range weights {
				rows[i] = weightRow{w.Weight, w.UpdateCount, w.SourceType, w.SourceID, w.TargetValue}
			}
			printWeights(cmd, rows, total)
			return nil
		})
	},
}

func remoteWeights(cmd *cobra.Command) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	page, err := client.New(serverURL).ListWeights(ctx, weightsSourceType, weightsSourceID, engine.ClampLimit(weightsLimit))
	if err != nil {
		return fmt.Errorf("list weights: %w", err)
	}
	rows := make([]weightRow, len(page.Data))
	for i, w := range page.Data {
		rows[i] = weightRow{w.Weight, w.UpdateCount, w.SourceType, w.SourceID, w.TargetValue}
	}
	printWeights(cmd, rows, page.Total)
	return nil
}

type weightRow struct {
	weight      float64
	updateCount int
	sourceType  string
	sourceID    string
	targetValue string
}

func printWeights(cmd *cobra.Command, rows []weightRow, total int) {
	out := cmd.OutOrStdout()
	if len(rows) == 0 {
		fmt.Fprintln(out, "Weight ledger is empty.")
		return
	}
	for _, w := range rows {
		fmt.Fprintf(out, "%+.4f  x%-4d %s/%s -> %s\n", w.weight, w.updateCount, w.sourceType, w.sourceID, w.targetValue)
	}
	fmt.Fprintf(out, "\n%d of %d\n", len(rows), total)
}

func init() {
	decisionsCmd.Flags().StringVarP(&decisionsObjective, "objective", "o", "", "Filter by objective substring")
	decisionsCmd.Flags().IntVarP(&decisionsLimit, "limit", "n", 20, "Maximum number of results")
	decisionsCmd.Flags().IntVar(&decisionsOffset, "offset", 0, "Number of results to skip")

	approveCmd.Flags().BoolVar(&approveReject, "reject", false, "Record a rejection instead of an approval")
	approveCmd.Flags().Float64Var(&approveAdjust, "adjust", 0, "Confidence adjustment in [-1, 1]")

	weightsCmd.Flags().StringVar(&weightsSourceType, "source-type", "", "Filter by source type (decision, signal, objective)")
	weightsCmd.Flags().StringVar(&weightsSourceID, "source-id", "", "Filter by source id")
	weightsCmd.Flags().IntVarP(&weightsLimit, "limit", "n", 50, "Maximum number of results")
}
