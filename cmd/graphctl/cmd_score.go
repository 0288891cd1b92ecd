package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"warmpath/internal/mailstore"
	"warmpath/internal/scoring"
	"warmpath/pkg/config"
)

var (
	scoreV2   bool
	scoreMine bool
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Compute relationship strength for KNOWS edges",
	Long: `Runs the batch scorer over the contact graph and writes the computed
strength back onto each edge.

The default run applies the v1 formula to every KNOWS edge in the graph.
--v2 applies the refined formula, which needs mail-store statistics and
is therefore restricted to edges touching my own addresses. --mine alone
implies --v2.`,
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().BoolVar(&scoreV2, "v2", false,
		"Use the refined v2 formula (requires the mail store and MY_EMAILS)")
	scoreCmd.Flags().BoolVar(&scoreMine, "mine", false,
		"Only score edges touching my own addresses")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx := cmd.Context()

	repo, closeGraph, err := openGraph(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeGraph()

	var report *scoring.Report
	if scoreV2 || scoreMine {
		identity, err := myIdentity(cfg)
		if err != nil {
			return err
		}

		mail, err := mailstore.Open(cfg.MailStorePath)
		if err != nil {
			return fmt.Errorf("failed to open mail store: %w", err)
		}
		defer mail.Close()

		report, err = scoring.NewBatchScorer(repo, mail).ScoreMine(ctx, identity)
		if err != nil {
			return err
		}
	} else {
		report, err = scoring.NewBatchScorer(repo, nil).ScoreAll(ctx)
		if err != nil {
			return err
		}
	}

	fmt.Printf("Scored %d edges (%d skipped, %d errors)\n",
		report.Processed, report.Skipped, report.Errors)
	fmt.Printf("  strong: %d  medium: %d  weak: %d  minimal: %d\n",
		report.Buckets.Strong, report.Buckets.Medium,
		report.Buckets.Weak, report.Buckets.Minimal)
	return nil
}
