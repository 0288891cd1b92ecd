package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"warmpath/internal/builder"
	"warmpath/internal/mailstore"
	"warmpath/pkg/config"
	"warmpath/pkg/logger"
)

var buildWatch bool

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Ingest new mail-store messages into the contact graph",
	Long: `Reads messages from the mail store that have not been processed yet
and upserts the persons, KNOWS edges, and CC_TOGETHER edges they imply.
Processed message IDs are checkpointed, so reruns only pick up new mail.

With --watch the command keeps polling the mail store at the configured
interval until interrupted.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().BoolVar(&buildWatch, "watch", false,
		"Keep polling the mail store for new messages")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	log := logger.Get()

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

	mail, err := mailstore.Open(cfg.MailStorePath)
	if err != nil {
		return fmt.Errorf("failed to open mail store: %w", err)
	}
	defer mail.Close()

	checkpoint, err := builder.OpenCheckpoint(cfg.StateDBPath)
	if err != nil {
		return fmt.Errorf("failed to open checkpoint database: %w", err)
	}
	defer checkpoint.Close()

	runner := builder.NewRunner(mail, builder.New(repo), checkpoint, repo, cfg.BatchSize)

	if buildWatch {
		log.Info("Watching mail store",
			zap.String("path", cfg.MailStorePath),
			zap.Duration("interval", cfg.PollInterval),
		)
		return runner.RunLoop(ctx, cfg.PollInterval)
	}

	stats, err := runner.RunOnce(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Processed %d messages (%d already processed, %d malformed, %d errors)\n",
		stats.Processed, stats.AlreadyProcessed, stats.Malformed, stats.Errors)
	return nil
}
