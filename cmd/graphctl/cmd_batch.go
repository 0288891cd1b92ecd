package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"warmpath/internal/pathfinder"
	"warmpath/pkg/config"
	"warmpath/pkg/logger"
)

var (
	batchIn  string
	batchOut string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Find entry paths for a prospect list",
	Long: `Reads a prospect CSV (email required, name and company optional),
computes the best introduction path for each row, and writes one
entry-path record per prospect. Output goes to stdout unless --out is
given.`,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVar(&batchIn, "in", "",
		"Prospect list CSV (required)")
	batchCmd.Flags().StringVar(&batchOut, "out", "",
		"Entry-path output CSV (default stdout)")
	_ = batchCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	log := logger.Get()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	identity, err := myIdentity(cfg)
	if err != nil {
		return err
	}

	in, err := os.Open(batchIn)
	if err != nil {
		return fmt.Errorf("failed to open prospect list: %w", err)
	}
	defer in.Close()

	prospects, skipped, err := pathfinder.ReadProspects(in)
	if err != nil {
		return err
	}
	if skipped > 0 {
		log.Warn("Skipped prospect rows without an email", zap.Int("rows", skipped))
	}
	if len(prospects) == 0 {
		return fmt.Errorf("prospect list is empty")
	}

	ctx := cmd.Context()

	repo, closeGraph, err := openGraph(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeGraph()

	start := time.Now()
	paths := pathfinder.New(repo).RunBatch(ctx, identity, prospects)
	log.Info("Batch complete",
		zap.Int("prospects", len(prospects)),
		zap.Int("paths", len(paths)),
		zap.Duration("elapsed", time.Since(start)),
	)

	out := os.Stdout
	if batchOut != "" {
		out, err = os.Create(batchOut)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer out.Close()
	}

	return pathfinder.WriteEntryPaths(out, paths)
}
