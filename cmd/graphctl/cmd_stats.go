package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"warmpath/pkg/config"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate contact graph counts",
	RunE:  runStats,
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create graph constraints and indexes",
	RunE:  runSchema,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(schemaCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
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

	stats, err := repo.Stats(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("persons:            %d\n", stats.Persons)
	fmt.Printf("companies:          %d\n", stats.Companies)
	fmt.Printf("knows edges:        %d\n", stats.KnowsEdges)
	fmt.Printf("cc_together edges:  %d\n", stats.CCTogetherEdges)
	return nil
}

func runSchema(cmd *cobra.Command, args []string) error {
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

	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}

	fmt.Println("Schema constraints and indexes ensured")
	return nil
}
