package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"warmpath/internal/builder"
	"warmpath/pkg/config"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Derive Company nodes from person email domains",
	Long: `Walks every person in the graph and links those on a corporate email
domain to a Company node named after the domain. Freemail addresses are
skipped. The company-connection path tier uses these links to find
colleagues of a prospect.`,
	RunE: runEnrich,
}

func init() {
	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(cmd *cobra.Command, args []string) error {
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

	report, err := builder.NewEnricher(repo).Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Linked %d of %d persons to %d companies (%d skipped, %d errors)\n",
		report.Linked, report.Persons, report.Companies, report.Skipped, report.Errors)
	return nil
}
