package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"warmpath/internal/pathfinder"
	"warmpath/pkg/config"
)

var (
	findDomain string
	findAll    bool
	findJSON   bool
)

var findCmd = &cobra.Command{
	Use:   "find <email>",
	Short: "Find the warmest introduction path to a prospect",
	Long: `Evaluates introduction routes to the given address in priority order:
direct relationship, one-hop introduction, company connection, shared
CC threads. Falls back to cold when nothing connects.

--domain overrides the company domain inferred from the prospect's
address, which helps when the prospect uses a personal email.`,
	Args: cobra.ExactArgs(1),
	RunE: runFind,
}

func init() {
	findCmd.Flags().StringVar(&findDomain, "domain", "",
		"Company domain to use for the company-connection tier")
	findCmd.Flags().BoolVar(&findAll, "all", false,
		"Show the best route of every tier, not just the first")
	findCmd.Flags().BoolVar(&findJSON, "json", false,
		"Output as JSON")
	rootCmd.AddCommand(findCmd)
}

func runFind(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	identity, err := myIdentity(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	repo, closeGraph, err := openGraph(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeGraph()

	finder := pathfinder.New(repo)

	var paths []pathfinder.IntroPath
	if findAll {
		paths, err = finder.FindAllPaths(ctx, identity, args[0], findDomain)
	} else {
		var path *pathfinder.IntroPath
		path, err = finder.FindPath(ctx, identity, args[0], findDomain)
		if path != nil {
			paths = []pathfinder.IntroPath{*path}
		}
	}
	if err != nil {
		return err
	}

	if findJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(paths)
	}

	for _, p := range paths {
		printPath(p)
	}
	return nil
}

func formatLastContact(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Format("2006-01-02")
}

func printPath(p pathfinder.IntroPath) {
	fmt.Printf("%s  strength %d\n", p.Type, p.Strength)
	switch p.Type {
	case pathfinder.PathDirect:
		fmt.Printf("  you know %s directly (%d emails, last contact %s)\n",
			p.TargetEmail, p.EmailCount, formatLastContact(p.LastContact))
	case pathfinder.PathCold:
		fmt.Printf("  no route to %s found\n", p.TargetEmail)
	default:
		connector := p.ConnectorEmail
		if p.ConnectorName != "" {
			connector = fmt.Sprintf("%s <%s>", p.ConnectorName, p.ConnectorEmail)
		}
		fmt.Printf("  via %s (connector strength %d/10, %d emails, last contact %s)\n",
			connector, p.ConnectorStrength, p.EmailCount, formatLastContact(p.LastContact))
		if p.SharedCCCount > 0 {
			fmt.Printf("  cc'd together on %d threads\n", p.SharedCCCount)
		}
	}
}
