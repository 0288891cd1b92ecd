package main

import (
	"context"
	"fmt"
	"os"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"warmpath/internal/graph"
	"warmpath/pkg/config"
	"warmpath/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:           "graphctl",
	Short:         "Build, score, and query the contact graph",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

func init() {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := logger.Init(os.Getenv("ENV")); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	}
}

// openGraph builds the Neo4j driver and repository from config. The
// returned close function releases the driver.
func openGraph(ctx context.Context, cfg *config.Config) (*graph.Repository, func(), error) {
	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, nil, fmt.Errorf("failed to verify Neo4j connectivity: %w", err)
	}

	closeFn := func() {
		if err := driver.Close(context.Background()); err != nil {
			logger.Get().Warn("Failed to close Neo4j driver", zap.Error(err))
		}
	}
	return graph.NewRepository(driver), closeFn, nil
}

// myIdentity returns the configured identity, failing when MY_EMAILS is
// unset. Only commands that reason about "my" side of the graph call it.
func myIdentity(cfg *config.Config) (graph.Identity, error) {
	identity := graph.NewIdentity(cfg.MyEmails...)
	if len(identity.Emails) == 0 {
		return graph.Identity{}, fmt.Errorf("MY_EMAILS is required for this command")
	}
	return identity, nil
}
