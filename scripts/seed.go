package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"warmpath/internal/graph"
	"warmpath/pkg/config"
	"warmpath/pkg/logger"
)

func main() {
	demo := flag.Bool("demo", false, "Seed a small demo graph after creating the schema")
	flag.Parse()

	// Initialize logger
	if err := logger.Init("development"); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting graph schema setup...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Initialize Neo4j driver
	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	defer driver.Close(context.Background())

	// Verify connection
	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	repo := graph.NewRepository(driver)

	log.Info("Creating constraints and indexes...")
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatal("Failed to ensure schema", zap.Error(err))
	}

	if *demo {
		log.Info("Seeding demo graph...")
		if err := seedDemo(ctx, repo); err != nil {
			log.Fatal("Failed to seed demo graph", zap.Error(err))
		}
	}

	stats, err := repo.Stats(ctx)
	if err != nil {
		log.Fatal("Failed to fetch graph stats", zap.Error(err))
	}

	log.Info("Setup complete",
		zap.Int64("persons", stats.Persons),
		zap.Int64("knows_edges", stats.KnowsEdges),
		zap.Int64("cc_together_edges", stats.CCTogetherEdges),
	)
}

// seedDemo writes a tiny graph so the path finder has something to chew
// on before real mail has been ingested: me, a well-known connector, and
// a prospect reachable only through them.
func seedDemo(ctx context.Context, repo *graph.Repository) error {
	now := time.Now()

	persons := []graph.Person{
		{Email: "me@example.com", Name: "Demo User"},
		{Email: "connector@example.com", Name: "Connie Connector"},
		{Email: "prospect@acme.example", Name: "Pat Prospect", Company: "Acme"},
	}
	for _, p := range persons {
		if err := repo.UpsertPerson(ctx, p); err != nil {
			return err
		}
	}

	edges := []struct {
		from, to string
		count    int
	}{
		{"me@example.com", "connector@example.com", 40},
		{"connector@example.com", "me@example.com", 25},
		{"connector@example.com", "prospect@acme.example", 12},
	}
	for _, e := range edges {
		for i := 0; i < e.count; i++ {
			date := now.AddDate(0, 0, -e.count+i)
			if err := repo.UpsertKnows(ctx, e.from, e.to, date, "demo thread"); err != nil {
				return err
			}
		}
	}

	if err := repo.UpsertCCTogether(ctx, "connector@example.com", "prospect@acme.example", now); err != nil {
		return err
	}

	if err := repo.UpsertCompany(ctx, graph.Company{Name: "acme.example", Domain: "acme.example"}); err != nil {
		return err
	}
	if err := repo.UpsertWorksAt(ctx, "prospect@acme.example", "acme.example"); err != nil {
		return err
	}
	return repo.UpsertDiscussed(ctx, "connector@example.com", "introductions")
}
