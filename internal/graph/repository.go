package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	apperrors "warmpath/pkg/errors"
	"warmpath/pkg/logger"
)

// Repository handles all Neo4j database operations for the contact graph
type Repository struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewRepository creates a new graph repository
func NewRepository(driver neo4j.DriverWithContext) *Repository {
	return &Repository{
		driver: driver,
		logger: logger.Get(),
	}
}

// Close closes the Neo4j driver connection
func (r *Repository) Close() error {
	return r.driver.Close(context.Background())
}

// Stats returns aggregate node and edge counts
func (r *Repository) Stats(ctx context.Context) (*Stats, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		OPTIONAL MATCH (p:Person)
		WITH count(p) as persons
		OPTIONAL MATCH (c:Company)
		WITH persons, count(c) as companies
		OPTIONAL MATCH ()-[k:KNOWS]->()
		WITH persons, companies, count(k) as knows
		OPTIONAL MATCH ()-[cc:CC_TOGETHER]-()
		RETURN persons, companies, knows, count(DISTINCT cc) as cc_together
	`

	result, err := session.Run(ctx, query, nil)
	if err != nil {
		return nil, apperrors.NewQueryFailed("stats", err)
	}

	record, err := result.Single(ctx)
	if err != nil {
		return nil, apperrors.NewQueryFailed("stats", err)
	}

	return &Stats{
		Persons:         getInt64FromRecord(record, "persons"),
		Companies:       getInt64FromRecord(record, "companies"),
		KnowsEdges:      getInt64FromRecord(record, "knows"),
		CCTogetherEdges: getInt64FromRecord(record, "cc_together"),
	}, nil
}

// EnsureSchema creates the uniqueness constraints and lookup indexes the
// repository relies on. Safe to run repeatedly.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	statements := []string{
		"CREATE CONSTRAINT person_email IF NOT EXISTS FOR (p:Person) REQUIRE p.email IS UNIQUE",
		"CREATE CONSTRAINT company_name IF NOT EXISTS FOR (c:Company) REQUIRE c.name IS UNIQUE",
		"CREATE CONSTRAINT topic_name IF NOT EXISTS FOR (t:Topic) REQUIRE t.name IS UNIQUE",
		"CREATE INDEX person_alt_emails IF NOT EXISTS FOR (p:Person) ON (p.alt_emails)",
		"CREATE INDEX company_domain IF NOT EXISTS FOR (c:Company) ON (c.domain)",
	}

	for _, stmt := range statements {
		if _, err := session.Run(ctx, stmt, nil); err != nil {
			r.logger.Warn("Schema statement failed (may already exist)",
				zap.String("statement", stmt),
				zap.Error(err),
			)
		}
	}

	return nil
}
