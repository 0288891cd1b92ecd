package graph

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	apperrors "warmpath/pkg/errors"
)

// ============================================================================
// CC_TOGETHER Edge Operations
// ============================================================================

// UpsertCCTogether creates or updates the undirected CC_TOGETHER edge for a
// pair of people. The pair is canonicalized before writing so that (A,B)
// and (B,A) converge onto a single edge.
func (r *Repository) UpsertCCTogether(ctx context.Context, a, b string, date time.Time) error {
	a, b = CanonicalPair(a, b)
	if a == "" || b == "" {
		return apperrors.NewInvalidEdge("missing endpoint email")
	}
	if a == b {
		return apperrors.NewInvalidEdge("self pair")
	}
	if date.IsZero() {
		return apperrors.NewInvalidEdge("missing date")
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	dateStr := date.UTC().Format(time.RFC3339)

	query := `
		MATCH (a:Person {email: $a})
		MATCH (b:Person {email: $b})
		MERGE (a)-[cc:CC_TOGETHER]->(b)
		ON CREATE SET
			cc.cc_count = 1,
			cc.first_seen = datetime($date),
			cc.last_seen = datetime($date)
		ON MATCH SET
			cc.cc_count = cc.cc_count + 1,
			cc.first_seen = CASE
				WHEN datetime($date) < cc.first_seen THEN datetime($date)
				ELSE cc.first_seen
			END,
			cc.last_seen = CASE
				WHEN datetime($date) > cc.last_seen THEN datetime($date)
				ELSE cc.last_seen
			END
		RETURN cc.cc_count as cc_count
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"a":    a,
		"b":    b,
		"date": dateStr,
	})
	if err != nil {
		return apperrors.NewQueryFailed("upsert cc_together", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return apperrors.NewQueryFailed("upsert cc_together", err)
		}
		return apperrors.NewPersonNotFound(a)
	}

	return nil
}

// GetCCTogether returns the CC_TOGETHER edge for a pair in either order,
// or a typed not-found error
func (r *Repository) GetCCTogether(ctx context.Context, a, b string) (*CCTogetherEdge, error) {
	a, b = CanonicalPair(a, b)

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	// The edge is stored in canonical direction only, but match both ways
	// so data written before canonicalization still resolves
	query := `
		MATCH (a:Person {email: $a})-[cc:CC_TOGETHER]-(b:Person {email: $b})
		RETURN a.email as a, b.email as b,
		       cc.cc_count as cc_count,
		       cc.first_seen as first_seen,
		       cc.last_seen as last_seen
		LIMIT 1
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"a": a,
		"b": b,
	})
	if err != nil {
		return nil, apperrors.NewQueryFailed("get cc_together", err)
	}

	if result.Next(ctx) {
		record := result.Record()
		return &CCTogetherEdge{
			A:         getStringFromRecord(record, "a"),
			B:         getStringFromRecord(record, "b"),
			CCCount:   getIntFromRecord(record, "cc_count"),
			FirstSeen: getTimeFromRecord(record, "first_seen"),
			LastSeen:  getTimeFromRecord(record, "last_seen"),
		}, nil
	}
	if err := result.Err(); err != nil {
		return nil, apperrors.NewQueryFailed("get cc_together", err)
	}

	return nil, apperrors.NewEdgeNotFound(a, b)
}
