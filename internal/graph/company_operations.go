package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	apperrors "warmpath/pkg/errors"
)

// ============================================================================
// Company / Topic Operations
// ============================================================================
// WORKS_AT and DISCUSSED edges are produced by the enrichment pipeline; the
// upserts here are its landing pad and the company tier of the path finder
// reads them.

// UpsertCompany creates or merges a Company node keyed by name
func (r *Repository) UpsertCompany(ctx context.Context, c Company) error {
	if c.Name == "" {
		return apperrors.NewMalformedMessage("", "company without name")
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MERGE (c:Company {name: $name})
		ON CREATE SET c.domain = $domain, c.industry = $industry
		ON MATCH SET
			c.domain = CASE WHEN $domain <> '' THEN $domain ELSE c.domain END,
			c.industry = CASE WHEN $industry <> '' THEN $industry ELSE c.industry END
		RETURN c.name as name
	`

	_, err := session.Run(ctx, query, map[string]interface{}{
		"name":     c.Name,
		"domain":   c.Domain,
		"industry": c.Industry,
	})
	if err != nil {
		return apperrors.NewQueryFailed("upsert company", err)
	}

	return nil
}

// UpsertWorksAt links a person to a company, creating the company if needed
func (r *Repository) UpsertWorksAt(ctx context.Context, personEmail, companyName string) error {
	personEmail = NormalizeEmail(personEmail)
	if personEmail == "" || companyName == "" {
		return apperrors.NewMalformedMessage("", "works_at link missing endpoint")
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MATCH (p:Person {email: $email})
		MERGE (c:Company {name: $company})
		MERGE (p)-[:WORKS_AT]->(c)
		RETURN c.name as name
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"email":   personEmail,
		"company": companyName,
	})
	if err != nil {
		return apperrors.NewQueryFailed("upsert works_at", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return apperrors.NewQueryFailed("upsert works_at", err)
		}
		return apperrors.NewPersonNotFound(personEmail)
	}

	return nil
}

// UpsertDiscussed links a person to a topic, creating the topic if needed
func (r *Repository) UpsertDiscussed(ctx context.Context, personEmail, topic string) error {
	personEmail = NormalizeEmail(personEmail)
	if personEmail == "" || topic == "" {
		return apperrors.NewMalformedMessage("", "discussed link missing endpoint")
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MATCH (p:Person {email: $email})
		MERGE (t:Topic {name: $topic})
		MERGE (p)-[:DISCUSSED]->(t)
		RETURN t.name as name
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"email": personEmail,
		"topic": topic,
	})
	if err != nil {
		return apperrors.NewQueryFailed("upsert discussed", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return apperrors.NewQueryFailed("upsert discussed", err)
		}
		return apperrors.NewPersonNotFound(personEmail)
	}

	return nil
}
