package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	apperrors "warmpath/pkg/errors"
)

// ============================================================================
// Path Queries
// ============================================================================
// Read-only traversals used by the path finder. Targets are matched against
// their primary email or any linked alternate email.

// DirectKnows returns my KNOWS edge to the target, if one exists
func (r *Repository) DirectKnows(ctx context.Context, myEmails []string, target string) (*KnowsEdge, error) {
	target = NormalizeEmail(target)

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (me:Person)-[k:KNOWS]->(t:Person)
		WHERE me.email IN $myEmails
		  AND (t.email = $target OR $target IN coalesce(t.alt_emails, []))
		RETURN me.email as from, t.email as to, ` + knowsReturnFields + `
		ORDER BY k.email_count DESC
		LIMIT 1
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"myEmails": normalizeEmails(myEmails),
		"target":   target,
	})
	if err != nil {
		return nil, apperrors.NewQueryFailed("direct knows", err)
	}

	if result.Next(ctx) {
		return knowsFromRecord(result.Record()), nil
	}
	if err := result.Err(); err != nil {
		return nil, apperrors.NewQueryFailed("direct knows", err)
	}

	return nil, apperrors.NewEdgeNotFound("me", target)
}

// OneHopConnectors returns people I know who know the target, ordered by
// my email volume with the connector
func (r *Repository) OneHopConnectors(ctx context.Context, myEmails []string, target string) ([]ConnectorRow, error) {
	target = NormalizeEmail(target)

	query := `
		MATCH (me:Person)-[k1:KNOWS]->(c:Person)-[k2:KNOWS]->(t:Person)
		WHERE me.email IN $myEmails
		  AND (t.email = $target OR $target IN coalesce(t.alt_emails, []))
		  AND c.email <> t.email
		  AND NOT c.email IN $myEmails
		RETURN c.email as email, c.name as name,
		       k1.email_count as email_count, k1.last_contact as last_contact,
		       0 as cc_count
		ORDER BY k1.email_count DESC, k1.last_contact DESC, c.email ASC
	`

	return r.listConnectors(ctx, "one-hop connectors", query, map[string]interface{}{
		"myEmails": normalizeEmails(myEmails),
		"target":   target,
	})
}

// KnownAtDomain returns people I know whose email domain matches, or who
// work at a company with that domain, ordered by my email volume with them
func (r *Repository) KnownAtDomain(ctx context.Context, myEmails []string, domain string) ([]ConnectorRow, error) {
	domain = NormalizeEmail(domain)
	if domain == "" {
		return nil, nil
	}

	query := `
		MATCH (me:Person)-[k:KNOWS]->(p:Person)
		WHERE me.email IN $myEmails
		  AND NOT p.email IN $myEmails
		  AND (p.email ENDS WITH $suffix
		       OR any(a IN coalesce(p.alt_emails, []) WHERE a ENDS WITH $suffix)
		       OR EXISTS { (p)-[:WORKS_AT]->(:Company {domain: $domain}) })
		RETURN p.email as email, p.name as name,
		       k.email_count as email_count, k.last_contact as last_contact,
		       0 as cc_count
		ORDER BY k.email_count DESC, k.last_contact DESC, p.email ASC
	`

	return r.listConnectors(ctx, "known at domain", query, map[string]interface{}{
		"myEmails": normalizeEmails(myEmails),
		"domain":   domain,
		"suffix":   "@" + domain,
	})
}

// CCConnectors returns people I know who have been CC'd together with the
// target, ordered by shared-CC count then my email volume with them
func (r *Repository) CCConnectors(ctx context.Context, myEmails []string, target string) ([]ConnectorRow, error) {
	target = NormalizeEmail(target)

	query := `
		MATCH (me:Person)-[k:KNOWS]->(c:Person)-[cc:CC_TOGETHER]-(t:Person)
		WHERE me.email IN $myEmails
		  AND (t.email = $target OR $target IN coalesce(t.alt_emails, []))
		  AND c.email <> t.email
		  AND NOT c.email IN $myEmails
		RETURN c.email as email, c.name as name,
		       k.email_count as email_count, k.last_contact as last_contact,
		       cc.cc_count as cc_count
		ORDER BY cc.cc_count DESC, k.email_count DESC, k.last_contact DESC, c.email ASC
	`

	return r.listConnectors(ctx, "cc connectors", query, map[string]interface{}{
		"myEmails": normalizeEmails(myEmails),
		"target":   target,
	})
}

func (r *Repository) listConnectors(ctx context.Context, operation, query string, params map[string]interface{}) ([]ConnectorRow, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, apperrors.NewQueryFailed(operation, err)
	}

	var rows []ConnectorRow
	for result.Next(ctx) {
		record := result.Record()
		rows = append(rows, ConnectorRow{
			Email:       getStringFromRecord(record, "email"),
			Name:        getStringFromRecord(record, "name"),
			EmailCount:  getIntFromRecord(record, "email_count"),
			LastContact: getTimeFromRecord(record, "last_contact"),
			CCCount:     getIntFromRecord(record, "cc_count"),
		})
	}
	if err := result.Err(); err != nil {
		return nil, apperrors.NewQueryFailed(operation, err)
	}

	return rows, nil
}

func normalizeEmails(emails []string) []string {
	result := make([]string, 0, len(emails))
	for _, e := range emails {
		if e = NormalizeEmail(e); e != "" {
			result = append(result, e)
		}
	}
	return result
}
