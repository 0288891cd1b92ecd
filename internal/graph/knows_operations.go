package graph

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	apperrors "warmpath/pkg/errors"
)

// ============================================================================
// KNOWS Edge Operations
// ============================================================================

// UpsertKnows creates or updates the single KNOWS edge for the ordered
// (from, to) pair: on create email_count=1 and first=last=date; on match
// the count increments and first/last extend to the min/max observed date.
// Not idempotent per call; callers dedupe messages before invoking.
func (r *Repository) UpsertKnows(ctx context.Context, from, to string, date time.Time, subject string) error {
	from = NormalizeEmail(from)
	to = NormalizeEmail(to)
	if from == "" || to == "" {
		return apperrors.NewInvalidEdge("missing endpoint email")
	}
	if from == to {
		return apperrors.NewInvalidEdge("self edge")
	}
	if date.IsZero() {
		return apperrors.NewInvalidEdge("missing date")
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	dateStr := date.UTC().Format(time.RFC3339)

	query := `
		MATCH (a:Person {email: $from})
		MATCH (b:Person {email: $to})
		MERGE (a)-[k:KNOWS]->(b)
		ON CREATE SET
			k.email_count = 1,
			k.first_contact = datetime($date),
			k.last_contact = datetime($date),
			k.last_subject = $subject
		ON MATCH SET
			k.email_count = k.email_count + 1,
			k.first_contact = CASE
				WHEN datetime($date) < k.first_contact THEN datetime($date)
				ELSE k.first_contact
			END,
			k.last_contact = CASE
				WHEN datetime($date) > k.last_contact THEN datetime($date)
				ELSE k.last_contact
			END,
			k.last_subject = CASE
				WHEN datetime($date) >= k.last_contact THEN $subject
				ELSE k.last_subject
			END
		RETURN k.email_count as email_count
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"from":    from,
		"to":      to,
		"date":    dateStr,
		"subject": subject,
	})
	if err != nil {
		return apperrors.NewQueryFailed("upsert knows", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return apperrors.NewQueryFailed("upsert knows", err)
		}
		// MATCH found no endpoint node
		return apperrors.NewPersonNotFound(from)
	}

	return nil
}

// GetKnows returns the KNOWS edge for an ordered pair, or a typed
// not-found error
func (r *Repository) GetKnows(ctx context.Context, from, to string) (*KnowsEdge, error) {
	from = NormalizeEmail(from)
	to = NormalizeEmail(to)

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (a:Person {email: $from})-[k:KNOWS]->(b:Person {email: $to})
		RETURN a.email as from, b.email as to, ` + knowsReturnFields + `
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"from": from,
		"to":   to,
	})
	if err != nil {
		return nil, apperrors.NewQueryFailed("get knows", err)
	}

	if result.Next(ctx) {
		return knowsFromRecord(result.Record()), nil
	}
	if err := result.Err(); err != nil {
		return nil, apperrors.NewQueryFailed("get knows", err)
	}

	return nil, apperrors.NewEdgeNotFound(from, to)
}

// HasKnows reports whether a KNOWS edge exists for the ordered pair
func (r *Repository) HasKnows(ctx context.Context, from, to string) (bool, error) {
	_, err := r.GetKnows(ctx, from, to)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListKnowsEdges returns every KNOWS edge in the graph
func (r *Repository) ListKnowsEdges(ctx context.Context) ([]KnowsEdge, error) {
	return r.listKnows(ctx, `
		MATCH (a:Person)-[k:KNOWS]->(b:Person)
		RETURN a.email as from, b.email as to, `+knowsReturnFields+`
		ORDER BY a.email, b.email
	`, nil)
}

// ListKnowsFrom returns a person's outgoing KNOWS edges, strongest first
func (r *Repository) ListKnowsFrom(ctx context.Context, from string) ([]KnowsEdge, error) {
	return r.listKnows(ctx, `
		MATCH (a:Person {email: $from})-[k:KNOWS]->(b:Person)
		RETURN a.email as from, b.email as to, `+knowsReturnFields+`
		ORDER BY k.email_count DESC, b.email
	`, map[string]interface{}{"from": NormalizeEmail(from)})
}

// ListKnowsTouching returns every KNOWS edge with one of the given emails
// as either endpoint
func (r *Repository) ListKnowsTouching(ctx context.Context, emails []string) ([]KnowsEdge, error) {
	normalized := make([]string, 0, len(emails))
	for _, e := range emails {
		if e = NormalizeEmail(e); e != "" {
			normalized = append(normalized, e)
		}
	}

	return r.listKnows(ctx, `
		MATCH (a:Person)-[k:KNOWS]->(b:Person)
		WHERE a.email IN $emails OR b.email IN $emails
		RETURN a.email as from, b.email as to, `+knowsReturnFields+`
		ORDER BY a.email, b.email
	`, map[string]interface{}{"emails": normalized})
}

func (r *Repository) listKnows(ctx context.Context, query string, params map[string]interface{}) ([]KnowsEdge, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, apperrors.NewQueryFailed("list knows", err)
	}

	var edges []KnowsEdge
	for result.Next(ctx) {
		edges = append(edges, *knowsFromRecord(result.Record()))
	}
	if err := result.Err(); err != nil {
		return nil, apperrors.NewQueryFailed("list knows", err)
	}

	return edges, nil
}

// SetKnowsStrength writes the v1 score and its breakdown onto an edge
func (r *Repository) SetKnowsStrength(ctx context.Context, from, to string, s StrengthV1) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MATCH (a:Person {email: $from})-[k:KNOWS]->(b:Person {email: $to})
		SET k.strength_score = $score,
		    k.is_bidirectional = $bidirectional,
		    k.days_since_contact = $daysSince
		RETURN k.strength_score as score
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"from":          NormalizeEmail(from),
		"to":            NormalizeEmail(to),
		"score":         s.Score,
		"bidirectional": s.IsBidirectional,
		"daysSince":     s.DaysSinceContact,
	})
	if err != nil {
		return apperrors.NewQueryFailed("set strength", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return apperrors.NewQueryFailed("set strength", err)
		}
		return apperrors.NewEdgeNotFound(from, to)
	}

	return nil
}

// SetKnowsStrengthV2 writes the v2 score and its breakdown onto an edge
func (r *Repository) SetKnowsStrengthV2(ctx context.Context, from, to string, s StrengthV2) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MATCH (a:Person {email: $from})-[k:KNOWS]->(b:Person {email: $to})
		SET k.strength_score_v2 = $score,
		    k.emails_sent = $emailsSent,
		    k.emails_received = $emailsReceived,
		    k.reply_rate = $replyRate,
		    k.group_multiplier = $groupMultiplier,
		    k.days_since_contact = $daysSince
		RETURN k.strength_score_v2 as score
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"from":            NormalizeEmail(from),
		"to":              NormalizeEmail(to),
		"score":           s.Score,
		"emailsSent":      s.EmailsSent,
		"emailsReceived":  s.EmailsReceived,
		"replyRate":       s.ReplyRate,
		"groupMultiplier": s.GroupMultiplier,
		"daysSince":       s.DaysSinceContact,
	})
	if err != nil {
		return apperrors.NewQueryFailed("set strength v2", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return apperrors.NewQueryFailed("set strength v2", err)
		}
		return apperrors.NewEdgeNotFound(from, to)
	}

	return nil
}

const knowsReturnFields = `
		k.email_count as email_count,
		k.first_contact as first_contact,
		k.last_contact as last_contact,
		k.last_subject as last_subject,
		k.strength_score as strength_score,
		k.strength_score_v2 as strength_score_v2,
		k.emails_sent as emails_sent,
		k.emails_received as emails_received,
		k.reply_rate as reply_rate,
		k.group_multiplier as group_multiplier,
		k.is_bidirectional as is_bidirectional,
		k.days_since_contact as days_since_contact`

func knowsFromRecord(record *neo4j.Record) *KnowsEdge {
	return &KnowsEdge{
		From:             getStringFromRecord(record, "from"),
		To:               getStringFromRecord(record, "to"),
		EmailCount:       getIntFromRecord(record, "email_count"),
		FirstContact:     getTimeFromRecord(record, "first_contact"),
		LastContact:      getTimeFromRecord(record, "last_contact"),
		LastSubject:      getStringFromRecord(record, "last_subject"),
		StrengthScore:    getIntFromRecord(record, "strength_score"),
		StrengthScoreV2:  getIntFromRecord(record, "strength_score_v2"),
		EmailsSent:       getIntFromRecord(record, "emails_sent"),
		EmailsReceived:   getIntFromRecord(record, "emails_received"),
		ReplyRate:        getFloat64FromRecord(record, "reply_rate"),
		GroupMultiplier:  getFloat64FromRecord(record, "group_multiplier"),
		IsBidirectional:  getBoolFromRecord(record, "is_bidirectional"),
		DaysSinceContact: getIntFromRecord(record, "days_since_contact"),
	}
}
