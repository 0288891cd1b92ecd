package graph

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	apperrors "warmpath/pkg/errors"
)

// ============================================================================
// Person Operations
// ============================================================================

// UpsertPerson creates or updates a Person node keyed by primary email.
// Non-empty incoming fields overwrite stored ones; the alternate-email set
// only grows. Never destructive.
func (r *Repository) UpsertPerson(ctx context.Context, p Person) error {
	email := NormalizeEmail(p.Email)
	if email == "" {
		return apperrors.NewMalformedMessage("", "person without email")
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	now := time.Now().UTC().Format(time.RFC3339)

	query := `
		MERGE (p:Person {email: $email})
		ON CREATE SET
			p.name = $name,
			p.company = $company,
			p.role = $role,
			p.linkedin_url = $linkedinURL,
			p.city = $city,
			p.country = $country,
			p.alt_emails = $altEmails,
			p.first_seen = datetime($now),
			p.last_seen = datetime($now)
		ON MATCH SET
			p.last_seen = datetime($now),
			p.name = CASE WHEN $name <> '' THEN $name ELSE p.name END,
			p.company = CASE WHEN $company <> '' THEN $company ELSE p.company END,
			p.role = CASE WHEN $role <> '' THEN $role ELSE p.role END,
			p.linkedin_url = CASE WHEN $linkedinURL <> '' THEN $linkedinURL ELSE p.linkedin_url END,
			p.city = CASE WHEN $city <> '' THEN $city ELSE p.city END,
			p.country = CASE WHEN $country <> '' THEN $country ELSE p.country END,
			p.alt_emails = [a IN coalesce(p.alt_emails, []) | a] +
				[a IN $altEmails WHERE NOT a IN coalesce(p.alt_emails, [])]
		RETURN p.email as email
	`

	altEmails := make([]string, 0, len(p.AltEmails))
	for _, a := range p.AltEmails {
		if a = NormalizeEmail(a); a != "" && a != email {
			altEmails = append(altEmails, a)
		}
	}

	_, err := session.Run(ctx, query, map[string]interface{}{
		"email":       email,
		"name":        p.Name,
		"company":     p.Company,
		"role":        p.Role,
		"linkedinURL": p.LinkedinURL,
		"city":        p.City,
		"country":     p.Country,
		"altEmails":   altEmails,
		"now":         now,
	})
	if err != nil {
		return apperrors.NewQueryFailed("upsert person", err)
	}

	return nil
}

// AddAlternateEmail links an alternate address to the person keyed by the
// primary email. The alternate set grows monotonically.
func (r *Repository) AddAlternateEmail(ctx context.Context, primary, alt string) error {
	primary = NormalizeEmail(primary)
	alt = NormalizeEmail(alt)
	if primary == "" || alt == "" {
		return apperrors.NewMalformedMessage("", "empty email in alternate link")
	}
	if primary == alt {
		return nil
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MATCH (p:Person {email: $primary})
		SET p.alt_emails = CASE
			WHEN $alt IN coalesce(p.alt_emails, []) THEN p.alt_emails
			ELSE coalesce(p.alt_emails, []) + $alt
		END
		RETURN p.email as email
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"primary": primary,
		"alt":     alt,
	})
	if err != nil {
		return apperrors.NewQueryFailed("add alternate email", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return apperrors.NewQueryFailed("add alternate email", err)
		}
		return apperrors.NewPersonNotFound(primary)
	}

	return nil
}

// ListPersons returns every person in the graph, primary fields only
func (r *Repository) ListPersons(ctx context.Context) ([]Person, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (p:Person)
		RETURN p.email as email, p.name as name, p.company as company,
		       p.role as role, p.linkedin_url as linkedin_url,
		       p.city as city, p.country as country,
		       p.alt_emails as alt_emails,
		       p.first_seen as first_seen, p.last_seen as last_seen
		ORDER BY p.email
	`

	result, err := session.Run(ctx, query, map[string]interface{}{})
	if err != nil {
		return nil, apperrors.NewQueryFailed("list persons", err)
	}

	var persons []Person
	for result.Next(ctx) {
		persons = append(persons, *personFromRecord(result.Record()))
	}
	if err := result.Err(); err != nil {
		return nil, apperrors.NewQueryFailed("list persons", err)
	}

	return persons, nil
}

// FindPersonByEmail resolves a person by primary or alternate email.
// A missing person is a typed not-found error, not a store failure.
func (r *Repository) FindPersonByEmail(ctx context.Context, email string) (*Person, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, apperrors.NewPersonNotFound(email)
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (p:Person)
		WHERE p.email = $email OR $email IN coalesce(p.alt_emails, [])
		RETURN p.email as email, p.name as name, p.company as company,
		       p.role as role, p.linkedin_url as linkedin_url,
		       p.city as city, p.country as country,
		       p.alt_emails as alt_emails,
		       p.first_seen as first_seen, p.last_seen as last_seen
		LIMIT 1
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"email": email,
	})
	if err != nil {
		return nil, apperrors.NewQueryFailed("find person", err)
	}

	if result.Next(ctx) {
		return personFromRecord(result.Record()), nil
	}
	if err := result.Err(); err != nil {
		return nil, apperrors.NewQueryFailed("find person", err)
	}

	return nil, apperrors.NewPersonNotFound(email)
}

func personFromRecord(record *neo4j.Record) *Person {
	return &Person{
		Email:       getStringFromRecord(record, "email"),
		Name:        getStringFromRecord(record, "name"),
		Company:     getStringFromRecord(record, "company"),
		Role:        getStringFromRecord(record, "role"),
		LinkedinURL: getStringFromRecord(record, "linkedin_url"),
		City:        getStringFromRecord(record, "city"),
		Country:     getStringFromRecord(record, "country"),
		AltEmails:   getStringSliceFromRecord(record, "alt_emails"),
		FirstSeen:   getTimeFromRecord(record, "first_seen"),
		LastSeen:    getTimeFromRecord(record, "last_seen"),
	}
}
