package graph

import (
	"strings"
	"time"

	apperrors "warmpath/pkg/errors"
)

// ============================================================================
// Contact Graph Types
// ============================================================================

// Person represents a unique human identity, keyed by primary email.
// Lookup by any alternate email resolves to the same node.
type Person struct {
	Email       string    `json:"email"`
	Name        string    `json:"name,omitempty"`
	Company     string    `json:"company,omitempty"`
	Role        string    `json:"role,omitempty"`
	LinkedinURL string    `json:"linkedin_url,omitempty"`
	City        string    `json:"city,omitempty"`
	Country     string    `json:"country,omitempty"`
	AltEmails   []string  `json:"alt_emails,omitempty"`
	FirstSeen   time.Time `json:"first_seen,omitempty"`
	LastSeen    time.Time `json:"last_seen,omitempty"`
}

// Company represents an organization
type Company struct {
	Name     string `json:"name"`
	Domain   string `json:"domain,omitempty"`
	Industry string `json:"industry,omitempty"`
}

// Topic represents a free-text discussion label
type Topic struct {
	Name string `json:"name"`
}

// KnowsEdge is the directed record of "from has emailed to", carrying
// volume, recency and strength metadata
type KnowsEdge struct {
	From         string    `json:"from"`
	To           string    `json:"to"`
	EmailCount   int       `json:"email_count"`
	FirstContact time.Time `json:"first_contact"`
	LastContact  time.Time `json:"last_contact"`
	LastSubject  string    `json:"last_subject,omitempty"`

	// Strength fields written by the scorer
	StrengthScore    int     `json:"strength_score"`
	StrengthScoreV2  int     `json:"strength_score_v2"`
	EmailsSent       int     `json:"emails_sent"`
	EmailsReceived   int     `json:"emails_received"`
	ReplyRate        float64 `json:"reply_rate"`
	GroupMultiplier  float64 `json:"group_multiplier"`
	IsBidirectional  bool    `json:"is_bidirectional"`
	DaysSinceContact int     `json:"days_since_contact"`
}

// Validate rejects edges that violate the data-model invariants
func (e *KnowsEdge) Validate() error {
	if e.From == "" || e.To == "" {
		return apperrors.NewInvalidEdge("missing endpoint email")
	}
	if e.From == e.To {
		return apperrors.NewInvalidEdge("self edge")
	}
	if e.EmailCount < 1 {
		return apperrors.NewInvalidEdge("email_count must be at least 1")
	}
	if !e.FirstContact.IsZero() && !e.LastContact.IsZero() && e.FirstContact.After(e.LastContact) {
		return apperrors.NewInvalidEdge("first_contact after last_contact")
	}
	return nil
}

// CCTogetherEdge is the undirected record of two people being co-CC'd.
// The pair is canonicalized by lexicographic email order so that (A,B)
// and (B,A) always map to the same edge.
type CCTogetherEdge struct {
	A         string    `json:"a"`
	B         string    `json:"b"`
	CCCount   int       `json:"cc_count"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// CanonicalPair returns the two emails in canonical (sorted) order
func CanonicalPair(a, b string) (string, string) {
	a = NormalizeEmail(a)
	b = NormalizeEmail(b)
	if a > b {
		return b, a
	}
	return a, b
}

// Validate rejects pairs that violate the data-model invariants
func (e *CCTogetherEdge) Validate() error {
	if e.A == "" || e.B == "" {
		return apperrors.NewInvalidEdge("missing endpoint email")
	}
	if e.A == e.B {
		return apperrors.NewInvalidEdge("self pair")
	}
	if e.A > e.B {
		return apperrors.NewInvalidEdge("pair not in canonical order")
	}
	if !e.FirstSeen.IsZero() && !e.LastSeen.IsZero() && e.FirstSeen.After(e.LastSeen) {
		return apperrors.NewInvalidEdge("first_seen after last_seen")
	}
	return nil
}

// ConnectorRow is one ranked candidate connector returned by a path query
type ConnectorRow struct {
	Email       string    `json:"email"`
	Name        string    `json:"name,omitempty"`
	EmailCount  int       `json:"email_count"`
	LastContact time.Time `json:"last_contact"`
	CCCount     int       `json:"cc_count,omitempty"`
}

// StrengthV1 carries the fields the v1 scorer writes onto a KNOWS edge
type StrengthV1 struct {
	Score            int
	IsBidirectional  bool
	DaysSinceContact int
}

// StrengthV2 carries the fields the v2 scorer writes onto a KNOWS edge
type StrengthV2 struct {
	Score            int
	EmailsSent       int
	EmailsReceived   int
	ReplyRate        float64
	GroupMultiplier  float64
	DaysSinceContact int
}

// Stats holds aggregate graph counts
type Stats struct {
	Persons         int64 `json:"persons"`
	Companies       int64 `json:"companies"`
	KnowsEdges      int64 `json:"knows_edges"`
	CCTogetherEdges int64 `json:"cc_together_edges"`
}

// Identity is the caller-supplied "my" identity: one or more email
// addresses belonging to the same person, primary first
type Identity struct {
	Emails []string `json:"emails"`
}

// NewIdentity builds an identity from raw addresses, normalizing each
func NewIdentity(emails ...string) Identity {
	normalized := make([]string, 0, len(emails))
	for _, e := range emails {
		if e = NormalizeEmail(e); e != "" {
			normalized = append(normalized, e)
		}
	}
	return Identity{Emails: normalized}
}

// Primary returns the canonical address of this identity
func (id Identity) Primary() string {
	if len(id.Emails) == 0 {
		return ""
	}
	return id.Emails[0]
}

// Contains reports whether email belongs to this identity
func (id Identity) Contains(email string) bool {
	email = NormalizeEmail(email)
	for _, e := range id.Emails {
		if e == email {
			return true
		}
	}
	return false
}

// NormalizeEmail lowercases and trims an address for use as a graph key
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailDomain returns the domain part of an address, or "" if malformed
func EmailDomain(email string) string {
	email = NormalizeEmail(email)
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return email[at+1:]
}
