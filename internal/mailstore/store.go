// Package mailstore reads the sqlite database maintained by the mail-sync
// component. It is a pull source: messages are already persisted before the
// graph builder ever sees them.
package mailstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"warmpath/pkg/logger"
)

// Address is one email participant
type Address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Message is one email-metadata record from the mail store
type Message struct {
	RowID     int64
	ID        string
	ThreadID  string
	From      Address
	To        []Address
	CC        []Address
	BCC       []Address
	Date      time.Time
	Subject   string
	InReplyTo string
}

// ContactStats holds the per-direction interaction statistics the v2
// scorer needs for one contact
type ContactStats struct {
	EmailsSent            int
	EmailsReceived        int
	AvgRecipientsSent     float64
	AvgRecipientsReceived float64
	ReplyRate             float64
	LastContact           time.Time
}

// Store provides read access to the mail-sync sqlite database
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens the mail store at the given path
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mail store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping mail store: %w", err)
	}
	return &Store{db: db, logger: logger.Named("mailstore")}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the messages table if it does not exist. The
// mail-sync component owns this schema; this exists for tests and for
// standing up a fresh store.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			thread_id TEXT,
			from_email TEXT NOT NULL,
			from_name TEXT,
			to_json TEXT,
			cc_json TEXT,
			bcc_json TEXT,
			date TEXT,
			subject TEXT,
			in_reply_to TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_messages_from ON messages (from_email);
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure mail store schema: %w", err)
	}
	return nil
}

// InsertMessage writes one message record. Used by tests and seed tooling;
// production writes come from the mail-sync component.
func (s *Store) InsertMessage(ctx context.Context, m Message) error {
	toJSON, _ := json.Marshal(m.To)
	ccJSON, _ := json.Marshal(m.CC)
	bccJSON, _ := json.Marshal(m.BCC)

	var dateStr string
	if !m.Date.IsZero() {
		dateStr = m.Date.UTC().Format(time.RFC3339)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO messages
			(id, thread_id, from_email, from_name, to_json, cc_json, bcc_json, date, subject, in_reply_to)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.ThreadID, m.From.Email, m.From.Name, string(toJSON), string(ccJSON), string(bccJSON),
		dateStr, m.Subject, m.InReplyTo)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// ListAfter returns up to limit messages with rowid greater than afterRowID,
// in rowid order. Rows with unparseable recipient lists or dates are
// returned with those fields zeroed; the builder decides how to classify
// them.
func (s *Store) ListAfter(ctx context.Context, afterRowID int64, limit int) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rowid, id, thread_id, from_email, from_name,
		       to_json, cc_json, bcc_json, date, subject, in_reply_to
		FROM messages
		WHERE rowid > ?
		ORDER BY rowid
		LIMIT ?
	`, afterRowID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		m, err := s.scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return messages, nil
}

// ContactStats computes per-direction statistics between my identity and
// one contact: email counts, average recipient-list sizes, last contact,
// and the reply rate (in_reply_to matched against my own message IDs)
func (s *Store) ContactStats(ctx context.Context, myEmails []string, contact string) (*ContactStats, error) {
	contact = normalize(contact)
	mine := make(map[string]bool, len(myEmails))
	for _, e := range myEmails {
		mine[normalize(e)] = true
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT rowid, id, thread_id, from_email, from_name,
		       to_json, cc_json, bcc_json, date, subject, in_reply_to
		FROM messages
		ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	stats := &ContactStats{}
	sentIDs := make(map[string]bool)
	repliedTo := make(map[string]bool)
	var sentRecipients, receivedRecipients int
	var receivedMessages []Message

	for rows.Next() {
		m, err := s.scanMessage(rows)
		if err != nil {
			return nil, err
		}

		from := normalize(m.From.Email)
		switch {
		case mine[from]:
			recipients := m.Recipients()
			if !containsEmail(recipients, contact) {
				continue
			}
			stats.EmailsSent++
			sentRecipients += len(recipients)
			sentIDs[m.ID] = true
			if m.Date.After(stats.LastContact) {
				stats.LastContact = m.Date
			}
		case from == contact:
			recipients := m.Recipients()
			if !containsAny(recipients, mine) {
				continue
			}
			stats.EmailsReceived++
			receivedRecipients += len(recipients)
			receivedMessages = append(receivedMessages, m)
			if m.Date.After(stats.LastContact) {
				stats.LastContact = m.Date
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	// Replies can arrive before the full sent set is known, so match them
	// after the scan completes
	for _, m := range receivedMessages {
		if m.InReplyTo != "" && sentIDs[m.InReplyTo] {
			repliedTo[m.InReplyTo] = true
		}
	}

	if stats.EmailsSent > 0 {
		stats.AvgRecipientsSent = float64(sentRecipients) / float64(stats.EmailsSent)
		stats.ReplyRate = float64(len(repliedTo)) / float64(stats.EmailsSent)
		if stats.ReplyRate > 1 {
			stats.ReplyRate = 1
		}
	}
	if stats.EmailsReceived > 0 {
		stats.AvgRecipientsReceived = float64(receivedRecipients) / float64(stats.EmailsReceived)
	}

	return stats, nil
}

// Recipients returns the union of the to and cc lists, deduplicated by
// normalized email
func (m *Message) Recipients() []Address {
	seen := make(map[string]bool, len(m.To)+len(m.CC))
	result := make([]Address, 0, len(m.To)+len(m.CC))
	for _, a := range append(append([]Address{}, m.To...), m.CC...) {
		email := normalize(a.Email)
		if email == "" || seen[email] {
			continue
		}
		seen[email] = true
		result = append(result, Address{Email: email, Name: a.Name})
	}
	return result
}

func (s *Store) scanMessage(rows *sql.Rows) (Message, error) {
	var m Message
	var fromEmail, fromName, toJSON, ccJSON, bccJSON, dateStr, subject, inReplyTo, threadID sql.NullString
	if err := rows.Scan(&m.RowID, &m.ID, &threadID, &fromEmail, &fromName,
		&toJSON, &ccJSON, &bccJSON, &dateStr, &subject, &inReplyTo); err != nil {
		return Message{}, fmt.Errorf("failed to scan message: %w", err)
	}

	m.ThreadID = threadID.String
	m.From = Address{Email: normalize(fromEmail.String), Name: fromName.String}
	m.Subject = subject.String
	m.InReplyTo = inReplyTo.String
	m.To = s.parseAddresses(m.ID, "to", toJSON.String)
	m.CC = s.parseAddresses(m.ID, "cc", ccJSON.String)
	m.BCC = s.parseAddresses(m.ID, "bcc", bccJSON.String)

	if dateStr.String != "" {
		t, err := time.Parse(time.RFC3339, dateStr.String)
		if err != nil {
			s.logger.Warn("Unparseable message date",
				zap.String("message_id", m.ID),
				zap.String("date", dateStr.String),
			)
		} else {
			m.Date = t
		}
	}

	return m, nil
}

func (s *Store) parseAddresses(messageID, field, raw string) []Address {
	if raw == "" || raw == "null" {
		return nil
	}
	var addresses []Address
	if err := json.Unmarshal([]byte(raw), &addresses); err != nil {
		s.logger.Warn("Unparseable recipient list",
			zap.String("message_id", messageID),
			zap.String("field", field),
		)
		return nil
	}
	return addresses
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func containsEmail(addresses []Address, email string) bool {
	for _, a := range addresses {
		if normalize(a.Email) == email {
			return true
		}
	}
	return false
}

func containsAny(addresses []Address, set map[string]bool) bool {
	for _, a := range addresses {
		if set[normalize(a.Email)] {
			return true
		}
	}
	return false
}
