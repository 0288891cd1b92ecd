// Package builder incrementally constructs the contact graph from email
// metadata. One email becomes one sender upsert, N recipient upserts,
// N KNOWS upserts, and up to C(N,2) CC_TOGETHER upserts.
package builder

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"warmpath/internal/graph"
	"warmpath/internal/mailstore"
	apperrors "warmpath/pkg/errors"
	"warmpath/pkg/logger"
)

// Store is the slice of the graph repository the builder writes through
type Store interface {
	UpsertPerson(ctx context.Context, p graph.Person) error
	UpsertKnows(ctx context.Context, from, to string, date time.Time, subject string) error
	UpsertCCTogether(ctx context.Context, a, b string, date time.Time) error
}

// Builder turns email-message records into graph writes
type Builder struct {
	store  Store
	logger *zap.Logger
}

// New creates a builder over the given graph store
func New(store Store) *Builder {
	return &Builder{
		store:  store,
		logger: logger.Named("builder"),
	}
}

// ProcessEmail applies one email to the graph. Calling it twice for the
// same message doubles edge counts; the runner's processed-IDs checkpoint
// is the dedupe boundary.
//
// Malformed records return an input-typed error so callers can skip them;
// store errors propagate unchanged so callers can abort the batch.
func (b *Builder) ProcessEmail(ctx context.Context, msg mailstore.Message) error {
	sender := graph.NormalizeEmail(msg.From.Email)
	if sender == "" {
		return apperrors.NewMalformedMessage(msg.ID, "missing sender email")
	}
	if msg.Date.IsZero() {
		return apperrors.NewMalformedMessage(msg.ID, "missing or unparseable date")
	}

	recipients := msg.Recipients()
	if len(recipients) == 0 {
		return apperrors.NewMalformedMessage(msg.ID, "no recipients")
	}

	if err := b.store.UpsertPerson(ctx, graph.Person{
		Email: sender,
		Name:  msg.From.Name,
	}); err != nil {
		return err
	}

	for _, rcpt := range recipients {
		if err := b.store.UpsertPerson(ctx, graph.Person{
			Email: rcpt.Email,
			Name:  rcpt.Name,
		}); err != nil {
			return err
		}
		if rcpt.Email == sender {
			// Self-addressed copies create no self edge
			continue
		}
		if err := b.store.UpsertKnows(ctx, sender, rcpt.Email, msg.Date, msg.Subject); err != nil {
			return err
		}
	}

	if len(recipients) > 1 {
		emails := make([]string, 0, len(recipients))
		for _, rcpt := range recipients {
			emails = append(emails, rcpt.Email)
		}
		sort.Strings(emails)
		for i := 0; i < len(emails); i++ {
			for j := i + 1; j < len(emails); j++ {
				if err := b.store.UpsertCCTogether(ctx, emails[i], emails[j], msg.Date); err != nil {
					return err
				}
			}
		}
	}

	b.logger.Debug("Processed email",
		zap.String("message_id", msg.ID),
		zap.String("sender", sender),
		zap.Int("recipients", len(recipients)),
	)
	return nil
}
