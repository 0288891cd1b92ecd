package scoring

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"warmpath/internal/graph"
	"warmpath/internal/mailstore"
	"warmpath/pkg/logger"
)

// maxErrorReasons caps how many individual error strings a report keeps
const maxErrorReasons = 10

// GraphStore is the slice of the graph repository the batch scorer uses
type GraphStore interface {
	ListKnowsEdges(ctx context.Context) ([]graph.KnowsEdge, error)
	ListKnowsTouching(ctx context.Context, emails []string) ([]graph.KnowsEdge, error)
	HasKnows(ctx context.Context, from, to string) (bool, error)
	SetKnowsStrength(ctx context.Context, from, to string, s graph.StrengthV1) error
	SetKnowsStrengthV2(ctx context.Context, from, to string, s graph.StrengthV2) error
}

// MailStats supplies per-contact interaction statistics for the v2 run
type MailStats interface {
	ContactStats(ctx context.Context, myEmails []string, contact string) (*mailstore.ContactStats, error)
}

// Distribution buckets scored edges by strength band
type Distribution struct {
	Strong  int `json:"strong"`  // >= 70
	Medium  int `json:"medium"`  // 40-69
	Weak    int `json:"weak"`    // 15-39
	Minimal int `json:"minimal"` // < 15
}

func (d *Distribution) add(score int) {
	switch {
	case score >= 70:
		d.Strong++
	case score >= 40:
		d.Medium++
	case score >= 15:
		d.Weak++
	default:
		d.Minimal++
	}
}

// Report summarizes one scoring run
type Report struct {
	RunID        string       `json:"run_id"`
	Processed    int          `json:"processed"`
	Skipped      int          `json:"skipped"`
	Errors       int          `json:"errors"`
	Buckets      Distribution `json:"buckets"`
	ErrorReasons []string     `json:"error_reasons,omitempty"`
}

func (r *Report) addError(err error) {
	r.Errors++
	if len(r.ErrorReasons) < maxErrorReasons {
		r.ErrorReasons = append(r.ErrorReasons, err.Error())
	}
}

// BatchScorer computes strength scores and writes them back onto edges
type BatchScorer struct {
	store  GraphStore
	mail   MailStats
	logger *zap.Logger
}

// NewBatchScorer creates a batch scorer. mail may be nil when only the v1
// run is needed.
func NewBatchScorer(store GraphStore, mail MailStats) *BatchScorer {
	return &BatchScorer{
		store:  store,
		mail:   mail,
		logger: logger.Named("scorer"),
	}
}

// ScoreAll runs the v1 formula over every KNOWS edge. One bad edge is
// counted and skipped, never fatal to the batch.
func (s *BatchScorer) ScoreAll(ctx context.Context) (*Report, error) {
	report := &Report{RunID: uuid.NewString()}

	edges, err := s.store.ListKnowsEdges(ctx)
	if err != nil {
		return report, err
	}

	for _, edge := range edges {
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		default:
		}

		bidirectional, err := s.store.HasKnows(ctx, edge.To, edge.From)
		if err != nil {
			report.addError(err)
			continue
		}

		days := DaysSince(edge.LastContact)
		score := ScoreV1(edge.EmailCount, days, bidirectional)

		if err := s.store.SetKnowsStrength(ctx, edge.From, edge.To, graph.StrengthV1{
			Score:            score,
			IsBidirectional:  bidirectional,
			DaysSinceContact: days,
		}); err != nil {
			report.addError(err)
			continue
		}

		report.Processed++
		report.Buckets.add(score)
	}

	s.logReport("v1 scoring run complete", report)
	return report, nil
}

// ScoreMine runs the v2 formula over every KNOWS edge touching my
// identity, computing inputs from the raw email log. Contacts with no
// observable interaction are skipped for missing data.
func (s *BatchScorer) ScoreMine(ctx context.Context, identity graph.Identity) (*Report, error) {
	report := &Report{RunID: uuid.NewString()}

	edges, err := s.store.ListKnowsTouching(ctx, identity.Emails)
	if err != nil {
		return report, err
	}

	// The same contact appears once per direction; compute its inputs once
	type contactResult struct {
		strength graph.StrengthV2
		skipped  bool
	}
	cache := make(map[string]contactResult)

	for _, edge := range edges {
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		default:
		}

		contact := edge.To
		if identity.Contains(contact) {
			contact = edge.From
		}
		if identity.Contains(contact) {
			// Edge between two of my own addresses
			report.Skipped++
			continue
		}

		result, ok := cache[contact]
		if !ok {
			stats, err := s.mail.ContactStats(ctx, identity.Emails, contact)
			if err != nil {
				report.addError(err)
				continue
			}
			if stats.EmailsSent == 0 && stats.EmailsReceived == 0 {
				result = contactResult{skipped: true}
			} else {
				days := DaysSince(stats.LastContact)
				v2 := ScoreV2(V2Inputs{
					EmailsSent:            stats.EmailsSent,
					EmailsReceived:        stats.EmailsReceived,
					AvgRecipientsSent:     stats.AvgRecipientsSent,
					AvgRecipientsReceived: stats.AvgRecipientsReceived,
					ReplyRate:             stats.ReplyRate,
					DaysSinceContact:      days,
				})
				result = contactResult{strength: graph.StrengthV2{
					Score:            v2.Score,
					EmailsSent:       stats.EmailsSent,
					EmailsReceived:   stats.EmailsReceived,
					ReplyRate:        stats.ReplyRate,
					GroupMultiplier:  v2.GroupMultiplier,
					DaysSinceContact: days,
				}}
			}
			cache[contact] = result
		}

		if result.skipped {
			report.Skipped++
			continue
		}

		if err := s.store.SetKnowsStrengthV2(ctx, edge.From, edge.To, result.strength); err != nil {
			report.addError(err)
			continue
		}

		report.Processed++
		report.Buckets.add(result.strength.Score)
	}

	s.logReport("v2 scoring run complete", report)
	return report, nil
}

func (s *BatchScorer) logReport(msg string, report *Report) {
	s.logger.Info(msg,
		zap.String("run_id", report.RunID),
		zap.Int("processed", report.Processed),
		zap.Int("skipped", report.Skipped),
		zap.Int("errors", report.Errors),
		zap.Int("strong", report.Buckets.Strong),
		zap.Int("medium", report.Buckets.Medium),
		zap.Int("weak", report.Buckets.Weak),
		zap.Int("minimal", report.Buckets.Minimal),
	)
}
