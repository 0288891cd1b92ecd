package builder

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"warmpath/internal/graph"
	"warmpath/internal/mailstore"
	apperrors "warmpath/pkg/errors"
	"warmpath/pkg/logger"
)

// maxErrorReasons caps how many individual error strings a run report keeps
const maxErrorReasons = 10

// Source is the mail-store slice the runner reads the backlog from
type Source interface {
	ListAfter(ctx context.Context, afterRowID int64, limit int) ([]mailstore.Message, error)
}

// StatsProvider reports aggregate graph counts after each batch
type StatsProvider interface {
	Stats(ctx context.Context) (*graph.Stats, error)
}

// RunStats summarizes one builder run. Skipped records are always counted;
// nothing is dropped silently.
type RunStats struct {
	RunID            string   `json:"run_id"`
	Processed        int      `json:"processed"`
	AlreadyProcessed int      `json:"already_processed"`
	Malformed        int      `json:"malformed"`
	Errors           int      `json:"errors"`
	ErrorReasons     []string `json:"error_reasons,omitempty"`
}

// Runner drives the builder over the mail-store backlog in bounded
// batches, filtering out already-processed messages and persisting the
// checkpoint only after each batch fully lands.
type Runner struct {
	source     Source
	builder    *Builder
	checkpoint *Checkpoint
	graphStats StatsProvider
	batchSize  int
	logger     *zap.Logger
}

// NewRunner creates a runner. graphStats may be nil to skip the per-batch
// stats report.
func NewRunner(source Source, b *Builder, checkpoint *Checkpoint, graphStats StatsProvider, batchSize int) *Runner {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Runner{
		source:     source,
		builder:    b,
		checkpoint: checkpoint,
		graphStats: graphStats,
		batchSize:  batchSize,
		logger:     logger.Named("runner"),
	}
}

// RunOnce processes everything new in the mail store and returns the run
// report. A malformed record is counted and skipped; a store failure
// aborts the run without marking the in-flight batch as processed.
func (r *Runner) RunOnce(ctx context.Context) (*RunStats, error) {
	stats := &RunStats{RunID: uuid.NewString()}
	var cursor int64

	for {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		messages, err := r.source.ListAfter(ctx, cursor, r.batchSize)
		if err != nil {
			return stats, err
		}
		if len(messages) == 0 {
			break
		}
		cursor = messages[len(messages)-1].RowID

		ids := make([]string, len(messages))
		for i, m := range messages {
			ids[i] = m.ID
		}
		alreadyProcessed, err := r.checkpoint.FilterProcessed(ctx, ids)
		if err != nil {
			return stats, err
		}

		var batchDone []string
		for _, msg := range messages {
			select {
			case <-ctx.Done():
				// Persist what completed before the interrupt, then stop
				if err := r.checkpoint.MarkBatch(context.Background(), batchDone); err != nil {
					r.logger.Error("Failed to persist checkpoint on interrupt", zap.Error(err))
				}
				return stats, ctx.Err()
			default:
			}

			if alreadyProcessed[msg.ID] {
				stats.AlreadyProcessed++
				continue
			}

			if err := r.builder.ProcessEmail(ctx, msg); err != nil {
				if apperrors.IsErrorType(err, apperrors.ErrorTypeInput) {
					stats.Malformed++
					if len(stats.ErrorReasons) < maxErrorReasons {
						stats.ErrorReasons = append(stats.ErrorReasons, err.Error())
					}
					r.logger.Warn("Skipping malformed email",
						zap.String("message_id", msg.ID),
						zap.Error(err),
					)
					// Malformed records never become processable; mark them
					// so they are not retried forever
					batchDone = append(batchDone, msg.ID)
					continue
				}
				// Store failure: abort without marking the in-flight batch
				stats.Errors++
				if len(stats.ErrorReasons) < maxErrorReasons {
					stats.ErrorReasons = append(stats.ErrorReasons, err.Error())
				}
				return stats, err
			}

			stats.Processed++
			batchDone = append(batchDone, msg.ID)
		}

		if err := r.checkpoint.MarkBatch(ctx, batchDone); err != nil {
			return stats, err
		}
		r.reportBatch(ctx, stats)

		if len(messages) < r.batchSize {
			break
		}
	}

	return stats, nil
}

// RunLoop runs RunOnce, then keeps polling at the given interval until the
// context is cancelled. Interrupts stop after the current batch completes.
func (r *Runner) RunLoop(ctx context.Context, interval time.Duration) error {
	for {
		stats, err := r.RunOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.logger.Error("Builder run failed, will retry next poll",
				zap.String("run_id", stats.RunID),
				zap.Error(err),
			)
		} else {
			r.logger.Info("Builder run complete",
				zap.String("run_id", stats.RunID),
				zap.Int("processed", stats.Processed),
				zap.Int("already_processed", stats.AlreadyProcessed),
				zap.Int("malformed", stats.Malformed),
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

func (r *Runner) reportBatch(ctx context.Context, stats *RunStats) {
	fields := []zap.Field{
		zap.String("run_id", stats.RunID),
		zap.Int("processed", stats.Processed),
		zap.Int("already_processed", stats.AlreadyProcessed),
		zap.Int("malformed", stats.Malformed),
	}
	if r.graphStats != nil {
		if gs, err := r.graphStats.Stats(ctx); err == nil {
			fields = append(fields,
				zap.Int64("persons", gs.Persons),
				zap.Int64("knows_edges", gs.KnowsEdges),
				zap.Int64("cc_together_edges", gs.CCTogetherEdges),
			)
		}
	}
	r.logger.Info("Batch complete", fields...)
}
