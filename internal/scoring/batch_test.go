package scoring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warmpath/internal/graph"
	"warmpath/internal/mailstore"
	apperrors "warmpath/pkg/errors"
)

type fakeGraphStore struct {
	edges []graph.KnowsEdge
	v1    map[string]graph.StrengthV1
	v2    map[string]graph.StrengthV2
}

func newFakeGraphStore(edges ...graph.KnowsEdge) *fakeGraphStore {
	return &fakeGraphStore{
		edges: edges,
		v1:    make(map[string]graph.StrengthV1),
		v2:    make(map[string]graph.StrengthV2),
	}
}

func (f *fakeGraphStore) ListKnowsEdges(context.Context) ([]graph.KnowsEdge, error) {
	return f.edges, nil
}

func (f *fakeGraphStore) ListKnowsTouching(_ context.Context, emails []string) ([]graph.KnowsEdge, error) {
	mine := make(map[string]bool)
	for _, e := range emails {
		mine[e] = true
	}
	var out []graph.KnowsEdge
	for _, e := range f.edges {
		if mine[e.From] || mine[e.To] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeGraphStore) HasKnows(_ context.Context, from, to string) (bool, error) {
	for _, e := range f.edges {
		if e.From == from && e.To == to {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeGraphStore) SetKnowsStrength(_ context.Context, from, to string, s graph.StrengthV1) error {
	f.v1[from+"->"+to] = s
	return nil
}

func (f *fakeGraphStore) SetKnowsStrengthV2(_ context.Context, from, to string, s graph.StrengthV2) error {
	f.v2[from+"->"+to] = s
	return nil
}

type fakeMailStats struct {
	stats map[string]*mailstore.ContactStats
	err   error
}

func (f *fakeMailStats) ContactStats(_ context.Context, _ []string, contact string) (*mailstore.ContactStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	if s, ok := f.stats[contact]; ok {
		return s, nil
	}
	return &mailstore.ContactStats{}, nil
}

func TestScoreAll_V1(t *testing.T) {
	recent := time.Now().Add(-24 * time.Hour)
	store := newFakeGraphStore(
		graph.KnowsEdge{From: "me@x.com", To: "ann@x.com", EmailCount: 10, LastContact: recent},
		graph.KnowsEdge{From: "ann@x.com", To: "me@x.com", EmailCount: 4, LastContact: recent},
		graph.KnowsEdge{From: "me@x.com", To: "cold@x.com", EmailCount: 1},
	)

	report, err := NewBatchScorer(store, nil).ScoreAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Processed)
	assert.Zero(t, report.Errors)

	// Bidirectional pair gets the 30-point bonus
	assert.True(t, store.v1["me@x.com->ann@x.com"].IsBidirectional)
	assert.False(t, store.v1["me@x.com->cold@x.com"].IsBidirectional)
	assert.Greater(t, store.v1["me@x.com->ann@x.com"].Score, store.v1["me@x.com->cold@x.com"].Score)

	// Edge without last_contact falls back to the conservative default
	assert.Equal(t, DefaultDaysSinceContact, store.v1["me@x.com->cold@x.com"].DaysSinceContact)

	total := report.Buckets.Strong + report.Buckets.Medium + report.Buckets.Weak + report.Buckets.Minimal
	assert.Equal(t, report.Processed, total)
}

func TestScoreMine_V2(t *testing.T) {
	identity := graph.NewIdentity("me@x.com")
	recent := time.Now().Add(-24 * time.Hour)
	store := newFakeGraphStore(
		graph.KnowsEdge{From: "me@x.com", To: "ann@x.com", EmailCount: 10, LastContact: recent},
		graph.KnowsEdge{From: "ann@x.com", To: "me@x.com", EmailCount: 8, LastContact: recent},
		graph.KnowsEdge{From: "me@x.com", To: "ghost@x.com", EmailCount: 1, LastContact: recent},
		graph.KnowsEdge{From: "other@x.com", To: "stranger@x.com", EmailCount: 5, LastContact: recent},
	)
	mail := &fakeMailStats{stats: map[string]*mailstore.ContactStats{
		"ann@x.com": {
			EmailsSent: 10, EmailsReceived: 8,
			AvgRecipientsSent: 1.2, AvgRecipientsReceived: 1.0,
			ReplyRate: 0.6, LastContact: recent,
		},
	}}

	report, err := NewBatchScorer(store, mail).ScoreMine(context.Background(), identity)
	require.NoError(t, err)

	// Both directions of the ann edge written, ghost skipped for missing data
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 1, report.Skipped)

	forward := store.v2["me@x.com->ann@x.com"]
	backward := store.v2["ann@x.com->me@x.com"]
	assert.Equal(t, forward.Score, backward.Score)
	assert.Equal(t, 10, forward.EmailsSent)
	assert.Equal(t, 8, forward.EmailsReceived)
	assert.InDelta(t, 0.6, forward.ReplyRate, 0.001)
	assert.Greater(t, forward.Score, 50)

	// Edge not touching my identity is never scored
	_, scored := store.v2["other@x.com->stranger@x.com"]
	assert.False(t, scored)
}

func TestScoreMine_MailStatsErrorCounted(t *testing.T) {
	identity := graph.NewIdentity("me@x.com")
	store := newFakeGraphStore(
		graph.KnowsEdge{From: "me@x.com", To: "ann@x.com", EmailCount: 3},
	)
	mail := &fakeMailStats{err: apperrors.NewQueryFailed("contact stats", nil)}

	report, err := NewBatchScorer(store, mail).ScoreMine(context.Background(), identity)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Errors)
	assert.NotEmpty(t, report.ErrorReasons)
	assert.Zero(t, report.Processed)
}
