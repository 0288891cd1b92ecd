package builder

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warmpath/internal/graph"
	"warmpath/internal/mailstore"
	apperrors "warmpath/pkg/errors"
)

// fakeStore records graph writes in memory
type fakeStore struct {
	persons map[string]graph.Person
	knows   map[string]int // "from->to" -> email_count
	cc      map[string]int // "a|b" (canonical) -> cc_count
	failing bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		persons: make(map[string]graph.Person),
		knows:   make(map[string]int),
		cc:      make(map[string]int),
	}
}

func (f *fakeStore) UpsertPerson(_ context.Context, p graph.Person) error {
	if f.failing {
		return apperrors.NewStoreUnavailable("bolt://test", nil)
	}
	f.persons[p.Email] = p
	return nil
}

func (f *fakeStore) UpsertKnows(_ context.Context, from, to string, _ time.Time, _ string) error {
	if f.failing {
		return apperrors.NewStoreUnavailable("bolt://test", nil)
	}
	f.knows[from+"->"+to]++
	return nil
}

func (f *fakeStore) UpsertCCTogether(_ context.Context, a, b string, _ time.Time) error {
	if f.failing {
		return apperrors.NewStoreUnavailable("bolt://test", nil)
	}
	a, b = graph.CanonicalPair(a, b)
	f.cc[a+"|"+b]++
	return nil
}

func msg(id, from string, to []string, cc []string) mailstore.Message {
	m := mailstore.Message{
		ID:      id,
		From:    mailstore.Address{Email: from},
		Date:    time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		Subject: "intro",
	}
	for _, e := range to {
		m.To = append(m.To, mailstore.Address{Email: e})
	}
	for _, e := range cc {
		m.CC = append(m.CC, mailstore.Address{Email: e})
	}
	return m
}

func TestProcessEmail_WriteAmplification(t *testing.T) {
	store := newFakeStore()
	b := New(store)

	// 1 sender + 3 recipients -> 4 person upserts, 3 KNOWS, C(3,2)=3 CC pairs
	err := b.ProcessEmail(context.Background(),
		msg("m1", "me@x.com", []string{"a@x.com", "b@x.com"}, []string{"c@x.com"}))
	require.NoError(t, err)

	assert.Len(t, store.persons, 4)
	assert.Equal(t, 1, store.knows["me@x.com->a@x.com"])
	assert.Equal(t, 1, store.knows["me@x.com->b@x.com"])
	assert.Equal(t, 1, store.knows["me@x.com->c@x.com"])
	assert.Len(t, store.cc, 3)
}

func TestProcessEmail_SingleRecipientNoCCEdges(t *testing.T) {
	store := newFakeStore()
	b := New(store)

	err := b.ProcessEmail(context.Background(),
		msg("m1", "me@x.com", []string{"a@x.com"}, nil))
	require.NoError(t, err)
	assert.Empty(t, store.cc)
}

func TestProcessEmail_CCPairsCanonical(t *testing.T) {
	store := newFakeStore()
	b := New(store)

	// Same pair in reversed order across two emails converges on one key
	require.NoError(t, b.ProcessEmail(context.Background(),
		msg("m1", "me@x.com", []string{"a@x.com", "b@x.com"}, nil)))
	require.NoError(t, b.ProcessEmail(context.Background(),
		msg("m2", "me@x.com", []string{"b@x.com", "a@x.com"}, nil)))

	assert.Len(t, store.cc, 1)
	assert.Equal(t, 2, store.cc["a@x.com|b@x.com"])
}

func TestProcessEmail_SelfAddressed(t *testing.T) {
	store := newFakeStore()
	b := New(store)

	err := b.ProcessEmail(context.Background(),
		msg("m1", "me@x.com", []string{"me@x.com", "a@x.com"}, nil))
	require.NoError(t, err)

	_, hasSelf := store.knows["me@x.com->me@x.com"]
	assert.False(t, hasSelf)
	assert.Equal(t, 1, store.knows["me@x.com->a@x.com"])
}

func TestProcessEmail_NotIdempotent(t *testing.T) {
	store := newFakeStore()
	b := New(store)
	m := msg("m1", "me@x.com", []string{"a@x.com"}, nil)

	require.NoError(t, b.ProcessEmail(context.Background(), m))
	require.NoError(t, b.ProcessEmail(context.Background(), m))

	// Dedupe lives in the runner's checkpoint, not here
	assert.Equal(t, 2, store.knows["me@x.com->a@x.com"])
}

func TestProcessEmail_Malformed(t *testing.T) {
	store := newFakeStore()
	b := New(store)
	ctx := context.Background()

	cases := []struct {
		name string
		m    mailstore.Message
	}{
		{"missing sender", msg("m1", "", []string{"a@x.com"}, nil)},
		{"no recipients", msg("m2", "me@x.com", nil, nil)},
		{"missing date", func() mailstore.Message {
			m := msg("m3", "me@x.com", []string{"a@x.com"}, nil)
			m.Date = time.Time{}
			return m
		}()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := b.ProcessEmail(ctx, tc.m)
			require.Error(t, err)
			assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeInput))
		})
	}
	assert.Empty(t, store.knows)
}

func TestProcessEmail_StoreErrorPropagates(t *testing.T) {
	store := newFakeStore()
	store.failing = true
	b := New(store)

	err := b.ProcessEmail(context.Background(),
		msg("m1", "me@x.com", []string{"a@x.com"}, nil))
	require.Error(t, err)
	assert.True(t, apperrors.IsStoreError(err))
}

// fakeSource serves messages from a slice
type fakeSource struct {
	messages []mailstore.Message
}

func (f *fakeSource) ListAfter(_ context.Context, afterRowID int64, limit int) ([]mailstore.Message, error) {
	var out []mailstore.Message
	for _, m := range f.messages {
		if m.RowID > afterRowID {
			out = append(out, m)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func sourceOf(msgs ...mailstore.Message) *fakeSource {
	for i := range msgs {
		msgs[i].RowID = int64(i + 1)
	}
	return &fakeSource{messages: msgs}
}

func openTestCheckpoint(t *testing.T) *Checkpoint {
	t.Helper()
	cp, err := OpenCheckpoint(t.TempDir() + "/state.db")
	require.NoError(t, err)
	t.Cleanup(func() { cp.Close() })
	return cp
}

func TestRunner_ResumableAcrossRuns(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	cp := openTestCheckpoint(t)
	source := sourceOf(
		msg("m1", "me@x.com", []string{"a@x.com"}, nil),
		msg("m2", "me@x.com", []string{"a@x.com"}, nil),
	)
	runner := NewRunner(source, New(store), cp, nil, 10)

	first, err := runner.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Processed)
	assert.Equal(t, 2, store.knows["me@x.com->a@x.com"])

	// Second run over the same backlog makes no duplicate writes
	second, err := runner.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Processed)
	assert.Equal(t, 2, second.AlreadyProcessed)
	assert.Equal(t, 2, store.knows["me@x.com->a@x.com"])

	count, err := cp.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestRunner_MalformedSkippedNotFatal(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	cp := openTestCheckpoint(t)
	source := sourceOf(
		msg("m1", "", []string{"a@x.com"}, nil), // malformed
		msg("m2", "me@x.com", []string{"a@x.com"}, nil),
	)
	runner := NewRunner(source, New(store), cp, nil, 10)

	stats, err := runner.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.Malformed)
	require.Len(t, stats.ErrorReasons, 1)
	assert.Contains(t, stats.ErrorReasons[0], "missing sender")

	// Malformed record is marked so the next run does not retry it
	again, err := runner.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, again.AlreadyProcessed)
}

func TestRunner_StoreFailureLeavesBatchUnmarked(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.failing = true
	cp := openTestCheckpoint(t)
	source := sourceOf(msg("m1", "me@x.com", []string{"a@x.com"}, nil))
	runner := NewRunner(source, New(store), cp, nil, 10)

	_, err := runner.RunOnce(ctx)
	require.Error(t, err)

	count, err := cp.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)

	// After the store recovers, the same message is retried
	store.failing = false
	stats, err := runner.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)
}

func TestRunner_BoundedBatches(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	cp := openTestCheckpoint(t)

	var msgs []mailstore.Message
	for i := 0; i < 7; i++ {
		msgs = append(msgs, msg(fmt.Sprintf("m%d", i), "me@x.com", []string{"a@x.com"}, nil))
	}
	runner := NewRunner(sourceOf(msgs...), New(store), cp, nil, 3)

	stats, err := runner.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, stats.Processed)
}

func TestCheckpoint_FilterProcessed(t *testing.T) {
	ctx := context.Background()
	cp := openTestCheckpoint(t)

	require.NoError(t, cp.MarkBatch(ctx, []string{"a", "b"}))
	// Re-marking is harmless
	require.NoError(t, cp.MarkBatch(ctx, []string{"b"}))

	processed, err := cp.FilterProcessed(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.True(t, processed["a"])
	assert.True(t, processed["b"])
	assert.False(t, processed["c"])

	ok, err := cp.Contains(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
}
