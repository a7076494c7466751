package study

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyogaku/studyhall/internal/progress"
)

// seedCatalog loads one science textbook with two stages: 9 questions in
// stage 1 (chunks of 8+1) and 2 in stage 2.
func seedCatalog(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.PutTextbook(ctx, Textbook{
		ID: "tb1", Source: "kagaku-1", Title: "理科一年", Subject: "science",
	}))
	require.NoError(t, store.PutUnit(ctx, Unit{
		ID: "u1", TextbookID: "tb1", UnitNumber: 1, Title: "気体", Stage: 1,
	}))
	require.NoError(t, store.PutUnit(ctx, Unit{
		ID: "u2", TextbookID: "tb1", UnitNumber: 2, Title: "復習", Stage: 2,
	}))
	for i := 1; i <= 9; i++ {
		require.NoError(t, store.PutQuestion(ctx, Question{
			ID:      fmt.Sprintf("q%d", i),
			UnitID:  "u1",
			Prompt:  fmt.Sprintf("問題%d", i),
			Answer:  fmt.Sprintf("answer%d", i),
			Type:    "free_text",
			Ordinal: i,
		}))
	}
	for i := 1; i <= 2; i++ {
		require.NoError(t, store.PutQuestion(ctx, Question{
			ID:      fmt.Sprintf("r%d", i),
			UnitID:  "u2",
			Prompt:  fmt.Sprintf("復習%d", i),
			Answer:  fmt.Sprintf("review%d", i),
			Type:    "free_text",
			Ordinal: i,
		}))
	}
}

func newTestService(t *testing.T) (*Service, Store) {
	t.Helper()
	store := NewInMemoryStore()
	seedCatalog(t, store)
	svc := NewService(store, store, store, nil, nil)
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	n := 0
	svc.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
	return svc, store
}

func TestEvaluateRecordsAttempt(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	rec, v, err := svc.Evaluate(ctx, "alice", "q1", "Answer1")
	require.NoError(t, err)
	assert.True(t, v.Correct)
	assert.Equal(t, "exact", v.Method)
	assert.Equal(t, "alice", rec.UserID)
	assert.NotEmpty(t, rec.ID)

	_, v, err = svc.Evaluate(ctx, "alice", "q2", "nope")
	require.NoError(t, err)
	assert.False(t, v.Correct)

	history, err := store.FetchAttempts(ctx, "alice", []string{"q1", "q2"})
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestEvaluateUnknownQuestion(t *testing.T) {
	svc, _ := newTestService(t)
	_, _, err := svc.Evaluate(context.Background(), "alice", "missing", "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEvaluateRequiresIdentity(t *testing.T) {
	svc, _ := newTestService(t)
	_, _, err := svc.Evaluate(context.Background(), "", "q1", "x")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func answerAll(t *testing.T, svc *Service, user string, ids ...string) {
	t.Helper()
	for _, id := range ids {
		q, err := svc.catalog.GetQuestion(context.Background(), id)
		require.NoError(t, err)
		_, v, err := svc.Evaluate(context.Background(), user, id, q.Answer)
		require.NoError(t, err)
		require.True(t, v.Correct, "question %s", id)
	}
}

func TestProgressGatesSecondStage(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// stage 1 incomplete: only it is reported
	answerAll(t, svc, "alice", "q1", "q2", "q3")
	results, err := svc.Progress(ctx, "alice", "kagaku-1", nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Stage)
	assert.Equal(t, 2, results[0].TotalChunks) // science chunks of 8, 9 items
	assert.False(t, results[0].Perfect)
	assert.Equal(t, progress.InProgress, results[0].Chunks[0].State)

	// stage 1 perfect: stage 2 appears
	answerAll(t, svc, "alice", "q4", "q5", "q6", "q7", "q8", "q9")
	results, err = svc.Progress(ctx, "alice", "kagaku-1", nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Perfect)
	assert.Equal(t, progress.Mastered, results[0].Chunks[0].State)
	assert.Equal(t, 2, results[1].Stage)
	assert.Equal(t, progress.NotStarted, results[1].Chunks[0].State)
}

func TestProgressUnknownSource(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Progress(context.Background(), "alice", "nope", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChunkItemsStripAnswers(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	qs, err := svc.ChunkItems(ctx, "kagaku-1", 1, 2, nil)
	require.NoError(t, err)
	require.Len(t, qs, 1) // second chunk holds the ninth item
	assert.Equal(t, "q9", qs[0].ID)
	assert.Empty(t, qs[0].Answer)
	assert.Empty(t, qs[0].Alternates)

	qs, err = svc.ChunkItems(ctx, "kagaku-1", 1, 5, nil)
	require.NoError(t, err)
	assert.Empty(t, qs)
}

func TestPracticeItemsAreLatestWrongOnly(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	answerAll(t, svc, "alice", "q1", "q3")
	_, _, err := svc.Evaluate(ctx, "alice", "q2", "wrong")
	require.NoError(t, err)

	qs, err := svc.PracticeItems(ctx, "alice", "kagaku-1", 1, 1)
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, "q2", qs[0].ID)
	assert.Empty(t, qs[0].Answer)

	// a later correct attempt clears it from the practice set
	answerAll(t, svc, "alice", "q2")
	qs, err = svc.PracticeItems(ctx, "alice", "kagaku-1", 1, 1)
	require.NoError(t, err)
	assert.Empty(t, qs)
}

func TestResetHistory(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	answerAll(t, svc, "alice", "q1", "q2")
	answerAll(t, svc, "bob", "q1")

	n, err := svc.ResetHistory(ctx, "alice", "kagaku-1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	history, err := store.FetchAttempts(ctx, "alice", []string{"q1", "q2"})
	require.NoError(t, err)
	assert.Empty(t, history)

	// other users are untouched
	history, err = store.FetchAttempts(ctx, "bob", []string{"q1"})
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestRefreshSnapshots(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	answerAll(t, svc, "alice", "q1", "q2", "q3")
	require.NoError(t, svc.RefreshSnapshots(ctx))

	snaps, err := store.ListSnapshots(ctx, "alice", "kagaku-1")
	require.NoError(t, err)
	require.Len(t, snaps, 2) // both stage-1 chunks
	assert.Equal(t, 1, snaps[0].Stage)
	assert.Equal(t, 1, snaps[0].ChunkNumber)
	assert.Equal(t, 8, snaps[0].TotalItems)
	assert.Equal(t, 3, snaps[0].Attempted)
	assert.Equal(t, 3, snaps[0].Correct)
	assert.False(t, snaps[0].Completed)

	// refresh is an upsert, not an append
	answerAll(t, svc, "alice", "q4")
	require.NoError(t, svc.RefreshSnapshots(ctx))
	snaps, err = store.ListSnapshots(ctx, "alice", "kagaku-1")
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, 4, snaps[0].Attempted)
}
