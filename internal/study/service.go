package study

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kyogaku/studyhall/internal/answer"
	"github.com/kyogaku/studyhall/internal/progress"
	"github.com/kyogaku/studyhall/internal/syncx"
)

// stageCount is how many study stages a source runs through (initial test plus
// two retry passes).
const stageCount = 3

// Service wires the answer grader and progress chunker to storage. Stores are
// injected; the service holds no ambient connection state.
type Service struct {
	catalog   CatalogStore
	attempts  AttemptStore
	snapshots SnapshotStore
	events    syncx.Recorder
	grader    *answer.Grader
	log       *slog.Logger
	now       func() time.Time
}

func NewService(catalog CatalogStore, attempts AttemptStore, snapshots SnapshotStore, events syncx.Recorder, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		catalog:   catalog,
		attempts:  attempts,
		snapshots: snapshots,
		events:    events,
		grader:    answer.NewGrader(),
		log:       log,
		now:       time.Now,
	}
}

// Evaluate grades a submission against its question, appends the attempt to the
// study log, and returns the recorded attempt with its verdict.
func (s *Service) Evaluate(ctx context.Context, userID, questionID, submitted string) (AttemptRecord, answer.Verdict, error) {
	if userID == "" || questionID == "" {
		return AttemptRecord{}, answer.Verdict{}, fmt.Errorf("user and question required: %w", ErrInvalidInput)
	}
	q, err := s.catalog.GetQuestion(ctx, questionID)
	if err != nil {
		return AttemptRecord{}, answer.Verdict{}, err
	}
	v := s.grader.Grade(answer.Key{Type: q.Type, Answer: q.Answer, Alternates: q.Alternates}, submitted)

	rec := AttemptRecord{
		ID:         uuid.NewString(),
		UserID:     userID,
		QuestionID: questionID,
		Submitted:  submitted,
		Correct:    v.Correct,
		Score:      v.Score,
		At:         s.now().UTC(),
	}
	if err := s.attempts.Append(ctx, rec); err != nil {
		return AttemptRecord{}, answer.Verdict{}, fmt.Errorf("append attempt: %w", err)
	}
	s.recordEvent(ctx, syncx.TypeAnswerEvaluated, rec.ID, map[string]any{
		"user_id":     userID,
		"question_id": questionID,
		"correct":     v.Correct,
		"score":       v.Score,
		"method":      v.Method,
	})
	s.log.Debug("answer evaluated",
		"user", userID, "question", questionID, "correct", v.Correct, "score", v.Score)
	return rec, v, nil
}

// Progress computes per-stage, per-chunk standing for one user and source.
// Stages are gated linearly: a later stage is reported only once every earlier
// stage is perfect. An empty catalog yields an empty result, not an error.
func (s *Service) Progress(ctx context.Context, userID, source string, difficulties []string) ([]progress.StageResult, error) {
	tb, err := s.catalog.GetTextbook(ctx, source)
	if err != nil {
		return nil, err
	}

	stages := make([]progress.Stage, 0, stageCount)
	idSet := map[string]bool{}
	var ids []string
	for n := 1; n <= stageCount; n++ {
		qs, err := s.catalog.ListQuestions(ctx, QuestionFilter{Source: source, Stage: n, Difficulties: difficulties})
		if err != nil {
			return nil, err
		}
		stages = append(stages, progress.Stage{Number: n, Items: progressItems(qs)})
		for _, q := range qs {
			if !idSet[q.ID] {
				idSet[q.ID] = true
				ids = append(ids, q.ID)
			}
		}
	}
	history, err := s.attempts.FetchAttempts(ctx, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch attempts: %w", err)
	}
	return progress.StageProgress(source, tb.Subject, stages, progressAttempts(history)), nil
}

// ChunkItems returns the questions in one chunk of a stage, answers stripped,
// for delivering a test session.
func (s *Service) ChunkItems(ctx context.Context, source string, stage, chunkNumber int, difficulties []string) ([]Question, error) {
	tb, err := s.catalog.GetTextbook(ctx, source)
	if err != nil {
		return nil, err
	}
	qs, err := s.catalog.ListQuestions(ctx, QuestionFilter{Source: source, Stage: stage, Difficulties: difficulties})
	if err != nil {
		return nil, err
	}
	chunks := progress.Partition(progressItems(qs), tb.Subject)
	if chunkNumber < 1 || chunkNumber > len(chunks) {
		return []Question{}, nil
	}
	size := progress.ChunkSize(tb.Subject)
	start := (chunkNumber - 1) * size
	end := start + len(chunks[chunkNumber-1].Items)
	return stripAnswers(qs[start:end]), nil
}

// PracticeItems returns the chunk's questions whose most recent attempt was
// wrong, answers stripped. Unattempted items are not practice material yet.
func (s *Service) PracticeItems(ctx context.Context, userID, source string, stage, chunkNumber int) ([]Question, error) {
	tb, err := s.catalog.GetTextbook(ctx, source)
	if err != nil {
		return nil, err
	}
	qs, err := s.catalog.ListQuestions(ctx, QuestionFilter{Source: source, Stage: stage})
	if err != nil {
		return nil, err
	}
	size := progress.ChunkSize(tb.Subject)
	start := (chunkNumber - 1) * size
	if start < 0 || start >= len(qs) {
		return []Question{}, nil
	}
	end := start + size
	if end > len(qs) {
		end = len(qs)
	}
	chunkQs := qs[start:end]

	ids := make([]string, 0, len(chunkQs))
	for _, q := range chunkQs {
		ids = append(ids, q.ID)
	}
	history, err := s.attempts.FetchAttempts(ctx, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch attempts: %w", err)
	}
	latest := progress.LatestByItem(progressAttempts(history))

	out := []Question{}
	for _, q := range chunkQs {
		if a, ok := latest[q.ID]; ok && !a.Correct {
			out = append(out, q)
		}
	}
	return stripAnswers(out), nil
}

// ResetHistory removes a user's study log for one source. This is the only
// sanctioned mutation of the otherwise append-only log.
func (s *Service) ResetHistory(ctx context.Context, userID, source string) (int64, error) {
	n, err := s.attempts.DeleteHistory(ctx, userID, source)
	if err != nil {
		return 0, fmt.Errorf("reset history: %w", err)
	}
	s.recordEvent(ctx, syncx.TypeHistoryReset, userID, map[string]any{
		"source":  source,
		"removed": n,
	})
	s.log.Info("history reset", "user", userID, "source", source, "removed", n)
	return n, nil
}

// RefreshSnapshots recomputes the denormalized chunk_progress rows for every
// (user, source) pair with history. The log stays authoritative; snapshots only
// serve cheap dashboard reads.
func (s *Service) RefreshSnapshots(ctx context.Context) error {
	acts, err := s.attempts.ListActivity(ctx)
	if err != nil {
		return fmt.Errorf("list activity: %w", err)
	}
	refreshed := 0
	now := s.now().Unix()
	for _, act := range acts {
		results, err := s.Progress(ctx, act.UserID, act.Source, nil)
		if err != nil {
			s.log.Warn("snapshot refresh skipped", "user", act.UserID, "source", act.Source, "err", err)
			continue
		}
		for _, st := range results {
			for _, cr := range st.Chunks {
				snap := Snapshot{
					UserID:      act.UserID,
					Source:      act.Source,
					Stage:       st.Stage,
					ChunkNumber: cr.Chunk.Number,
					TotalItems:  cr.TotalItems,
					Attempted:   cr.Attempted,
					Correct:     cr.Correct,
					Completed:   cr.TestCompleted,
					Passed:      cr.Passed,
					RefreshedAt: now,
				}
				if err := s.snapshots.UpsertSnapshot(ctx, snap); err != nil {
					return fmt.Errorf("upsert snapshot: %w", err)
				}
				refreshed++
			}
		}
	}
	s.recordEvent(ctx, syncx.TypeSnapshotsRefreshed, "scheduler", map[string]any{"chunks": refreshed})
	s.log.Info("snapshots refreshed", "pairs", len(acts), "chunks", refreshed)
	return nil
}

func (s *Service) recordEvent(ctx context.Context, typ, key string, data map[string]any) {
	if s.events == nil {
		return
	}
	buf, _ := json.Marshal(data)
	if err := s.events.Append(ctx, syncx.Event{Type: typ, Key: key, DataJSON: string(buf), SiteID: "local"}); err != nil {
		s.log.Warn("event append failed", "type", typ, "err", err)
	}
}

func stripAnswers(qs []Question) []Question {
	out := make([]Question, len(qs))
	copy(out, qs)
	for i := range out {
		out[i].Answer = ""
		out[i].Alternates = nil
	}
	return out
}
