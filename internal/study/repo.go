package study

import (
	"context"
	"errors"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

// QuestionFilter narrows catalog reads. Source is required; Stage 0 means all
// stages; empty Difficulties means no difficulty filter.
type QuestionFilter struct {
	Source       string
	Stage        int
	Difficulties []string
}

// CatalogStore is the question-bank surface. Items come back ordered by unit
// then ordinal, which fixes chunk membership.
type CatalogStore interface {
	PutTextbook(ctx context.Context, t Textbook) error
	GetTextbook(ctx context.Context, source string) (Textbook, error)
	ListTextbooks(ctx context.Context) ([]Textbook, error)
	DeleteTextbook(ctx context.Context, id string) error

	PutUnit(ctx context.Context, u Unit) error
	ListUnits(ctx context.Context, textbookID string) ([]Unit, error)
	DeleteUnit(ctx context.Context, id string) error

	PutQuestion(ctx context.Context, q Question) error
	GetQuestion(ctx context.Context, id string) (Question, error)
	ListQuestions(ctx context.Context, f QuestionFilter) ([]Question, error)
	DeleteQuestion(ctx context.Context, id string) error
}

// Activity names one (user, source) pair that has study history.
type Activity struct {
	UserID string
	Source string
}

// AttemptStore persists the append-only study log.
type AttemptStore interface {
	Append(ctx context.Context, rec AttemptRecord) error
	FetchAttempts(ctx context.Context, userID string, questionIDs []string) ([]AttemptRecord, error)
	ListActivity(ctx context.Context) ([]Activity, error)
	DeleteHistory(ctx context.Context, userID, source string) (int64, error)
}

// SnapshotStore holds the denormalized chunk_progress copies.
type SnapshotStore interface {
	UpsertSnapshot(ctx context.Context, s Snapshot) error
	ListSnapshots(ctx context.Context, userID, source string) ([]Snapshot, error)
}
