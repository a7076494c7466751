package study

import (
	"time"

	"github.com/kyogaku/studyhall/internal/progress"
)

type Textbook struct {
	ID          string `json:"id"`
	Source      string `json:"source"` // unique short name, e.g. "chuukou-eitango"
	Title       string `json:"title"`
	Subject     string `json:"subject"` // math|english|japanese|science|social
	Grade       string `json:"grade,omitempty"`
	ImagePrefix string `json:"image_prefix,omitempty"`
	CreatedAt   int64  `json:"created_at,omitempty"`
}

type Unit struct {
	ID         string `json:"id"`
	TextbookID string `json:"textbook_id"`
	UnitNumber int    `json:"unit_number"`
	Title      string `json:"title"`
	Stage      int    `json:"stage"`
	ImagePrefix string `json:"image_prefix,omitempty"`
}

// Question is a single study item. Immutable once created; owned by its unit.
type Question struct {
	ID         string   `json:"id"`
	UnitID     string   `json:"unit_id"`
	Prompt     string   `json:"prompt"`
	Answer     string   `json:"answer,omitempty"` // stripped when served to students
	Alternates []string `json:"alternates,omitempty"`
	Type       string   `json:"type"` // free_text|choice|numeric
	Subject    string   `json:"subject"`
	Difficulty string   `json:"difficulty,omitempty"`
	Ordinal    int      `json:"ordinal"`
}

// AttemptRecord is one user's submission against one question. Append-only;
// removed only by an explicit history reset.
type AttemptRecord struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	QuestionID string    `json:"question_id"`
	Submitted  string    `json:"submitted"`
	Correct    bool      `json:"correct"`
	Score      float64   `json:"score"`
	At         time.Time `json:"at"`
}

// Snapshot is a denormalized copy of one chunk's progress, persisted for cheap
// dashboard reads. The study log remains the authoritative state.
type Snapshot struct {
	UserID      string `json:"user_id"`
	Source      string `json:"source"`
	Stage       int    `json:"stage"`
	ChunkNumber int    `json:"chunk_number"`
	TotalItems  int    `json:"total_items"`
	Attempted   int    `json:"attempted"`
	Correct     int    `json:"correct"`
	Completed   bool   `json:"completed"`
	Passed      bool   `json:"passed"`
	RefreshedAt int64  `json:"refreshed_at"`
}

func (q Question) progressItem() progress.Item {
	return progress.Item{
		ID:         q.ID,
		Subject:    q.Subject,
		Difficulty: q.Difficulty,
		Ordinal:    q.Ordinal,
	}
}

func progressItems(qs []Question) []progress.Item {
	out := make([]progress.Item, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.progressItem())
	}
	return out
}

func progressAttempts(recs []AttemptRecord) []progress.Attempt {
	out := make([]progress.Attempt, 0, len(recs))
	for _, r := range recs {
		out = append(out, progress.Attempt{
			UserID:  r.UserID,
			ItemID:  r.QuestionID,
			Correct: r.Correct,
			At:      r.At,
		})
	}
	return out
}
