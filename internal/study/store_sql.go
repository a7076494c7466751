package study

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SQLStore implements CatalogStore, AttemptStore and SnapshotStore over either
// backend. Statements use $n placeholders, which both sqlite and postgres bind
// positionally.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

// --- catalog ---

func (s *SQLStore) PutTextbook(ctx context.Context, t Textbook) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO textbooks (id,source,title,subject,grade,image_prefix,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET source=EXCLUDED.source, title=EXCLUDED.title,
			subject=EXCLUDED.subject, grade=EXCLUDED.grade, image_prefix=EXCLUDED.image_prefix`,
		t.ID, t.Source, t.Title, t.Subject, t.Grade, t.ImagePrefix, time.Now().Unix())
	return err
}

func (s *SQLStore) GetTextbook(ctx context.Context, source string) (Textbook, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,source,title,subject,grade,image_prefix,created_at
		FROM textbooks WHERE source=$1`, source)
	var t Textbook
	if err := row.Scan(&t.ID, &t.Source, &t.Title, &t.Subject, &t.Grade, &t.ImagePrefix, &t.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return Textbook{}, fmt.Errorf("textbook %q: %w", source, ErrNotFound)
		}
		return Textbook{}, err
	}
	return t, nil
}

func (s *SQLStore) ListTextbooks(ctx context.Context) ([]Textbook, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,source,title,subject,grade,image_prefix,created_at
		FROM textbooks ORDER BY source`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Textbook{}
	for rows.Next() {
		var t Textbook
		if err := rows.Scan(&t.ID, &t.Source, &t.Title, &t.Subject, &t.Grade, &t.ImagePrefix, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteTextbook(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM textbooks WHERE id=$1`, id)
	return err
}

func (s *SQLStore) PutUnit(ctx context.Context, u Unit) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO units (id,textbook_id,unit_number,title,stage,image_prefix)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO UPDATE SET unit_number=EXCLUDED.unit_number, title=EXCLUDED.title,
			stage=EXCLUDED.stage, image_prefix=EXCLUDED.image_prefix`,
		u.ID, u.TextbookID, u.UnitNumber, u.Title, u.Stage, u.ImagePrefix)
	return err
}

func (s *SQLStore) ListUnits(ctx context.Context, textbookID string) ([]Unit, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,textbook_id,unit_number,title,stage,image_prefix
		FROM units WHERE textbook_id=$1 ORDER BY unit_number`, textbookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Unit{}
	for rows.Next() {
		var u Unit
		if err := rows.Scan(&u.ID, &u.TextbookID, &u.UnitNumber, &u.Title, &u.Stage, &u.ImagePrefix); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteUnit(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM units WHERE id=$1`, id)
	return err
}

func (s *SQLStore) PutQuestion(ctx context.Context, q Question) error {
	alts, err := json.Marshal(q.Alternates)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO questions (id,unit_id,prompt,answer,alternates_json,qtype,difficulty,ordinal)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO UPDATE SET prompt=EXCLUDED.prompt, answer=EXCLUDED.answer,
			alternates_json=EXCLUDED.alternates_json, qtype=EXCLUDED.qtype,
			difficulty=EXCLUDED.difficulty, ordinal=EXCLUDED.ordinal`,
		q.ID, q.UnitID, q.Prompt, q.Answer, string(alts), q.Type, q.Difficulty, q.Ordinal)
	return err
}

const questionCols = `q.id, q.unit_id, q.prompt, q.answer, q.alternates_json, q.qtype, t.subject, q.difficulty, q.ordinal`

func scanQuestion(sc interface{ Scan(...interface{}) error }) (Question, error) {
	var q Question
	var alts string
	if err := sc.Scan(&q.ID, &q.UnitID, &q.Prompt, &q.Answer, &alts, &q.Type, &q.Subject, &q.Difficulty, &q.Ordinal); err != nil {
		return Question{}, err
	}
	if err := json.Unmarshal([]byte(alts), &q.Alternates); err != nil {
		q.Alternates = nil
	}
	return q, nil
}

func (s *SQLStore) GetQuestion(ctx context.Context, id string) (Question, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+questionCols+`
		FROM questions q
		JOIN units u ON q.unit_id = u.id
		JOIN textbooks t ON u.textbook_id = t.id
		WHERE q.id=$1`, id)
	q, err := scanQuestion(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return Question{}, fmt.Errorf("question %q: %w", id, ErrNotFound)
		}
		return Question{}, err
	}
	return q, nil
}

func (s *SQLStore) ListQuestions(ctx context.Context, f QuestionFilter) ([]Question, error) {
	query := `SELECT ` + questionCols + `
		FROM questions q
		JOIN units u ON q.unit_id = u.id
		JOIN textbooks t ON u.textbook_id = t.id
		WHERE t.source=$1`
	args := []interface{}{f.Source}
	if f.Stage > 0 {
		args = append(args, f.Stage)
		query += fmt.Sprintf(" AND u.stage=$%d", len(args))
	}
	if len(f.Difficulties) > 0 {
		ph := make([]string, 0, len(f.Difficulties))
		for _, d := range f.Difficulties {
			args = append(args, d)
			ph = append(ph, fmt.Sprintf("$%d", len(args)))
		}
		query += " AND q.difficulty IN (" + strings.Join(ph, ",") + ")"
	}
	query += " ORDER BY u.unit_number, q.ordinal"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteQuestion(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id=$1`, id)
	return err
}

// --- study log ---

func (s *SQLStore) Append(ctx context.Context, rec AttemptRecord) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO study_log (id,user_id,question_id,submitted,is_correct,score,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		rec.ID, rec.UserID, rec.QuestionID, rec.Submitted, rec.Correct, rec.Score, rec.At.Unix())
	return err
}

func (s *SQLStore) FetchAttempts(ctx context.Context, userID string, questionIDs []string) ([]AttemptRecord, error) {
	if len(questionIDs) == 0 {
		return nil, nil
	}
	args := []interface{}{userID}
	ph := make([]string, 0, len(questionIDs))
	for _, id := range questionIDs {
		args = append(args, id)
		ph = append(ph, fmt.Sprintf("$%d", len(args)))
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id,user_id,question_id,submitted,is_correct,score,created_at
		FROM study_log WHERE user_id=$1 AND question_id IN (`+strings.Join(ph, ",")+`)
		ORDER BY created_at`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []AttemptRecord{}
	for rows.Next() {
		var rec AttemptRecord
		var at int64
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.QuestionID, &rec.Submitted, &rec.Correct, &rec.Score, &at); err != nil {
			return nil, err
		}
		rec.At = time.Unix(at, 0).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListActivity(ctx context.Context) ([]Activity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT l.user_id, t.source
		FROM study_log l
		JOIN questions q ON l.question_id = q.id
		JOIN units u ON q.unit_id = u.id
		JOIN textbooks t ON u.textbook_id = t.id
		ORDER BY l.user_id, t.source`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Activity{}
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.UserID, &a.Source); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteHistory(ctx context.Context, userID, source string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM study_log
		WHERE user_id=$1 AND question_id IN (
			SELECT q.id FROM questions q
			JOIN units u ON q.unit_id = u.id
			JOIN textbooks t ON u.textbook_id = t.id
			WHERE t.source=$2)`, userID, source)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// --- snapshots ---

func (s *SQLStore) UpsertSnapshot(ctx context.Context, snap Snapshot) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO chunk_progress
		(user_id,source,stage,chunk_number,total_items,attempted,correct,is_completed,is_passed,refreshed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (user_id,source,stage,chunk_number) DO UPDATE SET
			total_items=EXCLUDED.total_items, attempted=EXCLUDED.attempted, correct=EXCLUDED.correct,
			is_completed=EXCLUDED.is_completed, is_passed=EXCLUDED.is_passed, refreshed_at=EXCLUDED.refreshed_at`,
		snap.UserID, snap.Source, snap.Stage, snap.ChunkNumber, snap.TotalItems,
		snap.Attempted, snap.Correct, snap.Completed, snap.Passed, snap.RefreshedAt)
	return err
}

func (s *SQLStore) ListSnapshots(ctx context.Context, userID, source string) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id,source,stage,chunk_number,total_items,attempted,correct,is_completed,is_passed,refreshed_at
		FROM chunk_progress WHERE user_id=$1 AND source=$2 ORDER BY stage, chunk_number`, userID, source)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Snapshot{}
	for rows.Next() {
		var sn Snapshot
		if err := rows.Scan(&sn.UserID, &sn.Source, &sn.Stage, &sn.ChunkNumber, &sn.TotalItems,
			&sn.Attempted, &sn.Correct, &sn.Completed, &sn.Passed, &sn.RefreshedAt); err != nil {
			return nil, err
		}
		out = append(out, sn)
	}
	return out, rows.Err()
}
