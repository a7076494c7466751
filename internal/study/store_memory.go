package study

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// memoryStore keeps everything in maps. Used by tests and offline demos.
type memoryStore struct {
	mu        sync.RWMutex
	textbooks map[string]Textbook
	units     map[string]Unit
	questions map[string]Question
	log       []AttemptRecord
	snapshots map[string]Snapshot // key: user|source|stage|chunk
}

// Store bundles the three persistence surfaces the service depends on.
type Store interface {
	CatalogStore
	AttemptStore
	SnapshotStore
}

func NewInMemoryStore() Store {
	return &memoryStore{
		textbooks: map[string]Textbook{},
		units:     map[string]Unit{},
		questions: map[string]Question{},
		snapshots: map[string]Snapshot{},
	}
}

func (m *memoryStore) PutTextbook(_ context.Context, t Textbook) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.textbooks[t.ID] = t
	return nil
}

func (m *memoryStore) GetTextbook(_ context.Context, source string) (Textbook, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.textbooks {
		if t.Source == source {
			return t, nil
		}
	}
	return Textbook{}, fmt.Errorf("textbook %q: %w", source, ErrNotFound)
}

func (m *memoryStore) ListTextbooks(_ context.Context) ([]Textbook, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Textbook, 0, len(m.textbooks))
	for _, t := range m.textbooks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out, nil
}

func (m *memoryStore) DeleteTextbook(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.textbooks, id)
	return nil
}

func (m *memoryStore) PutUnit(_ context.Context, u Unit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.units[u.ID] = u
	return nil
}

func (m *memoryStore) ListUnits(_ context.Context, textbookID string) ([]Unit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Unit{}
	for _, u := range m.units {
		if u.TextbookID == textbookID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UnitNumber < out[j].UnitNumber })
	return out, nil
}

func (m *memoryStore) DeleteUnit(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.units, id)
	return nil
}

func (m *memoryStore) PutQuestion(_ context.Context, q Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.questions[q.ID] = q
	return nil
}

func (m *memoryStore) GetQuestion(_ context.Context, id string) (Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.questions[id]
	if !ok {
		return Question{}, fmt.Errorf("question %q: %w", id, ErrNotFound)
	}
	return q, nil
}

func (m *memoryStore) ListQuestions(_ context.Context, f QuestionFilter) ([]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	diffs := map[string]bool{}
	for _, d := range f.Difficulties {
		diffs[d] = true
	}
	type ordered struct {
		q          Question
		unitNumber int
	}
	var rows []ordered
	for _, q := range m.questions {
		u, ok := m.units[q.UnitID]
		if !ok {
			continue
		}
		t, ok := m.textbooks[u.TextbookID]
		if !ok || t.Source != f.Source {
			continue
		}
		if f.Stage > 0 && u.Stage != f.Stage {
			continue
		}
		if len(diffs) > 0 && !diffs[q.Difficulty] {
			continue
		}
		q.Subject = t.Subject
		rows = append(rows, ordered{q: q, unitNumber: u.UnitNumber})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].unitNumber != rows[j].unitNumber {
			return rows[i].unitNumber < rows[j].unitNumber
		}
		return rows[i].q.Ordinal < rows[j].q.Ordinal
	})
	out := make([]Question, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.q)
	}
	return out, nil
}

func (m *memoryStore) DeleteQuestion(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.questions, id)
	return nil
}

func (m *memoryStore) Append(_ context.Context, rec AttemptRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log = append(m.log, rec)
	return nil
}

func (m *memoryStore) FetchAttempts(_ context.Context, userID string, questionIDs []string) ([]AttemptRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	want := map[string]bool{}
	for _, id := range questionIDs {
		want[id] = true
	}
	out := []AttemptRecord{}
	for _, rec := range m.log {
		if rec.UserID == userID && want[rec.QuestionID] {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memoryStore) ListActivity(_ context.Context) ([]Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := map[Activity]bool{}
	out := []Activity{}
	for _, rec := range m.log {
		src := m.sourceOfLocked(rec.QuestionID)
		if src == "" {
			continue
		}
		a := Activity{UserID: rec.UserID, Source: src}
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memoryStore) DeleteHistory(_ context.Context, userID, source string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.log[:0]
	var removed int64
	for _, rec := range m.log {
		if rec.UserID == userID && m.sourceOfLocked(rec.QuestionID) == source {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	m.log = kept
	return removed, nil
}

func (m *memoryStore) UpsertSnapshot(_ context.Context, s Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := fmt.Sprintf("%s|%s|%d|%d", s.UserID, s.Source, s.Stage, s.ChunkNumber)
	m.snapshots[k] = s
	return nil
}

func (m *memoryStore) ListSnapshots(_ context.Context, userID, source string) ([]Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Snapshot{}
	for _, s := range m.snapshots {
		if s.UserID == userID && s.Source == source {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Stage != out[j].Stage {
			return out[i].Stage < out[j].Stage
		}
		return out[i].ChunkNumber < out[j].ChunkNumber
	})
	return out, nil
}

// sourceOfLocked resolves a question's textbook source. Callers hold the lock.
func (m *memoryStore) sourceOfLocked(questionID string) string {
	q, ok := m.questions[questionID]
	if !ok {
		return ""
	}
	u, ok := m.units[q.UnitID]
	if !ok {
		return ""
	}
	t, ok := m.textbooks[u.TextbookID]
	if !ok {
		return ""
	}
	return t.Source
}
