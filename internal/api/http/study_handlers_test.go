package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authmw "github.com/kyogaku/studyhall/internal/auth/middleware"
	"github.com/kyogaku/studyhall/internal/rbac"
	"github.com/kyogaku/studyhall/internal/study"
)

func seedStore(t *testing.T) study.Store {
	t.Helper()
	store := study.NewInMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.PutTextbook(ctx, study.Textbook{
		ID: "tb1", Source: "suugaku-1", Title: "数学一年", Subject: "math",
	}))
	require.NoError(t, store.PutUnit(ctx, study.Unit{
		ID: "u1", TextbookID: "tb1", UnitNumber: 1, Title: "正負の数", Stage: 1,
	}))
	for i := 1; i <= 5; i++ {
		require.NoError(t, store.PutQuestion(ctx, study.Question{
			ID:      fmt.Sprintf("q%d", i),
			UnitID:  "u1",
			Prompt:  fmt.Sprintf("問%d", i),
			Answer:  fmt.Sprintf("ans%d", i),
			Type:    "free_text",
			Ordinal: i,
		}))
	}
	return store
}

// identityAs replaces the JWT middleware in tests: it seeds the subject and
// role the same way the real chain does.
func identityAs(userID, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := authmw.WithSubject(r.Context(), userID)
			ctx = rbac.WithRole(ctx, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newTestRouter(store study.Store, userID, role string) http.Handler {
	svc := study.NewService(store, store, store, nil, nil)
	r := chi.NewRouter()
	r.Use(identityAs(userID, role))
	r.With(rbac.Require("study:answer")).Post("/study/answer", SubmitAnswerHandler(svc))
	r.With(rbac.RequireAny("study:view-own", "study:view-all")).Get("/study/progress", GetProgressHandler(svc))
	r.With(rbac.Require("study:answer")).Get("/study/chunks", GetChunkItemsHandler(svc))
	r.With(rbac.Require("study:answer")).Get("/study/practice", GetPracticeItemsHandler(svc))
	r.With(rbac.RequireAny("study:reset-own", "study:reset-any")).Post("/study/reset", ResetHistoryHandler(svc))
	return r
}

func TestSubmitAnswer(t *testing.T) {
	router := newTestRouter(seedStore(t), "alice", "student")

	body := `{"question_id":"q1","submitted":"ANS1"}`
	req := httptest.NewRequest(http.MethodPost, "/study/answer", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		AttemptID string  `json:"attempt_id"`
		Correct   bool    `json:"correct"`
		Score     float64 `json:"score"`
		Method    string  `json:"method"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Correct)
	assert.Equal(t, 1.0, resp.Score)
	assert.Equal(t, "exact", resp.Method)
	assert.NotEmpty(t, resp.AttemptID)
}

func TestSubmitAnswerValidation(t *testing.T) {
	router := newTestRouter(seedStore(t), "alice", "student")

	req := httptest.NewRequest(http.MethodPost, "/study/answer", strings.NewReader(`{"submitted":"x"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/study/answer", strings.NewReader(`{"question_id":"missing","submitted":"x"}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitAnswerForbiddenWithoutRole(t *testing.T) {
	router := newTestRouter(seedStore(t), "ghost", "")
	req := httptest.NewRequest(http.MethodPost, "/study/answer", strings.NewReader(`{"question_id":"q1"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetProgress(t *testing.T) {
	store := seedStore(t)
	router := newTestRouter(store, "alice", "student")

	// answer two of five, one wrong
	for _, body := range []string{
		`{"question_id":"q1","submitted":"ans1"}`,
		`{"question_id":"q2","submitted":"wrong"}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/study/answer", strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/study/progress?source=suugaku-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Source string `json:"source"`
		Stages []struct {
			Stage       int  `json:"stage"`
			TotalItems  int  `json:"total_items"`
			TotalChunks int  `json:"total_chunks"`
			Perfect     bool `json:"perfect"`
			Chunks      []struct {
				Attempted int    `json:"attempted"`
				Correct   int    `json:"correct"`
				State     string `json:"state"`
			} `json:"chunks"`
		} `json:"stages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "suugaku-1", resp.Source)
	require.Len(t, resp.Stages, 1)
	st := resp.Stages[0]
	assert.Equal(t, 1, st.Stage)
	assert.Equal(t, 5, st.TotalItems)
	assert.Equal(t, 1, st.TotalChunks)
	assert.False(t, st.Perfect)
	require.Len(t, st.Chunks, 1)
	assert.Equal(t, 2, st.Chunks[0].Attempted)
	assert.Equal(t, 1, st.Chunks[0].Correct)
	assert.Equal(t, "in_progress", st.Chunks[0].State)
}

func TestGetProgressRequiresSource(t *testing.T) {
	router := newTestRouter(seedStore(t), "alice", "student")
	req := httptest.NewRequest(http.MethodGet, "/study/progress", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetChunkItemsStripsAnswers(t *testing.T) {
	router := newTestRouter(seedStore(t), "alice", "student")
	req := httptest.NewRequest(http.MethodGet, "/study/chunks?source=suugaku-1&stage=1&chunk=1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var items []study.Question
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 5)
	for _, q := range items {
		assert.Empty(t, q.Answer)
		assert.Empty(t, q.Alternates)
	}
}

func TestResetHistoryScopedToSelf(t *testing.T) {
	store := seedStore(t)
	alice := newTestRouter(store, "alice", "student")

	req := httptest.NewRequest(http.MethodPost, "/study/answer", strings.NewReader(`{"question_id":"q1","submitted":"ans1"}`))
	rec := httptest.NewRecorder()
	alice.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// a student's reset ignores user_id and applies to themselves
	req = httptest.NewRequest(http.MethodPost, "/study/reset", strings.NewReader(`{"source":"suugaku-1","user_id":"bob"}`))
	rec = httptest.NewRecorder()
	alice.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Removed int64 `json:"removed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.EqualValues(t, 1, resp.Removed)
}

func TestTeacherViewsAnotherUsersProgress(t *testing.T) {
	store := seedStore(t)
	alice := newTestRouter(store, "alice", "student")
	teacher := newTestRouter(store, "tanaka", "teacher")

	req := httptest.NewRequest(http.MethodPost, "/study/answer", strings.NewReader(`{"question_id":"q1","submitted":"ans1"}`))
	rec := httptest.NewRecorder()
	alice.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/study/progress?source=suugaku-1&user_id=alice", nil)
	rec = httptest.NewRecorder()
	teacher.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Stages []struct {
			Chunks []struct {
				Attempted int `json:"attempted"`
			} `json:"chunks"`
		} `json:"stages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Stages, 1)
	require.Len(t, resp.Stages[0].Chunks, 1)
	assert.Equal(t, 1, resp.Stages[0].Chunks[0].Attempted)
}
