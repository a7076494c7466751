package http

import (
	"encoding/json"
	"net/http"
	"strings"

	authmw "github.com/kyogaku/studyhall/internal/auth/middleware"
	"github.com/kyogaku/studyhall/internal/rbac"
	"github.com/kyogaku/studyhall/internal/study"
	"github.com/kyogaku/studyhall/internal/webutil"
)

// POST /study/answer  { "question_id": "...", "submitted": "..." }
// Grades the submission, appends it to the study log, returns the verdict.
func SubmitAnswerHandler(svc *study.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub := authmw.SubjectFromContext(r.Context())
		if sub == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req struct {
			QuestionID string `json:"question_id" validate:"required"`
			Submitted  string `json:"submitted"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			webutil.BadRequest(w, "bad json")
			return
		}
		if err := webutil.CheckStruct(req); err != nil {
			webutil.BadRequest(w, err.Error())
			return
		}
		rec, v, err := svc.Evaluate(r.Context(), sub, req.QuestionID, req.Submitted)
		if err != nil {
			webutil.RespondError(w, err)
			return
		}
		webutil.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"attempt_id": rec.ID,
			"correct":    v.Correct,
			"score":      v.Score,
			"method":     v.Method,
			"at":         rec.At,
		})
	}
}

// GET /study/progress?source=...&difficulty=a,b
// Students see their own progress; study:view-all may pass user_id.
func GetProgressHandler(svc *study.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		role := rbac.RoleFromContext(r.Context())
		if other := r.URL.Query().Get("user_id"); other != "" && (role == "teacher" || role == "admin") {
			userID = other
		}
		source := strings.TrimSpace(r.URL.Query().Get("source"))
		if source == "" {
			webutil.BadRequest(w, "source required")
			return
		}
		stages, err := svc.Progress(r.Context(), userID, source, splitCSV(r.URL.Query().Get("difficulty")))
		if err != nil {
			webutil.RespondError(w, err)
			return
		}
		webutil.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"source": source,
			"stages": stages,
		})
	}
}

// GET /study/chunks?source=...&stage=1&chunk=2&difficulty=...
// Returns one chunk's questions with answers stripped, for a test session.
func GetChunkItemsHandler(svc *study.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		source := strings.TrimSpace(r.URL.Query().Get("source"))
		if source == "" {
			webutil.BadRequest(w, "source required")
			return
		}
		stage := parseIntDefault(r.URL.Query().Get("stage"), 1)
		chunk := parseIntDefault(r.URL.Query().Get("chunk"), 1)
		items, err := svc.ChunkItems(r.Context(), source, stage, chunk, splitCSV(r.URL.Query().Get("difficulty")))
		if err != nil {
			webutil.RespondError(w, err)
			return
		}
		webutil.RespondJSON(w, http.StatusOK, items)
	}
}

// GET /study/practice?source=...&stage=1&chunk=2
// Returns the chunk's questions whose latest attempt was wrong.
func GetPracticeItemsHandler(svc *study.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub := authmw.SubjectFromContext(r.Context())
		source := strings.TrimSpace(r.URL.Query().Get("source"))
		if source == "" {
			webutil.BadRequest(w, "source required")
			return
		}
		stage := parseIntDefault(r.URL.Query().Get("stage"), 1)
		chunk := parseIntDefault(r.URL.Query().Get("chunk"), 1)
		items, err := svc.PracticeItems(r.Context(), sub, source, stage, chunk)
		if err != nil {
			webutil.RespondError(w, err)
			return
		}
		webutil.RespondJSON(w, http.StatusOK, items)
	}
}

// POST /study/reset  { "source": "...", "user_id": "..."(study:reset-any only) }
func ResetHistoryHandler(svc *study.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		role := rbac.RoleFromContext(r.Context())
		var req struct {
			Source string `json:"source" validate:"required"`
			UserID string `json:"user_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			webutil.BadRequest(w, "bad json")
			return
		}
		if err := webutil.CheckStruct(req); err != nil {
			webutil.BadRequest(w, err.Error())
			return
		}
		if req.UserID != "" && (role == "teacher" || role == "admin") {
			userID = req.UserID
		}
		n, err := svc.ResetHistory(r.Context(), userID, req.Source)
		if err != nil {
			webutil.RespondError(w, err)
			return
		}
		webutil.RespondJSON(w, http.StatusOK, map[string]interface{}{"removed": n})
	}
}

// GET /study/snapshots?source=...  — denormalized chunk_progress rows.
func ListSnapshotsHandler(store study.SnapshotStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		role := rbac.RoleFromContext(r.Context())
		if other := r.URL.Query().Get("user_id"); other != "" && (role == "teacher" || role == "admin") {
			userID = other
		}
		source := strings.TrimSpace(r.URL.Query().Get("source"))
		if source == "" {
			webutil.BadRequest(w, "source required")
			return
		}
		snaps, err := store.ListSnapshots(r.Context(), userID, source)
		if err != nil {
			webutil.RespondError(w, err)
			return
		}
		webutil.RespondJSON(w, http.StatusOK, snaps)
	}
}
