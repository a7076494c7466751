package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kyogaku/studyhall/internal/rbac"
	"github.com/kyogaku/studyhall/internal/study"
	"github.com/kyogaku/studyhall/internal/webutil"
)

func ListTextbooksHandler(store study.CatalogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := store.ListTextbooks(r.Context())
		if err != nil {
			webutil.RespondError(w, err)
			return
		}
		webutil.RespondJSON(w, http.StatusOK, out)
	}
}

func PutTextbookHandler(store study.CatalogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var t study.Textbook
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			webutil.BadRequest(w, "bad json")
			return
		}
		if t.Source == "" || t.Title == "" || t.Subject == "" {
			webutil.BadRequest(w, "source, title and subject required")
			return
		}
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		if err := store.PutTextbook(r.Context(), t); err != nil {
			webutil.RespondError(w, err)
			return
		}
		webutil.RespondJSON(w, http.StatusOK, t)
	}
}

func DeleteTextbookHandler(store study.CatalogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteTextbook(r.Context(), chi.URLParam(r, "textbookID")); err != nil {
			webutil.RespondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func ListUnitsHandler(store study.CatalogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := store.ListUnits(r.Context(), chi.URLParam(r, "textbookID"))
		if err != nil {
			webutil.RespondError(w, err)
			return
		}
		webutil.RespondJSON(w, http.StatusOK, out)
	}
}

func PutUnitHandler(store study.CatalogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var u study.Unit
		if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
			webutil.BadRequest(w, "bad json")
			return
		}
		u.TextbookID = chi.URLParam(r, "textbookID")
		if u.UnitNumber < 1 {
			webutil.BadRequest(w, "unit_number must be >= 1")
			return
		}
		if u.Stage < 1 {
			u.Stage = 1
		}
		if u.ID == "" {
			u.ID = uuid.NewString()
		}
		if err := store.PutUnit(r.Context(), u); err != nil {
			webutil.RespondError(w, err)
			return
		}
		webutil.RespondJSON(w, http.StatusOK, u)
	}
}

func DeleteUnitHandler(store study.CatalogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteUnit(r.Context(), chi.URLParam(r, "unitID")); err != nil {
			webutil.RespondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /catalog/questions?source=...&stage=...&difficulty=...
// Answer keys are included only for catalog:edit roles.
func ListQuestionsHandler(store study.CatalogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		source := r.URL.Query().Get("source")
		if source == "" {
			webutil.BadRequest(w, "source required")
			return
		}
		qs, err := store.ListQuestions(r.Context(), study.QuestionFilter{
			Source:       source,
			Stage:        parseIntDefault(r.URL.Query().Get("stage"), 0),
			Difficulties: splitCSV(r.URL.Query().Get("difficulty")),
		})
		if err != nil {
			webutil.RespondError(w, err)
			return
		}
		role := rbac.RoleFromContext(r.Context())
		if role != "teacher" && role != "admin" {
			for i := range qs {
				qs[i].Answer = ""
				qs[i].Alternates = nil
			}
		}
		webutil.RespondJSON(w, http.StatusOK, qs)
	}
}

func PutQuestionHandler(store study.CatalogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var q study.Question
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			webutil.BadRequest(w, "bad json")
			return
		}
		if q.UnitID == "" || q.Prompt == "" || q.Answer == "" {
			webutil.BadRequest(w, "unit_id, prompt and answer required")
			return
		}
		if q.Type == "" {
			q.Type = "free_text"
		}
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		if err := store.PutQuestion(r.Context(), q); err != nil {
			webutil.RespondError(w, err)
			return
		}
		webutil.RespondJSON(w, http.StatusOK, q)
	}
}

func DeleteQuestionHandler(store study.CatalogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteQuestion(r.Context(), chi.URLParam(r, "questionID")); err != nil {
			webutil.RespondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
