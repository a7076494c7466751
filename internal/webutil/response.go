package webutil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kyogaku/studyhall/internal/study"
)

type errorBody struct {
	Error string `json:"error"`
}

func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			slog.Warn("encode response", "err", err)
		}
	}
}

// RespondError maps domain errors onto status codes and hides internals from
// the client.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, study.ErrNotFound):
		RespondJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, study.ErrInvalidInput):
		RespondJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	default:
		slog.Error("internal error", "err", err)
		RespondJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func BadRequest(w http.ResponseWriter, msg string) {
	RespondJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}
