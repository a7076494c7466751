package http

import (
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kyogaku/studyhall/internal/storage"
	"github.com/kyogaku/studyhall/internal/webutil"
)

// POST /catalog/textbooks/{source}/units/{unitNumber}/questions/{questionID}/image
// Multipart file= upload. The stored key is returned so the client can embed it.
func UploadQuestionImageHandler(blobs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		source := chi.URLParam(r, "source")
		unitNumber, err := strconv.Atoi(chi.URLParam(r, "unitNumber"))
		if err != nil {
			webutil.BadRequest(w, "bad unit number")
			return
		}
		questionID := chi.URLParam(r, "questionID")

		f, hdr, err := r.FormFile("file")
		if err != nil {
			webutil.BadRequest(w, "file required")
			return
		}
		defer f.Close()

		key := storage.QuestionImageKey(source, unitNumber, questionID, hdr.Filename)
		stored, err := blobs.Put(key, f)
		if err != nil {
			webutil.RespondError(w, err)
			return
		}
		url, err := blobs.SignedURL(stored)
		if err != nil {
			webutil.RespondError(w, err)
			return
		}
		webutil.RespondJSON(w, http.StatusOK, map[string]string{"key": stored, "url": url})
	}
}

// GET /assets/* — streams a stored blob. Keys are the wildcard tail, so image
// keys written at import time resolve directly.
func GetAssetHandler(blobs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "*")
		if key == "" {
			webutil.BadRequest(w, "key required")
			return
		}
		rc, err := blobs.Get(key)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		defer rc.Close()

		if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
			w.Header().Set("Content-Type", ct)
		}
		w.Header().Set("Cache-Control", "public, max-age=3600")
		_, _ = io.Copy(w, rc)
	}
}
