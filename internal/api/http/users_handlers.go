package http

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	authmw "github.com/kyogaku/studyhall/internal/auth/middleware"
	"github.com/kyogaku/studyhall/internal/webutil"
)

type userRow struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`               // usually "student"
	Password string `json:"password,omitempty"` // plaintext optional (LAN-only onboarding)
}

// POST /users/bulk — accepts a multipart file= (CSV or JSON) or a raw JSON array.
func BulkUpsertUsersHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rows []userRow
		ct := r.Header.Get("Content-Type")
		if strings.HasPrefix(ct, "multipart/form-data") {
			f, _, err := r.FormFile("file")
			if err != nil {
				webutil.BadRequest(w, "file required")
				return
			}
			defer f.Close()
			buf := make([]byte, 1)
			if _, err := f.Read(buf); err != nil {
				webutil.BadRequest(w, "empty file")
				return
			}
			if s, ok := f.(io.Seeker); ok {
				_, _ = s.Seek(0, io.SeekStart)
			}
			if buf[0] == '[' || buf[0] == '{' {
				if err := json.NewDecoder(f).Decode(&rows); err != nil {
					webutil.BadRequest(w, "bad json")
					return
				}
			} else {
				rs, err := parseUserCSV(f)
				if err != nil {
					webutil.BadRequest(w, "bad csv: "+err.Error())
					return
				}
				rows = rs
			}
		} else {
			if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
				webutil.BadRequest(w, "expected JSON array or multipart file")
				return
			}
		}
		if len(rows) == 0 {
			webutil.RespondJSON(w, http.StatusOK, map[string]any{"inserted": 0, "updated": 0})
			return
		}

		ins, upd, err := upsertUsers(r.Context(), db, rows)
		if err != nil {
			webutil.RespondError(w, err)
			return
		}
		webutil.RespondJSON(w, http.StatusOK, map[string]any{"inserted": ins, "updated": upd})
	}
}

// parseUserCSV reads header-led CSV: username,role,password (id optional).
func parseUserCSV(r io.Reader) ([]userRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	head, err := cr.Read()
	if err != nil {
		return nil, err
	}
	col := map[string]int{}
	for i, h := range head {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	get := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	var out []userRow
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := userRow{
			ID:       get(rec, "id"),
			Username: get(rec, "username"),
			Role:     get(rec, "role"),
			Password: get(rec, "password"),
		}
		if row.Username == "" {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func upsertUsers(ctx context.Context, db *sql.DB, rows []userRow) (inserted, updated int, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, row := range rows {
		role := row.Role
		if role == "" {
			role = "student"
		}
		var hash []byte
		if row.Password != "" {
			hash, err = bcrypt.GenerateFromPassword([]byte(row.Password), bcrypt.DefaultCost)
			if err != nil {
				return 0, 0, err
			}
		}

		var existingID string
		err = tx.QueryRowContext(ctx, `SELECT id FROM users WHERE username=$1`, row.Username).Scan(&existingID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			id := row.ID
			if id == "" {
				id = uuid.NewString()
			}
			if len(hash) == 0 {
				// no password provided: set an unusable hash, admin resets later
				hash = []byte("!")
			}
			if _, err = tx.ExecContext(ctx,
				`INSERT INTO users (id,username,password_hash,role,created_at) VALUES ($1,$2,$3,$4,$5)`,
				id, row.Username, string(hash), role, time.Now().Unix()); err != nil {
				return 0, 0, err
			}
			inserted++
		case err != nil:
			return 0, 0, err
		default:
			if len(hash) > 0 {
				_, err = tx.ExecContext(ctx, `UPDATE users SET role=$1, password_hash=$2 WHERE id=$3`,
					role, string(hash), existingID)
			} else {
				_, err = tx.ExecContext(ctx, `UPDATE users SET role=$1 WHERE id=$2`, role, existingID)
			}
			if err != nil {
				return 0, 0, err
			}
			updated++
		}
	}
	if err = tx.Commit(); err != nil {
		return 0, 0, err
	}
	return inserted, updated, nil
}

// GET /users?role=student
func ListUsersHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := r.URL.Query().Get("role")
		var rows *sql.Rows
		var err error
		if role == "" {
			rows, err = db.QueryContext(r.Context(), `SELECT id,username,role FROM users ORDER BY username`)
		} else {
			rows, err = db.QueryContext(r.Context(), `SELECT id,username,role FROM users WHERE role=$1 ORDER BY username`, role)
		}
		if err != nil {
			webutil.RespondError(w, err)
			return
		}
		defer rows.Close()
		out := []userRow{}
		for rows.Next() {
			var u userRow
			if err := rows.Scan(&u.ID, &u.Username, &u.Role); err != nil {
				webutil.RespondError(w, err)
				return
			}
			out = append(out, u)
		}
		if err := rows.Err(); err != nil {
			webutil.RespondError(w, err)
			return
		}
		webutil.RespondJSON(w, http.StatusOK, out)
	}
}

type changePasswordReq struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// POST /users/change-password
func ChangePasswordHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		if userID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req changePasswordReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			webutil.BadRequest(w, "bad request")
			return
		}
		if req.NewPassword == "" {
			webutil.BadRequest(w, "new password required")
			return
		}

		var storedHash string
		err := db.QueryRowContext(r.Context(), `SELECT password_hash FROM users WHERE id=$1`, userID).Scan(&storedHash)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				http.Error(w, "user not found", http.StatusNotFound)
				return
			}
			webutil.RespondError(w, err)
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(req.OldPassword)) != nil {
			http.Error(w, "incorrect old password", http.StatusForbidden)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), 12)
		if err != nil {
			webutil.RespondError(w, err)
			return
		}

		if _, err = db.ExecContext(r.Context(), `UPDATE users SET password_hash=$1 WHERE id=$2`, string(hash), userID); err != nil {
			webutil.RespondError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
