package http

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/kyogaku/studyhall/internal/study"
	"github.com/kyogaku/studyhall/internal/webutil"
)

// Import columns, by header name. unit_number, prompt and answer are
// required; everything else defaults.
var importCols = []string{"unit_number", "prompt", "answer", "alternates", "type", "difficulty", "stage", "unit_title"}

// GET /catalog/textbooks/{source}/export — the full question bank as CSV.
func ExportQuestionsHandler(store study.CatalogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		source := chi.URLParam(r, "source")
		tb, err := store.GetTextbook(r.Context(), source)
		if err != nil {
			webutil.RespondError(w, err)
			return
		}
		units, err := store.ListUnits(r.Context(), tb.ID)
		if err != nil {
			webutil.RespondError(w, err)
			return
		}
		unitNumber := make(map[string]int, len(units))
		for _, u := range units {
			unitNumber[u.ID] = u.UnitNumber
		}
		qs, err := store.ListQuestions(r.Context(), study.QuestionFilter{Source: source})
		if err != nil {
			webutil.RespondError(w, err)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", source+".csv"))
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"unit_number", "prompt", "answer", "alternates", "type", "difficulty", "ordinal"})
		for _, q := range qs {
			_ = cw.Write([]string{
				strconv.Itoa(unitNumber[q.UnitID]),
				q.Prompt,
				q.Answer,
				strings.Join(q.Alternates, ";"),
				q.Type,
				q.Difficulty,
				strconv.Itoa(q.Ordinal),
			})
		}
		cw.Flush()
	}
}

type importRow struct {
	UnitNumber int
	UnitTitle  string
	Stage      int
	Prompt     string
	Answer     string
	Alternates []string
	Type       string
	Difficulty string
}

// POST /catalog/textbooks/{source}/import — multipart file= holding either a
// CSV or an XLSX sheet. Units named by unit_number are created on the fly.
func ImportQuestionsHandler(store study.CatalogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		source := chi.URLParam(r, "source")
		tb, err := store.GetTextbook(r.Context(), source)
		if err != nil {
			webutil.RespondError(w, err)
			return
		}

		f, hdr, err := r.FormFile("file")
		if err != nil {
			webutil.BadRequest(w, "file required")
			return
		}
		defer f.Close()

		var rows []importRow
		if strings.HasSuffix(strings.ToLower(hdr.Filename), ".xlsx") {
			rows, err = parseQuestionXLSX(f)
		} else {
			rows, err = parseQuestionCSV(f)
		}
		if err != nil {
			webutil.BadRequest(w, "bad file: "+err.Error())
			return
		}
		if len(rows) == 0 {
			webutil.RespondJSON(w, http.StatusOK, map[string]any{"imported": 0, "units_created": 0})
			return
		}

		units, err := store.ListUnits(r.Context(), tb.ID)
		if err != nil {
			webutil.RespondError(w, err)
			return
		}
		unitByNumber := make(map[int]study.Unit, len(units))
		for _, u := range units {
			unitByNumber[u.UnitNumber] = u
		}

		unitsCreated := 0
		imported := 0
		// stable ordinals: import order within each unit
		nextOrdinal := map[string]int{}
		for _, row := range rows {
			u, ok := unitByNumber[row.UnitNumber]
			if !ok {
				u = study.Unit{
					ID:         uuid.NewString(),
					TextbookID: tb.ID,
					UnitNumber: row.UnitNumber,
					Title:      row.UnitTitle,
					Stage:      row.Stage,
				}
				if u.Title == "" {
					u.Title = fmt.Sprintf("Unit %d", row.UnitNumber)
				}
				if u.Stage == 0 {
					u.Stage = 1
				}
				if err := store.PutUnit(r.Context(), u); err != nil {
					webutil.RespondError(w, err)
					return
				}
				unitByNumber[row.UnitNumber] = u
				unitsCreated++
			}
			q := study.Question{
				ID:         uuid.NewString(),
				UnitID:     u.ID,
				Prompt:     row.Prompt,
				Answer:     row.Answer,
				Alternates: row.Alternates,
				Type:       row.Type,
				Subject:    tb.Subject,
				Difficulty: row.Difficulty,
				Ordinal:    nextOrdinal[u.ID],
			}
			if q.Type == "" {
				q.Type = "free_text"
			}
			nextOrdinal[u.ID]++
			if err := store.PutQuestion(r.Context(), q); err != nil {
				webutil.RespondError(w, err)
				return
			}
			imported++
		}
		webutil.RespondJSON(w, http.StatusOK, map[string]any{"imported": imported, "units_created": unitsCreated})
	}
}

func parseQuestionCSV(r io.Reader) ([]importRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	head, err := cr.Read()
	if err != nil {
		return nil, err
	}
	var out []importRow
	for lineNo := 2; ; lineNo++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row, err := rowFromRecord(head, rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if row != nil {
			out = append(out, *row)
		}
	}
	return out, nil
}

func parseQuestionXLSX(r io.Reader) ([]importRow, error) {
	xf, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer xf.Close()

	sheets := xf.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	recs, err := xf.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, errors.New("empty sheet")
	}
	head := recs[0]
	var out []importRow
	for i, rec := range recs[1:] {
		row, err := rowFromRecord(head, rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if row != nil {
			out = append(out, *row)
		}
	}
	return out, nil
}

func rowFromRecord(head, rec []string) (*importRow, error) {
	col := map[string]int{}
	for i, h := range head {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	get := func(name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	prompt := get("prompt")
	if prompt == "" {
		// blank or padding row
		if strings.TrimSpace(strings.Join(rec, "")) == "" {
			return nil, nil
		}
		return nil, errors.New("prompt required")
	}
	unitNum, err := strconv.Atoi(get("unit_number"))
	if err != nil {
		return nil, fmt.Errorf("unit_number: %w", err)
	}
	answer := get("answer")
	if answer == "" {
		return nil, errors.New("answer required")
	}
	row := importRow{
		UnitNumber: unitNum,
		UnitTitle:  get("unit_title"),
		Prompt:     prompt,
		Answer:     answer,
		Type:       get("type"),
		Difficulty: get("difficulty"),
	}
	if alt := get("alternates"); alt != "" {
		for _, a := range strings.Split(alt, ";") {
			if a = strings.TrimSpace(a); a != "" {
				row.Alternates = append(row.Alternates, a)
			}
		}
	}
	if s := get("stage"); s != "" {
		row.Stage, err = strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("stage: %w", err)
		}
	}
	return &row, nil
}

// ImportTemplateHandler serves a starter XLSX with the expected headers.
func ImportTemplateHandler() http.HandlerFunc {
	headers := append([]string(nil), importCols...)
	sort.Strings(headers[3:]) // keep required columns first, rest alphabetical
	return func(w http.ResponseWriter, r *http.Request) {
		xf := excelize.NewFile()
		defer xf.Close()
		sheet := xf.GetSheetName(0)
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			_ = xf.SetCellValue(sheet, cell, h)
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="question_import_template.xlsx"`)
		if err := xf.Write(w); err != nil {
			webutil.RespondError(w, err)
		}
	}
}
