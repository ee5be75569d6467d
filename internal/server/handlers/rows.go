package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/agentstation/tally"
	"github.com/agentstation/tally/internal/server/response"
	"github.com/agentstation/tally/pkg/records"
)

// HandleListRows handles GET /api/csv/{database}/rows.
// Query parameters: search, sortBy, sortOrder, page, limit and all.
// Without a limit, or with all=true, every row is returned.
func (h *Handlers) HandleListRows(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := queryInt(r, "page")
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	if q.Get("all") == "true" {
		limit = 0
	}

	rows, err := h.tally.Rows(r.Context(), chi.URLParam(r, "database"), tally.RowsQuery{
		Search:    q.Get("search"),
		SortBy:    q.Get("sortBy"),
		SortOrder: tally.SortOrder(strings.ToLower(q.Get("sortOrder"))),
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, rows)
}

// HandleInsertRow handles POST /api/csv/{database}/rows.
// A near-duplicate of a stored record is rejected with 409.
func (h *Handlers) HandleInsertRow(w http.ResponseWriter, r *http.Request) {
	rec, ok := decodeRecord(w, r)
	if !ok {
		return
	}
	res, err := h.tally.Insert(r.Context(), chi.URLParam(r, "database"), rec)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.Created(w, map[string]any{
		"message":      "Row added successfully",
		"row":          res.Record,
		"index":        res.Index,
		"generated_id": res.GeneratedID,
	})
}

// HandleGetRowAt handles GET /api/csv/{database}/rows/{index}.
func (h *Handlers) HandleGetRowAt(w http.ResponseWriter, r *http.Request) {
	i, err := pathIndex(r)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	row, err := h.tally.RowAt(r.Context(), chi.URLParam(r, "database"), i)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, row)
}

// HandleUpdateRowAt handles PUT /api/csv/{database}/rows/{index}.
func (h *Handlers) HandleUpdateRowAt(w http.ResponseWriter, r *http.Request) {
	i, err := pathIndex(r)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	fields, ok := decodeRecord(w, r)
	if !ok {
		return
	}
	row, err := h.tally.UpdateAt(r.Context(), chi.URLParam(r, "database"), i, fields)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, map[string]any{"message": "Row updated successfully", "row": row})
}

// HandleDeleteRowAt handles DELETE /api/csv/{database}/rows/{index}.
func (h *Handlers) HandleDeleteRowAt(w http.ResponseWriter, r *http.Request) {
	i, err := pathIndex(r)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	res, err := h.tally.DeleteAt(r.Context(), chi.URLParam(r, "database"), i)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, deleted(res))
}

// HandleGetRow handles GET /api/csv/{database}/row/{id}.
func (h *Handlers) HandleGetRow(w http.ResponseWriter, r *http.Request) {
	row, err := h.tally.Row(r.Context(), chi.URLParam(r, "database"), chi.URLParam(r, "id"))
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, row)
}

// HandleUpdateRow handles PUT /api/csv/{database}/row/{id}.
func (h *Handlers) HandleUpdateRow(w http.ResponseWriter, r *http.Request) {
	fields, ok := decodeRecord(w, r)
	if !ok {
		return
	}
	row, err := h.tally.Update(r.Context(), chi.URLParam(r, "database"), chi.URLParam(r, "id"), fields)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, map[string]any{"message": "Row updated successfully", "row": row})
}

// HandleDeleteRow handles DELETE /api/csv/{database}/row/{id}.
func (h *Handlers) HandleDeleteRow(w http.ResponseWriter, r *http.Request) {
	res, err := h.tally.Delete(r.Context(), chi.URLParam(r, "database"), chi.URLParam(r, "id"))
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, deleted(res))
}

// HandleFindRowIndex handles GET /api/csv/{database}/findRowIndex/{id}.
func (h *Handlers) HandleFindRowIndex(w http.ResponseWriter, r *http.Request) {
	i, err := h.tally.FindIndex(r.Context(), chi.URLParam(r, "database"), chi.URLParam(r, "id"))
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, map[string]any{"index": i})
}

func deleted(res *tally.DeleteResult) map[string]any {
	return map[string]any{
		"message":         "Row deleted successfully",
		"deleted_row":     res.Record,
		"remaining_count": res.Remaining,
	}
}

// decodeRecord reads a flat JSON object from the request body. It writes a
// 400 response and returns false when the body is not one.
func decodeRecord(w http.ResponseWriter, r *http.Request) (records.Record, bool) {
	var rec records.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		response.BadRequest(w, "Invalid JSON body", err.Error())
		return records.Record{}, false
	}
	return rec, true
}
