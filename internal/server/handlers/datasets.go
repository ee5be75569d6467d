package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/agentstation/tally/internal/server/response"
	"github.com/agentstation/tally/pkg/records"
	"github.com/agentstation/tally/pkg/store"
)

// HandleConfigs handles GET /api/configs.
func (h *Handlers) HandleConfigs(w http.ResponseWriter, _ *http.Request) {
	descs := h.tally.Descriptors()
	configs := make(map[string]records.Descriptor, len(descs))
	names := make([]string, 0, len(descs))
	for _, d := range descs {
		configs[d.Name] = d
		names = append(names, d.Name)
	}
	response.OK(w, map[string]any{
		"configs": configs,
		"names":   names,
	})
}

// HandleListDatasets handles GET /api/databases.
func (h *Handlers) HandleListDatasets(w http.ResponseWriter, r *http.Request) {
	infos, err := h.tally.Datasets(r.Context())
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, map[string]any{"databases": infos})
}

// HandleDeleteDataset handles DELETE /api/databases/{name}.
func (h *Handlers) HandleDeleteDataset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.tally.DeleteDataset(r.Context(), name); err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, map[string]any{"message": "Database deleted successfully"})
}

// HandleExport handles GET /api/databases/{name}/export.
// The optional compression query parameter selects gzip or zstd.
func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	c, err := store.ParseCompression(r.URL.Query().Get("compression"))
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	data, err := h.tally.Export(r.Context(), name, store.WithCompression(c))
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	filename := store.ObjectName(name) + c.Extension()
	w.Header().Set("Content-Type", c.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Error().Err(err).Str("dataset", name).Msg("Failed to write export")
	}
}

// HandleRegenerate handles POST /api/databases/{name}/regenerate-ids.
// The optional config query parameter names the descriptor to use.
func (h *Handlers) HandleRegenerate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	res, err := h.tally.Regenerate(r.Context(), name, r.URL.Query().Get("config"))
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, map[string]any{
		"message": "IDs regenerated successfully",
		"updated": res.Updated,
		"total":   res.Total,
	})
}

// HandleStats handles GET /api/stats/{database}.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.tally.Stats(r.Context(), chi.URLParam(r, "database"))
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, st)
}
