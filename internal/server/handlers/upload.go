package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/agentstation/tally/internal/server/response"
	"github.com/agentstation/tally/pkg/errors"
	"github.com/agentstation/tally/pkg/ingest"
	"github.com/agentstation/tally/pkg/ingest/xlsx"
)

// formFile is the multipart field that carries the upload.
const formFile = "file"

// openUpload parses the multipart form and opens its file as a row source.
// The returned func releases both.
func (h *Handlers) openUpload(w http.ResponseWriter, r *http.Request) (ingest.RowSource, string, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		return nil, "", nil, errors.NewValidationError(formFile, nil, "expected a multipart upload: "+err.Error())
	}
	f, header, err := r.FormFile(formFile)
	if err != nil {
		return nil, "", nil, errors.NewValidationError(formFile, nil, "No file uploaded")
	}

	src, err := xlsx.OpenSource(header.Filename, f)
	if err != nil {
		_ = f.Close()
		return nil, "", nil, err
	}
	release := func() {
		if c, ok := src.(io.Closer); ok {
			_ = c.Close()
		}
		_ = f.Close()
		_ = r.MultipartForm.RemoveAll()
	}
	return src, header.Filename, release, nil
}

// HandleAnalyze handles POST /api/analyze/excel.
func (h *Handlers) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	src, filename, release, err := h.openUpload(w, r)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	defer release()

	sheets, err := h.tally.Analyze(r.Context(), src)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, map[string]any{
		"filename": filename,
		"sheets":   sheets,
	})
}

// HandleUpload handles POST /api/upload/excel.
//
// Form fields: database_name (required), column_mapping (JSON object),
// config_name, id_field, id_prefix, threshold (or duplicate_threshold) and
// dry_run.
func (h *Handlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	src, filename, release, err := h.openUpload(w, r)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	defer release()

	dataset := strings.TrimSpace(r.FormValue("database_name"))
	if dataset == "" {
		response.BadRequest(w, "Database name is required", "")
		return
	}

	opts, err := uploadOptions(r)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	stats, err := h.tally.Import(r.Context(), dataset, src, opts...)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	h.logger.Info().
		Str("dataset", dataset).
		Str("file", filename).
		Msg(stats.Summary())
	response.OK(w, map[string]any{
		"message": stats.Summary(),
		"stats":   stats,
	})
}

func uploadOptions(r *http.Request) ([]ingest.Option, error) {
	var opts []ingest.Option

	if raw := strings.TrimSpace(r.FormValue("column_mapping")); raw != "" {
		var mapping map[string]string
		if err := json.Unmarshal([]byte(raw), &mapping); err != nil {
			return nil, errors.NewValidationError("column_mapping", raw, "must be a JSON object of strings")
		}
		opts = append(opts, ingest.WithColumnMapping(mapping))
	}
	if name := strings.TrimSpace(r.FormValue("config_name")); name != "" {
		opts = append(opts, ingest.WithDescriptor(name))
	}
	idField := strings.TrimSpace(r.FormValue("id_field"))
	idPrefix := strings.TrimSpace(r.FormValue("id_prefix"))
	if idField != "" || idPrefix != "" {
		opts = append(opts, ingest.WithIdentity(idField, idPrefix))
	}
	field := "threshold"
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		field = "duplicate_threshold"
		raw = strings.TrimSpace(r.FormValue(field))
	}
	if raw != "" {
		th, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.NewValidationError(field, raw, "must be a number")
		}
		opts = append(opts, ingest.WithThreshold(th))
	}
	if raw := strings.TrimSpace(r.FormValue("dry_run")); raw != "" {
		dry, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, errors.NewValidationError("dry_run", raw, "must be true or false")
		}
		opts = append(opts, ingest.WithDryRun(dry))
	}
	return opts, nil
}
