package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/agentstation/tally"
	"github.com/agentstation/tally/cmd/application"
	"github.com/agentstation/tally/pkg/store/memory"
)

var batchTime = time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
	} `json:"error"`
}

func newTestServer(t *testing.T, mutate ...func(*Config)) *Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	tl, err := tally.New(
		tally.WithBackend(memory.New()),
		tally.WithClock(func() time.Time { return batchTime }),
		tally.WithMetrics(reg),
	)
	require.NoError(t, err)

	app := &application.Mock{
		TallyFunc:   func() (tally.Tally, error) { return tl, nil },
		MetricsFunc: func() *prometheus.Registry { return reg },
		VersionFunc: func() string { return "1.2.3" },
	}

	cfg := DefaultConfig()
	cfg.RateLimit = 0
	for _, m := range mutate {
		m(&cfg)
	}
	srv, err := New(app, cfg)
	require.NoError(t, err)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, h http.Handler, method, target string, body io.Reader, contentType string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func data(t *testing.T, env envelope) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &m))
	return m
}

const fenceJSON = `{"NAME_OF_WORK":"Border fence","FRONTIER":"Eastern","SECTOR_HQ":"Siliguri","LENGTH_KM":"12.5","SANCTIONED_AMOUNT_CR":"40"}`

func TestServerInitialization(t *testing.T) {
	srv := newTestServer(t)
	assert.False(t, srv.StartTime().IsZero())

	hs := srv.HTTPServer()
	assert.Equal(t, "localhost:3001", hs.Addr)
	assert.Equal(t, 30*time.Second, hs.ReadTimeout)
}

func TestServerRequiresEngine(t *testing.T) {
	app := &application.Mock{
		TallyFunc: func() (tally.Tally, error) { return nil, assert.AnError },
	}
	_, err := New(app, DefaultConfig())
	assert.ErrorIs(t, err, assert.AnError)
}

func TestHealth(t *testing.T) {
	h := newTestServer(t).Handler()

	rec, env := do(t, h, http.MethodGet, "/api/health", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, env.Error)

	d := data(t, env)
	assert.Equal(t, "healthy", d["status"])
	assert.Equal(t, "1.2.3", d["version"])
	assert.Contains(t, d, "uptime")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestInsertRejectsDuplicate(t *testing.T) {
	h := newTestServer(t).Handler()

	rec, env := do(t, h, http.MethodPost, "/api/csv/operations/rows", strings.NewReader(fenceJSON), "application/json")
	require.Equal(t, http.StatusCreated, rec.Code)
	d := data(t, env)
	assert.Equal(t, "OPS-1700000000000-1", d["generated_id"])
	assert.EqualValues(t, 0, d["index"])

	rec, env = do(t, h, http.MethodPost, "/api/csv/operations/rows", strings.NewReader(fenceJSON), "application/json")
	require.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "DUPLICATE", env.Error.Code)
	d = data(t, env)
	assert.EqualValues(t, 100, d["similarity"])
	existing, ok := d["existing_record"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "OPS-1700000000000-1", existing["S_No"])
}

func TestInsertRejectsBadBody(t *testing.T) {
	h := newTestServer(t).Handler()

	rec, env := do(t, h, http.MethodPost, "/api/csv/operations/rows", strings.NewReader("[1,2"), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)

	rec, _ = do(t, h, http.MethodPost, "/api/csv/operations/rows", strings.NewReader("{}"), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRowEndpoints(t *testing.T) {
	h := newTestServer(t).Handler()
	const id = "OPS-1700000000000-1"

	rec, _ := do(t, h, http.MethodPost, "/api/csv/operations/rows", strings.NewReader(fenceJSON), "application/json")
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("list", func(t *testing.T) {
		rec, env := do(t, h, http.MethodGet, "/api/csv/operations/rows?search=fence", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		d := data(t, env)
		assert.EqualValues(t, 1, d["total"])
		assert.Equal(t, "S_No", d["id_field"])
	})

	t.Run("by index", func(t *testing.T) {
		rec, env := do(t, h, http.MethodGet, "/api/csv/operations/rows/0", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, id, data(t, env)["S_No"])

		rec, _ = do(t, h, http.MethodGet, "/api/csv/operations/rows/abc", nil, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec, _ = do(t, h, http.MethodGet, "/api/csv/operations/rows/7", nil, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("by id", func(t *testing.T) {
		rec, env := do(t, h, http.MethodGet, "/api/csv/operations/row/"+id, nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Border fence", data(t, env)["NAME_OF_WORK"])

		rec, env = do(t, h, http.MethodGet, "/api/csv/operations/findRowIndex/"+id, nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.EqualValues(t, 0, data(t, env)["index"])

		rec, _ = do(t, h, http.MethodGet, "/api/csv/operations/row/OPS-missing", nil, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("update", func(t *testing.T) {
		rec, env := do(t, h, http.MethodPut, "/api/csv/operations/row/"+id,
			strings.NewReader(`{"LENGTH_KM":"13"}`), "application/json")
		require.Equal(t, http.StatusOK, rec.Code)
		row, ok := data(t, env)["row"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "13", row["LENGTH_KM"])
		assert.Equal(t, id, row["S_No"])
	})

	t.Run("delete", func(t *testing.T) {
		rec, env := do(t, h, http.MethodDelete, "/api/csv/operations/rows/0", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.EqualValues(t, 0, data(t, env)["remaining_count"])
	})
}

func TestDatasetEndpoints(t *testing.T) {
	h := newTestServer(t).Handler()

	rec, _ := do(t, h, http.MethodPost, "/api/csv/operations/rows", strings.NewReader(fenceJSON), "application/json")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env := do(t, h, http.MethodGet, "/api/databases", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	dbs, ok := data(t, env)["databases"].([]any)
	require.True(t, ok)
	require.Len(t, dbs, 1)
	assert.Equal(t, "operations", dbs[0].(map[string]any)["name"])

	rec, env = do(t, h, http.MethodGet, "/api/configs", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, data(t, env)["names"], "operations")

	rec, env = do(t, h, http.MethodGet, "/api/stats/operations", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, data(t, env)["total_records"])

	rec, env = do(t, h, http.MethodPost, "/api/databases/operations/regenerate-ids", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, data(t, env)["total"])

	rec, _ = do(t, h, http.MethodGet, "/api/databases/operations/export", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "operations.csv")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "S_No,"))

	rec, _ = do(t, h, http.MethodGet, "/api/databases/operations/export?compression=gzip", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/gzip", rec.Header().Get("Content-Type"))

	rec, _ = do(t, h, http.MethodGet, "/api/databases/operations/export?compression=rar", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, h, http.MethodDelete, "/api/databases/operations", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = do(t, h, http.MethodDelete, "/api/databases/operations", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func multipartBody(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestUploadCSV(t *testing.T) {
	h := newTestServer(t).Handler()

	csv := "work,frontier,length\nFence north,Eastern,12.5\nCanal lining,Western,300\n"
	fields := map[string]string{
		"database_name":  "operations",
		"column_mapping": `{"work":"NAME_OF_WORK","frontier":"FRONTIER","length":"LENGTH_KM"}`,
		"dry_run":        "true",
	}

	body, ct := multipartBody(t, "works.csv", []byte(csv), fields)
	rec, env := do(t, h, http.MethodPost, "/api/upload/excel", body, ct)
	require.Equal(t, http.StatusOK, rec.Code)
	stats, ok := data(t, env)["stats"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 2, stats["new_records"])
	assert.Equal(t, true, stats["dry_run"])

	rec, env = do(t, h, http.MethodGet, "/api/csv/operations/rows", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, data(t, env)["total"])

	delete(fields, "dry_run")
	body, ct = multipartBody(t, "works.csv", []byte(csv), fields)
	rec, _ = do(t, h, http.MethodPost, "/api/upload/excel", body, ct)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = do(t, h, http.MethodGet, "/api/csv/operations/rows?sortBy=LENGTH_KM&sortOrder=desc", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	d := data(t, env)
	assert.EqualValues(t, 2, d["total"])
	rows := d["rows"].([]any)
	assert.Equal(t, "Canal lining", rows[0].(map[string]any)["NAME_OF_WORK"])
}

func TestUploadThresholdFields(t *testing.T) {
	h := newTestServer(t).Handler()
	csv := "NAME_OF_WORK\nFence north\n"

	for field, want := range map[string]float64{"threshold": 0.8, "duplicate_threshold": 0.9} {
		body, ct := multipartBody(t, "works.csv", []byte(csv), map[string]string{
			"database_name": "operations",
			"dry_run":       "true",
			field:           fmt.Sprint(want),
		})
		rec, env := do(t, h, http.MethodPost, "/api/upload/excel", body, ct)
		require.Equal(t, http.StatusOK, rec.Code, field)
		stats := data(t, env)["stats"].(map[string]any)
		assert.Equal(t, want, stats["threshold"], field)
	}

	body, ct := multipartBody(t, "works.csv", []byte(csv), map[string]string{
		"database_name":       "operations",
		"duplicate_threshold": "high",
	})
	rec, env := do(t, h, http.MethodPost, "/api/upload/excel", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
}

func TestUploadValidation(t *testing.T) {
	h := newTestServer(t).Handler()

	body, ct := multipartBody(t, "works.csv", []byte("a\n1\n"), map[string]string{})
	rec, env := do(t, h, http.MethodPost, "/api/upload/excel", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)

	body, ct = multipartBody(t, "works.csv", []byte("a\n1\n"), map[string]string{
		"database_name": "operations",
		"threshold":     "high",
	})
	rec, _ = do(t, h, http.MethodPost, "/api/upload/excel", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, h, http.MethodPost, "/api/upload/excel", strings.NewReader("plain"), "text/plain")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, ct = multipartBody(t, "works.xlsx", []byte("not a workbook"), map[string]string{"database_name": "operations"})
	rec, _ = do(t, h, http.MethodPost, "/api/upload/excel", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeWorkbook(t *testing.T) {
	h := newTestServer(t).Handler()

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "Fencing"))
	require.NoError(t, f.SetSheetRow("Fencing", "A1", &[]any{"NAME_OF_WORK", "LENGTH_KM"}))
	require.NoError(t, f.SetSheetRow("Fencing", "A2", &[]any{"Fence north", 12.5}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	body, ct := multipartBody(t, "upload.xlsx", buf.Bytes(), nil)
	rec, env := do(t, h, http.MethodPost, "/api/analyze/excel", body, ct)
	require.Equal(t, http.StatusOK, rec.Code)

	d := data(t, env)
	assert.Equal(t, "upload.xlsx", d["filename"])
	sheets := d["sheets"].([]any)
	require.Len(t, sheets, 1)
	sheet := sheets[0].(map[string]any)
	assert.Equal(t, "Fencing", sheet["name"])
	assert.EqualValues(t, 1, sheet["row_count"])
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t).Handler()

	rec, _ := do(t, h, http.MethodPost, "/api/csv/operations/rows", strings.NewReader(fenceJSON), "application/json")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = do(t, h, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "tally_records_inserted_total")
	assert.Contains(t, body, `route="/api/csv/{database}/rows"`)

	h = newTestServer(t, func(c *Config) { c.MetricsEnabled = false }).Handler()
	rec, _ = do(t, h, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRoutingFallbacks(t *testing.T) {
	h := newTestServer(t).Handler()

	rec, env := do(t, h, http.MethodGet, "/api/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	rec, env = do(t, h, http.MethodPatch, "/api/health", nil, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.NotNil(t, env.Error)

	rec, _ = do(t, h, http.MethodGet, "/favicon.ico", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRateLimit(t *testing.T) {
	h := newTestServer(t, func(c *Config) { c.RateLimit = 1 }).Handler()

	rec, _ := do(t, h, http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = do(t, h, http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
