package ui

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"molview/internal/config"
	"molview/internal/dataset"
	"molview/internal/depict"
	"molview/internal/session"
)

const testCSV = `SMILES,Name,MW
CCO,ethanol,46.07
c1ccccc1,benzene,78.11
CC(=O)O,acetic acid,60.05
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		Server:  config.ServerConfig{Port: "0", OpsPort: "0", GinMode: gin.TestMode},
		Upload:  config.UploadConfig{MaxFileSizeMB: 5},
		Depict:  config.DepictConfig{Width: 120, Height: 100, CacheSize: 50, MaxParallel: 4},
		Session: config.SessionConfig{TTL: time.Hour},
	}
	store := session.NewStore(cfg.Session.TTL, 0, nil)
	t.Cleanup(store.Close)

	renderer := depict.NewRenderer(cfg.Depict.Width, cfg.Depict.Height, cfg.Depict.CacheSize, cfg.Depict.MaxParallel)
	srv, err := NewServer(cfg, dataset.NewLoader(nil), store, renderer, nil, nil)
	require.NoError(t, err)
	return srv
}

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("dataset", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("HX-Request", "true")
	return req
}

// doUpload performs an upload and returns the response plus the session
// cookie for follow-up requests.
func doUpload(t *testing.T, srv *Server, filename, content string) (*httptest.ResponseRecorder, []*http.Cookie) {
	t.Helper()
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, uploadRequest(t, filename, content))
	return w, w.Result().Cookies()
}

func withCookies(req *http.Request, cookies []*http.Cookie) *http.Request {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func TestIndexPage(t *testing.T) {
	srv := newTestServer(t)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No dataset loaded")
}

func TestUploadCSV(t *testing.T) {
	srv := newTestServer(t)
	w, cookies := doUpload(t, srv, "mols.csv", testCSV)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := w.Body.String()
	assert.Contains(t, body, "mols.csv")
	assert.Contains(t, body, "3 records")
	assert.Contains(t, body, "ethanol")
	require.NotEmpty(t, cookies)
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	srv := newTestServer(t)
	w, _ := doUpload(t, srv, "mols.txt", testCSV)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "allowed")
}

func TestUploadRejectsMissingSmilesColumn(t *testing.T) {
	srv := newTestServer(t)
	w, _ := doUpload(t, srv, "mols.csv", "Name,MW\nethanol,46.07\n")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "SMILES")
}

func TestUploadRejectsMissingFile(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(""))
	req.Header.Set("HX-Request", "true")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGridRequiresDataset(t *testing.T) {
	srv := newTestServer(t)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/grid", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No dataset loaded")
}

func TestGridFiltersRecords(t *testing.T) {
	srv := newTestServer(t)
	_, cookies := doUpload(t, srv, "mols.csv", testCSV)

	w := httptest.NewRecorder()
	req := withCookies(httptest.NewRequest(http.MethodGet, "/grid?q=benzene", nil), cookies)
	srv.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "benzene")
	assert.NotContains(t, body, "ethanol")
	assert.Contains(t, body, "1 of 3 records match")
}

func TestGridNumericRangeFilter(t *testing.T) {
	srv := newTestServer(t)
	_, cookies := doUpload(t, srv, "mols.csv", testCSV)

	w := httptest.NewRecorder()
	req := withCookies(httptest.NewRequest(http.MethodGet, "/grid?min_MW=70", nil), cookies)
	srv.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "benzene")
	assert.NotContains(t, body, "ethanol")
}

func TestGridPaginationKeepsActiveFilters(t *testing.T) {
	srv := newTestServer(t)
	_, cookies := doUpload(t, srv, "mols.csv", testCSV)

	w := httptest.NewRecorder()
	req := withCookies(httptest.NewRequest(http.MethodGet, "/grid?min_MW=40&per_page=1", nil), cookies)
	srv.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	// The active bound and page size are echoed into the filter form, and
	// page navigation pulls that form along.
	assert.Contains(t, body, `name="min_MW" value="40"`)
	assert.Contains(t, body, `name="per_page" value="1"`)
	assert.Contains(t, body, `hx-include="#grid-filters"`)
	assert.Contains(t, body, "Next »")
}

func TestGridEchoesColumnFilter(t *testing.T) {
	srv := newTestServer(t)
	_, cookies := doUpload(t, srv, "mols.csv", testCSV)

	w := httptest.NewRecorder()
	req := withCookies(httptest.NewRequest(http.MethodGet, "/grid?f_Name=benz", nil), cookies)
	srv.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `name="f_Name" value="benz"`)
}

func TestGridEmptyDatasetNotice(t *testing.T) {
	srv := newTestServer(t)
	_, cookies := doUpload(t, srv, "empty.csv", "SMILES,Name\n")

	w := httptest.NewRecorder()
	req := withCookies(httptest.NewRequest(http.MethodGet, "/grid", nil), cookies)
	srv.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "empty.csv")
	assert.Contains(t, body, "no data rows")
	assert.NotContains(t, body, "No dataset loaded")
}

func TestRecordDetail(t *testing.T) {
	srv := newTestServer(t)
	_, cookies := doUpload(t, srv, "mols.csv", testCSV)

	w := httptest.NewRecorder()
	req := withCookies(httptest.NewRequest(http.MethodGet, "/records/1", nil), cookies)
	srv.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<svg")
	assert.Contains(t, body, "ethanol")
}

func TestRecordDetailNotFound(t *testing.T) {
	srv := newTestServer(t)
	_, cookies := doUpload(t, srv, "mols.csv", testCSV)

	w := httptest.NewRecorder()
	req := withCookies(httptest.NewRequest(http.MethodGet, "/records/99", nil), cookies)
	srv.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecordDetailInvalidSMILESShowsPlaceholder(t *testing.T) {
	srv := newTestServer(t)
	csv := "SMILES,Name\nnot a smiles,junk\n"
	_, cookies := doUpload(t, srv, "mols.csv", csv)

	w := httptest.NewRecorder()
	req := withCookies(httptest.NewRequest(http.MethodGet, "/records/1", nil), cookies)
	srv.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "structure unavailable")
}

func TestDepictEndpoint(t *testing.T) {
	srv := newTestServer(t)
	_, cookies := doUpload(t, srv, "mols.csv", testCSV)

	w := httptest.NewRecorder()
	req := withCookies(httptest.NewRequest(http.MethodGet, "/depict/1.svg?w=60&h=50", nil), cookies)
	srv.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), `width="60"`)
}

func TestDepictEndpointUnknownRecord(t *testing.T) {
	srv := newTestServer(t)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/depict/1.svg", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCacheStatsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	_, cookies := doUpload(t, srv, "mols.csv", testCSV)

	// Render something so the counters move.
	req := withCookies(httptest.NewRequest(http.MethodGet, "/records/1", nil), cookies)
	srv.Router().ServeHTTP(httptest.NewRecorder(), req)

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cache-stats", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Contains(t, payload, "depiction_cache")
	assert.Contains(t, payload, "live_sessions")
}

func TestDatasetInfoEndpoint(t *testing.T) {
	srv := newTestServer(t)
	_, cookies := doUpload(t, srv, "mols.csv", testCSV)

	w := httptest.NewRecorder()
	req := withCookies(httptest.NewRequest(http.MethodGet, "/api/dataset", nil), cookies)
	srv.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, true, payload["loaded"])
	assert.Equal(t, float64(3), payload["record_count"])
}

func TestUploadReplacesDataset(t *testing.T) {
	srv := newTestServer(t)
	_, cookies := doUpload(t, srv, "first.csv", testCSV)

	// Second upload in the same session wins.
	req := uploadRequest(t, "second.csv", "SMILES,Name\nO,water\n")
	withCookies(req, cookies)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	gw := httptest.NewRecorder()
	greq := withCookies(httptest.NewRequest(http.MethodGet, "/grid", nil), cookies)
	srv.Router().ServeHTTP(gw, greq)
	body := gw.Body.String()
	assert.Contains(t, body, "water")
	assert.NotContains(t, body, "benzene")
}

func TestHelpPage(t *testing.T) {
	srv := newTestServer(t)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/help", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user guide")
}

func TestUploadHistoryWithoutCatalog(t *testing.T) {
	srv := newTestServer(t)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/uploads", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "requires a configured database")
}

func TestOpsHealthz(t *testing.T) {
	srv := newTestServer(t)
	w := httptest.NewRecorder()
	srv.NewOpsRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}
