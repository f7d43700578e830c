package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"phishcheck/features/dataset"
	"phishcheck/features/web/middlewares"
	"phishcheck/internal/config"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `[
	{"pattern": "evil.com", "scope": "domain", "label": "harmful"},
	{"pattern": "https://bank.example/login", "scope": "exact", "label": "harmful", "source": "report-17"},
	{"pattern": "partner.example", "scope": "domain", "label": "safe"}
]`

type testServer struct {
	e     *echo.Echo
	store *dataset.Store
	path  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	path := filepath.Join(t.TempDir(), "caught.json")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o644))

	store := dataset.NewStore(path)
	_, err := store.Reload(context.Background())
	require.NoError(t, err)

	svcs, err := NewServices(store)
	require.NoError(t, err)

	e := echo.New()
	middlewares.ConfigureValidator(e)
	require.NoError(t, ConfigureRoutes(e, svcs, config.ServerConfig{HealthCheck: true}))

	return &testServer{e: e, store: store, path: path}
}

func (s *testServer) do(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func checkURL(path, raw string) string {
	return path + "?url=" + url.QueryEscape(raw)
}

func TestCheckEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodGet, checkURL("/check", "https://login.evil.com/x"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "harmful", body["verdict"])
	assert.Equal(t, "domain", body["match_type"])
	assert.Equal(t, "evil.com", body["matched_pattern"])
	assert.Equal(t, "https://login.evil.com/x", body["url"])
	assert.Equal(t, "https://login.evil.com/x", body["normalized"])
	assert.Equal(t, s.store.Snapshot().Version(), body["dataset_version"])

	rec, body = s.do(t, http.MethodGet, checkURL("/checking", "bank.example/login"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "harmful", body["verdict"])
	assert.Equal(t, "exact", body["match_type"])
	assert.Equal(t, "report-17", body["source"])

	rec, body = s.do(t, http.MethodGet, checkURL("/check", "www.partner.example"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "safe", body["verdict"])

	rec, body = s.do(t, http.MethodGet, checkURL("/check", "unlisted.example"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "unknown", body["verdict"])
	assert.Equal(t, "none", body["match_type"])
	assert.Contains(t, body, "matched_pattern")
	assert.Nil(t, body["matched_pattern"])
}

func TestCheckEndpointInvalid(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodGet, "/check", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body, "validation_error")

	rec, body = s.do(t, http.MethodGet, checkURL("/check", "http://bad host/"), "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_url", body["error"])
	assert.Equal(t, "http://bad host/", body["url"])
	assert.NotEmpty(t, body["reason"])

	rec, _ = s.do(t, http.MethodGet, checkURL("/check", "   "), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDatasetStatsAndList(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodGet, "/dataset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(3), data["entries"])
	assert.Equal(t, float64(1), data["exact"])
	assert.Equal(t, float64(2), data["domain"])
	assert.Equal(t, s.path, data["path"])

	rec, body = s.do(t, http.MethodGet, "/dataset/entries?scope=domain", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data = body["data"].(map[string]any)
	assert.Equal(t, float64(2), data["count"])

	rec, body = s.do(t, http.MethodGet, "/dataset/entries?label=safe", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := body["data"].(map[string]any)["entries"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "partner.example", list[0].(map[string]any)["pattern"])

	rec, _ = s.do(t, http.MethodGet, "/dataset/entries?scope=subtree", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDatasetUpsertAndRemove(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodPost, "/dataset/entries",
		`{"pattern":"HTTPS://New-Phish.example/","scope":"exact","source":"admin"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	data := body["data"].(map[string]any)
	assert.Equal(t, false, data["replaced"])
	entry := data["entry"].(map[string]any)
	assert.Equal(t, "new-phish.example", entry["pattern"])
	assert.Equal(t, "harmful", entry["label"])

	rec, body = s.do(t, http.MethodGet, checkURL("/check", "new-phish.example"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "harmful", body["verdict"])

	rec, body = s.do(t, http.MethodPost, "/dataset/entries",
		`{"pattern":"new-phish.example","scope":"exact","label":"safe"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["data"].(map[string]any)["replaced"])

	persisted, err := dataset.Load(context.Background(), s.path)
	require.NoError(t, err)
	assert.Equal(t, 4, persisted.Len())

	rec, _ = s.do(t, http.MethodDelete, "/dataset/entries?pattern=new-phish.example&scope=exact", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = s.do(t, http.MethodDelete, "/dataset/entries?pattern=new-phish.example&scope=exact", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, body["success"])

	rec, body = s.do(t, http.MethodGet, checkURL("/check", "new-phish.example"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "unknown", body["verdict"])
}

func TestDatasetUpsertInvalid(t *testing.T) {
	s := newTestServer(t)
	version := s.store.Snapshot().Version()

	for _, payload := range []string{
		`{"pattern":"","scope":"exact"}`,
		`{"pattern":"a.example","scope":"subtree"}`,
		`{"pattern":"a.example","scope":"exact","label":"unknown"}`,
		`{"pattern":"a.example/path","scope":"domain"}`,
		`{"pattern":"http://bad host","scope":"exact"}`,
	} {
		rec, _ := s.do(t, http.MethodPost, "/dataset/entries", payload)
		assert.Equal(t, http.StatusBadRequest, rec.Code, payload)
	}
	assert.Equal(t, version, s.store.Snapshot().Version())
}

func TestDatasetReload(t *testing.T) {
	s := newTestServer(t)
	before := s.store.Snapshot().Version()

	require.NoError(t, os.WriteFile(s.path, []byte(`{"flagged_sites":["http://legacy.example/a"]}`), 0o644))
	rec, body := s.do(t, http.MethodPost, "/dataset/reload", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(1), data["entries"])
	assert.NotEqual(t, before, data["version"])

	reloaded := s.store.Snapshot().Version()
	require.NoError(t, os.WriteFile(s.path, []byte(`[{"broken"`), 0o644))
	rec, body = s.do(t, http.MethodPost, "/dataset/reload", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	details := body["details"].(map[string]any)
	assert.Equal(t, reloaded, details["serving_version"])
	assert.Equal(t, reloaded, s.store.Snapshot().Version())

	rec, body = s.do(t, http.MethodGet, checkURL("/check", "legacy.example/a"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "harmful", body["verdict"])
}

func TestHealthAndNotFound(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodGet, "/health/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(3), body["dataset_entries"])

	rec, body = s.do(t, http.MethodGet, "/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "/nope", body["path"])
}
