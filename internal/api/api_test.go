package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/celerix-dev/circadian-store/internal/engine"
	"github.com/celerix-dev/circadian-store/internal/metrics"
	"github.com/celerix-dev/circadian-store/internal/snapshot"
	"github.com/celerix-dev/circadian-store/internal/stats"
	"github.com/gin-gonic/gin"
)

var today = time.Date(2024, 1, 7, 9, 0, 0, 0, time.UTC)

func setupTestRouter() (*gin.Engine, *Handler) {
	gin.SetMode(gin.TestMode)
	clock := func() time.Time { return today }
	store := engine.NewMemStore(nil, nil, engine.WithClock(clock))
	h := &Handler{
		Store:  store,
		Stats:  stats.New(store, stats.WithClock(clock), stats.WithLocation(time.UTC)),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Window: 7,
	}
	return NewRouter(h, metrics.New()), h
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, _ := http.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateAndList(t *testing.T) {
	r, _ := setupTestRouter()

	w := do(r, "POST", "/api/collections/sleep", `{"id":99,"date":"2024-01-06","bedTime":"23:00","wakeTime":"07:00","duration":480,"quality":8}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var created struct {
		ID int64 `json:"id"`
	}
	json.Unmarshal(w.Body.Bytes(), &created)
	if created.ID != 1 {
		t.Errorf("Expected the store to assign id 1, got %d", created.ID)
	}

	do(r, "POST", "/api/collections/sleep", `{"date":"2024-01-07","bedTime":"22:30","wakeTime":"06:30","duration":480,"quality":7}`)

	w = do(r, "GET", "/api/collections/sleep?start=2024-01-07&end=2024-01-07", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var logs []map[string]any
	json.Unmarshal(w.Body.Bytes(), &logs)
	if len(logs) != 1 || logs[0]["bedTime"] != "22:30" {
		t.Errorf("Unexpected range result: %v", logs)
	}

	w = do(r, "GET", "/api/collections/notes", "")
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("Expected empty array, got %s", w.Body.String())
	}
}

func TestCreateDefaultsDate(t *testing.T) {
	r, _ := setupTestRouter()
	do(r, "POST", "/api/collections/notes", `{"text":"slept badly"}`)

	w := do(r, "GET", "/api/collections/notes?date=2024-01-07", "")
	var notes []map[string]any
	json.Unmarshal(w.Body.Bytes(), &notes)
	if len(notes) != 1 {
		t.Errorf("Expected the note to be dated today, got %s", w.Body.String())
	}
}

func TestBadRequests(t *testing.T) {
	r, _ := setupTestRouter()

	cases := []struct {
		method, path, body string
		want               int
	}{
		{"GET", "/api/collections/meals", "", http.StatusBadRequest},
		{"GET", "/api/collections/settings", "", http.StatusBadRequest},
		{"GET", "/api/collections/sleep?date=today", "", http.StatusBadRequest},
		{"GET", "/api/collections/sleep?start=2024-01-01", "", http.StatusBadRequest},
		{"POST", "/api/collections/sleep", `{"date":"2024-01-01","bedTime":"23:00","wakeTime":"07:00","quality":11}`, http.StatusBadRequest},
		{"POST", "/api/collections/exercise", `{"type":"yoga","intensity":"low","duration":10}`, http.StatusBadRequest},
		{"POST", "/api/collections/notes", `not json`, http.StatusBadRequest},
		{"PUT", "/api/collections/notes/abc", `{"text":"x"}`, http.StatusBadRequest},
		{"GET", "/api/stats/sleep?days=-1", "", http.StatusBadRequest},
		{"GET", "/api/daily/2024-1-1", "", http.StatusBadRequest},
		{"GET", "/api/settings/missing", "", http.StatusNotFound},
		{"GET", "/api/nothing", "", http.StatusNotFound},
	}
	for _, tc := range cases {
		w := do(r, tc.method, tc.path, tc.body)
		if w.Code != tc.want {
			t.Errorf("%s %s: expected %d, got %d (%s)", tc.method, tc.path, tc.want, w.Code, w.Body.String())
		}
		var body map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["error"] == nil {
			t.Errorf("%s %s: expected an error body, got %s", tc.method, tc.path, w.Body.String())
		}
	}
}

func TestReplaceAndDelete(t *testing.T) {
	r, _ := setupTestRouter()
	do(r, "POST", "/api/collections/notes", `{"date":"2024-01-01","text":"first"}`)

	w := do(r, "PUT", "/api/collections/notes/1", `{"date":"2024-01-02","text":"edited"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	w = do(r, "GET", "/api/collections/notes", "")
	if !strings.Contains(w.Body.String(), "edited") || strings.Contains(w.Body.String(), "first") {
		t.Errorf("Replace did not take effect: %s", w.Body.String())
	}

	for i := 0; i < 2; i++ {
		if w := do(r, "DELETE", "/api/collections/notes/1", ""); w.Code != http.StatusOK {
			t.Errorf("Delete %d: expected 200, got %d", i, w.Code)
		}
	}
	w = do(r, "GET", "/api/collections/notes", "")
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("Expected no notes, got %s", w.Body.String())
	}
}

func TestClearKeepsSettings(t *testing.T) {
	r, _ := setupTestRouter()
	do(r, "PUT", "/api/settings/theme", `"dark"`)
	do(r, "POST", "/api/collections/notes", `{"date":"2024-01-01","text":"a"}`)
	do(r, "POST", "/api/collections/exercise", `{"date":"2024-01-01","type":"cardio","intensity":"low","duration":20}`)

	if w := do(r, "DELETE", "/api/collections/notes", ""); w.Code != http.StatusOK {
		t.Fatalf("Clear failed: %d", w.Code)
	}
	if w := do(r, "GET", "/api/collections/exercise", ""); !strings.Contains(w.Body.String(), "cardio") {
		t.Errorf("Clearing notes must not touch exercise: %s", w.Body.String())
	}

	do(r, "DELETE", "/api/collections", "")
	if w := do(r, "GET", "/api/collections/exercise", ""); strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("Expected exercise cleared, got %s", w.Body.String())
	}

	w := do(r, "GET", "/api/settings/theme", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected setting to survive, got %d", w.Code)
	}
	var s struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	json.Unmarshal(w.Body.Bytes(), &s)
	if s.Value != "dark" {
		t.Errorf("Expected dark, got %q", s.Value)
	}
}

func TestStatsEndpoints(t *testing.T) {
	r, _ := setupTestRouter()

	w := do(r, "GET", "/api/stats/sleep", "")
	if strings.TrimSpace(w.Body.String()) != "null" {
		t.Errorf("Expected null for an empty window, got %s", w.Body.String())
	}
	w = do(r, "GET", "/api/stats/supplements", "")
	if !strings.Contains(w.Body.String(), `"adherence":0`) {
		t.Errorf("Expected zero adherence, got %s", w.Body.String())
	}

	do(r, "POST", "/api/collections/sleep", `{"date":"2024-01-07","bedTime":"23:00","wakeTime":"07:00","duration":480,"quality":8}`)
	w = do(r, "GET", "/api/stats/sleep?days=1", "")
	var st map[string]any
	json.Unmarshal(w.Body.Bytes(), &st)
	if st["avgQuality"] != "8.0" || st["avgDuration"] != float64(480) {
		t.Errorf("Unexpected sleep stats: %s", w.Body.String())
	}

	w = do(r, "GET", "/api/stats/trend?days=2", "")
	var points []map[string]any
	json.Unmarshal(w.Body.Bytes(), &points)
	if len(points) != 3 || points[2]["hours"] != "8.0" {
		t.Errorf("Unexpected trend: %s", w.Body.String())
	}

	for _, path := range []string{"/api/stats/exercise", "/api/stats/health", "/api/daily", "/api/daily/2024-01-07", "/api/dashboard?days=30"} {
		if w := do(r, "GET", path, ""); w.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, w.Code)
		}
	}
}

func TestExportImport(t *testing.T) {
	r, _ := setupTestRouter()
	do(r, "POST", "/api/collections/health", `{"date":"2024-01-05","mood":7,"weight":70.2}`)
	do(r, "POST", "/api/collections/notes", `{"date":"2024-01-05","text":"ok"}`)

	w := do(r, "GET", "/api/export", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Export failed: %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "circadian-") {
		t.Errorf("Missing attachment header: %v", w.Header())
	}
	exported := w.Body.String()

	other, _ := setupTestRouter()
	w = do(other, "POST", "/api/import", exported)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"imported":2`) {
		t.Fatalf("Import failed: %d %s", w.Code, w.Body.String())
	}
	w = do(other, "GET", "/api/collections/health", "")
	if !strings.Contains(w.Body.String(), "70.2") {
		t.Errorf("Imported health log missing: %s", w.Body.String())
	}

	if w := do(other, "POST", "/api/import", `{"version":`); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed snapshot, got %d", w.Code)
	}
	if w := do(other, "POST", "/api/import", `{"version":9,"data":{}}`); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422 for newer snapshot, got %d", w.Code)
	}
}

func TestRequestIDAndHealth(t *testing.T) {
	r, _ := setupTestRouter()

	w := do(r, "GET", "/healthz", "")
	if w.Code != http.StatusOK || w.Header().Get(RequestIDHeader) == "" {
		t.Errorf("Expected 200 with a request id, got %d %v", w.Code, w.Header())
	}

	req, _ := http.NewRequest("GET", "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("Expected caller's request id, got %q", got)
	}

	w = do(r, "OPTIONS", "/api/dashboard", "")
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected preflight 204, got %d", w.Code)
	}

	w = do(r, "GET", "/metrics", "")
	if !strings.Contains(w.Body.String(), "circadian_http_requests_total") {
		t.Errorf("Expected request metrics, got %d bytes", w.Body.Len())
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{engine.ErrStorage, http.StatusInternalServerError},
		{engine.ErrUnknownCollection, http.StatusBadRequest},
		{snapshot.ErrParse, http.StatusBadRequest},
		{snapshot.ErrUnsupportedVersion, http.StatusUnprocessableEntity},
		{&snapshot.PartialImportError{Err: engine.ErrStorage}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := StatusFor(tc.err); got != tc.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
