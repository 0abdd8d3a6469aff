package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celerix-dev/circadian-store/internal/engine"
	"github.com/celerix-dev/circadian-store/pkg/schema"
)

func TestInstrumentStore(t *testing.T) {
	m := New()
	s := InstrumentStore(engine.NewMemStore(nil, nil), m)
	ctx := context.Background()

	_, err := s.Insert(ctx, &schema.Note{Entry: schema.Entry{Date: "2024-01-01"}, Text: "ok"})
	require.NoError(t, err)
	_, err = s.Insert(ctx, &schema.Note{Entry: schema.Entry{Date: "yesterday"}, Text: "bad"})
	require.Error(t, err)
	_, err = s.FetchByDateRange(ctx, schema.Notes, "2024-01-01", "2024-01-31")
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.storeOps.WithLabelValues("notes", "insert", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storeOps.WithLabelValues("notes", "insert", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storeOps.WithLabelValues("notes", "fetch_range", "ok")))
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/stats/:kind", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	for _, path := range []string{"/api/stats/sleep", "/api/stats/health", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("/api/stats/:kind", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("unmatched", "GET", "404")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "circadian_http_requests_total"))
}
