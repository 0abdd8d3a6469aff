// Package api serves the record store, statistics and snapshots over a
// local JSON HTTP API.
package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/celerix-dev/circadian-store/internal/snapshot"
	"github.com/celerix-dev/circadian-store/internal/stats"
	"github.com/celerix-dev/circadian-store/pkg/schema"
	"github.com/celerix-dev/circadian-store/pkg/sdk"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	Store  sdk.RecordStore
	Stats  *stats.Engine
	Logger *slog.Logger
	// Window is the number of days used when a request omits ?days=.
	Window int
}

func (h *Handler) collection(c *gin.Context) (schema.Collection, bool) {
	col, err := schema.ParseCollection(c.Param("collection"))
	if err != nil {
		h.fail(c, fmt.Errorf("%w: %q", sdk.ErrUnknownCollection, c.Param("collection")))
		return "", false
	}
	return col, true
}

func (h *Handler) ListRecords(c *gin.Context) {
	col, ok := h.collection(c)
	if !ok {
		return
	}

	var (
		recs []schema.Record
		err  error
	)
	date, start, end := c.Query("date"), c.Query("start"), c.Query("end")
	switch {
	case date != "":
		if !schema.ValidDate(date) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		recs, err = h.Store.FetchByDate(c.Request.Context(), col, date)
	case start != "" || end != "":
		if !schema.ValidDate(start) || !schema.ValidDate(end) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start and end must both be YYYY-MM-DD"})
			return
		}
		recs, err = h.Store.FetchByDateRange(c.Request.Context(), col, start, end)
	default:
		recs, err = h.Store.FetchAll(c.Request.Context(), col)
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	if recs == nil {
		recs = []schema.Record{}
	}
	c.JSON(http.StatusOK, recs)
}

func (h *Handler) CreateRecord(c *gin.Context) {
	col, ok := h.collection(c)
	if !ok {
		return
	}
	rec := col.New()
	if err := c.ShouldBindJSON(rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rec.Meta().ID = 0

	id, err := h.Store.Insert(c.Request.Context(), rec)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *Handler) ReplaceRecord(c *gin.Context) {
	col, ok := h.collection(c)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a positive integer"})
		return
	}
	rec := col.New()
	if err := c.ShouldBindJSON(rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rec.Meta().ID = id

	if err := h.Store.Replace(c.Request.Context(), rec); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) DeleteRecord(c *gin.Context) {
	col, ok := h.collection(c)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
		return
	}
	if err := h.Store.Delete(c.Request.Context(), col, id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) ClearCollection(c *gin.Context) {
	col, ok := h.collection(c)
	if !ok {
		return
	}
	if err := h.Store.Clear(c.Request.Context(), col); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) ClearAll(c *gin.Context) {
	if err := h.Store.ClearAll(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) GetSetting(c *gin.Context) {
	key := c.Param("key")
	val, ok, err := h.Store.GetSetting(c.Request.Context(), key)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("setting %q not found", key)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": val})
}

func (h *Handler) PutSetting(c *gin.Context) {
	var val any
	if err := c.ShouldBindJSON(&val); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Store.PutSetting(c.Request.Context(), c.Param("key"), val); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// days reads ?days=, falling back to the handler's window.
func (h *Handler) days(c *gin.Context) (int, bool) {
	v := c.Query("days")
	if v == "" {
		return h.Window, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a non-negative integer"})
		return 0, false
	}
	return n, true
}

// SleepStats answers null when the window holds no sleep logs.
func (h *Handler) SleepStats(c *gin.Context) {
	days, ok := h.days(c)
	if !ok {
		return
	}
	st, found, err := h.Stats.SleepStats(c.Request.Context(), days)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) SupplementAdherence(c *gin.Context) {
	days, ok := h.days(c)
	if !ok {
		return
	}
	pct, err := h.Stats.SupplementAdherence(c.Request.Context(), days)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"adherence": pct})
}

func (h *Handler) ExerciseStats(c *gin.Context) {
	days, ok := h.days(c)
	if !ok {
		return
	}
	st, err := h.Stats.ExerciseStats(c.Request.Context(), days)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// HealthTrends answers null when the window holds no health logs.
func (h *Handler) HealthTrends(c *gin.Context) {
	days, ok := h.days(c)
	if !ok {
		return
	}
	tr, found, err := h.Stats.HealthTrends(c.Request.Context(), days)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, tr)
}

func (h *Handler) SleepTrend(c *gin.Context) {
	days, ok := h.days(c)
	if !ok {
		return
	}
	points, err := h.Stats.SleepTrend(c.Request.Context(), days)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, points)
}

func (h *Handler) Daily(c *gin.Context) {
	date := c.Param("date")
	if date != "" && !schema.ValidDate(date) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	dm, err := h.Stats.DailyMetrics(c.Request.Context(), date)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dm)
}

func (h *Handler) Dashboard(c *gin.Context) {
	days, ok := h.days(c)
	if !ok {
		return
	}
	d, err := h.Stats.Dashboard(c.Request.Context(), days)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) Export(c *gin.Context) {
	snap, err := snapshot.Export(c.Request.Context(), h.Store)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", snapshot.DefaultFileName(time.Now())))
	c.JSON(http.StatusOK, snap)
}

func (h *Handler) Import(c *gin.Context) {
	snap, err := snapshot.Decode(c.Request.Body)
	if err != nil {
		h.fail(c, err)
		return
	}
	n, err := snapshot.Import(c.Request.Context(), h.Store, snap)
	if err != nil {
		h.logger().Error("Import stopped", slog.Int("imported", n), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "imported": n})
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": n})
}

// fail maps an error onto a status code and writes it.
func (h *Handler) fail(c *gin.Context, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger().Error("Request failed",
			slog.String("path", c.Request.URL.Path),
			slog.String("error", err.Error()))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

// StatusFor returns the HTTP status that reports err.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, schema.ErrInvalidRecord),
		errors.Is(err, sdk.ErrUnknownCollection),
		errors.Is(err, snapshot.ErrParse):
		return http.StatusBadRequest
	case errors.Is(err, snapshot.ErrUnsupportedVersion):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
