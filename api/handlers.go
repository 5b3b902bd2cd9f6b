/*
handlers.go - HTTP API handlers for the fiscal calendar service

PURPOSE:
  Exposes the loaded fiscal calendar, calendar sources and load history via
  REST API. Selection sessions live in sessions.go.

ENDPOINTS:
  Calendar:
    GET    /api/calendar                       Summary (years, source, warnings)
    GET    /api/calendar/years/{year}          Periods + weeks (?view=Q1..Q4|Year)
    GET    /api/calendar/years/{year}/months   Months in view (?view=)
    GET    /api/calendar/lookup?date=          Week/period containing a date
    GET    /api/calendar/current               Today's context (?year= view year)
    POST   /api/calendar/reload                Re-discover the source and rebuild
    GET    /api/calendar/runs                  Load history (?limit=)

  Sources:
    GET    /api/sources                        List stored sources
    POST   /api/sources                        Register a source with its rows
    GET    /api/sources/{id}/rows              Rows of a stored source
    DELETE /api/sources/{id}                   Remove a source

ARCHITECTURE:
  Handler holds all dependencies:
  - Store:    SQLite store (sources, rows, load runs)
  - Loader:   Discovery + row source + build
  - Sessions: Selection sessions
  - The current load result, swapped whole on every successful load

FULL REPLACE:
  A reload builds a new calendar and swaps it in. A failed reload keeps
  serving the previous calendar.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid request, invalid range or filter
  - 404: Unknown year, session or source
  - 422: Malformed calendar rows
  - 503: No calendar loaded yet
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - sessions.go: Selection session endpoints
  - scheduler.go: Periodic reloads
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/warp/fiscal-calendar/factory"
	"github.com/warp/fiscal-calendar/fiscal"
	"github.com/warp/fiscal-calendar/selection"
	"github.com/warp/fiscal-calendar/source"
	"github.com/warp/fiscal-calendar/store/sqlite"
)

// errNotLoaded is reported while no calendar has loaded successfully.
var errNotLoaded = errors.New("fiscal calendar not loaded")

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      *sqlite.Store
	Loader     *source.Loader
	Sessions   *SessionStore
	RowFactory *factory.RowFactory

	// Today returns the civil date used for current-context lookups.
	Today func() time.Time

	mu      sync.RWMutex
	current *source.Result
	lastErr error

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a handler. loader may read from a different source
// than store.
func NewHandler(store *sqlite.Store, loader *source.Loader) *Handler {
	return &Handler{
		Store:      store,
		Loader:     loader,
		Sessions:   NewSessionStore(),
		RowFactory: factory.NewRowFactory(),
		Today:      fiscal.Today,
	}
}

// Current returns the last successful load, or nil.
func (h *Handler) Current() *source.Result {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Reload loads the calendar and swaps it in. With rediscover the cached
// source id is forgotten first. Every attempt is recorded as a load run.
func (h *Handler) Reload(ctx context.Context, rediscover bool) (*source.Result, error) {
	if rediscover {
		h.Loader.Discovery().ClearCache()
	}

	run := sqlite.LoadRun{
		ID:        ulid.Make().String(),
		Status:    sqlite.RunRunning,
		StartedAt: time.Now(),
	}
	h.saveRun(ctx, run)

	res, err := h.Loader.Load(ctx)
	completed := time.Now()
	run.CompletedAt = &completed

	if err != nil {
		run.Status = sqlite.RunFailed
		run.Error = err.Error()
		h.saveRun(ctx, run)

		h.mu.Lock()
		h.lastErr = err
		h.mu.Unlock()
		return nil, err
	}

	run.Status = sqlite.RunCompleted
	run.SourceID = res.Source.ID
	run.Origin = string(res.Source.Origin)
	run.RowCount = res.Rows
	run.IssueCount = len(res.Issues)
	h.saveRun(ctx, run)

	for _, is := range res.Issues {
		log.Printf("[Calendar] Warning: %s", is.Message)
	}
	log.Printf("[Calendar] Loaded %d rows from source %s (%s): FY%d-FY%d",
		res.Rows, res.Source.ID, res.Source.Origin, res.Calendar.MinYear, res.Calendar.MaxYear)

	h.mu.Lock()
	h.current = res
	h.lastErr = nil
	h.mu.Unlock()
	return res, nil
}

func (h *Handler) saveRun(ctx context.Context, run sqlite.LoadRun) {
	if h.Store == nil {
		return
	}
	if err := h.Store.SaveLoadRun(ctx, run); err != nil {
		log.Printf("[Calendar] Failed to record load run %s: %v", run.ID, err)
	}
}

// calendar writes 503 and returns false while nothing is loaded.
func (h *Handler) calendar(w http.ResponseWriter) (*source.Result, bool) {
	h.mu.RLock()
	res, lastErr := h.current, h.lastErr
	h.mu.RUnlock()

	if res == nil {
		if lastErr == nil {
			lastErr = errNotLoaded
		}
		writeError(w, http.StatusServiceUnavailable, "Fiscal calendar not loaded", lastErr)
		return nil, false
	}
	return res, true
}

// year resolves a fiscal year number. 0 means today's fiscal year.
func (h *Handler) year(w http.ResponseWriter, cal *fiscal.Calendar, n int) (*fiscal.Year, bool) {
	if n == 0 {
		n = cal.CurrentYear(h.Today())
	}
	y, ok := cal.Year(n)
	if !ok {
		writeError(w, http.StatusNotFound, "Fiscal year not found", fmt.Errorf("%w: %d", fiscal.ErrYearNotFound, n))
		return nil, false
	}
	return y, true
}

// =============================================================================
// CALENDAR HANDLERS
// =============================================================================

// GetCalendar returns the loaded calendar's summary.
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	res, ok := h.calendar(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toCalendarDTO(res, h.Today()))
}

// GetYear returns a year's periods and weeks for a view.
// GET /api/calendar/years/{year}?view=Q2
func (h *Handler) GetYear(w http.ResponseWriter, r *http.Request) {
	year, view, ok := h.yearAndView(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toYearDTO(year, view))
}

// GetMonths returns the Gregorian months a view spans.
// GET /api/calendar/years/{year}/months?view=Q1
func (h *Handler) GetMonths(w http.ResponseWriter, r *http.Request) {
	year, view, ok := h.yearAndView(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"year":   year.Year,
		"view":   view,
		"months": toMonthDTOs(fiscal.MonthsInView(year.WeeksForView(view))),
	})
}

func (h *Handler) yearAndView(w http.ResponseWriter, r *http.Request) (*fiscal.Year, fiscal.ViewMode, bool) {
	res, ok := h.calendar(w)
	if !ok {
		return nil, "", false
	}

	n, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || n <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid fiscal year", err)
		return nil, "", false
	}
	view, err := fiscal.ParseViewMode(r.URL.Query().Get("view"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid view", err)
		return nil, "", false
	}

	year, ok := h.year(w, res.Calendar, n)
	if !ok {
		return nil, "", false
	}
	return year, view, true
}

// Lookup returns the week and period that contain a date.
// GET /api/calendar/lookup?date=2025-03-05
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	res, ok := h.calendar(w)
	if !ok {
		return
	}

	d, err := fiscal.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	week, period := res.Calendar.CurrentContext(d)
	dto := LookupDTO{Date: fiscal.DateKey(d)}
	if week != nil {
		wd := toWeekDTO(*week)
		dto.Week = &wd
		dto.Year = week.FiscalYear
	} else if y := res.Calendar.YearFor(d); y != nil {
		dto.Year = y.Year
	}
	if period != nil {
		pd := toPeriodDTO(*period)
		dto.Period = &pd
	}

	if dto.Week == nil && dto.Year == 0 {
		writeError(w, http.StatusNotFound, "Date is outside all fiscal years", fiscal.ErrNoFiscalContext)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// GetCurrent returns today's fiscal context and the presets offered for the
// viewed year.
// GET /api/calendar/current?year=2024
func (h *Handler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	res, ok := h.calendar(w)
	if !ok {
		return
	}
	cal := res.Calendar
	today := fiscal.Truncate(h.Today())

	dto := CurrentDTO{
		Today: fiscal.DateKey(today),
		Year:  cal.CurrentYear(today),
	}
	dto.ViewYear = dto.Year
	if s := r.URL.Query().Get("year"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid fiscal year", err)
			return
		}
		if _, ok := h.year(w, cal, n); !ok {
			return
		}
		dto.ViewYear = n
	}

	week, period := cal.CurrentContext(today)
	if week != nil {
		wd := toWeekDTO(*week)
		dto.Week = &wd
	}
	if period != nil {
		pd := toPeriodDTO(*period)
		dto.Period = &pd
	}
	dto.IsCurrentYear = selection.IsViewingCurrentYear(cal, dto.ViewYear, today)
	dto.Presets = toPresetDTOs(selection.OfferedPresets(dto.IsCurrentYear))

	writeJSON(w, http.StatusOK, dto)
}

// ReloadCalendar forgets the discovered source and rebuilds the calendar.
// POST /api/calendar/reload
func (h *Handler) ReloadCalendar(w http.ResponseWriter, r *http.Request) {
	res, err := h.Reload(r.Context(), true)
	if err != nil {
		writeDomainError(w, "Failed to load fiscal calendar", err)
		return
	}
	writeJSON(w, http.StatusOK, toCalendarDTO(res, h.Today()))
}

// ListLoadRuns returns load history, newest first.
// GET /api/calendar/runs?limit=20
func (h *Handler) ListLoadRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	runs, err := h.Store.GetLoadRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get load runs", err)
		return
	}

	dtos := make([]LoadRunDTO, 0, len(runs))
	for _, run := range runs {
		dtos = append(dtos, toLoadRunDTO(run))
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": dtos})
}

// =============================================================================
// SOURCE HANDLERS
// =============================================================================

// ListSources returns all stored sources.
func (h *Handler) ListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.Store.ListSources(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sources", err)
		return
	}

	dtos := make([]SourceDTO, len(sources))
	for i, s := range sources {
		dtos[i] = toSourceDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateSource registers a source and replaces its rows. The rows must
// build into a calendar on their own.
func (h *Handler) CreateSource(w http.ResponseWriter, r *http.Request) {
	var req CreateSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}
	if req.ID == "" {
		req.ID = ulid.Make().String()
	}

	rows, err := h.RowFactory.ParseJSON(req.Rows)
	if err != nil {
		writeDomainError(w, "Invalid rows", err)
		return
	}
	if _, err := fiscal.Build(rows); err != nil {
		writeDomainError(w, "Rows do not form a fiscal calendar", err)
		return
	}

	info := source.SourceInfo{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		Collection:  req.Collection,
	}
	if err := h.saveSourceWithRows(r.Context(), info, rows); err != nil {
		writeDomainError(w, "Failed to save source", err)
		return
	}

	saved, err := h.Store.GetSource(r.Context(), info.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read source back", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"source": toSourceDTO(*saved),
		"rows":   len(rows),
		"issues": len(fiscal.Diagnose(rows)),
	})
}

func (h *Handler) saveSourceWithRows(ctx context.Context, info source.SourceInfo, rows []fiscal.Row) error {
	if err := h.Store.SaveSource(ctx, info); err != nil {
		return err
	}
	return h.Store.ReplaceRows(ctx, info.ID, rows)
}

// GetSourceRows returns a stored source's rows.
// GET /api/sources/{id}/rows
func (h *Handler) GetSourceRows(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Store.FetchRows(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get rows", err)
		return
	}
	writeJSON(w, http.StatusOK, h.RowFactory.ToJSON(rows))
}

// DeleteSource removes a stored source and its rows.
func (h *Handler) DeleteSource(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteSource(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Failed to delete source", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ResetDatabase clears all data and drops the loaded calendar.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}

	h.Loader.Discovery().ClearCache()
	h.mu.Lock()
	h.current = nil
	h.lastErr = nil
	h.currentScenario = ""
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain errors to HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	writeError(w, statusFor(err), message, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, source.ErrSourceNotFound), fiscal.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, selection.ErrInvalidRange), errors.Is(err, selection.ErrUnsupportedFilter):
		return http.StatusBadRequest
	case fiscal.IsClientError(err):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
