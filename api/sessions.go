package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/warp/fiscal-calendar/fiscal"
	"github.com/warp/fiscal-calendar/selection"
)

// =============================================================================
// SESSION STORE
// =============================================================================

// DefaultSessionIdle is how long a session survives without requests.
const DefaultSessionIdle = 2 * time.Hour

// SessionStore keeps one selection.Session per interactive control.
// Sessions unused for longer than IdleTimeout are dropped on lookup, on
// Create and on Reap. A zero IdleTimeout keeps sessions until deleted.
type SessionStore struct {
	IdleTimeout time.Duration

	mu       sync.Mutex
	sessions map[string]*sessionEntry
	now      func() time.Time
}

type sessionEntry struct {
	session  *selection.Session
	lastUsed time.Time
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		IdleTimeout: DefaultSessionIdle,
		sessions:    make(map[string]*sessionEntry),
		now:         time.Now,
	}
}

// Create starts a session and returns its id.
func (s *SessionStore) Create() string {
	id := ulid.Make().String()

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.reapLocked(now)
	s.sessions[id] = &sessionEntry{session: selection.NewSession(), lastUsed: now}
	return id
}

// Get returns a live session by id and marks it used.
func (s *SessionStore) Get(id string) (*selection.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	now := s.now()
	if s.expired(e, now) {
		delete(s.sessions, id)
		return nil, false
	}
	e.lastUsed = now
	return e.session, true
}

// Delete removes a session. It reports whether the session existed.
func (s *SessionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

// Reap drops idle sessions and returns how many were dropped.
func (s *SessionStore) Reap() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reapLocked(s.now())
}

func (s *SessionStore) reapLocked(now time.Time) int {
	n := 0
	for id, e := range s.sessions {
		if s.expired(e, now) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

func (s *SessionStore) expired(e *sessionEntry, now time.Time) bool {
	return s.IdleTimeout > 0 && now.Sub(e.lastUsed) > s.IdleTimeout
}

// Len returns the number of stored sessions, idle ones included until
// reaped.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// =============================================================================
// SESSION HANDLERS
// =============================================================================

// CreateSession starts a selection session.
// POST /api/sessions
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	id := h.Sessions.Create()
	sess, _ := h.Sessions.Get(id)
	writeJSON(w, http.StatusCreated, toSessionDTO(id, sess.State()))
}

// GetSession returns a session's state.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toSessionDTO(id, sess.State()))
}

// DeleteSession ends a session.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if !h.Sessions.Delete(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "Session not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ClearSelection empties the selection.
func (h *Handler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.Clear()
	writeJSON(w, http.StatusOK, toSessionDTO(id, sess.State()))
}

// SelectPeriods selects the span of the given period ids. An empty list
// clears the selection; unknown ids change nothing.
// POST /api/sessions/{id}/periods {"year": 2025, "ids": [1, 3]}
func (h *Handler) SelectPeriods(w http.ResponseWriter, r *http.Request) {
	var req PeriodsRequest
	id, sess, year, ok := h.sessionYear(w, r, &req, func() int { return req.Year })
	if !ok {
		return
	}
	sess.SelectPeriods(req.IDs, year.Periods)
	writeJSON(w, http.StatusOK, toSessionDTO(id, sess.State()))
}

// TogglePeriod checks or unchecks one period, keeping the run contiguous.
// POST /api/sessions/{id}/periods/toggle {"year": 2025, "id": 3}
func (h *Handler) TogglePeriod(w http.ResponseWriter, r *http.Request) {
	var req TogglePeriodRequest
	id, sess, year, ok := h.sessionYear(w, r, &req, func() int { return req.Year })
	if !ok {
		return
	}
	sess.TogglePeriod(req.ID, year.Periods)
	writeJSON(w, http.StatusOK, toSessionDTO(id, sess.State()))
}

// SelectAllPeriods selects every period visible in a view.
// POST /api/sessions/{id}/periods/all {"year": 2025, "view": "Q2"}
func (h *Handler) SelectAllPeriods(w http.ResponseWriter, r *http.Request) {
	var req AllPeriodsRequest
	id, sess, year, ok := h.sessionYear(w, r, &req, func() int { return req.Year })
	if !ok {
		return
	}
	view, err := fiscal.ParseViewMode(req.View)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid view", err)
		return
	}
	sess.SelectAllPeriods(year.PeriodsForView(view), year.Periods)
	writeJSON(w, http.StatusOK, toSessionDTO(id, sess.State()))
}

// ClickWeek applies a click on a week; shift extends or shrinks a range.
// POST /api/sessions/{id}/weeks/click {"year": 2025, "week": 5, "shift": true}
func (h *Handler) ClickWeek(w http.ResponseWriter, r *http.Request) {
	var req WeekClickRequest
	id, sess, year, ok := h.sessionYear(w, r, &req, func() int { return req.Year })
	if !ok {
		return
	}
	week := year.Week(req.Week)
	if week == nil {
		writeError(w, http.StatusNotFound, "Week not found", fmt.Errorf("week %d of FY%d", req.Week, year.Year))
		return
	}
	sess.ClickWeek(*week, req.Shift, year.Weeks)
	writeJSON(w, http.StatusOK, toSessionDTO(id, sess.State()))
}

// SelectWeekRange selects a typed-in week range.
// POST /api/sessions/{id}/weeks/range {"year": 2025, "start": 3, "end": 7}
func (h *Handler) SelectWeekRange(w http.ResponseWriter, r *http.Request) {
	var req WeekRangeRequest
	id, sess, year, ok := h.sessionYear(w, r, &req, func() int { return req.Year })
	if !ok {
		return
	}
	if _, err := sess.SelectWeekRange(req.Start, req.End, year.Weeks); err != nil {
		writeDomainError(w, "Invalid week range", err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionDTO(id, sess.State()))
}

// SelectCustomRange selects an arbitrary date range.
// POST /api/sessions/{id}/custom {"start": "2025-03-10", "end": "2025-03-01"}
func (h *Handler) SelectCustomRange(w http.ResponseWriter, r *http.Request) {
	var req CustomRangeRequest
	id, sess, ok := h.sessionBody(w, r, &req)
	if !ok {
		return
	}
	start, err := fiscal.ParseDate(req.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start date", err)
		return
	}
	end, err := fiscal.ParseDate(req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end date", err)
		return
	}
	sess.SelectCustomRange(start, end, req.Label)
	writeJSON(w, http.StatusOK, toSessionDTO(id, sess.State()))
}

// SelectQuick applies a quick preset. A preset without a target changes
// nothing.
// POST /api/sessions/{id}/quick {"preset": "thisWeek", "year": 2025}
func (h *Handler) SelectQuick(w http.ResponseWriter, r *http.Request) {
	var req QuickRequest
	id, sess, ok := h.sessionBody(w, r, &req)
	if !ok {
		return
	}
	res, ok := h.calendar(w)
	if !ok {
		return
	}
	preset, err := selection.ParsePreset(req.Preset)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid preset", err)
		return
	}
	if _, err := sess.SelectQuick(preset, res.Calendar, req.Year, h.Today()); err != nil {
		writeDomainError(w, "Failed to apply preset", err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionDTO(id, sess.State()))
}

// =============================================================================
// DRAG HANDLERS
// =============================================================================

// StartDrag begins a drag at a date.
func (h *Handler) StartDrag(w http.ResponseWriter, r *http.Request) {
	h.drag(w, r, func(sess *selection.Session, day time.Time) { sess.StartDrag(day) })
}

// UpdateDrag moves the drag's current end. Ignored while idle.
func (h *Handler) UpdateDrag(w http.ResponseWriter, r *http.Request) {
	h.drag(w, r, func(sess *selection.Session, day time.Time) { sess.UpdateDrag(day) })
}

// EndDrag commits the drag as a custom range. It is also the global
// pointer-release hook, so it needs no body.
func (h *Handler) EndDrag(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.EndDrag()
	writeJSON(w, http.StatusOK, toSessionDTO(id, sess.State()))
}

// CancelDrag abandons the drag.
func (h *Handler) CancelDrag(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.CancelDrag()
	writeJSON(w, http.StatusOK, toSessionDTO(id, sess.State()))
}

func (h *Handler) drag(w http.ResponseWriter, r *http.Request, apply func(*selection.Session, time.Time)) {
	var req DragRequest
	id, sess, ok := h.sessionBody(w, r, &req)
	if !ok {
		return
	}
	day, err := fiscal.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}
	apply(sess, day)
	writeJSON(w, http.StatusOK, toSessionDTO(id, sess.State()))
}

// =============================================================================
// FILTER HANDLERS
// =============================================================================

// GetFilter returns the session's between-filter value, null without a
// selection.
func (h *Handler) GetFilter(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toFilterDTO(sess.Filter()))
}

// PutFilter initializes the selection from an existing between-filter.
func (h *Handler) PutFilter(w http.ResponseWriter, r *http.Request) {
	var req FilterDTO
	id, sess, ok := h.sessionBody(w, r, &req)
	if !ok {
		return
	}
	f, err := fromFilterDTO(req)
	if err != nil {
		writeDomainError(w, "Unsupported filter", err)
		return
	}
	if _, err := sess.ApplyFilter(f); err != nil {
		writeDomainError(w, "Unsupported filter", err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionDTO(id, sess.State()))
}

func unsupportedFilter(reason string) error {
	return fmt.Errorf("%w: %s", selection.ErrUnsupportedFilter, reason)
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (string, *selection.Session, bool) {
	id := chi.URLParam(r, "id")
	sess, ok := h.Sessions.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Session not found", nil)
		return "", nil, false
	}
	return id, sess, true
}

func (h *Handler) sessionBody(w http.ResponseWriter, r *http.Request, body any) (string, *selection.Session, bool) {
	id, sess, ok := h.session(w, r)
	if !ok {
		return "", nil, false
	}
	if err := json.NewDecoder(r.Body).Decode(body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return "", nil, false
	}
	return id, sess, true
}

// sessionYear decodes body and resolves the fiscal year it names.
func (h *Handler) sessionYear(w http.ResponseWriter, r *http.Request, body any, yearOf func() int) (string, *selection.Session, *fiscal.Year, bool) {
	id, sess, ok := h.sessionBody(w, r, body)
	if !ok {
		return "", nil, nil, false
	}
	res, ok := h.calendar(w)
	if !ok {
		return "", nil, nil, false
	}
	year, ok := h.year(w, res.Calendar, yearOf())
	if !ok {
		return "", nil, nil, false
	}
	return id, sess, year, true
}
