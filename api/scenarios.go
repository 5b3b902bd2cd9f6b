/*
scenarios.go - Sample calendar loaders for demos and development

PURPOSE:
  Provides generated fiscal calendars so the service is usable without a
  warehouse. Each scenario stores a marker-tagged source with three fiscal
  years of rows (last, this and next calendar year) and reloads the
  calendar from it.

AVAILABLE SCENARIOS:
  retail-445:        4-4-5 retail calendar starting near February 1
  monthly-february:  Gregorian months, fiscal year starting in February
  monthly-july:      Gregorian months, fiscal year starting in July
  thirteen-period:   Thirteen 4-week periods starting near January 1

USAGE VIA API:
  POST /api/scenarios/load
  {"scenario_id": "retail-445"}

NOTE:
  Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - factory/samples.go: Row generators
  - cmd/server/main.go: -seed flag
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/warp/fiscal-calendar/factory"
	"github.com/warp/fiscal-calendar/source"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "retail-445",
		Name:        "Retail 4-4-5",
		Description: "52/53-week retail year in 4-4-5 periods, weeks start on Sunday",
		Category:    "retail",
	},
	{
		ID:          "monthly-february",
		Name:        "Monthly (February)",
		Description: "Twelve Gregorian-month periods, fiscal year starts February 1",
		Category:    "monthly",
	},
	{
		ID:          "monthly-july",
		Name:        "Monthly (July)",
		Description: "Twelve Gregorian-month periods, fiscal year starts July 1",
		Category:    "monthly",
	},
	{
		ID:          "thirteen-period",
		Name:        "13 Periods",
		Description: "Thirteen 4-week periods, quarters of 3-3-3-4 periods",
		Category:    "thirteen",
	},
}

var scenarioLayouts = map[string]factory.SampleConfig{
	"retail-445":       {Layout: factory.LayoutRetail445},
	"monthly-february": {Layout: factory.LayoutMonthly, StartMonth: time.February},
	"monthly-july":     {Layout: factory.LayoutMonthly, StartMonth: time.July},
	"thirteen-period":  {Layout: factory.LayoutThirteen},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	current := h.currentScenario
	h.mu.RUnlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario loads a sample calendar.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if _, ok := scenarioLayouts[req.ScenarioID]; !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	res, err := h.Seed(r.Context(), req.ScenarioID)
	if err != nil {
		writeDomainError(w, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "loaded",
		"scenario": req.ScenarioID,
		"calendar": toCalendarDTO(res, h.Today()),
	})
}

// =============================================================================
// SCENARIO LOADER
// =============================================================================

// Seed resets the database, stores the scenario's rows as a discoverable
// source and reloads the calendar from it.
func (h *Handler) Seed(ctx context.Context, scenarioID string) (*source.Result, error) {
	cfg, ok := scenarioLayouts[scenarioID]
	if !ok {
		return nil, fmt.Errorf("unknown scenario %q", scenarioID)
	}

	thisYear := h.Today().Year()
	cfg.FromYear, cfg.ToYear = thisYear-1, thisYear+1
	rows, err := h.RowFactory.Sample(cfg)
	if err != nil {
		return nil, err
	}

	if err := h.Store.Reset(ctx); err != nil {
		return nil, fmt.Errorf("reset database: %w", err)
	}
	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()

	var name string
	for _, s := range scenarios {
		if s.ID == scenarioID {
			name = s.Name
		}
	}
	info := source.SourceInfo{
		ID:          "scenario-" + scenarioID,
		Name:        name + " calendar",
		Description: "Sample fiscal calendar " + source.Marker,
		Collection:  source.PreferredCollections[0],
	}
	if err := h.saveSourceWithRows(ctx, info, rows); err != nil {
		return nil, err
	}

	res, err := h.Reload(ctx, true)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.currentScenario = scenarioID
	h.mu.Unlock()
	return res, nil
}
