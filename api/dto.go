/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the fiscal and selection packages from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Calendar:
    CalendarDTO, YearDTO, PeriodDTO, WeekDTO, MonthDTO, LookupDTO, CurrentDTO

  Selection:
    SelectionDTO, SelectionMetaDTO, FilterDTO, SessionDTO, DragDTO

  Sources:
    SourceDTO, CreateSourceRequest, LoadRunDTO

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

FIELD NAMES:
  The selection value and the filter value keep the camelCase field names
  that filter widgets already exchange ({type, startDate, endDate, label,
  meta}, {operator, values, hasTime}). Everything else uses snake_case.

DATES:
  All dates are civil dates formatted YYYY-MM-DD.

SEE ALSO:
  - handlers.go, sessions.go: Use these types
*/
package api

import (
	"encoding/json"
	"time"

	"github.com/warp/fiscal-calendar/fiscal"
	"github.com/warp/fiscal-calendar/selection"
	"github.com/warp/fiscal-calendar/source"
	"github.com/warp/fiscal-calendar/store/sqlite"
)

// =============================================================================
// CALENDAR
// =============================================================================

// CalendarDTO summarizes the loaded calendar.
type CalendarDTO struct {
	Source      SourceRefDTO `json:"source"`
	Years       []int        `json:"years"`
	MinYear     int          `json:"min_year"`
	MaxYear     int          `json:"max_year"`
	CurrentYear int          `json:"current_year"`
	Rows        int          `json:"rows"`
	LoadedAt    string       `json:"loaded_at"`
	Warnings    []IssueDTO   `json:"warnings"`
}

// SourceRefDTO identifies the source a calendar was loaded from.
type SourceRefDTO struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Origin string `json:"origin"`
}

// IssueDTO is an overlap or gap found in the rows.
type IssueDTO struct {
	Kind    string `json:"kind"`
	Year    int    `json:"year"`
	Period  int    `json:"period"`
	Next    int    `json:"next"`
	Days    int    `json:"days"`
	Message string `json:"message"`
}

// YearDTO is one fiscal year filtered by a view mode.
type YearDTO struct {
	Year    int         `json:"year"`
	Start   string      `json:"start"`
	End     string      `json:"end"`
	View    string      `json:"view"`
	Periods []PeriodDTO `json:"periods"`
	Weeks   []WeekDTO   `json:"weeks"`
}

// PeriodDTO represents a fiscal period.
type PeriodDTO struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Year      int    `json:"year"`
	Quarter   int    `json:"quarter"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Days      int    `json:"days"`
	StartWeek int    `json:"start_week"`
	EndWeek   int    `json:"end_week"`
}

// WeekDTO represents a generated fiscal week.
type WeekDTO struct {
	Number       int    `json:"number"`
	Label        string `json:"label"`
	Year         int    `json:"year"`
	PeriodID     int    `json:"period_id"`
	PeriodName   string `json:"period_name"`
	Quarter      int    `json:"quarter"`
	WeekInPeriod int    `json:"week_in_period"`
	Start        string `json:"start"`
	End          string `json:"end"`
}

// MonthDTO is a Gregorian month shown in a view.
type MonthDTO struct {
	Year    int      `json:"year"`
	Month   int      `json:"month"`
	Name    string   `json:"name"`
	Periods []string `json:"periods"`
}

// LookupDTO answers "which fiscal week is this date in".
type LookupDTO struct {
	Date   string     `json:"date"`
	Year   int        `json:"year"`
	Week   *WeekDTO   `json:"week"`
	Period *PeriodDTO `json:"period"`
}

// CurrentDTO is today's fiscal context plus the quick presets a toolbar
// offers for the viewed year.
type CurrentDTO struct {
	Today         string      `json:"today"`
	Year          int         `json:"year"`
	ViewYear      int         `json:"view_year"`
	IsCurrentYear bool        `json:"is_current_year"`
	Week          *WeekDTO    `json:"week"`
	Period        *PeriodDTO  `json:"period"`
	Presets       []PresetDTO `json:"presets"`
}

// PresetDTO is one quick-select option.
type PresetDTO struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// =============================================================================
// SELECTION
// =============================================================================

// SelectionDTO is the selection value.
type SelectionDTO struct {
	Type      string            `json:"type"`
	StartDate string            `json:"startDate"`
	EndDate   string            `json:"endDate"`
	Label     string            `json:"label"`
	Meta      *SelectionMetaDTO `json:"meta,omitempty"`
}

// SelectionMetaDTO records what was picked.
type SelectionMetaDTO struct {
	PeriodIDs []int         `json:"periodIds,omitempty"`
	Week      int           `json:"week,omitempty"`
	WeekRange *WeekRangeDTO `json:"weekRange,omitempty"`
	Quick     string        `json:"quick,omitempty"`
}

// WeekRangeDTO is an inclusive week range.
type WeekRangeDTO struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// FilterDTO is the "between" filter value.
type FilterDTO struct {
	Operator string   `json:"operator"`
	Values   []string `json:"values"`
	HasTime  bool     `json:"hasTime"`
}

// DragDTO is the drag state of a session.
type DragDTO struct {
	Dragging bool   `json:"dragging"`
	Anchor   string `json:"anchor,omitempty"`
	Current  string `json:"current,omitempty"`
	Start    string `json:"preview_start,omitempty"`
	End      string `json:"preview_end,omitempty"`
}

// SessionDTO is a selection session's state.
type SessionDTO struct {
	ID        string        `json:"id"`
	Selection *SelectionDTO `json:"selection"`
	Summary   string        `json:"summary"`
	Days      int           `json:"days"`
	Drag      DragDTO       `json:"drag"`
	Anchor    int           `json:"anchor,omitempty"`
}

// PeriodsRequest selects periods by id.
type PeriodsRequest struct {
	Year int   `json:"year"`
	IDs  []int `json:"ids"`
}

// TogglePeriodRequest checks or unchecks one period.
type TogglePeriodRequest struct {
	Year int `json:"year"`
	ID   int `json:"id"`
}

// AllPeriodsRequest selects every period visible in a view.
type AllPeriodsRequest struct {
	Year int    `json:"year"`
	View string `json:"view"`
}

// WeekClickRequest is a click on a week in the grid.
type WeekClickRequest struct {
	Year  int  `json:"year"`
	Week  int  `json:"week"`
	Shift bool `json:"shift"`
}

// WeekRangeRequest is a typed-in week range.
type WeekRangeRequest struct {
	Year  int `json:"year"`
	Start int `json:"start"`
	End   int `json:"end"`
}

// CustomRangeRequest is an arbitrary date range.
type CustomRangeRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Label string `json:"label"`
}

// QuickRequest applies a quick preset. Year 0 means today's fiscal year.
type QuickRequest struct {
	Preset string `json:"preset"`
	Year   int    `json:"year"`
}

// DragRequest carries the day under the pointer.
type DragRequest struct {
	Date string `json:"date"`
}

// =============================================================================
// SOURCES
// =============================================================================

// SourceDTO represents a stored calendar source.
type SourceDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Collection  string `json:"collection,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// CreateSourceRequest registers a source with its rows. Rows is either a
// JSON array of row objects or a query result ({"data": {"cols", "rows"}}).
type CreateSourceRequest struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Collection  string          `json:"collection"`
	Rows        json.RawMessage `json:"rows"`
}

// LoadRunDTO is one calendar load in the run history.
type LoadRunDTO struct {
	ID          string `json:"id"`
	SourceID    string `json:"source_id"`
	Origin      string `json:"origin"`
	Status      string `json:"status"`
	RowCount    int    `json:"row_count"`
	IssueCount  int    `json:"issue_count"`
	Error       string `json:"error,omitempty"`
	StartedAt   string `json:"started_at"`
	CompletedAt string `json:"completed_at,omitempty"`
}

// ScenarioDTO represents a sample calendar.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"` // "retail", "monthly" or "thirteen"
}

// LoadScenarioRequest picks a sample calendar.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toCalendarDTO(res *source.Result, today time.Time) CalendarDTO {
	cal := res.Calendar
	warnings := make([]IssueDTO, 0, len(res.Issues))
	for _, is := range res.Issues {
		warnings = append(warnings, IssueDTO{
			Kind:    string(is.Kind),
			Year:    is.Year,
			Period:  is.Period,
			Next:    is.Next,
			Days:    is.Days,
			Message: is.Message,
		})
	}
	return CalendarDTO{
		Source: SourceRefDTO{
			ID:     res.Source.ID,
			Name:   res.Source.Name,
			Origin: string(res.Source.Origin),
		},
		Years:       cal.YearNumbers(),
		MinYear:     cal.MinYear,
		MaxYear:     cal.MaxYear,
		CurrentYear: cal.CurrentYear(today),
		Rows:        res.Rows,
		LoadedAt:    res.LoadedAt.UTC().Format(time.RFC3339),
		Warnings:    warnings,
	}
}

func toYearDTO(y *fiscal.Year, view fiscal.ViewMode) YearDTO {
	periods := y.PeriodsForView(view)
	weeks := y.WeeksForView(view)

	dto := YearDTO{
		Year:    y.Year,
		Start:   fiscal.DateKey(y.Start),
		End:     fiscal.DateKey(y.End),
		View:    string(view),
		Periods: make([]PeriodDTO, len(periods)),
		Weeks:   make([]WeekDTO, len(weeks)),
	}
	for i, p := range periods {
		dto.Periods[i] = toPeriodDTO(p)
	}
	for i, w := range weeks {
		dto.Weeks[i] = toWeekDTO(w)
	}
	return dto
}

func toPeriodDTO(p fiscal.Period) PeriodDTO {
	return PeriodDTO{
		ID:        p.ID,
		Name:      p.Name,
		Year:      p.FiscalYear,
		Quarter:   p.Quarter,
		Start:     fiscal.DateKey(p.Start),
		End:       fiscal.DateKey(p.End),
		Days:      p.Days,
		StartWeek: p.StartWeek,
		EndWeek:   p.EndWeek,
	}
}

func toWeekDTO(w fiscal.Week) WeekDTO {
	return WeekDTO{
		Number:       w.Number,
		Label:        w.Label,
		Year:         w.FiscalYear,
		PeriodID:     w.PeriodID,
		PeriodName:   w.PeriodName,
		Quarter:      w.Quarter,
		WeekInPeriod: w.WeekInPeriod,
		Start:        fiscal.DateKey(w.Start),
		End:          fiscal.DateKey(w.End),
	}
}

func toMonthDTOs(months []fiscal.MonthInView) []MonthDTO {
	out := make([]MonthDTO, len(months))
	for i, m := range months {
		out[i] = MonthDTO{
			Year:    m.Year,
			Month:   int(m.Month),
			Name:    m.Month.String(),
			Periods: m.PeriodNames,
		}
	}
	return out
}

func toPresetDTOs(presets []selection.Preset) []PresetDTO {
	out := make([]PresetDTO, len(presets))
	for i, p := range presets {
		out[i] = PresetDTO{ID: string(p), Label: selection.QuickLabel(p)}
	}
	return out
}

// toSelectionDTO converts a selection. nil stays nil.
func toSelectionDTO(sel *selection.Selection) *SelectionDTO {
	if sel == nil {
		return nil
	}
	dto := &SelectionDTO{
		Type:      string(sel.Type),
		StartDate: fiscal.DateKey(sel.Start),
		EndDate:   fiscal.DateKey(sel.End),
		Label:     sel.Label,
	}
	if m := sel.Meta; m != nil {
		meta := &SelectionMetaDTO{
			PeriodIDs: m.PeriodIDs,
			Week:      m.Week,
			Quick:     string(m.Quick),
		}
		if m.WeekRange != nil {
			meta.WeekRange = &WeekRangeDTO{Start: m.WeekRange.Start, End: m.WeekRange.End}
		}
		dto.Meta = meta
	}
	return dto
}

func toFilterDTO(f *selection.Filter) *FilterDTO {
	if f == nil {
		return nil
	}
	return &FilterDTO{
		Operator: f.Operator,
		Values:   []string{fiscal.DateKey(f.Start), fiscal.DateKey(f.End)},
		HasTime:  f.HasTime,
	}
}

// fromFilterDTO parses a filter value. Malformed values are reported as
// selection.ErrUnsupportedFilter.
func fromFilterDTO(dto FilterDTO) (selection.Filter, error) {
	f := selection.Filter{Operator: dto.Operator, HasTime: dto.HasTime}
	if len(dto.Values) != 2 {
		return f, unsupportedFilter("between needs exactly two values")
	}
	var err error
	if f.Start, err = fiscal.ParseDate(dto.Values[0]); err != nil {
		return f, unsupportedFilter(err.Error())
	}
	if f.End, err = fiscal.ParseDate(dto.Values[1]); err != nil {
		return f, unsupportedFilter(err.Error())
	}
	return f, nil
}

func toSessionDTO(id string, st selection.State) SessionDTO {
	dto := SessionDTO{
		ID:        id,
		Selection: toSelectionDTO(st.Selection),
		Summary:   selection.FormatSelection(st.Selection),
		Days:      st.Selection.Days(),
		Anchor:    st.Anchor,
		Drag:      DragDTO{Dragging: st.Drag.Dragging},
	}
	if st.Drag.Dragging {
		dto.Drag.Anchor = fiscal.DateKey(st.Drag.Anchor)
		dto.Drag.Current = fiscal.DateKey(st.Drag.Current)
		if start, end, ok := st.Drag.Preview(); ok {
			dto.Drag.Start = fiscal.DateKey(start)
			dto.Drag.End = fiscal.DateKey(end)
		}
	}
	return dto
}

func toSourceDTO(info source.SourceInfo) SourceDTO {
	dto := SourceDTO{
		ID:          info.ID,
		Name:        info.Name,
		Description: info.Description,
		Collection:  info.Collection,
	}
	if !info.CreatedAt.IsZero() {
		dto.CreatedAt = info.CreatedAt.UTC().Format(time.RFC3339)
	}
	return dto
}

func toLoadRunDTO(run sqlite.LoadRun) LoadRunDTO {
	dto := LoadRunDTO{
		ID:         run.ID,
		SourceID:   run.SourceID,
		Origin:     run.Origin,
		Status:     run.Status,
		RowCount:   run.RowCount,
		IssueCount: run.IssueCount,
		Error:      run.Error,
		StartedAt:  run.StartedAt.UTC().Format(time.RFC3339),
	}
	if run.CompletedAt != nil {
		dto.CompletedAt = run.CompletedAt.UTC().Format(time.RFC3339)
	}
	return dto
}
