/*
Package factory converts loosely-typed calendar data into fiscal.Row values.

PURPOSE:
  Period rows arrive from query engines, spreadsheets and object stores in
  whatever shape the producer chose: numbers as floats, as strings with
  thousands separators ("2,025"), dates with or without a time component,
  column names in any case. The fiscal package only accepts strict Rows.
  This factory is the boundary that adapts one to the other and turns any
  mismatch into fiscal.ErrMalformedInput.

ACCEPTED SHAPES:
  Query result (columns + positional rows):
    {"data": {"cols": [{"name": "YEAR"}, {"name": "START_DATE"}, ...],
              "rows": [[2025, "2025-02-01T00:00:00Z", "2025-02-28", 1, 1]]}}

  Record list (objects, case-insensitive keys):
    [{"year": 2025, "start_date": "2025-02-01", "end_date": "2025-02-28",
      "period": 1, "quarter": 1}]

  CSV with a header row naming the same five columns.

REQUIRED COLUMNS:
  YEAR, START_DATE, END_DATE, PERIOD, QUARTER

USAGE:
  f := factory.NewRowFactory()
  rows, err := f.ParseQueryResult(body)
  if err != nil {
      // errors.Is(err, fiscal.ErrMalformedInput)
  }
  cal, err := fiscal.Build(rows)

SEE ALSO:
  - fiscal/types.go: Row
  - source/: Row sources that feed this factory
*/
package factory

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/fiscal-calendar/fiscal"
)

// Column names of the row schema.
const (
	ColYear      = "YEAR"
	ColStartDate = "START_DATE"
	ColEndDate   = "END_DATE"
	ColPeriod    = "PERIOD"
	ColQuarter   = "QUARTER"
)

// RequiredColumns lists the schema in its canonical order.
var RequiredColumns = []string{ColYear, ColStartDate, ColEndDate, ColPeriod, ColQuarter}

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// RowJSON is the canonical JSON form of a row, used for export.
type RowJSON struct {
	Year      int    `json:"YEAR"`
	StartDate string `json:"START_DATE"`
	EndDate   string `json:"END_DATE"`
	Period    int    `json:"PERIOD"`
	Quarter   int    `json:"QUARTER"`
}

// QueryResultJSON is a columnar query result.
type QueryResultJSON struct {
	Data struct {
		Cols []ColumnJSON `json:"cols"`
		Rows [][]any      `json:"rows"`
	} `json:"data"`
}

// ColumnJSON names one result column.
type ColumnJSON struct {
	Name string `json:"name"`
}

// =============================================================================
// ROW FACTORY
// =============================================================================

// RowFactory adapts external row data to fiscal.Row.
type RowFactory struct{}

// NewRowFactory creates a new row factory.
func NewRowFactory() *RowFactory {
	return &RowFactory{}
}

// ParseQueryResult parses a columnar query result.
func (f *RowFactory) ParseQueryResult(data []byte) ([]fiscal.Row, error) {
	var result QueryResultJSON
	if err := decodeJSON(data, &result); err != nil {
		return nil, err
	}
	if result.Data.Cols == nil || result.Data.Rows == nil {
		return nil, fmt.Errorf("%w: query result has no data.cols/data.rows", fiscal.ErrMalformedInput)
	}

	names := make([]string, len(result.Data.Cols))
	for i, c := range result.Data.Cols {
		names[i] = c.Name
	}
	return f.FromTable(names, result.Data.Rows)
}

// ParseRecords parses a JSON array of row objects.
func (f *RowFactory) ParseRecords(data []byte) ([]fiscal.Row, error) {
	var records []map[string]any
	if err := decodeJSON(data, &records); err != nil {
		return nil, err
	}
	return f.FromRecords(records)
}

// ParseJSON accepts either a query result object or a record array.
func (f *RowFactory) ParseJSON(data []byte) ([]fiscal.Row, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return f.ParseRecords(trimmed)
	}
	return f.ParseQueryResult(trimmed)
}

// ParseCSV parses CSV with a header row.
func (f *RowFactory) ParseCSV(r io.Reader) ([]fiscal.Row, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fiscal.ErrEmptyInput
	}
	if err != nil {
		return nil, fmt.Errorf("%w: csv header: %v", fiscal.ErrMalformedInput, err)
	}

	var table [][]any
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: csv: %v", fiscal.ErrMalformedInput, err)
		}
		values := make([]any, len(record))
		for i, v := range record {
			values[i] = v
		}
		table = append(table, values)
	}
	return f.FromTable(header, table)
}

// ParseFile picks CSV or JSON by the extension of name.
func (f *RowFactory) ParseFile(name string, data []byte) ([]fiscal.Row, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".csv":
		return f.ParseCSV(bytes.NewReader(data))
	case ".json", "":
		return f.ParseJSON(data)
	}
	return nil, fmt.Errorf("%w: unsupported file type %q", fiscal.ErrMalformedInput, path.Ext(name))
}

// FromTable converts positional rows using column names.
func (f *RowFactory) FromTable(columns []string, table [][]any) ([]fiscal.Row, error) {
	index := make(map[string]int, len(columns))
	for i, name := range columns {
		index[strings.ToUpper(strings.TrimSpace(name))] = i
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required columns: %s (expected %s)",
			fiscal.ErrMalformedInput, strings.Join(missing, ", "), strings.Join(RequiredColumns, ", "))
	}

	rows := make([]fiscal.Row, 0, len(table))
	for i, values := range table {
		get := func(col string) any {
			if j := index[col]; j < len(values) {
				return values[j]
			}
			return nil
		}
		row, err := toRow(i, get)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// FromRecords converts row objects. Keys match columns case-insensitively.
func (f *RowFactory) FromRecords(records []map[string]any) ([]fiscal.Row, error) {
	rows := make([]fiscal.Row, 0, len(records))
	for i, rec := range records {
		upper := make(map[string]any, len(rec))
		for k, v := range rec {
			upper[strings.ToUpper(strings.TrimSpace(k))] = v
		}
		row, err := toRow(i, func(col string) any { return upper[col] })
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ToJSON converts rows to their canonical JSON form.
func (f *RowFactory) ToJSON(rows []fiscal.Row) []RowJSON {
	out := make([]RowJSON, len(rows))
	for i, r := range rows {
		out[i] = RowJSON{
			Year:      r.Year,
			StartDate: fiscal.DateKey(r.Start),
			EndDate:   fiscal.DateKey(r.End),
			Period:    r.Period,
			Quarter:   r.Quarter,
		}
	}
	return out
}

// =============================================================================
// FIELD COERCION
// =============================================================================

func toRow(index int, get func(col string) any) (fiscal.Row, error) {
	var row fiscal.Row
	var err error

	if row.Year, err = toInt(get(ColYear)); err != nil {
		return row, &fiscal.RowError{Index: index, Field: ColYear, Reason: err.Error()}
	}
	if row.Start, err = toDate(get(ColStartDate)); err != nil {
		return row, &fiscal.RowError{Index: index, Field: ColStartDate, Reason: err.Error()}
	}
	if row.End, err = toDate(get(ColEndDate)); err != nil {
		return row, &fiscal.RowError{Index: index, Field: ColEndDate, Reason: err.Error()}
	}
	if row.Period, err = toInt(get(ColPeriod)); err != nil {
		return row, &fiscal.RowError{Index: index, Field: ColPeriod, Reason: err.Error()}
	}
	if row.Quarter, err = toInt(get(ColQuarter)); err != nil {
		return row, &fiscal.RowError{Index: index, Field: ColQuarter, Reason: err.Error()}
	}
	return row, nil
}

// toInt accepts integers, integral floats, json.Number and numeric strings
// with thousands separators. Fractional values are rejected, compared
// exactly in decimal.
func toInt(v any) (int, error) {
	var d decimal.Decimal
	switch x := v.(type) {
	case nil:
		return 0, errors.New("missing")
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case int32:
		return int(x), nil
	case []byte:
		return toInt(string(x))
	case float64:
		d = decimal.NewFromFloat(x)
	case json.Number:
		parsed, err := decimal.NewFromString(x.String())
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", x)
		}
		d = parsed
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(x), ",", "")
		if s == "" {
			return 0, errors.New("missing")
		}
		parsed, err := decimal.NewFromString(s)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", x)
		}
		d = parsed
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}

	if !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("not an integer: %s", d.String())
	}
	if !decimal.NewFromInt(d.IntPart()).Equal(d) {
		return 0, fmt.Errorf("out of range: %s", d.String())
	}
	return int(d.IntPart()), nil
}

// toDate accepts ISO-date-prefixed strings and, from database drivers,
// time.Time and []byte values.
func toDate(v any) (time.Time, error) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, errors.New("missing")
	case string:
		return fiscal.ParseDate(x)
	case []byte:
		return fiscal.ParseDate(string(x))
	case time.Time:
		if x.IsZero() {
			return time.Time{}, errors.New("missing")
		}
		return fiscal.Truncate(x), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported type %T", v)
	}
}

func decodeJSON(data []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", fiscal.ErrMalformedInput, err)
	}
	return nil
}
