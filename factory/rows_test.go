package factory_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/fiscal-calendar/factory"
	"github.com/warp/fiscal-calendar/fiscal"
)

func TestParseQueryResult_LooselyTypedValues(t *testing.T) {
	// GIVEN: A query result with lower-case column names, a thousands
	// separator in YEAR, timestamps and float/string numbers
	body := `{
	  "data": {
	    "cols": [{"name": "year"}, {"name": "Start_Date"}, {"name": "END_DATE"}, {"name": "PERIOD"}, {"name": "QUARTER"}],
	    "rows": [
	      ["2,025", "2025-02-01T00:00:00Z", "2025-02-28T00:00:00Z", 1, "1"],
	      [2025.0, "2025-03-01", "2025-03-31 00:00:00", "2", 1.0]
	    ]
	  }
	}`

	// WHEN: Parsing
	rows, err := factory.NewRowFactory().ParseQueryResult([]byte(body))

	// THEN: Strict rows come out
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, fiscal.Row{
		Year:    2025,
		Start:   fiscal.NewDate(2025, time.February, 1),
		End:     fiscal.NewDate(2025, time.February, 28),
		Period:  1,
		Quarter: 1,
	}, rows[0])
	assert.Equal(t, 2, rows[1].Period)
	assert.Equal(t, fiscal.NewDate(2025, time.March, 31), rows[1].End)
}

func TestParseQueryResult_MissingColumns(t *testing.T) {
	body := `{"data": {"cols": [{"name": "YEAR"}, {"name": "PERIOD"}], "rows": []}}`

	_, err := factory.NewRowFactory().ParseQueryResult([]byte(body))
	require.ErrorIs(t, err, fiscal.ErrMalformedInput)
	assert.Contains(t, err.Error(), "START_DATE, END_DATE, QUARTER")
}

func TestParseQueryResult_BadShape(t *testing.T) {
	f := factory.NewRowFactory()

	for _, body := range []string{`not json`, `{}`, `{"data": {"rows": [[1]]}}`} {
		_, err := f.ParseQueryResult([]byte(body))
		assert.ErrorIs(t, err, fiscal.ErrMalformedInput, body)
	}
}

func TestParse_BadFieldReportsRowAndColumn(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"fractional period", `[{"YEAR": 2025, "START_DATE": "2025-02-01", "END_DATE": "2025-02-28", "PERIOD": 1.5, "QUARTER": 1}]`, "PERIOD"},
		{"missing quarter", `[{"YEAR": 2025, "START_DATE": "2025-02-01", "END_DATE": "2025-02-28", "PERIOD": 1}]`, "QUARTER"},
		{"bad date", `[{"YEAR": 2025, "START_DATE": "Feb 1", "END_DATE": "2025-02-28", "PERIOD": 1, "QUARTER": 1}]`, "START_DATE"},
		{"numeric date", `[{"YEAR": 2025, "START_DATE": 20250201, "END_DATE": "2025-02-28", "PERIOD": 1, "QUARTER": 1}]`, "START_DATE"},
		{"word year", `[{"YEAR": "next", "START_DATE": "2025-02-01", "END_DATE": "2025-02-28", "PERIOD": 1, "QUARTER": 1}]`, "YEAR"},
		{"period past int64", `[{"YEAR": 2025, "START_DATE": "2025-02-01", "END_DATE": "2025-02-28", "PERIOD": 18446744073709551617, "QUARTER": 1}]`, "PERIOD"},
		{"quoted year past int64", `[{"YEAR": "99999999999999999999", "START_DATE": "2025-02-01", "END_DATE": "2025-02-28", "PERIOD": 1, "QUARTER": 1}]`, "YEAR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := factory.NewRowFactory().ParseJSON([]byte(tt.body))
			require.ErrorIs(t, err, fiscal.ErrMalformedInput)

			var rowErr *fiscal.RowError
			require.True(t, errors.As(err, &rowErr))
			assert.Equal(t, 0, rowErr.Index)
			assert.Equal(t, tt.field, rowErr.Field)
		})
	}
}

func TestParseRecords_CaseInsensitiveKeys(t *testing.T) {
	body := `[{"year": 2026, "start_date": "2026-02-01", "End_Date": "2026-02-28", "period": "01", "quarter": 1}]`

	rows, err := factory.NewRowFactory().ParseJSON([]byte(body))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2026, rows[0].Year)
	assert.Equal(t, 1, rows[0].Period)
}

func TestParseCSV(t *testing.T) {
	csv := "YEAR,START_DATE,END_DATE,PERIOD,QUARTER\n" +
		"\"2,025\",2025-02-01,2025-02-28,1,1\n" +
		"2025, 2025-03-01, 2025-03-31, 2, 1\n"

	rows, err := factory.NewRowFactory().ParseCSV(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 2025, rows[0].Year)
	assert.Equal(t, fiscal.NewDate(2025, time.March, 1), rows[1].Start)

	cal, err := fiscal.Build(rows)
	require.NoError(t, err)
	assert.Len(t, cal.Years[2025].Periods, 2)
}

func TestParseCSV_EmptyAndRagged(t *testing.T) {
	f := factory.NewRowFactory()

	_, err := f.ParseCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, fiscal.ErrEmptyInput)

	_, err = f.ParseCSV(strings.NewReader("YEAR,START_DATE,END_DATE,PERIOD,QUARTER\n2025,2025-02-01\n"))
	assert.ErrorIs(t, err, fiscal.ErrMalformedInput)
}

func TestParseFile_ByExtension(t *testing.T) {
	f := factory.NewRowFactory()
	csv := []byte("YEAR,START_DATE,END_DATE,PERIOD,QUARTER\n2025,2025-02-01,2025-02-28,1,1\n")

	rows, err := f.ParseFile("calendars/fy2025.CSV", csv)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = f.ParseFile("fy2025.xlsx", csv)
	assert.ErrorIs(t, err, fiscal.ErrMalformedInput)
}

func TestToJSON(t *testing.T) {
	rows := []fiscal.Row{{
		Year:    2025,
		Start:   fiscal.NewDate(2025, time.February, 1),
		End:     fiscal.NewDate(2025, time.February, 28),
		Period:  1,
		Quarter: 1,
	}}

	out := factory.NewRowFactory().ToJSON(rows)
	assert.Equal(t, []factory.RowJSON{{Year: 2025, StartDate: "2025-02-01", EndDate: "2025-02-28", Period: 1, Quarter: 1}}, out)
}

func TestFromTable_DriverValues(t *testing.T) {
	// GIVEN: Values the way database/sql drivers scan them into any
	loc := time.FixedZone("UTC-5", -5*3600)
	table := [][]any{
		{int64(2025), time.Date(2025, 2, 1, 0, 0, 0, 0, loc), []byte("2025-02-28"), int32(1), []byte("1")},
	}

	rows, err := factory.NewRowFactory().FromTable([]string{"year", "start_date", "end_date", "period", "quarter"}, table)

	// THEN: Dates become civil dates in UTC, byte slices parse as text
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, fiscal.NewDate(2025, 2, 1), rows[0].Start)
	assert.Equal(t, fiscal.NewDate(2025, 2, 28), rows[0].End)
	assert.Equal(t, 1, rows[0].Period)
	assert.Equal(t, 1, rows[0].Quarter)
}
