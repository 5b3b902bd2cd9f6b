package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/fiscal-calendar/fiscal"
	"github.com/warp/fiscal-calendar/selection"
)

// =============================================================================
// OUTPUT TYPES
// =============================================================================

type periodOut struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Quarter   int    `json:"quarter"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Days      int    `json:"days"`
	StartWeek int    `json:"start_week"`
	EndWeek   int    `json:"end_week"`
}

type weekOut struct {
	Number int    `json:"number"`
	Label  string `json:"label"`
	Year   int    `json:"year"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

type yearOut struct {
	Source  string      `json:"source"`
	Year    int         `json:"year"`
	View    string      `json:"view"`
	Start   string      `json:"start"`
	End     string      `json:"end"`
	Periods []periodOut `json:"periods"`
	Weeks   []weekOut   `json:"weeks,omitempty"`
}

type lookupOut struct {
	Date   string     `json:"date"`
	Year   int        `json:"year"`
	Week   *weekOut   `json:"week"`
	Period *periodOut `json:"period"`
}

type quickOut struct {
	Preset    string   `json:"preset"`
	Type      string   `json:"type"`
	StartDate string   `json:"startDate"`
	EndDate   string   `json:"endDate"`
	Label     string   `json:"label"`
	Days      int      `json:"days"`
	Filter    []string `json:"filter"`
}

func toPeriodOut(p fiscal.Period) periodOut {
	return periodOut{
		ID:        p.ID,
		Name:      p.Name,
		Quarter:   p.Quarter,
		Start:     fiscal.DateKey(p.Start),
		End:       fiscal.DateKey(p.End),
		Days:      p.Days,
		StartWeek: p.StartWeek,
		EndWeek:   p.EndWeek,
	}
}

func toWeekOut(w fiscal.Week) weekOut {
	return weekOut{
		Number: w.Number,
		Label:  w.Label,
		Year:   w.FiscalYear,
		Start:  fiscal.DateKey(w.Start),
		End:    fiscal.DateKey(w.End),
	}
}

// =============================================================================
// COMMANDS
// =============================================================================

func newCalendarCmd(opts *RootOptions) *cobra.Command {
	var (
		year      int
		view      string
		withWeeks bool
	)

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show a fiscal year's periods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := fiscal.ParseViewMode(view)
			if err != nil {
				return printError(cmd, opts, invalidArgument("%v", err))
			}

			res, err := opts.load(cmd)
			if err != nil {
				return printError(cmd, opts, err)
			}
			cal := res.Calendar
			if year == 0 {
				year = cal.CurrentYear(opts.today())
			}
			y, ok := cal.Year(year)
			if !ok {
				return printError(cmd, opts, fmt.Errorf("%w: %d", fiscal.ErrYearNotFound, year))
			}

			out := yearOut{
				Source:  res.Source.ID,
				Year:    y.Year,
				View:    string(mode),
				Start:   fiscal.DateKey(y.Start),
				End:     fiscal.DateKey(y.End),
				Periods: []periodOut{},
			}
			for _, p := range y.PeriodsForView(mode) {
				out.Periods = append(out.Periods, toPeriodOut(p))
			}
			if withWeeks {
				for _, w := range y.WeeksForView(mode) {
					out.Weeks = append(out.Weeks, toWeekOut(w))
				}
			}

			return printResult(cmd, opts, out, func(w io.Writer) error {
				fmt.Fprintf(w, "FY%d %s (%s - %s) from %s\n\n", out.Year, out.View, out.Start, out.End, out.Source)
				fmt.Fprintln(w, "PERIOD\tQUARTER\tSTART\tEND\tDAYS\tWEEKS")
				for _, p := range out.Periods {
					fmt.Fprintf(w, "%s\tQ%d\t%s\t%s\t%d\t%d-%d\n", p.Name, p.Quarter, p.Start, p.End, p.Days, p.StartWeek, p.EndWeek)
				}
				if len(out.Weeks) > 0 {
					fmt.Fprintln(w, "\nWEEK\tLABEL\tSTART\tEND")
					for _, wk := range out.Weeks {
						fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", wk.Number, wk.Label, wk.Start, wk.End)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Fiscal year (default: the year containing today)")
	cmd.Flags().StringVar(&view, "view", string(fiscal.ViewYear), "View: Q1, Q2, Q3, Q4 or Year")
	cmd.Flags().BoolVar(&withWeeks, "weeks", false, "Also list weeks")

	return cmd
}

func newLookupCmd(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <date>",
		Short: "Show the fiscal week and period containing a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := fiscal.ParseDate(args[0])
			if err != nil {
				return printError(cmd, opts, invalidArgument("%v", err))
			}

			res, err := opts.load(cmd)
			if err != nil {
				return printError(cmd, opts, err)
			}

			out := lookupOut{Date: fiscal.DateKey(d)}
			week, period := res.Calendar.CurrentContext(d)
			if week != nil {
				wo := toWeekOut(*week)
				out.Week = &wo
				out.Year = week.FiscalYear
			} else if y := res.Calendar.YearFor(d); y != nil {
				out.Year = y.Year
			}
			if period != nil {
				po := toPeriodOut(*period)
				out.Period = &po
			}
			if out.Year == 0 {
				return printError(cmd, opts, fmt.Errorf("%w: %s is outside all fiscal years", fiscal.ErrYearNotFound, out.Date))
			}

			return printResult(cmd, opts, out, func(w io.Writer) error {
				fmt.Fprintf(w, "%s\tFY%d\n", out.Date, out.Year)
				if out.Week != nil {
					fmt.Fprintf(w, "week\t%d (%s)\t%s - %s\n", out.Week.Number, out.Week.Label, out.Week.Start, out.Week.End)
				}
				if out.Period != nil {
					fmt.Fprintf(w, "period\t%s Q%d\t%s - %s\n", out.Period.Name, out.Period.Quarter, out.Period.Start, out.Period.End)
				}
				return nil
			})
		},
	}
}

func newQuickCmd(opts *RootOptions) *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "quick [preset]",
		Short: "Resolve a quick preset, or list the presets offered",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := opts.load(cmd)
			if err != nil {
				return printError(cmd, opts, err)
			}
			cal := res.Calendar
			today := opts.today()

			if len(args) == 0 {
				return printPresets(cmd, opts, cal, year, today)
			}

			preset, err := selection.ParsePreset(args[0])
			if err != nil {
				return printError(cmd, opts, invalidArgument("%v", err))
			}
			sel, err := selection.ResolveQuick(preset, cal, year, today)
			if err != nil {
				return printError(cmd, opts, err)
			}
			if sel == nil {
				return printError(cmd, opts, invalidArgument("%s has no target in this year", selection.QuickLabel(preset)))
			}

			f := selection.ToFilter(sel)
			out := quickOut{
				Preset:    string(preset),
				Type:      string(sel.Type),
				StartDate: fiscal.DateKey(sel.Start),
				EndDate:   fiscal.DateKey(sel.End),
				Label:     sel.Label,
				Days:      sel.Days(),
				Filter:    []string{fiscal.DateKey(f.Start), fiscal.DateKey(f.End)},
			}
			return printResult(cmd, opts, out, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, selection.FormatSelection(sel))
				return err
			})
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Fiscal year being viewed (default: today's)")

	return cmd
}

func printPresets(cmd *cobra.Command, opts *RootOptions, cal *fiscal.Calendar, year int, today time.Time) error {
	if year == 0 {
		year = cal.CurrentYear(today)
	}
	if _, ok := cal.Year(year); !ok {
		return printError(cmd, opts, fmt.Errorf("%w: %d", fiscal.ErrYearNotFound, year))
	}

	type presetOut struct {
		ID    string `json:"id"`
		Label string `json:"label"`
	}
	var out []presetOut
	for _, p := range selection.OfferedPresets(selection.IsViewingCurrentYear(cal, year, today)) {
		out = append(out, presetOut{ID: string(p), Label: selection.QuickLabel(p)})
	}

	return printResult(cmd, opts, out, func(w io.Writer) error {
		fmt.Fprintf(w, "Presets for FY%d\n", year)
		for _, p := range out {
			fmt.Fprintf(w, "%s\t%s\n", p.ID, p.Label)
		}
		return nil
	})
}
