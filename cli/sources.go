package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/fiscal-calendar/factory"
	"github.com/warp/fiscal-calendar/fiscal"
	"github.com/warp/fiscal-calendar/source"
)

type importResult struct {
	Source   string   `json:"source"`
	Rows     int      `json:"rows"`
	Years    []int    `json:"years"`
	Warnings []string `json:"warnings"`
}

func newImportCmd(opts *RootOptions) *cobra.Command {
	var info source.SourceInfo

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Store a CSV or JSON calendar file as a source",
		Long: "Store a CSV or JSON calendar file as a source.\n\n" +
			"The file needs YEAR, START_DATE, END_DATE, PERIOD and QUARTER columns.\n" +
			"Without --description the source is tagged " + source.Marker + " so discovery finds it.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return printError(cmd, opts, fmt.Errorf("read %s: %w", path, err))
			}

			base := filepath.Base(path)
			rows, err := factory.NewRowFactory().ParseFile(base, data)
			if err != nil {
				return printError(cmd, opts, err)
			}

			src := info
			if src.ID == "" {
				src.ID = strings.TrimSuffix(base, filepath.Ext(base))
			}
			if src.Name == "" {
				src.Name = src.ID
			}
			if src.Description == "" {
				src.Description = "Fiscal calendar " + source.Marker
			}

			res, err := storeRows(cmd, opts, src, rows)
			if err != nil {
				return printError(cmd, opts, err)
			}
			return printResult(cmd, opts, res, func(w io.Writer) error {
				return printImport(w, res)
			})
		},
	}

	cmd.Flags().StringVar(&info.ID, "id", "", "Source id (default: file name without extension)")
	cmd.Flags().StringVar(&info.Name, "name", "", "Source name (default: id)")
	cmd.Flags().StringVar(&info.Description, "description", "", "Source description")
	cmd.Flags().StringVar(&info.Collection, "collection", source.PreferredCollections[0], "Collection the source belongs to")

	return cmd
}

func newSeedCmd(opts *RootOptions) *cobra.Command {
	var (
		id         string
		fromYear   int
		toYear     int
		startMonth int
	)

	cmd := &cobra.Command{
		Use:   "seed <layout>",
		Short: "Store a generated sample calendar",
		Long: "Store a generated sample calendar.\n\n" +
			"Layouts: retail-445, monthly (with --start-month), thirteen-period.\n" +
			"Years default to last, this and next calendar year.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			layout := factory.Layout(args[0])
			if startMonth < 1 || startMonth > 12 {
				return printError(cmd, opts, invalidArgument("--start-month must be 1-12, got %d", startMonth))
			}

			thisYear := opts.today().Year()
			cfg := factory.SampleConfig{
				Layout:     layout,
				StartMonth: time.Month(startMonth),
				FromYear:   fromYear,
				ToYear:     toYear,
			}
			if cfg.FromYear == 0 {
				cfg.FromYear = thisYear - 1
			}
			if cfg.ToYear == 0 {
				cfg.ToYear = thisYear + 1
			}

			rows, err := factory.NewRowFactory().Sample(cfg)
			if err != nil {
				return printError(cmd, opts, invalidArgument("%v", err))
			}

			src := source.SourceInfo{
				ID:          id,
				Name:        fmt.Sprintf("Sample %s calendar", layout),
				Description: "Sample fiscal calendar " + source.Marker,
				Collection:  source.PreferredCollections[0],
			}
			if src.ID == "" {
				src.ID = "sample-" + string(layout)
			}

			res, err := storeRows(cmd, opts, src, rows)
			if err != nil {
				return printError(cmd, opts, err)
			}
			return printResult(cmd, opts, res, func(w io.Writer) error {
				return printImport(w, res)
			})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Source id (default: sample-<layout>)")
	cmd.Flags().IntVar(&fromYear, "from", 0, "First fiscal year")
	cmd.Flags().IntVar(&toYear, "to", 0, "Last fiscal year")
	cmd.Flags().IntVar(&startMonth, "start-month", 1, "First month of the fiscal year (monthly layout)")

	return cmd
}

func newSourcesCmd(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List stored sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sources, err := opts.store.ListSources(cmd.Context())
			if err != nil {
				return printError(cmd, opts, err)
			}
			if sources == nil {
				sources = []source.SourceInfo{}
			}

			return printResult(cmd, opts, sources, func(w io.Writer) error {
				if len(sources) == 0 {
					_, err := fmt.Fprintln(w, "No sources stored. Use import or seed.")
					return err
				}
				fmt.Fprintln(w, "ID\tNAME\tCOLLECTION\tDESCRIPTION")
				for _, s := range sources {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ID, s.Name, s.Collection, s.Description)
				}
				return nil
			})
		},
	}
}

// storeRows validates rows as a calendar and replaces the source's rows.
func storeRows(cmd *cobra.Command, opts *RootOptions, info source.SourceInfo, rows []fiscal.Row) (importResult, error) {
	cal, err := fiscal.Build(rows)
	if err != nil {
		return importResult{}, err
	}

	ctx := cmd.Context()
	if err := opts.store.SaveSource(ctx, info); err != nil {
		return importResult{}, err
	}
	if err := opts.store.ReplaceRows(ctx, info.ID, rows); err != nil {
		return importResult{}, err
	}

	res := importResult{
		Source:   info.ID,
		Rows:     len(rows),
		Years:    cal.YearNumbers(),
		Warnings: []string{},
	}
	for _, is := range fiscal.Diagnose(rows) {
		res.Warnings = append(res.Warnings, is.Message)
	}
	return res, nil
}

func printImport(w io.Writer, res importResult) error {
	years := res.Years
	fmt.Fprintf(w, "Stored %d rows as %s (FY%d-FY%d)\n", res.Rows, res.Source, years[0], years[len(years)-1])
	for _, msg := range res.Warnings {
		fmt.Fprintf(w, "warning: %s\n", msg)
	}
	return nil
}
