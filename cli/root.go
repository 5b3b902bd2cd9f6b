/*
root.go - fiscalcal command-line interface

PURPOSE:
  Offline access to the same SQLite store the server uses: import calendar
  files, generate sample calendars, and query weeks, periods and quick
  presets without running the HTTP server.

COMMANDS:
  import <file>      Store a CSV/JSON calendar file as a source
  seed <layout>      Store a generated sample calendar
  sources            List stored sources
  calendar           Show a fiscal year's periods and weeks
  lookup <date>      Week and period containing a date
  quick <preset>     Resolve a quick preset into a date range

OUTPUT:
  --output human (default) prints tables, --output json prints an envelope
  {ok, data, error} for scripts.

SEE ALSO:
  - cmd/fiscalcal/main.go: Entry point
  - cmd/server/main.go: HTTP server over the same store
*/
package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/fiscal-calendar/fiscal"
	"github.com/warp/fiscal-calendar/source"
	"github.com/warp/fiscal-calendar/store/sqlite"
)

// RootOptions are the persistent flags shared by every command.
type RootOptions struct {
	Output string
	DBPath string
	Source string
	Today  string

	store *sqlite.Store
}

// NewRootCmd builds the fiscalcal command tree.
func NewRootCmd() *cobra.Command {
	opts := &RootOptions{
		Output: FormatHuman,
		DBPath: "fiscal.db",
	}

	cmd := &cobra.Command{
		Use:           "fiscalcal",
		Short:         "fiscalcal inspects and manages fiscal calendars",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts.Output = strings.ToLower(strings.TrimSpace(opts.Output))
			if !IsValidFormat(opts.Output) {
				return fmt.Errorf("invalid --output value %q: supported values are %s|%s", opts.Output, FormatHuman, FormatJSON)
			}
			if opts.Today != "" {
				if _, err := fiscal.ParseDate(opts.Today); err != nil {
					return fmt.Errorf("invalid --today value: %w", err)
				}
			}

			store, err := sqlite.New(opts.DBPath)
			if err != nil {
				return fmt.Errorf("initialize sqlite: %w", err)
			}
			opts.store = store
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.store != nil {
				if err := opts.store.Close(); err != nil {
					return fmt.Errorf("close sqlite db: %w", err)
				}
				opts.store = nil
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Output, "output", FormatHuman, "Output format: human|json")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", opts.DBPath, "SQLite database path")
	cmd.PersistentFlags().StringVar(&opts.Source, "source", "", "Source id to load (skips discovery)")
	cmd.PersistentFlags().StringVar(&opts.Today, "today", "", "Treat this date as today (YYYY-MM-DD)")

	cmd.AddCommand(
		newImportCmd(opts),
		newSeedCmd(opts),
		newSourcesCmd(opts),
		newCalendarCmd(opts),
		newLookupCmd(opts),
		newQuickCmd(opts),
	)

	return cmd
}

// today returns --today, or the local date.
func (o *RootOptions) today() time.Time {
	if d, err := fiscal.ParseDate(o.Today); err == nil && o.Today != "" {
		return d
	}
	return fiscal.Today()
}

// load builds the calendar from the store.
func (o *RootOptions) load(cmd *cobra.Command) (*source.Result, error) {
	discovery := source.NewDiscovery(o.store, source.Config{Override: o.Source})
	return source.NewLoader(discovery, o.store).Load(cmd.Context())
}

// ErrReported marks an error whose envelope was already printed.
var ErrReported = errors.New("error already reported")
