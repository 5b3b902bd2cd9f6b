package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/warp/fiscal-calendar/fiscal"
	"github.com/warp/fiscal-calendar/selection"
	"github.com/warp/fiscal-calendar/source"
)

const (
	FormatHuman = "human"
	FormatJSON  = "json"
)

// Envelope is the --output json shape of every command.
type Envelope struct {
	Ok    bool          `json:"ok"`
	Data  any           `json:"data"`
	Error *ErrorPayload `json:"error"`
}

// ErrorPayload describes a failed command.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func IsValidFormat(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case FormatHuman, FormatJSON:
		return true
	default:
		return false
	}
}

// printResult writes data as a JSON envelope, or through human for the
// human format.
func printResult(cmd *cobra.Command, opts *RootOptions, data any, human func(w io.Writer) error) error {
	w := cmd.OutOrStdout()
	if opts.Output == FormatJSON {
		return writeEnvelope(w, Envelope{Ok: true, Data: data})
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := human(tw); err != nil {
		return err
	}
	return tw.Flush()
}

// printError reports err in the chosen format and returns ErrReported so
// the process exits non-zero without printing it twice.
func printError(cmd *cobra.Command, opts *RootOptions, err error) error {
	payload := &ErrorPayload{Code: errorCode(err), Message: err.Error()}
	if opts.Output == FormatJSON {
		if werr := writeEnvelope(cmd.OutOrStdout(), Envelope{Ok: false, Error: payload}); werr != nil {
			return werr
		}
	} else {
		fmt.Fprintf(cmd.ErrOrStderr(), "[ERROR] %s: %s\n", payload.Code, payload.Message)
	}
	return fmt.Errorf("%w: %v", ErrReported, err)
}

func writeEnvelope(w io.Writer, env Envelope) error {
	payload, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json envelope: %w", err)
	}
	if _, err := fmt.Fprintln(w, string(payload)); err != nil {
		return fmt.Errorf("write json output: %w", err)
	}
	return nil
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, source.ErrSourceNotFound), fiscal.IsNotFound(err):
		return "NOT_FOUND"
	case errors.Is(err, fiscal.ErrEmptyInput):
		return "EMPTY_INPUT"
	case errors.Is(err, fiscal.ErrMalformedInput):
		return "MALFORMED_INPUT"
	case errors.Is(err, selection.ErrInvalidRange), errors.Is(err, selection.ErrUnsupportedFilter), errors.Is(err, errInvalidArgument):
		return "INVALID_ARGUMENT"
	}
	return "INTERNAL"
}

var errInvalidArgument = errors.New("invalid argument")

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errInvalidArgument, fmt.Sprintf(format, args...))
}
