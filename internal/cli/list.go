package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/regrest/internal/codec"
	"github.com/roach88/regrest/internal/record"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Keyword string
}

// recordSummary is the JSON shape of one listed record.
type recordSummary struct {
	Module    string `json:"module"`
	Function  string `json:"function"`
	RecordID  string `json:"record_id"`
	Args      string `json:"args"`
	Kwargs    string `json:"kwargs"`
	Result    string `json:"result"`
	Timestamp string `json:"timestamp"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored test records",
		Long: `List all stored test records, grouped by module and function.

Examples:
  regrest list                # Show all records
  regrest list -k calculate   # Show records whose module or function
                              # name contains 'calculate'`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Keyword, "keyword", "k", "", "filter records by module or function name")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	st, _, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	records, failures, err := loadRecords(st)
	if err != nil {
		return WrapExitError(ExitCommandError, "list records", err)
	}
	records = filterRecords(records, opts.Keyword)

	out := cmd.OutOrStdout()

	if opts.Format == "json" {
		summaries := make([]recordSummary, 0, len(records))
		for _, r := range records {
			summaries = append(summaries, summarize(r))
		}
		f := &OutputFormatter{Format: opts.Format, Writer: out}
		return f.JSON(map[string]any{
			"records":  summaries,
			"failures": failures,
		})
	}

	if len(records) == 0 {
		fmt.Fprintln(out, "No test records found.")
		return nil
	}

	fmt.Fprintf(out, "Found %d test record(s):\n\n", len(records))

	currentModule, currentFunction := "", ""
	for _, r := range records {
		if r.Module != currentModule {
			if currentModule != "" {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "%s:\n", r.Module)
			currentModule = r.Module
			currentFunction = ""
		}
		if r.Function != currentFunction {
			fmt.Fprintf(out, "  %s()\n", r.Function)
			currentFunction = r.Function
		}

		fmt.Fprintf(out, "    ID: %s\n", r.RecordID)
		fmt.Fprintf(out, "    Arguments: %s", formatEncoded(r.Args))
		if kw := formatEncoded(r.Kwargs); kw != "[]" && kw != "{}" {
			fmt.Fprintf(out, " %s", kw)
		}
		fmt.Fprintln(out)
		fmt.Fprintf(out, "    Result: %s\n", formatEncoded(r.Result))
		fmt.Fprintf(out, "    Recorded: %s\n", r.Timestamp.Format("2006-01-02 15:04:05 MST"))
	}

	for _, f := range failures {
		fmt.Fprintf(out, "\nwarning: could not load %s: %s\n", f.Key, f.Message)
	}

	return nil
}

func summarize(r record.Record) recordSummary {
	return recordSummary{
		Module:    r.Module,
		Function:  r.Function,
		RecordID:  r.RecordID,
		Args:      formatEncoded(r.Args),
		Kwargs:    formatEncoded(r.Kwargs),
		Result:    formatEncoded(r.Result),
		Timestamp: r.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// formatEncoded renders an encoded value for display, truncated so one
// huge payload does not flood the listing.
func formatEncoded(ev codec.EncodedValue) string {
	const maxDisplay = 80

	var s string
	switch ev.Kind {
	case codec.KindText:
		if data, err := codec.EncodedDisplay(ev); err == nil {
			s = data
		} else {
			s = "<unrenderable>"
		}
	case codec.KindBinary:
		s = fmt.Sprintf("<binary %d bytes>", len(ev.Binary))
	default:
		s = "<empty>"
	}

	if len(s) > maxDisplay {
		s = s[:maxDisplay-3] + "..."
	}
	return s
}
