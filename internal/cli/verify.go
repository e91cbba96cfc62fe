package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/regrest/internal/codec"
	"github.com/roach88/regrest/internal/record"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Keyword string
}

// VerifyReport is the overall result of a verify run.
type VerifyReport struct {
	Records []RecordHealth `json:"records"`
	Healthy int            `json:"healthy"`
	Broken  int            `json:"broken"`
	Total   int            `json:"total"`
}

// RecordHealth is the decode verdict for one record.
type RecordHealth struct {
	Subject        string `json:"subject"`
	RecordID       string `json:"record_id"`
	OK             bool   `json:"ok"`
	Error          string `json:"error,omitempty"`
	UnresolvedType string `json:"unresolved_type,omitempty"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that every stored record still decodes",
		Long: `Decode the arguments and result of every stored record under the
current process's type registrations.

Text payloads always decode; binary payloads surface unresolved type
references and corrupt frames. Use this after renaming or deleting
types to find records that need re-recording.

Exit codes:
  0 - All records decode
  1 - One or more records are broken
  2 - Command error`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Keyword, "keyword", "k", "", "filter records by module or function name")

	return cmd
}

func runVerify(opts *VerifyOptions, cmd *cobra.Command) error {
	st, _, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	records, failures, err := loadRecords(st)
	if err != nil {
		return WrapExitError(ExitCommandError, "load records", err)
	}
	records = filterRecords(records, opts.Keyword)

	report := VerifyReport{Total: len(records) + len(failures)}
	asm := record.NewAssembler(codec.NewResolutionContext())

	for _, r := range records {
		health := checkRecord(asm, r)
		report.Records = append(report.Records, health)
		if health.OK {
			report.Healthy++
		} else {
			report.Broken++
		}
	}
	for _, f := range failures {
		report.Records = append(report.Records, RecordHealth{
			Subject: f.Key,
			OK:      false,
			Error:   f.Message,
		})
		report.Broken++
	}

	if opts.Format == "json" {
		f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		if err := f.JSON(report); err != nil {
			return err
		}
	} else {
		printVerifyText(cmd, report)
	}

	if report.Broken > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d record(s) broken", report.Broken, report.Total))
	}
	return nil
}

func checkRecord(asm *record.Assembler, r record.Record) RecordHealth {
	health := RecordHealth{Subject: r.Subject().String(), RecordID: r.RecordID, OK: true}

	for _, decode := range []func() error{
		func() error { _, err := asm.DecodeArgs(r); return err },
		func() error { _, err := asm.DecodeKwargs(r); return err },
		func() error { _, err := asm.DecodeResult(r); return err },
	} {
		if err := decode(); err != nil {
			health.OK = false
			health.Error = err.Error()
			health.UnresolvedType = codec.UnresolvedTypeName(err)
			return health
		}
	}
	return health
}

func printVerifyText(cmd *cobra.Command, report VerifyReport) {
	out := cmd.OutOrStdout()

	if report.Total == 0 {
		fmt.Fprintln(out, "No test records found.")
		return
	}

	fmt.Fprintf(out, "Verifying %d test record(s)...\n\n", report.Total)

	for _, h := range report.Records {
		status := "OK"
		if !h.OK {
			status = "BROKEN"
		}
		if h.RecordID != "" {
			fmt.Fprintf(out, "  %s [%s]  %s\n", h.Subject, h.RecordID[:8], status)
		} else {
			fmt.Fprintf(out, "  %s  %s\n", h.Subject, status)
		}
		if h.Error != "" {
			fmt.Fprintf(out, "    %s\n", h.Error)
		}
		if h.UnresolvedType != "" {
			fmt.Fprintf(out, "    hint: register type %q (or an alias) before decoding\n", h.UnresolvedType)
		}
	}

	fmt.Fprintf(out, "\nTotal: %d | Healthy: %d | Broken: %d\n", report.Total, report.Healthy, report.Broken)
}
