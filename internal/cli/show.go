package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/regrest/internal/codec"
)

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <record-id>",
		Short: "Show one record in full",
		Long: `Show the complete stored form of a record, identified by its
fingerprint or an unambiguous prefix of at least 4 characters.`,
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runShow(opts *RootOptions, id string, cmd *cobra.Command) error {
	st, _, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	records, _, err := loadRecords(st)
	if err != nil {
		return WrapExitError(ExitCommandError, "load records", err)
	}

	rec, okFound := findByID(records, id)
	if !okFound {
		return NewExitError(ExitCommandError, fmt.Sprintf("record %q not found", id))
	}

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if opts.Format == "json" {
		return f.JSON(rec)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Subject:   %s\n", rec.Subject())
	fmt.Fprintf(out, "Record ID: %s\n", rec.RecordID)
	fmt.Fprintf(out, "Recorded:  %s\n", rec.Timestamp.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(out, "Args:      %s\n", formatEncodedFull(rec.Args))
	fmt.Fprintf(out, "Kwargs:    %s\n", formatEncodedFull(rec.Kwargs))
	fmt.Fprintf(out, "Result:    %s\n", formatEncodedFull(rec.Result))
	return nil
}

// formatEncodedFull is formatEncoded without truncation.
func formatEncodedFull(ev codec.EncodedValue) string {
	if ev.Kind == codec.KindBinary {
		return fmt.Sprintf("<binary %d bytes>", len(ev.Binary))
	}
	s, err := codec.EncodedDisplay(ev)
	if err != nil {
		return "<unrenderable>"
	}
	return s
}
