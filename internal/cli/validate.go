package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/regrest/internal/schema"
)

// ValidationResult holds validation results for all record files.
type ValidationResult struct {
	Valid   bool              `json:"valid"`
	Checked int               `json:"checked"`
	Errors  []RecordViolation `json:"errors,omitempty"`
}

// RecordViolation is one schema violation in one record file.
type RecordViolation struct {
	Key     string `json:"key"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate stored record files against the record schema",
		Long: `Check every stored record file against the canonical record layout.

This catches hand-edited or truncated record files before the codec
trips over them. It does not attempt to decode binary payloads; use
'regrest verify' for that.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, cmd *cobra.Command) error {
	st, _, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	keys, err := st.List("")
	if err != nil {
		return WrapExitError(ExitCommandError, "list records", err)
	}

	result := ValidationResult{Valid: true, Checked: len(keys)}
	for _, key := range keys {
		data, found, err := st.Get(key)
		if err != nil || !found {
			continue
		}
		for _, v := range schema.Validate(data) {
			result.Valid = false
			result.Errors = append(result.Errors, RecordViolation{
				Key:     key,
				Field:   v.Field,
				Message: v.Message,
			})
		}
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		f := &OutputFormatter{Format: opts.Format, Writer: out}
		if err := f.JSON(result); err != nil {
			return err
		}
	} else if result.Valid {
		fmt.Fprintf(out, "All %d record(s) valid.\n", result.Checked)
	} else {
		for _, v := range result.Errors {
			if v.Field != "" {
				fmt.Fprintf(out, "%s: %s: %s\n", v.Key, v.Field, v.Message)
			} else {
				fmt.Fprintf(out, "%s: %s\n", v.Key, v.Message)
			}
		}
		fmt.Fprintf(out, "\n%d violation(s) in %d record(s) checked.\n", len(result.Errors), result.Checked)
	}

	if !result.Valid {
		return NewExitError(ExitFailure, "record validation failed")
	}
	return nil
}
