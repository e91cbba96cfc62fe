package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/regrest/internal/store"
)

// DeleteOptions holds flags for the delete command.
type DeleteOptions struct {
	*RootOptions
	All     bool
	Pattern string
	Yes     bool
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeleteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "delete [record-id]",
		Short: "Delete test records",
		Long: `Delete stored test records by id, by module/function substring, or all.

Examples:
  regrest delete ab12cd34ef567890      # Delete one record
  regrest delete --pattern calculate   # Delete records matching a substring
  regrest delete --all -y              # Delete everything, no confirmation`,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			return runDelete(opts, id, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.All, "all", false, "delete all records")
	cmd.Flags().StringVar(&opts.Pattern, "pattern", "", "delete records whose subject matches a substring")
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "skip confirmation")

	return cmd
}

func runDelete(opts *DeleteOptions, id string, cmd *cobra.Command) error {
	st, _, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	out := cmd.OutOrStdout()

	switch {
	case opts.All:
		if !opts.Yes && !confirm(cmd, "Delete ALL test records?") {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
		count, err := deleteMatching(st, "")
		if err != nil {
			return WrapExitError(ExitCommandError, "delete records", err)
		}
		fmt.Fprintf(out, "Deleted %d record(s).\n", count)
		return nil

	case opts.Pattern != "":
		if !opts.Yes && !confirm(cmd, fmt.Sprintf("Delete all records matching %q?", opts.Pattern)) {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
		count, err := deleteMatching(st, opts.Pattern)
		if err != nil {
			return WrapExitError(ExitCommandError, "delete records", err)
		}
		fmt.Fprintf(out, "Deleted %d record(s).\n", count)
		return nil

	case id != "":
		records, _, err := loadRecords(st)
		if err != nil {
			return WrapExitError(ExitCommandError, "load records", err)
		}
		rec, okFound := findByID(records, id)
		if !okFound {
			return NewExitError(ExitCommandError, fmt.Sprintf("record %q not found", id))
		}
		if err := st.Delete(rec.Key()); err != nil {
			return WrapExitError(ExitCommandError, "delete record", err)
		}
		fmt.Fprintf(out, "Deleted record %q.\n", rec.RecordID)
		return nil

	default:
		return NewExitError(ExitCommandError, "specify --all, --pattern, or a record ID")
	}
}

// deleteMatching removes every record whose key contains pattern; an empty
// pattern removes everything.
func deleteMatching(st store.Store, pattern string) (int, error) {
	keys, err := st.List("")
	if err != nil {
		return 0, err
	}

	count := 0
	for _, key := range keys {
		if pattern != "" && !strings.Contains(key, pattern) {
			continue
		}
		if err := st.Delete(key); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", prompt)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
