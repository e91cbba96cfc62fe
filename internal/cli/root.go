// Package cli implements the regrest command-line surface: listing,
// showing, deleting, verifying, validating, and serving stored records.
// The engine packages stay free of flag and environment handling; this
// layer assembles an explicit config and threads it down.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/regrest/internal/config"
	"github.com/roach88/regrest/internal/harness"
	"github.com/roach88/regrest/internal/logger"
	"github.com/roach88/regrest/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	StorageDir string
	Backend    string
	Format     string // "json" | "text"
	Verbose    bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the regrest CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "regrest",
		Short: "Snapshot regression testing for function outputs",
		Long: `regrest records a function's inputs and output on first run and
verifies recomputed outputs against the stored record on later runs.
This CLI inspects and manages the stored records.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if !opts.Verbose {
				opts.Verbose = config.IsTruthy(os.Getenv("REGREST_VERBOSE"))
			}
			logger.SetVerbose(opts.Verbose)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.StorageDir, "storage-dir", "", "record store location (default .regrest)")
	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", "", "store backend: file or sqlite (default file)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// loadConfig assembles the effective configuration: defaults, then
// REGREST_* env overrides, then command-line flags.
func (opts *RootOptions) loadConfig() (config.Config, error) {
	cfg, err := config.FromEnv(config.Default())
	if err != nil {
		return cfg, NewExitError(ExitCommandError, err.Error())
	}
	if opts.StorageDir != "" {
		cfg.StorageDir = opts.StorageDir
	}
	if opts.Backend != "" {
		cfg.Backend = config.Backend(opts.Backend)
	}
	return cfg, nil
}

// openStore opens the configured record store.
func (opts *RootOptions) openStore() (store.Store, config.Config, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, cfg, err
	}

	st, err := harness.OpenStore(cfg)
	if err != nil {
		return nil, cfg, WrapExitError(ExitCommandError, "open record store", err)
	}
	return st, cfg, nil
}
