package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/regrest/internal/server"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Host string
	Port int
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start a web server to visualize test records",
		Long: `Start an HTTP server exposing stored records in a browser UI.

Examples:
  regrest serve                 # Serve on localhost:8000
  regrest serve --port 8080     # Custom port
  regrest serve --host 0.0.0.0  # Allow external connections`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Host, "host", "localhost", "host to bind to")
	cmd.Flags().IntVar(&opts.Port, "port", 8000, "port to bind to")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	st, _, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
	srv := server.New(st)

	fmt.Fprintf(cmd.OutOrStdout(), "Serving records on http://%s\n", addr)
	if err := srv.ListenAndServe(addr); err != nil {
		return WrapExitError(ExitCommandError, "serve", err)
	}
	return nil
}
