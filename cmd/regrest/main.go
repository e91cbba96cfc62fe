// Command regrest manages recorded function snapshots: listing, inspecting,
// verifying, validating, and serving them for browser inspection.
package main

import (
	"os"

	"github.com/roach88/regrest/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
