package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

const rootLong = `pgwait blocks until a PostgreSQL server accepts connections.

It connects, pings and runs SELECT 1 once per attempt, sleeping between
failed attempts. Only failures classified as retryable are retried; anything
else (bad credentials, a missing database) stops at once.

Running pgwait without a subcommand is the same as running pgwait wait.

Exit Codes:
  0  - Database available
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or parameters
  11 - Database still unavailable when polling stopped
  15 - Overall timeout reached or interrupted
  16 - Authentication failed
  17 - Database does not exist`

// newRootCmd builds the command tree with fresh flag state.
func newRootCmd() *cobra.Command {
	rootOpts := &waitOptions{}

	rootCmd := &cobra.Command{
		Use:          "pgwait",
		Short:        "Wait for a PostgreSQL database to become available",
		Long:         rootLong,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWait(cmd, rootOpts)
		},
	}

	rootCmd.PersistentFlags().Bool("help", false, "Help for pgwait")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose diagnostics on stderr")
	addWaitFlags(rootCmd, rootOpts)

	rootCmd.AddCommand(newWaitCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo(os.Stdout, os.Stderr)
		return nil
	}
	return newRootCmd().Execute()
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(errWriter(cmd), "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}

func errWriter(cmd *cobra.Command) io.Writer {
	return cmd.ErrOrStderr()
}
