// Command whilec compiles typed While programs into stack-machine code,
// and runs them on the bundled VM or the reference interpreter.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/strager/whilejvm/config"
	"github.com/strager/whilejvm/logging"
)

func main() {
	cmd := newWhilecCmd()
	if err := cmd.Execute(); err != nil {
		reportError(cmd.ErrOrStderr(), err)
		logging.Flush()
		os.Exit(1)
	}
}

// newWhilecCmd creates the root command.
func newWhilecCmd() *cobra.Command {
	var logToStderr bool
	var verbose int
	var configPath string
	cmd := &cobra.Command{
		Use:           "whilec",
		Short:         "whilec compiles typed While programs to JVM-style stack code",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.InitLogging(logToStderr, verbose)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logging.Flush()
		},
	}

	cmd.PersistentFlags().BoolVar(&logToStderr, "logtostderr", false, "Log to stderr instead of to files")
	cmd.PersistentFlags().IntVarP(
		&verbose, "verbose", "v", 0, "Enable verbose logging (e.g., v=3); anything >3 is very verbose")
	cmd.PersistentFlags().StringVar(
		&configPath, "config", config.FileName, "Settings file; a missing default file is ignored")

	cmd.AddCommand(newBuildCmd(&configPath))
	cmd.AddCommand(newCheckCmd(&configPath))
	cmd.AddCommand(newRunCmd(&configPath))
	cmd.AddCommand(newInterpCmd(&configPath))

	return cmd
}
