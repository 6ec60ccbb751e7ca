// Package cli implements the debuginfod-find command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/debugfoundry/debuginfod-go/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:   "debuginfod-find",
	Short: "Fetch debugging artifacts from debuginfod servers",
	Long: `debuginfod-find retrieves debug-info files, executables and source files
for a binary identified by its GNU build ID, querying the debuginfod servers
in DEBUGINFOD_URLS and caching results locally.

The target binary may be named three ways:
- a lowercase hex build-id string
- a path to an ELF file, whose .note.gnu.build-id section is read
- a running process via --pid

On success the cache path of the retrieved artifact is printed to stdout.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(newDebuginfoCmd())
	rootCmd.AddCommand(newExecutableCmd())
	rootCmd.AddCommand(newSourceCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("debuginfod-find %s\n", version.Version)
			cmd.Printf("Git commit: %s\n", version.GitCommit)
			cmd.Printf("Build date: %s\n", version.BuildDate)
			cmd.Printf("Go version: %s\n", version.GoVersion)
		},
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
