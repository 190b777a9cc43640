package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	authConfigPath string
	authQuiet      bool
)

// authCmd represents the auth command group
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage authentication for campus",
	Long: `Manage authentication for campus CLI commands.

The auth command group provides subcommands to login, logout, and check
the status of your session with the identity provider.

Examples:
  campus auth login                    # Sign in via your browser
  campus auth status                   # Show session status
  campus auth logout                   # Sign out and clear credentials`,
}

// authPrint prints output only if the --quiet flag is not set.
// Use this for progress messages and non-essential output.
func authPrint(format string, args ...interface{}) {
	if !authQuiet {
		fmt.Printf(format, args...)
	}
}

// authPrintln prints a line only if the --quiet flag is not set.
// Use this for progress messages and non-essential output.
func authPrintln(a ...interface{}) {
	if !authQuiet {
		fmt.Println(a...)
	}
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)

	// Common flags for auth commands (shared across subcommands)
	authCmd.PersistentFlags().StringVar(&authConfigPath, "config", "", "Configuration file (default is $HOME/.config/campus/config.yaml)")
	authCmd.PersistentFlags().BoolVarP(&authQuiet, "quiet", "q", false, "Suppress non-essential output")
}
