package cmd

import (
	"github.com/spf13/cobra"
)

// authLogoutCmd represents the auth logout command
var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear stored credentials",
	Long: `Sign out from the course service.

This command ends the session at the identity provider when possible and
always clears the credentials from local storage. Local credentials are
removed even when the provider cannot be reached.

Examples:
  campus auth logout                   # Sign out`,
	RunE: runAuthLogout,
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	sess, err := ensureSession()
	if err != nil {
		return err
	}

	if err := sess.manager.Logout(cmd.Context()); err != nil {
		return err
	}

	authPrintln("Signed out.")
	return nil
}
