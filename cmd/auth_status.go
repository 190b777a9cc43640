package cmd

import (
	"campus/internal/auth"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

// authStatusCmd represents the auth status command
var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status",
	Long: `Show the current authentication status.

This command displays whether you are signed in, the identity the
session belongs to, and when the access token expires. An expired access
token with a stored refresh token still counts as signed in: the next
command refreshes it transparently.

Examples:
  campus auth status                   # Show session status`,
	RunE: runAuthStatus,
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	sess, err := ensureSession()
	if err != nil {
		return err
	}

	status := sess.manager.Status()

	switch status.State {
	case auth.StateSignedIn:
		authPrint("  Status:    %s\n", text.FgGreen.Sprint("Signed in"))
		if status.Email != "" {
			authPrint("  Identity:  %s\n", status.Email)
		}
		if !status.ExpiresAt.IsZero() {
			authPrint("  Expires:   %s\n", formatExpiryWithDirection(status.ExpiresAt))
		}
		if status.HasRefreshToken {
			authPrintln("             Renews automatically.")
		}
	default:
		authPrint("  Status:    %s\n", text.FgYellow.Sprint("Not signed in"))
		authPrintln("")
		authPrintln("To sign in, run:")
		authPrintln("  campus auth login")
	}

	return nil
}
