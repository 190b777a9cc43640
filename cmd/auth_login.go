package cmd

import (
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
)

// authLoginCmd represents the auth login command
var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in via your identity provider",
	Long: `Sign in to the course service via your identity provider.

This command opens your browser at the provider's sign-in page and waits
for you to complete the flow. The resulting session is stored in the
system credential store and refreshed automatically by later commands.

Examples:
  campus auth login                    # Sign in with the configured provider
  campus auth login --quiet            # Sign in without progress output`,
	RunE: runAuthLogin,
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	sess, err := ensureSession()
	if err != nil {
		return err
	}

	var s *spinner.Spinner
	if !authQuiet {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.Suffix = " Waiting for sign-in to complete in your browser..."
		s.Start()
	}

	err = sess.manager.Authorize(ctx)

	if s != nil {
		s.Stop()
	}

	if err != nil {
		return err
	}

	status := sess.manager.Status()
	authPrintln("Signed in.")
	if status.Email != "" {
		authPrint("  Identity:  %s\n", status.Email)
	}
	if !status.ExpiresAt.IsZero() {
		authPrint("  Expires:   %s\n", formatExpiryWithDirection(status.ExpiresAt))
	}

	return nil
}
