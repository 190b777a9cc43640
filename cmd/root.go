package cmd

import (
	"errors"
	"fmt"
	"os"

	"campus/internal/api"
	"campus/internal/auth"
	"campus/pkg/logging"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands. These follow common conventions so the
// CLI composes well with scripts.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeAuthRequired indicates authentication is required but not available.
	ExitCodeAuthRequired = 2
	// ExitCodeAuthFailed indicates the OAuth flow failed.
	ExitCodeAuthFailed = 3
)

var rootLogLevel string

// rootCmd represents the base command for the campus application.
var rootCmd = &cobra.Command{
	Use:   "campus",
	Short: "Access your courses from the command line",
	Long: `campus is a command line client for the course-management service.

It signs you in via your identity provider, keeps the session fresh in
the background, and gives you access to your courses, lessons, and
points from the terminal.`,
	// SilenceUsage prevents Cobra from printing the usage message on
	// errors that are handled by the application.
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logging.ParseLevel(rootLogLevel)
		if err != nil {
			return err
		}
		logging.InitForCLI(level, os.Stderr)
		return nil
	},
}

// SetVersion sets the version for the root command. Called from the
// main package to inject the build version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application. It is called
// by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "campus version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the exit code based on the error type. This
// provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	if errors.Is(err, api.ErrUnauthenticated) {
		return ExitCodeAuthRequired
	}

	var denied *auth.AuthorizationDeniedError
	if errors.As(err, &denied) {
		return ExitCodeAuthFailed
	}

	if errors.Is(err, auth.ErrStateMismatch) || errors.Is(err, auth.ErrInvalidCallback) {
		return ExitCodeAuthFailed
	}

	return ExitCodeError
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newVersionCmd())
}
