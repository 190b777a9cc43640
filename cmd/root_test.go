package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"campus/internal/api"
	"campus/internal/auth"

	"github.com/spf13/cobra"
)

func TestSetVersion(t *testing.T) {
	testVersion := "1.2.3-test"
	SetVersion(testVersion)

	if rootCmd.Version != testVersion {
		t.Errorf("Expected version to be %s, got %s", testVersion, rootCmd.Version)
	}

	if GetVersion() != testVersion {
		t.Errorf("Expected GetVersion to return %s, got %s", testVersion, GetVersion())
	}
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "campus" {
		t.Errorf("Expected Use to be 'campus', got %s", rootCmd.Use)
	}

	if rootCmd.Short == "" {
		t.Error("Expected Short description to be set")
	}

	if rootCmd.Long == "" {
		t.Error("Expected Long description to be set")
	}

	if !rootCmd.SilenceUsage {
		t.Error("Expected SilenceUsage to be true")
	}
}

func TestVersionTemplate(t *testing.T) {
	testCmd := &cobra.Command{
		Use:     "test",
		Version: "1.0.0",
	}

	testCmd.SetVersionTemplate(`{{printf "campus version %s\n" .Version}}`)

	var buf bytes.Buffer
	testCmd.SetOut(&buf)

	testCmd.SetArgs([]string{"--version"})
	if err := testCmd.Execute(); err != nil {
		t.Fatalf("Error executing version command: %v", err)
	}

	if !strings.Contains(buf.String(), "campus version 1.0.0") {
		t.Errorf("Expected version output, got %q", buf.String())
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "generic error",
			err:  errors.New("something broke"),
			want: ExitCodeError,
		},
		{
			name: "unauthenticated",
			err:  fmt.Errorf("listing courses: %w", api.ErrUnauthenticated),
			want: ExitCodeAuthRequired,
		},
		{
			name: "authorization denied",
			err:  &auth.AuthorizationDeniedError{Code: "access_denied"},
			want: ExitCodeAuthFailed,
		},
		{
			name: "state mismatch",
			err:  auth.ErrStateMismatch,
			want: ExitCodeAuthFailed,
		},
		{
			name: "invalid callback",
			err:  auth.ErrInvalidCallback,
			want: ExitCodeAuthFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getExitCode(tt.err); got != tt.want {
				t.Errorf("getExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
