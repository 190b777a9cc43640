package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"campus/internal/auth"
	"campus/internal/config"
	"campus/internal/credstore"
	"campus/pkg/oauth"

	"github.com/jedib0t/go-pretty/v6/text"
)

// session bundles the collaborators every authenticated command needs.
type session struct {
	cfg     config.Config
	client  *oauth.Client
	manager *auth.Manager
}

// ensureSession wires the credential store, protocol client, interactive
// flow and session manager from the loaded configuration. This is the
// composition root of the CLI: exactly one manager per invocation.
func ensureSession() (*session, error) {
	cfg, err := config.Load(authConfigPath)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(cfg)
	if err != nil {
		return nil, err
	}

	client := oauth.NewClient(cfg.Auth.ClientID)

	flow := auth.NewFlow(auth.FlowConfig{
		Client:       client,
		CallbackPort: cfg.Auth.CallbackPort,
		OnAuthURL: func(url string) {
			authPrintln("Opening your browser to sign in. If it does not open, visit:")
			authPrintln("  " + url)
		},
	})

	manager := auth.NewManager(auth.ManagerConfig{
		Exchanger: client,
		Flow:      flow,
		Store:     store,
		Endpoints: buildEndpointsSource(cfg, client),
	})

	return &session{cfg: cfg, client: client, manager: manager}, nil
}

// buildStore selects the credential backend from the configuration.
func buildStore(cfg config.Config) (credstore.Store, error) {
	switch cfg.Auth.Storage {
	case config.StorageFile:
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		return credstore.NewFile(filepath.Join(homeDir, credstore.DefaultFileStorageDir))
	case config.StorageKeyring, "":
		return credstore.NewKeyring(credstore.DefaultKeyringService), nil
	default:
		return nil, fmt.Errorf("unknown credential storage %q", cfg.Auth.Storage)
	}
}

// buildEndpointsSource uses pinned endpoints when the configuration
// provides them, otherwise discovery against the configured issuer.
func buildEndpointsSource(cfg config.Config, client *oauth.Client) auth.EndpointsSource {
	if cfg.Endpoints != nil {
		return auth.StaticEndpoints(&oauth.Endpoints{
			Issuer:        cfg.Auth.Issuer,
			Authorization: cfg.Endpoints.Authorization,
			Token:         cfg.Endpoints.Token,
			Userinfo:      cfg.Endpoints.Userinfo,
			EndSession:    cfg.Endpoints.EndSession,
		})
	}
	return auth.DiscoveredEndpoints(client, cfg.Auth.Issuer)
}

// formatDuration formats a duration in human-readable form.
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "expired"
	}
	if d < time.Minute {
		return "< 1 minute"
	}
	if d < time.Hour {
		minutes := int(d.Minutes())
		if minutes == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	days := int(d.Hours() / 24)
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}

// formatExpiryWithDirection formats a time as "in X" or "expired X ago".
func formatExpiryWithDirection(expiresAt time.Time) string {
	remaining := time.Until(expiresAt)
	if remaining > 0 {
		return "in " + formatDuration(remaining)
	}
	expiredAgo := -remaining
	return text.FgYellow.Sprintf("expired %s ago", formatDuration(expiredAgo))
}
