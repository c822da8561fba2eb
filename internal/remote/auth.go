package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/Tiliavir/pronto/internal/config"
)

// ErrNotConfigured is returned when sync settings are missing from the config file.
var ErrNotConfigured = errors.New("sync is not configured")

// TokenPath returns the location of the saved token inside a data directory.
func TokenPath(dataDir string) string {
	return filepath.Join(dataDir, "auth", "token.json")
}

// TokenStore persists the OAuth2 token as JSON.
type TokenStore struct {
	path string
}

// NewTokenStore returns a TokenStore writing to path.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Load returns the saved token, or nil if none was saved.
func (s *TokenStore) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("corrupt token file (delete %s to re-authenticate): %w", s.path, err)
	}
	return &tok, nil
}

// Save writes tok atomically with owner-only permissions.
func (s *TokenStore) Save(tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating auth directory: %w", err)
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling token: %w", err)
	}
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("saving token file: %w", err)
	}
	return nil
}

// OAuthConfig builds the device-flow configuration from the sync settings.
func OAuthConfig(sc config.SyncConfig) (*oauth2.Config, error) {
	if sc.ClientID == "" || sc.DeviceAuthURL == "" || sc.TokenURL == "" {
		return nil, fmt.Errorf("%w: client_id, device_auth_url and token_url are required", ErrNotConfigured)
	}
	return &oauth2.Config{
		ClientID: sc.ClientID,
		Scopes:   sc.Scopes,
		Endpoint: oauth2.Endpoint{
			DeviceAuthURL: sc.DeviceAuthURL,
			TokenURL:      sc.TokenURL,
			AuthStyle:     oauth2.AuthStyleInParams,
		},
	}, nil
}

// Authenticate returns a usable token. It reuses the saved token, refreshes
// it when expired, and otherwise runs the device code flow, printing the
// verification instructions to prompt.
func Authenticate(ctx context.Context, cfg *oauth2.Config, tokens *TokenStore, prompt io.Writer, log *zap.SugaredLogger) (*oauth2.Token, error) {
	tok, err := tokens.Load()
	if err != nil {
		log.Warnw("ignoring saved token", "error", err)
		tok = nil
	}

	if tok != nil && tok.Valid() {
		return tok, nil
	}

	if tok != nil && tok.RefreshToken != "" {
		refreshed, err := cfg.TokenSource(ctx, tok).Token()
		if err == nil {
			if err := tokens.Save(refreshed); err != nil {
				log.Warnw("could not save refreshed token", "error", err)
			}
			return refreshed, nil
		}
		log.Infow("token refresh failed, re-authenticating", "error", err)
	}

	return DeviceLogin(ctx, cfg, tokens, prompt, log)
}

// DeviceLogin always runs the device code flow and saves the resulting token.
func DeviceLogin(ctx context.Context, cfg *oauth2.Config, tokens *TokenStore, prompt io.Writer, log *zap.SugaredLogger) (*oauth2.Token, error) {
	resp, err := cfg.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("device auth request failed: %w", err)
	}

	fmt.Fprintln(prompt)
	fmt.Fprintln(prompt, "To sign in, use a web browser to open the page:")
	fmt.Fprintf(prompt, "  %s\n", resp.VerificationURI)
	fmt.Fprintf(prompt, "Enter the code: %s\n", resp.UserCode)
	fmt.Fprintln(prompt)

	tok, err := cfg.DeviceAccessToken(ctx, resp)
	if err != nil {
		return nil, fmt.Errorf("device authentication failed: %w", err)
	}
	if err := tokens.Save(tok); err != nil {
		log.Warnw("could not save token", "error", err)
	}
	return tok, nil
}

// savingTokenSource persists every token it hands out, so refreshes made
// during a sync survive the process.
type savingTokenSource struct {
	ts     oauth2.TokenSource
	tokens *TokenStore
	log    *zap.SugaredLogger
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.ts.Token()
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Save(tok); err != nil {
		s.log.Debugw("could not save token", "error", err)
	}
	return tok, nil
}
