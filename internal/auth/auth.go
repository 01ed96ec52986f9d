// Package auth handles OAuth2 authentication and token persistence for the
// single Gmail account the engine operates against. It reads OAuth client
// credentials from a Google Cloud Console credentials.json file and stores
// the resulting token under the process's config directory.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// defaultAccount names the single account the engine manages. It is not
// written to token.json, which holds only the account email and token.
// The engine is single-account; multi-account management is out of
// scope.
const defaultAccount = "default"

// tokenFile holds the persisted OAuth2 token. OAuth client credentials are
// read directly from the Google credentials.json file, not stored here.
type tokenFile struct {
	Email string        `json:"email,omitempty"`
	Token *oauth2.Token `json:"token"`
}

// Manager loads/saves the account token and reads OAuth client credentials
// from the Google Cloud Console credentials.json file.
type Manager struct {
	mu              sync.RWMutex
	configDir       string
	credentialsFile string
	token           *tokenFile
}

// NewManager creates a new auth manager.
//
// configDir defaults to $XDG_CONFIG_HOME/google-mcp (or ~/.config/google-mcp).
// credentialsFile defaults to <configDir>/credentials.json.
func NewManager(configDir, credentialsFile string) (*Manager, error) {
	if configDir == "" {
		xdg := os.Getenv("XDG_CONFIG_HOME")
		if xdg == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("could not determine home directory: %w", err)
			}
			xdg = filepath.Join(home, ".config")
		}
		configDir = filepath.Join(xdg, "google-mcp")
	}

	if credentialsFile == "" {
		credentialsFile = filepath.Join(configDir, "credentials.json")
	}

	m := &Manager{
		configDir:       configDir,
		credentialsFile: credentialsFile,
	}
	if err := m.load(); err != nil {
		return nil, err
	}
	return m, nil
}

// ConfigDir returns the configuration directory path.
func (m *Manager) ConfigDir() string {
	return m.configDir
}

// CredentialsFile returns the path to the Google credentials.json file.
func (m *Manager) CredentialsFile() string {
	return m.credentialsFile
}

func (m *Manager) tokenPath() string {
	return filepath.Join(m.configDir, "token.json")
}

func (m *Manager) load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.tokenPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading token: %w", err)
	}

	var tf tokenFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return fmt.Errorf("parsing token: %w", err)
	}
	m.token = &tf
	return nil
}

func (m *Manager) save() error {
	if err := os.MkdirAll(m.configDir, 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(m.token, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling token: %w", err)
	}
	if err := os.WriteFile(m.tokenPath(), data, 0o600); err != nil {
		return fmt.Errorf("writing token: %w", err)
	}
	return nil
}

// oauthConfig reads the credentials.json file and builds an oauth2.Config
// with the given scopes.
func (m *Manager) oauthConfig(scopes []string) (*oauth2.Config, error) {
	data, err := os.ReadFile(m.credentialsFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("credentials file not found at %s\n\nDownload it from https://console.cloud.google.com/apis/credentials and place it there, or use --credentials to specify a different path", m.credentialsFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading credentials file: %w", err)
	}

	cfg, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("parsing credentials file: %w", err)
	}
	return cfg, nil
}

// IsAuthenticated reports whether a token has been persisted.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token != nil
}

// Authenticate runs the OAuth2 authorization code flow. It opens a browser
// for consent, runs a local callback server, and persists the resulting
// token.
func (m *Manager) Authenticate(ctx context.Context, scopes []string) error {
	cfg, err := m.oauthConfig(scopes)
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("starting local listener: %w", err)
	}
	defer listener.Close()

	port := listener.Addr().(*net.TCPAddr).Port
	cfg.RedirectURL = fmt.Sprintf("http://localhost:%d/callback", port)

	type authResult struct {
		code string
		err  error
	}
	resultCh := make(chan authResult, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		if errMsg := r.URL.Query().Get("error"); errMsg != "" {
			resultCh <- authResult{err: fmt.Errorf("oauth error: %s", errMsg)}
			fmt.Fprintf(w, "Authorization failed: %s. You can close this tab.", errMsg)
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			resultCh <- authResult{err: fmt.Errorf("no authorization code received")}
			fmt.Fprint(w, "No authorization code received. You can close this tab.")
			return
		}
		resultCh <- authResult{code: code}
		fmt.Fprint(w, "Authorization successful! You can close this tab.")
	})

	server := &http.Server{Handler: mux}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			resultCh <- authResult{err: fmt.Errorf("callback server error: %w", err)}
		}
	}()
	defer server.Shutdown(ctx)

	authURL := cfg.AuthCodeURL("state", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Printf("\nOpen this URL in your browser to authorize access:\n\n%s\n\nWaiting for authorization...\n", authURL)

	select {
	case result := <-resultCh:
		if result.err != nil {
			return result.err
		}
		token, err := cfg.Exchange(ctx, result.code)
		if err != nil {
			return fmt.Errorf("exchanging auth code for token: %w", err)
		}
		m.mu.Lock()
		m.token = &tokenFile{Token: token}
		err = m.save()
		m.mu.Unlock()
		if err != nil {
			return err
		}
		fmt.Println("Authenticated successfully.")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TokenSource returns an oauth2.TokenSource for the persisted account. The
// token source automatically refreshes expired tokens and persists the
// updated token back to token.json.
func (m *Manager) TokenSource(ctx context.Context, scopes []string) (oauth2.TokenSource, error) {
	m.mu.RLock()
	tf := m.token
	m.mu.RUnlock()
	if tf == nil {
		return nil, fmt.Errorf("not authenticated; run 'google-mcp auth login' first")
	}

	cfg, err := m.oauthConfig(scopes)
	if err != nil {
		return nil, err
	}

	ts := cfg.TokenSource(ctx, tf.Token)
	return &persistingTokenSource{
		base:    ts,
		manager: m,
		orig:    tf.Token,
	}, nil
}

// ClientOption returns a google API option.ClientOption for the persisted
// account.
func (m *Manager) ClientOption(ctx context.Context, scopes []string) (option.ClientOption, error) {
	ts, err := m.TokenSource(ctx, scopes)
	if err != nil {
		return nil, err
	}
	return option.WithTokenSource(ts), nil
}

// persistingTokenSource wraps a token source and saves refreshed tokens.
type persistingTokenSource struct {
	mu      sync.Mutex
	base    oauth2.TokenSource
	manager *Manager
	orig    *oauth2.Token
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	if token.AccessToken != s.orig.AccessToken {
		s.orig = token
		s.manager.mu.Lock()
		if s.manager.token != nil {
			s.manager.token.Token = token
			_ = s.manager.save()
		}
		s.manager.mu.Unlock()
	}
	return token, nil
}
