package auth

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/oauth2"
)

// newTestManager creates a Manager with a temp config dir and a dummy
// credentials.json for the code paths that read the OAuth client config;
// NewManager itself reads only token.json.
func newTestManager(t *testing.T) *Manager {
	t.Helper()

	dir := t.TempDir()

	creds := `{
		"installed": {
			"client_id": "test-id.apps.googleusercontent.com",
			"client_secret": "test-secret",
			"auth_uri": "https://accounts.google.com/o/oauth2/auth",
			"token_uri": "https://oauth2.googleapis.com/token",
			"redirect_uris": ["http://localhost"]
		}
	}`
	if err := os.WriteFile(filepath.Join(dir, "credentials.json"), []byte(creds), 0o600); err != nil {
		t.Fatal(err)
	}

	mgr, err := NewManager(dir, "")
	if err != nil {
		t.Fatal(err)
	}
	return mgr
}

func TestNewManager_DefaultPaths(t *testing.T) {
	dir := t.TempDir()
	credsPath := filepath.Join(dir, "credentials.json")
	if err := os.WriteFile(credsPath, []byte(`{"installed":{"client_id":"x","client_secret":"y","auth_uri":"https://a","token_uri":"https://t","redirect_uris":["http://localhost"]}}`), 0o600); err != nil {
		t.Fatal(err)
	}

	mgr, err := NewManager(dir, "")
	if err != nil {
		t.Fatal(err)
	}

	if mgr.ConfigDir() != dir {
		t.Errorf("ConfigDir() = %q, want %q", mgr.ConfigDir(), dir)
	}
	if mgr.CredentialsFile() != credsPath {
		t.Errorf("CredentialsFile() = %q, want %q", mgr.CredentialsFile(), credsPath)
	}
}

func TestNewManager_CustomCredentialsPath(t *testing.T) {
	dir := t.TempDir()
	customCreds := filepath.Join(dir, "my-creds.json")
	if err := os.WriteFile(customCreds, []byte(`{"installed":{"client_id":"x","client_secret":"y","auth_uri":"https://a","token_uri":"https://t","redirect_uris":["http://localhost"]}}`), 0o600); err != nil {
		t.Fatal(err)
	}

	mgr, err := NewManager(dir, customCreds)
	if err != nil {
		t.Fatal(err)
	}
	if mgr.CredentialsFile() != customCreds {
		t.Errorf("CredentialsFile() = %q, want %q", mgr.CredentialsFile(), customCreds)
	}
}

func TestNewManager_NoTokenFile(t *testing.T) {
	mgr := newTestManager(t)
	if mgr.IsAuthenticated() {
		t.Error("IsAuthenticated() = true, want false with no token.json")
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	mgr := newTestManager(t)

	mgr.token = &tokenFile{
		Email: "test@example.com",
		Token: &oauth2.Token{
			AccessToken:  "access-123",
			RefreshToken: "refresh-456",
			TokenType:    "Bearer",
		},
	}
	if err := mgr.save(); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(mgr.tokenPath()); err != nil {
		t.Fatalf("token.json not created: %v", err)
	}

	mgr2, err := NewManager(mgr.configDir, "")
	if err != nil {
		t.Fatal(err)
	}
	if !mgr2.IsAuthenticated() {
		t.Fatal("IsAuthenticated() = false after round trip, want true")
	}

	mgr2.mu.RLock()
	tok := mgr2.token
	mgr2.mu.RUnlock()
	if tok.Token.AccessToken != "access-123" {
		t.Errorf("AccessToken = %q, want \"access-123\"", tok.Token.AccessToken)
	}
	if tok.Token.RefreshToken != "refresh-456" {
		t.Errorf("RefreshToken = %q, want \"refresh-456\"", tok.Token.RefreshToken)
	}
	if tok.Email != "test@example.com" {
		t.Errorf("Email = %q, want \"test@example.com\"", tok.Email)
	}
}

func TestOAuthConfig(t *testing.T) {
	mgr := newTestManager(t)

	cfg, err := mgr.oauthConfig([]string{"https://www.googleapis.com/auth/gmail.readonly"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ClientID != "test-id.apps.googleusercontent.com" {
		t.Errorf("ClientID = %q, want \"test-id.apps.googleusercontent.com\"", cfg.ClientID)
	}
	if cfg.ClientSecret != "test-secret" {
		t.Errorf("ClientSecret = %q, want \"test-secret\"", cfg.ClientSecret)
	}
	if len(cfg.Scopes) != 1 || cfg.Scopes[0] != "https://www.googleapis.com/auth/gmail.readonly" {
		t.Errorf("Scopes = %v, want [\"https://www.googleapis.com/auth/gmail.readonly\"]", cfg.Scopes)
	}
}

func TestOAuthConfig_MissingCredentials(t *testing.T) {
	dir := t.TempDir()
	mgr := &Manager{
		configDir:       dir,
		credentialsFile: filepath.Join(dir, "credentials.json"),
	}

	_, err := mgr.oauthConfig([]string{"scope"})
	if err == nil {
		t.Error("oauthConfig with missing credentials returned nil error")
	}
}

func TestTokenSource_NotAuthenticated(t *testing.T) {
	mgr := newTestManager(t)
	_, err := mgr.TokenSource(context.Background(), []string{"scope"})
	if err == nil {
		t.Error("TokenSource() with no stored token returned nil error")
	}
}

func TestTokenFilePermissions(t *testing.T) {
	mgr := newTestManager(t)
	mgr.token = &tokenFile{Token: &oauth2.Token{AccessToken: "x"}}
	if err := mgr.save(); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(mgr.tokenPath())
	if err != nil {
		t.Fatal(err)
	}
	perm := info.Mode().Perm()
	if perm != 0o600 {
		t.Errorf("token.json permissions = %o, want 600", perm)
	}
}
