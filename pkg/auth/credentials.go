package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"igcollect/pkg/config"
)

// Credentials holds everything a collection run can authenticate with: the
// batch backend API token and the web-API session cookies. Either half may
// be empty; commands check for the half they need.
type Credentials struct {
	Label        string    `json:"label"`
	APIToken     string    `json:"api_token,omitempty"`
	SessionID    string    `json:"session_id,omitempty"`
	CSRFToken    string    `json:"csrf_token,omitempty"`
	DSUserID     string    `json:"ds_user_id,omitempty"`
	UserAgent    string    `json:"user_agent,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// HasAPIToken reports whether the batch backend half is usable
func (c *Credentials) HasAPIToken() bool {
	return c != nil && c.APIToken != ""
}

// HasSession reports whether the web-API half is usable
func (c *Credentials) HasSession() bool {
	return c != nil && c.SessionID != "" && c.CSRFToken != ""
}

// ApplyToConfig copies the session half into the configuration the web-API
// client reads
func (c *Credentials) ApplyToConfig(cfg *config.Config) {
	if c == nil {
		return
	}
	if c.SessionID != "" {
		cfg.Instagram.SessionID = c.SessionID
	}
	if c.CSRFToken != "" {
		cfg.Instagram.CSRFToken = c.CSRFToken
	}
	if c.DSUserID != "" {
		cfg.Instagram.DSUserID = c.DSUserID
	}
	if c.UserAgent != "" {
		cfg.Instagram.UserAgent = c.UserAgent
	}
}

// CredentialStore is the interface for storing and retrieving credentials
type CredentialStore interface {
	// Store saves credentials under their label
	Store(creds *Credentials) error

	// Retrieve gets credentials for a specific label
	Retrieve(label string) (*Credentials, error)

	// List returns all stored credential sets
	List() ([]*Credentials, error)

	// Delete removes credentials for a specific label
	Delete(label string) error

	// Exists checks if credentials exist for a label
	Exists(label string) bool
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a credential manager with the available storage
// backends: system keychain first, encrypted file as fallback, environment
// variables as last resort.
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	keyringStore, err := NewKeyringStore()
	if err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// Store saves credentials using the first available store
func (m *Manager) Store(creds *Credentials) error {
	if creds.Label == "" {
		creds.Label = "default"
	}
	if !creds.HasAPIToken() && !creds.HasSession() {
		return errors.New("need an API token or a session cookie pair")
	}

	creds.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(creds); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return errors.New("no available credential stores")
}

// Retrieve gets credentials from the first store that has them
func (m *Manager) Retrieve(label string) (*Credentials, error) {
	for _, store := range m.stores {
		if creds, err := store.Retrieve(label); err == nil && creds != nil {
			return creds, nil
		}
	}
	return nil, fmt.Errorf("credentials not found for label: %s", label)
}

// RetrieveDefault gets the default credentials, preferring environment
// variables so CI and one-off runs override the stored set
func (m *Manager) RetrieveDefault() (*Credentials, error) {
	if envStore, ok := m.stores[len(m.stores)-1].(*EnvironmentStore); ok {
		if creds, err := envStore.Retrieve(""); err == nil && creds != nil {
			return creds, nil
		}
	}

	if creds, err := m.Retrieve("default"); err == nil {
		return creds, nil
	}

	sets, err := m.List()
	if err == nil && len(sets) > 0 {
		return sets[0], nil
	}

	return nil, errors.New("no credentials found; run 'igcollect auth login'")
}

// List returns all stored credential sets from all stores
func (m *Manager) List() ([]*Credentials, error) {
	byLabel := make(map[string]*Credentials)

	for _, store := range m.stores {
		sets, err := store.List()
		if err != nil {
			continue
		}
		for _, creds := range sets {
			if existing, ok := byLabel[creds.Label]; !ok || creds.LastModified.After(existing.LastModified) {
				byLabel[creds.Label] = creds
			}
		}
	}

	var result []*Credentials
	for _, creds := range byLabel {
		result = append(result, creds)
	}

	return result, nil
}

// Delete removes credentials from all stores
func (m *Manager) Delete(label string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(label); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("credentials not found for label: %s", label)
	}

	return nil
}

// DeleteAll removes all stored credentials
func (m *Manager) DeleteAll() error {
	sets, err := m.List()
	if err != nil {
		return err
	}

	for _, creds := range sets {
		_ = m.Delete(creds.Label)
	}

	return nil
}

// getConfigDir returns the configuration directory path
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "igcollect")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "igcollect")
	default: // Linux and others
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "igcollect")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "igcollect")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// Sanitize creates a copy of the credentials with sensitive data masked
func Sanitize(creds *Credentials) *Credentials {
	if creds == nil {
		return nil
	}

	return &Credentials{
		Label:        creds.Label,
		APIToken:     maskString(creds.APIToken),
		SessionID:    maskString(creds.SessionID),
		CSRFToken:    maskString(creds.CSRFToken),
		DSUserID:     creds.DSUserID,
		UserAgent:    creds.UserAgent,
		LastModified: creds.LastModified,
	}
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
