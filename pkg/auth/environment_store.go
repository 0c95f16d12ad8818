package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements CredentialStore using environment variables.
// It is read-only and always consulted last for stored sets, but first for
// the default set so CI runs can inject credentials.
type EnvironmentStore struct{}

// NewEnvironmentStore creates an environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(creds *Credentials) error {
	return ErrStoreUnavailable
}

// Retrieve gets credentials from environment variables
func (e *EnvironmentStore) Retrieve(label string) (*Credentials, error) {
	creds := &Credentials{
		Label:        label,
		APIToken:     os.Getenv("APIFY_TOKEN"),
		SessionID:    os.Getenv("IG_SESSION_ID"),
		CSRFToken:    os.Getenv("IG_CSRF_TOKEN"),
		DSUserID:     os.Getenv("IG_DS_USER_ID"),
		UserAgent:    os.Getenv("IGCOLLECT_USER_AGENT"),
		LastModified: time.Now(),
	}

	if !creds.HasAPIToken() && !creds.HasSession() {
		return nil, ErrCredentialsNotFound
	}

	if creds.Label == "" {
		creds.Label = "default"
	}
	return creds, nil
}

// List returns a single credential set if environment variables are set
func (e *EnvironmentStore) List() ([]*Credentials, error) {
	creds, err := e.Retrieve("")
	if err != nil {
		return []*Credentials{}, nil
	}
	return []*Credentials{creds}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(label string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(label string) bool {
	_, err := e.Retrieve(label)
	return err == nil
}
