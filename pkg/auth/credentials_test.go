package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igcollect/pkg/config"
)

func TestManagerStoreAndRetrieve(t *testing.T) {
	manager, _ := NewMockManager()

	creds := &Credentials{
		Label:     "default",
		APIToken:  "apify_api_test_token_value",
		SessionID: "session123",
		CSRFToken: "csrf456",
	}
	require.NoError(t, manager.Store(creds))

	got, err := manager.Retrieve("default")
	require.NoError(t, err)
	assert.Equal(t, "apify_api_test_token_value", got.APIToken)
	assert.False(t, got.LastModified.IsZero())
}

func TestManagerRejectsEmptyCredentials(t *testing.T) {
	manager, _ := NewMockManager()

	err := manager.Store(&Credentials{Label: "default"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API token or a session cookie pair")
}

func TestManagerDefaultsLabel(t *testing.T) {
	manager, store := NewMockManager()

	require.NoError(t, manager.Store(&Credentials{APIToken: "tok"}))
	assert.True(t, store.Exists("default"))
}

func TestManagerFallbackToSecondStore(t *testing.T) {
	failing := NewMockStore()
	failing.StoreError = ErrStoreUnavailable
	working := NewMockStore()
	manager := NewMockManagerWithStores(failing, working)

	require.NoError(t, manager.Store(&Credentials{Label: "default", APIToken: "tok"}))
	assert.Equal(t, 0, failing.Count())
	assert.Equal(t, 1, working.Count())
}

func TestManagerListMergesNewest(t *testing.T) {
	older := NewMockStore()
	newer := NewMockStore()
	manager := NewMockManagerWithStores(older, newer)

	require.NoError(t, older.Store(&Credentials{Label: "default", APIToken: "old", LastModified: time.Now().Add(-time.Hour)}))
	require.NoError(t, newer.Store(&Credentials{Label: "default", APIToken: "new", LastModified: time.Now()}))

	sets, err := manager.List()
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, "new", sets[0].APIToken)
}

func TestManagerDelete(t *testing.T) {
	manager, store := NewMockManager()
	require.NoError(t, manager.Store(&Credentials{Label: "default", APIToken: "tok"}))

	require.NoError(t, manager.Delete("default"))
	assert.False(t, store.Exists("default"))

	err := manager.Delete("default")
	assert.Error(t, err)
}

func TestEnvironmentStore(t *testing.T) {
	t.Setenv("APIFY_TOKEN", "env_token")
	t.Setenv("IG_SESSION_ID", "env_session")
	t.Setenv("IG_CSRF_TOKEN", "env_csrf")
	t.Setenv("IG_DS_USER_ID", "12345")

	store := NewEnvironmentStore()
	creds, err := store.Retrieve("")
	require.NoError(t, err)

	assert.Equal(t, "default", creds.Label)
	assert.Equal(t, "env_token", creds.APIToken)
	assert.True(t, creds.HasAPIToken())
	assert.True(t, creds.HasSession())

	assert.Equal(t, ErrStoreUnavailable, store.Store(creds))
	assert.Equal(t, ErrStoreUnavailable, store.Delete("default"))
}

func TestEnvironmentStoreEmpty(t *testing.T) {
	t.Setenv("APIFY_TOKEN", "")
	t.Setenv("IG_SESSION_ID", "")
	t.Setenv("IG_CSRF_TOKEN", "")

	store := NewEnvironmentStore()
	_, err := store.Retrieve("")
	assert.Equal(t, ErrCredentialsNotFound, err)
}

func TestEncryptedFileStoreRoundTrip(t *testing.T) {
	t.Setenv("IGCOLLECT_PASSPHRASE", "test-passphrase")

	path := filepath.Join(t.TempDir(), "credentials.enc")
	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	creds := &Credentials{
		Label:     "default",
		APIToken:  "secret_token",
		SessionID: "secret_session",
		CSRFToken: "secret_csrf",
	}
	require.NoError(t, store.Store(creds))

	// A fresh store instance with the same passphrase reads it back
	reopened, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	got, err := reopened.Retrieve("default")
	require.NoError(t, err)
	assert.Equal(t, "secret_token", got.APIToken)

	// The file on disk never holds the plaintext
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "secret_token")
}

func TestEncryptedFileStoreDeleteLastRemovesFile(t *testing.T) {
	t.Setenv("IGCOLLECT_PASSPHRASE", "test-passphrase")

	path := filepath.Join(t.TempDir(), "credentials.enc")
	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Store(&Credentials{Label: "default", APIToken: "tok"}))
	require.NoError(t, store.Delete("default"))
	assert.False(t, store.Exists("default"))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestSanitizeMasks(t *testing.T) {
	creds := &Credentials{
		Label:     "default",
		APIToken:  "apify_api_1234567890abcdef",
		SessionID: "short",
	}

	masked := Sanitize(creds)
	assert.Equal(t, "apif...cdef", masked.APIToken)
	assert.Equal(t, "********", masked.SessionID)
}

func TestApplyToConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	creds := &Credentials{
		SessionID: "s",
		CSRFToken: "c",
		DSUserID:  "9",
	}

	creds.ApplyToConfig(cfg)
	assert.Equal(t, "s", cfg.Instagram.SessionID)
	assert.Equal(t, "c", cfg.Instagram.CSRFToken)
	assert.Equal(t, "9", cfg.Instagram.DSUserID)
	assert.NotEmpty(t, cfg.Instagram.UserAgent, "default user agent survives")
}
