package vault

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVaultServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/auth/approle/role/backup/secret-id", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"data": map[string]any{"secret_id": "sid-1"}})
	})
	mux.HandleFunc("/v1/auth/approle/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["role_id"] != "role-1" || body["secret_id"] != "sid-1" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		writeJSON(w, map[string]any{"auth": map[string]any{"client_token": "s.approle"}})
	})
	mux.HandleFunc("/v1/database/creds/backup", func(w http.ResponseWriter, r *http.Request) {
		if tok := r.Header.Get("X-Vault-Token"); tok != "s.approle" && tok != "s.static" {
			w.WriteHeader(http.StatusForbidden)
			writeJSON(w, map[string]any{"errors": []string{"permission denied"}})
			return
		}
		writeJSON(w, map[string]any{
			"lease_duration": 3600,
			"data": map[string]any{
				"username": "v-backup-abc",
				"password": "leased-secret",
			},
		})
	})
	mux.HandleFunc("/v1/database/creds/broken", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"data": map[string]any{"username": "only-user"}})
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_AppRoleThenDynamicCredentials(t *testing.T) {
	t.Setenv("VAULT_TOKEN", "")
	ts := newVaultServer(t)
	ctx := context.Background()

	client, err := NewClient(ctx, WithAddress(ts.URL), WithAppRole("role-1", "backup"))
	require.NoError(t, err)

	creds, err := client.GetDynamicCredentials(ctx, "database/creds/backup")
	require.NoError(t, err)
	assert.Equal(t, "v-backup-abc", creds.Username)
	assert.Equal(t, "leased-secret", creds.Password)
	assert.Equal(t, time.Hour, creds.TTL)
}

func TestClient_StaticToken(t *testing.T) {
	t.Setenv("VAULT_TOKEN", "")
	ts := newVaultServer(t)
	ctx := context.Background()

	client, err := NewClient(ctx, WithAddress(ts.URL), WithToken("s.static"))
	require.NoError(t, err)

	creds, err := client.GetDynamicCredentials(ctx, "database/creds/backup")
	require.NoError(t, err)
	assert.Equal(t, "v-backup-abc", creds.Username)
}

func TestClient_IncompleteCredentials(t *testing.T) {
	t.Setenv("VAULT_TOKEN", "")
	ts := newVaultServer(t)
	ctx := context.Background()

	client, err := NewClient(ctx, WithAddress(ts.URL), WithToken("s.static"))
	require.NoError(t, err)

	_, err = client.GetDynamicCredentials(ctx, "database/creds/broken")
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestClient_MissingPath(t *testing.T) {
	t.Setenv("VAULT_TOKEN", "")
	ts := newVaultServer(t)
	ctx := context.Background()

	client, err := NewClient(ctx, WithAddress(ts.URL), WithToken("s.static"))
	require.NoError(t, err)

	_, err = client.GetDynamicCredentials(ctx, "database/creds/unknown")
	assert.Error(t, err)
}
