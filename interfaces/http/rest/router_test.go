package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"idp-backend/application/ports"
	"idp-backend/domain/entities"
	"idp-backend/infrastructure/config"
	"idp-backend/infrastructure/persistence/postgres"
	"idp-backend/pkg/auth"
)

const testRawKey = "idp_router_test_key_material"

// newTestServer stands up the full router over a throwaway sqlite-backed
// repository set, seeded with one active API key.
func newTestServer(t *testing.T) (*httptest.Server, *ports.Repositories) {
	t.Helper()

	db, err := postgres.Open("sqlite3", filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	repos := postgres.NewRepositories(db, zap.NewNop())

	_, err = repos.APIKeys.Save(context.Background(), &entities.APIKey{
		KeyName:        "router test key",
		KeyHash:        auth.HashKey(testRawKey),
		KeyPrefix:      testRawKey[:8],
		KeyType:        entities.APIKeyTypeUser,
		UserEmail:      "admin@example.com",
		CreatedByEmail: "admin@example.com",
		IsActive:       true,
	})
	require.NoError(t, err)

	cfg := &config.Config{
		ServerAddress:    ":0",
		Environment:      "development",
		DatabaseProvider: config.ProviderPostgres,
		EnableCORS:       false,
	}
	srv := httptest.NewServer(NewRouter(repos, cfg, zap.NewNop()).Setup())
	t.Cleanup(srv.Close)
	return srv, repos
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func doJSON(t *testing.T, srv *httptest.Server, method, path, key string, body any) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp.StatusCode, env
}

func TestRouterRejectsMissingAndBogusKeys(t *testing.T) {
	srv, _ := newTestServer(t)

	status, env := doJSON(t, srv, http.MethodGet, "/api/v1/stacks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	status, _ = doJSON(t, srv, http.MethodGet, "/api/v1/stacks", "idp_not_a_real_key", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestHealthEndpointsAreOpen(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStackLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	status, env := doJSON(t, srv, http.MethodPost, "/api/v1/stacks", testRawKey, map[string]any{
		"name":      "checkout-service",
		"stackType": "RESTFUL_API",
	})
	require.Equal(t, http.StatusCreated, status)

	var created entities.Stack
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "admin@example.com", created.CreatedBy)
	assert.False(t, created.UpdatedAt.IsZero())

	// owner filter finds it
	status, env = doJSON(t, srv, http.MethodGet,
		"/api/v1/stacks?createdBy=admin@example.com", testRawKey, nil)
	require.Equal(t, http.StatusOK, status)
	var listed []entities.Stack
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	require.Len(t, listed, 1)

	// duplicate name for the same owner is rejected
	status, env = doJSON(t, srv, http.MethodPost, "/api/v1/stacks", testRawKey, map[string]any{
		"name":      "checkout-service",
		"stackType": "RESTFUL_API",
	})
	require.Equal(t, http.StatusConflict, status)
	require.NotNil(t, env.Error)

	// locked update with the observed version succeeds
	stackPath := "/api/v1/stacks/" + created.ID.String()
	observed := created.UpdatedAt.Format(time.RFC3339Nano)
	status, env = doJSON(t, srv, http.MethodPut, stackPath, testRawKey, map[string]any{
		"description":       "handles checkout",
		"expectedUpdatedAt": observed,
	})
	require.Equal(t, http.StatusOK, status)
	var updated entities.Stack
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "handles checkout", updated.Description)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	// replaying the stale version loses
	status, env = doJSON(t, srv, http.MethodPut, stackPath, testRawKey, map[string]any{
		"description":       "stale write",
		"expectedUpdatedAt": observed,
	})
	require.Equal(t, http.StatusConflict, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "OPTIMISTIC_LOCK", env.Error.Code)

	status, _ = doJSON(t, srv, http.MethodDelete, stackPath, testRawKey, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = doJSON(t, srv, http.MethodGet, stackPath, testRawKey, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestMalformedPathIDIsRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	status, env := doJSON(t, srv, http.MethodGet, "/api/v1/stacks/not-a-uuid", testRawKey, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION", env.Error.Code)
}

func TestIssuedKeyAuthenticates(t *testing.T) {
	srv, _ := newTestServer(t)

	status, env := doJSON(t, srv, http.MethodPost, "/api/v1/api-keys", testRawKey, map[string]any{
		"keyName":   "ci pipeline",
		"keyType":   "SYSTEM",
		"userEmail": "ci@example.com",
	})
	require.Equal(t, http.StatusCreated, status)

	var issued struct {
		Key    entities.APIKey `json:"key"`
		RawKey string          `json:"rawKey"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &issued))
	require.NotEmpty(t, issued.RawKey)
	assert.Empty(t, issued.Key.KeyHash, "hash must not be serialized")

	// the fresh key works immediately
	status, _ = doJSON(t, srv, http.MethodGet, "/api/v1/teams", issued.RawKey, nil)
	assert.Equal(t, http.StatusOK, status)

	// rotating it revokes the old material and issues new
	status, env = doJSON(t, srv, http.MethodPost,
		fmt.Sprintf("/api/v1/api-keys/%s/rotate", issued.Key.ID), testRawKey, nil)
	require.Equal(t, http.StatusOK, status)

	var rotated struct {
		Key    entities.APIKey `json:"key"`
		RawKey string          `json:"rawKey"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &rotated))
	require.NotEqual(t, issued.RawKey, rotated.RawKey)

	status, _ = doJSON(t, srv, http.MethodGet, "/api/v1/teams", issued.RawKey, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doJSON(t, srv, http.MethodGet, "/api/v1/teams", rotated.RawKey, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestCatalogMutationIsAudited(t *testing.T) {
	srv, repos := newTestServer(t)

	status, env := doJSON(t, srv, http.MethodPost, "/api/v1/cloud-providers", testRawKey, map[string]any{
		"name":        "aws",
		"displayName": "Amazon Web Services",
	})
	require.Equal(t, http.StatusCreated, status)

	var provider entities.CloudProvider
	require.NoError(t, json.Unmarshal(env.Data, &provider))

	entries, err := repos.AuditLogs.FindByEntityType(context.Background(), "CloudProvider")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "CREATE", entries[0].Action)
	assert.Equal(t, provider.ID, entries[0].EntityID)
	assert.Equal(t, "admin@example.com", entries[0].UserEmail)

	// the audit trail is reachable over the API too
	status, env = doJSON(t, srv, http.MethodGet,
		"/api/v1/audit-logs?entityType=CloudProvider", testRawKey, nil)
	require.Equal(t, http.StatusOK, status)
	var logs []entities.AdminAuditLog
	require.NoError(t, json.Unmarshal(env.Data, &logs))
	assert.Len(t, logs, 1)
}
