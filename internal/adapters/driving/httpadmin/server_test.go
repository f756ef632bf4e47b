package httpadmin

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/unical-cli/internal/adapters/driven/credentials"
	"github.com/custodia-labs/unical-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/unical-cli/internal/core/domain"
	"github.com/custodia-labs/unical-cli/internal/core/ports/driven"
	"github.com/custodia-labs/unical-cli/internal/core/services"
)

const devicePrompt = "To sign in, use a web browser to open the page https://microsoft.com/devicelogin and enter the code ABC123XYZ to authenticate."

// scriptedIdentityClient delivers a fixed prompt and then blocks until
// a result is fed or the flow is cancelled.
type scriptedIdentityClient struct {
	message string
	result  chan error

	mu      sync.Mutex
	started int
}

var _ driven.IdentityClient = (*scriptedIdentityClient)(nil)

func newScriptedClient(message string) *scriptedIdentityClient {
	return &scriptedIdentityClient{message: message, result: make(chan error, 1)}
}

func (c *scriptedIdentityClient) AcquireInteractive(context.Context, *domain.Account, []string) error {
	return nil
}

func (c *scriptedIdentityClient) AcquireByDeviceCode(ctx context.Context, _ *domain.Account, _ []string, prompt driven.DevicePromptFunc) error {
	c.mu.Lock()
	c.started++
	c.mu.Unlock()
	if c.message != "" {
		if err := prompt(ctx, c.message); err != nil {
			return err
		}
	}
	select {
	case err := <-c.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

type fixture struct {
	server *Server
	router http.Handler
	client *scriptedIdentityClient
}

func newFixture(t *testing.T, secret string) *fixture {
	t.Helper()
	store := memory.NewAccountStore()
	broker := credentials.NewRegistry(
		credentials.NewMSALStore(t.TempDir()),
		credentials.NewGoogleStore(t.TempDir()),
	)
	accounts := services.NewAccountService(store, broker)

	client := newScriptedClient(devicePrompt)
	flows := services.NewAuthFlowService(store, map[domain.Provider]driven.IdentityClient{
		domain.ProviderMicrosoft365: client,
		domain.ProviderOutlook:      client,
		domain.ProviderGoogle:       client,
	})

	server := NewServer(accounts, flows, secret)
	return &fixture{server: server, router: server.Router(), client: client}
}

func (f *fixture) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func validCreateBody() map[string]any {
	return map[string]any{
		"id":       "work",
		"provider": "microsoft365",
		"enabled":  true,
		"config":   map[string]string{"ClientId": "abc", "TenantId": "common"},
	}
}

func TestServer_Health_Open(t *testing.T) {
	f := newFixture(t, "hunter2")
	rec := f.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_RequireSecret(t *testing.T) {
	f := newFixture(t, "hunter2")

	rec := f.do(t, http.MethodGet, "/admin/accounts", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/admin/accounts", nil, map[string]string{
		"Authorization": "Bearer wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/admin/accounts", nil, map[string]string{
		"Authorization": "Bearer hunter2",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/admin/accounts", nil, map[string]string{
		"X-Admin-Token": "hunter2",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_NoSecretMeansOpen(t *testing.T) {
	f := newFixture(t, "")
	rec := f.do(t, http.MethodGet, "/admin/accounts", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_RateLimit(t *testing.T) {
	f := newFixture(t, "")

	var limited bool
	for i := 0; i < clientBurst+10; i++ {
		rec := f.do(t, http.MethodGet, "/admin/accounts", nil, nil)
		if rec.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	assert.True(t, limited, "burst of requests was never throttled")
}

func TestServer_CreateAccount(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(t, http.MethodPost, "/admin/accounts", validCreateBody(), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	created := decodeBody[accountPayload](t, rec)
	assert.Equal(t, "work", created.ID)
	assert.Equal(t, "microsoft365", created.Provider)
	assert.False(t, created.Authenticated)
	// Config is write-only and must not be echoed.
	assert.Empty(t, created.Config)
}

func TestServer_CreateAccount_ValidationNamesMissingKey(t *testing.T) {
	f := newFixture(t, "")

	body := validCreateBody()
	body["config"] = map[string]string{"TenantId": "common"}
	rec := f.do(t, http.MethodPost, "/admin/accounts", body, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	errBody := decodeBody[map[string]string](t, rec)
	assert.Contains(t, errBody["error"], "ClientId")

	// Correcting the config succeeds.
	rec = f.do(t, http.MethodPost, "/admin/accounts", validCreateBody(), nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestServer_CreateAccount_Conflict(t *testing.T) {
	f := newFixture(t, "")
	rec := f.do(t, http.MethodPost, "/admin/accounts", validCreateBody(), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodPost, "/admin/accounts", validCreateBody(), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestServer_CreateAccount_BadBody(t *testing.T) {
	f := newFixture(t, "")
	req := httptest.NewRequest(http.MethodPost, "/admin/accounts", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_ListAccounts(t *testing.T) {
	f := newFixture(t, "")
	rec := f.do(t, http.MethodPost, "/admin/accounts", validCreateBody(), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodGet, "/admin/accounts", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	list := decodeBody[[]accountPayload](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "work", list[0].ID)
	assert.Empty(t, list[0].Config)
}

func TestServer_UpdateAccount(t *testing.T) {
	f := newFixture(t, "")
	rec := f.do(t, http.MethodPost, "/admin/accounts", validCreateBody(), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := validCreateBody()
	body["displayName"] = "Work Calendar"
	rec = f.do(t, http.MethodPut, "/admin/accounts/work", body, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Work Calendar", decodeBody[accountPayload](t, rec).DisplayName)

	// Provider changes are rejected.
	body["provider"] = "google"
	body["config"] = map[string]string{"ClientId": "abc", "ClientSecret": "xyz"}
	rec = f.do(t, http.MethodPut, "/admin/accounts/work", body, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPut, "/admin/accounts/ghost", validCreateBody(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_RemoveAccount(t *testing.T) {
	f := newFixture(t, "")
	rec := f.do(t, http.MethodPost, "/admin/accounts", validCreateBody(), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodDelete, "/admin/accounts/work?logout=true", nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodDelete, "/admin/accounts/work", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Logout(t *testing.T) {
	f := newFixture(t, "")
	rec := f.do(t, http.MethodPost, "/admin/accounts", validCreateBody(), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodPost, "/admin/accounts/work/logout", nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodPost, "/admin/accounts/ghost/logout", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_FlowEndpoints(t *testing.T) {
	f := newFixture(t, "")
	rec := f.do(t, http.MethodPost, "/admin/accounts", validCreateBody(), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	// No flow yet.
	rec = f.do(t, http.MethodGet, "/admin/auth/work/status", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeBody[flowStatusResponse](t, rec).Status)

	rec = f.do(t, http.MethodPost, "/admin/auth/work/start", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	started := decodeBody[flowStartResponse](t, rec)
	assert.Equal(t, "work", started.AccountID)
	assert.Equal(t, "ABC123XYZ", started.UserCode)
	assert.Equal(t, "https://microsoft.com/devicelogin", started.VerificationURL)
	assert.Greater(t, started.ExpiresIn, 0)

	rec = f.do(t, http.MethodGet, "/admin/auth/work/status", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(domain.FlowAwaitingUser), decodeBody[flowStatusResponse](t, rec).Status)

	// Operator completes sign-in out of band.
	f.client.result <- nil
	require.Eventually(t, func() bool {
		rec := f.do(t, http.MethodGet, "/admin/auth/work/status", nil, nil)
		return decodeBody[flowStatusResponse](t, rec).Status == string(domain.FlowCompleted)
	}, 2*time.Second, 20*time.Millisecond)
}

func TestServer_StartFlow_Errors(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(t, http.MethodPost, "/admin/auth/ghost/start", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	body := map[string]any{
		"id": "feed", "provider": "ics",
		"config": map[string]string{"IcsUrl": "https://x/y.ics"},
	}
	rec = f.do(t, http.MethodPost, "/admin/accounts", body, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodPost, "/admin/auth/feed/start", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_StartFlow_CodeTimeout(t *testing.T) {
	f := newFixture(t, "")
	f.client.message = "" // provider never issues a code
	rec := f.do(t, http.MethodPost, "/admin/accounts", validCreateBody(), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	flows, ok := f.server.flows.(*services.AuthFlowService)
	require.True(t, ok)
	flows.SetCodeWait(50 * time.Millisecond)

	rec = f.do(t, http.MethodPost, "/admin/auth/work/start", nil, nil)
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestServer_CancelFlow(t *testing.T) {
	f := newFixture(t, "")
	rec := f.do(t, http.MethodPost, "/admin/accounts", validCreateBody(), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodPost, "/admin/auth/work/cancel", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/admin/auth/work/start", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/admin/auth/work/cancel", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[map[string]bool](t, rec)["cancelled"])

	rec = f.do(t, http.MethodGet, "/admin/auth/work/status", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(domain.FlowCancelled), decodeBody[flowStatusResponse](t, rec).Status)

	// The cancelled flow is terminal; cancelling again is a 404.
	rec = f.do(t, http.MethodPost, "/admin/auth/work/cancel", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
