package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stlhq/syncvault/internal/models"
)

// stubAccountFetcher serves accounts from a map, like the repository would.
type stubAccountFetcher struct {
	accounts map[string]*models.Account
	err      error
}

func (s *stubAccountFetcher) FindByID(ctx context.Context, id string) (*models.Account, error) {
	if s.err != nil {
		return nil, s.err
	}
	account, ok := s.accounts[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return account, nil
}

func guardTestSetup(t *testing.T) (*TokenManager, *stubAccountFetcher, http.Handler) {
	t.Helper()

	tm := NewTokenManager(testSecret, 24*time.Hour)
	fetcher := &stubAccountFetcher{
		accounts: map[string]*models.Account{
			"user-123": {ID: "user-123", Email: "user@allowed.com"},
		},
	}

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account := AccountFromContext(r)
		require.NotNil(t, account)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(account.Email))
	})

	guard := SessionGuard(tm, fetcher, GuardConfig{CookieName: "stl_token"})
	return tm, fetcher, guard(inner)
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestSessionGuard_MissingToken(t *testing.T) {
	_, _, handler := guardTestSetup(t)

	req := httptest.NewRequest("GET", "/api/sync/download", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "token_missing", errorCode(t, rec))
}

func TestSessionGuard_HeaderToken(t *testing.T) {
	tm, _, handler := guardTestSetup(t)

	token, err := tm.Issue("user-123", "user@allowed.com")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/sync/download", nil)
	req.Header.Set(TokenHeader, token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user@allowed.com", rec.Body.String())
}

func TestSessionGuard_CookieToken(t *testing.T) {
	tm, _, handler := guardTestSetup(t)

	token, err := tm.Issue("user-123", "user@allowed.com")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/sync/download", nil)
	req.AddCookie(&http.Cookie{Name: "stl_token", Value: token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionGuard_QueryParamOnlyWhenEnabled(t *testing.T) {
	tm := NewTokenManager(testSecret, 24*time.Hour)
	fetcher := &stubAccountFetcher{
		accounts: map[string]*models.Account{
			"user-123": {ID: "user-123", Email: "user@allowed.com"},
		},
	}
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	token, err := tm.Issue("user-123", "user@allowed.com")
	require.NoError(t, err)

	// API config: query parameter is not a valid carrier
	apiHandler := SessionGuard(tm, fetcher, GuardConfig{CookieName: "stl_token"})(inner)
	req := httptest.NewRequest("GET", "/api/sync/download?token="+token, nil)
	rec := httptest.NewRecorder()
	apiHandler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Render-route config: query parameter accepted
	appHandler := SessionGuard(tm, fetcher, GuardConfig{CookieName: "stl_token", AllowQueryParam: true})(inner)
	req = httptest.NewRequest("GET", "/app?token="+token, nil)
	rec = httptest.NewRecorder()
	appHandler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionGuard_ExpiredTokenDistinctFromInvalid(t *testing.T) {
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := issuedAt
	tm := NewTokenManager(testSecret, time.Hour).WithClock(func() time.Time { return current })

	fetcher := &stubAccountFetcher{accounts: map[string]*models.Account{}}
	handler := SessionGuard(tm, fetcher, GuardConfig{CookieName: "stl_token"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("wrapped handler must not run")
	}))

	token, err := tm.Issue("user-123", "user@allowed.com")
	require.NoError(t, err)

	current = issuedAt.Add(2 * time.Hour)

	req := httptest.NewRequest("GET", "/api/sync/download", nil)
	req.Header.Set(TokenHeader, token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "token_expired", errorCode(t, rec))

	req = httptest.NewRequest("GET", "/api/sync/download", nil)
	req.Header.Set(TokenHeader, "garbage-token")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "token_invalid", errorCode(t, rec))
}

func TestSessionGuard_DeletedAccountRejected(t *testing.T) {
	tm := NewTokenManager(testSecret, 24*time.Hour)
	fetcher := &stubAccountFetcher{accounts: map[string]*models.Account{}}
	handler := SessionGuard(tm, fetcher, GuardConfig{CookieName: "stl_token"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("wrapped handler must not run")
	}))

	// Token was issued before the account disappeared
	token, err := tm.Issue("gone-user", "gone@allowed.com")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/sync/download", nil)
	req.Header.Set(TokenHeader, token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "token_invalid", errorCode(t, rec))
}

func TestSessionGuard_StorageFailureFailsClosed(t *testing.T) {
	tm := NewTokenManager(testSecret, 24*time.Hour)
	fetcher := &stubAccountFetcher{err: models.ErrStorageUnavailable}
	handler := SessionGuard(tm, fetcher, GuardConfig{CookieName: "stl_token"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("wrapped handler must not run")
	}))

	token, err := tm.Issue("user-123", "user@allowed.com")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/sync/download", nil)
	req.Header.Set(TokenHeader, token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExtractToken_HeaderWinsOverCookie(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(TokenHeader, "header-token")
	req.AddCookie(&http.Cookie{Name: "stl_token", Value: "cookie-token"})

	token := ExtractToken(req, GuardConfig{CookieName: "stl_token"})
	assert.Equal(t, "header-token", token)
}
