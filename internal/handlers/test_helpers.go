package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stlhq/syncvault/internal/auth"
	"github.com/stlhq/syncvault/internal/models"
	"github.com/stlhq/syncvault/internal/services"
	pkghttp "github.com/stlhq/syncvault/pkg/http"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAccountContext injects an authenticated account into the request
// context, simulating a request that passed the session guard
func WithAccountContext(req *http.Request, account *models.Account) *http.Request {
	ctx := context.WithValue(req.Context(), auth.AccountContextKey, account)
	return req.WithContext(ctx)
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// MockLoginService implements LoginServiceInterface for testing
type MockLoginService struct {
	LoginFunc func(ctx context.Context, email, password, ip string) (*services.LoginResult, error)
}

func (m *MockLoginService) Login(ctx context.Context, email, password, ip string) (*services.LoginResult, error) {
	if m.LoginFunc == nil {
		return nil, models.ErrInvalidCredentials
	}
	return m.LoginFunc(ctx, email, password, ip)
}

// MockSyncService implements SyncServiceInterface for testing
type MockSyncService struct {
	UploadFunc   func(ctx context.Context, account *models.Account, blob []byte) error
	DownloadFunc func(ctx context.Context, account *models.Account) ([]byte, error)
}

func (m *MockSyncService) Upload(ctx context.Context, account *models.Account, blob []byte) error {
	if m.UploadFunc == nil {
		return nil
	}
	return m.UploadFunc(ctx, account, blob)
}

func (m *MockSyncService) Download(ctx context.Context, account *models.Account) ([]byte, error) {
	if m.DownloadFunc == nil {
		return []byte("{}"), nil
	}
	return m.DownloadFunc(ctx, account)
}

// MockAuditRecorder implements AuditRecorderInterface for testing
type MockAuditRecorder struct {
	RecordFunc func(ctx context.Context, email, ip, action string, ok bool, note string)
}

func (m *MockAuditRecorder) Record(ctx context.Context, email, ip, action string, ok bool, note string) {
	if m.RecordFunc != nil {
		m.RecordFunc(ctx, email, ip, action, ok, note)
	}
}
