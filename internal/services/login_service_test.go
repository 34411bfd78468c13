package services_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stlhq/syncvault/internal/models"
	"github.com/stlhq/syncvault/internal/services"
	"github.com/stlhq/syncvault/internal/throttle"
	pkgauth "github.com/stlhq/syncvault/pkg/auth"
)

// MockCredentialVerifier serves fixed accounts and counts Verify calls so
// tests can assert that blocked branches never reach bcrypt.
type MockCredentialVerifier struct {
	accounts    map[string]*models.Account
	secrets     map[string]string
	findErr     error
	verifyCalls int
}

func NewMockCredentialVerifier() *MockCredentialVerifier {
	return &MockCredentialVerifier{
		accounts: make(map[string]*models.Account),
		secrets:  make(map[string]string),
	}
}

func (m *MockCredentialVerifier) AddAccount(id, email, password string) {
	m.accounts[email] = &models.Account{ID: id, Email: email, PasswordHash: "mock-hash:" + password}
	m.secrets[email] = password
}

func (m *MockCredentialVerifier) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	account, ok := m.accounts[email]
	if !ok {
		return nil, models.ErrNotFound
	}
	return account, nil
}

func (m *MockCredentialVerifier) Verify(account *models.Account, password string) bool {
	m.verifyCalls++
	return m.secrets[account.Email] == password
}

// MockAuditRecorder captures recorded events in order
type MockAuditRecorder struct {
	events []recordedEvent
}

type recordedEvent struct {
	Email  string
	IP     string
	Action string
	OK     bool
	Note   string
}

func (m *MockAuditRecorder) Record(ctx context.Context, email, ip, action string, ok bool, note string) {
	m.events = append(m.events, recordedEvent{Email: email, IP: ip, Action: action, OK: ok, Note: note})
}

// MockTokenIssuer mints predictable tokens
type MockTokenIssuer struct {
	err error
}

func (m *MockTokenIssuer) Issue(userID, email string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return "token-for-" + userID, nil
}

type loginFixture struct {
	service *services.LoginService
	creds   *MockCredentialVerifier
	audit   *MockAuditRecorder
	locks   *throttle.LockoutTable
	clock   *time.Time
}

// newLoginFixture wires a LoginService with a 60s/5-attempt window, a 300s
// lockout, and a manually advanced clock.
func newLoginFixture(t *testing.T) *loginFixture {
	t.Helper()

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := func() time.Time { return current }

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	creds := NewMockCredentialVerifier()
	creds.AddAccount("user-123", "user@allowed.com", "27s1")

	audit := &MockAuditRecorder{}
	rate := throttle.NewRateLimiter(60*time.Second, 5).WithClock(now)
	locks := throttle.NewLockoutTable(300 * time.Second).WithClock(now)

	allowlist := map[string]string{"user@allowed.com": "27s1"}

	service := services.NewLoginService(creds, &MockTokenIssuer{}, rate, locks, audit, allowlist, logger)

	return &loginFixture{
		service: service,
		creds:   creds,
		audit:   audit,
		locks:   locks,
		clock:   &current,
	}
}

func (f *loginFixture) advance(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

func (f *loginFixture) lastEvent(t *testing.T) recordedEvent {
	t.Helper()
	require.NotEmpty(t, f.audit.events)
	return f.audit.events[len(f.audit.events)-1]
}

func TestLogin_Success(t *testing.T) {
	f := newLoginFixture(t)

	result, err := f.service.Login(context.Background(), "user@allowed.com", "27s1", "192.0.2.1")
	require.NoError(t, err)
	assert.Equal(t, "token-for-user-123", result.Token)
	assert.Equal(t, "user@allowed.com", result.Account.Email)

	event := f.lastEvent(t)
	assert.True(t, event.OK)
	assert.Empty(t, event.Note, "success events carry no note")
}

func TestLogin_EmailNormalized(t *testing.T) {
	f := newLoginFixture(t)

	result, err := f.service.Login(context.Background(), "  User@Allowed.COM ", "27s1", "192.0.2.1")
	require.NoError(t, err)
	assert.Equal(t, "user@allowed.com", result.Account.Email)
}

func TestLogin_NotAllowListedNeverReachesVerify(t *testing.T) {
	f := newLoginFixture(t)

	// Even a "correct" password for an unknown identity is rejected before
	// any hash comparison.
	_, err := f.service.Login(context.Background(), "intruder@evil.com", "27s1", "192.0.2.1")
	assert.ErrorIs(t, err, models.ErrEmailNotAllowed)
	assert.Equal(t, 0, f.creds.verifyCalls)

	event := f.lastEvent(t)
	assert.False(t, event.OK)
	assert.Equal(t, models.AuthNoteEmailNotAllowed, event.Note)
}

func TestLogin_BadCredentials(t *testing.T) {
	f := newLoginFixture(t)

	_, err := f.service.Login(context.Background(), "user@allowed.com", "wrong", "192.0.2.1")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	event := f.lastEvent(t)
	assert.Equal(t, models.AuthNoteBadCredentials, event.Note)
}

func TestLogin_StorageFailureFailsClosed(t *testing.T) {
	f := newLoginFixture(t)
	f.creds.findErr = models.ErrStorageUnavailable

	_, err := f.service.Login(context.Background(), "user@allowed.com", "27s1", "192.0.2.1")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestLogin_RateLimitEscalatesToLockout(t *testing.T) {
	f := newLoginFixture(t)
	ctx := context.Background()

	// Five failed attempts fill the window
	for i := 0; i < 5; i++ {
		_, err := f.service.Login(ctx, "user@allowed.com", "wrong", "192.0.2.1")
		assert.ErrorIs(t, err, models.ErrInvalidCredentials, "attempt %d", i+1)
	}

	// The sixth trips the limiter and records a lock
	_, err := f.service.Login(ctx, "user@allowed.com", "wrong", "192.0.2.1")
	assert.ErrorIs(t, err, models.ErrRateLimited)
	assert.Equal(t, models.AuthNoteRateLimited, f.lastEvent(t).Note)

	key := throttle.Key(models.AuthActionLogin, "192.0.2.1", "user@allowed.com")
	assert.True(t, f.locks.IsLocked(key))

	// While locked, correct credentials do not get through
	f.advance(10 * time.Second)
	verifyCallsBefore := f.creds.verifyCalls
	_, err = f.service.Login(ctx, "user@allowed.com", "27s1", "192.0.2.1")
	assert.ErrorIs(t, err, models.ErrLocked)
	assert.Equal(t, verifyCallsBefore, f.creds.verifyCalls, "locked attempts never reach verify")
	assert.Equal(t, models.AuthNoteLocked, f.lastEvent(t).Note)

	// Past lock expiry the attempt is evaluated fresh
	f.advance(301 * time.Second)
	result, err := f.service.Login(ctx, "user@allowed.com", "27s1", "192.0.2.1")
	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestLogin_AttemptKeysSeparatePerAddress(t *testing.T) {
	f := newLoginFixture(t)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, _ = f.service.Login(ctx, "user@allowed.com", "wrong", "192.0.2.1")
	}

	// Same identity from a different address is unaffected
	result, err := f.service.Login(ctx, "user@allowed.com", "27s1", "198.51.100.7")
	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestLogin_OneAuditEventPerAttempt(t *testing.T) {
	f := newLoginFixture(t)
	ctx := context.Background()

	_, _ = f.service.Login(ctx, "user@allowed.com", "27s1", "192.0.2.1")
	_, _ = f.service.Login(ctx, "user@allowed.com", "wrong", "192.0.2.1")
	_, _ = f.service.Login(ctx, "nobody@evil.com", "x", "192.0.2.1")

	assert.Len(t, f.audit.events, 3)
}

func TestLogin_TokenIssueFailure(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := func() time.Time { return current }
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	creds := NewMockCredentialVerifier()
	creds.AddAccount("user-123", "user@allowed.com", "27s1")

	service := services.NewLoginService(
		creds,
		&MockTokenIssuer{err: models.ErrInternalServer},
		throttle.NewRateLimiter(60*time.Second, 5).WithClock(now),
		throttle.NewLockoutTable(300*time.Second).WithClock(now),
		&MockAuditRecorder{},
		map[string]string{"user@allowed.com": "27s1"},
		logger,
	)

	_, err := service.Login(context.Background(), "user@allowed.com", "27s1", "192.0.2.1")
	assert.ErrorIs(t, err, models.ErrInternalServer)
}

func TestCredentialVerify_RealBcryptRoundTrip(t *testing.T) {
	// End-to-end check that the real hasher plugs into the service layer
	hash, err := pkgauth.HashPassword("27s1")
	require.NoError(t, err)
	assert.NoError(t, pkgauth.ComparePassword(hash, "27s1"))
	assert.Error(t, pkgauth.ComparePassword(hash, "27s9"))
}
