package apiclient

import (
	"context"
	"sync"
	"sync/atomic"

	authcore "github.com/communiversity/authcore"
	"github.com/google/uuid"
)

// MockUser seeds one account into a [Mock].
type MockUser struct {
	Identifier     string
	Secret         string
	DisplayName    string
	Role           string
	PublicMetadata map[string]any
}

// Mock is an in-memory [authcore.APIClient] used by tests, the demo gateway,
// and the load probe. Accounts are keyed by identifier; tokens are opaque
// random strings valid until Logout or [Mock.RevokeAll].
type Mock struct {
	mu     sync.Mutex
	users  map[string]*mockAccount
	tokens map[string]string // token -> identifier

	// Failure injection. A non-nil error short-circuits the corresponding
	// call before any state changes.
	LoginErr    error
	RegisterErr error
	MeErr       error
	LogoutErr   error

	loginCalls    atomic.Int64
	registerCalls atomic.Int64
	meCalls       atomic.Int64
	logoutCalls   atomic.Int64
}

type mockAccount struct {
	identity authcore.Identity
	secret   string
}

// NewMock creates a [Mock] seeded with the given users.
func NewMock(users ...MockUser) *Mock {
	m := &Mock{
		users:  make(map[string]*mockAccount, len(users)),
		tokens: make(map[string]string),
	}
	for _, u := range users {
		m.users[u.Identifier] = &mockAccount{
			identity: authcore.Identity{
				UserID:         uuid.NewString(),
				DisplayName:    u.DisplayName,
				Email:          u.Identifier,
				Role:           u.Role,
				PublicMetadata: u.PublicMetadata,
			},
			secret: u.Secret,
		}
	}
	return m
}

// Login describes the login operation and its observable behavior.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Mock) Login(ctx context.Context, identifier, secret string) (*authcore.Identity, string, error) {
	m.loginCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	if m.LoginErr != nil {
		return nil, "", m.LoginErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.users[identifier]
	if !ok || account.secret != secret {
		return nil, "", authcore.ErrInvalidCredentials
	}

	token := uuid.NewString()
	m.tokens[token] = identifier
	identity := account.identity
	return &identity, token, nil
}

// Register describes the register operation and its observable behavior.
//
// Register may return an error when input validation, dependency calls, or security checks fail.
// Register does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Mock) Register(ctx context.Context, input authcore.RegisterInput) (*authcore.Identity, string, error) {
	m.registerCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	if m.RegisterErr != nil {
		return nil, "", m.RegisterErr
	}
	if input.Email == "" || input.Secret == "" {
		return nil, "", authcore.ErrRegistrationInvalid
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[input.Email]; exists {
		return nil, "", authcore.ErrAccountExists
	}

	account := &mockAccount{
		identity: authcore.Identity{
			UserID:      uuid.NewString(),
			DisplayName: input.DisplayName,
			Email:       input.Email,
		},
		secret: input.Secret,
	}
	m.users[input.Email] = account

	token := uuid.NewString()
	m.tokens[token] = input.Email
	identity := account.identity
	return &identity, token, nil
}

// Me describes the me operation and its observable behavior.
//
// Me may return an error when input validation, dependency calls, or security checks fail.
// Me does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Mock) Me(ctx context.Context, accessToken string) (*authcore.Identity, error) {
	m.meCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.MeErr != nil {
		return nil, m.MeErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	identifier, ok := m.tokens[accessToken]
	if !ok {
		return nil, authcore.ErrUnauthorized
	}
	account, ok := m.users[identifier]
	if !ok {
		return nil, authcore.ErrUnauthorized
	}

	identity := account.identity
	return &identity, nil
}

// Logout describes the logout operation and its observable behavior.
//
// Logout may return an error when input validation, dependency calls, or security checks fail.
// Logout does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Mock) Logout(ctx context.Context, accessToken string) error {
	m.logoutCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.LogoutErr != nil {
		return m.LogoutErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.tokens, accessToken)
	return nil
}

// IssueToken mints a valid token for an already-seeded user, bypassing Login.
// Useful for tests that start from a persisted record.
func (m *Mock) IssueToken(identifier string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[identifier]; !ok {
		return "", false
	}
	token := uuid.NewString()
	m.tokens[token] = identifier
	return token, true
}

// RevokeAll invalidates every outstanding token, simulating a server-side
// session purge.
func (m *Mock) RevokeAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = make(map[string]string)
}

// LoginCalls returns how many times Login was invoked.
func (m *Mock) LoginCalls() int64 { return m.loginCalls.Load() }

// RegisterCalls returns how many times Register was invoked.
func (m *Mock) RegisterCalls() int64 { return m.registerCalls.Load() }

// MeCalls returns how many times Me was invoked.
func (m *Mock) MeCalls() int64 { return m.meCalls.Load() }

// LogoutCalls returns how many times Logout was invoked.
func (m *Mock) LogoutCalls() int64 { return m.logoutCalls.Load() }
