package authcore

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

// fakeClient is a controllable APIClient for Manager tests.
type fakeClient struct {
	mu sync.Mutex

	identity *Identity
	token    string

	loginErr    error
	registerErr error
	meErr       error
	logoutErr   error

	loginCalls  atomic.Int64
	meCalls     atomic.Int64
	logoutCalls atomic.Int64

	// meGate, when non-nil, blocks Me until closed. Used to hold a restore
	// in flight while concurrent callers attach.
	meGate chan struct{}
}

func (f *fakeClient) setIdentity(identity *Identity, token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.identity = identity
	f.token = token
}

func (f *fakeClient) Login(ctx context.Context, identifier, secret string) (*Identity, string, error) {
	f.loginCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loginErr != nil {
		return nil, "", f.loginErr
	}
	identity := *f.identity
	return &identity, f.token, nil
}

func (f *fakeClient) Register(ctx context.Context, input RegisterInput) (*Identity, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.registerErr != nil {
		return nil, "", f.registerErr
	}
	identity := *f.identity
	return &identity, f.token, nil
}

func (f *fakeClient) Me(ctx context.Context, accessToken string) (*Identity, error) {
	f.meCalls.Add(1)

	f.mu.Lock()
	gate := f.meGate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.meErr != nil {
		return nil, f.meErr
	}
	identity := *f.identity
	return &identity, nil
}

func (f *fakeClient) Logout(ctx context.Context, accessToken string) error {
	f.logoutCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logoutErr
}

func memberIdentity() *Identity {
	return &Identity{
		UserID:      "user-1",
		DisplayName: "Alice",
		Email:       "alice@example.com",
		Role:        "user",
	}
}

func adminIdentity() *Identity {
	return &Identity{
		UserID:      "admin-1",
		DisplayName: "Root",
		Email:       "root@example.com",
		Role:        "admin",
	}
}

func newTestManager(t *testing.T, cfg Config, client APIClient) (*Manager, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, rdb := newTestRedis(t)

	manager, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithAPIClient(client).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		mr.Close()
		t.Fatalf("Build failed: %v", err)
	}

	return manager, mr, func() {
		manager.Close()
		_ = rdb.Close()
		mr.Close()
	}
}
