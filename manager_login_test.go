package authcore

import (
	"context"
	"errors"
	"testing"

	"github.com/communiversity/authcore/role"
	"github.com/communiversity/authcore/session"
)

func TestLogin_Success(t *testing.T) {
	client := &fakeClient{}
	client.setIdentity(memberIdentity(), "token-1")

	manager, _, cleanup := newTestManager(t, DefaultConfig(), client)
	defer cleanup()

	if err := manager.Login(context.Background(), "alice@example.com", "secret"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	sess := manager.Session()
	if !sess.Authenticated {
		t.Fatal("expected authenticated session")
	}
	if !sess.Checked {
		t.Fatal("login must settle the checked flag")
	}
	if sess.UserID != "user-1" {
		t.Fatalf("unexpected user: %q", sess.UserID)
	}
	if sess.Role != role.Member {
		t.Fatalf("expected member role, got %q", sess.Role)
	}
	if manager.State() != StateCheckedAuthenticated {
		t.Fatalf("unexpected state: %v", manager.State())
	}
}

func TestLogin_AdminRoleResolved(t *testing.T) {
	client := &fakeClient{}
	client.setIdentity(adminIdentity(), "token-1")

	manager, _, cleanup := newTestManager(t, DefaultConfig(), client)
	defer cleanup()

	if err := manager.Login(context.Background(), "root@example.com", "secret"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if got := manager.Session().Role; got != role.Admin {
		t.Fatalf("expected admin role, got %q", got)
	}
}

func TestLogin_MetadataRoleFallback(t *testing.T) {
	client := &fakeClient{}
	client.setIdentity(&Identity{
		UserID:         "user-2",
		DisplayName:    "Meta",
		Email:          "meta@example.com",
		PublicMetadata: map[string]any{"role": "admin"},
	}, "token-1")

	manager, _, cleanup := newTestManager(t, DefaultConfig(), client)
	defer cleanup()

	if err := manager.Login(context.Background(), "meta@example.com", "secret"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if got := manager.Session().Role; got != role.Admin {
		t.Fatalf("metadata role should resolve to admin, got %q", got)
	}
}

func TestLogin_UnknownRoleNeverDefaultsToAdmin(t *testing.T) {
	client := &fakeClient{}
	client.setIdentity(&Identity{
		UserID:      "user-3",
		DisplayName: "Odd",
		Email:       "odd@example.com",
		Role:        "superuser-9000",
	}, "token-1")

	manager, _, cleanup := newTestManager(t, DefaultConfig(), client)
	defer cleanup()

	if err := manager.Login(context.Background(), "odd@example.com", "secret"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if got := manager.Session().Role; got != role.Member {
		t.Fatalf("unknown role must fall back to member, got %q", got)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	client := &fakeClient{loginErr: ErrInvalidCredentials}
	client.setIdentity(memberIdentity(), "")

	manager, _, cleanup := newTestManager(t, DefaultConfig(), client)
	defer cleanup()

	err := manager.Login(context.Background(), "alice@example.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	if manager.Session().Authenticated {
		t.Fatal("failed login must not authenticate")
	}
}

func TestLogin_EmptyInputRejectedLocally(t *testing.T) {
	client := &fakeClient{}
	client.setIdentity(memberIdentity(), "token-1")

	manager, _, cleanup := newTestManager(t, DefaultConfig(), client)
	defer cleanup()

	if err := manager.Login(context.Background(), "", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if client.loginCalls.Load() != 0 {
		t.Fatal("empty credentials must not reach the API")
	}
}

func TestLogin_NetworkError(t *testing.T) {
	client := &fakeClient{loginErr: ErrNetworkFailure}
	client.setIdentity(memberIdentity(), "")

	manager, _, cleanup := newTestManager(t, DefaultConfig(), client)
	defer cleanup()

	err := manager.Login(context.Background(), "alice@example.com", "secret")
	if !errors.Is(err, ErrNetworkFailure) {
		t.Fatalf("expected ErrNetworkFailure, got %v", err)
	}

	snap := manager.MetricsSnapshot()
	if snap.Counters[MetricLoginNetworkError] != 1 {
		t.Fatalf("expected one network error counted, got %d", snap.Counters[MetricLoginNetworkError])
	}
}

func TestLogin_UnknownErrorMapsToServerFailure(t *testing.T) {
	client := &fakeClient{loginErr: errors.New("weird transport thing")}
	client.setIdentity(memberIdentity(), "")

	manager, _, cleanup := newTestManager(t, DefaultConfig(), client)
	defer cleanup()

	err := manager.Login(context.Background(), "alice@example.com", "secret")
	if !errors.Is(err, ErrServerFailure) {
		t.Fatalf("unknown errors must map to ErrServerFailure, got %v", err)
	}
}

func TestLogin_PersistsRecord(t *testing.T) {
	client := &fakeClient{}
	client.setIdentity(memberIdentity(), "token-1")

	manager, _, cleanup := newTestManager(t, DefaultConfig(), client)
	defer cleanup()

	if err := manager.Login(context.Background(), "alice@example.com", "secret"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	rec, _, err := manager.records.Load(context.Background())
	if err != nil {
		t.Fatalf("record load failed: %v", err)
	}
	if rec.UserID != "user-1" || rec.Role != "user" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.SchemaVersion != session.CurrentSchemaVersion {
		t.Fatalf("record should carry current schema, got %d", rec.SchemaVersion)
	}
}

func TestLogin_RecordStoreDownDoesNotFailLogin(t *testing.T) {
	client := &fakeClient{}
	client.setIdentity(memberIdentity(), "token-1")

	manager, mr, cleanup := newTestManager(t, DefaultConfig(), client)
	defer cleanup()

	mr.SetError("connection refused")

	if err := manager.Login(context.Background(), "alice@example.com", "secret"); err != nil {
		t.Fatalf("login must succeed despite record store failure: %v", err)
	}
	if !manager.Session().Authenticated {
		t.Fatal("expected authenticated session")
	}
}

func TestRegister_Success(t *testing.T) {
	client := &fakeClient{}
	client.setIdentity(memberIdentity(), "token-1")

	manager, _, cleanup := newTestManager(t, DefaultConfig(), client)
	defer cleanup()

	err := manager.Register(context.Background(), RegisterInput{
		DisplayName: "Alice",
		Email:       "alice@example.com",
		Secret:      "secret",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if !manager.Session().Authenticated {
		t.Fatal("register must authenticate the new account")
	}
	if manager.State() != StateCheckedAuthenticated {
		t.Fatalf("unexpected state: %v", manager.State())
	}
}

func TestRegister_Duplicate(t *testing.T) {
	client := &fakeClient{registerErr: ErrAccountExists}
	client.setIdentity(memberIdentity(), "")

	manager, _, cleanup := newTestManager(t, DefaultConfig(), client)
	defer cleanup()

	err := manager.Register(context.Background(), RegisterInput{
		DisplayName: "Alice",
		Email:       "alice@example.com",
		Secret:      "secret",
	})
	if !errors.Is(err, ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
}

func TestRegister_EmptyInputRejectedLocally(t *testing.T) {
	client := &fakeClient{}
	client.setIdentity(memberIdentity(), "token-1")

	manager, _, cleanup := newTestManager(t, DefaultConfig(), client)
	defer cleanup()

	if err := manager.Register(context.Background(), RegisterInput{}); !errors.Is(err, ErrRegistrationInvalid) {
		t.Fatalf("expected ErrRegistrationInvalid, got %v", err)
	}
}
