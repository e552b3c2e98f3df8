package authcore

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
)

func TestLogout_ClearsSessionAndRecord(t *testing.T) {
	client := &fakeClient{}
	client.setIdentity(memberIdentity(), "token-1")

	manager, _, cleanup := newTestManager(t, DefaultConfig(), client)
	defer cleanup()

	if err := manager.Login(context.Background(), "alice@example.com", "secret"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := manager.Logout(context.Background()); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	sess := manager.Session()
	if sess.Authenticated || sess.UserID != "" {
		t.Fatalf("logout must clear the session, got %+v", sess)
	}
	if !sess.Checked {
		t.Fatal("logout settles the session as checked anonymous")
	}
	if manager.State() != StateCheckedAnonymous {
		t.Fatalf("unexpected state: %v", manager.State())
	}

	if _, _, err := manager.records.Load(context.Background()); !errors.Is(err, redis.Nil) {
		t.Fatalf("record must be deleted, got %v", err)
	}
	if client.logoutCalls.Load() != 1 {
		t.Fatalf("expected one API logout call, got %d", client.logoutCalls.Load())
	}
}

func TestLogout_RemoteFailureStillEndsLocalSession(t *testing.T) {
	client := &fakeClient{logoutErr: ErrNetworkFailure}
	client.setIdentity(memberIdentity(), "token-1")

	manager, _, cleanup := newTestManager(t, DefaultConfig(), client)
	defer cleanup()

	if err := manager.Login(context.Background(), "alice@example.com", "secret"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	err := manager.Logout(context.Background())
	if !errors.Is(err, ErrNetworkFailure) {
		t.Fatalf("remote failure should be reported, got %v", err)
	}

	if manager.Session().Authenticated {
		t.Fatal("local session must end despite the remote failure")
	}
}

func TestLogout_Idempotent(t *testing.T) {
	client := &fakeClient{}
	client.setIdentity(memberIdentity(), "token-1")

	manager, _, cleanup := newTestManager(t, DefaultConfig(), client)
	defer cleanup()

	if err := manager.Logout(context.Background()); err != nil {
		t.Fatalf("logout without a session must be clean: %v", err)
	}
	if err := manager.Logout(context.Background()); err != nil {
		t.Fatalf("repeated logout must be clean: %v", err)
	}
	if manager.State() != StateCheckedAnonymous {
		t.Fatalf("unexpected state: %v", manager.State())
	}
}

func TestLogout_ThenCheckAuthStaysAnonymous(t *testing.T) {
	client := &fakeClient{}
	client.setIdentity(memberIdentity(), "token-1")

	manager, _, cleanup := newTestManager(t, DefaultConfig(), client)
	defer cleanup()

	if err := manager.Login(context.Background(), "alice@example.com", "secret"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := manager.Logout(context.Background()); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	before := client.meCalls.Load()
	if err := manager.CheckAuth(context.Background()); err != nil {
		t.Fatalf("CheckAuth failed: %v", err)
	}
	if client.meCalls.Load() != before {
		t.Fatal("settled anonymous state must not trigger an API call")
	}
	if manager.Session().Authenticated {
		t.Fatal("expected anonymous session after logout")
	}
}
