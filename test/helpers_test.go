//go:build integration
// +build integration

package test

import (
	"testing"
	"time"

	"github.com/communiversity/authcore/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newIntegrationStore(t *testing.T) (*session.Store, *redis.Client, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := session.NewStore(rdb, "cv", "default")

	return store, rdb, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func makeRecord(userID string) *session.Record {
	now := time.Now()

	return &session.Record{
		SchemaVersion: session.CurrentSchemaVersion,
		UserID:        userID,
		DisplayName:   "User " + userID,
		Email:         userID + "@example.com",
		Role:          "user",
		IssuedAt:      now.Unix(),
		ExpiresAt:     now.Add(time.Hour).Unix(),
	}
}
