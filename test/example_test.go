package test

import (
	"context"

	authcore "github.com/communiversity/authcore"
	"github.com/communiversity/authcore/apiclient"
	"github.com/redis/go-redis/v9"
)

// ExampleNew demonstrates manager construction with production-style dependencies.
func ExampleNew() {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})
	api, _ := apiclient.NewHTTP(apiclient.HTTPConfig{BaseURL: "https://api.communiversity.example"}, nil)

	manager, _ := authcore.New().
		WithRedis(rdb).
		WithAPIClient(api).
		Build()
	_ = manager
}

// ExampleManager_Login shows a typical login call and structured error handling.
func ExampleManager_Login() {
	var manager *authcore.Manager
	err := manager.Login(context.Background(), "alice@example.com", "password")
	if err != nil {
		_ = err
	}
}

// ExampleManager_CheckAuth shows settling the session before routing.
func ExampleManager_CheckAuth() {
	var manager *authcore.Manager
	if err := manager.CheckAuth(context.Background()); err != nil {
		_ = err
	}
	session := manager.Session()
	_ = session.Authenticated
}
