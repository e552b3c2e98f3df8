package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	authcore "github.com/communiversity/authcore"
	"github.com/google/uuid"
)

const maxResponseBody = 1 << 20

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPConfig defines a public type used by authcore APIs.
//
// HTTPConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HTTPConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	UserAgent      string
}

// HTTP is the JSON-over-REST implementation of [authcore.APIClient].
type HTTP struct {
	client    httpDoer
	serverURL *url.URL
	userAgent string
}

// NewHTTP creates an [HTTP] client for the content-platform API at
// cfg.BaseURL. A nil doer gets a default [http.Client] with the configured
// request timeout (default 10s).
func NewHTTP(cfg HTTPConfig, doer httpDoer) (*HTTP, error) {
	serverURL, err := url.Parse(cfg.BaseURL)
	if err != nil || serverURL.Scheme == "" || serverURL.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}

	if doer == nil {
		timeout := cfg.RequestTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		doer = &http.Client{Timeout: timeout}
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "communiversity-authcore"
	}

	return &HTTP{
		client:    doer,
		serverURL: serverURL,
		userAgent: userAgent,
	}, nil
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
}

type registerRequest struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	Secret      string `json:"secret"`
}

type authResponse struct {
	User  *authcore.Identity `json:"user"`
	Token string             `json:"token"`
}

type meResponse struct {
	User *authcore.Identity `json:"user"`
}

// Login describes the login operation and its observable behavior.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *HTTP) Login(ctx context.Context, identifier, secret string) (*authcore.Identity, string, error) {
	var out authResponse
	err := c.call(ctx, http.MethodPost, "auth/login", "", loginRequest{
		Identifier: identifier,
		Secret:     secret,
	}, &out)
	if err != nil {
		return nil, "", err
	}
	if out.User == nil {
		return nil, "", fmt.Errorf("%w: login response missing user", authcore.ErrServerFailure)
	}
	return out.User, out.Token, nil
}

// Register describes the register operation and its observable behavior.
//
// Register may return an error when input validation, dependency calls, or security checks fail.
// Register does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *HTTP) Register(ctx context.Context, input authcore.RegisterInput) (*authcore.Identity, string, error) {
	var out authResponse
	err := c.call(ctx, http.MethodPost, "auth/register", "", registerRequest{
		DisplayName: input.DisplayName,
		Email:       input.Email,
		Secret:      input.Secret,
	}, &out)
	if err != nil {
		return nil, "", err
	}
	if out.User == nil {
		return nil, "", fmt.Errorf("%w: register response missing user", authcore.ErrServerFailure)
	}
	return out.User, out.Token, nil
}

// Me describes the me operation and its observable behavior.
//
// Me may return an error when input validation, dependency calls, or security checks fail.
// Me does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *HTTP) Me(ctx context.Context, accessToken string) (*authcore.Identity, error) {
	var out meResponse
	if err := c.call(ctx, http.MethodGet, "auth/me", accessToken, nil, &out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, fmt.Errorf("%w: me response missing user", authcore.ErrServerFailure)
	}
	return out.User, nil
}

// Logout describes the logout operation and its observable behavior.
//
// Logout may return an error when input validation, dependency calls, or security checks fail.
// Logout does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *HTTP) Logout(ctx context.Context, accessToken string) error {
	return c.call(ctx, http.MethodPost, "auth/logout", accessToken, nil, nil)
}

func (c *HTTP) call(ctx context.Context, method, path, accessToken string, in, out any) error {
	target := c.serverURL.JoinPath(path)

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%w: %v", authcore.ErrServerFailure, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return fmt.Errorf("%w: %v", authcore.ErrServerFailure, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", authcore.ErrNetworkFailure, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if err := classifyStatus(path, resp.StatusCode); err != nil {
		return err
	}
	if out == nil {
		return nil
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("%w: %v", authcore.ErrNetworkFailure, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", authcore.ErrServerFailure, err)
	}

	return nil
}

func classifyStatus(path string, status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		// A rejected credential on login is user-correctable; everywhere
		// else it means the session is no longer honored.
		if path == "auth/login" {
			return authcore.ErrInvalidCredentials
		}
		return authcore.ErrUnauthorized
	case status == http.StatusConflict:
		return authcore.ErrAccountExists
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		if path == "auth/register" {
			return authcore.ErrRegistrationInvalid
		}
		return authcore.ErrInvalidCredentials
	case status >= 500:
		return fmt.Errorf("%w: status %d", authcore.ErrServerFailure, status)
	default:
		return fmt.Errorf("%w: unexpected status %d", authcore.ErrServerFailure, status)
	}
}
