package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	retryablehttp "github.com/hashicorp/go-retryablehttp"
)

// LoginResult is the identity service's response to a successful login.
type LoginResult struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// Client is the identity-service surface the session core depends on.
type Client interface {
	// Login verifies credentials and returns the user together with a fresh
	// bearer token. Rejected credentials fail with ErrInvalidCredentials.
	Login(ctx context.Context, email, password string, rememberMe bool) (*LoginResult, error)

	// Logout notifies the service that the token's session ended. Failure is
	// non-fatal to the caller's local cleanup.
	Logout(ctx context.Context, token string) error

	// FetchUser resolves the user behind the token. A revoked or stale token
	// fails with ErrUnauthorized.
	FetchUser(ctx context.Context, token string, id uuid.UUID) (*User, error)
}

// Config provides connection details for the identity service.
type Config struct {
	// BaseURL of the identity API, e.g. "https://api.example.com/v1".
	BaseURL string `env:"IDENTITY_API_URL"`
	// RequestTimeout bounds a single HTTP attempt.
	RequestTimeout time.Duration `env:"IDENTITY_REQUEST_TIMEOUT" envDefault:"10s"`
	// RetryMax limits retries of transient failures. Zero disables retrying.
	RetryMax int `env:"IDENTITY_RETRY_MAX" envDefault:"2"`
}

// HTTPClient implements Client against a JSON HTTP API.
type HTTPClient struct {
	baseURL *url.URL
	http    *retryablehttp.Client
}

// NewHTTPClient creates an identity client for the configured endpoint.
func NewHTTPClient(cfg Config) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, ErrMissingEndpoint
	}

	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid identity service URL: %w", err)
	}
	if !strings.HasSuffix(baseURL.Path, "/") {
		baseURL.Path += "/"
	}

	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}

	client := retryablehttp.NewClient()
	client.Logger = nil
	client.RetryMax = cfg.RetryMax
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = cfg.RequestTimeout

	return &HTTPClient{
		baseURL: baseURL,
		http:    client,
	}, nil
}

// Login verifies credentials against POST auth/login.
func (c *HTTPClient) Login(ctx context.Context, email, password string, rememberMe bool) (*LoginResult, error) {
	body := struct {
		Email      string `json:"email"`
		Password   string `json:"password"`
		RememberMe bool   `json:"remember_me"`
	}{email, password, rememberMe}

	var result LoginResult
	if err := c.do(ctx, http.MethodPost, "auth/login", "", body, &result); err != nil {
		// On the login endpoint a 401 means rejected credentials, not a
		// stale token.
		if errors.Is(err, ErrUnauthorized) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if result.User == nil || result.Token == "" {
		return nil, fmt.Errorf("%w: incomplete login response", ErrRequestFailed)
	}
	return &result, nil
}

// Logout notifies POST auth/logout with the bearer token.
func (c *HTTPClient) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "auth/logout", token, nil, nil)
}

// FetchUser resolves GET users/{id} with the bearer token.
func (c *HTTPClient) FetchUser(ctx context.Context, token string, id uuid.UUID) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "users/"+id.String(), token, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// do executes one JSON request against the identity API, mapping status codes
// to the package error taxonomy.
func (c *HTTPClient) do(ctx context.Context, method, path, token string, in, out any) error {
	u, err := c.baseURL.Parse(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrRequestFailed, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return fmt.Errorf("%w: %w", ErrRequestFailed, err)
		}
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %w", ErrRequestFailed, err)
	}
	return nil
}

// checkResponse maps non-2xx responses to sentinel errors. The body's
// "message" field, when present, is carried into the error text.
func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrUserNotFound
	}

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Message != "" {
		return fmt.Errorf("%w: %s", ErrRequestFailed, payload.Message)
	}
	return fmt.Errorf("%w: %s", ErrRequestFailed, resp.Status)
}
