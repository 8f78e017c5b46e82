// Package client is the Go client of the drip HTTP API. Mutating calls are
// signed with the caller's ed25519 key.
package client

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	faucethandler "drip/internal/faucet/handler"
	"drip/pkg/domain"
	"drip/pkg/platform/httputil"
	"drip/pkg/platform/middleware/auth"
)

const defaultTimeout = 30 * time.Second

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status int
	httputil.ErrorResponse
	// RetryAfter is set from the Retry-After header, when present.
	RetryAfter string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%d %s", e.Status, e.ErrorResponse.Error)
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	if e.ErrorDescription != "" {
		msg += ": " + e.ErrorDescription
	}
	if e.RetryAfter != "" {
		msg += ", retry after " + e.RetryAfter + "s"
	}
	return msg
}

type Client struct {
	baseURL string
	http    *http.Client
	key     ed25519.PrivateKey
	now     func() time.Time
}

type Option func(*Client)

// WithKey sets the signing key. Without it only reads work.
func WithKey(key ed25519.PrivateKey) Option {
	return func(c *Client) { c.key = key }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func New(server string, opts ...Option) *Client {
	base := strings.TrimRight(server, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	c := &Client{
		baseURL: base,
		http:    &http.Client{Timeout: defaultTimeout},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Identity is the address of the signing key.
func (c *Client) Identity() (domain.Address, error) {
	if c.key == nil {
		return domain.Address{}, errors.New("no signing key configured")
	}
	return domain.AddressFromBytes(c.key.Public().(ed25519.PublicKey))
}

func (c *Client) Register(ctx context.Context, proof string) (*faucethandler.UserResponse, error) {
	var out faucethandler.UserResponse
	err := c.do(ctx, http.MethodPost, "/v1/users", faucethandler.RegisterRequest{Proof: proof}, true, &out)
	return &out, err
}

// Claim mints the accrued amount. mint may be empty.
func (c *Client) Claim(ctx context.Context, proof, mint string) (*faucethandler.ClaimResponse, error) {
	var out faucethandler.ClaimResponse
	err := c.do(ctx, http.MethodPost, "/v1/claims", faucethandler.ClaimRequest{Proof: proof, TokenMint: mint}, true, &out)
	return &out, err
}

// SetExempt hands the exempt role to identity; empty clears it.
func (c *Client) SetExempt(ctx context.Context, identity string) (*faucethandler.ConfigResponse, error) {
	var out faucethandler.ConfigResponse
	err := c.do(ctx, http.MethodPut, "/v1/config/exempt", faucethandler.SetExemptRequest{Identity: identity}, true, &out)
	return &out, err
}

func (c *Client) Config(ctx context.Context) (*faucethandler.ConfigResponse, error) {
	var out faucethandler.ConfigResponse
	err := c.do(ctx, http.MethodGet, "/v1/config", nil, false, &out)
	return &out, err
}

func (c *Client) User(ctx context.Context, identity domain.Address) (*faucethandler.UserStatusResponse, error) {
	var out faucethandler.UserStatusResponse
	err := c.do(ctx, http.MethodGet, "/v1/users/"+identity.String(), nil, false, &out)
	return &out, err
}

func (c *Client) Balance(ctx context.Context, identity domain.Address) (*faucethandler.BalanceResponse, error) {
	var out faucethandler.BalanceResponse
	err := c.do(ctx, http.MethodGet, "/v1/users/"+identity.String()+"/balance", nil, false, &out)
	return &out, err
}

func (c *Client) do(ctx context.Context, method, path string, body any, sign bool, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sign {
		if c.key == nil {
			return errors.New("no signing key configured")
		}
		if err := auth.Sign(req, c.key, c.now()); err != nil {
			return fmt.Errorf("sign request: %w", err)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode, RetryAfter: resp.Header.Get("Retry-After")}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr.ErrorResponse); err != nil {
			apiErr.ErrorResponse.Error = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
