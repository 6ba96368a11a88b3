// Package cpanel talks to the hosting control panel that owns tenant
// database infrastructure.
package cpanel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"
)

// Sentinel errors for control-panel failures.
var (
	ErrPanelUnreachable = errors.New("control panel unreachable")
	ErrPanelDenied      = errors.New("control panel denied request")
	ErrPanelTimeout     = errors.New("control panel timeout")
)

// Client is the interface for provisioning tenant database infrastructure.
type Client interface {
	// CreateDatabase provisions an isolated database and a database user
	// with the given password scoped to it.
	CreateDatabase(ctx context.Context, name, user, password string) error
	// AllowRemoteAccess whitelists a host (or "%" for all hosts) for remote
	// connections to databases on the account.
	AllowRemoteAccess(ctx context.Context, host string) error
	// GrantPrivilegedUser attaches a pre-existing operational user to the
	// database so internal tooling can access it without per-tenant
	// credential management.
	GrantPrivilegedUser(ctx context.Context, database, user string) error
}

// HTTPClient implements Client against the control panel's JSON API.
type HTTPClient struct {
	baseURL  string
	username string
	password string
	client   *http.Client
}

// NewHTTPClient creates a new control-panel HTTP client.
func NewHTTPClient(baseURL, username, password string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:  baseURL,
		username: username,
		password: password,
		client:   &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) CreateDatabase(ctx context.Context, name, user, password string) error {
	return c.post(ctx, "/api/v1/databases", map[string]string{
		"name":     name,
		"user":     user,
		"password": password,
	})
}

func (c *HTTPClient) AllowRemoteAccess(ctx context.Context, host string) error {
	return c.post(ctx, "/api/v1/remote-access", map[string]string{
		"host": host,
	})
}

func (c *HTTPClient) GrantPrivilegedUser(ctx context.Context, database, user string) error {
	path := fmt.Sprintf("/api/v1/databases/%s/users", url.PathEscape(database))
	return c.post(ctx, path, map[string]string{
		"user": user,
	})
}

// panelResponse is the control panel's uniform response envelope.
type panelResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func (c *HTTPClient) post(ctx context.Context, path string, body map[string]string) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.username != "" && c.password != "" {
		httpReq.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: status %d", ErrPanelDenied, resp.StatusCode)
	}

	var panelResp panelResponse
	if err := json.NewDecoder(resp.Body).Decode(&panelResp); err != nil {
		return fmt.Errorf("decoding panel response: %w", err)
	}

	if !panelResp.Success {
		if panelResp.Error != "" {
			return errors.New(panelResp.Error)
		}
		return fmt.Errorf("panel request failed: status %d", resp.StatusCode)
	}
	return nil
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrPanelTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrPanelTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrPanelUnreachable, err)
	}

	return fmt.Errorf("%w: %v", ErrPanelUnreachable, err)
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
