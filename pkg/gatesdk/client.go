package gatesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal HTTP client for a codegate server. It is used by the
// e2e suite and is suitable for trusted gateway-side integrations.
type Client struct {
	baseURL    string
	httpClient *http.Client

	// AdminToken, when set, is sent as a bearer token on client-registry calls.
	AdminToken string
}

// NewClient creates a Client for the server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Authorize asks the server to issue a verification code for the given
// client/callback/scope on behalf of subject. The subject travels in the
// X-Authenticated-Subject header, standing in for the upstream identity
// gateway.
func (c *Client) Authorize(ctx context.Context, subject, clientID, callback string, scope []string, state string) (*AuthorizeResponse, error) {
	form := url.Values{}
	form.Set("response_type", "code")
	form.Set("client_id", clientID)
	form.Set("redirect_uri", callback)
	if len(scope) > 0 {
		form.Set("scope", strings.Join(scope, " "))
	}
	if state != "" {
		form.Set("state", state)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/oauth2/authorize", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Authenticated-Subject", subject)

	var out AuthorizeResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExchangeCode redeems a verification code for an access token.
func (c *Client) ExchangeCode(ctx context.Context, clientID, clientSecret, code, callback string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)
	form.Set("code", code)
	form.Set("redirect_uri", callback)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out TokenResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateClient registers a new client and returns its one-time secret.
func (c *Client) CreateClient(ctx context.Context, name string, scopes []string) (*CreateClientResponse, error) {
	body, err := json.Marshal(CreateClientRequest{Name: name, Scopes: scopes})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/clients", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAdminAuth(req)

	var out CreateClientResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListClients returns all registered clients.
func (c *Client) ListClients(ctx context.Context) ([]ClientInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/clients", nil)
	if err != nil {
		return nil, err
	}
	c.setAdminAuth(req)

	var out []ClientInfo
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteClient removes a registered client.
func (c *Client) DeleteClient(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/v1/clients/"+id, nil)
	if err != nil {
		return err
	}
	c.setAdminAuth(req)
	return c.do(req, nil)
}

// Livez reports basic process health.
func (c *Client) Livez(ctx context.Context) (*HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/livez", nil)
	if err != nil {
		return nil, err
	}

	var out HealthResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) setAdminAuth(req *http.Request) {
	if c.AdminToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AdminToken)
	}
}

// do executes the request, decoding into out on 2xx and into an OAuth2Error
// otherwise.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr ErrorResponse
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		if err := json.Unmarshal(data, &apiErr); err != nil || apiErr.Error == "" {
			return fmt.Errorf("gatesdk: unexpected status %d", resp.StatusCode)
		}
		return &OAuth2Error{
			StatusCode:  resp.StatusCode,
			Code:        apiErr.Error,
			Description: apiErr.ErrorDescription,
		}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
