package gatesdk

import "time"

// ErrorResponse represents a standard OAuth2 error response per RFC 6749,
// used for parsing HTTP error bodies. Client code should prefer the
// OAuth2Error values from errors.go.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// AuthorizeResponse is returned from POST /v1/oauth2/authorize. The upstream
// gateway is responsible for folding code and state into the client redirect.
type AuthorizeResponse struct {
	// Code is the opaque single-use verification code.
	Code string `json:"code"`

	// State echoes the client-provided CSRF state, if any.
	State string `json:"state,omitempty"`
}

// TokenResponse represents the OAuth2 token endpoint response per RFC 6749.
type TokenResponse struct {
	// AccessToken is the JWT access token used to authenticate API requests
	AccessToken string `json:"access_token"`

	// TokenType is always "Bearer" per OAuth2 spec
	TokenType string `json:"token_type"`

	// ExpiresIn is the lifetime in seconds of the access token
	ExpiresIn int `json:"expires_in"`

	// Scope is the space-delimited list of scopes granted to this token
	Scope string `json:"scope,omitempty"`
}

// ClientInfo describes a registered client. SecretHash never leaves the
// server; the plaintext secret appears only in CreateClientResponse.
type ClientInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Scopes    []string  `json:"scopes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateClientRequest registers a new client.
type CreateClientRequest struct {
	Name   string   `json:"name"`
	Scopes []string `json:"scopes"`
}

// CreateClientResponse carries the one-time plaintext secret.
type CreateClientResponse struct {
	Client ClientInfo `json:"client"`
	Secret string     `json:"secret"`
}

// HealthResponse is returned from the livez/readyz endpoints.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}
