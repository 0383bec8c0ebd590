package domain

import "time"

// Client is a registered OAuth2 client. It authenticates at redemption with
// the secret whose argon2id hash is stored here; this service never holds
// the plaintext after registration.
type Client struct {
	ID         string
	Name       string
	SecretHash string
	Scopes     []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
