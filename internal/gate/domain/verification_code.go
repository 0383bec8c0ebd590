package domain

import "time"

// NonceContext scopes verification-code nonces inside the shared nonce
// store, so they cannot collide with nonces recorded by unrelated protocol
// messages using the same store.
const NonceContext = "VerificationCode"

// VerificationCode is the single-use grant handed to a client after a user
// authorizes access, later exchanged for an access token. It is a value
// object: immutable once encoded. Redemption consumes its nonce in the nonce
// store, it never mutates the code itself.
type VerificationCode struct {
	// Callback is the redirect URI the client declared for this
	// authorization. Redemption must present the exact same value.
	Callback string `json:"cb"`

	// Scope holds the granted permission strings. Order-irrelevant and
	// duplicates tolerated at this layer.
	Scope []string `json:"scope,omitempty"`

	// AuthorizingUser identifies the end user who approved the grant.
	AuthorizingUser string `json:"sub"`

	// CreatedAt is the UTC issuance instant, the start of the validity
	// window.
	CreatedAt time.Time `json:"iat"`

	// Nonce is a unique unpredictable token generated at issuance, the sole
	// key used for replay detection.
	Nonce string `json:"nonce"`
}

// ExpiresAt returns the hard expiry instant for the given maximum message
// age. Codes are valid up to and including this instant and rejected
// strictly after it.
func (c VerificationCode) ExpiresAt(maxAge time.Duration) time.Time {
	return c.CreatedAt.Add(maxAge)
}

// ExpiredAt reports whether the code is past its validity window at now.
func (c VerificationCode) ExpiredAt(now time.Time, maxAge time.Duration) bool {
	return now.After(c.ExpiresAt(maxAge))
}
