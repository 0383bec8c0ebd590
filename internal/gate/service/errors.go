package service

import "errors"

// Service-level sentinel errors. HTTP handlers map these onto OAuth2 wire
// errors; the distinction between ErrInvalidClient and
// ErrInvalidClientCredentials exists for logs only and is collapsed to
// invalid_client on the wire.
var (
	ErrInvalidClient            = errors.New("unknown client")
	ErrInvalidClientCredentials = errors.New("invalid client credentials")

	// ErrInvalidGrant covers verification codes that are malformed or fail
	// their integrity check.
	ErrInvalidGrant = errors.New("invalid verification code")

	ErrCallbackMismatch = errors.New("callback does not match issued code")
	ErrExpiredGrant     = errors.New("verification code expired")
	ErrReplayedGrant    = errors.New("verification code already redeemed")

	ErrInvalidScope   = errors.New("requested scope exceeds client registration")
	ErrMissingSubject = errors.New("no authorizing user on request")

	ErrUnsupportedGrantType = errors.New("unsupported grant type")
)
