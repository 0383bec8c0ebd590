// Package codec seals VerificationCode values into opaque tamper-evident
// token strings and reverses the operation. The byte layout is an internal
// contract between Encode and Decode and carries no cross-version stability
// promise.
package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aussiebroadwan/codegate/internal/gate/domain"
)

var (
	// ErrMalformed reports a token whose structure cannot be parsed.
	ErrMalformed = errors.New("codec: malformed verification code")

	// ErrTampered reports a token whose authentication tag failed. Any bit
	// modification of a sealed token lands here.
	ErrTampered = errors.New("codec: verification code failed integrity check")
)

// Codec seals and opens verification codes with AES-256-GCM under a
// per-channel key. The context label is bound as additional authenticated
// data, so a token sealed for another message kind can never open as a
// verification code.
//
// Sealed layout before base64url encoding: [12-byte nonce][ciphertext][tag].
type Codec struct {
	aead cipher.AEAD
}

// New derives a 32-byte AES key from the given key material via SHA-256 and
// returns a ready Codec. Every server instance sharing the same key material
// can open each other's codes.
func New(keyMaterial []byte) (*Codec, error) {
	if len(keyMaterial) == 0 {
		return nil, errors.New("codec: empty key material")
	}

	key := sha256.Sum256(keyMaterial)

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("codec: create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("codec: create GCM: %w", err)
	}

	return &Codec{aead: aead}, nil
}

// Encode serializes the code and seals it. The output is an opaque
// base64url string; scope and user are not recoverable without the key.
func (c *Codec) Encode(code domain.VerificationCode) (string, error) {
	payload, err := json.Marshal(code)
	if err != nil {
		return "", fmt.Errorf("codec: marshal verification code: %w", err)
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("codec: generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, payload, []byte(domain.NonceContext))

	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decode opens a sealed token and reconstructs the VerificationCode.
// Returns ErrMalformed for structurally broken tokens and ErrTampered when
// the authentication tag does not verify. No field of the payload is read
// before the tag has been verified.
func (c *Codec) Decode(token string) (domain.VerificationCode, error) {
	sealed, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return domain.VerificationCode{}, ErrMalformed
	}

	nonceSize := c.aead.NonceSize()
	if len(sealed) < nonceSize+c.aead.Overhead() {
		return domain.VerificationCode{}, ErrMalformed
	}

	nonce, ciphertext := sealed[:nonceSize], sealed[nonceSize:]

	payload, err := c.aead.Open(nil, nonce, ciphertext, []byte(domain.NonceContext))
	if err != nil {
		return domain.VerificationCode{}, ErrTampered
	}

	var code domain.VerificationCode
	if err := json.Unmarshal(payload, &code); err != nil {
		return domain.VerificationCode{}, ErrMalformed
	}

	return code, nil
}
