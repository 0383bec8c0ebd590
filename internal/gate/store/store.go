// Package store defines the persistence boundary for the gate service.
// Drivers live under drivers/ and implement Store; the rest of the service
// only sees these interfaces.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/codegate/internal/gate/domain"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrAlreadyExists is returned when a unique constraint rejects a write.
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root persistence handle.
type Store interface {
	Clients() ClientRepository
	Nonces() NonceRepository

	// ApplyMigrations brings the schema up to date. Safe to call on every
	// startup.
	ApplyMigrations() error

	// Ping verifies the underlying database is reachable.
	Ping(ctx context.Context) error

	Close() error
}

// ClientRepository manages registered OAuth2 clients.
type ClientRepository interface {
	CreateClient(ctx context.Context, client domain.Client) error
	GetClientByID(ctx context.Context, id string) (domain.Client, error)
	ListClients(ctx context.Context) ([]domain.Client, error)
	UpdateClientSecretHash(ctx context.Context, id, secretHash string) error
	DeleteClient(ctx context.Context, id string) error
}

// NonceRepository is the linearizable check-and-set ledger of consumed
// verification-code nonces.
type NonceRepository interface {
	// StoreNonce records (context, nonce) and reports whether this call was
	// the first to do so. Concurrent calls with the same pair observe exactly
	// one true result; every later call observes false. A false result is
	// not an error.
	StoreNonce(ctx context.Context, nonceContext, nonce string, createdAt time.Time) (bool, error)

	// DeleteExpiredNonces drops entries created before olderThan and returns
	// how many were removed. Entries may only be dropped once any code
	// carrying them is guaranteed expired.
	DeleteExpiredNonces(ctx context.Context, olderThan time.Time) (int64, error)
}
