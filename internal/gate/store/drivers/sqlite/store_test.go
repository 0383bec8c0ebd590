package sqlite

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/codegate/internal/gate/domain"
	"github.com/aussiebroadwan/codegate/internal/gate/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.ApplyMigrations())

	return s
}

func TestStore_Ping(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Ping(context.Background()))
}

func TestStore_MigrationsIdempotent(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.ApplyMigrations())
}

func TestClients_CreateAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	client := domain.Client{
		ID:         "client-1",
		Name:       "Test App",
		SecretHash: "$argon2id$fake",
		Scopes:     []string{"profile:read", "drinks:order"},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	require.NoError(t, s.Clients().CreateClient(ctx, client))

	got, err := s.Clients().GetClientByID(ctx, "client-1")
	require.NoError(t, err)
	require.Equal(t, client.ID, got.ID)
	require.Equal(t, client.Name, got.Name)
	require.Equal(t, client.SecretHash, got.SecretHash)
	require.Equal(t, client.Scopes, got.Scopes)
	require.True(t, now.Equal(got.CreatedAt))
}

func TestClients_DuplicateIDRejected(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	client := domain.Client{ID: "client-1", Name: "A", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, s.Clients().CreateClient(ctx, client))

	err := s.Clients().CreateClient(ctx, client)
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestClients_GetMissing(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Clients().GetClientByID(context.Background(), "nope")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestClients_List(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i, id := range []string{"client-a", "client-b", "client-c"} {
		ts := base.Add(time.Duration(i) * time.Second)
		require.NoError(t, s.Clients().CreateClient(ctx, domain.Client{
			ID: id, Name: id, CreatedAt: ts, UpdatedAt: ts,
		}))
	}

	clients, err := s.Clients().ListClients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 3)
	require.Equal(t, "client-a", clients[0].ID)
	require.Equal(t, "client-c", clients[2].ID)
}

func TestClients_UpdateSecretHash(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, s.Clients().CreateClient(ctx, domain.Client{
		ID: "client-1", Name: "A", SecretHash: "old", CreatedAt: now, UpdatedAt: now,
	}))

	require.NoError(t, s.Clients().UpdateClientSecretHash(ctx, "client-1", "new"))

	got, err := s.Clients().GetClientByID(ctx, "client-1")
	require.NoError(t, err)
	require.Equal(t, "new", got.SecretHash)

	err = s.Clients().UpdateClientSecretHash(ctx, "missing", "x")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestClients_Delete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, s.Clients().CreateClient(ctx, domain.Client{
		ID: "client-1", Name: "A", CreatedAt: now, UpdatedAt: now,
	}))

	require.NoError(t, s.Clients().DeleteClient(ctx, "client-1"))

	_, err := s.Clients().GetClientByID(ctx, "client-1")
	require.ErrorIs(t, err, store.ErrNotFound)

	err = s.Clients().DeleteClient(ctx, "client-1")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestNonces_FirstWinsSecondLoses(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	fresh, err := s.Nonces().StoreNonce(ctx, domain.NonceContext, "nonce-1", now)
	require.NoError(t, err)
	require.True(t, fresh)

	fresh, err = s.Nonces().StoreNonce(ctx, domain.NonceContext, "nonce-1", now)
	require.NoError(t, err)
	require.False(t, fresh)
}

func TestNonces_ContextsAreIndependent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	fresh, err := s.Nonces().StoreNonce(ctx, "ContextA", "nonce-1", now)
	require.NoError(t, err)
	require.True(t, fresh)

	fresh, err = s.Nonces().StoreNonce(ctx, "ContextB", "nonce-1", now)
	require.NoError(t, err)
	require.True(t, fresh)
}

func TestNonces_ConcurrentStoreExactlyOneWinner(t *testing.T) {
	s := openTestStore(t)
	now := time.Now()

	const workers = 16

	var (
		wins int64
		wg   sync.WaitGroup
	)
	errs := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fresh, err := s.Nonces().StoreNonce(context.Background(), domain.NonceContext, "contested", now)
			if err != nil {
				errs <- err
				return
			}
			if fresh {
				atomic.AddInt64(&wins, 1)
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, int64(1), wins)
}

func TestNonces_DeleteExpired(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Second)

	_, err := s.Nonces().StoreNonce(ctx, domain.NonceContext, "old", now.Add(-time.Hour))
	require.NoError(t, err)
	_, err = s.Nonces().StoreNonce(ctx, domain.NonceContext, "recent", now)
	require.NoError(t, err)

	deleted, err := s.Nonces().DeleteExpiredNonces(ctx, now.Add(-10*time.Minute))
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)

	// The surviving nonce is still a replay.
	fresh, err := s.Nonces().StoreNonce(ctx, domain.NonceContext, "recent", now)
	require.NoError(t, err)
	require.False(t, fresh)

	// The purged nonce can be recorded again.
	fresh, err = s.Nonces().StoreNonce(ctx, domain.NonceContext, "old", now)
	require.NoError(t, err)
	require.True(t, fresh)
}
