package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/codegate/internal/gate/codec"
	"github.com/aussiebroadwan/codegate/internal/gate/domain"
	"github.com/aussiebroadwan/codegate/internal/gate/store"
	"github.com/aussiebroadwan/codegate/internal/gate/store/drivers/sqlite"
	"github.com/aussiebroadwan/codegate/pkg/cryptox"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	require.NoError(t, st.ApplyMigrations())

	return st
}

func newTestCodec(t *testing.T) *codec.Codec {
	t.Helper()

	c, err := codec.New([]byte("test-channel-key"))
	require.NoError(t, err)

	return c
}

func registerClient(t *testing.T, st store.Store, id, secret string, scopes []string) domain.Client {
	t.Helper()

	hash, err := cryptox.HashSecret(secret)
	require.NoError(t, err)

	now := time.Now().UTC()
	client := domain.Client{
		ID:         id,
		Name:       id,
		SecretHash: hash,
		Scopes:     scopes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, st.Clients().CreateClient(context.Background(), client))

	return client
}
