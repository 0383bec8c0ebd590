package service

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/codegate/internal/gate/domain"
	"github.com/aussiebroadwan/codegate/internal/gate/store"
	"github.com/aussiebroadwan/codegate/pkg/cryptox"
	"github.com/aussiebroadwan/codegate/pkg/idx"
	"github.com/aussiebroadwan/codegate/pkg/slogx"
)

// ClientService manages the registry of OAuth2 clients.
type ClientService struct {
	store store.Store
	now   func() time.Time
}

func NewClientService(st store.Store) *ClientService {
	return &ClientService{store: st, now: time.Now}
}

// CreatedClient carries the one-time plaintext secret back to the caller.
// Only the argon2id hash is persisted.
type CreatedClient struct {
	Client domain.Client
	Secret string
}

// CreateClient registers a client with a generated id and secret. The
// returned secret is shown exactly once.
func (s *ClientService) CreateClient(ctx context.Context, name string, scopes []string) (CreatedClient, error) {
	secret, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return CreatedClient{}, fmt.Errorf("generate client secret: %w", err)
	}

	hash, err := cryptox.HashSecret(secret)
	if err != nil {
		return CreatedClient{}, fmt.Errorf("hash client secret: %w", err)
	}

	now := s.now().UTC()
	client := domain.Client{
		ID:         idx.New().String(),
		Name:       name,
		SecretHash: hash,
		Scopes:     scopes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.store.Clients().CreateClient(ctx, client); err != nil {
		return CreatedClient{}, fmt.Errorf("persist client: %w", err)
	}

	slogx.FromContext(ctx).Info("client registered",
		"client_id", client.ID,
		"name", client.Name,
		"scopes", client.Scopes,
	)

	return CreatedClient{Client: client, Secret: secret}, nil
}

func (s *ClientService) GetClient(ctx context.Context, id string) (domain.Client, error) {
	return s.store.Clients().GetClientByID(ctx, id)
}

func (s *ClientService) ListClients(ctx context.Context) ([]domain.Client, error) {
	return s.store.Clients().ListClients(ctx)
}

// RotateClientSecret replaces the client's secret and returns the new
// plaintext once.
func (s *ClientService) RotateClientSecret(ctx context.Context, id string) (string, error) {
	secret, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", fmt.Errorf("generate client secret: %w", err)
	}

	hash, err := cryptox.HashSecret(secret)
	if err != nil {
		return "", fmt.Errorf("hash client secret: %w", err)
	}

	if err := s.store.Clients().UpdateClientSecretHash(ctx, id, hash); err != nil {
		return "", err
	}

	slogx.FromContext(ctx).Info("client secret rotated", "client_id", id)

	return secret, nil
}

func (s *ClientService) DeleteClient(ctx context.Context, id string) error {
	if err := s.store.Clients().DeleteClient(ctx, id); err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("client deleted", "client_id", id)

	return nil
}
