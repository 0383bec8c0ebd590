package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/codegate/internal/gate/domain"
	"github.com/aussiebroadwan/codegate/internal/gate/store"
)

type clientRepository struct {
	db *sql.DB
}

func (r *clientRepository) CreateClient(ctx context.Context, client domain.Client) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO clients (id, name, secret_hash, scopes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		client.ID,
		client.Name,
		client.SecretHash,
		strings.Join(client.Scopes, " "),
		client.CreatedAt.Unix(),
		client.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: create client: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: create client: %w", err)
	}
	if n == 0 {
		return store.ErrAlreadyExists
	}

	return nil
}

func (r *clientRepository) GetClientByID(ctx context.Context, id string) (domain.Client, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, secret_hash, scopes, created_at, updated_at
		FROM clients
		WHERE id = ?`, id)

	client, err := scanClient(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Client{}, store.ErrNotFound
		}
		return domain.Client{}, fmt.Errorf("sqlite: get client: %w", err)
	}

	return client, nil
}

func (r *clientRepository) ListClients(ctx context.Context) ([]domain.Client, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, secret_hash, scopes, created_at, updated_at
		FROM clients
		ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list clients: %w", err)
	}
	defer rows.Close()

	var clients []domain.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: list clients: %w", err)
		}
		clients = append(clients, client)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list clients: %w", err)
	}

	return clients, nil
}

func (r *clientRepository) UpdateClientSecretHash(ctx context.Context, id, secretHash string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE clients
		SET secret_hash = ?, updated_at = ?
		WHERE id = ?`,
		secretHash, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("sqlite: update client secret: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: update client secret: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}

	return nil
}

func (r *clientRepository) DeleteClient(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete client: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: delete client: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (domain.Client, error) {
	var (
		client    domain.Client
		scopes    string
		createdAt int64
		updatedAt int64
	)

	err := row.Scan(&client.ID, &client.Name, &client.SecretHash, &scopes, &createdAt, &updatedAt)
	if err != nil {
		return domain.Client{}, err
	}

	client.Scopes = strings.Fields(scopes)
	client.CreatedAt = time.Unix(createdAt, 0).UTC()
	client.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	return client, nil
}
