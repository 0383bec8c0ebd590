package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type nonceRepository struct {
	db *sql.DB
}

// StoreNonce inserts (context, nonce) and reports whether this call won.
// The primary key on (context, nonce) plus ON CONFLICT DO NOTHING makes the
// check and the set a single atomic statement, so concurrent redeemers of
// the same code observe exactly one true result.
func (r *nonceRepository) StoreNonce(ctx context.Context, nonceContext, nonce string, createdAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO nonces (context, nonce, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (context, nonce) DO NOTHING`,
		nonceContext, nonce, createdAt.Unix())
	if err != nil {
		return false, fmt.Errorf("sqlite: store nonce: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: store nonce: %w", err)
	}

	return n == 1, nil
}

func (r *nonceRepository) DeleteExpiredNonces(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM nonces WHERE created_at < ?`, olderThan.Unix())
	if err != nil {
		return 0, fmt.Errorf("sqlite: delete expired nonces: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: delete expired nonces: %w", err)
	}

	return n, nil
}
