package activations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/enraizado/internal/common"
	"github.com/dmitrijs2005/enraizado/internal/dbx"
	"github.com/dmitrijs2005/enraizado/internal/server/models"
)

const tokenColumns = `id, token, user_id, expires_at, used_at, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanToken(row *sql.Row) (*models.ActivationToken, error) {
	t := &models.ActivationToken{}
	if err := row.Scan(&t.ID, &t.Token, &t.UserID, &t.ExpiresAt, &t.UsedAt, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) Create(ctx context.Context, userID, token string, expiresAt time.Time) (*models.ActivationToken, error) {
	query :=
		`INSERT INTO user_activation_tokens (token, user_id, expires_at)
		 VALUES ($1, $2, $3)
		 RETURNING ` + tokenColumns

	return scanToken(r.db.QueryRowContext(ctx, query, token, userID, expiresAt))
}

func (r *PostgresRepository) FindValidByToken(ctx context.Context, token string) (*models.ActivationToken, error) {
	query :=
		`SELECT ` + tokenColumns + `
		 FROM user_activation_tokens
		 WHERE token = $1 AND expires_at > NOW() AND used_at IS NULL
		 LIMIT 1`

	return scanToken(r.db.QueryRowContext(ctx, query, token))
}

// MarkUsed consumes the token. A token already consumed by a concurrent
// request yields common.ErrorNotFound.
func (r *PostgresRepository) MarkUsed(ctx context.Context, id string) (*models.ActivationToken, error) {
	query :=
		`UPDATE user_activation_tokens
		 SET used_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND used_at IS NULL
		 RETURNING ` + tokenColumns

	return scanToken(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) DeleteByUserID(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_activation_tokens WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CountUsed(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_activation_tokens WHERE used_at IS NOT NULL`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
