package sessions

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

const sessionColumns = `id, token, user_id, expires_at, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanSession(row *sql.Row) (*models.Session, error) {
	s := &models.Session{}
	if err := row.Scan(&s.ID, &s.Token, &s.UserID, &s.ExpiresAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) Create(ctx context.Context, userID, token string, expiresAt time.Time) (*models.Session, error) {
	query :=
		`INSERT INTO sessions (token, user_id, expires_at)
		 VALUES ($1, $2, $3)
		 RETURNING ` + sessionColumns

	return scanSession(r.db.QueryRowContext(ctx, query, token, userID, expiresAt))
}

func (r *PostgresRepository) FindValidByToken(ctx context.Context, token string) (*models.Session, error) {
	query :=
		`SELECT ` + sessionColumns + `
		 FROM sessions
		 WHERE token = $1 AND expires_at > NOW()
		 LIMIT 1`

	return scanSession(r.db.QueryRowContext(ctx, query, token))
}

func (r *PostgresRepository) Renew(ctx context.Context, id string, expiresAt time.Time) (*models.Session, error) {
	query :=
		`UPDATE sessions
		 SET expires_at = $2, updated_at = NOW()
		 WHERE id = $1
		 RETURNING ` + sessionColumns

	return scanSession(r.db.QueryRowContext(ctx, query, id, expiresAt))
}

func (r *PostgresRepository) DeleteByToken(ctx context.Context, token string) (*models.Session, error) {
	query := `DELETE FROM sessions WHERE token = $1 RETURNING ` + sessionColumns
	return scanSession(r.db.QueryRowContext(ctx, query, token))
}

func (r *PostgresRepository) DeleteByUserID(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
