// Package sessions declares the persistence contract for login sessions.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/enraizado/internal/server/models"
)

// Repository stores opaque session tokens.
type Repository interface {
	Create(ctx context.Context, userID, token string, expiresAt time.Time) (*models.Session, error)

	// FindValidByToken returns common.ErrorNotFound unless the token exists
	// and has not expired.
	FindValidByToken(ctx context.Context, token string) (*models.Session, error)

	// Renew moves expires_at and bumps updated_at.
	Renew(ctx context.Context, id string, expiresAt time.Time) (*models.Session, error)

	// DeleteByToken removes the session and returns it as it was.
	DeleteByToken(ctx context.Context, token string) (*models.Session, error)

	DeleteByUserID(ctx context.Context, userID string) error
}
