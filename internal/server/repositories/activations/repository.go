// Package activations declares the persistence contract for account
// activation tokens.
package activations

import (
	"context"
	"time"

	"github.com/dmitrijs2005/enraizado/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, userID, token string, expiresAt time.Time) (*models.ActivationToken, error)

	// FindValidByToken returns common.ErrorNotFound unless the token is
	// unused and not expired.
	FindValidByToken(ctx context.Context, token string) (*models.ActivationToken, error)

	MarkUsed(ctx context.Context, id string) (*models.ActivationToken, error)
	DeleteByUserID(ctx context.Context, userID string) error

	// CountUsed counts tokens that have been redeemed.
	CountUsed(ctx context.Context) (int, error)
}
