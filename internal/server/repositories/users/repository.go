// Package users declares the persistence contract for site accounts and
// their gamification state.
package users

import (
	"context"

	"github.com/dmitrijs2005/enraizado/internal/server/models"
)

// Repository stores users. Username and email lookups are case-insensitive.
// Single-row lookups return common.ErrorNotFound when nothing matches.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)

	// Update persists username, email and password and bumps updated_at.
	Update(ctx context.Context, user *models.User) (*models.User, error)
	SetFeatures(ctx context.Context, userID string, features []string) (*models.User, error)
	UpdateGamification(ctx context.Context, userID string, state *models.GamificationState) (*models.User, error)
	Delete(ctx context.Context, id string) error

	// ListByPoints orders by points DESC, created_at ASC.
	ListByPoints(ctx context.Context, limit, offset int) ([]models.RankedUser, error)
	// CountWithPoints counts users holding more than zero points.
	CountWithPoints(ctx context.Context) (int, error)
	// ListByPeriodPoints ranks by 15 points per plant created in the period,
	// leaving out users with nothing in it.
	ListByPeriodPoints(ctx context.Context, q models.RankingQuery) ([]models.RankedUser, error)
	CountWithPeriodPoints(ctx context.Context, q models.RankingQuery) (int, error)
}
