package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/enraizado/internal/common"
	"github.com/dmitrijs2005/enraizado/internal/server/auth"
	"github.com/dmitrijs2005/enraizado/internal/server/models"
	"github.com/dmitrijs2005/enraizado/internal/server/repositories/repomanager"
)

// AuthenticationService checks login credentials.
type AuthenticationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
}

func NewAuthenticationService(db *sql.DB, m repomanager.RepositoryManager, hasher PasswordHasher) *AuthenticationService {
	return &AuthenticationService{db: db, repomanager: m, hasher: hasher}
}

// Authenticate returns the user owning email when password matches and the
// account may open sessions. Credential failures all surface as the same
// UnauthorizedError so callers cannot tell which part was wrong.
func (s *AuthenticationService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.verify(ctx, email, password)
	if err != nil {
		var ce *common.Error
		if errors.As(err, &ce) && ce.Name == "UnauthorizedError" {
			return nil, common.NewUnauthorizedError(
				"Authentication data does not match.",
				"Check that the data sent is correct.",
			)
		}
		return nil, err
	}
	return u, nil
}

func (s *AuthenticationService) verify(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewUnauthorizedError("Email does not match.", "Check that this data is correct.")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !s.hasher.Compare(password, u.Password) {
		return nil, common.NewUnauthorizedError("Password does not match.", "Check that this data is correct.")
	}

	if !u.HasFeature(string(auth.CreateSession)) {
		return nil, common.NewForbiddenError(
			"User has not confirmed the email.",
			"Check your inbox and activate your account.",
		)
	}
	return u, nil
}
