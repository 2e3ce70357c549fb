package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/enraizado/internal/common"
	"github.com/dmitrijs2005/enraizado/internal/server/models"
	"github.com/dmitrijs2005/enraizado/internal/server/repositories/repomanager"
)

// DefaultSessionLifetime is used when NewSessionService gets a zero lifetime.
const DefaultSessionLifetime = 30 * 24 * time.Hour

// SessionService issues, renews and revokes opaque login sessions.
type SessionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	lifetime    time.Duration
	now         clock
}

func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, lifetime time.Duration) *SessionService {
	if lifetime <= 0 {
		lifetime = DefaultSessionLifetime
	}
	return &SessionService{db: db, repomanager: m, lifetime: lifetime, now: utcNow}
}

// Lifetime is also the cookie Max-Age.
func (s *SessionService) Lifetime() time.Duration { return s.lifetime }

func noActiveSession() error {
	return common.NewUnauthorizedError(
		"User does not have an active session.",
		"Check that this user is logged in and try again.",
	)
}

func (s *SessionService) Create(ctx context.Context, userID string) (*models.Session, error) {
	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}
	sess, err := s.repomanager.Sessions(s.db).Create(ctx, userID, token, s.now().Add(s.lifetime))
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

func (s *SessionService) FindOneValidByToken(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, noActiveSession()
	}
	sess, err := s.repomanager.Sessions(s.db).FindValidByToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, noActiveSession()
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return sess, nil
}

// Renew pushes the expiry a full lifetime ahead of now.
func (s *SessionService) Renew(ctx context.Context, id string) (*models.Session, error) {
	sess, err := s.repomanager.Sessions(s.db).Renew(ctx, id, s.now().Add(s.lifetime))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, noActiveSession()
		}
		return nil, fmt.Errorf("renew session: %w", err)
	}
	return sess, nil
}

func (s *SessionService) DeleteByToken(ctx context.Context, token string) (*models.Session, error) {
	sess, err := s.repomanager.Sessions(s.db).DeleteByToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, noActiveSession()
		}
		return nil, fmt.Errorf("delete session: %w", err)
	}
	return sess, nil
}

func (s *SessionService) DeleteByUserID(ctx context.Context, userID string) error {
	if err := s.repomanager.Sessions(s.db).DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	return nil
}
