package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/enraizado/internal/common"
	"github.com/dmitrijs2005/enraizado/internal/dbx"
	"github.com/dmitrijs2005/enraizado/internal/server/auth"
	"github.com/dmitrijs2005/enraizado/internal/server/mail"
	"github.com/dmitrijs2005/enraizado/internal/server/models"
	"github.com/dmitrijs2005/enraizado/internal/server/repositories/repomanager"
)

const (
	DefaultActivationLifetime = 24 * time.Hour
	ActivationEmailSubject    = "Activate your account!"
)

type ActivationConfig struct {
	// BaseURL prefixes the activation link, e.g. https://enraizado.com.br.
	BaseURL  string
	From     string
	Lifetime time.Duration
}

// ActivationService issues activation tokens, emails them and redeems them.
type ActivationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	sender      mail.Sender
	cfg         ActivationConfig
	now         clock
}

func NewActivationService(db *sql.DB, m repomanager.RepositoryManager, sender mail.Sender, cfg ActivationConfig) *ActivationService {
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = DefaultActivationLifetime
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &ActivationService{db: db, repomanager: m, sender: sender, cfg: cfg, now: utcNow}
}

// GenerateToken stores a fresh token for userID and returns its raw value.
func (s *ActivationService) GenerateToken(ctx context.Context, userID string) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", fmt.Errorf("generate activation token: %w", err)
	}
	if _, err := s.repomanager.Activations(s.db).Create(ctx, userID, token, s.now().Add(s.cfg.Lifetime)); err != nil {
		return "", fmt.Errorf("create activation token: %w", err)
	}
	return token, nil
}

// ActivationURL is the page the email links to.
func (s *ActivationService) ActivationURL(token string) string {
	return s.cfg.BaseURL + "/cadastro/ativar/" + token
}

func (s *ActivationService) SendActivationEmail(ctx context.Context, u *models.User, token string) error {
	msg := mail.Message{
		From:    s.cfg.From,
		To:      u.Email,
		Subject: ActivationEmailSubject,
		Text: fmt.Sprintf("%s, click the link below to activate your Enraizado account:\n\n%s\n\nThe link expires in %s.\n",
			u.Username, s.ActivationURL(token), s.cfg.Lifetime),
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		return common.NewServiceError("Error sending activation email.", "Try again later.", err)
	}
	return nil
}

func invalidActivationToken() error {
	return common.NewValidationError(
		"Invalid or expired token.",
		"Request a new activation email.",
	)
}

func (s *ActivationService) FindValidToken(ctx context.Context, token string) (*models.ActivationToken, error) {
	t, err := s.repomanager.Activations(s.db).FindValidByToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, invalidActivationToken()
		}
		return nil, fmt.Errorf("find activation token: %w", err)
	}
	return t, nil
}

// ActivateAccount redeems token and grants ActivatedFeatures to its user,
// both in one transaction. The used token row is returned.
func (s *ActivationService) ActivateAccount(ctx context.Context, token string) (*models.ActivationToken, error) {
	var used *models.ActivationToken

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Activations(tx)

		t, err := repo.FindValidByToken(ctx, token)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return invalidActivationToken()
			}
			return fmt.Errorf("find activation token: %w", err)
		}

		used, err = repo.MarkUsed(ctx, t.ID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return invalidActivationToken()
			}
			return fmt.Errorf("mark token used: %w", err)
		}

		if _, err := s.repomanager.Users(tx).SetFeatures(ctx, t.UserID, auth.Strings(auth.ActivatedFeatures)); err != nil {
			return fmt.Errorf("grant features: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return used, nil
}

// IsFirstActivation reports whether no token has ever been redeemed.
func (s *ActivationService) IsFirstActivation(ctx context.Context) (bool, error) {
	n, err := s.repomanager.Activations(s.db).CountUsed(ctx)
	if err != nil {
		return false, fmt.Errorf("count activations: %w", err)
	}
	return n == 0, nil
}
