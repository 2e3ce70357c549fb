package server

import (
	"database/sql"

	"github.com/dmitrijs2005/enraizado/internal/cryptox"
	"github.com/dmitrijs2005/enraizado/internal/server/config"
	"github.com/dmitrijs2005/enraizado/internal/server/mail"
	"github.com/dmitrijs2005/enraizado/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/enraizado/internal/server/services"
)

// Services bundles the business services built over one database pool. The
// API server and the admin CLI share it.
type Services struct {
	Users       *services.UserService
	Activations *services.ActivationService
	Sessions    *services.SessionService
	Auth        *services.AuthenticationService
	Guests      *services.GuestService
}

func NewServices(db *sql.DB, rm repomanager.RepositoryManager, c *config.Config, sender mail.Sender) *Services {
	hasher := cryptox.NewHasher(c.BcryptCost)

	return &Services{
		Users: services.NewUserService(db, rm, hasher),
		Activations: services.NewActivationService(db, rm, sender, services.ActivationConfig{
			BaseURL:  c.BaseURL,
			From:     c.SMTPFrom,
			Lifetime: c.ActivationLifetime,
		}),
		Sessions: services.NewSessionService(db, rm, c.SessionLifetime),
		Auth:     services.NewAuthenticationService(db, rm, hasher),
		Guests:   services.NewGuestService(db, rm),
	}
}

// NewMailSender builds the SMTP sender described by c.
func NewMailSender(c *config.Config) *mail.SMTPSender {
	return mail.NewSMTPSender(mail.SMTPConfig{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		User:     c.SMTPUser,
		Password: c.SMTPPassword,
	})
}
