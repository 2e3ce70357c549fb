// Package api serves the Enraizado JSON API over HTTP with gin.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/enraizado/internal/logging"
	"github.com/dmitrijs2005/enraizado/internal/server/auth"
	"github.com/dmitrijs2005/enraizado/internal/server/metrics"
	"github.com/dmitrijs2005/enraizado/internal/server/models"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

type UserService interface {
	Create(ctx context.Context, in models.UserInput) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, username string, patch models.UserPatch) (*models.User, error)
	SetFeatures(ctx context.Context, userID string, features []auth.Feature) (*models.User, error)
	UpdateGamificationState(ctx context.Context, userID string, payload map[string]json.RawMessage) (*models.User, error)
	DeleteByUsername(ctx context.Context, username string) (*models.DeleteResult, error)
	Ranking(ctx context.Context, q models.RankingQuery) (*models.RankingPage, error)
}

type ActivationService interface {
	GenerateToken(ctx context.Context, userID string) (string, error)
	SendActivationEmail(ctx context.Context, u *models.User, token string) error
	ActivateAccount(ctx context.Context, token string) (*models.ActivationToken, error)
}

type SessionService interface {
	Create(ctx context.Context, userID string) (*models.Session, error)
	FindOneValidByToken(ctx context.Context, token string) (*models.Session, error)
	Renew(ctx context.Context, id string) (*models.Session, error)
	DeleteByToken(ctx context.Context, token string) (*models.Session, error)
	Lifetime() time.Duration
}

type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
}

type GuestService interface {
	Create(ctx context.Context, ownerID string, in models.Guest) (*models.Guest, error)
	FindByID(ctx context.Context, id string) (*models.Guest, error)
	List(ctx context.Context, ownerID string) ([]models.Guest, error)
	Update(ctx context.Context, current *models.Guest, patch map[string]json.RawMessage) (*models.Guest, error)
	Delete(ctx context.Context, id string) error
}

// Pinger reports database reachability. *sql.DB implements it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Options struct {
	Addr string
	// SecureCookies marks the session cookie Secure; set in production.
	SecureCookies bool
}

type Deps struct {
	Logger      logging.Logger
	Metrics     *metrics.Metrics
	DB          Pinger
	Users       UserService
	Activations ActivationService
	Sessions    SessionService
	Auth        Authenticator
	Guests      GuestService
}

type Server struct {
	opts        Options
	logger      logging.Logger
	metrics     *metrics.Metrics
	db          Pinger
	users       UserService
	activations ActivationService
	sessions    SessionService
	auth        Authenticator
	guests      GuestService
	router      *gin.Engine
}

func NewServer(opts Options, d Deps) *Server {
	if d.Logger == nil {
		d.Logger = logging.NewNop()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	r.Use(requestLogger(d.Logger))
	r.Use(d.Metrics.Middleware())

	s := &Server{
		opts:        opts,
		logger:      d.Logger.With("module", "api"),
		metrics:     d.Metrics,
		db:          d.DB,
		users:       d.Users,
		activations: d.Activations,
		sessions:    d.Sessions,
		auth:        d.Auth,
		guests:      d.Guests,
		router:      r,
	}
	s.registerRoutes()
	return s
}

// Router exposes the handler for tests and embedding.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.NoRoute(s.handleNoRoute)
	s.router.NoMethod(s.handleNoMethod)

	s.router.GET("/healthz", s.handleHealthz)
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	v1 := s.router.Group("/api/v1")
	v1.PATCH("/activations/:token", s.handleActivate)

	authed := v1.Group("")
	authed.Use(s.injectSubject)

	authed.POST("/users", s.canRequest(auth.CreateUser), s.handleCreateUser)
	authed.GET("/users/:username", s.canRequest(auth.ReadUser), s.handleGetUser)
	authed.PATCH("/users/:username", s.canRequest(auth.UpdateUser), s.handleUpdateUser)
	authed.DELETE("/users/:username", s.canRequest(auth.UpdateUser), s.handleDeleteUser)
	authed.PATCH("/users/:username/features", s.canRequest(auth.UpdateUser), s.handleSetFeatures)

	authed.POST("/sessions", s.canRequest(auth.CreateSession), s.handleCreateSession)
	authed.DELETE("/sessions", s.canRequest(auth.ReadSession), s.handleDeleteSession)
	authed.GET("/user", s.canRequest(auth.ReadSession), s.handleCurrentUser)

	authed.GET("/ranking", s.canRequest(auth.ReadRanking), s.handleRanking)
	authed.POST("/sync", s.canRequest(auth.CreatePoints), s.handleSync)

	authed.POST("/guests", s.canRequest(auth.CreateGuest), s.handleCreateGuest)
	authed.GET("/guests", s.canRequest(auth.ReadContent), s.handleListGuests)
	authed.GET("/guests/:id", s.canRequest(auth.ReadContent), s.handleGetGuest)
	authed.PATCH("/guests/:id", s.canRequest(auth.UpdateGuest), s.handleUpdateGuest)
	authed.DELETE("/guests/:id", s.canRequest(auth.DeleteGuest), s.handleDeleteGuest)
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.opts.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
