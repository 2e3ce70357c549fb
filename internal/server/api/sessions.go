package api

import (
	"net/http"

	"github.com/dmitrijs2005/enraizado/internal/common"
	"github.com/dmitrijs2005/enraizado/internal/server/auth"
	"github.com/dmitrijs2005/enraizado/internal/server/metrics"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleCreateSession(c *gin.Context) {
	ctx := c.Request.Context()

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, invalidBody())
		return
	}

	u, err := s.auth.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		s.metrics.Event(metrics.EventLoginFailed)
		s.writeError(c, err)
		return
	}

	sess, err := s.sessions.Create(ctx, u.ID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.metrics.Event(metrics.EventSessionCreated)

	s.setSessionCookie(c, sess.Token)
	s.writeFiltered(c, http.StatusCreated, auth.CreateSession, sess)
}

// handleDeleteSession logs out: the row is removed and the cookie cleared.
func (s *Server) handleDeleteSession(c *gin.Context) {
	token, _ := c.Cookie(common.SessionCookieName)

	sess, err := s.sessions.DeleteByToken(c.Request.Context(), token)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.clearSessionCookie(c)
	s.writeFiltered(c, http.StatusOK, auth.ReadSession, sess)
}

// handleCurrentUser returns the logged-in user and slides the session
// expiry forward.
func (s *Server) handleCurrentUser(c *gin.Context) {
	ctx := c.Request.Context()

	sess := sessionFrom(c)
	if sess == nil {
		s.writeError(c, common.NewUnauthorizedError(
			"User does not have an active session.",
			"Check that this user is logged in and try again.",
		))
		return
	}

	renewed, err := s.sessions.Renew(ctx, sess.ID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.metrics.Event(metrics.EventSessionRenewed)
	s.setSessionCookie(c, renewed.Token)

	u, err := s.users.FindByID(ctx, renewed.UserID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.Header("Cache-Control", "no-store, no-cache, max-age=0, must-revalidate")
	s.writeFiltered(c, http.StatusOK, auth.ReadSession, u)
}
