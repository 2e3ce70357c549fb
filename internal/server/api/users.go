package api

import (
	"net/http"

	"github.com/dmitrijs2005/enraizado/internal/server/auth"
	"github.com/dmitrijs2005/enraizado/internal/server/metrics"
	"github.com/dmitrijs2005/enraizado/internal/server/models"
	"github.com/gin-gonic/gin"
)

// handleCreateUser registers an account and mails its activation link.
// The user row survives a mail failure; the client sees the 503.
func (s *Server) handleCreateUser(c *gin.Context) {
	ctx := c.Request.Context()

	var in models.UserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		s.writeError(c, invalidBody())
		return
	}

	u, err := s.users.Create(ctx, in)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.metrics.Event(metrics.EventUserCreated)
	s.logger.Info(ctx, "User created", "user_id", u.ID, "username", u.Username)

	token, err := s.activations.GenerateToken(ctx, u.ID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if err := s.activations.SendActivationEmail(ctx, u, token); err != nil {
		s.metrics.Event(metrics.EventActivationMailErr)
		s.writeError(c, err)
		return
	}

	s.writeFiltered(c, http.StatusCreated, auth.CreateUser, u)
}

func (s *Server) handleGetUser(c *gin.Context) {
	u, err := s.users.FindByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.writeFiltered(c, http.StatusOK, auth.ReadUser, u)
}

// loadEditableUser returns the user named in the path when the subject may
// edit it.
func (s *Server) loadEditableUser(c *gin.Context) (*models.User, bool) {
	target, err := s.users.FindByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		s.writeError(c, err)
		return nil, false
	}

	sub := subjectFrom(c)
	ok, err := auth.Can(sub, auth.UpdateUser, &auth.Resource{UserID: target.ID})
	if err != nil {
		s.writeError(c, err)
		return nil, false
	}
	if !ok && !sub.Has(auth.UpdateUserOthers) {
		s.writeError(c, missingFeature(auth.UpdateUser))
		return nil, false
	}
	return target, true
}

func (s *Server) handleUpdateUser(c *gin.Context) {
	target, ok := s.loadEditableUser(c)
	if !ok {
		return
	}

	var patch models.UserPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		s.writeError(c, invalidBody())
		return
	}

	u, err := s.users.Update(c.Request.Context(), target.Username, patch)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.writeFiltered(c, http.StatusOK, auth.UpdateUser, u)
}

func (s *Server) handleDeleteUser(c *gin.Context) {
	target, ok := s.loadEditableUser(c)
	if !ok {
		return
	}

	res, err := s.users.DeleteByUsername(c.Request.Context(), target.Username)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if target.ID == subjectFrom(c).ID() {
		s.clearSessionCookie(c)
	}
	s.logger.Info(c.Request.Context(), "User deleted", "user_id", target.ID)
	c.JSON(http.StatusOK, res)
}

type featuresRequest struct {
	Features []string `json:"features"`
}

// handleSetFeatures overwrites a user's features. Only holders of
// update:user:others may call it.
func (s *Server) handleSetFeatures(c *gin.Context) {
	ctx := c.Request.Context()
	sub := subjectFrom(c)

	if !sub.Has(auth.UpdateUserOthers) {
		s.writeError(c, missingFeature(auth.UpdateUserOthers))
		return
	}

	var req featuresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, invalidBody())
		return
	}
	features, err := auth.ParseFeatures(req.Features)
	if err != nil {
		s.writeError(c, err)
		return
	}

	target, err := s.users.FindByUsername(ctx, c.Param("username"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	u, err := s.users.SetFeatures(ctx, target.ID, features)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.logger.Info(ctx, "Features updated", "user_id", u.ID, "by", sub.ID())
	s.writeFiltered(c, http.StatusOK, auth.UpdateUser, u)
}

// handleActivate is public: the token itself is the credential.
func (s *Server) handleActivate(c *gin.Context) {
	t, err := s.activations.ActivateAccount(c.Request.Context(), c.Param("token"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.metrics.Event(metrics.EventAccountActivated)
	s.logger.Info(c.Request.Context(), "Account activated", "user_id", t.UserID)
	c.JSON(http.StatusOK, t)
}
