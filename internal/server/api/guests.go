package api

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/enraizado/internal/server/auth"
	"github.com/dmitrijs2005/enraizado/internal/server/models"
	"github.com/gin-gonic/gin"
)

func (s *Server) handleCreateGuest(c *gin.Context) {
	var in models.Guest
	if err := c.ShouldBindJSON(&in); err != nil {
		s.writeError(c, invalidBody())
		return
	}

	g, err := s.guests.Create(c.Request.Context(), subjectFrom(c).ID(), in)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.writeFiltered(c, http.StatusCreated, auth.CreateGuest, g)
}

// handleListGuests lists the subject's guests, or every guest for holders
// of update:content:others.
func (s *Server) handleListGuests(c *gin.Context) {
	sub := subjectFrom(c)
	owner := sub.ID()
	if sub.Has(auth.UpdateContentOthers) {
		owner = ""
	}

	list, err := s.guests.List(c.Request.Context(), owner)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.writeFiltered(c, http.StatusOK, auth.ReadContent, list)
}

// loadGuest fetches the guest in the path and checks f against its owner.
func (s *Server) loadGuest(c *gin.Context, f auth.Feature) (*models.Guest, bool) {
	g, err := s.guests.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return nil, false
	}

	ok, err := auth.Can(subjectFrom(c), f, &auth.Resource{UserID: g.UserID})
	if err != nil {
		s.writeError(c, err)
		return nil, false
	}
	if !ok {
		s.writeError(c, forbiddenResource())
		return nil, false
	}
	return g, true
}

func (s *Server) handleGetGuest(c *gin.Context) {
	g, ok := s.loadGuest(c, auth.ReadContent)
	if !ok {
		return
	}
	s.writeFiltered(c, http.StatusOK, auth.ReadContent, g)
}

func (s *Server) handleUpdateGuest(c *gin.Context) {
	current, ok := s.loadGuest(c, auth.UpdateGuest)
	if !ok {
		return
	}

	var patch map[string]json.RawMessage
	if err := c.ShouldBindJSON(&patch); err != nil {
		s.writeError(c, invalidBody())
		return
	}

	g, err := s.guests.Update(c.Request.Context(), current, patch)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.writeFiltered(c, http.StatusOK, auth.UpdateGuest, g)
}

func (s *Server) handleDeleteGuest(c *gin.Context) {
	g, ok := s.loadGuest(c, auth.DeleteGuest)
	if !ok {
		return
	}
	if err := s.guests.Delete(c.Request.Context(), g.ID); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
