package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/enraizado/internal/common"
	"github.com/dmitrijs2005/enraizado/internal/server/auth"
	"github.com/dmitrijs2005/enraizado/internal/server/services"
	"github.com/gin-gonic/gin"
)

func (s *Server) handleRanking(c *gin.Context) {
	q, err := services.ParseRankingQuery(
		c.Query("limit"),
		c.Query("offset"),
		c.Query("period"),
		c.Query("year"),
		c.Query("month"),
	)
	if err != nil {
		s.writeError(c, err)
		return
	}

	page, err := s.users.Ranking(c.Request.Context(), q)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.writeFiltered(c, http.StatusOK, auth.ReadRanking, page)
}

// handleSync stores the gamification snapshot pushed by the app.
func (s *Server) handleSync(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		s.writeError(c, invalidBody())
		return
	}
	if strings.TrimSpace(string(raw)) == "" {
		s.writeError(c, common.NewValidationError(
			"The request body cannot be empty.",
			"Send the points data to be updated.",
		))
		return
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		s.writeError(c, common.NewValidationError(
			"The input data must be a valid object.",
			"Send the points data to be updated.",
		))
		return
	}

	u, err := s.users.UpdateGamificationState(c.Request.Context(), subjectFrom(c).ID(), payload)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.writeFiltered(c, http.StatusOK, auth.CreatePoints, u)
}
