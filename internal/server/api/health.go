package api

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/enraizado/internal/common"
	"github.com/gin-gonic/gin"
)

func (s *Server) handleHealthz(c *gin.Context) {
	if s.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			s.writeError(c, common.NewServiceError(
				"Database unavailable at the moment.",
				"Check that the database is reachable.",
				err,
			))
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
