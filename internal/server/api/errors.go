package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/enraizado/internal/common"
	"github.com/dmitrijs2005/enraizado/internal/server/auth"
	"github.com/gin-gonic/gin"
)

func asAppError(err error) (*common.Error, bool) {
	var ce *common.Error
	if errors.As(err, &ce) && ce.Name != "InternalServerError" {
		return ce, true
	}
	return nil, false
}

func isUnauthorized(err error) bool {
	ce, ok := asAppError(err)
	return ok && ce.StatusCode == http.StatusUnauthorized
}

func isNotFound(err error) bool {
	ce, ok := asAppError(err)
	return ok && ce.StatusCode == http.StatusNotFound
}

// writeError renders err as the JSON error body. Client-facing errors pass
// through unchanged; anything else is logged and hidden behind a 500.
func (s *Server) writeError(c *gin.Context, err error) {
	ce, ok := asAppError(err)
	if !ok {
		s.logger.Error(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err.Error(),
		)
		ce = common.NewInternalServerError(err)
	} else if ce.StatusCode >= http.StatusInternalServerError {
		s.logger.Warn(c.Request.Context(), "dependency failure",
			"path", c.Request.URL.Path,
			"error", err.Error(),
		)
	}

	if ce.StatusCode == http.StatusUnauthorized {
		s.clearSessionCookie(c)
	}
	c.JSON(ce.StatusCode, ce)
}

// writeFiltered renders output as seen by the subject through feature f.
func (s *Server) writeFiltered(c *gin.Context, status int, f auth.Feature, output any) {
	body, err := auth.FilterOutput(subjectFrom(c), f, output)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if body == nil {
		body = json.RawMessage("null")
	}
	c.Data(status, "application/json; charset=utf-8", body)
}

func invalidBody() error {
	return common.NewValidationError(
		"The request body is not valid JSON.",
		"Check the data sent and try again.",
	)
}

// missingFeature is the 403 for a subject that lacks f.
func missingFeature(f auth.Feature) error {
	return common.NewForbiddenError(
		"You do not have permission to perform this action.",
		fmt.Sprintf(`Check that this user has the feature "%s".`, f),
	)
}

func forbiddenResource() error {
	return common.NewForbiddenError(
		"You do not have permission to perform this action on this resource.",
		"Check that this resource belongs to the logged-in user.",
	)
}

func (s *Server) handleNoRoute(c *gin.Context) {
	s.writeError(c, common.NewNotFoundError("", ""))
}

func (s *Server) handleNoMethod(c *gin.Context) {
	s.writeError(c, common.NewMethodNotAllowedError())
}
