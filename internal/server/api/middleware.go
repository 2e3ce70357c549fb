package api

import (
	"time"

	"github.com/dmitrijs2005/enraizado/internal/common"
	"github.com/dmitrijs2005/enraizado/internal/logging"
	"github.com/dmitrijs2005/enraizado/internal/server/auth"
	"github.com/dmitrijs2005/enraizado/internal/server/models"
	"github.com/gin-gonic/gin"
)

const (
	subjectKey = "subject"
	sessionKey = "session"
)

// requestLogger logs HTTP request/response metadata.
func requestLogger(logger logging.Logger) gin.HandlerFunc {
	log := logger.With("module", "http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"client_ip", c.ClientIP(),
			"latency", time.Since(start).String(),
		)
	}
}

// injectSubject resolves the session cookie into a subject. A missing,
// expired or orphaned session leaves the request anonymous.
func (s *Server) injectSubject(c *gin.Context) {
	ctx := c.Request.Context()

	token, err := c.Cookie(common.SessionCookieName)
	if err != nil || token == "" {
		c.Set(subjectKey, auth.Anonymous())
		c.Next()
		return
	}

	sess, err := s.sessions.FindOneValidByToken(ctx, token)
	if err != nil {
		if !isUnauthorized(err) {
			s.writeError(c, err)
			c.Abort()
			return
		}
		c.Set(subjectKey, auth.Anonymous())
		c.Next()
		return
	}

	u, err := s.users.FindByID(ctx, sess.UserID)
	if err != nil {
		if !isNotFound(err) {
			s.writeError(c, err)
			c.Abort()
			return
		}
		c.Set(subjectKey, auth.Anonymous())
		c.Next()
		return
	}

	c.Set(sessionKey, sess)
	c.Set(subjectKey, auth.Authenticated(u))
	c.Next()
}

// canRequest aborts unless the subject holds f.
func (s *Server) canRequest(f auth.Feature) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub := subjectFrom(c)
		if sub.Has(f) {
			c.Next()
			return
		}

		if sub.IsAnonymous() {
			s.writeError(c, common.NewUnauthorizedError(
				"User not authenticated.",
				"Log in again to continue.",
			))
		} else {
			s.writeError(c, missingFeature(f))
		}
		c.Abort()
	}
}

func subjectFrom(c *gin.Context) auth.Subject {
	if v, ok := c.Get(subjectKey); ok {
		if sub, ok := v.(auth.Subject); ok {
			return sub
		}
	}
	return auth.Anonymous()
}

func sessionFrom(c *gin.Context) *models.Session {
	if v, ok := c.Get(sessionKey); ok {
		if sess, ok := v.(*models.Session); ok {
			return sess
		}
	}
	return nil
}
