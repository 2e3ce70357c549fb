package api

import (
	"net/http"

	"github.com/dmitrijs2005/enraizado/internal/common"
	"github.com/gin-gonic/gin"
)

func (s *Server) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(common.SessionCookieName, token, int(s.sessions.Lifetime().Seconds()), "/", "", s.opts.SecureCookies, true)
}

func (s *Server) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(common.SessionCookieName, "invalid", -1, "/", "", s.opts.SecureCookies, true)
}
