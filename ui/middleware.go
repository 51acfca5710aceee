package ui

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"molview/domain/core"
	"molview/internal/session"
)

const (
	sessionCookie = "molview_session"
	sessionKey    = "session"
)

// sessionMiddleware binds each request to a server-side session via a
// cookie. Invalid or expired cookies get a fresh session transparently.
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var id core.SessionID
		if raw, err := c.Cookie(sessionCookie); err == nil {
			if parsed, perr := core.ParseSessionID(raw); perr == nil {
				id = parsed
			}
		}

		st := s.sessions.GetOrCreate(id)
		if st.ID != id {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(sessionCookie, st.ID.String(), int(s.cfg.Session.TTL.Seconds()), "/", "", false, true)
		}
		c.Set(sessionKey, st)
		c.Next()
	}
}

// currentSession returns the request's session state. The middleware
// guarantees it is present.
func currentSession(c *gin.Context) *session.State {
	v, _ := c.Get(sessionKey)
	st, _ := v.(*session.State)
	return st
}
