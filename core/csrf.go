package core

import (
	"errors"

	"github.com/gin-gonic/gin"
)

// ErrCsrf signals a missing or mismatched anti-forgery token.
var ErrCsrf = errors.New("csrf verification failed")

const (
	// SessionCookieName carries the opaque session id.
	SessionCookieName = "id"
	csrfFormField     = "csrf"
	csrfHeaderName    = "anti-csrf-token"
)

// CsrfGuard verifies per-session anti-forgery tokens. It never mutates
// sessions; handlers that render a fresh token rotate it themselves. Every
// check fails closed: no session, no stored token, or a mismatch all return
// ErrCsrf.
type CsrfGuard struct {
	sessions SessionStore
}

func NewCsrfGuard(sessions SessionStore) *CsrfGuard {
	return &CsrfGuard{sessions: sessions}
}

// CheckForm resolves the request's session from the cookie (an anonymous
// session is acceptable here; login and register run before authentication)
// and compares the "csrf" form field against its stored token.
func (g *CsrfGuard) CheckForm(c *gin.Context) error {
	id, err := c.Cookie(SessionCookieName)
	if err != nil || id == "" {
		return ErrCsrf
	}
	sess, err := g.sessions.Retrieve(c.Request.Context(), id)
	if err != nil || sess == nil {
		return ErrCsrf
	}
	return g.CheckFormSession(c, *sess)
}

// CheckFormSession compares the "csrf" form field against an already
// resolved session.
func (g *CsrfGuard) CheckFormSession(c *gin.Context, sess Session) error {
	if !sess.VerifyCsrf(c.PostForm(csrfFormField)) {
		return ErrCsrf
	}
	return nil
}

// CheckHeaderSession compares the "anti-csrf-token" header against an
// already resolved session.
func (g *CsrfGuard) CheckHeaderSession(c *gin.Context, sess Session) error {
	if !sess.VerifyCsrf(c.GetHeader(csrfHeaderName)) {
		return ErrCsrf
	}
	return nil
}
