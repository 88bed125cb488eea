package core

import "github.com/gin-gonic/gin"

// respondError sends unified error payload {"error": {"code", "message"}}.
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}

// registerSessionCookie hands the opaque session id to the browser. HttpOnly
// always; Secure and SameSite follow config.
func registerSessionCookie(c *gin.Context, cfg Config, sessionID string) {
	c.SetSameSite(sameSiteFromString(cfg.CookieSameSite))
	c.SetCookie(SessionCookieName, sessionID, int(cfg.SessionTTL.Seconds()), "/", "", cfg.CookieSecure, true)
}

// clearSessionCookie expires the session cookie immediately.
func clearSessionCookie(c *gin.Context, cfg Config) {
	c.SetSameSite(sameSiteFromString(cfg.CookieSameSite))
	c.SetCookie(SessionCookieName, "", -1, "/", "", cfg.CookieSecure, true)
}
