package core

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// messageMaxLen is the storage limit for a message body.
const messageMaxLen = 140

// Services bundles the collaborators the router wires into handlers.
// Everything is an interface or a small service so tests can swap in fakes.
type Services struct {
	Sessions SessionStore
	Auth     *AuthService
	Feed     *FeedService
	Messages MessageRepository
	Follows  FollowRepository
}

// NewRouter constructs the Gin engine with routes wired.
//
// Status mapping: missing or invalid session on a protected route is 403;
// a missing or mismatched CSRF token is 401.
func NewRouter(cfg Config, svc Services) *gin.Engine {
	r := gin.Default()

	r.Use(OriginRefererMiddleware(cfg))
	r.Use(RequestIDMiddleware())

	guard := NewCsrfGuard(svc.Sessions)
	tokens := TokenGenerator{}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Root resolves (or creates) the caller's session and rotates its CSRF
	// token; the fresh token is what subsequent POSTs must echo back.
	r.GET("/", func(c *gin.Context) {
		ctx := c.Request.Context()
		token := tokens.Generate()

		sess, err := retrieveValidSession(c, svc.Sessions)
		if err == nil {
			sess.Csrf = token
			if err := svc.Sessions.Add(ctx, *sess); err != nil {
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to persist session")
				return
			}
			c.JSON(http.StatusOK, gin.H{"csrf_token": token, "name": sess.Author.Name})
			return
		}
		if !errors.Is(err, ErrInvalidSession) {
			respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "session error")
			return
		}

		anon := Session{ID: tokens.GenerateSessionID(), Csrf: token, CreatedAt: time.Now()}
		if err := svc.Sessions.Add(ctx, anon); err != nil {
			respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to persist session")
			return
		}
		registerSessionCookie(c, cfg, anon.ID)
		c.JSON(http.StatusOK, gin.H{"csrf_token": token})
	})

	r.GET("/autocomplete/:pattern", func(c *gin.Context) {
		if _, err := retrieveValidSession(c, svc.Sessions); err != nil {
			respondInvalidSession(c, err)
			return
		}
		authors, err := svc.Feed.Autocomplete(c.Request.Context(), c.Param("pattern"))
		if err != nil {
			respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to autocomplete")
			return
		}
		c.JSON(http.StatusOK, authors)
	})

	r.POST("/register", func(c *gin.Context) {
		if err := guard.CheckForm(c); err != nil {
			respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid csrf token")
			return
		}

		username := strings.TrimSpace(c.PostForm("username"))
		pseudo := strings.TrimSpace(c.PostForm("pseudo"))
		password := c.PostForm("password")
		if username == "" || pseudo == "" || password == "" {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "username, pseudo and password are required")
			return
		}

		if _, err := svc.Auth.Register(c.Request.Context(), username, pseudo, password); err != nil {
			if errors.Is(err, ErrUsernameTaken) {
				respondError(c, http.StatusConflict, "CONFLICT", "username already exists")
				return
			}
			respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to register")
			return
		}
		c.Redirect(http.StatusFound, "/")
	})

	r.GET("/logout", func(c *gin.Context) {
		if id, err := c.Cookie(SessionCookieName); err == nil && id != "" {
			_ = svc.Sessions.Remove(c.Request.Context(), id)
		}
		clearSessionCookie(c, cfg)
		c.Redirect(http.StatusFound, "/")
	})

	r.POST("/login", func(c *gin.Context) {
		if err := guard.CheckForm(c); err != nil {
			respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid csrf token")
			return
		}

		author, err := svc.Auth.Login(c.Request.Context(), c.PostForm("username"), c.PostForm("password"))
		if err != nil {
			respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to login")
			return
		}
		if author == nil {
			// Unknown user and wrong password answer identically.
			respondError(c, http.StatusForbidden, "INVALID_CREDENTIALS", "Invalid")
			return
		}

		sess := Session{ID: tokens.GenerateSessionID(), Author: author, CreatedAt: time.Now()}
		if err := svc.Sessions.Add(c.Request.Context(), sess); err != nil {
			respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to persist session")
			return
		}
		registerSessionCookie(c, cfg, sess.ID)
		c.Redirect(http.StatusFound, "/")
	})

	r.POST("/message", func(c *gin.Context) {
		sess, err := retrieveValidSession(c, svc.Sessions)
		if err != nil {
			respondInvalidSession(c, err)
			return
		}
		if err := guard.CheckFormSession(c, *sess); err != nil {
			respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid csrf token")
			return
		}

		body := c.PostForm("message")
		if body == "" || len([]rune(body)) > messageMaxLen {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "message must be 1 to 140 characters")
			return
		}
		if err := svc.Messages.Save(c.Request.Context(), sess.Author.ID, body, time.Now()); err != nil {
			respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to save message")
			return
		}
		c.Redirect(http.StatusFound, "/")
	})

	r.GET("/timeline", func(c *gin.Context) {
		sess, err := retrieveValidSession(c, svc.Sessions)
		if err != nil {
			respondInvalidSession(c, err)
			return
		}
		timeline, err := svc.Feed.Timeline(c.Request.Context(), sess.Author.ID)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to build timeline")
			return
		}
		c.JSON(http.StatusOK, gin.H{"messages": timeline})
	})

	r.POST("/follow/:id", func(c *gin.Context) {
		sess, err := retrieveValidSession(c, svc.Sessions)
		if err != nil {
			respondInvalidSession(c, err)
			return
		}
		if err := guard.CheckHeaderSession(c, *sess); err != nil {
			respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid csrf token")
			return
		}

		idAuthor, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || idAuthor <= 0 {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid author id")
			return
		}
		if err := svc.Follows.Save(c.Request.Context(), idAuthor, sess.Author.ID); err != nil {
			respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to follow")
			return
		}
		c.Status(http.StatusCreated)
	})

	return r
}

// retrieveValidSession resolves the session cookie into an authenticated
// session. Anonymous and unknown sessions both yield ErrInvalidSession.
func retrieveValidSession(c *gin.Context, sessions SessionStore) (*Session, error) {
	id, err := c.Cookie(SessionCookieName)
	if err != nil || id == "" {
		return nil, ErrInvalidSession
	}
	sess, err := sessions.Retrieve(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.Invalid() {
		return nil, ErrInvalidSession
	}
	return sess, nil
}

func respondInvalidSession(c *gin.Context, err error) {
	if errors.Is(err, ErrInvalidSession) {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "login required")
		return
	}
	respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "session error")
}
