package handler

import (
	"net/http"
	"time"

	"account-service/internal/account"
	"account-service/internal/auth/provider/oidc"
	"account-service/internal/logger"
	"account-service/internal/session"

	"github.com/gin-gonic/gin"
)

// rememberTTL bounds the remember-me cookie; the token row itself lives
// until revoked.
const rememberTTL = 30 * 24 * time.Hour

type Handler struct {
	provider   *oidc.Provider
	sessions   session.Store
	accounts   *account.Service
	sessionTTL time.Duration
}

func NewHandler(
	provider *oidc.Provider,
	sessions session.Store,
	accounts *account.Service,
	sessionTTL time.Duration,
) *Handler {
	return &Handler{
		provider:   provider,
		sessions:   sessions,
		accounts:   accounts,
		sessionTTL: sessionTTL,
	}
}

// RegisterRoutes mounts the public login-flow routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/oauth/login", h.login)
	r.GET("/oauth/callback", h.callback)
	r.POST("/auth/logout", h.logout)
}

// RegisterAPIRoutes mounts the account REST surface.
func (h *Handler) RegisterAPIRoutes(api *gin.RouterGroup) {
	api.GET("/authenticate", h.isAuthenticated)
	api.GET("/account", h.getAccount)
	api.POST("/account", h.saveAccount)
	api.GET("/account/sessions", h.getSessions)
	api.DELETE("/account/sessions/:series", h.invalidateSession)
}

func (h *Handler) login(c *gin.Context) {
	state := generateState(c)
	_, codeChallenge := generatePKCE(c)

	c.Redirect(http.StatusFound, h.provider.AuthCodeURL(state, codeChallenge))
}

func (h *Handler) callback(c *gin.Context) {
	if !validateState(c) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "invalid state",
		})
		return
	}

	if errParam := c.Query("error"); errParam != "" {
		logger.Warn("oidc callback returned error", map[string]any{
			"error": errParam,
			"desc":  c.Query("error_description"),
		})
		c.Redirect(http.StatusFound, "/oauth/login")
		return
	}

	code := c.Query("code")
	if code == "" {
		logger.Error("oidc callback missing code and error", nil)
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	codeVerifier := getPKCEVerifier(c)
	if codeVerifier == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "missing pkce verifier",
		})
		return
	}

	claims, err := h.provider.ExchangeCode(
		c.Request.Context(),
		code,
		codeVerifier,
	)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "authentication failed",
		})
		return
	}

	// Reconcile the IdP claims into the local account before any session
	// exists; the session only stores the resolved login.
	view, err := h.accounts.GetAccount(
		c.Request.Context(),
		account.ClaimsPrincipal{Claims: claims},
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to resolve account",
		})
		return
	}

	sessionID, err := session.GenerateID()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to create session",
		})
		return
	}

	now := time.Now()
	expiresAt := now.Add(h.sessionTTL)

	sess := session.Session{
		SessionID: sessionID,
		Login:     view.Login,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}

	if err := h.sessions.Create(c.Request.Context(), sess); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to persist session",
		})
		return
	}

	session.SetCookie(c.Writer, session.CookieName, sessionID, expiresAt, session.CookieOptions{
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})

	if c.Query("remember") == "true" {
		h.issueRememberToken(c, view.Login)
	}

	logger.Info("login succeeded", map[string]any{
		"login": view.Login,
		"ip":    c.ClientIP(),
	})

	c.JSON(http.StatusOK, gin.H{
		"status": "authenticated",
	})
}

func (h *Handler) issueRememberToken(c *gin.Context, login string) {
	series, value, err := h.accounts.RememberSession(
		c.Request.Context(),
		login,
		c.ClientIP(),
		c.Request.UserAgent(),
	)
	if err != nil {
		// login still succeeds without the remember-me token
		logger.Warn("failed to mint persistent token", map[string]any{
			"login": login,
			"error": err.Error(),
		})
		return
	}

	session.SetCookie(
		c.Writer,
		session.RememberCookieName,
		series+":"+value,
		time.Now().Add(rememberTTL),
		session.CookieOptions{
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
		},
	)
}

func (h *Handler) logout(c *gin.Context) {
	cookie, err := c.Request.Cookie(session.CookieName)
	if err == nil && cookie.Value != "" {
		// best-effort delete
		_ = h.sessions.Delete(c.Request.Context(), cookie.Value)
	}

	opts := session.CookieOptions{
		Path:     "/",
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	session.ClearCookie(c.Writer, session.CookieName, opts)
	session.ClearCookie(c.Writer, session.RememberCookieName, opts)

	c.Status(http.StatusNoContent)
}
