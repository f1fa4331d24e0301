package handler

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"account-service/internal/account"
	"account-service/internal/middleware"
	"account-service/internal/token"

	"github.com/gin-gonic/gin"
)

type sessionView struct {
	Series    string    `json:"series"`
	IPAddress string    `json:"ipAddress"`
	UserAgent string    `json:"userAgent"`
	TokenDate time.Time `json:"tokenDate"`
}

// getSessions lists the caller's persistent login tokens.
func (h *Handler) getSessions(c *gin.Context) {
	p, ok := middleware.PrincipalFromContext(c.Request.Context())
	if !ok || p.Name() == "" {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "current user login not found",
		})
		return
	}

	tokens, err := h.accounts.Sessions(c.Request.Context(), p.Name())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to list sessions",
		})
		return
	}

	views := make([]sessionView, 0, len(tokens))
	for _, t := range tokens {
		views = append(views, sessionView{
			Series:    t.Series,
			IPAddress: t.IPAddress,
			UserAgent: t.UserAgent,
			TokenDate: t.TokenDate,
		})
	}

	c.JSON(http.StatusOK, views)
}

// invalidateSession revokes one of the caller's own tokens by series. The
// delete is idempotent: an unknown or already-revoked series is still a
// 200. Revoking the current session does not cut already-issued session
// credentials; it only stops future automatic re-authentication.
func (h *Handler) invalidateSession(c *gin.Context) {
	series := c.Param("series")
	if decoded, err := url.PathUnescape(series); err == nil {
		series = decoded
	}

	p, ok := middleware.PrincipalFromContext(c.Request.Context())
	if !ok || p.Name() == "" {
		c.Status(http.StatusOK)
		return
	}

	err := h.accounts.RevokeSession(c.Request.Context(), p.Name(), series)
	if err != nil &&
		!errors.Is(err, token.ErrNotFound) &&
		!errors.Is(err, account.ErrAccountUnavailable) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to revoke session",
		})
		return
	}

	c.Status(http.StatusOK)
}
