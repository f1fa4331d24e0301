package handler

import (
	"errors"
	"net/http"

	"account-service/internal/account"
	"account-service/internal/logger"
	"account-service/internal/middleware"

	"github.com/gin-gonic/gin"
)

// isAuthenticated returns the caller's resolved login, or an empty body
// when the request carries no principal.
func (h *Handler) isAuthenticated(c *gin.Context) {
	p, ok := middleware.PrincipalFromContext(c.Request.Context())
	if !ok {
		c.String(http.StatusOK, "")
		return
	}
	c.String(http.StatusOK, p.Name())
}

// getAccount resolves, reconciles, and returns the caller's account. Any
// failure, including a missing principal, is a 500: there is no distinct
// "not logged in" signal on this endpoint.
func (h *Handler) getAccount(c *gin.Context) {
	p, _ := middleware.PrincipalFromContext(c.Request.Context())

	view, err := h.accounts.GetAccount(c.Request.Context(), p)
	if err != nil {
		logger.Error("failed to resolve account", map[string]any{
			"error": err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to resolve account",
		})
		return
	}

	c.JSON(http.StatusOK, view)
}

// saveAccount updates the caller's profile fields. An email owned by a
// different login is a client error; an unknown caller is a server error.
func (h *Handler) saveAccount(c *gin.Context) {
	p, ok := middleware.PrincipalFromContext(c.Request.Context())
	if !ok || p.Name() == "" {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "current user login not found",
		})
		return
	}

	var view account.AccountView
	if err := c.ShouldBindJSON(&view); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	err := h.accounts.UpdateAccount(c.Request.Context(), p.Name(), view)
	switch {
	case errors.Is(err, account.ErrConflict):
		c.JSON(http.StatusBadRequest, gin.H{
			"field":  "email",
			"reason": "emailexists",
		})
	case errors.Is(err, account.ErrAccountUnavailable):
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "current user login not found",
		})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to update account",
		})
	default:
		c.Status(http.StatusOK)
	}
}
