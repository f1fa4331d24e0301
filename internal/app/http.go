package app

import (
	"context"

	"account-service/internal/account"
	"account-service/internal/account/handler"
	"account-service/internal/account/store"
	"account-service/internal/auth/provider/oidc"
	"account-service/internal/config"
	"account-service/internal/middleware"
	"account-service/internal/session"
	"account-service/internal/token"

	"github.com/gin-gonic/gin"
)

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, func() error, error) {

	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	sessionStore := session.NewRedisStore(infra.Redis.Client)
	userStore := store.NewUserStore(infra.DB.DB)
	tokenStore := token.NewPostgresStore(infra.DB.DB)

	accountService := account.NewService(userStore, tokenStore)

	provider, err := oidc.New(
		ctx,
		cfg.OIDCIssuer,
		cfg.OIDCClientID,
		cfg.OIDCClientSecret,
		cfg.OIDCRedirectURL,
	)
	if err != nil {
		return nil, nil, err
	}

	accountHandler := handler.NewHandler(
		provider,
		sessionStore,
		accountService,
		cfg.SessionTTL,
	)

	authMiddleware := middleware.NewAuthMiddleware(sessionStore, provider)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())

	// ----------------------------
	// Public Routes
	// ----------------------------

	accountHandler.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ----------------------------
	// API Routes
	// ----------------------------
	// The middleware only resolves a principal; each endpoint decides what
	// an unauthenticated request means.

	api := router.Group("/api")
	api.Use(middleware.GinResolvePrincipal(authMiddleware))

	accountHandler.RegisterAPIRoutes(api)

	// ----------------------------
	// Cleanup
	// ----------------------------

	return router, func() error {
		return infra.DB.Close()
	}, nil
}
