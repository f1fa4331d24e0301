// Package oidc implements OAuth2/OIDC authentication against a single
// configured identity provider. It returns claim facts only; user and
// session decisions belong to the account service.
package oidc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"account-service/internal/logger"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

type Provider struct {
	oauthConfig *oauth2.Config
	verifier    *gooidc.IDTokenVerifier
}

// New initializes the provider using OIDC discovery on the issuer URL.
func New(
	ctx context.Context,
	issuer string,
	clientID string,
	clientSecret string,
	redirectURL string,
) (*Provider, error) {

	if issuer == "" || clientID == "" || redirectURL == "" {
		return nil, errors.New("oidc config missing required fields")
	}

	oidcProvider, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to init oidc provider: %w", err)
	}

	verifier := oidcProvider.Verifier(&gooidc.Config{
		ClientID: clientID,
	})

	oauthCfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     oidcProvider.Endpoint(),
		Scopes: []string{
			gooidc.ScopeOpenID,
			"profile",
			"email",
			"groups",
		},
	}

	return &Provider{
		oauthConfig: oauthCfg,
		verifier:    verifier,
	}, nil
}

// AuthCodeURL builds the OAuth authorization URL with PKCE parameters.
func (p *Provider) AuthCodeURL(state string, codeChallenge string) string {
	return p.oauthConfig.AuthCodeURL(
		state,
		oauth2.AccessTypeOnline,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

// ExchangeCode exchanges the authorization code, verifies the ID token, and
// returns its raw claim set.
func (p *Provider) ExchangeCode(
	ctx context.Context,
	code string,
	codeVerifier string,
) (map[string]any, error) {

	token, err := p.oauthConfig.Exchange(
		ctx,
		code,
		oauth2.SetAuthURLParam("code_verifier", codeVerifier),
	)
	if err != nil {
		logger.Error("oidc token exchange failed", map[string]any{
			"error": err.Error(),
		})
		return nil, err
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.New("provider did not return id_token")
	}

	return p.verifyRaw(ctx, rawIDToken)
}

// VerifyBearer verifies a bearer ID token presented on an API request and
// returns its raw claim set.
func (p *Provider) VerifyBearer(ctx context.Context, rawToken string) (map[string]any, error) {
	return p.verifyRaw(ctx, strings.TrimSpace(rawToken))
}

func (p *Provider) verifyRaw(ctx context.Context, rawIDToken string) (map[string]any, error) {
	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		logger.Error("oidc token verification failed", map[string]any{
			"error": err.Error(),
		})
		return nil, err
	}

	claims := map[string]any{}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("oidc claims parse failed: %w", err)
	}

	logger.Info("oidc token verified", map[string]any{
		"issuer":      idToken.Issuer,
		"audience":    idToken.Audience,
		"expiry_unix": idToken.Expiry.Unix(),
	})

	return claims, nil
}
