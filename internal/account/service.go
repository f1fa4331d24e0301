package account

import (
	"context"
	"strings"
	"time"

	"account-service/internal/logger"
	"account-service/internal/token"
	"account-service/internal/utils"
)

// UserStore persists canonical users. Lookups return (nil, nil) when no
// record matches. Create must reject a duplicate login with ErrConflict;
// the backing store's uniqueness constraint is the arbiter of the
// first-login race.
type UserStore interface {
	FindByLogin(ctx context.Context, login string) (*User, error)
	FindByLoginWithAuthorities(ctx context.Context, login string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
}

// Service reconciles identity-provider claims with the local user store and
// manages the caller's persistent login tokens.
type Service struct {
	users  UserStore
	tokens token.Store
}

func NewService(users UserStore, tokens token.Store) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
	}
}

// GetAccount resolves the caller's account view. A claims-bearing principal
// is mapped, reconciled, and synced into the store; an opaque principal is
// served from the store directly.
func (s *Service) GetAccount(ctx context.Context, p Principal) (*AccountView, error) {
	switch pr := p.(type) {
	case ClaimsPrincipal:
		u, updatedAt, err := MapClaims(pr.Claims)
		if err != nil {
			return nil, err
		}
		u.Authorities = ReconcileAuthorities(pr.Claims, pr.Authorities)
		return s.sync(ctx, u, updatedAt)

	case LocalPrincipal:
		u, err := s.users.FindByLoginWithAuthorities(ctx, pr.Login)
		if err != nil {
			return nil, err
		}
		if u == nil {
			return nil, ErrAccountUnavailable
		}
		return viewOf(u), nil

	default:
		return nil, ErrUnauthenticated
	}
}

// sync upserts the canonical user. New logins are created with their full
// authority set. Existing logins have their profile fields rewritten, but
// only when the provider's updated_at is strictly newer than the stored
// record (stale-write protection); without a provider timestamp the update
// is unconditional. The update path leaves stored authorities untouched.
func (s *Service) sync(ctx context.Context, u *User, providerUpdatedAt *time.Time) (*AccountView, error) {
	existing, err := s.users.FindByLogin(ctx, u.Login)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		logger.Info("creating user from identity provider", map[string]any{
			"login": u.Login,
		})
		if err := s.users.Create(ctx, u); err != nil {
			return nil, err
		}
		return viewOf(u), nil
	}

	if providerUpdatedAt != nil && !providerUpdatedAt.After(existing.UpdatedAt) {
		return viewOf(u), nil
	}

	logger.Info("updating user from identity provider", map[string]any{
		"login": u.Login,
	})
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return viewOf(u), nil
}

// UpdateAccount rewrites the caller's profile fields. The email must not
// belong to a different login; that collision is detected before any write
// and reported as ErrConflict.
func (s *Service) UpdateAccount(ctx context.Context, login string, v AccountView) error {
	if v.Email != "" {
		byEmail, err := s.users.FindByEmail(ctx, v.Email)
		if err != nil {
			return err
		}
		if byEmail != nil && !strings.EqualFold(byEmail.Login, login) {
			return ErrConflict
		}
	}

	u, err := s.users.FindByLogin(ctx, login)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrAccountUnavailable
	}

	u.FirstName = v.FirstName
	u.LastName = v.LastName
	u.Email = v.Email
	u.LangKey = v.LangKey
	u.ImageURL = v.ImageURL

	return s.users.Update(ctx, u)
}

// Sessions lists the caller's persistent login tokens.
func (s *Service) Sessions(ctx context.Context, login string) ([]token.PersistentToken, error) {
	u, err := s.users.FindByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrAccountUnavailable
	}
	return s.tokens.ListFor(ctx, u.ID)
}

// RevokeSession removes one of the caller's own persistent tokens. A series
// owned by another user surfaces as token.ErrNotFound and is never deleted.
func (s *Service) RevokeSession(ctx context.Context, login string, series string) error {
	u, err := s.users.FindByLogin(ctx, login)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrAccountUnavailable
	}
	return s.tokens.Revoke(ctx, u.ID, series)
}

// RememberSession mints a persistent token for the caller and returns its
// series and opaque value.
func (s *Service) RememberSession(ctx context.Context, login, ipAddress, userAgent string) (series, value string, err error) {
	u, err := s.users.FindByLogin(ctx, login)
	if err != nil {
		return "", "", err
	}
	if u == nil {
		return "", "", ErrAccountUnavailable
	}

	series = utils.RandomString(16)
	value = utils.RandomString(16)

	err = s.tokens.Create(ctx, token.PersistentToken{
		Series:    series,
		UserID:    u.ID,
		Value:     value,
		TokenDate: time.Now(),
		IPAddress: ipAddress,
		UserAgent: userAgent,
	})
	if err != nil {
		return "", "", err
	}
	return series, value, nil
}
