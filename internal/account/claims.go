package account

import (
	"strings"
	"time"
)

// Standard OIDC claim keys read during mapping.
const (
	claimPreferredUsername = "preferred_username"
	claimGivenName         = "given_name"
	claimFamilyName        = "family_name"
	claimEmail             = "email"
	claimEmailVerified     = "email_verified"
	claimLocale            = "locale"
	claimPicture           = "picture"
	claimGroups            = "groups"
	claimUpdatedAt         = "updated_at"
)

// MapClaims translates a raw identity-provider claim set into a canonical
// User. The returned user has an empty authority set; authorities are
// reconciled separately. The second return value is the provider's
// last-updated timestamp when one is present and parseable, nil otherwise.
func MapClaims(claims map[string]any) (*User, *time.Time, error) {
	login, _ := claims[claimPreferredUsername].(string)
	if login == "" {
		return nil, nil, ErrMissingIdentity
	}

	u := &User{Login: login}

	if given, ok := claims[claimGivenName].(string); ok {
		u.FirstName = given
	}
	// family_name also lands in FirstName, overwriting given_name when both
	// are present: last writer wins.
	if family, ok := claims[claimFamilyName].(string); ok {
		u.FirstName = family
	}
	if verified, ok := claims[claimEmailVerified].(bool); ok {
		u.Activated = verified
	}
	if email, ok := claims[claimEmail].(string); ok {
		u.Email = email
	}
	if picture, ok := claims[claimPicture].(string); ok {
		u.ImageURL = picture
	}
	if locale, ok := claims[claimLocale].(string); ok {
		lang, _, found := strings.Cut(locale, "-")
		if !found {
			return nil, nil, ErrMalformedLocale
		}
		u.LangKey = lang
	}

	return u, providerUpdatedAt(claims), nil
}

// providerUpdatedAt reads the optional updated_at claim. Providers send it
// either as epoch seconds or as an RFC3339 string; anything unparseable is
// treated as absent.
func providerUpdatedAt(claims map[string]any) *time.Time {
	switch v := claims[claimUpdatedAt].(type) {
	case float64:
		ts := time.Unix(int64(v), 0)
		return &ts
	case string:
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil
		}
		return &ts
	default:
		return nil
	}
}
