package account

// Principal is the authenticated caller of a request. It is either a
// claims-bearing identity fresh from the identity provider, or an opaque
// local one (cookie session) whose account is already persisted.
// Principals contain facts only, no decisions.
type Principal interface {
	// Name returns the login the principal resolves to, or "" if unknown.
	Name() string
}

// ClaimsPrincipal carries the raw claim set of a verified identity
// assertion, plus whatever authorities the authentication layer itself
// granted (used only when the claims carry no group list).
type ClaimsPrincipal struct {
	Claims      map[string]any
	Authorities []string
}

func (p ClaimsPrincipal) Name() string {
	login, _ := p.Claims[claimPreferredUsername].(string)
	return login
}

// LocalPrincipal identifies a caller authenticated without provider claims,
// e.g. through an established cookie session.
type LocalPrincipal struct {
	Login string
}

func (p LocalPrincipal) Name() string {
	return p.Login
}
