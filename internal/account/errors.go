package account

import "errors"

var (
	// ErrMissingIdentity means the identity assertion carried no usable login.
	ErrMissingIdentity = errors.New("account: identity claims missing login")

	// ErrMalformedLocale means the locale claim had no language prefix.
	ErrMalformedLocale = errors.New("account: malformed locale claim")

	// ErrConflict means a write lost against an existing record
	// (duplicate login on first login, or an email owned by another login).
	ErrConflict = errors.New("account: conflicting record exists")

	// ErrUnauthenticated means no principal could be resolved for the request.
	ErrUnauthenticated = errors.New("account: not authenticated")

	// ErrAccountUnavailable means the principal resolved to no local account.
	ErrAccountUnavailable = errors.New("account: no local account for principal")
)
