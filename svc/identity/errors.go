package identity

import "errors"

var (
	// ErrUnauthorized indicates the request carries no verifiable identity.
	ErrUnauthorized = errors.New("identity: authentication required")

	ErrInvalidToken     = errors.New("identity: invalid token")
	ErrExpiredToken     = errors.New("identity: token is expired")
	ErrMissingSecret    = errors.New("identity: missing signing secret")
	ErrMalformedClaims  = errors.New("identity: malformed claims")
	ErrIdentityNotFound = errors.New("identity: no identity in context")
)
