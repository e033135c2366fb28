package tenant

import "errors"

var (
	// ErrAuthenticationRequired indicates Bind ran without a resolved identity.
	ErrAuthenticationRequired = errors.New("tenant: authentication required")

	// ErrContextNotSet indicates scoped work was attempted before Bind.
	ErrContextNotSet = errors.New("tenant: tenant context not set")

	// ErrBranchAccessDenied indicates an explicit branch selection outside
	// the caller's accessible set.
	ErrBranchAccessDenied = errors.New("tenant: access denied to this branch")

	// ErrBranchRequired indicates a branch-mandatory operation ran with no
	// branch selected.
	ErrBranchRequired = errors.New("tenant: branch selection required")

	// ErrInvalidBranchSelector indicates a branch selector that is not a
	// well-formed id.
	ErrInvalidBranchSelector = errors.New("tenant: invalid branch selector")
)
