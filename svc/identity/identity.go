// Package identity resolves the authenticated staff member behind an HTTP
// request. Credential verification (login, passwords, MFA) happens upstream;
// this package only derives who is calling from the session token the
// upstream auth service issued.
package identity

import (
	"net/http"
	"slices"

	"github.com/google/uuid"
)

// Identity describes an authenticated staff member: who they are, which
// tenant owns them, and which facilities they may act within.
type Identity struct {
	UserID    uuid.UUID
	TenantID  uuid.UUID
	BranchIDs []uuid.UUID
}

// CanAccessBranch reports whether the branch is in the accessible set.
func (id Identity) CanAccessBranch(branchID uuid.UUID) bool {
	return slices.Contains(id.BranchIDs, branchID)
}

// Provider resolves an Identity from an incoming request.
// Implementations must return ErrUnauthorized (possibly wrapped) when the
// request carries no verifiable identity.
type Provider interface {
	Resolve(r *http.Request) (Identity, error)
}
