// Package tenant establishes the isolation context every tenant-scoped query
// runs under. The Bind middleware derives an immutable Context (tenant,
// optional branch, user) from the caller's identity, and the rls package
// applies that Context to each database transaction.
//
// The subsystem fails closed: requests without a bound Context cannot reach
// scoped execution, and an inaccessible branch selection aborts the request
// instead of degrading to an unscoped one.
package tenant

import (
	"github.com/google/uuid"

	"github.com/mediqcloud/mediq/svc/identity"
)

// Context is the isolation scope of one request: the owning tenant, the
// acting staff member, and optionally one selected facility. It is a value
// object created once per request by Bind and never mutated or cached.
type Context struct {
	tenantID uuid.UUID
	branchID uuid.NullUUID
	userID   uuid.UUID
}

// TenantID returns the owning tenant id. Always set on a bound Context.
func (c Context) TenantID() uuid.UUID { return c.tenantID }

// UserID returns the acting staff member id. Always set on a bound Context.
func (c Context) UserID() uuid.UUID { return c.userID }

// Branch returns the selected facility id and whether one is selected.
func (c Context) Branch() (uuid.UUID, bool) {
	return c.branchID.UUID, c.branchID.Valid
}

// Bound reports whether the context was produced by New (zero Contexts are
// unusable for scoped execution).
func (c Context) Bound() bool {
	return c.tenantID != uuid.Nil && c.userID != uuid.Nil
}

// New computes the request Context from a resolved identity and an optional
// explicit branch selection.
//
// Branch resolution, in order:
//  1. An explicit selection must be a member of the identity's accessible
//     set, otherwise ErrBranchAccessDenied.
//  2. With no selection and exactly one accessible branch, that branch is
//     auto-selected.
//  3. Otherwise the branch is left unset; operations that need a concrete
//     facility gate on RequireBranch instead of failing here.
func New(id identity.Identity, explicitBranch *uuid.UUID) (Context, error) {
	if id.UserID == uuid.Nil || id.TenantID == uuid.Nil {
		return Context{}, ErrAuthenticationRequired
	}

	c := Context{tenantID: id.TenantID, userID: id.UserID}

	switch {
	case explicitBranch != nil:
		if !id.CanAccessBranch(*explicitBranch) {
			return Context{}, ErrBranchAccessDenied
		}
		c.branchID = uuid.NullUUID{UUID: *explicitBranch, Valid: true}
	case len(id.BranchIDs) == 1:
		c.branchID = uuid.NullUUID{UUID: id.BranchIDs[0], Valid: true}
	}

	return c, nil
}
