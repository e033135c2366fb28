// Package settings stores per-branch facility configuration and per-user
// preferences. Branch settings are branch-mandatory; preferences key off the
// acting user from the bound tenant context.
package settings

import (
	"time"

	"github.com/google/uuid"
)

// BranchSettings configures one facility.
type BranchSettings struct {
	BranchID    uuid.UUID `json:"branch_id"`
	Timezone    string    `json:"timezone"`
	QueuePrefix string    `json:"queue_prefix"`
	OpensAt     string    `json:"opens_at"`
	ClosesAt    string    `json:"closes_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DefaultBranchSettings are returned for a branch no one configured yet.
func DefaultBranchSettings(branchID uuid.UUID) BranchSettings {
	return BranchSettings{
		BranchID:    branchID,
		Timezone:    "UTC",
		QueuePrefix: "A",
		OpensAt:     "08:00",
		ClosesAt:    "17:00",
	}
}

// UpdateBranchParams carries the editable facility fields. Nil leaves the
// stored value untouched.
type UpdateBranchParams struct {
	Timezone    *string `json:"timezone"`
	QueuePrefix *string `json:"queue_prefix"`
	OpensAt     *string `json:"opens_at"`
	ClosesAt    *string `json:"closes_at"`
}

// UserPreferences are one staff member's personal defaults.
type UserPreferences struct {
	UserID          uuid.UUID     `json:"user_id"`
	DefaultBranchID uuid.NullUUID `json:"default_branch_id"`
	Locale          string        `json:"locale"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// DefaultUserPreferences are returned before a user saves anything.
func DefaultUserPreferences(userID uuid.UUID) UserPreferences {
	return UserPreferences{UserID: userID, Locale: "en"}
}

// UpdatePreferencesParams carries the editable preference fields.
type UpdatePreferencesParams struct {
	DefaultBranchID *uuid.UUID `json:"default_branch_id"`
	Locale          *string    `json:"locale"`
}

var localeChoices = []string{"en", "id", "es", "fr"}
