// Package patients manages patient registration and demographics. Every query
// runs through the scoped execution gateway, so a repository method can only
// ever see rows belonging to the caller's tenant.
package patients

import (
	"time"

	"github.com/google/uuid"
)

// Patient is a registered person within one tenant. MRN is the human-facing
// medical record number, unique per tenant.
type Patient struct {
	ID          uuid.UUID  `json:"id"`
	MRN         string     `json:"mrn"`
	FullName    string     `json:"full_name"`
	Phone       string     `json:"phone"`
	Email       string     `json:"email,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Sex         string     `json:"sex,omitempty"`
	Address     string     `json:"address,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// RegisterParams carries the fields accepted at registration time.
type RegisterParams struct {
	FullName    string     `json:"full_name"`
	Phone       string     `json:"phone"`
	Email       string     `json:"email"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Sex         string     `json:"sex"`
	Address     string     `json:"address"`
	Notes       string     `json:"notes"`
}

// UpdateParams carries demographic fields that may change after registration.
// Nil pointers leave the stored value untouched.
type UpdateParams struct {
	FullName *string    `json:"full_name"`
	Phone    *string    `json:"phone"`
	Email    *string    `json:"email"`
	Sex      *string    `json:"sex"`
	Address  *string    `json:"address"`
	Notes    *string    `json:"notes"`
	DOB      *time.Time `json:"date_of_birth"`
}

// ListFilter narrows and pages a patient listing. Search matches name or
// phone, case-insensitively.
type ListFilter struct {
	Search  string
	Page    int
	PerPage int
}

// Normalize clamps paging to sane bounds.
func (f *ListFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 || f.PerPage > 100 {
		f.PerPage = 25
	}
}

// Offset returns the row offset for the normalized filter.
func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.PerPage
}

var sexChoices = []string{"male", "female", "other", "unknown"}
