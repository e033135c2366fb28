// Package appointments handles scheduling and the per-branch day queue.
// Creating an appointment requires a concrete branch selection, because a
// queue ticket is meaningless without the facility it belongs to.
package appointments

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusCheckedIn  Status = "checked_in"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusNoShow     Status = "no_show"
)

// transitions is the full status machine. Terminal states have no entry.
var transitions = map[Status][]Status{
	StatusScheduled:  {StatusCheckedIn, StatusCancelled, StatusNoShow},
	StatusCheckedIn:  {StatusInProgress, StatusCancelled, StatusNoShow},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether moving from s to next is allowed.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusCheckedIn, StatusInProgress,
		StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Appointment is one scheduled visit. TicketNo is assigned at creation,
// sequential per branch per queue day.
type Appointment struct {
	ID             uuid.UUID `json:"id"`
	PatientID      uuid.UUID `json:"patient_id"`
	PractitionerID uuid.UUID `json:"practitioner_id"`
	BranchID       uuid.UUID `json:"branch_id"`
	ScheduledAt    time.Time `json:"scheduled_at"`
	QueueDay       string    `json:"queue_day"`
	TicketNo       int       `json:"ticket_no"`
	Status         Status    `json:"status"`
	Reason         string    `json:"reason,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CreateParams carries the fields accepted when booking.
type CreateParams struct {
	PatientID      uuid.UUID `json:"patient_id"`
	PractitionerID uuid.UUID `json:"practitioner_id"`
	ScheduledAt    time.Time `json:"scheduled_at"`
	Reason         string    `json:"reason"`
}

// queueDay buckets an appointment into its branch day queue. Days are UTC
// calendar dates; per-branch timezone display is a settings concern, the
// queue itself only needs a stable bucket.
func queueDay(at time.Time) string {
	return at.UTC().Format(time.DateOnly)
}
