package appointments

import "errors"

var (
	// ErrNotFound is returned when the appointment does not exist within the
	// caller's tenant scope.
	ErrNotFound = errors.New("appointments: appointment not found")

	// ErrInvalidTransition is returned when a status change is not permitted
	// by the lifecycle, e.g. completing an appointment nobody checked in to.
	ErrInvalidTransition = errors.New("appointments: invalid status transition")

	// ErrPatientNotFound is returned when the referenced patient does not
	// exist in the caller's tenant.
	ErrPatientNotFound = errors.New("appointments: patient not found")

	// ErrTicketConflict signals that a concurrent booking took the computed
	// ticket number; the service retries in a fresh transaction.
	ErrTicketConflict = errors.New("appointments: ticket number already taken")
)
