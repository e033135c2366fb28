package patients

import "errors"

var (
	// ErrNotFound is returned when a patient does not exist within the
	// caller's tenant. A patient of another tenant is indistinguishable from
	// a missing one.
	ErrNotFound = errors.New("patients: patient not found")

	// ErrDuplicatePhone is returned when the phone number is already
	// registered to another patient of the same tenant.
	ErrDuplicatePhone = errors.New("patients: phone number already registered")

	// ErrMRNConflict signals an MRN collision; the service retries with a
	// fresh number before giving up.
	ErrMRNConflict = errors.New("patients: mrn already taken")
)
