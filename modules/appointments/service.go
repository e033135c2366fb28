package appointments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mediqcloud/mediq/pkg/validator"
	"github.com/mediqcloud/mediq/svc/tenant"
)

// Repository persists appointments. Create assigns the ticket number inside
// the same transaction that inserts the row, so two concurrent bookings on
// one branch day cannot share a ticket.
type Repository interface {
	Create(ctx context.Context, a Appointment) (Appointment, error)
	GetByID(ctx context.Context, id uuid.UUID) (Appointment, error)
	SetStatus(ctx context.Context, id uuid.UUID, from, to Status, at time.Time) error
	ListDay(ctx context.Context, branchID uuid.UUID, day string) ([]Appointment, error)
}

// ticketAttempts bounds retries when concurrent bookings collide on a ticket
// number. Each attempt recomputes the ticket in a fresh transaction.
const ticketAttempts = 3

// Service implements booking and the status lifecycle.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Create books an appointment on the selected branch. The branch comes from
// the bound tenant context, never from the request body; a context without a
// selected branch is rejected before any database work.
func (s *Service) Create(ctx context.Context, params CreateParams) (Appointment, error) {
	branchID, err := tenant.RequireBranch(ctx)
	if err != nil {
		return Appointment{}, err
	}

	if err := validator.Apply(
		validator.Rule{
			Check: func() bool { return params.PatientID != uuid.Nil },
			Error: validator.ValidationError{Field: "patient_id", Message: "field is required"},
		},
		validator.Rule{
			Check: func() bool { return params.PractitionerID != uuid.Nil },
			Error: validator.ValidationError{Field: "practitioner_id", Message: "field is required"},
		},
		validator.Rule{
			Check: func() bool { return !params.ScheduledAt.IsZero() },
			Error: validator.ValidationError{Field: "scheduled_at", Message: "field is required"},
		},
		validator.MaxLenString("reason", params.Reason, 500),
	); err != nil {
		return Appointment{}, err
	}

	now := s.now().UTC()
	a := Appointment{
		ID:             uuid.New(),
		PatientID:      params.PatientID,
		PractitionerID: params.PractitionerID,
		BranchID:       branchID,
		ScheduledAt:    params.ScheduledAt.UTC(),
		QueueDay:       queueDay(params.ScheduledAt),
		Status:         StatusScheduled,
		Reason:         params.Reason,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	var created Appointment
	for attempt := 0; attempt < ticketAttempts; attempt++ {
		created, err = s.repo.Create(ctx, a)
		if !errors.Is(err, ErrTicketConflict) {
			break
		}
	}
	if err != nil {
		return Appointment{}, err
	}
	return created, nil
}

// Get returns one appointment of the caller's tenant.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

// Transition moves the appointment to the next status. The current status is
// re-read and passed as a guard to the update, so a concurrent transition
// loses cleanly instead of skipping a state.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, next Status) (Appointment, error) {
	if !next.Valid() {
		return Appointment{}, validator.ValidationErrors{
			{Field: "status", Message: "unknown status"},
		}
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Appointment{}, err
	}
	if !a.Status.CanTransition(next) {
		return Appointment{}, ErrInvalidTransition
	}

	now := s.now().UTC()
	if err := s.repo.SetStatus(ctx, id, a.Status, next, now); err != nil {
		return Appointment{}, err
	}
	a.Status = next
	a.UpdatedAt = now
	return a, nil
}

// Queue returns the branch's queue for one day, ordered by ticket number.
// Like Create, it is branch-mandatory.
func (s *Service) Queue(ctx context.Context, day string) ([]Appointment, error) {
	branchID, err := tenant.RequireBranch(ctx)
	if err != nil {
		return nil, err
	}
	if day == "" {
		day = queueDay(s.now())
	}
	if _, err := time.Parse(time.DateOnly, day); err != nil {
		return nil, validator.ValidationErrors{
			{Field: "day", Message: "must be a date in YYYY-MM-DD format"},
		}
	}
	return s.repo.ListDay(ctx, branchID, day)
}
