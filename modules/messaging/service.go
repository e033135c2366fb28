package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mediqcloud/mediq/pkg/validator"
)

// Repository persists outbox messages, tenant-scoped through the gateway.
type Repository interface {
	Create(ctx context.Context, m Message) error
	GetByID(ctx context.Context, id uuid.UUID) (Message, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Message, error)
	SetStatus(ctx context.Context, id uuid.UUID, from, to Status, at time.Time) error
}

// Service renders templates into the outbox and manages queued messages.
type Service struct {
	repo    Repository
	gallery *Gallery
	now     func() time.Time
}

func NewService(repo Repository, gallery *Gallery) *Service {
	return &Service{repo: repo, gallery: gallery, now: time.Now}
}

// Enqueue renders the selected template and stores the message as queued.
func (s *Service) Enqueue(ctx context.Context, params EnqueueParams) (Message, error) {
	if err := validator.Apply(
		validator.Rule{
			Check: func() bool { return params.PatientID != uuid.Nil },
			Error: validator.ValidationError{Field: "patient_id", Message: "field is required"},
		},
		validator.RequiredString("template", params.Template),
	); err != nil {
		return Message{}, err
	}

	body, err := s.gallery.Render(params.Template, params.Language, params.Params)
	if err != nil {
		return Message{}, err
	}

	language := params.Language
	if language == "" {
		language = "en"
	}

	now := s.now().UTC()
	m := Message{
		ID:        uuid.New(),
		PatientID: params.PatientID,
		Template:  params.Template,
		Language:  language,
		Body:      body,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return Message{}, err
	}
	return m, nil
}

// ListByPatient returns the patient's outbox history, newest first.
func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Message, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

// Cancel withdraws a message that has not been sent yet.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (Message, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Message{}, err
	}
	if m.Status != StatusQueued {
		return Message{}, ErrNotCancellable
	}

	now := s.now().UTC()
	if err := s.repo.SetStatus(ctx, id, StatusQueued, StatusCancelled, now); err != nil {
		return Message{}, err
	}
	m.Status = StatusCancelled
	m.UpdatedAt = now
	return m, nil
}

// Templates exposes the gallery for the listing endpoint.
func (s *Service) Templates() []Template {
	return s.gallery.Templates()
}
