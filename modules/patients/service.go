package patients

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mediqcloud/mediq/pkg/validator"
)

// Repository persists patients. The pgx implementation executes every method
// through the scoped gateway; tests substitute an in-memory fake.
type Repository interface {
	Create(ctx context.Context, p Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (Patient, error)
	Update(ctx context.Context, p Patient) error
	List(ctx context.Context, f ListFilter) ([]Patient, int, error)
}

// mrnAttempts bounds retries on MRN collisions. With 10^8 numbers per tenant
// a second collision in a row is effectively a data problem, not bad luck.
const mrnAttempts = 3

// Service implements patient registration and demographics on top of a
// tenant-scoped repository.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Register validates the params, assigns an MRN, and stores the patient.
func (s *Service) Register(ctx context.Context, params RegisterParams) (Patient, error) {
	if err := validateRegister(params); err != nil {
		return Patient{}, err
	}

	now := s.now().UTC()
	p := Patient{
		ID:          uuid.New(),
		FullName:    params.FullName,
		Phone:       params.Phone,
		Email:       params.Email,
		DateOfBirth: params.DateOfBirth,
		Sex:         params.Sex,
		Address:     params.Address,
		Notes:       params.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var err error
	for attempt := 0; attempt < mrnAttempts; attempt++ {
		p.MRN = newMRN()
		err = s.repo.Create(ctx, p)
		if !errors.Is(err, ErrMRNConflict) {
			break
		}
	}
	if err != nil {
		return Patient{}, err
	}
	return p, nil
}

// Get returns one patient of the caller's tenant.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Patient, error) {
	return s.repo.GetByID(ctx, id)
}

// Update applies the non-nil demographic fields and stores the result.
func (s *Service) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Patient{}, err
	}

	if params.FullName != nil {
		p.FullName = *params.FullName
	}
	if params.Phone != nil {
		p.Phone = *params.Phone
	}
	if params.Email != nil {
		p.Email = *params.Email
	}
	if params.Sex != nil {
		p.Sex = *params.Sex
	}
	if params.Address != nil {
		p.Address = *params.Address
	}
	if params.Notes != nil {
		p.Notes = *params.Notes
	}
	if params.DOB != nil {
		p.DateOfBirth = params.DOB
	}

	if err := validateDemographics(p); err != nil {
		return Patient{}, err
	}

	p.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, p); err != nil {
		return Patient{}, err
	}
	return p, nil
}

// List returns a page of patients plus the total match count.
func (s *Service) List(ctx context.Context, f ListFilter) ([]Patient, int, error) {
	f.Normalize()
	return s.repo.List(ctx, f)
}

func validateRegister(params RegisterParams) error {
	return validator.Apply(
		validator.RequiredString("full_name", params.FullName),
		validator.MaxLenString("full_name", params.FullName, 200),
		validator.RequiredString("phone", params.Phone),
		validator.PhoneE164("phone", params.Phone),
		sexRule(params.Sex),
		dobRule(params.DateOfBirth),
	)
}

func validateDemographics(p Patient) error {
	return validator.Apply(
		validator.RequiredString("full_name", p.FullName),
		validator.MaxLenString("full_name", p.FullName, 200),
		validator.RequiredString("phone", p.Phone),
		validator.PhoneE164("phone", p.Phone),
		sexRule(p.Sex),
		dobRule(p.DateOfBirth),
	)
}

func sexRule(sex string) validator.Rule {
	if sex == "" {
		return validator.Rule{Check: func() bool { return true }}
	}
	return validator.InChoice("sex", sex, sexChoices)
}

func dobRule(dob *time.Time) validator.Rule {
	if dob == nil {
		return validator.Rule{Check: func() bool { return true }}
	}
	return validator.PastDate("date_of_birth", *dob)
}

// newMRN generates an eight digit medical record number, P-XXXXXXXX.
// Uniqueness is enforced per tenant by the database; collisions surface as
// ErrMRNConflict and are retried.
func newMRN() string {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand never fails on supported platforms.
		panic(fmt.Sprintf("patients: mrn entropy: %v", err))
	}
	return fmt.Sprintf("P-%08d", binary.BigEndian.Uint32(buf[:])%100_000_000)
}
