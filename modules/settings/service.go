package settings

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/mediqcloud/mediq/pkg/validator"
	"github.com/mediqcloud/mediq/svc/identity"
	"github.com/mediqcloud/mediq/svc/tenant"
)

// ErrNotFound is returned by repositories for unconfigured rows; the service
// folds it into defaults so callers always get a usable value.
var ErrNotFound = errors.New("settings: not found")

// Repository persists settings, tenant-scoped through the gateway. Get
// methods return ErrNotFound for rows nobody wrote yet.
type Repository interface {
	GetBranch(ctx context.Context, branchID uuid.UUID) (BranchSettings, error)
	UpsertBranch(ctx context.Context, s BranchSettings) error
	GetPreferences(ctx context.Context, userID uuid.UUID) (UserPreferences, error)
	UpsertPreferences(ctx context.Context, p UserPreferences) error
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// GetBranch returns the selected branch's settings, or defaults when the
// branch was never configured. Branch-mandatory.
func (s *Service) GetBranch(ctx context.Context) (BranchSettings, error) {
	branchID, err := tenant.RequireBranch(ctx)
	if err != nil {
		return BranchSettings{}, err
	}

	settings, err := s.repo.GetBranch(ctx, branchID)
	if errors.Is(err, ErrNotFound) {
		return DefaultBranchSettings(branchID), nil
	}
	return settings, err
}

// UpdateBranch patches the selected branch's settings. Branch-mandatory.
func (s *Service) UpdateBranch(ctx context.Context, params UpdateBranchParams) (BranchSettings, error) {
	current, err := s.GetBranch(ctx)
	if err != nil {
		return BranchSettings{}, err
	}

	if params.Timezone != nil {
		current.Timezone = *params.Timezone
	}
	if params.QueuePrefix != nil {
		current.QueuePrefix = *params.QueuePrefix
	}
	if params.OpensAt != nil {
		current.OpensAt = *params.OpensAt
	}
	if params.ClosesAt != nil {
		current.ClosesAt = *params.ClosesAt
	}

	if err := validateBranch(current); err != nil {
		return BranchSettings{}, err
	}

	current.UpdatedAt = s.now().UTC()
	if err := s.repo.UpsertBranch(ctx, current); err != nil {
		return BranchSettings{}, err
	}
	return current, nil
}

// GetPreferences returns the acting user's preferences, or defaults.
func (s *Service) GetPreferences(ctx context.Context) (UserPreferences, error) {
	tc, err := tenant.FromContext(ctx)
	if err != nil {
		return UserPreferences{}, err
	}

	prefs, err := s.repo.GetPreferences(ctx, tc.UserID())
	if errors.Is(err, ErrNotFound) {
		return DefaultUserPreferences(tc.UserID()), nil
	}
	return prefs, err
}

// UpdatePreferences patches the acting user's preferences. A default branch
// must be one the user can actually access; tenant-level row security cannot
// check branch membership, so the resolved identity is consulted here.
func (s *Service) UpdatePreferences(ctx context.Context, params UpdatePreferencesParams) (UserPreferences, error) {
	current, err := s.GetPreferences(ctx)
	if err != nil {
		return UserPreferences{}, err
	}

	if params.DefaultBranchID != nil {
		id, ok := identity.FromContext(ctx)
		if !ok || !id.CanAccessBranch(*params.DefaultBranchID) {
			return UserPreferences{}, tenant.ErrBranchAccessDenied
		}
		current.DefaultBranchID = uuid.NullUUID{UUID: *params.DefaultBranchID, Valid: true}
	}
	if params.Locale != nil {
		current.Locale = *params.Locale
	}

	if err := validator.Apply(
		validator.InChoice("locale", current.Locale, localeChoices),
	); err != nil {
		return UserPreferences{}, err
	}

	current.UpdatedAt = s.now().UTC()
	if err := s.repo.UpsertPreferences(ctx, current); err != nil {
		return UserPreferences{}, err
	}
	return current, nil
}

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

func validateBranch(s BranchSettings) error {
	return validator.Apply(
		validator.RequiredString("timezone", s.Timezone),
		validator.Rule{
			Check: func() bool {
				_, err := time.LoadLocation(s.Timezone)
				return err == nil
			},
			Error: validator.ValidationError{Field: "timezone", Message: "must be a valid IANA timezone"},
		},
		validator.RequiredString("queue_prefix", s.QueuePrefix),
		validator.MaxLenString("queue_prefix", s.QueuePrefix, 3),
		validator.Rule{
			Check: func() bool { return clockPattern.MatchString(s.OpensAt) },
			Error: validator.ValidationError{Field: "opens_at", Message: "must be a time in HH:MM format"},
		},
		validator.Rule{
			Check: func() bool { return clockPattern.MatchString(s.ClosesAt) },
			Error: validator.ValidationError{Field: "closes_at", Message: "must be a time in HH:MM format"},
		},
		validator.Rule{
			Check: func() bool { return s.OpensAt < s.ClosesAt },
			Error: validator.ValidationError{Field: "closes_at", Message: "must be after opens_at"},
		},
	)
}
