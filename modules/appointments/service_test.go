package appointments_test

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediqcloud/mediq/modules/appointments"
	"github.com/mediqcloud/mediq/pkg/validator"
	"github.com/mediqcloud/mediq/svc/identity"
	"github.com/mediqcloud/mediq/svc/tenant"
)

type dayKey struct {
	branch uuid.UUID
	day    string
}

// fakeRepo mimics the transactional ticket assignment of the pgx repository,
// including the lost-race signal a concurrent booking produces.
type fakeRepo struct {
	store         map[uuid.UUID]appointments.Appointment
	tickets       map[dayKey]int
	ticketClashes int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		store:   make(map[uuid.UUID]appointments.Appointment),
		tickets: make(map[dayKey]int),
	}
}

func (r *fakeRepo) Create(_ context.Context, a appointments.Appointment) (appointments.Appointment, error) {
	if r.ticketClashes > 0 {
		r.ticketClashes--
		return appointments.Appointment{}, appointments.ErrTicketConflict
	}
	key := dayKey{branch: a.BranchID, day: a.QueueDay}
	r.tickets[key]++
	a.TicketNo = r.tickets[key]
	r.store[a.ID] = a
	return a, nil
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (appointments.Appointment, error) {
	a, ok := r.store[id]
	if !ok {
		return appointments.Appointment{}, appointments.ErrNotFound
	}
	return a, nil
}

func (r *fakeRepo) SetStatus(_ context.Context, id uuid.UUID, from, to appointments.Status, at time.Time) error {
	a, ok := r.store[id]
	if !ok || a.Status != from {
		return appointments.ErrInvalidTransition
	}
	a.Status = to
	a.UpdatedAt = at
	r.store[id] = a
	return nil
}

func (r *fakeRepo) ListDay(_ context.Context, branchID uuid.UUID, day string) ([]appointments.Appointment, error) {
	var items []appointments.Appointment
	for _, a := range r.store {
		if a.BranchID == branchID && a.QueueDay == day {
			items = append(items, a)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].TicketNo < items[j].TicketNo })
	return items, nil
}

func branchContext(t *testing.T, branchID uuid.UUID) context.Context {
	t.Helper()
	tc, err := tenant.New(identity.Identity{
		UserID:    uuid.New(),
		TenantID:  uuid.New(),
		BranchIDs: []uuid.UUID{branchID},
	}, nil)
	require.NoError(t, err)
	return tenant.WithContext(context.Background(), tc)
}

func branchlessContext(t *testing.T) context.Context {
	t.Helper()
	tc, err := tenant.New(identity.Identity{
		UserID:    uuid.New(),
		TenantID:  uuid.New(),
		BranchIDs: []uuid.UUID{uuid.New(), uuid.New()},
	}, nil)
	require.NoError(t, err)
	return tenant.WithContext(context.Background(), tc)
}

func validParams() appointments.CreateParams {
	return appointments.CreateParams{
		PatientID:      uuid.New(),
		PractitionerID: uuid.New(),
		ScheduledAt:    time.Date(2026, 9, 1, 9, 30, 0, 0, time.UTC),
		Reason:         "follow-up",
	}
}

func TestStatusMachine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to appointments.Status
		ok       bool
	}{
		{appointments.StatusScheduled, appointments.StatusCheckedIn, true},
		{appointments.StatusScheduled, appointments.StatusCancelled, true},
		{appointments.StatusScheduled, appointments.StatusNoShow, true},
		{appointments.StatusScheduled, appointments.StatusInProgress, false},
		{appointments.StatusScheduled, appointments.StatusCompleted, false},
		{appointments.StatusCheckedIn, appointments.StatusInProgress, true},
		{appointments.StatusCheckedIn, appointments.StatusCompleted, false},
		{appointments.StatusInProgress, appointments.StatusCompleted, true},
		{appointments.StatusInProgress, appointments.StatusNoShow, false},
		{appointments.StatusCompleted, appointments.StatusScheduled, false},
		{appointments.StatusCancelled, appointments.StatusCheckedIn, false},
		{appointments.StatusNoShow, appointments.StatusScheduled, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.ok, tt.from.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestServiceCreate(t *testing.T) {
	t.Parallel()

	t.Run("requires a selected branch", func(t *testing.T) {
		t.Parallel()

		svc := appointments.NewService(newFakeRepo())
		_, err := svc.Create(branchlessContext(t), validParams())
		assert.ErrorIs(t, err, tenant.ErrBranchRequired)
	})

	t.Run("fails closed without tenant context", func(t *testing.T) {
		t.Parallel()

		svc := appointments.NewService(newFakeRepo())
		_, err := svc.Create(context.Background(), validParams())
		assert.ErrorIs(t, err, tenant.ErrContextNotSet)
	})

	t.Run("assigns sequential tickets per branch day", func(t *testing.T) {
		t.Parallel()

		branchID := uuid.New()
		ctx := branchContext(t, branchID)
		svc := appointments.NewService(newFakeRepo())

		first, err := svc.Create(ctx, validParams())
		require.NoError(t, err)
		second, err := svc.Create(ctx, validParams())
		require.NoError(t, err)

		assert.Equal(t, 1, first.TicketNo)
		assert.Equal(t, 2, second.TicketNo)
		assert.Equal(t, branchID, first.BranchID)
		assert.Equal(t, appointments.StatusScheduled, first.Status)
		assert.Equal(t, "2026-09-01", first.QueueDay)
	})

	t.Run("retries lost ticket races", func(t *testing.T) {
		t.Parallel()

		repo := newFakeRepo()
		repo.ticketClashes = 2
		svc := appointments.NewService(repo)

		a, err := svc.Create(branchContext(t, uuid.New()), validParams())
		require.NoError(t, err)
		assert.Equal(t, 1, a.TicketNo)
	})

	t.Run("gives up after persistent ticket races", func(t *testing.T) {
		t.Parallel()

		repo := newFakeRepo()
		repo.ticketClashes = 10
		svc := appointments.NewService(repo)

		_, err := svc.Create(branchContext(t, uuid.New()), validParams())
		assert.ErrorIs(t, err, appointments.ErrTicketConflict)
	})

	t.Run("ticket sequences are independent per day", func(t *testing.T) {
		t.Parallel()

		ctx := branchContext(t, uuid.New())
		svc := appointments.NewService(newFakeRepo())

		_, err := svc.Create(ctx, validParams())
		require.NoError(t, err)

		nextDay := validParams()
		nextDay.ScheduledAt = nextDay.ScheduledAt.Add(24 * time.Hour)
		a, err := svc.Create(ctx, nextDay)
		require.NoError(t, err)
		assert.Equal(t, 1, a.TicketNo)
	})

	t.Run("validates input", func(t *testing.T) {
		t.Parallel()

		svc := appointments.NewService(newFakeRepo())
		_, err := svc.Create(branchContext(t, uuid.New()), appointments.CreateParams{})

		ve := validator.Extract(err)
		require.NotNil(t, ve)
		assert.True(t, ve.Has("patient_id"))
		assert.True(t, ve.Has("practitioner_id"))
		assert.True(t, ve.Has("scheduled_at"))
	})
}

func TestServiceTransition(t *testing.T) {
	t.Parallel()

	book := func(t *testing.T) (*appointments.Service, context.Context, appointments.Appointment) {
		t.Helper()
		ctx := branchContext(t, uuid.New())
		svc := appointments.NewService(newFakeRepo())
		a, err := svc.Create(ctx, validParams())
		require.NoError(t, err)
		return svc, ctx, a
	}

	t.Run("walks the happy path", func(t *testing.T) {
		t.Parallel()

		svc, ctx, a := book(t)
		for _, next := range []appointments.Status{
			appointments.StatusCheckedIn,
			appointments.StatusInProgress,
			appointments.StatusCompleted,
		} {
			var err error
			a, err = svc.Transition(ctx, a.ID, next)
			require.NoError(t, err)
			assert.Equal(t, next, a.Status)
		}
	})

	t.Run("rejects skipping states", func(t *testing.T) {
		t.Parallel()

		svc, ctx, a := book(t)
		_, err := svc.Transition(ctx, a.ID, appointments.StatusCompleted)
		assert.ErrorIs(t, err, appointments.ErrInvalidTransition)
	})

	t.Run("terminal states are final", func(t *testing.T) {
		t.Parallel()

		svc, ctx, a := book(t)
		_, err := svc.Transition(ctx, a.ID, appointments.StatusCancelled)
		require.NoError(t, err)

		_, err = svc.Transition(ctx, a.ID, appointments.StatusCheckedIn)
		assert.ErrorIs(t, err, appointments.ErrInvalidTransition)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		t.Parallel()

		svc, ctx, a := book(t)
		_, err := svc.Transition(ctx, a.ID, appointments.Status("teleported"))
		assert.NotNil(t, validator.Extract(err))
	})
}

func TestServiceQueue(t *testing.T) {
	t.Parallel()

	branchID := uuid.New()
	ctx := branchContext(t, branchID)
	svc := appointments.NewService(newFakeRepo())

	for n := 0; n < 3; n++ {
		_, err := svc.Create(ctx, validParams())
		require.NoError(t, err)
	}

	t.Run("ordered by ticket", func(t *testing.T) {
		items, err := svc.Queue(ctx, "2026-09-01")
		require.NoError(t, err)
		require.Len(t, items, 3)
		for i, a := range items {
			assert.Equal(t, i+1, a.TicketNo)
		}
	})

	t.Run("requires a selected branch", func(t *testing.T) {
		_, err := svc.Queue(branchlessContext(t), "2026-09-01")
		assert.ErrorIs(t, err, tenant.ErrBranchRequired)
	})

	t.Run("rejects malformed day", func(t *testing.T) {
		_, err := svc.Queue(ctx, "tomorrow")
		assert.NotNil(t, validator.Extract(err))
	})
}
