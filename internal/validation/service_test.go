package validation

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monicap360/move-around-tms/constants"
	"github.com/monicap360/move-around-tms/internal/entity"
)

type fakeRules struct {
	rules []entity.ValidationRule
	err   error
}

func (f fakeRules) ListActive(context.Context, *string) ([]entity.ValidationRule, error) {
	return f.rules, f.err
}

type fakeFences struct {
	project, org []entity.Geofence
	calls        []string
}

func (f *fakeFences) ListForProject(_ context.Context, projectID string) ([]entity.Geofence, error) {
	f.calls = append(f.calls, "project:"+projectID)
	return f.project, nil
}

func (f *fakeFences) ListOrgWide(context.Context, *string) ([]entity.Geofence, error) {
	f.calls = append(f.calls, "org")
	return f.org, nil
}

type fakeTrucks map[string]float64

func (f fakeTrucks) CapacityTons(_ context.Context, id string) (*float64, error) {
	if v, ok := f[id]; ok {
		return &v, nil
	}
	return nil, nil
}

type fakeTickets struct {
	ticket    *entity.Ticket
	distances []float64
	saved     *entity.ValidationSummary
}

func (f *fakeTickets) Get(_ context.Context, id uuid.UUID) (*entity.Ticket, error) {
	if f.ticket == nil || f.ticket.ID != id {
		return nil, errors.New("not found")
	}
	return f.ticket, nil
}

func (f *fakeTickets) UpdateDistance(_ context.Context, _ uuid.UUID, miles float64) error {
	f.distances = append(f.distances, miles)
	return nil
}

func (f *fakeTickets) SaveValidation(_ context.Context, _ uuid.UUID, s entity.ValidationSummary) error {
	f.saved = &s
	return nil
}

func TestService_ValidateTicket_AppliesCorrection(t *testing.T) {
	dump := milesNorth(origin, 50)
	truck := "truck-7"
	project := "proj-1"
	tk := &entity.Ticket{
		ID: uuid.New(), Pickup: &origin, Dump: &dump, DistanceMiles: f(100),
		TruckID: &truck, ProjectID: &project, LoadWeightTons: f(22), HasPhoto: true,
	}
	dist := rule("d", constants.RuleDistance, constants.SeverityError)
	dist.AutoCorrect = true
	rules := fakeRules{rules: []entity.ValidationRule{
		dist,
		rule("w", constants.RuleWeight, constants.SeverityWarning),
		rule("l", constants.RuleLocation, constants.SeverityWarning),
	}}
	fences := &fakeFences{}
	tickets := &fakeTickets{ticket: tk}

	svc := NewService(nil, nil, rules, fences, fakeTrucks{truck: 20}, tickets)
	sum, err := svc.ValidateTicket(context.Background(), tk.ID)
	require.NoError(t, err)

	assert.Equal(t, []float64{50}, tickets.distances)
	require.NotNil(t, tickets.saved)
	assert.Equal(t, sum, *tickets.saved)
	assert.Equal(t, []string{"project:proj-1"}, fences.calls)
	require.Len(t, sum.Corrections, 1)
	// weight overload and missing geofences both warn
	assert.Len(t, sum.Warnings, 2)
}

func TestService_OrgWideFencesWithoutProject(t *testing.T) {
	tk := &entity.Ticket{ID: uuid.New()}
	fences := &fakeFences{}
	svc := NewService(nil, nil,
		fakeRules{rules: []entity.ValidationRule{rule("l", constants.RuleLocation, constants.SeverityError)}},
		fences, fakeTrucks{}, &fakeTickets{ticket: tk})

	_, err := svc.ValidateTicket(context.Background(), tk.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"org"}, fences.calls)
}

func TestService_NoCorrectionWithoutAutoCorrect(t *testing.T) {
	dump := milesNorth(origin, 50)
	tk := &entity.Ticket{ID: uuid.New(), Pickup: &origin, Dump: &dump, DistanceMiles: f(100)}
	tickets := &fakeTickets{ticket: tk}
	svc := NewService(nil, nil,
		fakeRules{rules: []entity.ValidationRule{rule("d", constants.RuleDistance, constants.SeverityError)}},
		&fakeFences{}, fakeTrucks{}, tickets)

	sum, err := svc.ValidateTicket(context.Background(), tk.ID)
	require.NoError(t, err)
	assert.Empty(t, tickets.distances)
	assert.Len(t, sum.Errors, 1)
}

func TestService_StoreErrors(t *testing.T) {
	tk := &entity.Ticket{ID: uuid.New()}
	svc := NewService(nil, nil, fakeRules{err: errors.New("boom")}, &fakeFences{}, fakeTrucks{}, &fakeTickets{ticket: tk})
	_, err := svc.ValidateTicket(context.Background(), tk.ID)
	assert.ErrorContains(t, err, "load rules")

	_, err = svc.ValidateTicket(context.Background(), uuid.New())
	assert.ErrorContains(t, err, "load ticket")
}
