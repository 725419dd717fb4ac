package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/monicap360/move-around-tms/internal/async"
	"github.com/monicap360/move-around-tms/internal/common"
	"github.com/monicap360/move-around-tms/internal/confidence"
	"github.com/monicap360/move-around-tms/internal/entity"
	"github.com/monicap360/move-around-tms/internal/extract"
)

type fakeExtractor struct {
	res extract.Result
	err error
}

func (f fakeExtractor) Extract(_ context.Context, src extract.ImageSource) (extract.Result, error) {
	if err := src.Validate(); err != nil {
		return extract.Result{}, err
	}
	return f.res, f.err
}

type fakePartners struct{ list []entity.Partner }

func (f fakePartners) ListActive(context.Context, *string) ([]entity.Partner, error) {
	return f.list, nil
}

type fakeDrivers struct {
	list    []entity.Driver
	aliases []entity.DriverAlias
	err     error
}

func (f fakeDrivers) List(context.Context, *string) ([]entity.Driver, error) { return f.list, f.err }
func (f fakeDrivers) ListAliases(context.Context, *string) ([]entity.DriverAlias, error) {
	return f.aliases, nil
}
func (f fakeDrivers) Get(_ context.Context, id string) (*entity.Driver, error) {
	for _, d := range f.list {
		if d.ID == id {
			return &d, nil
		}
	}
	return nil, common.NotFound("driver not found")
}

type memTickets struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]entity.Ticket
	failErr error
}

func newMemTickets() *memTickets { return &memTickets{rows: map[uuid.UUID]entity.Ticket{}} }

func (m *memTickets) Create(_ context.Context, t *entity.Ticket) error {
	if m.failErr != nil {
		return m.failErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = uuid.New()
	t.CreatedAt = time.Now().UTC()
	m.rows[t.ID] = *t
	return nil
}

func (m *memTickets) Get(_ context.Context, id uuid.UUID) (*entity.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[id]
	if !ok {
		return nil, common.NotFound("ticket not found")
	}
	return &t, nil
}

type memDocs struct{ rows []entity.DriverDocument }

func (m *memDocs) Create(_ context.Context, d *entity.DriverDocument) error {
	d.ID = uuid.New()
	m.rows = append(m.rows, *d)
	return nil
}

type recordingDispatcher struct {
	tasks []async.ScoringTask
	err   error
}

func (r *recordingDispatcher) DispatchScoring(ctx context.Context, task async.ScoringTask) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	r.tasks = append(r.tasks, task)
	return r.err
}

type fakeValidator struct {
	calls int
	err   error
}

func (f *fakeValidator) ValidateTicket(context.Context, uuid.UUID) (entity.ValidationSummary, error) {
	f.calls++
	return entity.ValidationSummary{ConfidenceScore: 0.9}, f.err
}

type fakeScorer struct {
	reqs  []confidence.Request
	orgs  []string
	score float64
}

func (f *fakeScorer) ScoreForVertical(_ context.Context, orgID string, req confidence.Request) (entity.ConfidenceScore, error) {
	if req.FieldName == "explode" {
		return entity.ConfidenceScore{}, errors.New("boom")
	}
	f.reqs = append(f.reqs, req)
	f.orgs = append(f.orgs, orgID)
	return entity.ConfidenceScore{ID: uuid.New(), FieldName: req.FieldName, Score: f.score}, nil
}

type memScores struct{ saved []entity.ConfidenceScore }

func (m *memScores) Save(_ context.Context, s entity.ConfidenceScore) error {
	m.saved = append(m.saved, s)
	return nil
}
