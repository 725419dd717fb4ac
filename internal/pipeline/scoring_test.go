package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monicap360/move-around-tms/internal/async"
	"github.com/monicap360/move-around-tms/internal/entity"
)

func seedTicket(t *testing.T, m *memTickets, tk entity.Ticket) entity.Ticket {
	t.Helper()
	require.NoError(t, m.Create(context.Background(), &tk))
	return tk
}

func TestScoringHandler_ScoresPresentFields(t *testing.T) {
	tickets := newMemTickets()
	driver, partner := "d1", "p1"
	wait := 14.0
	tk := seedTicket(t, tickets, entity.Ticket{
		Quantity: 12, TotalPay: decimal.NewFromInt(300), WaitingMinutes: &wait,
		DriverID: &driver, PartnerID: &partner,
	})
	v := &fakeValidator{}
	sc := &fakeScorer{score: 0.4}
	scores := &memScores{}

	h := NewScoringHandler(nil, v, tickets, sc, scores, nil)
	require.NoError(t, h.HandleScoring(context.Background(), async.ScoringTask{TicketID: tk.ID, OrganizationID: "org-1"}))

	assert.Equal(t, 1, v.calls)
	require.Len(t, sc.reqs, 3)
	names := []string{sc.reqs[0].FieldName, sc.reqs[1].FieldName, sc.reqs[2].FieldName}
	assert.Equal(t, []string{"quantity", "total_pay", "waiting_minutes"}, names)
	assert.Equal(t, 300.0, sc.reqs[1].ActualValue)
	assert.Equal(t, "d1", *sc.reqs[0].DriverID)
	assert.Equal(t, "p1", *sc.reqs[0].SiteID)
	assert.Equal(t, tk.ID.String(), sc.reqs[0].EntityID)
	assert.Equal(t, []string{"org-1", "org-1", "org-1"}, sc.orgs)
	assert.Len(t, scores.saved, 3)
}

func TestScoringHandler_NilWriterAndValidator(t *testing.T) {
	tickets := newMemTickets()
	tk := seedTicket(t, tickets, entity.Ticket{Quantity: 5})
	sc := &fakeScorer{score: 0.95}

	h := NewScoringHandler(nil, nil, tickets, sc, nil, nil)
	require.NoError(t, h.HandleScoring(context.Background(), async.ScoringTask{TicketID: tk.ID}))
	assert.Len(t, sc.reqs, 2)
}

func TestScoringHandler_Errors(t *testing.T) {
	tickets := newMemTickets()
	tk := seedTicket(t, tickets, entity.Ticket{})

	h := NewScoringHandler(nil, &fakeValidator{err: errors.New("rules unavailable")}, tickets, &fakeScorer{}, nil, nil)
	err := h.HandleScoring(context.Background(), async.ScoringTask{TicketID: tk.ID})
	assert.ErrorContains(t, err, "validate ticket")

	h = NewScoringHandler(nil, nil, newMemTickets(), &fakeScorer{}, nil, nil)
	err = h.HandleScoring(context.Background(), async.ScoringTask{TicketID: tk.ID})
	assert.ErrorContains(t, err, "load ticket")
}
