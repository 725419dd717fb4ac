package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monicap360/move-around-tms/constants"
	"github.com/monicap360/move-around-tms/internal/async"
	"github.com/monicap360/move-around-tms/internal/common"
	"github.com/monicap360/move-around-tms/internal/entity"
	"github.com/monicap360/move-around-tms/internal/extract"
)

const ticketText = "Jones Const Ticket #8842 Material: Gravel 12.5 tons Driver: D Perez Date: 05/17/2024"

const licenseText = "TEXAS DRIVER LICENSE\nDL No: D1234567\nName: John Smith\nState: TX\nIss: 01/15/2020\nExp: 01/15/2028"

type harness struct {
	proc       *Processor
	tickets    *memTickets
	docs       *memDocs
	dispatcher *recordingDispatcher
}

func newHarness(text string, ocrErr error) *harness {
	partners := fakePartners{list: []entity.Partner{{
		ID: "p1", Name: "Jones Const", Active: true,
		PayRate:  decimal.NewNullDecimal(decimal.NewFromInt(20)),
		BillRate: decimal.NewNullDecimal(decimal.NewFromInt(30)),
	}}}
	lic := "D1234567"
	drivers := fakeDrivers{list: []entity.Driver{
		{ID: "d1", Name: "Daniel Perez"},
		{ID: "d2", Name: "John Smith", LicenseNumber: &lic},
	}}
	h := &harness{tickets: newMemTickets(), docs: &memDocs{}, dispatcher: &recordingDispatcher{}}
	ocr := NewOCRStage(fakeExtractor{res: extract.Result{Text: text, Confidence: 0.8, Provider: "stub"}, err: ocrErr}, nil)
	h.proc = NewProcessor(nil, ocr,
		NewTicketStage(partners, drivers, h.tickets, nil),
		NewHRStage(drivers, h.docs, nil),
		WithDispatcher(h.dispatcher))
	return h
}

func imageURL() extract.ImageSource { return extract.ImageSource{URL: "https://cdn.example.com/t.jpg"} }

func TestProcess_Ticket(t *testing.T) {
	h := newHarness(ticketText, nil)
	org := "org-1"

	out, err := h.proc.Process(context.Background(), Submission{Source: imageURL(), OrganizationID: &org})
	require.NoError(t, err)
	assert.Equal(t, constants.KindTicket, out.Kind)
	require.NotNil(t, out.Ticket)
	assert.Nil(t, out.HR)

	tk := out.Ticket.Ticket
	require.NotNil(t, out.Ticket.MatchedPartner)
	assert.Equal(t, "Jones Const", *out.Ticket.MatchedPartner)
	assert.Equal(t, 12.5, tk.Quantity)
	assert.True(t, decimal.NewFromInt(250).Equal(tk.TotalPay))
	assert.True(t, decimal.NewFromInt(375).Equal(tk.TotalBill))
	assert.True(t, decimal.NewFromInt(125).Equal(tk.TotalProfit))
	assert.Equal(t, constants.StatusPendingReview, tk.Status)
	require.NotNil(t, tk.DriverID)
	assert.Equal(t, "d1", *tk.DriverID)
	assert.True(t, tk.AutoMatched)
	assert.Equal(t, "https://cdn.example.com/t.jpg", tk.ImageRef)

	_, err = h.tickets.Get(context.Background(), tk.ID)
	require.NoError(t, err)
	require.Len(t, h.dispatcher.tasks, 1)
	assert.Equal(t, tk.ID, h.dispatcher.tasks[0].TicketID)
	assert.Equal(t, "org-1", h.dispatcher.tasks[0].OrganizationID)
}

func TestProcess_DriverOverride(t *testing.T) {
	h := newHarness(ticketText, nil)
	id := "d2"
	out, err := h.proc.Process(context.Background(), Submission{Source: imageURL(), DriverID: &id})
	require.NoError(t, err)

	tk := out.Ticket.Ticket
	assert.Equal(t, "d2", *tk.DriverID)
	assert.False(t, tk.AutoMatched)
	assert.Equal(t, OverrideConfidence, *tk.MatchConfidence)
	assert.Equal(t, "John Smith", out.Ticket.MatchedDriver.Name)
}

func TestProcess_UnknownPartnerUsesDefaults(t *testing.T) {
	h := newHarness("Ticket #1 Material: Sand 10 tons", nil)
	out, err := h.proc.Process(context.Background(), Submission{Source: imageURL(), Kind: "ticket"})
	require.NoError(t, err)
	assert.Nil(t, out.Ticket.MatchedPartner)
	assert.Nil(t, out.Ticket.Ticket.PartnerID)
	assert.True(t, decimal.NewFromInt(250).Equal(out.Ticket.Ticket.TotalPay))
	assert.Nil(t, out.Ticket.Ticket.DriverID)
	assert.False(t, out.Ticket.Ticket.AutoMatched)
}

func TestProcess_HR(t *testing.T) {
	h := newHarness(licenseText, nil)
	out, err := h.proc.Process(context.Background(), Submission{Source: imageURL()})
	require.NoError(t, err)
	assert.Equal(t, constants.KindHR, out.Kind)
	require.NotNil(t, out.HR)
	assert.Equal(t, constants.DocTypeLicense, out.HR.DocType)
	require.NotNil(t, out.HR.MatchedDriver)
	assert.Equal(t, "d2", out.HR.MatchedDriver.ID)
	assert.Len(t, h.docs.rows, 1)
	assert.Empty(t, h.dispatcher.tasks)
	assert.Empty(t, h.tickets.rows)
}

func TestProcess_HintBeatsClassifier(t *testing.T) {
	h := newHarness(licenseText, nil)
	out, err := h.proc.Process(context.Background(), Submission{Source: imageURL(), Kind: "ticket"})
	require.NoError(t, err)
	assert.Equal(t, constants.KindTicket, out.Kind)
	assert.Empty(t, h.docs.rows)
}

func TestProcess_InvalidInput(t *testing.T) {
	h := newHarness(ticketText, nil)

	_, err := h.proc.Process(context.Background(), Submission{})
	assert.True(t, errors.Is(err, common.ErrInvalidInput))

	_, err = h.proc.Process(context.Background(), Submission{Source: imageURL(), Kind: "invoice"})
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
	assert.Empty(t, h.tickets.rows)
}

func TestProcess_OCRFailureWritesNothing(t *testing.T) {
	h := newHarness("", common.Upstream("text extraction failed", errors.New("503")))
	_, err := h.proc.Process(context.Background(), Submission{Source: imageURL()})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, common.HTTPStatus(err))
	assert.Empty(t, h.tickets.rows)
	assert.Empty(t, h.dispatcher.tasks)
}

func TestProcess_DispatchFailureIsSwallowed(t *testing.T) {
	h := newHarness(ticketText, nil)
	h.dispatcher.err = async.ErrQueueFull
	out, err := h.proc.Process(context.Background(), Submission{Source: imageURL()})
	require.NoError(t, err)
	assert.NotNil(t, out.Ticket)
	assert.Len(t, h.tickets.rows, 1)
}

func TestProcess_DispatchSurvivesCanceledRequest(t *testing.T) {
	h := newHarness(ticketText, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.proc.Process(ctx, Submission{Source: imageURL()})
	require.NoError(t, err)
	assert.Len(t, h.dispatcher.tasks, 1)
}

func TestProcess_StoreFailure(t *testing.T) {
	h := newHarness(ticketText, nil)
	h.tickets.failErr = common.Database("insert ticket", errors.New("disk full"))
	_, err := h.proc.Process(context.Background(), Submission{Source: imageURL()})
	require.Error(t, err)
	assert.Empty(t, h.dispatcher.tasks)
}

func TestTicketStage_OCRDriverNameIsNotAHint(t *testing.T) {
	drivers := fakeDrivers{list: []entity.Driver{
		{ID: "d1", Name: "Johnny Doe"},
		{ID: "d2", Name: "John Smith"},
	}}
	text := "Ticket #17 Material: Sand 10 tons Driver: John Date: 05/17/2024"

	tests := []struct {
		name     string
		hint     string
		wantID   string
		wantConf float64
	}{
		{"ocr name goes through text tiers", "", "d2", 60},
		{"submitter hint uses hint tier", "Johnny", "d1", 92},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stage := NewTicketStage(fakePartners{}, drivers, newMemTickets(), nil)
			out, err := stage.Run(context.Background(),
				Submission{Source: imageURL(), FullNameHint: tt.hint},
				extract.Result{Text: text, Confidence: 0.8})
			require.NoError(t, err)
			require.NotNil(t, out.MatchedDriver)
			assert.Equal(t, tt.wantID, out.MatchedDriver.ID)
			assert.Equal(t, tt.wantConf, out.MatchedDriver.Confidence)
			require.NotNil(t, out.Ticket.OCRDriverName)
			assert.Equal(t, "John", *out.Ticket.OCRDriverName)
		})
	}
}

func TestTicketStage_LogsIDValues(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := newHarness(ticketText, nil)
	stage := NewTicketStage(fakePartners{list: []entity.Partner{{ID: "p1", Name: "Jones Const", Active: true}}},
		fakeDrivers{list: []entity.Driver{{ID: "d1", Name: "Daniel Perez"}}}, h.tickets, logger)

	_, err := stage.Run(context.Background(), Submission{Source: imageURL()}, extract.Result{Text: ticketText})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"partner_id":"p1"`)
	assert.Contains(t, buf.String(), `"driver_id":"d1"`)
}
