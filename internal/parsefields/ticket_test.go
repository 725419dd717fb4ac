package parsefields

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monicap360/move-around-tms/internal/entity"
)

const sampleTicket = "Jones Const Ticket #8842 Material: Gravel 12.5 tons Driver: D Perez Date: 05/17/2024"

func TestExtractTicketFields_Generic(t *testing.T) {
	got := ExtractTicketFields(sampleTicket, nil)

	require.NotNil(t, got.TicketNumber)
	assert.Equal(t, "8842", *got.TicketNumber)
	require.NotNil(t, got.Material)
	assert.Equal(t, "Gravel", *got.Material)
	require.NotNil(t, got.Quantity)
	assert.InDelta(t, 12.5, *got.Quantity, 1e-9)
	assert.Equal(t, "Ton", got.UnitType)
	require.NotNil(t, got.TicketDate)
	assert.Equal(t, time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC), *got.TicketDate)
	require.NotNil(t, got.DriverName)
	assert.Equal(t, "D Perez", *got.DriverName)
}

func TestExtractTicketFields_Empty(t *testing.T) {
	got := ExtractTicketFields("", nil)
	assert.Nil(t, got.TicketNumber)
	assert.Nil(t, got.Material)
	assert.Nil(t, got.Quantity)
	assert.Nil(t, got.TicketDate)
	assert.Nil(t, got.DriverName)
	assert.Equal(t, DefaultUnit, got.UnitType)
}

func TestExtractTicketFields_Quantity(t *testing.T) {
	tests := []struct {
		text string
		qty  float64
		unit string
	}{
		{"12.5 tons", 12.5, "Ton"},
		{"NET 12.5 TONS", 12.5, "Ton"},
		{"3 yards of fill", 3, "Yard"},
		{"1 load", 1, "Load"},
		{"14 ton", 14, "Ton"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := ExtractTicketFields(tt.text, nil)
			require.NotNil(t, got.Quantity)
			assert.InDelta(t, tt.qty, *got.Quantity, 1e-9)
			assert.Equal(t, tt.unit, got.UnitType)
		})
	}
}

func TestExtractTicketFields_NoUnitDefaultsToTon(t *testing.T) {
	got := ExtractTicketFields("Ticket 7 Material: Dirt", nil)
	assert.Nil(t, got.Quantity)
	assert.Equal(t, "Ton", got.UnitType)
}

func TestExtractTicketFields_UnparsableDate(t *testing.T) {
	got := ExtractTicketFields("Ticket 7 Date: 13/45/2024", nil)
	assert.Nil(t, got.TicketDate)
}

func TestExtractTicketFields_PartnerPatterns(t *testing.T) {
	partner := &entity.Partner{
		Name: "Acme Aggregates",
		Patterns: map[string]string{
			entity.PatternTicketNo: `TKT-(\d+)`,
			entity.PatternQuantity: `NET\s+(\d+(?:\.\d+)?)\s*(TN|YD)`,
			entity.PatternMaterial: `PRODUCT\s+(\w+)`,
		},
	}
	text := "ACME AGG TKT-00451 PRODUCT Limestone NET 21.75 TN Ticket #999"
	got := ExtractTicketFields(text, partner)

	require.NotNil(t, got.TicketNumber)
	assert.Equal(t, "00451", *got.TicketNumber)
	require.NotNil(t, got.Material)
	assert.Equal(t, "Limestone", *got.Material)
	require.NotNil(t, got.Quantity)
	assert.InDelta(t, 21.75, *got.Quantity, 1e-9)
	assert.Equal(t, "Tn", got.UnitType)
}

func TestExtractTicketFields_InvalidPartnerPatternFallsBack(t *testing.T) {
	partner := &entity.Partner{Patterns: map[string]string{entity.PatternTicketNo: `TKT-(\d+`}}
	got := ExtractTicketFields(sampleTicket, partner)
	require.NotNil(t, got.TicketNumber)
	assert.Equal(t, "8842", *got.TicketNumber)
}

func TestNormalizeUnit(t *testing.T) {
	assert.Equal(t, "Ton", NormalizeUnit("tons"))
	assert.Equal(t, "Yard", NormalizeUnit("YARDS"))
	assert.Equal(t, "Load", NormalizeUnit("load"))
	assert.Equal(t, "Ton", NormalizeUnit(""))
}

func TestTrimLabels(t *testing.T) {
	assert.Equal(t, "Perez", trimLabels("Perez Date"))
	assert.Equal(t, "Crushed Stone", trimLabels("Crushed Stone"))
	assert.Equal(t, "", trimLabels("Driver:"))
}
