package rates

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/monicap360/move-around-tms/internal/entity"
)

func d(v float64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromFloat(v))
}

func str(s string) *string { return &s }

func TestResolve(t *testing.T) {
	partner := &entity.Partner{
		Name:     "Jones Const",
		PayRate:  d(28),
		BillRate: d(40),
		MaterialRates: map[string]entity.MaterialRate{
			"Gravel":  {PayRate: d(30)},
			"asphalt": {PayRate: d(31), BillRate: d(45)},
			"Rip Rap": {BillRate: d(60)},
		},
	}

	tests := []struct {
		name     string
		partner  *entity.Partner
		material *string
		pay      string
		bill     string
	}{
		{"defaults", nil, str("Gravel"), "25", "35"},
		{"partner level", partner, nil, "28", "40"},
		{"unknown material", partner, str("Sand"), "28", "40"},
		{"pay override only", partner, str("Gravel"), "30", "40"},
		{"case insensitive key", partner, str("Asphalt"), "31", "45"},
		{"bill override only", partner, str("rip rap"), "28", "60"},
		{"partner without rates", &entity.Partner{Name: "x"}, nil, "25", "35"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Resolve(tt.partner, tt.material)
			assert.True(t, r.PayRate.Equal(decimal.RequireFromString(tt.pay)), "pay %s", r.PayRate)
			assert.True(t, r.BillRate.Equal(decimal.RequireFromString(tt.bill)), "bill %s", r.BillRate)
		})
	}
}

func TestComputeTotals(t *testing.T) {
	q := 12.5
	got := ComputeTotals(&q, Rates{PayRate: DefaultPayRate, BillRate: DefaultBillRate})
	assert.Equal(t, "312.5", got.TotalPay.String())
	assert.Equal(t, "437.5", got.TotalBill.String())
	assert.Equal(t, "125", got.TotalProfit.String())
}

func TestComputeTotals_ZeroQuantity(t *testing.T) {
	zero := 0.0
	r := Rates{PayRate: decimal.NewFromInt(99), BillRate: decimal.NewFromInt(150)}
	for _, q := range []*float64{nil, &zero} {
		got := ComputeTotals(q, r)
		assert.True(t, got.TotalPay.IsZero())
		assert.True(t, got.TotalBill.IsZero())
		assert.True(t, got.TotalProfit.IsZero())
	}
}
