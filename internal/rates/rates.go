package rates

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/monicap360/move-around-tms/internal/entity"
)

var (
	// DefaultPayRate applies when no partner matched or the partner has no pay rate.
	DefaultPayRate = decimal.NewFromInt(25)
	// DefaultBillRate applies when no partner matched or the partner has no bill rate.
	DefaultBillRate = decimal.NewFromInt(35)
)

// Rates are the effective per-unit rates for a ticket.
type Rates struct {
	PayRate  decimal.Decimal `json:"pay_rate"`
	BillRate decimal.Decimal `json:"bill_rate"`
}

// Totals are the computed money amounts for a ticket.
type Totals struct {
	TotalPay    decimal.Decimal `json:"total_pay"`
	TotalBill   decimal.Decimal `json:"total_bill"`
	TotalProfit decimal.Decimal `json:"total_profit"`
}

// Resolve layers defaults, partner rates and the material override. Each side of a
// material override replaces the partner rate independently.
func Resolve(partner *entity.Partner, material *string) Rates {
	r := Rates{PayRate: DefaultPayRate, BillRate: DefaultBillRate}
	if partner == nil {
		return r
	}
	if partner.PayRate.Valid {
		r.PayRate = partner.PayRate.Decimal
	}
	if partner.BillRate.Valid {
		r.BillRate = partner.BillRate.Decimal
	}
	if material == nil {
		return r
	}
	if mr, ok := lookupMaterial(partner.MaterialRates, *material); ok {
		if mr.PayRate.Valid {
			r.PayRate = mr.PayRate.Decimal
		}
		if mr.BillRate.Valid {
			r.BillRate = mr.BillRate.Decimal
		}
	}
	return r
}

// lookupMaterial prefers an exact key, then a case-insensitive one.
func lookupMaterial(m map[string]entity.MaterialRate, material string) (entity.MaterialRate, bool) {
	if len(m) == 0 {
		return entity.MaterialRate{}, false
	}
	if mr, ok := m[material]; ok {
		return mr, true
	}
	want := strings.ToLower(strings.TrimSpace(material))
	for k, mr := range m {
		if strings.ToLower(strings.TrimSpace(k)) == want {
			return mr, true
		}
	}
	return entity.MaterialRate{}, false
}

// ComputeTotals multiplies quantity by the rates. A nil quantity counts as zero.
func ComputeTotals(quantity *float64, r Rates) Totals {
	q := decimal.Zero
	if quantity != nil {
		q = decimal.NewFromFloat(*quantity)
	}
	return Totals{
		TotalPay:    q.Mul(r.PayRate),
		TotalBill:   q.Mul(r.BillRate),
		TotalProfit: q.Mul(r.BillRate.Sub(r.PayRate)),
	}
}
