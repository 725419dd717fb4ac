package entity

import (
	"github.com/shopspring/decimal"
)

// Pattern keys recognised in Partner.Patterns.
const (
	PatternTicketNo    = "ticket_no"
	PatternMaterial    = "material"
	PatternQuantity    = "quantity"
	PatternDate        = "date"
	PatternCompanyHint = "company_hint"
)

// MaterialRate is a per-material override; either side may be unset.
type MaterialRate struct {
	PayRate  decimal.NullDecimal `json:"pay_rate"`
	BillRate decimal.NullDecimal `json:"bill_rate"`
}

// Partner is a hauling site or customer with its own extraction patterns and rate schedule.
type Partner struct {
	ID            string                  `json:"id"`
	Name          string                  `json:"name"`
	EmailDomain   *string                 `json:"email_domain,omitempty"`
	Patterns      map[string]string       `json:"patterns,omitempty"`
	PayRate       decimal.NullDecimal     `json:"pay_rate"`
	BillRate      decimal.NullDecimal     `json:"bill_rate"`
	MaterialRates map[string]MaterialRate `json:"material_rates,omitempty"`
	Active        bool                    `json:"active"`
}

// Pattern returns the partner's raw pattern for key, or "" when unset.
func (p *Partner) Pattern(key string) string {
	if p == nil || p.Patterns == nil {
		return ""
	}
	return p.Patterns[key]
}
