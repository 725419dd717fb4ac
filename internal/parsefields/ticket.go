package parsefields

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/monicap360/move-around-tms/internal/entity"
)

// DefaultUnit applies when no unit phrase is found.
const DefaultUnit = "Ton"

// TicketFields are the structured values pulled from a hauling ticket.
type TicketFields struct {
	TicketNumber *string    `json:"ticketNumber"`
	Material     *string    `json:"material"`
	Quantity     *float64   `json:"quantity"`
	UnitType     string     `json:"unitType"`
	TicketDate   *time.Time `json:"ticketDate"`
	DriverName   *string    `json:"driverName"`
}

var unitCaser = cases.Title(language.English)

// NormalizeUnit turns a captured unit noun into its singular title-cased form ("tons" -> "Ton").
func NormalizeUnit(u string) string {
	u = strings.ToLower(strings.TrimSpace(u))
	if u == "" {
		return DefaultUnit
	}
	if len(u) > 1 {
		u = strings.TrimSuffix(u, "s")
	}
	return unitCaser.String(u)
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ExtractTicketFields extracts ticket fields using the partner's patterns where valid,
// otherwise the generic patterns. It never fails; unmatched fields stay nil.
func ExtractTicketFields(rawText string, partner *entity.Partner) TicketFields {
	out := TicketFields{UnitType: DefaultUnit}
	if strings.TrimSpace(rawText) == "" {
		return out
	}

	if v, ok := firstCapture(patternFor(partner, entity.PatternTicketNo), rawText); ok {
		out.TicketNumber = strPtr(v)
	}
	if v, ok := firstCapture(patternFor(partner, entity.PatternMaterial), rawText); ok {
		out.Material = strPtr(trimLabels(v))
	}
	out.Quantity, out.UnitType = extractQuantity(rawText, partner)
	if v, ok := firstCapture(patternFor(partner, entity.PatternDate), rawText); ok {
		out.TicketDate = parseDate(v)
	}
	if v, ok := firstCapture(genericPatterns[fieldDriverName], rawText); ok {
		out.DriverName = strPtr(trimLabels(v))
	}
	return out
}

// extractQuantity reads the magnitude and unit. Named groups "qty" and "unit" are
// honoured; otherwise group 1 is the magnitude and the last alphabetic group the unit.
func extractQuantity(rawText string, partner *entity.Partner) (*float64, string) {
	re := patternFor(partner, entity.PatternQuantity)
	m := re.FindStringSubmatch(rawText)
	if m == nil {
		return nil, DefaultUnit
	}
	qtyIdx, unitIdx := re.SubexpIndex("qty"), re.SubexpIndex("unit")
	if qtyIdx < 0 {
		qtyIdx = 1
		if len(m) < 2 {
			qtyIdx = 0
		}
	}
	if unitIdx < 0 {
		for i := len(m) - 1; i > qtyIdx; i-- {
			if isAlpha(m[i]) {
				unitIdx = i
				break
			}
		}
	}

	numeric := strings.ReplaceAll(strings.TrimSpace(m[qtyIdx]), ",", "")
	q, err := strconv.ParseFloat(numeric, 64)
	if err != nil {
		// tolerate a match that carries the unit in the same group ("12.5 tons")
		fields := strings.Fields(numeric)
		if len(fields) == 0 {
			return nil, DefaultUnit
		}
		if q, err = strconv.ParseFloat(fields[0], 64); err != nil {
			return nil, DefaultUnit
		}
	}
	unit := DefaultUnit
	if unitIdx > 0 && unitIdx < len(m) && m[unitIdx] != "" {
		unit = NormalizeUnit(m[unitIdx])
	}
	return &q, unit
}

func isAlpha(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
