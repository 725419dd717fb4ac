package matching

import (
	"strings"

	"github.com/monicap360/move-around-tms/internal/entity"
	"github.com/monicap360/move-around-tms/internal/parsefields"
)

// MatchPartner returns the first partner whose name appears in the text, else the first
// whose company_hint pattern matches. Inactive partners are ignored.
func MatchPartner(rawText string, partners []entity.Partner) *entity.Partner {
	if strings.TrimSpace(rawText) == "" {
		return nil
	}
	lower := strings.ToLower(rawText)
	for i := range partners {
		p := &partners[i]
		if !p.Active {
			continue
		}
		if name := strings.ToLower(strings.TrimSpace(p.Name)); name != "" && strings.Contains(lower, name) {
			return p
		}
	}
	for i := range partners {
		p := &partners[i]
		if !p.Active {
			continue
		}
		hint := p.Pattern(entity.PatternCompanyHint)
		if hint == "" {
			continue
		}
		re, err := parsefields.CompilePattern(hint)
		if err != nil {
			continue
		}
		if re.MatchString(rawText) {
			return p
		}
	}
	return nil
}
