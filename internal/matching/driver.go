package matching

import (
	"math"
	"strings"
	"unicode"

	"github.com/monicap360/move-around-tms/internal/entity"
)

// Tier confidences on a 0-100 scale.
const (
	ConfidenceLicense      = 98
	ConfidenceNameHint     = 92
	ConfidenceNameInText   = 95
	ConfidenceAliasBase    = 70
	ConfidenceAliasCap     = 95
	ConfidenceTokenOverlap = 60

	minTokenLen = 4
)

// DriverQuery is the input shared by every tier.
type DriverQuery struct {
	RawText     string
	Drivers     []entity.Driver
	Aliases     []entity.DriverAlias
	NameHint    string
	LicenseHint string

	lowerText string
	tokens    map[string]struct{}
}

// Tier is one matching strategy. It returns nil when it has no opinion.
type Tier struct {
	Name  string
	Match func(q *DriverQuery) *entity.DriverMatch
}

// DefaultTiers are tried in order; the first hit wins.
var DefaultTiers = []Tier{
	{Name: "license", Match: matchLicense},
	{Name: "name_hint", Match: matchNameHint},
	{Name: "name_in_text", Match: matchNameInText},
	{Name: "alias", Match: matchAlias},
	{Name: "token_overlap", Match: matchTokenOverlap},
}

// MatchDriver runs the default tiers and returns the match with the name of the winning tier.
func MatchDriver(rawText string, drivers []entity.Driver, aliases []entity.DriverAlias, nameHint, licenseHint string) (*entity.DriverMatch, string) {
	return MatchDriverWith(DefaultTiers, &DriverQuery{
		RawText:     rawText,
		Drivers:     drivers,
		Aliases:     aliases,
		NameHint:    nameHint,
		LicenseHint: licenseHint,
	})
}

// MatchDriverWith runs an explicit tier list.
func MatchDriverWith(tiers []Tier, q *DriverQuery) (*entity.DriverMatch, string) {
	if q == nil || len(q.Drivers) == 0 {
		return nil, ""
	}
	q.lowerText = strings.ToLower(q.RawText)
	q.tokens = tokenSet(q.RawText)
	for _, t := range tiers {
		if m := t.Match(q); m != nil {
			return m, t.Name
		}
	}
	return nil, ""
}

func matchOf(d entity.Driver, conf float64) *entity.DriverMatch {
	return &entity.DriverMatch{ID: d.ID, Name: d.Name, Confidence: conf}
}

// normalizeLicense drops separators so "D-123 456" equals "D123456".
func normalizeLicense(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

// matchLicense compares the hint when given, else looks for the license as a token of the text.
func matchLicense(q *DriverQuery) *entity.DriverMatch {
	hint := normalizeLicense(q.LicenseHint)
	for _, d := range q.Drivers {
		if d.LicenseNumber == nil {
			continue
		}
		lic := normalizeLicense(*d.LicenseNumber)
		if lic == "" {
			continue
		}
		if hint != "" && hint == lic {
			return matchOf(d, ConfidenceLicense)
		}
		if _, ok := q.tokens[strings.ToLower(lic)]; ok {
			return matchOf(d, ConfidenceLicense)
		}
	}
	return nil
}

func matchNameHint(q *DriverQuery) *entity.DriverMatch {
	hint := strings.ToLower(strings.TrimSpace(q.NameHint))
	if hint == "" {
		return nil
	}
	for _, d := range q.Drivers {
		if d.Name != "" && strings.Contains(strings.ToLower(d.Name), hint) {
			return matchOf(d, ConfidenceNameHint)
		}
	}
	return nil
}

func matchNameInText(q *DriverQuery) *entity.DriverMatch {
	for _, d := range q.Drivers {
		name := strings.ToLower(strings.TrimSpace(d.Name))
		if name != "" && strings.Contains(q.lowerText, name) {
			return matchOf(d, ConfidenceNameInText)
		}
	}
	return nil
}

func matchAlias(q *DriverQuery) *entity.DriverMatch {
	if len(q.Aliases) == 0 {
		return nil
	}
	byID := make(map[string]entity.Driver, len(q.Drivers))
	for _, d := range q.Drivers {
		byID[d.ID] = d
	}
	for _, a := range q.Aliases {
		alias := strings.ToLower(strings.TrimSpace(a.Alias))
		if alias == "" || !strings.Contains(q.lowerText, alias) {
			continue
		}
		d, ok := byID[a.DriverID]
		if !ok {
			continue
		}
		return matchOf(d, math.Min(ConfidenceAliasCap, ConfidenceAliasBase+a.ConfidenceBoost))
	}
	return nil
}

func matchTokenOverlap(q *DriverQuery) *entity.DriverMatch {
	for _, d := range q.Drivers {
		for _, tok := range splitTokens(d.Name) {
			if len([]rune(tok)) < minTokenLen {
				continue
			}
			if _, ok := q.tokens[tok]; ok {
				return matchOf(d, ConfidenceTokenOverlap)
			}
		}
	}
	return nil
}

func splitTokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

func tokenSet(s string) map[string]struct{} {
	toks := splitTokens(s)
	set := make(map[string]struct{}, len(toks))
	for _, t := range toks {
		set[t] = struct{}{}
	}
	return set
}
