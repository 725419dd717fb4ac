package parsefields

import (
	"regexp"
	"strings"
	"sync"

	"github.com/monicap360/move-around-tms/internal/entity"
)

// Generic fallback patterns, used when a partner has no valid pattern for a field.
const (
	GenericTicketNoPattern   = `(?i)ticket\s*(?:no\.?|num(?:ber)?)?\s*#?\s*:?\s*(\w+)`
	GenericMaterialPattern   = `(?i:material)\s*:?\s*([A-Za-z][A-Za-z&\-]*(?:[ \t]+[A-Za-z][A-Za-z&\-]*)?)`
	GenericQuantityPattern   = `(?i)(?P<qty>\d+(?:\.\d+)?)\s*(?P<unit>tons?|yards?|loads?)\b`
	GenericDatePattern       = `(?i)(?:date\s*:?\s*)?(\d{1,2}[/-]\d{1,2}[/-]\d{4})`
	GenericDriverNamePattern = `(?i:driver)(?:\s*(?i:name))?\s*:?\s*([A-Z][A-Za-z.'\-]*(?:[ \t]+[A-Z][A-Za-z.'\-]*)?)`

	GenericFullNamePattern   = `(?i:(?:full\s+)?name)\s*:?\s*([A-Z][A-Za-z.'\-]*(?:[ \t]+[A-Z][A-Za-z.'\-]*){0,2})`
	GenericLicenseNoPattern  = `(?i:(?:license|lic|dl)(?:\s*(?:no|number|#))?\.?)\s*#?\s*:?\s*([A-Z0-9][A-Z0-9\-]{4,})`
	GenericStatePattern      = `(?i:state)\s*:?\s*([A-Z]{2})\b`
	GenericIssueDatePattern  = `(?i)iss(?:ued?)?(?:\s*date)?\.?\s*:?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{4})`
	GenericExpirationPattern = `(?i)exp(?:ires|iration)?(?:\s*date)?\.?\s*:?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{4})`
)

// Field keys for HR and driver-name extraction; ticket keys reuse entity.Pattern*.
const (
	fieldDriverName = "driver_name"
	fieldFullName   = "full_name"
	fieldLicenseNo  = "license_number"
	fieldState      = "state"
	fieldIssueDate  = "issue_date"
	fieldExpiration = "expiration_date"
)

var genericPatterns = map[string]*regexp.Regexp{
	entity.PatternTicketNo: regexp.MustCompile(GenericTicketNoPattern),
	entity.PatternMaterial: regexp.MustCompile(GenericMaterialPattern),
	entity.PatternQuantity: regexp.MustCompile(GenericQuantityPattern),
	entity.PatternDate:     regexp.MustCompile(GenericDatePattern),
	fieldDriverName:        regexp.MustCompile(GenericDriverNamePattern),
	fieldFullName:          regexp.MustCompile(GenericFullNamePattern),
	fieldLicenseNo:         regexp.MustCompile(GenericLicenseNoPattern),
	fieldState:             regexp.MustCompile(GenericStatePattern),
	fieldIssueDate:         regexp.MustCompile(GenericIssueDatePattern),
	fieldExpiration:        regexp.MustCompile(GenericExpirationPattern),
}

type compiledPattern struct {
	re  *regexp.Regexp
	err error
}

var partnerPatternCache sync.Map // raw pattern -> compiledPattern

// CompilePattern compiles a partner-supplied pattern case-insensitively and caches the result.
func CompilePattern(raw string) (*regexp.Regexp, error) {
	if v, ok := partnerPatternCache.Load(raw); ok {
		cp := v.(compiledPattern)
		return cp.re, cp.err
	}
	expr := raw
	if !strings.HasPrefix(expr, "(?") {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	partnerPatternCache.Store(raw, compiledPattern{re: re, err: err})
	return re, err
}

// patternFor returns the partner's pattern for key when present and valid, else the generic one.
func patternFor(p *entity.Partner, key string) *regexp.Regexp {
	if raw := p.Pattern(key); raw != "" {
		if re, err := CompilePattern(raw); err == nil {
			return re
		}
	}
	return genericPatterns[key]
}

// firstCapture returns the first non-empty capture group of the first match.
func firstCapture(re *regexp.Regexp, text string) (string, bool) {
	if re == nil {
		return "", false
	}
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	for _, g := range m[1:] {
		if s := strings.TrimSpace(g); s != "" {
			return s, true
		}
	}
	if len(m) == 1 && strings.TrimSpace(m[0]) != "" {
		return strings.TrimSpace(m[0]), true
	}
	return "", false
}

// labelWords are form labels that bleed into a capture when OCR joins lines.
var labelWords = map[string]struct{}{
	"driver": {}, "date": {}, "ticket": {}, "material": {}, "qty": {}, "quantity": {},
	"truck": {}, "ton": {}, "tons": {}, "license": {}, "state": {}, "exp": {}, "dob": {},
	"name": {}, "issued": {}, "class": {}, "signature": {}, "sex": {}, "hgt": {},
}

func trimLabels(s string) string {
	tokens := strings.Fields(s)
	for len(tokens) > 0 {
		last := strings.ToLower(strings.Trim(tokens[len(tokens)-1], ":#."))
		if _, ok := labelWords[last]; !ok {
			break
		}
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, " ")
}
