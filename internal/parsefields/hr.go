package parsefields

import (
	"regexp"
	"strings"
	"time"

	"github.com/monicap360/move-around-tms/constants"
)

// HRFields are the values pulled from a license or medical certificate.
type HRFields struct {
	DocType        constants.DocType `json:"docType"`
	FullName       *string           `json:"fullName"`
	LicenseNumber  *string           `json:"licenseNumber"`
	State          *string           `json:"state"`
	IssueDate      *time.Time        `json:"issueDate"`
	ExpirationDate *time.Time        `json:"expirationDate"`
}

var reDLToken = regexp.MustCompile(`(?i)\b(c?dl)\b`)

// DetectDocType picks the HR document type from keywords.
func DetectDocType(rawText string) constants.DocType {
	lower := strings.ToLower(rawText)
	switch {
	case strings.Contains(lower, "medical") || strings.Contains(lower, "exam"):
		return constants.DocTypeMedical
	case strings.Contains(lower, "license") || reDLToken.MatchString(rawText):
		return constants.DocTypeLicense
	default:
		return constants.DocTypeOther
	}
}

// ExtractHRFields extracts compliance document fields with the generic patterns.
func ExtractHRFields(rawText string) HRFields {
	out := HRFields{DocType: constants.DocTypeOther}
	if strings.TrimSpace(rawText) == "" {
		return out
	}
	out.DocType = DetectDocType(rawText)

	if v, ok := firstCapture(genericPatterns[fieldFullName], rawText); ok {
		out.FullName = strPtr(trimLabels(v))
	}
	if v, ok := firstCapture(genericPatterns[fieldLicenseNo], rawText); ok {
		out.LicenseNumber = strPtr(strings.ToUpper(v))
	}
	if v, ok := firstCapture(genericPatterns[fieldState], rawText); ok {
		out.State = strPtr(strings.ToUpper(v))
	}
	if v, ok := firstCapture(genericPatterns[fieldIssueDate], rawText); ok {
		out.IssueDate = parseDate(v)
	}
	if v, ok := firstCapture(genericPatterns[fieldExpiration], rawText); ok {
		out.ExpirationDate = parseDate(v)
	}
	return out
}
