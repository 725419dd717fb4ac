package parsefields

import (
	"strings"

	"github.com/monicap360/move-around-tms/constants"
)

// hrKeywords mark compliance documents. A hauling ticket that happens to
// mention one of these words is classified as HR; reviewers catch that case.
var hrKeywords = []string{"license", "medical", "exam", "mvr"}

// Classify decides whether raw OCR text is an HR document or a hauling ticket.
// An explicit hint wins over the keyword heuristic.
func Classify(rawText, hint string) constants.DocKind {
	switch constants.DocKind(strings.ToLower(strings.TrimSpace(hint))) {
	case constants.KindHR:
		return constants.KindHR
	case constants.KindTicket:
		return constants.KindTicket
	}
	lower := strings.ToLower(rawText)
	for _, kw := range hrKeywords {
		if strings.Contains(lower, kw) {
			return constants.KindHR
		}
	}
	return constants.KindTicket
}
