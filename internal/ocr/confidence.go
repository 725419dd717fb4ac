package ocr

import (
	"regexp"
)

var (
	reTicketNo = regexp.MustCompile(`(?i)\b(ticket|tkt|load)\s*(no\.?|#|number)?\s*[:#]?\s*[A-Z0-9-]{3,}`)
	reQuantity = regexp.MustCompile(`(?i)\b\d+(\.\d+)?\s*(tons?|yards?|yds?|loads?|hours?|hrs?)\b`)
	reDate     = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`)
	reScale    = regexp.MustCompile(`(?i)\b(gross|tare|net)\b`)
)

// heuristicConfidence scores recognized text by the scale-ticket artifacts it contains.
// Used when the provider reports no confidence of its own.
func heuristicConfidence(txt string) float64 {
	if txt == "" {
		return 0
	}
	score := 0.2
	if reTicketNo.MatchString(txt) {
		score += 0.2
	}
	if reQuantity.MatchString(txt) {
		score += 0.2
	}
	if reDate.MatchString(txt) {
		score += 0.15
	}
	if reScale.MatchString(txt) {
		score += 0.1
	}
	if len(txt) > 120 {
		score += 0.1
	}
	if score > 1 {
		score = 1
	}
	return score
}

// blendConfidence weights a provider confidence over the heuristic when one is present.
func blendConfidence(provider, heuristic float64) float64 {
	if provider <= 0 {
		return heuristic
	}
	c := 0.7*provider + 0.3*heuristic
	if c > 1 {
		c = 1
	}
	return c
}
