package validation

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/monicap360/move-around-tms/constants"
	"github.com/monicap360/move-around-tms/internal/entity"
)

// Candidate is a ticket plus the configuration resolved for it.
type Candidate struct {
	Ticket        entity.Ticket
	Rules         []entity.ValidationRule
	Geofences     []entity.Geofence
	TruckCapacity *float64
}

// Observer receives one call per evaluated rule category.
type Observer interface {
	ObserveRule(ruleType constants.RuleType, status constants.ResultStatus)
}

// Engine evaluates the six rule categories against a candidate ticket.
// It never mutates its input; corrections are returned for the caller to apply.
type Engine struct {
	logger   *slog.Logger
	observer Observer
}

type EngineOption func(*Engine)

func WithObserver(o Observer) EngineOption { return func(e *Engine) { e.observer = o } }

func NewEngine(logger *slog.Logger, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{logger: logger}
	for _, o := range opts {
		o(e)
	}
	return e
}

type checkFunc func(e *Engine, rule entity.ValidationRule, logic ruleLogic, c *Candidate) entity.ValidationResult

var checks = map[constants.RuleType]checkFunc{
	constants.RuleDistance:  checkDistance,
	constants.RuleWeight:    checkWeight,
	constants.RuleTime:      checkTime,
	constants.RulePhoto:     checkPhoto,
	constants.RuleSignature: checkSignature,
	constants.RuleLocation:  checkLocation,
}

// SelectRules keeps the first active rule of each type, in input order.
func SelectRules(rules []entity.ValidationRule) map[constants.RuleType]entity.ValidationRule {
	out := make(map[constants.RuleType]entity.ValidationRule)
	for _, r := range rules {
		if !r.Active {
			continue
		}
		if _, seen := out[r.RuleType]; seen {
			continue
		}
		if _, known := checks[r.RuleType]; !known {
			continue
		}
		out[r.RuleType] = r
	}
	return out
}

// ValidateTicket runs one rule per present category and aggregates the outcome.
func (e *Engine) ValidateTicket(c Candidate) entity.ValidationSummary {
	selected := SelectRules(c.Rules)
	summary := entity.ValidationSummary{
		Passed:      []entity.ValidationResult{},
		Warnings:    []entity.ValidationResult{},
		Errors:      []entity.ValidationResult{},
		Corrections: []entity.ValidationResult{},
	}
	results := make(map[constants.RuleType]entity.ValidationResult, len(selected))

	for _, rt := range constants.RuleTypes {
		rule, ok := selected[rt]
		if !ok {
			continue
		}
		res := checks[rt](e, rule, parseLogic(e.logger, rule), &c)
		res.RuleType = rt
		res.RuleID = rule.ID
		results[rt] = res

		switch res.Status {
		case constants.ResultPassed:
			summary.Passed = append(summary.Passed, res)
		case constants.ResultWarning:
			summary.Warnings = append(summary.Warnings, res)
		case constants.ResultError:
			summary.Errors = append(summary.Errors, res)
		case constants.ResultCorrected:
			summary.Corrections = append(summary.Corrections, res)
		}
		if e.observer != nil {
			e.observer.ObserveRule(rt, res.Status)
		}
		e.logger.Debug("validation.rule.applied", "ticket_id", c.Ticket.ID, "rule_type", rt, "rule_id", rule.ID, "status", res.Status)
	}

	summary.ConfidenceScore = overallConfidence(selected, results)
	return summary
}

// overallConfidence is the weighted mean over present categories.
func overallConfidence(selected map[constants.RuleType]entity.ValidationRule, results map[constants.RuleType]entity.ValidationResult) float64 {
	var sum, total float64
	for rt := range selected {
		w := categoryWeights[rt]
		conf := DefaultCategoryConfidence
		if r, ok := results[rt]; ok {
			conf = r.Confidence
		}
		sum += w * conf
		total += w
	}
	if total == 0 {
		return DefaultCategoryConfidence
	}
	return sum / total
}

// failStatus maps rule severity onto a failing result status.
func failStatus(rule entity.ValidationRule) constants.ResultStatus {
	if rule.Severity == constants.SeverityWarning {
		return constants.ResultWarning
	}
	return constants.ResultError
}

func fptr(v float64) *float64 { return &v }

func checkDistance(_ *Engine, rule entity.ValidationRule, logic ruleLogic, c *Candidate) entity.ValidationResult {
	t := c.Ticket
	if t.Pickup == nil || t.Dump == nil || t.DistanceMiles == nil {
		return entity.ValidationResult{
			Status:     constants.ResultWarning,
			Confidence: confDistanceMissing,
			Notes:      []string{"pickup/dump GPS coordinates or claimed distance missing"},
		}
	}
	actual := HaversineMiles(*t.Pickup, *t.Dump)
	claimed := *t.DistanceMiles
	variancePct := math.Abs(claimed-actual) / math.Max(actual, 1) * 100

	res := entity.ValidationResult{
		Status:          constants.ResultPassed,
		ActualValue:     fptr(claimed),
		ExpectedValue:   fptr(actual),
		VariancePercent: fptr(round2(variancePct)),
		Confidence:      confDistance,
	}
	maxPct := orDefault(pick(logic.MaxVariancePercent, rule.Threshold), defaultMaxVariancePct)
	warnPct := orDefault(logic.WarningVariancePercent, defaultWarnVariancePct)

	switch {
	case variancePct > maxPct && rule.AutoCorrect:
		res.Status = constants.ResultCorrected
		res.Correction = &entity.Correction{
			Field:     "distance_miles",
			Original:  claimed,
			Corrected: actual,
			Reason:    fmt.Sprintf("claimed distance differs from GPS distance by %.1f%%", variancePct),
		}
		res.Notes = append(res.Notes, fmt.Sprintf("distance corrected from %.2f to %.2f miles", claimed, actual))
	case variancePct > maxPct:
		res.Status = failStatus(rule)
		res.Notes = append(res.Notes, fmt.Sprintf("claimed %.2f mi vs GPS %.2f mi (%.1f%% variance)", claimed, actual, variancePct))
	case variancePct > warnPct:
		res.Status = constants.ResultWarning
		res.Notes = append(res.Notes, fmt.Sprintf("distance variance %.1f%% above %.0f%%", variancePct, warnPct))
	}
	return res
}

func checkWeight(_ *Engine, rule entity.ValidationRule, logic ruleLogic, c *Candidate) entity.ValidationResult {
	t := c.Ticket
	capacity := orDefault(pick(c.TruckCapacity, logic.DefaultCapacityTons), defaultCapacityTons)
	res := entity.ValidationResult{
		Status:        constants.ResultPassed,
		ExpectedValue: fptr(capacity),
		Confidence:    confWeight,
	}
	if t.LoadWeightTons == nil {
		res.Status = constants.ResultWarning
		res.Notes = append(res.Notes, "load weight not reported")
		return res
	}
	weight := *t.LoadWeightTons
	res.ActualValue = fptr(weight)
	if capacity > 0 {
		res.VariancePercent = fptr(round2((weight - capacity) / capacity * 100))
	}

	factor := orDefault(logic.OverloadFactor, defaultOverloadFactor)
	if weight > capacity*factor {
		res.Status = failStatus(rule)
		res.Notes = append(res.Notes, fmt.Sprintf("load weight %.2f t exceeds capacity %.2f t", weight, capacity))
	}

	if t.CubicYards != nil && *t.CubicYards > 0 {
		material := ""
		if t.Material != nil {
			material = *t.Material
		}
		expected := *t.CubicYards * DensityFor(material)
		tolerance := orDefault(logic.DensityTolerance, defaultDensityTolerance)
		if expected > 0 && math.Abs(weight-expected)/expected > tolerance {
			if res.Status == constants.ResultPassed {
				res.Status = constants.ResultWarning
			}
			res.Notes = append(res.Notes, fmt.Sprintf("weight %.2f t inconsistent with %.2f cy of %s (expected %.2f t)",
				weight, *t.CubicYards, nonEmpty(material, "other"), expected))
		}
	}
	return res
}

func checkTime(_ *Engine, rule entity.ValidationRule, logic ruleLogic, c *Candidate) entity.ValidationResult {
	t := c.Ticket
	if t.LoadTime == nil || t.DumpTime == nil {
		return entity.ValidationResult{
			Status:     constants.ResultWarning,
			Confidence: confTimeMissing,
			Notes:      []string{"load or dump time missing"},
		}
	}
	hours := math.Max(0, float64(t.DumpTime.Sub(*t.LoadTime).Milliseconds())) / 3600000
	maxHours := orDefault(pick(logic.MaxHours, rule.Threshold), defaultMaxTripHours)
	res := entity.ValidationResult{
		Status:        constants.ResultPassed,
		ActualValue:   fptr(round2(hours)),
		ExpectedValue: fptr(maxHours),
		Confidence:    confTime,
	}
	if hours > maxHours {
		res.Status = failStatus(rule)
		res.Notes = append(res.Notes, fmt.Sprintf("trip took %.2f h, limit %.2f h", hours, maxHours))
	}
	return res
}

func checkPhoto(_ *Engine, rule entity.ValidationRule, logic ruleLogic, c *Candidate) entity.ValidationResult {
	return presenceCheck(rule, boolOr(logic.RequirePhoto, true), c.Ticket.HasPhoto, "photo", confPhoto)
}

func checkSignature(_ *Engine, rule entity.ValidationRule, logic ruleLogic, c *Candidate) entity.ValidationResult {
	return presenceCheck(rule, boolOr(logic.RequireSignature, true), c.Ticket.HasSignature, "signature", confSignature)
}

func presenceCheck(rule entity.ValidationRule, required, present bool, what string, conf float64) entity.ValidationResult {
	res := entity.ValidationResult{Status: constants.ResultPassed, Confidence: conf}
	if required && !present {
		res.Status = failStatus(rule)
		res.Notes = append(res.Notes, what+" missing")
	}
	return res
}

func checkLocation(_ *Engine, rule entity.ValidationRule, logic ruleLogic, c *Candidate) entity.ValidationResult {
	var active []entity.Geofence
	for _, g := range c.Geofences {
		if g.Active {
			active = append(active, g)
		}
	}
	if len(active) == 0 {
		return entity.ValidationResult{
			Status:     constants.ResultWarning,
			Confidence: confNoGeofences,
			Notes:      []string{"no geofences configured"},
		}
	}
	defaultRadius := orDefault(logic.DefaultRadiusMiles, defaultGeofenceRadiusMile)
	res := entity.ValidationResult{Status: constants.ResultPassed, Confidence: confLocation}

	legs := []struct {
		name  string
		kind  constants.FenceType
		point *entity.GeoPoint
	}{
		{"pickup", constants.FencePickup, c.Ticket.Pickup},
		{"dump", constants.FenceDump, c.Ticket.Dump},
	}
	for _, leg := range legs {
		ok, note := withinFence(active, leg.kind, leg.point, defaultRadius)
		if ok {
			continue
		}
		res.Status = failStatus(rule)
		res.Notes = append(res.Notes, leg.name+" "+note)
	}
	return res
}

// withinFence reports whether point lies in any fence of kind. A leg without a fence of its kind is not checked.
func withinFence(fences []entity.Geofence, kind constants.FenceType, point *entity.GeoPoint, defaultRadius float64) (bool, string) {
	var nearest = math.Inf(1)
	found := false
	for _, g := range fences {
		if g.FenceType != kind {
			continue
		}
		found = true
		if point == nil {
			return false, "location missing"
		}
		d := HaversineMiles(*point, g.Center)
		if d <= orDefault(g.RadiusMiles, defaultRadius) {
			return true, ""
		}
		nearest = math.Min(nearest, d)
	}
	if !found {
		return true, ""
	}
	return false, fmt.Sprintf("point %.2f mi outside %s geofence", nearest, kind)
}

func nonEmpty(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
