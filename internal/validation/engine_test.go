package validation

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monicap360/move-around-tms/constants"
	"github.com/monicap360/move-around-tms/internal/entity"
)

func f(v float64) *float64 { return &v }

func rule(id string, rt constants.RuleType, sev constants.Severity) entity.ValidationRule {
	return entity.ValidationRule{ID: id, RuleType: rt, Name: string(rt), Severity: sev, Active: true}
}

// milesNorth returns a point due north of p at the given distance.
func milesNorth(p entity.GeoPoint, miles float64) entity.GeoPoint {
	return entity.GeoPoint{Lat: p.Lat + miles/EarthRadiusMiles*180/math.Pi, Lng: p.Lng}
}

var origin = entity.GeoPoint{Lat: 29.7604, Lng: -95.3698}

func TestHaversineMiles(t *testing.T) {
	b := entity.GeoPoint{Lat: 32.7767, Lng: -96.7970}
	assert.Equal(t, 0.0, HaversineMiles(origin, origin))
	assert.Equal(t, HaversineMiles(origin, b), HaversineMiles(b, origin))
	assert.InDelta(t, 225, HaversineMiles(origin, b), 5)
	assert.Equal(t, 50.0, HaversineMiles(origin, milesNorth(origin, 50)))
}

func TestDistance_AutoCorrect(t *testing.T) {
	dump := milesNorth(origin, 50)
	r := rule("r-dist", constants.RuleDistance, constants.SeverityError)
	r.AutoCorrect = true
	c := Candidate{
		Ticket: entity.Ticket{Pickup: &origin, Dump: &dump, DistanceMiles: f(100)},
		Rules:  []entity.ValidationRule{r},
	}

	sum := NewEngine(nil).ValidateTicket(c)

	require.Len(t, sum.Corrections, 1)
	assert.Empty(t, sum.Errors)
	corr := sum.Corrections[0]
	assert.Equal(t, constants.ResultCorrected, corr.Status)
	require.NotNil(t, corr.Correction)
	assert.Equal(t, 50.0, corr.Correction.Corrected)
	assert.Equal(t, 100.0, corr.Correction.Original)
	assert.Equal(t, "distance_miles", corr.Correction.Field)
	assert.InDelta(t, 100, *corr.VariancePercent, 0.01)
	assert.InDelta(t, 0.95, sum.ConfidenceScore, 1e-9)
	assert.Equal(t, 100.0, *c.Ticket.DistanceMiles, "candidate is not mutated")
}

func TestDistance_Outcomes(t *testing.T) {
	dump := milesNorth(origin, 50)
	tests := []struct {
		name     string
		claimed  *float64
		severity constants.Severity
		want     constants.ResultStatus
		conf     float64
	}{
		{"exact", f(50), constants.SeverityError, constants.ResultPassed, 0.95},
		{"warning band", f(54), constants.SeverityError, constants.ResultWarning, 0.95},
		{"exactly five percent", f(52.5), constants.SeverityError, constants.ResultPassed, 0.95},
		{"exactly ten percent", f(55), constants.SeverityError, constants.ResultWarning, 0.95},
		{"just over ten percent", f(55.05), constants.SeverityError, constants.ResultError, 0.95},
		{"ten percent under", f(45), constants.SeverityError, constants.ResultWarning, 0.95},
		{"over limit error", f(60), constants.SeverityError, constants.ResultError, 0.95},
		{"over limit block", f(60), constants.SeverityBlock, constants.ResultError, 0.95},
		{"over limit warning severity", f(60), constants.SeverityWarning, constants.ResultWarning, 0.95},
		{"missing claimed", nil, constants.SeverityError, constants.ResultWarning, 0.6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Candidate{
				Ticket: entity.Ticket{Pickup: &origin, Dump: &dump, DistanceMiles: tt.claimed},
				Rules:  []entity.ValidationRule{rule("r", constants.RuleDistance, tt.severity)},
			}
			sum := NewEngine(nil).ValidateTicket(c)
			res := allResults(sum)
			require.Len(t, res, 1)
			assert.Equal(t, tt.want, res[0].Status)
			assert.Equal(t, tt.conf, res[0].Confidence)
			assert.Empty(t, sum.Corrections)
		})
	}
}

func TestWeight_Overload(t *testing.T) {
	for _, sev := range []constants.Severity{constants.SeverityWarning, constants.SeverityError} {
		c := Candidate{
			Ticket:        entity.Ticket{LoadWeightTons: f(22)},
			Rules:         []entity.ValidationRule{rule("w", constants.RuleWeight, sev)},
			TruckCapacity: f(20),
		}
		res := allResults(NewEngine(nil).ValidateTicket(c))
		require.Len(t, res, 1)
		assert.NotEqual(t, constants.ResultPassed, res[0].Status)
		assert.Equal(t, 0.85, res[0].Confidence)
		assert.Equal(t, 20.0, *res[0].ExpectedValue)
	}
}

func TestWeight_WithinToleranceAndDensity(t *testing.T) {
	w := rule("w", constants.RuleWeight, constants.SeverityError)

	ok := Candidate{
		Ticket:        entity.Ticket{LoadWeightTons: f(21), CubicYards: f(15), Material: strp("Gravel")},
		Rules:         []entity.ValidationRule{w},
		TruckCapacity: f(20),
	}
	res := allResults(NewEngine(nil).ValidateTicket(ok))
	assert.Equal(t, constants.ResultPassed, res[0].Status)

	// 10 cy of dirt should weigh about 13.5 t
	light := Candidate{
		Ticket:        entity.Ticket{LoadWeightTons: f(9), CubicYards: f(10), Material: strp("Dirt")},
		Rules:         []entity.ValidationRule{w},
		TruckCapacity: f(20),
	}
	res = allResults(NewEngine(nil).ValidateTicket(light))
	assert.Equal(t, constants.ResultWarning, res[0].Status)
	require.NotEmpty(t, res[0].Notes)
	assert.Contains(t, res[0].Notes[0], "inconsistent")
}

func TestWeight_DefaultCapacityFromLogic(t *testing.T) {
	w := rule("w", constants.RuleWeight, constants.SeverityError)
	w.RuleLogic = json.RawMessage(`{"default_capacity_tons": 10}`)
	c := Candidate{Ticket: entity.Ticket{LoadWeightTons: f(12)}, Rules: []entity.ValidationRule{w}}
	res := allResults(NewEngine(nil).ValidateTicket(c))
	assert.Equal(t, constants.ResultError, res[0].Status)
	assert.Equal(t, 10.0, *res[0].ExpectedValue)
}

func TestTime(t *testing.T) {
	load := time.Date(2024, 5, 17, 6, 0, 0, 0, time.UTC)
	long := load.Add(14 * time.Hour)
	short := load.Add(90 * time.Minute)
	before := load.Add(-time.Hour)

	r := rule("t", constants.RuleTime, constants.SeverityWarning)
	tests := []struct {
		name string
		dump *time.Time
		want constants.ResultStatus
		conf float64
		hrs  float64
	}{
		{"short trip", &short, constants.ResultPassed, 0.75, 1.5},
		{"too long", &long, constants.ResultWarning, 0.75, 14},
		{"dump before load clamps", &before, constants.ResultPassed, 0.75, 0},
		{"missing dump", nil, constants.ResultWarning, 0.6, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Candidate{Ticket: entity.Ticket{LoadTime: &load, DumpTime: tt.dump}, Rules: []entity.ValidationRule{r}}
			res := allResults(NewEngine(nil).ValidateTicket(c))
			require.Len(t, res, 1)
			assert.Equal(t, tt.want, res[0].Status)
			assert.Equal(t, tt.conf, res[0].Confidence)
			if tt.hrs >= 0 {
				assert.InDelta(t, tt.hrs, *res[0].ActualValue, 1e-9)
			}
		})
	}
}

func TestTime_MaxHoursFromLogic(t *testing.T) {
	load := time.Date(2024, 5, 17, 6, 0, 0, 0, time.UTC)
	dump := load.Add(3 * time.Hour)
	r := rule("t", constants.RuleTime, constants.SeverityError)
	r.RuleLogic = json.RawMessage(`{"max_hours": 2}`)
	c := Candidate{Ticket: entity.Ticket{LoadTime: &load, DumpTime: &dump}, Rules: []entity.ValidationRule{r}}
	res := allResults(NewEngine(nil).ValidateTicket(c))
	assert.Equal(t, constants.ResultError, res[0].Status)
}

func TestPhotoAndSignature(t *testing.T) {
	photo := rule("p", constants.RulePhoto, constants.SeverityError)
	sig := rule("s", constants.RuleSignature, constants.SeverityWarning)
	sig.RuleLogic = json.RawMessage(`{"require_signature": false}`)

	c := Candidate{Ticket: entity.Ticket{HasPhoto: false, HasSignature: false}, Rules: []entity.ValidationRule{photo, sig}}
	sum := NewEngine(nil).ValidateTicket(c)

	require.Len(t, sum.Errors, 1)
	assert.Equal(t, constants.RulePhoto, sum.Errors[0].RuleType)
	assert.Contains(t, sum.Errors[0].Notes, "photo missing")
	require.Len(t, sum.Passed, 1)
	assert.Equal(t, constants.RuleSignature, sum.Passed[0].RuleType)
}

func TestPhoto_MissingWithWarningSeverity(t *testing.T) {
	c := Candidate{Rules: []entity.ValidationRule{rule("p", constants.RulePhoto, constants.SeverityWarning)}}
	sum := NewEngine(nil).ValidateTicket(c)
	require.Len(t, sum.Warnings, 1)
	assert.Contains(t, sum.Warnings[0].Notes, "photo missing")
	assert.Empty(t, sum.Passed)
}

func TestLocation(t *testing.T) {
	loc := rule("l", constants.RuleLocation, constants.SeverityError)
	pickupFence := entity.Geofence{ID: "g1", FenceType: constants.FencePickup, Center: origin, Active: true}
	far := milesNorth(origin, 30)
	dumpFence := entity.Geofence{ID: "g2", FenceType: constants.FenceDump, Center: far, RadiusMiles: f(1), Active: true}

	nearPickup := milesNorth(origin, 0.1)
	nearDump := milesNorth(far, 0.5)
	offDump := milesNorth(far, 3)

	t.Run("no fences", func(t *testing.T) {
		res := allResults(NewEngine(nil).ValidateTicket(Candidate{Rules: []entity.ValidationRule{loc}}))
		assert.Equal(t, constants.ResultWarning, res[0].Status)
		assert.Equal(t, 0.5, res[0].Confidence)
		assert.Contains(t, res[0].Notes, "no geofences configured")
	})
	t.Run("inside both", func(t *testing.T) {
		c := Candidate{
			Ticket:    entity.Ticket{Pickup: &nearPickup, Dump: &nearDump},
			Rules:     []entity.ValidationRule{loc},
			Geofences: []entity.Geofence{pickupFence, dumpFence},
		}
		res := allResults(NewEngine(nil).ValidateTicket(c))
		assert.Equal(t, constants.ResultPassed, res[0].Status)
		assert.Equal(t, 0.9, res[0].Confidence)
	})
	t.Run("dump outside", func(t *testing.T) {
		c := Candidate{
			Ticket:    entity.Ticket{Pickup: &nearPickup, Dump: &offDump},
			Rules:     []entity.ValidationRule{loc},
			Geofences: []entity.Geofence{pickupFence, dumpFence},
		}
		res := allResults(NewEngine(nil).ValidateTicket(c))
		assert.Equal(t, constants.ResultError, res[0].Status)
		require.Len(t, res[0].Notes, 1)
		assert.Contains(t, res[0].Notes[0], "dump")
	})
	t.Run("pickup default radius", func(t *testing.T) {
		outside := milesNorth(origin, 0.3)
		c := Candidate{
			Ticket:    entity.Ticket{Pickup: &outside},
			Rules:     []entity.ValidationRule{loc},
			Geofences: []entity.Geofence{pickupFence},
		}
		res := allResults(NewEngine(nil).ValidateTicket(c))
		assert.Equal(t, constants.ResultError, res[0].Status)
		assert.Contains(t, res[0].Notes[0], "pickup")
	})
}

func TestOverallConfidence_Renormalized(t *testing.T) {
	c := Candidate{
		Ticket: entity.Ticket{HasPhoto: true},
		Rules: []entity.ValidationRule{
			rule("d", constants.RuleDistance, constants.SeverityError),
			rule("p", constants.RulePhoto, constants.SeverityError),
		},
	}
	sum := NewEngine(nil).ValidateTicket(c)
	// (0.25*0.6 + 0.15*0.8) / 0.40
	assert.InDelta(t, 0.675, sum.ConfidenceScore, 1e-9)

	empty := NewEngine(nil).ValidateTicket(Candidate{})
	assert.Equal(t, DefaultCategoryConfidence, empty.ConfidenceScore)
	assert.NotNil(t, empty.Passed)
}

func TestSelectRules_FirstActivePerType(t *testing.T) {
	inactive := rule("a", constants.RuleTime, constants.SeverityError)
	inactive.Active = false
	first := rule("b", constants.RuleTime, constants.SeverityWarning)
	second := rule("c", constants.RuleTime, constants.SeverityError)
	unknown := entity.ValidationRule{ID: "x", RuleType: "speed", Active: true}

	got := SelectRules([]entity.ValidationRule{inactive, first, second, unknown})
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[constants.RuleTime].ID)
}

func TestInvalidRuleLogicFallsBackToDefaults(t *testing.T) {
	r := rule("p", constants.RulePhoto, constants.SeverityError)
	r.RuleLogic = json.RawMessage(`{"require_photo": "nope"}`)
	res := allResults(NewEngine(nil).ValidateTicket(Candidate{Rules: []entity.ValidationRule{r}}))
	assert.Equal(t, constants.ResultError, res[0].Status)
}

type countingObserver map[constants.ResultStatus]int

func (o countingObserver) ObserveRule(_ constants.RuleType, s constants.ResultStatus) { o[s]++ }

func TestObserver(t *testing.T) {
	obs := countingObserver{}
	c := Candidate{
		Ticket: entity.Ticket{HasPhoto: true},
		Rules: []entity.ValidationRule{
			rule("p", constants.RulePhoto, constants.SeverityError),
			rule("s", constants.RuleSignature, constants.SeverityError),
		},
	}
	NewEngine(nil, WithObserver(obs)).ValidateTicket(c)
	assert.Equal(t, 1, obs[constants.ResultPassed])
	assert.Equal(t, 1, obs[constants.ResultError])
}

func strp(s string) *string { return &s }

func allResults(s entity.ValidationSummary) []entity.ValidationResult {
	var out []entity.ValidationResult
	out = append(out, s.Passed...)
	out = append(out, s.Warnings...)
	out = append(out, s.Errors...)
	out = append(out, s.Corrections...)
	return out
}
