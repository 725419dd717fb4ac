package validation

import (
	"github.com/monicap360/move-around-tms/constants"
)

// Densities in tons per cubic yard.
var materialDensity = map[constants.Material]float64{
	constants.Dirt:       1.35,
	constants.Gravel:     1.4,
	constants.Asphalt:    1.2,
	constants.Demolition: 1.0,
	constants.Concrete:   1.5,
	constants.OtherMat:   1.2,
}

// DensityFor returns the tons-per-cubic-yard figure for a free-text material.
func DensityFor(material string) float64 {
	m, _ := constants.CanonicalMaterial(material)
	return materialDensity[m]
}

// categoryWeights drive the overall score; absent categories are renormalised away.
var categoryWeights = map[constants.RuleType]float64{
	constants.RuleDistance:  0.25,
	constants.RuleWeight:    0.30,
	constants.RulePhoto:     0.15,
	constants.RuleLocation:  0.20,
	constants.RuleTime:      0.10,
	constants.RuleSignature: 0.10,
}

// Per-category confidence contributions.
const (
	confDistance        = 0.95
	confDistanceMissing = 0.6
	confWeight          = 0.85
	confTime            = 0.75
	confTimeMissing     = 0.6
	confPhoto           = 0.8
	confSignature       = 0.8
	confLocation        = 0.9
	confNoGeofences     = 0.5

	// DefaultCategoryConfidence stands in for a present category that produced no result.
	DefaultCategoryConfidence = 0.7
)

// Rule defaults used when rule_logic and threshold are silent.
const (
	defaultMaxVariancePct     = 10.0
	defaultWarnVariancePct    = 5.0
	defaultCapacityTons       = 25.0
	defaultOverloadFactor     = 1.05
	defaultDensityTolerance   = 0.15
	defaultMaxTripHours       = 12.0
	defaultGeofenceRadiusMile = 0.25
)
