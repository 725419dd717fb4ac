package constants

import (
	"strings"
)

type Material string

const (
	Dirt       Material = "dirt"
	Gravel     Material = "gravel"
	Asphalt    Material = "asphalt"
	Demolition Material = "demolition"
	Concrete   Material = "concrete"
	OtherMat   Material = "other"
)

var allMaterials = []Material{Dirt, Gravel, Asphalt, Demolition, Concrete, OtherMat}

// MaterialsAsStringSlice lists the canonical material classes.
func MaterialsAsStringSlice() []string {
	result := make([]string, len(allMaterials))
	for i, m := range allMaterials {
		result[i] = string(m)
	}
	return result
}

var materialSynonyms = map[string]Material{
	"fill":             Dirt,
	"fill dirt":        Dirt,
	"topsoil":          Dirt,
	"top soil":         Dirt,
	"soil":             Dirt,
	"clay":             Dirt,
	"crushed stone":    Gravel,
	"stone":            Gravel,
	"rock":             Gravel,
	"base":             Gravel,
	"sand":             Gravel,
	"millings":         Asphalt,
	"blacktop":         Asphalt,
	"rubble":           Demolition,
	"debris":           Demolition,
	"c&d":              Demolition,
	"rap":              Asphalt,
	"crushed concrete": Concrete,
}

// CanonicalMaterial maps a free-text material name onto a density class.
// Unknown names resolve to OtherMat with ok=false.
func CanonicalMaterial(input string) (Material, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return OtherMat, false
	}
	if m, ok := materialSynonyms[normalized]; ok {
		return m, true
	}
	for _, m := range allMaterials {
		if normalized == string(m) {
			return m, true
		}
	}
	for _, m := range allMaterials {
		if m != OtherMat && strings.Contains(normalized, string(m)) {
			return m, true
		}
	}
	return OtherMat, false
}
