package validation

import (
	"math"

	"github.com/monicap360/move-around-tms/internal/entity"
)

// EarthRadiusMiles is the mean Earth radius used for great-circle distances.
const EarthRadiusMiles = 3958.8

// HaversineMiles returns the great-circle distance between two points in miles,
// rounded to 2 decimals.
func HaversineMiles(a, b entity.GeoPoint) float64 {
	lat1, lat2 := toRad(a.Lat), toRad(b.Lat)
	dLat := lat2 - lat1
	dLng := toRad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return round2(EarthRadiusMiles * c)
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }
