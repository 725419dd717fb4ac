package entity

// Driver is a directory record used for identity matching.
type Driver struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	LicenseNumber *string `json:"license_number,omitempty"`
}

// DriverAlias is a supplemental name variant for a driver.
type DriverAlias struct {
	DriverID        string  `json:"driver_id"`
	Alias           string  `json:"alias"`
	ConfidenceBoost float64 `json:"confidence_boost"`
}

// DriverMatch is the matcher's answer.
type DriverMatch struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}
