package constants

// ReviewStatus is the lifecycle status of tickets and driver documents.
type ReviewStatus string

// Stable values (store these exact strings in DB).
const (
	StatusPendingReview ReviewStatus = "Pending Manager Review"
	StatusApproved      ReviewStatus = "Approved"
	StatusDenied        ReviewStatus = "Denied"
	StatusVoided        ReviewStatus = "Voided"
)

// DocKind is the classifier outcome for a submission.
type DocKind string

const (
	KindTicket DocKind = "ticket"
	KindHR     DocKind = "hr"
)

// DocType is the HR document type stored on driver documents.
type DocType string

const (
	DocTypeLicense DocType = "License"
	DocTypeMedical DocType = "Medical Certificate"
	DocTypeOther   DocType = "Other"
)

// RuleType names a validation rule category.
type RuleType string

const (
	RuleDistance  RuleType = "distance"
	RuleWeight    RuleType = "weight"
	RuleTime      RuleType = "time"
	RuleLocation  RuleType = "location"
	RulePhoto     RuleType = "photo"
	RuleSignature RuleType = "signature"
)

// RuleTypes is the evaluation order of rule categories.
var RuleTypes = []RuleType{RuleDistance, RuleWeight, RuleTime, RulePhoto, RuleSignature, RuleLocation}

func RuleTypesAsStringSlice() []string {
	result := make([]string, len(RuleTypes))
	for i, t := range RuleTypes {
		result[i] = string(t)
	}
	return result
}

// Severity is the configured severity of a validation rule.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeverityBlock   Severity = "block"
)

// ResultStatus is the outcome of a single rule evaluation.
type ResultStatus string

const (
	ResultPassed    ResultStatus = "passed"
	ResultWarning   ResultStatus = "warning"
	ResultError     ResultStatus = "error"
	ResultCorrected ResultStatus = "corrected"
)

// BaselineType identifies which historical tier produced a baseline.
type BaselineType string

const (
	BaselineDriver BaselineType = "driver_historical"
	BaselineSite   BaselineType = "site_historical"
	BaselineGlobal BaselineType = "global"
)

// FenceType distinguishes pickup from dump geofences.
type FenceType string

const (
	FencePickup FenceType = "pickup"
	FenceDump   FenceType = "dump"
)
