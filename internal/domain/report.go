package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// HazardType is the closed set of hazard categories accepted per deployment.
type HazardType string

const (
	HazardHighTide        HazardType = "high-tide"
	HazardJellyfish       HazardType = "jellyfish"
	HazardOilSpill        HazardType = "oil-spill"
	HazardStorm           HazardType = "storm"
	HazardPollution       HazardType = "pollution"
	HazardUnusualActivity HazardType = "unusual-activity"
	HazardOther           HazardType = "other"
)

// HazardTypes lists all accepted categories in display order.
var HazardTypes = []HazardType{
	HazardHighTide,
	HazardJellyfish,
	HazardOilSpill,
	HazardStorm,
	HazardPollution,
	HazardUnusualActivity,
	HazardOther,
}

// Valid reports whether h is one of the accepted categories.
func (h HazardType) Valid() bool {
	for _, known := range HazardTypes {
		if h == known {
			return true
		}
	}
	return false
}

// Severity is the reporter-supplied urgency of a hazard.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Valid reports whether s is one of low, medium, or high.
func (s Severity) Valid() bool {
	return s == SeverityLow || s == SeverityMedium || s == SeverityHigh
}

// Status is the lifecycle state of a report.
type Status string

const (
	StatusPending    Status = "pending"
	StatusVerified   Status = "verified"
	StatusFalseAlarm Status = "false-alarm"
)

// Valid reports whether st is one of pending, verified, or false-alarm.
func (st Status) Valid() bool {
	return st == StatusPending || st == StatusVerified || st == StatusFalseAlarm
}

// Terminal reports whether st carries a verification decision.
func (st Status) Terminal() bool {
	return st == StatusVerified || st == StatusFalseAlarm
}

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lon float64 `bson:"lon" json:"lon"`
}

// Report is a single citizen-submitted hazard observation.
//
// Invariant: VerifiedAt and VerifiedBy are set iff the report has entered a
// terminal status at least once; ReportedAt <= VerifiedAt whenever both are
// set. Photos are fixed at submission time.
type Report struct {
	ID          string     `bson:"_id"                  json:"id"`
	HazardType  HazardType `bson:"hazardType"           json:"hazardType"`
	Location    string     `bson:"location"             json:"location"`
	Geo         Geo        `bson:"geo"                  json:"geo"`
	Description string     `bson:"description"          json:"description"`
	Severity    Severity   `bson:"severity"             json:"severity"`
	Status      Status     `bson:"status"               json:"status"`
	ReportedBy  string     `bson:"reportedBy"           json:"reportedBy"`
	ReportedAt  time.Time  `bson:"reportedAt"           json:"reportedAt"`
	VerifiedAt  *time.Time `bson:"verifiedAt,omitempty" json:"verifiedAt"`
	VerifiedBy  string     `bson:"verifiedBy,omitempty" json:"verifiedBy,omitempty"`
	Comments    string     `bson:"comments,omitempty"   json:"comments,omitempty"`
	Photos      []string   `bson:"photos"               json:"photos"`
}

// Submission is the citizen-supplied input for a new report.
type Submission struct {
	HazardType  HazardType `json:"hazardType"`
	Location    string     `json:"location"`
	Description string     `json:"description"`
	Severity    Severity   `json:"severity,omitempty"`
	Geo         *Geo       `json:"geo,omitempty"`
	ReportedBy  string     `json:"reportedBy"`
	Photos      []string   `json:"photos,omitempty"`
}

// NewReport validates a submission and builds the initial pending report.
// Severity defaults to medium and coordinates to (0,0) when absent.
func NewReport(sub Submission) (Report, error) {
	if strings.TrimSpace(string(sub.HazardType)) == "" {
		return Report{}, &ValidationError{Field: "hazardType", Reason: "is required"}
	}
	if !sub.HazardType.Valid() {
		return Report{}, &ValidationError{Field: "hazardType", Reason: "is not a known hazard category"}
	}
	if strings.TrimSpace(sub.Location) == "" {
		return Report{}, &ValidationError{Field: "location", Reason: "is required"}
	}
	if strings.TrimSpace(sub.Description) == "" {
		return Report{}, &ValidationError{Field: "description", Reason: "is required"}
	}
	if strings.TrimSpace(sub.ReportedBy) == "" {
		return Report{}, &ValidationError{Field: "reportedBy", Reason: "is required"}
	}

	severity := sub.Severity
	if severity == "" {
		severity = SeverityMedium
	}
	if !severity.Valid() {
		return Report{}, &ValidationError{Field: "severity", Reason: "must be low, medium, or high"}
	}

	var geo Geo
	if sub.Geo != nil {
		geo = *sub.Geo
	}

	photos := make([]string, len(sub.Photos))
	copy(photos, sub.Photos)

	return Report{
		ID:          uuid.NewString(),
		HazardType:  sub.HazardType,
		Location:    strings.TrimSpace(sub.Location),
		Geo:         geo,
		Description: strings.TrimSpace(sub.Description),
		Severity:    severity,
		Status:      StatusPending,
		ReportedBy:  sub.ReportedBy,
		ReportedAt:  clock.Now().UTC(),
		Photos:      photos,
	}, nil
}
