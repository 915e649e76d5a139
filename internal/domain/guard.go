package domain

import (
	"math"
	"time"
)

// Default thresholds for the duplicate/proximity guard. At beach scale a
// kilometre radius comfortably covers GPS scatter between two phones looking
// at the same slick or swarm.
const (
	DefaultDuplicateRadiusKM = 1.0
	DefaultDuplicateWindow   = 24 * time.Hour
)

// GuardConfig tunes the duplicate/proximity guard.
type GuardConfig struct {
	RadiusKM float64
	Window   time.Duration
}

// DefaultGuardConfig returns the production guard thresholds.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{RadiusKM: DefaultDuplicateRadiusKM, Window: DefaultDuplicateWindow}
}

// DuplicateCheck is the guard's verdict on a candidate submission.
// CanSubmit=false means a verified report of the same hazard already covers
// this spot and the submission must be rejected. DuplicateFound with
// CanSubmit=true is advisory only: a similar unverified report exists and the
// client should warn the reporter.
type DuplicateCheck struct {
	DuplicateFound bool    `json:"duplicateFound"`
	CanSubmit      bool    `json:"canSubmit"`
	MatchID        string  `json:"matchId,omitempty"`
	MatchStatus    Status  `json:"matchStatus,omitempty"`
	DistanceKM     float64 `json:"distanceKm,omitempty"`
}

// CheckDuplicate evaluates a candidate hazard type and position against
// existing reports. A match shares the hazard type, lies within cfg.RadiusKM,
// and was reported within cfg.Window of now. A verified match blocks
// submission; otherwise the nearest match is reported as an advisory flag.
// The check is read-only and has no side effects.
func CheckDuplicate(hazard HazardType, at Geo, existing []Report, cfg GuardConfig) DuplicateCheck {
	result := DuplicateCheck{CanSubmit: true}
	cutoff := clock.Now().Add(-cfg.Window)

	nearest := math.MaxFloat64
	for _, r := range existing {
		if r.HazardType != hazard || r.ReportedAt.Before(cutoff) {
			continue
		}
		dist := HaversineKM(at, r.Geo)
		if dist > cfg.RadiusKM {
			continue
		}

		if r.Status == StatusVerified {
			return DuplicateCheck{
				DuplicateFound: true,
				CanSubmit:      false,
				MatchID:        r.ID,
				MatchStatus:    r.Status,
				DistanceKM:     dist,
			}
		}
		if dist < nearest {
			nearest = dist
			result = DuplicateCheck{
				DuplicateFound: true,
				CanSubmit:      true,
				MatchID:        r.ID,
				MatchStatus:    r.Status,
				DistanceKM:     dist,
			}
		}
	}
	return result
}

const earthRadiusKM = 6371.0

// HaversineKM returns the great-circle distance between two coordinates in
// kilometres.
func HaversineKM(a, b Geo) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKM * math.Asin(math.Sqrt(h))
}
