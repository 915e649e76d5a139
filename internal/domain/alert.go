package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AlertRecord is the immutable authorization record for a hazard broadcast.
// Delivery is handled by the notification collaborator; a slow or failed
// delivery never invalidates the record.
type AlertRecord struct {
	ID         string     `json:"id"`
	ReportID   string     `json:"reportId"`
	Title      string     `json:"title"`
	HazardType HazardType `json:"hazardType"`
	Location   string     `json:"location"`
	Geo        Geo        `json:"geo"`
	Severity   Severity   `json:"severity"`
	SentAt     time.Time  `json:"sentAt"`
	Actor      string     `json:"actor"`
}

// hazardLabels are the human-readable names used in alert titles.
var hazardLabels = map[HazardType]string{
	HazardHighTide:        "High Tide",
	HazardJellyfish:       "Jellyfish Swarm",
	HazardOilSpill:        "Oil Spill",
	HazardStorm:           "Storm",
	HazardPollution:       "Pollution",
	HazardUnusualActivity: "Unusual Activity",
	HazardOther:           "Coastal Hazard",
}

// NewAlert authorizes a broadcast for a report. Only verified reports are
// eligible; anything else fails with ErrIneligible. The report itself is not
// modified by alerting.
func NewAlert(r Report, actor string) (AlertRecord, error) {
	if r.Status != StatusVerified {
		return AlertRecord{}, ErrIneligible
	}
	label, ok := hazardLabels[r.HazardType]
	if !ok {
		label = hazardLabels[HazardOther]
	}
	return AlertRecord{
		ID:         uuid.NewString(),
		ReportID:   r.ID,
		Title:      fmt.Sprintf("%s Alert: %s", label, r.Location),
		HazardType: r.HazardType,
		Location:   r.Location,
		Geo:        r.Geo,
		Severity:   r.Severity,
		SentAt:     clock.Now().UTC(),
		Actor:      actor,
	}, nil
}
