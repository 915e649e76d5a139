package domain

import (
	"fmt"
	"time"
)

// RewardEvent identifies a point-awarding report lifecycle event.
type RewardEvent string

const (
	EventReportSubmitted  RewardEvent = "reportSubmitted"
	EventReportVerified   RewardEvent = "reportVerified"
	EventReportFalseAlarm RewardEvent = "reportFalseAlarm"
)

// basePoints is the fixed point delta per event. The consecutive-day streak
// bonus is handled separately because it only applies to submissions.
var basePoints = map[RewardEvent]int{
	EventReportSubmitted:  25,
	EventReportVerified:   75,
	EventReportFalseAlarm: -10,
}

// ConsecutiveDayBonus is awarded once per maintained streak day.
const ConsecutiveDayBonus = 15

// Profile is a reporter's gamification state. Points, counters, streak, and
// badges are the stored facts; level and progress are always derived from
// points and never persisted.
type Profile struct {
	UserID          string    `bson:"_id"                     json:"userId"`
	Points          int       `bson:"points"                  json:"points"`
	TotalReports    int       `bson:"totalReports"            json:"totalReports"`
	VerifiedReports int       `bson:"verifiedReports"         json:"verifiedReports"`
	Streak          int       `bson:"streak"                  json:"streak"`
	LastReportDay   time.Time `bson:"lastReportDay,omitempty" json:"lastReportDay,omitempty"`
	Badges          []BadgeID `bson:"badges"                  json:"badges"`
}

// HasBadge reports whether the profile already holds a badge.
func (p Profile) HasBadge(id BadgeID) bool {
	for _, b := range p.Badges {
		if b == id {
			return true
		}
	}
	return false
}

// Level is one row of the static level threshold table.
type Level struct {
	Level     int    `json:"level"`
	Name      string `json:"name"`
	MinPoints int    `json:"minPoints"`
}

// Levels is the strictly increasing level table.
var Levels = []Level{
	{Level: 1, Name: "Observer", MinPoints: 0},
	{Level: 2, Name: "Scout", MinPoints: 100},
	{Level: 3, Name: "Guardian", MinPoints: 250},
	{Level: 4, Name: "Protector", MinPoints: 500},
	{Level: 5, Name: "Sentinel", MinPoints: 1000},
	{Level: 6, Name: "Legend", MinPoints: 2000},
}

// LevelFor returns the highest level whose threshold is at or below points.
func LevelFor(points int) Level {
	current := Levels[0]
	for _, l := range Levels {
		if points >= l.MinPoints {
			current = l
		}
	}
	return current
}

// LevelProgress describes where a point total sits within the level table.
type LevelProgress struct {
	Level        Level  `json:"level"`
	NextLevel    *Level `json:"nextLevel,omitempty"`
	ProgressPct  int    `json:"progressPct"`
	PointsNeeded int    `json:"pointsNeeded"`
}

// ProgressFor computes level progress for a point total. Progress is clamped
// to [0,100]; at the top level progress is 100 and PointsNeeded is 0.
func ProgressFor(points int) LevelProgress {
	current := LevelFor(points)
	progress := LevelProgress{Level: current, ProgressPct: 100}

	for i, l := range Levels {
		if l.Level != current.Level || i+1 >= len(Levels) {
			continue
		}
		next := Levels[i+1]
		progress.NextLevel = &next
		progress.PointsNeeded = next.MinPoints - points

		span := next.MinPoints - current.MinPoints
		pct := (points - current.MinPoints) * 100 / span
		if pct < 0 {
			pct = 0
		}
		if pct > 100 {
			pct = 100
		}
		progress.ProgressPct = pct
	}
	return progress
}

// BadgeID identifies an achievement.
type BadgeID string

const (
	BadgeFirstReport    BadgeID = "first-report"
	BadgeTrustedEyes    BadgeID = "trusted-eyes"
	BadgeCoastWatcher   BadgeID = "coast-watcher"
	BadgeTideKeeper     BadgeID = "tide-keeper"
	BadgeThousandClub   BadgeID = "thousand-club"
	BadgeAccuracyExpert BadgeID = "accuracy-expert"
)

// Metric names the profile quantity a badge criterion inspects. Criteria are
// typed variants rather than free-form expressions so the rule set stays
// statically checkable.
type Metric string

const (
	MetricTotalReports    Metric = "totalReports"
	MetricVerifiedReports Metric = "verifiedReports"
	MetricStreak          Metric = "streak"
	MetricPoints          Metric = "points"
	MetricAccuracy        Metric = "accuracy"
)

// Criteria is a badge's unlock predicate. For MetricAccuracy the predicate is
// VerifiedReports/TotalReports >= MinRatio with at least MinSample reports;
// all other metrics compare against Min.
type Criteria struct {
	Metric    Metric
	Min       int
	MinRatio  float64
	MinSample int
}

// Met evaluates the criteria against a profile.
func (c Criteria) Met(p Profile) bool {
	switch c.Metric {
	case MetricTotalReports:
		return p.TotalReports >= c.Min
	case MetricVerifiedReports:
		return p.VerifiedReports >= c.Min
	case MetricStreak:
		return p.Streak >= c.Min
	case MetricPoints:
		return p.Points >= c.Min
	case MetricAccuracy:
		return p.TotalReports >= c.MinSample &&
			float64(p.VerifiedReports) >= c.MinRatio*float64(p.TotalReports)
	default:
		return false
	}
}

// Badge is a one-time-grantable achievement with a fixed point bonus.
type Badge struct {
	ID       BadgeID  `json:"id"`
	Name     string   `json:"name"`
	Bonus    int      `json:"bonus"`
	Criteria Criteria `json:"-"`
}

// AllBadges is the deployment's badge set, evaluated in order on every
// point-awarding event.
var AllBadges = []Badge{
	{ID: BadgeFirstReport, Name: "First Report", Bonus: 10,
		Criteria: Criteria{Metric: MetricTotalReports, Min: 1}},
	{ID: BadgeTrustedEyes, Name: "Trusted Eyes", Bonus: 50,
		Criteria: Criteria{Metric: MetricVerifiedReports, Min: 5}},
	{ID: BadgeCoastWatcher, Name: "Coast Watcher", Bonus: 100,
		Criteria: Criteria{Metric: MetricTotalReports, Min: 25}},
	{ID: BadgeTideKeeper, Name: "Tide Keeper", Bonus: 75,
		Criteria: Criteria{Metric: MetricStreak, Min: 7}},
	{ID: BadgeThousandClub, Name: "Thousand Club", Bonus: 150,
		Criteria: Criteria{Metric: MetricPoints, Min: 1000}},
	{ID: BadgeAccuracyExpert, Name: "Accuracy Expert", Bonus: 200,
		Criteria: Criteria{Metric: MetricAccuracy, MinRatio: 0.9, MinSample: 10}},
}

// BadgeByID looks up a badge definition.
func BadgeByID(id BadgeID) (Badge, bool) {
	for _, b := range AllBadges {
		if b.ID == id {
			return b, true
		}
	}
	return Badge{}, false
}

// LeaderboardEntry is one row of the top-reporters view.
type LeaderboardEntry struct {
	UserID string `json:"userId"`
	Points int    `json:"points"`
}

// AwardResult is the outcome of applying one reward event to a profile.
type AwardResult struct {
	Profile       Profile
	PointsAwarded int
	NewBadges     []Badge
	Progress      LevelProgress
}

// ApplyEvent applies one reward event to a profile and returns the updated
// profile plus what was earned. The update order is fixed: base point delta
// (floored so the total never goes negative), then counters and streak, then
// badge predicates against the updated totals, then badge bonuses. Progress
// is computed from the final total.
//
// ApplyEvent is pure; the caller owns persistence and must serialize events
// per user.
func ApplyEvent(p Profile, ev RewardEvent) (AwardResult, error) {
	delta, ok := basePoints[ev]
	if !ok {
		return AwardResult{}, fmt.Errorf("unknown reward event %q", ev)
	}

	switch ev {
	case EventReportSubmitted:
		p.TotalReports++
		delta += p.advanceStreak()
	case EventReportVerified:
		p.VerifiedReports++
	}

	awarded := delta
	p.Points += delta
	if p.Points < 0 {
		awarded -= p.Points
		p.Points = 0
	}

	var earned []Badge
	for _, b := range AllBadges {
		if p.HasBadge(b.ID) || !b.Criteria.Met(p) {
			continue
		}
		p.Badges = append(p.Badges, b.ID)
		p.Points += b.Bonus
		awarded += b.Bonus
		earned = append(earned, b)
	}

	return AwardResult{
		Profile:       p,
		PointsAwarded: awarded,
		NewBadges:     earned,
		Progress:      ProgressFor(p.Points),
	}, nil
}

// advanceStreak updates the consecutive-day streak for a submission and
// returns the streak bonus earned, if any. Multiple reports on the same day
// keep the streak; a one-day gap extends it; anything longer resets to 1.
func (p *Profile) advanceStreak() int {
	today := dayOf(clock.Now().UTC())

	switch {
	case p.LastReportDay.IsZero():
		p.Streak = 1
	case p.LastReportDay.Equal(today):
		if p.Streak == 0 {
			p.Streak = 1
		}
		return 0
	case p.LastReportDay.Equal(today.AddDate(0, 0, -1)):
		p.Streak++
		p.LastReportDay = today
		return ConsecutiveDayBonus
	default:
		p.Streak = 1
	}
	p.LastReportDay = today
	return 0
}

// dayOf truncates a time to UTC midnight.
func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
