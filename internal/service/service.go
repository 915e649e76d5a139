// Package service coordinates the report store, the verification state
// machine, the duplicate guard, the alert gate, and the gamification ledger.
// It owns the interfaces its collaborators must satisfy and the per-entity
// locking the ledger update sequence requires.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oceanwatch/hazard-report-service/internal/domain"
	"github.com/oceanwatch/hazard-report-service/internal/observability"
)

// Filter narrows a report listing. Empty or "all" fields match everything;
// present fields compose with logical AND.
type Filter struct {
	HazardType string
	Status     string
	Severity   string
}

// ReportStore persists reports. List must return reports in insertion order.
// Get and Update report unknown ids with domain.ErrNotFound.
type ReportStore interface {
	Insert(ctx context.Context, r domain.Report) error
	Get(ctx context.Context, id string) (domain.Report, error)
	List(ctx context.Context, f Filter) ([]domain.Report, error)
	Update(ctx context.Context, r domain.Report) error
	Ping(ctx context.Context) error
}

// ProfileStore persists gamification profiles. Get reports unknown users
// with domain.ErrNotFound; Save upserts.
type ProfileStore interface {
	Get(ctx context.Context, userID string) (domain.Profile, error)
	Save(ctx context.Context, p domain.Profile) error
}

// AlertSink receives authorized alert records for delivery.
type AlertSink interface {
	Publish(ctx context.Context, rec domain.AlertRecord) error
}

// Leaderboard tracks reporter point totals for the top-N view.
type Leaderboard interface {
	Record(ctx context.Context, userID string, points int) error
	Top(ctx context.Context, n int) ([]domain.LeaderboardEntry, error)
}

// alertPublishTimeout bounds the fire-and-forget delivery hand-off so a
// stalled broker cannot pin goroutines forever.
const alertPublishTimeout = 5 * time.Second

// Service implements the report lifecycle operations.
//
// Per-entity mutual exclusion: status transitions are serialized per report
// and ledger updates per user through keyed mutexes, so concurrent handlers
// cannot interleave a read-modify-write. This covers a single process; a
// multi-replica deployment would need the guard at the storage layer instead.
type Service struct {
	reports     ReportStore
	profiles    ProfileStore
	alerts      AlertSink
	board       Leaderboard
	guard       domain.GuardConfig
	transitions domain.TransitionTable
	logger      *slog.Logger
	metrics     *observability.Metrics

	locks keyedMutex

	// wg tracks in-flight alert publishes so Close can drain them.
	wg sync.WaitGroup
}

// New creates a Service. The alert sink may be nil, in which case authorized
// alerts are logged but not delivered anywhere.
func New(
	reports ReportStore,
	profiles ProfileStore,
	alerts AlertSink,
	board Leaderboard,
	guard domain.GuardConfig,
	transitions domain.TransitionTable,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Service {
	return &Service{
		reports:     reports,
		profiles:    profiles,
		alerts:      alerts,
		board:       board,
		guard:       guard,
		transitions: transitions,
		logger:      logger,
		metrics:     metrics,
	}
}

// CheckReadiness reports whether the backing store is reachable.
func (s *Service) CheckReadiness(ctx context.Context) error {
	if err := s.reports.Ping(ctx); err != nil {
		s.metrics.StoreReady.Set(0)
		return fmt.Errorf("report store not reachable: %w", err)
	}
	s.metrics.StoreReady.Set(1)
	return nil
}

// Close waits for in-flight alert publishes to finish.
func (s *Service) Close() {
	s.wg.Wait()
}

// SubmitResult is the outcome of an accepted submission: the stored report,
// the guard's advisory verdict, and what the reporter earned.
type SubmitResult struct {
	Report        domain.Report         `json:"report"`
	Duplicate     domain.DuplicateCheck `json:"duplicate"`
	PointsAwarded int                   `json:"pointsAwarded"`
	NewBadges     []domain.Badge        `json:"newBadges,omitempty"`
}

// Submit runs the duplicate guard, stores the new pending report, and credits
// submission points. A verified duplicate nearby rejects the submission with
// domain.ErrDuplicateConflict before anything is written.
func (s *Service) Submit(ctx context.Context, sub domain.Submission) (SubmitResult, error) {
	report, err := domain.NewReport(sub)
	if err != nil {
		return SubmitResult{}, err
	}

	check, err := s.runGuard(ctx, report.HazardType, report.Geo)
	if err != nil {
		return SubmitResult{}, err
	}
	if !check.CanSubmit {
		s.metrics.DuplicateBlocks.Inc()
		return SubmitResult{}, fmt.Errorf("%w: report %s is %.2f km away",
			domain.ErrDuplicateConflict, check.MatchID, check.DistanceKM)
	}
	if check.DuplicateFound {
		s.metrics.DuplicateFlags.Inc()
	}

	if err := s.reports.Insert(ctx, report); err != nil {
		return SubmitResult{}, fmt.Errorf("insert report: %w", err)
	}
	s.metrics.ReportsSubmitted.WithLabelValues(string(report.HazardType)).Inc()
	s.logger.Info("report submitted",
		"report_id", report.ID,
		"hazard_type", report.HazardType,
		"severity", report.Severity,
		"duplicate_found", check.DuplicateFound,
	)

	award, err := s.award(ctx, report.ReportedBy, domain.EventReportSubmitted)
	if err != nil {
		return SubmitResult{}, err
	}

	return SubmitResult{
		Report:        report,
		Duplicate:     check,
		PointsAwarded: award.PointsAwarded,
		NewBadges:     award.NewBadges,
	}, nil
}

// CheckDuplicate runs the guard without submitting, so clients can warn the
// reporter before they finish typing.
func (s *Service) CheckDuplicate(ctx context.Context, hazard domain.HazardType, at domain.Geo) (domain.DuplicateCheck, error) {
	if !hazard.Valid() {
		return domain.DuplicateCheck{}, &domain.ValidationError{Field: "hazardType", Reason: "is not a known hazard category"}
	}
	return s.runGuard(ctx, hazard, at)
}

func (s *Service) runGuard(ctx context.Context, hazard domain.HazardType, at domain.Geo) (domain.DuplicateCheck, error) {
	existing, err := s.reports.List(ctx, Filter{HazardType: string(hazard)})
	if err != nil {
		return domain.DuplicateCheck{}, fmt.Errorf("list reports for guard: %w", err)
	}
	return domain.CheckDuplicate(hazard, at, existing, s.guard), nil
}

// Get returns a single report.
func (s *Service) Get(ctx context.Context, id string) (domain.Report, error) {
	return s.reports.Get(ctx, id)
}

// List returns reports matching the filter in insertion order. "all" in any
// field is treated the same as absence.
func (s *Service) List(ctx context.Context, f Filter) ([]domain.Report, error) {
	return s.reports.List(ctx, normalizeFilter(f))
}

func normalizeFilter(f Filter) Filter {
	if f.HazardType == "all" {
		f.HazardType = ""
	}
	if f.Status == "all" {
		f.Status = ""
	}
	if f.Severity == "all" {
		f.Severity = ""
	}
	return f
}

// UpdateStatus moves a report through the verification state machine.
// Comments overwrite only when non-nil; verifiedBy only when non-empty. A
// change into verified or false-alarm credits the reporter's ledger; merely
// re-confirming the current status does not double-credit.
func (s *Service) UpdateStatus(ctx context.Context, id string, next domain.Status, comments *string, verifiedBy string) (domain.Report, error) {
	unlock := s.locks.lock("report:" + id)

	report, err := s.reports.Get(ctx, id)
	if err != nil {
		unlock()
		return domain.Report{}, err
	}
	prev := report.Status

	report, err = domain.ApplyTransition(report, next, verifiedBy, s.transitions)
	if err != nil {
		unlock()
		return domain.Report{}, err
	}
	if comments != nil {
		report.Comments = *comments
	}

	if err := s.reports.Update(ctx, report); err != nil {
		unlock()
		return domain.Report{}, fmt.Errorf("update report: %w", err)
	}
	unlock()

	s.metrics.StatusTransitions.WithLabelValues(string(next)).Inc()
	s.logger.Info("report status updated",
		"report_id", report.ID,
		"from", prev,
		"to", next,
		"verified_by", report.VerifiedBy,
	)

	if prev != next {
		switch next {
		case domain.StatusVerified:
			_, err = s.award(ctx, report.ReportedBy, domain.EventReportVerified)
		case domain.StatusFalseAlarm:
			_, err = s.award(ctx, report.ReportedBy, domain.EventReportFalseAlarm)
		}
		if err != nil {
			return domain.Report{}, err
		}
	}
	return report, nil
}

// SetComments overwrites the admin annotation on a report.
func (s *Service) SetComments(ctx context.Context, id, comments string) (domain.Report, error) {
	if comments == "" {
		return domain.Report{}, &domain.ValidationError{Field: "comments", Reason: "is required"}
	}

	unlock := s.locks.lock("report:" + id)
	defer unlock()

	report, err := s.reports.Get(ctx, id)
	if err != nil {
		return domain.Report{}, err
	}
	report.Comments = comments
	if err := s.reports.Update(ctx, report); err != nil {
		return domain.Report{}, fmt.Errorf("update report: %w", err)
	}
	return report, nil
}

// IssueAlert authorizes a hazard broadcast for a verified report and hands
// the record to the delivery sink. Delivery is fire-and-forget: a slow or
// failed publish is logged and counted but never fails the authorization.
func (s *Service) IssueAlert(ctx context.Context, id, actor string) (domain.AlertRecord, error) {
	report, err := s.reports.Get(ctx, id)
	if err != nil {
		return domain.AlertRecord{}, err
	}

	rec, err := domain.NewAlert(report, actor)
	if err != nil {
		return domain.AlertRecord{}, err
	}

	s.metrics.AlertsIssued.Inc()
	s.logger.Info("alert authorized",
		"alert_id", rec.ID,
		"report_id", rec.ReportID,
		"severity", rec.Severity,
		"actor", actor,
	)

	if s.alerts != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			pubCtx, cancel := context.WithTimeout(context.Background(), alertPublishTimeout)
			defer cancel()
			if err := s.alerts.Publish(pubCtx, rec); err != nil {
				s.metrics.AlertPublishErrors.Inc()
				s.logger.Error("alert publish failed", "alert_id", rec.ID, "error", err)
			}
		}()
	}
	return rec, nil
}

// ProfileView is a reporter's profile with its derived level progress and
// full badge definitions resolved.
type ProfileView struct {
	Profile  domain.Profile       `json:"profile"`
	Progress domain.LevelProgress `json:"progress"`
	Badges   []domain.Badge       `json:"badges"`
}

// Profile returns a reporter's gamification profile. Unknown users get a
// zero-value profile rather than an error: a citizen who has never reported
// simply has no points yet.
func (s *Service) Profile(ctx context.Context, userID string) (ProfileView, error) {
	p, err := s.profiles.Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		p = domain.Profile{UserID: userID}
	} else if err != nil {
		return ProfileView{}, fmt.Errorf("load profile: %w", err)
	}

	badges := make([]domain.Badge, 0, len(p.Badges))
	for _, id := range p.Badges {
		if b, ok := domain.BadgeByID(id); ok {
			badges = append(badges, b)
		}
	}
	return ProfileView{Profile: p, Progress: domain.ProgressFor(p.Points), Badges: badges}, nil
}

// Leaderboard returns the top reporters by points.
func (s *Service) Leaderboard(ctx context.Context, n int) ([]domain.LeaderboardEntry, error) {
	if n <= 0 {
		n = 10
	}
	return s.board.Top(ctx, n)
}

// Stats are the aggregate counts for the admin dashboard.
type Stats struct {
	Total        int            `json:"total"`
	Pending      int            `json:"pending"`
	Verified     int            `json:"verified"`
	FalseAlarm   int            `json:"falseAlarm"`
	HighSeverity int            `json:"highSeverity"`
	ByHazardType map[string]int `json:"byHazardType"`
}

// Stats scans the store and aggregates counts per status, severity, and
// hazard type.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	reports, err := s.reports.List(ctx, Filter{})
	if err != nil {
		return Stats{}, fmt.Errorf("list reports: %w", err)
	}

	stats := Stats{ByHazardType: make(map[string]int)}
	for _, r := range reports {
		stats.Total++
		switch r.Status {
		case domain.StatusPending:
			stats.Pending++
		case domain.StatusVerified:
			stats.Verified++
		case domain.StatusFalseAlarm:
			stats.FalseAlarm++
		}
		if r.Severity == domain.SeverityHigh {
			stats.HighSeverity++
		}
		stats.ByHazardType[string(r.HazardType)]++
	}
	return stats, nil
}

// award applies one reward event under the user's ledger lock, persists the
// profile, and mirrors the new total to the leaderboard.
func (s *Service) award(ctx context.Context, userID string, ev domain.RewardEvent) (domain.AwardResult, error) {
	unlock := s.locks.lock("user:" + userID)

	profile, err := s.profiles.Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		profile = domain.Profile{UserID: userID}
	} else if err != nil {
		unlock()
		return domain.AwardResult{}, fmt.Errorf("load profile: %w", err)
	}

	res, err := domain.ApplyEvent(profile, ev)
	if err != nil {
		unlock()
		return domain.AwardResult{}, err
	}
	if err := s.profiles.Save(ctx, res.Profile); err != nil {
		unlock()
		return domain.AwardResult{}, fmt.Errorf("save profile: %w", err)
	}
	unlock()

	if res.PointsAwarded > 0 {
		s.metrics.PointsAwarded.Add(float64(res.PointsAwarded))
	}
	for _, b := range res.NewBadges {
		s.metrics.BadgesGranted.WithLabelValues(string(b.ID)).Inc()
		s.logger.Info("badge granted", "user_id", userID, "badge", b.ID, "bonus", b.Bonus)
	}

	if s.board != nil {
		if err := s.board.Record(ctx, userID, res.Profile.Points); err != nil {
			s.logger.Warn("leaderboard update failed", "user_id", userID, "error", err)
		}
	}
	return res, nil
}

// keyedMutex hands out one mutex per key so unrelated entities never contend.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// lock acquires the mutex for key and returns its unlock function.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
