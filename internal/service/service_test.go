package service_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanwatch/hazard-report-service/internal/adapter/memory"
	"github.com/oceanwatch/hazard-report-service/internal/domain"
	"github.com/oceanwatch/hazard-report-service/internal/observability"
	"github.com/oceanwatch/hazard-report-service/internal/service"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// capturingSink records published alerts for assertions.
type capturingSink struct {
	mu      sync.Mutex
	records []domain.AlertRecord
}

func (c *capturingSink) Publish(_ context.Context, rec domain.AlertRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, rec)
	return nil
}

func (c *capturingSink) all() []domain.AlertRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.AlertRecord(nil), c.records...)
}

type fixture struct {
	svc   *service.Service
	sink  *capturingSink
	clock *clockwork.FakeClock
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	fake := clockwork.NewFakeClockAt(testNow)
	domain.SetClock(fake)
	t.Cleanup(func() { domain.SetClock(nil) })

	store := memory.NewStore()
	sink := &capturingSink{}
	svc := service.New(
		store,
		store.Profiles(),
		sink,
		memory.NewLeaderboard(),
		domain.DefaultGuardConfig(),
		domain.DefaultTransitions(),
		slog.New(slog.DiscardHandler),
		observability.NewMetricsForTesting(),
	)
	t.Cleanup(svc.Close)
	return fixture{svc: svc, sink: sink, clock: fake}
}

func submission(hazard domain.HazardType, geo domain.Geo, reporter string) domain.Submission {
	return domain.Submission{
		HazardType:  hazard,
		Location:    "Marina Beach",
		Description: "Hazard observed near the shore",
		Geo:         &geo,
		ReportedBy:  reporter,
	}
}

var (
	marinaBeach = domain.Geo{Lat: 13.08, Lon: 80.27}
	nearbyPoint = domain.Geo{Lat: 13.085, Lon: 80.271}
)

func TestSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("stores pending report and credits reporter", func(t *testing.T) {
		f := newFixture(t)

		res, err := f.svc.Submit(ctx, submission(domain.HazardOilSpill, marinaBeach, "citizen-1"))

		require.NoError(t, err)
		assert.Equal(t, domain.StatusPending, res.Report.Status)
		assert.False(t, res.Duplicate.DuplicateFound)
		assert.Equal(t, 35, res.PointsAwarded) // +25 submission, +10 first badge
		require.Len(t, res.NewBadges, 1)

		stored, err := f.svc.Get(ctx, res.Report.ID)
		require.NoError(t, err)
		assert.Equal(t, res.Report, stored)

		view, err := f.svc.Profile(ctx, "citizen-1")
		require.NoError(t, err)
		assert.Equal(t, 35, view.Profile.Points)
		assert.Equal(t, 1, view.Profile.TotalReports)
	})

	t.Run("invalid submission rejected", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Submit(ctx, domain.Submission{HazardType: domain.HazardStorm})

		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("verified duplicate nearby blocks", func(t *testing.T) {
		f := newFixture(t)
		first, err := f.svc.Submit(ctx, submission(domain.HazardOilSpill, marinaBeach, "citizen-1"))
		require.NoError(t, err)
		_, err = f.svc.UpdateStatus(ctx, first.Report.ID, domain.StatusVerified, nil, "Admin")
		require.NoError(t, err)

		_, err = f.svc.Submit(ctx, submission(domain.HazardOilSpill, nearbyPoint, "citizen-2"))

		require.ErrorIs(t, err, domain.ErrDuplicateConflict)

		// Nothing was stored and the second citizen earned nothing.
		reports, err := f.svc.List(ctx, service.Filter{})
		require.NoError(t, err)
		assert.Len(t, reports, 1)
		view, err := f.svc.Profile(ctx, "citizen-2")
		require.NoError(t, err)
		assert.Zero(t, view.Profile.Points)
	})

	t.Run("pending duplicate nearby flags but accepts", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Submit(ctx, submission(domain.HazardOilSpill, marinaBeach, "citizen-1"))
		require.NoError(t, err)

		res, err := f.svc.Submit(ctx, submission(domain.HazardOilSpill, nearbyPoint, "citizen-2"))

		require.NoError(t, err)
		assert.True(t, res.Duplicate.DuplicateFound)
		assert.True(t, res.Duplicate.CanSubmit)
	})
}

func TestCheckDuplicate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Submit(ctx, submission(domain.HazardJellyfish, marinaBeach, "citizen-1"))
	require.NoError(t, err)

	check, err := f.svc.CheckDuplicate(ctx, domain.HazardJellyfish, nearbyPoint)
	require.NoError(t, err)
	assert.True(t, check.DuplicateFound)
	assert.True(t, check.CanSubmit)

	_, err = f.svc.CheckDuplicate(ctx, domain.HazardType("lava"), nearbyPoint)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("verification credits reporter once", func(t *testing.T) {
		f := newFixture(t)
		res, err := f.svc.Submit(ctx, submission(domain.HazardStorm, marinaBeach, "citizen-1"))
		require.NoError(t, err)
		comments := "confirmed by coast guard"

		updated, err := f.svc.UpdateStatus(ctx, res.Report.ID, domain.StatusVerified, &comments, "Admin")

		require.NoError(t, err)
		assert.Equal(t, domain.StatusVerified, updated.Status)
		assert.Equal(t, "confirmed by coast guard", updated.Comments)
		assert.Equal(t, "Admin", updated.VerifiedBy)
		require.NotNil(t, updated.VerifiedAt)

		view, err := f.svc.Profile(ctx, "citizen-1")
		require.NoError(t, err)
		assert.Equal(t, 35+75, view.Profile.Points)
		assert.Equal(t, 1, view.Profile.VerifiedReports)

		// Re-confirming must not double-credit.
		_, err = f.svc.UpdateStatus(ctx, res.Report.ID, domain.StatusVerified, nil, "Admin")
		require.NoError(t, err)
		view, err = f.svc.Profile(ctx, "citizen-1")
		require.NoError(t, err)
		assert.Equal(t, 35+75, view.Profile.Points)
		assert.Equal(t, 1, view.Profile.VerifiedReports)
	})

	t.Run("false alarm deducts", func(t *testing.T) {
		f := newFixture(t)
		res, err := f.svc.Submit(ctx, submission(domain.HazardStorm, marinaBeach, "citizen-1"))
		require.NoError(t, err)

		_, err = f.svc.UpdateStatus(ctx, res.Report.ID, domain.StatusFalseAlarm, nil, "Admin")
		require.NoError(t, err)

		view, err := f.svc.Profile(ctx, "citizen-1")
		require.NoError(t, err)
		assert.Equal(t, 25, view.Profile.Points) // 35 - 10
	})

	t.Run("nil comments retains previous value", func(t *testing.T) {
		f := newFixture(t)
		res, err := f.svc.Submit(ctx, submission(domain.HazardStorm, marinaBeach, "citizen-1"))
		require.NoError(t, err)
		comments := "note"
		_, err = f.svc.UpdateStatus(ctx, res.Report.ID, domain.StatusVerified, &comments, "Admin")
		require.NoError(t, err)

		updated, err := f.svc.UpdateStatus(ctx, res.Report.ID, domain.StatusPending, nil, "")
		require.NoError(t, err)
		assert.Equal(t, "note", updated.Comments)
		assert.Equal(t, "Admin", updated.VerifiedBy)
	})

	t.Run("invalid status leaves report unchanged", func(t *testing.T) {
		f := newFixture(t)
		res, err := f.svc.Submit(ctx, submission(domain.HazardStorm, marinaBeach, "citizen-1"))
		require.NoError(t, err)

		_, err = f.svc.UpdateStatus(ctx, res.Report.ID, domain.Status("closed"), nil, "Admin")
		require.ErrorIs(t, err, domain.ErrInvalidStatus)

		got, err := f.svc.Get(ctx, res.Report.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPending, got.Status)
		assert.Nil(t, got.VerifiedAt)
	})

	t.Run("unknown report", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.UpdateStatus(ctx, "missing", domain.StatusVerified, nil, "Admin")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestIssueAlert(t *testing.T) {
	ctx := context.Background()

	t.Run("verified report publishes record", func(t *testing.T) {
		f := newFixture(t)
		res, err := f.svc.Submit(ctx, submission(domain.HazardHighTide, marinaBeach, "citizen-1"))
		require.NoError(t, err)
		_, err = f.svc.UpdateStatus(ctx, res.Report.ID, domain.StatusVerified, nil, "Admin")
		require.NoError(t, err)

		rec, err := f.svc.IssueAlert(ctx, res.Report.ID, "Admin")

		require.NoError(t, err)
		assert.Equal(t, res.Report.ID, rec.ReportID)
		assert.Equal(t, "Admin", rec.Actor)

		f.svc.Close() // drain the async publish
		records := f.sink.all()
		require.Len(t, records, 1)
		assert.Equal(t, rec, records[0])

		// Alerting does not touch the report.
		got, err := f.svc.Get(ctx, res.Report.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusVerified, got.Status)
	})

	t.Run("pending report ineligible", func(t *testing.T) {
		f := newFixture(t)
		res, err := f.svc.Submit(ctx, submission(domain.HazardHighTide, marinaBeach, "citizen-1"))
		require.NoError(t, err)

		_, err = f.svc.IssueAlert(ctx, res.Report.ID, "Admin")
		require.ErrorIs(t, err, domain.ErrIneligible)
		assert.Empty(t, f.sink.all())
	})

	t.Run("unknown report", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.IssueAlert(ctx, "missing", "Admin")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestSetComments(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	res, err := f.svc.Submit(ctx, submission(domain.HazardPollution, marinaBeach, "citizen-1"))
	require.NoError(t, err)

	updated, err := f.svc.SetComments(ctx, res.Report.ID, "needs follow-up")
	require.NoError(t, err)
	assert.Equal(t, "needs follow-up", updated.Comments)

	_, err = f.svc.SetComments(ctx, res.Report.ID, "")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = f.svc.SetComments(ctx, "missing", "note")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	spots := []domain.Geo{
		{Lat: 13.08, Lon: 80.27},
		{Lat: 13.30, Lon: 80.40},
		{Lat: 12.80, Lon: 80.10},
	}
	var ids []string
	for i, hazard := range []domain.HazardType{domain.HazardOilSpill, domain.HazardOilSpill, domain.HazardStorm} {
		sub := submission(hazard, spots[i], "citizen-1")
		if i == 2 {
			sub.Severity = domain.SeverityHigh
		}
		res, err := f.svc.Submit(ctx, sub)
		require.NoError(t, err)
		ids = append(ids, res.Report.ID)
	}
	_, err := f.svc.UpdateStatus(ctx, ids[0], domain.StatusVerified, nil, "Admin")
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, ids[1], domain.StatusFalseAlarm, nil, "Admin")
	require.NoError(t, err)

	stats, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 1, stats.Verified)
	assert.Equal(t, 1, stats.FalseAlarm)
	assert.Equal(t, 1, stats.HighSeverity)
	assert.Equal(t, map[string]int{"oil-spill": 2, "storm": 1}, stats.ByHazardType)
}

func TestLeaderboard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	spots := map[string]domain.Geo{
		"alice": {Lat: 13.08, Lon: 80.27},
		"bob":   {Lat: 13.30, Lon: 80.40},
	}
	aliceRes, err := f.svc.Submit(ctx, submission(domain.HazardStorm, spots["alice"], "alice"))
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, submission(domain.HazardStorm, spots["bob"], "bob"))
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, aliceRes.Report.ID, domain.StatusVerified, nil, "Admin")
	require.NoError(t, err)

	top, err := f.svc.Leaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "alice", top[0].UserID)
	assert.Equal(t, 110, top[0].Points)
	assert.Equal(t, "bob", top[1].UserID)
}

func TestConcurrentAwardsSerialize(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// Distinct far-apart spots so the guard never interferes.
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			geo := domain.Geo{Lat: 10 + float64(i), Lon: 70 + float64(i)}
			_, err := f.svc.Submit(ctx, submission(domain.HazardOther, geo, "citizen-1"))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	view, err := f.svc.Profile(ctx, "citizen-1")
	require.NoError(t, err)
	assert.Equal(t, 20, view.Profile.TotalReports)
	// 20 submissions + first-report bonus; all on the same frozen day.
	assert.Equal(t, 20*25+10, view.Profile.Points)
}
