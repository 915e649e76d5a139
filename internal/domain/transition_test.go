package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingReport(t *testing.T) Report {
	t.Helper()
	r, err := NewReport(Submission{
		HazardType:  HazardHighTide,
		Location:    "Besant Nagar",
		Description: "Water crossing the promenade",
		ReportedBy:  "citizen-5",
	})
	require.NoError(t, err)
	return r
}

func TestApplyTransition(t *testing.T) {
	table := DefaultTransitions()

	t.Run("pending to verified stamps decision", func(t *testing.T) {
		fake := freezeClock(t, testNow)
		r := pendingReport(t)
		fake.Advance(45 * time.Minute)

		got, err := ApplyTransition(r, StatusVerified, "Admin", table)

		require.NoError(t, err)
		assert.Equal(t, StatusVerified, got.Status)
		require.NotNil(t, got.VerifiedAt)
		assert.Equal(t, testNow.Add(45*time.Minute), *got.VerifiedAt)
		assert.True(t, !got.VerifiedAt.Before(got.ReportedAt))
		assert.Equal(t, "Admin", got.VerifiedBy)
	})

	t.Run("pending to false-alarm stamps decision", func(t *testing.T) {
		freezeClock(t, testNow)
		r := pendingReport(t)

		got, err := ApplyTransition(r, StatusFalseAlarm, "Moderator", table)

		require.NoError(t, err)
		assert.Equal(t, StatusFalseAlarm, got.Status)
		require.NotNil(t, got.VerifiedAt)
		assert.Equal(t, "Moderator", got.VerifiedBy)
	})

	t.Run("missing actor retains previous verifier", func(t *testing.T) {
		freezeClock(t, testNow)
		r := pendingReport(t)
		r, err := ApplyTransition(r, StatusVerified, "Admin", table)
		require.NoError(t, err)

		got, err := ApplyTransition(r, StatusFalseAlarm, "", table)

		require.NoError(t, err)
		assert.Equal(t, "Admin", got.VerifiedBy)
	})

	t.Run("back to pending retains decision fields", func(t *testing.T) {
		fake := freezeClock(t, testNow)
		r := pendingReport(t)
		r, err := ApplyTransition(r, StatusVerified, "Admin", table)
		require.NoError(t, err)
		stamped := *r.VerifiedAt
		fake.Advance(time.Hour)

		got, err := ApplyTransition(r, StatusPending, "", table)

		require.NoError(t, err)
		assert.Equal(t, StatusPending, got.Status)
		require.NotNil(t, got.VerifiedAt)
		assert.Equal(t, stamped, *got.VerifiedAt)
		assert.Equal(t, "Admin", got.VerifiedBy)
	})

	t.Run("re-confirming verified refreshes timestamp", func(t *testing.T) {
		fake := freezeClock(t, testNow)
		r := pendingReport(t)
		r, err := ApplyTransition(r, StatusVerified, "Admin", table)
		require.NoError(t, err)
		fake.Advance(2 * time.Hour)

		got, err := ApplyTransition(r, StatusVerified, "Second Admin", table)

		require.NoError(t, err)
		require.NotNil(t, got.VerifiedAt)
		assert.Equal(t, testNow.Add(2*time.Hour), *got.VerifiedAt)
		assert.Equal(t, "Second Admin", got.VerifiedBy)
	})

	t.Run("invalid status rejected and report unchanged", func(t *testing.T) {
		freezeClock(t, testNow)
		r := pendingReport(t)

		got, err := ApplyTransition(r, Status("closed"), "Admin", table)

		require.ErrorIs(t, err, ErrInvalidStatus)
		assert.Equal(t, r, got)
	})

	t.Run("restricted table forbids reopening", func(t *testing.T) {
		freezeClock(t, testNow)
		restricted := TransitionTable{
			StatusPending:  {StatusVerified, StatusFalseAlarm},
			StatusVerified: {StatusFalseAlarm},
		}
		r := pendingReport(t)
		r, err := ApplyTransition(r, StatusVerified, "Admin", restricted)
		require.NoError(t, err)

		_, err = ApplyTransition(r, StatusPending, "", restricted)

		require.ErrorIs(t, err, ErrTransitionNotAllowed)
	})
}

func TestDefaultTransitionsAnyToAny(t *testing.T) {
	table := DefaultTransitions()
	statuses := []Status{StatusPending, StatusVerified, StatusFalseAlarm}
	for _, from := range statuses {
		for _, to := range statuses {
			assert.True(t, table.Allowed(from, to), "%s -> %s", from, to)
		}
	}
	assert.False(t, table.Allowed(StatusPending, Status("closed")))
}
