package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAlert(t *testing.T) {
	t.Run("verified report produces record", func(t *testing.T) {
		fake := freezeClock(t, testNow)
		r := pendingReport(t)
		r.Geo = marinaBeach
		r, err := ApplyTransition(r, StatusVerified, "Admin", DefaultTransitions())
		require.NoError(t, err)
		fake.Advance(10 * time.Minute)

		rec, err := NewAlert(r, "Admin")

		require.NoError(t, err)
		assert.NotEmpty(t, rec.ID)
		assert.Equal(t, r.ID, rec.ReportID)
		assert.Equal(t, "High Tide Alert: Besant Nagar", rec.Title)
		assert.Equal(t, r.HazardType, rec.HazardType)
		assert.Equal(t, r.Severity, rec.Severity)
		assert.Equal(t, marinaBeach, rec.Geo)
		assert.Equal(t, "Admin", rec.Actor)
		assert.True(t, !rec.SentAt.Before(*r.VerifiedAt))
	})

	t.Run("pending report ineligible", func(t *testing.T) {
		freezeClock(t, testNow)
		r := pendingReport(t)

		_, err := NewAlert(r, "Admin")

		require.ErrorIs(t, err, ErrIneligible)
	})

	t.Run("false alarm ineligible", func(t *testing.T) {
		freezeClock(t, testNow)
		r := pendingReport(t)
		r, err := ApplyTransition(r, StatusFalseAlarm, "Admin", DefaultTransitions())
		require.NoError(t, err)

		_, err = NewAlert(r, "Admin")

		require.ErrorIs(t, err, ErrIneligible)
	})
}
