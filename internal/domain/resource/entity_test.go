//go:build unit

package resource_test

import (
	"testing"
	"time"

	"bookhive/internal/domain/resource"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRule(t *testing.T, weekday time.Weekday, start, end string) resource.AvailabilityRule {
	t.Helper()
	rule, err := resource.NewAvailabilityRule(weekday, start, end, true)
	require.NoError(t, err)
	return rule
}

func newTestResource(t *testing.T, rules ...resource.AvailabilityRule) *resource.Resource {
	t.Helper()
	res, err := resource.NewResource(
		uuid.New(),
		"Conference Room A",
		10,
		5000,
		30*time.Minute,
		4*time.Hour,
		time.Hour,
		rules,
	)
	require.NoError(t, err)
	return res
}

func TestNewResource(t *testing.T) {
	cases := []struct {
		name     string
		resName  string
		capacity int
		rate     int64
		minDur   time.Duration
		maxDur   time.Duration
		lead     time.Duration
		errIs    error
	}{
		{name: "valid", resName: "Room", capacity: 1, rate: 100, minDur: time.Hour, maxDur: 2 * time.Hour, lead: 0},
		{name: "empty name", resName: "  ", capacity: 1, rate: 100, minDur: time.Hour, maxDur: 2 * time.Hour, errIs: resource.ErrEmptyResourceName},
		{name: "zero capacity", resName: "Room", capacity: 0, rate: 100, minDur: time.Hour, maxDur: 2 * time.Hour, errIs: resource.ErrInvalidCapacity},
		{name: "negative rate", resName: "Room", capacity: 1, rate: -1, minDur: time.Hour, maxDur: 2 * time.Hour, errIs: resource.ErrNegativeRate},
		{name: "max below min", resName: "Room", capacity: 1, rate: 100, minDur: 2 * time.Hour, maxDur: time.Hour, errIs: resource.ErrInvalidDuration},
		{name: "negative lead time", resName: "Room", capacity: 1, rate: 100, minDur: time.Hour, maxDur: 2 * time.Hour, lead: -time.Minute, errIs: resource.ErrNegativeLeadTime},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := resource.NewResource(uuid.New(), c.resName, c.capacity, c.rate, c.minDur, c.maxDur, c.lead, nil)
			if c.errIs == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, c.errIs)
			}
		})
	}
}

func TestAvailabilityRuleCovers(t *testing.T) {
	rule := mustRule(t, time.Monday, "09:00", "18:00")

	// 2026-01-05 is a Monday.
	monday := func(h, m int) time.Time {
		return time.Date(2026, 1, 5, h, m, 0, 0, time.UTC)
	}

	cases := []struct {
		name    string
		start   time.Time
		end     time.Time
		covered bool
	}{
		{name: "fully inside", start: monday(10, 0), end: monday(12, 0), covered: true},
		{name: "exact window", start: monday(9, 0), end: monday(18, 0), covered: true},
		{name: "starts before open", start: monday(8, 30), end: monday(10, 0), covered: false},
		{name: "ends after close", start: monday(17, 0), end: monday(19, 0), covered: false},
		{name: "wrong weekday", start: monday(10, 0).AddDate(0, 0, 1), end: monday(12, 0).AddDate(0, 0, 1), covered: false},
		{name: "spans midnight", start: monday(23, 0), end: monday(1, 0).AddDate(0, 0, 1), covered: false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.covered, rule.Covers(c.start, c.end))
		})
	}

	t.Run("unavailable rule never covers", func(t *testing.T) {
		closed, err := resource.NewAvailabilityRule(time.Monday, "09:00", "18:00", false)
		require.NoError(t, err)
		assert.False(t, closed.Covers(monday(10, 0), monday(12, 0)))
	})

	t.Run("midnight end counts as end of day", func(t *testing.T) {
		allDay := mustRule(t, time.Monday, "00:00", "00:00")
		assert.Equal(t, 24*60, allDay.EndMinute())
		assert.True(t, allDay.Covers(monday(22, 0), monday(0, 0).AddDate(0, 0, 1)))
	})
}

func TestResourceGuards(t *testing.T) {
	res := newTestResource(t, mustRule(t, time.Monday, "09:00", "18:00"))

	t.Run("duration bounds", func(t *testing.T) {
		assert.True(t, res.WithinDurationBounds(time.Hour))
		assert.False(t, res.WithinDurationBounds(10*time.Minute))
		assert.False(t, res.WithinDurationBounds(5*time.Hour))
	})

	t.Run("lead time", func(t *testing.T) {
		now := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
		assert.True(t, res.MeetsLeadTime(now, now.Add(2*time.Hour)))
		assert.False(t, res.MeetsLeadTime(now, now.Add(30*time.Minute)))
	})

	t.Run("open window lookup", func(t *testing.T) {
		start := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
		_, ok := res.OpenWindowFor(start, start.Add(time.Hour))
		assert.True(t, ok)

		sunday := time.Date(2026, 1, 4, 10, 0, 0, 0, time.UTC)
		_, ok = res.OpenWindowFor(sunday, sunday.Add(time.Hour))
		assert.False(t, ok)
	})
}

func TestNewAvailabilityRuleValidation(t *testing.T) {
	_, err := resource.NewAvailabilityRule(time.Monday, "9am", "18:00", true)
	require.ErrorIs(t, err, resource.ErrMalformedRuleTime)

	_, err = resource.NewAvailabilityRule(time.Monday, "18:00", "09:00", true)
	require.ErrorIs(t, err, resource.ErrInvalidRuleWindow)
}
