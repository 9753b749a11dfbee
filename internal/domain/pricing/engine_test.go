//go:build unit

package pricing_test

import (
	"testing"
	"time"

	"bookhive/internal/domain/pricing"

	"github.com/stretchr/testify/assert"
)

// 2026-01-05 is a Monday, 2026-01-04 a Sunday.
func monday(h, m int) time.Time {
	return time.Date(2026, 1, 5, h, m, 0, 0, time.UTC)
}

func sunday(h, m int) time.Time {
	return time.Date(2026, 1, 4, h, m, 0, 0, time.UTC)
}

func TestQuote(t *testing.T) {
	engine := pricing.NewEngine()

	cases := []struct {
		name     string
		in       pricing.QuoteInput
		expected int64
	}{
		{
			// $50/h, Monday 10:00-12:00, no demand, no loyalty: 50*2*1.3 = $130.00
			name: "weekday peak window",
			in: pricing.QuoteInput{
				HourlyRateCents: 5000,
				Start:           monday(10, 0),
				End:             monday(12, 0),
			},
			expected: 13000,
		},
		{
			name: "off-peak weekday evening",
			in: pricing.QuoteInput{
				HourlyRateCents: 5000,
				Start:           monday(19, 0),
				End:             monday(21, 0),
			},
			expected: 10000,
		},
		{
			name: "weekend morning is never peak",
			in: pricing.QuoteInput{
				HourlyRateCents: 5000,
				Start:           sunday(10, 0),
				End:             sunday(12, 0),
			},
			expected: 10000,
		},
		{
			name: "peak boundary start 09:00",
			in: pricing.QuoteInput{
				HourlyRateCents: 5000,
				Start:           monday(9, 0),
				End:             monday(10, 0),
			},
			expected: 6500,
		},
		{
			name: "peak boundary start 17:00",
			in: pricing.QuoteInput{
				HourlyRateCents: 5000,
				Start:           monday(17, 0),
				End:             monday(18, 0),
			},
			expected: 6500,
		},
		{
			name: "just past peak start 17:01",
			in: pricing.QuoteInput{
				HourlyRateCents: 5000,
				Start:           monday(17, 1),
				End:             monday(18, 1),
			},
			expected: 5000,
		},
		{
			name: "fractional hours",
			in: pricing.QuoteInput{
				HourlyRateCents: 5000,
				Start:           monday(19, 0),
				End:             monday(20, 30),
			},
			expected: 7500,
		},
		{
			name: "mid demand tier",
			in: pricing.QuoteInput{
				HourlyRateCents:      5000,
				Start:                monday(19, 0),
				End:                  monday(20, 0),
				NearbyActiveBookings: 6,
			},
			expected: 6000,
		},
		{
			name: "high demand tier wins over mid",
			in: pricing.QuoteInput{
				HourlyRateCents:      5000,
				Start:                monday(19, 0),
				End:                  monday(20, 0),
				NearbyActiveBookings: 11,
			},
			expected: 7500,
		},
		{
			name: "demand tier boundary not exceeded",
			in: pricing.QuoteInput{
				HourlyRateCents:      5000,
				Start:                monday(19, 0),
				End:                  monday(20, 0),
				NearbyActiveBookings: 5,
			},
			expected: 5000,
		},
		{
			name: "peak and demand stack",
			in: pricing.QuoteInput{
				HourlyRateCents:      5000,
				Start:                monday(10, 0),
				End:                  monday(11, 0),
				NearbyActiveBookings: 11,
			},
			expected: 9750, // 5000 * 1.3 * 1.5
		},
		{
			name: "bronze loyalty",
			in: pricing.QuoteInput{
				HourlyRateCents:   5000,
				Start:             monday(19, 0),
				End:               monday(20, 0),
				CompletedBookings: 6,
			},
			expected: 4750,
		},
		{
			name: "silver loyalty",
			in: pricing.QuoteInput{
				HourlyRateCents:   5000,
				Start:             monday(19, 0),
				End:               monday(20, 0),
				CompletedBookings: 21,
			},
			expected: 4500,
		},
		{
			name: "gold loyalty",
			in: pricing.QuoteInput{
				HourlyRateCents:   5000,
				Start:             monday(19, 0),
				End:               monday(20, 0),
				CompletedBookings: 51,
			},
			expected: 4250,
		},
		{
			name: "loyalty boundary not exceeded",
			in: pricing.QuoteInput{
				HourlyRateCents:   5000,
				Start:             monday(19, 0),
				End:               monday(20, 0),
				CompletedBookings: 5,
			},
			expected: 5000,
		},
		{
			name: "round half up",
			in: pricing.QuoteInput{
				// 823 * 1.5h = 1234.5 -> 1235
				HourlyRateCents: 823,
				Start:           monday(19, 0),
				End:             monday(20, 30),
			},
			expected: 1235,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.expected, engine.Quote(c.in))
		})
	}
}

func TestQuoteIsDeterministic(t *testing.T) {
	engine := pricing.NewEngine()
	in := pricing.QuoteInput{
		HourlyRateCents:      7700,
		Start:                monday(9, 30),
		End:                  monday(12, 45),
		NearbyActiveBookings: 7,
		CompletedBookings:    23,
	}

	first := engine.Quote(in)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, engine.Quote(in))
	}
}
