package pricing

import (
	"math"
	"time"
)

// Multiplier tiers. Demand tiers are mutually exclusive; only the highest
// matching one applies.
const (
	peakMultiplier       = 1.3
	highDemandMultiplier = 1.5
	midDemandMultiplier  = 1.2

	highDemandThreshold = 10
	midDemandThreshold  = 5
)

// Loyalty discount tiers keyed by completed-booking count.
const (
	goldLoyaltyThreshold   = 50
	silverLoyaltyThreshold = 20
	bronzeLoyaltyThreshold = 5

	goldLoyaltyDiscount   = 0.15
	silverLoyaltyDiscount = 0.10
	bronzeLoyaltyDiscount = 0.05
)

const (
	peakStartMinute = 9 * 60
	peakEndMinute   = 17 * 60
)

// DemandWindow widens a requested period on both sides when counting nearby
// active bookings for the demand multiplier.
const DemandWindow = 2 * time.Hour

// QuoteInput carries everything a quote depends on. Counts are gathered by
// the caller so the engine itself stays a pure function of its input.
type QuoteInput struct {
	HourlyRateCents int64
	Start           time.Time
	End             time.Time

	// NearbyActiveBookings is the number of pending/confirmed bookings for
	// the same resource starting within two hours of Start.
	NearbyActiveBookings int

	// CompletedBookings is the requester's historical completed count.
	CompletedBookings int
}

type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Quote returns the price in cents, rounded half-up.
func (e *Engine) Quote(in QuoteInput) int64 {
	hours := in.End.Sub(in.Start).Hours()
	amount := float64(in.HourlyRateCents) * hours

	amount *= demandOrPeakMultiplier(in)
	amount *= 1 - loyaltyDiscount(in.CompletedBookings)

	return int64(math.Floor(amount + 0.5))
}

func demandOrPeakMultiplier(in QuoteInput) float64 {
	multiplier := 1.0
	if isPeak(in.Start) {
		multiplier *= peakMultiplier
	}
	switch {
	case in.NearbyActiveBookings > highDemandThreshold:
		multiplier *= highDemandMultiplier
	case in.NearbyActiveBookings > midDemandThreshold:
		multiplier *= midDemandMultiplier
	}
	return multiplier
}

// isPeak: weekday and the window starts within 09:00-17:00.
func isPeak(start time.Time) bool {
	switch start.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	minute := start.Hour()*60 + start.Minute()
	return minute >= peakStartMinute && minute <= peakEndMinute
}

func loyaltyDiscount(completed int) float64 {
	switch {
	case completed > goldLoyaltyThreshold:
		return goldLoyaltyDiscount
	case completed > silverLoyaltyThreshold:
		return silverLoyaltyDiscount
	case completed > bronzeLoyaltyThreshold:
		return bronzeLoyaltyDiscount
	default:
		return 0
	}
}
