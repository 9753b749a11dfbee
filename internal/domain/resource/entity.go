package resource

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyResourceName  = errors.New("resource name cannot be empty")
	ErrNegativeRate       = errors.New("hourly rate cannot be negative")
	ErrInvalidCapacity    = errors.New("capacity must be positive")
	ErrInvalidDuration    = errors.New("duration bounds are invalid")
	ErrInvalidRuleWindow  = errors.New("rule window is invalid")
	ErrMalformedRuleTime  = errors.New("rule time must be HH:MM")
	ErrNegativeLeadTime   = errors.New("lead time cannot be negative")
	ErrResourceNameLength = errors.New("resource name is too long (max 255 characters)")
)

const (
	MaxResourceNameLength = 255
	minutesPerDay         = 24 * 60
)

// AvailabilityRule marks a weekday window during which a resource is open.
// Windows are half-open [start, end) in minutes from midnight.
type AvailabilityRule struct {
	weekday   time.Weekday
	startMin  int
	endMin    int
	available bool
}

func NewAvailabilityRule(weekday time.Weekday, start, end string, available bool) (AvailabilityRule, error) {
	startMin, err := parseClock(start)
	if err != nil {
		return AvailabilityRule{}, err
	}
	endMin, err := parseClock(end)
	if err != nil {
		return AvailabilityRule{}, err
	}
	if endMin == 0 {
		endMin = minutesPerDay
	}
	if startMin >= endMin {
		return AvailabilityRule{}, ErrInvalidRuleWindow
	}
	return AvailabilityRule{
		weekday:   weekday,
		startMin:  startMin,
		endMin:    endMin,
		available: available,
	}, nil
}

func ReconstructAvailabilityRule(weekday time.Weekday, startMin, endMin int, available bool) AvailabilityRule {
	return AvailabilityRule{weekday: weekday, startMin: startMin, endMin: endMin, available: available}
}

func (r AvailabilityRule) Weekday() time.Weekday { return r.weekday }
func (r AvailabilityRule) StartMinute() int      { return r.startMin }
func (r AvailabilityRule) EndMinute() int        { return r.endMin }
func (r AvailabilityRule) Available() bool       { return r.available }

// Covers reports whether [start, end) lies fully inside this rule's window.
// Both instants must fall on the rule's weekday; an end at midnight counts
// as the end of the same day.
func (r AvailabilityRule) Covers(start, end time.Time) bool {
	if !r.available || start.Weekday() != r.weekday {
		return false
	}
	startMin := minuteOfDay(start)
	endMin := minuteOfDay(end)
	if endMin == 0 && sameDay(start, end.Add(-time.Minute)) {
		endMin = minutesPerDay
	} else if !sameDay(start, end) {
		return false
	}
	return startMin >= r.startMin && endMin <= r.endMin
}

type Resource struct {
	id              uuid.UUID
	name            string
	capacity        int
	hourlyRateCents int64
	minDuration     time.Duration
	maxDuration     time.Duration
	leadTime        time.Duration
	rules           []AvailabilityRule
}

func NewResource(
	id uuid.UUID,
	name string,
	capacity int,
	hourlyRateCents int64,
	minDuration, maxDuration, leadTime time.Duration,
	rules []AvailabilityRule,
) (*Resource, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyResourceName
	}
	if len(name) > MaxResourceNameLength {
		return nil, ErrResourceNameLength
	}
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	if hourlyRateCents < 0 {
		return nil, ErrNegativeRate
	}
	if minDuration <= 0 || maxDuration < minDuration {
		return nil, ErrInvalidDuration
	}
	if leadTime < 0 {
		return nil, ErrNegativeLeadTime
	}

	return &Resource{
		id:              id,
		name:            name,
		capacity:        capacity,
		hourlyRateCents: hourlyRateCents,
		minDuration:     minDuration,
		maxDuration:     maxDuration,
		leadTime:        leadTime,
		rules:           rules,
	}, nil
}

// Reconstruct rebuilds a Resource from persisted state, bypassing validation.
func Reconstruct(
	id uuid.UUID,
	name string,
	capacity int,
	hourlyRateCents int64,
	minDuration, maxDuration, leadTime time.Duration,
	rules []AvailabilityRule,
) *Resource {
	return &Resource{
		id:              id,
		name:            name,
		capacity:        capacity,
		hourlyRateCents: hourlyRateCents,
		minDuration:     minDuration,
		maxDuration:     maxDuration,
		leadTime:        leadTime,
		rules:           rules,
	}
}

func (r *Resource) ID() uuid.UUID              { return r.id }
func (r *Resource) Name() string               { return r.name }
func (r *Resource) Capacity() int              { return r.capacity }
func (r *Resource) HourlyRateCents() int64     { return r.hourlyRateCents }
func (r *Resource) MinDuration() time.Duration { return r.minDuration }
func (r *Resource) MaxDuration() time.Duration { return r.maxDuration }
func (r *Resource) LeadTime() time.Duration    { return r.leadTime }
func (r *Resource) Rules() []AvailabilityRule  { return r.rules }

// OpenWindowFor returns the rule fully covering [start, end), if any.
func (r *Resource) OpenWindowFor(start, end time.Time) (AvailabilityRule, bool) {
	for _, rule := range r.rules {
		if rule.Covers(start, end) {
			return rule, true
		}
	}
	return AvailabilityRule{}, false
}

// WithinDurationBounds checks the booking length against the resource's
// configured minimum and maximum.
func (r *Resource) WithinDurationBounds(d time.Duration) bool {
	return d >= r.minDuration && d <= r.maxDuration
}

// MeetsLeadTime reports whether start is far enough in the future.
func (r *Resource) MeetsLeadTime(now, start time.Time) bool {
	return !start.Before(now.Add(r.leadTime))
}

func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, ErrMalformedRuleTime
	}
	return t.Hour()*60 + t.Minute(), nil
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
