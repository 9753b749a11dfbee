package queries

import (
	"context"
	"log/slog"
	"time"

	"bookhive/internal/domain/booking"
	"bookhive/internal/domain/pricing"
	"bookhive/internal/domain/resource"
	"bookhive/internal/infra"
	"bookhive/internal/pkg/clock"
	"bookhive/internal/pkg/config"
	"bookhive/internal/pkg/errs"
	"bookhive/internal/usecase/shared"

	"github.com/google/uuid"
)

const (
	reasonInvalidPeriod   = "start time must be before end time"
	reasonLeadTime        = "start time is within the minimum lead time"
	reasonDurationBounds  = "duration is outside the allowed bounds"
	reasonOutsideSchedule = "resource is closed during the requested window"
)

type ResourceReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*resource.Resource, error)
}

type ActiveBookingReader interface {
	FindActiveInRange(ctx context.Context, resourceID uuid.UUID, from, to time.Time) ([]*booking.Booking, error)
}

type AvailabilityQueries struct {
	resources ResourceReader
	bookings  ActiveBookingReader
	cache     shared.AvailabilityCache
	lock      shared.DistributedLock
	engine    *pricing.Engine
	clk       clock.Clock
	cfg       config.Config
}

func NewAvailabilityQueries(
	resources ResourceReader,
	bookings ActiveBookingReader,
	cache shared.AvailabilityCache,
	lock shared.DistributedLock,
	engine *pricing.Engine,
	clk clock.Clock,
	cfg config.Config,
) *AvailabilityQueries {
	return &AvailabilityQueries{
		resources: resources,
		bookings:  bookings,
		cache:     cache,
		lock:      lock,
		engine:    engine,
		clk:       clk,
		cfg:       cfg,
	}
}

// Check reports whether [start, end) is bookable for the resource. On a
// conflict it lists the blocking bookings plus up to MaxAlternatives
// same-day slots found by sliding the requested duration in AlternativeStep
// increments. The answer is advisory; the booking path revalidates under a
// lock before committing.
func (q *AvailabilityQueries) Check(ctx context.Context, resourceID uuid.UUID, start, end time.Time) (AvailabilityResult, error) {
	period, err := booking.NewPeriod(start, end)
	if err != nil {
		return AvailabilityResult{Reasons: []string{reasonInvalidPeriod}}, nil
	}

	res, err := q.resources.FindByID(ctx, resourceID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return AvailabilityResult{}, errs.Mark(err, errs.ErrResourceNotFound)
		}
		return AvailabilityResult{}, err
	}

	if reasons := q.validate(res, period); len(reasons) > 0 {
		return AvailabilityResult{Reasons: reasons}, nil
	}

	snapshot, err := q.daySnapshot(ctx, res.ID(), startOfDay(start))
	if err != nil {
		return AvailabilityResult{}, err
	}

	conflicts := overlapping(snapshot.Busy, period)
	if len(conflicts) == 0 {
		return AvailabilityResult{Available: true}, nil
	}

	return AvailabilityResult{
		Conflicts:    conflicts,
		Alternatives: q.alternatives(res, period, snapshot),
	}, nil
}

// Revalidate re-reads booking rows directly, bypassing the cache. The write
// path calls this while holding the resource lock.
func (q *AvailabilityQueries) Revalidate(ctx context.Context, resourceID uuid.UUID, period booking.Period) ([]ConflictView, error) {
	active, err := q.bookings.FindActiveInRange(ctx, resourceID, period.Start(), period.End())
	if err != nil {
		return nil, err
	}

	conflicts := make([]ConflictView, 0, len(active))
	for _, b := range active {
		conflicts = append(conflicts, ConflictView{
			BookingID: b.ID(),
			Start:     b.Period().Start(),
			End:       b.Period().End(),
			Status:    string(b.Status()),
		})
	}
	return conflicts, nil
}

func (q *AvailabilityQueries) validate(res *resource.Resource, period booking.Period) []string {
	var reasons []string
	now := q.clk.Now()

	if !res.MeetsLeadTime(now, period.Start()) {
		reasons = append(reasons, reasonLeadTime)
	}
	if !res.WithinDurationBounds(period.Duration()) {
		reasons = append(reasons, reasonDurationBounds)
	}
	if _, ok := res.OpenWindowFor(period.Start(), period.End()); !ok {
		reasons = append(reasons, reasonOutsideSchedule)
	}

	return reasons
}

// daySnapshot serves the resource's day from cache, computing and filling it
// on a miss. A short lock keeps concurrent misses from stampeding the
// database; losers of the lock race compute without caching.
func (q *AvailabilityQueries) daySnapshot(ctx context.Context, resourceID uuid.UUID, day time.Time) (*shared.AvailabilitySnapshot, error) {
	snapshot, err := q.cache.Get(ctx, resourceID, day)
	if err != nil {
		slog.WarnContext(ctx, "availability cache read failed", "resource_id", resourceID, "error", err)
	}
	if snapshot != nil {
		return snapshot, nil
	}

	lockKey := "lock:availability:" + resourceID.String() + ":" + day.Format("2006-01-02")
	token, lockErr := q.lock.Acquire(ctx, lockKey, q.cfg.Lock.TTL)
	if lockErr != nil {
		// Someone else is computing, or redis is unhealthy. Either way a
		// fresh uncached read is still correct.
		return q.computeSnapshot(ctx, resourceID, day)
	}
	defer func() {
		if _, err := q.lock.Release(ctx, lockKey, token); err != nil {
			slog.WarnContext(ctx, "failed to release availability lock", "key", lockKey, "error", err)
		}
	}()

	// Re-check after winning the lock; a peer may have filled it.
	snapshot, err = q.cache.Get(ctx, resourceID, day)
	if err == nil && snapshot != nil {
		return snapshot, nil
	}

	snapshot, err = q.computeSnapshot(ctx, resourceID, day)
	if err != nil {
		return nil, err
	}

	if err := q.cache.Put(ctx, snapshot, q.cfg.Cache.AvailabilityTTL); err != nil {
		slog.WarnContext(ctx, "availability cache write failed", "resource_id", resourceID, "error", err)
	}

	return snapshot, nil
}

func (q *AvailabilityQueries) computeSnapshot(ctx context.Context, resourceID uuid.UUID, day time.Time) (*shared.AvailabilitySnapshot, error) {
	active, err := q.bookings.FindActiveInRange(ctx, resourceID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	busy := make([]shared.BusyInterval, 0, len(active))
	for _, b := range active {
		busy = append(busy, shared.BusyInterval{
			BookingID: b.ID(),
			Start:     b.Period().Start(),
			End:       b.Period().End(),
			Status:    string(b.Status()),
		})
	}

	return &shared.AvailabilitySnapshot{
		ResourceID: resourceID,
		Date:       day,
		Busy:       busy,
		ComputedAt: q.clk.Now(),
	}, nil
}

// alternatives slides a same-duration window across the requested day and
// keeps the first free, in-schedule slots, each priced as if booked now.
func (q *AvailabilityQueries) alternatives(res *resource.Resource, requested booking.Period, snapshot *shared.AvailabilitySnapshot) []TimeSlotView {
	var (
		now      = q.clk.Now()
		duration = requested.Duration()
		day      = startOfDay(requested.Start())
		dayEnd   = day.AddDate(0, 0, 1)
		slots    []TimeSlotView
	)

	for cursor := day; len(slots) < q.cfg.Booking.MaxAlternatives; cursor = cursor.Add(q.cfg.Booking.AlternativeStep) {
		slotEnd := cursor.Add(duration)
		if slotEnd.After(dayEnd) {
			break
		}

		candidate, err := booking.NewPeriod(cursor, slotEnd)
		if err != nil {
			continue
		}
		if candidate.Start().Equal(requested.Start()) {
			continue
		}
		if !res.MeetsLeadTime(now, candidate.Start()) {
			continue
		}
		if _, ok := res.OpenWindowFor(candidate.Start(), candidate.End()); !ok {
			continue
		}
		if len(overlapping(snapshot.Busy, candidate)) > 0 {
			continue
		}

		slots = append(slots, TimeSlotView{
			Start: candidate.Start(),
			End:   candidate.End(),
			PriceCents: q.engine.Quote(pricing.QuoteInput{
				HourlyRateCents:      res.HourlyRateCents(),
				Start:                candidate.Start(),
				End:                  candidate.End(),
				NearbyActiveBookings: countNearby(snapshot.Busy, candidate),
			}),
		})
	}

	return slots
}

func overlapping(busy []shared.BusyInterval, period booking.Period) []ConflictView {
	var conflicts []ConflictView
	for _, interval := range busy {
		if interval.Start.Before(period.End()) && interval.End.After(period.Start()) {
			conflicts = append(conflicts, ConflictView{
				BookingID: interval.BookingID,
				Start:     interval.Start,
				End:       interval.End,
				Status:    interval.Status,
			})
		}
	}
	return conflicts
}

// countNearby counts busy intervals starting within the demand window around
// the candidate's start. Start proximity alone drives the demand tier.
func countNearby(busy []shared.BusyInterval, period booking.Period) int {
	from := period.Start().Add(-pricing.DemandWindow)
	to := period.Start().Add(pricing.DemandWindow)

	count := 0
	for _, interval := range busy {
		if !interval.Start.Before(from) && !interval.Start.After(to) {
			count++
		}
	}
	return count
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
