package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"bookhive/internal/domain/booking"
	"bookhive/internal/domain/payment"
	"bookhive/internal/domain/pricing"
	"bookhive/internal/domain/resource"
	"bookhive/internal/infra"
	"bookhive/internal/pkg/clock"
	"bookhive/internal/pkg/config"
	"bookhive/internal/pkg/errs"
	"bookhive/internal/pkg/retry"
	"bookhive/internal/usecase/queries"
	"bookhive/internal/usecase/shared"

	"github.com/google/uuid"
)

// Outcome is the terminal state of a booking attempt. PendingPayment means
// the slot is held but the charge could not be completed; a reconciliation
// job settles it later.
type Outcome string

const (
	OutcomeConfirmed      Outcome = "confirmed"
	OutcomePendingPayment Outcome = "pending_payment"
	OutcomeFailed         Outcome = "failed"
)

type CreateBookingInput struct {
	ResourceID uuid.UUID
	UserID     uuid.UUID
	Start      time.Time
	End        time.Time
	Method     payment.Method
}

type CreateBookingResult struct {
	Outcome       Outcome
	Booking       queries.BookingView
	FailureReason string
	Alternatives  []queries.TimeSlotView
}

type CancelBookingInput struct {
	BookingID uuid.UUID
	UserID    uuid.UUID
	Reason    string
}

type BookingCommands struct {
	bookings     BookingRepository
	payments     PaymentRepository
	resources    ResourceRepository
	users        UserRepository
	gateway      PaymentGateway
	availability *queries.AvailabilityQueries
	lock         shared.DistributedLock
	cache        shared.AvailabilityCache
	notifier     shared.Notifier
	analytics    AnalyticsRecorder
	engine       *pricing.Engine
	clk          clock.Clock
	cfg          config.Config
}

func NewBookingCommands(
	bookings BookingRepository,
	payments PaymentRepository,
	resources ResourceRepository,
	users UserRepository,
	gateway PaymentGateway,
	availability *queries.AvailabilityQueries,
	lock shared.DistributedLock,
	cache shared.AvailabilityCache,
	notifier shared.Notifier,
	analytics AnalyticsRecorder,
	engine *pricing.Engine,
	clk clock.Clock,
	cfg config.Config,
) *BookingCommands {
	return &BookingCommands{
		bookings:     bookings,
		payments:     payments,
		resources:    resources,
		users:        users,
		gateway:      gateway,
		availability: availability,
		lock:         lock,
		cache:        cache,
		notifier:     notifier,
		analytics:    analytics,
		engine:       engine,
		clk:          clk,
		cfg:          cfg,
	}
}

// CreateBooking runs the booking saga: validate, lock the resource,
// revalidate availability under the lock, price, persist a pending booking
// with its payment row, then charge. A declined charge compensates the
// persisted state; an unreachable provider leaves the booking pending for
// reconciliation instead of losing the slot.
func (c *BookingCommands) CreateBooking(ctx context.Context, in CreateBookingInput) (CreateBookingResult, error) {
	period, err := booking.NewPeriod(in.Start, in.End)
	if err != nil {
		return CreateBookingResult{}, errs.Mark(err, errs.ErrValidation)
	}
	if !in.Method.IsValid() {
		return CreateBookingResult{}, errs.Mark(errs.New("unsupported payment method"), errs.ErrValidation)
	}

	res, err := c.resources.FindByID(ctx, in.ResourceID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return CreateBookingResult{}, errs.Mark(err, errs.ErrResourceNotFound)
		}
		return CreateBookingResult{}, err
	}
	if _, err := c.users.FindByID(ctx, in.UserID); err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return CreateBookingResult{}, errs.Mark(err, errs.ErrUserNotFound)
		}
		return CreateBookingResult{}, err
	}

	if err := c.validateRules(res, period); err != nil {
		return CreateBookingResult{}, err
	}

	lockKey := "lock:booking:resource:" + res.ID().String()
	token, err := c.lock.Acquire(ctx, lockKey, c.cfg.Lock.TTL)
	if err != nil {
		if errors.Is(err, errs.ErrLockNotAcquired) {
			return CreateBookingResult{}, errs.Mark(err, errs.ErrBookingConflict)
		}
		return CreateBookingResult{}, err
	}
	// The lock covers only revalidate-and-persist. It is released before the
	// charge so a slow provider cannot block other windows of this resource;
	// the deferred call is the safety net for the error returns in between.
	released := false
	releaseLock := func() {
		if released {
			return
		}
		released = true
		if _, err := c.lock.Release(ctx, lockKey, token); err != nil {
			slog.WarnContext(ctx, "failed to release booking lock", "key", lockKey, "error", err)
		}
	}
	defer releaseLock()

	conflicts, err := c.availability.Revalidate(ctx, res.ID(), period)
	if err != nil {
		return CreateBookingResult{}, err
	}
	if len(conflicts) > 0 {
		return CreateBookingResult{Alternatives: c.suggestAlternatives(ctx, res.ID(), period)},
			errs.Mark(errs.New("requested period overlaps an existing booking"), errs.ErrBookingConflict)
	}

	price, err := c.quote(ctx, res, in.UserID, period)
	if err != nil {
		return CreateBookingResult{}, err
	}

	b, err := booking.NewBooking(res.ID(), in.UserID, period, booking.NewMoney(price))
	if err != nil {
		return CreateBookingResult{}, errs.Mark(err, errs.ErrValidation)
	}
	pay, err := payment.NewPayment(b.ID(), price, in.Method)
	if err != nil {
		return CreateBookingResult{}, errs.Mark(err, errs.ErrValidation)
	}

	saga := shared.NewSaga("create-booking")
	if err := saga.Execute(ctx, shared.SagaStep{
		Name: "persist-pending-booking",
		Run: func(ctx context.Context) error {
			return c.bookings.CreateWithPayment(ctx, b, pay)
		},
		Compensate: func(ctx context.Context) error {
			return c.abortPendingBooking(ctx, b, pay)
		},
	}); err != nil {
		return CreateBookingResult{}, err
	}
	c.evictDay(ctx, res.ID(), period.Start())
	releaseLock()

	charge, chargeErr := c.chargeWithRetry(ctx, ChargeRequest{
		PaymentID:   pay.ID(),
		BookingID:   b.ID(),
		AmountCents: pay.AmountCents(),
		Method:      pay.Method(),
	})

	switch {
	case chargeErr == nil && charge.Status == ChargeCompleted:
		return c.confirmBooking(ctx, b, pay, charge.ExternalRef)

	case chargeErr == nil && charge.Status == ChargeProcessing:
		return c.holdForSettlement(ctx, b, pay)

	case errors.Is(chargeErr, errs.ErrPaymentDeclined):
		c.analytics.PaymentFailed("declined")
		if err := saga.Compensate(ctx); err != nil {
			return CreateBookingResult{}, err
		}
		c.evictDay(ctx, res.ID(), period.Start())
		return CreateBookingResult{
			Outcome:       OutcomeFailed,
			Booking:       bookingView(b, booking.StatusCancelled, 1),
			FailureReason: "payment was declined",
		}, nil

	default:
		// Provider unreachable or outcome unknown. The pending booking keeps
		// the slot; reconciliation settles or cancels it.
		c.analytics.PaymentFailed("unavailable")
		c.analytics.BookingCreated(string(OutcomePendingPayment))
		slog.ErrorContext(ctx, "payment not completed, booking left pending",
			"booking_id", b.ID(), "payment_id", pay.ID(), "error", chargeErr)
		c.enqueueNotification(ctx, b, shared.NotificationPaymentPending, map[string]any{
			"payment_id": pay.ID(),
		})
		return CreateBookingResult{
			Outcome:       OutcomePendingPayment,
			Booking:       bookingView(b, booking.StatusPending, 0),
			FailureReason: "payment could not be completed; the booking is held pending",
		}, nil
	}
}

// CancelBooking cancels an active booking owned by the requester, refunding
// a completed payment. A concurrent status change is retried against the
// fresh version up to VersionRetries times.
func (c *BookingCommands) CancelBooking(ctx context.Context, in CancelBookingInput) (queries.BookingView, error) {
	reason := in.Reason
	if reason == "" {
		reason = "cancelled by user"
	}

	for attempt := 0; attempt <= c.cfg.Booking.VersionRetries; attempt++ {
		b, err := c.bookings.FindByID(ctx, in.BookingID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return queries.BookingView{}, errs.Mark(err, errs.ErrBookingNotFound)
			}
			return queries.BookingView{}, err
		}

		if !b.IsOwnedBy(in.UserID) {
			return queries.BookingView{}, errs.Mark(errs.New("booking belongs to another user"), errs.ErrNotOwner)
		}
		if !b.Status().IsActive() {
			return queries.BookingView{}, errs.Mark(errs.New("booking status is "+string(b.Status())), errs.ErrNotCancellable)
		}
		if !b.MeetsCancellationNotice(c.clk.Now(), c.cfg.Booking.CancellationNotice) {
			return queries.BookingView{}, errs.Mark(errs.New("too close to the booking start"), errs.ErrCancellationWindow)
		}

		expectedVersion := b.Version()
		if err := b.Cancel(reason); err != nil {
			return queries.BookingView{}, errs.Mark(err, errs.ErrNotCancellable)
		}

		err = c.bookings.UpdateStatusWithVersion(ctx, b.ID(), booking.StatusCancelled, &reason, expectedVersion)
		if err != nil {
			if infra.IsKind(err, infra.KindVersionMismatch) {
				slog.InfoContext(ctx, "booking version moved during cancellation, retrying",
					"booking_id", b.ID(), "attempt", attempt+1)
				continue
			}
			return queries.BookingView{}, err
		}

		c.refundIfCharged(ctx, b)
		c.evictDay(ctx, b.ResourceID(), b.Period().Start())
		c.enqueueNotification(ctx, b, shared.NotificationBookingCancelled, map[string]any{"reason": reason})
		c.analytics.BookingCancelled()

		return bookingView(b, booking.StatusCancelled, expectedVersion+1), nil
	}

	return queries.BookingView{}, errs.Mark(
		errs.New("booking kept changing during cancellation"), errs.ErrVersionConflict)
}

func (c *BookingCommands) validateRules(res *resource.Resource, period booking.Period) error {
	if !res.MeetsLeadTime(c.clk.Now(), period.Start()) {
		return errs.Mark(errs.New("start time is within the minimum lead time"), errs.ErrValidation)
	}
	if !res.WithinDurationBounds(period.Duration()) {
		return errs.Mark(errs.New("duration is outside the allowed bounds"), errs.ErrValidation)
	}
	if _, ok := res.OpenWindowFor(period.Start(), period.End()); !ok {
		return errs.Mark(errs.New("resource is closed during the requested window"), errs.ErrValidation)
	}
	return nil
}

func (c *BookingCommands) quote(ctx context.Context, res *resource.Resource, userID uuid.UUID, period booking.Period) (int64, error) {
	nearby, err := c.bookings.CountActiveNear(ctx, res.ID(), period.Start(), pricing.DemandWindow)
	if err != nil {
		return 0, err
	}
	completed, err := c.users.CompletedBookingCount(ctx, userID)
	if err != nil {
		return 0, err
	}

	return c.engine.Quote(pricing.QuoteInput{
		HourlyRateCents:      res.HourlyRateCents(),
		Start:                period.Start(),
		End:                  period.End(),
		NearbyActiveBookings: nearby,
		CompletedBookings:    completed,
	}), nil
}

// chargeWithRetry retries transient provider failures only. Declines are
// permanent and a Processing answer is an accepted charge, so neither goes
// back to the provider.
func (c *BookingCommands) chargeWithRetry(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	policy := retry.Policy{
		MaxAttempts:    c.cfg.Payment.MaxAttempts,
		InitialBackoff: c.cfg.Payment.InitialBackoff,
		MaxBackoff:     c.cfg.Payment.MaxBackoff,
		Multiplier:     2.0,
		JitterFactor:   0.2,
	}

	var result ChargeResult
	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		res, err := c.gateway.Charge(ctx, req)
		if err != nil {
			if errors.Is(err, errs.ErrPaymentDeclined) {
				return retry.Permanent(err)
			}
			return err
		}
		result = res
		return nil
	})
	return result, err
}

func (c *BookingCommands) confirmBooking(ctx context.Context, b *booking.Booking, pay *payment.Payment, reference string) (CreateBookingResult, error) {
	if err := pay.MarkCompleted(reference); err != nil {
		return CreateBookingResult{}, err
	}
	if err := c.payments.Update(ctx, pay); err != nil {
		return CreateBookingResult{}, err
	}
	if err := c.bookings.UpdateStatusWithVersion(ctx, b.ID(), booking.StatusConfirmed, nil, b.Version()); err != nil {
		if infra.IsKind(err, infra.KindVersionMismatch) {
			// The booking moved between persist and confirm (a concurrent
			// cancel, most likely). The charge went through, so this is a
			// reconciliation case, not a caller error.
			slog.ErrorContext(ctx, "booking changed after a successful charge, left for reconciliation",
				"booking_id", b.ID(), "payment_id", pay.ID())
			c.analytics.BookingCreated(string(OutcomePendingPayment))
			return CreateBookingResult{
				Outcome:       OutcomePendingPayment,
				Booking:       bookingView(b, booking.StatusPending, b.Version()),
				FailureReason: "payment captured but the booking changed concurrently; reconciliation will settle it",
			}, nil
		}
		return CreateBookingResult{}, err
	}

	c.enqueueNotification(ctx, b, shared.NotificationBookingConfirmed, map[string]any{
		"price_cents": b.Price().Cents(),
	})
	c.analytics.BookingCreated(string(OutcomeConfirmed))

	return CreateBookingResult{
		Outcome: OutcomeConfirmed,
		Booking: bookingView(b, booking.StatusConfirmed, b.Version()+1),
	}, nil
}

// holdForSettlement records an accepted-but-settling charge: the payment
// moves to processing, the booking stays pending, and reconciliation
// confirms or aborts once the provider reports the final state.
func (c *BookingCommands) holdForSettlement(ctx context.Context, b *booking.Booking, pay *payment.Payment) (CreateBookingResult, error) {
	if err := pay.MarkProcessing(); err != nil {
		return CreateBookingResult{}, err
	}
	if err := c.payments.Update(ctx, pay); err != nil {
		return CreateBookingResult{}, err
	}

	c.enqueueNotification(ctx, b, shared.NotificationPaymentPending, map[string]any{
		"payment_id": pay.ID(),
	})
	c.analytics.BookingCreated(string(OutcomePendingPayment))

	return CreateBookingResult{
		Outcome:       OutcomePendingPayment,
		Booking:       bookingView(b, booking.StatusPending, 0),
		FailureReason: "payment is settling with the provider; the booking is held pending",
	}, nil
}

// abortPendingBooking is the compensation for a persisted booking whose
// charge was declined: the payment fails and the booking cancels.
func (c *BookingCommands) abortPendingBooking(ctx context.Context, b *booking.Booking, pay *payment.Payment) error {
	if err := pay.MarkFailed(); err != nil {
		return err
	}
	if err := c.payments.Update(ctx, pay); err != nil {
		return err
	}

	reason := "payment failed"
	if err := c.bookings.UpdateStatusWithVersion(ctx, b.ID(), booking.StatusCancelled, &reason, b.Version()); err != nil {
		return err
	}

	c.enqueueNotification(ctx, b, shared.NotificationPaymentFailed, map[string]any{"payment_id": pay.ID()})
	c.enqueueNotification(ctx, b, shared.NotificationBookingCancelled, map[string]any{"reason": reason})
	c.analytics.BookingCreated(string(OutcomeFailed))
	return nil
}

func (c *BookingCommands) refundIfCharged(ctx context.Context, b *booking.Booking) {
	pay, err := c.payments.FindByBookingID(ctx, b.ID())
	if err != nil {
		if !infra.IsKind(err, infra.KindNotFound) {
			slog.ErrorContext(ctx, "failed to load payment for refund", "booking_id", b.ID(), "error", err)
		}
		return
	}
	if pay.Status() != payment.StatusCompleted {
		return
	}

	var externalRef string
	if ref := pay.ExternalRef(); ref != nil {
		externalRef = *ref
	}
	req := RefundRequest{
		PaymentID:   pay.ID(),
		ExternalRef: externalRef,
		AmountCents: pay.AmountCents(),
		Method:      pay.Method(),
	}
	if err := c.gateway.Refund(ctx, req); err != nil {
		// The cancellation stands; the refund is retried by reconciliation.
		slog.ErrorContext(ctx, "refund failed, needs reconciliation",
			"booking_id", b.ID(), "payment_id", pay.ID(), "error", err)
		c.analytics.PaymentFailed("refund")
		return
	}

	if err := pay.MarkRefunded(); err != nil {
		slog.ErrorContext(ctx, "refunded payment in unexpected state", "payment_id", pay.ID(), "error", err)
		return
	}
	if err := c.payments.Update(ctx, pay); err != nil {
		slog.ErrorContext(ctx, "failed to record refund", "payment_id", pay.ID(), "error", err)
		return
	}

	c.enqueueNotification(ctx, b, shared.NotificationRefundIssued, map[string]any{
		"amount_cents": pay.AmountCents(),
	})
}

func (c *BookingCommands) suggestAlternatives(ctx context.Context, resourceID uuid.UUID, period booking.Period) []queries.TimeSlotView {
	result, err := c.availability.Check(ctx, resourceID, period.Start(), period.End())
	if err != nil {
		slog.WarnContext(ctx, "failed to compute alternative slots", "resource_id", resourceID, "error", err)
		return nil
	}
	return result.Alternatives
}

func (c *BookingCommands) evictDay(ctx context.Context, resourceID uuid.UUID, start time.Time) {
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	if err := c.cache.Evict(ctx, resourceID, day); err != nil {
		// Stale entries age out with the TTL.
		slog.WarnContext(ctx, "failed to evict availability cache", "resource_id", resourceID, "error", err)
	}
}

func (c *BookingCommands) enqueueNotification(ctx context.Context, b *booking.Booking, kind shared.NotificationKind, payload map[string]any) {
	err := c.notifier.Enqueue(ctx, shared.NotificationJob{
		BookingID: b.ID(),
		UserID:    b.UserID(),
		Kind:      kind,
		Payload:   payload,
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to enqueue notification", "booking_id", b.ID(), "kind", kind, "error", err)
	}
}

func bookingView(b *booking.Booking, status booking.Status, version int32) queries.BookingView {
	return queries.BookingView{
		ID:                 b.ID(),
		ResourceID:         b.ResourceID(),
		UserID:             b.UserID(),
		Start:              b.Period().Start(),
		End:                b.Period().End(),
		Status:             string(status),
		PriceCents:         b.Price().Cents(),
		Version:            version,
		CancellationReason: b.CancellationReason(),
		CreatedAt:          b.CreatedAt(),
		UpdatedAt:          b.UpdatedAt(),
	}
}
