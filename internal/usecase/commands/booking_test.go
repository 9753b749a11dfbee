//go:build unit

package commands_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"bookhive/internal/domain/booking"
	"bookhive/internal/domain/payment"
	"bookhive/internal/domain/pricing"
	"bookhive/internal/domain/resource"
	"bookhive/internal/domain/user"
	"bookhive/internal/infra"
	"bookhive/internal/pkg/clock"
	"bookhive/internal/pkg/config"
	"bookhive/internal/pkg/errs"
	"bookhive/internal/usecase/commands"
	"bookhive/internal/usecase/queries"
	"bookhive/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// --- in-memory stores -------------------------------------------------------

type memBookingRepo struct {
	mu               sync.Mutex
	bookings         map[uuid.UUID]*booking.Booking
	versionFailures  int
	versionFailCount int
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{bookings: map[uuid.UUID]*booking.Booking{}}
}

func (r *memBookingRepo) put(b *booking.Booking) {
	r.bookings[b.ID()] = booking.Reconstruct(
		b.ID(), b.ResourceID(), b.UserID(), b.Period(), b.Status(), b.Price(),
		b.Version(), b.CancellationReason(), b.CreatedAt(), b.UpdatedAt(),
	)
}

func (r *memBookingRepo) seed(b *booking.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(b)
}

func (r *memBookingRepo) get(id uuid.UUID) *booking.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bookings[id]
}

func (r *memBookingRepo) CreateWithPayment(_ context.Context, b *booking.Booking, p *payment.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(b)
	return nil
}

func (r *memBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, infra.WrapRepoErr("booking not found", pgx.ErrNoRows, infra.KindNotFound)
	}
	// Return a copy, like a real repository rehydrating from rows: callers
	// mutate the returned entity and the store must not see that until an
	// update lands.
	return booking.Reconstruct(
		b.ID(), b.ResourceID(), b.UserID(), b.Period(), b.Status(), b.Price(),
		b.Version(), b.CancellationReason(), b.CreatedAt(), b.UpdatedAt(),
	), nil
}

func (r *memBookingRepo) FindActiveInRange(_ context.Context, resourceID uuid.UUID, from, to time.Time) ([]*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*booking.Booking
	for _, b := range r.bookings {
		if b.ResourceID() != resourceID || !b.Status().IsActive() {
			continue
		}
		if b.Period().Start().Before(to) && b.Period().End().After(from) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *memBookingRepo) CountActiveNear(_ context.Context, resourceID uuid.UUID, start time.Time, window time.Duration) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	from, to := start.Add(-window), start.Add(window)
	count := 0
	for _, b := range r.bookings {
		if b.ResourceID() != resourceID || !b.Status().IsActive() {
			continue
		}
		if s := b.Period().Start(); !s.Before(from) && !s.After(to) {
			count++
		}
	}
	return count, nil
}

func (r *memBookingRepo) UpdateStatusWithVersion(_ context.Context, id uuid.UUID, status booking.Status, reason *string, expectedVersion int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return infra.WrapRepoErr("booking not found", pgx.ErrNoRows, infra.KindNotFound)
	}
	if r.versionFailCount < r.versionFailures {
		r.versionFailCount++
		return infra.WrapRepoErr("stale version", nil, infra.KindVersionMismatch)
	}
	if b.Version() != expectedVersion {
		return infra.WrapRepoErr("stale version", nil, infra.KindVersionMismatch)
	}

	if reason == nil {
		reason = b.CancellationReason()
	}
	r.bookings[id] = booking.Reconstruct(
		b.ID(), b.ResourceID(), b.UserID(), b.Period(), status, b.Price(),
		expectedVersion+1, reason, b.CreatedAt(), b.UpdatedAt(),
	)
	return nil
}

type memPaymentRepo struct {
	mu        sync.Mutex
	byBooking map[uuid.UUID]*payment.Payment
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{byBooking: map[uuid.UUID]*payment.Payment{}}
}

func (r *memPaymentRepo) seed(p *payment.Payment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byBooking[p.BookingID()] = p
}

func (r *memPaymentRepo) Update(_ context.Context, p *payment.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byBooking[p.BookingID()] = p
	return nil
}

func (r *memPaymentRepo) FindByBookingID(_ context.Context, bookingID uuid.UUID) (*payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byBooking[bookingID]
	if !ok {
		return nil, infra.WrapRepoErr("payment not found", pgx.ErrNoRows, infra.KindNotFound)
	}
	return p, nil
}

type memResourceRepo struct {
	byID map[uuid.UUID]*resource.Resource
}

func (r *memResourceRepo) FindByID(_ context.Context, id uuid.UUID) (*resource.Resource, error) {
	res, ok := r.byID[id]
	if !ok {
		return nil, infra.WrapRepoErr("resource not found", pgx.ErrNoRows, infra.KindNotFound)
	}
	return res, nil
}

type memUserRepo struct {
	byID      map[uuid.UUID]*user.User
	completed map[uuid.UUID]int
}

func (r *memUserRepo) FindByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, infra.WrapRepoErr("user not found", pgx.ErrNoRows, infra.KindNotFound)
	}
	return u, nil
}

func (r *memUserRepo) CompletedBookingCount(_ context.Context, id uuid.UUID) (int, error) {
	return r.completed[id], nil
}

// memLock is a process-local set-if-absent lock with token checking.
type memLock struct {
	mu   sync.Mutex
	held map[string]string
}

func newMemLock() *memLock {
	return &memLock{held: map[string]string{}}
}

func (l *memLock) Acquire(_ context.Context, key string, _ time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, taken := l.held[key]; taken {
		return "", errs.ErrLockNotAcquired
	}
	token := uuid.NewString()
	l.held[key] = token
	return token, nil
}

func (l *memLock) Release(_ context.Context, key, token string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] != token {
		return false, nil
	}
	delete(l.held, key)
	return true, nil
}

type memCache struct {
	mu      sync.Mutex
	entries map[string]*shared.AvailabilitySnapshot
	evicts  int
}

func newMemCache() *memCache {
	return &memCache{entries: map[string]*shared.AvailabilitySnapshot{}}
}

func snapKey(resourceID uuid.UUID, date time.Time) string {
	return resourceID.String() + ":" + date.Format("2006-01-02")
}

func (c *memCache) Get(_ context.Context, resourceID uuid.UUID, date time.Time) (*shared.AvailabilitySnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[snapKey(resourceID, date)], nil
}

func (c *memCache) Put(_ context.Context, snapshot *shared.AvailabilitySnapshot, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[snapKey(snapshot.ResourceID, snapshot.Date)] = snapshot
	return nil
}

func (c *memCache) Evict(_ context.Context, resourceID uuid.UUID, date time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evicts++
	delete(c.entries, snapKey(resourceID, date))
	return nil
}

// scriptedGateway pops one error per Charge call, repeating the last one.
// Successful calls answer with status (Completed unless overridden) and a
// fixed reference. onCharge, when set, fires once during the next charge.
type scriptedGateway struct {
	mu       sync.Mutex
	charges  []error
	status   commands.ChargeStatus
	onCharge func()
	calls    int
	refunds  []commands.RefundRequest
}

func (g *scriptedGateway) Charge(_ context.Context, _ commands.ChargeRequest) (commands.ChargeResult, error) {
	g.mu.Lock()
	var err error
	if len(g.charges) > 0 {
		err = g.charges[0]
		if len(g.charges) > 1 {
			g.charges = g.charges[1:]
		}
	}
	g.calls++
	status := g.status
	if status == "" {
		status = commands.ChargeCompleted
	}
	hook := g.onCharge
	g.onCharge = nil
	g.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return commands.ChargeResult{}, err
	}
	return commands.ChargeResult{Status: status, ExternalRef: "txn-ref-001"}, nil
}

func (g *scriptedGateway) Refund(_ context.Context, req commands.RefundRequest) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refunds = append(g.refunds, req)
	return nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	jobs []shared.NotificationJob
}

func (n *recordingNotifier) Enqueue(_ context.Context, job shared.NotificationJob) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.jobs = append(n.jobs, job)
	return nil
}

func (n *recordingNotifier) kinds() []shared.NotificationKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []shared.NotificationKind
	for _, j := range n.jobs {
		out = append(out, j.Kind)
	}
	return out
}

type countingAnalytics struct {
	mu        sync.Mutex
	created   map[string]int
	cancelled int
	failed    map[string]int
}

func newCountingAnalytics() *countingAnalytics {
	return &countingAnalytics{created: map[string]int{}, failed: map[string]int{}}
}

func (a *countingAnalytics) BookingCreated(outcome string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.created[outcome]++
}

func (a *countingAnalytics) BookingCancelled() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cancelled++
}

func (a *countingAnalytics) PaymentFailed(reason string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failed[reason]++
}

// --- fixture ----------------------------------------------------------------

// monday is 2026-03-09; tuesday follows it.
func monday(h, m int) time.Time {
	return time.Date(2026, 3, 9, h, m, 0, 0, time.UTC)
}

func tuesday(h, m int) time.Time {
	return time.Date(2026, 3, 10, h, m, 0, 0, time.UTC)
}

type fixture struct {
	commands     *commands.BookingCommands
	availability *queries.AvailabilityQueries
	bookings     *memBookingRepo
	payments     *memPaymentRepo
	gateway      *scriptedGateway
	notifier     *recordingNotifier
	analytics    *countingAnalytics
	cache        *memCache
	clk          *clock.MockClock
	resource     *resource.Resource
	userID       uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	var rules []resource.AvailabilityRule
	for wd := time.Monday; wd <= time.Friday; wd++ {
		rule, err := resource.NewAvailabilityRule(wd, "08:00", "20:00", true)
		require.NoError(t, err)
		rules = append(rules, rule)
	}
	res, err := resource.NewResource(uuid.New(), "Studio A", 1, 5000, time.Hour, 4*time.Hour, time.Hour, rules)
	require.NoError(t, err)

	u, err := user.NewUser("Dana", "dana@example.com")
	require.NoError(t, err)

	f := &fixture{
		bookings:  newMemBookingRepo(),
		payments:  newMemPaymentRepo(),
		gateway:   &scriptedGateway{},
		notifier:  &recordingNotifier{},
		analytics: newCountingAnalytics(),
		cache:     newMemCache(),
		clk:       clock.NewMockClock(monday(7, 0)),
		resource:  res,
		userID:    u.ID(),
	}

	cfg := config.NewTestConfig()
	engine := pricing.NewEngine()
	lock := newMemLock()
	resources := &memResourceRepo{byID: map[uuid.UUID]*resource.Resource{res.ID(): res}}
	users := &memUserRepo{byID: map[uuid.UUID]*user.User{u.ID(): u}, completed: map[uuid.UUID]int{}}

	f.availability = queries.NewAvailabilityQueries(
		resources, f.bookings, f.cache, lock, engine, f.clk, cfg,
	)
	f.commands = commands.NewBookingCommands(
		f.bookings, f.payments, resources, users, f.gateway,
		f.availability, lock, f.cache, f.notifier, f.analytics,
		engine, f.clk, cfg,
	)
	return f
}

func (f *fixture) createInput(start, end time.Time) commands.CreateBookingInput {
	return commands.CreateBookingInput{
		ResourceID: f.resource.ID(),
		UserID:     f.userID,
		Start:      start,
		End:        end,
		Method:     payment.MethodCard,
	}
}

func (f *fixture) seedConfirmedBooking(t *testing.T, start, end time.Time, priceCents int64) *booking.Booking {
	t.Helper()

	period, err := booking.NewPeriod(start, end)
	require.NoError(t, err)
	b, err := booking.NewBooking(f.resource.ID(), f.userID, period, booking.NewMoney(priceCents))
	require.NoError(t, err)
	require.NoError(t, b.Confirm())
	f.bookings.seed(b)

	p, err := payment.NewPayment(b.ID(), priceCents, payment.MethodCard)
	require.NoError(t, err)
	require.NoError(t, p.MarkCompleted("txn-seeded"))
	f.payments.seed(p)

	return b
}

// --- create -----------------------------------------------------------------

func TestCreateBooking_Confirmed(t *testing.T) {
	f := newFixture(t)

	result, err := f.commands.CreateBooking(context.Background(), f.createInput(monday(10, 0), monday(12, 0)))

	require.NoError(t, err)
	assert.Equal(t, commands.OutcomeConfirmed, result.Outcome)
	// $50/h x 2h x 1.3 weekday peak.
	assert.Equal(t, int64(13000), result.Booking.PriceCents)

	stored := f.bookings.get(result.Booking.ID)
	require.NotNil(t, stored)
	assert.Equal(t, booking.StatusConfirmed, stored.Status())
	assert.Equal(t, int32(1), stored.Version())

	p, err := f.payments.FindByBookingID(context.Background(), result.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusCompleted, p.Status())
	require.NotNil(t, p.ExternalRef())
	assert.Equal(t, "txn-ref-001", *p.ExternalRef())

	assert.Equal(t, []shared.NotificationKind{shared.NotificationBookingConfirmed}, f.notifier.kinds())
	assert.Equal(t, 1, f.analytics.created["confirmed"])
	assert.Positive(t, f.cache.evicts)
}

func TestCreateBooking_ValidationFailures(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*commands.CreateBookingInput)
		wantErr error
	}{
		{
			name:    "start after end",
			mutate:  func(in *commands.CreateBookingInput) { in.Start, in.End = in.End, in.Start },
			wantErr: errs.ErrValidation,
		},
		{
			name:    "unknown method",
			mutate:  func(in *commands.CreateBookingInput) { in.Method = payment.Method("cheque") },
			wantErr: errs.ErrValidation,
		},
		{
			name:    "unknown resource",
			mutate:  func(in *commands.CreateBookingInput) { in.ResourceID = uuid.New() },
			wantErr: errs.ErrResourceNotFound,
		},
		{
			name:    "unknown user",
			mutate:  func(in *commands.CreateBookingInput) { in.UserID = uuid.New() },
			wantErr: errs.ErrUserNotFound,
		},
		{
			name: "inside lead time",
			mutate: func(in *commands.CreateBookingInput) {
				in.Start = monday(7, 30)
				in.End = monday(9, 0)
			},
			wantErr: errs.ErrValidation,
		},
		{
			name: "outside opening hours",
			mutate: func(in *commands.CreateBookingInput) {
				in.Start = monday(21, 0)
				in.End = monday(22, 0)
			},
			wantErr: errs.ErrValidation,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := newFixture(t)
			in := f.createInput(monday(10, 0), monday(12, 0))
			c.mutate(&in)

			_, err := f.commands.CreateBooking(context.Background(), in)

			assert.ErrorIs(t, err, c.wantErr)
			assert.Equal(t, 0, f.gateway.calls, "no charge on validation failure")
		})
	}
}

func TestCreateBooking_ConflictSuggestsAlternatives(t *testing.T) {
	f := newFixture(t)
	f.seedConfirmedBooking(t, monday(10, 0), monday(12, 0), 13000)

	result, err := f.commands.CreateBooking(context.Background(), f.createInput(monday(10, 0), monday(12, 0)))

	assert.ErrorIs(t, err, errs.ErrBookingConflict)
	require.NotEmpty(t, result.Alternatives)
	assert.LessOrEqual(t, len(result.Alternatives), 5)
	for _, slot := range result.Alternatives {
		assert.False(t, slot.Start.Before(monday(12, 0)) && slot.End.After(monday(10, 0)),
			"alternative overlaps the existing booking")
	}
	assert.Equal(t, 0, f.gateway.calls)
}

func TestCreateBooking_DeclinedPaymentCancelsBooking(t *testing.T) {
	f := newFixture(t)
	f.gateway.charges = []error{errs.ErrPaymentDeclined}

	result, err := f.commands.CreateBooking(context.Background(), f.createInput(monday(10, 0), monday(12, 0)))

	require.NoError(t, err)
	assert.Equal(t, commands.OutcomeFailed, result.Outcome)
	assert.Equal(t, "payment was declined", result.FailureReason)

	stored := f.bookings.get(result.Booking.ID)
	require.NotNil(t, stored)
	assert.Equal(t, booking.StatusCancelled, stored.Status())
	require.NotNil(t, stored.CancellationReason())
	assert.Equal(t, "payment failed", *stored.CancellationReason())

	p, perr := f.payments.FindByBookingID(context.Background(), result.Booking.ID)
	require.NoError(t, perr)
	assert.Equal(t, payment.StatusFailed, p.Status())

	assert.Equal(t, 1, f.gateway.calls, "declines are not retried")
	assert.Contains(t, f.notifier.kinds(), shared.NotificationPaymentFailed)
	assert.Contains(t, f.notifier.kinds(), shared.NotificationBookingCancelled)
	assert.Equal(t, 1, f.analytics.failed["declined"])
}

func TestCreateBooking_TransientFailureIsRetried(t *testing.T) {
	f := newFixture(t)
	f.gateway.charges = []error{errs.ErrPaymentUnavailable, nil}

	result, err := f.commands.CreateBooking(context.Background(), f.createInput(monday(10, 0), monday(12, 0)))

	require.NoError(t, err)
	assert.Equal(t, commands.OutcomeConfirmed, result.Outcome)
	assert.Equal(t, 2, f.gateway.calls)
}

func TestCreateBooking_UnreachableProviderLeavesPending(t *testing.T) {
	f := newFixture(t)
	f.gateway.charges = []error{errs.ErrPaymentUnavailable}

	result, err := f.commands.CreateBooking(context.Background(), f.createInput(monday(10, 0), monday(12, 0)))

	require.NoError(t, err)
	assert.Equal(t, commands.OutcomePendingPayment, result.Outcome)

	stored := f.bookings.get(result.Booking.ID)
	require.NotNil(t, stored)
	assert.Equal(t, booking.StatusPending, stored.Status(), "slot stays held for reconciliation")

	// Test config allows two attempts before giving up.
	assert.Equal(t, 2, f.gateway.calls)
	assert.Equal(t, 1, f.analytics.failed["unavailable"])
	assert.Contains(t, f.notifier.kinds(), shared.NotificationPaymentPending)
}

func TestCreateBooking_ProcessingChargeHoldsPending(t *testing.T) {
	f := newFixture(t)
	f.gateway.status = commands.ChargeProcessing

	result, err := f.commands.CreateBooking(context.Background(), f.createInput(monday(10, 0), monday(12, 0)))

	require.NoError(t, err)
	assert.Equal(t, commands.OutcomePendingPayment, result.Outcome)
	assert.Equal(t, 1, f.gateway.calls, "an accepted charge must not be re-submitted")

	stored := f.bookings.get(result.Booking.ID)
	require.NotNil(t, stored)
	assert.Equal(t, booking.StatusPending, stored.Status())

	p, perr := f.payments.FindByBookingID(context.Background(), result.Booking.ID)
	require.NoError(t, perr)
	assert.Equal(t, payment.StatusProcessing, p.Status())

	assert.Contains(t, f.notifier.kinds(), shared.NotificationPaymentPending)
	assert.Equal(t, 1, f.analytics.created["pending_payment"])
}

func TestCreateBooking_DemandCountsStartProximityOnly(t *testing.T) {
	f := newFixture(t)
	// Four bookings starting within two hours of the 10:00 request.
	f.seedConfirmedBooking(t, monday(8, 0), monday(8, 30), 1000)
	f.seedConfirmedBooking(t, monday(8, 30), monday(9, 0), 1000)
	f.seedConfirmedBooking(t, monday(9, 0), monday(9, 30), 1000)
	f.seedConfirmedBooking(t, monday(9, 30), monday(10, 0), 1000)
	// Two more whose intervals sit near the request but whose starts are
	// further than two hours away; they carry no demand signal.
	f.seedConfirmedBooking(t, monday(12, 30), monday(13, 30), 1000)
	f.seedConfirmedBooking(t, monday(13, 30), monday(15, 0), 1000)

	result, err := f.commands.CreateBooking(context.Background(), f.createInput(monday(10, 0), monday(12, 0)))

	require.NoError(t, err)
	// Four nearby starts stay below the >5 tier: $50/h x 2h x 1.3 peak only.
	assert.Equal(t, int64(13000), result.Booking.PriceCents)
}

func TestCreateBooking_LockReleasedBeforeCharge(t *testing.T) {
	f := newFixture(t)

	// While the first charge is in flight, book a disjoint window of the
	// same resource; it must not see the resource as locked.
	var innerErr error
	var inner commands.CreateBookingResult
	f.gateway.onCharge = func() {
		inner, innerErr = f.commands.CreateBooking(context.Background(), f.createInput(monday(14, 0), monday(16, 0)))
	}

	result, err := f.commands.CreateBooking(context.Background(), f.createInput(monday(10, 0), monday(12, 0)))

	require.NoError(t, err)
	assert.Equal(t, commands.OutcomeConfirmed, result.Outcome)
	require.NoError(t, innerErr)
	assert.Equal(t, commands.OutcomeConfirmed, inner.Outcome)

	active, err := f.bookings.FindActiveInRange(context.Background(), f.resource.ID(), monday(0, 0), tuesday(0, 0))
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestCreateBooking_ConcurrentCancelDuringChargeLeavesReconciliation(t *testing.T) {
	f := newFixture(t)
	// The version moves between persist and confirm, as a concurrent cancel
	// would do. The charge already went through, so the caller must get a
	// pending outcome, not an error.
	f.bookings.versionFailures = 1

	result, err := f.commands.CreateBooking(context.Background(), f.createInput(monday(10, 0), monday(12, 0)))

	require.NoError(t, err)
	assert.Equal(t, commands.OutcomePendingPayment, result.Outcome)

	p, perr := f.payments.FindByBookingID(context.Background(), result.Booking.ID)
	require.NoError(t, perr)
	assert.Equal(t, payment.StatusCompleted, p.Status(), "the captured payment stays recorded for reconciliation")
}

func TestCreateBooking_ConcurrentRequestsSingleWinner(t *testing.T) {
	f := newFixture(t)
	in := f.createInput(monday(10, 0), monday(12, 0))

	const attempts = 6
	results := make([]error, attempts)

	var g errgroup.Group
	for i := 0; i < attempts; i++ {
		g.Go(func() error {
			_, err := f.commands.CreateBooking(context.Background(), in)
			results[i] = err
			return nil
		})
	}
	require.NoError(t, g.Wait())

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, errs.ErrBookingConflict)
		}
	}
	assert.Equal(t, 1, winners, "exactly one concurrent request may win the slot")

	active, err := f.bookings.FindActiveInRange(context.Background(), f.resource.ID(), monday(0, 0), tuesday(0, 0))
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

// --- cancel -----------------------------------------------------------------

func TestCancelBooking_RefundsCompletedPayment(t *testing.T) {
	f := newFixture(t)
	b := f.seedConfirmedBooking(t, tuesday(10, 0), tuesday(12, 0), 13000)

	view, err := f.commands.CancelBooking(context.Background(), commands.CancelBookingInput{
		BookingID: b.ID(),
		UserID:    f.userID,
		Reason:    "change of plans",
	})

	require.NoError(t, err)
	assert.Equal(t, string(booking.StatusCancelled), view.Status)

	stored := f.bookings.get(b.ID())
	assert.Equal(t, booking.StatusCancelled, stored.Status())
	require.NotNil(t, stored.CancellationReason())
	assert.Equal(t, "change of plans", *stored.CancellationReason())

	p, perr := f.payments.FindByBookingID(context.Background(), b.ID())
	require.NoError(t, perr)
	assert.Equal(t, payment.StatusRefunded, p.Status())

	require.Len(t, f.gateway.refunds, 1)
	assert.Equal(t, int64(13000), f.gateway.refunds[0].AmountCents)
	assert.Equal(t, "txn-seeded", f.gateway.refunds[0].ExternalRef)

	kinds := f.notifier.kinds()
	assert.Contains(t, kinds, shared.NotificationRefundIssued)
	assert.Contains(t, kinds, shared.NotificationBookingCancelled)
	assert.Equal(t, 1, f.analytics.cancelled)
}

func TestCancelBooking_Guards(t *testing.T) {
	t.Run("booking not found", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.commands.CancelBooking(context.Background(), commands.CancelBookingInput{
			BookingID: uuid.New(),
			UserID:    f.userID,
		})

		assert.ErrorIs(t, err, errs.ErrBookingNotFound)
	})

	t.Run("not the owner", func(t *testing.T) {
		f := newFixture(t)
		b := f.seedConfirmedBooking(t, tuesday(10, 0), tuesday(12, 0), 13000)

		_, err := f.commands.CancelBooking(context.Background(), commands.CancelBookingInput{
			BookingID: b.ID(),
			UserID:    uuid.New(),
		})

		assert.ErrorIs(t, err, errs.ErrNotOwner)
		assert.Equal(t, booking.StatusConfirmed, f.bookings.get(b.ID()).Status())
	})

	t.Run("inside the 24h window", func(t *testing.T) {
		f := newFixture(t)
		// Starts three hours from now.
		b := f.seedConfirmedBooking(t, monday(10, 0), monday(12, 0), 13000)

		_, err := f.commands.CancelBooking(context.Background(), commands.CancelBookingInput{
			BookingID: b.ID(),
			UserID:    f.userID,
		})

		assert.ErrorIs(t, err, errs.ErrCancellationWindow)
	})

	t.Run("exactly 24h ahead is still too late", func(t *testing.T) {
		f := newFixture(t)
		b := f.seedConfirmedBooking(t, tuesday(7, 0), tuesday(9, 0), 13000)

		_, err := f.commands.CancelBooking(context.Background(), commands.CancelBookingInput{
			BookingID: b.ID(),
			UserID:    f.userID,
		})

		assert.ErrorIs(t, err, errs.ErrCancellationWindow)
	})

	t.Run("already cancelled", func(t *testing.T) {
		f := newFixture(t)
		b := f.seedConfirmedBooking(t, tuesday(10, 0), tuesday(12, 0), 13000)

		_, err := f.commands.CancelBooking(context.Background(), commands.CancelBookingInput{
			BookingID: b.ID(), UserID: f.userID, Reason: "first",
		})
		require.NoError(t, err)

		_, err = f.commands.CancelBooking(context.Background(), commands.CancelBookingInput{
			BookingID: b.ID(), UserID: f.userID, Reason: "second",
		})

		assert.ErrorIs(t, err, errs.ErrNotCancellable)
	})
}

func TestCancelBooking_FreesTheWindowForRebooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.commands.CreateBooking(ctx, f.createInput(tuesday(10, 0), tuesday(12, 0)))
	require.NoError(t, err)
	require.Equal(t, commands.OutcomeConfirmed, result.Outcome)

	check, err := f.availability.Check(ctx, f.resource.ID(), tuesday(10, 0), tuesday(12, 0))
	require.NoError(t, err)
	assert.False(t, check.Available)
	require.Len(t, check.Conflicts, 1)
	assert.Equal(t, result.Booking.ID, check.Conflicts[0].BookingID)

	_, err = f.commands.CancelBooking(ctx, commands.CancelBookingInput{
		BookingID: result.Booking.ID,
		UserID:    f.userID,
	})
	require.NoError(t, err)

	check, err = f.availability.Check(ctx, f.resource.ID(), tuesday(10, 0), tuesday(12, 0))
	require.NoError(t, err)
	assert.True(t, check.Available, "the cancelled window must be bookable again")
	assert.Empty(t, check.Conflicts)
}

func TestCancelBooking_RetriesVersionConflicts(t *testing.T) {
	f := newFixture(t)
	b := f.seedConfirmedBooking(t, tuesday(10, 0), tuesday(12, 0), 13000)
	f.bookings.versionFailures = 2

	view, err := f.commands.CancelBooking(context.Background(), commands.CancelBookingInput{
		BookingID: b.ID(),
		UserID:    f.userID,
		Reason:    "retry me",
	})

	require.NoError(t, err)
	assert.Equal(t, string(booking.StatusCancelled), view.Status)
	assert.Equal(t, booking.StatusCancelled, f.bookings.get(b.ID()).Status())
}

func TestCancelBooking_GivesUpAfterRepeatedVersionConflicts(t *testing.T) {
	f := newFixture(t)
	b := f.seedConfirmedBooking(t, tuesday(10, 0), tuesday(12, 0), 13000)
	f.bookings.versionFailures = 100

	_, err := f.commands.CancelBooking(context.Background(), commands.CancelBookingInput{
		BookingID: b.ID(),
		UserID:    f.userID,
	})

	assert.ErrorIs(t, err, errs.ErrVersionConflict)
	assert.Equal(t, booking.StatusConfirmed, f.bookings.get(b.ID()).Status())
}
