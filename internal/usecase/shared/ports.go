package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DistributedLock is a short-lived, token-checked mutual exclusion primitive.
// Acquire is a set-if-absent with expiry; Release only succeeds when the
// caller still owns the lock (same token), so a worker whose TTL expired
// cannot release a lock someone else now holds.
type DistributedLock interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Release(ctx context.Context, key, token string) (bool, error)
}

// BusyInterval is one active booking's slice of a resource's day.
type BusyInterval struct {
	BookingID uuid.UUID `json:"booking_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Status    string    `json:"status"`
}

// AvailabilitySnapshot is the cached availability state of one resource for
// one calendar day. It is ephemeral and fully reconstructible from booking
// rows; the write path never trusts it.
type AvailabilitySnapshot struct {
	ResourceID uuid.UUID      `json:"resource_id"`
	Date       time.Time      `json:"date"`
	Busy       []BusyInterval `json:"busy"`
	ComputedAt time.Time      `json:"computed_at"`
}

type NotificationKind string

const (
	NotificationBookingConfirmed NotificationKind = "booking_confirmed"
	NotificationBookingCancelled NotificationKind = "booking_cancelled"
	NotificationPaymentPending   NotificationKind = "payment_pending"
	NotificationPaymentFailed    NotificationKind = "payment_failed"
	NotificationRefundIssued     NotificationKind = "refund_issued"
)

// NotificationJob is an outbox entry; a separate worker drains the queue and
// performs the actual delivery.
type NotificationJob struct {
	BookingID uuid.UUID
	UserID    uuid.UUID
	Kind      NotificationKind
	Payload   map[string]any
}

// Notifier enqueues notification jobs. Delivery failures never fail the
// business operation that triggered them.
type Notifier interface {
	Enqueue(ctx context.Context, job NotificationJob) error
}

// AvailabilityCache is a TTL-bound read-through cache keyed by
// (resource, date). Get returns (nil, nil) on a miss.
type AvailabilityCache interface {
	Get(ctx context.Context, resourceID uuid.UUID, date time.Time) (*AvailabilitySnapshot, error)
	Put(ctx context.Context, snapshot *AvailabilitySnapshot, ttl time.Duration) error
	Evict(ctx context.Context, resourceID uuid.UUID, date time.Time) error
}
