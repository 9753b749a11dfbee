package queries

import (
	"time"

	"github.com/google/uuid"
)

type ConflictView struct {
	BookingID uuid.UUID `json:"booking_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Status    string    `json:"status"`
}

type TimeSlotView struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	PriceCents int64     `json:"price_cents"`
}

type AvailabilityResult struct {
	Available    bool           `json:"available"`
	Reasons      []string       `json:"reasons,omitempty"`
	Conflicts    []ConflictView `json:"conflicts,omitempty"`
	Alternatives []TimeSlotView `json:"alternatives,omitempty"`
}

type BookingView struct {
	ID                 uuid.UUID `json:"id"`
	ResourceID         uuid.UUID `json:"resource_id"`
	UserID             uuid.UUID `json:"user_id"`
	Start              time.Time `json:"start"`
	End                time.Time `json:"end"`
	Status             string    `json:"status"`
	PriceCents         int64     `json:"price_cents"`
	Version            int32     `json:"version"`
	CancellationReason *string   `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
