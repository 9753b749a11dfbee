package request

import (
	"time"

	"bookhive/internal/domain/payment"

	"github.com/google/uuid"
)

type CreateBookingRequest struct {
	ResourceID    uuid.UUID `json:"resource_id" binding:"required"`
	StartTime     time.Time `json:"start_time" binding:"required"`
	EndTime       time.Time `json:"end_time" binding:"required"`
	PaymentMethod string    `json:"payment_method" binding:"required"`
}

func (r CreateBookingRequest) Method() payment.Method {
	return payment.Method(r.PaymentMethod)
}

type CancelBookingRequest struct {
	Reason string `json:"reason"`
}
