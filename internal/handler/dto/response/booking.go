package response

import (
	"time"

	"bookhive/internal/usecase/commands"
	"bookhive/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type BookingResponse struct {
	ID                 uuid.UUID `json:"id"`
	ResourceID         uuid.UUID `json:"resourceId"`
	UserID             uuid.UUID `json:"userId"`
	Start              time.Time `json:"start"`
	End                time.Time `json:"end"`
	Status             string    `json:"status"`
	PriceCents         int64     `json:"priceCents"`
	Version            int32     `json:"version"`
	CancellationReason *string   `json:"cancellationReason,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

type TimeSlotResponse struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	PriceCents int64     `json:"priceCents"`
}

type CreateBookingResponse struct {
	Outcome       string             `json:"outcome"`
	Booking       BookingResponse    `json:"booking"`
	FailureReason string             `json:"failureReason,omitempty"`
	Alternatives  []TimeSlotResponse `json:"alternatives,omitempty"`
}

func FromBookingView(view queries.BookingView) BookingResponse {
	var resp BookingResponse
	_ = copier.Copy(&resp, &view)
	return resp
}

func FromBookingViews(views []queries.BookingView) []BookingResponse {
	out := make([]BookingResponse, 0, len(views))
	for _, v := range views {
		out = append(out, FromBookingView(v))
	}
	return out
}

func FromCreateBookingResult(result commands.CreateBookingResult) CreateBookingResponse {
	resp := CreateBookingResponse{
		Outcome:       string(result.Outcome),
		Booking:       FromBookingView(result.Booking),
		FailureReason: result.FailureReason,
	}
	_ = copier.Copy(&resp.Alternatives, &result.Alternatives)
	return resp
}

func FromTimeSlotViews(slots []queries.TimeSlotView) []TimeSlotResponse {
	var out []TimeSlotResponse
	_ = copier.Copy(&out, &slots)
	return out
}
