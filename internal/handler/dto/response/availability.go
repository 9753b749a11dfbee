package response

import (
	"time"

	"bookhive/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type ConflictResponse struct {
	BookingID uuid.UUID `json:"bookingId"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Status    string    `json:"status"`
}

type AvailabilityResponse struct {
	Available    bool               `json:"available"`
	Reasons      []string           `json:"reasons,omitempty"`
	Conflicts    []ConflictResponse `json:"conflicts,omitempty"`
	Alternatives []TimeSlotResponse `json:"alternatives,omitempty"`
}

func FromAvailabilityResult(result queries.AvailabilityResult) AvailabilityResponse {
	var resp AvailabilityResponse
	_ = copier.Copy(&resp, &result)
	return resp
}
