package request

import (
	"time"

	"github.com/google/uuid"
)

type AvailabilityQuery struct {
	ResourceID uuid.UUID `form:"resource_id" binding:"required"`
	Start      time.Time `form:"start" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	End        time.Time `form:"end" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
}
