package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	reqdto "bookhive/internal/handler/dto/request"
	resdto "bookhive/internal/handler/dto/response"
	"bookhive/internal/pkg/errs"
	"bookhive/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AvailabilityChecker interface {
	Check(ctx context.Context, resourceID uuid.UUID, start, end time.Time) (queries.AvailabilityResult, error)
}

type AvailabilityHandler struct {
	availability AvailabilityChecker
}

func NewAvailabilityHandler(availability AvailabilityChecker) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availability}
}

func (h *AvailabilityHandler) CheckAvailability(c *gin.Context) {
	var query reqdto.AvailabilityQuery
	if bindErr := c.ShouldBindQuery(&query); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	result, err := h.availability.Check(c.Request.Context(), query.ResourceID, query.Start, query.End)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrResourceNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, resdto.FromAvailabilityResult(result))
}
