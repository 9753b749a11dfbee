package api

import (
	"context"
	"errors"
	"net/http"

	reqdto "bookhive/internal/handler/dto/request"
	resdto "bookhive/internal/handler/dto/response"
	"bookhive/internal/handler/middleware"
	"bookhive/internal/pkg/errs"
	"bookhive/internal/usecase/commands"
	"bookhive/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BookingCommands interface {
	CreateBooking(ctx context.Context, in commands.CreateBookingInput) (commands.CreateBookingResult, error)
	CancelBooking(ctx context.Context, in commands.CancelBookingInput) (queries.BookingView, error)
}

type BookingQueries interface {
	GetByID(ctx context.Context, id uuid.UUID) (queries.BookingView, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]queries.BookingView, error)
}

type BookingHandler struct {
	commands BookingCommands
	queries  BookingQueries
}

func NewBookingHandler(commands BookingCommands, queries BookingQueries) *BookingHandler {
	return &BookingHandler{commands: commands, queries: queries}
}

func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var req reqdto.CreateBookingRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	result, err := h.commands.CreateBooking(c.Request.Context(), commands.CreateBookingInput{
		ResourceID: req.ResourceID,
		UserID:     userID,
		Start:      req.StartTime,
		End:        req.EndTime,
		Method:     req.Method(),
	})
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrResourceNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
		case errors.Is(err, errs.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		case errors.Is(err, errs.ErrValidation):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, errs.ErrBookingConflict):
			c.JSON(http.StatusConflict, gin.H{
				"error":        "Requested period is not available",
				"alternatives": resdto.FromTimeSlotViews(result.Alternatives),
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	status := http.StatusCreated
	switch result.Outcome {
	case commands.OutcomePendingPayment:
		status = http.StatusAccepted
	case commands.OutcomeFailed:
		status = http.StatusPaymentRequired
	}
	c.JSON(status, resdto.FromCreateBookingResult(result))
}

func (h *BookingHandler) CancelBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID format"})
		return
	}

	var req reqdto.CancelBookingRequest
	if c.Request.ContentLength > 0 {
		if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
			return
		}
	}

	view, err := h.commands.CancelBooking(c.Request.Context(), commands.CancelBookingInput{
		BookingID: bookingID,
		UserID:    userID,
		Reason:    req.Reason,
	})
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrBookingNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		case errors.Is(err, errs.ErrNotOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "Booking belongs to another user"})
		case errors.Is(err, errs.ErrCancellationWindow):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Bookings can only be cancelled more than 24 hours before they start"})
		case errors.Is(err, errs.ErrNotCancellable):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Booking can no longer be cancelled"})
		case errors.Is(err, errs.ErrVersionConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "Booking was modified concurrently, please retry"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, resdto.FromBookingView(view))
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID format"})
		return
	}

	view, err := h.queries.GetByID(c.Request.Context(), bookingID)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrBookingNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, resdto.FromBookingView(view))
}

func (h *BookingHandler) GetUserBookings(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	views, err := h.queries.ListByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, resdto.FromBookingViews(views))
}
