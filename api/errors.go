package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sportease/sportease/internal/domain"
)

// fail maps domain errors onto HTTP statuses. Unknown errors are treated
// as client failures, matching how validation errors surface everywhere
// in this API.
func fail(c *gin.Context, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, domain.ErrVenueNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrBookingNotFound),
		errors.Is(err, domain.ErrSlotNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrSlotConflict),
		errors.Is(err, domain.ErrSlotNotBookable),
		errors.Is(err, domain.ErrBookingNotPending):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrForbidden),
		errors.Is(err, domain.ErrReviewNotAllowed):
		status = http.StatusForbidden
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
