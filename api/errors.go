package api

import (
	"errors"
	"net/http"

	"github.com/festivo/vendorbooking/internal/domain"
	"github.com/gin-gonic/gin"
)

// respondError maps the core error taxonomy onto HTTP statuses. OTP errors
// pass through verbatim so the client can drive its resend prompt.
func respondError(c *gin.Context, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, domain.ErrBookingNotFound),
		errors.Is(err, domain.ErrChallengeNotFound),
		errors.Is(err, domain.ErrReviewNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrNotReviewable):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrAlreadyReserved),
		errors.Is(err, domain.ErrAlreadyReviewed):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrExpired):
		status = http.StatusGone
	case errors.Is(err, domain.ErrAttemptsExhausted),
		errors.Is(err, domain.ErrResendNotAllowed):
		status = http.StatusTooManyRequests
	case errors.Is(err, domain.ErrInvalidCode):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
