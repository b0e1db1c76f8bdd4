package domain

import "errors"

var (
	ErrBookingNotFound   = errors.New("booking not found")
	ErrInvalidTransition = errors.New("action is not legal from the current status")
	ErrForbidden         = errors.New("actor role is not permitted to perform this action")
	ErrConflict          = errors.New("booking was modified concurrently")
)

var (
	ErrAlreadyReserved = errors.New("slot already has an active hold")
	ErrHoldNotFound    = errors.New("no active hold for this slot")
)

var (
	ErrChallengeNotFound = errors.New("no active otp challenge for this booking")
	ErrExpired           = errors.New("otp challenge has expired")
	ErrInvalidCode       = errors.New("otp code does not match")
	ErrAttemptsExhausted = errors.New("otp attempts exhausted")
	ErrResendNotAllowed  = errors.New("otp resend is not allowed yet")
)

var (
	ErrNotReviewable   = errors.New("booking is not in a reviewable status")
	ErrAlreadyReviewed = errors.New("booking already has a review")
	ErrReviewNotFound  = errors.New("review not found")
)
