package domain

import "time"

// OTPChallenge gates final booking confirmation. Only the bcrypt hash of the
// code is stored; attempts_remaining never goes below zero and only a resend
// resets it. One challenge per booking: issuing a new one replaces the old
// row, which invalidates the previous code.
type OTPChallenge struct {
	BookingID         string
	CodeHash          string
	GeneratedAt       time.Time
	ExpiresAt         time.Time
	AttemptsRemaining int
}

func (c *OTPChallenge) ExpiredAt(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
