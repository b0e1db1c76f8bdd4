package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/festivo/vendorbooking/internal/domain"
	"github.com/festivo/vendorbooking/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

const codeDigits = 1000000

// Manager owns the OTP challenge rules: 6-digit codes, hashed at rest, fixed
// TTL, a hard attempt budget and a late-window resend policy. Expiry is
// evaluated lazily at verify time; nothing sweeps challenges in the
// background. Challenge persistence rides inside booking transitions, so
// Issue only builds the challenge and Verify only consumes state.
type Manager struct {
	challenges   repository.ChallengeRepository
	ttl          time.Duration
	attempts     int
	resendWindow time.Duration
	bcryptCost   int
	now          func() time.Time
}

type ManagerOption func(*Manager)

// WithClock replaces the time source. Tests use it to step through expiry
// and resend windows.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

func NewManager(challenges repository.ChallengeRepository, ttl time.Duration, attempts int, resendWindow time.Duration, bcryptCost int, opts ...ManagerOption) *Manager {
	m := &Manager{
		challenges:   challenges,
		ttl:          ttl,
		attempts:     attempts,
		resendWindow: resendWindow,
		bcryptCost:   bcryptCost,
		now:          time.Now,
	}
	if m.bcryptCost == 0 {
		m.bcryptCost = bcrypt.DefaultCost
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Issue builds a fresh challenge and returns it together with the plaintext
// code. The code leaves this package only toward the notification topic; the
// stored row keeps the bcrypt hash.
func (m *Manager) Issue(bookingID string) (*domain.OTPChallenge, string, error) {
	code, err := generateCode()
	if err != nil {
		return nil, "", fmt.Errorf("generate otp code: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), m.bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash otp code: %w", err)
	}

	now := m.now()
	return &domain.OTPChallenge{
		BookingID:         bookingID,
		CodeHash:          string(hash),
		GeneratedAt:       now,
		ExpiresAt:         now.Add(m.ttl),
		AttemptsRemaining: m.attempts,
	}, code, nil
}

// Verify checks the supplied code against the booking's active challenge.
// Expiry never consumes an attempt. A mismatch consumes exactly one attempt
// and reports ErrInvalidCode, or ErrAttemptsExhausted when the last attempt
// was just burned. Once exhausted, even the correct code is rejected until a
// resend.
func (m *Manager) Verify(ctx context.Context, bookingID, code string) error {
	ch, err := m.challenges.Get(ctx, bookingID)
	if err != nil {
		return err
	}

	if ch.ExpiredAt(m.now()) {
		return domain.ErrExpired
	}
	if ch.AttemptsRemaining <= 0 {
		return domain.ErrAttemptsExhausted
	}

	if bcrypt.CompareHashAndPassword([]byte(ch.CodeHash), []byte(code)) != nil {
		remaining, consumeErr := m.challenges.ConsumeAttempt(ctx, bookingID)
		if consumeErr != nil {
			return consumeErr
		}
		if remaining <= 0 {
			return domain.ErrAttemptsExhausted
		}
		return domain.ErrInvalidCode
	}

	return nil
}

// CheckResend enforces the resend gate: a live challenge with attempts left
// blocks resend until it enters its final resendWindow. An expired or
// exhausted challenge can always be replaced.
func (m *Manager) CheckResend(ctx context.Context, bookingID string) error {
	ch, err := m.challenges.Get(ctx, bookingID)
	if err != nil {
		return err
	}

	now := m.now()
	if ch.ExpiredAt(now) || ch.AttemptsRemaining <= 0 {
		return nil
	}
	if now.Before(ch.ExpiresAt.Add(-m.resendWindow)) {
		return domain.ErrResendNotAllowed
	}
	return nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeDigits))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
