package repository

import (
	"context"
	"errors"

	"github.com/festivo/vendorbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChallengeRepository reads and burns OTP challenges at verify time.
// Challenge creation and retirement ride inside booking transitions, see
// BookingRepository.
type ChallengeRepository interface {
	Get(ctx context.Context, bookingID string) (*domain.OTPChallenge, error)
	// ConsumeAttempt decrements attempts_remaining by one, never below zero,
	// and returns the remaining count.
	ConsumeAttempt(ctx context.Context, bookingID string) (int, error)
}

type PGChallengeRepository struct {
	db *pgxpool.Pool
}

func NewChallengeRepository(db *pgxpool.Pool) ChallengeRepository {
	return &PGChallengeRepository{db: db}
}

func (r *PGChallengeRepository) Get(ctx context.Context, bookingID string) (*domain.OTPChallenge, error) {
	row := r.db.QueryRow(ctx, `SELECT booking_id, code_hash, generated_at, expires_at, attempts_remaining
		FROM otp_challenges WHERE booking_id=$1`, bookingID)
	var ch domain.OTPChallenge
	err := row.Scan(&ch.BookingID, &ch.CodeHash, &ch.GeneratedAt, &ch.ExpiresAt, &ch.AttemptsRemaining)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrChallengeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func (r *PGChallengeRepository) ConsumeAttempt(ctx context.Context, bookingID string) (int, error) {
	var remaining int
	err := r.db.QueryRow(ctx, `UPDATE otp_challenges SET attempts_remaining = attempts_remaining - 1
		WHERE booking_id=$1 AND attempts_remaining > 0 RETURNING attempts_remaining`, bookingID).
		Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		// Attempts already at zero, or no challenge at all.
		ch, getErr := r.Get(ctx, bookingID)
		if getErr != nil {
			return 0, getErr
		}
		return ch.AttemptsRemaining, nil
	}
	return remaining, err
}

var _ ChallengeRepository = (*PGChallengeRepository)(nil)
