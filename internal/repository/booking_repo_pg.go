package repository

import (
	"context"
	"errors"

	"github.com/festivo/vendorbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// BookingRepository persists bookings and executes every transition as a
// compare-and-swap on the current status. Methods that carry a side effect
// (hold acquisition, hold release, challenge writes) run it in the same
// transaction as the status update, so a partially applied transition is
// never observable.
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.BookingStatus) (*domain.Booking, error)
	UpdateStatusAcquiringHold(ctx context.Context, id string, from, to domain.BookingStatus, hold *domain.ShiftHold) (*domain.Booking, error)
	UpdateStatusReleasingHold(ctx context.Context, id string, from, to domain.BookingStatus) (*domain.Booking, error)
	UpdateStatusWithChallenge(ctx context.Context, id string, from, to domain.BookingStatus, ch *domain.OTPChallenge) (*domain.Booking, error)
	UpdateStatusRetiringChallenge(ctx context.Context, id string, from, to domain.BookingStatus) (*domain.Booking, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, vendor_id, user_id, shift_id, package_id, event_date, event_time, event_address, special_requirement, status, version, created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.VendorID, &b.UserID, &b.ShiftID, &b.PackageID, &b.EventDate, &b.EventTime, &b.EventAddress, &b.SpecialRequirement, &b.Status, &b.Version, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	return r.db.QueryRow(ctx, `INSERT INTO bookings (id, vendor_id, user_id, shift_id, package_id, event_date, event_time, event_address, special_requirement, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING version, created_at, updated_at`,
		booking.ID, booking.VendorID, booking.UserID, booking.ShiftID, booking.PackageID, booking.EventDate, booking.EventTime, booking.EventAddress, booking.SpecialRequirement, booking.Status).
		Scan(&booking.Version, &booking.CreatedAt, &booking.UpdatedAt)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBookingNotFound
	}
	return b, err
}

// casStatus moves the booking from one status to another inside q. Zero rows
// means the booking is gone or another transition won the race.
func casStatus(ctx context.Context, q pgx.Tx, id string, from, to domain.BookingStatus) (*domain.Booking, error) {
	b, err := scanBooking(q.QueryRow(ctx, `UPDATE bookings SET status=$1, version=version+1, updated_at=now()
		WHERE id=$2 AND status=$3 RETURNING `+bookingColumns, to, id, from))
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if chkErr := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE id=$1)`, id).Scan(&exists); chkErr != nil {
			return nil, chkErr
		}
		if !exists {
			return nil, domain.ErrBookingNotFound
		}
		return nil, domain.ErrConflict
	}
	return b, err
}

func (r *PGBookingRepository) inTx(ctx context.Context, fn func(tx pgx.Tx) (*domain.Booking, error)) (*domain.Booking, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	b, err := fn(tx)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *PGBookingRepository) UpdateStatus(ctx context.Context, id string, from, to domain.BookingStatus) (*domain.Booking, error) {
	return r.inTx(ctx, func(tx pgx.Tx) (*domain.Booking, error) {
		return casStatus(ctx, tx, id, from, to)
	})
}

// UpdateStatusAcquiringHold commits the transition together with a new shift
// hold. The partial unique index on active holds makes the insert the
// linearization point for the slot; a duplicate maps to ErrAlreadyReserved.
func (r *PGBookingRepository) UpdateStatusAcquiringHold(ctx context.Context, id string, from, to domain.BookingStatus, hold *domain.ShiftHold) (*domain.Booking, error) {
	return r.inTx(ctx, func(tx pgx.Tx) (*domain.Booking, error) {
		b, err := casStatus(ctx, tx, id, from, to)
		if err != nil {
			return nil, err
		}
		err = tx.QueryRow(ctx, `INSERT INTO shift_holds (vendor_id, shift_id, event_date, holder_kind, holder_ref)
			VALUES ($1, $2, $3, $4, $5) RETURNING id, acquired_at`,
			hold.VendorID, hold.ShiftID, hold.EventDate, hold.HolderKind, hold.HolderRef).
			Scan(&hold.ID, &hold.AcquiredAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return nil, domain.ErrAlreadyReserved
			}
			return nil, err
		}
		return b, nil
	})
}

// UpdateStatusReleasingHold commits the transition and releases the
// booking's active hold. The release is idempotent: zero matched hold rows
// is not an error.
func (r *PGBookingRepository) UpdateStatusReleasingHold(ctx context.Context, id string, from, to domain.BookingStatus) (*domain.Booking, error) {
	return r.inTx(ctx, func(tx pgx.Tx) (*domain.Booking, error) {
		b, err := casStatus(ctx, tx, id, from, to)
		if err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx, `UPDATE shift_holds SET released_at=now()
			WHERE holder_kind=$1 AND holder_ref=$2 AND released_at IS NULL`,
			domain.HolderKindBooking, id); err != nil {
			return nil, err
		}
		return b, nil
	})
}

// UpdateStatusWithChallenge commits the transition together with a fresh OTP
// challenge. The upsert replaces any prior challenge row, which is what
// invalidates the previous code on resend.
func (r *PGBookingRepository) UpdateStatusWithChallenge(ctx context.Context, id string, from, to domain.BookingStatus, ch *domain.OTPChallenge) (*domain.Booking, error) {
	return r.inTx(ctx, func(tx pgx.Tx) (*domain.Booking, error) {
		b, err := casStatus(ctx, tx, id, from, to)
		if err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx, `INSERT INTO otp_challenges (booking_id, code_hash, generated_at, expires_at, attempts_remaining)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (booking_id) DO UPDATE SET code_hash=EXCLUDED.code_hash, generated_at=EXCLUDED.generated_at, expires_at=EXCLUDED.expires_at, attempts_remaining=EXCLUDED.attempts_remaining`,
			ch.BookingID, ch.CodeHash, ch.GeneratedAt, ch.ExpiresAt, ch.AttemptsRemaining); err != nil {
			return nil, err
		}
		return b, nil
	})
}

// UpdateStatusRetiringChallenge commits the transition and deletes the
// booking's challenge so a verified code can never be replayed.
func (r *PGBookingRepository) UpdateStatusRetiringChallenge(ctx context.Context, id string, from, to domain.BookingStatus) (*domain.Booking, error) {
	return r.inTx(ctx, func(tx pgx.Tx) (*domain.Booking, error) {
		b, err := casStatus(ctx, tx, id, from, to)
		if err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM otp_challenges WHERE booking_id=$1`, id); err != nil {
			return nil, err
		}
		return b, nil
	})
}

var _ BookingRepository = (*PGBookingRepository)(nil)
