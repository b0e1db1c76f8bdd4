package repository

import (
	"context"
	"errors"

	"github.com/festivo/vendorbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// HoldRepository is the ledger's storage. Booking-owned holds are written by
// BookingRepository inside transition transactions; this repository carries
// the standalone paths: availability reads and manual vendor reservations.
type HoldRepository interface {
	ActiveHold(ctx context.Context, key domain.SlotKey) (*domain.ShiftHold, error)
	Acquire(ctx context.Context, hold *domain.ShiftHold) error
	Release(ctx context.Context, key domain.SlotKey) error
	ListActiveForVendor(ctx context.Context, vendorID int64, date string) ([]domain.ShiftHold, error)
}

type PGHoldRepository struct {
	db *pgxpool.Pool
}

func NewHoldRepository(db *pgxpool.Pool) HoldRepository {
	return &PGHoldRepository{db: db}
}

const holdColumns = `id, vendor_id, shift_id, event_date, holder_kind, holder_ref, acquired_at, released_at`

func (r *PGHoldRepository) ActiveHold(ctx context.Context, key domain.SlotKey) (*domain.ShiftHold, error) {
	row := r.db.QueryRow(ctx, `SELECT `+holdColumns+` FROM shift_holds
		WHERE vendor_id=$1 AND shift_id=$2 AND event_date=$3 AND released_at IS NULL`,
		key.VendorID, key.ShiftID, key.EventDate)
	var h domain.ShiftHold
	err := row.Scan(&h.ID, &h.VendorID, &h.ShiftID, &h.EventDate, &h.HolderKind, &h.HolderRef, &h.AcquiredAt, &h.ReleasedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrHoldNotFound
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *PGHoldRepository) Acquire(ctx context.Context, hold *domain.ShiftHold) error {
	err := r.db.QueryRow(ctx, `INSERT INTO shift_holds (vendor_id, shift_id, event_date, holder_kind, holder_ref)
		VALUES ($1, $2, $3, $4, $5) RETURNING id, acquired_at`,
		hold.VendorID, hold.ShiftID, hold.EventDate, hold.HolderKind, hold.HolderRef).
		Scan(&hold.ID, &hold.AcquiredAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrAlreadyReserved
		}
		return err
	}
	return nil
}

// Release is idempotent: releasing a slot with no active hold is a no-op.
func (r *PGHoldRepository) Release(ctx context.Context, key domain.SlotKey) error {
	_, err := r.db.Exec(ctx, `UPDATE shift_holds SET released_at=now()
		WHERE vendor_id=$1 AND shift_id=$2 AND event_date=$3 AND released_at IS NULL`,
		key.VendorID, key.ShiftID, key.EventDate)
	return err
}

func (r *PGHoldRepository) ListActiveForVendor(ctx context.Context, vendorID int64, date string) ([]domain.ShiftHold, error) {
	rows, err := r.db.Query(ctx, `SELECT `+holdColumns+` FROM shift_holds
		WHERE vendor_id=$1 AND event_date=$2 AND released_at IS NULL ORDER BY shift_id`, vendorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holds []domain.ShiftHold
	for rows.Next() {
		var h domain.ShiftHold
		if err := rows.Scan(&h.ID, &h.VendorID, &h.ShiftID, &h.EventDate, &h.HolderKind, &h.HolderRef, &h.AcquiredAt, &h.ReleasedAt); err != nil {
			return nil, err
		}
		holds = append(holds, h)
	}
	return holds, rows.Err()
}

var _ HoldRepository = (*PGHoldRepository)(nil)
