package repository

import (
	"context"
	"errors"

	"github.com/festivo/vendorbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReviewRepository persists reviews and keeps the vendor rating aggregate in
// step with them. Insert, booking status flip and aggregate update share one
// transaction so readers never see a partially applied aggregate.
type ReviewRepository interface {
	CreateWithAggregate(ctx context.Context, review *domain.Review, fromStatus domain.BookingStatus) error
	GetByBookingID(ctx context.Context, bookingID string) (*domain.Review, error)
	UpdateWithAggregate(ctx context.Context, review *domain.Review) error
	VendorRating(ctx context.Context, vendorID int64) (*domain.VendorRating, error)
}

type PGReviewRepository struct {
	db *pgxpool.Pool
}

func NewReviewRepository(db *pgxpool.Pool) ReviewRepository {
	return &PGReviewRepository{db: db}
}

func (r *PGReviewRepository) CreateWithAggregate(ctx context.Context, review *domain.Review, fromStatus domain.BookingStatus) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `INSERT INTO reviews (booking_id, vendor_id, rating, service_quality, communication, value_for_money, punctuality, review_text)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at, updated_at`,
		review.BookingID, review.VendorID, review.Rating, review.ServiceQuality, review.Communication, review.ValueForMoney, review.Punctuality, review.ReviewText).
		Scan(&review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrAlreadyReviewed
		}
		return err
	}

	if _, err := casStatus(ctx, tx, review.BookingID, fromStatus, domain.StatusReviewed); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `INSERT INTO vendor_rating_aggregates (vendor_id, review_count, rating_sum, rating_avg)
		VALUES ($1, 1, $2, $2)
		ON CONFLICT (vendor_id) DO UPDATE SET
			review_count = vendor_rating_aggregates.review_count + 1,
			rating_sum   = vendor_rating_aggregates.rating_sum + EXCLUDED.rating_sum,
			rating_avg   = (vendor_rating_aggregates.rating_sum + EXCLUDED.rating_sum)::numeric / (vendor_rating_aggregates.review_count + 1)`,
		review.VendorID, review.Rating); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PGReviewRepository) GetByBookingID(ctx context.Context, bookingID string) (*domain.Review, error) {
	row := r.db.QueryRow(ctx, `SELECT booking_id, vendor_id, rating, service_quality, communication, value_for_money, punctuality, review_text, created_at, updated_at
		FROM reviews WHERE booking_id=$1`, bookingID)
	var rv domain.Review
	err := row.Scan(&rv.BookingID, &rv.VendorID, &rv.Rating, &rv.ServiceQuality, &rv.Communication, &rv.ValueForMoney, &rv.Punctuality, &rv.ReviewText, &rv.CreatedAt, &rv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrReviewNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

// UpdateWithAggregate rewrites an existing review and shifts the aggregate
// by the rating delta. Booking status is left untouched.
func (r *PGReviewRepository) UpdateWithAggregate(ctx context.Context, review *domain.Review) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var oldRating int
	err = tx.QueryRow(ctx, `SELECT rating FROM reviews WHERE booking_id=$1 FOR UPDATE`, review.BookingID).Scan(&oldRating)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrReviewNotFound
	}
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `UPDATE reviews SET rating=$1, service_quality=$2, communication=$3, value_for_money=$4, punctuality=$5, review_text=$6, updated_at=now()
		WHERE booking_id=$7 RETURNING updated_at`,
		review.Rating, review.ServiceQuality, review.Communication, review.ValueForMoney, review.Punctuality, review.ReviewText, review.BookingID).
		Scan(&review.UpdatedAt)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `UPDATE vendor_rating_aggregates SET
			rating_sum = rating_sum + $1,
			rating_avg = (rating_sum + $1)::numeric / review_count
		WHERE vendor_id=$2`,
		review.Rating-oldRating, review.VendorID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PGReviewRepository) VendorRating(ctx context.Context, vendorID int64) (*domain.VendorRating, error) {
	row := r.db.QueryRow(ctx, `SELECT vendor_id, review_count, rating_sum, rating_avg
		FROM vendor_rating_aggregates WHERE vendor_id=$1`, vendorID)
	var agg domain.VendorRating
	err := row.Scan(&agg.VendorID, &agg.ReviewCount, &agg.RatingSum, &agg.RatingAvg)
	if errors.Is(err, pgx.ErrNoRows) {
		return &domain.VendorRating{VendorID: vendorID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &agg, nil
}

var _ ReviewRepository = (*PGReviewRepository)(nil)
