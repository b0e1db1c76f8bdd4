package review

import (
	"context"
	"log"
	"time"

	"github.com/festivo/vendorbooking/internal/domain"
	"github.com/festivo/vendorbooking/internal/kafka"
	"github.com/festivo/vendorbooking/internal/repository"
)

type ReviewUseCase interface {
	SubmitReview(ctx context.Context, input SubmitReviewInput) (*domain.Review, error)
	UpdateReview(ctx context.Context, input SubmitReviewInput) (*domain.Review, error)
	GetReview(ctx context.Context, bookingID string) (*domain.Review, error)
	VendorRating(ctx context.Context, vendorID int64) (*domain.VendorRating, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// ReviewService is the review gate: exactly one review per booking, only
// once the booking is in a reviewable status. Submitting flips the booking
// to reviewed and updates the vendor's rating aggregate in one transaction.
type ReviewService struct {
	reviews            repository.ReviewRepository
	bookings           repository.BookingRepository
	producer           Producer
	notificationsTopic string
	allowFromCompleted bool
}

type SubmitReviewInput struct {
	BookingID      string `json:"booking_id"`
	Rating         int    `json:"rating"`
	ServiceQuality int    `json:"service_quality"`
	Communication  int    `json:"communication"`
	ValueForMoney  int    `json:"value_for_money"`
	Punctuality    int    `json:"punctuality"`
	ReviewText     string `json:"review_text"`
}

func NewReviewService(reviews repository.ReviewRepository, bookings repository.BookingRepository, producer Producer, notificationsTopic string, allowFromCompleted bool) *ReviewService {
	return &ReviewService{
		reviews:            reviews,
		bookings:           bookings,
		producer:           producer,
		notificationsTopic: notificationsTopic,
		allowFromCompleted: allowFromCompleted,
	}
}

func (s *ReviewService) SubmitReview(ctx context.Context, input SubmitReviewInput) (*domain.Review, error) {
	booking, err := s.bookings.GetByID(ctx, input.BookingID)
	if err != nil {
		return nil, err
	}
	if !s.reviewable(booking.Status) {
		return nil, domain.ErrNotReviewable
	}

	review := &domain.Review{
		BookingID:      booking.ID,
		VendorID:       booking.VendorID,
		Rating:         input.Rating,
		ServiceQuality: input.ServiceQuality,
		Communication:  input.Communication,
		ValueForMoney:  input.ValueForMoney,
		Punctuality:    input.Punctuality,
		ReviewText:     input.ReviewText,
	}
	review.ApplySubratingDefaults()
	if err := review.Validate(); err != nil {
		return nil, err
	}

	if err := s.reviews.CreateWithAggregate(ctx, review, booking.Status); err != nil {
		return nil, err
	}

	s.publish(ctx, booking)
	return review, nil
}

// UpdateReview rewrites an existing review without touching booking status.
func (s *ReviewService) UpdateReview(ctx context.Context, input SubmitReviewInput) (*domain.Review, error) {
	existing, err := s.reviews.GetByBookingID(ctx, input.BookingID)
	if err != nil {
		return nil, err
	}

	review := &domain.Review{
		BookingID:      existing.BookingID,
		VendorID:       existing.VendorID,
		Rating:         input.Rating,
		ServiceQuality: input.ServiceQuality,
		Communication:  input.Communication,
		ValueForMoney:  input.ValueForMoney,
		Punctuality:    input.Punctuality,
		ReviewText:     input.ReviewText,
		CreatedAt:      existing.CreatedAt,
	}
	review.ApplySubratingDefaults()
	if err := review.Validate(); err != nil {
		return nil, err
	}

	if err := s.reviews.UpdateWithAggregate(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) GetReview(ctx context.Context, bookingID string) (*domain.Review, error) {
	return s.reviews.GetByBookingID(ctx, bookingID)
}

func (s *ReviewService) VendorRating(ctx context.Context, vendorID int64) (*domain.VendorRating, error) {
	return s.reviews.VendorRating(ctx, vendorID)
}

func (s *ReviewService) reviewable(status domain.BookingStatus) bool {
	if status == domain.StatusAwaitingReview {
		return true
	}
	return s.allowFromCompleted && status == domain.StatusCompleted
}

func (s *ReviewService) publish(ctx context.Context, booking *domain.Booking) {
	if s.producer == nil || s.notificationsTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:       kafka.EventReviewSubmitted,
		BookingID:  booking.ID,
		VendorID:   booking.VendorID,
		UserID:     booking.UserID,
		ShiftID:    booking.ShiftID,
		EventDate:  booking.EventDate.Format(domain.DateLayout),
		Status:     string(domain.StatusReviewed),
		OccurredAt: time.Now(),
	}
	if err := s.producer.Publish(ctx, s.notificationsTopic, booking.ID, event); err != nil {
		log.Printf("WARNING: publish review_submitted for booking %s: %v", booking.ID, err)
	}
}

var _ ReviewUseCase = (*ReviewService)(nil)
