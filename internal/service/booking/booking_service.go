package booking

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/festivo/vendorbooking/internal/domain"
	"github.com/festivo/vendorbooking/internal/kafka"
	"github.com/festivo/vendorbooking/internal/repository"
	"github.com/google/uuid"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	GetBooking(ctx context.Context, id string) (*domain.Booking, error)
	VendorAccept(ctx context.Context, id string, role domain.Role) (*domain.Booking, error)
	VendorReject(ctx context.Context, id string, role domain.Role) (*domain.Booking, error)
	AdminApprove(ctx context.Context, id string, role domain.Role) (*domain.Booking, error)
	AdminReject(ctx context.Context, id string, role domain.Role) (*domain.Booking, error)
	UserCancel(ctx context.Context, id string, role domain.Role) (*domain.Booking, error)
	MarkCompleted(ctx context.Context, id string, role domain.Role) (*domain.Booking, error)
	OpenReviewWindow(ctx context.Context, id string, role domain.Role) (*domain.Booking, error)
	GenerateOTP(ctx context.Context, id string, role domain.Role) (*domain.OTPChallenge, error)
	VerifyOTP(ctx context.Context, id string, role domain.Role, code string) (*domain.Booking, error)
	ResendOTP(ctx context.Context, id string, role domain.Role) (*domain.OTPChallenge, error)
}

// Cache is the Redis slot-lock fast path. It narrows the approval race; the
// holds table stays authoritative.
type Cache interface {
	AcquireSlotLock(ctx context.Context, key domain.SlotKey, ttl time.Duration) (bool, error)
	ReleaseSlotLock(ctx context.Context, key domain.SlotKey) error
	InvalidateVendorHolds(ctx context.Context, vendorID int64, date string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// Challenger is the OTP challenge manager surface the state machine needs.
type Challenger interface {
	Issue(bookingID string) (*domain.OTPChallenge, string, error)
	Verify(ctx context.Context, bookingID, code string) error
	CheckResend(ctx context.Context, bookingID string) error
}

// BookingService is the authoritative booking state machine. Every mutation
// funnels through the transition table in internal/domain and commits as a
// status CAS, so concurrent actions on one booking yield exactly one winner.
type BookingService struct {
	bookings           repository.BookingRepository
	cache              Cache
	producer           Producer
	otp                Challenger
	bookingTopic       string
	notificationsTopic string
	slotLockTTL        time.Duration
}

type CreateBookingInput struct {
	UserID             int64  `json:"user_id"`
	VendorID           int64  `json:"vendor_id"`
	ShiftID            int64  `json:"shift_id"`
	PackageID          int64  `json:"package_id"`
	EventDate          string `json:"event_date"`
	EventTime          string `json:"event_time"`
	EventAddress       string `json:"event_address"`
	SpecialRequirement string `json:"special_requirement"`
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	cache Cache,
	producer Producer,
	otp Challenger,
	bookingTopic string,
	slotLockTTL time.Duration,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:     bookings,
		cache:        cache,
		producer:     producer,
		otp:          otp,
		bookingTopic: bookingTopic,
		slotLockTTL:  slotLockTTL,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	if input.UserID <= 0 || input.VendorID <= 0 || input.ShiftID <= 0 || input.PackageID <= 0 {
		return nil, errors.New("user, vendor, shift and package ids are required")
	}
	if input.EventAddress == "" {
		return nil, errors.New("event address is required")
	}
	eventDate, err := time.Parse(domain.DateLayout, input.EventDate)
	if err != nil {
		return nil, errors.New("event date must be formatted as YYYY-MM-DD")
	}

	booking := &domain.Booking{
		ID:                 uuid.NewString(),
		VendorID:           input.VendorID,
		UserID:             input.UserID,
		ShiftID:            input.ShiftID,
		PackageID:          input.PackageID,
		EventDate:          eventDate,
		EventTime:          input.EventTime,
		EventAddress:       input.EventAddress,
		SpecialRequirement: input.SpecialRequirement,
		Status:             domain.StatusPendingVendorResponse,
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, err
	}

	s.publish(ctx, kafka.EventBookingCreated, booking, nil)
	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (*domain.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

func (s *BookingService) VendorAccept(ctx context.Context, id string, role domain.Role) (*domain.Booking, error) {
	return s.simpleTransition(ctx, id, domain.ActionVendorAccept, role, kafka.EventVendorAccepted)
}

func (s *BookingService) VendorReject(ctx context.Context, id string, role domain.Role) (*domain.Booking, error) {
	return s.simpleTransition(ctx, id, domain.ActionVendorReject, role, kafka.EventVendorRejected)
}

func (s *BookingService) AdminReject(ctx context.Context, id string, role domain.Role) (*domain.Booking, error) {
	// No hold has been acquired yet at this point, so nothing to release.
	return s.simpleTransition(ctx, id, domain.ActionAdminReject, role, kafka.EventAdminRejected)
}

func (s *BookingService) MarkCompleted(ctx context.Context, id string, role domain.Role) (*domain.Booking, error) {
	return s.simpleTransition(ctx, id, domain.ActionEventCompleted, role, kafka.EventBookingCompleted)
}

func (s *BookingService) OpenReviewWindow(ctx context.Context, id string, role domain.Role) (*domain.Booking, error) {
	return s.simpleTransition(ctx, id, domain.ActionEnterReviewWindow, role, kafka.EventReviewWindowOpened)
}

// AdminApprove moves the booking to approved_by_admin_pending_otp and
// acquires the shift hold in the same transaction. The Redis SetNX lock
// rejects the obvious loser early; losing the insert race on the holds table
// surfaces as ErrAlreadyReserved either way.
func (s *BookingService) AdminApprove(ctx context.Context, id string, role domain.Role) (*domain.Booking, error) {
	booking, next, err := s.prepare(ctx, id, domain.ActionAdminApprove, role)
	if err != nil {
		return nil, err
	}

	key := domain.SlotKey{VendorID: booking.VendorID, ShiftID: booking.ShiftID, EventDate: booking.EventDate}
	locked, err := s.cache.AcquireSlotLock(ctx, key, s.slotLockTTL)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, domain.ErrAlreadyReserved
	}
	defer func() {
		_ = s.cache.ReleaseSlotLock(ctx, key)
	}()

	hold := &domain.ShiftHold{
		VendorID:   booking.VendorID,
		ShiftID:    booking.ShiftID,
		EventDate:  booking.EventDate,
		HolderKind: domain.HolderKindBooking,
		HolderRef:  booking.ID,
	}
	updated, err := s.bookings.UpdateStatusAcquiringHold(ctx, id, booking.Status, next, hold)
	if err != nil {
		return nil, err
	}

	_ = s.cache.InvalidateVendorHolds(ctx, key.VendorID, key.DateString())
	s.publish(ctx, kafka.EventAdminApproved, updated, nil)
	return updated, nil
}

// UserCancel is itself a transition, synchronous and immediate. When the
// booking owns a live hold the release commits in the same transaction.
func (s *BookingService) UserCancel(ctx context.Context, id string, role domain.Role) (*domain.Booking, error) {
	booking, next, err := s.prepare(ctx, id, domain.ActionUserCancel, role)
	if err != nil {
		return nil, err
	}

	var updated *domain.Booking
	if domain.HoldsSlot(booking.Status) {
		updated, err = s.bookings.UpdateStatusReleasingHold(ctx, id, booking.Status, next)
		if err == nil {
			key := domain.SlotKey{VendorID: booking.VendorID, ShiftID: booking.ShiftID, EventDate: booking.EventDate}
			_ = s.cache.ReleaseSlotLock(ctx, key)
			_ = s.cache.InvalidateVendorHolds(ctx, key.VendorID, key.DateString())
		}
	} else {
		updated, err = s.bookings.UpdateStatus(ctx, id, booking.Status, next)
	}
	if err != nil {
		return nil, err
	}

	s.publish(ctx, kafka.EventBookingCancelled, updated, nil)
	return updated, nil
}

// GenerateOTP issues the confirmation challenge and persists it atomically
// with the move to otp_verification_in_progress. The plaintext code travels
// only on the notifications topic.
func (s *BookingService) GenerateOTP(ctx context.Context, id string, role domain.Role) (*domain.OTPChallenge, error) {
	booking, next, err := s.prepare(ctx, id, domain.ActionOTPGenerate, role)
	if err != nil {
		return nil, err
	}

	challenge, code, err := s.otp.Issue(id)
	if err != nil {
		return nil, err
	}

	updated, err := s.bookings.UpdateStatusWithChallenge(ctx, id, booking.Status, next, challenge)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, kafka.EventOTPIssued, updated, &otpDetails{code: code, expires: challenge.ExpiresAt})
	return challenge, nil
}

// VerifyOTP confirms the booking on a matching code. OTP failures pass
// through verbatim so callers can prompt a resend; the booking never dies
// from exhausted attempts.
func (s *BookingService) VerifyOTP(ctx context.Context, id string, role domain.Role, code string) (*domain.Booking, error) {
	booking, next, err := s.prepare(ctx, id, domain.ActionOTPVerifyOK, role)
	if err != nil {
		return nil, err
	}

	if err := s.otp.Verify(ctx, id, code); err != nil {
		return nil, err
	}

	updated, err := s.bookings.UpdateStatusRetiringChallenge(ctx, id, booking.Status, next)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, kafka.EventBookingConfirmed, updated, nil)
	return updated, nil
}

// ResendOTP replaces the live challenge once the resend gate allows it,
// resetting the attempt budget and invalidating the previous code.
func (s *BookingService) ResendOTP(ctx context.Context, id string, role domain.Role) (*domain.OTPChallenge, error) {
	booking, next, err := s.prepare(ctx, id, domain.ActionOTPResend, role)
	if err != nil {
		return nil, err
	}

	if err := s.otp.CheckResend(ctx, id); err != nil {
		return nil, err
	}

	challenge, code, err := s.otp.Issue(id)
	if err != nil {
		return nil, err
	}

	updated, err := s.bookings.UpdateStatusWithChallenge(ctx, id, booking.Status, next, challenge)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, kafka.EventOTPIssued, updated, &otpDetails{code: code, expires: challenge.ExpiresAt})
	return challenge, nil
}

// prepare loads the booking and validates role and transition legality
// against the table. The returned status is what the CAS will assert.
func (s *BookingService) prepare(ctx context.Context, id string, action domain.Action, role domain.Role) (*domain.Booking, domain.BookingStatus, error) {
	if err := domain.Allowed(action, role); err != nil {
		return nil, "", err
	}

	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}

	next, err := domain.Next(booking.Status, action)
	if err != nil {
		return nil, "", err
	}
	return booking, next, nil
}

func (s *BookingService) simpleTransition(ctx context.Context, id string, action domain.Action, role domain.Role, eventType string) (*domain.Booking, error) {
	booking, next, err := s.prepare(ctx, id, action, role)
	if err != nil {
		return nil, err
	}

	updated, err := s.bookings.UpdateStatus(ctx, id, booking.Status, next)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, eventType, updated, nil)
	return updated, nil
}

type otpDetails struct {
	code    string
	expires time.Time
}

// publish mirrors the transition onto Kafka. Delivery failures are logged
// and never roll back the transition.
func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking, otp *otpDetails) {
	if s.producer == nil {
		return
	}

	event := kafka.BookingEvent{
		Type:       eventType,
		BookingID:  booking.ID,
		VendorID:   booking.VendorID,
		UserID:     booking.UserID,
		ShiftID:    booking.ShiftID,
		EventDate:  booking.EventDate.Format(domain.DateLayout),
		Status:     string(booking.Status),
		OccurredAt: time.Now(),
	}
	if otp != nil {
		event.OTPCode = otp.code
		event.OTPExpires = otp.expires
	}

	// OTP codes go to the notifications topic only; everything else fans out
	// to both.
	if otp == nil && s.bookingTopic != "" {
		if err := s.producer.Publish(ctx, s.bookingTopic, booking.ID, event); err != nil {
			log.Printf("WARNING: publish %s for booking %s: %v", eventType, booking.ID, err)
		}
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, booking.ID, event); err != nil {
			log.Printf("WARNING: publish %s notification for booking %s: %v", eventType, booking.ID, err)
		}
	}
}

var _ BookingUseCase = (*BookingService)(nil)
