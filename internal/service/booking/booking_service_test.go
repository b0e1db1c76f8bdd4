package booking

import (
	"context"
	"testing"
	"time"

	"github.com/festivo/vendorbooking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) UpdateStatus(ctx context.Context, id string, from, to domain.BookingStatus) (*domain.Booking, error) {
	args := m.Called(ctx, id, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) UpdateStatusAcquiringHold(ctx context.Context, id string, from, to domain.BookingStatus, hold *domain.ShiftHold) (*domain.Booking, error) {
	args := m.Called(ctx, id, from, to, hold)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) UpdateStatusReleasingHold(ctx context.Context, id string, from, to domain.BookingStatus) (*domain.Booking, error) {
	args := m.Called(ctx, id, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) UpdateStatusWithChallenge(ctx context.Context, id string, from, to domain.BookingStatus, ch *domain.OTPChallenge) (*domain.Booking, error) {
	args := m.Called(ctx, id, from, to, ch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) UpdateStatusRetiringChallenge(ctx context.Context, id string, from, to domain.BookingStatus) (*domain.Booking, error) {
	args := m.Called(ctx, id, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) AcquireSlotLock(ctx context.Context, key domain.SlotKey, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) ReleaseSlotLock(ctx context.Context, key domain.SlotKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCache) InvalidateVendorHolds(ctx context.Context, vendorID int64, date string) error {
	args := m.Called(ctx, vendorID, date)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

type MockChallenger struct {
	mock.Mock
}

func (m *MockChallenger) Issue(bookingID string) (*domain.OTPChallenge, string, error) {
	args := m.Called(bookingID)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*domain.OTPChallenge), args.String(1), args.Error(2)
}

func (m *MockChallenger) Verify(ctx context.Context, bookingID, code string) error {
	args := m.Called(ctx, bookingID, code)
	return args.Error(0)
}

func (m *MockChallenger) CheckResend(ctx context.Context, bookingID string) error {
	args := m.Called(ctx, bookingID)
	return args.Error(0)
}

type fixture struct {
	repo     *MockBookingRepository
	cache    *MockCache
	producer *MockProducer
	otp      *MockChallenger
	service  *BookingService
}

func newFixture() *fixture {
	f := &fixture{
		repo:     &MockBookingRepository{},
		cache:    &MockCache{},
		producer: &MockProducer{},
		otp:      &MockChallenger{},
	}
	f.service = NewBookingService(
		f.repo, f.cache, f.producer, f.otp,
		"booking-events", 30*time.Second,
		WithNotificationsTopic("booking-notifications"),
	)
	return f
}

func testBooking(status domain.BookingStatus) *domain.Booking {
	return &domain.Booking{
		ID:           "booking-42",
		VendorID:     7,
		UserID:       3,
		ShiftID:      2,
		PackageID:    5,
		EventDate:    time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC),
		EventTime:    "18:00",
		EventAddress: "12 Harbor Lane",
		Status:       status,
	}
}

func expectPublish(f *fixture, times int) {
	f.producer.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Times(times)
}

func TestCreateBooking_Success(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.repo.On("Create", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil).Once()
	expectPublish(f, 2)

	created, err := f.service.CreateBooking(ctx, CreateBookingInput{
		UserID:       3,
		VendorID:     7,
		ShiftID:      2,
		PackageID:    5,
		EventDate:    "2026-09-12",
		EventTime:    "18:00",
		EventAddress: "12 Harbor Lane",
	})

	assert.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, domain.StatusPendingVendorResponse, created.Status)
	assert.Equal(t, int64(7), created.VendorID)

	f.repo.AssertExpectations(t)
	f.producer.AssertExpectations(t)
}

func TestCreateBooking_ValidationErrors(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	testCases := []struct {
		name  string
		input CreateBookingInput
	}{
		{"missing vendor", CreateBookingInput{UserID: 3, ShiftID: 2, PackageID: 5, EventDate: "2026-09-12", EventAddress: "x"}},
		{"missing user", CreateBookingInput{VendorID: 7, ShiftID: 2, PackageID: 5, EventDate: "2026-09-12", EventAddress: "x"}},
		{"bad date", CreateBookingInput{UserID: 3, VendorID: 7, ShiftID: 2, PackageID: 5, EventDate: "12/09/2026", EventAddress: "x"}},
		{"missing address", CreateBookingInput{UserID: 3, VendorID: 7, ShiftID: 2, PackageID: 5, EventDate: "2026-09-12"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.service.CreateBooking(ctx, tc.input)
			assert.Error(t, err)
		})
	}
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestVendorAccept_Success(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	current := testBooking(domain.StatusPendingVendorResponse)
	accepted := testBooking(domain.StatusAcceptedPendingAdmin)

	f.repo.On("GetByID", ctx, "booking-42").Return(current, nil).Once()
	f.repo.On("UpdateStatus", ctx, "booking-42", domain.StatusPendingVendorResponse, domain.StatusAcceptedPendingAdmin).Return(accepted, nil).Once()
	expectPublish(f, 2)

	updated, err := f.service.VendorAccept(ctx, "booking-42", domain.RoleVendor)

	assert.NoError(t, err)
	assert.Equal(t, domain.StatusAcceptedPendingAdmin, updated.Status)
	f.repo.AssertExpectations(t)
}

func TestVendorAccept_WrongRole(t *testing.T) {
	f := newFixture()

	_, err := f.service.VendorAccept(context.Background(), "booking-42", domain.RoleUser)

	assert.ErrorIs(t, err, domain.ErrForbidden)
	f.repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestVendorAccept_IllegalFromStatus(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.repo.On("GetByID", ctx, "booking-42").Return(testBooking(domain.StatusConfirmed), nil).Once()

	_, err := f.service.VendorAccept(ctx, "booking-42", domain.RoleVendor)

	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	f.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestVendorAccept_LostRace(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.repo.On("GetByID", ctx, "booking-42").Return(testBooking(domain.StatusPendingVendorResponse), nil).Once()
	f.repo.On("UpdateStatus", ctx, "booking-42", domain.StatusPendingVendorResponse, domain.StatusAcceptedPendingAdmin).Return(nil, domain.ErrConflict).Once()

	_, err := f.service.VendorAccept(ctx, "booking-42", domain.RoleVendor)

	assert.ErrorIs(t, err, domain.ErrConflict)
	f.producer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminApprove_AcquiresHold(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	current := testBooking(domain.StatusAcceptedPendingAdmin)
	approved := testBooking(domain.StatusApprovedPendingOTP)
	key := domain.SlotKey{VendorID: 7, ShiftID: 2, EventDate: current.EventDate}

	f.repo.On("GetByID", ctx, "booking-42").Return(current, nil).Once()
	f.cache.On("AcquireSlotLock", ctx, key, 30*time.Second).Return(true, nil).Once()
	f.repo.On("UpdateStatusAcquiringHold", ctx, "booking-42", domain.StatusAcceptedPendingAdmin, domain.StatusApprovedPendingOTP, mock.AnythingOfType("*domain.ShiftHold")).
		Run(func(args mock.Arguments) {
			hold := args.Get(4).(*domain.ShiftHold)
			assert.Equal(t, domain.HolderKindBooking, hold.HolderKind)
			assert.Equal(t, "booking-42", hold.HolderRef)
			assert.Equal(t, int64(7), hold.VendorID)
		}).
		Return(approved, nil).Once()
	f.cache.On("InvalidateVendorHolds", ctx, int64(7), "2026-09-12").Return(nil).Once()
	f.cache.On("ReleaseSlotLock", ctx, key).Return(nil).Once()
	expectPublish(f, 2)

	updated, err := f.service.AdminApprove(ctx, "booking-42", domain.RoleAdmin)

	assert.NoError(t, err)
	assert.Equal(t, domain.StatusApprovedPendingOTP, updated.Status)
	f.repo.AssertExpectations(t)
	f.cache.AssertExpectations(t)
}

func TestAdminApprove_SlotLockDenied(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	current := testBooking(domain.StatusAcceptedPendingAdmin)
	key := domain.SlotKey{VendorID: 7, ShiftID: 2, EventDate: current.EventDate}

	f.repo.On("GetByID", ctx, "booking-42").Return(current, nil).Once()
	f.cache.On("AcquireSlotLock", ctx, key, 30*time.Second).Return(false, nil).Once()

	_, err := f.service.AdminApprove(ctx, "booking-42", domain.RoleAdmin)

	assert.ErrorIs(t, err, domain.ErrAlreadyReserved)
	f.repo.AssertNotCalled(t, "UpdateStatusAcquiringHold", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminApprove_SlotTakenInStorage(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	current := testBooking(domain.StatusAcceptedPendingAdmin)
	key := domain.SlotKey{VendorID: 7, ShiftID: 2, EventDate: current.EventDate}

	f.repo.On("GetByID", ctx, "booking-42").Return(current, nil).Once()
	f.cache.On("AcquireSlotLock", ctx, key, 30*time.Second).Return(true, nil).Once()
	f.repo.On("UpdateStatusAcquiringHold", ctx, "booking-42", domain.StatusAcceptedPendingAdmin, domain.StatusApprovedPendingOTP, mock.AnythingOfType("*domain.ShiftHold")).
		Return(nil, domain.ErrAlreadyReserved).Once()
	f.cache.On("ReleaseSlotLock", ctx, key).Return(nil).Once()

	_, err := f.service.AdminApprove(ctx, "booking-42", domain.RoleAdmin)

	assert.ErrorIs(t, err, domain.ErrAlreadyReserved)
	f.cache.AssertExpectations(t)
	f.producer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUserCancel_ReleasesHoldAfterApproval(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	current := testBooking(domain.StatusApprovedPendingOTP)
	cancelled := testBooking(domain.StatusCancelledByUser)
	key := domain.SlotKey{VendorID: 7, ShiftID: 2, EventDate: current.EventDate}

	f.repo.On("GetByID", ctx, "booking-42").Return(current, nil).Once()
	f.repo.On("UpdateStatusReleasingHold", ctx, "booking-42", domain.StatusApprovedPendingOTP, domain.StatusCancelledByUser).Return(cancelled, nil).Once()
	f.cache.On("ReleaseSlotLock", ctx, key).Return(nil).Once()
	f.cache.On("InvalidateVendorHolds", ctx, int64(7), "2026-09-12").Return(nil).Once()
	expectPublish(f, 2)

	updated, err := f.service.UserCancel(ctx, "booking-42", domain.RoleUser)

	assert.NoError(t, err)
	assert.Equal(t, domain.StatusCancelledByUser, updated.Status)
	f.repo.AssertExpectations(t)
	f.cache.AssertExpectations(t)
}

func TestUserCancel_BeforeApprovalSkipsHoldRelease(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	cancelled := testBooking(domain.StatusCancelledByUser)

	f.repo.On("GetByID", ctx, "booking-42").Return(testBooking(domain.StatusPendingVendorResponse), nil).Once()
	f.repo.On("UpdateStatus", ctx, "booking-42", domain.StatusPendingVendorResponse, domain.StatusCancelledByUser).Return(cancelled, nil).Once()
	expectPublish(f, 2)

	_, err := f.service.UserCancel(ctx, "booking-42", domain.RoleUser)

	assert.NoError(t, err)
	f.repo.AssertNotCalled(t, "UpdateStatusReleasingHold", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUserCancel_DuringOTPVerificationIsIllegal(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.repo.On("GetByID", ctx, "booking-42").Return(testBooking(domain.StatusOTPInProgress), nil).Once()

	_, err := f.service.UserCancel(ctx, "booking-42", domain.RoleUser)

	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestGenerateOTP_Success(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	current := testBooking(domain.StatusApprovedPendingOTP)
	inProgress := testBooking(domain.StatusOTPInProgress)
	challenge := &domain.OTPChallenge{
		BookingID:         "booking-42",
		ExpiresAt:         time.Now().Add(10 * time.Minute),
		AttemptsRemaining: 3,
	}

	f.repo.On("GetByID", ctx, "booking-42").Return(current, nil).Once()
	f.otp.On("Issue", "booking-42").Return(challenge, "123456", nil).Once()
	f.repo.On("UpdateStatusWithChallenge", ctx, "booking-42", domain.StatusApprovedPendingOTP, domain.StatusOTPInProgress, challenge).Return(inProgress, nil).Once()
	// OTP codes ride the notifications topic only.
	f.producer.On("Publish", mock.Anything, "booking-notifications", "booking-42", mock.Anything).Return(nil).Once()

	got, err := f.service.GenerateOTP(ctx, "booking-42", domain.RoleUser)

	assert.NoError(t, err)
	assert.Equal(t, challenge, got)
	f.producer.AssertExpectations(t)
	f.producer.AssertNotCalled(t, "Publish", mock.Anything, "booking-events", mock.Anything, mock.Anything)
}

func TestVerifyOTP_Success(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	confirmed := testBooking(domain.StatusConfirmed)

	f.repo.On("GetByID", ctx, "booking-42").Return(testBooking(domain.StatusOTPInProgress), nil).Once()
	f.otp.On("Verify", ctx, "booking-42", "123456").Return(nil).Once()
	f.repo.On("UpdateStatusRetiringChallenge", ctx, "booking-42", domain.StatusOTPInProgress, domain.StatusConfirmed).Return(confirmed, nil).Once()
	expectPublish(f, 2)

	updated, err := f.service.VerifyOTP(ctx, "booking-42", domain.RoleUser, "123456")

	assert.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, updated.Status)
	f.repo.AssertExpectations(t)
}

func TestVerifyOTP_FailuresPassThrough(t *testing.T) {
	testCases := []struct {
		name string
		err  error
	}{
		{"invalid code", domain.ErrInvalidCode},
		{"expired", domain.ErrExpired},
		{"attempts exhausted", domain.ErrAttemptsExhausted},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			ctx := context.Background()

			f.repo.On("GetByID", ctx, "booking-42").Return(testBooking(domain.StatusOTPInProgress), nil).Once()
			f.otp.On("Verify", ctx, "booking-42", "000000").Return(tc.err).Once()

			_, err := f.service.VerifyOTP(ctx, "booking-42", domain.RoleUser, "000000")

			assert.ErrorIs(t, err, tc.err)
			f.repo.AssertNotCalled(t, "UpdateStatusRetiringChallenge", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestVerifyOTP_WrongStatus(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.repo.On("GetByID", ctx, "booking-42").Return(testBooking(domain.StatusApprovedPendingOTP), nil).Once()

	_, err := f.service.VerifyOTP(ctx, "booking-42", domain.RoleUser, "123456")

	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	f.otp.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything, mock.Anything)
}

func TestResendOTP_ResetsChallenge(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	inProgress := testBooking(domain.StatusOTPInProgress)
	fresh := &domain.OTPChallenge{
		BookingID:         "booking-42",
		ExpiresAt:         time.Now().Add(10 * time.Minute),
		AttemptsRemaining: 3,
	}

	f.repo.On("GetByID", ctx, "booking-42").Return(inProgress, nil).Once()
	f.otp.On("CheckResend", ctx, "booking-42").Return(nil).Once()
	f.otp.On("Issue", "booking-42").Return(fresh, "654321", nil).Once()
	f.repo.On("UpdateStatusWithChallenge", ctx, "booking-42", domain.StatusOTPInProgress, domain.StatusOTPInProgress, fresh).Return(inProgress, nil).Once()
	f.producer.On("Publish", mock.Anything, "booking-notifications", "booking-42", mock.Anything).Return(nil).Once()

	challenge, err := f.service.ResendOTP(ctx, "booking-42", domain.RoleUser)

	assert.NoError(t, err)
	assert.Equal(t, 3, challenge.AttemptsRemaining)
	f.otp.AssertExpectations(t)
}

func TestResendOTP_GateDenied(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.repo.On("GetByID", ctx, "booking-42").Return(testBooking(domain.StatusOTPInProgress), nil).Once()
	f.otp.On("CheckResend", ctx, "booking-42").Return(domain.ErrResendNotAllowed).Once()

	_, err := f.service.ResendOTP(ctx, "booking-42", domain.RoleUser)

	assert.ErrorIs(t, err, domain.ErrResendNotAllowed)
	f.otp.AssertNotCalled(t, "Issue", mock.Anything)
}

func TestMarkCompletedAndReviewWindow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	completed := testBooking(domain.StatusCompleted)
	awaiting := testBooking(domain.StatusAwaitingReview)

	f.repo.On("GetByID", ctx, "booking-42").Return(testBooking(domain.StatusConfirmed), nil).Once()
	f.repo.On("UpdateStatus", ctx, "booking-42", domain.StatusConfirmed, domain.StatusCompleted).Return(completed, nil).Once()
	f.repo.On("GetByID", ctx, "booking-42").Return(completed, nil).Once()
	f.repo.On("UpdateStatus", ctx, "booking-42", domain.StatusCompleted, domain.StatusAwaitingReview).Return(awaiting, nil).Once()
	expectPublish(f, 4)

	got, err := f.service.MarkCompleted(ctx, "booking-42", domain.RoleAdmin)
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)

	got, err = f.service.OpenReviewWindow(ctx, "booking-42", domain.RoleAdmin)
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusAwaitingReview, got.Status)

	f.repo.AssertExpectations(t)
}

func TestPublishFailureDoesNotFailTransition(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	accepted := testBooking(domain.StatusAcceptedPendingAdmin)

	f.repo.On("GetByID", ctx, "booking-42").Return(testBooking(domain.StatusPendingVendorResponse), nil).Once()
	f.repo.On("UpdateStatus", ctx, "booking-42", domain.StatusPendingVendorResponse, domain.StatusAcceptedPendingAdmin).Return(accepted, nil).Once()
	f.producer.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError).Times(2)

	updated, err := f.service.VendorAccept(ctx, "booking-42", domain.RoleVendor)

	assert.NoError(t, err)
	assert.Equal(t, domain.StatusAcceptedPendingAdmin, updated.Status)
}
