package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/festivo/vendorbooking/internal/domain"
	"github.com/festivo/vendorbooking/internal/repository"
	"github.com/google/uuid"
)

type LedgerUseCase interface {
	IsAvailable(ctx context.Context, key domain.SlotKey) (bool, error)
	VendorHolds(ctx context.Context, vendorID int64, date string) ([]domain.ShiftHold, error)
	ManualReserve(ctx context.Context, key domain.SlotKey) (*domain.ShiftHold, error)
	ManualRelease(ctx context.Context, key domain.SlotKey) error
}

type Cache interface {
	AcquireSlotLock(ctx context.Context, key domain.SlotKey, ttl time.Duration) (bool, error)
	ReleaseSlotLock(ctx context.Context, key domain.SlotKey) error
	GetVendorHolds(ctx context.Context, vendorID int64, date string) ([]domain.ShiftHold, error)
	SetVendorHolds(ctx context.Context, vendorID int64, date string, holds []domain.ShiftHold) error
	InvalidateVendorHolds(ctx context.Context, vendorID int64, date string) error
}

// LedgerService answers slot availability and carries manual vendor
// reservations, holds placed for events booked off-platform. Booking-owned
// holds are written by the state machine; both kinds land in the same table
// under the same uniqueness guarantee.
type LedgerService struct {
	holds       repository.HoldRepository
	cache       Cache
	slotLockTTL time.Duration
}

func NewLedgerService(holds repository.HoldRepository, cache Cache, slotLockTTL time.Duration) *LedgerService {
	return &LedgerService{holds: holds, cache: cache, slotLockTTL: slotLockTTL}
}

func (s *LedgerService) IsAvailable(ctx context.Context, key domain.SlotKey) (bool, error) {
	_, err := s.holds.ActiveHold(ctx, key)
	if errors.Is(err, domain.ErrHoldNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

func (s *LedgerService) VendorHolds(ctx context.Context, vendorID int64, date string) ([]domain.ShiftHold, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetVendorHolds(ctx, vendorID, date); err == nil && cached != nil {
			return cached, nil
		}
	}

	holds, err := s.holds.ListActiveForVendor(ctx, vendorID, date)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.SetVendorHolds(ctx, vendorID, date, holds)
	}
	return holds, nil
}

// ManualReserve claims a slot for the vendor outside the booking flow. The
// SetNX lock cuts off a concurrent acquirer early; the unique index decides
// the race either way, and the loser gets ErrAlreadyReserved, not a retry.
func (s *LedgerService) ManualReserve(ctx context.Context, key domain.SlotKey) (*domain.ShiftHold, error) {
	if s.cache != nil {
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
	}

	hold := &domain.ShiftHold{
		VendorID:   key.VendorID,
		ShiftID:    key.ShiftID,
		EventDate:  key.EventDate,
		HolderKind: domain.HolderKindManualReservation,
		HolderRef:  uuid.NewString(),
	}
	if err := s.holds.Acquire(ctx, hold); err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.InvalidateVendorHolds(ctx, key.VendorID, key.DateString())
	}
	return hold, nil
}

// ManualRelease frees a manually reserved slot. Idempotent: releasing an
// already free slot is a no-op.
func (s *LedgerService) ManualRelease(ctx context.Context, key domain.SlotKey) error {
	hold, err := s.holds.ActiveHold(ctx, key)
	if errors.Is(err, domain.ErrHoldNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	// Booking-owned holds are released only through their booking's
	// cancellation or rejection transitions.
	if hold.HolderKind != domain.HolderKindManualReservation {
		return domain.ErrForbidden
	}

	if err := s.holds.Release(ctx, key); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.InvalidateVendorHolds(ctx, key.VendorID, key.DateString())
	}
	return nil
}

var _ LedgerUseCase = (*LedgerService)(nil)
