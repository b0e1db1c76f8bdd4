package domain

import "time"

type BookingStatus string

// Wire-stable status vocabulary. Renaming any of these breaks every consumer.
const (
	StatusPendingVendorResponse BookingStatus = "pending_vendor_response"
	StatusAcceptedPendingAdmin  BookingStatus = "accepted_by_vendor_pending_admin"
	StatusRejectedByVendor      BookingStatus = "rejected_by_vendor"
	StatusApprovedPendingOTP    BookingStatus = "approved_by_admin_pending_otp"
	StatusRejectedByAdmin       BookingStatus = "rejected_by_admin"
	StatusOTPInProgress         BookingStatus = "otp_verification_in_progress"
	StatusConfirmed             BookingStatus = "booking_confirmed"
	StatusCancelledByUser       BookingStatus = "cancelled_by_user"
	StatusCompleted             BookingStatus = "completed"
	StatusAwaitingReview        BookingStatus = "awaiting_review"
	StatusReviewed              BookingStatus = "reviewed"
)

type Action string

const (
	ActionVendorAccept      Action = "vendor_accept"
	ActionVendorReject      Action = "vendor_reject"
	ActionAdminApprove      Action = "admin_approve"
	ActionAdminReject       Action = "admin_reject"
	ActionUserCancel        Action = "user_cancel"
	ActionOTPGenerate       Action = "otp_generate"
	ActionOTPResend         Action = "otp_resend"
	ActionOTPVerifyOK       Action = "otp_verify_ok"
	ActionEventCompleted    Action = "event_completed"
	ActionEnterReviewWindow Action = "enter_review_window"
	ActionReviewSubmitted   Action = "review_submitted"
)

type Role string

const (
	RoleUser   Role = "user"
	RoleVendor Role = "vendor"
	RoleAdmin  Role = "admin"
)

type Booking struct {
	ID                 string
	VendorID           int64
	UserID             int64
	ShiftID            int64
	PackageID          int64
	EventDate          time.Time
	EventTime          string
	EventAddress       string
	SpecialRequirement string
	Status             BookingStatus
	Version            int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// transitions is the single authoritative transition table. Handlers and
// services never compare statuses ad hoc; everything funnels through Next.
var transitions = map[BookingStatus]map[Action]BookingStatus{
	StatusPendingVendorResponse: {
		ActionVendorAccept: StatusAcceptedPendingAdmin,
		ActionVendorReject: StatusRejectedByVendor,
		ActionUserCancel:   StatusCancelledByUser,
	},
	StatusAcceptedPendingAdmin: {
		ActionAdminApprove: StatusApprovedPendingOTP,
		ActionAdminReject:  StatusRejectedByAdmin,
		ActionUserCancel:   StatusCancelledByUser,
	},
	StatusApprovedPendingOTP: {
		ActionOTPGenerate: StatusOTPInProgress,
		ActionUserCancel:  StatusCancelledByUser,
	},
	StatusOTPInProgress: {
		ActionOTPVerifyOK: StatusConfirmed,
		ActionOTPResend:   StatusOTPInProgress,
	},
	StatusConfirmed: {
		ActionEventCompleted: StatusCompleted,
	},
	StatusCompleted: {
		ActionEnterReviewWindow: StatusAwaitingReview,
	},
	StatusAwaitingReview: {
		ActionReviewSubmitted: StatusReviewed,
	},
}

var actionRoles = map[Action]Role{
	ActionVendorAccept:      RoleVendor,
	ActionVendorReject:      RoleVendor,
	ActionAdminApprove:      RoleAdmin,
	ActionAdminReject:       RoleAdmin,
	ActionUserCancel:        RoleUser,
	ActionOTPGenerate:       RoleUser,
	ActionOTPResend:         RoleUser,
	ActionOTPVerifyOK:       RoleUser,
	ActionEventCompleted:    RoleAdmin,
	ActionEnterReviewWindow: RoleAdmin,
	ActionReviewSubmitted:   RoleUser,
}

// Next validates an action against the transition table and returns the
// resulting status. Returns ErrInvalidTransition when the edge does not exist.
func Next(current BookingStatus, action Action) (BookingStatus, error) {
	next, ok := transitions[current][action]
	if !ok {
		return "", ErrInvalidTransition
	}
	return next, nil
}

// Allowed checks that the actor role owns the action.
func Allowed(action Action, role Role) error {
	want, ok := actionRoles[action]
	if !ok {
		return ErrInvalidTransition
	}
	if role != want {
		return ErrForbidden
	}
	return nil
}

// IsTerminal reports whether no action can leave the status.
func IsTerminal(s BookingStatus) bool {
	return len(transitions[s]) == 0
}

// HoldsSlot reports whether a booking in this status owns a live shift hold.
// The hold is acquired on admin approval and survives every later live status.
func HoldsSlot(s BookingStatus) bool {
	switch s {
	case StatusApprovedPendingOTP, StatusOTPInProgress, StatusConfirmed,
		StatusCompleted, StatusAwaitingReview, StatusReviewed:
		return true
	}
	return false
}
