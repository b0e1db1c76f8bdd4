package notify

import (
	"context"
	"fmt"

	"github.com/festivo/vendorbooking/internal/kafka"
)

// Sender is the delivery edge for booking notifications. The concrete
// email/SMS transport lives outside this service; this implementation only
// logs what would be dispatched.
type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	switch event.Type {
	case kafka.EventOTPIssued:
		fmt.Printf("dispatch otp code %s to user %d for booking %s (expires %s)\n",
			event.OTPCode, event.UserID, event.BookingID, event.OTPExpires.Format("15:04:05"))
	default:
		fmt.Printf("notify user %d and vendor %d: booking %s is now %s (%s)\n",
			event.UserID, event.VendorID, event.BookingID, event.Status, event.Type)
	}
	return nil
}
