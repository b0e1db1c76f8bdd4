package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// BookingEvent mirrors every lifecycle transition onto the wire. OTPCode is
// set only on events carried by the notifications topic, where the worker
// turns it into an email/SMS dispatch.
type BookingEvent struct {
	Type       string    `json:"type"`
	BookingID  string    `json:"booking_id"`
	VendorID   int64     `json:"vendor_id"`
	UserID     int64     `json:"user_id"`
	ShiftID    int64     `json:"shift_id"`
	EventDate  string    `json:"event_date"`
	Status     string    `json:"status"`
	OTPCode    string    `json:"otp_code,omitempty"`
	OTPExpires time.Time `json:"otp_expires,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

const (
	EventBookingCreated     = "booking_created"
	EventVendorAccepted     = "vendor_accepted"
	EventVendorRejected     = "vendor_rejected"
	EventAdminApproved      = "admin_approved"
	EventAdminRejected      = "admin_rejected"
	EventBookingCancelled   = "booking_cancelled"
	EventOTPIssued          = "otp_issued"
	EventBookingConfirmed   = "booking_confirmed"
	EventBookingCompleted   = "booking_completed"
	EventReviewWindowOpened = "review_window_opened"
	EventReviewSubmitted    = "review_submitted"
)

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	})
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
