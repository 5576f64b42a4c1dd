package shared

import (
	"time"

	"github.com/google/uuid"
)

// Notification job kinds and topics written to the outbox.
const (
	JobKindEmail = "email"
	JobKindEvent = "event"

	TopicBookingConfirmed = "booking.confirmed"
	TopicBookingCancelled = "booking.cancelled"
)

// BookingJobPayload is the outbox payload for booking notifications.
type BookingJobPayload struct {
	BookingID uuid.UUID  `json:"bookingId"`
	RefundID  *uuid.UUID `json:"refundId,omitempty"`
}

const (
	JobStatusQueued = "queued"
	JobStatusSent   = "sent"
	JobStatusFailed = "failed"
)

// NotificationJob is one outbox row.
type NotificationJob struct {
	ID        uuid.UUID
	Kind      string
	Topic     string
	Payload   []byte
	Attempts  int
	Status    string
	LastError *string
	RunAt     time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
