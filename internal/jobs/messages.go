package jobs

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"villa-booking/internal/infra/mailer"
	"villa-booking/internal/pkg/errs"
	"villa-booking/internal/pkg/invoice"
	"villa-booking/internal/usecase/queries"
	"villa-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

const dayLayout = "Mon, 02 Jan 2006"

// BookingEvent is the JSON body published for booking lifecycle changes.
// Amounts are minor currency units.
type BookingEvent struct {
	Type          string     `json:"type"`
	BookingID     uuid.UUID  `json:"bookingId"`
	PropertyID    uuid.UUID  `json:"propertyId"`
	UserID        uuid.UUID  `json:"userId"`
	Status        string     `json:"status"`
	PaymentStatus string     `json:"paymentStatus"`
	TotalPrice    int64      `json:"totalPrice"`
	CheckIn       string     `json:"checkIn"`
	CheckOut      string     `json:"checkOut"`
	RefundID      *uuid.UUID `json:"refundId,omitempty"`
	RefundAmount  *int64     `json:"refundAmount,omitempty"`
	OccurredAt    time.Time  `json:"occurredAt"`
}

func newBookingEvent(topic string, detail *queries.BookingDetail, payload shared.BookingJobPayload, now time.Time) BookingEvent {
	b := detail.Booking
	ev := BookingEvent{
		Type:          topic,
		BookingID:     b.ID,
		PropertyID:    b.PropertyID,
		UserID:        b.UserID,
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
		TotalPrice:    b.TotalPrice,
		CheckIn:       b.CheckIn.Format(time.DateOnly),
		CheckOut:      b.CheckOut.Format(time.DateOnly),
		OccurredAt:    now,
	}
	if rf := findRefund(detail.Refunds, payload.RefundID); rf != nil {
		id, amount := rf.ID, rf.Amount
		ev.RefundID = &id
		ev.RefundAmount = &amount
	}
	return ev
}

func (d *Dispatcher) composeEmail(ctx context.Context, topic string, detail *queries.BookingDetail, payload shared.BookingJobPayload) (*mailer.Message, error) {
	switch topic {
	case shared.TopicBookingConfirmed:
		return d.confirmationEmail(ctx, detail)
	case shared.TopicBookingCancelled:
		return cancellationEmail(detail, findRefund(detail.Refunds, payload.RefundID)), nil
	default:
		return nil, errs.Wrapf(ErrInvalidPayload, "no email for topic %q", topic)
	}
}

func (d *Dispatcher) confirmationEmail(ctx context.Context, detail *queries.BookingDetail) (*mailer.Message, error) {
	inv, err := d.bookings.Invoice(ctx, detail)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := invoice.Render(&buf, inv); err != nil {
		return nil, errs.Wrap(err, "render invoice")
	}

	b := detail.Booking
	var body strings.Builder
	fmt.Fprintf(&body, "Hi %s,\n\n", greetingName(detail))
	fmt.Fprintf(&body, "Your stay at %s is confirmed.\n\n", detail.Property.Title)
	fmt.Fprintf(&body, "Booking reference: %s\n", inv.BookingRef)
	fmt.Fprintf(&body, "Check-in: %s\n", b.CheckIn.Format(dayLayout))
	fmt.Fprintf(&body, "Check-out: %s\n", b.CheckOut.Format(dayLayout))
	fmt.Fprintf(&body, "Guests: %d\n", b.Guests)
	fmt.Fprintf(&body, "Amount paid: %s\n\n", invoice.FormatMoney(inv.Currency, b.TotalPrice))
	body.WriteString("Your invoice is attached.\n")

	return &mailer.Message{
		ToEmail:   detail.Guest.Email().Value(),
		ToName:    detail.Guest.FullName(),
		Subject:   "Booking confirmed: " + detail.Property.Title,
		PlainText: body.String(),
		Attachments: []mailer.Attachment{{
			Filename:    inv.FileName(),
			ContentType: "text/plain",
			Content:     buf.Bytes(),
		}},
	}, nil
}

func cancellationEmail(detail *queries.BookingDetail, rf *queries.RefundView) *mailer.Message {
	b := detail.Booking
	var body strings.Builder
	fmt.Fprintf(&body, "Hi %s,\n\n", greetingName(detail))
	fmt.Fprintf(&body, "Your booking at %s for %s to %s has been cancelled.\n",
		detail.Property.Title, b.CheckIn.Format(dayLayout), b.CheckOut.Format(dayLayout))
	if b.CancellationReason != "" {
		fmt.Fprintf(&body, "Reason: %s\n", b.CancellationReason)
	}
	body.WriteString("\n")
	if rf != nil {
		fmt.Fprintf(&body, "A refund of %s has been initiated.\n", invoice.FormatMoney(rf.Currency, rf.Amount))
		fmt.Fprintf(&body, "Refund id: %s\n", rf.GatewayRefundID)
		fmt.Fprintf(&body, "Refund status: %s\n", rf.Status)
	} else {
		body.WriteString("No refund applies to this cancellation.\n")
	}

	return &mailer.Message{
		ToEmail:   detail.Guest.Email().Value(),
		ToName:    detail.Guest.FullName(),
		Subject:   "Booking cancelled: " + detail.Property.Title,
		PlainText: body.String(),
	}
}

func findRefund(refunds []queries.RefundView, id *uuid.UUID) *queries.RefundView {
	if id == nil {
		return nil
	}
	for i := range refunds {
		if refunds[i].ID == *id {
			return &refunds[i]
		}
	}
	return nil
}

func greetingName(detail *queries.BookingDetail) string {
	if name := detail.Guest.FirstName(); name != "" {
		return name
	}
	return "there"
}
