package booking

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	default:
		return false
	}
}

type PaymentStatus string

const (
	PaymentPending             PaymentStatus = "pending"
	PaymentPaid                PaymentStatus = "paid"
	PaymentRefunded            PaymentStatus = "refunded"
	PaymentNotEligibleToRefund PaymentStatus = "not-eligible-for-refund"
)

func (s PaymentStatus) String() string {
	return string(s)
}

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentRefunded, PaymentNotEligibleToRefund:
		return true
	default:
		return false
	}
}
