package repository

import (
	"context"
	"encoding/json"

	"villa-booking/internal/domain/refund"
	"villa-booking/internal/infra"
	"villa-booking/internal/infra/db"
	"villa-booking/internal/pkg/pgconv"
)

const insertRefund = `
INSERT INTO refunds (
    id, booking_id, property_id, user_id, gateway_refund_id, payment_id, amount,
    currency, status, notes, reference_id, created_at, processed_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

type RefundRepository struct {
	db db.DBTX
}

func NewRefundRepository(dbtx db.DBTX) *RefundRepository {
	return &RefundRepository{db: dbtx}
}

func (r *RefundRepository) Create(ctx context.Context, rf *refund.Refund) error {
	notes, err := json.Marshal(rf.Notes())
	if err != nil {
		return infra.WrapRepoErr("failed to encode refund notes", err)
	}
	_, err = r.db.Exec(ctx, insertRefund,
		pgconv.UUIDToPgtype(rf.ID()),
		pgconv.UUIDToPgtype(rf.BookingID()),
		pgconv.UUIDToPgtype(rf.PropertyID()),
		pgconv.UUIDToPgtype(rf.UserID()),
		rf.GatewayRefundID(),
		rf.PaymentID(),
		rf.Amount().Minor(),
		rf.Currency(),
		string(rf.Status()),
		notes,
		pgconv.StringPtrToPgtype(rf.ReferenceID()),
		pgconv.TimeToPgtype(rf.CreatedAt()),
		pgconv.TimePtrToPgtype(rf.ProcessedAt()),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to create refund", err)
	}
	return nil
}
