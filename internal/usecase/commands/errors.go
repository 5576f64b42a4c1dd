package commands

import "villa-booking/internal/pkg/errs"

var (
	ErrInvalidOrderAmount  = errs.Define("amount must be a positive number", errs.ErrValidation)
	ErrAmountMismatch      = errs.Define("amount does not match the quoted price", errs.ErrValidation)
	ErrInvalidRefundAmount = errs.Define("refund amount and cancellation fee must be zero or positive", errs.ErrValidation)
	ErrRefundExceedsPaid   = errs.Define("refund amount exceeds the amount paid", errs.ErrValidation)
	ErrMissingField        = errs.Define("required field is missing", errs.ErrValidation)
	ErrPaymentProvider     = errs.Define("payment provider request failed", errs.ErrProvider)
	ErrInvalidSignature    = errs.Define("payment signature verification failed", errs.ErrAuthenticity)
	ErrOrderMismatch       = errs.Define("payment does not belong to the supplied order", errs.ErrAuthenticity)
	ErrPaymentNotCaptured  = errs.Define("payment has not been completed", errs.ErrAuthenticity)
	ErrOrderTermsMismatch  = errs.Define("booking details do not match the paid order", errs.ErrAuthenticity)
	ErrPaymentAlreadyUsed  = errs.Define("payment is already attached to another booking", errs.ErrConflict)
	ErrDuplicateCouponCode = errs.Define("coupon code already exists", errs.ErrConflict)
	ErrNotPropertyOwner    = errs.Define("property does not belong to this host", errs.ErrForbidden)
	ErrResourceBusy        = errs.Define("resource is locked by another request, retry shortly", errs.ErrConflict)
)
