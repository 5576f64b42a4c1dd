package queries

import "villa-booking/internal/pkg/errs"

var (
	ErrPropertyNotFound = errs.Define("property not found", errs.ErrNotFound)
	ErrBookingNotFound  = errs.Define("booking not found", errs.ErrNotFound)
	ErrCouponNotFound   = errs.Define("coupon not found", errs.ErrNotFound)
	ErrInvalidCursor    = errs.Define("invalid cursor", errs.ErrValidation)
)
