package coupon

import (
	"time"

	"villa-booking/internal/domain/booking"
	"villa-booking/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrInvalidCouponCode      = errs.Define("invalid coupon code format", errs.ErrValidation)
	ErrInvalidDiscountPercent = errs.Define("discount percentage must be between 0 and 100", errs.ErrValidation)
	ErrInvalidValidityWindow  = errs.Define("validUntil must be after validFrom", errs.ErrValidation)
	ErrInvalidMaxUsage        = errs.Define("maxUsage must be positive", errs.ErrValidation)
	ErrHostCouponNeedsScope   = errs.Define("host coupon requires a property and a host", errs.ErrValidation)
	ErrCouponInactive         = errs.Define("coupon is not active", errs.ErrConflict)
	ErrCouponNotYetValid      = errs.Define("coupon is not yet valid", errs.ErrConflict)
	ErrCouponExpired          = errs.Define("coupon has expired", errs.ErrConflict)
	ErrCouponUsageExhausted   = errs.Define("coupon usage limit reached", errs.ErrConflict)
	ErrCouponScopeMismatch    = errs.Define("coupon is not valid for this property", errs.ErrConflict)
)

type Coupon struct {
	id          uuid.UUID
	code        Code
	scope       Scope
	percentage  Percentage
	validFrom   time.Time
	validUntil  time.Time
	isActive    bool
	description string

	// platform only
	minPurchase booking.Money
	maxDiscount booking.Money
	usageCount  int
	maxUsage    *int

	// host only
	propertyID *uuid.UUID
	hostID     *uuid.UUID

	createdAt time.Time
	updatedAt time.Time
}

type PlatformParams struct {
	Code        string
	Description string
	Percentage  float64
	ValidFrom   time.Time
	ValidUntil  time.Time
	MinPurchase int64
	MaxDiscount int64
	MaxUsage    *int
}

func NewPlatformCoupon(id uuid.UUID, p PlatformParams, now time.Time) (*Coupon, error) {
	c, err := newBase(id, p.Code, p.Description, p.Percentage, p.ValidFrom, p.ValidUntil, now)
	if err != nil {
		return nil, err
	}
	minPurchase, err := booking.NewMoney(p.MinPurchase)
	if err != nil {
		return nil, err
	}
	maxDiscount, err := booking.NewMoney(p.MaxDiscount)
	if err != nil {
		return nil, err
	}
	if p.MaxUsage != nil && *p.MaxUsage < 1 {
		return nil, ErrInvalidMaxUsage
	}
	c.scope = ScopePlatform
	c.minPurchase = minPurchase
	c.maxDiscount = maxDiscount
	c.maxUsage = p.MaxUsage
	return c, nil
}

type HostParams struct {
	Code        string
	Description string
	Percentage  float64
	ValidFrom   time.Time
	ValidUntil  time.Time
	PropertyID  uuid.UUID
	HostID      uuid.UUID
}

func NewHostCoupon(id uuid.UUID, p HostParams, now time.Time) (*Coupon, error) {
	if p.PropertyID == uuid.Nil || p.HostID == uuid.Nil {
		return nil, ErrHostCouponNeedsScope
	}
	c, err := newBase(id, p.Code, p.Description, p.Percentage, p.ValidFrom, p.ValidUntil, now)
	if err != nil {
		return nil, err
	}
	propertyID, hostID := p.PropertyID, p.HostID
	c.scope = ScopeHost
	c.propertyID = &propertyID
	c.hostID = &hostID
	return c, nil
}

func newBase(id uuid.UUID, code, description string, pct float64, from, until time.Time, now time.Time) (*Coupon, error) {
	cc, err := NewCouponCode(code)
	if err != nil {
		return nil, err
	}
	percentage, err := NewPercentage(pct)
	if err != nil {
		return nil, err
	}
	if !until.After(from) {
		return nil, ErrInvalidValidityWindow
	}
	return &Coupon{
		id:          id,
		code:        cc,
		percentage:  percentage,
		validFrom:   from.UTC(),
		validUntil:  until.UTC(),
		isActive:    true,
		description: description,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

type ReconstructParams struct {
	ID          uuid.UUID
	Code        string
	Scope       Scope
	Description string
	Percentage  float64
	ValidFrom   time.Time
	ValidUntil  time.Time
	IsActive    bool
	MinPurchase int64
	MaxDiscount int64
	UsageCount  int
	MaxUsage    *int
	PropertyID  *uuid.UUID
	HostID      *uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Reconstruct rebuilds a stored coupon without re-running creation rules.
func Reconstruct(p ReconstructParams) *Coupon {
	minPurchase, _ := booking.NewMoney(p.MinPurchase)
	maxDiscount, _ := booking.NewMoney(p.MaxDiscount)
	return &Coupon{
		id:          p.ID,
		code:        Code(p.Code),
		scope:       p.Scope,
		percentage:  Percentage{value: p.Percentage},
		validFrom:   p.ValidFrom,
		validUntil:  p.ValidUntil,
		isActive:    p.IsActive,
		description: p.Description,
		minPurchase: minPurchase,
		maxDiscount: maxDiscount,
		usageCount:  p.UsageCount,
		maxUsage:    p.MaxUsage,
		propertyID:  p.PropertyID,
		hostID:      p.HostID,
		createdAt:   p.CreatedAt,
		updatedAt:   p.UpdatedAt,
	}
}

// IsValidAt is true when the coupon is active, t lies in [validFrom, validUntil),
// and the usage budget is not exhausted.
func (c *Coupon) IsValidAt(t time.Time) bool {
	return c.ValidateUsage(t) == nil
}

func (c *Coupon) ValidateUsage(t time.Time) error {
	if !c.isActive {
		return ErrCouponInactive
	}
	if t.Before(c.validFrom) {
		return ErrCouponNotYetValid
	}
	if !t.Before(c.validUntil) {
		return ErrCouponExpired
	}
	if c.maxUsage != nil && c.usageCount >= *c.maxUsage {
		return ErrCouponUsageExhausted
	}
	return nil
}

// AppliesTo checks the property binding of host coupons. Platform coupons apply everywhere.
func (c *Coupon) AppliesTo(propertyID uuid.UUID) error {
	if c.scope != ScopeHost {
		return nil
	}
	if c.propertyID == nil || *c.propertyID != propertyID {
		return ErrCouponScopeMismatch
	}
	return nil
}

// Apply computes the discount for base. Below minPurchase the discount is zero.
// The maxDiscount cap only applies when it is nonzero, and the final amount never
// drops below zero.
func (c *Coupon) Apply(base booking.Money) Application {
	if base.LessThan(c.minPurchase) {
		return Application{Base: base, Final: base}
	}
	discount := c.percentage.Of(base)
	capped := false
	if c.scope == ScopePlatform && !c.maxDiscount.IsZero() && c.maxDiscount.LessThan(discount) {
		discount = c.maxDiscount
		capped = true
	}
	if base.LessThan(discount) {
		discount = base
	}
	return Application{
		Base:     base,
		Discount: discount,
		Final:    base.Sub(discount),
		Capped:   capped,
	}
}

func (c *Coupon) SetActive(active bool, now time.Time) {
	c.isActive = active
	c.updatedAt = now
}

func (c *Coupon) ID() uuid.UUID { return c.id }
func (c *Coupon) Code() Code { return c.code }
func (c *Coupon) Scope() Scope { return c.scope }
func (c *Coupon) Percentage() Percentage { return c.percentage }
func (c *Coupon) ValidFrom() time.Time { return c.validFrom }
func (c *Coupon) ValidUntil() time.Time { return c.validUntil }
func (c *Coupon) IsActive() bool { return c.isActive }
func (c *Coupon) Description() string { return c.description }
func (c *Coupon) MinPurchase() booking.Money { return c.minPurchase }
func (c *Coupon) MaxDiscount() booking.Money { return c.maxDiscount }
func (c *Coupon) UsageCount() int { return c.usageCount }
func (c *Coupon) MaxUsage() *int { return c.maxUsage }
func (c *Coupon) PropertyID() *uuid.UUID { return c.propertyID }
func (c *Coupon) HostID() *uuid.UUID { return c.hostID }
func (c *Coupon) CreatedAt() time.Time { return c.createdAt }
func (c *Coupon) UpdatedAt() time.Time { return c.updatedAt }

func (c *Coupon) Snapshot() ReconstructParams {
	return ReconstructParams{
		ID:          c.id,
		Code:        c.code.String(),
		Scope:       c.scope,
		Description: c.description,
		Percentage:  c.percentage.Value(),
		ValidFrom:   c.validFrom,
		ValidUntil:  c.validUntil,
		IsActive:    c.isActive,
		MinPurchase: c.minPurchase.Minor(),
		MaxDiscount: c.maxDiscount.Minor(),
		UsageCount:  c.usageCount,
		MaxUsage:    c.maxUsage,
		PropertyID:  c.propertyID,
		HostID:      c.hostID,
		CreatedAt:   c.createdAt,
		UpdatedAt:   c.updatedAt,
	}
}
