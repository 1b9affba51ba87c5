// Package pricing turns a room tariff and stay parameters into the full
// monetary breakdown of a booking. All amounts are whole rupees; rounding
// happens only here, so every amount downstream is already integral.
package pricing

import (
	"errors"
	"math"
	"time"

	"github.com/bookstay/bookstay/internal/domain"
)

var (
	ErrInvalidNights      = errors.New("total nights must be positive")
	ErrInvalidUnits       = errors.New("units must be positive")
	ErrCouponInactive     = errors.New("coupon is not active")
	ErrCouponExpired      = errors.New("coupon is outside its validity window")
	ErrCouponMinAmount    = errors.New("booking amount below coupon minimum")
	ErrCouponUsageLimit   = errors.New("coupon usage limit reached for user")
	ErrCouponPropertyType = errors.New("coupon not applicable to this property type")
)

// Input carries everything the engine needs; the caller resolves the
// commission rate (subscription plan or platform default) and the user's
// prior redemption count before calling.
type Input struct {
	RoomType       domain.RoomType
	Nights         int
	Units          int
	Guests         domain.Guests
	Coupon         *domain.Coupon
	PropertyType   string
	UserCouponUses int
	CommissionRate float64
	MinCommission  int64
	TaxRate        float64
	Now            time.Time
}

// Result is the complete price breakdown persisted onto the booking.
type Result struct {
	PricePerNight   int64
	BaseAmount      int64
	ExtraCharges    int64
	GrossAmount     int64
	Discount        int64
	Taxes           int64
	TotalAmount     int64
	AdminCommission int64
	PartnerPayout   int64
}

// Compute prices a stay. Tax and commission are both charged on the gross
// amount, not the discounted one: promotions cost the platform nothing in tax
// revenue, and commission is floored at MinCommission per booking.
func Compute(in Input) (*Result, error) {
	if in.Nights <= 0 {
		return nil, ErrInvalidNights
	}
	if in.Units <= 0 {
		return nil, ErrInvalidUnits
	}

	nights := int64(in.Nights)
	units := int64(in.Units)

	baseAmount := in.RoomType.PricePerNight * nights * units

	extraAdults, extraChildren := extraGuests(in.RoomType, in.Units, in.Guests)
	extraCharges := in.RoomType.ExtraAdultPrice*int64(extraAdults)*nights +
		in.RoomType.ExtraChildPrice*int64(extraChildren)*nights

	gross := baseAmount + extraCharges

	var discount int64
	if in.Coupon != nil {
		d, err := couponDiscount(in.Coupon, gross, in.PropertyType, in.UserCouponUses, in.Now)
		if err != nil {
			return nil, err
		}
		discount = d
	}

	taxes := int64(math.Round(float64(gross) * in.TaxRate / 100))
	total := gross - discount + taxes

	commission := int64(math.Round(float64(gross) * in.CommissionRate / 100))
	if commission < in.MinCommission {
		commission = in.MinCommission
	}

	// a heavy discount can eat the whole payout; the partner absorbs the
	// promotion but never owes the platform money on top of it
	payout := total - taxes - commission
	if payout < 0 {
		commission = total - taxes
		payout = 0
	}

	return &Result{
		PricePerNight:   in.RoomType.PricePerNight,
		BaseAmount:      baseAmount,
		ExtraCharges:    extraCharges,
		GrossAmount:     gross,
		Discount:        discount,
		Taxes:           taxes,
		TotalAmount:     total,
		AdminCommission: commission,
		PartnerPayout:   payout,
	}, nil
}

// extraGuests derives chargeable overflow guests from the room's occupancy.
func extraGuests(rt domain.RoomType, units int, guests domain.Guests) (adults, children int) {
	adults = guests.Adults - rt.BaseOccupancy*units
	if adults < 0 {
		adults = 0
	}
	children = guests.Children - rt.ChildOccupancy*units
	if children < 0 {
		children = 0
	}
	return adults, children
}

func couponDiscount(c *domain.Coupon, gross int64, propertyType string, userUses int, now time.Time) (int64, error) {
	if !c.Active {
		return 0, ErrCouponInactive
	}
	if now.Before(c.StartDate) || now.After(c.EndDate) {
		return 0, ErrCouponExpired
	}
	if gross < c.MinBookingAmount {
		return 0, ErrCouponMinAmount
	}
	if c.UserLimit > 0 && userUses >= c.UserLimit {
		return 0, ErrCouponUsageLimit
	}
	if len(c.AllowedPropertyTypes) > 0 && !contains(c.AllowedPropertyTypes, propertyType) {
		return 0, ErrCouponPropertyType
	}

	var discount int64
	switch c.DiscountType {
	case "percentage":
		discount = int64(math.Floor(float64(gross) * float64(c.DiscountValue) / 100))
		if c.MaxDiscount > 0 && discount > c.MaxDiscount {
			discount = c.MaxDiscount
		}
	default: // flat
		discount = c.DiscountValue
	}

	if discount > gross {
		discount = gross
	}
	return discount, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
