package dto

import (
	"time"

	"github.com/bookstay/bookstay/internal/domain"
)

type CreateBookingRequestDTO struct {
	PropertyID    int64  `json:"propertyId" validate:"required,gt=0" example:"17"`
	RoomTypeID    int64  `json:"roomTypeId" validate:"gte=0" example:"42"`
	CheckInDate   string `json:"checkInDate" validate:"required,datetime=2006-01-02" example:"2026-10-12"`
	CheckOutDate  string `json:"checkOutDate" validate:"required,datetime=2006-01-02" example:"2026-10-14"`
	Units         int    `json:"units" validate:"required,gt=0" example:"1"`
	Adults        int    `json:"adults" validate:"required,gt=0" example:"2"`
	Children      int    `json:"children" validate:"gte=0" example:"0"`
	CouponCode    string `json:"couponCode,omitempty" example:"WELCOME10"`
	PaymentMethod string `json:"paymentMethod" validate:"required,oneof=wallet pay_at_hotel online" example:"wallet"`
}

type BookingResponseDTO struct {
	BookingID       string `json:"bookingId" example:"BK-20261012-3F9A1C2B"`
	PropertyID      int64  `json:"propertyId" example:"17"`
	RoomTypeID      int64  `json:"roomTypeId" example:"42"`
	CheckInDate     string `json:"checkInDate" example:"2026-10-12"`
	CheckOutDate    string `json:"checkOutDate" example:"2026-10-14"`
	TotalNights     int    `json:"totalNights" example:"2"`
	Units           int    `json:"units" example:"1"`
	Adults          int    `json:"adults" example:"2"`
	Children        int    `json:"children" example:"0"`
	BaseAmount      int64  `json:"baseAmount" example:"2000"`
	ExtraCharges    int64  `json:"extraCharges" example:"0"`
	Discount        int64  `json:"discount" example:"0"`
	Taxes           int64  `json:"taxes" example:"240"`
	TotalAmount     int64  `json:"totalAmount" example:"2240"`
	AdminCommission int64  `json:"adminCommission,omitempty" example:"200"`
	PartnerPayout   int64  `json:"partnerPayout,omitempty" example:"1800"`
	WalletAmount    int64  `json:"walletAmount,omitempty" example:"0"`
	CouponCode      string `json:"couponCode,omitempty" example:"WELCOME10"`
	PaymentMethod   string `json:"paymentMethod" example:"wallet"`
	PaymentStatus   string `json:"paymentStatus" example:"paid"`
	BookingStatus   string `json:"bookingStatus" example:"confirmed"`
	IsInquiry       bool   `json:"isInquiry,omitempty"`
	InquiryStatus   string `json:"inquiryStatus,omitempty" example:"pending"`
	CreatedAt       string `json:"createdAt" example:"2026-10-01T16:09:57+05:30"`
}

type CheckOutRequestDTO struct {
	Force bool `json:"force,omitempty"`
}

type InquiryStatusRequestDTO struct {
	Status string `json:"status" validate:"required,oneof=scheduled negotiating closed sold rented dropped" example:"scheduled"`
}

type BlockRequestDTO struct {
	PropertyID int64  `json:"propertyId" validate:"required,gt=0" example:"17"`
	RoomTypeID int64  `json:"roomTypeId" validate:"required,gt=0" example:"42"`
	StartDate  string `json:"startDate" validate:"required,datetime=2006-01-02" example:"2026-10-12"`
	EndDate    string `json:"endDate" validate:"required,datetime=2006-01-02" example:"2026-10-14"`
	Units      int    `json:"units" validate:"required,gt=0" example:"1"`
	Source     string `json:"source" validate:"required,oneof=walk_in external manual_block" example:"walk_in"`
}

type BlockResponseDTO struct {
	ID          int64  `json:"id" example:"91"`
	ReferenceID string `json:"referenceId" example:"BLK-8C1D92AF"`
	StartDate   string `json:"startDate" example:"2026-10-12"`
	EndDate     string `json:"endDate" example:"2026-10-14"`
	Units       int    `json:"units" example:"1"`
	Source      string `json:"source" example:"walk_in"`
}

type AvailabilityResponseDTO struct {
	RoomTypeID     int64  `json:"roomTypeId" example:"42"`
	StartDate      string `json:"startDate" example:"2026-10-12"`
	EndDate        string `json:"endDate" example:"2026-10-14"`
	AvailableUnits int    `json:"availableUnits" example:"3"`
}

// DateOnly parses the yyyy-mm-dd wire format used by booking dates.
func DateOnly(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}

func NewBookingResponse(b *domain.Booking) BookingResponseDTO {
	return BookingResponseDTO{
		BookingID:       b.BookingID,
		PropertyID:      b.PropertyID,
		RoomTypeID:      b.RoomTypeID,
		CheckInDate:     b.CheckInDate.Format("2006-01-02"),
		CheckOutDate:    b.CheckOutDate.Format("2006-01-02"),
		TotalNights:     b.TotalNights,
		Units:           b.Units,
		Adults:          b.Guests.Adults,
		Children:        b.Guests.Children,
		BaseAmount:      b.BaseAmount,
		ExtraCharges:    b.ExtraCharges,
		Discount:        b.Discount,
		Taxes:           b.Taxes,
		TotalAmount:     b.TotalAmount,
		AdminCommission: b.AdminCommission,
		PartnerPayout:   b.PartnerPayout,
		WalletAmount:    b.WalletAmount,
		CouponCode:      b.CouponCode,
		PaymentMethod:   string(b.PaymentMethod),
		PaymentStatus:   string(b.PaymentStatus),
		BookingStatus:   string(b.BookingStatus),
		IsInquiry:       b.IsInquiry,
		InquiryStatus:   string(b.InquiryStatus),
		CreatedAt:       b.CreatedAt.Format(time.RFC3339),
	}
}
