package dto

type CreateOrderRequestDTO struct {
	Purpose       string `json:"purpose" validate:"required,oneof=booking topup" example:"booking"`
	Amount        int64  `json:"amount,omitempty" validate:"omitempty,gt=0" example:"500"`
	WalletAmount  int64  `json:"walletAmount,omitempty" validate:"gte=0" example:"0"`
	PropertyID    int64  `json:"propertyId,omitempty" example:"17"`
	RoomTypeID    int64  `json:"roomTypeId,omitempty" example:"42"`
	CheckInDate   string `json:"checkInDate,omitempty" example:"2026-10-12"`
	CheckOutDate  string `json:"checkOutDate,omitempty" example:"2026-10-14"`
	Units         int    `json:"units,omitempty" example:"1"`
	Adults        int    `json:"adults,omitempty" example:"2"`
	Children      int    `json:"children,omitempty" example:"0"`
	CouponCode    string `json:"couponCode,omitempty" example:"WELCOME10"`
}

type OrderResponseDTO struct {
	OrderID  string `json:"orderId" example:"order_NXhT2bqYkzP1Qw"`
	Amount   int64  `json:"amount" example:"2240"`
	Currency string `json:"currency" example:"INR"`
	Receipt  string `json:"receipt" example:"rcpt_3f9a1c2b"`
}

type VerifyPaymentRequestDTO struct {
	OrderID   string `json:"orderId" validate:"required" example:"order_NXhT2bqYkzP1Qw"`
	PaymentID string `json:"paymentId" validate:"required" example:"pay_NXhUFb3qLmZ8Rt"`
	Signature string `json:"signature" validate:"required" example:"d1b0c9..."`
}

type VerifyPaymentResponseDTO struct {
	Status    string              `json:"status" example:"verified"`
	Booking   *BookingResponseDTO `json:"booking,omitempty"`
}
