package domain

import "time"

// OwnerKind discriminates wallet and principal ownership. A wallet is keyed by
// (OwnerID, OwnerKind); exactly one admin wallet exists platform-wide.
type OwnerKind string

const (
	KindUser    OwnerKind = "user"
	KindPartner OwnerKind = "partner"
	KindAdmin   OwnerKind = "admin"
)

// Principal is the authenticated caller, resolved once at the auth boundary.
type Principal struct {
	ID   int64
	Kind OwnerKind
}

type PaymentMethod string

const (
	PaymentWallet  PaymentMethod = "wallet"
	PaymentAtHotel PaymentMethod = "pay_at_hotel"
	PaymentOnline  PaymentMethod = "online"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentPartial  PaymentStatus = "partial"
)

type BookingStatus string

const (
	BookingPending         BookingStatus = "pending"
	BookingAwaitingPayment BookingStatus = "awaiting_payment"
	BookingConfirmed       BookingStatus = "confirmed"
	BookingCheckedIn       BookingStatus = "checked_in"
	BookingCheckedOut      BookingStatus = "checked_out"
	BookingCancelled       BookingStatus = "cancelled"
	BookingNoShow          BookingStatus = "no_show"
	BookingRejected        BookingStatus = "rejected"
)

// Terminal reports whether no further transition is allowed from s.
func (s BookingStatus) Terminal() bool {
	switch s {
	case BookingCheckedOut, BookingCancelled, BookingNoShow, BookingRejected:
		return true
	}
	return false
}

type InquiryStatus string

const (
	InquiryNew         InquiryStatus = "new"
	InquiryScheduled   InquiryStatus = "scheduled"
	InquiryNegotiating InquiryStatus = "negotiating"
	InquiryClosed      InquiryStatus = "closed"
	InquirySold        InquiryStatus = "sold"
	InquiryRented      InquiryStatus = "rented"
	InquiryDropped     InquiryStatus = "dropped"
)

// IsInquiryPropertyType reports whether the property type is sold or rented
// rather than booked nightly, producing an inquiry instead of a booking.
func IsInquiryPropertyType(propertyType string) bool {
	switch propertyType {
	case "buy", "plot", "rent":
		return true
	}
	return false
}

type Property struct {
	ID           int64     `db:"id"`
	PartnerID    int64     `db:"partner_id"`
	Name         string    `db:"name"`
	PropertyType string    `db:"property_type"`
	City         string    `db:"city"`
	CreatedAt    time.Time `db:"created_at"`
}

type RoomType struct {
	ID              int64  `db:"id"`
	PropertyID      int64  `db:"property_id"`
	Name            string `db:"name"`
	TotalInventory  int    `db:"total_inventory"`
	PricePerNight   int64  `db:"price_per_night"`
	ExtraAdultPrice int64  `db:"extra_adult_price"`
	ExtraChildPrice int64  `db:"extra_child_price"`
	BaseOccupancy   int    `db:"base_occupancy"`
	ChildOccupancy  int    `db:"child_occupancy"`
}

type Subscription struct {
	ID                   int64     `db:"id"`
	PartnerID            int64     `db:"partner_id"`
	PlanName             string    `db:"plan_name"`
	CommissionPercentage float64   `db:"commission_percentage"`
	StartsAt             time.Time `db:"starts_at"`
	ExpiresAt            time.Time `db:"expires_at"`
	Active               bool      `db:"active"`
}

type Coupon struct {
	ID                   int64     `db:"id"`
	Code                 string    `db:"code"`
	DiscountType         string    `db:"discount_type"` // percentage | flat
	DiscountValue        int64     `db:"discount_value"`
	MaxDiscount          int64     `db:"max_discount"`
	MinBookingAmount     int64     `db:"min_booking_amount"`
	StartDate            time.Time `db:"start_date"`
	EndDate              time.Time `db:"end_date"`
	UserLimit            int       `db:"user_limit"`
	UsageCount           int       `db:"usage_count"`
	AllowedPropertyTypes []string  `db:"allowed_property_types"`
	Active               bool      `db:"active"`
}

type Guests struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
}

// Booking is the aggregate root of a reservation. Pricing fields are computed
// once at creation and never recomputed; status-transition endpoints mutate
// the status columns only.
type Booking struct {
	ID              int64         `db:"id"`
	BookingID       string        `db:"booking_id"` // human-readable unique reference
	UserID          int64         `db:"user_id"`
	PartnerID       int64         `db:"partner_id"`
	PropertyID      int64         `db:"property_id"`
	RoomTypeID      int64         `db:"room_type_id"`
	CheckInDate     time.Time     `db:"check_in_date"`
	CheckOutDate    time.Time     `db:"check_out_date"`
	TotalNights     int           `db:"total_nights"`
	Units           int           `db:"units"`
	Guests          Guests        ``
	PricePerNight   int64         `db:"price_per_night"`
	BaseAmount      int64         `db:"base_amount"`
	ExtraCharges    int64         `db:"extra_charges"`
	Discount        int64         `db:"discount"`
	Taxes           int64         `db:"taxes"`
	AdminCommission int64         `db:"admin_commission"`
	PartnerPayout   int64         `db:"partner_payout"`
	TotalAmount     int64         `db:"total_amount"`
	WalletAmount    int64         `db:"wallet_amount"`
	CouponCode      string        `db:"coupon_code"`
	PaymentMethod   PaymentMethod `db:"payment_method"`
	PaymentStatus   PaymentStatus `db:"payment_status"`
	BookingStatus   BookingStatus `db:"booking_status"`
	IsInquiry       bool          `db:"is_inquiry"`
	InquiryStatus   InquiryStatus `db:"inquiry_status"`
	CreatedAt       time.Time     `db:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at"`
}

// LedgerSource identifies who placed an availability hold.
type LedgerSource string

const (
	SourcePlatform    LedgerSource = "platform"
	SourceWalkIn      LedgerSource = "walk_in"
	SourceExternal    LedgerSource = "external"
	SourceManualBlock LedgerSource = "manual_block"
)

// LedgerEntry is a hold on Units capacity for [StartDate, EndDate).
type LedgerEntry struct {
	ID            int64        `db:"id"`
	PropertyID    int64        `db:"property_id"`
	RoomTypeID    int64        `db:"room_type_id"`
	InventoryType string       `db:"inventory_type"`
	Source        LedgerSource `db:"source"`
	ReferenceID   string       `db:"reference_id"`
	StartDate     time.Time    `db:"start_date"`
	EndDate       time.Time    `db:"end_date"`
	Units         int          `db:"units"`
	CreatedAt     time.Time    `db:"created_at"`
}

type BankDetails struct {
	AccountName   string `json:"accountName"`
	AccountNumber string `json:"accountNumber"`
	IFSC          string `json:"ifsc"`
	UPI           string `json:"upi,omitempty"`
}

// Wallet balance changes only through credit/debit, each of which appends
// exactly one Transaction snapshotting the post-operation balance.
type Wallet struct {
	ID               int64       `db:"id"`
	OwnerID          int64       `db:"owner_id"`
	OwnerKind        OwnerKind   `db:"owner_kind"`
	Balance          int64       `db:"balance"`
	TotalEarnings    int64       `db:"total_earnings"`
	TotalWithdrawals int64       `db:"total_withdrawals"`
	PendingClearance int64       `db:"pending_clearance"`
	BankDetails      BankDetails ``
	CreatedAt        time.Time   `db:"created_at"`
}

type TxType string

const (
	TxCredit TxType = "credit"
	TxDebit  TxType = "debit"
)

// TxCategory drives the earning counters and the overdraft whitelist, see
// walletservice.
type TxCategory string

const (
	CatBookingPayment      TxCategory = "booking_payment"
	CatBookingEarning      TxCategory = "booking_earning"
	CatCommission          TxCategory = "commission"
	CatCommissionDeduction TxCategory = "commission_deduction"
	CatCommissionRefund    TxCategory = "commission_refund"
	CatRefund              TxCategory = "refund"
	CatRefundDeduction     TxCategory = "refund_deduction"
	CatNoShowPenalty       TxCategory = "no_show_penalty"
	CatNoShowCompensation  TxCategory = "no_show_compensation"
	CatTopup               TxCategory = "topup"
	CatWithdrawal          TxCategory = "withdrawal"
	CatWithdrawalRefund    TxCategory = "withdrawal_refund"
)

// Transaction is an immutable ledger row; the signed sum of a wallet's
// transactions must equal its current balance.
type Transaction struct {
	ID           int64      `db:"id"`
	WalletID     int64      `db:"wallet_id"`
	Type         TxType     `db:"type"`
	Category     TxCategory `db:"category"`
	Amount       int64      `db:"amount"`
	BalanceAfter int64      `db:"balance_after"`
	Description  string     `db:"description"`
	Reference    string     `db:"reference"`
	Status       string     `db:"status"`
	CreatedAt    time.Time  `db:"created_at"`
}

type WithdrawalStatus string

const (
	WithdrawalPending    WithdrawalStatus = "pending"
	WithdrawalProcessing WithdrawalStatus = "processing"
	WithdrawalCompleted  WithdrawalStatus = "completed"
	WithdrawalFailed     WithdrawalStatus = "failed"
)

type Withdrawal struct {
	ID          int64            `db:"id"`
	WalletID    int64            `db:"wallet_id"`
	Amount      int64            `db:"amount"`
	Status      WithdrawalStatus `db:"status"`
	PayoutRef   string           `db:"payout_ref"`
	CreatedAt   time.Time        `db:"created_at"`
	ProcessedAt *time.Time       `db:"processed_at"`
}

// OrderPurpose distinguishes what a gateway order pays for.
type OrderPurpose string

const (
	PurposeBooking OrderPurpose = "booking"
	PurposeTopup   OrderPurpose = "topup"
)

// PaymentOrder stashes a gateway order. For deferred bookings the Notes field
// carries the full booking payload so the Booking row is materialized only
// after the payment is verified.
type PaymentOrder struct {
	ID             int64        `db:"id"`
	GatewayOrderID string       `db:"gateway_order_id"`
	Receipt        string       `db:"receipt"`
	Amount         int64        `db:"amount"`
	Currency       string       `db:"currency"`
	Purpose        OrderPurpose `db:"purpose"`
	UserID         int64        `db:"user_id"`
	BookingID      string       `db:"booking_id"`
	WalletAmount   int64        `db:"wallet_amount"`
	Notes          []byte       `db:"notes"`
	Status         string       `db:"status"` // created | paid | failed
	CreatedAt      time.Time    `db:"created_at"`
}

type NotificationStatus string

const (
	NotifyPending NotificationStatus = "pending"
	NotifySent    NotificationStatus = "sent"
	NotifyFailed  NotificationStatus = "failed"
)

// Notification is an outbox row; delivery is best-effort and never affects
// the operation that enqueued it.
type Notification struct {
	ID         int64              `db:"id"`
	TargetID   int64              `db:"target_id"`
	TargetKind OwnerKind          `db:"target_kind"`
	Title      string             `db:"title"`
	Body       string             `db:"body"`
	Data       []byte             `db:"data"`
	Status     NotificationStatus `db:"status"`
	Attempts   int                `db:"attempts"`
	CreatedAt  time.Time          `db:"created_at"`
	SentAt     *time.Time         `db:"sent_at"`
}
