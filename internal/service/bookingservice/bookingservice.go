package bookingservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bookstay/bookstay/internal/config"
	"github.com/bookstay/bookstay/internal/domain"
	"github.com/bookstay/bookstay/internal/pg"
	"github.com/bookstay/bookstay/internal/pricing"
)

type BookingRepo interface {
	Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error)
	GetByBookingID(ctx context.Context, bookingID string) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error)
	ListByPartner(ctx context.Context, partnerID int64) ([]domain.Booking, error)
	UpdateStatus(ctx context.Context, bookingID string, bookingStatus domain.BookingStatus, paymentStatus domain.PaymentStatus) error
	UpdateInquiryStatus(ctx context.Context, bookingID string, status domain.InquiryStatus) error
	CountCouponUse(ctx context.Context, userID int64, couponCode string) (int, error)
}

type LedgerRepo interface {
	LockRoomType(ctx context.Context, roomTypeID int64) (*domain.RoomType, error)
	ReservedUnits(ctx context.Context, roomTypeID int64, start, end time.Time) (int, error)
	Insert(ctx context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, error)
	GetEntry(ctx context.Context, id int64) (*domain.LedgerEntry, error)
	DeleteByReference(ctx context.Context, referenceID string) (int64, error)
	DeleteEntry(ctx context.Context, id int64) error
	TruncateEndDate(ctx context.Context, referenceID string, until time.Time) error
}

type CatalogRepo interface {
	GetProperty(ctx context.Context, propertyID int64) (*domain.Property, error)
	GetRoomType(ctx context.Context, roomTypeID int64) (*domain.RoomType, error)
	GetActiveSubscription(ctx context.Context, partnerID int64, now time.Time) (*domain.Subscription, error)
	GetCouponByCode(ctx context.Context, code string) (*domain.Coupon, error)
	IncrementCouponUsage(ctx context.Context, code string) error
}

// Wallets is the settlement surface; implemented by walletservice.
type Wallets interface {
	Credit(ctx context.Context, ownerID int64, kind domain.OwnerKind, amount int64, description, reference string, category domain.TxCategory) (*domain.Wallet, error)
	Debit(ctx context.Context, ownerID int64, kind domain.OwnerKind, amount int64, description, reference string, category domain.TxCategory) (*domain.Wallet, error)
	Balance(ctx context.Context, ownerID int64, kind domain.OwnerKind) (*domain.Wallet, error)
}

// Gateway creates payment orders with the external provider.
type Gateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (string, error)
}

type PaymentOrders interface {
	CreateOrder(ctx context.Context, order *domain.PaymentOrder) (*domain.PaymentOrder, error)
	MarkStatus(ctx context.Context, gatewayOrderID, status string) (bool, error)
}

// Outbox enqueues best-effort notifications; failures never propagate.
type Outbox interface {
	Enqueue(ctx context.Context, n *domain.Notification) (*domain.Notification, error)
}

var (
	ErrPropertyNotFound     = errors.New("property not found")
	ErrRoomTypeNotFound     = errors.New("room type not found")
	ErrBookingNotFound      = errors.New("booking not found")
	ErrInvalidDates         = errors.New("check-out must be after check-in")
	ErrInvalidPaymentMethod = errors.New("unsupported payment method")
	ErrInsufficientCapacity = errors.New("not enough rooms available for the selected dates")
	ErrCouponNotFound       = errors.New("coupon not found")
	ErrNotAuthorized        = errors.New("not authorized for this booking")
	ErrAlreadyCancelled     = errors.New("booking already cancelled")
	ErrInvalidTransition    = errors.New("invalid booking status transition")
	ErrPaymentPending       = errors.New("booking payment is pending")
	ErrNotInquiry           = errors.New("booking is not an inquiry")
	ErrInquiryClosed        = errors.New("inquiry is already closed")
	ErrProtectedEntry       = errors.New("ledger entry belongs to an active booking")
	ErrInvalidWalletPortion = errors.New("invalid wallet portion")
	ErrLedgerEntryNotFound  = errors.New("ledger entry not found")
	ErrOrderProcessed       = errors.New("payment order already processed")
)

// CreateParams is a booking request after DTO validation.
type CreateParams struct {
	PropertyID    int64
	RoomTypeID    int64
	CheckInDate   time.Time
	CheckOutDate  time.Time
	Units         int
	Guests        domain.Guests
	CouponCode    string
	PaymentMethod domain.PaymentMethod
	WalletAmount  int64 // wallet portion pre-applied to an online payment
}

type BlockParams struct {
	PropertyID int64
	RoomTypeID int64
	StartDate  time.Time
	EndDate    time.Time
	Units      int
	Source     domain.LedgerSource
}

type Service struct {
	bookingRepo BookingRepo
	ledgerRepo  LedgerRepo
	catalogRepo CatalogRepo
	wallets     Wallets
	gateway     Gateway
	orders      PaymentOrders
	outbox      Outbox
	txManager   pg.TXManager
	cfg         *config.Config
}

func New(bookingRepo BookingRepo, ledgerRepo LedgerRepo, catalogRepo CatalogRepo, wallets Wallets, gateway Gateway, orders PaymentOrders, outbox Outbox, txManager pg.TXManager, cfg *config.Config) *Service {
	return &Service{
		bookingRepo: bookingRepo,
		ledgerRepo:  ledgerRepo,
		catalogRepo: catalogRepo,
		wallets:     wallets,
		gateway:     gateway,
		orders:      orders,
		outbox:      outbox,
		txManager:   txManager,
		cfg:         cfg,
	}
}

func newBookingID(now time.Time) string {
	return fmt.Sprintf("BK-%s-%s", now.Format("20060102"), strings.ToUpper(uuid.NewString()[:8]))
}

// commissionRate resolves the rate per booking: an active subscription plan
// wins, otherwise the platform default applies. Rate changes never affect
// existing bookings because the result is persisted on the booking row.
func (s *Service) commissionRate(ctx context.Context, partnerID int64, now time.Time) float64 {
	sub, err := s.catalogRepo.GetActiveSubscription(ctx, partnerID, now)
	if err != nil || sub == nil {
		return s.cfg.CommissionRate
	}
	return sub.CommissionPercentage
}

// PrepareDraft validates a request and prices it into an unsaved Booking.
// Used both by direct creation and by deferred gateway orders, which stash
// the draft in the order notes until payment is verified.
func (s *Service) PrepareDraft(ctx context.Context, userID int64, params CreateParams) (*domain.Booking, error) {
	property, err := s.catalogRepo.GetProperty(ctx, params.PropertyID)
	if err != nil {
		return nil, err
	}
	if property == nil {
		return nil, ErrPropertyNotFound
	}

	now := time.Now()
	if domain.IsInquiryPropertyType(property.PropertyType) {
		return &domain.Booking{
			BookingID:     newBookingID(now),
			UserID:        userID,
			PartnerID:     property.PartnerID,
			PropertyID:    property.ID,
			BookingStatus: domain.BookingPending,
			PaymentStatus: domain.PaymentPending,
			IsInquiry:     true,
			InquiryStatus: domain.InquiryNew,
		}, nil
	}

	roomType, err := s.catalogRepo.GetRoomType(ctx, params.RoomTypeID)
	if err != nil {
		return nil, err
	}
	if roomType == nil || roomType.PropertyID != property.ID {
		return nil, ErrRoomTypeNotFound
	}

	nights := int(params.CheckOutDate.Sub(params.CheckInDate).Hours() / 24)
	if nights <= 0 {
		return nil, ErrInvalidDates
	}

	// cheap pre-check; the authoritative check runs under the room-type lock
	// inside the booking transaction
	reserved, err := s.ledgerRepo.ReservedUnits(ctx, roomType.ID, params.CheckInDate, params.CheckOutDate)
	if err != nil {
		return nil, err
	}
	if roomType.TotalInventory-reserved < params.Units {
		return nil, ErrInsufficientCapacity
	}

	var coupon *domain.Coupon
	var userUses int
	if params.CouponCode != "" {
		coupon, err = s.catalogRepo.GetCouponByCode(ctx, params.CouponCode)
		if err != nil {
			return nil, err
		}
		if coupon == nil {
			return nil, ErrCouponNotFound
		}
		userUses, err = s.bookingRepo.CountCouponUse(ctx, userID, params.CouponCode)
		if err != nil {
			return nil, err
		}
	}

	result, err := pricing.Compute(pricing.Input{
		RoomType:       *roomType,
		Nights:         nights,
		Units:          params.Units,
		Guests:         params.Guests,
		Coupon:         coupon,
		PropertyType:   property.PropertyType,
		UserCouponUses: userUses,
		CommissionRate: s.commissionRate(ctx, property.PartnerID, now),
		MinCommission:  s.cfg.MinCommission,
		TaxRate:        s.cfg.TaxRate,
		Now:            now,
	})
	if err != nil {
		return nil, err
	}

	return &domain.Booking{
		BookingID:       newBookingID(now),
		UserID:          userID,
		PartnerID:       property.PartnerID,
		PropertyID:      property.ID,
		RoomTypeID:      roomType.ID,
		CheckInDate:     params.CheckInDate,
		CheckOutDate:    params.CheckOutDate,
		TotalNights:     nights,
		Units:           params.Units,
		Guests:          params.Guests,
		PricePerNight:   result.PricePerNight,
		BaseAmount:      result.BaseAmount,
		ExtraCharges:    result.ExtraCharges,
		Discount:        result.Discount,
		Taxes:           result.Taxes,
		AdminCommission: result.AdminCommission,
		PartnerPayout:   result.PartnerPayout,
		TotalAmount:     result.TotalAmount,
		WalletAmount:    params.WalletAmount,
		CouponCode:      params.CouponCode,
		PaymentMethod:   params.PaymentMethod,
		PaymentStatus:   domain.PaymentPending,
		BookingStatus:   domain.BookingPending,
	}, nil
}

// Create runs the full creation flow for wallet, pay_at_hotel and online
// payments. Inventory reservation, the booking row and every wallet movement
// commit in one transaction; a failure anywhere leaves nothing behind.
func (s *Service) Create(ctx context.Context, userID int64, params CreateParams) (*domain.Booking, error) {
	booking, err := s.PrepareDraft(ctx, userID, params)
	if err != nil {
		return nil, err
	}

	if booking.IsInquiry {
		booking, err = s.bookingRepo.Create(ctx, booking)
		if err != nil {
			return nil, err
		}
		s.notify(ctx, booking.PartnerID, domain.KindPartner, "New inquiry", booking.BookingID)
		return booking, nil
	}

	switch params.PaymentMethod {
	case domain.PaymentWallet:
		err = s.createWalletPaid(ctx, booking)
	case domain.PaymentAtHotel:
		err = s.createPayAtHotel(ctx, booking)
	case domain.PaymentOnline:
		err = s.createOnline(ctx, booking)
	default:
		return nil, ErrInvalidPaymentMethod
	}
	if err != nil {
		return nil, err
	}

	if booking.BookingStatus == domain.BookingConfirmed {
		s.notifyConfirmed(ctx, booking)
	}
	return booking, nil
}

// wallet payment: debit the user for the full total, settle partner and
// treasury immediately.
func (s *Service) createWalletPaid(ctx context.Context, booking *domain.Booking) error {
	// the wallet method always settles the full total; a partial wallet
	// portion belongs on an online order where the gateway collects the rest
	if booking.WalletAmount != 0 && booking.WalletAmount != booking.TotalAmount {
		return ErrInvalidWalletPortion
	}
	return s.txManager.Begin(ctx, func(ctx context.Context) error {
		if err := s.reserve(ctx, booking, domain.SourcePlatform); err != nil {
			return err
		}

		ref := booking.BookingID
		if _, err := s.wallets.Debit(ctx, booking.UserID, domain.KindUser, booking.TotalAmount,
			"booking payment", ref, domain.CatBookingPayment); err != nil {
			return err
		}
		if err := s.settle(ctx, booking); err != nil {
			return err
		}

		booking.WalletAmount = booking.TotalAmount
		booking.PaymentStatus = domain.PaymentPaid
		booking.BookingStatus = domain.BookingConfirmed
		if _, err := s.bookingRepo.Create(ctx, booking); err != nil {
			return err
		}
		return s.redeemCoupon(ctx, booking)
	})
}

// pay_at_hotel: the partner fronts the platform's cut at booking time; the
// platform collects its commission and tax immediately regardless of payment
// method.
func (s *Service) createPayAtHotel(ctx context.Context, booking *domain.Booking) error {
	return s.txManager.Begin(ctx, func(ctx context.Context) error {
		if err := s.reserve(ctx, booking, domain.SourcePlatform); err != nil {
			return err
		}

		cut := booking.Taxes + booking.AdminCommission
		ref := booking.BookingID
		if _, err := s.wallets.Debit(ctx, booking.PartnerID, domain.KindPartner, cut,
			"platform cut advance", ref, domain.CatCommissionDeduction); err != nil {
			return err
		}
		if _, err := s.wallets.Credit(ctx, s.cfg.TreasuryOwner, domain.KindAdmin, cut,
			"commission and tax", ref, domain.CatCommission); err != nil {
			return err
		}

		booking.PaymentStatus = domain.PaymentPending
		booking.BookingStatus = domain.BookingConfirmed
		if _, err := s.bookingRepo.Create(ctx, booking); err != nil {
			return err
		}
		return s.redeemCoupon(ctx, booking)
	})
}

// online: the booking waits for the gateway callback; no inventory hold and
// no money movement until the payment is verified.
func (s *Service) createOnline(ctx context.Context, booking *domain.Booking) error {
	if booking.WalletAmount < 0 || booking.WalletAmount >= booking.TotalAmount {
		return ErrInvalidWalletPortion
	}
	if booking.WalletAmount > 0 {
		wallet, err := s.wallets.Balance(ctx, booking.UserID, domain.KindUser)
		if err != nil {
			return err
		}
		if wallet.Balance < booking.WalletAmount {
			return ErrInvalidWalletPortion
		}
	}

	booking.PaymentStatus = domain.PaymentPending
	booking.BookingStatus = domain.BookingAwaitingPayment
	booking, err := s.bookingRepo.Create(ctx, booking)
	if err != nil {
		return err
	}

	due := booking.TotalAmount - booking.WalletAmount
	receipt := uuid.NewString()
	gatewayOrderID, err := s.gateway.CreateOrder(ctx, due, "INR", receipt, map[string]string{
		"booking_id": booking.BookingID,
	})
	if err != nil {
		// creation aborts; the awaiting_payment row stays for the client to
		// retry the order
		return err
	}

	_, err = s.orders.CreateOrder(ctx, &domain.PaymentOrder{
		GatewayOrderID: gatewayOrderID,
		Receipt:        receipt,
		Amount:         due,
		Currency:       "INR",
		Purpose:        domain.PurposeBooking,
		UserID:         booking.UserID,
		BookingID:      booking.BookingID,
		WalletAmount:   booking.WalletAmount,
		Status:         "created",
	})
	return err
}

// reserve re-checks capacity under the room-type row lock and inserts the
// hold. Holding the lock for check and insert is what makes concurrent
// overlapping requests serialize instead of overbooking.
func (s *Service) reserve(ctx context.Context, booking *domain.Booking, source domain.LedgerSource) error {
	roomType, err := s.ledgerRepo.LockRoomType(ctx, booking.RoomTypeID)
	if err != nil {
		return err
	}
	if roomType == nil {
		return ErrRoomTypeNotFound
	}

	reserved, err := s.ledgerRepo.ReservedUnits(ctx, booking.RoomTypeID, booking.CheckInDate, booking.CheckOutDate)
	if err != nil {
		return err
	}
	if roomType.TotalInventory-reserved < booking.Units {
		return ErrInsufficientCapacity
	}

	_, err = s.ledgerRepo.Insert(ctx, &domain.LedgerEntry{
		PropertyID:    booking.PropertyID,
		RoomTypeID:    booking.RoomTypeID,
		InventoryType: "room",
		Source:        source,
		ReferenceID:   booking.BookingID,
		StartDate:     booking.CheckInDate,
		EndDate:       booking.CheckOutDate,
		Units:         booking.Units,
	})
	return err
}

// settle credits the partner payout and the treasury's commission+tax for a
// fully paid booking.
func (s *Service) settle(ctx context.Context, booking *domain.Booking) error {
	ref := booking.BookingID
	// payout can be zero when a discount swallows it entirely
	if booking.PartnerPayout > 0 {
		if _, err := s.wallets.Credit(ctx, booking.PartnerID, domain.KindPartner, booking.PartnerPayout,
			"booking payout", ref, domain.CatBookingEarning); err != nil {
			return err
		}
	}
	_, err := s.wallets.Credit(ctx, s.cfg.TreasuryOwner, domain.KindAdmin, booking.Taxes+booking.AdminCommission,
		"commission and tax", ref, domain.CatCommission)
	return err
}

func (s *Service) redeemCoupon(ctx context.Context, booking *domain.Booking) error {
	if booking.CouponCode == "" {
		return nil
	}
	return s.catalogRepo.IncrementCouponUsage(ctx, booking.CouponCode)
}

// ConfirmOnlinePayment finishes an online booking after signature
// verification: it materializes a deferred draft if no booking row exists
// yet, reserves inventory, applies the wallet portion and settles.
func (s *Service) ConfirmOnlinePayment(ctx context.Context, order *domain.PaymentOrder, draft *domain.Booking, paymentID string) (*domain.Booking, error) {
	var booking *domain.Booking
	var err error

	if order.BookingID != "" {
		booking, err = s.bookingRepo.GetByBookingID(ctx, order.BookingID)
		if err != nil {
			return nil, err
		}
		if booking == nil {
			return nil, ErrBookingNotFound
		}
		if booking.BookingStatus != domain.BookingAwaitingPayment {
			return nil, ErrInvalidTransition
		}
	} else {
		if draft == nil {
			return nil, ErrBookingNotFound
		}
		booking = draft
	}

	err = s.txManager.Begin(ctx, func(ctx context.Context) error {
		// the order flips created -> paid here, inside the transaction: a
		// capacity race rolls the flip back and the verification can be
		// retried, while a replayed callback finds the order already claimed
		flipped, err := s.orders.MarkStatus(ctx, order.GatewayOrderID, "paid")
		if err != nil {
			return err
		}
		if !flipped {
			return ErrOrderProcessed
		}

		if err := s.reserve(ctx, booking, domain.SourcePlatform); err != nil {
			return err
		}

		if order.WalletAmount > 0 {
			if _, err := s.wallets.Debit(ctx, booking.UserID, domain.KindUser, order.WalletAmount,
				"booking wallet portion", booking.BookingID, domain.CatBookingPayment); err != nil {
				return err
			}
		}
		if err := s.settle(ctx, booking); err != nil {
			return err
		}

		booking.PaymentStatus = domain.PaymentPaid
		booking.BookingStatus = domain.BookingConfirmed
		if booking.ID == 0 {
			if _, err := s.bookingRepo.Create(ctx, booking); err != nil {
				return err
			}
		} else if err := s.bookingRepo.UpdateStatus(ctx, booking.BookingID, booking.BookingStatus, booking.PaymentStatus); err != nil {
			return err
		}
		return s.redeemCoupon(ctx, booking)
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("online payment settled",
		zap.String("bookingID", booking.BookingID), zap.String("paymentID", paymentID))
	s.notifyConfirmed(ctx, booking)
	return booking, nil
}

func (s *Service) GetByID(ctx context.Context, bookingID string) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	return booking, nil
}

// Get fetches a booking visible to the caller: its user, its partner or an
// admin.
func (s *Service) Get(ctx context.Context, p domain.Principal, bookingID string) (*domain.Booking, error) {
	booking, err := s.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(booking, p); err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *Service) ListFor(ctx context.Context, p domain.Principal) ([]domain.Booking, error) {
	if p.Kind == domain.KindPartner {
		return s.bookingRepo.ListByPartner(ctx, p.ID)
	}
	return s.bookingRepo.ListByUser(ctx, p.ID)
}

func (s *Service) authorize(booking *domain.Booking, p domain.Principal) error {
	switch p.Kind {
	case domain.KindAdmin:
		return nil
	case domain.KindPartner:
		if booking.PartnerID == p.ID {
			return nil
		}
	case domain.KindUser:
		if booking.UserID == p.ID {
			return nil
		}
	}
	return ErrNotAuthorized
}

func (s *Service) notify(ctx context.Context, targetID int64, kind domain.OwnerKind, title, reference string) {
	_, err := s.outbox.Enqueue(ctx, &domain.Notification{
		TargetID:   targetID,
		TargetKind: kind,
		Title:      title,
		Body:       reference,
	})
	if err != nil {
		zap.L().Warn("failed to enqueue notification", zap.String("title", title), zap.Error(err))
	}
}

func (s *Service) notifyConfirmed(ctx context.Context, booking *domain.Booking) {
	s.notify(ctx, booking.UserID, domain.KindUser, "Booking confirmed", booking.BookingID)
	s.notify(ctx, booking.PartnerID, domain.KindPartner, "New booking", booking.BookingID)
}
