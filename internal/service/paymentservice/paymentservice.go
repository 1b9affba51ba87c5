package paymentservice

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bookstay/bookstay/internal/domain"
	"github.com/bookstay/bookstay/internal/service/bookingservice"
)

type PaymentRepo interface {
	CreateOrder(ctx context.Context, order *domain.PaymentOrder) (*domain.PaymentOrder, error)
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.PaymentOrder, error)
	MarkStatus(ctx context.Context, gatewayOrderID, status string) (bool, error)
}

type Gateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (string, error)
}

type Wallets interface {
	Credit(ctx context.Context, ownerID int64, kind domain.OwnerKind, amount int64, description, reference string, category domain.TxCategory) (*domain.Wallet, error)
	Balance(ctx context.Context, ownerID int64, kind domain.OwnerKind) (*domain.Wallet, error)
}

// Bookings is the slice of the booking orchestrator the payment flow needs.
type Bookings interface {
	PrepareDraft(ctx context.Context, userID int64, params bookingservice.CreateParams) (*domain.Booking, error)
	ConfirmOnlinePayment(ctx context.Context, order *domain.PaymentOrder, draft *domain.Booking, paymentID string) (*domain.Booking, error)
}

var (
	ErrInvalidSignature  = errors.New("invalid payment signature")
	ErrOrderNotFound     = errors.New("payment order not found")
	ErrOrderProcessed    = bookingservice.ErrOrderProcessed
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInquiryNotPayable = errors.New("inquiry properties cannot be paid for")
)

type Service struct {
	paymentRepo PaymentRepo
	gateway     Gateway
	wallets     Wallets
	bookings    Bookings
	secret      string
}

func New(paymentRepo PaymentRepo, gateway Gateway, wallets Wallets, bookings Bookings, secret string) *Service {
	return &Service{
		paymentRepo: paymentRepo,
		gateway:     gateway,
		wallets:     wallets,
		bookings:    bookings,
		secret:      secret,
	}
}

// CreateBookingOrder prices a booking request and opens a gateway order
// without creating a Booking row. The priced draft travels in the order notes
// and is materialized only when the payment is verified, so abandoned
// checkouts hold no inventory and leave no stale bookings.
func (s *Service) CreateBookingOrder(ctx context.Context, userID int64, params bookingservice.CreateParams) (*domain.PaymentOrder, error) {
	params.PaymentMethod = domain.PaymentOnline

	draft, err := s.bookings.PrepareDraft(ctx, userID, params)
	if err != nil {
		return nil, err
	}
	if draft.IsInquiry {
		return nil, ErrInquiryNotPayable
	}
	if params.WalletAmount < 0 || params.WalletAmount >= draft.TotalAmount {
		return nil, bookingservice.ErrInvalidWalletPortion
	}
	if params.WalletAmount > 0 {
		wallet, err := s.wallets.Balance(ctx, userID, domain.KindUser)
		if err != nil {
			return nil, err
		}
		if wallet.Balance < params.WalletAmount {
			return nil, bookingservice.ErrInvalidWalletPortion
		}
	}

	notes, err := json.Marshal(draft)
	if err != nil {
		return nil, fmt.Errorf("marshal booking draft: %w", err)
	}

	due := draft.TotalAmount - params.WalletAmount
	receipt := uuid.NewString()
	gatewayOrderID, err := s.gateway.CreateOrder(ctx, due, "INR", receipt, map[string]string{
		"purpose": string(domain.PurposeBooking),
	})
	if err != nil {
		return nil, err
	}

	return s.paymentRepo.CreateOrder(ctx, &domain.PaymentOrder{
		GatewayOrderID: gatewayOrderID,
		Receipt:        receipt,
		Amount:         due,
		Currency:       "INR",
		Purpose:        domain.PurposeBooking,
		UserID:         userID,
		WalletAmount:   params.WalletAmount,
		Notes:          notes,
		Status:         "created",
	})
}

// CreateTopupOrder opens a gateway order that credits the user's wallet on
// verification.
func (s *Service) CreateTopupOrder(ctx context.Context, userID int64, amount int64) (*domain.PaymentOrder, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	receipt := uuid.NewString()
	gatewayOrderID, err := s.gateway.CreateOrder(ctx, amount, "INR", receipt, map[string]string{
		"purpose": string(domain.PurposeTopup),
	})
	if err != nil {
		return nil, err
	}

	return s.paymentRepo.CreateOrder(ctx, &domain.PaymentOrder{
		GatewayOrderID: gatewayOrderID,
		Receipt:        receipt,
		Amount:         amount,
		Currency:       "INR",
		Purpose:        domain.PurposeTopup,
		UserID:         userID,
		Status:         "created",
	})
}

// VerifyPayment validates the gateway callback and completes whatever the
// order was for. The signature is HMAC-SHA256 over "orderID|paymentID"; a
// mismatch fails closed before anything is touched.
func (s *Service) VerifyPayment(ctx context.Context, orderID, paymentID, signature string) (*domain.Booking, error) {
	if !s.verifySignature(orderID, paymentID, signature) {
		zap.L().Warn("payment signature mismatch", zap.String("orderID", orderID))
		return nil, ErrInvalidSignature
	}

	order, err := s.paymentRepo.GetByGatewayOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	switch order.Purpose {
	case domain.PurposeTopup:
		// flips created -> paid exactly once; a second verify call is a no-op error
		flipped, err := s.paymentRepo.MarkStatus(ctx, orderID, "paid")
		if err != nil {
			return nil, err
		}
		if !flipped {
			return nil, ErrOrderProcessed
		}
		_, err = s.wallets.Credit(ctx, order.UserID, domain.KindUser, order.Amount,
			"wallet topup", orderID, domain.CatTopup)
		return nil, err
	default:
		// booking orders are claimed inside the confirmation transaction, so a
		// failed confirmation leaves the order retriable
		var draft *domain.Booking
		if order.BookingID == "" && len(order.Notes) > 0 {
			draft = &domain.Booking{}
			if err := json.Unmarshal(order.Notes, draft); err != nil {
				return nil, fmt.Errorf("unmarshal booking draft: %w", err)
			}
		}
		return s.bookings.ConfirmOnlinePayment(ctx, order, draft, paymentID)
	}
}

func (s *Service) verifySignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(s.secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
