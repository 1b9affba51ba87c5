package paymentservice

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	"github.com/bookstay/bookstay/internal/domain"
	"github.com/bookstay/bookstay/internal/service/bookingservice"
)

const testSecret = "gateway-test-secret"

type mocks struct {
	paymentRepo *MockPaymentRepo
	gateway     *MockGateway
	wallets     *MockWallets
	bookings    *MockBookings
}

func NewMock(t *testing.T) (*Service, *mocks) {
	ctrl := gomock.NewController(t)
	m := &mocks{
		paymentRepo: NewMockPaymentRepo(ctrl),
		gateway:     NewMockGateway(ctrl),
		wallets:     NewMockWallets(ctrl),
		bookings:    NewMockBookings(ctrl),
	}
	service := New(m.paymentRepo, m.gateway, m.wallets, m.bookings, testSecret)
	return service, m
}

func sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func bookingDraft() *domain.Booking {
	return &domain.Booking{
		BookingID:       "BK-20261012-AAAA1111",
		UserID:          5,
		PartnerID:       7,
		PropertyID:      17,
		RoomTypeID:      42,
		TotalNights:     2,
		Units:           1,
		BaseAmount:      2000,
		Taxes:           240,
		AdminCommission: 200,
		PartnerPayout:   1800,
		TotalAmount:     2240,
		PaymentMethod:   domain.PaymentOnline,
		PaymentStatus:   domain.PaymentPending,
		BookingStatus:   domain.BookingPending,
	}
}

func TestCreateBookingOrder(t *testing.T) {
	params := bookingservice.CreateParams{
		PropertyID: 17,
		RoomTypeID: 42,
		Units:      1,
	}

	t.Run("Priced draft travels in the order notes", func(t *testing.T) {
		service, m := NewMock(t)
		draft := bookingDraft()

		m.bookings.EXPECT().PrepareDraft(gomock.Any(), int64(5), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ int64, p bookingservice.CreateParams) (*domain.Booking, error) {
				assert.Equal(t, domain.PaymentOnline, p.PaymentMethod)
				return draft, nil
			})
		m.gateway.EXPECT().CreateOrder(gomock.Any(), int64(2240), "INR", gomock.Any(), gomock.Any()).
			Return("order_abc123", nil)
		m.paymentRepo.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, order *domain.PaymentOrder) (*domain.PaymentOrder, error) {
				assert.Equal(t, "order_abc123", order.GatewayOrderID)
				assert.Equal(t, domain.PurposeBooking, order.Purpose)
				assert.Empty(t, order.BookingID)
				var stored domain.Booking
				assert.NoError(t, json.Unmarshal(order.Notes, &stored))
				assert.Equal(t, draft.BookingID, stored.BookingID)
				return order, nil
			})

		order, err := service.CreateBookingOrder(context.Background(), 5, params)
		assert.NoError(t, err)
		assert.Equal(t, int64(2240), order.Amount)
	})

	t.Run("Wallet portion reduces the gateway amount", func(t *testing.T) {
		service, m := NewMock(t)
		draft := bookingDraft()

		m.bookings.EXPECT().PrepareDraft(gomock.Any(), int64(5), gomock.Any()).Return(draft, nil)
		m.wallets.EXPECT().Balance(gomock.Any(), int64(5), domain.KindUser).
			Return(&domain.Wallet{ID: 2, Balance: 1000}, nil)
		m.gateway.EXPECT().CreateOrder(gomock.Any(), int64(1740), "INR", gomock.Any(), gomock.Any()).
			Return("order_abc124", nil)
		m.paymentRepo.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, order *domain.PaymentOrder) (*domain.PaymentOrder, error) {
				assert.Equal(t, int64(500), order.WalletAmount)
				return order, nil
			})

		withWallet := params
		withWallet.WalletAmount = 500
		order, err := service.CreateBookingOrder(context.Background(), 5, withWallet)
		assert.NoError(t, err)
		assert.Equal(t, int64(1740), order.Amount)
	})

	t.Run("Wallet portion above the balance is rejected", func(t *testing.T) {
		service, m := NewMock(t)

		m.bookings.EXPECT().PrepareDraft(gomock.Any(), int64(5), gomock.Any()).Return(bookingDraft(), nil)
		m.wallets.EXPECT().Balance(gomock.Any(), int64(5), domain.KindUser).
			Return(&domain.Wallet{ID: 2, Balance: 100}, nil)

		withWallet := params
		withWallet.WalletAmount = 500
		_, err := service.CreateBookingOrder(context.Background(), 5, withWallet)
		assert.ErrorIs(t, err, bookingservice.ErrInvalidWalletPortion)
	})

	t.Run("Wallet portion covering the total is rejected", func(t *testing.T) {
		service, m := NewMock(t)

		m.bookings.EXPECT().PrepareDraft(gomock.Any(), int64(5), gomock.Any()).Return(bookingDraft(), nil)

		withWallet := params
		withWallet.WalletAmount = 2240
		_, err := service.CreateBookingOrder(context.Background(), 5, withWallet)
		assert.ErrorIs(t, err, bookingservice.ErrInvalidWalletPortion)
	})

	t.Run("Inquiry properties cannot open an order", func(t *testing.T) {
		service, m := NewMock(t)

		inquiry := &domain.Booking{BookingID: "BK-20261012-BBBB2222", IsInquiry: true}
		m.bookings.EXPECT().PrepareDraft(gomock.Any(), int64(5), gomock.Any()).Return(inquiry, nil)

		_, err := service.CreateBookingOrder(context.Background(), 5, params)
		assert.ErrorIs(t, err, ErrInquiryNotPayable)
	})
}

func TestCreateTopupOrder(t *testing.T) {
	t.Run("Opens a topup order", func(t *testing.T) {
		service, m := NewMock(t)

		m.gateway.EXPECT().CreateOrder(gomock.Any(), int64(5000), "INR", gomock.Any(), gomock.Any()).
			Return("order_top1", nil)
		m.paymentRepo.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, order *domain.PaymentOrder) (*domain.PaymentOrder, error) {
				assert.Equal(t, domain.PurposeTopup, order.Purpose)
				assert.Equal(t, int64(3), order.UserID)
				return order, nil
			})

		order, err := service.CreateTopupOrder(context.Background(), 3, 5000)
		assert.NoError(t, err)
		assert.Equal(t, "order_top1", order.GatewayOrderID)
	})

	t.Run("Zero amount is rejected", func(t *testing.T) {
		service, _ := NewMock(t)

		_, err := service.CreateTopupOrder(context.Background(), 3, 0)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})
}

func TestVerifyPayment(t *testing.T) {
	t.Run("Topup credits the wallet once verified", func(t *testing.T) {
		service, m := NewMock(t)
		order := &domain.PaymentOrder{
			GatewayOrderID: "order_top1",
			Purpose:        domain.PurposeTopup,
			UserID:         3,
			Amount:         5000,
			Status:         "created",
		}

		m.paymentRepo.EXPECT().GetByGatewayOrderID(gomock.Any(), "order_top1").Return(order, nil)
		m.paymentRepo.EXPECT().MarkStatus(gomock.Any(), "order_top1", "paid").Return(true, nil)
		m.wallets.EXPECT().Credit(gomock.Any(), int64(3), domain.KindUser, int64(5000), gomock.Any(), "order_top1", domain.CatTopup).
			Return(&domain.Wallet{ID: 2, Balance: 5000}, nil)

		booking, err := service.VerifyPayment(context.Background(), "order_top1", "pay_1", sign("order_top1", "pay_1"))
		assert.NoError(t, err)
		assert.Nil(t, booking)
	})

	t.Run("Booking order confirms via the deferred draft", func(t *testing.T) {
		service, m := NewMock(t)
		draft := bookingDraft()
		notes, _ := json.Marshal(draft)
		order := &domain.PaymentOrder{
			GatewayOrderID: "order_abc123",
			Purpose:        domain.PurposeBooking,
			UserID:         5,
			Amount:         2240,
			Notes:          notes,
			Status:         "created",
		}

		m.paymentRepo.EXPECT().GetByGatewayOrderID(gomock.Any(), "order_abc123").Return(order, nil)
		m.bookings.EXPECT().ConfirmOnlinePayment(gomock.Any(), order, gomock.Any(), "pay_2").
			DoAndReturn(func(_ context.Context, _ *domain.PaymentOrder, d *domain.Booking, _ string) (*domain.Booking, error) {
				assert.Equal(t, draft.BookingID, d.BookingID)
				d.BookingStatus = domain.BookingConfirmed
				d.PaymentStatus = domain.PaymentPaid
				return d, nil
			})

		booking, err := service.VerifyPayment(context.Background(), "order_abc123", "pay_2", sign("order_abc123", "pay_2"))
		assert.NoError(t, err)
		assert.Equal(t, domain.BookingConfirmed, booking.BookingStatus)
	})

	t.Run("Existing booking row skips the draft", func(t *testing.T) {
		service, m := NewMock(t)
		order := &domain.PaymentOrder{
			GatewayOrderID: "order_abc125",
			Purpose:        domain.PurposeBooking,
			UserID:         5,
			BookingID:      "BK-20261012-CCCC3333",
			Status:         "created",
		}

		m.paymentRepo.EXPECT().GetByGatewayOrderID(gomock.Any(), "order_abc125").Return(order, nil)
		m.bookings.EXPECT().ConfirmOnlinePayment(gomock.Any(), order, nil, "pay_3").
			Return(&domain.Booking{BookingStatus: domain.BookingConfirmed}, nil)

		booking, err := service.VerifyPayment(context.Background(), "order_abc125", "pay_3", sign("order_abc125", "pay_3"))
		assert.NoError(t, err)
		assert.Equal(t, domain.BookingConfirmed, booking.BookingStatus)
	})

	t.Run("Tampered signature fails closed", func(t *testing.T) {
		service, _ := NewMock(t)

		_, err := service.VerifyPayment(context.Background(), "order_abc123", "pay_2", "deadbeef")
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("Unknown order", func(t *testing.T) {
		service, m := NewMock(t)

		m.paymentRepo.EXPECT().GetByGatewayOrderID(gomock.Any(), "order_gone").Return(nil, nil)

		_, err := service.VerifyPayment(context.Background(), "order_gone", "pay_4", sign("order_gone", "pay_4"))
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("Second topup verification is rejected", func(t *testing.T) {
		service, m := NewMock(t)
		order := &domain.PaymentOrder{GatewayOrderID: "order_top1", Purpose: domain.PurposeTopup, Status: "paid"}

		m.paymentRepo.EXPECT().GetByGatewayOrderID(gomock.Any(), "order_top1").Return(order, nil)
		m.paymentRepo.EXPECT().MarkStatus(gomock.Any(), "order_top1", "paid").Return(false, nil)

		_, err := service.VerifyPayment(context.Background(), "order_top1", "pay_1", sign("order_top1", "pay_1"))
		assert.ErrorIs(t, err, ErrOrderProcessed)
	})

	t.Run("Failed confirmation leaves the order retriable", func(t *testing.T) {
		service, m := NewMock(t)
		order := &domain.PaymentOrder{
			GatewayOrderID: "order_abc126",
			Purpose:        domain.PurposeBooking,
			UserID:         5,
			BookingID:      "BK-20261012-DDDD4444",
			Status:         "created",
		}

		// no MarkStatus on this side: the flip belongs to the confirmation
		// transaction and rolls back with it
		m.paymentRepo.EXPECT().GetByGatewayOrderID(gomock.Any(), "order_abc126").Return(order, nil)
		m.bookings.EXPECT().ConfirmOnlinePayment(gomock.Any(), order, nil, "pay_5").
			Return(nil, bookingservice.ErrInsufficientCapacity)

		_, err := service.VerifyPayment(context.Background(), "order_abc126", "pay_5", sign("order_abc126", "pay_5"))
		assert.ErrorIs(t, err, bookingservice.ErrInsufficientCapacity)
	})
}
