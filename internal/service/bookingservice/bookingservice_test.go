package bookingservice

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	"github.com/bookstay/bookstay/internal/config"
	"github.com/bookstay/bookstay/internal/domain"
	"github.com/bookstay/bookstay/internal/pg"
	walletservice "github.com/bookstay/bookstay/internal/service/walletservice"
)

type mocks struct {
	bookingRepo *MockBookingRepo
	ledgerRepo  *MockLedgerRepo
	catalogRepo *MockCatalogRepo
	wallets     *MockWallets
	gateway     *MockGateway
	orders      *MockPaymentOrders
	outbox      *MockOutbox
}

func NewMock(t *testing.T) (*Service, *mocks) {
	ctrl := gomock.NewController(t)
	m := &mocks{
		bookingRepo: NewMockBookingRepo(ctrl),
		ledgerRepo:  NewMockLedgerRepo(ctrl),
		catalogRepo: NewMockCatalogRepo(ctrl),
		wallets:     NewMockWallets(ctrl),
		gateway:     NewMockGateway(ctrl),
		orders:      NewMockPaymentOrders(ctrl),
		outbox:      NewMockOutbox(ctrl),
	}
	txManager := pg.NewMockTXManager(ctrl)
	txManager.EXPECT().Begin(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		},
	).AnyTimes()
	cfg := &config.Config{
		CommissionRate: 10,
		MinCommission:  50,
		TaxRate:        12,
		TreasuryOwner:  1,
	}
	service := New(m.bookingRepo, m.ledgerRepo, m.catalogRepo, m.wallets, m.gateway, m.orders, m.outbox, txManager, cfg)
	return service, m
}

var (
	testProperty = &domain.Property{ID: 17, PartnerID: 7, Name: "Seaview", PropertyType: "hotel"}
	testRoomType = &domain.RoomType{
		ID:             42,
		PropertyID:     17,
		Name:           "Deluxe",
		TotalInventory: 5,
		PricePerNight:  1000,
		BaseOccupancy:  2,
		ChildOccupancy: 1,
	}
	checkIn  = time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	checkOut = time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
)

func stayParams(method domain.PaymentMethod) CreateParams {
	return CreateParams{
		PropertyID:    17,
		RoomTypeID:    42,
		CheckInDate:   checkIn,
		CheckOutDate:  checkOut,
		Units:         1,
		Guests:        domain.Guests{Adults: 2},
		PaymentMethod: method,
	}
}

// expectDraft wires the lookups PrepareDraft performs for the default stay.
func expectDraft(m *mocks) {
	m.catalogRepo.EXPECT().GetProperty(gomock.Any(), int64(17)).Return(testProperty, nil)
	m.catalogRepo.EXPECT().GetRoomType(gomock.Any(), int64(42)).Return(testRoomType, nil)
	m.ledgerRepo.EXPECT().ReservedUnits(gomock.Any(), int64(42), checkIn, checkOut).Return(0, nil)
	m.catalogRepo.EXPECT().GetActiveSubscription(gomock.Any(), int64(7), gomock.Any()).Return(nil, nil)
}

func expectReserve(t *testing.T, m *mocks) {
	m.ledgerRepo.EXPECT().LockRoomType(gomock.Any(), int64(42)).Return(testRoomType, nil)
	m.ledgerRepo.EXPECT().ReservedUnits(gomock.Any(), int64(42), checkIn, checkOut).Return(0, nil)
	m.ledgerRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, error) {
			assert.Equal(t, domain.SourcePlatform, entry.Source)
			assert.Equal(t, 1, entry.Units)
			return entry, nil
		})
}

func TestCreateWalletPaid(t *testing.T) {
	service, m := NewMock(t)

	expectDraft(m)
	expectReserve(t, m)
	m.wallets.EXPECT().Debit(gomock.Any(), int64(5), domain.KindUser, int64(2240), gomock.Any(), gomock.Any(), domain.CatBookingPayment).
		Return(&domain.Wallet{ID: 2, Balance: 760}, nil)
	m.wallets.EXPECT().Credit(gomock.Any(), int64(7), domain.KindPartner, int64(1800), gomock.Any(), gomock.Any(), domain.CatBookingEarning).
		Return(&domain.Wallet{}, nil)
	m.wallets.EXPECT().Credit(gomock.Any(), int64(1), domain.KindAdmin, int64(440), gomock.Any(), gomock.Any(), domain.CatCommission).
		Return(&domain.Wallet{}, nil)
	m.bookingRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, b *domain.Booking) (*domain.Booking, error) {
			return b, nil
		})
	m.outbox.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(&domain.Notification{}, nil).Times(2)

	booking, err := service.Create(context.Background(), 5, stayParams(domain.PaymentWallet))
	assert.NoError(t, err)
	assert.Equal(t, int64(2000), booking.BaseAmount)
	assert.Equal(t, int64(240), booking.Taxes)
	assert.Equal(t, int64(200), booking.AdminCommission)
	assert.Equal(t, int64(1800), booking.PartnerPayout)
	assert.Equal(t, int64(2240), booking.TotalAmount)
	assert.Equal(t, booking.TotalAmount, booking.WalletAmount)
	assert.Equal(t, domain.BookingConfirmed, booking.BookingStatus)
	assert.Equal(t, domain.PaymentPaid, booking.PaymentStatus)
}

func TestCreateWalletPaidFullDiscount(t *testing.T) {
	service, m := NewMock(t)

	coupon := &domain.Coupon{
		Code:          "FULLSTAY",
		DiscountType:  "flat",
		DiscountValue: 2000,
		StartDate:     checkIn.AddDate(-1, 0, 0),
		EndDate:       checkIn.AddDate(1, 0, 0),
		UserLimit:     1,
		Active:        true,
	}
	expectDraft(m)
	m.catalogRepo.EXPECT().GetCouponByCode(gomock.Any(), "FULLSTAY").Return(coupon, nil)
	m.bookingRepo.EXPECT().CountCouponUse(gomock.Any(), int64(5), "FULLSTAY").Return(0, nil)
	expectReserve(t, m)

	// the discount swallows the payout entirely: only taxes remain due and no
	// partner credit is ever attempted
	m.wallets.EXPECT().Debit(gomock.Any(), int64(5), domain.KindUser, int64(240), gomock.Any(), gomock.Any(), domain.CatBookingPayment).
		Return(&domain.Wallet{}, nil)
	m.wallets.EXPECT().Credit(gomock.Any(), int64(1), domain.KindAdmin, int64(240), gomock.Any(), gomock.Any(), domain.CatCommission).
		Return(&domain.Wallet{}, nil)
	m.bookingRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, b *domain.Booking) (*domain.Booking, error) {
			return b, nil
		})
	m.catalogRepo.EXPECT().IncrementCouponUsage(gomock.Any(), "FULLSTAY").Return(nil)
	m.outbox.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(&domain.Notification{}, nil).Times(2)

	params := stayParams(domain.PaymentWallet)
	params.CouponCode = "FULLSTAY"
	booking, err := service.Create(context.Background(), 5, params)
	assert.NoError(t, err)
	assert.Equal(t, int64(2000), booking.Discount)
	assert.Equal(t, int64(0), booking.PartnerPayout)
	assert.Equal(t, int64(240), booking.TotalAmount)
}

func TestCreateWalletPaidRejectsPartialPortion(t *testing.T) {
	service, m := NewMock(t)

	expectDraft(m)

	params := stayParams(domain.PaymentWallet)
	params.WalletAmount = 1000
	booking, err := service.Create(context.Background(), 5, params)
	assert.ErrorIs(t, err, ErrInvalidWalletPortion)
	assert.Nil(t, booking)
}

func TestCreateInsufficientBalance(t *testing.T) {
	service, m := NewMock(t)

	expectDraft(m)
	expectReserve(t, m)
	m.wallets.EXPECT().Debit(gomock.Any(), int64(5), domain.KindUser, int64(2240), gomock.Any(), gomock.Any(), domain.CatBookingPayment).
		Return(nil, walletservice.ErrInsufficientBalance)

	booking, err := service.Create(context.Background(), 5, stayParams(domain.PaymentWallet))
	assert.ErrorIs(t, err, walletservice.ErrInsufficientBalance)
	assert.Nil(t, booking)
}

func TestCreatePayAtHotel(t *testing.T) {
	service, m := NewMock(t)

	expectDraft(m)
	expectReserve(t, m)
	m.wallets.EXPECT().Debit(gomock.Any(), int64(7), domain.KindPartner, int64(440), gomock.Any(), gomock.Any(), domain.CatCommissionDeduction).
		Return(&domain.Wallet{ID: 3, Balance: -440}, nil)
	m.wallets.EXPECT().Credit(gomock.Any(), int64(1), domain.KindAdmin, int64(440), gomock.Any(), gomock.Any(), domain.CatCommission).
		Return(&domain.Wallet{}, nil)
	m.bookingRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, b *domain.Booking) (*domain.Booking, error) {
			return b, nil
		})
	m.outbox.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(&domain.Notification{}, nil).Times(2)

	booking, err := service.Create(context.Background(), 5, stayParams(domain.PaymentAtHotel))
	assert.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, booking.BookingStatus)
	assert.Equal(t, domain.PaymentPending, booking.PaymentStatus)
}

func TestCreateOnline(t *testing.T) {
	t.Run("Awaiting payment until verification", func(t *testing.T) {
		service, m := NewMock(t)
		expectDraft(m)
		m.bookingRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, b *domain.Booking) (*domain.Booking, error) {
				assert.Equal(t, domain.BookingAwaitingPayment, b.BookingStatus)
				return b, nil
			})
		m.gateway.EXPECT().CreateOrder(gomock.Any(), int64(2240), "INR", gomock.Any(), gomock.Any()).
			Return("order_abc123", nil)
		m.orders.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, order *domain.PaymentOrder) (*domain.PaymentOrder, error) {
				assert.Equal(t, "order_abc123", order.GatewayOrderID)
				assert.Equal(t, domain.PurposeBooking, order.Purpose)
				assert.NotEmpty(t, order.BookingID)
				return order, nil
			})

		booking, err := service.Create(context.Background(), 5, stayParams(domain.PaymentOnline))
		assert.NoError(t, err)
		assert.Equal(t, domain.BookingAwaitingPayment, booking.BookingStatus)
	})

	t.Run("Wallet portion must stay below the total", func(t *testing.T) {
		service, m := NewMock(t)
		expectDraft(m)

		params := stayParams(domain.PaymentOnline)
		params.WalletAmount = 2240
		booking, err := service.Create(context.Background(), 5, params)
		assert.ErrorIs(t, err, ErrInvalidWalletPortion)
		assert.Nil(t, booking)
	})
}

func TestCreateInquiry(t *testing.T) {
	service, m := NewMock(t)

	plot := &domain.Property{ID: 30, PartnerID: 7, PropertyType: "plot"}
	m.catalogRepo.EXPECT().GetProperty(gomock.Any(), int64(30)).Return(plot, nil)
	m.bookingRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, b *domain.Booking) (*domain.Booking, error) {
			return b, nil
		})
	m.outbox.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(&domain.Notification{}, nil)

	params := stayParams(domain.PaymentWallet)
	params.PropertyID = 30
	booking, err := service.Create(context.Background(), 5, params)
	assert.NoError(t, err)
	assert.True(t, booking.IsInquiry)
	assert.Equal(t, domain.InquiryNew, booking.InquiryStatus)
	assert.Equal(t, int64(0), booking.TotalAmount)
}

func TestCreateCapacityExhausted(t *testing.T) {
	service, m := NewMock(t)

	m.catalogRepo.EXPECT().GetProperty(gomock.Any(), int64(17)).Return(testProperty, nil)
	m.catalogRepo.EXPECT().GetRoomType(gomock.Any(), int64(42)).Return(testRoomType, nil)
	m.ledgerRepo.EXPECT().ReservedUnits(gomock.Any(), int64(42), checkIn, checkOut).Return(5, nil)

	booking, err := service.Create(context.Background(), 5, stayParams(domain.PaymentWallet))
	assert.ErrorIs(t, err, ErrInsufficientCapacity)
	assert.Nil(t, booking)
}

func paidBooking(method domain.PaymentMethod) *domain.Booking {
	return &domain.Booking{
		ID:              9,
		BookingID:       "BK-20261012-AAAA1111",
		UserID:          5,
		PartnerID:       7,
		PropertyID:      17,
		RoomTypeID:      42,
		CheckInDate:     checkIn,
		CheckOutDate:    checkOut,
		TotalNights:     2,
		Units:           1,
		BaseAmount:      2000,
		Taxes:           240,
		AdminCommission: 200,
		PartnerPayout:   1800,
		TotalAmount:     2240,
		PaymentMethod:   method,
		PaymentStatus:   domain.PaymentPaid,
		BookingStatus:   domain.BookingConfirmed,
	}
}

func TestCancel(t *testing.T) {
	t.Run("Reverses a paid settlement exactly", func(t *testing.T) {
		service, m := NewMock(t)
		booking := paidBooking(domain.PaymentWallet)

		m.bookingRepo.EXPECT().GetByBookingID(gomock.Any(), booking.BookingID).Return(booking, nil)
		m.wallets.EXPECT().Credit(gomock.Any(), int64(5), domain.KindUser, int64(2240), gomock.Any(), booking.BookingID, domain.CatRefund).
			Return(&domain.Wallet{}, nil)
		m.wallets.EXPECT().Debit(gomock.Any(), int64(7), domain.KindPartner, int64(1800), gomock.Any(), booking.BookingID, domain.CatRefundDeduction).
			Return(&domain.Wallet{}, nil)
		m.wallets.EXPECT().Debit(gomock.Any(), int64(1), domain.KindAdmin, int64(440), gomock.Any(), booking.BookingID, domain.CatRefundDeduction).
			Return(&domain.Wallet{}, nil)
		m.bookingRepo.EXPECT().UpdateStatus(gomock.Any(), booking.BookingID, domain.BookingCancelled, domain.PaymentRefunded).Return(nil)
		m.ledgerRepo.EXPECT().DeleteByReference(gomock.Any(), booking.BookingID).Return(int64(1), nil)
		m.outbox.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(&domain.Notification{}, nil).Times(2)

		cancelled, err := service.Cancel(context.Background(), domain.Principal{ID: 5, Kind: domain.KindUser}, booking.BookingID)
		assert.NoError(t, err)
		assert.Equal(t, domain.BookingCancelled, cancelled.BookingStatus)
		assert.Equal(t, domain.PaymentRefunded, cancelled.PaymentStatus)
	})

	t.Run("Pay at hotel returns only the fronted cut", func(t *testing.T) {
		service, m := NewMock(t)
		booking := paidBooking(domain.PaymentAtHotel)
		booking.PaymentStatus = domain.PaymentPending

		m.bookingRepo.EXPECT().GetByBookingID(gomock.Any(), booking.BookingID).Return(booking, nil)
		m.wallets.EXPECT().Credit(gomock.Any(), int64(7), domain.KindPartner, int64(440), gomock.Any(), booking.BookingID, domain.CatCommissionRefund).
			Return(&domain.Wallet{}, nil)
		m.wallets.EXPECT().Debit(gomock.Any(), int64(1), domain.KindAdmin, int64(440), gomock.Any(), booking.BookingID, domain.CatRefundDeduction).
			Return(&domain.Wallet{}, nil)
		m.bookingRepo.EXPECT().UpdateStatus(gomock.Any(), booking.BookingID, domain.BookingCancelled, domain.PaymentPending).Return(nil)
		m.ledgerRepo.EXPECT().DeleteByReference(gomock.Any(), booking.BookingID).Return(int64(1), nil)
		m.outbox.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(&domain.Notification{}, nil).Times(2)

		cancelled, err := service.Cancel(context.Background(), domain.Principal{ID: 7, Kind: domain.KindPartner}, booking.BookingID)
		assert.NoError(t, err)
		assert.Equal(t, domain.BookingCancelled, cancelled.BookingStatus)
	})

	t.Run("Cancelling twice is rejected", func(t *testing.T) {
		service, m := NewMock(t)
		booking := paidBooking(domain.PaymentWallet)
		booking.BookingStatus = domain.BookingCancelled

		m.bookingRepo.EXPECT().GetByBookingID(gomock.Any(), booking.BookingID).Return(booking, nil)

		_, err := service.Cancel(context.Background(), domain.Principal{ID: 5, Kind: domain.KindUser}, booking.BookingID)
		assert.ErrorIs(t, err, ErrAlreadyCancelled)
	})

	t.Run("Completed stays cannot be cancelled", func(t *testing.T) {
		service, m := NewMock(t)
		booking := paidBooking(domain.PaymentWallet)
		booking.BookingStatus = domain.BookingCheckedOut

		m.bookingRepo.EXPECT().GetByBookingID(gomock.Any(), booking.BookingID).Return(booking, nil)

		_, err := service.Cancel(context.Background(), domain.Principal{ID: 5, Kind: domain.KindUser}, booking.BookingID)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("Strangers are rejected", func(t *testing.T) {
		service, m := NewMock(t)
		booking := paidBooking(domain.PaymentWallet)

		m.bookingRepo.EXPECT().GetByBookingID(gomock.Any(), booking.BookingID).Return(booking, nil)

		_, err := service.Cancel(context.Background(), domain.Principal{ID: 99, Kind: domain.KindUser}, booking.BookingID)
		assert.ErrorIs(t, err, ErrNotAuthorized)
	})
}

func TestReject(t *testing.T) {
	t.Run("Partner refusal refunds like a cancellation", func(t *testing.T) {
		service, m := NewMock(t)
		booking := paidBooking(domain.PaymentWallet)

		m.bookingRepo.EXPECT().GetByBookingID(gomock.Any(), booking.BookingID).Return(booking, nil)
		m.wallets.EXPECT().Credit(gomock.Any(), int64(5), domain.KindUser, int64(2240), gomock.Any(), booking.BookingID, domain.CatRefund).
			Return(&domain.Wallet{}, nil)
		m.wallets.EXPECT().Debit(gomock.Any(), int64(7), domain.KindPartner, int64(1800), gomock.Any(), booking.BookingID, domain.CatRefundDeduction).
			Return(&domain.Wallet{}, nil)
		m.wallets.EXPECT().Debit(gomock.Any(), int64(1), domain.KindAdmin, int64(440), gomock.Any(), booking.BookingID, domain.CatRefundDeduction).
			Return(&domain.Wallet{}, nil)
		m.bookingRepo.EXPECT().UpdateStatus(gomock.Any(), booking.BookingID, domain.BookingRejected, domain.PaymentRefunded).Return(nil)
		m.ledgerRepo.EXPECT().DeleteByReference(gomock.Any(), booking.BookingID).Return(int64(1), nil)
		m.outbox.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(&domain.Notification{}, nil)

		rejected, err := service.Reject(context.Background(), domain.Principal{ID: 7, Kind: domain.KindPartner}, booking.BookingID)
		assert.NoError(t, err)
		assert.Equal(t, domain.BookingRejected, rejected.BookingStatus)
		assert.Equal(t, domain.PaymentRefunded, rejected.PaymentStatus)
	})

	t.Run("Guests cannot reject", func(t *testing.T) {
		service, _ := NewMock(t)

		_, err := service.Reject(context.Background(), domain.Principal{ID: 5, Kind: domain.KindUser}, "BK-20261012-AAAA1111")
		assert.ErrorIs(t, err, ErrNotAuthorized)
	})

	t.Run("Checked-in stays cannot be rejected", func(t *testing.T) {
		service, m := NewMock(t)
		booking := paidBooking(domain.PaymentWallet)
		booking.BookingStatus = domain.BookingCheckedIn

		m.bookingRepo.EXPECT().GetByBookingID(gomock.Any(), booking.BookingID).Return(booking, nil)

		_, err := service.Reject(context.Background(), domain.Principal{ID: 7, Kind: domain.KindPartner}, booking.BookingID)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestNoShow(t *testing.T) {
	t.Run("Platform keeps the payout as penalty", func(t *testing.T) {
		service, m := NewMock(t)
		booking := paidBooking(domain.PaymentWallet)

		m.bookingRepo.EXPECT().GetByBookingID(gomock.Any(), booking.BookingID).Return(booking, nil)
		m.wallets.EXPECT().Debit(gomock.Any(), int64(7), domain.KindPartner, int64(1800), gomock.Any(), booking.BookingID, domain.CatNoShowPenalty).
			Return(&domain.Wallet{}, nil)
		m.wallets.EXPECT().Credit(gomock.Any(), int64(1), domain.KindAdmin, int64(1800), gomock.Any(), booking.BookingID, domain.CatNoShowCompensation).
			Return(&domain.Wallet{}, nil)
		m.bookingRepo.EXPECT().UpdateStatus(gomock.Any(), booking.BookingID, domain.BookingNoShow, domain.PaymentPaid).Return(nil)
		m.ledgerRepo.EXPECT().DeleteByReference(gomock.Any(), booking.BookingID).Return(int64(1), nil)
		m.outbox.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(&domain.Notification{}, nil)

		updated, err := service.NoShow(context.Background(), domain.Principal{ID: 7, Kind: domain.KindPartner}, booking.BookingID)
		assert.NoError(t, err)
		assert.Equal(t, domain.BookingNoShow, updated.BookingStatus)
	})

	t.Run("Pay at hotel reverses the front and still penalizes", func(t *testing.T) {
		service, m := NewMock(t)
		booking := paidBooking(domain.PaymentAtHotel)
		booking.PaymentStatus = domain.PaymentPending

		m.bookingRepo.EXPECT().GetByBookingID(gomock.Any(), booking.BookingID).Return(booking, nil)
		m.wallets.EXPECT().Credit(gomock.Any(), int64(7), domain.KindPartner, int64(440), gomock.Any(), booking.BookingID, domain.CatCommissionRefund).
			Return(&domain.Wallet{}, nil)
		m.wallets.EXPECT().Debit(gomock.Any(), int64(1), domain.KindAdmin, int64(440), gomock.Any(), booking.BookingID, domain.CatRefundDeduction).
			Return(&domain.Wallet{}, nil)
		m.wallets.EXPECT().Debit(gomock.Any(), int64(7), domain.KindPartner, int64(1800), gomock.Any(), booking.BookingID, domain.CatNoShowPenalty).
			Return(&domain.Wallet{}, nil)
		m.wallets.EXPECT().Credit(gomock.Any(), int64(1), domain.KindAdmin, int64(1800), gomock.Any(), booking.BookingID, domain.CatNoShowCompensation).
			Return(&domain.Wallet{}, nil)
		m.bookingRepo.EXPECT().UpdateStatus(gomock.Any(), booking.BookingID, domain.BookingNoShow, domain.PaymentPending).Return(nil)
		m.ledgerRepo.EXPECT().DeleteByReference(gomock.Any(), booking.BookingID).Return(int64(1), nil)
		m.outbox.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(&domain.Notification{}, nil)

		updated, err := service.NoShow(context.Background(), domain.Principal{ID: 7, Kind: domain.KindPartner}, booking.BookingID)
		assert.NoError(t, err)
		assert.Equal(t, domain.BookingNoShow, updated.BookingStatus)
	})

	t.Run("Guests cannot declare no-show", func(t *testing.T) {
		service, _ := NewMock(t)

		_, err := service.NoShow(context.Background(), domain.Principal{ID: 5, Kind: domain.KindUser}, "BK-X")
		assert.ErrorIs(t, err, ErrNotAuthorized)
	})
}

func TestCheckInCheckOut(t *testing.T) {
	t.Run("Check in flips status", func(t *testing.T) {
		service, m := NewMock(t)
		booking := paidBooking(domain.PaymentWallet)

		m.bookingRepo.EXPECT().GetByBookingID(gomock.Any(), booking.BookingID).Return(booking, nil)
		m.bookingRepo.EXPECT().UpdateStatus(gomock.Any(), booking.BookingID, domain.BookingCheckedIn, domain.PaymentPaid).Return(nil)

		updated, err := service.CheckIn(context.Background(), domain.Principal{ID: 7, Kind: domain.KindPartner}, booking.BookingID)
		assert.NoError(t, err)
		assert.Equal(t, domain.BookingCheckedIn, updated.BookingStatus)
	})

	t.Run("Early check out frees the remaining nights", func(t *testing.T) {
		service, m := NewMock(t)
		booking := paidBooking(domain.PaymentWallet)
		booking.BookingStatus = domain.BookingCheckedIn
		booking.CheckOutDate = time.Now().Add(48 * time.Hour)

		m.bookingRepo.EXPECT().GetByBookingID(gomock.Any(), booking.BookingID).Return(booking, nil)
		m.bookingRepo.EXPECT().UpdateStatus(gomock.Any(), booking.BookingID, domain.BookingCheckedOut, domain.PaymentPaid).Return(nil)
		m.ledgerRepo.EXPECT().TruncateEndDate(gomock.Any(), booking.BookingID, gomock.Any()).Return(nil)

		updated, err := service.CheckOut(context.Background(), domain.Principal{ID: 7, Kind: domain.KindPartner}, booking.BookingID, false)
		assert.NoError(t, err)
		assert.Equal(t, domain.BookingCheckedOut, updated.BookingStatus)
	})

	t.Run("Unpaid stay needs force", func(t *testing.T) {
		service, m := NewMock(t)
		booking := paidBooking(domain.PaymentAtHotel)
		booking.BookingStatus = domain.BookingCheckedIn
		booking.PaymentStatus = domain.PaymentPending

		m.bookingRepo.EXPECT().GetByBookingID(gomock.Any(), booking.BookingID).Return(booking, nil)

		_, err := service.CheckOut(context.Background(), domain.Principal{ID: 7, Kind: domain.KindPartner}, booking.BookingID, false)
		assert.ErrorIs(t, err, ErrPaymentPending)
	})

	t.Run("Force overrides pending payment", func(t *testing.T) {
		service, m := NewMock(t)
		booking := paidBooking(domain.PaymentAtHotel)
		booking.BookingStatus = domain.BookingCheckedIn
		booking.PaymentStatus = domain.PaymentPending
		booking.CheckOutDate = time.Now().Add(-time.Hour)

		m.bookingRepo.EXPECT().GetByBookingID(gomock.Any(), booking.BookingID).Return(booking, nil)
		m.bookingRepo.EXPECT().UpdateStatus(gomock.Any(), booking.BookingID, domain.BookingCheckedOut, domain.PaymentPending).Return(nil)

		updated, err := service.CheckOut(context.Background(), domain.Principal{ID: 7, Kind: domain.KindPartner}, booking.BookingID, true)
		assert.NoError(t, err)
		assert.Equal(t, domain.BookingCheckedOut, updated.BookingStatus)
	})
}

func TestMarkPaid(t *testing.T) {
	t.Run("Flips payment status only", func(t *testing.T) {
		service, m := NewMock(t)
		booking := paidBooking(domain.PaymentAtHotel)
		booking.PaymentStatus = domain.PaymentPending

		m.bookingRepo.EXPECT().GetByBookingID(gomock.Any(), booking.BookingID).Return(booking, nil)
		m.bookingRepo.EXPECT().UpdateStatus(gomock.Any(), booking.BookingID, domain.BookingConfirmed, domain.PaymentPaid).Return(nil)

		updated, err := service.MarkPaid(context.Background(), domain.Principal{ID: 7, Kind: domain.KindPartner}, booking.BookingID)
		assert.NoError(t, err)
		assert.Equal(t, domain.PaymentPaid, updated.PaymentStatus)
	})

	t.Run("Already paid is a no-op", func(t *testing.T) {
		service, m := NewMock(t)
		booking := paidBooking(domain.PaymentAtHotel)

		m.bookingRepo.EXPECT().GetByBookingID(gomock.Any(), booking.BookingID).Return(booking, nil)

		updated, err := service.MarkPaid(context.Background(), domain.Principal{ID: 7, Kind: domain.KindPartner}, booking.BookingID)
		assert.NoError(t, err)
		assert.Equal(t, domain.PaymentPaid, updated.PaymentStatus)
	})

	t.Run("Wallet bookings cannot be marked", func(t *testing.T) {
		service, m := NewMock(t)
		booking := paidBooking(domain.PaymentWallet)

		m.bookingRepo.EXPECT().GetByBookingID(gomock.Any(), booking.BookingID).Return(booking, nil)

		_, err := service.MarkPaid(context.Background(), domain.Principal{ID: 7, Kind: domain.KindPartner}, booking.BookingID)
		assert.ErrorIs(t, err, ErrInvalidPaymentMethod)
	})
}

func TestInquiryTransitions(t *testing.T) {
	inquiry := &domain.Booking{
		BookingID:     "BK-20261012-BBBB2222",
		UserID:        5,
		PartnerID:     7,
		IsInquiry:     true,
		InquiryStatus: domain.InquiryNew,
	}

	t.Run("Partner moves new to scheduled", func(t *testing.T) {
		service, m := NewMock(t)
		m.bookingRepo.EXPECT().GetByBookingID(gomock.Any(), inquiry.BookingID).Return(inquiry, nil)
		m.bookingRepo.EXPECT().UpdateInquiryStatus(gomock.Any(), inquiry.BookingID, domain.InquiryScheduled).Return(nil)

		updated, err := service.UpdateInquiryStatus(context.Background(), domain.Principal{ID: 7, Kind: domain.KindPartner}, inquiry.BookingID, domain.InquiryScheduled)
		assert.NoError(t, err)
		assert.Equal(t, domain.InquiryScheduled, updated.InquiryStatus)
	})

	t.Run("Closed inquiries stay closed", func(t *testing.T) {
		service, m := NewMock(t)
		closed := *inquiry
		closed.InquiryStatus = domain.InquirySold
		m.bookingRepo.EXPECT().GetByBookingID(gomock.Any(), inquiry.BookingID).Return(&closed, nil)

		_, err := service.UpdateInquiryStatus(context.Background(), domain.Principal{ID: 7, Kind: domain.KindPartner}, inquiry.BookingID, domain.InquiryScheduled)
		assert.ErrorIs(t, err, ErrInquiryClosed)
	})

	t.Run("Users may only drop", func(t *testing.T) {
		service, _ := NewMock(t)

		_, err := service.UpdateInquiryStatus(context.Background(), domain.Principal{ID: 5, Kind: domain.KindUser}, inquiry.BookingID, domain.InquiryScheduled)
		assert.ErrorIs(t, err, ErrNotAuthorized)
	})
}

func TestBlockUnblock(t *testing.T) {
	blockParams := BlockParams{
		PropertyID: 17,
		RoomTypeID: 42,
		StartDate:  checkIn,
		EndDate:    checkOut,
		Units:      2,
		Source:     domain.SourceWalkIn,
	}

	t.Run("Capacity guarded manual hold", func(t *testing.T) {
		service, m := NewMock(t)
		m.catalogRepo.EXPECT().GetProperty(gomock.Any(), int64(17)).Return(testProperty, nil)
		m.ledgerRepo.EXPECT().LockRoomType(gomock.Any(), int64(42)).Return(testRoomType, nil)
		m.ledgerRepo.EXPECT().ReservedUnits(gomock.Any(), int64(42), checkIn, checkOut).Return(3, nil)
		m.ledgerRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, error) {
				assert.Equal(t, domain.SourceWalkIn, entry.Source)
				return entry, nil
			})

		entry, err := service.Block(context.Background(), domain.Principal{ID: 7, Kind: domain.KindPartner}, blockParams)
		assert.NoError(t, err)
		assert.Contains(t, entry.ReferenceID, "BLK-")
	})

	t.Run("Hold denied when rooms are taken", func(t *testing.T) {
		service, m := NewMock(t)
		m.catalogRepo.EXPECT().GetProperty(gomock.Any(), int64(17)).Return(testProperty, nil)
		m.ledgerRepo.EXPECT().LockRoomType(gomock.Any(), int64(42)).Return(testRoomType, nil)
		m.ledgerRepo.EXPECT().ReservedUnits(gomock.Any(), int64(42), checkIn, checkOut).Return(4, nil)

		_, err := service.Block(context.Background(), domain.Principal{ID: 7, Kind: domain.KindPartner}, blockParams)
		assert.ErrorIs(t, err, ErrInsufficientCapacity)
	})

	t.Run("Other partners' properties are off limits", func(t *testing.T) {
		service, m := NewMock(t)
		m.catalogRepo.EXPECT().GetProperty(gomock.Any(), int64(17)).Return(testProperty, nil)

		_, err := service.Block(context.Background(), domain.Principal{ID: 8, Kind: domain.KindPartner}, blockParams)
		assert.ErrorIs(t, err, ErrNotAuthorized)
	})

	t.Run("Live platform holds are protected", func(t *testing.T) {
		service, m := NewMock(t)
		entry := &domain.LedgerEntry{ID: 91, PropertyID: 17, Source: domain.SourcePlatform, ReferenceID: "BK-20261012-AAAA1111"}
		m.ledgerRepo.EXPECT().GetEntry(gomock.Any(), int64(91)).Return(entry, nil)
		m.catalogRepo.EXPECT().GetProperty(gomock.Any(), int64(17)).Return(testProperty, nil)
		m.bookingRepo.EXPECT().GetByBookingID(gomock.Any(), entry.ReferenceID).
			Return(paidBooking(domain.PaymentWallet), nil)

		err := service.Unblock(context.Background(), domain.Principal{ID: 7, Kind: domain.KindPartner}, 91)
		assert.ErrorIs(t, err, ErrProtectedEntry)
	})

	t.Run("Cancelled booking holds may be cleared", func(t *testing.T) {
		service, m := NewMock(t)
		entry := &domain.LedgerEntry{ID: 91, PropertyID: 17, Source: domain.SourcePlatform, ReferenceID: "BK-20261012-AAAA1111"}
		cancelled := paidBooking(domain.PaymentWallet)
		cancelled.BookingStatus = domain.BookingCancelled
		m.ledgerRepo.EXPECT().GetEntry(gomock.Any(), int64(91)).Return(entry, nil)
		m.catalogRepo.EXPECT().GetProperty(gomock.Any(), int64(17)).Return(testProperty, nil)
		m.bookingRepo.EXPECT().GetByBookingID(gomock.Any(), entry.ReferenceID).Return(cancelled, nil)
		m.ledgerRepo.EXPECT().DeleteEntry(gomock.Any(), int64(91)).Return(nil)

		err := service.Unblock(context.Background(), domain.Principal{ID: 7, Kind: domain.KindPartner}, 91)
		assert.NoError(t, err)
	})
}

func TestAvailability(t *testing.T) {
	t.Run("Reports remaining units", func(t *testing.T) {
		service, m := NewMock(t)
		m.catalogRepo.EXPECT().GetRoomType(gomock.Any(), int64(42)).Return(testRoomType, nil)
		m.ledgerRepo.EXPECT().ReservedUnits(gomock.Any(), int64(42), checkIn, checkOut).Return(2, nil)

		units, err := service.Availability(context.Background(), 42, checkIn, checkOut)
		assert.NoError(t, err)
		assert.Equal(t, 3, units)
	})

	t.Run("Oversold ledger clamps to zero", func(t *testing.T) {
		service, m := NewMock(t)
		m.catalogRepo.EXPECT().GetRoomType(gomock.Any(), int64(42)).Return(testRoomType, nil)
		m.ledgerRepo.EXPECT().ReservedUnits(gomock.Any(), int64(42), checkIn, checkOut).Return(9, nil)

		units, err := service.Availability(context.Background(), 42, checkIn, checkOut)
		assert.NoError(t, err)
		assert.Equal(t, 0, units)
	})

	t.Run("Reversed dates are invalid", func(t *testing.T) {
		service, _ := NewMock(t)

		_, err := service.Availability(context.Background(), 42, checkOut, checkIn)
		assert.ErrorIs(t, err, ErrInvalidDates)
	})
}

func TestConfirmOnlinePayment(t *testing.T) {
	t.Run("Settles an awaiting booking", func(t *testing.T) {
		service, m := NewMock(t)
		booking := paidBooking(domain.PaymentOnline)
		booking.BookingStatus = domain.BookingAwaitingPayment
		booking.PaymentStatus = domain.PaymentPending
		order := &domain.PaymentOrder{GatewayOrderID: "order_abc123", BookingID: booking.BookingID, Amount: 2240}

		m.bookingRepo.EXPECT().GetByBookingID(gomock.Any(), booking.BookingID).Return(booking, nil)
		m.orders.EXPECT().MarkStatus(gomock.Any(), "order_abc123", "paid").Return(true, nil)
		m.ledgerRepo.EXPECT().LockRoomType(gomock.Any(), int64(42)).Return(testRoomType, nil)
		m.ledgerRepo.EXPECT().ReservedUnits(gomock.Any(), int64(42), checkIn, checkOut).Return(0, nil)
		m.ledgerRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(&domain.LedgerEntry{}, nil)
		m.wallets.EXPECT().Credit(gomock.Any(), int64(7), domain.KindPartner, int64(1800), gomock.Any(), booking.BookingID, domain.CatBookingEarning).
			Return(&domain.Wallet{}, nil)
		m.wallets.EXPECT().Credit(gomock.Any(), int64(1), domain.KindAdmin, int64(440), gomock.Any(), booking.BookingID, domain.CatCommission).
			Return(&domain.Wallet{}, nil)
		m.bookingRepo.EXPECT().UpdateStatus(gomock.Any(), booking.BookingID, domain.BookingConfirmed, domain.PaymentPaid).Return(nil)
		m.outbox.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(&domain.Notification{}, nil).Times(2)

		confirmed, err := service.ConfirmOnlinePayment(context.Background(), order, nil, "pay_xyz")
		assert.NoError(t, err)
		assert.Equal(t, domain.BookingConfirmed, confirmed.BookingStatus)
		assert.Equal(t, domain.PaymentPaid, confirmed.PaymentStatus)
	})

	t.Run("Wallet portion is debited during settlement", func(t *testing.T) {
		service, m := NewMock(t)
		booking := paidBooking(domain.PaymentOnline)
		booking.BookingStatus = domain.BookingAwaitingPayment
		booking.PaymentStatus = domain.PaymentPending
		order := &domain.PaymentOrder{GatewayOrderID: "order_abc123", BookingID: booking.BookingID, Amount: 1740, WalletAmount: 500}

		m.bookingRepo.EXPECT().GetByBookingID(gomock.Any(), booking.BookingID).Return(booking, nil)
		m.orders.EXPECT().MarkStatus(gomock.Any(), "order_abc123", "paid").Return(true, nil)
		m.ledgerRepo.EXPECT().LockRoomType(gomock.Any(), int64(42)).Return(testRoomType, nil)
		m.ledgerRepo.EXPECT().ReservedUnits(gomock.Any(), int64(42), checkIn, checkOut).Return(0, nil)
		m.ledgerRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(&domain.LedgerEntry{}, nil)
		m.wallets.EXPECT().Debit(gomock.Any(), int64(5), domain.KindUser, int64(500), gomock.Any(), booking.BookingID, domain.CatBookingPayment).
			Return(&domain.Wallet{}, nil)
		m.wallets.EXPECT().Credit(gomock.Any(), int64(7), domain.KindPartner, int64(1800), gomock.Any(), booking.BookingID, domain.CatBookingEarning).
			Return(&domain.Wallet{}, nil)
		m.wallets.EXPECT().Credit(gomock.Any(), int64(1), domain.KindAdmin, int64(440), gomock.Any(), booking.BookingID, domain.CatCommission).
			Return(&domain.Wallet{}, nil)
		m.bookingRepo.EXPECT().UpdateStatus(gomock.Any(), booking.BookingID, domain.BookingConfirmed, domain.PaymentPaid).Return(nil)
		m.outbox.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(&domain.Notification{}, nil).Times(2)

		_, err := service.ConfirmOnlinePayment(context.Background(), order, nil, "pay_xyz")
		assert.NoError(t, err)
	})

	t.Run("Deferred draft is materialized", func(t *testing.T) {
		service, m := NewMock(t)
		draft := paidBooking(domain.PaymentOnline)
		draft.ID = 0
		draft.BookingStatus = domain.BookingPending
		draft.PaymentStatus = domain.PaymentPending
		order := &domain.PaymentOrder{GatewayOrderID: "order_abc123", Amount: 2240}

		m.orders.EXPECT().MarkStatus(gomock.Any(), "order_abc123", "paid").Return(true, nil)
		m.ledgerRepo.EXPECT().LockRoomType(gomock.Any(), int64(42)).Return(testRoomType, nil)
		m.ledgerRepo.EXPECT().ReservedUnits(gomock.Any(), int64(42), checkIn, checkOut).Return(0, nil)
		m.ledgerRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(&domain.LedgerEntry{}, nil)
		m.wallets.EXPECT().Credit(gomock.Any(), int64(7), domain.KindPartner, int64(1800), gomock.Any(), draft.BookingID, domain.CatBookingEarning).
			Return(&domain.Wallet{}, nil)
		m.wallets.EXPECT().Credit(gomock.Any(), int64(1), domain.KindAdmin, int64(440), gomock.Any(), draft.BookingID, domain.CatCommission).
			Return(&domain.Wallet{}, nil)
		m.bookingRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, b *domain.Booking) (*domain.Booking, error) {
				assert.Equal(t, domain.BookingConfirmed, b.BookingStatus)
				return b, nil
			})
		m.outbox.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(&domain.Notification{}, nil).Times(2)

		confirmed, err := service.ConfirmOnlinePayment(context.Background(), order, draft, "pay_xyz")
		assert.NoError(t, err)
		assert.Equal(t, domain.BookingConfirmed, confirmed.BookingStatus)
	})

	t.Run("Verification races lose to capacity", func(t *testing.T) {
		service, m := NewMock(t)
		booking := paidBooking(domain.PaymentOnline)
		booking.BookingStatus = domain.BookingAwaitingPayment
		booking.PaymentStatus = domain.PaymentPending
		order := &domain.PaymentOrder{GatewayOrderID: "order_abc123", BookingID: booking.BookingID}

		m.bookingRepo.EXPECT().GetByBookingID(gomock.Any(), booking.BookingID).Return(booking, nil)
		m.orders.EXPECT().MarkStatus(gomock.Any(), "order_abc123", "paid").Return(true, nil)
		m.ledgerRepo.EXPECT().LockRoomType(gomock.Any(), int64(42)).Return(testRoomType, nil)
		m.ledgerRepo.EXPECT().ReservedUnits(gomock.Any(), int64(42), checkIn, checkOut).Return(5, nil)

		_, err := service.ConfirmOnlinePayment(context.Background(), order, nil, "pay_xyz")
		assert.ErrorIs(t, err, ErrInsufficientCapacity)
	})

	t.Run("Replayed callback finds the order claimed", func(t *testing.T) {
		service, m := NewMock(t)
		booking := paidBooking(domain.PaymentOnline)
		booking.BookingStatus = domain.BookingAwaitingPayment
		booking.PaymentStatus = domain.PaymentPending
		order := &domain.PaymentOrder{GatewayOrderID: "order_abc123", BookingID: booking.BookingID, Amount: 2240}

		m.bookingRepo.EXPECT().GetByBookingID(gomock.Any(), booking.BookingID).Return(booking, nil)
		m.orders.EXPECT().MarkStatus(gomock.Any(), "order_abc123", "paid").Return(false, nil)

		_, err := service.ConfirmOnlinePayment(context.Background(), order, nil, "pay_xyz")
		assert.ErrorIs(t, err, ErrOrderProcessed)
	})
}
