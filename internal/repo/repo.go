package repo

import (
	"github.com/bookstay/bookstay/internal/notify"
	"github.com/bookstay/bookstay/internal/pg"
	bookingrepo "github.com/bookstay/bookstay/internal/repo/booking-repo"
	catalogrepo "github.com/bookstay/bookstay/internal/repo/catalog-repo"
	ledgerrepo "github.com/bookstay/bookstay/internal/repo/ledger-repo"
	outboxrepo "github.com/bookstay/bookstay/internal/repo/outbox-repo"
	paymentrepo "github.com/bookstay/bookstay/internal/repo/payment-repo"
	walletrepo "github.com/bookstay/bookstay/internal/repo/wallet-repo"
	withdrawalrepo "github.com/bookstay/bookstay/internal/repo/withdrawal-repo"
	"github.com/bookstay/bookstay/internal/service/bookingservice"
	"github.com/bookstay/bookstay/internal/service/paymentservice"
	"github.com/bookstay/bookstay/internal/service/walletservice"
)

type Outbox interface {
	bookingservice.Outbox
	notify.OutboxRepo
}

type Repositories struct {
	BookingRepo    bookingservice.BookingRepo
	LedgerRepo     bookingservice.LedgerRepo
	CatalogRepo    bookingservice.CatalogRepo
	WalletRepo     walletservice.WalletRepo
	WithdrawalRepo walletservice.WithdrawalRepo
	PaymentRepo    paymentservice.PaymentRepo
	OutboxRepo     Outbox
}

func New(conn pg.Database) *Repositories {
	return &Repositories{
		BookingRepo:    bookingrepo.New(conn),
		LedgerRepo:     ledgerrepo.New(conn),
		CatalogRepo:    catalogrepo.New(conn),
		WalletRepo:     walletrepo.New(conn),
		WithdrawalRepo: withdrawalrepo.New(conn),
		PaymentRepo:    paymentrepo.New(conn),
		OutboxRepo:     outboxrepo.New(conn),
	}
}
