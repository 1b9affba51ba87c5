package service

import (
	"github.com/bookstay/bookstay/internal/config"
	"github.com/bookstay/bookstay/internal/pg"
	"github.com/bookstay/bookstay/internal/repo"
	bookingservice "github.com/bookstay/bookstay/internal/service/bookingservice"
	paymentservice "github.com/bookstay/bookstay/internal/service/paymentservice"
	walletservice "github.com/bookstay/bookstay/internal/service/walletservice"
)

type Services struct {
	WalletService  *walletservice.Service
	BookingService *bookingservice.Service
	PaymentService *paymentservice.Service
}

func New(cfg *config.Config, repo *repo.Repositories, txManager pg.TXManager, gateway bookingservice.Gateway) *Services {
	walletService := walletservice.New(repo.WalletRepo, repo.WithdrawalRepo, txManager, cfg.TreasuryOwner)
	bookingService := bookingservice.New(repo.BookingRepo, repo.LedgerRepo, repo.CatalogRepo, walletService, gateway, repo.PaymentRepo, repo.OutboxRepo, txManager, cfg)
	paymentService := paymentservice.New(repo.PaymentRepo, gateway, walletService, bookingService, cfg.GatewaySecret)

	return &Services{
		WalletService:  walletService,
		BookingService: bookingService,
		PaymentService: paymentService,
	}
}
