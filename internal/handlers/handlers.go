package handlers

import (
	"net/http"

	_ "github.com/bookstay/bookstay/docs"
	availabilityhandlers "github.com/bookstay/bookstay/internal/handlers/availability"
	bookingshandlers "github.com/bookstay/bookstay/internal/handlers/bookings"
	paymentshandlers "github.com/bookstay/bookstay/internal/handlers/payments"
	wallethandlers "github.com/bookstay/bookstay/internal/handlers/wallet"
	"github.com/bookstay/bookstay/internal/service"
	"github.com/bookstay/bookstay/pkg/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type BookingHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Cancel(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
	NoShow(w http.ResponseWriter, r *http.Request)
	CheckIn(w http.ResponseWriter, r *http.Request)
	CheckOut(w http.ResponseWriter, r *http.Request)
	MarkPaid(w http.ResponseWriter, r *http.Request)
	UpdateInquiryStatus(w http.ResponseWriter, r *http.Request)
}

type PaymentHandler interface {
	CreateOrder(w http.ResponseWriter, r *http.Request)
	Verify(w http.ResponseWriter, r *http.Request)
}

type WalletHandler interface {
	GetWallet(w http.ResponseWriter, r *http.Request)
	GetTransactions(w http.ResponseWriter, r *http.Request)
	Withdraw(w http.ResponseWriter, r *http.Request)
	UpdateBankDetails(w http.ResponseWriter, r *http.Request)
	Topup(w http.ResponseWriter, r *http.Request)
	ProcessWithdrawal(w http.ResponseWriter, r *http.Request)
}

type AvailabilityHandler interface {
	Block(w http.ResponseWriter, r *http.Request)
	Unblock(w http.ResponseWriter, r *http.Request)
	Availability(w http.ResponseWriter, r *http.Request)
}

type Handlers struct {
	BookingHandler      BookingHandler
	PaymentHandler      PaymentHandler
	WalletHandler       WalletHandler
	AvailabilityHandler AvailabilityHandler

	jwtService auth.JWTServiceInterface
}

func New(s *service.Services, jwtService auth.JWTServiceInterface) *Handlers {
	return &Handlers{
		BookingHandler:      bookingshandlers.New(s.BookingService),
		PaymentHandler:      paymentshandlers.New(s.PaymentService),
		WalletHandler:       wallethandlers.New(s.WalletService, s.PaymentService),
		AvailabilityHandler: availabilityhandlers.New(s.BookingService),
		jwtService:          jwtService,
	}
}

func (h *Handlers) InitRoutes(r chi.Router) chi.Router {
	r.Use(
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
	)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("doc.json"),
	))
	r.Route("/api", func(r chi.Router) {
		r.Get("/availability", h.AvailabilityHandler.Availability)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(h.jwtService))

			r.Route("/bookings", func(r chi.Router) {
				r.Post("/", h.BookingHandler.Create)
				r.Get("/", h.BookingHandler.List)
				r.Get("/{id}", h.BookingHandler.Get)
				r.Post("/{id}/cancel", h.BookingHandler.Cancel)
				r.Put("/{id}/reject", h.BookingHandler.Reject)
				r.Put("/{id}/no-show", h.BookingHandler.NoShow)
				r.Put("/{id}/check-in", h.BookingHandler.CheckIn)
				r.Put("/{id}/check-out", h.BookingHandler.CheckOut)
				r.Put("/{id}/mark-paid", h.BookingHandler.MarkPaid)
				r.Put("/{id}/inquiry-status", h.BookingHandler.UpdateInquiryStatus)
			})
			r.Route("/payments", func(r chi.Router) {
				r.Post("/order", h.PaymentHandler.CreateOrder)
				r.Post("/verify", h.PaymentHandler.Verify)
			})
			r.Route("/wallet", func(r chi.Router) {
				r.Get("/", h.WalletHandler.GetWallet)
				r.Get("/transactions", h.WalletHandler.GetTransactions)
				r.Post("/withdraw", h.WalletHandler.Withdraw)
				r.Put("/bank-details", h.WalletHandler.UpdateBankDetails)
				r.Post("/topup", h.WalletHandler.Topup)
			})
			r.Put("/withdrawals/{id}/status", h.WalletHandler.ProcessWithdrawal)
			r.Post("/availability/block", h.AvailabilityHandler.Block)
			r.Delete("/availability/block/{id}", h.AvailabilityHandler.Unblock)
		})
	})

	return r
}
