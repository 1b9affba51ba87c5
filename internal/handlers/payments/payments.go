package payments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/bookstay/bookstay/internal/domain"
	"github.com/bookstay/bookstay/internal/dto"
	bookingservice "github.com/bookstay/bookstay/internal/service/bookingservice"
	paymentservice "github.com/bookstay/bookstay/internal/service/paymentservice"
	walletservice "github.com/bookstay/bookstay/internal/service/walletservice"
	"github.com/bookstay/bookstay/pkg/auth"
	"github.com/bookstay/bookstay/pkg/utils"
)

type Service interface {
	CreateBookingOrder(ctx context.Context, userID int64, params bookingservice.CreateParams) (*domain.PaymentOrder, error)
	CreateTopupOrder(ctx context.Context, userID int64, amount int64) (*domain.PaymentOrder, error)
	VerifyPayment(ctx context.Context, orderID, paymentID, signature string) (*domain.Booking, error)
}

type PaymentHandler struct {
	paymentService Service
	validate       *validator.Validate
}

func New(paymentService Service) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		validate:       validator.New(),
	}
}

// CreateOrder godoc
//
//	@Summary		Create a payment order
//	@Description	Open a gateway order. For purpose=booking the stay is priced and the booking draft rides in the order; no money moves and no inventory is held until the payment is verified. For purpose=topup the order credits the wallet on verification.
//	@Tags			Payments
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.CreateOrderRequestDTO	true	"Order request"
//	@Success		201		{object}	dto.OrderResponseDTO		"Gateway order"
//	@Failure		400		{object}	utils.Response				"Invalid request"
//	@Failure		401		{object}	utils.Response				"User not authorized"
//	@Failure		404		{object}	utils.Response				"Property or room type not found"
//	@Failure		500		{object}	utils.Response				"Internal server error"
//	@Router			/api/payments/order [post]
func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req dto.CreateOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var order *domain.PaymentOrder
	var err error
	switch domain.OrderPurpose(req.Purpose) {
	case domain.PurposeTopup:
		order, err = h.paymentService.CreateTopupOrder(r.Context(), principal.ID, req.Amount)
	case domain.PurposeBooking:
		var params bookingservice.CreateParams
		params, err = toCreateParams(req)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		order, err = h.paymentService.CreateBookingOrder(r.Context(), principal.ID, params)
	default:
		utils.RespondWithError(w, http.StatusBadRequest, "Unknown order purpose")
		return
	}
	if err != nil {
		respondPaymentError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, dto.OrderResponseDTO{
		OrderID:  order.GatewayOrderID,
		Amount:   order.Amount,
		Currency: order.Currency,
		Receipt:  order.Receipt,
	})
}

// Verify godoc
//
//	@Summary		Verify a gateway payment
//	@Description	Check the gateway signature and finish the flow: credit the wallet for top-ups, or reserve inventory and settle the booking for booking orders. Safe to retry, a processed order is rejected.
//	@Tags			Payments
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.VerifyPaymentRequestDTO		true	"Verification payload"
//	@Success		200		{object}	dto.VerifyPaymentResponseDTO	"Verification result"
//	@Failure		400		{object}	utils.Response					"Invalid signature, order already processed or no rooms left"
//	@Failure		401		{object}	utils.Response					"User not authorized"
//	@Failure		404		{object}	utils.Response					"Order not found"
//	@Failure		500		{object}	utils.Response					"Internal server error"
//	@Router			/api/payments/verify [post]
func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.PrincipalFromContext(r.Context()); !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req dto.VerifyPaymentRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	booking, err := h.paymentService.VerifyPayment(r.Context(), req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		respondPaymentError(w, err)
		return
	}

	resp := dto.VerifyPaymentResponseDTO{Status: "verified"}
	if booking != nil {
		b := dto.NewBookingResponse(booking)
		resp.Booking = &b
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

func toCreateParams(req dto.CreateOrderRequestDTO) (bookingservice.CreateParams, error) {
	checkIn, err := dto.DateOnly(req.CheckInDate)
	if err != nil {
		return bookingservice.CreateParams{}, err
	}
	checkOut, err := dto.DateOnly(req.CheckOutDate)
	if err != nil {
		return bookingservice.CreateParams{}, err
	}
	return bookingservice.CreateParams{
		PropertyID:    req.PropertyID,
		RoomTypeID:    req.RoomTypeID,
		CheckInDate:   checkIn,
		CheckOutDate:  checkOut,
		Units:         req.Units,
		Guests:        domain.Guests{Adults: req.Adults, Children: req.Children},
		CouponCode:    req.CouponCode,
		PaymentMethod: domain.PaymentOnline,
		WalletAmount:  req.WalletAmount,
	}, nil
}

func respondPaymentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, paymentservice.ErrInvalidSignature),
		errors.Is(err, paymentservice.ErrInvalidAmount),
		errors.Is(err, paymentservice.ErrInquiryNotPayable),
		errors.Is(err, paymentservice.ErrOrderProcessed),
		errors.Is(err, bookingservice.ErrInvalidDates),
		errors.Is(err, bookingservice.ErrInvalidWalletPortion),
		errors.Is(err, bookingservice.ErrInsufficientCapacity),
		errors.Is(err, bookingservice.ErrInvalidTransition),
		errors.Is(err, walletservice.ErrInsufficientBalance):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, paymentservice.ErrOrderNotFound),
		errors.Is(err, bookingservice.ErrPropertyNotFound),
		errors.Is(err, bookingservice.ErrRoomTypeNotFound),
		errors.Is(err, bookingservice.ErrBookingNotFound),
		errors.Is(err, bookingservice.ErrCouponNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
