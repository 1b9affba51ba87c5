package bookings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/bookstay/bookstay/internal/domain"
	"github.com/bookstay/bookstay/internal/dto"
	"github.com/bookstay/bookstay/internal/pricing"
	bookingservice "github.com/bookstay/bookstay/internal/service/bookingservice"
	walletservice "github.com/bookstay/bookstay/internal/service/walletservice"
	"github.com/bookstay/bookstay/pkg/auth"
	"github.com/bookstay/bookstay/pkg/utils"
)

type Service interface {
	Create(ctx context.Context, userID int64, params bookingservice.CreateParams) (*domain.Booking, error)
	Get(ctx context.Context, p domain.Principal, bookingID string) (*domain.Booking, error)
	ListFor(ctx context.Context, p domain.Principal) ([]domain.Booking, error)
	Cancel(ctx context.Context, p domain.Principal, bookingID string) (*domain.Booking, error)
	Reject(ctx context.Context, p domain.Principal, bookingID string) (*domain.Booking, error)
	NoShow(ctx context.Context, p domain.Principal, bookingID string) (*domain.Booking, error)
	CheckIn(ctx context.Context, p domain.Principal, bookingID string) (*domain.Booking, error)
	CheckOut(ctx context.Context, p domain.Principal, bookingID string, force bool) (*domain.Booking, error)
	MarkPaid(ctx context.Context, p domain.Principal, bookingID string) (*domain.Booking, error)
	UpdateInquiryStatus(ctx context.Context, p domain.Principal, bookingID string, status domain.InquiryStatus) (*domain.Booking, error)
}

type BookingHandler struct {
	bookingService Service
	validate       *validator.Validate
}

func New(bookingService Service) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		validate:       validator.New(),
	}
}

// Create godoc
//
//	@Summary		Create a booking
//	@Description	Price the stay, reserve inventory and settle payment according to the selected method. Inquiry-type properties create an inquiry instead.
//	@Tags			Bookings
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.CreateBookingRequestDTO	true	"Booking request"
//	@Success		201		{object}	dto.BookingResponseDTO		"Created booking"
//	@Failure		400		{object}	utils.Response				"Invalid request, insufficient balance or no capacity"
//	@Failure		401		{object}	utils.Response				"User not authorized"
//	@Failure		404		{object}	utils.Response				"Property or room type not found"
//	@Failure		500		{object}	utils.Response				"Internal server error"
//	@Router			/api/bookings [post]
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req dto.CreateBookingRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	params, err := toCreateParams(req)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	booking, err := h.bookingService.Create(r.Context(), principal.ID, params)
	if err != nil {
		respondBookingError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.NewBookingResponse(booking))
}

// List godoc
//
//	@Summary		List bookings
//	@Description	List bookings for the authenticated user, or for the partner's properties when called by a partner.
//	@Tags			Bookings
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}		dto.BookingResponseDTO	"Bookings"
//	@Failure		401	{object}	utils.Response			"User not authorized"
//	@Failure		500	{object}	utils.Response			"Internal server error"
//	@Router			/api/bookings [get]
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	bookings, err := h.bookingService.ListFor(r.Context(), principal)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	response := make([]dto.BookingResponseDTO, len(bookings))
	for i := range bookings {
		response[i] = dto.NewBookingResponse(&bookings[i])
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

// Get godoc
//
//	@Summary		Get a booking
//	@Description	Fetch one booking by its reference. Visible to the booking's user, the property's partner and admins.
//	@Tags			Bookings
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		string					true	"Booking reference"
//	@Success		200	{object}	dto.BookingResponseDTO	"Booking"
//	@Failure		401	{object}	utils.Response			"User not authorized"
//	@Failure		403	{object}	utils.Response			"Not allowed"
//	@Failure		404	{object}	utils.Response			"Booking not found"
//	@Failure		500	{object}	utils.Response			"Internal server error"
//	@Router			/api/bookings/{id} [get]
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	booking, err := h.bookingService.Get(r.Context(), principal, chi.URLParam(r, "id"))
	if err != nil {
		respondBookingError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewBookingResponse(booking))
}

// Cancel godoc
//
//	@Summary		Cancel a booking
//	@Description	Cancel the booking, release its inventory hold and reverse every wallet movement of the original settlement.
//	@Tags			Bookings
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		string					true	"Booking reference"
//	@Success		200	{object}	dto.BookingResponseDTO	"Cancelled booking"
//	@Failure		401	{object}	utils.Response			"User not authorized"
//	@Failure		403	{object}	utils.Response			"Not allowed"
//	@Failure		404	{object}	utils.Response			"Booking not found"
//	@Failure		400	{object}	utils.Response			"Already cancelled or not cancellable"
//	@Failure		500	{object}	utils.Response			"Internal server error"
//	@Router			/api/bookings/{id}/cancel [post]
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.bookingService.Cancel)
}

// Reject godoc
//
//	@Summary		Reject a booking
//	@Description	Partner-side refusal of a pending or confirmed booking. Releases the inventory hold and reverses every wallet movement of the original settlement.
//	@Tags			Bookings
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		string					true	"Booking reference"
//	@Success		200	{object}	dto.BookingResponseDTO	"Rejected booking"
//	@Failure		401	{object}	utils.Response			"User not authorized"
//	@Failure		403	{object}	utils.Response			"Not allowed"
//	@Failure		404	{object}	utils.Response			"Booking not found"
//	@Failure		400	{object}	utils.Response			"Invalid status transition"
//	@Failure		500	{object}	utils.Response			"Internal server error"
//	@Router			/api/bookings/{id}/reject [put]
func (h *BookingHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.bookingService.Reject)
}

// NoShow godoc
//
//	@Summary		Mark a booking as no-show
//	@Description	Refund the guest, release inventory and charge the partner the payout as a penalty retained by the platform.
//	@Tags			Bookings
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		string					true	"Booking reference"
//	@Success		200	{object}	dto.BookingResponseDTO	"Updated booking"
//	@Failure		401	{object}	utils.Response			"User not authorized"
//	@Failure		403	{object}	utils.Response			"Not allowed"
//	@Failure		404	{object}	utils.Response			"Booking not found"
//	@Failure		400	{object}	utils.Response			"Invalid status transition"
//	@Failure		500	{object}	utils.Response			"Internal server error"
//	@Router			/api/bookings/{id}/no-show [put]
func (h *BookingHandler) NoShow(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.bookingService.NoShow)
}

// CheckIn godoc
//
//	@Summary		Check a guest in
//	@Tags			Bookings
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		string					true	"Booking reference"
//	@Success		200	{object}	dto.BookingResponseDTO	"Updated booking"
//	@Failure		401	{object}	utils.Response			"User not authorized"
//	@Failure		403	{object}	utils.Response			"Not allowed"
//	@Failure		404	{object}	utils.Response			"Booking not found"
//	@Failure		400	{object}	utils.Response			"Invalid status transition"
//	@Failure		500	{object}	utils.Response			"Internal server error"
//	@Router			/api/bookings/{id}/check-in [put]
func (h *BookingHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.bookingService.CheckIn)
}

// CheckOut godoc
//
//	@Summary		Check a guest out
//	@Description	Complete the stay. An early check-out truncates the inventory hold so the freed nights become bookable again. Unpaid pay-at-hotel bookings require force.
//	@Tags			Bookings
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Booking reference"
//	@Param			request	body		dto.CheckOutRequestDTO	false	"Check-out options"
//	@Success		200		{object}	dto.BookingResponseDTO	"Updated booking"
//	@Failure		401		{object}	utils.Response			"User not authorized"
//	@Failure		403		{object}	utils.Response			"Not allowed"
//	@Failure		404		{object}	utils.Response			"Booking not found"
//	@Failure		400		{object}	utils.Response			"Payment pending or invalid transition"
//	@Failure		500		{object}	utils.Response			"Internal server error"
//	@Router			/api/bookings/{id}/check-out [put]
func (h *BookingHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req dto.CheckOutRequestDTO
	if r.Body != nil && r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	booking, err := h.bookingService.CheckOut(r.Context(), principal, chi.URLParam(r, "id"), req.Force)
	if err != nil {
		respondBookingError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewBookingResponse(booking))
}

// MarkPaid godoc
//
//	@Summary		Mark a pay-at-hotel booking as paid
//	@Description	Flip the payment status after the guest pays at the desk. Money was already settled at creation, so nothing else moves.
//	@Tags			Bookings
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		string					true	"Booking reference"
//	@Success		200	{object}	dto.BookingResponseDTO	"Updated booking"
//	@Failure		401	{object}	utils.Response			"User not authorized"
//	@Failure		403	{object}	utils.Response			"Not allowed"
//	@Failure		404	{object}	utils.Response			"Booking not found"
//	@Failure		400	{object}	utils.Response			"Not a pay-at-hotel booking"
//	@Failure		500	{object}	utils.Response			"Internal server error"
//	@Router			/api/bookings/{id}/mark-paid [put]
func (h *BookingHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.bookingService.MarkPaid)
}

// UpdateInquiryStatus godoc
//
//	@Summary		Update an inquiry's status
//	@Tags			Bookings
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Booking reference"
//	@Param			request	body		dto.InquiryStatusRequestDTO	true	"New status"
//	@Success		200		{object}	dto.BookingResponseDTO		"Updated inquiry"
//	@Failure		400		{object}	utils.Response				"Invalid request, inquiry closed or invalid transition"
//	@Failure		401		{object}	utils.Response				"User not authorized"
//	@Failure		403		{object}	utils.Response				"Not allowed"
//	@Failure		404		{object}	utils.Response				"Booking not found"
//	@Failure		500		{object}	utils.Response				"Internal server error"
//	@Router			/api/bookings/{id}/inquiry-status [put]
func (h *BookingHandler) UpdateInquiryStatus(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req dto.InquiryStatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	booking, err := h.bookingService.UpdateInquiryStatus(r.Context(), principal, chi.URLParam(r, "id"), domain.InquiryStatus(req.Status))
	if err != nil {
		respondBookingError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewBookingResponse(booking))
}

func (h *BookingHandler) transition(w http.ResponseWriter, r *http.Request, fn func(context.Context, domain.Principal, string) (*domain.Booking, error)) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	booking, err := fn(r.Context(), principal, chi.URLParam(r, "id"))
	if err != nil {
		respondBookingError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewBookingResponse(booking))
}

func toCreateParams(req dto.CreateBookingRequestDTO) (bookingservice.CreateParams, error) {
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
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
	}, nil
}

func respondBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, bookingservice.ErrPropertyNotFound),
		errors.Is(err, bookingservice.ErrRoomTypeNotFound),
		errors.Is(err, bookingservice.ErrBookingNotFound),
		errors.Is(err, bookingservice.ErrCouponNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, bookingservice.ErrNotAuthorized):
		utils.RespondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, walletservice.ErrInsufficientBalance),
		errors.Is(err, bookingservice.ErrInsufficientCapacity),
		errors.Is(err, bookingservice.ErrAlreadyCancelled),
		errors.Is(err, bookingservice.ErrInvalidTransition),
		errors.Is(err, bookingservice.ErrPaymentPending),
		errors.Is(err, bookingservice.ErrInquiryClosed),
		errors.Is(err, bookingservice.ErrInvalidDates),
		errors.Is(err, bookingservice.ErrInvalidPaymentMethod),
		errors.Is(err, bookingservice.ErrInvalidWalletPortion),
		errors.Is(err, bookingservice.ErrNotInquiry),
		errors.Is(err, pricing.ErrInvalidNights),
		errors.Is(err, pricing.ErrInvalidUnits),
		errors.Is(err, pricing.ErrCouponInactive),
		errors.Is(err, pricing.ErrCouponExpired),
		errors.Is(err, pricing.ErrCouponMinAmount),
		errors.Is(err, pricing.ErrCouponUsageLimit),
		errors.Is(err, pricing.ErrCouponPropertyType):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
