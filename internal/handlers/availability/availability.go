package availability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/bookstay/bookstay/internal/domain"
	"github.com/bookstay/bookstay/internal/dto"
	bookingservice "github.com/bookstay/bookstay/internal/service/bookingservice"
	"github.com/bookstay/bookstay/pkg/auth"
	"github.com/bookstay/bookstay/pkg/utils"
)

type Service interface {
	Block(ctx context.Context, p domain.Principal, params bookingservice.BlockParams) (*domain.LedgerEntry, error)
	Unblock(ctx context.Context, p domain.Principal, entryID int64) error
	Availability(ctx context.Context, roomTypeID int64, start, end time.Time) (int, error)
}

type AvailabilityHandler struct {
	bookingService Service
	validate       *validator.Validate
}

func New(bookingService Service) *AvailabilityHandler {
	return &AvailabilityHandler{
		bookingService: bookingService,
		validate:       validator.New(),
	}
}

// Block godoc
//
//	@Summary		Block inventory manually
//	@Description	Place a manual hold on a room type for walk-in guests, external channel sales or maintenance. Capacity-checked like a booking.
//	@Tags			Availability
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.BlockRequestDTO		true	"Block request"
//	@Success		201		{object}	dto.BlockResponseDTO	"Created hold"
//	@Failure		400		{object}	utils.Response			"Invalid request or not enough rooms available"
//	@Failure		401		{object}	utils.Response			"User not authorized"
//	@Failure		403		{object}	utils.Response			"Not allowed"
//	@Failure		404		{object}	utils.Response			"Room type not found"
//	@Failure		500		{object}	utils.Response			"Internal server error"
//	@Router			/api/availability/block [post]
func (h *AvailabilityHandler) Block(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req dto.BlockRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	start, err := dto.DateOnly(req.StartDate)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := dto.DateOnly(req.EndDate)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := h.bookingService.Block(r.Context(), principal, bookingservice.BlockParams{
		PropertyID: req.PropertyID,
		RoomTypeID: req.RoomTypeID,
		StartDate:  start,
		EndDate:    end,
		Units:      req.Units,
		Source:     domain.LedgerSource(req.Source),
	})
	if err != nil {
		respondError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, dto.BlockResponseDTO{
		ID:          entry.ID,
		ReferenceID: entry.ReferenceID,
		StartDate:   entry.StartDate.Format("2006-01-02"),
		EndDate:     entry.EndDate.Format("2006-01-02"),
		Units:       entry.Units,
		Source:      string(entry.Source),
	})
}

// Unblock godoc
//
//	@Summary		Remove a manual inventory hold
//	@Description	Delete a walk-in, external or maintenance hold. Platform-booking holds cannot be removed this way.
//	@Tags			Availability
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		int				true	"Ledger entry ID"
//	@Success		200	{object}	utils.Response	"Hold removed"
//	@Failure		400	{object}	utils.Response	"Invalid ID or entry belongs to an active booking"
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		403	{object}	utils.Response	"Not allowed"
//	@Failure		404	{object}	utils.Response	"Entry not found"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/availability/block/{id} [delete]
func (h *AvailabilityHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	entryID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid entry ID")
		return
	}

	if err := h.bookingService.Unblock(r.Context(), principal, entryID); err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithMessage(w, http.StatusOK, "hold removed")
}

// Availability godoc
//
//	@Summary		Query available units
//	@Description	Return how many units of a room type remain bookable over a date range, net of every hold source.
//	@Tags			Availability
//	@Produce		json
//	@Param			roomTypeId	query		int								true	"Room type ID"
//	@Param			startDate	query		string							true	"Start date (yyyy-mm-dd)"
//	@Param			endDate		query		string							true	"End date (yyyy-mm-dd)"
//	@Success		200			{object}	dto.AvailabilityResponseDTO		"Available units"
//	@Failure		400			{object}	utils.Response					"Invalid query"
//	@Failure		404			{object}	utils.Response					"Room type not found"
//	@Failure		500			{object}	utils.Response					"Internal server error"
//	@Router			/api/availability [get]
func (h *AvailabilityHandler) Availability(w http.ResponseWriter, r *http.Request) {
	roomTypeID, err := strconv.ParseInt(r.URL.Query().Get("roomTypeId"), 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid roomTypeId")
		return
	}
	start, err := dto.DateOnly(r.URL.Query().Get("startDate"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid startDate")
		return
	}
	end, err := dto.DateOnly(r.URL.Query().Get("endDate"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid endDate")
		return
	}

	units, err := h.bookingService.Availability(r.Context(), roomTypeID, start, end)
	if err != nil {
		respondError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dto.AvailabilityResponseDTO{
		RoomTypeID:     roomTypeID,
		StartDate:      start.Format("2006-01-02"),
		EndDate:        end.Format("2006-01-02"),
		AvailableUnits: units,
	})
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, bookingservice.ErrRoomTypeNotFound),
		errors.Is(err, bookingservice.ErrLedgerEntryNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, bookingservice.ErrNotAuthorized):
		utils.RespondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, bookingservice.ErrInsufficientCapacity),
		errors.Is(err, bookingservice.ErrProtectedEntry),
		errors.Is(err, bookingservice.ErrInvalidDates):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
