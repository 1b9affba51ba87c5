package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/bookstay/bookstay/internal/domain"
	"github.com/bookstay/bookstay/internal/dto"
	walletservice "github.com/bookstay/bookstay/internal/service/walletservice"
	"github.com/bookstay/bookstay/pkg/auth"
	"github.com/bookstay/bookstay/pkg/utils"
)

const transactionsLimit = 100

type Service interface {
	Balance(ctx context.Context, ownerID int64, kind domain.OwnerKind) (*domain.Wallet, error)
	Transactions(ctx context.Context, ownerID int64, kind domain.OwnerKind, limit int) ([]domain.Transaction, error)
	UpdateBankDetails(ctx context.Context, ownerID int64, kind domain.OwnerKind, bd domain.BankDetails) error
	RequestWithdrawal(ctx context.Context, ownerID int64, kind domain.OwnerKind, amount int64) (*domain.Withdrawal, error)
	ProcessWithdrawal(ctx context.Context, id int64, approve bool, payoutRef string) (*domain.Withdrawal, error)
	Withdrawals(ctx context.Context, ownerID int64, kind domain.OwnerKind) ([]domain.Withdrawal, error)
}

// TopupService creates a gateway order whose verification credits the wallet.
type TopupService interface {
	CreateTopupOrder(ctx context.Context, userID int64, amount int64) (*domain.PaymentOrder, error)
}

type WalletHandler struct {
	walletService Service
	topupService  TopupService
	validate      *validator.Validate
}

func New(walletService Service, topupService TopupService) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
		topupService:  topupService,
		validate:      validator.New(),
	}
}

// GetWallet godoc
//
//	@Summary		Get wallet balance
//	@Description	Retrieve the caller's wallet with balance and lifetime earning and withdrawal counters.
//	@Tags			Wallet
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	dto.WalletResponseDTO	"Wallet"
//	@Failure		401	{object}	utils.Response			"User not authorized"
//	@Failure		500	{object}	utils.Response			"Internal server error"
//	@Router			/api/wallet [get]
func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	wallet, err := h.walletService.Balance(r.Context(), principal.ID, principal.Kind)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.WalletResponseDTO{
		Balance:          wallet.Balance,
		TotalEarnings:    wallet.TotalEarnings,
		TotalWithdrawals: wallet.TotalWithdrawals,
		PendingClearance: wallet.PendingClearance,
	})
}

// GetTransactions godoc
//
//	@Summary		List wallet transactions
//	@Description	Return the most recent wallet transactions, newest first.
//	@Tags			Wallet
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}		dto.TransactionResponseDTO	"Transactions"
//	@Failure		401	{object}	utils.Response				"User not authorized"
//	@Failure		500	{object}	utils.Response				"Internal server error"
//	@Router			/api/wallet/transactions [get]
func (h *WalletHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	transactions, err := h.walletService.Transactions(r.Context(), principal.ID, principal.Kind, transactionsLimit)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	response := make([]dto.TransactionResponseDTO, len(transactions))
	for i, tx := range transactions {
		response[i] = dto.TransactionResponseDTO{
			Type:         string(tx.Type),
			Category:     string(tx.Category),
			Amount:       tx.Amount,
			BalanceAfter: tx.BalanceAfter,
			Description:  tx.Description,
			Reference:    tx.Reference,
			CreatedAt:    tx.CreatedAt,
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

// Withdraw godoc
//
//	@Summary		Request a withdrawal
//	@Description	Debit the wallet and open a pending withdrawal for admin review. Requires bank details on file.
//	@Tags			Wallet
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.WithdrawRequestDTO		true	"Withdrawal request"
//	@Success		201		{object}	dto.WithdrawalResponseDTO	"Pending withdrawal"
//	@Failure		400		{object}	utils.Response				"Invalid request, missing bank details or insufficient balance"
//	@Failure		401		{object}	utils.Response				"User not authorized"
//	@Failure		500		{object}	utils.Response				"Internal server error"
//	@Router			/api/wallet/withdraw [post]
func (h *WalletHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req dto.WithdrawRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	withdrawal, err := h.walletService.RequestWithdrawal(r.Context(), principal.ID, principal.Kind, req.Amount)
	if err != nil {
		respondWalletError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, toWithdrawalDTO(withdrawal))
}

// UpdateBankDetails godoc
//
//	@Summary		Set bank details
//	@Description	Store the payout destination for future withdrawals.
//	@Tags			Wallet
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.BankDetailsRequestDTO	true	"Bank details"
//	@Success		200		{object}	utils.Response				"Bank details updated"
//	@Failure		400		{object}	utils.Response				"Invalid request"
//	@Failure		401		{object}	utils.Response				"User not authorized"
//	@Failure		500		{object}	utils.Response				"Internal server error"
//	@Router			/api/wallet/bank-details [put]
func (h *WalletHandler) UpdateBankDetails(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req dto.BankDetailsRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := h.walletService.UpdateBankDetails(r.Context(), principal.ID, principal.Kind, domain.BankDetails{
		AccountName:   req.AccountName,
		AccountNumber: req.AccountNumber,
		IFSC:          req.IFSC,
		UPI:           req.UPI,
	})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.RespondWithMessage(w, http.StatusOK, "bank details updated")
}

// Topup godoc
//
//	@Summary		Top up the wallet
//	@Description	Create a payment gateway order for the requested amount. The wallet is credited when the payment is verified.
//	@Tags			Wallet
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.TopupRequestDTO		true	"Top-up amount"
//	@Success		201		{object}	dto.OrderResponseDTO	"Gateway order"
//	@Failure		400		{object}	utils.Response			"Invalid request"
//	@Failure		401		{object}	utils.Response			"User not authorized"
//	@Failure		500		{object}	utils.Response			"Internal server error"
//	@Router			/api/wallet/topup [post]
func (h *WalletHandler) Topup(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req dto.TopupRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.topupService.CreateTopupOrder(r.Context(), principal.ID, req.Amount)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.OrderResponseDTO{
		OrderID:  order.GatewayOrderID,
		Amount:   order.Amount,
		Currency: order.Currency,
		Receipt:  order.Receipt,
	})
}

// ProcessWithdrawal godoc
//
//	@Summary		Approve or reject a withdrawal
//	@Description	Admin decision on a pending withdrawal. Rejection refunds the debited amount back to the wallet.
//	@Tags			Wallet
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int								true	"Withdrawal ID"
//	@Param			request	body		dto.WithdrawalStatusRequestDTO	true	"Decision"
//	@Success		200		{object}	dto.WithdrawalResponseDTO		"Updated withdrawal"
//	@Failure		400		{object}	utils.Response					"Invalid request or withdrawal already processed"
//	@Failure		401		{object}	utils.Response					"User not authorized"
//	@Failure		403		{object}	utils.Response					"Admin only"
//	@Failure		404		{object}	utils.Response					"Withdrawal not found"
//	@Failure		500		{object}	utils.Response					"Internal server error"
//	@Router			/api/withdrawals/{id}/status [put]
func (h *WalletHandler) ProcessWithdrawal(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if principal.Kind != domain.KindAdmin {
		utils.RespondWithError(w, http.StatusForbidden, "Admin only")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid withdrawal ID")
		return
	}

	var req dto.WithdrawalStatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	withdrawal, err := h.walletService.ProcessWithdrawal(r.Context(), id, req.Approve, req.PayoutRef)
	if err != nil {
		respondWalletError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, toWithdrawalDTO(withdrawal))
}

func toWithdrawalDTO(wd *domain.Withdrawal) dto.WithdrawalResponseDTO {
	return dto.WithdrawalResponseDTO{
		ID:          wd.ID,
		Amount:      wd.Amount,
		Status:      string(wd.Status),
		PayoutRef:   wd.PayoutRef,
		CreatedAt:   wd.CreatedAt,
		ProcessedAt: wd.ProcessedAt,
	}
}

func respondWalletError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, walletservice.ErrInsufficientBalance),
		errors.Is(err, walletservice.ErrInvalidAmount),
		errors.Is(err, walletservice.ErrBankDetailsMissing),
		errors.Is(err, walletservice.ErrWithdrawalNotPending):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, walletservice.ErrWalletNotFound),
		errors.Is(err, walletservice.ErrWithdrawalNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
