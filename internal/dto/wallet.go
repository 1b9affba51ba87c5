package dto

import "time"

type WalletResponseDTO struct {
	Balance          int64 `json:"balance" example:"4500"`
	TotalEarnings    int64 `json:"totalEarnings" example:"18000"`
	TotalWithdrawals int64 `json:"totalWithdrawals" example:"12000"`
	PendingClearance int64 `json:"pendingClearance" example:"0"`
}

type TransactionResponseDTO struct {
	Type         string    `json:"type" example:"credit"`
	Category     string    `json:"category" example:"booking_earning"`
	Amount       int64     `json:"amount" example:"1800"`
	BalanceAfter int64     `json:"balanceAfter" example:"6300"`
	Description  string    `json:"description" example:"Booking earning BK-20261012-3F9A1C2B"`
	Reference    string    `json:"reference" example:"BK-20261012-3F9A1C2B"`
	CreatedAt    time.Time `json:"createdAt" example:"2026-10-01T16:09:57+05:30"`
}

type WithdrawRequestDTO struct {
	Amount int64 `json:"amount" validate:"required,gt=0" example:"5000"`
}

type WithdrawalResponseDTO struct {
	ID          int64      `json:"id" example:"12"`
	Amount      int64      `json:"amount" example:"5000"`
	Status      string     `json:"status" example:"pending"`
	PayoutRef   string     `json:"payoutRef,omitempty" example:"NEFT-20261001-0042"`
	CreatedAt   time.Time  `json:"createdAt" example:"2026-10-01T16:09:57+05:30"`
	ProcessedAt *time.Time `json:"processedAt,omitempty"`
}

type WithdrawalStatusRequestDTO struct {
	Approve   bool   `json:"approve"`
	PayoutRef string `json:"payoutRef,omitempty" example:"NEFT-20261001-0042"`
}

type BankDetailsRequestDTO struct {
	AccountName   string `json:"accountName" validate:"required,min=2,max=100"`
	AccountNumber string `json:"accountNumber" validate:"required,min=6,max=24"`
	IFSC          string `json:"ifsc" validate:"required,len=11"`
	UPI           string `json:"upi,omitempty"`
}

type TopupRequestDTO struct {
	Amount int64 `json:"amount" validate:"required,gt=0" example:"1000"`
}
