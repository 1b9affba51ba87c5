package walletservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bookstay/bookstay/internal/domain"
	"github.com/bookstay/bookstay/internal/pg"
)

type WalletRepo interface {
	GetByOwner(ctx context.Context, ownerID int64, kind domain.OwnerKind) (*domain.Wallet, error)
	GetByID(ctx context.Context, walletID int64) (*domain.Wallet, error)
	Create(ctx context.Context, ownerID int64, kind domain.OwnerKind) (*domain.Wallet, error)
	ApplyCredit(ctx context.Context, walletID, amount, earningDelta int64) (*domain.Wallet, error)
	ApplyDebit(ctx context.Context, walletID, amount, withdrawalDelta, earningDelta int64, allowOverdraft bool) (*domain.Wallet, error)
	UpdateBankDetails(ctx context.Context, walletID int64, bd domain.BankDetails) error
	AppendTransaction(ctx context.Context, txn *domain.Transaction) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, walletID int64, limit int) ([]domain.Transaction, error)
	SumTransactions(ctx context.Context, walletID int64) (int64, error)
}

type WithdrawalRepo interface {
	Create(ctx context.Context, withdrawal *domain.Withdrawal) (*domain.Withdrawal, error)
	GetByID(ctx context.Context, id int64) (*domain.Withdrawal, error)
	ListByWallet(ctx context.Context, walletID int64) ([]domain.Withdrawal, error)
	UpdateStatus(ctx context.Context, id int64, status domain.WithdrawalStatus, payoutRef string, processedAt time.Time) error
}

var (
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrWalletNotFound       = errors.New("wallet not found")
	ErrBankDetailsMissing   = errors.New("bank details not set")
	ErrWithdrawalNotFound   = errors.New("withdrawal not found")
	ErrWithdrawalNotPending = errors.New("withdrawal is not pending")
)

// overdraft-allowed categories represent the platform clawing back funds it
// already advanced to a partner; every other debit requires cover.
func overdraftAllowed(cat domain.TxCategory) bool {
	switch cat {
	case domain.CatCommissionDeduction, domain.CatRefundDeduction, domain.CatNoShowPenalty:
		return true
	}
	return false
}

// genuine earnings; topups, refunds and commission refunds return money
// without earning it.
func isEarning(cat domain.TxCategory) bool {
	switch cat {
	case domain.CatBookingEarning, domain.CatCommission, domain.CatNoShowCompensation:
		return true
	}
	return false
}

// debits that undo a previously counted earning.
func reversesEarning(cat domain.TxCategory) bool {
	switch cat {
	case domain.CatRefundDeduction, domain.CatNoShowPenalty:
		return true
	}
	return false
}

type Service struct {
	walletRepo     WalletRepo
	withdrawalRepo WithdrawalRepo
	txManager      pg.TXManager
	treasuryOwner  int64
}

func New(walletRepo WalletRepo, withdrawalRepo WithdrawalRepo, txManager pg.TXManager, treasuryOwner int64) *Service {
	return &Service{
		walletRepo:     walletRepo,
		withdrawalRepo: withdrawalRepo,
		txManager:      txManager,
		treasuryOwner:  treasuryOwner,
	}
}

// EnsureTreasury provisions the platform's admin wallet at bootstrap. The
// treasury is configured, never discovered by query.
func (s *Service) EnsureTreasury(ctx context.Context) (*domain.Wallet, error) {
	return s.GetOrCreate(ctx, s.treasuryOwner, domain.KindAdmin)
}

// Treasury returns the platform wallet that accumulates commission and tax.
func (s *Service) Treasury(ctx context.Context) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByOwner(ctx, s.treasuryOwner, domain.KindAdmin)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, ErrWalletNotFound
	}
	return wallet, nil
}

func (s *Service) GetOrCreate(ctx context.Context, ownerID int64, kind domain.OwnerKind) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByOwner(ctx, ownerID, kind)
	if err != nil {
		return nil, err
	}
	if wallet != nil {
		return wallet, nil
	}
	return s.walletRepo.Create(ctx, ownerID, kind)
}

// Credit adds amount to the owner's wallet and appends the matching
// transaction; both writes commit or neither does.
func (s *Service) Credit(ctx context.Context, ownerID int64, kind domain.OwnerKind, amount int64, description, reference string, category domain.TxCategory) (*domain.Wallet, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var updated *domain.Wallet
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		wallet, err := s.GetOrCreate(ctx, ownerID, kind)
		if err != nil {
			return err
		}

		var earningDelta int64
		if isEarning(category) {
			earningDelta = amount
		}

		updated, err = s.walletRepo.ApplyCredit(ctx, wallet.ID, amount, earningDelta)
		if err != nil {
			return err
		}
		if updated == nil {
			return ErrWalletNotFound
		}

		_, err = s.walletRepo.AppendTransaction(ctx, &domain.Transaction{
			WalletID:     updated.ID,
			Type:         domain.TxCredit,
			Category:     category,
			Amount:       amount,
			BalanceAfter: updated.Balance,
			Description:  description,
			Reference:    reference,
			Status:       "completed",
		})
		return err
	})
	if err != nil {
		zap.L().Error("credit failed",
			zap.Int64("ownerID", ownerID), zap.String("kind", string(kind)),
			zap.Int64("amount", amount), zap.String("category", string(category)), zap.Error(err))
		return nil, err
	}
	return updated, nil
}

// Debit subtracts amount. It fails with ErrInsufficientBalance unless the
// category is overdraft-allowed.
func (s *Service) Debit(ctx context.Context, ownerID int64, kind domain.OwnerKind, amount int64, description, reference string, category domain.TxCategory) (*domain.Wallet, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var updated *domain.Wallet
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		wallet, err := s.GetOrCreate(ctx, ownerID, kind)
		if err != nil {
			return err
		}

		var withdrawalDelta, earningDelta int64
		if category == domain.CatWithdrawal {
			withdrawalDelta = amount
		}
		if reversesEarning(category) {
			earningDelta = amount
		}

		updated, err = s.walletRepo.ApplyDebit(ctx, wallet.ID, amount, withdrawalDelta, earningDelta, overdraftAllowed(category))
		if err != nil {
			return err
		}
		if updated == nil {
			return ErrInsufficientBalance
		}

		_, err = s.walletRepo.AppendTransaction(ctx, &domain.Transaction{
			WalletID:     updated.ID,
			Type:         domain.TxDebit,
			Category:     category,
			Amount:       amount,
			BalanceAfter: updated.Balance,
			Description:  description,
			Reference:    reference,
			Status:       "completed",
		})
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrInsufficientBalance) {
			zap.L().Error("debit failed",
				zap.Int64("ownerID", ownerID), zap.String("kind", string(kind)),
				zap.Int64("amount", amount), zap.String("category", string(category)), zap.Error(err))
		}
		return nil, err
	}
	return updated, nil
}

func (s *Service) Balance(ctx context.Context, ownerID int64, kind domain.OwnerKind) (*domain.Wallet, error) {
	return s.GetOrCreate(ctx, ownerID, kind)
}

func (s *Service) Transactions(ctx context.Context, ownerID int64, kind domain.OwnerKind, limit int) ([]domain.Transaction, error) {
	wallet, err := s.walletRepo.GetByOwner(ctx, ownerID, kind)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, ErrWalletNotFound
	}
	return s.walletRepo.ListTransactions(ctx, wallet.ID, limit)
}

func (s *Service) UpdateBankDetails(ctx context.Context, ownerID int64, kind domain.OwnerKind, bd domain.BankDetails) error {
	wallet, err := s.GetOrCreate(ctx, ownerID, kind)
	if err != nil {
		return err
	}
	return s.walletRepo.UpdateBankDetails(ctx, wallet.ID, bd)
}

// Audit replays the transaction log against the balance. Wallets start at
// zero, so the signed transaction sum must reproduce the balance exactly.
func (s *Service) Audit(ctx context.Context, walletID int64) error {
	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return err
	}
	if wallet == nil {
		return ErrWalletNotFound
	}
	sum, err := s.walletRepo.SumTransactions(ctx, walletID)
	if err != nil {
		return err
	}
	if sum != wallet.Balance {
		return fmt.Errorf("wallet %d audit mismatch: balance %d, transaction sum %d", walletID, wallet.Balance, sum)
	}
	return nil
}

// RequestWithdrawal debits the partner wallet and records a pending payout
// request in one transaction.
func (s *Service) RequestWithdrawal(ctx context.Context, ownerID int64, kind domain.OwnerKind, amount int64) (*domain.Withdrawal, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	wallet, err := s.walletRepo.GetByOwner(ctx, ownerID, kind)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, ErrWalletNotFound
	}
	if wallet.BankDetails.AccountNumber == "" && wallet.BankDetails.UPI == "" {
		return nil, ErrBankDetailsMissing
	}

	withdrawal := &domain.Withdrawal{
		WalletID: wallet.ID,
		Amount:   amount,
		Status:   domain.WithdrawalPending,
	}
	err = s.txManager.Begin(ctx, func(ctx context.Context) error {
		if _, err := s.Debit(ctx, ownerID, kind, amount, "withdrawal request", "", domain.CatWithdrawal); err != nil {
			return err
		}
		withdrawal, err = s.withdrawalRepo.Create(ctx, withdrawal)
		return err
	})
	if err != nil {
		return nil, err
	}
	return withdrawal, nil
}

// ProcessWithdrawal completes or fails a pending request; rejection refunds
// the withdrawn amount back to the wallet.
func (s *Service) ProcessWithdrawal(ctx context.Context, id int64, approve bool, payoutRef string) (*domain.Withdrawal, error) {
	withdrawal, err := s.withdrawalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if withdrawal == nil {
		return nil, ErrWithdrawalNotFound
	}
	if withdrawal.Status != domain.WithdrawalPending && withdrawal.Status != domain.WithdrawalProcessing {
		return nil, ErrWithdrawalNotPending
	}

	now := time.Now()
	err = s.txManager.Begin(ctx, func(ctx context.Context) error {
		if approve {
			return s.withdrawalRepo.UpdateStatus(ctx, id, domain.WithdrawalCompleted, payoutRef, now)
		}

		wallet, err := s.walletRepo.GetByID(ctx, withdrawal.WalletID)
		if err != nil {
			return err
		}
		if wallet == nil {
			return ErrWalletNotFound
		}
		if _, err := s.Credit(ctx, wallet.OwnerID, wallet.OwnerKind, withdrawal.Amount,
			"withdrawal rejected", fmt.Sprintf("WD-%d", id), domain.CatWithdrawalRefund); err != nil {
			return err
		}
		return s.withdrawalRepo.UpdateStatus(ctx, id, domain.WithdrawalFailed, payoutRef, now)
	})
	if err != nil {
		return nil, err
	}
	return s.withdrawalRepo.GetByID(ctx, id)
}

func (s *Service) Withdrawals(ctx context.Context, ownerID int64, kind domain.OwnerKind) ([]domain.Withdrawal, error) {
	wallet, err := s.walletRepo.GetByOwner(ctx, ownerID, kind)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, ErrWalletNotFound
	}
	return s.withdrawalRepo.ListByWallet(ctx, wallet.ID)
}
