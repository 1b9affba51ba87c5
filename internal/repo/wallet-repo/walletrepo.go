package walletrepo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/bookstay/bookstay/internal/domain"
	"github.com/bookstay/bookstay/internal/pg"
)

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{db: db}
}

const walletColumns = `id, owner_id, owner_kind, balance, total_earnings, total_withdrawals, pending_clearance,
        bank_account_name, bank_account_number, bank_ifsc, bank_upi, created_at`

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	var w domain.Wallet
	err := row.Scan(
		&w.ID, &w.OwnerID, &w.OwnerKind, &w.Balance, &w.TotalEarnings, &w.TotalWithdrawals, &w.PendingClearance,
		&w.BankDetails.AccountName, &w.BankDetails.AccountNumber, &w.BankDetails.IFSC, &w.BankDetails.UPI, &w.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *Repository) GetByOwner(ctx context.Context, ownerID int64, kind domain.OwnerKind) (*domain.Wallet, error) {
	query := `
        SELECT ` + walletColumns + `
        FROM wallets
        WHERE owner_id = $1 AND owner_kind = $2
    `
	wallet, err := scanWallet(r.db.QueryRow(ctx, query, ownerID, kind))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		zap.L().Error("failed to get wallet", zap.Error(err))
		return nil, err
	}
	return wallet, nil
}

func (r *Repository) GetByID(ctx context.Context, walletID int64) (*domain.Wallet, error) {
	query := `
        SELECT ` + walletColumns + `
        FROM wallets
        WHERE id = $1
    `
	wallet, err := scanWallet(r.db.QueryRow(ctx, query, walletID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		zap.L().Error("failed to get wallet by id", zap.Error(err))
		return nil, err
	}
	return wallet, nil
}

func (r *Repository) Create(ctx context.Context, ownerID int64, kind domain.OwnerKind) (*domain.Wallet, error) {
	query := `
        INSERT INTO wallets (owner_id, owner_kind)
        VALUES ($1, $2)
        ON CONFLICT (owner_id, owner_kind) DO UPDATE SET owner_id = EXCLUDED.owner_id
        RETURNING ` + walletColumns + `
    `
	wallet, err := scanWallet(r.db.QueryRow(ctx, query, ownerID, kind))
	if err != nil {
		zap.L().Error("failed to create wallet", zap.Error(err))
		return nil, err
	}
	return wallet, nil
}

// ApplyCredit adds amount to the balance in a single atomic statement.
// earningDelta and the balance change are applied together so concurrent
// credits cannot lose updates.
func (r *Repository) ApplyCredit(ctx context.Context, walletID, amount, earningDelta int64) (*domain.Wallet, error) {
	query := `
        UPDATE wallets
        SET balance = balance + $1, total_earnings = total_earnings + $2
        WHERE id = $3
        RETURNING ` + walletColumns + `
    `
	wallet, err := scanWallet(r.db.QueryRow(ctx, query, amount, earningDelta, walletID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		zap.L().Error("failed to apply credit", zap.Int64("walletID", walletID), zap.Error(err))
		return nil, err
	}
	return wallet, nil
}

// ApplyDebit subtracts amount in a single conditional statement. Unless
// allowOverdraft is set the update only matches when the balance covers the
// amount; no matching row means the debit was refused.
func (r *Repository) ApplyDebit(ctx context.Context, walletID, amount, withdrawalDelta, earningDelta int64, allowOverdraft bool) (*domain.Wallet, error) {
	query := `
        UPDATE wallets
        SET balance = balance - $1,
            total_withdrawals = total_withdrawals + $2,
            total_earnings = total_earnings - $3
        WHERE id = $4 AND ($5 OR balance >= $1)
        RETURNING ` + walletColumns + `
    `
	wallet, err := scanWallet(r.db.QueryRow(ctx, query, amount, withdrawalDelta, earningDelta, walletID, allowOverdraft))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		zap.L().Error("failed to apply debit", zap.Int64("walletID", walletID), zap.Error(err))
		return nil, err
	}
	return wallet, nil
}

func (r *Repository) UpdateBankDetails(ctx context.Context, walletID int64, bd domain.BankDetails) error {
	query := `
        UPDATE wallets
        SET bank_account_name = $1, bank_account_number = $2, bank_ifsc = $3, bank_upi = $4
        WHERE id = $5
    `
	if _, err := r.db.Exec(ctx, query, bd.AccountName, bd.AccountNumber, bd.IFSC, bd.UPI, walletID); err != nil {
		zap.L().Error("failed to update bank details", zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) AppendTransaction(ctx context.Context, txn *domain.Transaction) (*domain.Transaction, error) {
	query := `
        INSERT INTO wallet_transactions (wallet_id, type, category, amount, balance_after, description, reference, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query,
		txn.WalletID, txn.Type, txn.Category, txn.Amount, txn.BalanceAfter, txn.Description, txn.Reference, txn.Status,
	).Scan(&txn.ID, &txn.CreatedAt)
	if err != nil {
		zap.L().Error("can't append wallet transaction", zap.Error(err))
		return nil, err
	}
	return txn, nil
}

func (r *Repository) ListTransactions(ctx context.Context, walletID int64, limit int) ([]domain.Transaction, error) {
	query := `
        SELECT id, wallet_id, type, category, amount, balance_after, description, reference, status, created_at
        FROM wallet_transactions
        WHERE wallet_id = $1
        ORDER BY created_at DESC, id DESC
        LIMIT $2
    `
	rows, err := r.db.Query(ctx, query, walletID, limit)
	if err != nil {
		zap.L().Error("failed to fetch wallet transactions", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		err := rows.Scan(&t.ID, &t.WalletID, &t.Type, &t.Category, &t.Amount, &t.BalanceAfter, &t.Description, &t.Reference, &t.Status, &t.CreatedAt)
		if err != nil {
			zap.L().Error("failed to scan transaction row", zap.Error(err))
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, nil
}

// SumTransactions returns the signed transaction total for audit replay
// against the wallet balance.
func (r *Repository) SumTransactions(ctx context.Context, walletID int64) (int64, error) {
	query := `
        SELECT COALESCE(SUM(CASE WHEN type = 'credit' THEN amount ELSE -amount END), 0)
        FROM wallet_transactions
        WHERE wallet_id = $1
    `
	var sum int64
	if err := r.db.QueryRow(ctx, query, walletID).Scan(&sum); err != nil {
		zap.L().Error("failed to sum wallet transactions", zap.Error(err))
		return 0, err
	}
	return sum, nil
}
