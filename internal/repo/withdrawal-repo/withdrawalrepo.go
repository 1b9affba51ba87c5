package withdrawalrepo

import (
	"context"
	"time"

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

func (r *Repository) Create(ctx context.Context, withdrawal *domain.Withdrawal) (*domain.Withdrawal, error) {
	query := `
        INSERT INTO withdrawals (wallet_id, amount, status)
        VALUES ($1, $2, $3)
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query, withdrawal.WalletID, withdrawal.Amount, withdrawal.Status).
		Scan(&withdrawal.ID, &withdrawal.CreatedAt)
	if err != nil {
		zap.L().Error("can't save withdrawal", zap.Error(err))
		return nil, err
	}
	return withdrawal, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Withdrawal, error) {
	query := `
        SELECT id, wallet_id, amount, status, payout_ref, created_at, processed_at
        FROM withdrawals
        WHERE id = $1
    `
	var w domain.Withdrawal
	err := r.db.QueryRow(ctx, query, id).Scan(&w.ID, &w.WalletID, &w.Amount, &w.Status, &w.PayoutRef, &w.CreatedAt, &w.ProcessedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		zap.L().Error("failed to get withdrawal", zap.Error(err))
		return nil, err
	}
	return &w, nil
}

func (r *Repository) ListByWallet(ctx context.Context, walletID int64) ([]domain.Withdrawal, error) {
	query := `
        SELECT id, wallet_id, amount, status, payout_ref, created_at, processed_at
        FROM withdrawals
        WHERE wallet_id = $1
        ORDER BY created_at DESC
    `
	rows, err := r.db.Query(ctx, query, walletID)
	if err != nil {
		zap.L().Error("failed to fetch withdrawals", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var withdrawals []domain.Withdrawal
	for rows.Next() {
		var w domain.Withdrawal
		err := rows.Scan(&w.ID, &w.WalletID, &w.Amount, &w.Status, &w.PayoutRef, &w.CreatedAt, &w.ProcessedAt)
		if err != nil {
			zap.L().Error("failed to scan withdrawal row", zap.Error(err))
			return nil, err
		}
		withdrawals = append(withdrawals, w)
	}
	return withdrawals, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id int64, status domain.WithdrawalStatus, payoutRef string, processedAt time.Time) error {
	query := `
        UPDATE withdrawals
        SET status = $1, payout_ref = $2, processed_at = $3
        WHERE id = $4
    `
	tag, err := r.db.Exec(ctx, query, status, payoutRef, processedAt, id)
	if err != nil {
		zap.L().Error("failed to update withdrawal status", zap.Int64("id", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
