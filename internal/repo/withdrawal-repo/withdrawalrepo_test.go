package withdrawalrepo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/bookstay/bookstay/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
)

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	mockDB, err := pgxmock.NewPool()
	assert.NoError(t, err)
	t.Cleanup(mockDB.Close)

	return New(mockDB), mockDB
}

func TestRepository_Create(t *testing.T) {
	repo, mock := NewMock(t)
	createdAt := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

	withdrawal := &domain.Withdrawal{
		WalletID: 2,
		Amount:   1800,
		Status:   domain.WithdrawalPending,
	}

	t.Run("Saves the request", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO withdrawals`)).
			WithArgs(int64(2), int64(1800), domain.WithdrawalPending).
			WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(12), createdAt))

		result, err := repo.Create(context.Background(), withdrawal)
		assert.NoError(t, err)
		assert.Equal(t, int64(12), result.ID)
		assert.Equal(t, createdAt, result.CreatedAt)
	})

	t.Run("Database error", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO withdrawals`)).
			WillReturnError(errors.New("database error"))

		_, err := repo.Create(context.Background(), withdrawal)
		assert.Error(t, err)
	})
}

func TestRepository_GetByID(t *testing.T) {
	repo, mock := NewMock(t)
	createdAt := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		id        int64
		mockSetup func()
		expectErr bool
		found     bool
	}{
		{
			name: "Existing withdrawal is returned",
			id:   12,
			mockSetup: func() {
				rows := pgxmock.NewRows([]string{"id", "wallet_id", "amount", "status", "payout_ref", "created_at", "processed_at"}).
					AddRow(int64(12), int64(2), int64(1800), domain.WithdrawalPending, "", createdAt, (*time.Time)(nil))
				mock.ExpectQuery(regexp.QuoteMeta(`FROM withdrawals`)).
					WithArgs(int64(12)).
					WillReturnRows(rows)
			},
			found: true,
		},
		{
			name: "Unknown id returns nil",
			id:   99,
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`FROM withdrawals`)).
					WithArgs(int64(99)).
					WillReturnError(pgx.ErrNoRows)
			},
		},
		{
			name: "Database error",
			id:   12,
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`FROM withdrawals`)).
					WithArgs(int64(12)).
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			withdrawal, err := repo.GetByID(context.Background(), tt.id)

			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			if !tt.found {
				assert.Nil(t, withdrawal)
				return
			}
			assert.Equal(t, tt.id, withdrawal.ID)
			assert.Equal(t, domain.WithdrawalPending, withdrawal.Status)
			assert.Nil(t, withdrawal.ProcessedAt)
		})
	}
}

func TestRepository_ListByWallet(t *testing.T) {
	repo, mock := NewMock(t)
	createdAt := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	processedAt := createdAt.Add(24 * time.Hour)

	t.Run("Returns withdrawals newest first", func(t *testing.T) {
		rows := pgxmock.NewRows([]string{"id", "wallet_id", "amount", "status", "payout_ref", "created_at", "processed_at"}).
			AddRow(int64(13), int64(2), int64(500), domain.WithdrawalPending, "", createdAt, (*time.Time)(nil)).
			AddRow(int64(12), int64(2), int64(1800), domain.WithdrawalCompleted, "PAYOUT-77", createdAt, &processedAt)
		mock.ExpectQuery(regexp.QuoteMeta(`WHERE wallet_id = $1`)).
			WithArgs(int64(2)).
			WillReturnRows(rows)

		withdrawals, err := repo.ListByWallet(context.Background(), 2)
		assert.NoError(t, err)
		assert.Len(t, withdrawals, 2)
		assert.Equal(t, "PAYOUT-77", withdrawals[1].PayoutRef)
		assert.Equal(t, &processedAt, withdrawals[1].ProcessedAt)
	})

	t.Run("Database error", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`WHERE wallet_id = $1`)).
			WithArgs(int64(2)).
			WillReturnError(errors.New("database error"))

		_, err := repo.ListByWallet(context.Background(), 2)
		assert.Error(t, err)
	})
}

func TestRepository_UpdateStatus(t *testing.T) {
	repo, mock := NewMock(t)
	processedAt := time.Date(2026, 10, 2, 9, 0, 0, 0, time.UTC)

	t.Run("Updates status and payout reference", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`SET status = $1, payout_ref = $2, processed_at = $3`)).
			WithArgs(domain.WithdrawalCompleted, "PAYOUT-77", processedAt, int64(12)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.UpdateStatus(context.Background(), 12, domain.WithdrawalCompleted, "PAYOUT-77", processedAt)
		assert.NoError(t, err)
	})

	t.Run("No matching row returns ErrNoRows", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`SET status = $1, payout_ref = $2, processed_at = $3`)).
			WithArgs(domain.WithdrawalCompleted, "PAYOUT-77", processedAt, int64(99)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.UpdateStatus(context.Background(), 99, domain.WithdrawalCompleted, "PAYOUT-77", processedAt)
		assert.ErrorIs(t, err, pgx.ErrNoRows)
	})
}
