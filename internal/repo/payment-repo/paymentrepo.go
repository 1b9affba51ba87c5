package paymentrepo

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

func (r *Repository) CreateOrder(ctx context.Context, order *domain.PaymentOrder) (*domain.PaymentOrder, error) {
	query := `
        INSERT INTO payment_orders (gateway_order_id, receipt, amount, currency, purpose, user_id, booking_id, wallet_amount, notes, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query,
		order.GatewayOrderID, order.Receipt, order.Amount, order.Currency, order.Purpose,
		order.UserID, order.BookingID, order.WalletAmount, order.Notes, order.Status,
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		zap.L().Error("can't save payment order", zap.Error(err))
		return nil, err
	}
	return order, nil
}

func (r *Repository) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.PaymentOrder, error) {
	query := `
        SELECT id, gateway_order_id, receipt, amount, currency, purpose, user_id, booking_id, wallet_amount, notes, status, created_at
        FROM payment_orders
        WHERE gateway_order_id = $1
    `
	var o domain.PaymentOrder
	err := r.db.QueryRow(ctx, query, gatewayOrderID).Scan(
		&o.ID, &o.GatewayOrderID, &o.Receipt, &o.Amount, &o.Currency, &o.Purpose,
		&o.UserID, &o.BookingID, &o.WalletAmount, &o.Notes, &o.Status, &o.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		zap.L().Error("failed to get payment order", zap.Error(err))
		return nil, err
	}
	return &o, nil
}

// MarkStatus transitions an order created → paid|failed. The conditional
// guard makes repeated verification calls for the same order idempotent.
func (r *Repository) MarkStatus(ctx context.Context, gatewayOrderID, status string) (bool, error) {
	query := `
        UPDATE payment_orders
        SET status = $1
        WHERE gateway_order_id = $2 AND status = 'created'
    `
	tag, err := r.db.Exec(ctx, query, status, gatewayOrderID)
	if err != nil {
		zap.L().Error("failed to mark payment order", zap.String("gatewayOrderID", gatewayOrderID), zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
