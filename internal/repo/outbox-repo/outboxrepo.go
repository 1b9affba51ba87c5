package outboxrepo

import (
	"context"

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

func (r *Repository) Enqueue(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	query := `
        INSERT INTO notification_outbox (target_id, target_kind, title, body, data, status)
        VALUES ($1, $2, $3, $4, $5, 'pending')
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query, n.TargetID, n.TargetKind, n.Title, n.Body, n.Data).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		zap.L().Error("can't enqueue notification", zap.Error(err))
		return nil, err
	}
	n.Status = domain.NotifyPending
	return n, nil
}

func (r *Repository) FetchPending(ctx context.Context, limit int) ([]domain.Notification, error) {
	query := `
        SELECT id, target_id, target_kind, title, body, data, status, attempts, created_at, sent_at
        FROM notification_outbox
        WHERE status = 'pending'
        ORDER BY created_at
        LIMIT $1
    `
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		zap.L().Error("failed to fetch pending notifications", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var pending []domain.Notification
	for rows.Next() {
		var n domain.Notification
		err := rows.Scan(&n.ID, &n.TargetID, &n.TargetKind, &n.Title, &n.Body, &n.Data, &n.Status, &n.Attempts, &n.CreatedAt, &n.SentAt)
		if err != nil {
			zap.L().Error("failed to scan notification row", zap.Error(err))
			return nil, err
		}
		pending = append(pending, n)
	}
	return pending, nil
}

func (r *Repository) MarkSent(ctx context.Context, id int64) error {
	query := `
        UPDATE notification_outbox
        SET status = 'sent', attempts = attempts + 1, sent_at = now()
        WHERE id = $1
    `
	if _, err := r.db.Exec(ctx, query, id); err != nil {
		zap.L().Error("failed to mark notification sent", zap.Int64("id", id), zap.Error(err))
		return err
	}
	return nil
}

// MarkAttempt records a failed delivery; the row flips to failed once
// attempts reach maxAttempts and is no longer picked up.
func (r *Repository) MarkAttempt(ctx context.Context, id int64, maxAttempts int) error {
	query := `
        UPDATE notification_outbox
        SET attempts = attempts + 1,
            status = CASE WHEN attempts + 1 >= $1 THEN 'failed' ELSE 'pending' END
        WHERE id = $2
    `
	if _, err := r.db.Exec(ctx, query, maxAttempts, id); err != nil {
		zap.L().Error("failed to record notification attempt", zap.Int64("id", id), zap.Error(err))
		return err
	}
	return nil
}
