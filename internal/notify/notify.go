// Package notify drains the notification outbox and pushes messages to the
// delivery endpoint. Delivery is best effort: a booking never fails because
// its notification could not be sent.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bookstay/bookstay/internal/config"
	"github.com/bookstay/bookstay/internal/domain"
	"github.com/bookstay/bookstay/pkg/clients"
)

const (
	maxAttempts  = 3
	fetchLimit   = 1000
	pollInterval = time.Second * 5
)

var inFlight sync.Map

type OutboxRepo interface {
	FetchPending(ctx context.Context, limit int) ([]domain.Notification, error)
	MarkSent(ctx context.Context, id int64) error
	MarkAttempt(ctx context.Context, id int64, maxAttempts int) error
}

type message struct {
	TargetID   int64           `json:"targetId"`
	TargetKind string          `json:"targetKind"`
	Title      string          `json:"title"`
	Body       string          `json:"body"`
	Data       json.RawMessage `json:"data,omitempty"`
}

type Dispatcher struct {
	url        string
	outbox     OutboxRepo
	client     clients.HTTPClientI
	workerPool WorkerPoolI
	interval   time.Duration
}

func New(cfg *config.Config, outbox OutboxRepo, client clients.HTTPClientI) *Dispatcher {
	workers := cfg.OutboxWorkers
	if workers <= 0 {
		workers = 10
	}
	return &Dispatcher{
		url:        cfg.NotifyAddress,
		outbox:     outbox,
		client:     client,
		workerPool: NewWorkerPool(workers),
		interval:   pollInterval,
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	zap.L().Info("Notification dispatcher started")
	go d.run(ctx)
}

func (d *Dispatcher) run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("Context canceled, stopping dispatcher")
			return
		case <-ticker.C:
			d.drain(ctx)
		}
	}
}

func (d *Dispatcher) drain(ctx context.Context) {
	pending, err := d.outbox.FetchPending(ctx, fetchLimit)
	if err != nil {
		zap.L().Error("Failed to fetch pending notifications", zap.Error(err))
		return
	}

	var g errgroup.Group
	for _, n := range pending {
		n := n

		if _, loaded := inFlight.LoadOrStore(n.ID, struct{}{}); loaded {
			continue
		}

		g.Go(func() error {
			err := d.workerPool.AddTask(ctx, func() error {
				defer inFlight.Delete(n.ID)
				return d.deliver(ctx, n)
			})
			if err != nil {
				inFlight.Delete(n.ID)
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		zap.L().Error("Error dispatching notifications", zap.Error(err))
	}
}

func (d *Dispatcher) deliver(ctx context.Context, n domain.Notification) error {
	body, err := json.Marshal(message{
		TargetID:   n.TargetID,
		TargetKind: string(n.TargetKind),
		Title:      n.Title,
		Body:       n.Body,
		Data:       n.Data,
	})
	if err != nil {
		return fmt.Errorf("marshal notification %d: %w", n.ID, err)
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")

	statusCode, _, err := d.client.Post(d.url+"/api/notifications", headers, body)
	if err != nil || statusCode != http.StatusOK {
		zap.L().Warn("Notification delivery failed",
			zap.Int64("id", n.ID),
			zap.Int("attempt", n.Attempts+1),
			zap.Int("status", statusCode),
			zap.Error(err),
		)
		if markErr := d.outbox.MarkAttempt(ctx, n.ID, maxAttempts); markErr != nil {
			return markErr
		}
		if err != nil {
			return fmt.Errorf("deliver notification %d: %w", n.ID, err)
		}
		return fmt.Errorf("deliver notification %d: unexpected status %s", n.ID, strconv.Itoa(statusCode))
	}

	return d.outbox.MarkSent(ctx, n.ID)
}
