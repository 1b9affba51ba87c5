// Package gateway is the payment provider client. Only order creation talks
// to the provider; signature verification is local HMAC and lives in
// paymentservice.
package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/bookstay/bookstay/internal/config"
	"github.com/bookstay/bookstay/pkg/clients"
)

var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

type Client struct {
	url    string
	keyID  string
	secret string
	client clients.HTTPClientI
}

func New(cfg *config.Config, client clients.HTTPClientI) *Client {
	return &Client{
		url:    cfg.GatewayAddress,
		keyID:  cfg.GatewayKeyID,
		secret: cfg.GatewaySecret,
		client: client,
	}
}

type orderRequest struct {
	Amount   int64             `json:"amount"` // minor units
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type orderResponse struct {
	ID string `json:"id"`
}

// CreateOrder opens an order for amount rupees and returns the gateway's
// order id. The provider expects minor currency units.
func (c *Client) CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	body, err := json.Marshal(orderRequest{
		Amount:   amount * 100,
		Currency: currency,
		Receipt:  receipt,
		Notes:    notes,
	})
	if err != nil {
		return "", fmt.Errorf("marshal order request: %w", err)
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(c.keyID+":"+c.secret)))

	statusCode, respBody, err := c.client.Post(c.url+"/v1/orders", headers, body)
	if err != nil {
		zap.L().Error("gateway order creation failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	if statusCode != http.StatusOK {
		zap.L().Error("gateway returned unexpected status", zap.Int("status", statusCode))
		return "", fmt.Errorf("%w: status %d", ErrGatewayUnavailable, statusCode)
	}

	var resp orderResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("parse gateway response: %w", err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("%w: empty order id", ErrGatewayUnavailable)
	}
	return resp.ID, nil
}
