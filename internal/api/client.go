package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"tiffinbox/internal/domain"
)

// Client talks to the food-ordering backend. It implements the
// pricing, order-creation, payment, and listing collaborators the
// client core composes with. Backend error messages pass through
// verbatim so the UI can show them as-is.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
	logger  *log.Logger
}

// New builds a Client for the backend at baseURL authenticating with
// the session bearer token.
func New(baseURL, token string, logger *log.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpc:   &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

type apiError struct {
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	if resp.StatusCode >= 400 {
		var apiErr apiError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Message != "" {
			return errors.New(apiErr.Message)
		}
		return fmt.Errorf("backend returned %s", resp.Status)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// CalculatePricing asks the backend for the authoritative breakdown
// and voucher verdict for the projected order.
func (c *Client) CalculatePricing(ctx context.Context, req domain.OrderRequest) (*domain.PricingQuote, error) {
	var quote domain.PricingQuote
	if err := c.do(ctx, http.MethodPost, "/v1/pricing/calculate", req, &quote); err != nil {
		return nil, err
	}
	return &quote, nil
}

// CreateOrder places the projected order.
func (c *Client) CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.CreatedOrder, error) {
	var created domain.CreatedOrder
	if err := c.do(ctx, http.MethodPost, "/v1/orders", req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ProcessPayment collects payment for the created order.
func (c *Client) ProcessPayment(ctx context.Context, orderID string) (*domain.PaymentResult, error) {
	var result domain.PaymentResult
	if err := c.do(ctx, http.MethodPost, "/v1/orders/"+url.PathEscape(orderID)+"/payment", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RetryPayment retries payment for the same already-created order.
func (c *Client) RetryPayment(ctx context.Context, orderID string) (*domain.PaymentResult, error) {
	var result domain.PaymentResult
	if err := c.do(ctx, http.MethodPost, "/v1/orders/"+url.PathEscape(orderID)+"/payment/retry", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListOrders fetches the user's order history, optionally filtered by
// status.
func (c *Client) ListOrders(ctx context.Context, status string) ([]domain.Order, error) {
	path := "/v1/orders"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	var orders []domain.Order
	if err := c.do(ctx, http.MethodGet, path, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// ListVouchers fetches the user's voucher pool.
func (c *Client) ListVouchers(ctx context.Context) ([]domain.Voucher, error) {
	var vouchers []domain.Voucher
	if err := c.do(ctx, http.MethodGet, "/v1/vouchers", nil, &vouchers); err != nil {
		return nil, err
	}
	return vouchers, nil
}

// ActiveSubscription fetches the user's active meal plan, or
// domain.ErrNotFound when none exists.
func (c *Client) ActiveSubscription(ctx context.Context) (*domain.Subscription, error) {
	var sub domain.Subscription
	if err := c.do(ctx, http.MethodGet, "/v1/subscriptions/active", nil, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}
