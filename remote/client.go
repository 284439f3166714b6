package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/fbetancur/CrediSync360/models"
	"github.com/fbetancur/CrediSync360/service"
)

// Client talks to the backing API over HTTP/JSON. It implements both
// service.RemoteStore and service.ConnectivityChecker.
//
// Requests carry no per-call deadline of their own; callers bound them
// through the context they pass in.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a remote API client for the given base URL
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{},
	}
}

var _ service.RemoteStore = (*Client)(nil)
var _ service.ConnectivityChecker = (*Client)(nil)

// Online probes the health endpoint. Any 2xx means reachable.
func (c *Client) Online() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request for %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("POST %s returned %d: %s", path, resp.StatusCode, detail)
	}
	return nil
}

func get[T any](ctx context.Context, c *Client, path string, filter service.RemoteFilter) ([]*T, error) {
	params := url.Values{}
	if filter.TenantID != "" {
		params.Set("tenantId", filter.TenantID)
	}
	if filter.RouteID != "" {
		params.Set("routeId", filter.RouteID)
	}
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", path, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("GET %s returned %d: %s", path, resp.StatusCode, detail)
	}

	var out []*T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return out, nil
}

func (c *Client) CreateRoute(ctx context.Context, route *models.Route) error {
	return c.post(ctx, "/routes", route)
}

func (c *Client) CreateClient(ctx context.Context, client *models.Client) error {
	return c.post(ctx, "/clients", client)
}

func (c *Client) CreateCredit(ctx context.Context, credit *models.Credit) error {
	return c.post(ctx, "/credits", credit)
}

func (c *Client) CreateInstallment(ctx context.Context, installment *models.Installment) error {
	return c.post(ctx, "/installments", installment)
}

func (c *Client) CreatePayment(ctx context.Context, payment *models.Payment) error {
	return c.post(ctx, "/payments", payment)
}

func (c *Client) CreateCashClosing(ctx context.Context, closing *models.CashClosing) error {
	return c.post(ctx, "/cash-closings", closing)
}

func (c *Client) CreateCashMovement(ctx context.Context, movement *models.CashMovement) error {
	return c.post(ctx, "/cash-movements", movement)
}

func (c *Client) ListRoutes(ctx context.Context, filter service.RemoteFilter) ([]*models.Route, error) {
	return get[models.Route](ctx, c, "/routes", filter)
}

func (c *Client) ListProducts(ctx context.Context, filter service.RemoteFilter) ([]*models.CreditProduct, error) {
	return get[models.CreditProduct](ctx, c, "/credit-products", filter)
}

func (c *Client) ListClients(ctx context.Context, filter service.RemoteFilter) ([]*models.Client, error) {
	return get[models.Client](ctx, c, "/clients", filter)
}

func (c *Client) ListCredits(ctx context.Context, filter service.RemoteFilter) ([]*models.Credit, error) {
	return get[models.Credit](ctx, c, "/credits", filter)
}

func (c *Client) ListInstallments(ctx context.Context, filter service.RemoteFilter) ([]*models.Installment, error) {
	return get[models.Installment](ctx, c, "/installments", filter)
}

func (c *Client) ListPayments(ctx context.Context, filter service.RemoteFilter) ([]*models.Payment, error) {
	return get[models.Payment](ctx, c, "/payments", filter)
}
