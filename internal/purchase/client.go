package purchase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"skillswap/internal/infrastructure/gateway"
	"skillswap/internal/model"
)

// OrderRequest selects a catalogue pack by index.
type OrderRequest struct {
	Pack int `json:"pack"`
}

// Confirmation is the server's answer to a checkout confirmation.
type Confirmation struct {
	UserID        string `json:"user_id"`
	SCAmount      int64  `json:"sc_amount"`
	Applied       bool   `json:"applied"`
	SCBalance     int64  `json:"sc_balance"`
	TransactionNo string `json:"transaction_no"`
}

type Balance struct {
	UserID    string `json:"user_id"`
	SCBalance int64  `json:"sc_balance"`
	SCHeld    int64  `json:"sc_held"`
}

type Catalogue struct {
	Currency string             `json:"currency"`
	KeyID    string             `json:"key_id"`
	Packs    []model.CreditPack `json:"packs"`
}

// APIError is a non-2xx answer from the service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// APIClient talks to the payment endpoints on behalf of one signed-in user.
type APIClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewAPIClient builds a client for baseURL. token is the bearer token of the
// signed-in user; an empty token makes anonymous calls.
func NewAPIClient(baseURL, token string, httpClient *http.Client) *APIClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
	}
}

func (c *APIClient) Packs(ctx context.Context) (*Catalogue, error) {
	var out Catalogue
	if err := c.do(ctx, http.MethodGet, "/api/payments/packs", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) CreateOrder(ctx context.Context, req OrderRequest) (*gateway.Order, error) {
	var out struct {
		Order *gateway.Order `json:"order"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/payments/order", req, &out); err != nil {
		return nil, err
	}
	if out.Order == nil || out.Order.ID == "" {
		return nil, fmt.Errorf("api: order response without id")
	}
	return out.Order, nil
}

func (c *APIClient) Confirm(ctx context.Context, res *CheckoutResult) (*Confirmation, error) {
	body := map[string]string{
		"razorpay_order_id":   res.OrderID,
		"razorpay_payment_id": res.PaymentID,
		"razorpay_signature":  res.Signature,
	}
	var out Confirmation
	if err := c.do(ctx, http.MethodPost, "/api/payments/confirm", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) Balance(ctx context.Context, userID string) (*Balance, error) {
	var out Balance
	if err := c.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(userID)+"/balance", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &errBody)
		if errBody.Error == "" {
			errBody.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: errBody.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
