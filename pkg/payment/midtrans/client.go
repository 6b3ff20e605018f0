package midtrans

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/tokopangan/checkout-backend/pkg/logger"
)

const (
	snapTransactionsPath = "/snap/v1/transactions"
	defaultTimeout       = 8 * time.Second
	maxErrorBody         = 512
)

// Client calls the Snap and Core APIs with the merchant server key.
type Client struct {
	config      Config
	httpClient  *http.Client
	snapBreaker *gobreaker.CircuitBreaker[[]byte]
	coreBreaker *gobreaker.CircuitBreaker[[]byte]
}

func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	config.SnapBaseURL = strings.TrimRight(config.SnapBaseURL, "/")
	config.CoreBaseURL = strings.TrimRight(config.CoreBaseURL, "/")

	return &Client{
		config:      config,
		httpClient:  &http.Client{Timeout: config.Timeout},
		snapBreaker: newBreaker("midtrans-snap"),
		coreBreaker: newBreaker("midtrans-core"),
	}, nil
}

func newBreaker(name string) *gobreaker.CircuitBreaker[[]byte] {
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrInvalidRequest) ||
				errors.Is(err, ErrTransactionNotFound) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	})
}

// ServerKey is used by the webhook to verify notification signatures.
func (c *Client) ServerKey() string {
	return c.config.ServerKey
}

// CreateSnapTransaction opens a hosted payment session.
func (c *Client) CreateSnapTransaction(ctx context.Context, req SnapRequest) (*SnapResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	body, err := execute(c.snapBreaker, func() ([]byte, error) {
		return c.doRequest(ctx, http.MethodPost, c.config.SnapBaseURL+snapTransactionsPath, payload)
	})
	if err != nil {
		logger.Error("Midtrans snap transaction failed", err, map[string]interface{}{
			"order_id":     req.TransactionDetails.OrderID,
			"gross_amount": req.TransactionDetails.GrossAmount,
		})
		return nil, err
	}

	var resp SnapResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode snap response: %v", ErrUpstream, err)
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("%w: snap response without token", ErrUpstream)
	}
	return &resp, nil
}

// TransactionStatus queries the canonical state of a transaction by
// transaction id or merchant order id.
func (c *Client) TransactionStatus(ctx context.Context, ref string) (*StatusResponse, error) {
	if ref == "" {
		return nil, fmt.Errorf("%w: empty transaction reference", ErrInvalidRequest)
	}
	endpoint := fmt.Sprintf("%s/v2/%s/status", c.config.CoreBaseURL, url.PathEscape(ref))

	body, err := execute(c.coreBreaker, func() ([]byte, error) {
		raw, err := c.doRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		return raw, statusBodyError(raw)
	})
	if err != nil {
		logger.Error("Midtrans status query failed", err, map[string]interface{}{
			"reference": ref,
		})
		return nil, err
	}

	var resp StatusResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode status response: %v", ErrUpstream, err)
	}
	resp.Raw = json.RawMessage(body)
	return &resp, nil
}

// statusBodyError inspects the status_code field, which the Core API uses for
// errors even on HTTP 200. Bodies carrying a transaction_status are valid
// states regardless of their status_code (an expired transaction reports 407).
func statusBodyError(body []byte) error {
	var head struct {
		StatusCode        string `json:"status_code"`
		StatusMessage     string `json:"status_message"`
		TransactionStatus string `json:"transaction_status"`
	}
	if err := json.Unmarshal(body, &head); err != nil {
		return fmt.Errorf("%w: decode status response: %v", ErrUpstream, err)
	}
	if head.TransactionStatus != "" {
		return nil
	}
	switch head.StatusCode {
	case "404":
		return fmt.Errorf("%w: %s", ErrTransactionNotFound, head.StatusMessage)
	case "401":
		return fmt.Errorf("%w: %s", ErrUnauthorized, head.StatusMessage)
	default:
		return fmt.Errorf("%w: status_code %s: %s", ErrUpstream, head.StatusCode, head.StatusMessage)
	}
}

func execute(cb *gobreaker.CircuitBreaker[[]byte], fn func() ([]byte, error)) ([]byte, error) {
	body, err := cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}
	return body, err
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.config.ServerKey, "")
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrNetworkError, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	msg := describeError(resp.StatusCode, body)
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, msg)
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrTransactionNotFound, msg)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, msg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUpstream, msg)
	}
}

func describeError(status int, body []byte) string {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		if len(errResp.ErrorMessages) > 0 {
			return fmt.Sprintf("status %d: %s", status, strings.Join(errResp.ErrorMessages, "; "))
		}
		if errResp.StatusMessage != "" {
			return fmt.Sprintf("status %d: %s", status, errResp.StatusMessage)
		}
	}
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return fmt.Sprintf("status %d: %s", status, string(body))
}
