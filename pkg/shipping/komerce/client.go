package komerce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/tokopangan/checkout-backend/pkg/logger"
)

const (
	calculatePath         = "/tariff/api/v1/calculate"
	destinationSearchPath = "/tariff/api/v1/destination/search"

	defaultTimeout   = 8 * time.Second
	minKeywordLength = 3
	maxErrorBody     = 512
)

// Client talks to the Komerce tariff API.
type Client struct {
	config     Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
}

func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		breaker:    newBreaker("komerce"),
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

// GetRates returns every service able to deliver the parcel described by q.
func (c *Client) GetRates(ctx context.Context, q RateQuery) ([]Rate, error) {
	params := url.Values{}
	params.Set("shipper_destination_id", q.OriginID)
	params.Set("receiver_destination_id", q.DestinationID)
	params.Set("weight", strconv.FormatFloat(q.WeightKg, 'f', -1, 64))
	params.Set("item_value", strconv.FormatFloat(q.ItemValue, 'f', -1, 64))
	if q.COD {
		params.Set("cod", "yes")
	} else {
		params.Set("cod", "no")
	}

	var resp envelope[[]Rate]
	if err := c.get(ctx, calculatePath, params, &resp); err != nil {
		logger.Error("Komerce rate calculation failed", err, map[string]interface{}{
			"origin":      q.OriginID,
			"destination": q.DestinationID,
			"weight_kg":   q.WeightKg,
			"item_value":  q.ItemValue,
			"cod":         q.COD,
		})
		return nil, err
	}
	return resp.Data, nil
}

// SearchDestinations looks up destination ids by free-text keyword.
func (c *Client) SearchDestinations(ctx context.Context, keyword string) ([]Destination, error) {
	keyword = strings.TrimSpace(keyword)
	if len([]rune(keyword)) < minKeywordLength {
		return nil, ErrKeywordTooShort
	}

	params := url.Values{}
	params.Set("keyword", keyword)

	var resp envelope[[]Destination]
	if err := c.get(ctx, destinationSearchPath, params, &resp); err != nil {
		logger.Error("Komerce destination search failed", err, map[string]interface{}{
			"keyword": keyword,
		})
		return nil, err
	}
	if resp.Data == nil {
		return []Destination{}, nil
	}
	return resp.Data, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.doRequest(ctx, path, params)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}
		return err
	}

	var head envelope[json.RawMessage]
	if err := json.Unmarshal(body, &head); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	if !head.Success {
		return fmt.Errorf("%w: %s", ErrUpstream, head.Message)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, path string, params url.Values) ([]byte, error) {
	endpoint := c.config.BaseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-api-key", c.config.APIKey)
	req.Header.Set("Accept", "application/json")

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

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, fmt.Errorf("%w: status %d: %s", ErrInvalidRequest, resp.StatusCode, truncate(body))
	default:
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, truncate(body))
	}
}

func truncate(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody])
	}
	return string(body)
}
