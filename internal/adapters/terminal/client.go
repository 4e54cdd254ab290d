package terminal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/rgonzalo/straddlebot/internal/domain"
	"github.com/rgonzalo/straddlebot/internal/ports"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "http://127.0.0.1:5005"

	// The bridge serves one terminal; keep request rates well under what
	// the terminal's own event loop can absorb.
	quoteRatePerSec = 20
	tradeRatePerSec = 5

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client talks to the authenticated terminal bridge over HTTP.
// It implements ports.PriceFeed and ports.OrderGateway.
type Client struct {
	http         *http.Client
	baseURL      string
	quoteLimiter *rate.Limiter
	tradeLimiter *rate.Limiter
}

// NewClient creates a Client for the given bridge base URL.
// An empty baseURL falls back to the local default.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		http:         &http.Client{Timeout: 10 * time.Second},
		baseURL:      baseURL,
		quoteLimiter: rate.NewLimiter(quoteRatePerSec, 5),
		tradeLimiter: rate.NewLimiter(tradeRatePerSec, 2),
	}
}

type quoteResponse struct {
	Symbol string  `json:"symbol"`
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
	Time   int64   `json:"time"`
}

type orderResponse struct {
	Retcode int     `json:"retcode"`
	Ticket  int64   `json:"ticket"`
	Price   float64 `json:"price"`
	Message string  `json:"message"`
}

type pingResponse struct {
	Connected bool   `json:"connected"`
	Account   string `json:"account"`
}

// GetSnapshot fetches the current quote for the instrument.
func (c *Client) GetSnapshot(ctx context.Context, instrument string) (domain.Snapshot, error) {
	u := fmt.Sprintf("%s/quote?symbol=%s", c.baseURL, url.QueryEscape(instrument))

	var q quoteResponse
	if err := c.get(ctx, c.quoteLimiter, u, &q); err != nil {
		if isNotFound(err) {
			return domain.Snapshot{}, fmt.Errorf("terminal.GetSnapshot: %q: %w", instrument, ports.ErrUnknownInstrument)
		}
		return domain.Snapshot{}, fmt.Errorf("terminal.GetSnapshot: %w", err)
	}

	if q.Bid == 0 && q.Ask == 0 {
		return domain.Snapshot{}, ports.ErrNoPrice
	}

	return domain.Snapshot{
		Bid:  q.Bid,
		Ask:  q.Ask,
		Time: time.Unix(q.Time, 0).UTC(),
	}, nil
}

// OpenMarketOrder submits one leg as a market order and waits for the fill.
func (c *Client) OpenMarketOrder(ctx context.Context, req domain.OrderRequest) (domain.Fill, error) {
	body := map[string]any{
		"symbol": req.Instrument,
		"side":   string(req.Side),
		"volume": req.Volume,
	}

	var resp orderResponse
	if err := c.post(ctx, c.tradeLimiter, c.baseURL+"/order/open", body, &resp); err != nil {
		return domain.Fill{}, fmt.Errorf("terminal.OpenMarketOrder: %w", err)
	}
	if resp.Retcode != RetcodeDone {
		return domain.Fill{}, &ports.GatewayError{Code: resp.Retcode, Message: RetcodeText(resp.Retcode)}
	}
	return domain.Fill{Ticket: resp.Ticket, FillPrice: resp.Price}, nil
}

// ClosePosition closes the given ticket at the best available price.
func (c *Client) ClosePosition(ctx context.Context, ticket int64, volume float64, side domain.Side) (domain.Fill, error) {
	body := map[string]any{
		"ticket": ticket,
		"volume": volume,
		"side":   string(side),
	}

	var resp orderResponse
	if err := c.post(ctx, c.tradeLimiter, c.baseURL+"/order/close", body, &resp); err != nil {
		return domain.Fill{}, fmt.Errorf("terminal.ClosePosition: ticket %d: %w", ticket, err)
	}
	if resp.Retcode != RetcodeDone {
		return domain.Fill{}, &ports.GatewayError{Code: resp.Retcode, Message: RetcodeText(resp.Retcode)}
	}
	return domain.Fill{Ticket: ticket, FillPrice: resp.Price}, nil
}

// Ping verifies the bridge is up and the terminal session is connected.
func (c *Client) Ping(ctx context.Context) error {
	var p pingResponse
	if err := c.get(ctx, c.quoteLimiter, c.baseURL+"/ping", &p); err != nil {
		return fmt.Errorf("terminal.Ping: %w", err)
	}
	if !p.Connected {
		return fmt.Errorf("terminal.Ping: bridge up but terminal session not connected")
	}
	return nil
}

// get does a GET with rate limiting and retries.
func (c *Client) get(ctx context.Context, limiter *rate.Limiter, url string, out any) error {
	return c.doWithRetry(ctx, limiter, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return c.http.Do(req)
	}, out, maxRetries)
}

// post does a JSON POST. Trade submissions are never retried at this
// layer: a timed-out request may still have executed on the terminal, so
// retry policy belongs to the engine, which knows the cycle state.
func (c *Client) post(ctx context.Context, limiter *rate.Limiter, url string, body, out any) error {
	return c.doWithRetry(ctx, limiter, func() (*http.Response, error) {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		return c.http.Do(req)
	}, out, 0)
}

// doWithRetry runs fn with exponential backoff up to retries attempts.
func (c *Client) doWithRetry(ctx context.Context, limiter *rate.Limiter, fn func() (*http.Response, error), out any, retries int) error {
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := fn()
		if err != nil {
			lastErr = err
			if attempt == retries {
				break
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error %d", resp.StatusCode)
			if attempt == retries {
				break
			}
			slog.Warn("terminal: request failed, retrying", "status", resp.StatusCode, "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return &httpError{status: resp.StatusCode, body: string(body)}
		}

		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("request failed after %d attempts: %w", retries+1, lastErr)
}

// sleep waits with exponential backoff, honoring the context.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}

type httpError struct {
	status int
	body   string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("client error %d: %s", e.status, e.body)
}

func isNotFound(err error) bool {
	he, ok := err.(*httpError)
	return ok && he.status == http.StatusNotFound
}
