package transports

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// HTTPTransport implements AdminTransport against the REST API.
type HTTPTransport struct {
	baseURL string
	client  *http.Client
}

// NewHTTPTransport returns a transport rooted at baseURL. A nil client uses
// http.DefaultClient.
func NewHTTPTransport(baseURL string, client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http %d", e.Code)
	}
	return fmt.Sprintf("http %d: %s", e.Code, e.Message)
}

func (t *HTTPTransport) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, rd)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return resp.StatusCode, &StatusError{Code: resp.StatusCode, Message: e.Error}
	}
	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func (t *HTTPTransport) ListSubscriptions(ctx context.Context) ([]SubscriptionStatus, error) {
	var out struct {
		Subscriptions []SubscriptionStatus `json:"subscriptions"`
	}
	if _, err := t.do(ctx, http.MethodGet, "/v1/subscriptions", nil, &out); err != nil {
		return nil, err
	}
	return out.Subscriptions, nil
}

func (t *HTTPTransport) Expire(ctx context.Context, key string, ttlSeconds int) (bool, error) {
	body := map[string]any{"key": key, "ttl_seconds": ttlSeconds}
	code, err := t.do(ctx, http.MethodPost, "/v1/subscriptions/expire", body, nil)
	if code == http.StatusConflict {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (t *HTTPTransport) UpdateRates(ctx context.Context, key string) ([]Rate, error) {
	var out struct {
		Rates []Rate `json:"rates"`
	}
	if _, err := t.do(ctx, http.MethodPost, "/v1/subscriptions/rates", map[string]string{"key": key}, &out); err != nil {
		return nil, err
	}
	return out.Rates, nil
}

func (t *HTTPTransport) Ack(ctx context.Context, key string, seq uint64) error {
	_, err := t.do(ctx, http.MethodPost, "/v1/subscriptions/ack", map[string]any{"key": key, "sequence": seq}, nil)
	return err
}

func (t *HTTPTransport) AddSubscription(ctx context.Context, key string, ttlSeconds int) (SubscriptionStatus, error) {
	var out SubscriptionStatus
	_, err := t.do(ctx, http.MethodPost, "/v1/subscriptions/add", map[string]any{"key": key, "ttl_seconds": ttlSeconds}, &out)
	return out, err
}

func (t *HTTPTransport) RemoveSubscription(ctx context.Context, key string) error {
	_, err := t.do(ctx, http.MethodPost, "/v1/subscriptions/remove", map[string]string{"key": key}, nil)
	return err
}

func (t *HTTPTransport) Publish(ctx context.Context, req PublishRequest) (uint64, error) {
	var out struct {
		Sequence uint64 `json:"sequence"`
	}
	if _, err := t.do(ctx, http.MethodPost, "/v1/publish", req, &out); err != nil {
		return 0, err
	}
	return out.Sequence, nil
}

func (t *HTTPTransport) Backlog(ctx context.Context, key string, limit int, filter string) (Backlog, error) {
	q := url.Values{}
	q.Set("key", key)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if filter != "" {
		q.Set("filter", filter)
	}
	var out Backlog
	_, err := t.do(ctx, http.MethodGet, "/v1/backlog?"+q.Encode(), nil, &out)
	return out, err
}
