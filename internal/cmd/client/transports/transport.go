// Package transports holds the wire clients behind the flosweep CLI.
package transports

import (
	"context"
	"time"
)

// SubscriptionStatus mirrors one entry of GET /v1/subscriptions.
type SubscriptionStatus struct {
	Key          string    `json:"key"`
	TTLSeconds   int       `json:"ttl_seconds"`
	InProgress   bool      `json:"in_progress"`
	ExpiryRate   float64   `json:"expiry_rate"`
	Backlog      int64     `json:"backlog"`
	Sweeps       uint64    `json:"sweeps"`
	Skipped      uint64    `json:"skipped"`
	Expired      int64     `json:"expired_total"`
	DecodeErrors uint64    `json:"decode_errors"`
	Anomalies    uint64    `json:"anomalies"`
	LastOutcome  string    `json:"last_outcome,omitempty"`
	LastSweepAt  time.Time `json:"last_sweep_at,omitempty"`
}

// Rate is one subscription's freshly computed expiry rate.
type Rate struct {
	Key        string  `json:"key"`
	ExpiryRate float64 `json:"expiry_rate"`
}

// BacklogMessage is one unacknowledged message.
type BacklogMessage struct {
	Sequence    uint64            `json:"sequence"`
	PublishTime time.Time         `json:"publish_time"`
	Properties  map[string]string `json:"properties,omitempty"`
	Payload     []byte            `json:"payload"`
}

// Backlog is a page of unacknowledged messages plus the total count.
type Backlog struct {
	Key     string           `json:"key"`
	Backlog int64            `json:"backlog"`
	Items   []BacklogMessage `json:"items"`
}

// PublishRequest describes one message to append.
type PublishRequest struct {
	Namespace  string            `json:"namespace"`
	Topic      string            `json:"topic"`
	Partition  uint32            `json:"partition"`
	Payload    []byte            `json:"payload"`
	Properties map[string]string `json:"properties,omitempty"`
}

// AdminTransport abstracts the REST surface used by the CLI.
type AdminTransport interface {
	ListSubscriptions(ctx context.Context) ([]SubscriptionStatus, error)
	// Expire starts an expiry check. started is false when one is already
	// running for key.
	Expire(ctx context.Context, key string, ttlSeconds int) (started bool, err error)
	UpdateRates(ctx context.Context, key string) ([]Rate, error)
	Ack(ctx context.Context, key string, seq uint64) error
	AddSubscription(ctx context.Context, key string, ttlSeconds int) (SubscriptionStatus, error)
	RemoveSubscription(ctx context.Context, key string) error
	Publish(ctx context.Context, req PublishRequest) (uint64, error)
	Backlog(ctx context.Context, key string, limit int, filter string) (Backlog, error)
}

// HealthTransport reports server health.
type HealthTransport interface {
	Check(ctx context.Context, service string) (string, error)
}
