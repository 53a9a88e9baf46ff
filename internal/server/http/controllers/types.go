package controllers

import "github.com/rzbill/flosweep/internal/expiry"

// Common request/response types for HTTP controllers

// expireReq asks for an immediate expiry check. A zero TTLSeconds uses the
// subscription's configured TTL.
type expireReq struct {
	Key        string `json:"key"`
	TTLSeconds int    `json:"ttl_seconds"`
}

// keyReq names one subscription; empty means all.
type keyReq struct {
	Key string `json:"key"`
}

// ackReq advances a subscription's mark-delete position.
type ackReq struct {
	Key      string `json:"key"`
	Sequence uint64 `json:"sequence"`
}

// publishReq represents a request to publish a message.
type publishReq struct {
	Namespace  string            `json:"namespace"`
	Topic      string            `json:"topic"`
	Partition  uint32            `json:"partition"`
	Payload    []byte            `json:"payload"`
	Properties map[string]string `json:"properties"`
}

// subscriptionView is one entry of GET /v1/subscriptions.
type subscriptionView struct {
	Key        string `json:"key"`
	TTLSeconds int    `json:"ttl_seconds"`
	expiry.Stats
}

// rateView is one entry of POST /v1/subscriptions/rates.
type rateView struct {
	Key        string  `json:"key"`
	ExpiryRate float64 `json:"expiry_rate"`
}
