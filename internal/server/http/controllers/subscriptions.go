package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rzbill/flosweep/internal/eventlog"
	"github.com/rzbill/flosweep/internal/expiry"
	"github.com/rzbill/flosweep/internal/message"
	"github.com/rzbill/flosweep/internal/runtime"
	"github.com/rzbill/flosweep/pkg/log"
)

// SubscriptionsController exposes expiry state and manual triggers.
type SubscriptionsController struct {
	rt     *runtime.Runtime
	logger log.Logger
}

// NewSubscriptionsController creates a new subscriptions controller.
func NewSubscriptionsController(rt *runtime.Runtime, logger log.Logger) *SubscriptionsController {
	if logger == nil {
		logger = log.NewNop()
	}
	return &SubscriptionsController{rt: rt, logger: logger}
}

// RegisterRoutes registers subscription routes with the given mux.
func (c *SubscriptionsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/subscriptions", c.handleList)
	mux.HandleFunc("/v1/subscriptions/expire", c.handleExpire)
	mux.HandleFunc("/v1/subscriptions/rates", c.handleRates)
	mux.HandleFunc("/v1/subscriptions/ack", c.handleAck)
	mux.HandleFunc("/v1/subscriptions/add", c.handleAdd)
	mux.HandleFunc("/v1/subscriptions/remove", c.handleRemove)
	mux.HandleFunc("/v1/backlog", c.handleBacklog)
}

func (c *SubscriptionsController) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	subs := c.rt.Subscriptions()
	out := make([]subscriptionView, 0, len(subs))
	for _, s := range subs {
		out = append(out, subscriptionView{Key: s.Key.String(), TTLSeconds: s.TTLSeconds, Stats: s.Monitor.Stats()})
	}
	writeJSON(w, map[string]any{"subscriptions": out})
}

// handleExpire starts one expiry check. 202 when it started, 409 when a
// check is already running.
func (c *SubscriptionsController) handleExpire(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req expireReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.TTLSeconds < 0 {
		writeError(w, http.StatusBadRequest, "ttl_seconds must not be negative")
		return
	}
	sub, ok := lookupSubscription(w, c.rt, req.Key)
	if !ok {
		return
	}
	ttl := req.TTLSeconds
	if ttl == 0 {
		ttl = sub.TTLSeconds
	}
	if !sub.Monitor.TriggerExpiry(ttl) {
		writeError(w, http.StatusConflict, "expiry check already in progress")
		return
	}
	c.logger.Info("manual expiry check started", log.Str("key", sub.Key.String()), log.Int("ttl_seconds", ttl))
	writeJSONStatus(w, http.StatusAccepted, map[string]any{"status": "started", "key": sub.Key.String(), "ttl_seconds": ttl})
}

// handleRates flushes the rate window of one subscription, or all of them
// when no key is given, and returns the new rates.
func (c *SubscriptionsController) handleRates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req keyReq
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	var subs []*runtime.Subscription
	if req.Key == "" {
		subs = c.rt.Subscriptions()
	} else {
		sub, ok := lookupSubscription(w, c.rt, req.Key)
		if !ok {
			return
		}
		subs = []*runtime.Subscription{sub}
	}
	out := make([]rateView, 0, len(subs))
	for _, s := range subs {
		s.Monitor.UpdateRates()
		out = append(out, rateView{Key: s.Key.String(), ExpiryRate: s.Monitor.ExpiryRate()})
	}
	writeJSON(w, map[string]any{"rates": out})
}

func (c *SubscriptionsController) handleAck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req ackReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	sub, ok := lookupSubscription(w, c.rt, req.Key)
	if !ok {
		return
	}
	if err := c.rt.Acknowledge(r.Context(), sub.Key, req.Sequence); err != nil {
		if errors.Is(err, eventlog.ErrInvalidPosition) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to acknowledge")
		return
	}
	writeNoContent(w)
}

func (c *SubscriptionsController) handleBacklog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	q := r.URL.Query()
	sub, ok := lookupSubscription(w, c.rt, q.Get("key"))
	if !ok {
		return
	}
	filter, err := message.NewFilter(q.Get("filter"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := c.rt.Backlog(sub.Key, parseLimit(q.Get("limit")), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read backlog")
		return
	}
	writeJSON(w, map[string]any{"key": sub.Key.String(), "backlog": sub.Cursor.BacklogCount(), "items": items})
}

// handleAdd registers a new subscription. A zero TTL uses the configured
// default.
func (c *SubscriptionsController) handleAdd(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req expireReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	key, err := expiry.ParseKey(req.Key)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ttl := req.TTLSeconds
	if ttl == 0 {
		ttl = c.rt.Config().Expiry.DefaultTTLSeconds
	}
	sub, err := c.rt.AddSubscription(key, ttl)
	switch {
	case errors.Is(err, runtime.ErrSubscriptionExists):
		writeError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, runtime.ErrInvalidTTL), errors.Is(err, eventlog.ErrEmptyTopic):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to add subscription")
		return
	}
	c.logger.Info("subscription added", log.Str("key", key.String()), log.Int("ttl_seconds", ttl))
	writeJSONStatus(w, http.StatusCreated, subscriptionView{Key: key.String(), TTLSeconds: sub.TTLSeconds, Stats: sub.Monitor.Stats()})
}

func (c *SubscriptionsController) handleRemove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req keyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	sub, ok := lookupSubscription(w, c.rt, req.Key)
	if !ok {
		return
	}
	if err := c.rt.RemoveSubscription(sub.Key); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to remove subscription")
		return
	}
	c.logger.Info("subscription removed", log.Str("key", sub.Key.String()))
	writeNoContent(w)
}
