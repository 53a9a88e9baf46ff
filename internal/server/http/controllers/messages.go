package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rzbill/flosweep/internal/eventlog"
	"github.com/rzbill/flosweep/internal/runtime"
)

// MessagesController handles publishing.
type MessagesController struct {
	rt *runtime.Runtime
}

// NewMessagesController creates a new messages controller.
func NewMessagesController(rt *runtime.Runtime) *MessagesController {
	return &MessagesController{rt: rt}
}

// RegisterRoutes registers message routes with the given mux.
func (c *MessagesController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/publish", c.handlePublish)
}

// handlePublish appends one message. Returns 202 Accepted with its sequence.
func (c *MessagesController) handlePublish(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req publishReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Namespace == "" {
		req.Namespace = "default"
	}
	seq, err := c.rt.Publish(r.Context(), req.Namespace, req.Topic, req.Partition, req.Payload, req.Properties)
	if err != nil {
		if errors.Is(err, eventlog.ErrEmptyTopic) {
			writeError(w, http.StatusBadRequest, "topic is required")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to publish")
		return
	}
	writeJSONStatus(w, http.StatusAccepted, map[string]any{"sequence": seq})
}
