package controllers

import (
	"net/http"

	"github.com/rzbill/flosweep/internal/runtime"
	"github.com/rzbill/flosweep/pkg/log"
)

// ControllerRegistry manages all HTTP controllers.
type ControllerRegistry struct {
	general       *GeneralController
	subscriptions *SubscriptionsController
	messages      *MessagesController
}

// NewControllerRegistry creates a new controller registry.
func NewControllerRegistry(rt *runtime.Runtime, logger log.Logger) *ControllerRegistry {
	return &ControllerRegistry{
		general:       NewGeneralController(rt),
		subscriptions: NewSubscriptionsController(rt, logger),
		messages:      NewMessagesController(rt),
	}
}

// RegisterAllRoutes registers all controller routes with the given mux.
func (r *ControllerRegistry) RegisterAllRoutes(mux *http.ServeMux) {
	r.general.RegisterRoutes(mux)
	r.subscriptions.RegisterRoutes(mux)
	r.messages.RegisterRoutes(mux)
}
