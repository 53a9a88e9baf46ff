package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rzbill/flosweep/internal/expiry"
	"github.com/rzbill/flosweep/internal/runtime"
)

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeJSON writes a 200 JSON response with the given data.
func writeJSON(w http.ResponseWriter, data any) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeNoContent writes a 204 No Content response.
func writeNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// parseLimit parses a limit string and returns a valid limit value.
//
// Returns 0 for empty strings or invalid values.
func parseLimit(limitStr string) int {
	if limitStr == "" {
		return 0
	}
	if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
		return limit
	}
	return 0
}

// lookupSubscription resolves a key string, writing 400/404 on failure.
func lookupSubscription(w http.ResponseWriter, rt *runtime.Runtime, raw string) (*runtime.Subscription, bool) {
	key, err := expiry.ParseKey(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	sub, ok := rt.Subscription(key)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown subscription "+key.String())
		return nil, false
	}
	return sub, true
}
