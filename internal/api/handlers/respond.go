package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/cockpit/internal/engine"
)

// respondJSON writes a JSON response with the given status
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusForEngineError maps the engine's error taxonomy to HTTP statuses:
// infeasible constraints and degenerate inputs are the client's problem,
// everything else is ours.
func statusForEngineError(err error) int {
	switch {
	case errors.Is(err, engine.ErrInfeasibleConstraint):
		return http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrEstimation),
		errors.Is(err, engine.ErrInsufficientHistory):
		return http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrNumerical):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
