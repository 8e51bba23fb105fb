package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dmehra2102/planner/internal/domain"
	"github.com/dmehra2102/planner/internal/middleware"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (h *Handler) respondJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("failed to encode response", zap.Error(err))
	}
}

// respondError writes err with the status of its kind. Internal failures
// are logged and their detail hidden from the client.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.Error(err),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.RequestID(r.Context())),
		)
		message = "internal server error"
	}
	h.respondJSON(w, code, errorResponse{Error: message, RequestID: middleware.RequestID(r.Context())})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.InvalidArgument(fmt.Errorf("malformed request body: %w", err))
	}
	return nil
}
