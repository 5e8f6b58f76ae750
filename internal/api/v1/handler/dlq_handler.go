package handler

import (
	"encoding/json"
	"net/http"

	"app/internal/api/v1/dto"
	"app/internal/service"

	"github.com/rs/zerolog"
)

// DLQHandler receives dead-lettered Pub/Sub messages via push delivery
// and persists them for inspection and redrive.
type DLQHandler struct {
	dlqService service.DLQService
	logger     zerolog.Logger
}

// NewDLQHandler creates a new DLQHandler
func NewDLQHandler(dlqService service.DLQService, logger zerolog.Logger) *DLQHandler {
	return &DLQHandler{
		dlqService: dlqService,
		logger:     logger.With().Str("handler", "DLQHandler").Logger(),
	}
}

// RegisterRoutes mounts the DLQ push endpoint behind the Pub/Sub push
// auth middleware.
func (h *DLQHandler) RegisterRoutes(mux *http.ServeMux, pushAuthMw func(http.Handler) http.Handler) {
	mux.Handle("/pubsub/dlq", pushAuthMw(http.HandlerFunc(h.receive)))
}

func (h *DLQHandler) receive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req dto.PubSubPushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.dlqService.ProcessAndSave(r.Context(), &req); err != nil {
		h.logger.Error().Err(err).Str("message_id", req.Message.MessageID).
			Msg("Failed to persist dead-lettered message")
		// Non-2xx makes Pub/Sub redeliver; persistence failures should
		// retry rather than drop the message.
		http.Error(w, "Failed to persist message", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
