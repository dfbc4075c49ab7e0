package get_worklist

import (
	"net/http"
	"time"

	"github.com/glossworks/GW-SlotService/internal/api/handlers"
)

type Handler struct {
	service WorklistService
	logger  Logger
}

func NewHandler(service WorklistService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/admin/worklist
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	worklist := h.service.Build(r.Context(), time.Now())

	if len(worklist.DegradedViews) > 0 {
		h.logger.Warn("GET /admin/worklist - Degraded views: %v", worklist.DegradedViews)
	}

	handlers.RespondJSON(w, http.StatusOK, FromDomainWorklist(worklist))
}
