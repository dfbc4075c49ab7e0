package decline_reschedule

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/glossworks/GW-SlotService/internal/api/handlers"
	"github.com/glossworks/GW-SlotService/internal/api/middleware"
	declineReschedule "github.com/glossworks/GW-SlotService/internal/usecase/decline_reschedule"
)

const (
	msgInvalidRequestID   = "некорректный ID заявки"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgNotFound           = "заявка на перенос не найдена"
	msgNotPending         = "заявка уже разрешена или истекла"
)

type Handler struct {
	useCase DeclineRescheduleUseCase
	logger  Logger
}

func NewHandler(useCase DeclineRescheduleUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// DeclineRequest HTTP request model
type DeclineRequest struct {
	AdminNotes *string `json:"adminNotes,omitempty"`
}

// DeclinedRescheduleResponse HTTP response model
type DeclinedRescheduleResponse struct {
	BookingID       int64     `json:"bookingId"`
	Reference       string    `json:"reference"`
	Status          string    `json:"status"`
	CurrentSlotID   int64     `json:"currentSlotId"`
	RescheduleCount int       `json:"rescheduleCount"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Handle PATCH /api/v1/reschedules/{requestId}/decline
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	requestID, err := strconv.ParseInt(vars["requestId"], 10, 64)
	if err != nil {
		h.logger.Warn("PATCH /reschedules/{id}/decline - Invalid request ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestID)
		return
	}

	// Тело опционально
	var req DeclineRequest
	if err := handlers.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("PATCH /reschedules/{id}/decline - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	adminID := middleware.UserIDFromContext(r.Context())

	resp, err := h.useCase.Execute(r.Context(), &declineReschedule.Request{
		RequestID:  requestID,
		AdminID:    adminID,
		AdminNotes: req.AdminNotes,
	})
	if err != nil {
		switch {
		case errors.Is(err, declineReschedule.ErrRequestNotFound):
			h.logger.Warn("PATCH /reschedules/{id}/decline - Request not found: request_id=%d", requestID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, declineReschedule.ErrRequestNotPending):
			h.logger.Warn("PATCH /reschedules/{id}/decline - Not pending: request_id=%d", requestID)
			handlers.RespondConflict(w, msgNotPending)

		case errors.Is(err, declineReschedule.ErrInvalidInput):
			h.logger.Warn("PATCH /reschedules/{id}/decline - Invalid input: request_id=%d, error=%v", requestID, err)
			handlers.RespondBadRequest(w, msgInvalidRequestID)

		default:
			h.logger.Error("PATCH /reschedules/{id}/decline - Failed to decline: request_id=%d, error=%v",
				requestID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /reschedules/{id}/decline - Reschedule declined: request_id=%d, booking_id=%d, admin_id=%d",
		requestID, resp.BookingID, adminID)
	handlers.RespondJSON(w, http.StatusOK, &DeclinedRescheduleResponse{
		BookingID:       resp.BookingID,
		Reference:       resp.BookingRef,
		Status:          resp.Status,
		CurrentSlotID:   resp.CurrentSlotID,
		RescheduleCount: resp.RescheduleCount,
		UpdatedAt:       resp.UpdatedAt,
	})
}
