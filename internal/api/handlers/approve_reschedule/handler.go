package approve_reschedule

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/glossworks/GW-SlotService/internal/api/handlers"
	"github.com/glossworks/GW-SlotService/internal/api/middleware"
	approveReschedule "github.com/glossworks/GW-SlotService/internal/usecase/approve_reschedule"
)

const (
	msgInvalidRequestID   = "некорректный ID заявки"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgNotFound           = "заявка на перенос не найдена"
	msgNotPending         = "заявка уже разрешена или истекла"
	msgCommitFailed       = "слот больше недоступен, перенос не выполнен"
)

type Handler struct {
	useCase ApproveRescheduleUseCase
	logger  Logger
}

func NewHandler(useCase ApproveRescheduleUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/reschedules/{requestId}/approve
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	requestID, err := strconv.ParseInt(vars["requestId"], 10, 64)
	if err != nil {
		h.logger.Warn("PATCH /reschedules/{id}/approve - Invalid request ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestID)
		return
	}

	// Тело опционально - одобрение без комментария допустимо
	var req ApproveRequest
	if err := handlers.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("PATCH /reschedules/{id}/approve - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	adminID := middleware.UserIDFromContext(r.Context())

	resp, err := h.useCase.Execute(r.Context(), &approveReschedule.Request{
		RequestID:  requestID,
		AdminID:    adminID,
		AdminNotes: req.AdminNotes,
	})
	if err != nil {
		switch {
		case errors.Is(err, approveReschedule.ErrRequestNotFound):
			h.logger.Warn("PATCH /reschedules/{id}/approve - Request not found: request_id=%d", requestID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, approveReschedule.ErrRequestNotPending):
			h.logger.Warn("PATCH /reschedules/{id}/approve - Not pending: request_id=%d", requestID)
			handlers.RespondConflict(w, msgNotPending)

		case errors.Is(err, approveReschedule.ErrCommitFailed):
			h.logger.Warn("PATCH /reschedules/{id}/approve - Commit failed: request_id=%d", requestID)
			handlers.RespondConflict(w, msgCommitFailed)

		case errors.Is(err, approveReschedule.ErrInvalidInput):
			h.logger.Warn("PATCH /reschedules/{id}/approve - Invalid input: request_id=%d, error=%v", requestID, err)
			handlers.RespondBadRequest(w, msgInvalidRequestID)

		default:
			h.logger.Error("PATCH /reschedules/{id}/approve - Failed to approve: request_id=%d, error=%v",
				requestID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /reschedules/{id}/approve - Reschedule approved: request_id=%d, booking_id=%d, admin_id=%d",
		requestID, resp.BookingID, adminID)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(resp))
}
