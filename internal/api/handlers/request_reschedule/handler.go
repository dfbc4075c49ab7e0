package request_reschedule

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/glossworks/GW-SlotService/internal/api/handlers"
	"github.com/glossworks/GW-SlotService/internal/api/middleware"
	requestReschedule "github.com/glossworks/GW-SlotService/internal/usecase/request_reschedule"
)

const (
	msgInvalidBookingID   = "некорректный ID бронирования"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgBookingNotFound    = "бронирование не найдено"
	msgSlotNotFound       = "слот не найден"
	msgSlotUnavailable    = "выбранное время больше недоступно"
	msgForbidden          = "доступ запрещен"
	msgNotReschedulable   = "бронирование нельзя перенести в текущем статусе"
	msgLimitExceeded      = "исчерпан лимит переносов бронирования"
	msgAlreadyPending     = "по бронированию уже есть заявка на перенос"
	msgSameSlot           = "бронирование уже занимает этот слот"
)

type Handler struct {
	useCase RequestRescheduleUseCase
	logger  Logger
}

func NewHandler(useCase RequestRescheduleUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings/{bookingId}/reschedule
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	bookingID, err := strconv.ParseInt(vars["bookingId"], 10, 64)
	if err != nil {
		h.logger.Warn("POST /bookings/{id}/reschedule - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	var req RescheduleRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings/{id}/reschedule - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	customerID := middleware.UserIDFromContext(r.Context())

	resp, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest(bookingID, customerID))
	if err != nil {
		switch {
		case errors.Is(err, requestReschedule.ErrInvalidInput):
			h.logger.Warn("POST /bookings/{id}/reschedule - Invalid input: booking_id=%d, error=%v", bookingID, err)
			handlers.RespondBadRequest(w, msgInvalidRequestBody)

		case errors.Is(err, requestReschedule.ErrBookingNotFound):
			h.logger.Warn("POST /bookings/{id}/reschedule - Booking not found: booking_id=%d", bookingID)
			handlers.RespondNotFound(w, msgBookingNotFound)

		case errors.Is(err, requestReschedule.ErrSlotNotFound):
			h.logger.Warn("POST /bookings/{id}/reschedule - Slot not found: slot_id=%d", req.RequestedSlotID)
			handlers.RespondNotFound(w, msgSlotNotFound)

		case errors.Is(err, requestReschedule.ErrAccessDenied):
			h.logger.Warn("POST /bookings/{id}/reschedule - Access denied: booking_id=%d, user_id=%d",
				bookingID, customerID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, requestReschedule.ErrSlotUnavailable):
			h.logger.Warn("POST /bookings/{id}/reschedule - Slot unavailable: slot_id=%d", req.RequestedSlotID)
			handlers.RespondConflict(w, msgSlotUnavailable)

		case errors.Is(err, requestReschedule.ErrBookingNotReschedulable):
			h.logger.Warn("POST /bookings/{id}/reschedule - Not reschedulable: booking_id=%d", bookingID)
			handlers.RespondError(w, http.StatusUnprocessableEntity, msgNotReschedulable)

		case errors.Is(err, requestReschedule.ErrRescheduleLimitExceeded):
			h.logger.Warn("POST /bookings/{id}/reschedule - Limit exceeded: booking_id=%d", bookingID)
			handlers.RespondError(w, http.StatusUnprocessableEntity, msgLimitExceeded)

		case errors.Is(err, requestReschedule.ErrAlreadyPending):
			h.logger.Warn("POST /bookings/{id}/reschedule - Already pending: booking_id=%d", bookingID)
			handlers.RespondError(w, http.StatusUnprocessableEntity, msgAlreadyPending)

		case errors.Is(err, requestReschedule.ErrSameSlot):
			h.logger.Warn("POST /bookings/{id}/reschedule - Same slot: booking_id=%d, slot_id=%d",
				bookingID, req.RequestedSlotID)
			handlers.RespondBadRequest(w, msgSameSlot)

		default:
			h.logger.Error("POST /bookings/{id}/reschedule - Failed to request reschedule: booking_id=%d, error=%v",
				bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings/{id}/reschedule - Reschedule requested: request_id=%d, booking_id=%d, slot_id=%d",
		resp.ID, bookingID, resp.RequestedSlotID)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(resp))
}
