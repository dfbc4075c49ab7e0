package request_reschedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/glossworks/GW-SlotService/internal/domain"
	bookingRepo "github.com/glossworks/GW-SlotService/internal/infra/storage/booking"
	rescheduleRepo "github.com/glossworks/GW-SlotService/internal/infra/storage/reschedule"
	"github.com/glossworks/GW-SlotService/internal/integrations/notifier"
	"github.com/glossworks/GW-SlotService/internal/service/reservation"
)

// UseCase use case создания заявки на перенос
// Предусловия (статус бронирования, лимит переносов, отсутствие другой
// pending-заявки) проверяются в той же сериализуемой транзакции, что и
// захват hold'а: из двух гонящихся заявок hold получит только одна
type UseCase struct {
	engine         ReservationEngine
	bookingRepo    BookingRepository
	rescheduleRepo RescheduleRepository
	notifier       NotifierClient
	txManager      TransactionManager
	timeProvider   TimeProvider
	logger         Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	engine ReservationEngine,
	bookings BookingRepository,
	reschedules RescheduleRepository,
	notifierClient NotifierClient,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		engine:         engine,
		bookingRepo:    bookings,
		rescheduleRepo: reschedules,
		notifier:       notifierClient,
		txManager:      txManager,
		timeProvider:   &RealTimeProvider{},
		logger:         logger,
	}
}

// Execute выполняет use case создания заявки на перенос
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("RequestReschedule: booking=%d, customer=%d, slot=%d",
		req.BookingID, req.CustomerID, req.RequestedSlotID)

	if err := validateRequest(req); err != nil {
		uc.logger.Warn("RequestReschedule: validation failed: %v", err)
		return nil, err
	}

	now := uc.timeProvider.Now()

	var result *domain.RescheduleRequest

	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 1. Получаем бронирование (с блокировкой строки)
		booking, err := uc.bookingRepo.GetByID(txCtx, req.BookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				uc.logger.Warn("RequestReschedule: booking id=%d not found", req.BookingID)
				return ErrBookingNotFound
			}
			return fmt.Errorf("%w: failed to get booking: %v", ErrInternal, err)
		}

		// 2. Предусловия
		if booking.UserID != req.CustomerID {
			uc.logger.Warn("RequestReschedule: access denied for customer=%d to booking id=%d",
				req.CustomerID, req.BookingID)
			return ErrAccessDenied
		}

		if !booking.CanBeRescheduled() {
			uc.logger.Warn("RequestReschedule: booking id=%d not reschedulable, status=%s",
				req.BookingID, booking.Status)
			return ErrBookingNotReschedulable
		}

		if booking.RescheduleLimitReached() {
			uc.logger.Warn("RequestReschedule: booking id=%d hit reschedule limit (%d)",
				req.BookingID, booking.RescheduleCount)
			return ErrRescheduleLimitExceeded
		}

		if booking.CurrentSlotID == req.RequestedSlotID {
			return ErrSameSlot
		}

		// 3. Одна pending-заявка на бронирование
		if _, err := uc.rescheduleRepo.GetPendingByBookingID(txCtx, req.BookingID); err == nil {
			uc.logger.Warn("RequestReschedule: booking id=%d already has a pending request", req.BookingID)
			return ErrAlreadyPending
		} else if !errors.Is(err, rescheduleRepo.ErrRequestNotFound) {
			return fmt.Errorf("%w: failed to check pending request: %v", ErrInternal, err)
		}

		// 4. Ставим hold на целевой слот: available -> reschedule_reserved
		slot, err := uc.engine.PlaceRescheduleHold(txCtx, req.RequestedSlotID, req.CustomerID, now)
		if err != nil {
			switch {
			case errors.Is(err, reservation.ErrSlotNotFound):
				return ErrSlotNotFound
			case errors.Is(err, reservation.ErrSlotUnavailable):
				uc.logger.Warn("RequestReschedule: slot id=%d not available", req.RequestedSlotID)
				return ErrSlotUnavailable
			default:
				return fmt.Errorf("%w: failed to place hold: %v", ErrInternal, err)
			}
		}

		// 5. Записываем заявку атомарно с hold'ом
		request := &domain.RescheduleRequest{
			BookingID:       req.BookingID,
			CustomerID:      req.CustomerID,
			OriginalSlotID:  booking.CurrentSlotID,
			RequestedSlotID: req.RequestedSlotID,
			Status:          domain.ReschedulePending,
			Reason:          req.Reason,
			ExpiresAt:       *slot.ReservedUntil,
		}

		created, err := uc.rescheduleRepo.Create(txCtx, request)
		if err != nil {
			if errors.Is(err, rescheduleRepo.ErrDuplicatePending) {
				return ErrAlreadyPending
			}
			return fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
		}

		result = created
		return nil
	})

	if err != nil {
		return nil, err
	}

	uc.logger.Info("RequestReschedule: request id=%d created for booking id=%d, expires at %s",
		result.ID, result.BookingID, result.ExpiresAt.Format("2006-01-02 15:04"))

	uc.dispatchNotification(ctx, result)

	return &Response{
		ID:              result.ID,
		BookingID:       result.BookingID,
		CustomerID:      result.CustomerID,
		OriginalSlotID:  result.OriginalSlotID,
		RequestedSlotID: result.RequestedSlotID,
		Status:          string(result.Status),
		Reason:          result.Reason,
		RequestedAt:     result.RequestedAt,
		ExpiresAt:       result.ExpiresAt,
	}, nil
}

func (uc *UseCase) dispatchNotification(ctx context.Context, request *domain.RescheduleRequest) {
	event := notifier.Event{
		EventID:     uuid.NewString(),
		Type:        notifier.EventRescheduleRequested,
		BookingID:   request.BookingID,
		RecipientID: request.CustomerID,
		OldSlotID:   &request.OriginalSlotID,
		NewSlotID:   &request.RequestedSlotID,
		OccurredAt:  uc.timeProvider.Now(),
	}

	if err := uc.notifier.Send(ctx, event); err != nil {
		uc.logger.Error("RequestReschedule: notification dispatch failed for request id=%d: %v", request.ID, err)
	}
}
