package cancel_booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/glossworks/GW-SlotService/internal/domain"
	bookingRepo "github.com/glossworks/GW-SlotService/internal/infra/storage/booking"
	rescheduleRepo "github.com/glossworks/GW-SlotService/internal/infra/storage/reschedule"
	"github.com/glossworks/GW-SlotService/internal/integrations/notifier"
	"github.com/glossworks/GW-SlotService/pkg/ptr"
)

// cancelledRequestNote заметка, которую получает pending-заявка на перенос
// при отмене бронирования
const cancelledRequestNote = "booking cancelled"

// UseCase use case отмены бронирования
// Освобождение слота, отмена бронирования и decline висящей заявки
// на перенос (вместе с её hold'ом) идут одной транзакцией
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

// Execute выполняет use case отмены бронирования
func (uc *UseCase) Execute(ctx context.Context, req *Request) error {
	uc.logger.Info("CancelBooking: booking=%d by actor=%d role=%s", req.BookingID, req.ActorID, req.ActorRole)

	if req.BookingID <= 0 || req.ActorID <= 0 {
		return fmt.Errorf("%w: bookingID and actorID must be positive", ErrInvalidInput)
	}
	if len(req.Reason) > domain.MaxCancellationReasonLength {
		return fmt.Errorf("%w: reason must not exceed %d characters", ErrInvalidInput, domain.MaxCancellationReasonLength)
	}

	var cancelled *domain.Booking

	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 1. Получаем бронирование (строка блокируется до конца транзакции)
		booking, err := uc.bookingRepo.GetByID(txCtx, req.BookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				uc.logger.Warn("CancelBooking: booking id=%d not found", req.BookingID)
				return ErrBookingNotFound
			}
			return fmt.Errorf("%w: failed to get booking: %v", ErrInternal, err)
		}

		// 2. Проверяем права: владелец или администратор
		if booking.UserID != req.ActorID && req.ActorRole != domain.RoleAdmin {
			uc.logger.Warn("CancelBooking: access denied for actor=%d to booking id=%d", req.ActorID, req.BookingID)
			return ErrAccessDenied
		}

		// 3. Терминальные статусы отмене не подлежат
		if !booking.CanBeCancelled() {
			uc.logger.Warn("CancelBooking: booking id=%d cannot be cancelled, status=%s", req.BookingID, booking.Status)
			return ErrCannotCancel
		}

		// 4. Снимаем висящую заявку на перенос вместе с её hold'ом
		if err := uc.declinePendingReschedule(txCtx, booking.ID); err != nil {
			return err
		}

		// 5. Освобождаем текущий слот: booked -> available, reason=cancellation
		if err := uc.engine.ReleaseForCancellation(txCtx, booking.CurrentSlotID); err != nil {
			uc.logger.Error("CancelBooking: failed to release slot id=%d: %v", booking.CurrentSlotID, err)
			return fmt.Errorf("%w: failed to release slot: %v", ErrInternal, err)
		}

		// 6. Отменяем бронирование guarded-переходом
		if err := uc.bookingRepo.Cancel(txCtx, booking.ID, booking.Status, req.Reason); err != nil {
			uc.logger.Error("CancelBooking: failed to cancel booking id=%d: %v", booking.ID, err)
			return fmt.Errorf("%w: failed to cancel booking: %v", ErrInternal, err)
		}

		// 7. Журнал статусов
		if err := uc.bookingRepo.AppendHistory(txCtx, &domain.StatusHistoryEntry{
			BookingID: booking.ID,
			Status:    domain.StatusCancelled,
			ActorID:   req.ActorID,
			ActorRole: req.ActorRole,
			Note:      ptr.Ptr(req.Reason),
		}); err != nil {
			return fmt.Errorf("%w: failed to append history: %v", ErrInternal, err)
		}

		cancelled = booking
		return nil
	})

	if err != nil {
		return err
	}

	uc.logger.Info("CancelBooking: successfully cancelled booking id=%d", req.BookingID)

	uc.dispatchNotification(ctx, cancelled)
	return nil
}

// declinePendingReschedule снимает pending-заявку бронирования, если она есть
// Hold на целевой слот освобождается идемпотентно: expiry-sweep мог успеть
// раньше, и это эквивалентно успешному release
func (uc *UseCase) declinePendingReschedule(ctx context.Context, bookingID int64) error {
	pending, err := uc.rescheduleRepo.GetPendingByBookingID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, rescheduleRepo.ErrRequestNotFound) {
			return nil
		}
		return fmt.Errorf("%w: failed to get pending reschedule: %v", ErrInternal, err)
	}

	if err := uc.engine.ReleaseHold(ctx, pending.RequestedSlotID, pending.CustomerID, domain.ReasonRescheduleDeclined); err != nil {
		uc.logger.Error("CancelBooking: failed to release hold on slot id=%d: %v", pending.RequestedSlotID, err)
		return fmt.Errorf("%w: failed to release reschedule hold: %v", ErrInternal, err)
	}

	if err := uc.rescheduleRepo.Resolve(ctx, pending.ID, domain.RescheduleDeclined, ptr.Ptr(cancelledRequestNote)); err != nil {
		// Гонка с expiry-sweep'ом: заявка уже expired, hold уже снят -
		// целевое состояние достигнуто
		if errors.Is(err, rescheduleRepo.ErrStatusConflict) {
			uc.logger.Info("CancelBooking: pending request id=%d already resolved elsewhere", pending.ID)
			return nil
		}
		return fmt.Errorf("%w: failed to decline pending reschedule: %v", ErrInternal, err)
	}

	uc.logger.Info("CancelBooking: pending reschedule id=%d declined", pending.ID)
	return nil
}

func (uc *UseCase) dispatchNotification(ctx context.Context, booking *domain.Booking) {
	event := notifier.Event{
		EventID:     uuid.NewString(),
		Type:        notifier.EventBookingCancelled,
		BookingID:   booking.ID,
		BookingRef:  booking.Reference,
		RecipientID: booking.UserID,
		OldSlotID:   &booking.CurrentSlotID,
		OccurredAt:  uc.timeProvider.Now(),
	}

	if err := uc.notifier.Send(ctx, event); err != nil {
		uc.logger.Error("CancelBooking: notification dispatch failed for booking id=%d: %v", booking.ID, err)
	}
}
