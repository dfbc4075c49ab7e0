package approve_reschedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/glossworks/GW-SlotService/internal/domain"
	rescheduleRepo "github.com/glossworks/GW-SlotService/internal/infra/storage/reschedule"
	"github.com/glossworks/GW-SlotService/internal/integrations/notifier"
	"github.com/glossworks/GW-SlotService/internal/service/reservation"
	"github.com/glossworks/GW-SlotService/pkg/ptr"
)

// errExpiredByClock внутренний маркер: заявка pending, но её hold истёк
// по часам; снаружи транзакции она нормализуется в expired
var errExpiredByClock = errors.New("approve_reschedule: request expired by clock")

// UseCase use case одобрения переноса
// Двухслотовый swap, rebind бронирования и перевод заявки в approved
// идут одной сериализуемой транзакцией: либо всё, либо ничего
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

// Execute выполняет use case одобрения переноса
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("ApproveReschedule: request=%d by admin=%d", req.RequestID, req.AdminID)

	if req.RequestID <= 0 || req.AdminID <= 0 {
		return nil, fmt.Errorf("%w: requestID and adminID must be positive", ErrInvalidInput)
	}

	now := uc.timeProvider.Now()

	var (
		result  *domain.Booking
		request *domain.RescheduleRequest
	)

	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 1. Получаем заявку (с блокировкой строки)
		r, err := uc.rescheduleRepo.GetByID(txCtx, req.RequestID)
		if err != nil {
			if errors.Is(err, rescheduleRepo.ErrRequestNotFound) {
				return ErrRequestNotFound
			}
			return fmt.Errorf("%w: failed to get request: %v", ErrInternal, err)
		}
		request = r

		if !r.IsPending() {
			uc.logger.Warn("ApproveReschedule: request id=%d is not pending, status=%s", r.ID, r.Status)
			return ErrRequestNotPending
		}

		// Заявка истекла по часам, но sweep её ещё не пометил:
		// нормализуем отдельной транзакцией снаружи и отказываем админу
		if r.IsExpiredByClock(now) {
			return errExpiredByClock
		}

		// 2. Двухслотовый коммит: requested -> booked, original -> available
		booking, err := uc.bookingRepo.GetByID(txCtx, r.BookingID)
		if err != nil {
			return fmt.Errorf("%w: failed to get booking: %v", ErrInternal, err)
		}

		if err := uc.engine.CommitReschedule(txCtx, r.RequestedSlotID, r.OriginalSlotID, r.CustomerID, booking.Reference); err != nil {
			if errors.Is(err, reservation.ErrCommitFailed) {
				uc.logger.Warn("ApproveReschedule: commit failed for request id=%d", r.ID)
				return ErrCommitFailed
			}
			return fmt.Errorf("%w: commit reschedule: %v", ErrInternal, err)
		}

		// 3. Перепривязываем бронирование и инкрементируем счётчик переносов
		if err := uc.bookingRepo.Rebind(txCtx, booking.ID, r.RequestedSlotID); err != nil {
			return fmt.Errorf("%w: failed to rebind booking: %v", ErrInternal, err)
		}

		// 4. После отклонённого ранее переноса бронирование возвращается
		// в confirmed
		if booking.Status == domain.StatusRescheduleDeclined {
			if err := uc.bookingRepo.UpdateStatus(txCtx, booking.ID, domain.StatusRescheduleDeclined, domain.StatusConfirmed); err != nil {
				return fmt.Errorf("%w: failed to update booking status: %v", ErrInternal, err)
			}
		}

		// 5. Заявка -> approved
		if err := uc.rescheduleRepo.Resolve(txCtx, r.ID, domain.RescheduleApproved, req.AdminNotes); err != nil {
			return fmt.Errorf("%w: failed to resolve request: %v", ErrInternal, err)
		}

		// 6. Журнал статусов
		if err := uc.bookingRepo.AppendHistory(txCtx, &domain.StatusHistoryEntry{
			BookingID: booking.ID,
			Status:    domain.StatusConfirmed,
			ActorID:   req.AdminID,
			ActorRole: domain.RoleAdmin,
			Note:      ptr.Ptr(domain.ReasonRescheduleCommit),
		}); err != nil {
			return fmt.Errorf("%w: failed to append history: %v", ErrInternal, err)
		}

		// Перечитываем бронирование после rebind
		updated, err := uc.bookingRepo.GetByID(txCtx, booking.ID)
		if err != nil {
			return fmt.Errorf("%w: failed to reload booking: %v", ErrInternal, err)
		}

		result = updated
		return nil
	})

	if err != nil {
		if errors.Is(err, errExpiredByClock) {
			uc.expireRequest(ctx, request)
			return nil, ErrRequestNotPending
		}
		return nil, err
	}

	uc.logger.Info("ApproveReschedule: request id=%d approved, booking id=%d moved to slot id=%d",
		req.RequestID, result.ID, result.CurrentSlotID)

	uc.dispatchNotification(ctx, result, request)

	return &Response{
		BookingID:       result.ID,
		BookingRef:      result.Reference,
		Status:          string(result.Status),
		CurrentSlotID:   result.CurrentSlotID,
		OriginalSlotID:  request.OriginalSlotID,
		RescheduleCount: result.RescheduleCount,
		UpdatedAt:       result.UpdatedAt,
	}, nil
}

// expireRequest нормализует истёкшую по часам заявку: снимает hold и
// помечает её expired. Гонка со sweep'ом безопасна - обе операции
// идемпотентны относительно целевого состояния
func (uc *UseCase) expireRequest(ctx context.Context, request *domain.RescheduleRequest) {
	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		if err := uc.rescheduleRepo.Resolve(txCtx, request.ID, domain.RescheduleExpired, nil); err != nil {
			if errors.Is(err, rescheduleRepo.ErrStatusConflict) {
				return nil
			}
			return err
		}

		return uc.engine.ReleaseHold(txCtx, request.RequestedSlotID, request.CustomerID, domain.ReasonHoldExpired)
	})

	if err != nil {
		uc.logger.Error("ApproveReschedule: failed to expire stale request id=%d: %v", request.ID, err)
		return
	}

	uc.logger.Info("ApproveReschedule: stale request id=%d expired on read", request.ID)
}

func (uc *UseCase) dispatchNotification(ctx context.Context, booking *domain.Booking, request *domain.RescheduleRequest) {
	event := notifier.Event{
		EventID:     uuid.NewString(),
		Type:        notifier.EventRescheduleApproved,
		BookingID:   booking.ID,
		BookingRef:  booking.Reference,
		RecipientID: booking.UserID,
		OldSlotID:   &request.OriginalSlotID,
		NewSlotID:   &request.RequestedSlotID,
		OccurredAt:  uc.timeProvider.Now(),
	}

	if err := uc.notifier.Send(ctx, event); err != nil {
		uc.logger.Error("ApproveReschedule: notification dispatch failed for booking id=%d: %v", booking.ID, err)
	}
}
