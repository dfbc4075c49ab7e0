package decline_reschedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/glossworks/GW-SlotService/internal/domain"
	rescheduleRepo "github.com/glossworks/GW-SlotService/internal/infra/storage/reschedule"
	"github.com/glossworks/GW-SlotService/internal/integrations/notifier"
	"github.com/glossworks/GW-SlotService/pkg/ptr"
)

// errExpiredByClock внутренний маркер: заявка pending, но её hold истёк
// по часам; снаружи транзакции она нормализуется в expired
var errExpiredByClock = errors.New("decline_reschedule: request expired by clock")

// UseCase use case отклонения переноса
// Бронирование остаётся на исходном слоте, hold на запрошенном слоте
// снимается, счётчик переносов не инкрементируется
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

// Execute выполняет use case отклонения переноса
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("DeclineReschedule: request=%d by admin=%d", req.RequestID, req.AdminID)

	if req.RequestID <= 0 || req.AdminID <= 0 {
		return nil, fmt.Errorf("%w: requestID and adminID must be positive", ErrInvalidInput)
	}

	now := uc.timeProvider.Now()

	var (
		result  *domain.Booking
		request *domain.RescheduleRequest
	)

	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		r, err := uc.rescheduleRepo.GetByID(txCtx, req.RequestID)
		if err != nil {
			if errors.Is(err, rescheduleRepo.ErrRequestNotFound) {
				return ErrRequestNotFound
			}
			return fmt.Errorf("%w: failed to get request: %v", ErrInternal, err)
		}
		request = r

		if !r.IsPending() {
			uc.logger.Warn("DeclineReschedule: request id=%d is not pending, status=%s", r.ID, r.Status)
			return ErrRequestNotPending
		}

		if r.IsExpiredByClock(now) {
			return errExpiredByClock
		}

		booking, err := uc.bookingRepo.GetByID(txCtx, r.BookingID)
		if err != nil {
			return fmt.Errorf("%w: failed to get booking: %v", ErrInternal, err)
		}

		// 1. Снимаем hold с запрошенного слота
		if err := uc.engine.ReleaseHold(txCtx, r.RequestedSlotID, r.CustomerID, domain.ReasonRescheduleDeclined); err != nil {
			return fmt.Errorf("%w: release hold: %v", ErrInternal, err)
		}

		// 2. Заявка -> declined
		if err := uc.rescheduleRepo.Resolve(txCtx, r.ID, domain.RescheduleDeclined, req.AdminNotes); err != nil {
			return fmt.Errorf("%w: failed to resolve request: %v", ErrInternal, err)
		}

		// 3. Бронирование -> reschedule_declined; клиент видит вердикт
		// и может запросить другой слот. После повторного отклонения
		// статус уже выставлен
		if booking.Status == domain.StatusConfirmed {
			if err := uc.bookingRepo.UpdateStatus(txCtx, booking.ID, domain.StatusConfirmed, domain.StatusRescheduleDeclined); err != nil {
				return fmt.Errorf("%w: failed to update booking status: %v", ErrInternal, err)
			}
		}

		if err := uc.bookingRepo.AppendHistory(txCtx, &domain.StatusHistoryEntry{
			BookingID: booking.ID,
			Status:    domain.StatusRescheduleDeclined,
			ActorID:   req.AdminID,
			ActorRole: domain.RoleAdmin,
			Note:      ptr.Ptr(domain.ReasonRescheduleDeclined),
		}); err != nil {
			return fmt.Errorf("%w: failed to append history: %v", ErrInternal, err)
		}

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

	uc.logger.Info("DeclineReschedule: request id=%d declined, booking id=%d stays on slot id=%d",
		req.RequestID, result.ID, result.CurrentSlotID)

	uc.dispatchNotification(ctx, result, request)

	return &Response{
		BookingID:       result.ID,
		BookingRef:      result.Reference,
		Status:          string(result.Status),
		CurrentSlotID:   result.CurrentSlotID,
		RescheduleCount: result.RescheduleCount,
		UpdatedAt:       result.UpdatedAt,
	}, nil
}

// expireRequest нормализует истёкшую по часам заявку
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
		uc.logger.Error("DeclineReschedule: failed to expire stale request id=%d: %v", request.ID, err)
		return
	}

	uc.logger.Info("DeclineReschedule: stale request id=%d expired on read", request.ID)
}

func (uc *UseCase) dispatchNotification(ctx context.Context, booking *domain.Booking, request *domain.RescheduleRequest) {
	event := notifier.Event{
		EventID:     uuid.NewString(),
		Type:        notifier.EventRescheduleDeclined,
		BookingID:   booking.ID,
		BookingRef:  booking.Reference,
		RecipientID: booking.UserID,
		OldSlotID:   &request.OriginalSlotID,
		NewSlotID:   &request.RequestedSlotID,
		OccurredAt:  uc.timeProvider.Now(),
	}

	if err := uc.notifier.Send(ctx, event); err != nil {
		uc.logger.Error("DeclineReschedule: notification dispatch failed for booking id=%d: %v", booking.ID, err)
	}
}
