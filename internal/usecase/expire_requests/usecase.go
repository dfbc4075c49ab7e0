package expire_requests

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/glossworks/GW-SlotService/internal/domain"
	rescheduleRepo "github.com/glossworks/GW-SlotService/internal/infra/storage/reschedule"
	"github.com/glossworks/GW-SlotService/internal/integrations/notifier"
)

// UseCase use case sweep'а истёкших заявок на перенос
// Каждая заявка обрабатывается отдельной транзакцией: сбой на одной
// не мешает остальным, а повторный проход идемпотентен
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

// Execute выполняет один проход sweep'а
func (uc *UseCase) Execute(ctx context.Context) (*Response, error) {
	now := uc.timeProvider.Now()

	requests, err := uc.rescheduleRepo.ListExpiredPending(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list expired requests: %v", ErrInternal, err)
	}

	if len(requests) == 0 {
		return &Response{}, nil
	}

	uc.logger.Info("ExpireRequests: found %d expired pending requests", len(requests))

	resp := &Response{}
	for _, request := range requests {
		expired, err := uc.expireOne(ctx, request)
		if err != nil {
			uc.logger.Error("ExpireRequests: failed to expire request id=%d: %v", request.ID, err)
			resp.Skipped++
			continue
		}
		if !expired {
			// Разрешена админом между выборкой и транзакцией
			resp.Skipped++
			continue
		}

		resp.ExpiredIDs = append(resp.ExpiredIDs, request.ID)
		uc.dispatchNotification(ctx, request)
	}

	uc.logger.Info("ExpireRequests: pass complete, expired=%d skipped=%d", len(resp.ExpiredIDs), resp.Skipped)
	return resp, nil
}

// expireOne помечает заявку expired и снимает hold одной транзакцией
// Возвращает false, если заявку успели разрешить параллельно
func (uc *UseCase) expireOne(ctx context.Context, request *domain.RescheduleRequest) (bool, error) {
	expired := false

	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// Сначала guarded-перевод заявки: проигрыш гонки с админом
		// означает, что заявка уже разрешена и hold снимать не нам
		if err := uc.rescheduleRepo.Resolve(txCtx, request.ID, domain.RescheduleExpired, nil); err != nil {
			if errors.Is(err, rescheduleRepo.ErrStatusConflict) {
				return nil
			}
			return fmt.Errorf("resolve request id=%d: %w", request.ID, err)
		}

		if err := uc.engine.ReleaseHold(txCtx, request.RequestedSlotID, request.CustomerID, domain.ReasonHoldExpired); err != nil {
			return fmt.Errorf("release hold for slot id=%d: %w", request.RequestedSlotID, err)
		}

		expired = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return expired, nil
}

func (uc *UseCase) dispatchNotification(ctx context.Context, request *domain.RescheduleRequest) {
	booking, err := uc.bookingRepo.GetByID(ctx, request.BookingID)
	if err != nil {
		uc.logger.Error("ExpireRequests: failed to get booking id=%d for notification: %v", request.BookingID, err)
		return
	}

	event := notifier.Event{
		EventID:     uuid.NewString(),
		Type:        notifier.EventRescheduleExpired,
		BookingID:   booking.ID,
		BookingRef:  booking.Reference,
		RecipientID: booking.UserID,
		OldSlotID:   &request.OriginalSlotID,
		NewSlotID:   &request.RequestedSlotID,
		OccurredAt:  uc.timeProvider.Now(),
	}

	if err := uc.notifier.Send(ctx, event); err != nil {
		uc.logger.Error("ExpireRequests: notification dispatch failed for booking id=%d: %v", booking.ID, err)
	}
}
