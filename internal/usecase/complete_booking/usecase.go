package complete_booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/glossworks/GW-SlotService/internal/domain"
	bookingRepo "github.com/glossworks/GW-SlotService/internal/infra/storage/booking"
	"github.com/glossworks/GW-SlotService/internal/integrations/notifier"
)

// UseCase use case завершения бронирования администратором
// Слот остаётся booked в прошлом как аудиторский след, мутируется
// только бронирование
type UseCase struct {
	bookingRepo  BookingRepository
	notifier     NotifierClient
	txManager    TransactionManager
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookings BookingRepository,
	notifierClient NotifierClient,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookings,
		notifier:     notifierClient,
		txManager:    txManager,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute выполняет use case завершения бронирования
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CompleteBooking: booking=%d by admin=%d", req.BookingID, req.AdminID)

	if req.BookingID <= 0 || req.AdminID <= 0 {
		return nil, fmt.Errorf("%w: bookingID and adminID must be positive", ErrInvalidInput)
	}

	var result *domain.Booking

	err := uc.txManager.Do(ctx, func(txCtx context.Context) error {
		booking, err := uc.bookingRepo.GetByID(txCtx, req.BookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("%w: failed to get booking: %v", ErrInternal, err)
		}

		if booking.Status != domain.StatusConfirmed {
			uc.logger.Warn("CompleteBooking: booking id=%d is not confirmed, status=%s", booking.ID, booking.Status)
			return ErrNotConfirmed
		}

		if err := uc.bookingRepo.UpdateStatus(txCtx, booking.ID, domain.StatusConfirmed, domain.StatusCompleted); err != nil {
			if errors.Is(err, bookingRepo.ErrStatusConflict) {
				return ErrNotConfirmed
			}
			return fmt.Errorf("%w: failed to update booking status: %v", ErrInternal, err)
		}

		if err := uc.bookingRepo.AppendHistory(txCtx, &domain.StatusHistoryEntry{
			BookingID: booking.ID,
			Status:    domain.StatusCompleted,
			ActorID:   req.AdminID,
			ActorRole: domain.RoleAdmin,
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
		return nil, err
	}

	uc.logger.Info("CompleteBooking: booking id=%d completed", result.ID)

	uc.dispatchNotification(ctx, result)

	return &Response{
		BookingID:  result.ID,
		BookingRef: result.Reference,
		Status:     string(result.Status),
		UpdatedAt:  result.UpdatedAt,
	}, nil
}

func (uc *UseCase) dispatchNotification(ctx context.Context, booking *domain.Booking) {
	event := notifier.Event{
		EventID:     uuid.NewString(),
		Type:        notifier.EventBookingCompleted,
		BookingID:   booking.ID,
		BookingRef:  booking.Reference,
		RecipientID: booking.UserID,
		OccurredAt:  uc.timeProvider.Now(),
	}

	if err := uc.notifier.Send(ctx, event); err != nil {
		uc.logger.Error("CompleteBooking: notification dispatch failed for booking id=%d: %v", booking.ID, err)
	}
}
