package create_booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/glossworks/GW-SlotService/internal/domain"
	"github.com/glossworks/GW-SlotService/internal/integrations/notifier"
	"github.com/glossworks/GW-SlotService/internal/service/reservation"
)

// UseCase use case для создания бронирования
// Захват слота и запись бронирования идут в одной сериализуемой
// транзакции; проигравший гонку за слот получает ErrSlotUnavailable
type UseCase struct {
	engine       ReservationEngine
	bookingRepo  BookingRepository
	notifier     NotifierClient
	txManager    TransactionManager
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	engine ReservationEngine,
	bookingRepo BookingRepository,
	notifierClient NotifierClient,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		engine:       engine,
		bookingRepo:  bookingRepo,
		notifier:     notifierClient,
		txManager:    txManager,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute выполняет use case создания бронирования
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: user=%d, slot=%d, service=%s", req.UserID, req.SlotID, req.ServiceName)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	now := uc.timeProvider.Now()
	reference := newBookingReference()

	var (
		result *domain.Booking
		slot   *domain.Slot
	)

	// 2. Захватываем слот и создаем бронирование в одной транзакции
	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 2.1. Переводим слот available -> booked через reservation engine
		reserved, err := uc.engine.ReserveForBooking(txCtx, req.SlotID, reference, now)
		if err != nil {
			switch {
			case errors.Is(err, reservation.ErrSlotNotFound):
				uc.logger.Warn("CreateBooking: slot id=%d not found", req.SlotID)
				return ErrSlotNotFound
			case errors.Is(err, reservation.ErrSlotUnavailable):
				uc.logger.Warn("CreateBooking: slot id=%d not available for user=%d", req.SlotID, req.UserID)
				return ErrSlotUnavailable
			default:
				uc.logger.Error("CreateBooking: failed to reserve slot id=%d: %v", req.SlotID, err)
				return fmt.Errorf("%w: failed to reserve slot: %v", ErrInternal, err)
			}
		}
		slot = reserved

		// 2.2. Создаем бронирование сразу в статусе confirmed
		booking := &domain.Booking{
			Reference:          reference,
			UserID:             req.UserID,
			CurrentSlotID:      req.SlotID,
			Status:             domain.StatusConfirmed,
			ServiceName:        req.ServiceName,
			VehicleDescription: req.VehicleDescription,
			Notes:              req.Notes,
		}

		created, err := uc.bookingRepo.Create(txCtx, booking)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to create booking: %v", err)
			return fmt.Errorf("%w: failed to create booking: %v", ErrInternal, err)
		}

		// 2.3. Пишем первую запись в журнал статусов
		if err := uc.bookingRepo.AppendHistory(txCtx, &domain.StatusHistoryEntry{
			BookingID: created.ID,
			Status:    domain.StatusConfirmed,
			ActorID:   req.UserID,
			ActorRole: domain.RoleCustomer,
		}); err != nil {
			uc.logger.Error("CreateBooking: failed to append history: %v", err)
			return fmt.Errorf("%w: failed to append history: %v", ErrInternal, err)
		}

		result = created
		return nil
	})

	if err != nil {
		return nil, err
	}

	uc.logger.Info("CreateBooking: successfully created booking id=%d ref=%s", result.ID, result.Reference)

	// 3. Уведомление отправляем после коммита; сбой доставки не откатывает
	// уже зафиксированный переход
	uc.dispatchNotification(ctx, result)

	return &Response{
		ID:                 result.ID,
		Reference:          result.Reference,
		UserID:             result.UserID,
		SlotID:             result.CurrentSlotID,
		SlotDate:           slot.SlotDate,
		StartTime:          slot.StartTime,
		EndTime:            slot.EndTime,
		Status:             string(result.Status),
		RescheduleCount:    result.RescheduleCount,
		ServiceName:        result.ServiceName,
		VehicleDescription: result.VehicleDescription,
		Notes:              result.Notes,
		CreatedAt:          result.CreatedAt,
		UpdatedAt:          result.UpdatedAt,
	}, nil
}

func (uc *UseCase) dispatchNotification(ctx context.Context, booking *domain.Booking) {
	event := notifier.Event{
		EventID:     uuid.NewString(),
		Type:        notifier.EventBookingCreated,
		BookingID:   booking.ID,
		BookingRef:  booking.Reference,
		RecipientID: booking.UserID,
		NewSlotID:   &booking.CurrentSlotID,
		OccurredAt:  uc.timeProvider.Now(),
	}

	if err := uc.notifier.Send(ctx, event); err != nil {
		uc.logger.Error("CreateBooking: notification dispatch failed for booking id=%d: %v", booking.ID, err)
	}
}

// newBookingReference генерирует человекочитаемую ссылку бронирования
func newBookingReference() string {
	return "BK-" + strings.ToUpper(uuid.NewString()[:8])
}
