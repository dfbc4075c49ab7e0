package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glossworks/GW-SlotService/internal/domain"
	slotRepo "github.com/glossworks/GW-SlotService/internal/infra/storage/slot"
	"github.com/glossworks/GW-SlotService/pkg/ptr"
)

// Service reservation engine: все мутации слотов идут через его
// guarded-переходы. Сервис stateless и рассчитывает, что вызывающий
// usecase уже открыл сериализуемую транзакцию - методы двухслотового
// коммита без неё не атомарны
type Service struct {
	slotRepo SlotRepository
	logger   Logger
}

// NewService создает новый экземпляр reservation engine
func NewService(slotRepo SlotRepository, logger Logger) *Service {
	return &Service{
		slotRepo: slotRepo,
		logger:   logger,
	}
}

// ReserveForBooking выделяет слот под новое бронирование:
// available -> booked. Перед CAS нормализует истёкший hold, поэтому
// слот с просроченным hold'ом бронируется без ожидания sweep'а
// Проигравший гонку получает ErrSlotUnavailable
func (s *Service) ReserveForBooking(ctx context.Context, slotID int64, bookingRef string, now time.Time) (*domain.Slot, error) {
	if err := s.normalizeIfExpired(ctx, slotID, now); err != nil {
		return nil, err
	}

	slot, err := s.slotRepo.Transition(ctx, slotID, domain.SlotAvailable, domain.SlotBooked, domain.TransitionMeta{
		Reason: fmt.Sprintf("%s (%s)", domain.ReasonBookingCreated, bookingRef),
	})
	if err != nil {
		return nil, s.mapTransitionError(err, "ReserveForBooking", slotID)
	}

	s.logger.Info("ReserveForBooking: slot id=%d booked for %s", slotID, bookingRef)
	return slot, nil
}

// PlaceRescheduleHold ставит hold на целевой слот переноса:
// available -> reschedule_reserved, reserved_until = now + 24h
// Hold рекомендательный и жёстко ограничен по времени
func (s *Service) PlaceRescheduleHold(ctx context.Context, slotID int64, customerID int64, now time.Time) (*domain.Slot, error) {
	if err := s.normalizeIfExpired(ctx, slotID, now); err != nil {
		return nil, err
	}

	expiresAt := now.Add(domain.RescheduleHoldTTL)

	slot, err := s.slotRepo.Transition(ctx, slotID, domain.SlotAvailable, domain.SlotRescheduleReserved, domain.TransitionMeta{
		ReservedFor:   ptr.Ptr(customerID),
		ReservedUntil: ptr.Ptr(expiresAt),
		Reason:        domain.ReasonRescheduleHold,
	})
	if err != nil {
		return nil, s.mapTransitionError(err, "PlaceRescheduleHold", slotID)
	}

	s.logger.Info("PlaceRescheduleHold: slot id=%d held for customer=%d until %s",
		slotID, customerID, expiresAt.Format(time.RFC3339))
	return slot, nil
}

// CommitReschedule выполняет двухслотовый коммит одобренного переноса:
// requestedSlot: reschedule_reserved -> booked (с проверкой reserved_for)
// originalSlot:  booked -> available
// Обе половины идут в транзакции вызывающего; любой сбой возвращает
// ErrCommitFailed, транзакция откатывается и бронирование остаётся
// привязанным к исходному слоту
func (s *Service) CommitReschedule(ctx context.Context, requestedSlotID, originalSlotID int64, customerID int64, bookingRef string) error {
	// Половина 1: переводим удерживаемый слот в booked
	// Сначала проверяем, что hold всё ещё наш: истёкший hold мог быть
	// снят sweep'ом и перехвачен другим клиентом
	requested, err := s.slotRepo.GetByID(ctx, requestedSlotID)
	if err != nil {
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			return ErrCommitFailed
		}
		return fmt.Errorf("%w: CommitReschedule - get requested slot: %v", ErrInternal, err)
	}

	if !requested.IsHeldBy(customerID) {
		s.logger.Warn("CommitReschedule: slot id=%d is not held by customer=%d (status=%s)",
			requestedSlotID, customerID, requested.Status)
		return ErrCommitFailed
	}

	if _, err := s.slotRepo.Transition(ctx, requestedSlotID, domain.SlotRescheduleReserved, domain.SlotBooked, domain.TransitionMeta{
		Reason: fmt.Sprintf("%s (%s)", domain.ReasonRescheduleCommit, bookingRef),
	}); err != nil {
		s.logger.Warn("CommitReschedule: requested slot id=%d transition failed: %v", requestedSlotID, err)
		return ErrCommitFailed
	}

	// Половина 2: освобождаем исходный слот
	if _, err := s.slotRepo.Transition(ctx, originalSlotID, domain.SlotBooked, domain.SlotAvailable, domain.TransitionMeta{
		Reason: domain.ReasonRescheduleFreed,
	}); err != nil {
		s.logger.Error("CommitReschedule: original slot id=%d transition failed: %v", originalSlotID, err)
		return ErrCommitFailed
	}

	s.logger.Info("CommitReschedule: booking %s moved from slot id=%d to slot id=%d",
		bookingRef, originalSlotID, requestedSlotID)
	return nil
}

// ReleaseHold снимает reschedule-hold клиента:
// reschedule_reserved -> available
// Идемпотентна относительно целевого состояния: из reschedule_reserved
// слот выходит только через release, поэтому любое другое наблюдаемое
// состояние (available, booked после самовосстановления истёкшего
// hold'а, перехваченный чужой hold) означает, что наш hold уже снят, -
// no-op, не ошибка. Снимается только hold указанного клиента: живой
// hold другого клиента на том же слоте не трогаем
func (s *Service) ReleaseHold(ctx context.Context, slotID int64, customerID int64, reason string) error {
	slot, err := s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			return ErrSlotNotFound
		}
		return fmt.Errorf("%w: ReleaseHold - get slot: %v", ErrInternal, err)
	}

	ours := slot.Status == domain.SlotRescheduleReserved &&
		slot.ReservedFor != nil && *slot.ReservedFor == customerID
	if !ours {
		s.logger.Info("ReleaseHold: slot id=%d no longer holds customer=%d (status=%s), treating as released",
			slotID, customerID, slot.Status)
		return nil
	}

	if _, err := s.slotRepo.Transition(ctx, slotID, domain.SlotRescheduleReserved, domain.SlotAvailable, domain.TransitionMeta{
		Reason: reason,
	}); err != nil {
		// Гонка в окне между чтением и CAS: слот ушёл из-под hold'а,
		// значит release уже выполнен другим актором
		if errors.Is(err, slotRepo.ErrStatusConflict) {
			s.logger.Info("ReleaseHold: slot id=%d released concurrently, treating as success", slotID)
			return nil
		}
		return s.mapTransitionError(err, "ReleaseHold", slotID)
	}

	s.logger.Info("ReleaseHold: slot id=%d released for customer=%d (%s)", slotID, customerID, reason)
	return nil
}

// ReleaseForCancellation освобождает слот отменённого бронирования:
// booked -> available с причиной "cancellation" (по ней worklist
// находит недавно освобождённые слоты)
func (s *Service) ReleaseForCancellation(ctx context.Context, slotID int64) error {
	if _, err := s.slotRepo.Transition(ctx, slotID, domain.SlotBooked, domain.SlotAvailable, domain.TransitionMeta{
		Reason: domain.ReasonCancellation,
	}); err != nil {
		return s.mapTransitionError(err, "ReleaseForCancellation", slotID)
	}

	s.logger.Info("ReleaseForCancellation: slot id=%d freed", slotID)
	return nil
}

// normalizeIfExpired нормализует истёкший hold перед попыткой записи
// Обязательный шаг: два читателя, увидевшие истёкший hold, не должны
// оба решить, что "выиграли" слот, - после нормализации их рассудит CAS
func (s *Service) normalizeIfExpired(ctx context.Context, slotID int64, now time.Time) error {
	slot, err := s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			return ErrSlotNotFound
		}
		return fmt.Errorf("%w: normalizeIfExpired - get slot: %v", ErrInternal, err)
	}

	if !slot.HoldExpired(now) {
		return nil
	}

	if err := s.slotRepo.ReleaseExpiredHold(ctx, slotID, now); err != nil {
		return fmt.Errorf("%w: normalizeIfExpired - release expired hold: %v", ErrInternal, err)
	}

	s.logger.Info("normalizeIfExpired: expired hold on slot id=%d normalized", slotID)
	return nil
}

// mapTransitionError транслирует ошибки репозитория в ошибки движка
func (s *Service) mapTransitionError(err error, method string, slotID int64) error {
	switch {
	case errors.Is(err, slotRepo.ErrSlotNotFound):
		return ErrSlotNotFound
	case errors.Is(err, slotRepo.ErrStatusConflict):
		s.logger.Warn("%s: lost slot race for slot id=%d", method, slotID)
		return ErrSlotUnavailable
	default:
		return fmt.Errorf("%w: %s - slot id=%d: %v", ErrInternal, method, slotID, err)
	}
}
