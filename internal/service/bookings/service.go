package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/glossworks/GW-SlotService/internal/domain"
	bookingRepo "github.com/glossworks/GW-SlotService/internal/infra/storage/booking"
	rescheduleRepo "github.com/glossworks/GW-SlotService/internal/infra/storage/reschedule"
	"github.com/glossworks/GW-SlotService/internal/service/bookings/models"
)

// Service read-сторона бронирований: карточка, история пользователя,
// журнал статусов. Все мутации идут через usecase-пакеты
type Service struct {
	bookingRepo    BookingRepository
	rescheduleRepo RescheduleRepository
	logger         Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	rescheduleRepo RescheduleRepository,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo:    bookingRepo,
		rescheduleRepo: rescheduleRepo,
		logger:         logger,
	}
}

// GetByID получает бронирование по ID
// Клиент видит только свои бронирования, админ - любые
func (s *Service) GetByID(ctx context.Context, id int64, userID int64, role domain.ActorRole) (*models.BookingResponse, error) {
	s.logger.Info("GetByID: fetching booking id=%d for user=%d", id, userID)

	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("GetByID: booking id=%d not found", id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("GetByID: repository error for booking id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}

	if err := s.checkAccess(booking, userID, role); err != nil {
		s.logger.Warn("GetByID: access denied for user=%d to booking id=%d", userID, id)
		return nil, err
	}

	resp := models.FromDomainBooking(booking)
	s.attachPendingReschedule(ctx, booking.ID, resp)

	s.logger.Info("GetByID: successfully fetched booking id=%d", id)
	return resp, nil
}

// GetByReference получает бронирование по человекочитаемой ссылке
func (s *Service) GetByReference(ctx context.Context, reference string, userID int64, role domain.ActorRole) (*models.BookingResponse, error) {
	s.logger.Info("GetByReference: fetching booking ref=%s for user=%d", reference, userID)

	booking, err := s.bookingRepo.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("GetByReference: booking ref=%s not found", reference)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("GetByReference: repository error for ref=%s: %v", reference, err)
		return nil, fmt.Errorf("%w: GetByReference - repository error: %v", ErrInternal, err)
	}

	if err := s.checkAccess(booking, userID, role); err != nil {
		s.logger.Warn("GetByReference: access denied for user=%d to booking ref=%s", userID, reference)
		return nil, err
	}

	resp := models.FromDomainBooking(booking)
	s.attachPendingReschedule(ctx, booking.ID, resp)

	return resp, nil
}

// GetUserBookings получает историю бронирований пользователя
// Опционально фильтрует по статусу
func (s *Service) GetUserBookings(ctx context.Context, req *models.GetUserBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("GetUserBookings: fetching bookings for user=%d, status=%v", req.UserID, req.Status)

	var domainStatus *domain.BookingStatus
	if req.Status != nil {
		status, err := models.ToDomainBookingStatus(*req.Status)
		if err != nil {
			s.logger.Warn("GetUserBookings: invalid status=%s for user=%d", *req.Status, req.UserID)
			return nil, fmt.Errorf("%w: invalid status", ErrInvalidInput)
		}
		domainStatus = &status
	}

	bookings, err := s.bookingRepo.GetByUserID(ctx, req.UserID, domainStatus)
	if err != nil {
		s.logger.Error("GetUserBookings: repository error for user=%d: %v", req.UserID, err)
		return nil, fmt.Errorf("%w: GetUserBookings - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetUserBookings: successfully fetched %d bookings for user=%d", len(bookings), req.UserID)
	return models.FromDomainBookingList(bookings), nil
}

// GetHistory получает журнал статусов бронирования
func (s *Service) GetHistory(ctx context.Context, bookingID int64, userID int64, role domain.ActorRole) (*models.BookingHistoryResponse, error) {
	s.logger.Info("GetHistory: fetching history for booking id=%d, user=%d", bookingID, userID)

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("GetHistory: booking id=%d not found", bookingID)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("GetHistory: repository error for booking id=%d: %v", bookingID, err)
		return nil, fmt.Errorf("%w: GetHistory - repository error: %v", ErrInternal, err)
	}

	if err := s.checkAccess(booking, userID, role); err != nil {
		s.logger.Warn("GetHistory: access denied for user=%d to booking id=%d", userID, bookingID)
		return nil, err
	}

	entries, err := s.bookingRepo.ListHistory(ctx, bookingID)
	if err != nil {
		s.logger.Error("GetHistory: failed to list history for booking id=%d: %v", bookingID, err)
		return nil, fmt.Errorf("%w: GetHistory - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetHistory: fetched %d entries for booking id=%d", len(entries), bookingID)
	return models.FromDomainHistory(booking, entries), nil
}

// Вспомогательные методы

// checkAccess проверяет, что пользователь имеет доступ к бронированию
func (s *Service) checkAccess(booking *domain.Booking, userID int64, role domain.ActorRole) error {
	if role == domain.RoleAdmin {
		return nil
	}
	if booking.UserID == userID {
		return nil
	}
	return ErrAccessDenied
}

// attachPendingReschedule добавляет к ответу неразрешённую заявку на
// перенос, если она есть. Сбой чтения не ломает карточку бронирования
func (s *Service) attachPendingReschedule(ctx context.Context, bookingID int64, resp *models.BookingResponse) {
	request, err := s.rescheduleRepo.GetPendingByBookingID(ctx, bookingID)
	if err != nil {
		if !errors.Is(err, rescheduleRepo.ErrRequestNotFound) {
			s.logger.Error("attachPendingReschedule: failed to get pending request for booking id=%d: %v", bookingID, err)
		}
		return
	}

	resp.PendingReschedule = models.FromDomainReschedule(request)
}
