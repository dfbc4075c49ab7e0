package cancel_booking

import (
	"context"
	"time"

	"github.com/glossworks/GW-SlotService/internal/domain"
	"github.com/glossworks/GW-SlotService/internal/integrations/notifier"
)

// ReservationEngine интерфейс reservation engine
type ReservationEngine interface {
	ReleaseForCancellation(ctx context.Context, slotID int64) error
	ReleaseHold(ctx context.Context, slotID int64, customerID int64, reason string) error
}

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	Cancel(ctx context.Context, id int64, expected domain.BookingStatus, reason string) error
	AppendHistory(ctx context.Context, entry *domain.StatusHistoryEntry) error
}

// RescheduleRepository интерфейс репозитория заявок на перенос
type RescheduleRepository interface {
	GetPendingByBookingID(ctx context.Context, bookingID int64) (*domain.RescheduleRequest, error)
	Resolve(ctx context.Context, id int64, newStatus domain.RescheduleStatus, adminNotes *string) error
}

// NotifierClient интерфейс клиента NotificationService
type NotifierClient interface {
	Send(ctx context.Context, event notifier.Event) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
