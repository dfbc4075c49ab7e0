package get_booking_history

import (
	"context"

	"github.com/glossworks/GW-SlotService/internal/domain"
	"github.com/glossworks/GW-SlotService/internal/service/bookings/models"
)

type BookingService interface {
	GetHistory(ctx context.Context, bookingID int64, userID int64, role domain.ActorRole) (*models.BookingHistoryResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
