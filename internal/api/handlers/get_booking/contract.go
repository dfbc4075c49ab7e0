package get_booking

import (
	"context"

	"github.com/glossworks/GW-SlotService/internal/domain"
	"github.com/glossworks/GW-SlotService/internal/service/bookings/models"
)

type BookingService interface {
	GetByID(ctx context.Context, id int64, userID int64, role domain.ActorRole) (*models.BookingResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
