package reservation

import (
	"context"
	"time"

	"github.com/glossworks/GW-SlotService/internal/domain"
)

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Slot, error)
	Transition(ctx context.Context, id int64, expected, newStatus domain.SlotStatus, meta domain.TransitionMeta) (*domain.Slot, error)
	ReleaseExpiredHold(ctx context.Context, id int64, now time.Time) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
