package worklist

import (
	"context"
	"time"

	"github.com/glossworks/GW-SlotService/internal/domain"
	slotRepo "github.com/glossworks/GW-SlotService/internal/infra/storage/slot"
)

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	ListExpiredHolds(ctx context.Context, now time.Time) ([]*domain.Slot, error)
	ListFreedSince(ctx context.Context, since time.Time) ([]*domain.Slot, error)
	ListOverbooked(ctx context.Context) ([]*slotRepo.OverbookedSlot, error)
}

// RescheduleRepository интерфейс репозитория заявок на перенос
type RescheduleRepository interface {
	ListPending(ctx context.Context) ([]*domain.RescheduleRequest, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
