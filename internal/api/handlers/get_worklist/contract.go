package get_worklist

import (
	"context"
	"time"

	"github.com/glossworks/GW-SlotService/internal/domain"
)

type WorklistService interface {
	Build(ctx context.Context, now time.Time) *domain.Worklist
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
