package decline_reschedule

import (
	"context"

	declineReschedule "github.com/glossworks/GW-SlotService/internal/usecase/decline_reschedule"
)

type DeclineRescheduleUseCase interface {
	Execute(ctx context.Context, req *declineReschedule.Request) (*declineReschedule.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
