package get_available_slots

import (
	"context"
	"fmt"
	"time"

	"github.com/glossworks/GW-SlotService/internal/domain"
)

// UseCase use case получения доступных слотов на дату
// Слот с истёкшим hold'ом показывается как доступный без записи в БД:
// нормализацию выполнит ближайшая попытка записи либо sweep
type UseCase struct {
	slotRepo     SlotRepository
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(slots SlotRepository, logger Logger) *UseCase {
	return &UseCase{
		slotRepo:     slots,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute выполняет use case получения доступных слотов
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	date, err := time.Parse(domain.DateFormat, req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: date must be in format %s", ErrInvalidInput, domain.DateFormat)
	}

	statuses := append([]domain.SlotStatus{domain.SlotAvailable}, domain.HoldStatuses...)
	slots, err := uc.slotRepo.ListByDate(ctx, date, statuses...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list slots: %v", ErrInternal, err)
	}

	now := uc.timeProvider.Now()

	resp := &Response{
		Date:  req.Date,
		Slots: make([]SlotInfo, 0, len(slots)),
	}
	for _, slot := range slots {
		if !slot.IsBookable(now) {
			continue
		}

		resp.Slots = append(resp.Slots, SlotInfo{
			ID:        slot.ID,
			Date:      slot.SlotDate.Format(domain.DateFormat),
			StartTime: slot.StartTime.String(),
			EndTime:   slot.EndTime.String(),
			Capacity:  slot.Capacity,
		})
	}

	uc.logger.Info("GetAvailableSlots: date=%s, available=%d of %d", req.Date, len(resp.Slots), len(slots))
	return resp, nil
}
