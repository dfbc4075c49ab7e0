package get_available_slots

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glossworks/GW-SlotService/internal/domain"
	"github.com/glossworks/GW-SlotService/pkg/types"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fakeSlotRepo struct {
	slots []*domain.Slot

	requestedDate     time.Time
	requestedStatuses []domain.SlotStatus
}

func (f *fakeSlotRepo) ListByDate(_ context.Context, date time.Time, statuses ...domain.SlotStatus) ([]*domain.Slot, error) {
	f.requestedDate = date
	f.requestedStatuses = statuses
	return f.slots, nil
}

func slotOn(id int64, status domain.SlotStatus, reservedUntil *time.Time) *domain.Slot {
	return &domain.Slot{
		ID:            id,
		SlotDate:      time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		StartTime:     types.TimeString("10:00"),
		EndTime:       types.TimeString("12:00"),
		Capacity:      1,
		Status:        status,
		ReservedUntil: reservedUntil,
	}
}

func TestExecute_FiltersActiveHolds(t *testing.T) {
	now := time.Now()
	activeHold := now.Add(10 * time.Minute)
	expiredHold := now.Add(-10 * time.Minute)

	repo := &fakeSlotRepo{slots: []*domain.Slot{
		slotOn(1, domain.SlotAvailable, nil),
		slotOn(2, domain.SlotTemporarilyReserved, &activeHold),
		slotOn(3, domain.SlotRescheduleReserved, &expiredHold),
	}}

	uc := NewUseCase(repo, nopLogger{})

	resp, err := uc.Execute(context.Background(), &Request{Date: "2026-03-15"})
	require.NoError(t, err)

	// Слот с действующим hold'ом скрыт; слот с истёкшим hold'ом уже
	// снова продаётся, даже если sweep его не переписал
	require.Len(t, resp.Slots, 2)
	assert.Equal(t, int64(1), resp.Slots[0].ID)
	assert.Equal(t, int64(3), resp.Slots[1].ID)

	assert.Equal(t, "2026-03-15", resp.Date)
	assert.Equal(t, "10:00", resp.Slots[0].StartTime)
	assert.Equal(t, "12:00", resp.Slots[0].EndTime)

	// Запрашиваются только потенциально доступные статусы
	assert.Equal(t, []domain.SlotStatus{domain.SlotAvailable, domain.SlotTemporarilyReserved, domain.SlotRescheduleReserved}, repo.requestedStatuses)
}

func TestExecute_EmptyDay(t *testing.T) {
	uc := NewUseCase(&fakeSlotRepo{}, nopLogger{})

	resp, err := uc.Execute(context.Background(), &Request{Date: "2026-03-15"})
	require.NoError(t, err)

	assert.NotNil(t, resp.Slots)
	assert.Empty(t, resp.Slots)
}

func TestExecute_InvalidDate(t *testing.T) {
	uc := NewUseCase(&fakeSlotRepo{}, nopLogger{})

	for _, date := range []string{"", "15-03-2026", "2026/03/15", "завтра"} {
		_, err := uc.Execute(context.Background(), &Request{Date: date})
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
}
