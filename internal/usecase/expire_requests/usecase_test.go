package expire_requests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glossworks/GW-SlotService/internal/domain"
	bookingRepo "github.com/glossworks/GW-SlotService/internal/infra/storage/booking"
	rescheduleRepo "github.com/glossworks/GW-SlotService/internal/infra/storage/reschedule"
	"github.com/glossworks/GW-SlotService/internal/integrations/notifier"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fakeEngine struct {
	releaseErr map[int64]error

	released []int64

	releasedFor []int64
	reasons     []string
}

func (f *fakeEngine) ReleaseHold(_ context.Context, slotID int64, customerID int64, reason string) error {
	if err := f.releaseErr[slotID]; err != nil {
		return err
	}
	f.released = append(f.released, slotID)
	f.releasedFor = append(f.releasedFor, customerID)
	f.reasons = append(f.reasons, reason)
	return nil
}

type fakeBookingRepo struct {
	bookings map[int64]*domain.Booking
}

func (f *fakeBookingRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	booking, ok := f.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	return booking, nil
}

type fakeRescheduleRepo struct {
	requests []*domain.RescheduleRequest

	resolved map[int64]domain.RescheduleStatus
}

func (f *fakeRescheduleRepo) ListExpiredPending(_ context.Context, now time.Time) ([]*domain.RescheduleRequest, error) {
	var out []*domain.RescheduleRequest
	for _, r := range f.requests {
		if r.Status == domain.ReschedulePending && !r.ExpiresAt.After(now) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRescheduleRepo) Resolve(_ context.Context, id int64, newStatus domain.RescheduleStatus, _ *string) error {
	for _, r := range f.requests {
		if r.ID != id {
			continue
		}
		if r.Status != domain.ReschedulePending {
			return rescheduleRepo.ErrStatusConflict
		}
		r.Status = newStatus
		if f.resolved == nil {
			f.resolved = make(map[int64]domain.RescheduleStatus)
		}
		f.resolved[id] = newStatus
		return nil
	}
	return rescheduleRepo.ErrRequestNotFound
}

type fakeNotifier struct {
	events []notifier.Event
}

func (f *fakeNotifier) Send(_ context.Context, event notifier.Event) error {
	f.events = append(f.events, event)
	return nil
}

type fakeTxManager struct {
	calls int
}

func (f *fakeTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

func expiredRequest(id, bookingID, requestedSlotID int64) *domain.RescheduleRequest {
	return &domain.RescheduleRequest{
		ID:              id,
		BookingID:       bookingID,
		CustomerID:      100,
		OriginalSlotID:  7,
		RequestedSlotID: requestedSlotID,
		Status:          domain.ReschedulePending,
		ExpiresAt:       time.Now().Add(-time.Minute),
	}
}

func TestExecute_EmptyPass(t *testing.T) {
	tx := &fakeTxManager{}
	uc := NewUseCase(&fakeEngine{}, &fakeBookingRepo{}, &fakeRescheduleRepo{}, &fakeNotifier{}, tx, nopLogger{})

	resp, err := uc.Execute(context.Background())
	require.NoError(t, err)

	assert.Empty(t, resp.ExpiredIDs)
	assert.Zero(t, resp.Skipped)
	assert.Zero(t, tx.calls)
}

func TestExecute_ExpiresAllOverdue(t *testing.T) {
	fresh := expiredRequest(3, 12, 15)
	fresh.ExpiresAt = time.Now().Add(time.Hour)

	engine := &fakeEngine{}
	reschedules := &fakeRescheduleRepo{
		requests: []*domain.RescheduleRequest{
			expiredRequest(1, 10, 11),
			expiredRequest(2, 20, 21),
			fresh,
		},
	}
	bookings := &fakeBookingRepo{bookings: map[int64]*domain.Booking{
		10: {ID: 10, Reference: "BK-AAAA1111", UserID: 100},
		20: {ID: 20, Reference: "BK-BBBB2222", UserID: 200},
	}}
	sink := &fakeNotifier{}
	tx := &fakeTxManager{}

	uc := NewUseCase(engine, bookings, reschedules, sink, tx, nopLogger{})

	resp, err := uc.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2}, resp.ExpiredIDs)
	assert.Zero(t, resp.Skipped)

	// Каждая заявка своей транзакцией
	assert.Equal(t, 2, tx.calls)

	assert.Equal(t, []int64{11, 21}, engine.released)
	for _, reason := range engine.reasons {
		assert.Equal(t, domain.ReasonHoldExpired, reason)
	}

	// Не истёкшая заявка не тронута
	assert.Equal(t, domain.ReschedulePending, fresh.Status)

	require.Len(t, sink.events, 2)
	assert.Equal(t, notifier.EventRescheduleExpired, sink.events[0].Type)
	assert.Equal(t, int64(100), sink.events[0].RecipientID)
	assert.Equal(t, int64(200), sink.events[1].RecipientID)
}

func TestExecute_SkipsConcurrentlyResolved(t *testing.T) {
	resolved := expiredRequest(1, 10, 11)
	resolved.Status = domain.RescheduleApproved // админ успел раньше

	// ListExpiredPending в проде вернула бы заявку ещё pending;
	// эмулируем гонку, подавая уже разрешённую напрямую в expireOne
	reschedules := &fakeRescheduleRepo{requests: []*domain.RescheduleRequest{resolved}}

	engine := &fakeEngine{}
	sink := &fakeNotifier{}

	uc := NewUseCase(engine, &fakeBookingRepo{}, reschedules, sink, &fakeTxManager{}, nopLogger{})

	expired, err := uc.expireOne(context.Background(), resolved)
	require.NoError(t, err)

	assert.False(t, expired)
	assert.Empty(t, engine.released)
	assert.Empty(t, sink.events)
}

func TestExecute_ReleaseFailureCountsAsSkipped(t *testing.T) {
	engine := &fakeEngine{releaseErr: map[int64]error{11: errors.New("connection reset")}}
	reschedules := &fakeRescheduleRepo{
		requests: []*domain.RescheduleRequest{
			expiredRequest(1, 10, 11),
			expiredRequest(2, 20, 21),
		},
	}
	bookings := &fakeBookingRepo{bookings: map[int64]*domain.Booking{
		20: {ID: 20, Reference: "BK-BBBB2222", UserID: 200},
	}}
	sink := &fakeNotifier{}

	uc := NewUseCase(engine, bookings, reschedules, sink, &fakeTxManager{}, nopLogger{})

	resp, err := uc.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int64{2}, resp.ExpiredIDs)
	assert.Equal(t, 1, resp.Skipped)
	require.Len(t, sink.events, 1)
	assert.Equal(t, int64(20), sink.events[0].BookingID)
}

func TestExecute_NotifierLookupFailureDoesNotBlockPass(t *testing.T) {
	reschedules := &fakeRescheduleRepo{requests: []*domain.RescheduleRequest{expiredRequest(1, 10, 11)}}

	// Бронирование не нашлось для уведомления: заявка всё равно expired
	uc := NewUseCase(&fakeEngine{}, &fakeBookingRepo{}, reschedules, &fakeNotifier{}, &fakeTxManager{}, nopLogger{})

	resp, err := uc.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int64{1}, resp.ExpiredIDs)
	assert.Equal(t, domain.RescheduleExpired, reschedules.resolved[1])
}
