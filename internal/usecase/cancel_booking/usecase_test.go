package cancel_booking

import (
	"context"
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
	releasedSlots    []int64
	releasedHolds    map[int64]string
	releasedHoldsFor []int64
}

func (f *fakeEngine) ReleaseForCancellation(_ context.Context, slotID int64) error {
	f.releasedSlots = append(f.releasedSlots, slotID)
	return nil
}

func (f *fakeEngine) ReleaseHold(_ context.Context, slotID int64, customerID int64, reason string) error {
	if f.releasedHolds == nil {
		f.releasedHolds = make(map[int64]string)
	}
	f.releasedHolds[slotID] = reason
	f.releasedHoldsFor = append(f.releasedHoldsFor, customerID)
	return nil
}

type fakeBookingRepo struct {
	booking *domain.Booking

	cancelledID     int64
	cancelledReason string
	history         []*domain.StatusHistoryEntry
}

func (f *fakeBookingRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	if f.booking == nil || f.booking.ID != id {
		return nil, bookingRepo.ErrBookingNotFound
	}
	copied := *f.booking
	return &copied, nil
}

func (f *fakeBookingRepo) Cancel(_ context.Context, id int64, expected domain.BookingStatus, reason string) error {
	if f.booking == nil || f.booking.ID != id {
		return bookingRepo.ErrBookingNotFound
	}
	if f.booking.Status != expected {
		return bookingRepo.ErrStatusConflict
	}
	f.booking.Status = domain.StatusCancelled
	f.cancelledID = id
	f.cancelledReason = reason
	return nil
}

func (f *fakeBookingRepo) AppendHistory(_ context.Context, entry *domain.StatusHistoryEntry) error {
	f.history = append(f.history, entry)
	return nil
}

type fakeRescheduleRepo struct {
	pending *domain.RescheduleRequest

	resolvedID     int64
	resolvedStatus domain.RescheduleStatus
}

func (f *fakeRescheduleRepo) GetPendingByBookingID(_ context.Context, bookingID int64) (*domain.RescheduleRequest, error) {
	if f.pending == nil || f.pending.BookingID != bookingID {
		return nil, rescheduleRepo.ErrRequestNotFound
	}
	return f.pending, nil
}

func (f *fakeRescheduleRepo) Resolve(_ context.Context, id int64, newStatus domain.RescheduleStatus, _ *string) error {
	f.resolvedID = id
	f.resolvedStatus = newStatus
	return nil
}

type fakeNotifier struct {
	events []notifier.Event
}

func (f *fakeNotifier) Send(_ context.Context, event notifier.Event) error {
	f.events = append(f.events, event)
	return nil
}

type fakeTxManager struct{}

func (fakeTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func confirmedBooking() *domain.Booking {
	return &domain.Booking{
		ID:            5,
		Reference:     "BK-ABCD1234",
		UserID:        100,
		CurrentSlotID: 7,
		Status:        domain.StatusConfirmed,
	}
}

func TestExecute_OwnerCancels(t *testing.T) {
	engine := &fakeEngine{}
	repo := &fakeBookingRepo{booking: confirmedBooking()}
	sink := &fakeNotifier{}

	uc := NewUseCase(engine, repo, &fakeRescheduleRepo{}, sink, fakeTxManager{}, nopLogger{})

	err := uc.Execute(context.Background(), &Request{
		BookingID: 5,
		ActorID:   100,
		ActorRole: domain.RoleCustomer,
		Reason:    "планы изменились",
	})
	require.NoError(t, err)

	// Слот освобождён, бронирование отменено
	assert.Equal(t, []int64{7}, engine.releasedSlots)
	assert.Equal(t, int64(5), repo.cancelledID)
	assert.Equal(t, "планы изменились", repo.cancelledReason)

	require.Len(t, repo.history, 1)
	assert.Equal(t, domain.StatusCancelled, repo.history[0].Status)
	assert.Equal(t, domain.RoleCustomer, repo.history[0].ActorRole)

	require.Len(t, sink.events, 1)
	assert.Equal(t, notifier.EventBookingCancelled, sink.events[0].Type)
}

func TestExecute_AdminCancelsForeignBooking(t *testing.T) {
	repo := &fakeBookingRepo{booking: confirmedBooking()}

	uc := NewUseCase(&fakeEngine{}, repo, &fakeRescheduleRepo{}, &fakeNotifier{}, fakeTxManager{}, nopLogger{})

	err := uc.Execute(context.Background(), &Request{
		BookingID: 5,
		ActorID:   999,
		ActorRole: domain.RoleAdmin,
		Reason:    "мастер заболел",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, repo.booking.Status)
}

func TestExecute_ForeignCustomerDenied(t *testing.T) {
	repo := &fakeBookingRepo{booking: confirmedBooking()}
	engine := &fakeEngine{}

	uc := NewUseCase(engine, repo, &fakeRescheduleRepo{}, &fakeNotifier{}, fakeTxManager{}, nopLogger{})

	err := uc.Execute(context.Background(), &Request{
		BookingID: 5,
		ActorID:   200,
		ActorRole: domain.RoleCustomer,
	})
	require.ErrorIs(t, err, ErrAccessDenied)
	assert.Empty(t, engine.releasedSlots)
}

func TestExecute_TerminalStatusCannotCancel(t *testing.T) {
	for _, status := range []domain.BookingStatus{domain.StatusCompleted, domain.StatusCancelled} {
		t.Run(string(status), func(t *testing.T) {
			booking := confirmedBooking()
			booking.Status = status
			repo := &fakeBookingRepo{booking: booking}

			uc := NewUseCase(&fakeEngine{}, repo, &fakeRescheduleRepo{}, &fakeNotifier{}, fakeTxManager{}, nopLogger{})

			err := uc.Execute(context.Background(), &Request{
				BookingID: 5,
				ActorID:   100,
				ActorRole: domain.RoleCustomer,
			})
			assert.ErrorIs(t, err, ErrCannotCancel)
		})
	}
}

func TestExecute_NotFound(t *testing.T) {
	uc := NewUseCase(&fakeEngine{}, &fakeBookingRepo{}, &fakeRescheduleRepo{}, &fakeNotifier{}, fakeTxManager{}, nopLogger{})

	err := uc.Execute(context.Background(), &Request{
		BookingID: 5,
		ActorID:   100,
		ActorRole: domain.RoleCustomer,
	})
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestExecute_DeclinesPendingReschedule(t *testing.T) {
	engine := &fakeEngine{}
	repo := &fakeBookingRepo{booking: confirmedBooking()}
	reschedules := &fakeRescheduleRepo{
		pending: &domain.RescheduleRequest{
			ID:              33,
			BookingID:       5,
			CustomerID:      100,
			OriginalSlotID:  7,
			RequestedSlotID: 9,
			Status:          domain.ReschedulePending,
			ExpiresAt:       time.Now().Add(time.Hour),
		},
	}

	uc := NewUseCase(engine, repo, reschedules, &fakeNotifier{}, fakeTxManager{}, nopLogger{})

	err := uc.Execute(context.Background(), &Request{
		BookingID: 5,
		ActorID:   100,
		ActorRole: domain.RoleCustomer,
	})
	require.NoError(t, err)

	// Hold целевого слота снят, заявка помечена declined
	assert.Equal(t, domain.ReasonRescheduleDeclined, engine.releasedHolds[9])
	assert.Equal(t, int64(33), reschedules.resolvedID)
	assert.Equal(t, domain.RescheduleDeclined, reschedules.resolvedStatus)

	// Исходный слот тоже освобождён
	assert.Equal(t, []int64{7}, engine.releasedSlots)
}
