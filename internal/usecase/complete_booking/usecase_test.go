package complete_booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glossworks/GW-SlotService/internal/domain"
	bookingRepo "github.com/glossworks/GW-SlotService/internal/infra/storage/booking"
	"github.com/glossworks/GW-SlotService/internal/integrations/notifier"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fakeBookingRepo struct {
	booking *domain.Booking

	history []*domain.StatusHistoryEntry
}

func (f *fakeBookingRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	if f.booking == nil || f.booking.ID != id {
		return nil, bookingRepo.ErrBookingNotFound
	}
	copied := *f.booking
	return &copied, nil
}

func (f *fakeBookingRepo) UpdateStatus(_ context.Context, id int64, expected, newStatus domain.BookingStatus) error {
	if f.booking.Status != expected {
		return bookingRepo.ErrStatusConflict
	}
	f.booking.Status = newStatus
	f.booking.UpdatedAt = time.Now()
	return nil
}

func (f *fakeBookingRepo) AppendHistory(_ context.Context, entry *domain.StatusHistoryEntry) error {
	f.history = append(f.history, entry)
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

func (fakeTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func confirmedBooking() *domain.Booking {
	return &domain.Booking{
		ID:        5,
		Reference: "BK-ABCD1234",
		UserID:    100,
		Status:    domain.StatusConfirmed,
	}
}

func TestExecute_Success(t *testing.T) {
	repo := &fakeBookingRepo{booking: confirmedBooking()}
	sink := &fakeNotifier{}

	uc := NewUseCase(repo, sink, fakeTxManager{}, nopLogger{})

	resp, err := uc.Execute(context.Background(), &Request{BookingID: 5, AdminID: 1})
	require.NoError(t, err)

	assert.Equal(t, "completed", resp.Status)
	assert.Equal(t, "BK-ABCD1234", resp.BookingRef)

	require.Len(t, repo.history, 1)
	assert.Equal(t, domain.StatusCompleted, repo.history[0].Status)
	assert.Equal(t, domain.RoleAdmin, repo.history[0].ActorRole)

	require.Len(t, sink.events, 1)
	assert.Equal(t, notifier.EventBookingCompleted, sink.events[0].Type)
	assert.Equal(t, int64(100), sink.events[0].RecipientID)
}

func TestExecute_NotConfirmed(t *testing.T) {
	for _, status := range []domain.BookingStatus{domain.StatusPending, domain.StatusCompleted, domain.StatusCancelled, domain.StatusRescheduleDeclined} {
		t.Run(string(status), func(t *testing.T) {
			booking := confirmedBooking()
			booking.Status = status
			repo := &fakeBookingRepo{booking: booking}
			sink := &fakeNotifier{}

			uc := NewUseCase(repo, sink, fakeTxManager{}, nopLogger{})

			_, err := uc.Execute(context.Background(), &Request{BookingID: 5, AdminID: 1})
			assert.ErrorIs(t, err, ErrNotConfirmed)
			assert.Empty(t, repo.history)
			assert.Empty(t, sink.events)
		})
	}
}

func TestExecute_NotFound(t *testing.T) {
	uc := NewUseCase(&fakeBookingRepo{}, &fakeNotifier{}, fakeTxManager{}, nopLogger{})

	_, err := uc.Execute(context.Background(), &Request{BookingID: 99, AdminID: 1})
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestExecute_InvalidInput(t *testing.T) {
	uc := NewUseCase(&fakeBookingRepo{}, &fakeNotifier{}, fakeTxManager{}, nopLogger{})

	_, err := uc.Execute(context.Background(), &Request{BookingID: 0, AdminID: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
