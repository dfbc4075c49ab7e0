package reservation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glossworks/GW-SlotService/internal/domain"
	slotRepo "github.com/glossworks/GW-SlotService/internal/infra/storage/slot"
	"github.com/glossworks/GW-SlotService/pkg/ptr"
)

// fakeSlotRepo in-memory репозиторий слотов с CAS-семантикой Transition,
// потокобезопасный - пригоден для конкурентных тестов
type fakeSlotRepo struct {
	mu    sync.Mutex
	slots map[int64]*domain.Slot
}

func newFakeSlotRepo(slots ...*domain.Slot) *fakeSlotRepo {
	repo := &fakeSlotRepo{slots: make(map[int64]*domain.Slot)}
	for _, s := range slots {
		repo.slots[s.ID] = s
	}
	return repo
}

func (f *fakeSlotRepo) GetByID(_ context.Context, id int64) (*domain.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	slot, ok := f.slots[id]
	if !ok {
		return nil, slotRepo.ErrSlotNotFound
	}
	copied := *slot
	return &copied, nil
}

func (f *fakeSlotRepo) Transition(_ context.Context, id int64, expected, newStatus domain.SlotStatus, meta domain.TransitionMeta) (*domain.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	slot, ok := f.slots[id]
	if !ok {
		return nil, slotRepo.ErrSlotNotFound
	}
	if slot.Status != expected {
		return nil, slotRepo.ErrStatusConflict
	}

	slot.Status = newStatus
	slot.ReservedFor = meta.ReservedFor
	slot.ReservedUntil = meta.ReservedUntil
	slot.ModificationReason = ptr.Ptr(meta.Reason)
	slot.LastModified = time.Now()

	copied := *slot
	return &copied, nil
}

func (f *fakeSlotRepo) ReleaseExpiredHold(_ context.Context, id int64, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	slot, ok := f.slots[id]
	if !ok {
		return nil
	}
	if (slot.Status == domain.SlotTemporarilyReserved || slot.Status == domain.SlotRescheduleReserved) &&
		slot.ReservedUntil != nil && slot.ReservedUntil.Before(now) {
		slot.Status = domain.SlotAvailable
		slot.ReservedFor = nil
		slot.ReservedUntil = nil
		slot.ModificationReason = ptr.Ptr(domain.ReasonHoldExpired)
	}
	return nil
}

// nopLogger заглушка логгера для тестов
type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func newTestService(repo *fakeSlotRepo) *Service {
	return NewService(repo, nopLogger{})
}

var testNow = time.Date(2025, 1, 8, 9, 0, 0, 0, time.UTC)

func TestReserveForBooking(t *testing.T) {
	t.Run("available slot becomes booked", func(t *testing.T) {
		repo := newFakeSlotRepo(&domain.Slot{ID: 1, Status: domain.SlotAvailable})
		svc := newTestService(repo)

		slot, err := svc.ReserveForBooking(context.Background(), 1, "BK-test", testNow)

		require.NoError(t, err)
		assert.Equal(t, domain.SlotBooked, slot.Status)
	})

	t.Run("booked slot is unavailable", func(t *testing.T) {
		repo := newFakeSlotRepo(&domain.Slot{ID: 1, Status: domain.SlotBooked})
		svc := newTestService(repo)

		_, err := svc.ReserveForBooking(context.Background(), 1, "BK-test", testNow)

		assert.ErrorIs(t, err, ErrSlotUnavailable)
	})

	t.Run("blocked slot is unavailable", func(t *testing.T) {
		repo := newFakeSlotRepo(&domain.Slot{ID: 1, Status: domain.SlotBlocked})
		svc := newTestService(repo)

		_, err := svc.ReserveForBooking(context.Background(), 1, "BK-test", testNow)

		assert.ErrorIs(t, err, ErrSlotUnavailable)
	})

	t.Run("missing slot", func(t *testing.T) {
		repo := newFakeSlotRepo()
		svc := newTestService(repo)

		_, err := svc.ReserveForBooking(context.Background(), 99, "BK-test", testNow)

		assert.ErrorIs(t, err, ErrSlotNotFound)
	})

	t.Run("expired hold is self-healing", func(t *testing.T) {
		// Слот с истёкшим hold'ом бронируется без ожидания sweep'а
		repo := newFakeSlotRepo(&domain.Slot{
			ID:            1,
			Status:        domain.SlotRescheduleReserved,
			ReservedFor:   ptr.Ptr(int64(7)),
			ReservedUntil: ptr.Ptr(testNow.Add(-time.Minute)),
		})
		svc := newTestService(repo)

		slot, err := svc.ReserveForBooking(context.Background(), 1, "BK-test", testNow)

		require.NoError(t, err)
		assert.Equal(t, domain.SlotBooked, slot.Status)
	})

	t.Run("active hold is not bookable", func(t *testing.T) {
		repo := newFakeSlotRepo(&domain.Slot{
			ID:            1,
			Status:        domain.SlotRescheduleReserved,
			ReservedFor:   ptr.Ptr(int64(7)),
			ReservedUntil: ptr.Ptr(testNow.Add(time.Hour)),
		})
		svc := newTestService(repo)

		_, err := svc.ReserveForBooking(context.Background(), 1, "BK-test", testNow)

		assert.ErrorIs(t, err, ErrSlotUnavailable)
	})

	t.Run("concurrent reservations: exactly one wins", func(t *testing.T) {
		repo := newFakeSlotRepo(&domain.Slot{ID: 1, Status: domain.SlotAvailable})
		svc := newTestService(repo)

		const attempts = 16
		errs := make(chan error, attempts)

		var wg sync.WaitGroup
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.ReserveForBooking(context.Background(), 1, "BK-race", testNow)
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		winners, losers := 0, 0
		for err := range errs {
			if err == nil {
				winners++
			} else {
				assert.ErrorIs(t, err, ErrSlotUnavailable)
				losers++
			}
		}

		assert.Equal(t, 1, winners)
		assert.Equal(t, attempts-1, losers)
	})
}

func TestPlaceRescheduleHold(t *testing.T) {
	t.Run("places hold with 24h expiry", func(t *testing.T) {
		repo := newFakeSlotRepo(&domain.Slot{ID: 2, Status: domain.SlotAvailable})
		svc := newTestService(repo)

		slot, err := svc.PlaceRescheduleHold(context.Background(), 2, 42, testNow)

		require.NoError(t, err)
		assert.Equal(t, domain.SlotRescheduleReserved, slot.Status)
		require.NotNil(t, slot.ReservedFor)
		assert.Equal(t, int64(42), *slot.ReservedFor)
		require.NotNil(t, slot.ReservedUntil)
		assert.Equal(t, testNow.Add(domain.RescheduleHoldTTL), *slot.ReservedUntil)
	})

	t.Run("loses race to booked slot", func(t *testing.T) {
		repo := newFakeSlotRepo(&domain.Slot{ID: 2, Status: domain.SlotBooked})
		svc := newTestService(repo)

		_, err := svc.PlaceRescheduleHold(context.Background(), 2, 42, testNow)

		assert.ErrorIs(t, err, ErrSlotUnavailable)
	})

	t.Run("replaces expired foreign hold", func(t *testing.T) {
		repo := newFakeSlotRepo(&domain.Slot{
			ID:            2,
			Status:        domain.SlotRescheduleReserved,
			ReservedFor:   ptr.Ptr(int64(7)),
			ReservedUntil: ptr.Ptr(testNow.Add(-time.Hour)),
		})
		svc := newTestService(repo)

		slot, err := svc.PlaceRescheduleHold(context.Background(), 2, 42, testNow)

		require.NoError(t, err)
		assert.Equal(t, int64(42), *slot.ReservedFor)
	})
}

func TestCommitReschedule(t *testing.T) {
	t.Run("swaps both slots", func(t *testing.T) {
		repo := newFakeSlotRepo(
			&domain.Slot{ID: 1, Status: domain.SlotBooked},
			&domain.Slot{
				ID:            2,
				Status:        domain.SlotRescheduleReserved,
				ReservedFor:   ptr.Ptr(int64(42)),
				ReservedUntil: ptr.Ptr(testNow.Add(time.Hour)),
			},
		)
		svc := newTestService(repo)

		err := svc.CommitReschedule(context.Background(), 2, 1, 42, "BK-test")

		require.NoError(t, err)

		original, _ := repo.GetByID(context.Background(), 1)
		requested, _ := repo.GetByID(context.Background(), 2)
		assert.Equal(t, domain.SlotAvailable, original.Status)
		assert.Equal(t, domain.SlotBooked, requested.Status)
	})

	t.Run("fails when hold was swept", func(t *testing.T) {
		// Hold истёк и был снят - слот уже available
		repo := newFakeSlotRepo(
			&domain.Slot{ID: 1, Status: domain.SlotBooked},
			&domain.Slot{ID: 2, Status: domain.SlotAvailable},
		)
		svc := newTestService(repo)

		err := svc.CommitReschedule(context.Background(), 2, 1, 42, "BK-test")

		assert.ErrorIs(t, err, ErrCommitFailed)

		// Исходный слот не тронут
		original, _ := repo.GetByID(context.Background(), 1)
		assert.Equal(t, domain.SlotBooked, original.Status)
	})

	t.Run("fails when hold belongs to another customer", func(t *testing.T) {
		repo := newFakeSlotRepo(
			&domain.Slot{ID: 1, Status: domain.SlotBooked},
			&domain.Slot{
				ID:            2,
				Status:        domain.SlotRescheduleReserved,
				ReservedFor:   ptr.Ptr(int64(7)),
				ReservedUntil: ptr.Ptr(testNow.Add(time.Hour)),
			},
		)
		svc := newTestService(repo)

		err := svc.CommitReschedule(context.Background(), 2, 1, 42, "BK-test")

		assert.ErrorIs(t, err, ErrCommitFailed)
	})
}

func TestReleaseHold(t *testing.T) {
	t.Run("releases held slot", func(t *testing.T) {
		repo := newFakeSlotRepo(&domain.Slot{
			ID:          3,
			Status:      domain.SlotRescheduleReserved,
			ReservedFor: ptr.Ptr(int64(42)),
		})
		svc := newTestService(repo)

		err := svc.ReleaseHold(context.Background(), 3, 42, domain.ReasonRescheduleDeclined)

		require.NoError(t, err)
		slot, _ := repo.GetByID(context.Background(), 3)
		assert.Equal(t, domain.SlotAvailable, slot.Status)
	})

	t.Run("idempotent: double release is a no-op", func(t *testing.T) {
		repo := newFakeSlotRepo(&domain.Slot{
			ID:          3,
			Status:      domain.SlotRescheduleReserved,
			ReservedFor: ptr.Ptr(int64(42)),
		})
		svc := newTestService(repo)

		require.NoError(t, svc.ReleaseHold(context.Background(), 3, 42, domain.ReasonRescheduleDeclined))
		// Второй вызов - decline против expiry - тоже успех
		require.NoError(t, svc.ReleaseHold(context.Background(), 3, 42, domain.ReasonHoldExpired))

		slot, _ := repo.GetByID(context.Background(), 3)
		assert.Equal(t, domain.SlotAvailable, slot.Status)
	})

	t.Run("re-booked slot counts as already released", func(t *testing.T) {
		// Hold истёк, слот самовосстановился и был забронирован заново
		// Наш hold снят - это успех, и чужая бронь остаётся на месте
		repo := newFakeSlotRepo(&domain.Slot{ID: 3, Status: domain.SlotBooked})
		svc := newTestService(repo)

		err := svc.ReleaseHold(context.Background(), 3, 42, domain.ReasonHoldExpired)

		require.NoError(t, err)
		slot, _ := repo.GetByID(context.Background(), 3)
		assert.Equal(t, domain.SlotBooked, slot.Status)
	})

	t.Run("does not strip another customer's live hold", func(t *testing.T) {
		// Наш hold истёк, слот перехватил другой клиент - его живой hold
		// не трогаем, но наш считается снятым
		repo := newFakeSlotRepo(&domain.Slot{
			ID:            3,
			Status:        domain.SlotRescheduleReserved,
			ReservedFor:   ptr.Ptr(int64(77)),
			ReservedUntil: ptr.Ptr(testNow.Add(time.Hour)),
		})
		svc := newTestService(repo)

		err := svc.ReleaseHold(context.Background(), 3, 42, domain.ReasonHoldExpired)

		require.NoError(t, err)
		slot, _ := repo.GetByID(context.Background(), 3)
		assert.Equal(t, domain.SlotRescheduleReserved, slot.Status)
		require.NotNil(t, slot.ReservedFor)
		assert.Equal(t, int64(77), *slot.ReservedFor)
	})

	t.Run("missing slot", func(t *testing.T) {
		repo := newFakeSlotRepo()
		svc := newTestService(repo)

		err := svc.ReleaseHold(context.Background(), 99, 42, domain.ReasonRescheduleDeclined)

		assert.ErrorIs(t, err, ErrSlotNotFound)
	})
}

func TestReleaseForCancellation(t *testing.T) {
	repo := newFakeSlotRepo(&domain.Slot{ID: 4, Status: domain.SlotBooked})
	svc := newTestService(repo)

	err := svc.ReleaseForCancellation(context.Background(), 4)

	require.NoError(t, err)
	slot, _ := repo.GetByID(context.Background(), 4)
	assert.Equal(t, domain.SlotAvailable, slot.Status)
	require.NotNil(t, slot.ModificationReason)
	assert.Equal(t, domain.ReasonCancellation, *slot.ModificationReason)
}
