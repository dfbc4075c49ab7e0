package reservation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glossworks/GW-SlotService/internal/domain"
	bookingRepo "github.com/glossworks/GW-SlotService/internal/infra/storage/booking"
	rescheduleRepo "github.com/glossworks/GW-SlotService/internal/infra/storage/reschedule"
	slotRepo "github.com/glossworks/GW-SlotService/internal/infra/storage/slot"
	"github.com/glossworks/GW-SlotService/internal/integrations/notifier"
	"github.com/glossworks/GW-SlotService/internal/service/reservation"
	"github.com/glossworks/GW-SlotService/internal/usecase/cancel_booking"
	"github.com/glossworks/GW-SlotService/internal/usecase/create_booking"
	"github.com/glossworks/GW-SlotService/internal/usecase/expire_requests"
	"github.com/glossworks/GW-SlotService/internal/usecase/request_reschedule"
	"github.com/glossworks/GW-SlotService/pkg/ptr"
)

// memoryStore in-memory состояние всех трёх агрегатов под одним мьютексом
// Через фасады slotStore/bookingStore/requestStore реализует репозитории
// с той же guarded/CAS-семантикой, что и SQL-слой
type memoryStore struct {
	mu       sync.Mutex
	slots    map[int64]*domain.Slot
	bookings map[int64]*domain.Booking
	requests map[int64]*domain.RescheduleRequest
	history  []*domain.StatusHistoryEntry

	nextBookingID int64
	nextRequestID int64
}

func newMemoryStore(slots ...*domain.Slot) *memoryStore {
	store := &memoryStore{
		slots:    make(map[int64]*domain.Slot),
		bookings: make(map[int64]*domain.Booking),
		requests: make(map[int64]*domain.RescheduleRequest),
	}
	for _, s := range slots {
		store.slots[s.ID] = s
	}
	return store
}

type storeSnapshot struct {
	slots    map[int64]*domain.Slot
	bookings map[int64]*domain.Booking
	requests map[int64]*domain.RescheduleRequest
	history  []*domain.StatusHistoryEntry

	nextBookingID int64
	nextRequestID int64
}

func (m *memoryStore) snapshot() *storeSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := &storeSnapshot{
		slots:         make(map[int64]*domain.Slot, len(m.slots)),
		bookings:      make(map[int64]*domain.Booking, len(m.bookings)),
		requests:      make(map[int64]*domain.RescheduleRequest, len(m.requests)),
		history:       append([]*domain.StatusHistoryEntry(nil), m.history...),
		nextBookingID: m.nextBookingID,
		nextRequestID: m.nextRequestID,
	}
	for id, s := range m.slots {
		copied := *s
		snap.slots[id] = &copied
	}
	for id, b := range m.bookings {
		copied := *b
		snap.bookings[id] = &copied
	}
	for id, r := range m.requests {
		copied := *r
		snap.requests[id] = &copied
	}
	return snap
}

func (m *memoryStore) restore(snap *storeSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.slots = snap.slots
	m.bookings = snap.bookings
	m.requests = snap.requests
	m.history = snap.history
	m.nextBookingID = snap.nextBookingID
	m.nextRequestID = snap.nextRequestID
}

// memoryTxManager транзакция поверх memoryStore: ошибка внутри fn
// откатывает все изменения стора, как настоящий ROLLBACK
type memoryTxManager struct {
	store *memoryStore
	calls int
}

func (m *memoryTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	snap := m.store.snapshot()
	if err := fn(ctx); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

type slotStore struct{ *memoryStore }

func (s slotStore) GetByID(_ context.Context, id int64) (*domain.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.slots[id]
	if !ok {
		return nil, slotRepo.ErrSlotNotFound
	}
	copied := *slot
	return &copied, nil
}

func (s slotStore) Transition(_ context.Context, id int64, expected, newStatus domain.SlotStatus, meta domain.TransitionMeta) (*domain.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.slots[id]
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

func (s slotStore) ReleaseExpiredHold(_ context.Context, id int64, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.slots[id]
	if !ok {
		return nil
	}
	if slot.HoldExpired(now) {
		slot.Status = domain.SlotAvailable
		slot.ReservedFor = nil
		slot.ReservedUntil = nil
		slot.ModificationReason = ptr.Ptr(domain.ReasonHoldExpired)
	}
	return nil
}

type bookingStore struct{ *memoryStore }

func (s bookingStore) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	booking, ok := s.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	copied := *booking
	return &copied, nil
}

func (s bookingStore) Create(_ context.Context, booking *domain.Booking) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextBookingID++
	created := *booking
	created.ID = s.nextBookingID
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	s.bookings[created.ID] = &created

	copied := created
	return &copied, nil
}

func (s bookingStore) Cancel(_ context.Context, id int64, expected domain.BookingStatus, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	booking, ok := s.bookings[id]
	if !ok {
		return bookingRepo.ErrBookingNotFound
	}
	if booking.Status != expected {
		return bookingRepo.ErrStatusConflict
	}

	booking.Status = domain.StatusCancelled
	booking.CancellationReason = ptr.Ptr(reason)
	booking.CancelledAt = ptr.Ptr(time.Now())
	booking.UpdatedAt = time.Now()
	return nil
}

func (s bookingStore) AppendHistory(_ context.Context, entry *domain.StatusHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *entry
	copied.ID = int64(len(s.history) + 1)
	copied.CreatedAt = time.Now()
	s.history = append(s.history, &copied)
	return nil
}

type requestStore struct{ *memoryStore }

func (s requestStore) Create(_ context.Context, request *domain.RescheduleRequest) (*domain.RescheduleRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.requests {
		if r.BookingID == request.BookingID && r.IsPending() {
			return nil, rescheduleRepo.ErrDuplicatePending
		}
	}

	s.nextRequestID++
	created := *request
	created.ID = s.nextRequestID
	created.RequestedAt = time.Now()
	s.requests[created.ID] = &created

	copied := created
	return &copied, nil
}

func (s requestStore) GetPendingByBookingID(_ context.Context, bookingID int64) (*domain.RescheduleRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.requests {
		if r.BookingID == bookingID && r.IsPending() {
			copied := *r
			return &copied, nil
		}
	}
	return nil, rescheduleRepo.ErrRequestNotFound
}

func (s requestStore) Resolve(_ context.Context, id int64, newStatus domain.RescheduleStatus, adminNotes *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	request, ok := s.requests[id]
	if !ok {
		return rescheduleRepo.ErrRequestNotFound
	}
	if !request.IsPending() {
		return rescheduleRepo.ErrStatusConflict
	}

	request.Status = newStatus
	request.AdminNotes = adminNotes
	request.RespondedAt = ptr.Ptr(time.Now())
	return nil
}

func (s requestStore) ListExpiredPending(_ context.Context, now time.Time) ([]*domain.RescheduleRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []*domain.RescheduleRequest
	for _, r := range s.requests {
		if r.IsExpiredByClock(now) {
			copied := *r
			expired = append(expired, &copied)
		}
	}
	return expired, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifier.Event
}

func (n *recordingNotifier) Send(_ context.Context, event notifier.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) types() []notifier.EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	types := make([]notifier.EventType, 0, len(n.events))
	for _, e := range n.events {
		types = append(types, e.Type)
	}
	return types
}

type quietLogger struct{}

func (quietLogger) Info(string, ...interface{})  {}
func (quietLogger) Warn(string, ...interface{})  {}
func (quietLogger) Error(string, ...interface{}) {}

// rewindHold сдвигает hold слота и срок заявки в прошлое - эквивалент
// прошедших суток без ожидания реального времени
func (m *memoryStore) rewindHold(slotID, requestID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	past := time.Now().Add(-time.Minute)
	if slot, ok := m.slots[slotID]; ok && slot.ReservedUntil != nil {
		slot.ReservedUntil = ptr.Ptr(past)
	}
	if request, ok := m.requests[requestID]; ok {
		request.ExpiresAt = past
	}
}

// TestBookingLifecycle проводит бронирование через полный жизненный цикл
// на реальном reservation engine и реальных use case'ах поверх in-memory
// хранилища: создание, заявка на перенос, истечение hold'а, перехват
// целевого слота другим клиентом, sweep и отмена
func TestBookingLifecycle(t *testing.T) {
	ctx := context.Background()

	store := newMemoryStore(
		&domain.Slot{ID: 1, SlotDate: time.Now().AddDate(0, 0, 7), StartTime: "10:00", EndTime: "12:00", Capacity: 1, Status: domain.SlotAvailable},
		&domain.Slot{ID: 2, SlotDate: time.Now().AddDate(0, 0, 8), StartTime: "14:00", EndTime: "16:00", Capacity: 1, Status: domain.SlotAvailable},
	)
	slots := slotStore{store}
	bookings := bookingStore{store}
	requests := requestStore{store}
	tx := &memoryTxManager{store: store}
	events := &recordingNotifier{}
	log := quietLogger{}

	engine := reservation.NewService(slots, log)

	createUC := create_booking.NewUseCase(engine, bookings, events, tx, log)
	rescheduleUC := request_reschedule.NewUseCase(engine, bookings, requests, events, tx, log)
	sweepUC := expire_requests.NewUseCase(engine, bookings, requests, events, tx, log)
	cancelUC := cancel_booking.NewUseCase(engine, bookings, requests, events, tx, log)

	// 1. Клиент 100 бронирует слот 1
	created, err := createUC.Execute(ctx, &create_booking.Request{
		UserID:      100,
		SlotID:      1,
		ServiceName: "Полная детейлинг-мойка",
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusConfirmed), created.Status)

	slot1, err := slots.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.SlotBooked, slot1.Status)

	// 2. Клиент просит перенос на слот 2 - hold на сутки
	requested, err := rescheduleUC.Execute(ctx, &request_reschedule.Request{
		BookingID:       created.ID,
		CustomerID:      100,
		RequestedSlotID: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.ReschedulePending), requested.Status)

	slot2, err := slots.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, domain.SlotRescheduleReserved, slot2.Status)
	require.NotNil(t, slot2.ReservedFor)
	assert.Equal(t, int64(100), *slot2.ReservedFor)

	// Sweep до истечения срока ничего не трогает
	pass, err := sweepUC.Execute(ctx)
	require.NoError(t, err)
	assert.Empty(t, pass.ExpiredIDs)
	assert.Zero(t, pass.Skipped)

	// 3. Админ не ответил за сутки: hold и заявка истекли
	store.rewindHold(2, requested.ID)

	// 4. Клиент 200 перехватывает слот 2 - истёкший hold самовосстанавливается
	rebooked, err := createUC.Execute(ctx, &create_booking.Request{
		UserID:      200,
		SlotID:      2,
		ServiceName: "Химчистка салона",
	})
	require.NoError(t, err)

	slot2, err = slots.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, domain.SlotBooked, slot2.Status)

	// 5. Sweep помечает заявку expired, не трогая новую бронь на слоте 2
	// Перезанятый слот для sweep'а эквивалентен уже снятому hold'у
	pass, err = sweepUC.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{requested.ID}, pass.ExpiredIDs)
	assert.Zero(t, pass.Skipped)

	slot2, err = slots.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, domain.SlotBooked, slot2.Status)

	// Повторный проход идемпотентен: заявка уже не pending
	pass, err = sweepUC.Execute(ctx)
	require.NoError(t, err)
	assert.Empty(t, pass.ExpiredIDs)
	assert.Zero(t, pass.Skipped)

	// 6. Клиент 100 отменяет бронирование - исходный слот освобождается
	err = cancelUC.Execute(ctx, &cancel_booking.Request{
		BookingID: created.ID,
		ActorID:   100,
		ActorRole: domain.RoleCustomer,
		Reason:    "передумал",
	})
	require.NoError(t, err)

	cancelled, err := bookings.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)

	slot1, err = slots.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.SlotAvailable, slot1.Status)

	// Бронь клиента 200 на слоте 2 не пострадала
	other, err := bookings.GetByID(ctx, rebooked.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, other.Status)

	assert.Equal(t, []notifier.EventType{
		notifier.EventBookingCreated,
		notifier.EventRescheduleRequested,
		notifier.EventBookingCreated,
		notifier.EventRescheduleExpired,
		notifier.EventBookingCancelled,
	}, events.types())
}
