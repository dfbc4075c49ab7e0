package domain

import "time"

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	StatusPending            BookingStatus = "pending"
	StatusConfirmed          BookingStatus = "confirmed"
	StatusCompleted          BookingStatus = "completed"
	StatusCancelled          BookingStatus = "cancelled"
	StatusRescheduleDeclined BookingStatus = "reschedule_declined"
)

// ActorRole роль инициатора изменения (пишется в историю статусов)
type ActorRole string

const (
	RoleCustomer ActorRole = "customer"
	RoleAdmin    ActorRole = "admin"
	RoleSystem   ActorRole = "system" // Фоновый sweep
)

// Booking represents a customer's commitment to a detailing appointment
// at a specific slot
type Booking struct {
	ID              int64
	Reference       string // Человекочитаемая ссылка, уникальная (BK-xxxxxxxx)
	UserID          int64
	CurrentSlotID   int64 // Для терминальных статусов - последний занятый слот (аудит)
	Status          BookingStatus
	RescheduleCount int // Не больше MaxReschedules

	ServiceName        string
	VehicleDescription *string
	Notes              *string

	CancellationReason *string
	CancelledAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// bookingTransitions допустимые переходы статусов
// Переходы в обход машины состояний запрещены; терминальные статусы
// (completed, cancelled) не имеют исходящих переходов
var bookingTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:            {StatusConfirmed, StatusCancelled},
	StatusConfirmed:          {StatusCompleted, StatusCancelled, StatusRescheduleDeclined},
	StatusRescheduleDeclined: {StatusConfirmed, StatusCancelled},
	StatusCompleted:          {},
	StatusCancelled:          {},
}

// CanTransitionTo проверяет допустимость перехода статуса
func (b *Booking) CanTransitionTo(target BookingStatus) bool {
	for _, allowed := range bookingTransitions[b.Status] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsActive returns true if the booking still occupies its slot
func (b *Booking) IsActive() bool {
	return b.Status == StatusPending ||
		b.Status == StatusConfirmed ||
		b.Status == StatusRescheduleDeclined
}

// IsTerminal returns true if no further lifecycle operations are allowed
func (b *Booking) IsTerminal() bool {
	return b.Status == StatusCompleted || b.Status == StatusCancelled
}

// CanBeCancelled returns true if the booking can be cancelled
func (b *Booking) CanBeCancelled() bool {
	return b.CanTransitionTo(StatusCancelled)
}

// CanBeRescheduled проверяет, что статус бронирования допускает перенос
// Лимит переносов проверяется отдельно через RescheduleLimitReached
func (b *Booking) CanBeRescheduled() bool {
	return b.Status == StatusConfirmed || b.Status == StatusRescheduleDeclined
}

// RescheduleLimitReached проверяет, что лимит переносов исчерпан
func (b *Booking) RescheduleLimitReached() bool {
	return b.RescheduleCount >= MaxReschedules
}

// StatusHistoryEntry запись append-only журнала статусов бронирования
// Журнал используется админским worklist'ом (недавние отмены) и аудитом
type StatusHistoryEntry struct {
	ID        int64
	BookingID int64
	Status    BookingStatus
	ActorID   int64
	ActorRole ActorRole
	Note      *string
	CreatedAt time.Time
}
