package domain

import "time"

// RescheduleStatus represents the status of a reschedule request
type RescheduleStatus string

const (
	ReschedulePending  RescheduleStatus = "pending"
	RescheduleApproved RescheduleStatus = "approved"
	RescheduleDeclined RescheduleStatus = "declined"
	RescheduleExpired  RescheduleStatus = "expired"
)

// RescheduleRequest заявка на перенос бронирования на другой слот
// Пока заявка pending, requested_slot удерживается в статусе
// reschedule_reserved с reserved_for = customer_id; на одно бронирование
// допустима максимум одна pending-заявка
type RescheduleRequest struct {
	ID              int64
	BookingID       int64
	CustomerID      int64
	OriginalSlotID  int64
	RequestedSlotID int64
	Status          RescheduleStatus
	Reason          *string // Причина переноса, указанная клиентом
	AdminNotes      *string // Комментарий администратора при решении
	RequestedAt     time.Time
	RespondedAt     *time.Time
	ExpiresAt       time.Time // Когда hold на requested_slot истекает
}

// IsPending returns true if the request is awaiting an admin decision
func (r *RescheduleRequest) IsPending() bool {
	return r.Status == ReschedulePending
}

// IsExpiredByClock проверяет, что pending-заявка логически истекла,
// даже если sweep ещё не пометил её expired
func (r *RescheduleRequest) IsExpiredByClock(now time.Time) bool {
	return r.IsPending() && r.ExpiresAt.Before(now)
}

// IsResolved returns true if an admin or the sweep already finalized the request
func (r *RescheduleRequest) IsResolved() bool {
	return r.Status == RescheduleApproved ||
		r.Status == RescheduleDeclined ||
		r.Status == RescheduleExpired
}
