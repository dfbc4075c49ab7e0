package domain

import (
	"time"

	"github.com/glossworks/GW-SlotService/pkg/types"
)

// SlotStatus represents the status of a bookable time slot
type SlotStatus string

const (
	SlotAvailable           SlotStatus = "available"
	SlotBooked              SlotStatus = "booked"
	SlotBlocked             SlotStatus = "blocked"
	SlotTemporarilyReserved SlotStatus = "temporarily_reserved"
	SlotRescheduleReserved  SlotStatus = "reschedule_reserved"
)

// HoldStatuses статусы, при которых слот удерживается с ограничением по времени
// Для этих статусов reserved_until обязателен
var HoldStatuses = []SlotStatus{
	SlotTemporarilyReserved,
	SlotRescheduleReserved,
}

// Slot represents a bookable time window for a single detailing appointment
// Слоты генерируются внешним генератором по недельному шаблону;
// единственный мутатор статуса - Reservation Engine
type Slot struct {
	ID                 int64
	SlotDate           time.Time        // Дата слота (без времени)
	StartTime          types.TimeString // Начало окна
	EndTime            types.TimeString // Конец окна (полуоткрытый интервал)
	Capacity           int              // Вместимость, почти всегда 1
	Status             SlotStatus
	ReservedFor        *int64     // Кто удерживает слот (для hold-статусов)
	ReservedUntil      *time.Time // Когда hold истекает
	ModificationReason *string    // Аудит-заметка о последнем изменении
	LastModified       time.Time
	CreatedAt          time.Time
}

// IsAvailable returns true if the slot is free for allocation
func (s *Slot) IsAvailable() bool {
	return s.Status == SlotAvailable
}

// IsBooked returns true if the slot is bound to an active booking
func (s *Slot) IsBooked() bool {
	return s.Status == SlotBooked
}

// IsHeld returns true if the slot carries a time-limited hold
func (s *Slot) IsHeld() bool {
	return s.Status == SlotTemporarilyReserved || s.Status == SlotRescheduleReserved
}

// HoldExpired проверяет, что hold на слоте логически истёк
// Истёкший hold считается истёкшим даже до того, как sweep перепишет статус
func (s *Slot) HoldExpired(now time.Time) bool {
	return s.IsHeld() && s.ReservedUntil != nil && s.ReservedUntil.Before(now)
}

// IsBookable проверяет, что слот можно выделить под бронирование:
// либо он свободен, либо удерживается истёкшим hold'ом
func (s *Slot) IsBookable(now time.Time) bool {
	return s.IsAvailable() || s.HoldExpired(now)
}

// IsHeldBy проверяет, что слот удерживается указанным пользователем
func (s *Slot) IsHeldBy(userID int64) bool {
	return s.IsHeld() && s.ReservedFor != nil && *s.ReservedFor == userID
}

// TransitionMeta метаданные перехода статуса слота
// Записываются атомарно вместе с новым статусом
type TransitionMeta struct {
	ReservedFor   *int64     // nil сбрасывает удержание
	ReservedUntil *time.Time // nil сбрасывает срок удержания
	Reason        string     // Аудит-заметка (modification_reason)
}
