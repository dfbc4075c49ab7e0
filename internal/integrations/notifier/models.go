package notifier

import "time"

// EventType тип события уведомления
type EventType string

const (
	EventBookingCreated      EventType = "booking_created"
	EventBookingCancelled    EventType = "booking_cancelled"
	EventBookingCompleted    EventType = "booking_completed"
	EventRescheduleRequested EventType = "reschedule_requested"
	EventRescheduleApproved  EventType = "reschedule_approved"
	EventRescheduleDeclined  EventType = "reschedule_declined"
	EventRescheduleExpired   EventType = "reschedule_expired"
)

// Event структурированное событие для отправки в NotificationService
// Отправляется строго после коммита перехода; сбой доставки логируется
// и не влияет на уже зафиксированное состояние
type Event struct {
	EventID     string    `json:"eventId"`
	Type        EventType `json:"type"`
	BookingID   int64     `json:"bookingId"`
	BookingRef  string    `json:"bookingRef"`
	RecipientID int64     `json:"recipientId"`
	OldSlotID   *int64    `json:"oldSlotId,omitempty"`
	NewSlotID   *int64    `json:"newSlotId,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}
