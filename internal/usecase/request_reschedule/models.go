package request_reschedule

import "time"

// Request модель запроса на перенос бронирования
type Request struct {
	BookingID       int64
	CustomerID      int64   // Владелец бронирования
	RequestedSlotID int64   // Целевой слот
	Reason          *string // Причина переноса (опционально)
}

// Response модель ответа с созданной заявкой
type Response struct {
	ID              int64
	BookingID       int64
	CustomerID      int64
	OriginalSlotID  int64
	RequestedSlotID int64
	Status          string
	Reason          *string
	RequestedAt     time.Time
	ExpiresAt       time.Time
}
