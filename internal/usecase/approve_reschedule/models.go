package approve_reschedule

import "time"

// Request модель запроса на одобрение переноса
type Request struct {
	RequestID  int64
	AdminID    int64
	AdminNotes *string
}

// Response модель ответа с обновлённым бронированием
type Response struct {
	BookingID       int64
	BookingRef      string
	Status          string
	CurrentSlotID   int64 // Новый слот после коммита
	OriginalSlotID  int64 // Освобождённый слот
	RescheduleCount int
	UpdatedAt       time.Time
}
