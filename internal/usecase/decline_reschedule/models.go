package decline_reschedule

import "time"

// Request модель запроса на отклонение переноса
type Request struct {
	RequestID  int64
	AdminID    int64
	AdminNotes *string
}

// Response модель ответа: бронирование остаётся на исходном слоте
type Response struct {
	BookingID       int64
	BookingRef      string
	Status          string
	CurrentSlotID   int64
	RescheduleCount int
	UpdatedAt       time.Time
}
