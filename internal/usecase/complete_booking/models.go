package complete_booking

import "time"

// Request модель запроса на завершение бронирования
type Request struct {
	BookingID int64
	AdminID   int64
}

// Response модель ответа с завершённым бронированием
type Response struct {
	BookingID  int64
	BookingRef string
	Status     string
	UpdatedAt  time.Time
}
