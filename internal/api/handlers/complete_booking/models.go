package complete_booking

import (
	"time"

	completeBooking "github.com/glossworks/GW-SlotService/internal/usecase/complete_booking"
)

// CompletedBookingResponse HTTP response model
type CompletedBookingResponse struct {
	BookingID  int64     `json:"bookingId"`
	Reference  string    `json:"reference"`
	Status     string    `json:"status"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *completeBooking.Response) *CompletedBookingResponse {
	return &CompletedBookingResponse{
		BookingID: resp.BookingID,
		Reference: resp.BookingRef,
		Status:    resp.Status,
		UpdatedAt: resp.UpdatedAt,
	}
}
