package request_reschedule

import (
	"time"

	requestReschedule "github.com/glossworks/GW-SlotService/internal/usecase/request_reschedule"
)

// RescheduleRequest HTTP request model
type RescheduleRequest struct {
	RequestedSlotID int64   `json:"requestedSlotId"`
	Reason          *string `json:"reason,omitempty"`
}

// ToUseCaseRequest конвертирует HTTP request в модель use case
func (r *RescheduleRequest) ToUseCaseRequest(bookingID, customerID int64) *requestReschedule.Request {
	return &requestReschedule.Request{
		BookingID:       bookingID,
		CustomerID:      customerID,
		RequestedSlotID: r.RequestedSlotID,
		Reason:          r.Reason,
	}
}

// RescheduleResponse HTTP response model
type RescheduleResponse struct {
	ID              int64     `json:"id"`
	BookingID       int64     `json:"bookingId"`
	OriginalSlotID  int64     `json:"originalSlotId"`
	RequestedSlotID int64     `json:"requestedSlotId"`
	Status          string    `json:"status"`
	Reason          *string   `json:"reason,omitempty"`
	RequestedAt     time.Time `json:"requestedAt"`
	ExpiresAt       time.Time `json:"expiresAt"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *requestReschedule.Response) *RescheduleResponse {
	return &RescheduleResponse{
		ID:              resp.ID,
		BookingID:       resp.BookingID,
		OriginalSlotID:  resp.OriginalSlotID,
		RequestedSlotID: resp.RequestedSlotID,
		Status:          resp.Status,
		Reason:          resp.Reason,
		RequestedAt:     resp.RequestedAt,
		ExpiresAt:       resp.ExpiresAt,
	}
}
