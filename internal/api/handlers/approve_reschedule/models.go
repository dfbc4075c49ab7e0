package approve_reschedule

import (
	"time"

	approveReschedule "github.com/glossworks/GW-SlotService/internal/usecase/approve_reschedule"
)

// ApproveRequest HTTP request model
type ApproveRequest struct {
	AdminNotes *string `json:"adminNotes,omitempty"`
}

// ApprovedRescheduleResponse HTTP response model
type ApprovedRescheduleResponse struct {
	BookingID       int64     `json:"bookingId"`
	Reference       string    `json:"reference"`
	Status          string    `json:"status"`
	CurrentSlotID   int64     `json:"currentSlotId"`
	OriginalSlotID  int64     `json:"originalSlotId"`
	RescheduleCount int       `json:"rescheduleCount"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *approveReschedule.Response) *ApprovedRescheduleResponse {
	return &ApprovedRescheduleResponse{
		BookingID:       resp.BookingID,
		Reference:       resp.BookingRef,
		Status:          resp.Status,
		CurrentSlotID:   resp.CurrentSlotID,
		OriginalSlotID:  resp.OriginalSlotID,
		RescheduleCount: resp.RescheduleCount,
		UpdatedAt:       resp.UpdatedAt,
	}
}
