package create_booking

import (
	"time"

	"github.com/glossworks/GW-SlotService/internal/domain"
	createBooking "github.com/glossworks/GW-SlotService/internal/usecase/create_booking"
)

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	SlotID             int64   `json:"slotId"`
	ServiceName        string  `json:"serviceName"`
	VehicleDescription *string `json:"vehicleDescription,omitempty"`
	Notes              *string `json:"notes,omitempty"`
}

// ToUseCaseRequest конвертирует HTTP request в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest(userID int64) *createBooking.Request {
	return &createBooking.Request{
		UserID:             userID,
		SlotID:             r.SlotID,
		ServiceName:        r.ServiceName,
		VehicleDescription: r.VehicleDescription,
		Notes:              r.Notes,
	}
}

// BookingResponse HTTP response model
type BookingResponse struct {
	ID              int64  `json:"id"`
	Reference       string `json:"reference"`
	UserID          int64  `json:"userId"`
	SlotID          int64  `json:"slotId"`
	SlotDate        string `json:"slotDate"`
	StartTime       string `json:"startTime"`
	EndTime         string `json:"endTime"`
	Status          string `json:"status"`
	RescheduleCount int    `json:"rescheduleCount"`

	ServiceName        string  `json:"serviceName"`
	VehicleDescription *string `json:"vehicleDescription,omitempty"`
	Notes              *string `json:"notes,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createBooking.Response) *BookingResponse {
	return &BookingResponse{
		ID:                 resp.ID,
		Reference:          resp.Reference,
		UserID:             resp.UserID,
		SlotID:             resp.SlotID,
		SlotDate:           resp.SlotDate.Format(domain.DateFormat),
		StartTime:          resp.StartTime.String(),
		EndTime:            resp.EndTime.String(),
		Status:             resp.Status,
		RescheduleCount:    resp.RescheduleCount,
		ServiceName:        resp.ServiceName,
		VehicleDescription: resp.VehicleDescription,
		Notes:              resp.Notes,
		CreatedAt:          resp.CreatedAt,
		UpdatedAt:          resp.UpdatedAt,
	}
}
