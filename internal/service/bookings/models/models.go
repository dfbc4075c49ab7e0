package models

import (
	"errors"
	"time"

	"github.com/glossworks/GW-SlotService/internal/domain"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid booking status")
)

// Request модели

// GetUserBookingsRequest запрос на получение бронирований пользователя
type GetUserBookingsRequest struct {
	UserID int64   `json:"userId"`
	Status *string `json:"status,omitempty"`
}

// Response модели

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID              int64  `json:"id"`
	Reference       string `json:"reference"`
	UserID          int64  `json:"userId"`
	CurrentSlotID   int64  `json:"currentSlotId"`
	Status          string `json:"status"`
	RescheduleCount int    `json:"rescheduleCount"`

	ServiceName        string  `json:"serviceName"`
	VehicleDescription *string `json:"vehicleDescription,omitempty"`
	Notes              *string `json:"notes,omitempty"`

	CancellationReason *string `json:"cancellationReason,omitempty"`
	CancelledAt        *string `json:"cancelledAt,omitempty"` // ISO 8601 format

	// PendingReschedule заполнен, если по бронированию есть неразрешённая
	// заявка на перенос
	PendingReschedule *RescheduleInfo `json:"pendingReschedule,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RescheduleInfo краткая информация о заявке на перенос
type RescheduleInfo struct {
	ID              int64   `json:"id"`
	OriginalSlotID  int64   `json:"originalSlotId"`
	RequestedSlotID int64   `json:"requestedSlotId"`
	Status          string  `json:"status"`
	Reason          *string `json:"reason,omitempty"`
	RequestedAt     string  `json:"requestedAt"` // ISO 8601 format
	ExpiresAt       string  `json:"expiresAt"`   // ISO 8601 format
}

// BookingListResponse ответ со списком бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

// HistoryEntryResponse запись журнала статусов
type HistoryEntryResponse struct {
	Status    string  `json:"status"`
	ActorRole string  `json:"actorRole"`
	Note      *string `json:"note,omitempty"`
	CreatedAt string  `json:"createdAt"` // ISO 8601 format
}

// BookingHistoryResponse ответ с журналом статусов бронирования
type BookingHistoryResponse struct {
	BookingID int64                  `json:"bookingId"`
	Reference string                 `json:"reference"`
	History   []HistoryEntryResponse `json:"history"`
}

// Методы конвертации

// FromDomainBooking конвертирует domain модель в DTO
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}

	resp := &BookingResponse{
		ID:                 b.ID,
		Reference:          b.Reference,
		UserID:             b.UserID,
		CurrentSlotID:      b.CurrentSlotID,
		Status:             string(b.Status),
		RescheduleCount:    b.RescheduleCount,
		ServiceName:        b.ServiceName,
		VehicleDescription: b.VehicleDescription,
		Notes:              b.Notes,
		CancellationReason: b.CancellationReason,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}

	if b.CancelledAt != nil {
		cancelledStr := b.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &cancelledStr
	}

	return resp
}

// FromDomainReschedule конвертирует заявку на перенос в DTO
func FromDomainReschedule(r *domain.RescheduleRequest) *RescheduleInfo {
	if r == nil {
		return nil
	}

	return &RescheduleInfo{
		ID:              r.ID,
		OriginalSlotID:  r.OriginalSlotID,
		RequestedSlotID: r.RequestedSlotID,
		Status:          string(r.Status),
		Reason:          r.Reason,
		RequestedAt:     r.RequestedAt.Format(time.RFC3339),
		ExpiresAt:       r.ExpiresAt.Format(time.RFC3339),
	}
}

// FromDomainBookingList конвертирует список domain моделей в DTO
func FromDomainBookingList(bookings []*domain.Booking) *BookingListResponse {
	if bookings == nil {
		return &BookingListResponse{
			Bookings: []BookingResponse{},
		}
	}

	resp := &BookingListResponse{
		Bookings: make([]BookingResponse, len(bookings)),
	}

	for i, booking := range bookings {
		if bookingResp := FromDomainBooking(booking); bookingResp != nil {
			resp.Bookings[i] = *bookingResp
		}
	}

	return resp
}

// FromDomainHistory конвертирует журнал статусов в DTO
func FromDomainHistory(booking *domain.Booking, entries []*domain.StatusHistoryEntry) *BookingHistoryResponse {
	resp := &BookingHistoryResponse{
		BookingID: booking.ID,
		Reference: booking.Reference,
		History:   make([]HistoryEntryResponse, len(entries)),
	}

	for i, entry := range entries {
		resp.History[i] = HistoryEntryResponse{
			Status:    string(entry.Status),
			ActorRole: string(entry.ActorRole),
			Note:      entry.Note,
			CreatedAt: entry.CreatedAt.Format(time.RFC3339),
		}
	}

	return resp
}

// ToDomainBookingStatus конвертирует строку в domain.BookingStatus с валидацией
func ToDomainBookingStatus(status string) (domain.BookingStatus, error) {
	s := domain.BookingStatus(status)

	validStatuses := []domain.BookingStatus{
		domain.StatusPending,
		domain.StatusConfirmed,
		domain.StatusCompleted,
		domain.StatusCancelled,
		domain.StatusRescheduleDeclined,
	}

	for _, valid := range validStatuses {
		if s == valid {
			return s, nil
		}
	}

	return "", ErrInvalidStatus
}
