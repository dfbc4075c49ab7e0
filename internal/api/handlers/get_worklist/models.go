package get_worklist

import (
	"time"

	"github.com/glossworks/GW-SlotService/internal/domain"
)

// SlotInfo данные слота в элементе worklist'а
type SlotInfo struct {
	ID        int64  `json:"id"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Status    string `json:"status"`
}

// ConflictItem слот с превышением вместимости
type ConflictItem struct {
	Priority       string   `json:"priority"`
	Slot           SlotInfo `json:"slot"`
	ActiveBookings int      `json:"activeBookings"`
	Capacity       int      `json:"capacity"`
}

// PendingRescheduleItem pending-заявка на перенос
type PendingRescheduleItem struct {
	Priority        string  `json:"priority"`
	RequestID       int64   `json:"requestId"`
	BookingID       int64   `json:"bookingId"`
	OriginalSlotID  int64   `json:"originalSlotId"`
	RequestedSlotID int64   `json:"requestedSlotId"`
	Reason          *string `json:"reason,omitempty"`
	RequestedAt     string  `json:"requestedAt"`
	ExpiresAt       string  `json:"expiresAt"`
	DaysPending     int     `json:"daysPending"`
}

// ExpiredHoldItem слот с истёкшим, но не снятым hold'ом
type ExpiredHoldItem struct {
	Priority     string   `json:"priority"`
	Slot         SlotInfo `json:"slot"`
	HoursExpired int      `json:"hoursExpired"`
}

// FreedSlotItem слот, освобождённый отменой
type FreedSlotItem struct {
	Priority string   `json:"priority"`
	Slot     SlotInfo `json:"slot"`
	FreedAt  string   `json:"freedAt"`
}

// WorklistResponse HTTP response model
// Секции отдаются в порядке приоритета: critical > high > medium > low
type WorklistResponse struct {
	GeneratedAt        time.Time               `json:"generatedAt"`
	TotalItems         int                     `json:"totalItems"`
	HasCritical        bool                    `json:"hasCritical"`
	Conflicts          []ConflictItem          `json:"conflicts"`
	PendingReschedules []PendingRescheduleItem `json:"pendingReschedules"`
	ExpiredHolds       []ExpiredHoldItem       `json:"expiredHolds"`
	RecentlyFreed      []FreedSlotItem         `json:"recentlyFreed"`
	DegradedViews      []string                `json:"degradedViews,omitempty"`
}

func slotInfo(s *domain.Slot) SlotInfo {
	return SlotInfo{
		ID:        s.ID,
		Date:      s.SlotDate.Format(domain.DateFormat),
		StartTime: s.StartTime.String(),
		EndTime:   s.EndTime.String(),
		Status:    string(s.Status),
	}
}

// FromDomainWorklist конвертирует domain worklist в HTTP response
func FromDomainWorklist(w *domain.Worklist) *WorklistResponse {
	resp := &WorklistResponse{
		GeneratedAt:        w.GeneratedAt,
		TotalItems:         w.TotalItems(),
		HasCritical:        w.HasCritical(),
		Conflicts:          make([]ConflictItem, 0, len(w.Conflicts)),
		PendingReschedules: make([]PendingRescheduleItem, 0, len(w.PendingReschedules)),
		ExpiredHolds:       make([]ExpiredHoldItem, 0, len(w.ExpiredHolds)),
		RecentlyFreed:      make([]FreedSlotItem, 0, len(w.RecentlyFreed)),
		DegradedViews:      w.DegradedViews,
	}

	for _, item := range w.Conflicts {
		resp.Conflicts = append(resp.Conflicts, ConflictItem{
			Priority:       string(domain.PriorityCritical),
			Slot:           slotInfo(item.Slot),
			ActiveBookings: item.ActiveBookings,
			Capacity:       item.Slot.Capacity,
		})
	}

	for _, item := range w.PendingReschedules {
		resp.PendingReschedules = append(resp.PendingReschedules, PendingRescheduleItem{
			Priority:        string(domain.PriorityHigh),
			RequestID:       item.Request.ID,
			BookingID:       item.Request.BookingID,
			OriginalSlotID:  item.Request.OriginalSlotID,
			RequestedSlotID: item.Request.RequestedSlotID,
			Reason:          item.Request.Reason,
			RequestedAt:     item.Request.RequestedAt.Format(time.RFC3339),
			ExpiresAt:       item.Request.ExpiresAt.Format(time.RFC3339),
			DaysPending:     item.DaysPending,
		})
	}

	for _, item := range w.ExpiredHolds {
		resp.ExpiredHolds = append(resp.ExpiredHolds, ExpiredHoldItem{
			Priority:     string(domain.PriorityMedium),
			Slot:         slotInfo(item.Slot),
			HoursExpired: item.HoursExpired,
		})
	}

	for _, item := range w.RecentlyFreed {
		resp.RecentlyFreed = append(resp.RecentlyFreed, FreedSlotItem{
			Priority: string(domain.PriorityLow),
			Slot:     slotInfo(item.Slot),
			FreedAt:  item.FreedAt.Format(time.RFC3339),
		})
	}

	return resp
}
