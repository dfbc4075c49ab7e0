package worklist

import (
	"context"
	"time"

	"github.com/glossworks/GW-SlotService/internal/domain"
)

// Имена секций в Worklist.DegradedViews
const (
	ViewConflicts          = "conflicts"
	ViewPendingReschedules = "pending_reschedules"
	ViewExpiredHolds       = "expired_holds"
	ViewRecentlyFreed      = "recently_freed"
)

// Service агрегатор админского worklist'а
// Только читает: нормализацию истёкших hold'ов выполняет sweep,
// секция expired_holds лишь показывает, что он ещё не подобрал
type Service struct {
	slotRepo       SlotRepository
	rescheduleRepo RescheduleRepository
	logger         Logger
}

// NewService создает новый экземпляр агрегатора
func NewService(
	slotRepo SlotRepository,
	rescheduleRepo RescheduleRepository,
	logger Logger,
) *Service {
	return &Service{
		slotRepo:       slotRepo,
		rescheduleRepo: rescheduleRepo,
		logger:         logger,
	}
}

// Build собирает worklist на момент now
// Каждая секция вычисляется независимо: сбой одной помечает её в
// DegradedViews, остальные секции при этом отдаются
func (s *Service) Build(ctx context.Context, now time.Time) *domain.Worklist {
	w := &domain.Worklist{GeneratedAt: now}

	s.buildConflicts(ctx, w)
	s.buildPendingReschedules(ctx, w, now)
	s.buildExpiredHolds(ctx, w, now)
	s.buildRecentlyFreed(ctx, w, now)

	s.logger.Info("Build: worklist assembled, items=%d degraded=%v", w.TotalItems(), w.DegradedViews)
	return w
}

// buildConflicts секция critical: бронирований на слоте больше вместимости
func (s *Service) buildConflicts(ctx context.Context, w *domain.Worklist) {
	overbooked, err := s.slotRepo.ListOverbooked(ctx)
	if err != nil {
		s.logger.Error("buildConflicts: %v", err)
		w.DegradedViews = append(w.DegradedViews, ViewConflicts)
		return
	}

	w.Conflicts = make([]domain.SlotConflictItem, 0, len(overbooked))
	for _, item := range overbooked {
		w.Conflicts = append(w.Conflicts, domain.SlotConflictItem{
			Slot:           item.Slot,
			ActiveBookings: item.ActiveBookings,
		})
	}

	if len(w.Conflicts) > 0 {
		s.logger.Warn("buildConflicts: %d overbooked slots detected", len(w.Conflicts))
	}
}

// buildPendingReschedules секция high: заявки в порядке старшинства
func (s *Service) buildPendingReschedules(ctx context.Context, w *domain.Worklist, now time.Time) {
	requests, err := s.rescheduleRepo.ListPending(ctx)
	if err != nil {
		s.logger.Error("buildPendingReschedules: %v", err)
		w.DegradedViews = append(w.DegradedViews, ViewPendingReschedules)
		return
	}

	w.PendingReschedules = make([]domain.PendingRescheduleItem, 0, len(requests))
	for _, request := range requests {
		days := int(now.Sub(request.RequestedAt).Hours() / 24)
		if days < 0 {
			days = 0
		}
		w.PendingReschedules = append(w.PendingReschedules, domain.PendingRescheduleItem{
			Request:     request,
			DaysPending: days,
		})
	}
}

// buildExpiredHolds секция medium: hold'ы, которые sweep ещё не снял
func (s *Service) buildExpiredHolds(ctx context.Context, w *domain.Worklist, now time.Time) {
	slots, err := s.slotRepo.ListExpiredHolds(ctx, now)
	if err != nil {
		s.logger.Error("buildExpiredHolds: %v", err)
		w.DegradedViews = append(w.DegradedViews, ViewExpiredHolds)
		return
	}

	w.ExpiredHolds = make([]domain.ExpiredHoldItem, 0, len(slots))
	for _, slot := range slots {
		hours := 0
		if slot.ReservedUntil != nil {
			hours = int(now.Sub(*slot.ReservedUntil).Hours())
			if hours < 0 {
				hours = 0
			}
		}
		w.ExpiredHolds = append(w.ExpiredHolds, domain.ExpiredHoldItem{
			Slot:         slot,
			HoursExpired: hours,
		})
	}
}

// buildRecentlyFreed секция low: слоты, освобождённые отменой за окно
func (s *Service) buildRecentlyFreed(ctx context.Context, w *domain.Worklist, now time.Time) {
	since := now.Add(-domain.FreedSlotWindow)

	slots, err := s.slotRepo.ListFreedSince(ctx, since)
	if err != nil {
		s.logger.Error("buildRecentlyFreed: %v", err)
		w.DegradedViews = append(w.DegradedViews, ViewRecentlyFreed)
		return
	}

	w.RecentlyFreed = make([]domain.FreedSlotItem, 0, len(slots))
	for _, slot := range slots {
		w.RecentlyFreed = append(w.RecentlyFreed, domain.FreedSlotItem{
			Slot:    slot,
			FreedAt: slot.LastModified,
		})
	}
}
