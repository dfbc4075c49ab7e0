package domain

import "time"

// ActionPriority приоритет элемента админского worklist'а
type ActionPriority string

const (
	PriorityCritical ActionPriority = "critical"
	PriorityHigh     ActionPriority = "high"
	PriorityMedium   ActionPriority = "medium"
	PriorityLow      ActionPriority = "low"
)

// priorityRank численный ранг для сортировки (меньше = важнее)
var priorityRank = map[ActionPriority]int{
	PriorityCritical: 0,
	PriorityHigh:     1,
	PriorityMedium:   2,
	PriorityLow:      3,
}

// Rank возвращает численный ранг приоритета для сортировки
func (p ActionPriority) Rank() int {
	if rank, ok := priorityRank[p]; ok {
		return rank
	}
	return len(priorityRank)
}

// PendingRescheduleItem pending-заявка на перенос, ожидающая решения
type PendingRescheduleItem struct {
	Request     *RescheduleRequest
	DaysPending int // Сколько полных дней заявка ждет решения
}

// ExpiredHoldItem слот с истёкшим, но ещё не снятым hold'ом
type ExpiredHoldItem struct {
	Slot         *Slot
	HoursExpired int // Сколько полных часов hold просрочен
}

// FreedSlotItem слот, освобождённый отменой за последние 24 часа
type FreedSlotItem struct {
	Slot    *Slot
	FreedAt time.Time
}

// SlotConflictItem слот, у которого число активных бронирований превышает
// вместимость; в норме невозможен и означает запись в обход Reservation Engine
type SlotConflictItem struct {
	Slot           *Slot
	ActiveBookings int
}

// Worklist агрегированный список задач администратора
// Каждая из четырёх секций вычисляется независимо: сбой одной секции
// помечает её Degraded, остальные секции при этом отдаются
type Worklist struct {
	GeneratedAt time.Time

	Conflicts          []SlotConflictItem
	PendingReschedules []PendingRescheduleItem
	ExpiredHolds       []ExpiredHoldItem
	RecentlyFreed      []FreedSlotItem

	// Секции, которые не удалось вычислить
	DegradedViews []string
}

// TotalItems возвращает суммарное число элементов во всех секциях
func (w *Worklist) TotalItems() int {
	return len(w.Conflicts) + len(w.PendingReschedules) + len(w.ExpiredHolds) + len(w.RecentlyFreed)
}

// HasCritical проверяет наличие критичных элементов (конфликтов вместимости)
func (w *Worklist) HasCritical() bool {
	return len(w.Conflicts) > 0
}
