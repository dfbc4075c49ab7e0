package domain

import "time"

// Business rule constants
const (
	// MaxReschedules максимальное число успешных переносов одного бронирования
	MaxReschedules = 3

	// RescheduleHoldTTL время жизни hold'а на целевой слот переноса
	RescheduleHoldTTL = 24 * time.Hour

	// FreedSlotWindow окно, в котором освобождённые отменой слоты
	// показываются в админском worklist'е
	FreedSlotWindow = 24 * time.Hour

	// MinSlotCapacity минимальная вместимость слота
	MinSlotCapacity = 1

	MaxNotesLength              = 500
	MaxReasonLength             = 500
	MaxCancellationReasonLength = 500
)

// Modification reasons аудит-заметки, записываемые при переходах статусов слота
// ReasonCancellation используется worklist'ом для поиска недавно
// освобождённых слотов, менять формат нельзя без миграции
const (
	ReasonBookingCreated     = "booking created"
	ReasonCancellation       = "cancellation"
	ReasonRescheduleHold     = "reschedule hold placed"
	ReasonRescheduleCommit   = "reschedule approved"
	ReasonRescheduleFreed    = "freed by reschedule"
	ReasonRescheduleDeclined = "reschedule declined"
	ReasonHoldExpired        = "hold expired"
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)
