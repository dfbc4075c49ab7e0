package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/glossworks/GW-SlotService/pkg/ptr"
)

func TestSlot_HoldExpired(t *testing.T) {
	now := time.Date(2025, 1, 8, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		slot    Slot
		expired bool
	}{
		{
			name:    "available slot has no hold",
			slot:    Slot{Status: SlotAvailable},
			expired: false,
		},
		{
			name: "active reschedule hold",
			slot: Slot{
				Status:        SlotRescheduleReserved,
				ReservedUntil: ptr.Ptr(now.Add(time.Hour)),
			},
			expired: false,
		},
		{
			name: "expired reschedule hold",
			slot: Slot{
				Status:        SlotRescheduleReserved,
				ReservedUntil: ptr.Ptr(now.Add(-time.Minute)),
			},
			expired: true,
		},
		{
			name: "expired temporary hold",
			slot: Slot{
				Status:        SlotTemporarilyReserved,
				ReservedUntil: ptr.Ptr(now.Add(-time.Hour)),
			},
			expired: true,
		},
		{
			name: "booked slot ignores reserved_until",
			slot: Slot{
				Status:        SlotBooked,
				ReservedUntil: ptr.Ptr(now.Add(-time.Hour)),
			},
			expired: false,
		},
		{
			name:    "hold status without reserved_until",
			slot:    Slot{Status: SlotRescheduleReserved},
			expired: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expired, tt.slot.HoldExpired(now))
		})
	}
}

func TestSlot_IsBookable(t *testing.T) {
	now := time.Date(2025, 1, 8, 12, 0, 0, 0, time.UTC)

	// Свободный слот можно выделять
	available := Slot{Status: SlotAvailable}
	assert.True(t, available.IsBookable(now))

	// Истёкший hold не блокирует выделение, даже если sweep ещё не прошёл
	expiredHold := Slot{
		Status:        SlotRescheduleReserved,
		ReservedUntil: ptr.Ptr(now.Add(-time.Minute)),
	}
	assert.True(t, expiredHold.IsBookable(now))

	// Активный hold блокирует
	activeHold := Slot{
		Status:        SlotRescheduleReserved,
		ReservedUntil: ptr.Ptr(now.Add(time.Hour)),
	}
	assert.False(t, activeHold.IsBookable(now))

	assert.False(t, (&Slot{Status: SlotBooked}).IsBookable(now))
	assert.False(t, (&Slot{Status: SlotBlocked}).IsBookable(now))
}

func TestSlot_IsHeldBy(t *testing.T) {
	slot := Slot{
		Status:      SlotRescheduleReserved,
		ReservedFor: ptr.Ptr(int64(42)),
	}
	assert.True(t, slot.IsHeldBy(42))
	assert.False(t, slot.IsHeldBy(43))
	assert.False(t, (&Slot{Status: SlotAvailable}).IsHeldBy(42))
}

func TestActionPriority_Rank(t *testing.T) {
	assert.Less(t, PriorityCritical.Rank(), PriorityHigh.Rank())
	assert.Less(t, PriorityHigh.Rank(), PriorityMedium.Rank())
	assert.Less(t, PriorityMedium.Rank(), PriorityLow.Rank())
}
