package create_booking

import (
	"time"

	"github.com/glossworks/GW-SlotService/pkg/types"
)

// Request модель запроса на создание бронирования
type Request struct {
	UserID             int64   // ID клиента
	SlotID             int64   // ID выбранного слота
	ServiceName        string  // Название услуги детейлинга
	VehicleDescription *string // Описание автомобиля (опционально)
	Notes              *string // Дополнительные заметки (опционально)
}

// Response модель ответа с созданным бронированием
type Response struct {
	ID              int64
	Reference       string
	UserID          int64
	SlotID          int64
	SlotDate        time.Time
	StartTime       types.TimeString
	EndTime         types.TimeString
	Status          string
	RescheduleCount int

	ServiceName        string
	VehicleDescription *string
	Notes              *string

	CreatedAt time.Time
	UpdatedAt time.Time
}
