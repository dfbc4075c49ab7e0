package cancel_booking

import "github.com/glossworks/GW-SlotService/internal/domain"

// Request модель запроса на отмену бронирования
type Request struct {
	BookingID int64
	ActorID   int64            // Кто отменяет
	ActorRole domain.ActorRole // customer или admin (из заголовков запроса)
	Reason    string           // Причина отмены
}
