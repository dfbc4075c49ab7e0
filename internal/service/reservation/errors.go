package reservation

import "errors"

var (
	// ErrSlotNotFound возвращается, когда слот не найден
	ErrSlotNotFound = errors.New("reservation: slot not found")

	// ErrSlotUnavailable возвращается, когда слот нельзя выделить:
	// он занят, заблокирован или CAS проиграл гонку другому актору
	// Вызывающий обязан показать пользователю "время больше недоступно",
	// а не повторять мутацию
	ErrSlotUnavailable = errors.New("reservation: slot is not available")

	// ErrCommitFailed возвращается, когда двухслотовый коммит переноса
	// не может завершиться целиком; транзакция откатывается, частичное
	// состояние не наблюдаемо
	ErrCommitFailed = errors.New("reservation: reschedule commit failed")

	// ErrInternal возвращается при внутренних ошибках движка
	ErrInternal = errors.New("reservation: internal error")
)
