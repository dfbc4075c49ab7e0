package request_reschedule

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("request_reschedule: booking not found")

	// ErrSlotNotFound возвращается, когда целевой слот не найден
	ErrSlotNotFound = errors.New("request_reschedule: slot not found")

	// ErrSlotUnavailable возвращается, когда целевой слот нельзя удержать
	// (занят или hold проиграл гонку)
	ErrSlotUnavailable = errors.New("request_reschedule: slot is not available")

	// ErrAccessDenied возвращается, когда актор не владелец бронирования
	ErrAccessDenied = errors.New("request_reschedule: access denied")

	// ErrBookingNotReschedulable возвращается, когда статус бронирования
	// не допускает перенос (pending, completed, cancelled)
	ErrBookingNotReschedulable = errors.New("request_reschedule: booking is not reschedulable")

	// ErrRescheduleLimitExceeded возвращается при исчерпанном лимите переносов
	ErrRescheduleLimitExceeded = errors.New("request_reschedule: reschedule limit exceeded")

	// ErrAlreadyPending возвращается, когда у бронирования уже есть
	// pending-заявка на перенос
	ErrAlreadyPending = errors.New("request_reschedule: booking already has a pending request")

	// ErrSameSlot возвращается при попытке перенести бронирование
	// на его же текущий слот
	ErrSameSlot = errors.New("request_reschedule: requested slot equals current slot")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("request_reschedule: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("request_reschedule: internal error")
)
