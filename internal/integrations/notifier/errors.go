package notifier

import "errors"

var (
	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("notifier client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = errors.New("notifier client: invalid response")

	// ErrDeliveryFailed возвращается, когда NotificationService недоступен
	// Вызывающие обязаны логировать эту ошибку и не пробрасывать её как
	// сбой уже зафиксированного перехода
	ErrDeliveryFailed = errors.New("notifier client: delivery failed")
)
