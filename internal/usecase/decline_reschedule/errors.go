package decline_reschedule

import "errors"

var (
	// ErrRequestNotFound возвращается, когда заявка на перенос не найдена
	ErrRequestNotFound = errors.New("decline_reschedule: request not found")

	// ErrRequestNotPending возвращается, когда заявка уже разрешена
	ErrRequestNotPending = errors.New("decline_reschedule: request is not pending")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("decline_reschedule: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("decline_reschedule: internal error")
)
