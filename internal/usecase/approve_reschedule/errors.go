package approve_reschedule

import "errors"

var (
	// ErrRequestNotFound возвращается, когда заявка на перенос не найдена
	ErrRequestNotFound = errors.New("approve_reschedule: request not found")

	// ErrRequestNotPending возвращается, когда заявка уже разрешена
	// (админом, expiry-sweep'ом) либо истекла по часам
	ErrRequestNotPending = errors.New("approve_reschedule: request is not pending")

	// ErrCommitFailed возвращается, когда двухслотовый коммит не может
	// завершиться целиком; бронирование остаётся на исходном слоте
	ErrCommitFailed = errors.New("approve_reschedule: commit failed")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("approve_reschedule: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("approve_reschedule: internal error")
)
