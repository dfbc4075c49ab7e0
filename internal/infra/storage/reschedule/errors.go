package reschedule

import "errors"

var (
	// ErrRequestNotFound возвращается, когда заявка на перенос не найдена
	ErrRequestNotFound = errors.New("reschedule.repository: request not found")

	// ErrStatusConflict возвращается, когда guarded-обновление проиграло
	// гонку: заявку уже разрешил кто-то другой (админ или sweep)
	ErrStatusConflict = errors.New("reschedule.repository: request status conflict")

	// ErrDuplicatePending возвращается при попытке создать вторую
	// pending-заявку на то же бронирование (partial unique index)
	ErrDuplicatePending = errors.New("reschedule.repository: booking already has a pending request")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("reschedule.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("reschedule.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("reschedule.repository: failed to scan row")
)
