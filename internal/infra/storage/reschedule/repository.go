package reschedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/glossworks/GW-SlotService/internal/domain"
	"github.com/glossworks/GW-SlotService/pkg/dbmetrics"
	"github.com/glossworks/GW-SlotService/pkg/psqlbuilder"
)

// uniquePendingConstraint имя partial unique index из миграции:
// максимум одна pending-заявка на бронирование
const uniquePendingConstraint = "uq_reschedule_requests_pending_booking"

// requestColumns полный список колонок таблицы reschedule_requests
var requestColumns = []string{
	"id",
	"booking_id",
	"customer_id",
	"original_slot_id",
	"requested_slot_id",
	"status",
	"reason",
	"admin_notes",
	"requested_at",
	"responded_at",
	"expires_at",
}

// Repository репозиторий для работы с заявками на перенос
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория заявок на перенос
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает pending-заявку на перенос
// Инвариант "одна pending-заявка на бронирование" обеспечивает partial
// unique index; его нарушение транслируется в ErrDuplicatePending
func (r *Repository) Create(ctx context.Context, request *domain.RescheduleRequest) (*domain.RescheduleRequest, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("reschedule_requests").
		Columns(
			"booking_id",
			"customer_id",
			"original_slot_id",
			"requested_slot_id",
			"status",
			"reason",
			"expires_at",
		).
		Values(
			request.BookingID,
			request.CustomerID,
			request.OriginalSlotID,
			request.RequestedSlotID,
			request.Status,
			request.Reason,
			request.ExpiresAt,
		).
		Suffix("RETURNING id, requested_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var requestedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&request.ID,
		&requestedAt,
	)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Constraint == uniquePendingConstraint {
			return nil, ErrDuplicatePending
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	request.RequestedAt = requestedAt.Time

	return request, nil
}

// GetByID получает заявку по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.RescheduleRequest, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(requestColumns...).
		From("reschedule_requests").
		Where(squirrel.Eq{"id": id})

	// Решение по заявке идёт в той же транзакции - блокируем строку
	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	request, err := r.scanRequest(executor.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("%w: GetByID - scan request: %v", ErrScanRow, err)
	}

	return request, nil
}

// GetPendingByBookingID получает pending-заявку бронирования, если она есть
func (r *Repository) GetPendingByBookingID(ctx context.Context, bookingID int64) (*domain.RescheduleRequest, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(requestColumns...).
		From("reschedule_requests").
		Where(squirrel.Eq{
			"booking_id": bookingID,
			"status":     domain.ReschedulePending,
		})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetPendingByBookingID - build select query: %v", ErrBuildQuery, err)
	}

	request, err := r.scanRequest(executor.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("%w: GetPendingByBookingID - scan request: %v", ErrScanRow, err)
	}

	return request, nil
}

// ListPending получает все pending-заявки, сначала самые старые
// Используется worklist'ом (секция pending reschedules)
func (r *Repository) ListPending(ctx context.Context) ([]*domain.RescheduleRequest, error) {
	return r.list(ctx, squirrel.Eq{"status": domain.ReschedulePending}, "ListPending")
}

// ListExpiredPending получает pending-заявки с истёкшим expires_at
// Используется sweep'ом; сортировка от самых старых
func (r *Repository) ListExpiredPending(ctx context.Context, now time.Time) ([]*domain.RescheduleRequest, error) {
	return r.list(ctx, squirrel.And{
		squirrel.Eq{"status": domain.ReschedulePending},
		squirrel.Lt{"expires_at": now},
	}, "ListExpiredPending")
}

func (r *Repository) list(ctx context.Context, where squirrel.Sqlizer, method string) ([]*domain.RescheduleRequest, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(requestColumns...).
		From("reschedule_requests").
		Where(where).
		OrderBy("requested_at ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, method, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s - execute query: %v", ErrExecQuery, method, err)
	}
	defer rows.Close()

	requests := make([]*domain.RescheduleRequest, 0)
	for rows.Next() {
		request, err := r.scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %s - scan row: %v", ErrScanRow, method, err)
		}
		requests = append(requests, request)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s - rows error: %v", ErrScanRow, method, err)
	}

	return requests, nil
}

// Resolve переводит pending-заявку в терминальный статус
// Guarded: WHERE status = pending; проигранная гонка (админ против sweep)
// возвращает ErrStatusConflict, и вызывающий решает, эквивалентен ли
// чужой исход его собственному
func (r *Repository) Resolve(ctx context.Context, id int64, newStatus domain.RescheduleStatus, adminNotes *string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("reschedule_requests").
		Set("status", newStatus).
		Set("admin_notes", adminNotes).
		Set("responded_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{
			"id":     id,
			"status": domain.ReschedulePending,
		}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Resolve - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Resolve - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Resolve - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			if errors.Is(getErr, ErrRequestNotFound) {
				return ErrRequestNotFound
			}
			return getErr
		}
		return ErrStatusConflict
	}

	return nil
}

// rowScanner общий интерфейс *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanRequest сканирует одну строку в заявку
func (r *Repository) scanRequest(row rowScanner) (*domain.RescheduleRequest, error) {
	var request domain.RescheduleRequest
	var requestedAt sql.NullTime

	err := row.Scan(
		&request.ID,
		&request.BookingID,
		&request.CustomerID,
		&request.OriginalSlotID,
		&request.RequestedSlotID,
		&request.Status,
		&request.Reason,
		&request.AdminNotes,
		&requestedAt,
		&request.RespondedAt,
		&request.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	request.RequestedAt = requestedAt.Time

	return &request, nil
}
