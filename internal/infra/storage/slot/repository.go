package slot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/glossworks/GW-SlotService/internal/domain"
	"github.com/glossworks/GW-SlotService/pkg/dbmetrics"
	"github.com/glossworks/GW-SlotService/pkg/psqlbuilder"
)

// slotColumns полный список колонок таблицы slots в порядке сканирования
var slotColumns = []string{
	"id",
	"slot_date",
	"start_time",
	"end_time",
	"capacity",
	"status",
	"reserved_for",
	"reserved_until",
	"modification_reason",
	"last_modified",
	"created_at",
}

// Repository репозиторий для работы со слотами
// Transition - единственный мутатор статуса; все изменения идут через CAS
// по полю status (optimistic concurrency)
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория слотов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByID получает слот по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(slotColumns...).
		From("slots").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	slot, err := r.scanSlot(executor.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("%w: GetByID - scan slot: %v", ErrScanRow, err)
	}

	return slot, nil
}

// ListByDate получает слоты на дату, упорядоченные по времени начала
// Опционально фильтрует по статусам
func (r *Repository) ListByDate(ctx context.Context, date time.Time, statuses ...domain.SlotStatus) ([]*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(slotColumns...).
		From("slots").
		Where(squirrel.Eq{"slot_date": date}).
		OrderBy("start_time ASC")

	if len(statuses) > 0 {
		statusStrings := make([]string, len(statuses))
		for i, s := range statuses {
			statusStrings[i] = string(s)
		}
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": statusStrings})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByDate - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByDate - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanSlots(rows)
}

// Transition атомарно переводит слот из expected в newStatus
// CAS: UPDATE срабатывает только если текущий статус равен expected.
// Ноль обновлённых строк означает либо отсутствие слота (ErrSlotNotFound),
// либо проигранную гонку (ErrStatusConflict) - проигравший не должен
// повторять мутацию вслепую, а обязан вернуть пользователю
// "слот больше недоступен"
func (r *Repository) Transition(ctx context.Context, id int64, expected, newStatus domain.SlotStatus, meta domain.TransitionMeta) (*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("slots").
		Set("status", newStatus).
		Set("reserved_for", meta.ReservedFor).
		Set("reserved_until", meta.ReservedUntil).
		Set("modification_reason", meta.Reason).
		Set("last_modified", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "status": expected}).
		Suffix("RETURNING " + joinColumns(slotColumns)).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Transition - build update query: %v", ErrBuildQuery, err)
	}

	slot, err := r.scanSlot(executor.QueryRowContext(ctx, query, args...))
	if err == nil {
		return slot, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: Transition - scan slot: %v", ErrScanRow, err)
	}

	// CAS не сработал - различаем "нет слота" и "проиграли гонку"
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		if errors.Is(getErr, ErrSlotNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, getErr
	}

	return nil, ErrStatusConflict
}

// ReleaseExpiredHold нормализует истёкший hold: переводит слот в available,
// если он в hold-статусе и reserved_until < now
// Идемпотентна: ноль обновлённых строк - не ошибка (гонку нормализации
// выиграл кто-то другой, либо hold уже снят)
func (r *Repository) ReleaseExpiredHold(ctx context.Context, id int64, now time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	holdStatuses := make([]string, len(domain.HoldStatuses))
	for i, s := range domain.HoldStatuses {
		holdStatuses[i] = string(s)
	}

	query, args, err := psqlbuilder.Update("slots").
		Set("status", domain.SlotAvailable).
		Set("reserved_for", nil).
		Set("reserved_until", nil).
		Set("modification_reason", domain.ReasonHoldExpired).
		Set("last_modified", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": holdStatuses}).
		Where(squirrel.Lt{"reserved_until": now}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: ReleaseExpiredHold - build update query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: ReleaseExpiredHold - execute update: %v", ErrExecQuery, err)
	}

	return nil
}

// ListExpiredHolds получает слоты с истёкшими, но ещё не снятыми hold'ами
// Используется worklist'ом (секция expired holds)
func (r *Repository) ListExpiredHolds(ctx context.Context, now time.Time) ([]*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	holdStatuses := make([]string, len(domain.HoldStatuses))
	for i, s := range domain.HoldStatuses {
		holdStatuses[i] = string(s)
	}

	query, args, err := psqlbuilder.Select(slotColumns...).
		From("slots").
		Where(squirrel.Eq{"status": holdStatuses}).
		Where(squirrel.Lt{"reserved_until": now}).
		OrderBy("reserved_until ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListExpiredHolds - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListExpiredHolds - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanSlots(rows)
}

// ListFreedSince получает слоты, освобождённые отменой после since
// Отбор идёт по modification_reason, которую пишет Reservation Engine
// при отмене бронирования; сортировка - сначала новые
func (r *Repository) ListFreedSince(ctx context.Context, since time.Time) ([]*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(slotColumns...).
		From("slots").
		Where(squirrel.Eq{"status": domain.SlotAvailable}).
		Where(squirrel.Eq{"modification_reason": domain.ReasonCancellation}).
		Where(squirrel.GtOrEq{"last_modified": since}).
		OrderBy("last_modified DESC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListFreedSince - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListFreedSince - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanSlots(rows)
}

// OverbookedSlot слот с числом активных бронирований, превышающим вместимость
type OverbookedSlot struct {
	Slot           *domain.Slot
	ActiveBookings int
}

// ListOverbooked находит слоты, на которые ссылается больше активных
// бронирований, чем допускает вместимость
// При эксклюзивном использовании Reservation Engine таких слотов быть
// не может; непустой результат означает запись в обход движка
func (r *Repository) ListOverbooked(ctx context.Context) ([]*OverbookedSlot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	activeStatuses := []string{
		string(domain.StatusPending),
		string(domain.StatusConfirmed),
		string(domain.StatusRescheduleDeclined),
	}

	query, args, err := psqlbuilder.Select(
		"s.id",
		"s.slot_date",
		"s.start_time",
		"s.end_time",
		"s.capacity",
		"s.status",
		"s.reserved_for",
		"s.reserved_until",
		"s.modification_reason",
		"s.last_modified",
		"s.created_at",
		"COUNT(b.id) AS active_bookings",
	).
		From("slots s").
		Join("bookings b ON b.current_slot_id = s.id").
		Where(squirrel.Eq{"b.status": activeStatuses}).
		GroupBy(
			"s.id", "s.slot_date", "s.start_time", "s.end_time", "s.capacity",
			"s.status", "s.reserved_for", "s.reserved_until",
			"s.modification_reason", "s.last_modified", "s.created_at",
		).
		Having("COUNT(b.id) > s.capacity").
		OrderBy("s.slot_date ASC, s.start_time ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListOverbooked - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListOverbooked - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	result := make([]*OverbookedSlot, 0)
	for rows.Next() {
		var slot domain.Slot
		var lastModified, createdAt sql.NullTime
		var count int

		err := rows.Scan(
			&slot.ID,
			&slot.SlotDate,
			&slot.StartTime,
			&slot.EndTime,
			&slot.Capacity,
			&slot.Status,
			&slot.ReservedFor,
			&slot.ReservedUntil,
			&slot.ModificationReason,
			&lastModified,
			&createdAt,
			&count,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: ListOverbooked - scan row: %v", ErrScanRow, err)
		}

		slot.LastModified = lastModified.Time
		slot.CreatedAt = createdAt.Time

		result = append(result, &OverbookedSlot{Slot: &slot, ActiveBookings: count})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListOverbooked - rows error: %v", ErrScanRow, err)
	}

	return result, nil
}

// rowScanner общий интерфейс *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanSlot сканирует одну строку в слот
func (r *Repository) scanSlot(row rowScanner) (*domain.Slot, error) {
	var slot domain.Slot
	var lastModified, createdAt sql.NullTime

	err := row.Scan(
		&slot.ID,
		&slot.SlotDate,
		&slot.StartTime,
		&slot.EndTime,
		&slot.Capacity,
		&slot.Status,
		&slot.ReservedFor,
		&slot.ReservedUntil,
		&slot.ModificationReason,
		&lastModified,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	slot.LastModified = lastModified.Time
	slot.CreatedAt = createdAt.Time

	return &slot, nil
}

// scanSlots сканирует результаты запроса в слайс слотов
func (r *Repository) scanSlots(rows *sql.Rows) ([]*domain.Slot, error) {
	slots := make([]*domain.Slot, 0)

	for rows.Next() {
		slot, err := r.scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanSlots - scan row: %v", ErrScanRow, err)
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanSlots - rows error: %v", ErrScanRow, err)
	}

	return slots, nil
}

// joinColumns собирает список колонок для RETURNING
func joinColumns(columns []string) string {
	return strings.Join(columns, ", ")
}
