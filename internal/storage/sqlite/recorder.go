package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/atelier/internal/domain"
)

// Recorder выполняет запись события и обновление заказа в одной
// SQLite-транзакции: частичное состояние не становится долговечным
// и не видно конкурентным читателям.
type Recorder struct {
	db *sql.DB
}

// NewRecorder создаёт транзакционную точку записи.
func NewRecorder(store *Store) *Recorder {
	return &Recorder{db: store.DB()}
}

// Record дописывает событие и сохраняет заказ в одной транзакции.
// При конфликте версий транзакция откатывается целиком.
func (r *Recorder) Record(event domain.Event, order domain.Order) (domain.Event, error) {
	if err := event.Validate(); err != nil {
		return domain.Event{}, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Event{}, fmt.Errorf("begin record tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET description = ?,
		    planned_minutes = ?,
		    planned_qty = ?,
		    realized_qty = ?,
		    status = ?,
		    version = version + 1,
		    updated_at = ?
		WHERE id = ?
		  AND version = ?
	`,
		order.Description,
		order.PlannedMinutes,
		order.PlannedQty,
		order.RealizedQty,
		string(order.Status),
		toMillis(order.UpdatedAt),
		order.ID,
		order.Version,
	)
	if err != nil {
		return domain.Event{}, fmt.Errorf("update order: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Event{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		var id string
		err := tx.QueryRowContext(ctx, `SELECT id FROM orders WHERE id = ?`, order.ID).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Event{}, domain.ErrOrderNotFound
		}
		if err != nil {
			return domain.Event{}, fmt.Errorf("check order exists: %w", err)
		}
		return domain.Event{}, domain.ErrOrderVersionConflict
	}

	insert, err := tx.ExecContext(ctx, `
		INSERT INTO order_events (order_id, kind, occurred, cause, note, qty, recorded_at)
		VALUES (?,?,?,?,?,?,?)
	`,
		event.OrderID, string(event.Kind), toMillis(event.Occurred),
		event.Cause, event.Note, event.Qty, toMillis(time.Now()),
	)
	if err != nil {
		return domain.Event{}, fmt.Errorf("insert event: %w", err)
	}

	seq, err := insert.LastInsertId()
	if err != nil {
		return domain.Event{}, fmt.Errorf("last insert id: %w", err)
	}
	event.Seq = seq

	if err := tx.Commit(); err != nil {
		return domain.Event{}, fmt.Errorf("commit record tx: %w", err)
	}

	return event, nil
}

var _ domain.EventRecorder = (*Recorder)(nil)
