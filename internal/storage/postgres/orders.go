package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"dronebook/internal/models"
	"dronebook/internal/storage"
	"dronebook/internal/types"
)

const orderColumns = `id, club_id, first_name, last_name, email,
	to_char(order_date, 'YYYY-MM-DD'), to_char(start_time, 'HH24:MI:SS'), to_char(end_time, 'HH24:MI:SS'),
	status, status_version, operator_id, created_at, updated_at`

func scanOrder(row pgx.Row) (*models.Order, error) {
	var o models.Order
	var operatorID *string
	err := row.Scan(
		&o.ID, &o.ClubID, &o.FirstName, &o.LastName, &o.Email,
		&o.OrderDate, &o.StartTime, &o.EndTime,
		&o.Status, &o.StatusVersion, &operatorID, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	o.OperatorID = toIDPtr(operatorID)
	return &o, nil
}

func (t *tx) GetOrder(ctx context.Context, id types.ID) (*models.Order, error) {
	return scanOrder(t.q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, string(id)))
}

func (t *tx) ListOrders(ctx context.Context, f storage.OrderFilter) ([]*models.Order, error) {
	var q query
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		q.where("status = ANY(" + q.arg(statuses) + ")")
	}
	if f.OperatorID != nil {
		q.where("operator_id = " + q.arg(string(*f.OperatorID)))
	}
	if f.Unassigned {
		q.where("operator_id IS NULL")
	}
	if f.ClubID != nil {
		q.where("club_id = " + q.arg(string(*f.ClubID)))
	}
	sql := `SELECT ` + orderColumns + ` FROM orders` + q.clause() +
		` ORDER BY order_date, start_time, id` + q.page(f.Page)
	rows, err := t.q.Query(ctx, sql, q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (t *tx) CreateOrder(ctx context.Context, o *models.Order) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO orders (
			id, club_id, first_name, last_name, email,
			order_date, start_time, end_time,
			status, status_version, operator_id, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6::date, $7::time, $8::time,
			$9, $10, $11, $12, $13
		)`,
		string(o.ID), string(o.ClubID), o.FirstName, o.LastName, o.Email,
		o.OrderDate, o.StartTime, o.EndTime,
		string(o.Status), o.StatusVersion, toStringPtr(o.OperatorID), o.CreatedAt, o.UpdatedAt,
	)
	return mapErr(err)
}

func (t *tx) UpdateOrder(ctx context.Context, o *models.Order) error {
	tag, err := t.q.Exec(ctx, `
		UPDATE orders
		SET club_id = $3, first_name = $4, last_name = $5, email = $6,
		    order_date = $7::date, start_time = $8::time, end_time = $9::time,
		    status = $10, operator_id = $11, updated_at = $12,
		    status_version = status_version + 1
		WHERE id = $1 AND status_version = $2`,
		string(o.ID), o.StatusVersion,
		string(o.ClubID), o.FirstName, o.LastName, o.Email,
		o.OrderDate, o.StartTime, o.EndTime,
		string(o.Status), toStringPtr(o.OperatorID), o.UpdatedAt,
	)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := t.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, string(o.ID)).Scan(&exists); err != nil {
			return mapErr(err)
		}
		if !exists {
			return types.ErrNotFound
		}
		return types.ErrConcurrentUpdate
	}
	o.StatusVersion++
	return nil
}

func (t *tx) DeleteOrder(ctx context.Context, id types.ID) error {
	return expectOne(t.q.Exec(ctx, `DELETE FROM orders WHERE id = $1`, string(id)))
}

func (t *tx) AppendOrderEvent(ctx context.Context, e *models.OrderEvent) error {
	err := t.q.QueryRow(ctx, `
		INSERT INTO order_state_events (order_id, from_status, to_status, actor_type, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		string(e.OrderID), string(e.FromStatus), string(e.ToStatus), e.ActorType, toStringPtr(e.ActorID), e.CreatedAt,
	).Scan(&e.ID)
	return mapErr(err)
}

func (t *tx) ListUnpublishedEvents(ctx context.Context, limit int) ([]*models.OrderEvent, error) {
	var q query
	q.where("published_at IS NULL")
	sql := `
		SELECT id, order_id, from_status, to_status, actor_type, actor_id, created_at, published_at
		FROM order_state_events` + q.clause() + ` ORDER BY id` + q.page(storage.Page{Limit: limit})
	rows, err := t.q.Query(ctx, sql, q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.OrderEvent
	for rows.Next() {
		var e models.OrderEvent
		var actorID *string
		if err := rows.Scan(&e.ID, &e.OrderID, &e.FromStatus, &e.ToStatus, &e.ActorType, &actorID, &e.CreatedAt, &e.PublishedAt); err != nil {
			return nil, err
		}
		e.ActorID = toIDPtr(actorID)
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (t *tx) MarkEventsPublished(ctx context.Context, ids []int64, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := t.q.Exec(ctx, `
		UPDATE order_state_events SET published_at = $1
		WHERE id = ANY($2) AND published_at IS NULL`, at, ids)
	return mapErr(err)
}
