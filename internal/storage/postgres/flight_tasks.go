package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"dronebook/internal/models"
	"dronebook/internal/storage"
	"dronebook/internal/types"
)

// pointRecord is the jsonb shape of one route point.
type pointRecord struct {
	SequenceNumber int     `json:"sequence_number"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	Altitude       float64 `json:"altitude"`
	Color          string  `json:"color"`
}

func encodePoints(points []models.RoutePoint) ([]byte, error) {
	recs := make([]pointRecord, len(points))
	for i, p := range points {
		recs[i] = pointRecord(p)
	}
	return json.Marshal(recs)
}

func decodePoints(raw []byte) ([]models.RoutePoint, error) {
	var recs []pointRecord
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, fmt.Errorf("decode route points: %w", err)
	}
	points := make([]models.RoutePoint, len(recs))
	for i, r := range recs {
		points[i] = models.RoutePoint(r)
	}
	return points, nil
}

func (t *tx) GetRoute(ctx context.Context, id types.ID) (*models.Route, error) {
	var r models.Route
	var raw []byte
	err := t.q.QueryRow(ctx, `
		SELECT id, club_id, points, created_at, updated_at
		FROM routes WHERE id = $1`, string(id),
	).Scan(&r.ID, &r.ClubID, &raw, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	if r.Points, err = decodePoints(raw); err != nil {
		return nil, err
	}
	return &r, nil
}

func (t *tx) CreateRoute(ctx context.Context, r *models.Route) error {
	raw, err := encodePoints(r.Points)
	if err != nil {
		return err
	}
	_, err = t.q.Exec(ctx, `
		INSERT INTO routes (id, club_id, points, created_at, updated_at)
		VALUES ($1, $2, $3::jsonb, $4, $5)`,
		string(r.ID), string(r.ClubID), string(raw), r.CreatedAt, r.UpdatedAt,
	)
	return mapErr(err)
}

func (t *tx) UpdateRoute(ctx context.Context, r *models.Route) error {
	raw, err := encodePoints(r.Points)
	if err != nil {
		return err
	}
	return expectOne(t.q.Exec(ctx, `
		UPDATE routes SET club_id = $2, points = $3::jsonb, updated_at = $4 WHERE id = $1`,
		string(r.ID), string(r.ClubID), string(raw), r.UpdatedAt,
	))
}

func (t *tx) DeleteRoute(ctx context.Context, id types.ID) error {
	return expectOne(t.q.Exec(ctx, `DELETE FROM routes WHERE id = $1`, string(id)))
}

const taskColumns = `ft.id, ft.order_id, ft.operator_id, ft.route_id, ft.drone_id, ft.camera_id, ft.lens_id, ft.created_at, ft.updated_at`

func scanTask(row pgx.Row) (*models.FlightTask, error) {
	var ft models.FlightTask
	var lensID *string
	err := row.Scan(&ft.ID, &ft.OrderID, &ft.OperatorID, &ft.RouteID, &ft.DroneID, &ft.CameraID, &lensID, &ft.CreatedAt, &ft.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	ft.LensID = toIDPtr(lensID)
	return &ft, nil
}

func (t *tx) GetFlightTask(ctx context.Context, id types.ID) (*models.FlightTask, error) {
	return scanTask(t.q.QueryRow(ctx, `SELECT `+taskColumns+` FROM flight_tasks ft WHERE ft.id = $1`, string(id)))
}

func (t *tx) FlightTaskByOrder(ctx context.Context, orderID types.ID) (*models.FlightTask, error) {
	return scanTask(t.q.QueryRow(ctx, `SELECT `+taskColumns+` FROM flight_tasks ft WHERE ft.order_id = $1`, string(orderID)))
}

func (t *tx) ListFlightTasks(ctx context.Context, f storage.FlightTaskFilter) ([]*models.FlightTask, error) {
	var q query
	if f.OperatorID != nil {
		q.where("ft.operator_id = " + q.arg(string(*f.OperatorID)))
	}
	if f.OrderStatus != nil {
		q.where("o.status = " + q.arg(string(*f.OrderStatus)))
	}
	sql := `SELECT ` + taskColumns + `
		FROM flight_tasks ft JOIN orders o ON o.id = ft.order_id` + q.clause() +
		` ORDER BY ft.created_at, ft.id` + q.page(f.Page)
	rows, err := t.q.Query(ctx, sql, q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.FlightTask
	for rows.Next() {
		ft, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ft)
	}
	return out, rows.Err()
}

func (t *tx) CreateFlightTask(ctx context.Context, ft *models.FlightTask) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO flight_tasks (id, order_id, operator_id, route_id, drone_id, camera_id, lens_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		string(ft.ID), string(ft.OrderID), string(ft.OperatorID), string(ft.RouteID),
		string(ft.DroneID), string(ft.CameraID), toStringPtr(ft.LensID), ft.CreatedAt, ft.UpdatedAt,
	)
	return mapErr(err)
}

func (t *tx) UpdateFlightTask(ctx context.Context, ft *models.FlightTask) error {
	return expectOne(t.q.Exec(ctx, `
		UPDATE flight_tasks
		SET operator_id = $2, route_id = $3, drone_id = $4, camera_id = $5, lens_id = $6, updated_at = $7
		WHERE id = $1`,
		string(ft.ID), string(ft.OperatorID), string(ft.RouteID),
		string(ft.DroneID), string(ft.CameraID), toStringPtr(ft.LensID), ft.UpdatedAt,
	))
}

func (t *tx) DeleteFlightTask(ctx context.Context, id types.ID) error {
	return expectOne(t.q.Exec(ctx, `DELETE FROM flight_tasks WHERE id = $1`, string(id)))
}
