package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"dronebook/internal/models"
	"dronebook/internal/storage"
	"dronebook/internal/types"
)

func equipmentTable(kind models.EquipmentKind) (table, taskColumn string, err error) {
	switch kind {
	case models.KindDrone:
		return "drones", "drone_id", nil
	case models.KindCamera:
		return "cameras", "camera_id", nil
	case models.KindLens:
		return "lenses", "lens_id", nil
	}
	return "", "", fmt.Errorf("%w: unknown equipment kind %q", types.ErrBadRequest, kind)
}

// equipmentQuery builds the shared filter for drone, camera and lens listings.
func equipmentQuery(alias string, f storage.EquipmentFilter) *query {
	q := &query{}
	if f.ClubID != nil {
		q.where(alias + ".club_id = " + q.arg(string(*f.ClubID)))
	}
	if !f.IncludeArchived {
		q.where(alias + ".is_available")
		q.where("c.is_available")
	}
	return q
}

const droneColumns = `d.id, d.club_id, d.model, d.is_available, d.created_at, d.updated_at, d.battery_charge`

func scanDrone(row pgx.Row) (*models.Drone, error) {
	var d models.Drone
	if err := row.Scan(&d.ID, &d.ClubID, &d.Model, &d.IsAvailable, &d.CreatedAt, &d.UpdatedAt, &d.BatteryCharge); err != nil {
		return nil, mapErr(err)
	}
	return &d, nil
}

func (t *tx) GetDrone(ctx context.Context, id types.ID) (*models.Drone, error) {
	return scanDrone(t.q.QueryRow(ctx, `SELECT `+droneColumns+` FROM drones d WHERE d.id = $1`, string(id)))
}

func (t *tx) ListDrones(ctx context.Context, f storage.EquipmentFilter) ([]*models.Drone, error) {
	q := equipmentQuery("d", f)
	sql := `SELECT ` + droneColumns + ` FROM drones d JOIN clubs c ON c.id = d.club_id` +
		q.clause() + ` ORDER BY d.created_at, d.id` + q.page(f.Page)
	rows, err := t.q.Query(ctx, sql, q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.Drone
	for rows.Next() {
		d, err := scanDrone(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (t *tx) CreateDrone(ctx context.Context, d *models.Drone) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO drones (id, club_id, model, is_available, created_at, updated_at, battery_charge)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(d.ID), string(d.ClubID), d.Model, d.IsAvailable, d.CreatedAt, d.UpdatedAt, d.BatteryCharge,
	)
	return mapErr(err)
}

func (t *tx) UpdateDrone(ctx context.Context, d *models.Drone) error {
	return expectOne(t.q.Exec(ctx, `
		UPDATE drones
		SET club_id = $2, model = $3, is_available = $4, updated_at = $5, battery_charge = $6
		WHERE id = $1`,
		string(d.ID), string(d.ClubID), d.Model, d.IsAvailable, d.UpdatedAt, d.BatteryCharge,
	))
}

const cameraColumns = `m.id, m.club_id, m.model, m.is_available, m.created_at, m.updated_at, m.width_px, m.height_px, m.fps`

func scanCamera(row pgx.Row) (*models.Camera, error) {
	var c models.Camera
	if err := row.Scan(&c.ID, &c.ClubID, &c.Model, &c.IsAvailable, &c.CreatedAt, &c.UpdatedAt, &c.WidthPx, &c.HeightPx, &c.FPS); err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (t *tx) GetCamera(ctx context.Context, id types.ID) (*models.Camera, error) {
	return scanCamera(t.q.QueryRow(ctx, `SELECT `+cameraColumns+` FROM cameras m WHERE m.id = $1`, string(id)))
}

func (t *tx) ListCameras(ctx context.Context, f storage.EquipmentFilter) ([]*models.Camera, error) {
	q := equipmentQuery("m", f)
	sql := `SELECT ` + cameraColumns + ` FROM cameras m JOIN clubs c ON c.id = m.club_id` +
		q.clause() + ` ORDER BY m.created_at, m.id` + q.page(f.Page)
	rows, err := t.q.Query(ctx, sql, q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.Camera
	for rows.Next() {
		c, err := scanCamera(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (t *tx) CreateCamera(ctx context.Context, c *models.Camera) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO cameras (id, club_id, model, is_available, created_at, updated_at, width_px, height_px, fps)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		string(c.ID), string(c.ClubID), c.Model, c.IsAvailable, c.CreatedAt, c.UpdatedAt, c.WidthPx, c.HeightPx, c.FPS,
	)
	return mapErr(err)
}

func (t *tx) UpdateCamera(ctx context.Context, c *models.Camera) error {
	return expectOne(t.q.Exec(ctx, `
		UPDATE cameras
		SET club_id = $2, model = $3, is_available = $4, updated_at = $5, width_px = $6, height_px = $7, fps = $8
		WHERE id = $1`,
		string(c.ID), string(c.ClubID), c.Model, c.IsAvailable, c.UpdatedAt, c.WidthPx, c.HeightPx, c.FPS,
	))
}

const lensColumns = `l.id, l.club_id, l.model, l.is_available, l.created_at, l.updated_at, l.min_focal_length, l.max_focal_length`

func scanLens(row pgx.Row) (*models.Lens, error) {
	var l models.Lens
	if err := row.Scan(&l.ID, &l.ClubID, &l.Model, &l.IsAvailable, &l.CreatedAt, &l.UpdatedAt, &l.MinFocalLength, &l.MaxFocalLength); err != nil {
		return nil, mapErr(err)
	}
	return &l, nil
}

func (t *tx) GetLens(ctx context.Context, id types.ID) (*models.Lens, error) {
	return scanLens(t.q.QueryRow(ctx, `SELECT `+lensColumns+` FROM lenses l WHERE l.id = $1`, string(id)))
}

func (t *tx) ListLenses(ctx context.Context, f storage.EquipmentFilter) ([]*models.Lens, error) {
	q := equipmentQuery("l", f)
	sql := `SELECT ` + lensColumns + ` FROM lenses l JOIN clubs c ON c.id = l.club_id` +
		q.clause() + ` ORDER BY l.created_at, l.id` + q.page(f.Page)
	rows, err := t.q.Query(ctx, sql, q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.Lens
	for rows.Next() {
		l, err := scanLens(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (t *tx) CreateLens(ctx context.Context, l *models.Lens) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO lenses (id, club_id, model, is_available, created_at, updated_at, min_focal_length, max_focal_length)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		string(l.ID), string(l.ClubID), l.Model, l.IsAvailable, l.CreatedAt, l.UpdatedAt, l.MinFocalLength, l.MaxFocalLength,
	)
	return mapErr(err)
}

func (t *tx) UpdateLens(ctx context.Context, l *models.Lens) error {
	return expectOne(t.q.Exec(ctx, `
		UPDATE lenses
		SET club_id = $2, model = $3, is_available = $4, updated_at = $5, min_focal_length = $6, max_focal_length = $7
		WHERE id = $1`,
		string(l.ID), string(l.ClubID), l.Model, l.IsAvailable, l.UpdatedAt, l.MinFocalLength, l.MaxFocalLength,
	))
}

func (t *tx) GetEquipment(ctx context.Context, kind models.EquipmentKind, id types.ID) (*models.Equipment, error) {
	table, _, err := equipmentTable(kind)
	if err != nil {
		return nil, err
	}
	var e models.Equipment
	err = t.q.QueryRow(ctx, `
		SELECT id, club_id, model, is_available, created_at, updated_at
		FROM `+table+` WHERE id = $1`, string(id),
	).Scan(&e.ID, &e.ClubID, &e.Model, &e.IsAvailable, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &e, nil
}

func (t *tx) SetEquipmentAvailability(ctx context.Context, kind models.EquipmentKind, id types.ID, available bool, at time.Time) error {
	table, _, err := equipmentTable(kind)
	if err != nil {
		return err
	}
	return expectOne(t.q.Exec(ctx, `
		UPDATE `+table+` SET is_available = $2, updated_at = $3 WHERE id = $1`,
		string(id), available, at,
	))
}

func (t *tx) DeleteEquipment(ctx context.Context, kind models.EquipmentKind, id types.ID) error {
	table, _, err := equipmentTable(kind)
	if err != nil {
		return err
	}
	return expectOne(t.q.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, string(id)))
}

func (t *tx) CountFlightTasksUsing(ctx context.Context, kind models.EquipmentKind, id types.ID) (int, error) {
	_, column, err := equipmentTable(kind)
	if err != nil {
		return 0, err
	}
	var n int
	err = t.q.QueryRow(ctx, `SELECT COUNT(*) FROM flight_tasks WHERE `+column+` = $1`, string(id)).Scan(&n)
	return n, mapErr(err)
}
