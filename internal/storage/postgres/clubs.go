package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"dronebook/internal/models"
	"dronebook/internal/storage"
	"dronebook/internal/types"
)

func (t *tx) GetUser(ctx context.Context, id types.ID) (*models.User, error) {
	var u models.User
	err := t.q.QueryRow(ctx, `
		SELECT id, email, username, is_superuser, is_active, created_at
		FROM users WHERE id = $1`, string(id),
	).Scan(&u.ID, &u.Email, &u.Username, &u.IsSuperuser, &u.IsActive, &u.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (t *tx) UpsertUser(ctx context.Context, u *models.User) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO users (id, email, username, is_superuser, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET email = EXCLUDED.email,
		    username = EXCLUDED.username,
		    is_superuser = EXCLUDED.is_superuser,
		    is_active = EXCLUDED.is_active`,
		string(u.ID), u.Email, u.Username, u.IsSuperuser, u.IsActive, u.CreatedAt,
	)
	return mapErr(err)
}

const clubColumns = `id, name, address, latitude, longitude, is_available, created_at, updated_at`

func scanClub(row pgx.Row) (*models.Club, error) {
	var c models.Club
	if err := row.Scan(&c.ID, &c.Name, &c.Address, &c.Latitude, &c.Longitude, &c.IsAvailable, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (t *tx) GetClub(ctx context.Context, id types.ID) (*models.Club, error) {
	return scanClub(t.q.QueryRow(ctx, `SELECT `+clubColumns+` FROM clubs WHERE id = $1`, string(id)))
}

func (t *tx) ListClubs(ctx context.Context, f storage.ClubFilter) ([]*models.Club, error) {
	var q query
	if !f.IncludeArchived {
		q.where("is_available")
	}
	sql := `SELECT ` + clubColumns + ` FROM clubs` + q.clause() + ` ORDER BY name, id` + q.page(f.Page)
	rows, err := t.q.Query(ctx, sql, q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Club
	for rows.Next() {
		c, err := scanClub(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (t *tx) CreateClub(ctx context.Context, c *models.Club) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO clubs (`+clubColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		string(c.ID), c.Name, c.Address, c.Latitude, c.Longitude, c.IsAvailable, c.CreatedAt, c.UpdatedAt,
	)
	return mapErr(err)
}

func (t *tx) UpdateClub(ctx context.Context, c *models.Club) error {
	return expectOne(t.q.Exec(ctx, `
		UPDATE clubs
		SET name = $2, address = $3, latitude = $4, longitude = $5, is_available = $6, updated_at = $7
		WHERE id = $1`,
		string(c.ID), c.Name, c.Address, c.Latitude, c.Longitude, c.IsAvailable, c.UpdatedAt,
	))
}

func (t *tx) DeleteClub(ctx context.Context, id types.ID) error {
	return expectOne(t.q.Exec(ctx, `DELETE FROM clubs WHERE id = $1`, string(id)))
}

func (t *tx) CountClubReferences(ctx context.Context, id types.ID) (storage.ClubReferences, error) {
	var refs storage.ClubReferences
	err := t.q.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM orders  WHERE club_id = $1),
			(SELECT COUNT(*) FROM drones  WHERE club_id = $1),
			(SELECT COUNT(*) FROM cameras WHERE club_id = $1),
			(SELECT COUNT(*) FROM lenses  WHERE club_id = $1),
			(SELECT COUNT(*) FROM routes  WHERE club_id = $1)`, string(id),
	).Scan(&refs.Orders, &refs.Drones, &refs.Cameras, &refs.Lenses, &refs.Routes)
	return refs, mapErr(err)
}

func (t *tx) ArchiveClubEquipment(ctx context.Context, clubID types.ID, at time.Time) (int64, error) {
	var total int64
	for _, table := range []string{"drones", "cameras", "lenses"} {
		tag, err := t.q.Exec(ctx, `
			UPDATE `+table+`
			SET is_available = FALSE, updated_at = $2
			WHERE club_id = $1 AND is_available`, string(clubID), at)
		if err != nil {
			return total, mapErr(err)
		}
		total += tag.RowsAffected()
	}
	return total, nil
}
