package memory

import (
	"context"
	"sort"
	"time"

	"dronebook/internal/models"
	"dronebook/internal/storage"
	"dronebook/internal/types"
)

func (t *tx) GetUser(_ context.Context, id types.ID) (*models.User, error) {
	u, ok := t.db.users[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	return &u, nil
}

func (t *tx) UpsertUser(_ context.Context, u *models.User) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.db.users[u.ID] = *u
	return nil
}

func (t *tx) GetClub(_ context.Context, id types.ID) (*models.Club, error) {
	c, ok := t.db.clubs[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	c.UpdatedAt = timePtr(c.UpdatedAt)
	return &c, nil
}

func (t *tx) ListClubs(_ context.Context, f storage.ClubFilter) ([]*models.Club, error) {
	out := make([]*models.Club, 0, len(t.db.clubs))
	for _, c := range t.db.clubs {
		if !f.IncludeArchived && !c.IsAvailable {
			continue
		}
		c.UpdatedAt = timePtr(c.UpdatedAt)
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return paginate(out, f.Page), nil
}

func (t *tx) CreateClub(_ context.Context, c *models.Club) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.db.clubs[c.ID]; ok {
		return types.ErrConflict
	}
	v := *c
	v.UpdatedAt = timePtr(c.UpdatedAt)
	t.db.clubs[c.ID] = v
	return nil
}

func (t *tx) UpdateClub(_ context.Context, c *models.Club) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.db.clubs[c.ID]; !ok {
		return types.ErrNotFound
	}
	v := *c
	v.UpdatedAt = timePtr(c.UpdatedAt)
	t.db.clubs[c.ID] = v
	return nil
}

func (t *tx) DeleteClub(_ context.Context, id types.ID) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.db.clubs[id]; !ok {
		return types.ErrNotFound
	}
	delete(t.db.clubs, id)
	return nil
}

func (t *tx) CountClubReferences(_ context.Context, id types.ID) (storage.ClubReferences, error) {
	var refs storage.ClubReferences
	for _, o := range t.db.orders {
		if o.ClubID == id {
			refs.Orders++
		}
	}
	for _, d := range t.db.drones {
		if d.ClubID == id {
			refs.Drones++
		}
	}
	for _, c := range t.db.cameras {
		if c.ClubID == id {
			refs.Cameras++
		}
	}
	for _, l := range t.db.lenses {
		if l.ClubID == id {
			refs.Lenses++
		}
	}
	for _, r := range t.db.routes {
		if r.ClubID == id {
			refs.Routes++
		}
	}
	return refs, nil
}

func (t *tx) ArchiveClubEquipment(_ context.Context, clubID types.ID, at time.Time) (int64, error) {
	if err := t.writable(); err != nil {
		return 0, err
	}
	var n int64
	for id, d := range t.db.drones {
		if d.ClubID == clubID && d.IsAvailable {
			d.IsAvailable = false
			d.UpdatedAt = &at
			t.db.drones[id] = d
			n++
		}
	}
	for id, c := range t.db.cameras {
		if c.ClubID == clubID && c.IsAvailable {
			c.IsAvailable = false
			c.UpdatedAt = &at
			t.db.cameras[id] = c
			n++
		}
	}
	for id, l := range t.db.lenses {
		if l.ClubID == clubID && l.IsAvailable {
			l.IsAvailable = false
			l.UpdatedAt = &at
			t.db.lenses[id] = l
			n++
		}
	}
	return n, nil
}
