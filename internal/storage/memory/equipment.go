package memory

import (
	"context"
	"sort"
	"time"

	"dronebook/internal/models"
	"dronebook/internal/storage"
	"dronebook/internal/types"
)

// visible applies the archive rules of an EquipmentFilter to one item.
func (t *tx) visible(e models.Equipment, f storage.EquipmentFilter) bool {
	if f.ClubID != nil && e.ClubID != *f.ClubID {
		return false
	}
	if f.IncludeArchived {
		return true
	}
	club, ok := t.db.clubs[e.ClubID]
	return e.IsAvailable && ok && club.IsAvailable
}

func sortEquipment[T any](items []T, header func(T) models.Equipment) {
	sort.Slice(items, func(i, j int) bool {
		a, b := header(items[i]), header(items[j])
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

func (t *tx) GetDrone(_ context.Context, id types.ID) (*models.Drone, error) {
	d, ok := t.db.drones[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	d = cloneDrone(d)
	return &d, nil
}

func (t *tx) ListDrones(_ context.Context, f storage.EquipmentFilter) ([]*models.Drone, error) {
	var out []*models.Drone
	for _, d := range t.db.drones {
		d := d
		if t.visible(d.Equipment, f) {
			d = cloneDrone(d)
			out = append(out, &d)
		}
	}
	sortEquipment(out, func(d *models.Drone) models.Equipment { return d.Equipment })
	return paginate(out, f.Page), nil
}

func (t *tx) CreateDrone(_ context.Context, d *models.Drone) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.db.drones[d.ID]; ok {
		return types.ErrConflict
	}
	t.db.drones[d.ID] = cloneDrone(*d)
	return nil
}

func (t *tx) UpdateDrone(_ context.Context, d *models.Drone) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.db.drones[d.ID]; !ok {
		return types.ErrNotFound
	}
	t.db.drones[d.ID] = cloneDrone(*d)
	return nil
}

func (t *tx) GetCamera(_ context.Context, id types.ID) (*models.Camera, error) {
	c, ok := t.db.cameras[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	c = cloneCamera(c)
	return &c, nil
}

func (t *tx) ListCameras(_ context.Context, f storage.EquipmentFilter) ([]*models.Camera, error) {
	var out []*models.Camera
	for _, c := range t.db.cameras {
		c := c
		if t.visible(c.Equipment, f) {
			c = cloneCamera(c)
			out = append(out, &c)
		}
	}
	sortEquipment(out, func(c *models.Camera) models.Equipment { return c.Equipment })
	return paginate(out, f.Page), nil
}

func (t *tx) CreateCamera(_ context.Context, c *models.Camera) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.db.cameras[c.ID]; ok {
		return types.ErrConflict
	}
	t.db.cameras[c.ID] = cloneCamera(*c)
	return nil
}

func (t *tx) UpdateCamera(_ context.Context, c *models.Camera) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.db.cameras[c.ID]; !ok {
		return types.ErrNotFound
	}
	t.db.cameras[c.ID] = cloneCamera(*c)
	return nil
}

func (t *tx) GetLens(_ context.Context, id types.ID) (*models.Lens, error) {
	l, ok := t.db.lenses[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	l = cloneLens(l)
	return &l, nil
}

func (t *tx) ListLenses(_ context.Context, f storage.EquipmentFilter) ([]*models.Lens, error) {
	var out []*models.Lens
	for _, l := range t.db.lenses {
		l := l
		if t.visible(l.Equipment, f) {
			l = cloneLens(l)
			out = append(out, &l)
		}
	}
	sortEquipment(out, func(l *models.Lens) models.Equipment { return l.Equipment })
	return paginate(out, f.Page), nil
}

func (t *tx) CreateLens(_ context.Context, l *models.Lens) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.db.lenses[l.ID]; ok {
		return types.ErrConflict
	}
	t.db.lenses[l.ID] = cloneLens(*l)
	return nil
}

func (t *tx) UpdateLens(_ context.Context, l *models.Lens) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.db.lenses[l.ID]; !ok {
		return types.ErrNotFound
	}
	t.db.lenses[l.ID] = cloneLens(*l)
	return nil
}

func (t *tx) GetEquipment(_ context.Context, kind models.EquipmentKind, id types.ID) (*models.Equipment, error) {
	var (
		e  models.Equipment
		ok bool
	)
	switch kind {
	case models.KindDrone:
		var d models.Drone
		d, ok = t.db.drones[id]
		e = d.Equipment
	case models.KindCamera:
		var c models.Camera
		c, ok = t.db.cameras[id]
		e = c.Equipment
	case models.KindLens:
		var l models.Lens
		l, ok = t.db.lenses[id]
		e = l.Equipment
	}
	if !ok {
		return nil, types.ErrNotFound
	}
	e.UpdatedAt = timePtr(e.UpdatedAt)
	return &e, nil
}

func (t *tx) SetEquipmentAvailability(_ context.Context, kind models.EquipmentKind, id types.ID, available bool, at time.Time) error {
	if err := t.writable(); err != nil {
		return err
	}
	switch kind {
	case models.KindDrone:
		d, ok := t.db.drones[id]
		if !ok {
			return types.ErrNotFound
		}
		d.IsAvailable, d.UpdatedAt = available, &at
		t.db.drones[id] = d
	case models.KindCamera:
		c, ok := t.db.cameras[id]
		if !ok {
			return types.ErrNotFound
		}
		c.IsAvailable, c.UpdatedAt = available, &at
		t.db.cameras[id] = c
	case models.KindLens:
		l, ok := t.db.lenses[id]
		if !ok {
			return types.ErrNotFound
		}
		l.IsAvailable, l.UpdatedAt = available, &at
		t.db.lenses[id] = l
	default:
		return types.ErrNotFound
	}
	return nil
}

func (t *tx) DeleteEquipment(_ context.Context, kind models.EquipmentKind, id types.ID) error {
	if err := t.writable(); err != nil {
		return err
	}
	var ok bool
	switch kind {
	case models.KindDrone:
		if _, ok = t.db.drones[id]; ok {
			delete(t.db.drones, id)
		}
	case models.KindCamera:
		if _, ok = t.db.cameras[id]; ok {
			delete(t.db.cameras, id)
		}
	case models.KindLens:
		if _, ok = t.db.lenses[id]; ok {
			delete(t.db.lenses, id)
		}
	}
	if !ok {
		return types.ErrNotFound
	}
	return nil
}

func (t *tx) CountFlightTasksUsing(_ context.Context, kind models.EquipmentKind, id types.ID) (int, error) {
	n := 0
	for _, task := range t.db.tasks {
		if task.Uses(kind, id) {
			n++
		}
	}
	return n, nil
}
