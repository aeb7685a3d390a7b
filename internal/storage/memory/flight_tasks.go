package memory

import (
	"context"
	"sort"

	"dronebook/internal/models"
	"dronebook/internal/storage"
	"dronebook/internal/types"
)

func (t *tx) GetRoute(_ context.Context, id types.ID) (*models.Route, error) {
	r, ok := t.db.routes[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	r = cloneRoute(r)
	return &r, nil
}

func (t *tx) CreateRoute(_ context.Context, r *models.Route) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.db.routes[r.ID]; ok {
		return types.ErrConflict
	}
	t.db.routes[r.ID] = cloneRoute(*r)
	return nil
}

func (t *tx) UpdateRoute(_ context.Context, r *models.Route) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.db.routes[r.ID]; !ok {
		return types.ErrNotFound
	}
	t.db.routes[r.ID] = cloneRoute(*r)
	return nil
}

func (t *tx) DeleteRoute(_ context.Context, id types.ID) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.db.routes[id]; !ok {
		return types.ErrNotFound
	}
	delete(t.db.routes, id)
	return nil
}

func (t *tx) GetFlightTask(_ context.Context, id types.ID) (*models.FlightTask, error) {
	ft, ok := t.db.tasks[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	ft = cloneTask(ft)
	return &ft, nil
}

func (t *tx) FlightTaskByOrder(ctx context.Context, orderID types.ID) (*models.FlightTask, error) {
	id, ok := t.db.taskByOrder[orderID]
	if !ok {
		return nil, types.ErrNotFound
	}
	return t.GetFlightTask(ctx, id)
}

func (t *tx) ListFlightTasks(_ context.Context, f storage.FlightTaskFilter) ([]*models.FlightTask, error) {
	var out []*models.FlightTask
	for _, ft := range t.db.tasks {
		ft := ft
		if f.OperatorID != nil && ft.OperatorID != *f.OperatorID {
			continue
		}
		if f.OrderStatus != nil {
			o, ok := t.db.orders[ft.OrderID]
			if !ok || o.Status != *f.OrderStatus {
				continue
			}
		}
		ft = cloneTask(ft)
		out = append(out, &ft)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return paginate(out, f.Page), nil
}

func (t *tx) CreateFlightTask(_ context.Context, ft *models.FlightTask) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.db.tasks[ft.ID]; ok {
		return types.ErrConflict
	}
	if _, ok := t.db.taskByOrder[ft.OrderID]; ok {
		return types.ErrConflict
	}
	t.db.tasks[ft.ID] = cloneTask(*ft)
	t.db.taskByOrder[ft.OrderID] = ft.ID
	return nil
}

func (t *tx) UpdateFlightTask(_ context.Context, ft *models.FlightTask) error {
	if err := t.writable(); err != nil {
		return err
	}
	cur, ok := t.db.tasks[ft.ID]
	if !ok {
		return types.ErrNotFound
	}
	if cur.OrderID != ft.OrderID {
		delete(t.db.taskByOrder, cur.OrderID)
		t.db.taskByOrder[ft.OrderID] = ft.ID
	}
	t.db.tasks[ft.ID] = cloneTask(*ft)
	return nil
}

func (t *tx) DeleteFlightTask(_ context.Context, id types.ID) error {
	if err := t.writable(); err != nil {
		return err
	}
	cur, ok := t.db.tasks[id]
	if !ok {
		return types.ErrNotFound
	}
	delete(t.db.tasks, id)
	delete(t.db.taskByOrder, cur.OrderID)
	return nil
}
