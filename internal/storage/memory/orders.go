package memory

import (
	"context"
	"sort"
	"time"

	"dronebook/internal/models"
	"dronebook/internal/storage"
	"dronebook/internal/types"
)

func (t *tx) GetOrder(_ context.Context, id types.ID) (*models.Order, error) {
	o, ok := t.db.orders[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	o = cloneOrder(o)
	return &o, nil
}

func matchOrder(o models.Order, f storage.OrderFilter) bool {
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if o.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.OperatorID != nil && (o.OperatorID == nil || *o.OperatorID != *f.OperatorID) {
		return false
	}
	if f.Unassigned && o.OperatorID != nil {
		return false
	}
	if f.ClubID != nil && o.ClubID != *f.ClubID {
		return false
	}
	return true
}

func (t *tx) ListOrders(_ context.Context, f storage.OrderFilter) ([]*models.Order, error) {
	var out []*models.Order
	for _, o := range t.db.orders {
		o := o
		if matchOrder(o, f) {
			o = cloneOrder(o)
			out = append(out, &o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.OrderDate != b.OrderDate {
			return a.OrderDate < b.OrderDate
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.ID < b.ID
	})
	return paginate(out, f.Page), nil
}

func (t *tx) CreateOrder(_ context.Context, o *models.Order) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.db.orders[o.ID]; ok {
		return types.ErrConflict
	}
	t.db.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (t *tx) UpdateOrder(_ context.Context, o *models.Order) error {
	if err := t.writable(); err != nil {
		return err
	}
	cur, ok := t.db.orders[o.ID]
	if !ok {
		return types.ErrNotFound
	}
	if cur.StatusVersion != o.StatusVersion {
		return types.ErrConcurrentUpdate
	}
	o.StatusVersion++
	t.db.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (t *tx) DeleteOrder(_ context.Context, id types.ID) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.db.orders[id]; !ok {
		return types.ErrNotFound
	}
	delete(t.db.orders, id)
	return nil
}

func (t *tx) AppendOrderEvent(_ context.Context, e *models.OrderEvent) error {
	if err := t.writable(); err != nil {
		return err
	}
	e.ID = t.db.nextEventID
	t.db.nextEventID++
	t.db.events = append(t.db.events, cloneEvent(*e))
	return nil
}

func (t *tx) ListUnpublishedEvents(_ context.Context, limit int) ([]*models.OrderEvent, error) {
	var out []*models.OrderEvent
	for _, e := range t.db.events {
		e := e
		if e.PublishedAt != nil {
			continue
		}
		e = cloneEvent(e)
		out = append(out, &e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (t *tx) MarkEventsPublished(_ context.Context, ids []int64, at time.Time) error {
	if err := t.writable(); err != nil {
		return err
	}
	want := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	for i := range t.db.events {
		if _, ok := want[t.db.events[i].ID]; ok && t.db.events[i].PublishedAt == nil {
			ts := at
			t.db.events[i].PublishedAt = &ts
		}
	}
	return nil
}
