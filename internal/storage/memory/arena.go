package memory

import (
	"time"

	"dronebook/internal/models"
	"dronebook/internal/types"
)

type arena struct {
	users   map[types.ID]models.User
	clubs   map[types.ID]models.Club
	drones  map[types.ID]models.Drone
	cameras map[types.ID]models.Camera
	lenses  map[types.ID]models.Lens
	orders  map[types.ID]models.Order
	routes  map[types.ID]models.Route
	tasks   map[types.ID]models.FlightTask

	// taskByOrder indexes tasks by their order id.
	taskByOrder map[types.ID]types.ID

	events      []models.OrderEvent
	nextEventID int64
}

func newArena() *arena {
	return &arena{
		users:       map[types.ID]models.User{},
		clubs:       map[types.ID]models.Club{},
		drones:      map[types.ID]models.Drone{},
		cameras:     map[types.ID]models.Camera{},
		lenses:      map[types.ID]models.Lens{},
		orders:      map[types.ID]models.Order{},
		routes:      map[types.ID]models.Route{},
		tasks:       map[types.ID]models.FlightTask{},
		taskByOrder: map[types.ID]types.ID{},
		nextEventID: 1,
	}
}

func (a *arena) clone() *arena {
	c := &arena{
		users:       copyMap(a.users, func(v models.User) models.User { return v }),
		clubs:       copyMap(a.clubs, func(v models.Club) models.Club { v.UpdatedAt = timePtr(v.UpdatedAt); return v }),
		drones:      copyMap(a.drones, cloneDrone),
		cameras:     copyMap(a.cameras, cloneCamera),
		lenses:      copyMap(a.lenses, cloneLens),
		orders:      copyMap(a.orders, cloneOrder),
		routes:      copyMap(a.routes, cloneRoute),
		tasks:       copyMap(a.tasks, cloneTask),
		taskByOrder: copyMap(a.taskByOrder, func(v types.ID) types.ID { return v }),
		events:      make([]models.OrderEvent, len(a.events)),
		nextEventID: a.nextEventID,
	}
	for i, e := range a.events {
		c.events[i] = cloneEvent(e)
	}
	return c
}

func copyMap[K comparable, V any](m map[K]V, cp func(V) V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = cp(v)
	}
	return out
}

func timePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneDrone(d models.Drone) models.Drone {
	d.UpdatedAt = timePtr(d.UpdatedAt)
	return d
}

func cloneCamera(c models.Camera) models.Camera {
	c.UpdatedAt = timePtr(c.UpdatedAt)
	return c
}

func cloneLens(l models.Lens) models.Lens {
	l.UpdatedAt = timePtr(l.UpdatedAt)
	return l
}

func cloneOrder(o models.Order) models.Order {
	o.OperatorID = idPtr(o.OperatorID)
	o.UpdatedAt = timePtr(o.UpdatedAt)
	return o
}

func cloneRoute(r models.Route) models.Route {
	r.Points = append([]models.RoutePoint(nil), r.Points...)
	r.UpdatedAt = timePtr(r.UpdatedAt)
	return r
}

func cloneTask(t models.FlightTask) models.FlightTask {
	t.LensID = idPtr(t.LensID)
	t.UpdatedAt = timePtr(t.UpdatedAt)
	return t
}

func cloneEvent(e models.OrderEvent) models.OrderEvent {
	e.ActorID = idPtr(e.ActorID)
	e.PublishedAt = timePtr(e.PublishedAt)
	return e
}
