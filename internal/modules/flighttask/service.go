// README: Flight task lifecycle: claim an order with equipment and a route, edit it, or drop it.
package flighttask

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"dronebook/internal/models"
	"dronebook/internal/modules/order"
	"dronebook/internal/storage"
	"dronebook/internal/types"
)

type Service struct {
	store storage.Store
	alloc *Allocator
	clock types.Clock
	log   *logrus.Entry
}

func NewService(store storage.Store, clock types.Clock, log *logrus.Entry) *Service {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Service{
		store: store,
		alloc: NewAllocator(),
		clock: clock,
		log:   log.WithField("component", "flighttask"),
	}
}

type CreateCommand struct {
	OrderID  types.ID
	DroneID  types.ID
	CameraID types.ID
	LensID   *types.ID
	Points   []models.RoutePoint
}

// UpdateCommand carries a partial edit. A nil Points leaves the route as is;
// ClearLens detaches the lens.
type UpdateCommand struct {
	DroneID   *types.ID
	CameraID  *types.ID
	LensID    *types.ID
	ClearLens bool
	Points    []models.RoutePoint
}

// Create claims the order for actor. The route, the task and the order
// transition commit together or not at all.
func (s *Service) Create(ctx context.Context, actor types.Actor, cmd CreateCommand) (*View, error) {
	if actor.ID == "" {
		return nil, types.ErrForbidden
	}

	var view *View
	err := s.store.Atomic(ctx, func(tx storage.Tx) error {
		o, err := s.alloc.CheckBookable(ctx, tx, cmd.OrderID)
		if err != nil {
			return err
		}
		alloc, err := s.alloc.Allocate(ctx, tx, o, Request{
			DroneID:  cmd.DroneID,
			CameraID: cmd.CameraID,
			LensID:   cmd.LensID,
			Points:   cmd.Points,
		})
		if err != nil {
			return err
		}

		now := s.clock.Now()
		route := &models.Route{
			ID:        types.NewID(),
			ClubID:    o.ClubID,
			Points:    alloc.Points,
			CreatedAt: now,
		}
		if err := tx.CreateRoute(ctx, route); err != nil {
			return fmt.Errorf("create route: %w", err)
		}

		task := &models.FlightTask{
			ID:         types.NewID(),
			OrderID:    o.ID,
			OperatorID: actor.ID,
			RouteID:    route.ID,
			DroneID:    alloc.Drone.ID,
			CameraID:   alloc.Camera.ID,
			CreatedAt:  now,
		}
		if alloc.Lens != nil {
			id := alloc.Lens.ID
			task.LensID = &id
		}
		if err := tx.CreateFlightTask(ctx, task); err != nil {
			return fmt.Errorf("create flight task: %w", err)
		}

		operatorID := actor.ID
		o.OperatorID = &operatorID
		if err := order.Apply(ctx, tx, o, models.StatusInProcessing, actor, now); err != nil {
			return err
		}

		view, err = loadView(ctx, tx, task)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"flight_task_id": view.Task.ID,
		"order_id":       cmd.OrderID,
		"operator_id":    actor.ID,
	}).Info("flight task created")
	return view, nil
}

// editable loads a task and its order for a mutation by actor.
func (s *Service) editable(ctx context.Context, tx storage.Tx, actor types.Actor, id types.ID) (*models.FlightTask, *models.Order, error) {
	task, err := tx.GetFlightTask(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !actor.Owns(&task.OperatorID) {
		return nil, nil, types.ErrForbidden
	}
	o, err := tx.GetOrder(ctx, task.OrderID)
	if err != nil {
		return nil, nil, err
	}
	if o.Status != models.StatusInProcessing {
		return nil, nil, fmt.Errorf("%w: order is %s", types.ErrInvalidState, o.Status)
	}
	return task, o, nil
}

func (s *Service) Update(ctx context.Context, actor types.Actor, id types.ID, cmd UpdateCommand) (*View, error) {
	var view *View
	err := s.store.Atomic(ctx, func(tx storage.Tx) error {
		task, o, err := s.editable(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		now := s.clock.Now()

		if cmd.DroneID != nil {
			if _, err := s.alloc.CheckEquipment(ctx, tx, models.KindDrone, *cmd.DroneID, o.ClubID); err != nil {
				return err
			}
			task.DroneID = *cmd.DroneID
		}
		if cmd.CameraID != nil {
			if _, err := s.alloc.CheckEquipment(ctx, tx, models.KindCamera, *cmd.CameraID, o.ClubID); err != nil {
				return err
			}
			task.CameraID = *cmd.CameraID
		}
		switch {
		case cmd.ClearLens:
			task.LensID = nil
		case cmd.LensID != nil:
			if _, err := s.alloc.CheckEquipment(ctx, tx, models.KindLens, *cmd.LensID, o.ClubID); err != nil {
				return err
			}
			lensID := *cmd.LensID
			task.LensID = &lensID
		}

		if cmd.Points != nil {
			if err := ValidateRoute(cmd.Points); err != nil {
				return err
			}
			route, err := tx.GetRoute(ctx, task.RouteID)
			if err != nil {
				return fmt.Errorf("route %s: %w", task.RouteID, err)
			}
			route.Points = cmd.Points
			route.UpdatedAt = &now
			if err := tx.UpdateRoute(ctx, route); err != nil {
				return err
			}
		}

		task.UpdatedAt = &now
		if err := tx.UpdateFlightTask(ctx, task); err != nil {
			return err
		}
		view, err = loadView(ctx, tx, task)
		return err
	})
	return view, err
}

// Delete drops the task and its route and cancels the order.
func (s *Service) Delete(ctx context.Context, actor types.Actor, id types.ID) error {
	var orderID types.ID
	err := s.store.Atomic(ctx, func(tx storage.Tx) error {
		task, o, err := s.editable(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		orderID = o.ID
		if err := tx.DeleteFlightTask(ctx, task.ID); err != nil {
			return err
		}
		if err := tx.DeleteRoute(ctx, task.RouteID); err != nil && !errors.Is(err, types.ErrNotFound) {
			return err
		}
		return order.Apply(ctx, tx, o, models.StatusCancelled, actor, s.clock.Now())
	})
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"flight_task_id": id, "order_id": orderID}).Info("flight task deleted, order cancelled")
	return nil
}

// Get hides other operators' tasks behind ErrNotFound.
func (s *Service) Get(ctx context.Context, actor types.Actor, id types.ID) (*View, error) {
	var view *View
	err := s.store.View(ctx, func(tx storage.Tx) error {
		task, err := tx.GetFlightTask(ctx, id)
		if err != nil {
			return err
		}
		if !actor.Superuser && task.OperatorID != actor.ID {
			return types.ErrNotFound
		}
		view, err = loadView(ctx, tx, task)
		return err
	})
	return view, err
}

// List returns the actor's tasks, or every task for a superuser, optionally
// narrowed to orders in one status.
func (s *Service) List(ctx context.Context, actor types.Actor, status *models.OrderStatus, page storage.Page) ([]*View, error) {
	f := storage.FlightTaskFilter{OrderStatus: status, Page: page}
	if !actor.Superuser {
		id := actor.ID
		f.OperatorID = &id
	}

	var views []*View
	err := s.store.View(ctx, func(tx storage.Tx) error {
		tasks, err := tx.ListFlightTasks(ctx, f)
		if err != nil {
			return err
		}
		views = make([]*View, 0, len(tasks))
		for _, t := range tasks {
			v, err := loadView(ctx, tx, t)
			if err != nil {
				return err
			}
			views = append(views, v)
		}
		return nil
	})
	return views, err
}

func (s *Service) ListActive(ctx context.Context, actor types.Actor, page storage.Page) ([]*View, error) {
	status := models.StatusInProcessing
	return s.List(ctx, actor, &status, page)
}

// ListHistory returns tasks of completed orders. Superusers only.
func (s *Service) ListHistory(ctx context.Context, actor types.Actor, page storage.Page) ([]*View, error) {
	if !actor.Superuser {
		return nil, types.ErrForbidden
	}
	status := models.StatusCompleted
	return s.List(ctx, actor, &status, page)
}
