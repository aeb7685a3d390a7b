package flighttask

import (
	"context"
	"errors"

	"dronebook/internal/models"
	"dronebook/internal/storage"
	"dronebook/internal/types"
)

// View joins a flight task with everything it references.
type View struct {
	Task     *models.FlightTask
	Order    *models.Order
	Club     *models.Club
	Operator *models.User
	Route    *models.Route
	// RouteLengthKm is computed on read.
	RouteLengthKm float64
	Drone         *models.Drone
	Camera        *models.Camera
	Lens          *models.Lens
}

func loadView(ctx context.Context, tx storage.Tx, t *models.FlightTask) (*View, error) {
	v := &View{Task: t}
	var err error
	if v.Order, err = tx.GetOrder(ctx, t.OrderID); err != nil {
		return nil, err
	}
	if v.Club, err = tx.GetClub(ctx, v.Order.ClubID); err != nil {
		return nil, err
	}
	if v.Operator, err = tx.GetUser(ctx, t.OperatorID); err != nil && !errors.Is(err, types.ErrNotFound) {
		return nil, err
	}
	if v.Route, err = tx.GetRoute(ctx, t.RouteID); err != nil {
		return nil, err
	}
	v.RouteLengthKm = v.Route.LengthKm()
	if v.Drone, err = tx.GetDrone(ctx, t.DroneID); err != nil {
		return nil, err
	}
	if v.Camera, err = tx.GetCamera(ctx, t.CameraID); err != nil {
		return nil, err
	}
	if t.LensID != nil {
		if v.Lens, err = tx.GetLens(ctx, *t.LensID); err != nil {
			return nil, err
		}
	}
	return v, nil
}
