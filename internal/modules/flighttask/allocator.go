// README: Resource allocator: order bookability, equipment ownership/availability and route shape checks.
package flighttask

import (
	"context"
	"errors"
	"fmt"

	"dronebook/internal/models"
	"dronebook/internal/storage"
	"dronebook/internal/types"
)

// Request names the equipment and route a booking wants.
type Request struct {
	DroneID  types.ID
	CameraID types.ID
	LensID   *types.ID
	Points   []models.RoutePoint
}

// Allocation is a validated Request. Nothing is written until the caller commits.
type Allocation struct {
	Drone  *models.Equipment
	Camera *models.Equipment
	Lens   *models.Equipment
	Points []models.RoutePoint
}

type Allocator struct{}

func NewAllocator() *Allocator {
	return &Allocator{}
}

// CheckBookable loads the order and verifies that it can still be claimed.
func (a *Allocator) CheckBookable(ctx context.Context, tx storage.Tx, orderID types.ID) (*models.Order, error) {
	o, err := tx.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", orderID, err)
	}
	if o.Status != models.StatusNew || o.OperatorID != nil {
		return nil, fmt.Errorf("order %s is %s: %w", orderID, o.Status, types.ErrOrderNotBookable)
	}
	_, err = tx.FlightTaskByOrder(ctx, orderID)
	switch {
	case err == nil:
		return nil, fmt.Errorf("order %s already has a flight task: %w", orderID, types.ErrOrderNotBookable)
	case !errors.Is(err, types.ErrNotFound):
		return nil, err
	}
	return o, nil
}

// CheckEquipment verifies that one item exists, belongs to clubID and is available.
func (a *Allocator) CheckEquipment(ctx context.Context, tx storage.Tx, kind models.EquipmentKind, id, clubID types.ID) (*models.Equipment, error) {
	e, err := tx.GetEquipment(ctx, kind, id)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", kind, id, err)
	}
	if e.ClubID != clubID {
		return nil, fmt.Errorf("%s %s belongs to another club: %w", kind, id, types.ErrUnavailable)
	}
	if !e.IsAvailable {
		return nil, fmt.Errorf("%s %s is archived: %w", kind, id, types.ErrUnavailable)
	}
	return e, nil
}

func (a *Allocator) Allocate(ctx context.Context, tx storage.Tx, o *models.Order, req Request) (*Allocation, error) {
	var (
		out Allocation
		err error
	)
	if out.Drone, err = a.CheckEquipment(ctx, tx, models.KindDrone, req.DroneID, o.ClubID); err != nil {
		return nil, err
	}
	if out.Camera, err = a.CheckEquipment(ctx, tx, models.KindCamera, req.CameraID, o.ClubID); err != nil {
		return nil, err
	}
	if req.LensID != nil {
		if out.Lens, err = a.CheckEquipment(ctx, tx, models.KindLens, *req.LensID, o.ClubID); err != nil {
			return nil, err
		}
	}
	if err := ValidateRoute(req.Points); err != nil {
		return nil, err
	}
	out.Points = req.Points
	return &out, nil
}

// ValidateRoute checks that points form a closed loop of at least two valid points.
func ValidateRoute(points []models.RoutePoint) error {
	if len(points) < 2 {
		return fmt.Errorf("%w: route needs at least 2 points", types.ErrInvalidRoute)
	}
	for i, p := range points {
		if !p.Point().Valid() {
			return fmt.Errorf("%w: point %d is out of range", types.ErrInvalidRoute, i)
		}
		if p.SequenceNumber < 1 {
			return fmt.Errorf("%w: point %d has sequence number %d", types.ErrInvalidRoute, i, p.SequenceNumber)
		}
	}
	first, last := points[0], points[len(points)-1]
	if first.Latitude != last.Latitude || first.Longitude != last.Longitude {
		return fmt.Errorf("%w: first and last points must match", types.ErrInvalidRoute)
	}
	return nil
}
