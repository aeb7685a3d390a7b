// README: Flight task and route records.
package models

import (
	"time"

	"dronebook/internal/geo"
	"dronebook/internal/types"
)

type FlightTask struct {
	ID         types.ID
	OrderID    types.ID
	OperatorID types.ID
	RouteID    types.ID
	DroneID    types.ID
	CameraID   types.ID
	LensID     *types.ID
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}

// Uses reports whether the task references the given equipment item.
func (t *FlightTask) Uses(kind EquipmentKind, id types.ID) bool {
	switch kind {
	case KindDrone:
		return t.DroneID == id
	case KindCamera:
		return t.CameraID == id
	case KindLens:
		return t.LensID != nil && *t.LensID == id
	}
	return false
}

type RoutePoint struct {
	SequenceNumber int
	Latitude       float64
	Longitude      float64
	Altitude       float64
	Color          string
}

func (p RoutePoint) Point() types.Point {
	return types.Point{Lat: p.Latitude, Lng: p.Longitude}
}

type Route struct {
	ID        types.ID
	ClubID    types.ID
	Points    []RoutePoint
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// LengthKm is the great-circle length of the loop.
func (r *Route) LengthKm() float64 {
	pts := make([]types.Point, len(r.Points))
	for i, p := range r.Points {
		pts[i] = p.Point()
	}
	return geo.PathLengthKm(pts)
}
