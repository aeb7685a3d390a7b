// README: Club and equipment records.
package models

import (
	"time"

	"dronebook/internal/types"
)

type Club struct {
	ID          types.ID
	Name        string
	Address     string
	Latitude    float64
	Longitude   float64
	IsAvailable bool
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

type EquipmentKind string

const (
	KindDrone  EquipmentKind = "drone"
	KindCamera EquipmentKind = "camera"
	KindLens   EquipmentKind = "lens"
)

func (k EquipmentKind) Valid() bool {
	return k == KindDrone || k == KindCamera || k == KindLens
}

// Equipment is the part shared by drones, cameras and lenses.
type Equipment struct {
	ID          types.ID
	ClubID      types.ID
	Model       string
	IsAvailable bool
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

type Drone struct {
	Equipment
	BatteryCharge int
}

type Camera struct {
	Equipment
	WidthPx  int
	HeightPx int
	FPS      int
}

type Lens struct {
	Equipment
	MinFocalLength float64
	MaxFocalLength float64
}

func (l *Lens) ZoomRatio() float64 {
	if l.MinFocalLength <= 0 {
		return 0
	}
	return l.MaxFocalLength / l.MinFocalLength
}
