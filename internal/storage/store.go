// README: Transactional record store consumed by the booking core; adapters live in memory/ and postgres/.
package storage

import (
	"context"
	"time"

	"dronebook/internal/models"
	"dronebook/internal/types"
)

// Store hands a Tx to fn. Writes made through an Atomic Tx are committed when
// fn returns nil and discarded otherwise. A View Tx must not be written to.
type Store interface {
	View(ctx context.Context, fn func(tx Tx) error) error
	Atomic(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of indexed queries the core runs inside one unit of work.
// Getters return types.ErrNotFound when the record is absent.
type Tx interface {
	GetUser(ctx context.Context, id types.ID) (*models.User, error)
	UpsertUser(ctx context.Context, u *models.User) error

	GetClub(ctx context.Context, id types.ID) (*models.Club, error)
	ListClubs(ctx context.Context, f ClubFilter) ([]*models.Club, error)
	CreateClub(ctx context.Context, c *models.Club) error
	UpdateClub(ctx context.Context, c *models.Club) error
	DeleteClub(ctx context.Context, id types.ID) error
	CountClubReferences(ctx context.Context, id types.ID) (ClubReferences, error)

	GetDrone(ctx context.Context, id types.ID) (*models.Drone, error)
	ListDrones(ctx context.Context, f EquipmentFilter) ([]*models.Drone, error)
	CreateDrone(ctx context.Context, d *models.Drone) error
	UpdateDrone(ctx context.Context, d *models.Drone) error

	GetCamera(ctx context.Context, id types.ID) (*models.Camera, error)
	ListCameras(ctx context.Context, f EquipmentFilter) ([]*models.Camera, error)
	CreateCamera(ctx context.Context, c *models.Camera) error
	UpdateCamera(ctx context.Context, c *models.Camera) error

	GetLens(ctx context.Context, id types.ID) (*models.Lens, error)
	ListLenses(ctx context.Context, f EquipmentFilter) ([]*models.Lens, error)
	CreateLens(ctx context.Context, l *models.Lens) error
	UpdateLens(ctx context.Context, l *models.Lens) error

	// GetEquipment returns the shared header of any equipment kind.
	GetEquipment(ctx context.Context, kind models.EquipmentKind, id types.ID) (*models.Equipment, error)
	SetEquipmentAvailability(ctx context.Context, kind models.EquipmentKind, id types.ID, available bool, at time.Time) error
	// ArchiveClubEquipment marks every drone, camera and lens of the club unavailable
	// and returns the number of rows touched.
	ArchiveClubEquipment(ctx context.Context, clubID types.ID, at time.Time) (int64, error)
	DeleteEquipment(ctx context.Context, kind models.EquipmentKind, id types.ID) error
	CountFlightTasksUsing(ctx context.Context, kind models.EquipmentKind, id types.ID) (int, error)

	GetOrder(ctx context.Context, id types.ID) (*models.Order, error)
	ListOrders(ctx context.Context, f OrderFilter) ([]*models.Order, error)
	CreateOrder(ctx context.Context, o *models.Order) error
	// UpdateOrder writes o if the stored status_version still equals
	// o.StatusVersion, then bumps it. Otherwise it fails with types.ErrConcurrentUpdate.
	UpdateOrder(ctx context.Context, o *models.Order) error
	DeleteOrder(ctx context.Context, id types.ID) error

	AppendOrderEvent(ctx context.Context, e *models.OrderEvent) error
	ListUnpublishedEvents(ctx context.Context, limit int) ([]*models.OrderEvent, error)
	MarkEventsPublished(ctx context.Context, ids []int64, at time.Time) error

	GetRoute(ctx context.Context, id types.ID) (*models.Route, error)
	CreateRoute(ctx context.Context, r *models.Route) error
	UpdateRoute(ctx context.Context, r *models.Route) error
	DeleteRoute(ctx context.Context, id types.ID) error

	GetFlightTask(ctx context.Context, id types.ID) (*models.FlightTask, error)
	FlightTaskByOrder(ctx context.Context, orderID types.ID) (*models.FlightTask, error)
	ListFlightTasks(ctx context.Context, f FlightTaskFilter) ([]*models.FlightTask, error)
	CreateFlightTask(ctx context.Context, t *models.FlightTask) error
	UpdateFlightTask(ctx context.Context, t *models.FlightTask) error
	DeleteFlightTask(ctx context.Context, id types.ID) error
}

// Page is a plain limit/offset window. Zero Limit means no limit.
type Page struct {
	Limit  int
	Offset int
}

type ClubFilter struct {
	IncludeArchived bool
	Page
}

type EquipmentFilter struct {
	ClubID *types.ID
	// IncludeArchived also returns unavailable items and items of archived clubs.
	IncludeArchived bool
	Page
}

type OrderFilter struct {
	Statuses   []models.OrderStatus
	OperatorID *types.ID
	Unassigned bool
	ClubID     *types.ID
	Page
}

type FlightTaskFilter struct {
	OperatorID  *types.ID
	OrderStatus *models.OrderStatus
	Page
}

// ClubReferences counts the rows that still point at a club.
type ClubReferences struct {
	Orders  int
	Drones  int
	Cameras int
	Lenses  int
	Routes  int
}

func (r ClubReferences) Total() int {
	return r.Orders + r.Drones + r.Cameras + r.Lenses + r.Routes
}
