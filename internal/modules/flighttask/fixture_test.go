package flighttask

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dronebook/internal/models"
	"dronebook/internal/storage"
	"dronebook/internal/storage/memory"
	"dronebook/internal/types"
)

var (
	operator = types.Actor{ID: "op-1"}
	rival    = types.Actor{ID: "op-2"}
	admin    = types.Actor{ID: "admin-1", Superuser: true}
)

type fixture struct {
	store *memory.Store
	svc   *Service
	clock *types.FixedClock

	clubID      types.ID
	otherClubID types.ID

	droneID         types.ID
	spareDroneID    types.ID
	cameraID        types.ID
	lensID          types.ID
	archivedDroneID types.ID
	foreignDroneID  types.ID

	orderID types.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:           memory.New(),
		clock:           &types.FixedClock{T: time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)},
		clubID:          types.NewID(),
		otherClubID:     types.NewID(),
		droneID:         types.NewID(),
		spareDroneID:    types.NewID(),
		cameraID:        types.NewID(),
		lensID:          types.NewID(),
		archivedDroneID: types.NewID(),
		foreignDroneID:  types.NewID(),
	}
	f.svc = NewService(f.store, f.clock, nil)
	f.orderID = f.newOrder(t)

	ctx := context.Background()
	eq := func(id, club types.ID, available bool) models.Equipment {
		return models.Equipment{ID: id, ClubID: club, Model: "m-" + string(id)[:4], IsAvailable: available, CreatedAt: f.clock.T}
	}
	err := f.store.Atomic(ctx, func(tx storage.Tx) error {
		for _, u := range []types.Actor{operator, rival, admin} {
			if err := tx.UpsertUser(ctx, &models.User{ID: u.ID, Email: string(u.ID) + "@example.com", Username: string(u.ID), IsSuperuser: u.Superuser, IsActive: true}); err != nil {
				return err
			}
		}
		for _, d := range []models.Equipment{
			eq(f.droneID, f.clubID, true),
			eq(f.spareDroneID, f.clubID, true),
			eq(f.archivedDroneID, f.clubID, false),
			eq(f.foreignDroneID, f.otherClubID, true),
		} {
			if err := tx.CreateDrone(ctx, &models.Drone{Equipment: d, BatteryCharge: 90}); err != nil {
				return err
			}
		}
		if err := tx.CreateCamera(ctx, &models.Camera{Equipment: eq(f.cameraID, f.clubID, true), WidthPx: 1920, HeightPx: 1080, FPS: 30}); err != nil {
			return err
		}
		return tx.CreateLens(ctx, &models.Lens{Equipment: eq(f.lensID, f.clubID, true), MinFocalLength: 24, MaxFocalLength: 70})
	})
	require.NoError(t, err)
	return f
}

// newOrder stores a fresh order in the fixture club, creating both clubs on first use.
func (f *fixture) newOrder(t *testing.T) types.ID {
	t.Helper()
	ctx := context.Background()
	id := types.NewID()
	err := f.store.Atomic(ctx, func(tx storage.Tx) error {
		for _, clubID := range []types.ID{f.clubID, f.otherClubID} {
			if _, err := tx.GetClub(ctx, clubID); err == nil {
				continue
			}
			if err := tx.CreateClub(ctx, &models.Club{ID: clubID, Name: "club " + string(clubID)[:4], Latitude: 55.75, Longitude: 37.61, IsAvailable: true}); err != nil {
				return err
			}
		}
		return tx.CreateOrder(ctx, &models.Order{
			ID: id, ClubID: f.clubID, FirstName: "Ann", LastName: "Lee", Email: "ann@example.com",
			OrderDate: "2026-06-01", StartTime: "12:00:00", EndTime: "13:00:00",
			Status: models.StatusNew, CreatedAt: f.clock.T,
		})
	})
	require.NoError(t, err)
	return id
}

func (f *fixture) order(t *testing.T, id types.ID) *models.Order {
	t.Helper()
	var o *models.Order
	err := f.store.View(context.Background(), func(tx storage.Tx) error {
		var err error
		o, err = tx.GetOrder(context.Background(), id)
		return err
	})
	require.NoError(t, err)
	return o
}

func (f *fixture) create(t *testing.T, actor types.Actor) *View {
	t.Helper()
	view, err := f.svc.Create(context.Background(), actor, CreateCommand{
		OrderID:  f.orderID,
		DroneID:  f.droneID,
		CameraID: f.cameraID,
		LensID:   &f.lensID,
		Points:   loop(),
	})
	require.NoError(t, err)
	return view
}

func loop() []models.RoutePoint {
	return []models.RoutePoint{
		{SequenceNumber: 1, Latitude: 55.7500, Longitude: 37.6100, Altitude: 50, Color: "#ff0000"},
		{SequenceNumber: 2, Latitude: 55.7600, Longitude: 37.6200, Altitude: 60, Color: "#00ff00"},
		{SequenceNumber: 3, Latitude: 55.7550, Longitude: 37.6300, Altitude: 60, Color: "#0000ff"},
		{SequenceNumber: 4, Latitude: 55.7500, Longitude: 37.6100, Altitude: 50, Color: "#ff0000"},
	}
}
