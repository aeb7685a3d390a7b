package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dronebook/internal/infra"
	"dronebook/internal/models"
	"dronebook/internal/storage"
	"dronebook/internal/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("DRONEBOOK_TEST_DSN")
	if dsn == "" {
		t.Skip("DRONEBOOK_TEST_DSN not set; skipping DB-backed store tests")
	}
	ctx := context.Background()
	pool, err := infra.NewDB(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, infra.Migrate(ctx, pool, infra.MigrateUp))
	truncate(t, pool)
	return NewStore(pool)
}

func truncate(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `
		TRUNCATE order_state_events, flight_tasks, orders, routes, lenses, cameras, drones, clubs, users
		RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
}

func at() time.Time {
	return time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
}

func seed(t *testing.T, s *Store) (*models.Club, *models.Order) {
	t.Helper()
	ctx := context.Background()
	c := &models.Club{ID: types.NewID(), Name: "North", Latitude: 55.75, Longitude: 37.61, IsAvailable: true, CreatedAt: at()}
	o := &models.Order{
		ID:        types.NewID(),
		ClubID:    c.ID,
		FirstName: "Ivan",
		LastName:  "Petrov",
		Email:     "ivan@example.com",
		OrderDate: "2026-06-02",
		StartTime: "10:00:00",
		EndTime:   "12:00:00",
		Status:    models.StatusNew,
		CreatedAt: at(),
	}
	require.NoError(t, s.Atomic(ctx, func(tx storage.Tx) error {
		if err := tx.CreateClub(ctx, c); err != nil {
			return err
		}
		return tx.CreateOrder(ctx, o)
	}))
	return c, o
}

func TestOrderRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_, o := seed(t, s)

	require.NoError(t, s.View(ctx, func(tx storage.Tx) error {
		got, err := tx.GetOrder(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, "2026-06-02", got.OrderDate)
		assert.Equal(t, "10:00:00", got.StartTime)
		assert.Equal(t, "12:00:00", got.EndTime)
		assert.Equal(t, models.StatusNew, got.Status)
		assert.Nil(t, got.OperatorID)

		_, err = tx.GetOrder(ctx, types.NewID())
		assert.ErrorIs(t, err, types.ErrNotFound)
		return nil
	}))
}

func TestUpdateOrderDetectsStaleVersion(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_, o := seed(t, s)

	stale := *o
	o.Status = models.StatusCancelled
	require.NoError(t, s.Atomic(ctx, func(tx storage.Tx) error {
		return tx.UpdateOrder(ctx, o)
	}))
	assert.Equal(t, 1, o.StatusVersion)

	stale.Status = models.StatusInProcessing
	err := s.Atomic(ctx, func(tx storage.Tx) error {
		return tx.UpdateOrder(ctx, &stale)
	})
	assert.ErrorIs(t, err, types.ErrConcurrentUpdate)

	missing := *o
	missing.ID = types.NewID()
	err = s.Atomic(ctx, func(tx storage.Tx) error {
		return tx.UpdateOrder(ctx, &missing)
	})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestRouteAndTaskReferences(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	c, o := seed(t, s)

	operator := &models.User{ID: "op-1", Email: "op@example.com", Username: "op", IsActive: true, CreatedAt: at()}
	drone := &models.Drone{Equipment: models.Equipment{ID: types.NewID(), ClubID: c.ID, Model: "Mavic", IsAvailable: true, CreatedAt: at()}, BatteryCharge: 80}
	camera := &models.Camera{Equipment: models.Equipment{ID: types.NewID(), ClubID: c.ID, Model: "X7", IsAvailable: true, CreatedAt: at()}, WidthPx: 3840, HeightPx: 2160, FPS: 60}
	route := &models.Route{ID: types.NewID(), ClubID: c.ID, CreatedAt: at(), Points: []models.RoutePoint{
		{SequenceNumber: 1, Latitude: 55.75, Longitude: 37.61, Altitude: 50, Color: "#ff0000"},
		{SequenceNumber: 2, Latitude: 55.76, Longitude: 37.62, Altitude: 60, Color: "#00ff00"},
		{SequenceNumber: 3, Latitude: 55.75, Longitude: 37.61, Altitude: 50, Color: "#ff0000"},
	}}
	task := &models.FlightTask{ID: types.NewID(), OrderID: o.ID, OperatorID: operator.ID, RouteID: route.ID, DroneID: drone.ID, CameraID: camera.ID, CreatedAt: at()}

	require.NoError(t, s.Atomic(ctx, func(tx storage.Tx) error {
		for _, step := range []func() error{
			func() error { return tx.UpsertUser(ctx, operator) },
			func() error { return tx.CreateDrone(ctx, drone) },
			func() error { return tx.CreateCamera(ctx, camera) },
			func() error { return tx.CreateRoute(ctx, route) },
			func() error { return tx.CreateFlightTask(ctx, task) },
		} {
			if err := step(); err != nil {
				return err
			}
		}
		return nil
	}))

	require.NoError(t, s.View(ctx, func(tx storage.Tx) error {
		got, err := tx.GetRoute(ctx, route.ID)
		require.NoError(t, err)
		assert.Equal(t, route.Points, got.Points)

		byOrder, err := tx.FlightTaskByOrder(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, task.ID, byOrder.ID)

		n, err := tx.CountFlightTasksUsing(ctx, models.KindDrone, drone.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		refs, err := tx.CountClubReferences(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, storage.ClubReferences{Orders: 1, Drones: 1, Cameras: 1, Routes: 1}, refs)
		return nil
	}))

	archived := int64(0)
	require.NoError(t, s.Atomic(ctx, func(tx storage.Tx) error {
		var err error
		archived, err = tx.ArchiveClubEquipment(ctx, c.ID, at())
		return err
	}))
	assert.EqualValues(t, 2, archived)

	require.NoError(t, s.View(ctx, func(tx storage.Tx) error {
		e, err := tx.GetEquipment(ctx, models.KindCamera, camera.ID)
		require.NoError(t, err)
		assert.False(t, e.IsAvailable)
		return nil
	}))
}

func TestEventOutbox(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_, o := seed(t, s)

	require.NoError(t, s.Atomic(ctx, func(tx storage.Tx) error {
		for _, to := range []models.OrderStatus{models.StatusInProcessing, models.StatusNew, models.StatusCancelled} {
			if err := tx.AppendOrderEvent(ctx, &models.OrderEvent{
				OrderID: o.ID, FromStatus: o.Status, ToStatus: to, ActorType: "system", CreatedAt: at(),
			}); err != nil {
				return err
			}
		}
		return nil
	}))

	var first []*models.OrderEvent
	require.NoError(t, s.View(ctx, func(tx storage.Tx) error {
		var err error
		first, err = tx.ListUnpublishedEvents(ctx, 2)
		return err
	}))
	require.Len(t, first, 2)
	assert.Less(t, first[0].ID, first[1].ID)

	require.NoError(t, s.Atomic(ctx, func(tx storage.Tx) error {
		return tx.MarkEventsPublished(ctx, []int64{first[0].ID, first[1].ID}, at())
	}))

	require.NoError(t, s.View(ctx, func(tx storage.Tx) error {
		rest, err := tx.ListUnpublishedEvents(ctx, 10)
		require.NoError(t, err)
		require.Len(t, rest, 1)
		assert.Equal(t, models.StatusCancelled, rest[0].ToStatus)
		return nil
	}))
}
