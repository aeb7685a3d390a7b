package flighttask

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dronebook/internal/models"
	"dronebook/internal/modules/order"
	"dronebook/internal/storage"
	"dronebook/internal/types"
)

func TestCreateClaimsOrder(t *testing.T) {
	f := newFixture(t)
	view := f.create(t, operator)

	assert.Equal(t, models.StatusInProcessing, view.Order.Status)
	require.NotNil(t, view.Order.OperatorID)
	assert.Equal(t, operator.ID, *view.Order.OperatorID)
	assert.Equal(t, operator.ID, view.Task.OperatorID)
	assert.Equal(t, f.clubID, view.Drone.ClubID)
	assert.Equal(t, f.clubID, view.Camera.ClubID)
	require.NotNil(t, view.Lens)
	assert.InDelta(t, 70.0/24.0, view.Lens.ZoomRatio(), 1e-9)
	require.NotNil(t, view.Operator)
	assert.Equal(t, "op-1@example.com", view.Operator.Email)
	assert.Len(t, view.Route.Points, 4)
	assert.Greater(t, view.RouteLengthKm, 0.0)

	stored := f.order(t, f.orderID)
	assert.Equal(t, models.StatusInProcessing, stored.Status)
	assert.Equal(t, 1, stored.StatusVersion)
}

func TestCreateIsAtomic(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		cmd  func(f *fixture) CreateCommand
		want error
	}{
		{"archived drone", func(f *fixture) CreateCommand {
			return CreateCommand{OrderID: f.orderID, DroneID: f.archivedDroneID, CameraID: f.cameraID, Points: loop()}
		}, types.ErrUnavailable},
		{"foreign drone", func(f *fixture) CreateCommand {
			return CreateCommand{OrderID: f.orderID, DroneID: f.foreignDroneID, CameraID: f.cameraID, Points: loop()}
		}, types.ErrUnavailable},
		{"open route", func(f *fixture) CreateCommand {
			pts := loop()
			pts[len(pts)-1].Latitude += 0.01
			return CreateCommand{OrderID: f.orderID, DroneID: f.droneID, CameraID: f.cameraID, Points: pts}
		}, types.ErrInvalidRoute},
		{"missing order", func(f *fixture) CreateCommand {
			return CreateCommand{OrderID: "missing", DroneID: f.droneID, CameraID: f.cameraID, Points: loop()}
		}, types.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.Create(ctx, operator, tc.cmd(f))
			require.ErrorIs(t, err, tc.want)

			o := f.order(t, f.orderID)
			assert.Equal(t, models.StatusNew, o.Status)
			assert.Nil(t, o.OperatorID)
			assert.Equal(t, 0, o.StatusVersion)

			err = f.store.View(ctx, func(tx storage.Tx) error {
				tasks, err := tx.ListFlightTasks(ctx, storage.FlightTaskFilter{})
				if err != nil {
					return err
				}
				assert.Empty(t, tasks)
				refs, err := tx.CountClubReferences(ctx, f.clubID)
				if err != nil {
					return err
				}
				assert.Zero(t, refs.Routes)
				events, err := tx.ListUnpublishedEvents(ctx, 0)
				if err != nil {
					return err
				}
				assert.Empty(t, events)
				return nil
			})
			require.NoError(t, err)
		})
	}
}

func TestCreateRejectsClaimedOrder(t *testing.T) {
	f := newFixture(t)
	f.create(t, operator)

	_, err := f.svc.Create(context.Background(), rival, CreateCommand{
		OrderID: f.orderID, DroneID: f.spareDroneID, CameraID: f.cameraID, Points: loop(),
	})
	assert.ErrorIs(t, err, types.ErrOrderNotBookable)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("swap drone, drop lens, replace route", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t, operator)

		pts := loop()[:2]
		pts[1].Latitude, pts[1].Longitude = pts[0].Latitude, pts[0].Longitude
		view, err := f.svc.Update(ctx, operator, created.Task.ID, UpdateCommand{
			DroneID:   &f.spareDroneID,
			ClearLens: true,
			Points:    pts,
		})
		require.NoError(t, err)
		assert.Equal(t, f.spareDroneID, view.Drone.ID)
		assert.Nil(t, view.Task.LensID)
		assert.Nil(t, view.Lens)
		assert.Len(t, view.Route.Points, 2)
		assert.Equal(t, created.Route.ID, view.Route.ID)
	})

	t.Run("rejects foreign drone", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t, operator)
		_, err := f.svc.Update(ctx, operator, created.Task.ID, UpdateCommand{DroneID: &f.foreignDroneID})
		assert.ErrorIs(t, err, types.ErrUnavailable)
	})

	t.Run("rejects bad route and keeps the old one", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t, operator)
		_, err := f.svc.Update(ctx, operator, created.Task.ID, UpdateCommand{
			DroneID: &f.spareDroneID,
			Points:  loop()[:1],
		})
		require.ErrorIs(t, err, types.ErrInvalidRoute)

		got, err := f.svc.Get(ctx, operator, created.Task.ID)
		require.NoError(t, err)
		assert.Equal(t, f.droneID, got.Drone.ID)
		assert.Len(t, got.Route.Points, 4)
	})

	t.Run("other operator is forbidden", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t, operator)
		_, err := f.svc.Update(ctx, rival, created.Task.ID, UpdateCommand{ClearLens: true})
		assert.ErrorIs(t, err, types.ErrForbidden)
	})

	t.Run("superuser may edit", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t, operator)
		_, err := f.svc.Update(ctx, admin, created.Task.ID, UpdateCommand{ClearLens: true})
		assert.NoError(t, err)
	})

	t.Run("order no longer in processing", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t, operator)
		err := f.store.Atomic(ctx, func(tx storage.Tx) error {
			o, err := tx.GetOrder(ctx, f.orderID)
			if err != nil {
				return err
			}
			return order.Apply(ctx, tx, o, models.StatusInProgress, types.SystemActor, f.clock.T)
		})
		require.NoError(t, err)

		_, err = f.svc.Update(ctx, operator, created.Task.ID, UpdateCommand{ClearLens: true})
		assert.ErrorIs(t, err, types.ErrInvalidState)
		assert.ErrorIs(t, f.svc.Delete(ctx, operator, created.Task.ID), types.ErrInvalidState)
	})
}

func TestDeleteCancelsOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.create(t, operator)

	assert.ErrorIs(t, f.svc.Delete(ctx, rival, created.Task.ID), types.ErrForbidden)
	require.NoError(t, f.svc.Delete(ctx, operator, created.Task.ID))

	o := f.order(t, f.orderID)
	assert.Equal(t, models.StatusCancelled, o.Status)

	err := f.store.View(ctx, func(tx storage.Tx) error {
		_, err := tx.GetFlightTask(ctx, created.Task.ID)
		assert.ErrorIs(t, err, types.ErrNotFound)
		_, err = tx.GetRoute(ctx, created.Route.ID)
		assert.ErrorIs(t, err, types.ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestGetHidesOtherOperatorsTasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.create(t, operator)

	_, err := f.svc.Get(ctx, rival, created.Task.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)

	got, err := f.svc.Get(ctx, admin, created.Task.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Task.ID, got.Task.ID)
}

func TestListViews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, operator)

	f.orderID = f.newOrder(t)
	second, err := f.svc.Create(ctx, rival, CreateCommand{
		OrderID: f.orderID, DroneID: f.spareDroneID, CameraID: f.cameraID, Points: loop(),
	})
	require.NoError(t, err)

	mine, err := f.svc.List(ctx, operator, nil, storage.Page{})
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := f.svc.ListActive(ctx, admin, storage.Page{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.svc.ListHistory(ctx, rival, storage.Page{})
	assert.ErrorIs(t, err, types.ErrForbidden)

	// walk the second order to completed
	err = f.store.Atomic(ctx, func(tx storage.Tx) error {
		o, err := tx.GetOrder(ctx, second.Order.ID)
		if err != nil {
			return err
		}
		if err := order.Apply(ctx, tx, o, models.StatusInProgress, types.SystemActor, f.clock.T); err != nil {
			return err
		}
		return order.Apply(ctx, tx, o, models.StatusCompleted, types.SystemActor, f.clock.T)
	})
	require.NoError(t, err)

	history, err := f.svc.ListHistory(ctx, admin, storage.Page{})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, second.Task.ID, history[0].Task.ID)

	active, err := f.svc.ListActive(ctx, rival, storage.Page{})
	require.NoError(t, err)
	assert.Empty(t, active)
}
