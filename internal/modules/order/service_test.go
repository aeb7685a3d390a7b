package order

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dronebook/internal/models"
	"dronebook/internal/storage"
	"dronebook/internal/storage/memory"
	"dronebook/internal/types"
)

var admin = types.Actor{ID: "admin-1", Superuser: true}

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	clock := &types.FixedClock{T: time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)}
	return NewService(store, clock, nil), store
}

func seedClub(t *testing.T, store storage.Store, available bool) types.ID {
	t.Helper()
	id := types.NewID()
	err := store.Atomic(context.Background(), func(tx storage.Tx) error {
		return tx.CreateClub(context.Background(), &models.Club{ID: id, Name: "Sky", IsAvailable: available})
	})
	require.NoError(t, err)
	return id
}

func validCreate(clubID types.ID) CreateCommand {
	return CreateCommand{
		ClubID:    clubID,
		FirstName: "Ivan",
		LastName:  "Petrov",
		Email:     "ivan@example.com",
		OrderDate: "2026-06-02",
		StartTime: "10:00",
		EndTime:   "11:30",
	}
}

func TestCreateOrder(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	clubID := seedClub(t, store, true)

	view, err := svc.Create(ctx, admin, validCreate(clubID))
	require.NoError(t, err)
	assert.Equal(t, models.StatusNew, view.Order.Status)
	assert.Equal(t, "10:00:00", view.Order.StartTime)
	assert.Equal(t, "11:30:00", view.Order.EndTime)
	assert.Nil(t, view.Order.OperatorID)
	require.NotNil(t, view.Club)
	assert.Equal(t, clubID, view.Club.ID)

	got, err := svc.Get(ctx, view.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, view.Order.ID, got.Order.ID)
}

func TestCreateOrderRejects(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	open := seedClub(t, store, true)
	archived := seedClub(t, store, false)

	cases := []struct {
		name  string
		actor types.Actor
		mod   func(*CreateCommand)
		want  error
	}{
		{"not superuser", types.Actor{ID: "op"}, func(*CreateCommand) {}, types.ErrForbidden},
		{"missing club", admin, func(c *CreateCommand) { c.ClubID = "nope" }, types.ErrNotFound},
		{"archived club", admin, func(c *CreateCommand) { c.ClubID = archived }, types.ErrUnavailable},
		{"bad date", admin, func(c *CreateCommand) { c.OrderDate = "02.06.2026" }, types.ErrBadRequest},
		{"bad time", admin, func(c *CreateCommand) { c.StartTime = "9:00" }, types.ErrBadRequest},
		{"negative hour", admin, func(c *CreateCommand) { c.StartTime = "-1:30" }, types.ErrBadRequest},
		{"negative minute", admin, func(c *CreateCommand) { c.EndTime = "00:-5" }, types.ErrBadRequest},
		{"signed hour", admin, func(c *CreateCommand) { c.StartTime = "+1:00" }, types.ErrBadRequest},
		{"end before start", admin, func(c *CreateCommand) { c.EndTime = "09:00" }, types.ErrBadRequest},
		{"empty window", admin, func(c *CreateCommand) { c.EndTime = "10:00:00" }, types.ErrBadRequest},
		{"bad email", admin, func(c *CreateCommand) { c.Email = "ivan" }, types.ErrBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmd := validCreate(open)
			tc.mod(&cmd)
			_, err := svc.Create(ctx, tc.actor, cmd)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestListings(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	clubID := seedClub(t, store, true)
	operator := types.Actor{ID: "op-7"}

	first, err := svc.Create(ctx, admin, validCreate(clubID))
	require.NoError(t, err)
	second, err := svc.Create(ctx, admin, validCreate(clubID))
	require.NoError(t, err)

	// claim the second order directly
	err = store.Atomic(ctx, func(tx storage.Tx) error {
		o, err := tx.GetOrder(ctx, second.Order.ID)
		if err != nil {
			return err
		}
		o.OperatorID = &operator.ID
		return Apply(ctx, tx, o, models.StatusInProcessing, operator, time.Now())
	})
	require.NoError(t, err)

	fresh, err := svc.ListNew(ctx, storage.Page{})
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, first.Order.ID, fresh[0].Order.ID)

	mine, err := svc.ListAssigned(ctx, operator, storage.Page{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, second.Order.ID, mine[0].Order.ID)

	_, err = svc.ListAll(ctx, operator, storage.Page{})
	assert.ErrorIs(t, err, types.ErrForbidden)

	all, err := svc.ListAll(ctx, admin, storage.Page{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStatusesReturnsCopy(t *testing.T) {
	svc, _ := newTestService(t)
	got := svc.Statuses()
	require.Len(t, got, 5)
	got[0] = "mutated"
	assert.Equal(t, models.StatusNew, svc.Statuses()[0])
}

func TestChangeStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("operator reopens claimed order", func(t *testing.T) {
		svc, store := newTestService(t)
		orderID, taskID, _ := seedClaimedOrder(t, store, "op-1")

		view, err := svc.ChangeStatus(ctx, types.Actor{ID: "op-1"}, orderID, models.StatusNew)
		require.NoError(t, err)
		assert.Equal(t, models.StatusNew, view.Order.Status)
		assert.Nil(t, view.Order.OperatorID)

		err = store.View(ctx, func(tx storage.Tx) error {
			_, err := tx.GetFlightTask(ctx, taskID)
			return err
		})
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("stranger is forbidden", func(t *testing.T) {
		svc, store := newTestService(t)
		orderID, _, _ := seedClaimedOrder(t, store, "op-1")
		_, err := svc.ChangeStatus(ctx, types.Actor{ID: "op-2"}, orderID, models.StatusCancelled)
		assert.ErrorIs(t, err, types.ErrForbidden)
	})

	t.Run("superuser cancels", func(t *testing.T) {
		svc, store := newTestService(t)
		orderID, _, _ := seedClaimedOrder(t, store, "op-1")
		view, err := svc.ChangeStatus(ctx, admin, orderID, models.StatusCancelled)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, view.Order.Status)
	})

	t.Run("automatic edge is not manual", func(t *testing.T) {
		svc, store := newTestService(t)
		orderID, _, _ := seedClaimedOrder(t, store, "op-1")
		_, err := svc.ChangeStatus(ctx, admin, orderID, models.StatusInProgress)
		assert.ErrorIs(t, err, types.ErrInvalidTransition)
	})

	t.Run("edge outside the table", func(t *testing.T) {
		svc, store := newTestService(t)
		orderID, _, _ := seedClaimedOrder(t, store, "op-1")
		_, err := svc.ChangeStatus(ctx, admin, orderID, models.StatusCompleted)
		assert.ErrorIs(t, err, types.ErrInvalidTransition)
	})

	t.Run("unknown status", func(t *testing.T) {
		svc, store := newTestService(t)
		orderID, _, _ := seedClaimedOrder(t, store, "op-1")
		_, err := svc.ChangeStatus(ctx, admin, orderID, "paused")
		assert.ErrorIs(t, err, types.ErrBadRequest)
	})

	t.Run("missing order", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.ChangeStatus(ctx, admin, "missing", models.StatusCancelled)
		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}

// TestConcurrentCancel checks that racing cancellations land exactly once.
func TestConcurrentCancel(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	orderID, _, _ := seedClaimedOrder(t, store, "op-1")

	const n = 5
	errs := make(chan error, n)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.ChangeStatus(ctx, admin, orderID, models.StatusCancelled)
			errs <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if !errors.Is(err, types.ErrInvalidTransition) && !errors.Is(err, types.ErrConcurrentUpdate) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, success)
}

func TestUpdateOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("edits schedule while new", func(t *testing.T) {
		svc, store := newTestService(t)
		clubID := seedClub(t, store, true)
		other := seedClub(t, store, true)
		created, err := svc.Create(ctx, admin, validCreate(clubID))
		require.NoError(t, err)

		start, end := "14:00", "15:00"
		view, err := svc.Update(ctx, admin, created.Order.ID, UpdateCommand{ClubID: &other, StartTime: &start, EndTime: &end})
		require.NoError(t, err)
		assert.Equal(t, other, view.Order.ClubID)
		assert.Equal(t, "14:00:00", view.Order.StartTime)
		assert.Equal(t, 1, view.Order.StatusVersion)
	})

	t.Run("rejects inverted window", func(t *testing.T) {
		svc, store := newTestService(t)
		created, err := svc.Create(ctx, admin, validCreate(seedClub(t, store, true)))
		require.NoError(t, err)
		end := "09:00"
		_, err = svc.Update(ctx, admin, created.Order.ID, UpdateCommand{EndTime: &end})
		assert.ErrorIs(t, err, types.ErrBadRequest)
	})

	t.Run("schedule frozen once claimed", func(t *testing.T) {
		svc, store := newTestService(t)
		orderID, _, _ := seedClaimedOrder(t, store, "op-1")
		date := "2026-07-01"
		_, err := svc.Update(ctx, admin, orderID, UpdateCommand{OrderDate: &date})
		assert.ErrorIs(t, err, types.ErrInvalidState)

		name := "Olga"
		view, err := svc.Update(ctx, admin, orderID, UpdateCommand{FirstName: &name})
		require.NoError(t, err)
		assert.Equal(t, "Olga", view.Order.FirstName)
	})

	t.Run("operator cannot edit", func(t *testing.T) {
		svc, store := newTestService(t)
		orderID, _, _ := seedClaimedOrder(t, store, "op-1")
		name := "X"
		_, err := svc.Update(ctx, types.Actor{ID: "op-1"}, orderID, UpdateCommand{FirstName: &name})
		assert.ErrorIs(t, err, types.ErrForbidden)
	})
}

func TestDeleteOrderRemovesTaskAndRoute(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	orderID, taskID, routeID := seedClaimedOrder(t, store, "op-1")

	require.NoError(t, svc.Delete(ctx, admin, orderID))

	err := store.View(ctx, func(tx storage.Tx) error {
		_, err := tx.GetOrder(ctx, orderID)
		assert.ErrorIs(t, err, types.ErrNotFound)
		_, err = tx.GetFlightTask(ctx, taskID)
		assert.ErrorIs(t, err, types.ErrNotFound)
		_, err = tx.GetRoute(ctx, routeID)
		assert.ErrorIs(t, err, types.ErrNotFound)
		return nil
	})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, admin, orderID), types.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, types.Actor{ID: "op-1"}, orderID), types.ErrForbidden)
}
