// README: Order status machine: the transition table and the single write path for status changes.
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dronebook/internal/models"
	"dronebook/internal/storage"
	"dronebook/internal/types"
)

// AllowedTransitions represents the order state flow as code.
var AllowedTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.StatusNew:          {models.StatusInProcessing, models.StatusCancelled},
	models.StatusInProcessing: {models.StatusInProgress, models.StatusCancelled, models.StatusNew},
	models.StatusInProgress:   {models.StatusCompleted},
}

func CanTransition(from, to models.OrderStatus) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// Validate returns types.ErrInvalidTransition unless from -> to is in the table.
func Validate(from, to models.OrderStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", types.ErrInvalidTransition, from, to)
	}
	return nil
}

// Apply moves o to the target status inside tx. The order's version must be
// the one read in this tx; on success o holds the written state.
//
// Reopening (in_processing -> new) also drops the flight task, its route and
// the operator assignment.
func Apply(ctx context.Context, tx storage.Tx, o *models.Order, to models.OrderStatus, actor types.Actor, at time.Time) error {
	from := o.Status
	if err := Validate(from, to); err != nil {
		return err
	}
	if from == models.StatusInProcessing && to == models.StatusNew {
		if err := detachFlightTask(ctx, tx, o.ID); err != nil {
			return err
		}
		o.OperatorID = nil
	}

	o.Status = to
	o.UpdatedAt = &at
	if err := tx.UpdateOrder(ctx, o); err != nil {
		return fmt.Errorf("update order %s: %w", o.ID, err)
	}

	ev := &models.OrderEvent{
		OrderID:    o.ID,
		FromStatus: from,
		ToStatus:   to,
		ActorType:  actorType(actor),
		CreatedAt:  at,
	}
	if !actor.IsSystem() {
		id := actor.ID
		ev.ActorID = &id
	}
	if err := tx.AppendOrderEvent(ctx, ev); err != nil {
		return fmt.Errorf("append order event: %w", err)
	}
	return nil
}

func detachFlightTask(ctx context.Context, tx storage.Tx, orderID types.ID) error {
	ft, err := tx.FlightTaskByOrder(ctx, orderID)
	if errors.Is(err, types.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := tx.DeleteFlightTask(ctx, ft.ID); err != nil {
		return fmt.Errorf("delete flight task %s: %w", ft.ID, err)
	}
	if err := tx.DeleteRoute(ctx, ft.RouteID); err != nil && !errors.Is(err, types.ErrNotFound) {
		return fmt.Errorf("delete route %s: %w", ft.RouteID, err)
	}
	return nil
}

func actorType(a types.Actor) string {
	switch {
	case a.IsSystem():
		return "system"
	case a.Superuser:
		return "admin"
	default:
		return "operator"
	}
}
