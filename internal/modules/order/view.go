package order

import (
	"context"
	"errors"

	"dronebook/internal/models"
	"dronebook/internal/storage"
	"dronebook/internal/types"
)

// View is an order joined with its club and, once claimed, its operator.
type View struct {
	Order    *models.Order
	Club     *models.Club
	Operator *models.User
}

func loadView(ctx context.Context, tx storage.Tx, o *models.Order) (*View, error) {
	v := &View{Order: o}
	club, err := tx.GetClub(ctx, o.ClubID)
	if err != nil && !errors.Is(err, types.ErrNotFound) {
		return nil, err
	}
	v.Club = club
	if o.OperatorID != nil {
		u, err := tx.GetUser(ctx, *o.OperatorID)
		if err != nil && !errors.Is(err, types.ErrNotFound) {
			return nil, err
		}
		v.Operator = u
	}
	return v, nil
}

func loadViews(ctx context.Context, tx storage.Tx, orders []*models.Order) ([]*View, error) {
	out := make([]*View, 0, len(orders))
	for _, o := range orders {
		v, err := loadView(ctx, tx, o)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
