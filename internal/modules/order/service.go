// README: Order service: creation, listing and the manual status/edit operations around the status machine.
package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"dronebook/internal/models"
	"dronebook/internal/storage"
	"dronebook/internal/types"
)

type Service struct {
	store storage.Store
	clock types.Clock
	log   *logrus.Entry
}

func NewService(store storage.Store, clock types.Clock, log *logrus.Entry) *Service {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Service{store: store, clock: clock, log: log.WithField("component", "order")}
}

type CreateCommand struct {
	ClubID    types.ID
	FirstName string
	LastName  string
	Email     string
	OrderDate string
	StartTime string
	EndTime   string
}

// UpdateCommand carries a partial edit; nil fields are left untouched.
type UpdateCommand struct {
	ClubID    *types.ID
	FirstName *string
	LastName  *string
	Email     *string
	OrderDate *string
	StartTime *string
	EndTime   *string
}

func (c UpdateCommand) touchesSchedule() bool {
	return c.ClubID != nil || c.OrderDate != nil || c.StartTime != nil || c.EndTime != nil
}

func (s *Service) Create(ctx context.Context, actor types.Actor, cmd CreateCommand) (*View, error) {
	if !actor.Superuser {
		return nil, types.ErrForbidden
	}
	if strings.TrimSpace(cmd.FirstName) == "" || strings.TrimSpace(cmd.LastName) == "" || !strings.Contains(cmd.Email, "@") {
		return nil, fmt.Errorf("%w: customer name and email are required", types.ErrBadRequest)
	}
	start, end, err := normalizeSchedule(cmd.OrderDate, cmd.StartTime, cmd.EndTime)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	o := &models.Order{
		ID:        types.NewID(),
		ClubID:    cmd.ClubID,
		FirstName: strings.TrimSpace(cmd.FirstName),
		LastName:  strings.TrimSpace(cmd.LastName),
		Email:     strings.TrimSpace(cmd.Email),
		OrderDate: cmd.OrderDate,
		StartTime: start,
		EndTime:   end,
		Status:    models.StatusNew,
		CreatedAt: now,
	}

	var view *View
	err = s.store.Atomic(ctx, func(tx storage.Tx) error {
		if err := requireAvailableClub(ctx, tx, cmd.ClubID); err != nil {
			return err
		}
		if err := tx.CreateOrder(ctx, o); err != nil {
			return err
		}
		view, err = loadView(ctx, tx, o)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"order_id": o.ID, "club_id": o.ClubID}).Info("order created")
	return view, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*View, error) {
	var view *View
	err := s.store.View(ctx, func(tx storage.Tx) error {
		o, err := tx.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		view, err = loadView(ctx, tx, o)
		return err
	})
	return view, err
}

// ListNew returns unclaimed orders operators can still book.
func (s *Service) ListNew(ctx context.Context, page storage.Page) ([]*View, error) {
	return s.list(ctx, storage.OrderFilter{
		Statuses:   []models.OrderStatus{models.StatusNew},
		Unassigned: true,
		Page:       page,
	})
}

func (s *Service) ListAssigned(ctx context.Context, actor types.Actor, page storage.Page) ([]*View, error) {
	id := actor.ID
	return s.list(ctx, storage.OrderFilter{OperatorID: &id, Page: page})
}

func (s *Service) ListAll(ctx context.Context, actor types.Actor, page storage.Page) ([]*View, error) {
	if !actor.Superuser {
		return nil, types.ErrForbidden
	}
	return s.list(ctx, storage.OrderFilter{Page: page})
}

func (s *Service) list(ctx context.Context, f storage.OrderFilter) ([]*View, error) {
	var views []*View
	err := s.store.View(ctx, func(tx storage.Tx) error {
		orders, err := tx.ListOrders(ctx, f)
		if err != nil {
			return err
		}
		views, err = loadViews(ctx, tx, orders)
		return err
	})
	return views, err
}

func (s *Service) Statuses() []models.OrderStatus {
	out := make([]models.OrderStatus, len(models.OrderStatuses))
	copy(out, models.OrderStatuses)
	return out
}

// manualTransition reports whether a caller may request from -> to directly.
// Claiming, starting and completing are driven by flight tasks and the sweeper.
func manualTransition(from, to models.OrderStatus) bool {
	if to == models.StatusCancelled {
		return true
	}
	return from == models.StatusInProcessing && to == models.StatusNew
}

func (s *Service) ChangeStatus(ctx context.Context, actor types.Actor, id types.ID, to models.OrderStatus) (*View, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", types.ErrBadRequest, to)
	}

	var (
		view *View
		from models.OrderStatus
	)
	err := s.store.Atomic(ctx, func(tx storage.Tx) error {
		o, err := tx.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		if !actor.Owns(o.OperatorID) {
			return types.ErrForbidden
		}
		from = o.Status
		if err := Validate(from, to); err != nil {
			return err
		}
		if !manualTransition(from, to) {
			return fmt.Errorf("%w: %s -> %s is not a manual transition", types.ErrInvalidTransition, from, to)
		}
		if err := Apply(ctx, tx, o, to, actor, s.clock.Now()); err != nil {
			return err
		}
		view, err = loadView(ctx, tx, o)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"order_id": id,
		"from":     from,
		"to":       to,
		"actor_id": actor.ID,
	}).Info("order status changed")
	return view, nil
}

func (s *Service) Update(ctx context.Context, actor types.Actor, id types.ID, cmd UpdateCommand) (*View, error) {
	if !actor.Superuser {
		return nil, types.ErrForbidden
	}

	var view *View
	err := s.store.Atomic(ctx, func(tx storage.Tx) error {
		o, err := tx.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		if cmd.touchesSchedule() && o.Status != models.StatusNew {
			return fmt.Errorf("%w: schedule and club are fixed once the order is %s", types.ErrInvalidState, o.Status)
		}

		if cmd.FirstName != nil {
			if strings.TrimSpace(*cmd.FirstName) == "" {
				return fmt.Errorf("%w: first name is empty", types.ErrBadRequest)
			}
			o.FirstName = strings.TrimSpace(*cmd.FirstName)
		}
		if cmd.LastName != nil {
			if strings.TrimSpace(*cmd.LastName) == "" {
				return fmt.Errorf("%w: last name is empty", types.ErrBadRequest)
			}
			o.LastName = strings.TrimSpace(*cmd.LastName)
		}
		if cmd.Email != nil {
			if !strings.Contains(*cmd.Email, "@") {
				return fmt.Errorf("%w: malformed email", types.ErrBadRequest)
			}
			o.Email = strings.TrimSpace(*cmd.Email)
		}
		if cmd.ClubID != nil && *cmd.ClubID != o.ClubID {
			if err := requireAvailableClub(ctx, tx, *cmd.ClubID); err != nil {
				return err
			}
			o.ClubID = *cmd.ClubID
		}
		if cmd.OrderDate != nil {
			o.OrderDate = *cmd.OrderDate
		}
		if cmd.StartTime != nil {
			o.StartTime = *cmd.StartTime
		}
		if cmd.EndTime != nil {
			o.EndTime = *cmd.EndTime
		}
		if o.StartTime, o.EndTime, err = normalizeSchedule(o.OrderDate, o.StartTime, o.EndTime); err != nil {
			return err
		}

		now := s.clock.Now()
		o.UpdatedAt = &now
		if err := tx.UpdateOrder(ctx, o); err != nil {
			return err
		}
		view, err = loadView(ctx, tx, o)
		return err
	})
	return view, err
}

// Delete removes the order together with its flight task and route.
func (s *Service) Delete(ctx context.Context, actor types.Actor, id types.ID) error {
	if !actor.Superuser {
		return types.ErrForbidden
	}
	err := s.store.Atomic(ctx, func(tx storage.Tx) error {
		if _, err := tx.GetOrder(ctx, id); err != nil {
			return err
		}
		if err := detachFlightTask(ctx, tx, id); err != nil {
			return err
		}
		return tx.DeleteOrder(ctx, id)
	})
	if err != nil {
		return err
	}
	s.log.WithField("order_id", id).Info("order deleted")
	return nil
}

func requireAvailableClub(ctx context.Context, tx storage.Tx, clubID types.ID) error {
	club, err := tx.GetClub(ctx, clubID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return fmt.Errorf("club %s: %w", clubID, err)
		}
		return err
	}
	if !club.IsAvailable {
		return fmt.Errorf("club %s is archived: %w", clubID, types.ErrUnavailable)
	}
	return nil
}

// normalizeSchedule checks the date and times and returns both times as HH:MM:SS.
func normalizeSchedule(date, start, end string) (string, string, error) {
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return "", "", fmt.Errorf("%w: order date %q", types.ErrBadRequest, date)
	}
	s, err := models.NormalizeClock(start)
	if err != nil {
		return "", "", fmt.Errorf("%w: start time: %v", types.ErrBadRequest, err)
	}
	e, err := models.NormalizeClock(end)
	if err != nil {
		return "", "", fmt.Errorf("%w: end time: %v", types.ErrBadRequest, err)
	}
	if e <= s {
		return "", "", fmt.Errorf("%w: end time must be after start time", types.ErrBadRequest)
	}
	return s, e, nil
}
