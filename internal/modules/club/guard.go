// README: Archival integrity: archive/activate/delete of clubs and equipment without dangling references.
package club

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"dronebook/internal/models"
	"dronebook/internal/storage"
	"dronebook/internal/types"
)

type Guard struct {
	store storage.Store
	clock types.Clock
	log   *logrus.Entry
}

func NewGuard(store storage.Store, clock types.Clock, log *logrus.Entry) *Guard {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Guard{store: store, clock: clock, log: log.WithField("component", "archive-guard")}
}

// ArchiveResult reports a club archive and how many equipment rows it switched off.
type ArchiveResult struct {
	Club              *models.Club
	EquipmentArchived int64
}

// ArchiveClub marks the club and all of its equipment unavailable in one transaction.
func (g *Guard) ArchiveClub(ctx context.Context, id types.ID) (*ArchiveResult, error) {
	var res ArchiveResult
	err := g.store.Atomic(ctx, func(tx storage.Tx) error {
		c, err := tx.GetClub(ctx, id)
		if err != nil {
			return err
		}
		if !c.IsAvailable {
			return fmt.Errorf("club %s: %w", id, types.ErrAlreadyArchived)
		}
		now := g.clock.Now()
		c.IsAvailable = false
		c.UpdatedAt = &now
		if err := tx.UpdateClub(ctx, c); err != nil {
			return err
		}
		n, err := tx.ArchiveClubEquipment(ctx, id, now)
		if err != nil {
			return fmt.Errorf("archive equipment of club %s: %w", id, err)
		}
		res = ArchiveResult{Club: c, EquipmentArchived: n}
		return nil
	})
	if err != nil {
		return nil, err
	}
	g.log.WithFields(logrus.Fields{"club_id": id, "equipment": res.EquipmentArchived}).Info("club archived")
	return &res, nil
}

// ActivateClub reopens the club. Its equipment stays as it is.
func (g *Guard) ActivateClub(ctx context.Context, id types.ID) (*models.Club, error) {
	var out *models.Club
	err := g.store.Atomic(ctx, func(tx storage.Tx) error {
		c, err := tx.GetClub(ctx, id)
		if err != nil {
			return err
		}
		if c.IsAvailable {
			return fmt.Errorf("club %s: %w", id, types.ErrAlreadyActive)
		}
		now := g.clock.Now()
		c.IsAvailable = true
		c.UpdatedAt = &now
		out = c
		return tx.UpdateClub(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	g.log.WithField("club_id", id).Info("club activated")
	return out, nil
}

func (g *Guard) DeleteClub(ctx context.Context, id types.ID) error {
	err := g.store.Atomic(ctx, func(tx storage.Tx) error {
		if _, err := tx.GetClub(ctx, id); err != nil {
			return err
		}
		refs, err := tx.CountClubReferences(ctx, id)
		if err != nil {
			return err
		}
		if refs.Total() > 0 {
			return fmt.Errorf("club %s is referenced by %d orders, %d drones, %d cameras, %d lenses, %d routes: %w",
				id, refs.Orders, refs.Drones, refs.Cameras, refs.Lenses, refs.Routes, types.ErrConflict)
		}
		return tx.DeleteClub(ctx, id)
	})
	if err != nil {
		return err
	}
	g.log.WithField("club_id", id).Info("club deleted")
	return nil
}

func (g *Guard) ArchiveEquipment(ctx context.Context, kind models.EquipmentKind, id types.ID) (*models.Equipment, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown equipment kind %q", types.ErrBadRequest, kind)
	}
	var out *models.Equipment
	err := g.store.Atomic(ctx, func(tx storage.Tx) error {
		e, err := tx.GetEquipment(ctx, kind, id)
		if err != nil {
			return err
		}
		if !e.IsAvailable {
			return fmt.Errorf("%s %s: %w", kind, id, types.ErrAlreadyArchived)
		}
		if err := ensureUnreferenced(ctx, tx, kind, id); err != nil {
			return err
		}
		now := g.clock.Now()
		if err := tx.SetEquipmentAvailability(ctx, kind, id, false, now); err != nil {
			return err
		}
		e.IsAvailable, e.UpdatedAt = false, &now
		out = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	g.log.WithFields(logrus.Fields{"kind": kind, "id": id}).Info("equipment archived")
	return out, nil
}

// ActivateEquipment requires the owning club to be active.
func (g *Guard) ActivateEquipment(ctx context.Context, kind models.EquipmentKind, id types.ID) (*models.Equipment, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown equipment kind %q", types.ErrBadRequest, kind)
	}
	var out *models.Equipment
	err := g.store.Atomic(ctx, func(tx storage.Tx) error {
		e, err := tx.GetEquipment(ctx, kind, id)
		if err != nil {
			return err
		}
		if e.IsAvailable {
			return fmt.Errorf("%s %s: %w", kind, id, types.ErrAlreadyActive)
		}
		if err := requireOpenClub(ctx, tx, e.ClubID); err != nil {
			return err
		}
		now := g.clock.Now()
		if err := tx.SetEquipmentAvailability(ctx, kind, id, true, now); err != nil {
			return err
		}
		e.IsAvailable, e.UpdatedAt = true, &now
		out = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	g.log.WithFields(logrus.Fields{"kind": kind, "id": id}).Info("equipment activated")
	return out, nil
}

func (g *Guard) DeleteEquipment(ctx context.Context, kind models.EquipmentKind, id types.ID) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown equipment kind %q", types.ErrBadRequest, kind)
	}
	err := g.store.Atomic(ctx, func(tx storage.Tx) error {
		if _, err := tx.GetEquipment(ctx, kind, id); err != nil {
			return err
		}
		if err := ensureUnreferenced(ctx, tx, kind, id); err != nil {
			return err
		}
		return tx.DeleteEquipment(ctx, kind, id)
	})
	if err != nil {
		return err
	}
	g.log.WithFields(logrus.Fields{"kind": kind, "id": id}).Info("equipment deleted")
	return nil
}

func ensureUnreferenced(ctx context.Context, tx storage.Tx, kind models.EquipmentKind, id types.ID) error {
	n, err := tx.CountFlightTasksUsing(ctx, kind, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%s %s is used by %d flight tasks: %w", kind, id, n, types.ErrConflict)
	}
	return nil
}
