package club

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"dronebook/internal/models"
	"dronebook/internal/storage"
	"dronebook/internal/types"
)

type DroneInput struct {
	ClubID        types.ID
	Model         string
	BatteryCharge int
}

type DronePatch struct {
	ClubID        *types.ID
	Model         *string
	BatteryCharge *int
}

type CameraInput struct {
	ClubID   types.ID
	Model    string
	WidthPx  int
	HeightPx int
	FPS      int
}

type CameraPatch struct {
	ClubID   *types.ID
	Model    *string
	WidthPx  *int
	HeightPx *int
	FPS      *int
}

type LensInput struct {
	ClubID         types.ID
	Model          string
	MinFocalLength float64
	MaxFocalLength float64
}

type LensPatch struct {
	ClubID         *types.ID
	Model          *string
	MinFocalLength *float64
	MaxFocalLength *float64
}

func checkModel(model string) (string, error) {
	m := strings.TrimSpace(model)
	if m == "" {
		return "", fmt.Errorf("%w: model is required", types.ErrBadRequest)
	}
	return m, nil
}

func checkDrone(d *models.Drone) error {
	if d.BatteryCharge < 0 || d.BatteryCharge > 100 {
		return fmt.Errorf("%w: battery charge must be within 0..100", types.ErrBadRequest)
	}
	return nil
}

func checkCamera(c *models.Camera) error {
	if c.WidthPx <= 0 || c.HeightPx <= 0 || c.FPS <= 0 {
		return fmt.Errorf("%w: resolution and fps must be positive", types.ErrBadRequest)
	}
	return nil
}

func checkLens(l *models.Lens) error {
	if l.MinFocalLength <= 0 || l.MaxFocalLength < l.MinFocalLength {
		return fmt.Errorf("%w: focal lengths must satisfy 0 < min <= max", types.ErrBadRequest)
	}
	return nil
}

// moveTo resolves the club an item ends up in. Moving needs an open target
// club and an item no flight task points at.
func moveTo(ctx context.Context, tx storage.Tx, kind models.EquipmentKind, id, current types.ID, target *types.ID) (types.ID, error) {
	if target == nil || *target == current {
		return current, nil
	}
	if err := requireOpenClub(ctx, tx, *target); err != nil {
		return "", err
	}
	n, err := tx.CountFlightTasksUsing(ctx, kind, id)
	if err != nil {
		return "", err
	}
	if n > 0 {
		return "", fmt.Errorf("%s %s is used by %d flight tasks: %w", kind, id, n, types.ErrConflict)
	}
	return *target, nil
}

// visible reports whether an item shows up for a caller that does not ask
// for archived rows.
func visible(ctx context.Context, tx storage.Tx, e models.Equipment) (bool, error) {
	if !e.IsAvailable {
		return false, nil
	}
	c, err := tx.GetClub(ctx, e.ClubID)
	if err != nil {
		return false, err
	}
	return c.IsAvailable, nil
}

func (s *Service) newHeader(ctx context.Context, tx storage.Tx, clubID types.ID, model string) (models.Equipment, error) {
	m, err := checkModel(model)
	if err != nil {
		return models.Equipment{}, err
	}
	if err := requireOpenClub(ctx, tx, clubID); err != nil {
		return models.Equipment{}, err
	}
	return models.Equipment{
		ID:          types.NewID(),
		ClubID:      clubID,
		Model:       m,
		IsAvailable: true,
		CreatedAt:   s.clock.Now(),
	}, nil
}

// patchHeader applies the shared part of an equipment patch.
func (s *Service) patchHeader(ctx context.Context, tx storage.Tx, kind models.EquipmentKind, e *models.Equipment, clubID *types.ID, model *string) error {
	if model != nil {
		m, err := checkModel(*model)
		if err != nil {
			return err
		}
		e.Model = m
	}
	club, err := moveTo(ctx, tx, kind, e.ID, e.ClubID, clubID)
	if err != nil {
		return err
	}
	e.ClubID = club
	now := s.clock.Now()
	e.UpdatedAt = &now
	return nil
}

func (s *Service) logCreated(kind models.EquipmentKind, e models.Equipment) {
	s.log.WithFields(logrus.Fields{"kind": kind, "id": e.ID, "club_id": e.ClubID}).Info("equipment created")
}

func (s *Service) CreateDrone(ctx context.Context, in DroneInput) (*models.Drone, error) {
	d := &models.Drone{BatteryCharge: in.BatteryCharge}
	if err := checkDrone(d); err != nil {
		return nil, err
	}
	err := s.store.Atomic(ctx, func(tx storage.Tx) error {
		h, err := s.newHeader(ctx, tx, in.ClubID, in.Model)
		if err != nil {
			return err
		}
		d.Equipment = h
		return tx.CreateDrone(ctx, d)
	})
	if err != nil {
		return nil, err
	}
	s.logCreated(models.KindDrone, d.Equipment)
	return d, nil
}

func (s *Service) UpdateDrone(ctx context.Context, id types.ID, p DronePatch) (*models.Drone, error) {
	var out *models.Drone
	err := s.store.Atomic(ctx, func(tx storage.Tx) error {
		d, err := tx.GetDrone(ctx, id)
		if err != nil {
			return err
		}
		if p.BatteryCharge != nil {
			d.BatteryCharge = *p.BatteryCharge
		}
		if err := checkDrone(d); err != nil {
			return err
		}
		if err := s.patchHeader(ctx, tx, models.KindDrone, &d.Equipment, p.ClubID, p.Model); err != nil {
			return err
		}
		out = d
		return tx.UpdateDrone(ctx, d)
	})
	return out, err
}

func (s *Service) GetDrone(ctx context.Context, id types.ID, includeArchived bool) (*models.Drone, error) {
	var out *models.Drone
	err := s.store.View(ctx, func(tx storage.Tx) error {
		d, err := tx.GetDrone(ctx, id)
		if err != nil {
			return err
		}
		if !includeArchived {
			if ok, err := visible(ctx, tx, d.Equipment); err != nil || !ok {
				return notFoundUnless(err)
			}
		}
		out = d
		return nil
	})
	return out, err
}

func (s *Service) ListDrones(ctx context.Context, f storage.EquipmentFilter) ([]*models.Drone, error) {
	var out []*models.Drone
	err := s.store.View(ctx, func(tx storage.Tx) error {
		var err error
		out, err = tx.ListDrones(ctx, f)
		return err
	})
	return out, err
}

func (s *Service) CreateCamera(ctx context.Context, in CameraInput) (*models.Camera, error) {
	c := &models.Camera{WidthPx: in.WidthPx, HeightPx: in.HeightPx, FPS: in.FPS}
	if err := checkCamera(c); err != nil {
		return nil, err
	}
	err := s.store.Atomic(ctx, func(tx storage.Tx) error {
		h, err := s.newHeader(ctx, tx, in.ClubID, in.Model)
		if err != nil {
			return err
		}
		c.Equipment = h
		return tx.CreateCamera(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	s.logCreated(models.KindCamera, c.Equipment)
	return c, nil
}

func (s *Service) UpdateCamera(ctx context.Context, id types.ID, p CameraPatch) (*models.Camera, error) {
	var out *models.Camera
	err := s.store.Atomic(ctx, func(tx storage.Tx) error {
		c, err := tx.GetCamera(ctx, id)
		if err != nil {
			return err
		}
		if p.WidthPx != nil {
			c.WidthPx = *p.WidthPx
		}
		if p.HeightPx != nil {
			c.HeightPx = *p.HeightPx
		}
		if p.FPS != nil {
			c.FPS = *p.FPS
		}
		if err := checkCamera(c); err != nil {
			return err
		}
		if err := s.patchHeader(ctx, tx, models.KindCamera, &c.Equipment, p.ClubID, p.Model); err != nil {
			return err
		}
		out = c
		return tx.UpdateCamera(ctx, c)
	})
	return out, err
}

func (s *Service) GetCamera(ctx context.Context, id types.ID, includeArchived bool) (*models.Camera, error) {
	var out *models.Camera
	err := s.store.View(ctx, func(tx storage.Tx) error {
		c, err := tx.GetCamera(ctx, id)
		if err != nil {
			return err
		}
		if !includeArchived {
			if ok, err := visible(ctx, tx, c.Equipment); err != nil || !ok {
				return notFoundUnless(err)
			}
		}
		out = c
		return nil
	})
	return out, err
}

func (s *Service) ListCameras(ctx context.Context, f storage.EquipmentFilter) ([]*models.Camera, error) {
	var out []*models.Camera
	err := s.store.View(ctx, func(tx storage.Tx) error {
		var err error
		out, err = tx.ListCameras(ctx, f)
		return err
	})
	return out, err
}

func (s *Service) CreateLens(ctx context.Context, in LensInput) (*models.Lens, error) {
	l := &models.Lens{MinFocalLength: in.MinFocalLength, MaxFocalLength: in.MaxFocalLength}
	if err := checkLens(l); err != nil {
		return nil, err
	}
	err := s.store.Atomic(ctx, func(tx storage.Tx) error {
		h, err := s.newHeader(ctx, tx, in.ClubID, in.Model)
		if err != nil {
			return err
		}
		l.Equipment = h
		return tx.CreateLens(ctx, l)
	})
	if err != nil {
		return nil, err
	}
	s.logCreated(models.KindLens, l.Equipment)
	return l, nil
}

func (s *Service) UpdateLens(ctx context.Context, id types.ID, p LensPatch) (*models.Lens, error) {
	var out *models.Lens
	err := s.store.Atomic(ctx, func(tx storage.Tx) error {
		l, err := tx.GetLens(ctx, id)
		if err != nil {
			return err
		}
		if p.MinFocalLength != nil {
			l.MinFocalLength = *p.MinFocalLength
		}
		if p.MaxFocalLength != nil {
			l.MaxFocalLength = *p.MaxFocalLength
		}
		if err := checkLens(l); err != nil {
			return err
		}
		if err := s.patchHeader(ctx, tx, models.KindLens, &l.Equipment, p.ClubID, p.Model); err != nil {
			return err
		}
		out = l
		return tx.UpdateLens(ctx, l)
	})
	return out, err
}

func (s *Service) GetLens(ctx context.Context, id types.ID, includeArchived bool) (*models.Lens, error) {
	var out *models.Lens
	err := s.store.View(ctx, func(tx storage.Tx) error {
		l, err := tx.GetLens(ctx, id)
		if err != nil {
			return err
		}
		if !includeArchived {
			if ok, err := visible(ctx, tx, l.Equipment); err != nil || !ok {
				return notFoundUnless(err)
			}
		}
		out = l
		return nil
	})
	return out, err
}

func (s *Service) ListLenses(ctx context.Context, f storage.EquipmentFilter) ([]*models.Lens, error) {
	var out []*models.Lens
	err := s.store.View(ctx, func(tx storage.Tx) error {
		var err error
		out, err = tx.ListLenses(ctx, f)
		return err
	})
	return out, err
}

func notFoundUnless(err error) error {
	if err != nil {
		return err
	}
	return types.ErrNotFound
}
