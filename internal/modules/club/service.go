// README: Club and equipment management (create, edit, browse); archive/activate/delete live in guard.go.
package club

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"dronebook/internal/models"
	"dronebook/internal/storage"
	"dronebook/internal/types"
)

// Geocoder turns a street address into coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (types.Point, error)
}

type Service struct {
	store    storage.Store
	clock    types.Clock
	geocoder Geocoder
	log      *logrus.Entry
}

// NewService builds the service. geocoder may be nil, in which case clubs
// must be created with explicit coordinates.
func NewService(store storage.Store, clock types.Clock, geocoder Geocoder, log *logrus.Entry) *Service {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Service{store: store, clock: clock, geocoder: geocoder, log: log.WithField("component", "club")}
}

type CreateClubCommand struct {
	Name      string
	Address   string
	Latitude  *float64
	Longitude *float64
}

type UpdateClubCommand struct {
	Name      *string
	Address   *string
	Latitude  *float64
	Longitude *float64
}

func (s *Service) CreateClub(ctx context.Context, cmd CreateClubCommand) (*models.Club, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: club name is required", types.ErrBadRequest)
	}
	pt, err := s.locate(ctx, cmd.Address, cmd.Latitude, cmd.Longitude)
	if err != nil {
		return nil, err
	}

	c := &models.Club{
		ID:          types.NewID(),
		Name:        name,
		Address:     strings.TrimSpace(cmd.Address),
		Latitude:    pt.Lat,
		Longitude:   pt.Lng,
		IsAvailable: true,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.store.Atomic(ctx, func(tx storage.Tx) error {
		return tx.CreateClub(ctx, c)
	}); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"club_id": c.ID, "name": c.Name}).Info("club created")
	return c, nil
}

// locate returns explicit coordinates when both are given, otherwise geocodes address.
func (s *Service) locate(ctx context.Context, address string, lat, lng *float64) (types.Point, error) {
	if lat != nil && lng != nil {
		pt := types.Point{Lat: *lat, Lng: *lng}
		if !pt.Valid() {
			return types.Point{}, fmt.Errorf("%w: coordinates out of range", types.ErrBadRequest)
		}
		return pt, nil
	}
	if lat != nil || lng != nil {
		return types.Point{}, fmt.Errorf("%w: latitude and longitude go together", types.ErrBadRequest)
	}
	if s.geocoder == nil || strings.TrimSpace(address) == "" {
		return types.Point{}, fmt.Errorf("%w: coordinates are required", types.ErrBadRequest)
	}
	pt, err := s.geocoder.Geocode(ctx, address)
	if err != nil {
		s.log.WithError(err).WithField("address", address).Warn("geocoding failed")
		return types.Point{}, fmt.Errorf("%w: address could not be geocoded", types.ErrBadRequest)
	}
	return pt, nil
}

func (s *Service) UpdateClub(ctx context.Context, id types.ID, cmd UpdateClubCommand) (*models.Club, error) {
	var out *models.Club
	err := s.store.Atomic(ctx, func(tx storage.Tx) error {
		c, err := tx.GetClub(ctx, id)
		if err != nil {
			return err
		}
		if cmd.Name != nil {
			if strings.TrimSpace(*cmd.Name) == "" {
				return fmt.Errorf("%w: club name is empty", types.ErrBadRequest)
			}
			c.Name = strings.TrimSpace(*cmd.Name)
		}
		relocate := cmd.Latitude != nil || cmd.Longitude != nil
		if cmd.Address != nil {
			c.Address = strings.TrimSpace(*cmd.Address)
			relocate = true
		}
		if relocate {
			pt, err := s.locate(ctx, c.Address, cmd.Latitude, cmd.Longitude)
			if err != nil {
				return err
			}
			c.Latitude, c.Longitude = pt.Lat, pt.Lng
		}
		now := s.clock.Now()
		c.UpdatedAt = &now
		if err := tx.UpdateClub(ctx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	return out, err
}

// GetClub returns the club. Archived clubs are reported missing unless includeArchived.
func (s *Service) GetClub(ctx context.Context, id types.ID, includeArchived bool) (*models.Club, error) {
	var out *models.Club
	err := s.store.View(ctx, func(tx storage.Tx) error {
		c, err := tx.GetClub(ctx, id)
		if err != nil {
			return err
		}
		if !c.IsAvailable && !includeArchived {
			return types.ErrNotFound
		}
		out = c
		return nil
	})
	return out, err
}

func (s *Service) ListClubs(ctx context.Context, f storage.ClubFilter) ([]*models.Club, error) {
	var out []*models.Club
	err := s.store.View(ctx, func(tx storage.Tx) error {
		var err error
		out, err = tx.ListClubs(ctx, f)
		return err
	})
	return out, err
}

// requireOpenClub fails unless the club exists and is not archived.
func requireOpenClub(ctx context.Context, tx storage.Tx, id types.ID) error {
	c, err := tx.GetClub(ctx, id)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return fmt.Errorf("club %s: %w", id, err)
		}
		return err
	}
	if !c.IsAvailable {
		return fmt.Errorf("club %s is archived: %w", id, types.ErrUnavailable)
	}
	return nil
}
