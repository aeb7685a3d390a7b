// README: User resolution: maps a verified bearer token to a stored user and an Actor.
package user

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"dronebook/internal/infra"
	"dronebook/internal/models"
	"dronebook/internal/storage"
	"dronebook/internal/types"
)

const adminRole = "admin"

type Service struct {
	store               storage.Store
	clock               types.Clock
	firstSuperuserEmail string
	log                 *logrus.Entry
}

func NewService(store storage.Store, clock types.Clock, firstSuperuserEmail string, log *logrus.Entry) *Service {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Service{
		store:               store,
		clock:               clock,
		firstSuperuserEmail: strings.ToLower(strings.TrimSpace(firstSuperuserEmail)),
		log:                 log.WithField("component", "user"),
	}
}

// Resolve loads or creates the user behind tok and refreshes its profile.
// Inactive users are rejected with types.ErrForbidden.
func (s *Service) Resolve(ctx context.Context, tok *infra.VerifiedToken) (types.Actor, error) {
	if tok == nil || tok.Subject == "" {
		return types.Actor{}, types.ErrForbidden
	}
	id := types.ID(tok.Subject)

	var stored *models.User
	err := s.store.View(ctx, func(tx storage.Tx) error {
		u, err := tx.GetUser(ctx, id)
		if errors.Is(err, types.ErrNotFound) {
			return nil
		}
		stored = u
		return err
	})
	if err != nil {
		return types.Actor{}, err
	}

	u, changed := s.merge(id, stored, tok)
	if !u.IsActive {
		return types.Actor{}, types.ErrForbidden
	}
	if changed {
		if err := s.store.Atomic(ctx, func(tx storage.Tx) error {
			return tx.UpsertUser(ctx, u)
		}); err != nil {
			return types.Actor{}, err
		}
		if stored == nil {
			s.log.WithFields(logrus.Fields{"user_id": id, "superuser": u.IsSuperuser}).Info("user registered")
		}
	}

	return types.Actor{
		ID:        id,
		Superuser: u.IsSuperuser || tok.Role() == adminRole,
	}, nil
}

// merge folds token claims into the stored user and reports whether anything changed.
func (s *Service) merge(id types.ID, stored *models.User, tok *infra.VerifiedToken) (*models.User, bool) {
	var u models.User
	changed := stored == nil
	if stored == nil {
		u = models.User{ID: id, IsActive: true, CreatedAt: s.clock.Now()}
	} else {
		u = *stored
	}

	if tok.Email != "" && tok.Email != u.Email {
		u.Email, changed = tok.Email, true
	}
	name := tok.Name
	if name == "" && u.Username == "" {
		name, _, _ = strings.Cut(u.Email, "@")
	}
	if name != "" && name != u.Username {
		u.Username, changed = name, true
	}
	if !u.IsSuperuser && s.firstSuperuserEmail != "" && strings.EqualFold(u.Email, s.firstSuperuserEmail) {
		u.IsSuperuser, changed = true, true
	}
	return &u, changed
}
