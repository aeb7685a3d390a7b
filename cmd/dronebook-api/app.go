// README: Process wiring shared by the subcommands: config, logger and the record store.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"dronebook/internal/config"
	"dronebook/internal/infra"
	"dronebook/internal/storage"
	"dronebook/internal/storage/memory"
	"dronebook/internal/storage/postgres"
	"dronebook/internal/types"
)

type app struct {
	cfg   config.Config
	log   *logrus.Logger
	loc   *time.Location
	clock types.Clock
	store storage.Store
	pool  *pgxpool.Pool
}

func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log := infra.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if log.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log, loc: loc, clock: types.SystemClock{Location: loc}}
	switch cfg.Storage.Driver {
	case "memory":
		log.Warn("using in-memory storage; data is lost on exit")
		a.store = memory.New()
	default:
		pool, err := infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			return nil, err
		}
		a.pool = pool
		if cfg.DB.AutoMigrate {
			if err := infra.Migrate(ctx, pool, infra.MigrateUp); err != nil {
				pool.Close()
				return nil, err
			}
		}
		a.store = postgres.NewStore(pool)
	}
	return a, nil
}

func (a *app) entry(component string) *logrus.Entry {
	return a.log.WithField("component", component)
}

func (a *app) requirePostgres() (*pgxpool.Pool, error) {
	if a.pool == nil {
		return nil, fmt.Errorf("storage driver %q has no migrations", a.cfg.Storage.Driver)
	}
	return a.pool, nil
}

func (a *app) close() {
	if a.pool != nil {
		a.pool.Close()
	}
}
