// README: serve: HTTP API plus the sweeper and outbox relay background loops.
package main

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"dronebook/internal/config"
	httptransport "dronebook/internal/http"
	"dronebook/internal/infra"
	"dronebook/internal/maps"
	"dronebook/internal/modules/club"
	"dronebook/internal/modules/flighttask"
	"dronebook/internal/modules/order"
	"dronebook/internal/modules/outbox"
	"dronebook/internal/modules/sweeper"
	"dronebook/internal/modules/user"
)

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background loops",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

func runServe(parent context.Context, configPath string) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.close()
	cfg := a.cfg

	verifier, err := newVerifier(ctx, cfg.Auth)
	if err != nil {
		return err
	}

	var geocoder club.Geocoder
	if cfg.Maps.APIKey != "" {
		g, err := maps.NewGeocoder(cfg.Maps.APIKey, cfg.Maps.Region)
		if err != nil {
			return err
		}
		geocoder = g
	} else {
		a.log.Info("maps.api_key not set; clubs need explicit coordinates")
	}

	deps := httptransport.ServerDeps{
		Orders:         order.NewService(a.store, a.clock, a.entry("order")),
		FlightTasks:    flighttask.NewService(a.store, a.clock, a.entry("flighttask")),
		Clubs:          club.NewService(a.store, a.clock, geocoder, a.entry("club")),
		Guard:          club.NewGuard(a.store, a.clock, a.entry("club")),
		Users:          user.NewService(a.store, a.clock, cfg.Auth.FirstSuperuserEmail, a.entry("user")),
		Verifier:       verifier,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Log:            a.entry("http"),
	}

	if cfg.Sweeper.Enabled {
		sw, closeLocker := newSweeper(a)
		defer closeLocker()
		sw.Start(ctx)
		defer sw.Stop()
		deps.Sweeper = sw
	}

	var wg sync.WaitGroup
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := infra.NewSaramaProducer(cfg.Kafka.Brokers, a.entry("kafka"))
		if err != nil {
			return err
		}
		defer producer.Close()
		relay := outbox.NewRelay(a.store, producer, outbox.Config{
			Topic:     cfg.Kafka.Topic,
			Interval:  cfg.Kafka.RelayInterval,
			BatchSize: cfg.Kafka.BatchSize,
		}, a.clock, a.entry("outbox"))
		wg.Add(1)
		go func() {
			defer wg.Done()
			relay.Run(ctx)
		}()
	} else {
		a.log.Info("kafka.brokers not set; order events stay in the outbox")
	}

	err = httptransport.NewServer(cfg.HTTP.Addr, deps).Run(ctx)
	stop()
	wg.Wait()
	return err
}

func newVerifier(ctx context.Context, cfg config.AuthConfig) (infra.TokenVerifier, error) {
	switch cfg.Provider {
	case "firebase":
		if cfg.FirebaseProjectID == "" {
			return nil, fmt.Errorf("auth.firebase_project_id is required for the firebase provider")
		}
		return infra.NewFirebaseVerifier(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsFile)
	default:
		return infra.NewJWTVerifier(cfg.JWTSecret)
	}
}

// newSweeper builds the sweeper. The returned func closes the redis locker, if any.
func newSweeper(a *app) (*sweeper.Sweeper, func()) {
	opts := []sweeper.Option{sweeper.WithLogger(a.entry("sweeper"))}
	closeLocker := func() {}
	if a.cfg.Redis.Addr != "" {
		locker := infra.NewRedisLocker(infra.NewRedis(a.cfg.Redis.Addr, a.cfg.Redis.Password, a.cfg.Redis.DB))
		opts = append(opts, sweeper.WithLocker(locker))
		closeLocker = func() {
			if err := locker.Close(); err != nil {
				a.log.WithError(err).Warn("close redis")
			}
		}
	}
	return sweeper.New(a.store, a.clock, sweeper.Config{
		Interval: a.cfg.Sweeper.Interval,
		Location: a.loc,
		LockTTL:  a.cfg.Sweeper.LockTTL,
	}, opts...), closeLocker
}
