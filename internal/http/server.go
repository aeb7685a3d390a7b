// README: API gateway; owns the HTTP listener and delegates to module services.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"dronebook/internal/http/handlers"
	"dronebook/internal/http/middleware"
	"dronebook/internal/infra"
	"dronebook/internal/modules/club"
	"dronebook/internal/modules/flighttask"
	"dronebook/internal/modules/order"
)

const shutdownTimeout = 10 * time.Second

type ServerDeps struct {
	Orders      *order.Service
	FlightTasks *flighttask.Service
	Clubs       *club.Service
	Guard       *club.Guard
	Users       middleware.ActorResolver
	Verifier    infra.TokenVerifier
	// Sweeper may be nil when no sweeper runs in this process.
	Sweeper        handlers.SweepReporter
	AllowedOrigins []string
	Log            *logrus.Entry
}

func (d ServerDeps) logger() *logrus.Entry {
	if d.Log == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return d.Log
}

type Server struct {
	srv *http.Server
	log *logrus.Entry
}

func NewServer(addr string, deps ServerDeps) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(deps),
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: deps.logger().WithField("component", "http"),
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.srv.Addr).Info("http server listening")
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	s.log.Info("http server shutting down")
	return s.srv.Shutdown(shutdownCtx)
}
