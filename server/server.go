// Package server wires the HTTP API and the background evaluators.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/kataforge/kataforge/internal/profile"
	"github.com/kataforge/kataforge/internal/version"
	apiv1 "github.com/kataforge/kataforge/server/router/api/v1"
	"github.com/kataforge/kataforge/server/runner/achievementsweep"
	"github.com/kataforge/kataforge/server/runner/streakdecay"
	"github.com/kataforge/kataforge/server/service/engagement"
	"github.com/kataforge/kataforge/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	scheduler  *gocron.Scheduler
	apiService *apiv1.APIV1Service
	stopC      chan struct{}
}

func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(echomiddleware.Recover())
	echoServer.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			slog.Debug("request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status))
			return nil
		},
	}))

	s := &Server{
		Profile:    profile,
		Store:      store,
		echoServer: echoServer,
		scheduler:  gocron.NewScheduler(time.UTC),
		stopC:      make(chan struct{}),
	}

	echoServer.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})

	s.apiService = apiv1.NewAPIV1Service(profile, store)
	s.apiService.Register(echoServer)

	engagementService := engagement.NewService(store)
	decayRunner := streakdecay.NewRunner(engagementService, profile.StreakDecayInterval)
	sweepRunner := achievementsweep.NewRunner(engagementService, profile.AchievementSweepInterval)
	if _, err := s.scheduler.Every(decayRunner.Interval()).Do(func() {
		decayRunner.RunOnce(ctx)
	}); err != nil {
		return nil, errors.Wrap(err, "failed to schedule streak decay")
	}
	if _, err := s.scheduler.Every(sweepRunner.Interval()).Do(func() {
		sweepRunner.RunOnce(ctx)
	}); err != nil {
		return nil, errors.Wrap(err, "failed to schedule achievement sweep")
	}

	return s, nil
}

func (s *Server) Start(_ context.Context) error {
	s.scheduler.StartAsync()
	s.apiService.StartLimiterCleanup(s.stopC)

	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	slog.Info("server started",
		slog.String("address", address),
		slog.String("version", version.GetCurrentVersion(s.Profile.Mode)))
	return s.echoServer.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	s.scheduler.Stop()
	close(s.stopC)

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", slog.Any("error", err))
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", slog.Any("error", err))
	}
	slog.Info("server stopped")
}
