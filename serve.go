package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/userhub/backend/internal/config"
	"github.com/userhub/backend/internal/handler"
	"github.com/userhub/backend/internal/metrics"
	"github.com/userhub/backend/internal/service"
)

const (
	janitorPeriod = 30 * time.Minute
	// Revoked and expired sessions are kept this long for auditing.
	sessionGrace = 24 * time.Hour
)

func newServeCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, *envFile)
		},
	}
}

func serve(ctx context.Context, envFile string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.Admin.Email != "" {
		if err := a.auth.EnsureAdmin(ctx, a.cfg.Admin.Email, a.cfg.Admin.Name, a.cfg.Admin.Password); err != nil {
			return err
		}
	}

	if a.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router := handler.NewRouter(handler.RouterDeps{
		Auth:           a.auth,
		Users:          a.users,
		Transport:      handler.NewSessionTransport(a.cfg.Auth),
		Metrics:        metrics.New(reg),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Log:            a.log,
		AllowedOrigins: a.cfg.CORS.AllowedOrigins,
	})

	startSessionJanitor(ctx, a.auth, a.log, janitorPeriod)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.log.WithFields(logrus.Fields{"addr": a.cfg.HTTPAddr, "env": a.cfg.Env, "store": a.cfg.Store}).Info("http listen start")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		a.log.Info("shutdown requested")
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.WithError(err).Warn("http forced shutdown")
	}
	a.log.Info("service stopped")
	return nil
}

func startSessionJanitor(ctx context.Context, auth *service.AuthService, log logrus.FieldLogger, period time.Duration) {
	if period <= 0 {
		return
	}

	go func() {
		t := time.NewTicker(period)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				n, err := auth.PurgeSessions(ctx, sessionGrace)
				if err != nil {
					log.WithError(err).Error("session janitor failed")
					continue
				}
				if n > 0 {
					log.WithField("deleted", n).Info("expired sessions purged")
				}
			}
		}
	}()
}
