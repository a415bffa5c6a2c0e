package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/userhub/backend/internal/cache"
	"github.com/userhub/backend/internal/config"
	"github.com/userhub/backend/internal/db"
	"github.com/userhub/backend/internal/service"
	"golang.org/x/crypto/bcrypt"
)

// app is everything a command needs once config is loaded.
type app struct {
	cfg          config.Config
	log          *logrus.Logger
	store        service.Store
	sessionCache cache.SessionCache
	auth         *service.AuthService
	users        *service.UserService
	closers      []func()
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log}

	tokens, err := service.NewTokenManager(cfg.Auth)
	if err != nil {
		return nil, err
	}

	if err := a.openStore(ctx); err != nil {
		a.Close()
		return nil, err
	}

	if cfg.Redis.URL != "" {
		sessionCache, err := cache.NewRedisSessionCache(ctx, cfg.Redis.URL, cfg.Redis.Prefix)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.sessionCache = sessionCache
		a.closers = append(a.closers, func() { _ = sessionCache.Close() })
		log.Info("session cache enabled")
	}

	hasher := service.NewBcryptHasher(bcrypt.DefaultCost)
	a.auth, err = service.NewAuthService(a.store, a.sessionCache, hasher, tokens, cfg.Auth, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.users = service.NewUserService(a.store, hasher, log)
	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	if a.cfg.Store == config.StoreMemory {
		a.log.Warn("using in-memory store, data is lost on exit")
		a.store = db.NewMemory()
		return nil
	}

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := db.NewPostgresPool(dbCtx, a.cfg.Postgres)
	if err != nil {
		return err
	}
	pg := db.NewPostgres(pool)
	a.closers = append(a.closers, pg.Close)

	if err := pg.Migrate(dbCtx); err != nil {
		return err
	}
	a.log.Info("postgres connected")
	a.store = pg
	return nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func newLogger(level string) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})

	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	log.SetLevel(lvl)
	return log, nil
}
