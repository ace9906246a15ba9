package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/inkwire-server/internal/auth"
	"github.com/vovakirdan/inkwire-server/internal/config"
	"github.com/vovakirdan/inkwire-server/internal/core"
	applog "github.com/vovakirdan/inkwire-server/internal/log"
	"github.com/vovakirdan/inkwire-server/internal/registry"
	"github.com/vovakirdan/inkwire-server/internal/snapshot"
	"github.com/vovakirdan/inkwire-server/internal/store"
	"github.com/vovakirdan/inkwire-server/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/inkwire-server/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	syncer          *snapshot.Syncer
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      24 * time.Hour,
	}

	authService := auth.NewService(st, jwtConfig)
	reg := registry.New()
	hub := core.NewHub(authService, reg, cfg.AuthTimeout, applog.Component(logger, "hub"))

	// Rooms and their drawing history survive restarts.
	rooms, err := st.LoadRooms(context.Background())
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("load rooms: %w", err)
	}
	if err := hub.Preload(rooms); err != nil {
		st.Close()
		return nil, fmt.Errorf("preload rooms: %w", err)
	}
	logger.Info().Int("rooms", len(rooms)).Msg("drawing history loaded")

	syncer := snapshot.New(hub, st, cfg.SnapshotInterval, applog.Component(logger, "snapshot"))
	server := transporthttp.NewServer(hub, authService, reg, cfg, applog.Component(logger, "http"))

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		syncer:          syncer,
		store:           st,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go a.hub.Run(ctx)
	go a.syncer.Run(ctx)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup flushes state and closes the database. The flush runs before the
// hub stops so every room actor can still serve its snapshot.
func (a *App) cleanup() {
	flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.syncer.Flush(flushCtx)

	a.hub.Close()

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
