package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/inkwire-server/internal/auth"
	"github.com/vovakirdan/inkwire-server/internal/config"
	"github.com/vovakirdan/inkwire-server/internal/core"
	"github.com/vovakirdan/inkwire-server/internal/registry"
)

// NewServer builds the HTTP server: REST endpoints plus the /ws bridge.
func NewServer(hub *core.Hub, authService *auth.Service, reg *registry.Registry, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	api := NewAPIHandlers(authService, hub, reg, logger)
	router.GET("/health", api.Health)
	router.POST("/api/register", api.Register)
	router.POST("/api/login", api.Login)
	router.GET("/api/me", AuthMiddleware(authService, logger), api.Me)
	router.GET("/api/rooms/:roomId", api.RoomInfo)
	router.GET("/ws", gin.WrapH(NewWSHandler(hub, cfg, logger)))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
