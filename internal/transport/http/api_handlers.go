package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/inkwire-server/internal/auth"
	"github.com/vovakirdan/inkwire-server/internal/core"
	"github.com/vovakirdan/inkwire-server/internal/registry"
)

// APIHandlers provides HTTP handlers for REST API endpoints.
type APIHandlers struct {
	authService *auth.Service
	hub         *core.Hub
	registry    *registry.Registry
	log         *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(authService *auth.Service, hub *core.Hub, reg *registry.Registry, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		authService: authService,
		hub:         hub,
		registry:    reg,
		log:         logger,
	}
}

// CredentialsRequest represents the register/login request body.
type CredentialsRequest struct {
	AccountKey  string `json:"accountKey"`
	DisplayName string `json:"displayName" binding:"required,min=2,max=20"`
	Credential  string `json:"credential" binding:"required,min=6,max=50"`
}

// AuthResponse represents the authentication response body.
type AuthResponse struct {
	Token       string `json:"token"`
	AccountKey  string `json:"accountKey"`
	DisplayName string `json:"displayName"`
	Color       string `json:"color"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Register creates a new account and returns a token.
// POST /api/register
func (h *APIHandlers) Register(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid register request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	account, isNew, err := h.authService.Authenticate(c.Request.Context(), req.AccountKey, req.DisplayName, req.Credential)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredential) {
			c.JSON(http.StatusConflict, ErrorResponse{Error: "account already exists"})
			return
		}
		h.log.Error().Err(err).Str("display_name", req.DisplayName).Msg("failed to register account")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if !isNew {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "account already exists"})
		return
	}

	token, err := h.authService.IssueToken(account)
	if err != nil {
		h.log.Error().Err(err).Str("account", account.Key).Msg("failed to issue token")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("account", account.Key).Msg("account registered")
	c.JSON(http.StatusCreated, AuthResponse{
		Token:       token,
		AccountKey:  account.Key,
		DisplayName: account.DisplayName,
		Color:       account.Color,
	})
}

// Login validates credentials and returns a token.
// POST /api/login
func (h *APIHandlers) Login(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid login request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	account, _, err := h.authService.Authenticate(c.Request.Context(), req.AccountKey, req.DisplayName, req.Credential)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredential) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
			return
		}
		h.log.Error().Err(err).Str("display_name", req.DisplayName).Msg("failed to login")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	token, err := h.authService.IssueToken(account)
	if err != nil {
		h.log.Error().Err(err).Str("account", account.Key).Msg("failed to issue token")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		Token:       token,
		AccountKey:  account.Key,
		DisplayName: account.DisplayName,
		Color:       account.Color,
	})
}

// MeResponse represents the authenticated account view.
type MeResponse struct {
	AccountKey  string `json:"accountKey"`
	DisplayName string `json:"displayName"`
	Color       string `json:"color"`
	Online      bool   `json:"online"`
	CreatedAt   string `json:"createdAt"`
}

// Me returns the account behind the presented token.
// GET /api/me
func (h *APIHandlers) Me(c *gin.Context) {
	key := c.GetString(ContextKeyAccountKey)

	account, err := h.authService.Account(c.Request.Context(), key)
	if err != nil {
		h.log.Error().Err(err).Str("account", key).Msg("failed to load account")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, MeResponse{
		AccountKey:  account.Key,
		DisplayName: account.DisplayName,
		Color:       account.Color,
		Online:      h.registry.Online(account.Key),
		CreatedAt:   account.CreatedAt.Format(time.RFC3339),
	})
}

// RoomInfoResponse represents a room in API responses.
type RoomInfoResponse struct {
	ID           string `json:"id"`
	UserCount    int    `json:"userCount"`
	DrawingCount int    `json:"drawingCount"`
	CreatedAt    string `json:"createdAt"`
}

// RoomInfo returns counts for one room.
// GET /api/rooms/:roomId
func (h *APIHandlers) RoomInfo(c *gin.Context) {
	view, ok := h.hub.RoomInfo(c.Param("roomId"))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}

	c.JSON(http.StatusOK, RoomInfoResponse{
		ID:           view.ID,
		UserCount:    view.MemberCount,
		DrawingCount: len(view.Paths),
		CreatedAt:    view.CreatedAt.Format(time.RFC3339),
	})
}

// HealthResponse represents the health check body.
type HealthResponse struct {
	Status     string `json:"status"`
	Timestamp  string `json:"timestamp"`
	Rooms      int    `json:"rooms"`
	TotalUsers int    `json:"totalUsers"`
}

// Health reports liveness plus room and online user counts.
// GET /health
func (h *APIHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:     "ok",
		Timestamp:  time.Now().Format(time.RFC3339),
		Rooms:      h.hub.RoomCount(),
		TotalUsers: h.registry.OnlineCount(),
	})
}
